package hasher_test

import (
	"regexp"
	"testing"

	"github.com/valpere/noveldiff/internal/hasher"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestHash_Empty(t *testing.T) {
	if got := hasher.Hash(""); got != "00000000" {
		t.Errorf("expected 00000000 for empty string, got %q", got)
	}
}

func TestHash_KnownValues(t *testing.T) {
	// h = h*31 + code unit: "a" -> 97, "ab" -> 97*31+98 = 3105.
	cases := map[string]string{
		"a":  "00000061",
		"ab": "00000c21",
	}
	for in, want := range cases {
		if got := hasher.Hash(in); got != want {
			t.Errorf("Hash(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHash_Shape(t *testing.T) {
	inputs := []string{"a", "hello", "Привіт", "こんにちは", "a very long paragraph of text that overflows 32 bits many times over"}
	for _, in := range inputs {
		got := hasher.Hash(in)
		if !hexRe.MatchString(got) {
			t.Errorf("Hash(%q) = %q, not 8 lowercase hex chars", in, got)
		}
	}
}

func TestHash_Deterministic(t *testing.T) {
	text := "Same text, every time."
	first := hasher.Hash(text)
	for i := 0; i < 10; i++ {
		if got := hasher.Hash(text); got != first {
			t.Fatalf("run %d: expected %q, got %q", i, first, got)
		}
	}
}

func TestShort_IsHashPrefix(t *testing.T) {
	text := "chunk body"
	short := hasher.Short(text)
	if len(short) != 4 {
		t.Fatalf("expected 4 chars, got %d", len(short))
	}
	if full := hasher.Hash(text); full[:4] != short {
		t.Errorf("Short(%q) = %q, want prefix of %q", text, short, full)
	}
}

func TestContent_NormalizesWhitespace(t *testing.T) {
	if hasher.Content("  hello  ") != hasher.Content("hello") {
		t.Error("expected trimmed inputs to hash equal")
	}
}

func TestContent_NormalizesNFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute.
	composed := "café"
	decomposed := "café"
	if hasher.Content(composed) != hasher.Content(decomposed) {
		t.Error("expected canonically equal inputs to hash equal")
	}
}
