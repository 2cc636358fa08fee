package chunker_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/valpere/noveldiff/internal/chunker"
	"github.com/valpere/noveldiff/internal/hasher"
)

func TestSplit_DoubleBreak(t *testing.T) {
	chunks := chunker.Split("Same text.<br><br>Same text again.")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "Same text." {
		t.Errorf("expected %q, got %q", "Same text.", chunks[0].Text)
	}
	if chunks[1].Text != "Same text again." {
		t.Errorf("expected %q, got %q", "Same text again.", chunks[1].Text)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "First paragraph.<br><br>Second <i>paragraph</i>.<hr>Third."
	first := chunker.Split(text)
	for run := 0; run < 5; run++ {
		again := chunker.Split(text)
		if len(again) != len(first) {
			t.Fatalf("run %d: expected %d chunks, got %d", run, len(first), len(again))
		}
		for i := range first {
			if again[i].ID != first[i].ID {
				t.Errorf("run %d chunk %d: expected id %q, got %q", run, i, first[i].ID, again[i].ID)
			}
		}
	}
}

func TestSplit_IDFormat(t *testing.T) {
	chunks := chunker.Split("Hello world.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := fmt.Sprintf("para-0-%s", hasher.Short("Hello world."))
	if chunks[0].ID != want {
		t.Errorf("expected id %q, got %q", want, chunks[0].ID)
	}
}

func TestSplit_HorizontalRule(t *testing.T) {
	chunks := chunker.Split("Part one.<hr>Part two.")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestSplit_ParagraphTags(t *testing.T) {
	chunks := chunker.Split("<p>First.</p><p>Second.</p>")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "First." || chunks[1].Text != "Second." {
		t.Errorf("unexpected texts: %q, %q", chunks[0].Text, chunks[1].Text)
	}
}

func TestSplit_SingleBreakStaysInChunk(t *testing.T) {
	chunks := chunker.Split("Line one.<br>Line two.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Line one.\nLine two." {
		t.Errorf("expected single break to become newline, got %q", chunks[0].Text)
	}
}

func TestSplit_InlineTagBalancing(t *testing.T) {
	chunks := chunker.Split("<i>Hello<br><br>world</i>")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "<i>Hello</i>" {
		t.Errorf("expected open tag closed at boundary, got %q", chunks[0].Text)
	}
	if chunks[1].Text != "<i>world</i>" {
		t.Errorf("expected tag reopened in next chunk, got %q", chunks[1].Text)
	}
}

func TestSplit_StripsNonInlineTags(t *testing.T) {
	chunks := chunker.Split(`<span class="x">Hello <b>bold</b></span>`)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello <b>bold</b>" {
		t.Errorf("expected span stripped and <b> kept, got %q", chunks[0].Text)
	}
}

func TestSplit_DecodesNbsp(t *testing.T) {
	chunks := chunker.Split("Hello&nbsp;world")
	if len(chunks) != 1 || chunks[0].Text != "Hello world" {
		t.Errorf("expected &nbsp; decoded, got %v", chunks)
	}
}

func TestSplit_CollapsesNewlines(t *testing.T) {
	chunks := chunker.Split("One.<br> <br>Two.<br>Three.")
	for _, c := range chunks {
		if strings.Contains(c.Text, "\n\n\n") {
			t.Errorf("chunk contains 3+ consecutive newlines: %q", c.Text)
		}
	}
}

func TestSplit_PositionsSkipEmptySegments(t *testing.T) {
	// Leading and trailing boundaries produce empty segments that must
	// not consume positions.
	chunks := chunker.Split("<br><br>Only paragraph.<br><br>")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
}

func TestSplit_PositionsContiguous(t *testing.T) {
	chunks := chunker.Split("A.<br><br><br><br>B.<hr>C.")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
	}
}

func TestSplit_Offsets(t *testing.T) {
	chunks := chunker.Split("First.<br><br>Second longer text.")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].Start != 0 {
		t.Errorf("expected first chunk to start at 0, got %d", chunks[0].Start)
	}
	if chunks[0].End != len([]rune(chunks[0].Text)) {
		t.Errorf("expected end %d, got %d", len([]rune(chunks[0].Text)), chunks[0].End)
	}
	// +2 separator allowance between chunks.
	if chunks[1].Start != chunks[0].End+2 {
		t.Errorf("expected second chunk to start at %d, got %d", chunks[0].End+2, chunks[1].Start)
	}
}

func TestSplit_FallbackChunk(t *testing.T) {
	// Normalizes to nothing, so the whole input becomes one chunk.
	input := "<br>"
	chunks := chunker.Split(input)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 fallback chunk, got %d", len(chunks))
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].Text != input {
		t.Errorf("expected fallback chunk to carry the input, got %q", chunks[0].Text)
	}
}

func TestSplit_BreakVariants(t *testing.T) {
	for _, text := range []string{
		"A<br><br>B",
		"A<br/><br/>B",
		"A<br /><br />B",
		"A<BR><BR>B",
	} {
		chunks := chunker.Split(text)
		if len(chunks) != 2 {
			t.Errorf("Split(%q): expected 2 chunks, got %d", text, len(chunks))
		}
	}
}
