package scorer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/scorer"
)

func TestLoadGolden(t *testing.T) {
	cases, err := scorer.LoadGolden(filepath.Join("testdata", "golden.json"))
	if err != nil {
		t.Fatalf("failed to load golden dataset: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}

	first := cases[0]
	if first.ID != "identical-paragraphs" {
		t.Errorf("unexpected first case id %q", first.ID)
	}
	if first.AITranslation == "" || first.RawText == "" {
		t.Errorf("case %s missing inputs", first.ID)
	}
	if len(first.ExpectedMarkers) != 2 {
		t.Errorf("expected 2 markers in %s, got %d", first.ID, len(first.ExpectedMarkers))
	}
	if first.ExpectedMarkers[0].Reasons[0] != internal.ReasonNoChange {
		t.Errorf("unexpected reason %v", first.ExpectedMarkers[0].Reasons)
	}
}

func TestLoadGolden_MissingFile(t *testing.T) {
	if _, err := scorer.LoadGolden(filepath.Join("testdata", "does-not-exist.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func writeGolden(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadGolden_RejectsBadChunkPattern(t *testing.T) {
	path := writeGolden(t, `[{"id":"bad","expectedMarkers":[{"chunkId":"para-[","reasons":["no-change"]}]}]`)
	if _, err := scorer.LoadGolden(path); err == nil {
		t.Fatal("expected an error for an invalid chunkId pattern")
	}
}

func TestLoadGolden_RejectsUnknownReason(t *testing.T) {
	path := writeGolden(t, `[{"id":"bad","expectedMarkers":[{"chunkId":".*","reasons":["not-a-reason"]}]}]`)
	if _, err := scorer.LoadGolden(path); err == nil {
		t.Fatal("expected an error for an unknown reason")
	}
}

func TestLoadGolden_RejectsBadExplanationPattern(t *testing.T) {
	path := writeGolden(t, `[{"id":"bad","expectedMarkers":[{"chunkId":".*","reasons":["no-change"],"explanationPattern":"("}]}]`)
	if _, err := scorer.LoadGolden(path); err == nil {
		t.Fatal("expected an error for an invalid explanation pattern")
	}
}
