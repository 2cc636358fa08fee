package validator_test

import (
	"strings"
	"testing"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/validator"
)

var testChunks = []internal.Chunk{
	{ID: "para-0-aaaa", Text: "First.", Position: 0},
	{ID: "para-1-bbbb", Text: "Second.", Position: 1},
}

func marker(chunkID string, pos int, colors ...internal.Color) internal.Marker {
	return internal.Marker{ChunkID: chunkID, Colors: colors, Position: pos}
}

func TestCheck_FullCoverage(t *testing.T) {
	markers := []internal.Marker{
		marker("para-0-aaaa", 0, internal.ColorGrey),
		marker("para-1-bbbb", 1, internal.ColorRed),
	}

	report := validator.Check(testChunks, markers)
	if !report.Clean() {
		t.Errorf("expected clean report, got problems: %v", report.Problems())
	}
	if report.ColorCounts[internal.ColorGrey] != 1 || report.ColorCounts[internal.ColorRed] != 1 {
		t.Errorf("unexpected color counts: %v", report.ColorCounts)
	}
}

func TestCheck_MissingChunk(t *testing.T) {
	markers := []internal.Marker{marker("para-0-aaaa", 0, internal.ColorGrey)}

	report := validator.Check(testChunks, markers)
	if report.Clean() {
		t.Fatal("expected dirty report")
	}
	if len(report.MissingChunkIDs) != 1 || report.MissingChunkIDs[0] != "para-1-bbbb" {
		t.Errorf("expected para-1-bbbb missing, got %v", report.MissingChunkIDs)
	}
}

func TestCheck_OrphanMarker(t *testing.T) {
	markers := []internal.Marker{
		marker("para-0-aaaa", 0, internal.ColorGrey),
		marker("para-1-bbbb", 1, internal.ColorGrey),
		marker("para-7-ffff", 1, internal.ColorBlue),
	}

	report := validator.Check(testChunks, markers)
	if len(report.OrphanMarkerIDs) != 1 || report.OrphanMarkerIDs[0] != "para-7-ffff" {
		t.Errorf("expected para-7-ffff orphaned, got %v", report.OrphanMarkerIDs)
	}
}

func TestCheck_OutOfRangePosition(t *testing.T) {
	markers := []internal.Marker{
		marker("para-0-aaaa", 0, internal.ColorGrey),
		marker("para-1-bbbb", 5, internal.ColorGrey),
	}

	report := validator.Check(testChunks, markers)
	if len(report.OutOfRangePositions) != 1 || report.OutOfRangePositions[0] != 5 {
		t.Errorf("expected position 5 flagged, got %v", report.OutOfRangePositions)
	}
}

func TestCheck_MultiColorMarkerCountsEach(t *testing.T) {
	markers := []internal.Marker{
		marker("para-0-aaaa", 0, internal.ColorRed, internal.ColorRed, internal.ColorBlue),
		marker("para-1-bbbb", 1, internal.ColorGrey),
	}

	report := validator.Check(testChunks, markers)
	if report.ColorCounts[internal.ColorRed] != 2 {
		t.Errorf("expected red counted twice, got %d", report.ColorCounts[internal.ColorRed])
	}
	if report.ColorCounts[internal.ColorBlue] != 1 {
		t.Errorf("expected blue counted once, got %d", report.ColorCounts[internal.ColorBlue])
	}
}

func TestCheck_EmptyMarkers(t *testing.T) {
	report := validator.Check(testChunks, nil)
	if report.Clean() {
		t.Fatal("expected dirty report when nothing is covered")
	}
	if len(report.MissingChunkIDs) != len(testChunks) {
		t.Errorf("expected all chunks missing, got %v", report.MissingChunkIDs)
	}
}

func TestProblems_NamesEveryFinding(t *testing.T) {
	markers := []internal.Marker{marker("para-7-ffff", 9, internal.ColorBlue)}

	report := validator.Check(testChunks, markers)
	problems := report.Problems()
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems (2 missing, 1 orphan, 1 out of range), got %d: %v", len(problems), problems)
	}

	joined := strings.Join(problems, "\n")
	for _, want := range []string{"para-0-aaaa", "para-1-bbbb", "para-7-ffff", "position 9"} {
		if !strings.Contains(joined, want) {
			t.Errorf("problems missing %q: %v", want, problems)
		}
	}
}

func TestProblems_EmptyWhenClean(t *testing.T) {
	markers := []internal.Marker{
		marker("para-0-aaaa", 0, internal.ColorGrey),
		marker("para-1-bbbb", 1, internal.ColorGrey),
	}
	report := validator.Check(testChunks, markers)
	if problems := report.Problems(); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}
