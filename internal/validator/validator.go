// Package validator performs non-fatal coverage diagnostics over a chunk
// set and its markers. It reports, it never fails: gaps here are filled
// by the fallback completer and only need to be visible in logs.
package validator

import (
	"fmt"

	"github.com/valpere/noveldiff/internal"
)

// Report summarizes how well a marker set covers a chunk set.
type Report struct {
	// MissingChunkIDs are chunks with no marker (pre-fallback).
	MissingChunkIDs []string
	// OrphanMarkerIDs are marker chunkIds absent from the chunk set.
	OrphanMarkerIDs []string
	// ColorCounts tallies markers per color.
	ColorCounts map[internal.Color]int
	// OutOfRangePositions are marker positions at or beyond the chunk count.
	OutOfRangePositions []int
}

// Check computes a coverage report. Purely diagnostic; it never returns
// an error and the pipeline proceeds regardless of what it finds.
func Check(chunks []internal.Chunk, markers []internal.Marker) Report {
	report := Report{ColorCounts: make(map[internal.Color]int)}

	known := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		known[c.ID] = true
	}

	covered := make(map[string]bool, len(markers))
	for _, m := range markers {
		covered[m.ChunkID] = true
		if !known[m.ChunkID] {
			report.OrphanMarkerIDs = append(report.OrphanMarkerIDs, m.ChunkID)
		}
		for _, c := range m.Colors {
			report.ColorCounts[c]++
		}
		if m.Position >= len(chunks) {
			report.OutOfRangePositions = append(report.OutOfRangePositions, m.Position)
		}
	}

	for _, c := range chunks {
		if !covered[c.ID] {
			report.MissingChunkIDs = append(report.MissingChunkIDs, c.ID)
		}
	}

	return report
}

// Clean reports whether nothing is missing, orphaned, or out of range.
func (r Report) Clean() bool {
	return len(r.MissingChunkIDs) == 0 &&
		len(r.OrphanMarkerIDs) == 0 &&
		len(r.OutOfRangePositions) == 0
}

// Problems renders the report's findings as loggable lines. Empty when
// the report is clean.
func (r Report) Problems() []string {
	var out []string
	for _, id := range r.MissingChunkIDs {
		out = append(out, fmt.Sprintf("chunk %s has no marker", id))
	}
	for _, id := range r.OrphanMarkerIDs {
		out = append(out, fmt.Sprintf("marker references unknown chunk %s", id))
	}
	for _, p := range r.OutOfRangePositions {
		out = append(out, fmt.Sprintf("marker position %d exceeds chunk count", p))
	}
	return out
}
