package normalizer

import (
	"sort"

	"github.com/valpere/noveldiff/internal"
)

// Complete guarantees exactly one marker per chunk: chunks the model said
// nothing about get a synthetic grey no-change marker. The result is
// sorted ascending by position and always has len(chunks) entries — the
// completeness guarantee the reader UI relies on.
func Complete(chunks []internal.Chunk, markers []internal.Marker) []internal.Marker {
	byChunk := make(map[string]internal.Marker, len(markers))
	for _, m := range markers {
		byChunk[m.ChunkID] = m
	}

	out := make([]internal.Marker, 0, len(chunks))
	for _, c := range chunks {
		if m, ok := byChunk[c.ID]; ok {
			out = append(out, m)
			continue
		}
		out = append(out, internal.Marker{
			ChunkID:  c.ID,
			Colors:   []internal.Color{internal.ColorGrey},
			Reasons:  []internal.Reason{internal.ReasonNoChange},
			AIRange:  internal.Range{Start: c.Start, End: c.End},
			Position: c.Position,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
