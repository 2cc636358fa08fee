// Package normalizer turns untrusted LLM output into validated diff
// markers. Anything the model got structurally wrong is repaired when a
// fixed rule exists for it and dropped with a diagnostic otherwise; only
// an unparseable response is an error, and a distinct one, so the caller
// can retry against a different model.
package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/postprocess"
)

// ParseError reports an LLM response that could not be decoded into the
// expected {"markers":[...]} shape. Callers distinguish it (via
// errors.As) from transport failures because it warrants a one-shot
// retry against the default model, which transport failures do not.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse LLM response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse LLM response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawMarker is the untrusted wire shape of a single marker.
type rawMarker struct {
	ChunkID      string   `json:"chunkId"`
	Reasons      []string `json:"reasons"`
	Colors       []string `json:"colors"`
	Explanation  string   `json:"explanation"`
	Explanations []string `json:"explanations"`
	Confidence   *float64 `json:"confidence"`
}

// Normalize validates the raw LLM response text against the known chunk
// set and returns the surviving markers plus human-readable diagnostics
// for everything that was dropped or repaired. The only error condition
// is a malformed response (*ParseError); bad individual markers never
// fail the call.
func Normalize(raw string, chunks []internal.Chunk) ([]internal.Marker, []string, error) {
	clean := postprocess.Clean(raw)

	var resp struct {
		Markers []rawMarker `json:"markers"`
	}
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if resp.Markers == nil {
		return nil, nil, &ParseError{Reason: "missing markers array"}
	}

	byID := make(map[string]internal.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	var markers []internal.Marker
	var diags []string

	for _, rm := range resp.Markers {
		chunk, ok := byID[rm.ChunkID]
		if !ok {
			diags = append(diags, fmt.Sprintf("dropped marker for unknown chunk %q", rm.ChunkID))
			continue
		}

		reasons, reasonDiags := normalizeReasons(rm, chunk.ID)
		diags = append(diags, reasonDiags...)
		if len(reasons) == 0 {
			diags = append(diags, fmt.Sprintf("discarded marker for chunk %s: no usable reasons", chunk.ID))
			continue
		}

		colors := make([]internal.Color, len(reasons))
		for i, r := range reasons {
			colors[i] = r.Color()
		}

		marker := internal.Marker{
			ChunkID:      chunk.ID,
			Colors:       colors,
			Reasons:      reasons,
			Explanations: buildExplanations(rm, reasons),
			Confidence:   clampConfidence(rm.Confidence),
			AIRange:      internal.Range{Start: chunk.Start, End: chunk.End},
			Position:     chunk.Position,
		}
		markers = append(markers, marker)
	}

	return markers, diags, nil
}

// normalizeReasons maps the raw reason strings onto the closed
// vocabulary; when none survive it falls back to deriving reasons from
// the raw colors.
func normalizeReasons(rm rawMarker, chunkID string) ([]internal.Reason, []string) {
	var reasons []internal.Reason
	var diags []string

	for _, raw := range rm.Reasons {
		r, ok := internal.ParseReason(raw)
		if !ok {
			diags = append(diags, fmt.Sprintf("dropped unrecognized reason %q (chunk %s)", raw, chunkID))
			continue
		}
		reasons = append(reasons, r)
	}
	if len(reasons) > 0 {
		return reasons, diags
	}

	for _, raw := range rm.Colors {
		c, ok := internal.ParseColor(raw)
		if !ok {
			diags = append(diags, fmt.Sprintf("dropped unrecognized color %q (chunk %s)", raw, chunkID))
			continue
		}
		if r, ok := c.FallbackReason(); ok {
			reasons = append(reasons, r)
		}
	}
	return reasons, diags
}

// buildExplanations produces an explanation list parallel to reasons.
// Per-index entries of the raw explanations array win; a single raw
// explanation string is accepted only when there is exactly one reason.
// A candidate that itself reads as a reason keyword is rejected — models
// sometimes echo the structured field into the free-text one.
func buildExplanations(rm rawMarker, reasons []internal.Reason) []string {
	out := make([]string, len(reasons))
	for i := range reasons {
		var candidate string
		switch {
		case i < len(rm.Explanations):
			candidate = rm.Explanations[i]
		case len(reasons) == 1 && rm.Explanation != "":
			candidate = rm.Explanation
		}
		if _, isKeyword := internal.ParseReason(candidate); isKeyword {
			candidate = ""
		}
		out[i] = candidate
	}
	return out
}

func clampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := *c
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}
