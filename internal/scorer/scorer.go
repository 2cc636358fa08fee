// Package scorer measures diff-marker quality against hand-labeled
// golden cases with precision/recall/F1. It runs offline only — never in
// the analysis hot path.
package scorer

import (
	"fmt"
	"regexp"

	"github.com/valpere/noveldiff/internal"
)

// ExpectedMarker is one labeled expectation of a golden case. ChunkID
// and ExplanationPattern are regular expressions; ExplanationPattern may
// be empty (no explanation expectation).
type ExpectedMarker struct {
	ChunkID            string            `json:"chunkId"`
	Reasons            []internal.Reason `json:"reasons"`
	Colors             []internal.Color  `json:"colors"`
	ExplanationPattern string            `json:"explanationPattern"`
}

// Metrics are the classification counts and the rates derived from them.
// WeakMatches counts matched pairs whose explanation also matched the
// expected pattern — a diagnostic, never part of TP/FP/FN.
type Metrics struct {
	TruePositives  int     `json:"truePositives"`
	FalsePositives int     `json:"falsePositives"`
	FalseNegatives int     `json:"falseNegatives"`
	WeakMatches    int     `json:"weakMatches"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Score matches expected markers against actual ones and classifies the
// outcome.
//
// Matching is greedy, order-preserving, and non-backtracking: each
// expected marker (in input order) takes the first not-yet-consumed
// actual marker whose chunkId matches the expected regex and whose
// reasons intersect the expected reasons. This trades matching
// optimality for determinism and speed — a deliberate choice; a smarter
// matcher would silently shift the meaning of existing thresholds.
func Score(expected []ExpectedMarker, actual []internal.Marker) (Metrics, error) {
	var m Metrics
	consumed := make([]bool, len(actual))

	for _, exp := range expected {
		chunkRe, err := regexp.Compile(exp.ChunkID)
		if err != nil {
			return Metrics{}, fmt.Errorf("invalid chunkId pattern %q: %w", exp.ChunkID, err)
		}

		matched := false
		for i, act := range actual {
			if consumed[i] || !chunkRe.MatchString(act.ChunkID) || !reasonsIntersect(exp.Reasons, act.Reasons) {
				continue
			}
			consumed[i] = true
			matched = true
			m.TruePositives++

			if exp.ExplanationPattern != "" {
				weak, err := explanationMatches(exp.ExplanationPattern, act.Explanations)
				if err != nil {
					return Metrics{}, err
				}
				if weak {
					m.WeakMatches++
				}
			}
			break
		}

		if !matched {
			m.FalseNegatives++
		}
	}

	for _, used := range consumed {
		if !used {
			m.FalsePositives++
		}
	}

	m.derive()
	return m, nil
}

// Aggregate micro-averages: it sums counts across cases first and
// derives the rates from the sums, rather than averaging per-case F1.
func Aggregate(perCase []Metrics) Metrics {
	var total Metrics
	for _, m := range perCase {
		total.TruePositives += m.TruePositives
		total.FalsePositives += m.FalsePositives
		total.FalseNegatives += m.FalseNegatives
		total.WeakMatches += m.WeakMatches
	}
	total.derive()
	return total
}

// derive fills Precision/Recall/F1 from the counts. A zero denominator
// yields 0, never NaN.
func (m *Metrics) derive() {
	if d := m.TruePositives + m.FalsePositives; d > 0 {
		m.Precision = float64(m.TruePositives) / float64(d)
	}
	if d := m.TruePositives + m.FalseNegatives; d > 0 {
		m.Recall = float64(m.TruePositives) / float64(d)
	}
	if s := m.Precision + m.Recall; s > 0 {
		m.F1 = 2 * m.Precision * m.Recall / s
	}
}

func reasonsIntersect(expected, actual []internal.Reason) bool {
	for _, e := range expected {
		for _, a := range actual {
			if e == a {
				return true
			}
		}
	}
	return false
}

func explanationMatches(pattern string, explanations []string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid explanation pattern %q: %w", pattern, err)
	}
	for _, e := range explanations {
		if e != "" && re.MatchString(e) {
			return true, nil
		}
	}
	return false, nil
}
