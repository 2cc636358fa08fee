// Package internal holds the domain types shared by the diff analysis
// pipeline: paragraph chunks, divergence markers, and cached results.
package internal

import "time"

// Reason classifies a semantic divergence between the AI translation and
// its references. The vocabulary is closed; the normalizer drops anything
// the LLM invents outside it.
type Reason string

const (
	ReasonMissingContext    Reason = "missing-context"
	ReasonPlotOmission      Reason = "plot-omission"
	ReasonAddedDetail       Reason = "added-detail"
	ReasonHallucination     Reason = "hallucination"
	ReasonFanDivergence     Reason = "fan-divergence"
	ReasonSensitivityFilter Reason = "sensitivity-filter"
	ReasonRawDivergence     Reason = "raw-divergence"
	ReasonStylisticChoice   Reason = "stylistic-choice"
	ReasonNoChange          Reason = "no-change"
)

// Color is the coarse severity bucket derived from a Reason. Rendering is
// the host's concern; the pipeline only guarantees the derivation.
type Color string

const (
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorGrey   Color = "grey"
)

// reasonColors maps each reason to its canonical color (many-to-one).
var reasonColors = map[Reason]Color{
	ReasonMissingContext:    ColorRed,
	ReasonPlotOmission:      ColorRed,
	ReasonAddedDetail:       ColorGreen,
	ReasonHallucination:     ColorOrange,
	ReasonFanDivergence:     ColorBlue,
	ReasonSensitivityFilter: ColorPurple,
	ReasonRawDivergence:     ColorBlue,
	ReasonStylisticChoice:   ColorGrey,
	ReasonNoChange:          ColorGrey,
}

// colorFallbackReasons recovers a reason when the LLM supplied colors but
// no recognizable reasons. Lossy on purpose: orange and green both
// collapse to added-detail.
var colorFallbackReasons = map[Color]Reason{
	ColorRed:    ReasonMissingContext,
	ColorOrange: ReasonAddedDetail,
	ColorGreen:  ReasonAddedDetail,
	ColorBlue:   ReasonFanDivergence,
	ColorPurple: ReasonSensitivityFilter,
	ColorGrey:   ReasonNoChange,
}

// Reasons lists the full closed vocabulary in its canonical order.
func Reasons() []Reason {
	return []Reason{
		ReasonMissingContext, ReasonPlotOmission, ReasonAddedDetail,
		ReasonHallucination, ReasonFanDivergence, ReasonSensitivityFilter,
		ReasonRawDivergence, ReasonStylisticChoice, ReasonNoChange,
	}
}

// ParseReason maps a raw LLM string onto the closed vocabulary. It is
// lenient about case, surrounding whitespace, and space/underscore
// separators, but never guesses beyond that.
func ParseReason(raw string) (Reason, bool) {
	r := Reason(canonicalToken(raw))
	if _, ok := reasonColors[r]; ok {
		return r, true
	}
	return "", false
}

// ParseColor maps a raw LLM string onto a known color.
func ParseColor(raw string) (Color, bool) {
	c := Color(canonicalToken(raw))
	if _, ok := colorFallbackReasons[c]; ok {
		return c, true
	}
	return "", false
}

// Color returns the canonical color for a reason; grey for anything
// outside the vocabulary.
func (r Reason) Color() Color {
	if c, ok := reasonColors[r]; ok {
		return c
	}
	return ColorGrey
}

// FallbackReason returns the reason a bare color stands in for.
func (c Color) FallbackReason() (Reason, bool) {
	r, ok := colorFallbackReasons[c]
	return r, ok
}

func canonicalToken(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, ch := range raw {
		switch {
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+('a'-'A'))
		case ch == ' ' || ch == '_' || ch == '\t' || ch == '\n' || ch == '\r':
			out = append(out, '-')
		default:
			out = append(out, ch)
		}
	}
	s := string(out)
	for len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

// Range is a half-open [Start, End) span into the conceptual re-joined
// AI translation text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is an independently addressable paragraph unit of the AI
// translation. IDs are stable: identical text at the same position always
// produces the same ID across runs.
type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Position int    `json:"position"`
}

// Marker is one or more divergence annotations attached to a single
// chunk. Colors and Reasons are parallel arrays of equal length; Colors
// are always derived from Reasons, never chosen independently.
type Marker struct {
	ChunkID      string   `json:"chunkId"`
	Colors       []Color  `json:"colors"`
	Reasons      []Reason `json:"reasons"`
	Explanations []string `json:"explanations,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	AIRange      Range    `json:"aiRange"`
	Position     int      `json:"position"`
}

// ResultKey is the composite cache key for a diff analysis. FanVersionID
// is the empty string when the chapter has no fan translation.
type ResultKey struct {
	ChapterID    string `json:"chapterId"`
	AIVersionID  string `json:"aiVersionId"`
	FanVersionID string `json:"fanVersionId"`
	RawVersionID string `json:"rawVersionId"`
	AlgoVersion  string `json:"algoVersion"`
}

// Result is one completed diff analysis. It is written wholesale and
// never patched; re-analysis overwrites the row under the same key.
// Empty hash strings mean "not recorded" (legacy rows).
type Result struct {
	ResultKey

	AIHash  string `json:"aiHash"`
	FanHash string `json:"fanHash"`
	RawHash string `json:"rawHash"`

	Markers    []Marker  `json:"markers"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	CostUSD    float64   `json:"costUsd"`
	Model      string    `json:"model"`
}
