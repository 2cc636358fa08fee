// Package prompt assembles the LLM request for a diff analysis by
// substituting named {{placeholder}} markers in a template with the
// chunked AI translation and its reference texts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/valpere/noveldiff/internal"
)

// Fallback strings substituted when an optional input is absent.
const (
	NoFanTranslation   = "(No fan translation available)"
	NoPreviousFeedback = "(No previous feedback)"
)

// Placeholder names recognized in templates.
const (
	PlaceholderChunks   = "{{chunks}}"
	PlaceholderFan      = "{{fanTranslation}}"
	PlaceholderRaw      = "{{rawText}}"
	PlaceholderFeedback = "{{previousFeedback}}"
)

// Build substitutes the named placeholders in template. Chunks are
// rendered as "[id]: text" blocks joined by blank lines; fanText and
// previousFeedback fall back to fixed strings when empty; rawText is
// inserted verbatim.
//
// Template well-formedness is not validated: a template missing a
// placeholder silently loses that input.
func Build(template string, chunks []internal.Chunk, fanText, rawText, previousFeedback string) string {
	if fanText == "" {
		fanText = NoFanTranslation
	}
	if previousFeedback == "" {
		previousFeedback = NoPreviousFeedback
	}

	return strings.NewReplacer(
		PlaceholderChunks, FormatChunks(chunks),
		PlaceholderFan, fanText,
		PlaceholderRaw, rawText,
		PlaceholderFeedback, previousFeedback,
	).Replace(template)
}

// FormatChunks renders chunks in the "[id]: text" form the response
// contract keys on: the model must echo these IDs back in its markers.
func FormatChunks(chunks []internal.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[%s]: %s", c.ID, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// DefaultTemplate is the built-in analysis prompt. Hosts may override it,
// but any replacement must keep the JSON response contract intact.
var DefaultTemplate = buildDefaultTemplate()

func buildDefaultTemplate() string {
	var sb strings.Builder

	sb.WriteString("You are reviewing an AI-generated translation of a web-novel chapter ")
	sb.WriteString("against a fan translation and the raw source text.\n\n")
	sb.WriteString("For EVERY paragraph below, decide whether the AI translation diverges ")
	sb.WriteString("semantically from the references. Classify each divergence with one or ")
	sb.WriteString("more of these reasons:\n")
	for _, r := range internal.Reasons() {
		sb.WriteString(fmt.Sprintf("  - %s\n", r))
	}
	sb.WriteString("\nAI translation paragraphs:\n")
	sb.WriteString(PlaceholderChunks)
	sb.WriteString("\n\nFan translation:\n")
	sb.WriteString(PlaceholderFan)
	sb.WriteString("\n\nRaw source text:\n")
	sb.WriteString(PlaceholderRaw)
	sb.WriteString("\n\nReader feedback on earlier analyses:\n")
	sb.WriteString(PlaceholderFeedback)
	sb.WriteString("\n\nRespond ONLY in JSON:\n")
	sb.WriteString(`{
  "markers": [
    {
      "chunkId": "para-0-abcd",
      "reasons": ["missing-context"],
      "explanations": ["what is missing and where"],
      "confidence": 0.8
    }
  ]
}
`)
	sb.WriteString("Use the paragraph IDs exactly as given. Omit paragraphs with no divergence.")

	return sb.String()
}
