// Package chunker splits a translated chapter into stable paragraph
// chunks. Input is the HTML-ish text produced by the translation layer
// (<br>, <hr>, <p> separators and inline <i>/<b> formatting); output is
// plain-text chunks whose IDs are deterministic across re-runs, so cached
// markers keep pointing at the same paragraphs.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/hasher"
)

var (
	// Paragraph boundaries: two or more consecutive line breaks, a
	// horizontal rule, or a paragraph tag (opening or closing).
	reBoundary = regexp.MustCompile(`(?i)(?:<br\s*/?>\s*){2,}|<hr\s*/?>|</?p(?:\s[^>]*)?>`)

	// Remaining single breaks and rules inside a segment become newlines.
	reBreak = regexp.MustCompile(`(?i)<br\s*/?>|<hr\s*/?>`)

	// Inline formatting tags that must stay balanced per chunk.
	reInline = regexp.MustCompile(`(?i)<(/?)([ib])\s*>`)

	reTag         = regexp.MustCompile(`<[^>]+>`)
	reTripleBreak = regexp.MustCompile(`\n{3,}`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reNbspEntity  = regexp.MustCompile(`(?i)&nbsp;`)
)

// separatorWidth is the allowance between consecutive chunks when
// computing offsets against the conceptual re-joined text.
const separatorWidth = 2

// Split cuts text into paragraph chunks. Positions are contiguous and
// 0-based over non-empty segments only; a segment that normalizes to the
// empty string is dropped without consuming a position. If nothing
// survives normalization the whole input becomes a single chunk at
// position 0, so downstream stages never see an empty chunk list for
// non-trivial input.
func Split(text string) []internal.Chunk {
	segments := balanceInlineTags(reBoundary.Split(text, -1))

	var chunks []internal.Chunk
	offset := 0
	for _, seg := range segments {
		clean := normalizeSegment(seg)
		if clean == "" {
			continue
		}

		position := len(chunks)
		length := len([]rune(clean))
		chunks = append(chunks, internal.Chunk{
			ID:       chunkID(position, clean),
			Text:     clean,
			Start:    offset,
			End:      offset + length,
			Position: position,
		})
		offset += length + separatorWidth
	}

	if len(chunks) == 0 {
		return []internal.Chunk{{
			ID:       chunkID(0, text),
			Text:     text,
			Start:    0,
			End:      len([]rune(text)),
			Position: 0,
		}}
	}
	return chunks
}

func chunkID(position int, text string) string {
	return fmt.Sprintf("para-%d-%s", position, hasher.Short(text))
}

// balanceInlineTags closes any <i>/<b> tag left open at a segment
// boundary and reopens it at the start of the following segment, so each
// chunk renders correctly on its own.
func balanceInlineTags(segments []string) []string {
	out := make([]string, len(segments))
	var open []string

	for i, seg := range segments {
		var prefix strings.Builder
		for _, tag := range open {
			prefix.WriteString("<" + tag + ">")
		}

		for _, m := range reInline.FindAllStringSubmatch(seg, -1) {
			tag := strings.ToLower(m[2])
			if m[1] == "" {
				open = append(open, tag)
				continue
			}
			// Closing tag: drop the most recent matching open tag.
			for j := len(open) - 1; j >= 0; j-- {
				if open[j] == tag {
					open = append(open[:j], open[j+1:]...)
					break
				}
			}
		}

		var suffix strings.Builder
		for j := len(open) - 1; j >= 0; j-- {
			suffix.WriteString("</" + open[j] + ">")
		}

		out[i] = prefix.String() + seg + suffix.String()
	}

	return out
}

// normalizeSegment converts a raw HTML-ish segment to the text the LLM
// and the UI both see: breaks become newlines, tags other than the
// balanced inline formatting are stripped, &nbsp; is decoded, runs of 3+
// newlines collapse to a blank line, and trailing whitespace before
// newlines is removed.
func normalizeSegment(seg string) string {
	seg = reBreak.ReplaceAllString(seg, "\n")
	seg = reTag.ReplaceAllStringFunc(seg, func(tag string) string {
		if reInline.MatchString(tag) {
			return tag
		}
		return ""
	})
	seg = reNbspEntity.ReplaceAllString(seg, " ")
	seg = reTripleBreak.ReplaceAllString(seg, "\n\n")
	seg = reTrailingWS.ReplaceAllString(seg, "\n")
	seg = strings.TrimSpace(seg)

	// A segment whose only content is reopened formatting tags is empty.
	if strings.TrimSpace(reTag.ReplaceAllString(seg, "")) == "" {
		return ""
	}
	return seg
}
