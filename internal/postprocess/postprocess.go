// Package postprocess removes common LLM artifacts from model output
// before the response normalizer attempts to parse it as JSON.
//
// It is applied to the raw text returned by any LLM-backed service
// (Ollama, OpenRouter) ahead of JSON decoding.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text in three phases and returns the
// trimmed result:
//  1. Thinking / reasoning block removal
//  2. Markdown code-fence unwrapping
//  3. Isolation of the outermost JSON object, when one is present
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = unwrapCodeFence(text)
	text = isolateJSON(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
// Flags: i = case-insensitive, s = dot matches newline.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: code fences ---

// fencedRe captures the body of a ```json … ``` (or bare ```) block.
// Models frequently wrap structured answers in a fence even when told
// to respond with raw JSON.
var fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func unwrapCodeFence(text string) string {
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// --- Phase 3: JSON isolation ---

// isolateJSON trims prose around the outermost {...} object ("Here is the
// analysis: {...} Hope this helps!"). When no braces are found the text
// is returned unchanged so the caller can report a parse failure with the
// original payload.
func isolateJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
