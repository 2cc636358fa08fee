// Package hasher fingerprints text for chunk IDs and content-version
// hashes. The hash is the classic 32-bit rolling multiply (h = h*31 + c)
// over UTF-16 code units, so fingerprints stay compatible with records
// produced by the original browser-side analyzer.
package hasher

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Hash returns an 8-character lowercase hex fingerprint of text.
// The empty string always maps to "00000000"; equal inputs always map to
// equal outputs. Pure and total.
func Hash(text string) string {
	if text == "" {
		return "00000000"
	}

	var h int32
	for _, unit := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(unit)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("%08x", v)
}

// Short returns the 4-character prefix of Hash(text), used as the chunk
// ID suffix.
func Short(text string) string {
	return Hash(text)[:4]
}

// Content returns the content-version hash of text: whitespace-trimmed
// and NFC-normalized before hashing, so re-imports of byte-different but
// canonically equal text land on the same fingerprint.
func Content(text string) string {
	return Hash(norm.NFC.String(strings.TrimSpace(text)))
}
