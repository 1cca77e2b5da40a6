package codebase

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText returns data as UTF-8. A UTF-8 or UTF-16 byte order mark selects
// the decoding; otherwise data must already be UTF-8. Binary content
// (NUL bytes or invalid UTF-8) reports false.
func decodeText(data []byte) (string, bool) {
	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", false
	}
	s := string(out)
	if !utf8.ValidString(s) || strings.ContainsRune(s, 0) {
		return "", false
	}
	return s, true
}
