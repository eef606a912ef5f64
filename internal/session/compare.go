package session

import (
	"fmt"
	"strings"
)

// Normalize trims s and collapses every whitespace run to a single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// OutputMatches compares a submission with the expected output after
// whitespace normalization, ignoring case.
func OutputMatches(submitted, expected string) bool {
	return strings.EqualFold(Normalize(submitted), Normalize(expected))
}

// EncodeBinary maps each character to its zero-padded 8-bit (or wider) binary
// code point, space separated. The opponent sees progress, not content.
func EncodeBinary(code string) string {
	var b strings.Builder
	first := true
	for _, r := range code {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%08b", r)
	}
	return b.String()
}
