// Package match finds the best existing catalog entity for a free-text
// name, so bulk imports do not create duplicate catalog rows for spelling
// and formatting variants.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// stripMarks decomposes to NFD, drops combining marks, and recomposes,
// so "BOGOTÁ" and "BOGOTA" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize standardizes a name for matching by:
//  1. Converting to uppercase
//  2. Stripping diacritics
//  3. Collapsing consecutive whitespace into single spaces
//  4. Trimming
//
// All comparisons in this package run on the normalized form; original
// casing is preserved only for display and storage of new entities.
func Normalize(s string) string {
	s = strings.ToUpper(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
