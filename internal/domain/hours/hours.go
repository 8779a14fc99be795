// Package hours converts free-text hour input into a non-negative value.
// Parsing is total: garbage input degrades to zero instead of erroring, which
// then fails the record completeness check upstream.
package hours

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Alternate decimal glyphs normalized to the decimal point before width
// folding. An ASCII comma is not treated as a decimal separator.
var decimalGlyphs = strings.NewReplacer(
	"，", ".", // full-width comma
	"、", ".", // ideographic comma
	"．", ".", // full-width period
)

var (
	unitPattern   = regexp.MustCompile(`時間|[hH]`)
	numberPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

// TryParse extracts the first numeric token from raw. It reports false when
// the input contains no extractable number.
func TryParse(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	s = decimalGlyphs.Replace(s)

	// Fold full-width digits, points and letters ("１．５ｈ") to ASCII.
	s = width.Fold.String(s)

	// Drop hour-unit suffixes anywhere in the string.
	s = unitPattern.ReplaceAllString(s, "")

	token := numberPattern.FindString(s)
	if token == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseOrZero is TryParse with the documented zero default.
func ParseOrZero(raw string) float64 {
	v, ok := TryParse(raw)
	if !ok {
		return 0
	}
	return v
}
