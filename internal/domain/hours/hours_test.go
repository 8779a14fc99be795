package hours

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrZero(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "plain decimal", raw: "1.5", want: 1.5},
		{name: "integer", raw: "8", want: 8},
		{name: "surrounding spaces", raw: "  2.25  ", want: 2.25},
		{name: "full-width digits", raw: "１．５", want: 1.5},
		{name: "full-width comma as decimal point", raw: "１，５", want: 1.5},
		{name: "ideographic comma as decimal point", raw: "1、5", want: 1.5},
		{name: "hour suffix lowercase", raw: "1.5h", want: 1.5},
		{name: "hour suffix uppercase", raw: "3H", want: 3},
		{name: "full-width hour suffix", raw: "２ｈ", want: 2},
		{name: "native unit word", raw: "1.5時間", want: 1.5},
		{name: "unit with trailing text", raw: "0.5時間ほど", want: 0.5},
		{name: "ascii comma is not a decimal separator", raw: "1,5", want: 1},
		{name: "first token wins", raw: "1.5から2", want: 1.5},
		{name: "empty", raw: "", want: 0},
		{name: "blank", raw: "   ", want: 0},
		{name: "garbage", raw: "abc", want: 0},
		{name: "lone minus sign never yields negative", raw: "-1.5", want: 1.5},
		{name: "unit only", raw: "時間", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrZero(tt.raw))
		})
	}
}

func TestTryParseReportsMissingNumber(t *testing.T) {
	_, ok := TryParse("清掃")
	assert.False(t, ok)

	v, ok := TryParse("1.5h")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
}

// Parsing is total: whatever the input, the result is finite and >= 0.
func TestParseNeverNegative(t *testing.T) {
	inputs := []string{"-3", "−２", "--", "NaN", "Inf", "1e9999", "0x1f"}
	for _, raw := range inputs {
		v := ParseOrZero(raw)
		assert.GreaterOrEqual(t, v, 0.0, "input %q", raw)
	}
}
