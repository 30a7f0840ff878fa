package ingestion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12", 12},
		{"  3.5 ", 3.5},
		{"-0.25", -0.25},
		{"+7", 7},
		{".5", 0.5},
		{"5.", 5},
		{"1e3", 1000},
		{"1E-2", 0.01},
		{"", 0},
		{"   ", 0},
		{"\t4\r", 4},
		{"0x1F", 31},
		{"0X10", 16},
		{"0o17", 15},
		{"0b101", 5},
		{"007", 7},
		{"1e999", math.Inf(1)},
		{"-1e999", math.Inf(-1)},
		{"1e-999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestParseNumberInfinity(t *testing.T) {
	assert.True(t, math.IsInf(ParseNumber("Infinity"), 1))
	assert.True(t, math.IsInf(ParseNumber("+Infinity"), 1))
	assert.True(t, math.IsInf(ParseNumber(" -Infinity "), -1))
}

func TestParseNumberNaN(t *testing.T) {
	for _, in := range []string{
		"x", "bad", "1,5", "1 2", "inf", "NaN", "nan", "infinity",
		"1_000", "0x", "-0x10", "0x1p3", "0b102", "1e", ".", "+-1", "12abc", "$5",
	} {
		t.Run(in, func(t *testing.T) {
			assert.True(t, math.IsNaN(ParseNumber(in)), "expected NaN for %q", in)
		})
	}
}

func TestParseNumberLargeHex(t *testing.T) {
	assert.Equal(t, math.Pow(2, 64), ParseNumber("0x10000000000000000"))
}
