package polynomial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name   string
		coeffs []float64
		want   string
	}{
		{"constant", []float64{5}, "5"},
		{"negative constant", []float64{-3}, "-3"},
		{"zero", []float64{0, 0}, "0"},
		{"empty", nil, "0"},
		{"linear", []float64{0, 1}, "x"},
		{"negative linear", []float64{0, -1}, "-x"},
		{"full quadratic", []float64{5, -2, 3}, "3x^2 - 2x + 5"},
		{"unit leading", []float64{-4, 0, 1}, "x^2 - 4"},
		{"cubic with gap", []float64{7, 0, 0, 2}, "2x^3 + 7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.coeffs))
		})
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  []float64
	}{
		{"7", []float64{7}},
		{"-12", []float64{-12}},
		{"x", []float64{0, 1}},
		{"-x", []float64{0, -1}},
		{"3x^2 - 2x + 5", []float64{5, -2, 3}},
		{"3x**2-2x+5", []float64{5, -2, 3}},
		{"2*x + 1", []float64{1, 2}},
		{"x^2+x+x", []float64{0, 2, 1}}, // like powers accumulate
		{"5 - x", []float64{5, -1}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := Parse(tc.input)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "x^", "2y+1", "3x^-2", "hello", "++"} {
		_, ok := Parse(input)
		assert.False(t, ok, "expected parse failure for %q", input)
	}
}

func TestRoundTrip(t *testing.T) {
	polys := [][]float64{
		{5, -2, 3},
		{0, 1},
		{-7},
		{1, 0, -4, 2},
		{0, 0, 6},
	}
	for _, coeffs := range polys {
		parsed, ok := Parse(Format(coeffs))
		require.True(t, ok, "round-trip parse failed for %v", coeffs)
		assert.True(t, Compare(parsed, coeffs), "round-trip mismatch for %v", coeffs)
	}
}

func TestCompare(t *testing.T) {
	assert.True(t, Compare([]float64{1, 2}, []float64{1, 2, 0}))
	assert.True(t, Compare([]float64{1.0004, 2}, []float64{1, 2}))
	assert.False(t, Compare([]float64{1.002, 2}, []float64{1, 2}))
	assert.False(t, Compare([]float64{1, 2}, []float64{1, 2, 3}))
}
