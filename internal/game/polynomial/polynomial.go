// Package polynomial parses, formats, and compares single-variable
// polynomials. Coefficients are stored as a slice indexed by power of x, so
// [5, -2, 3] represents 3x^2 - 2x + 5.
package polynomial

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// coefficientTolerance absorbs float noise when comparing parsed input
// against a canonical answer.
const coefficientTolerance = 1e-3

var (
	constantRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	termRe     = regexp.MustCompile(`^([+-]?\d*\.?\d*)x\^(\d+)$`)
	linearRe   = regexp.MustCompile(`^([+-]?\d*\.?\d*)x$`)
	wsRe       = regexp.MustCompile(`\s+`)
)

// Format renders coefficients as a canonical string: descending powers,
// implicit 1/-1 coefficients, no x^1 or x^0 suffixes.
func Format(coeffs []float64) string {
	trimmed := trimTrailingZeros(coeffs)
	if len(trimmed) == 0 {
		return "0"
	}

	var b strings.Builder
	first := true
	for pow := len(trimmed) - 1; pow >= 0; pow-- {
		c := trimmed[pow]
		if c == 0 {
			continue
		}

		if pow == 0 {
			if first {
				b.WriteString(formatNumber(c))
			} else if c > 0 {
				b.WriteString(" + " + formatNumber(c))
			} else {
				b.WriteString(" - " + formatNumber(math.Abs(c)))
			}
			first = false
			continue
		}

		xPart := "x"
		if pow > 1 {
			xPart = fmt.Sprintf("x^%d", pow)
		}
		absC := math.Abs(c)

		if first {
			switch {
			case c == 1:
				b.WriteString(xPart)
			case c == -1:
				b.WriteString("-" + xPart)
			default:
				b.WriteString(formatNumber(c) + xPart)
			}
		} else {
			sign := " + "
			if c < 0 {
				sign = " - "
			}
			if absC == 1 {
				b.WriteString(sign + xPart)
			} else {
				b.WriteString(sign + formatNumber(absC) + xPart)
			}
		}
		first = false
	}

	if first {
		return "0"
	}
	return b.String()
}

// Parse converts an expression string into coefficients. Supported forms: a
// bare numeric constant; terms coef·x^power where the coefficient may be
// absent (1), a lone minus (-1), and an absent power means 1; terms joined
// by + and -, with repeated powers accumulating. Returns ok=false on any
// malformed term.
func Parse(input string) ([]float64, bool) {
	s := wsRe.ReplaceAllString(input, "")
	s = strings.ReplaceAll(s, "**", "^")
	s = strings.ReplaceAll(s, "*", "")
	if s == "" {
		return nil, false
	}

	if constantRe.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return []float64{n}, true
	}

	normalized := strings.ReplaceAll(s, "-", "+-")
	var coeffs []float64
	parsedAny := false
	for _, term := range strings.Split(normalized, "+") {
		if term == "" {
			continue
		}
		coeff, power, ok := parseTerm(term)
		if !ok {
			return nil, false
		}
		for len(coeffs) <= power {
			coeffs = append(coeffs, 0)
		}
		coeffs[power] += coeff
		parsedAny = true
	}

	if !parsedAny {
		return nil, false
	}
	return coeffs, true
}

// Compare reports whether two coefficient slices describe the same
// polynomial, ignoring trailing zero terms and float noise.
func Compare(a, b []float64) bool {
	ta := trimTrailingZeros(a)
	tb := trimTrailingZeros(b)
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if math.Abs(ta[i]-tb[i]) >= coefficientTolerance {
			return false
		}
	}
	return true
}

func parseTerm(term string) (coeff float64, power int, ok bool) {
	if constantRe.MatchString(strings.TrimPrefix(term, "+")) || constantRe.MatchString(term) {
		n, err := strconv.ParseFloat(term, 64)
		if err != nil {
			return 0, 0, false
		}
		return n, 0, true
	}

	if m := termRe.FindStringSubmatch(term); m != nil {
		c, ok := parseCoefficient(m[1])
		if !ok {
			return 0, 0, false
		}
		p, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
		return c, p, true
	}

	if m := linearRe.FindStringSubmatch(term); m != nil {
		c, ok := parseCoefficient(m[1])
		if !ok {
			return 0, 0, false
		}
		return c, 1, true
	}

	return 0, 0, false
}

func parseCoefficient(s string) (float64, bool) {
	switch s {
	case "", "+":
		return 1, true
	case "-":
		return -1, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func trimTrailingZeros(coeffs []float64) []float64 {
	end := len(coeffs)
	for end > 0 && coeffs[end-1] == 0 {
		end--
	}
	return coeffs[:end]
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
