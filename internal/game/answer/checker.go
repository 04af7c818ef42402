// Package answer validates a player's submitted answer against a generated
// problem. Checking is synchronous and CPU-only; malformed input is never an
// error, it is simply incorrect.
package answer

import (
	"math"
	"strconv"
	"strings"

	"github.com/axiomduel/platform/internal/game/polynomial"
	"github.com/axiomduel/platform/internal/game/problem"
)

// numericTolerance is the absolute tolerance for numeric answers.
const numericTolerance = 0.01

// Check reports whether the user's input answers the problem. A symbolic
// ExpressionAnswer, when present, takes precedence over the numeric answer.
func Check(p problem.Problem, userInput string) bool {
	trimmed := strings.TrimSpace(userInput)
	if trimmed == "" {
		return false
	}

	if p.ExpressionAnswer != "" {
		return checkExpression(p.ExpressionAnswer, trimmed)
	}

	num, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return false
	}
	return math.Abs(num-p.Answer) < numericTolerance
}

func checkExpression(canonical, userInput string) bool {
	expected, okExpected := polynomial.Parse(canonical)
	actual, okActual := polynomial.Parse(userInput)

	if okExpected && okActual {
		return polynomial.Compare(expected, actual)
	}

	// Fallback for forms the parser does not cover: exact comparison after
	// normalization.
	return normalize(canonical) == normalize(userInput)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
