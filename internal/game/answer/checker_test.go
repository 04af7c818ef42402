package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axiomduel/platform/internal/game/problem"
)

func TestCheckEmptyInput(t *testing.T) {
	p := problem.Problem{Question: "2 + 2 = ?", Answer: 4, Difficulty: 1}

	assert.False(t, Check(p, ""))
	assert.False(t, Check(p, "   "))
	assert.False(t, Check(p, "\t\n"))
}

func TestCheckNumericTolerance(t *testing.T) {
	p := problem.Problem{Question: "C(5, 2) = ?", Answer: 10, Difficulty: 2}

	assert.True(t, Check(p, "10"))
	assert.True(t, Check(p, " 10 "))
	assert.True(t, Check(p, "10.005"))
	assert.True(t, Check(p, "9.995"))
	assert.False(t, Check(p, "10.02"))
	assert.False(t, Check(p, "9.98"))
	assert.False(t, Check(p, "11"))
}

func TestCheckNumericGarbage(t *testing.T) {
	p := problem.Problem{Question: "3! = ?", Answer: 6, Difficulty: 1}

	assert.False(t, Check(p, "six"))
	assert.False(t, Check(p, "6x"))
	assert.False(t, Check(p, "--6"))
}

func TestCheckExpressionAnswer(t *testing.T) {
	p := problem.Problem{
		Question:         "d/dx(3x^2 - 2x + 5) = ?",
		ExpressionAnswer: "6x - 2",
		Difficulty:       3,
	}

	assert.True(t, Check(p, "6x - 2"))
	assert.True(t, Check(p, "6x-2"))
	assert.True(t, Check(p, "-2 + 6x"))
	assert.True(t, Check(p, "6*x - 2"))
	assert.False(t, Check(p, "6x + 2"))
	assert.False(t, Check(p, "5x - 2"))
}

func TestCheckExpressionPrecedesNumeric(t *testing.T) {
	// With ExpressionAnswer set, the numeric field is ignored.
	p := problem.Problem{
		Question:         "d/dx(4x) = ?",
		Answer:           99,
		ExpressionAnswer: "4",
		Difficulty:       1,
	}

	assert.True(t, Check(p, "4"))
	assert.False(t, Check(p, "99"))
}

func TestCheckExpressionFallbackStringCompare(t *testing.T) {
	// Canonical answers the polynomial parser cannot handle fall back to
	// normalized string equality.
	p := problem.Problem{
		Question:         "Simplify: sin^2(x) + cos^2(x)",
		ExpressionAnswer: "sin^2(x)+cos^2(x)",
		Difficulty:       2,
	}

	assert.True(t, Check(p, "sin^2(x) + cos^2(x)"))
	assert.True(t, Check(p, "SIN^2(x)+COS^2(x)"))
	assert.False(t, Check(p, "1"))
}
