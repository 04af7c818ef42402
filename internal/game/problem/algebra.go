package problem

import (
	"fmt"

	"github.com/axiomduel/platform/internal/game/polynomial"
	"github.com/axiomduel/platform/internal/game/rng"
)

// Symbolic algebra problems. These carry an ExpressionAnswer (canonical
// polynomial string) instead of a numeric answer; the numeric Answer field
// is left zero and ignored by the checker.
func genAlgebra(stream *rng.Stream, difficulty int) Problem {
	switch {
	case difficulty <= 1:
		return pickTemplate(stream, []template{genDerivativeMonomial, genDerivativeLinear})
	case difficulty <= 2:
		return pickTemplate(stream, []template{genExpandScalar, genDerivativeMonomial})
	case difficulty <= 3:
		return pickTemplate(stream, []template{genDerivativeQuadratic, genExpandScalar})
	case difficulty <= 4:
		return pickTemplate(stream, []template{genExpandBinomials, genDerivativeQuadratic})
	default:
		return pickTemplate(stream, []template{genDerivativeCubic, genExpandBinomials})
	}
}

// derivative returns the coefficients of d/dx of the given polynomial.
func derivative(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(coeffs)-1)
	for p := 1; p < len(coeffs); p++ {
		out[p-1] = coeffs[p] * float64(p)
	}
	return out
}

func expressionProblem(question string, answer []float64, difficulty int) Problem {
	return Problem{
		Question:         question,
		ExpressionAnswer: polynomial.Format(answer),
		Difficulty:       difficulty,
	}
}

func genDerivativeMonomial(stream *rng.Stream) Problem {
	a := stream.Range(2, 5)
	n := stream.Range(2, 3)
	coeffs := make([]float64, n+1)
	coeffs[n] = float64(a)
	return expressionProblem(
		fmt.Sprintf("d/dx(%s) = ?", polynomial.Format(coeffs)),
		derivative(coeffs),
		1,
	)
}

func genDerivativeLinear(stream *rng.Stream) Problem {
	a := stream.Range(2, 7)
	b := stream.Range(1, 9)
	coeffs := []float64{float64(b), float64(a)}
	return expressionProblem(
		fmt.Sprintf("d/dx(%s) = ?", polynomial.Format(coeffs)),
		derivative(coeffs),
		1,
	)
}

func genExpandScalar(stream *rng.Stream) Problem {
	a := stream.Range(2, 4)
	b := stream.Range(1, 6)
	answer := []float64{float64(a * b), float64(a)}
	return expressionProblem(
		fmt.Sprintf("Expand: %d(x + %d)", a, b),
		answer,
		2,
	)
}

func genDerivativeQuadratic(stream *rng.Stream) Problem {
	a := stream.Range(1, 5)
	b := stream.Range(1, 8) - 4
	c := stream.Range(1, 9)
	coeffs := []float64{float64(c), float64(b), float64(a)}
	if b == 0 {
		coeffs[1] = 1
	}
	return expressionProblem(
		fmt.Sprintf("d/dx(%s) = ?", polynomial.Format(coeffs)),
		derivative(coeffs),
		3,
	)
}

func genExpandBinomials(stream *rng.Stream) Problem {
	a := stream.Range(1, 5)
	b := stream.Range(1, 5)
	answer := []float64{float64(a * b), float64(a + b), 1}
	return expressionProblem(
		fmt.Sprintf("Expand: (x + %d)(x + %d)", a, b),
		answer,
		4,
	)
}

func genDerivativeCubic(stream *rng.Stream) Problem {
	a := stream.Range(1, 4)
	b := stream.Range(1, 5)
	d := stream.Range(1, 9)
	coeffs := []float64{float64(d), 0, float64(b), float64(a)}
	return expressionProblem(
		fmt.Sprintf("d/dx(%s) = ?", polynomial.Format(coeffs)),
		derivative(coeffs),
		5,
	)
}
