package problem

import (
	"fmt"

	"github.com/axiomduel/platform/internal/game/rng"
)

// Counting and arrangement problems. Each tier maps to a small pool of
// templates; template difficulty labels are approximate and may differ from
// the scheduled tier.
func genCombinatorics(stream *rng.Stream, difficulty int) Problem {
	switch {
	case difficulty <= 1:
		return pickTemplate(stream, []template{genFactorial, genMultiplyBasic})
	case difficulty <= 2:
		return pickTemplate(stream, []template{genSmallCombination, genSmallPermutation, genMultiplyBasic})
	case difficulty <= 3:
		return pickTemplate(stream, []template{genCombinationMed, genPermutationMed, genHandshakes})
	case difficulty <= 4:
		return pickTemplate(stream, []template{genLargerCombination, genArrangeConstraint, genOutfits})
	default:
		return pickTemplate(stream, []template{genCommitteeRoles, genGridPaths, genNotInSeat})
	}
}

func genFactorial(stream *rng.Stream) Problem {
	n := stream.Range(3, 4)
	return Problem{
		Question:   fmt.Sprintf("%d! = ?", n),
		Answer:     float64(factorial(n)),
		Difficulty: 1,
	}
}

func genMultiplyBasic(stream *rng.Stream) Problem {
	a := stream.Range(2, 4)
	b := stream.Range(2, 4)
	difficulty := 1
	if a+b > 7 {
		difficulty = 2
	}
	return Problem{
		Question:   fmt.Sprintf("%d shirts and %d pants. How many outfits?", a, b),
		Answer:     float64(a * b),
		Difficulty: difficulty,
	}
}

func genSmallCombination(stream *rng.Stream) Problem {
	n := stream.Range(4, 3)
	r := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("C(%d, %d) = ?", n, r),
		Answer:     float64(choose(n, r)),
		Difficulty: 2,
	}
}

func genSmallPermutation(stream *rng.Stream) Problem {
	n := stream.Range(4, 2)
	r := 2
	return Problem{
		Question:   fmt.Sprintf("P(%d, %d) = ?", n, r),
		Answer:     float64(permute(n, r)),
		Difficulty: 2,
	}
}

func genCombinationMed(stream *rng.Stream) Problem {
	n := stream.Range(5, 4)
	r := stream.Range(2, 3)
	if r > n-1 {
		r = n - 1
	}
	return Problem{
		Question:   fmt.Sprintf("C(%d, %d) = ?", n, r),
		Answer:     float64(choose(n, r)),
		Difficulty: 3,
	}
}

func genPermutationMed(stream *rng.Stream) Problem {
	n := stream.Range(5, 3)
	r := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("P(%d, %d) = ?", n, r),
		Answer:     float64(permute(n, r)),
		Difficulty: 3,
	}
}

func genHandshakes(stream *rng.Stream) Problem {
	n := stream.Range(5, 6)
	return Problem{
		Question:   fmt.Sprintf("%d people each shake hands once with everyone else. Total handshakes?", n),
		Answer:     float64(choose(n, 2)),
		Difficulty: 3,
	}
}

func genLargerCombination(stream *rng.Stream) Problem {
	n := stream.Range(7, 4)
	r := stream.Range(2, 3)
	if r > n-1 {
		r = n - 1
	}
	return Problem{
		Question:   fmt.Sprintf("C(%d, %d) = ?", n, r),
		Answer:     float64(choose(n, r)),
		Difficulty: 4,
	}
}

func genArrangeConstraint(stream *rng.Stream) Problem {
	n := stream.Range(4, 3)
	return Problem{
		Question:   fmt.Sprintf("%d people line up. Person A must be first. How many arrangements?", n),
		Answer:     float64(factorial(n - 1)),
		Difficulty: 4,
	}
}

func genOutfits(stream *rng.Stream) Problem {
	a := stream.Range(3, 3)
	b := stream.Range(3, 3)
	c := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("%d shirts, %d pants, %d hats. How many outfits?", a, b, c),
		Answer:     float64(a * b * c),
		Difficulty: 4,
	}
}

func genCommitteeRoles(stream *rng.Stream) Problem {
	n := stream.Range(6, 3)
	return Problem{
		Question:   fmt.Sprintf("From %d people, choose a president, VP, and secretary. How many ways?", n),
		Answer:     float64(permute(n, 3)),
		Difficulty: 5,
	}
}

func genGridPaths(stream *rng.Stream) Problem {
	right := stream.Range(2, 2)
	down := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("Grid: %d steps right, %d steps down. How many shortest paths?", right, down),
		Answer:     float64(choose(right+down, right)),
		Difficulty: 5,
	}
}

func genNotInSeat(stream *rng.Stream) Problem {
	n := stream.Range(4, 2)
	return Problem{
		Question:   fmt.Sprintf("%d people, %d seats. Arrangements where person A is NOT in seat 1?", n, n),
		Answer:     float64(factorial(n) - factorial(n-1)),
		Difficulty: 5,
	}
}
