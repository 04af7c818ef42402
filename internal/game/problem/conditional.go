package problem

import (
	"fmt"

	"github.com/axiomduel/platform/internal/game/rng"
)

// Conditional counting: reduced sample spaces after a given event.
func genConditional(stream *rng.Stream, difficulty int) Problem {
	switch {
	case difficulty <= 1:
		return pickTemplate(stream, []template{genGivenEven, genGivenRemaining})
	case difficulty <= 2:
		return pickTemplate(stream, []template{genGivenGtThreshold, genGivenAtLeastOneHead})
	case difficulty <= 3:
		return pickTemplate(stream, []template{genGivenDiceSum, genGivenFirstPerson})
	case difficulty <= 4:
		return pickTemplate(stream, []template{genGivenOnCommittee, genGivenInFirstK})
	default:
		return pickTemplate(stream, []template{genGivenBothIncluded, genGivenAdjacent})
	}
}

func genGivenEven(stream *rng.Stream) Problem {
	switch stream.Intn(4) {
	case 0:
		return Problem{Question: "A die is rolled. Given it shows an even number, how many possible values?", Answer: 3, Difficulty: 1}
	case 1:
		return Problem{Question: "A die is rolled. Given it shows an odd number, how many possible values?", Answer: 3, Difficulty: 1}
	case 2:
		return Problem{Question: "A die is rolled. Given it shows a prime, how many possible values?", Answer: 3, Difficulty: 1}
	default:
		t := stream.Range(2, 3)
		return Problem{
			Question:   fmt.Sprintf("A die is rolled. Given it shows ≤ %d, how many possible values?", t),
			Answer:     float64(t),
			Difficulty: 1,
		}
	}
}

func genGivenRemaining(stream *rng.Stream) Problem {
	red := stream.Range(3, 4)
	blue := stream.Range(2, 4)
	total := red + blue
	return Problem{
		Question:   fmt.Sprintf("Bag: %d red, %d blue (%d total). 1 red marble is drawn. How many marbles remain?", red, blue, total),
		Answer:     float64(total - 1),
		Difficulty: 1,
	}
}

func genGivenGtThreshold(stream *rng.Stream) Problem {
	t := stream.Range(2, 4)
	return Problem{
		Question:   fmt.Sprintf("A die is rolled. Given it shows > %d, how many possible values?", t),
		Answer:     float64(6 - t),
		Difficulty: 2,
	}
}

func genGivenAtLeastOneHead(stream *rng.Stream) Problem {
	n := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("%d coins flipped. Given at least 1 is heads, how many outcomes?", n),
		Answer:     float64(pow(2, n) - 1),
		Difficulty: 2,
	}
}

func genGivenDiceSum(stream *rng.Stream) Problem {
	sums := []int{3, 4, 5, 6, 7, 8, 9, 10, 11}
	target := sums[stream.Intn(len(sums))]
	return Problem{
		Question:   fmt.Sprintf("Two dice rolled. Given the sum is %d, how many outcomes satisfy this?", target),
		Answer:     float64(diceSumWays[target]),
		Difficulty: 3,
	}
}

func genGivenFirstPerson(stream *rng.Stream) Problem {
	n := stream.Range(4, 3)
	return Problem{
		Question:   fmt.Sprintf("%d people in a line. Given person A is first, how many arrangements for the rest?", n),
		Answer:     float64(factorial(n - 1)),
		Difficulty: 3,
	}
}

func genGivenOnCommittee(stream *rng.Stream) Problem {
	n := stream.Range(7, 3)
	r := stream.Range(3, 2)
	return Problem{
		Question:   fmt.Sprintf("Committee of %d from %d. Given person A is on it, how many ways to choose the rest?", r, n),
		Answer:     float64(choose(n-1, r-1)),
		Difficulty: 4,
	}
}

func genGivenInFirstK(stream *rng.Stream) Problem {
	n := stream.Range(5, 3)
	k := 2
	return Problem{
		Question:   fmt.Sprintf("%d people in a line. Given A is in the first %d positions, how many total arrangements?", n, k),
		Answer:     float64(int64(k) * factorial(n-1)),
		Difficulty: 4,
	}
}

func genGivenBothIncluded(stream *rng.Stream) Problem {
	n := stream.Range(8, 3)
	r := stream.Range(4, 2)
	return Problem{
		Question:   fmt.Sprintf("Select %d from %d people. Given A and B are both selected, ways to choose the rest?", r, n),
		Answer:     float64(choose(n-2, r-2)),
		Difficulty: 5,
	}
}

func genGivenAdjacent(stream *rng.Stream) Problem {
	n := stream.Range(4, 2)
	return Problem{
		Question:   fmt.Sprintf("%d people in a line. Given A and B must be adjacent, how many arrangements?", n),
		Answer:     float64(2 * factorial(n-1)),
		Difficulty: 5,
	}
}
