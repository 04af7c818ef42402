package problem

import (
	"fmt"

	"github.com/axiomduel/platform/internal/game/rng"
)

// Discrete-outcome counting: coins, dice, and draws from a bag.
func genDiscrete(stream *rng.Stream, difficulty int) Problem {
	switch {
	case difficulty <= 1:
		return pickTemplate(stream, []template{genCoinTotal, genDieOutcomes})
	case difficulty <= 2:
		return pickTemplate(stream, []template{genDiceSumWays, genBagFavorable, genCoinTotal})
	case difficulty <= 3:
		return pickTemplate(stream, []template{genComplementCoin, genExactHeads, genDiceSumWays})
	case difficulty <= 4:
		return pickTemplate(stream, []template{genExactDraw, genDiceAtLeast})
	default:
		return pickTemplate(stream, []template{genLargerExactDraw, genNoSixes})
	}
}

func genCoinTotal(stream *rng.Stream) Problem {
	n := stream.Range(2, 4)
	difficulty := 1
	if n > 3 {
		difficulty = 2
	}
	return Problem{
		Question:   fmt.Sprintf("%d coins are flipped. How many total possible outcomes?", n),
		Answer:     float64(pow(2, n)),
		Difficulty: difficulty,
	}
}

func genDieOutcomes(stream *rng.Stream) Problem {
	target := stream.Range(1, 5)
	return Problem{
		Question:   fmt.Sprintf("A fair die is rolled. How many outcomes show ≥ %d?", target),
		Answer:     float64(7 - target),
		Difficulty: 1,
	}
}

// diceSumWays[s] is the number of ordered two-die rolls summing to s.
var diceSumWays = map[int]int{
	2: 1, 3: 2, 4: 3, 5: 4, 6: 5, 7: 6,
	8: 5, 9: 4, 10: 3, 11: 2, 12: 1,
}

func genDiceSumWays(stream *rng.Stream) Problem {
	sums := []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	target := sums[stream.Intn(len(sums))]
	difficulty := 3
	if target == 7 || target == 2 || target == 12 {
		difficulty = 2
	}
	return Problem{
		Question:   fmt.Sprintf("Two dice are rolled. How many ways to get a sum of %d?", target),
		Answer:     float64(diceSumWays[target]),
		Difficulty: difficulty,
	}
}

func genBagFavorable(stream *rng.Stream) Problem {
	red := stream.Range(2, 5)
	blue := stream.Range(2, 5)
	total := red + blue
	isRed := stream.Next() > 0.5
	favorable, color := blue, "blue"
	if isRed {
		favorable, color = red, "red"
	}
	return Problem{
		Question:   fmt.Sprintf("Bag: %d red, %d blue (%d total). Draw 1. Favorable outcomes for %s?", red, blue, total, color),
		Answer:     float64(favorable),
		Difficulty: 2,
	}
}

func genComplementCoin(stream *rng.Stream) Problem {
	n := stream.Range(3, 3)
	return Problem{
		Question:   fmt.Sprintf("%d coins flipped. How many outcomes have at least 1 head?", n),
		Answer:     float64(pow(2, n) - 1),
		Difficulty: 3,
	}
}

func genExactHeads(stream *rng.Stream) Problem {
	n := stream.Range(4, 3)
	k := stream.Range(1, n-1)
	return Problem{
		Question:   fmt.Sprintf("%d coins flipped. How many outcomes have exactly %d heads?", n, k),
		Answer:     float64(choose(n, k)),
		Difficulty: 3,
	}
}

func genExactDraw(stream *rng.Stream) Problem {
	red := stream.Range(4, 3)
	blue := stream.Range(3, 3)
	draw := 3
	wantRed := stream.Range(1, 2)
	wantBlue := draw - wantRed
	if wantBlue > blue || wantRed > red {
		return Problem{
			Question:   fmt.Sprintf("Bag: %d red, %d blue. Draw 2. Ways to get 1 red and 1 blue?", red, blue),
			Answer:     float64(red * blue),
			Difficulty: 4,
		}
	}
	return Problem{
		Question:   fmt.Sprintf("Bag: %d red, %d blue. Draw %d. Ways to get exactly %d red?", red, blue, draw, wantRed),
		Answer:     float64(choose(red, wantRed) * choose(blue, wantBlue)),
		Difficulty: 4,
	}
}

func genDiceAtLeast(stream *rng.Stream) Problem {
	n := stream.Range(2, 2)
	return Problem{
		Question:   fmt.Sprintf("Roll %d dice. How many outcomes have at least one 6?", n),
		Answer:     float64(pow(6, n) - pow(5, n)),
		Difficulty: 4,
	}
}

func genLargerExactDraw(stream *rng.Stream) Problem {
	red := stream.Range(5, 3)
	blue := stream.Range(4, 3)
	draw := 4
	wantRed := 2
	return Problem{
		Question:   fmt.Sprintf("Bag: %d red, %d blue. Draw %d. Ways to get exactly %d red?", red, blue, draw, wantRed),
		Answer:     float64(choose(red, wantRed) * choose(blue, draw-wantRed)),
		Difficulty: 5,
	}
}

func genNoSixes(stream *rng.Stream) Problem {
	n := stream.Range(3, 2)
	return Problem{
		Question:   fmt.Sprintf("Roll %d dice. How many outcomes have NO sixes?", n),
		Answer:     float64(pow(5, n)),
		Difficulty: 5,
	}
}
