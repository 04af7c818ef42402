package problem

import (
	"github.com/axiomduel/platform/internal/game/rng"
)

// AttemptMultiplier bounds the duplicate-skipping loop: generation gives up
// after count*AttemptMultiplier candidate draws and returns what it has.
const AttemptMultiplier = 10

// Generate produces up to count problems for the given seed and mode. The
// output is fully determined by (seed, mode, count): every randomized choice
// — difficulty jitter, category pick, template pick, template parameters —
// draws from one shared stream in a fixed order.
//
// Candidates whose question text already appeared are skipped. If the
// attempt budget runs out before count unique problems are found the slice
// is short; callers must tolerate that.
func Generate(seed string, mode Mode, count int) []Problem {
	stream := rng.New(seed)
	problems := make([]Problem, 0, count)
	seen := make(map[string]bool, count)

	for attempts := 0; len(problems) < count && attempts < count*AttemptMultiplier; attempts++ {
		difficulty := scheduledDifficulty(len(problems), stream)
		p := generateOne(stream, mode, difficulty)

		if seen[p.Question] {
			continue
		}
		seen[p.Question] = true
		problems = append(problems, p)
	}

	return problems
}

// BaseDifficulty is the pre-jitter difficulty scheduled for the i-th problem:
// it ramps up one tier every 6 problems, clamped to [1,5].
func BaseDifficulty(index int) int {
	d := index/6 + 1
	if d > 5 {
		d = 5
	}
	return d
}

// scheduledDifficulty applies the ±1 jitter draw on top of the base ramp.
// The draw happens unconditionally so the stream position stays aligned
// across clients regardless of clamping.
func scheduledDifficulty(index int, stream *rng.Stream) int {
	variance := stream.Intn(2) - 1
	d := BaseDifficulty(index) + variance
	if d < 1 {
		d = 1
	}
	if d > 5 {
		d = 5
	}
	return d
}

func generateOne(stream *rng.Stream, mode Mode, difficulty int) Problem {
	switch mode {
	case ModeAll:
		switch stream.Intn(3) {
		case 0:
			return genCombinatorics(stream, difficulty)
		case 1:
			return genDiscrete(stream, difficulty)
		default:
			return genConditional(stream, difficulty)
		}
	case ModeCombinatorics:
		return genCombinatorics(stream, difficulty)
	case ModeDiscrete:
		return genDiscrete(stream, difficulty)
	case ModeAlgebra:
		return genAlgebra(stream, difficulty)
	default:
		return genConditional(stream, difficulty)
	}
}

type template func(*rng.Stream) Problem

// pickTemplate consumes exactly one draw to select among a tier's pool.
func pickTemplate(stream *rng.Stream, pool []template) Problem {
	return pool[stream.Intn(len(pool))](stream)
}

// factorial computes n! exactly. Template parameters stay small enough that
// the result fits an int64 without overflow.
func factorial(n int) int64 {
	result := int64(1)
	for i := int64(2); i <= int64(n); i++ {
		result *= i
	}
	return result
}

// choose computes C(n, r).
func choose(n, r int) int64 {
	if r > n || r < 0 {
		return 0
	}
	if r == 0 || r == n {
		return 1
	}
	return factorial(n) / (factorial(r) * factorial(n-r))
}

// permute computes P(n, r).
func permute(n, r int) int64 {
	if r > n {
		return 0
	}
	return factorial(n) / factorial(n-r)
}

func pow(base, exp int) int64 {
	result := int64(1)
	for i := 0; i < exp; i++ {
		result *= int64(base)
	}
	return result
}
