package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomduel/platform/internal/game/polynomial"
)

var allModes = []Mode{ModeCombinatorics, ModeDiscrete, ModeConditional, ModeAlgebra, ModeAll}

func TestGenerateDeterministic(t *testing.T) {
	for _, mode := range allModes {
		first := Generate("abc", mode, 10)
		second := Generate("abc", mode, 10)

		require.Equal(t, len(first), len(second), "mode %s", mode)
		for i := range first {
			assert.Equal(t, first[i], second[i], "mode %s diverged at problem %d", mode, i)
		}
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	a := Generate("seed-one", ModeAll, 20)
	b := Generate("seed-two", ModeAll, 20)

	same := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Question == b[i].Question {
			same++
		}
	}
	assert.Less(t, same, len(a)/2, "different seeds should rarely collide")
}

func TestGenerateNoDuplicateQuestions(t *testing.T) {
	for _, mode := range allModes {
		problems := Generate("dedupe-seed", mode, 50)
		seen := map[string]bool{}
		for _, p := range problems {
			assert.False(t, seen[p.Question], "mode %s repeated %q", mode, p.Question)
			seen[p.Question] = true
		}
	}
}

func TestGenerateCount(t *testing.T) {
	problems := Generate("count-seed", ModeAll, 50)
	// Dedupe may shorten the sequence; it must never lengthen it.
	assert.LessOrEqual(t, len(problems), 50)
	assert.NotEmpty(t, problems)
}

func TestBaseDifficultySchedule(t *testing.T) {
	assert.Equal(t, 1, BaseDifficulty(0))
	assert.Equal(t, 1, BaseDifficulty(5))
	assert.Equal(t, 2, BaseDifficulty(6))
	assert.Equal(t, 3, BaseDifficulty(12))
	assert.Equal(t, 5, BaseDifficulty(24))
	assert.Equal(t, 5, BaseDifficulty(48), "schedule is clamped to 5")
}

func TestGenerateDifficultyBounds(t *testing.T) {
	for _, mode := range allModes {
		for _, p := range Generate("difficulty-seed", mode, 50) {
			assert.GreaterOrEqual(t, p.Difficulty, 1, "mode %s", mode)
			assert.LessOrEqual(t, p.Difficulty, 5, "mode %s", mode)
		}
	}
}

func TestGenerateEarlyProblemsStayEasy(t *testing.T) {
	// The first six problems are scheduled at base difficulty 1; with ±1
	// jitter their template labels still cluster low.
	problems := Generate("ramp-seed", ModeCombinatorics, 30)
	require.GreaterOrEqual(t, len(problems), 6)
	for i := 0; i < 6; i++ {
		assert.LessOrEqual(t, problems[i].Difficulty, 3)
	}
}

func TestGenerateAlgebraCarriesExpressions(t *testing.T) {
	problems := Generate("algebra-seed", ModeAlgebra, 30)
	require.NotEmpty(t, problems)
	for _, p := range problems {
		require.NotEmpty(t, p.ExpressionAnswer, "algebra problem missing symbolic answer: %q", p.Question)
		_, ok := polynomial.Parse(p.ExpressionAnswer)
		assert.True(t, ok, "canonical answer must parse: %q", p.ExpressionAnswer)
	}
}

func TestGenerateProbabilityAnswersAreIntegers(t *testing.T) {
	for _, mode := range []Mode{ModeCombinatorics, ModeDiscrete, ModeConditional, ModeAll} {
		for _, p := range Generate("exact-seed", mode, 50) {
			assert.Equal(t, float64(int64(p.Answer)), p.Answer,
				"mode %s produced a non-integer answer for %q", mode, p.Question)
			assert.Empty(t, p.ExpressionAnswer)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range allModes {
		got, err := ParseMode(string(mode))
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}

	_, err := ParseMode("calculus")
	assert.Error(t, err)
}
