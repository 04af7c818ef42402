package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedEqualRatings(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1200, 1200), 1e-9)
}

func TestExpectedFourHundredGap(t *testing.T) {
	assert.InDelta(t, 0.909, Expected(1200, 800), 0.001)
	assert.InDelta(t, 0.091, Expected(800, 1200), 0.001)
}

func TestCalculateEqualRatingsWin(t *testing.T) {
	calc := NewCalculator(18)
	res := calc.Calculate(1200, 1200, ScoreWin)

	assert.Equal(t, 9, res.DeltaA)
	assert.Equal(t, -9, res.DeltaB)
	assert.Equal(t, 1209, res.NewRatingA)
	assert.Equal(t, 1191, res.NewRatingB)
}

func TestCalculateEqualRatingsDraw(t *testing.T) {
	calc := NewCalculator(18)
	res := calc.Calculate(1000, 1000, ScoreDraw)

	assert.Equal(t, 0, res.DeltaA)
	assert.Equal(t, 0, res.DeltaB)
}

func TestCalculateFavoriteWins(t *testing.T) {
	// A at 1200 vs B at 1000: expected ≈ 0.76, so A gains round(K*0.24),
	// less than half of K; B's loss is independently rounded and larger in
	// magnitude.
	calc := NewCalculator(18)
	res := calc.Calculate(1200, 1000, ScoreWin)

	assert.Equal(t, 4, res.DeltaA)
	assert.Equal(t, -4, res.DeltaB)
	assert.Positive(t, res.DeltaA)
	assert.Less(t, res.DeltaA, 9)
}

func TestCalculateUpsetGainsMore(t *testing.T) {
	calc := NewCalculator(18)
	res := calc.Calculate(1000, 1200, ScoreWin)

	assert.Greater(t, res.DeltaA, 9, "an underdog win should gain more than half of K")
}

func TestRatingFloor(t *testing.T) {
	calc := NewCalculator(18)
	res := calc.Calculate(100, 1500, ScoreLoss)

	assert.Equal(t, RatingFloor, res.NewRatingA)

	res = calc.Calculate(105, 105, ScoreLoss)
	assert.Equal(t, RatingFloor, res.NewRatingA)
}

func TestDefaultK(t *testing.T) {
	calc := NewCalculator(0)
	res := calc.Calculate(1200, 1200, ScoreWin)
	assert.Equal(t, DefaultK/2, res.DeltaA)
}
