// Package elo computes rating updates from duel outcomes.
//
// The expected score follows the standard logistic model: a 400-point rating
// gap corresponds to roughly 10:1 win odds. Each player's delta is rounded
// independently, so the two deltas are not exact negatives of each other;
// that asymmetry is part of the observed rating behavior and is kept.
package elo

import "math"

// DefaultK is the default K-factor: the maximum rating swing per match.
const DefaultK = 18

// RatingFloor is the minimum rating a player can hold.
const RatingFloor = 100

// Score values for the A-side of a match.
const (
	ScoreWin  = 1.0
	ScoreDraw = 0.5
	ScoreLoss = 0.0
)

// Result holds the outcome of a rating calculation.
type Result struct {
	NewRatingA int `json:"new_rating_a"`
	NewRatingB int `json:"new_rating_b"`
	DeltaA     int `json:"delta_a"`
	DeltaB     int `json:"delta_b"`
}

// Calculator computes rating updates with a fixed K-factor.
type Calculator struct {
	k float64
}

// NewCalculator builds a calculator; k <= 0 selects DefaultK.
func NewCalculator(k int) *Calculator {
	if k <= 0 {
		k = DefaultK
	}
	return &Calculator{k: float64(k)}
}

// Expected returns the expected score (win probability) for a player rated
// ratingA against an opponent rated ratingB.
func Expected(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// Calculate derives both players' new ratings from the actual outcome.
// scoreA is 1 for an A win, 0.5 for a draw, 0 for a loss; B's score is its
// complement. Ratings never drop below RatingFloor.
func (c *Calculator) Calculate(ratingA, ratingB int, scoreA float64) Result {
	expectedA := Expected(ratingA, ratingB)
	expectedB := Expected(ratingB, ratingA)
	scoreB := 1 - scoreA

	deltaA := int(math.Round(c.k * (scoreA - expectedA)))
	deltaB := int(math.Round(c.k * (scoreB - expectedB)))

	return Result{
		NewRatingA: floor(ratingA + deltaA),
		NewRatingB: floor(ratingB + deltaB),
		DeltaA:     deltaA,
		DeltaB:     deltaB,
	}
}

func floor(rating int) int {
	if rating < RatingFloor {
		return RatingFloor
	}
	return rating
}
