// Package problem generates the deterministic, difficulty-progressive
// problem sequence both players race through during a duel.
package problem

import "fmt"

// Mode selects which problem categories a duel draws from.
type Mode string

const (
	ModeCombinatorics Mode = "combinatorics"
	ModeDiscrete      Mode = "discrete"
	ModeConditional   Mode = "conditional"
	ModeAlgebra       Mode = "algebra"
	// ModeAll aggregates the three probability categories, picking one
	// uniformly per problem.
	ModeAll Mode = "all"
)

// ParseMode validates a client-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCombinatorics, ModeDiscrete, ModeConditional, ModeAlgebra, ModeAll:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown game mode %q", s)
	}
}

// Problem is a single generated question. Immutable once generated.
// ExpressionAnswer, when non-empty, is a canonical polynomial string and
// takes precedence over the numeric Answer during checking.
type Problem struct {
	Question         string  `json:"question"`
	Answer           float64 `json:"answer"`
	ExpressionAnswer string  `json:"expression_answer,omitempty"`
	Difficulty       int     `json:"difficulty"`
}
