// Package challenge generates and resolves the math-challenge mini game:
// an arithmetic problem answered against a ticking countdown.
package challenge

import (
	"fmt"

	"github.com/wormhole-warp/engine/internal/game/dice"
)

// Reward and penalty applied to the player's position, in tiles. Both are
// clamped by the state store so positions stay in [1,100] and a challenge
// can never carry a player past the win tile.
const (
	RewardTiles  = 3
	PenaltyTiles = 2
)

// Problem is one arithmetic challenge.
type Problem struct {
	Prompt string
	Answer int
}

// Generate produces a problem whose difficulty scales with board position:
// early game is single-digit addition, the late game mixes subtraction and
// multiplication with larger operands.
//
// Precondition: src must be non-nil; position in [1,100].
// Postcondition: Prompt is non-empty and Answer is the exact result.
func Generate(src dice.Source, position int) Problem {
	var a, b int
	var op byte
	switch {
	case position <= 33:
		a, b = 1+src.Intn(9), 1+src.Intn(9)
		op = '+'
	case position <= 66:
		a, b = 5+src.Intn(15), 1+src.Intn(12)
		if src.Intn(2) == 0 {
			op = '+'
		} else {
			op = '-'
		}
	default:
		switch src.Intn(3) {
		case 0:
			a, b = 10+src.Intn(30), 5+src.Intn(20)
			op = '+'
		case 1:
			a, b = 15+src.Intn(30), 1+src.Intn(14)
			op = '-'
		default:
			a, b = 2+src.Intn(8), 2+src.Intn(8)
			op = '*'
		}
	}

	var answer int
	switch op {
	case '+':
		answer = a + b
	case '-':
		answer = a - b
	case '*':
		answer = a * b
	}

	display := string(op)
	if op == '*' {
		display = "×"
	}
	return Problem{
		Prompt: fmt.Sprintf("%d %s %d = ?", a, display, b),
		Answer: answer,
	}
}
