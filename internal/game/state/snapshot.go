package state

import (
	"fmt"

	"github.com/wormhole-warp/engine/internal/game/board"
)

// PlayerSnapshot is the persisted subset of one player.
type PlayerSnapshot struct {
	ID       int    `json:"id"`
	Color    string `json:"color"`
	Initials string `json:"initials,omitempty"`
	Position int    `json:"position"`
}

// Snapshot is the persisted subset of a match: players, turn cursor, status,
// and winner. Transient fields (dice value, pending events, movement flags,
// camera hints) are deliberately excluded; a restored game always resumes at
// an idle turn boundary.
type Snapshot struct {
	Status    string           `json:"status"`
	TurnIndex int              `json:"turn_index"`
	Winner    int              `json:"winner"`
	Players   []PlayerSnapshot `json:"players"`
}

// Snapshot captures the persisted subset of the game.
//
// Postcondition: Restore(g.Snapshot()) yields an observably equivalent game
// at an idle turn boundary.
func (g *Game) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, len(g.players))
	for i, p := range g.players {
		players[i] = PlayerSnapshot{
			ID:       p.ID,
			Color:    p.Color.String(),
			Initials: p.Initials,
			Position: p.Position,
		}
	}
	return Snapshot{
		Status:    g.status.String(),
		TurnIndex: g.turn,
		Winner:    g.winner,
		Players:   players,
	}
}

// Restore rebuilds a Game from a persisted snapshot. The restored game has
// no pending events, no roll in flight, and no movement flags set.
//
// Precondition: s must come from Snapshot (or be equivalent).
// Postcondition: Returns a valid Game or a non-nil error describing the
// first violation found.
func Restore(s Snapshot) (*Game, error) {
	status, err := parseStatus(s.Status)
	if err != nil {
		return nil, err
	}

	g := NewGame()
	g.status = status

	if status == StatusSetup {
		if len(s.Players) != 0 {
			return nil, fmt.Errorf("state: setup snapshot must not carry players, got %d", len(s.Players))
		}
		return g, nil
	}

	if len(s.Players) < 2 || len(s.Players) > len(Palette()) {
		return nil, fmt.Errorf("state: snapshot player count %d out of range [2,%d]", len(s.Players), len(Palette()))
	}
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.Players) {
		return nil, fmt.Errorf("state: snapshot turn index %d out of range", s.TurnIndex)
	}

	g.players = make([]*Player, len(s.Players))
	palette := Palette()
	for i, ps := range s.Players {
		if ps.ID != i {
			return nil, fmt.Errorf("state: snapshot player %d has id %d, want seat order", i, ps.ID)
		}
		if ps.Position < board.FirstTile || ps.Position > board.LastTile {
			return nil, fmt.Errorf("state: snapshot player %d position %d out of range", i, ps.Position)
		}
		color, err := parseColor(ps.Color)
		if err != nil {
			return nil, err
		}
		if color != palette[i] {
			return nil, fmt.Errorf("state: snapshot player %d color %q does not match seat color %q", i, ps.Color, palette[i])
		}
		g.players[i] = &Player{
			ID:       ps.ID,
			Color:    color,
			Initials: ps.Initials,
			Position: ps.Position,
		}
	}
	g.turn = s.TurnIndex

	if status == StatusFinished {
		if s.Winner < 0 || s.Winner >= len(s.Players) {
			return nil, fmt.Errorf("state: finished snapshot winner %d out of range", s.Winner)
		}
		g.winner = s.Winner
	} else if s.Winner != -1 {
		return nil, fmt.Errorf("state: non-finished snapshot must have winner -1, got %d", s.Winner)
	}

	return g, nil
}

func parseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusSetup, StatusCollectingInitials, StatusPlaying, StatusFinished} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("state: unknown status %q", s)
}

func parseColor(s string) (Color, error) {
	for _, c := range Palette() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("state: unknown color %q", s)
}
