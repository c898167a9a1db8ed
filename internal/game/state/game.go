package state

import (
	"strings"

	"github.com/wormhole-warp/engine/internal/game/board"
	"github.com/wormhole-warp/engine/internal/game/challenge"
	"github.com/wormhole-warp/engine/internal/game/warp"
)

// MoveOutcome is the result of a MovePlayer call.
type MoveOutcome int

const (
	// MoveApplied means the token advanced and is now marked moving.
	MoveApplied MoveOutcome = iota
	// MoveOvershoot means the target exceeded the last tile; the token did
	// not move and the turn should pass immediately.
	MoveOvershoot
	// MoveRejected means a guard failed (wrong status, unknown player,
	// token already moving, bad step count).
	MoveRejected
)

// Game is the single authoritative state object for one match.
//
// Invariant: at most one of {pendingWarp, pendingCollision, pendingChallenge}
// is non-nil; every player position is in [1,100]; the turn cursor only
// advances when no pending event blocks it.
//
// Game is not safe for concurrent writers; the execution model guarantees a
// single logical writer (the controller serializes all mutation).
type Game struct {
	status         Status
	phase          Phase
	players        []*Player
	turn           int
	diceValue      int
	winner         int
	turnProcessing bool

	pendingWarp      *warp.Event
	pendingCollision *PendingCollision
	pendingChallenge *PendingChallenge

	history []warp.Record
	camera  Camera
}

// NewGame creates a Game in the setup stage.
//
// Postcondition: Status() == StatusSetup; no players exist.
func NewGame() *Game {
	return &Game{
		status: StatusSetup,
		winner: -1,
		camera: Camera{AtDefault: true},
	}
}

// Status returns the match lifecycle stage.
func (g *Game) Status() Status { return g.status }

// Phase returns the current turn-machine phase.
func (g *Game) Phase() Phase { return g.phase }

// TurnIndex returns the active seat index.
func (g *Game) TurnIndex() int { return g.turn }

// DiceValue returns the last rolled value, or 0 when no roll is pending.
func (g *Game) DiceValue() int { return g.diceValue }

// TurnProcessing reports whether a roll-to-next-turn cycle is in flight.
func (g *Game) TurnProcessing() bool { return g.turnProcessing }

// Winner returns the winning seat index once the match is finished.
//
// Postcondition: ok is true iff Status() == StatusFinished.
func (g *Game) Winner() (id int, ok bool) {
	if g.status != StatusFinished {
		return 0, false
	}
	return g.winner, true
}

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int { return len(g.players) }

// Player returns a copy of the player with the given seat index.
func (g *Game) Player(id int) (Player, bool) {
	if id < 0 || id >= len(g.players) {
		return Player{}, false
	}
	return *g.players[id], true
}

// Players returns copies of all players in seat order.
func (g *Game) Players() []Player {
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = *p
	}
	return out
}

// Positions returns all player positions in seat order.
func (g *Game) Positions() []int {
	out := make([]int, len(g.players))
	for i, p := range g.players {
		out[i] = p.Position
	}
	return out
}

// ActivePlayer returns a copy of the player whose turn it is.
func (g *Game) ActivePlayer() (Player, bool) {
	return g.Player(g.turn)
}

// History returns a copy of the append-only wormhole history.
func (g *Game) History() []warp.Record {
	out := make([]warp.Record, len(g.history))
	copy(out, g.history)
	return out
}

// PendingWarp returns a copy of the staged wormhole event, if any.
func (g *Game) PendingWarp() (warp.Event, bool) {
	if g.pendingWarp == nil {
		return warp.Event{}, false
	}
	return *g.pendingWarp, true
}

// PendingCollisionEvent returns a copy of the staged collision, if any.
func (g *Game) PendingCollisionEvent() (PendingCollision, bool) {
	if g.pendingCollision == nil {
		return PendingCollision{}, false
	}
	return *g.pendingCollision, true
}

// PendingChallengeEvent returns a copy of the staged challenge, if any.
func (g *Game) PendingChallengeEvent() (PendingChallenge, bool) {
	if g.pendingChallenge == nil {
		return PendingChallenge{}, false
	}
	return *g.pendingChallenge, true
}

// HasPendingEvent reports whether any event blocks turn advance.
func (g *Game) HasPendingEvent() bool {
	return g.pendingWarp != nil || g.pendingCollision != nil || g.pendingChallenge != nil
}

// SetupGame creates playerCount players at tile 1 and resets all transient
// state.
//
// Precondition: playerCount in [2,4].
// Postcondition: Returns true and Status() == StatusCollectingInitials, or
// false (no change) when the guard fails.
func (g *Game) SetupGame(playerCount int) bool {
	if playerCount < 2 || playerCount > len(Palette()) {
		return false
	}
	palette := Palette()
	g.players = make([]*Player, playerCount)
	for i := range g.players {
		g.players[i] = &Player{ID: i, Color: palette[i], Position: board.FirstTile}
	}
	g.turn = 0
	g.diceValue = 0
	g.winner = -1
	g.turnProcessing = false
	g.pendingWarp = nil
	g.pendingCollision = nil
	g.pendingChallenge = nil
	g.history = nil
	g.phase = PhaseIdle
	g.status = StatusCollectingInitials
	g.camera = Camera{AtDefault: true}
	return true
}

// SetInitials records a player's display tag, uppercased and truncated to
// three characters.
//
// Postcondition: Returns true iff the player exists and the match is in the
// initials stage.
func (g *Game) SetInitials(id int, initials string) bool {
	if g.status != StatusCollectingInitials {
		return false
	}
	if id < 0 || id >= len(g.players) {
		return false
	}
	s := strings.ToUpper(strings.TrimSpace(initials))
	if len(s) > 3 {
		s = s[:3]
	}
	g.players[id].Initials = s
	return true
}

// StartPlay transitions from initials collection to active play.
//
// Postcondition: Returns true and Status() == StatusPlaying, or false when
// not in the initials stage.
func (g *Game) StartPlay() bool {
	if g.status != StatusCollectingInitials {
		return false
	}
	g.status = StatusPlaying
	return true
}

// BeginTurnProcessing sets the reentrancy latch that guards the
// roll-to-next-turn cycle. Rapid repeated roll input is dropped here.
//
// Postcondition: Returns true and Phase() == PhaseRolling, or false when a
// cycle is already in flight, an event is pending, or the match is not
// playing.
func (g *Game) BeginTurnProcessing() bool {
	if g.status != StatusPlaying || g.turnProcessing || g.phase != PhaseIdle || g.HasPendingEvent() {
		return false
	}
	g.turnProcessing = true
	g.phase = PhaseRolling
	return true
}

// SetDice records the rolled value.
//
// Precondition: v in [1,6].
// Postcondition: Returns true iff the match is playing and a roll is in
// progress.
func (g *Game) SetDice(v int) bool {
	if g.status != StatusPlaying || g.phase != PhaseRolling || v < 1 || v > 6 {
		return false
	}
	g.diceValue = v
	return true
}

// MovePlayer advances a token by steps tiles. A target beyond the last tile
// rejects the move entirely: the token stays put and the turn passes
// (overshoot rule, no wraparound or bounce).
//
// Postcondition: On MoveApplied the position advanced and IsMoving is true;
// on MoveOvershoot and MoveRejected nothing changed.
func (g *Game) MovePlayer(id, steps int) MoveOutcome {
	if g.status != StatusPlaying || steps < 1 {
		return MoveRejected
	}
	if id < 0 || id >= len(g.players) {
		return MoveRejected
	}
	p := g.players[id]
	if p.IsMoving {
		return MoveRejected
	}
	target := p.Position + steps
	if target > board.LastTile {
		return MoveOvershoot
	}
	p.Position = target
	p.IsMoving = true
	g.phase = PhaseMoving
	return MoveApplied
}

// SetMoving flips a player's movement flag. A call that would not change the
// flag is a no-op, which makes redundant animation-completion signals safe.
//
// Postcondition: Returns true iff the flag changed.
func (g *Game) SetMoving(id int, moving bool) bool {
	if id < 0 || id >= len(g.players) {
		return false
	}
	p := g.players[id]
	if p.IsMoving == moving {
		return false
	}
	p.IsMoving = moving
	return true
}

// SetPendingWarp stages a wormhole event for confirmation.
//
// Precondition: e.PlayerID must be a valid seat.
// Postcondition: Returns true and Phase() == PhaseAwaitingConfirm, or false
// when another event is already pending or the match is not playing.
func (g *Game) SetPendingWarp(e warp.Event) bool {
	if g.status != StatusPlaying || g.HasPendingEvent() {
		return false
	}
	if e.PlayerID < 0 || e.PlayerID >= len(g.players) {
		return false
	}
	ev := e
	g.pendingWarp = &ev
	g.phase = PhaseAwaitingConfirm
	return true
}

// ExecuteTeleport applies the staged wormhole destination, records it in the
// history, and clears the pending event.
//
// Postcondition: On success the player sits on the destination tile, the
// history grew by one record, and Phase() == PhaseTurnEnding.
func (g *Game) ExecuteTeleport() (warp.Event, bool) {
	if g.pendingWarp == nil {
		return warp.Event{}, false
	}
	e := *g.pendingWarp
	p := g.players[e.PlayerID]
	p.Position = clampTile(e.To)
	g.history = append(g.history, warp.Record{
		PlayerID: e.PlayerID,
		From:     e.From,
		To:       p.Position,
		Delta:    p.Position - e.From,
	})
	g.pendingWarp = nil
	g.phase = PhaseTurnEnding
	return e, true
}

// SetPendingCollision stages a collision resolution for confirmation.
//
// Postcondition: Returns true and Phase() == PhaseAwaitingConfirm, or false
// when another event is already pending, a seat is invalid, or the match is
// not playing.
func (g *Game) SetPendingCollision(pc PendingCollision) bool {
	if g.status != StatusPlaying || g.HasPendingEvent() {
		return false
	}
	if pc.WinnerID < 0 || pc.WinnerID >= len(g.players) ||
		pc.LoserID < 0 || pc.LoserID >= len(g.players) || pc.WinnerID == pc.LoserID {
		return false
	}
	c := pc
	g.pendingCollision = &c
	g.phase = PhaseAwaitingConfirm
	return true
}

// ResolveCollision applies the staged bounce-back and clears the pending
// event.
//
// Postcondition: On success the loser sits on LoserDest and
// Phase() == PhaseTurnEnding.
func (g *Game) ResolveCollision() (PendingCollision, bool) {
	if g.pendingCollision == nil {
		return PendingCollision{}, false
	}
	c := *g.pendingCollision
	g.players[c.LoserID].Position = clampTile(c.LoserDest)
	g.pendingCollision = nil
	g.phase = PhaseTurnEnding
	return c, true
}

// SetPendingChallenge stages a math challenge.
//
// Precondition: pc.TicksRemaining >= 1.
// Postcondition: Returns true and Phase() == PhaseAwaitingConfirm, or false
// when another event is pending, the seat is invalid, or the match is not
// playing.
func (g *Game) SetPendingChallenge(pc PendingChallenge) bool {
	if g.status != StatusPlaying || g.HasPendingEvent() {
		return false
	}
	if pc.PlayerID < 0 || pc.PlayerID >= len(g.players) || pc.TicksRemaining < 1 {
		return false
	}
	c := pc
	g.pendingChallenge = &c
	g.phase = PhaseAwaitingConfirm
	return true
}

// TickChallenge decrements the challenge countdown.
//
// Postcondition: Returns the remaining ticks and true while a challenge is
// pending; (0, false) otherwise.
func (g *Game) TickChallenge() (remaining int, ok bool) {
	if g.pendingChallenge == nil {
		return 0, false
	}
	if g.pendingChallenge.TicksRemaining > 0 {
		g.pendingChallenge.TicksRemaining--
	}
	return g.pendingChallenge.TicksRemaining, true
}

// ResolveChallenge applies the challenge outcome and clears the pending
// event. A correct answer advances the player, a wrong answer or timeout
// sets them back; neither result leaves [1,100] and a reward never carries
// the player past the win tile (same forfeit rule as movement overshoot).
//
// Postcondition: On success Phase() == PhaseTurnEnding.
func (g *Game) ResolveChallenge(correct bool) (PendingChallenge, bool) {
	if g.pendingChallenge == nil {
		return PendingChallenge{}, false
	}
	c := *g.pendingChallenge
	p := g.players[c.PlayerID]
	if correct {
		if p.Position+challenge.RewardTiles <= board.LastTile {
			p.Position += challenge.RewardTiles
		}
	} else {
		p.Position = clampTile(p.Position - challenge.PenaltyTiles)
	}
	g.pendingChallenge = nil
	g.phase = PhaseTurnEnding
	return c, true
}

// BeginTurnEnd marks the settle window before NextTurn for arrivals that
// produced no event (and for overshoot turns that never moved).
//
// Postcondition: Returns true iff the match is playing and no event is
// pending.
func (g *Game) BeginTurnEnd() bool {
	if g.status != StatusPlaying || g.HasPendingEvent() {
		return false
	}
	g.phase = PhaseTurnEnding
	return true
}

// NextTurn ends the active player's turn. If the active player stands on the
// last tile the match finishes with them as winner and the cursor does not
// advance; otherwise the cursor moves to the next seat and transient
// per-turn fields are cleared.
//
// Postcondition: Returns true on success; false when the match is not
// playing or an event still blocks the advance.
func (g *Game) NextTurn() bool {
	if g.status != StatusPlaying || g.HasPendingEvent() {
		return false
	}
	g.diceValue = 0
	g.turnProcessing = false
	g.phase = PhaseIdle

	if g.players[g.turn].Position == board.LastTile {
		g.winner = g.turn
		g.status = StatusFinished
		return true
	}
	g.turn = (g.turn + 1) % len(g.players)
	return true
}

// ResetGame returns to the setup stage, discarding players and history.
//
// Postcondition: Status() == StatusSetup; PlayerCount() == 0.
func (g *Game) ResetGame() {
	*g = *NewGame()
}

// Camera returns the current advisory view hints.
func (g *Game) Camera() Camera { return g.camera }

// RequestCameraReset asks the renderer to return to the default view.
func (g *Game) RequestCameraReset() {
	g.camera.ResetRequested = true
}

// AcknowledgeCameraReset is called by the renderer once the view is back at
// default.
func (g *Game) AcknowledgeCameraReset() {
	g.camera.ResetRequested = false
	g.camera.AtDefault = true
}

// SetCameraAtDefault records whether the view is at default zoom/pan.
func (g *Game) SetCameraAtDefault(atDefault bool) {
	g.camera.AtDefault = atDefault
}

// SetCameraFollow toggles active-token tracking.
func (g *Game) SetCameraFollow(follow bool) {
	g.camera.FollowActive = follow
}

func clampTile(t int) int {
	if t < board.FirstTile {
		return board.FirstTile
	}
	if t > board.LastTile {
		return board.LastTile
	}
	return t
}
