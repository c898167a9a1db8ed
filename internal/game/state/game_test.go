package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/wormhole-warp/engine/internal/game/state"
	"github.com/wormhole-warp/engine/internal/game/warp"
)

// playingGame returns a two-player game in the playing stage.
func playingGame(t *testing.T) *state.Game {
	t.Helper()
	g := state.NewGame()
	require.True(t, g.SetupGame(2))
	require.True(t, g.StartPlay())
	return g
}

// placePlayer moves a token to the given tile through the public API.
func placePlayer(t *testing.T, g *state.Game, id, tile int) {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok)
	require.Equal(t, state.MoveApplied, g.MovePlayer(id, tile-p.Position))
	g.SetMoving(id, false)
}

func TestNewGame(t *testing.T) {
	g := state.NewGame()
	assert.Equal(t, state.StatusSetup, g.Status())
	assert.Equal(t, 0, g.PlayerCount())
	assert.True(t, g.Camera().AtDefault)
	_, ok := g.Winner()
	assert.False(t, ok)
}

func TestSetupGame_PlayerCountBounds(t *testing.T) {
	g := state.NewGame()
	assert.False(t, g.SetupGame(1))
	assert.False(t, g.SetupGame(5))
	assert.Equal(t, state.StatusSetup, g.Status())

	require.True(t, g.SetupGame(4))
	assert.Equal(t, state.StatusCollectingInitials, g.Status())
	assert.Equal(t, 4, g.PlayerCount())

	palette := state.Palette()
	for i, p := range g.Players() {
		assert.Equal(t, i, p.ID)
		assert.Equal(t, palette[i], p.Color)
		assert.Equal(t, 1, p.Position, "every token starts on tile 1")
	}
}

func TestSetInitials(t *testing.T) {
	g := state.NewGame()
	require.True(t, g.SetupGame(2))

	assert.True(t, g.SetInitials(0, " abcde "))
	p, _ := g.Player(0)
	assert.Equal(t, "ABC", p.Initials, "initials are uppercased and truncated to three")

	assert.False(t, g.SetInitials(2, "XYZ"), "unknown seat rejected")

	require.True(t, g.StartPlay())
	assert.False(t, g.SetInitials(0, "XYZ"), "initials locked once playing")
}

func TestStartPlay_RequiresInitialsStage(t *testing.T) {
	g := state.NewGame()
	assert.False(t, g.StartPlay())
	require.True(t, g.SetupGame(2))
	assert.True(t, g.StartPlay())
	assert.False(t, g.StartPlay(), "second StartPlay is a no-op")
}

func TestBeginTurnProcessing_Latch(t *testing.T) {
	g := playingGame(t)
	assert.True(t, g.BeginTurnProcessing())
	assert.Equal(t, state.PhaseRolling, g.Phase())
	assert.False(t, g.BeginTurnProcessing(), "latch drops reentrant calls")
}

func TestSetDice(t *testing.T) {
	g := playingGame(t)
	assert.False(t, g.SetDice(3), "no roll in progress")
	require.True(t, g.BeginTurnProcessing())
	assert.False(t, g.SetDice(0))
	assert.False(t, g.SetDice(7))
	assert.True(t, g.SetDice(4))
	assert.Equal(t, 4, g.DiceValue())
}

func TestMovePlayer_Overshoot(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 98)

	assert.Equal(t, state.MoveOvershoot, g.MovePlayer(0, 5))
	p, _ := g.Player(0)
	assert.Equal(t, 98, p.Position, "overshoot leaves the token in place")
	assert.False(t, p.IsMoving)

	assert.Equal(t, state.MoveApplied, g.MovePlayer(0, 2))
	p, _ = g.Player(0)
	assert.Equal(t, 100, p.Position, "exact landing is accepted")
}

func TestMovePlayer_Guards(t *testing.T) {
	g := playingGame(t)
	assert.Equal(t, state.MoveRejected, g.MovePlayer(0, 0))
	assert.Equal(t, state.MoveRejected, g.MovePlayer(5, 3))

	require.Equal(t, state.MoveApplied, g.MovePlayer(0, 3))
	assert.Equal(t, state.MoveRejected, g.MovePlayer(0, 2),
		"a moving token cannot start another move")
}

func TestSetMoving_Idempotent(t *testing.T) {
	g := playingGame(t)
	require.Equal(t, state.MoveApplied, g.MovePlayer(0, 3))

	assert.True(t, g.SetMoving(0, false))
	assert.False(t, g.SetMoving(0, false), "redundant completion signal is a no-op")
}

func TestPendingEvents_MutuallyExclusive(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 40)

	require.True(t, g.SetPendingWarp(warp.Event{PlayerID: 0, From: 40, To: 50, Delta: 10, Kind: warp.KindBoost}))
	assert.Equal(t, state.PhaseAwaitingConfirm, g.Phase())
	assert.True(t, g.HasPendingEvent())

	assert.False(t, g.SetPendingCollision(state.PendingCollision{WinnerID: 0, LoserID: 1, Tile: 40, LoserDest: 35}))
	assert.False(t, g.SetPendingChallenge(state.PendingChallenge{PlayerID: 0, Prompt: "1 + 1 = ?", Answer: 2, TicksRemaining: 10}))
	assert.False(t, g.SetPendingWarp(warp.Event{PlayerID: 1, From: 1, To: 10, Delta: 9}))
	assert.False(t, g.NextTurn(), "pending event blocks turn advance")
	assert.False(t, g.BeginTurnEnd())
}

func TestExecuteTeleport(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 40)
	require.True(t, g.SetPendingWarp(warp.Event{PlayerID: 0, From: 40, To: 52, Delta: 12, Kind: warp.KindBoost}))

	ev, ok := g.ExecuteTeleport()
	require.True(t, ok)
	assert.Equal(t, 52, ev.To)

	p, _ := g.Player(0)
	assert.Equal(t, 52, p.Position)
	assert.Equal(t, state.PhaseTurnEnding, g.Phase())
	assert.False(t, g.HasPendingEvent())

	history := g.History()
	require.Len(t, history, 1)
	assert.Equal(t, warp.Record{PlayerID: 0, From: 40, To: 52, Delta: 12}, history[0])

	_, ok = g.ExecuteTeleport()
	assert.False(t, ok, "teleport consumes the pending event")
}

func TestResolveCollision(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 20)
	placePlayer(t, g, 1, 20)

	require.True(t, g.SetPendingCollision(state.PendingCollision{
		WinnerID: 0, LoserID: 1, Tile: 20, LoserDest: 16,
	}))
	pc, ok := g.ResolveCollision()
	require.True(t, ok)
	assert.Equal(t, 1, pc.LoserID)

	loser, _ := g.Player(1)
	winner, _ := g.Player(0)
	assert.Equal(t, 16, loser.Position)
	assert.Equal(t, 20, winner.Position, "the incoming mover holds the tile")
	assert.Equal(t, state.PhaseTurnEnding, g.Phase())
}

func TestSetPendingCollision_Guards(t *testing.T) {
	g := playingGame(t)
	assert.False(t, g.SetPendingCollision(state.PendingCollision{WinnerID: 0, LoserID: 0}),
		"a token cannot collide with itself")
	assert.False(t, g.SetPendingCollision(state.PendingCollision{WinnerID: 0, LoserID: 7}))
}

func TestChallenge_CorrectRewardsAndForfeitsNearFinish(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 50)
	require.True(t, g.SetPendingChallenge(state.PendingChallenge{
		PlayerID: 0, Prompt: "2 + 2 = ?", Answer: 4, TicksRemaining: 5,
	}))
	_, ok := g.ResolveChallenge(true)
	require.True(t, ok)
	p, _ := g.Player(0)
	assert.Equal(t, 53, p.Position)

	// A reward that would pass the win tile is forfeited.
	placePlayer(t, g, 1, 99)
	require.True(t, g.SetPendingChallenge(state.PendingChallenge{
		PlayerID: 1, Prompt: "2 + 2 = ?", Answer: 4, TicksRemaining: 5,
	}))
	_, ok = g.ResolveChallenge(true)
	require.True(t, ok)
	p, _ = g.Player(1)
	assert.Equal(t, 99, p.Position, "reward past tile 100 is forfeited")
}

func TestChallenge_PenaltyFloorsAtFirstTile(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 2)
	require.True(t, g.SetPendingChallenge(state.PendingChallenge{
		PlayerID: 0, Prompt: "9 - 3 = ?", Answer: 6, TicksRemaining: 5,
	}))
	_, ok := g.ResolveChallenge(false)
	require.True(t, ok)
	p, _ := g.Player(0)
	assert.Equal(t, 1, p.Position, "penalty clamps at tile 1")
}

func TestTickChallenge(t *testing.T) {
	g := playingGame(t)
	_, ok := g.TickChallenge()
	assert.False(t, ok, "no challenge pending")

	require.True(t, g.SetPendingChallenge(state.PendingChallenge{
		PlayerID: 0, Prompt: "1 + 1 = ?", Answer: 2, TicksRemaining: 2,
	}))
	remaining, ok := g.TickChallenge()
	require.True(t, ok)
	assert.Equal(t, 1, remaining)
	remaining, ok = g.TickChallenge()
	require.True(t, ok)
	assert.Equal(t, 0, remaining)
	remaining, ok = g.TickChallenge()
	require.True(t, ok)
	assert.Equal(t, 0, remaining, "countdown never goes negative")
}

func TestNextTurn_AdvancesCursor(t *testing.T) {
	g := playingGame(t)
	require.True(t, g.BeginTurnProcessing())
	require.True(t, g.SetDice(3))
	require.Equal(t, state.MoveApplied, g.MovePlayer(0, 3))
	g.SetMoving(0, false)
	require.True(t, g.BeginTurnEnd())

	require.True(t, g.NextTurn())
	assert.Equal(t, 1, g.TurnIndex())
	assert.Equal(t, 0, g.DiceValue(), "dice value cleared at the boundary")
	assert.False(t, g.TurnProcessing(), "latch released at the boundary")
	assert.Equal(t, state.PhaseIdle, g.Phase())

	require.True(t, g.BeginTurnProcessing())
	require.True(t, g.BeginTurnEnd())
	require.True(t, g.NextTurn())
	assert.Equal(t, 0, g.TurnIndex(), "cursor wraps around")
}

func TestNextTurn_WinOnLastTile(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 100)
	require.True(t, g.BeginTurnEnd())
	require.True(t, g.NextTurn())

	assert.Equal(t, state.StatusFinished, g.Status())
	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, winner)
	assert.Equal(t, 0, g.TurnIndex(), "cursor does not advance past the winner")

	assert.False(t, g.NextTurn(), "finished game accepts no more turns")
	assert.False(t, g.BeginTurnProcessing())
}

func TestResetGame(t *testing.T) {
	g := playingGame(t)
	placePlayer(t, g, 0, 42)
	g.ResetGame()
	assert.Equal(t, state.StatusSetup, g.Status())
	assert.Equal(t, 0, g.PlayerCount())
	assert.Empty(t, g.History())
}

func TestCameraHints(t *testing.T) {
	g := playingGame(t)
	g.SetCameraFollow(true)
	g.SetCameraAtDefault(false)
	assert.True(t, g.Camera().FollowActive)
	assert.False(t, g.Camera().AtDefault)

	g.RequestCameraReset()
	assert.True(t, g.Camera().ResetRequested)
	g.AcknowledgeCameraReset()
	assert.False(t, g.Camera().ResetRequested)
	assert.True(t, g.Camera().AtDefault)
}

// TestProperty_PositionsAlwaysInRange drives random mutation sequences and
// verifies no operation can push a position outside [1,100].
func TestProperty_PositionsAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := state.NewGame()
		n := rapid.IntRange(2, 4).Draw(rt, "players")
		require.True(rt, g.SetupGame(n))
		require.True(rt, g.StartPlay())

		steps := rapid.IntRange(5, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.IntRange(0, n-1).Draw(rt, "id")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				g.MovePlayer(id, rapid.IntRange(1, 6).Draw(rt, "roll"))
				g.SetMoving(id, false)
			case 1:
				if g.SetPendingChallenge(state.PendingChallenge{
					PlayerID: id, Prompt: "1 + 1 = ?", Answer: 2, TicksRemaining: 3,
				}) {
					g.ResolveChallenge(rapid.Bool().Draw(rt, "correct"))
				}
			case 2:
				p, _ := g.Player(id)
				dest := rapid.IntRange(2, 98).Draw(rt, "dest")
				if dest != p.Position {
					if g.SetPendingWarp(warp.Event{
						PlayerID: id, From: p.Position, To: dest, Delta: dest - p.Position,
					}) {
						g.ExecuteTeleport()
					}
				}
			}
			for _, pos := range g.Positions() {
				require.GreaterOrEqual(rt, pos, 1)
				require.LessOrEqual(rt, pos, 100)
			}
		}
	})
}
