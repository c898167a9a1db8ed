package turn

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wormhole-warp/engine/internal/config"
	"github.com/wormhole-warp/engine/internal/game/board"
	"github.com/wormhole-warp/engine/internal/game/challenge"
	"github.com/wormhole-warp/engine/internal/game/dice"
	"github.com/wormhole-warp/engine/internal/game/state"
	"github.com/wormhole-warp/engine/internal/game/warp"
)

// RuleHooks is the optional house-rule extension point, implemented by the
// scripting layer. A nil RuleHooks disables all hooks.
type RuleHooks interface {
	// OnLand is informational: called after every completed move.
	OnLand(playerID, tile int)
	// OnWarp may veto a staged wormhole event by returning false.
	OnWarp(playerID, from, to int) bool
}

// Controller orchestrates the turn cycle for one match. All mutation of the
// underlying Game goes through the controller, which serializes presentation
// callbacks, timer firings, and user input behind one mutex.
type Controller struct {
	mu     sync.Mutex
	game   *state.Game
	roller *dice.Roller
	tuning warp.Tuning
	sched  Scheduler
	timing config.TimingConfig
	rules  config.RulesConfig
	hooks  RuleHooks
	logger *zap.Logger

	// persist, when set, receives a snapshot after every turn boundary.
	// Failures are the receiver's problem (fire-and-forget).
	persist func(state.Snapshot)

	rollCancel      func()
	settleCancel    func()
	challengeCancel func()
}

// NewController creates a Controller for the given game.
//
// Precondition: g, roller, sched, and logger must be non-nil; tuning must
// pass Validate.
func NewController(
	g *state.Game,
	roller *dice.Roller,
	tuning warp.Tuning,
	sched Scheduler,
	timing config.TimingConfig,
	rules config.RulesConfig,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		game:   g,
		roller: roller,
		tuning: tuning,
		sched:  sched,
		timing: timing,
		rules:  rules,
		logger: logger,
	}
}

// SetHooks installs the house-rule hooks. Pass nil to disable.
func (c *Controller) SetHooks(h RuleHooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// SetPersistFunc installs the snapshot sink called after each turn boundary.
// The sink should not block; persistence failures are ignored by the engine.
func (c *Controller) SetPersistFunc(fn func(state.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persist = fn
}

// Game returns the underlying state object for read access.
func (c *Controller) Game() *state.Game { return c.game }

// Roll starts the active player's turn. Rapid repeated calls while a cycle
// is in flight are dropped by the turn-processing latch.
//
// Postcondition: Returns true iff a new cycle started; the dice resolve
// after the configured roll delay.
func (c *Controller) Roll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.game.BeginTurnProcessing() {
		c.logger.Debug("roll dropped",
			zap.Stringer("phase", c.game.Phase()),
			zap.Bool("turn_processing", c.game.TurnProcessing()),
		)
		return false
	}

	c.logger.Info("turn started",
		zap.Int("player", c.game.TurnIndex()),
	)
	c.rollCancel = c.sched.After(c.timing.RollDelay, c.resolveRoll)
	return true
}

// resolveRoll fires when the dice animation window closes.
func (c *Controller) resolveRoll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.game.Phase() != state.PhaseRolling {
		return
	}

	value := c.roller.RollDie()
	c.game.SetDice(value)
	active := c.game.TurnIndex()

	switch c.game.MovePlayer(active, value) {
	case state.MoveApplied:
		p, _ := c.game.Player(active)
		c.logger.Info("player moving",
			zap.Int("player", active),
			zap.Int("roll", value),
			zap.Int("target", p.Position),
		)
		// The presentation layer animates the move and reports back via
		// OnMoveComplete.
	case state.MoveOvershoot:
		p, _ := c.game.Player(active)
		c.logger.Info("overshoot, turn forfeited",
			zap.Int("player", active),
			zap.Int("roll", value),
			zap.Int("position", p.Position),
		)
		c.scheduleTurnEnd(c.timing.MoveSettle)
	case state.MoveRejected:
		c.logger.Warn("move rejected mid-cycle",
			zap.Int("player", active),
			zap.Int("roll", value),
		)
		c.scheduleTurnEnd(c.timing.MoveSettle)
	}
}

// OnMoveComplete is the movement-completion signal from the presentation
// layer. It may arrive redundantly; the handler re-reads authoritative state
// and acts only when the player is still marked moving, so duplicate signals
// cause exactly one turn advance.
//
// Postcondition: Returns true iff the signal was accepted.
func (c *Controller) OnMoveComplete(playerID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.game.Player(playerID)
	if !ok || !p.IsMoving {
		c.logger.Debug("stale move-complete signal ignored",
			zap.Int("player", playerID),
		)
		return false
	}
	c.game.SetMoving(playerID, false)

	if c.hooks != nil {
		c.hooks.OnLand(playerID, p.Position)
	}

	// The final tile is a win; nothing may intercept it.
	if p.Position == board.LastTile {
		c.scheduleTurnEnd(c.timing.MoveSettle)
		return true
	}

	if c.stageCollision(playerID, p.Position) {
		return true
	}
	if c.stageWarp(playerID) {
		return true
	}
	if c.stageChallenge(playerID, p.Position) {
		return true
	}

	c.scheduleTurnEnd(c.timing.MoveSettle)
	return true
}

// stageCollision checks for another token on the arrival tile and stages the
// bounce-back. The start tile is shared ground and never collides. A
// collision consumes the whole arrival: the wormhole check is skipped.
func (c *Controller) stageCollision(playerID, tile int) bool {
	if tile == board.FirstTile {
		return false
	}
	for _, other := range c.game.Players() {
		if other.ID == playerID || other.Position != tile {
			continue
		}
		bounce := c.roller.RollDie()
		dest := tile - bounce
		if dest < board.FirstTile {
			dest = board.FirstTile
		}
		staged := c.game.SetPendingCollision(state.PendingCollision{
			WinnerID:  playerID,
			LoserID:   other.ID,
			Tile:      tile,
			LoserDest: dest,
		})
		if staged {
			c.logger.Info("collision staged",
				zap.Int("winner", playerID),
				zap.Int("loser", other.ID),
				zap.Int("tile", tile),
				zap.Int("loser_dest", dest),
			)
		}
		return staged
	}
	return false
}

// stageWarp runs the wormhole check and stages a surviving event.
func (c *Controller) stageWarp(playerID int) bool {
	ev := warp.GenerateEvent(c.tuning, playerID, c.game.Positions(), c.game.History(), c.roller.Source())
	if ev == nil {
		return false
	}
	if c.hooks != nil && !c.hooks.OnWarp(ev.PlayerID, ev.From, ev.To) {
		c.logger.Info("wormhole vetoed by house rules",
			zap.Int("player", ev.PlayerID),
			zap.Int("from", ev.From),
			zap.Int("to", ev.To),
		)
		return false
	}
	if !c.game.SetPendingWarp(*ev) {
		return false
	}
	c.game.SetCameraFollow(true)
	c.logger.Info("wormhole staged",
		zap.Int("player", ev.PlayerID),
		zap.Stringer("kind", ev.Kind),
		zap.Int("from", ev.From),
		zap.Int("to", ev.To),
	)
	return true
}

// stageChallenge rolls the math-challenge chance and stages a problem with
// its countdown.
func (c *Controller) stageChallenge(playerID, tile int) bool {
	if c.rules.ChallengeChance <= 0 {
		return false
	}
	if c.roller.Source().Float64() >= c.rules.ChallengeChance {
		return false
	}
	problem := challenge.Generate(c.roller.Source(), tile)
	staged := c.game.SetPendingChallenge(state.PendingChallenge{
		PlayerID:       playerID,
		Prompt:         problem.Prompt,
		Answer:         problem.Answer,
		TicksRemaining: c.rules.ChallengeTicks,
	})
	if !staged {
		return false
	}
	c.logger.Info("math challenge staged",
		zap.Int("player", playerID),
		zap.String("prompt", problem.Prompt),
		zap.Int("ticks", c.rules.ChallengeTicks),
	)
	c.challengeCancel = c.sched.After(c.timing.ChallengeTick, c.tickChallenge)
	return true
}

// tickChallenge drives the countdown; at zero the challenge resolves as a
// timeout.
func (c *Controller) tickChallenge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining, ok := c.game.TickChallenge()
	if !ok {
		return
	}
	if remaining > 0 {
		c.challengeCancel = c.sched.After(c.timing.ChallengeTick, c.tickChallenge)
		return
	}
	pc, _ := c.game.ResolveChallenge(false)
	c.logger.Info("math challenge timed out",
		zap.Int("player", pc.PlayerID),
	)
	c.scheduleTurnEnd(c.timing.MoveSettle)
}

// AnswerChallenge is the dialog-confirm signal for a pending math challenge.
//
// Postcondition: Returns (correct, true) when a challenge was pending and
// has now been resolved; (false, false) otherwise.
func (c *Controller) AnswerChallenge(answer int) (correct, resolved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.game.PendingChallengeEvent()
	if !ok {
		return false, false
	}
	if c.challengeCancel != nil {
		c.challengeCancel()
		c.challengeCancel = nil
	}
	correct = answer == pc.Answer
	c.game.ResolveChallenge(correct)
	c.logger.Info("math challenge answered",
		zap.Int("player", pc.PlayerID),
		zap.Bool("correct", correct),
	)
	c.scheduleTurnEnd(c.timing.MoveSettle)
	return correct, true
}

// ConfirmWarp is the dialog-confirm signal for a pending wormhole event.
//
// Postcondition: Returns true iff a wormhole was pending; the teleport is
// applied and the turn ends after the teleport settle delay.
func (c *Controller) ConfirmWarp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev, ok := c.game.ExecuteTeleport()
	if !ok {
		return false
	}
	c.game.RequestCameraReset()
	c.logger.Info("teleport executed",
		zap.Int("player", ev.PlayerID),
		zap.Stringer("kind", ev.Kind),
		zap.Int("from", ev.From),
		zap.Int("to", ev.To),
	)
	c.scheduleTurnEnd(c.timing.TeleportSettle)
	return true
}

// ConfirmCollision is the dialog-confirm signal for a pending collision.
//
// Postcondition: Returns true iff a collision was pending; the loser is
// bounced and the turn ends after the move settle delay.
func (c *Controller) ConfirmCollision() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.game.ResolveCollision()
	if !ok {
		return false
	}
	c.logger.Info("collision resolved",
		zap.Int("winner", pc.WinnerID),
		zap.Int("loser", pc.LoserID),
		zap.Int("loser_dest", pc.LoserDest),
	)
	c.scheduleTurnEnd(c.timing.MoveSettle)
	return true
}

// scheduleTurnEnd marks the settle window and defers endTurn.
// Caller must hold c.mu.
func (c *Controller) scheduleTurnEnd(settle time.Duration) {
	c.game.BeginTurnEnd()
	c.settleCancel = c.sched.After(settle, c.endTurn)
}

// endTurn closes the cycle: win check, cursor advance, snapshot persistence.
func (c *Controller) endTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.game.SetCameraFollow(false)
	if !c.game.NextTurn() {
		return
	}
	if winner, ok := c.game.Winner(); ok {
		c.logger.Info("game finished",
			zap.Int("winner", winner),
		)
	} else {
		c.logger.Debug("turn advanced",
			zap.Int("player", c.game.TurnIndex()),
		)
	}
	if c.persist != nil {
		c.persist(c.game.Snapshot())
	}
}

// Close cancels any outstanding timers. Used on component teardown; pending
// turn cycles are abandoned.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cancel := range []func(){c.rollCancel, c.settleCancel, c.challengeCancel} {
		if cancel != nil {
			cancel()
		}
	}
}
