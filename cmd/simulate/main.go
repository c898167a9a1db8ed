// Package main provides a headless batch simulator: it drives full matches
// through the engine with a deterministic seed and reports outcome
// statistics, which is also how the rubber-banding tuning gets sanity-checked.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wormhole-warp/engine/internal/config"
	"github.com/wormhole-warp/engine/internal/game/dice"
	"github.com/wormhole-warp/engine/internal/game/session"
	"github.com/wormhole-warp/engine/internal/game/state"
	"github.com/wormhole-warp/engine/internal/game/turn"
	"github.com/wormhole-warp/engine/internal/game/warp"
	"github.com/wormhole-warp/engine/internal/observability"
	"github.com/wormhole-warp/engine/internal/scripting"
	"github.com/wormhole-warp/engine/internal/storage/postgres"
)

// maxTurnsPerMatch aborts a match that fails to terminate; at d6 pacing a
// 2-player match finishes in well under a thousand turns.
const maxTurnsPerMatch = 10_000

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (empty = built-in defaults)")
	matches := flag.Int("matches", 100, "number of matches to simulate")
	players := flag.Int("players", 2, "players per match (2-4)")
	seed := flag.Uint64("seed", 1, "base PRNG seed; match i uses seed+i")
	persist := flag.Bool("persist", false, "save snapshots to the configured database")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	tuning := warp.DefaultTuning()
	if cfg.Rules.TuningFile != "" {
		tuning, err = warp.LoadTuningFromFile(cfg.Rules.TuningFile)
		if err != nil {
			logger.Fatal("loading tuning preset", zap.Error(err))
		}
	}

	var hooks turn.RuleHooks
	if cfg.Rules.ScriptDir != "" {
		mgr := scripting.NewManager(logger)
		if err := mgr.Load(cfg.Rules.ScriptDir, cfg.Rules.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading house rules", zap.Error(err))
		}
		defer mgr.Close()
		hooks = mgr
	}

	var saves *postgres.SaveRepository
	if *persist {
		pool, err := postgres.NewPool(context.Background(), cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		saves = pool.Saves()
	}

	logger.Info("simulation starting",
		zap.Int("matches", *matches),
		zap.Int("players", *players),
		zap.Uint64("seed", *seed),
	)

	registry := session.NewManager()
	wins := make([]int, *players)
	var totalTurns, totalBoosts, totalGlitches, aborted int

	for i := 0; i < *matches; i++ {
		src := dice.NewSeededSource(*seed + uint64(i))
		roller := dice.NewLoggedRoller(src, logger)
		sched := turn.NewManualScheduler()

		g := state.NewGame()
		if !g.SetupGame(*players) {
			logger.Fatal("invalid player count", zap.Int("players", *players))
		}
		g.StartPlay()

		ctrl := turn.NewController(g, roller, tuning, sched, cfg.Timing, cfg.Rules, logger)
		ctrl.SetHooks(hooks)
		match := registry.Add(g, ctrl)
		if saves != nil {
			id := match.ID
			ctrl.SetPersistFunc(func(snap state.Snapshot) {
				// Persistence is fire-and-forget; a failed write never
				// stalls the match.
				if err := saves.Upsert(context.Background(), id, snap); err != nil {
					logger.Warn("persisting snapshot",
						zap.String("match", id.String()),
						zap.Error(err),
					)
				}
			})
		}

		turns := runMatch(g, ctrl, sched, src)
		if g.Status() != state.StatusFinished {
			aborted++
		} else if winner, ok := g.Winner(); ok {
			wins[winner]++
		}
		totalTurns += turns
		for _, rec := range g.History() {
			if rec.Delta > 0 {
				totalBoosts++
			} else {
				totalGlitches++
			}
		}
		_ = registry.Remove(match.ID)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "matches=%d players=%d seed=%d [%s]\n", *matches, *players, *seed, elapsed)
	for seat, w := range wins {
		fmt.Fprintf(os.Stdout, "  seat %d: %d wins (%.1f%%)\n", seat, w, 100*float64(w)/float64(*matches))
	}
	fmt.Fprintf(os.Stdout, "  avg turns/match: %.1f\n", float64(totalTurns)/float64(*matches))
	fmt.Fprintf(os.Stdout, "  wormholes: %d boosts, %d glitches\n", totalBoosts, totalGlitches)
	if aborted > 0 {
		fmt.Fprintf(os.Stdout, "  aborted (turn cap): %d\n", aborted)
	}
}

// runMatch drives one match to completion on the manual scheduler, standing
// in for the presentation layer: it reports move completions and confirms
// event dialogs. Challenges are answered correctly 60% of the time.
func runMatch(g *state.Game, ctrl *turn.Controller, sched *turn.ManualScheduler, src dice.Source) int {
	turns := 0
	for g.Status() == state.StatusPlaying && turns < maxTurnsPerMatch {
		turns++
		if !ctrl.Roll() {
			break
		}
		sched.Drain()

		if p, ok := g.ActivePlayer(); ok && p.IsMoving {
			ctrl.OnMoveComplete(p.ID)
		}

		if _, ok := g.PendingWarp(); ok {
			ctrl.ConfirmWarp()
		} else if _, ok := g.PendingCollisionEvent(); ok {
			ctrl.ConfirmCollision()
		} else if pc, ok := g.PendingChallengeEvent(); ok {
			answer := pc.Answer
			if src.Float64() >= 0.6 {
				answer++
			}
			ctrl.AnswerChallenge(answer)
		}
		sched.Drain()
	}
	return turns
}
