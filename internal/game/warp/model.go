package warp

import (
	"sort"

	"github.com/wormhole-warp/engine/internal/game/dice"
)

// boardLength normalizes tile distances into [0,1] signals.
const boardLength = 100.0

// Kind labels a wormhole event by its observed effect.
type Kind int

const (
	// KindBoost is a standard forward jump.
	KindBoost Kind = iota
	// KindGlitch is a standard backward jump.
	KindGlitch
	// KindSlingshot teleports a trailing player just behind the leader.
	KindSlingshot
	// KindGravityWell pulls the leader back toward the pack median.
	KindGravityWell
)

// String returns a human-readable event kind label.
func (k Kind) String() string {
	switch k {
	case KindBoost:
		return "boost"
	case KindGlitch:
		return "glitch"
	case KindSlingshot:
		return "slingshot"
	case KindGravityWell:
		return "gravity well"
	default:
		return "unknown"
	}
}

// Record is one entry of the append-only wormhole history.
type Record struct {
	PlayerID int
	From     int
	To       int
	Delta    int
}

// Event is a staged wormhole outcome awaiting confirmation.
//
// Invariant: To is in [DestMin, DestMax] and To != From; Kind matches the
// sign of Delta for boost/glitch events.
type Event struct {
	PlayerID int
	From     int
	To       int
	Delta    int
	Kind     Kind
}

// Forward reports whether the event moves the player toward the finish.
func (e Event) Forward() bool { return e.Delta > 0 }

// Params is the full set of derived probabilities and magnitude ranges for
// one player's landing.
type Params struct {
	TriggerChance     float64
	ForwardBias       float64
	ForwardMin        int
	ForwardMax        int
	BackwardMin       int
	BackwardMax       int
	DrasticChance     float64
	SlingshotEligible bool
	GravityEligible   bool
}

// LeadGap returns the player's normalized distance from the field average:
// positive when ahead of the pack, negative when behind.
//
// Precondition: playerIdx indexes positions; positions is non-empty.
// Postcondition: Returns a value in (-1, 1).
func LeadGap(playerIdx int, positions []int) float64 {
	sum := 0
	for _, p := range positions {
		sum += p
	}
	mean := float64(sum) / float64(len(positions))
	return (float64(positions[playerIdx]) - mean) / boardLength
}

// PackSpread returns the normalized distance between the furthest-ahead and
// furthest-behind players.
//
// Precondition: positions is non-empty.
// Postcondition: Returns a value in [0, 1).
func PackSpread(positions []int) float64 {
	min, max := positions[0], positions[0]
	for _, p := range positions[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return float64(max-min) / boardLength
}

// Momentum returns the sign-sum of the player's last window event deltas,
// normalized to [-1, 1]. A player who has been warping forward recently has
// positive momentum and gets nudged back toward neutral.
//
// Precondition: window >= 1.
func Momentum(playerID int, history []Record, window int) float64 {
	signs := 0
	seen := 0
	for i := len(history) - 1; i >= 0 && seen < window; i-- {
		if history[i].PlayerID != playerID {
			continue
		}
		seen++
		switch {
		case history[i].Delta > 0:
			signs++
		case history[i].Delta < 0:
			signs--
		}
	}
	if seen == 0 {
		return 0
	}
	return float64(signs) / float64(window)
}

// packMedian returns the median of positions (lower middle for even counts).
func packMedian(positions []int) int {
	sorted := make([]int, len(positions))
	copy(sorted, positions)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}

// leaderPosition returns the furthest-ahead position.
func leaderPosition(positions []int) int {
	max := positions[0]
	for _, p := range positions[1:] {
		if p > max {
			max = p
		}
	}
	return max
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComputeParams derives the full parameter set for one player's landing.
// It is a pure function: no randomness, no side effects.
//
// Precondition: t must pass Validate; playerIdx indexes positions;
// positions values are in [1,100].
// Postcondition: TriggerChance in [MinTriggerChance, MaxTriggerChance];
// ForwardBias in [MinForwardBias, MaxForwardBias]; range maxima >= minima.
func ComputeParams(t Tuning, playerIdx int, positions []int, history []Record) Params {
	pos := positions[playerIdx]
	gap := LeadGap(playerIdx, positions)
	spread := PackSpread(positions)
	mom := Momentum(playerIdx, history, t.MomentumWindow)

	leader := gap >= t.RoleGapThreshold
	trailer := gap <= -t.RoleGapThreshold

	// Role weight ramps from 0 at the pack average to 1 at 2.5x the role
	// threshold, so mid-pack players see little correction.
	roleWeight := clampFloat(abs(gap)/(2.5*t.RoleGapThreshold), 0, 1)

	trigger := t.BaseTriggerChance + t.SpreadTriggerWeight*spread*roleWeight
	if pos > t.MidPhaseTile {
		trigger += t.MidPhaseBonus
	}
	if pos > t.LatePhaseTile {
		trigger += t.LatePhaseBonus
	}
	trigger = clampFloat(trigger, t.MinTriggerChance, t.MaxTriggerChance)

	bias := t.BaseForwardBias - t.LeadGapBiasWeight*gap - t.MomentumBiasWeight*mom
	if trailer {
		bias += t.TrailerSpreadBiasWeight * spread
	}
	bias = clampFloat(bias, t.MinForwardBias, t.MaxForwardBias)

	fMin, fMax := t.ForwardMin, t.ForwardMax
	bMin, bMax := t.BackwardMin, t.BackwardMax
	widen := int(float64(t.RoleWidenMax)*spread + 0.5)
	if trailer {
		fMax += widen
	}
	if leader {
		bMax += widen
	}
	if pos > t.LatePhaseTile {
		fMax += t.LateWiden
		bMax += t.LateWiden
	}

	drastic := t.DrasticChance
	if leader {
		drastic += t.RoleDrasticBonus
	}
	if trailer {
		drastic += t.RoleDrasticBonus
	}
	if pos > t.LatePhaseTile {
		drastic += t.LateDrasticBonus
	}
	drastic = clampFloat(drastic, 0, 1)

	return Params{
		TriggerChance:     trigger,
		ForwardBias:       bias,
		ForwardMin:        fMin,
		ForwardMax:        fMax,
		BackwardMin:       bMin,
		BackwardMax:       bMax,
		DrasticChance:     drastic,
		SlingshotEligible: trailer && spread >= t.SlingshotMinSpread,
		GravityEligible:   leader && spread >= t.GravityWellMinSpread,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// intIn draws a uniform int in [lo, hi].
//
// Precondition: hi >= lo.
func intIn(src dice.Source, lo, hi int) int {
	return lo + src.Intn(hi-lo+1)
}

// GenerateEvent runs the full wormhole check for one landing. Returns nil
// when no event fires: safe-zone position, failed trigger roll, or a
// destination that clamps back onto the current tile.
//
// Deterministic given the sequence of draws taken from src.
//
// Precondition: t must pass Validate; playerIdx indexes positions; src must
// be non-nil.
// Postcondition: A non-nil Event has To in [DestMin, DestMax], To != From,
// and a Kind consistent with the movement direction.
func GenerateEvent(t Tuning, playerIdx int, positions []int, history []Record, src dice.Source) *Event {
	pos := positions[playerIdx]

	// Near start and finish the race is insulated from randomness.
	if pos <= t.SafeZoneLow || pos >= t.SafeZoneHigh {
		return nil
	}

	p := ComputeParams(t, playerIdx, positions, history)
	if src.Float64() >= p.TriggerChance {
		return nil
	}

	kind := KindBoost
	var dest int
	switch {
	case p.SlingshotEligible && src.Float64() < t.SlingshotChance:
		kind = KindSlingshot
		dest = leaderPosition(positions) - intIn(src, t.SlingshotGapMin, t.SlingshotGapMax)
	case p.GravityEligible && src.Float64() < t.GravityWellChance:
		kind = KindGravityWell
		mid := (pos + packMedian(positions)) / 2
		dest = mid + intIn(src, -t.GravityWellJitter, t.GravityWellJitter)
	default:
		forward := src.Float64() < p.ForwardBias
		fMax, bMax := p.ForwardMax, p.BackwardMax
		if src.Float64() < p.DrasticChance {
			fMax += t.DrasticWiden
			bMax += t.DrasticWiden
		}
		if forward {
			dest = pos + intIn(src, p.ForwardMin, fMax)
		} else {
			dest = pos - intIn(src, p.BackwardMin, bMax)
		}
	}

	dest = clampInt(dest, t.DestMin, t.DestMax)
	if dest == pos {
		return nil
	}

	// Clamping can flip the realized direction; relabel standard events so
	// the kind always matches the observed movement.
	if kind == KindBoost || kind == KindGlitch {
		if dest > pos {
			kind = KindBoost
		} else {
			kind = KindGlitch
		}
	}

	return &Event{
		PlayerID: playerIdx,
		From:     pos,
		To:       dest,
		Delta:    dest - pos,
		Kind:     kind,
	}
}
