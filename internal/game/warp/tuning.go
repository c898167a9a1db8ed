// Package warp implements the wormhole rubber-banding model: pure functions
// computing trigger probability, direction bias, jump magnitudes, and
// special-event chances from player standings and event history.
package warp

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuning holds every constant of the wormhole model. The zero value is not
// usable; start from DefaultTuning and override via YAML if needed.
type Tuning struct {
	// BaseTriggerChance is the starting probability that a landing fires a
	// wormhole, before standings adjustments.
	BaseTriggerChance float64 `yaml:"base_trigger_chance"`
	// SpreadTriggerWeight scales how strongly pack spread raises the trigger
	// chance for players far from the pack average.
	SpreadTriggerWeight float64 `yaml:"spread_trigger_weight"`
	// MidPhaseTile and MidPhaseBonus add urgency above this tile.
	MidPhaseTile  int     `yaml:"mid_phase_tile"`
	MidPhaseBonus float64 `yaml:"mid_phase_bonus"`
	// LatePhaseTile and LatePhaseBonus add further urgency near the finish.
	LatePhaseTile  int     `yaml:"late_phase_tile"`
	LatePhaseBonus float64 `yaml:"late_phase_bonus"`
	// MinTriggerChance and MaxTriggerChance clamp the trigger probability.
	MinTriggerChance float64 `yaml:"min_trigger_chance"`
	MaxTriggerChance float64 `yaml:"max_trigger_chance"`

	// BaseForwardBias is the neutral probability of a forward (boost) jump.
	BaseForwardBias float64 `yaml:"base_forward_bias"`
	// LeadGapBiasWeight pulls ahead-of-average players backward.
	LeadGapBiasWeight float64 `yaml:"lead_gap_bias_weight"`
	// MomentumBiasWeight counters hot and cold streaks.
	MomentumBiasWeight float64 `yaml:"momentum_bias_weight"`
	// TrailerSpreadBiasWeight boosts trailing players in a spread pack.
	TrailerSpreadBiasWeight float64 `yaml:"trailer_spread_bias_weight"`
	// MinForwardBias and MaxForwardBias clamp the direction bias.
	MinForwardBias float64 `yaml:"min_forward_bias"`
	MaxForwardBias float64 `yaml:"max_forward_bias"`

	// Jump magnitude ranges, in tiles.
	ForwardMin  int `yaml:"forward_min"`
	ForwardMax  int `yaml:"forward_max"`
	BackwardMin int `yaml:"backward_min"`
	BackwardMax int `yaml:"backward_max"`
	// RoleWidenMax is the maximum extra range granted to leader/trailer
	// roles, scaled by pack spread.
	RoleWidenMax int `yaml:"role_widen_max"`
	// LateWiden is the extra range added past LatePhaseTile.
	LateWiden int `yaml:"late_widen"`

	// DrasticChance is the base probability of a widened ("drastic") draw.
	DrasticChance float64 `yaml:"drastic_chance"`
	// RoleDrasticBonus is added once for the leader role and once for the
	// trailer role.
	RoleDrasticBonus float64 `yaml:"role_drastic_bonus"`
	// LateDrasticBonus is added past LatePhaseTile.
	LateDrasticBonus float64 `yaml:"late_drastic_bonus"`
	// DrasticWiden is the extra magnitude added to a drastic draw.
	DrasticWiden int `yaml:"drastic_widen"`

	// RoleGapThreshold is the |lead gap| above which a player counts as
	// leader or trailer.
	RoleGapThreshold float64 `yaml:"role_gap_threshold"`

	// SlingshotChance and SlingshotMinSpread gate the slingshot special:
	// a trailer jumps to leader position minus [SlingshotGapMin, SlingshotGapMax].
	SlingshotChance    float64 `yaml:"slingshot_chance"`
	SlingshotMinSpread float64 `yaml:"slingshot_min_spread"`
	SlingshotGapMin    int     `yaml:"slingshot_gap_min"`
	SlingshotGapMax    int     `yaml:"slingshot_gap_max"`

	// GravityWellChance and GravityWellMinSpread gate the gravity-well
	// special: the leader is pulled to the midpoint between itself and the
	// pack median, jittered by +/- GravityWellJitter.
	GravityWellChance    float64 `yaml:"gravity_well_chance"`
	GravityWellMinSpread float64 `yaml:"gravity_well_min_spread"`
	GravityWellJitter    int     `yaml:"gravity_well_jitter"`

	// SafeZoneLow and SafeZoneHigh insulate the start and finish: no event
	// fires at position <= SafeZoneLow or >= SafeZoneHigh.
	SafeZoneLow  int `yaml:"safe_zone_low"`
	SafeZoneHigh int `yaml:"safe_zone_high"`
	// DestMin and DestMax clamp every destination tile.
	DestMin int `yaml:"dest_min"`
	DestMax int `yaml:"dest_max"`

	// MomentumWindow is how many recent events feed the momentum signal.
	MomentumWindow int `yaml:"momentum_window"`
}

// DefaultTuning returns the canonical rule set (the final source variant:
// dynamic forward bias, safe zone at 1/99, destinations in [2,98]).
func DefaultTuning() Tuning {
	return Tuning{
		BaseTriggerChance:   0.28,
		SpreadTriggerWeight: 0.20,
		MidPhaseTile:        65,
		MidPhaseBonus:       0.08,
		LatePhaseTile:       85,
		LatePhaseBonus:      0.07,
		MinTriggerChance:    0.15,
		MaxTriggerChance:    0.55,

		BaseForwardBias:         0.50,
		LeadGapBiasWeight:       0.35,
		MomentumBiasWeight:      0.18,
		TrailerSpreadBiasWeight: 0.20,
		MinForwardBias:          0.20,
		MaxForwardBias:          0.82,

		ForwardMin:   4,
		ForwardMax:   14,
		BackwardMin:  3,
		BackwardMax:  10,
		RoleWidenMax: 6,
		LateWiden:    2,

		DrasticChance:    0.10,
		RoleDrasticBonus: 0.08,
		LateDrasticBonus: 0.05,
		DrasticWiden:     6,

		RoleGapThreshold: 0.08,

		SlingshotChance:    0.10,
		SlingshotMinSpread: 0.35,
		SlingshotGapMin:    3,
		SlingshotGapMax:    8,

		GravityWellChance:    0.10,
		GravityWellMinSpread: 0.30,
		GravityWellJitter:    3,

		SafeZoneLow:  1,
		SafeZoneHigh: 99,
		DestMin:      2,
		DestMax:      98,

		MomentumWindow: 4,
	}
}

// Validate checks the tuning invariants.
//
// Postcondition: Returns nil if the tuning is usable, or an error describing
// all violations.
func (t Tuning) Validate() error {
	var errs []string

	chance := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1], got %g", name, v))
		}
	}
	chance("base_trigger_chance", t.BaseTriggerChance)
	chance("min_trigger_chance", t.MinTriggerChance)
	chance("max_trigger_chance", t.MaxTriggerChance)
	chance("base_forward_bias", t.BaseForwardBias)
	chance("min_forward_bias", t.MinForwardBias)
	chance("max_forward_bias", t.MaxForwardBias)
	chance("drastic_chance", t.DrasticChance)
	chance("slingshot_chance", t.SlingshotChance)
	chance("gravity_well_chance", t.GravityWellChance)

	if t.MinTriggerChance > t.MaxTriggerChance {
		errs = append(errs, "min_trigger_chance must not exceed max_trigger_chance")
	}
	if t.MinForwardBias > t.MaxForwardBias {
		errs = append(errs, "min_forward_bias must not exceed max_forward_bias")
	}
	if t.ForwardMin < 1 || t.ForwardMax < t.ForwardMin {
		errs = append(errs, fmt.Sprintf("forward range [%d,%d] invalid", t.ForwardMin, t.ForwardMax))
	}
	if t.BackwardMin < 1 || t.BackwardMax < t.BackwardMin {
		errs = append(errs, fmt.Sprintf("backward range [%d,%d] invalid", t.BackwardMin, t.BackwardMax))
	}
	if t.SlingshotGapMin < 1 || t.SlingshotGapMax < t.SlingshotGapMin {
		errs = append(errs, fmt.Sprintf("slingshot gap [%d,%d] invalid", t.SlingshotGapMin, t.SlingshotGapMax))
	}
	if t.GravityWellJitter < 0 {
		errs = append(errs, "gravity_well_jitter must be >= 0")
	}
	if t.SafeZoneLow < 1 || t.SafeZoneHigh <= t.SafeZoneLow {
		errs = append(errs, fmt.Sprintf("safe zone [%d,%d] invalid", t.SafeZoneLow, t.SafeZoneHigh))
	}
	if t.DestMin <= t.SafeZoneLow || t.DestMax >= t.SafeZoneHigh {
		errs = append(errs, "destination clamp must lie strictly inside the safe zone bounds")
	}
	if t.DestMin > t.DestMax {
		errs = append(errs, "dest_min must not exceed dest_max")
	}
	if t.MomentumWindow < 1 {
		errs = append(errs, fmt.Sprintf("momentum_window must be >= 1, got %d", t.MomentumWindow))
	}

	if len(errs) > 0 {
		return errors.New("warp tuning invalid: " + strings.Join(errs, "; "))
	}
	return nil
}

// LoadTuningFromBytes parses a YAML tuning preset. Fields omitted in the
// document keep their DefaultTuning values.
//
// Precondition: data must be valid YAML.
// Postcondition: Returns a validated Tuning or a non-nil error.
func LoadTuningFromBytes(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parsing tuning YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// LoadTuningFromFile reads and validates a tuning preset file.
//
// Precondition: path must point at a readable YAML file.
// Postcondition: Returns a validated Tuning or a non-nil error.
func LoadTuningFromFile(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("reading tuning file %s: %w", path, err)
	}
	return LoadTuningFromBytes(data)
}
