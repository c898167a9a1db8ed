package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wormhole-warp/engine/internal/game/dice"
)

func TestRollDie_Range(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.RollDie()
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, dice.Faces)
		seen[v] = true
	}
	// A thousand d6 rolls hit every face.
	assert.Len(t, seen, dice.Faces)
}

func TestRoll_ArbitraryFaces(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(2), zap.NewNop())
	for i := 0; i < 100; i++ {
		v := r.Roll(20)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 20)
	}
}

func TestRoller_SourceAccessor(t *testing.T) {
	src := dice.NewSeededSource(3)
	r := dice.NewLoggedRoller(src, zap.NewNop())
	assert.Same(t, src, r.Source())
}
