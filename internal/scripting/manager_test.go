package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wormhole-warp/engine/internal/scripting"
)

// writeScripts creates a script directory from name -> source pairs.
func writeScripts(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func TestManager_EmptyManagerHooksAreNoOps(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()

	m.OnLand(0, 10)
	assert.True(t, m.OnWarp(0, 10, 20), "no VM means no veto")
}

func TestManager_LoadMissingDir(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	assert.Error(t, m.Load(filepath.Join(t.TempDir(), "nope"), 0))
}

func TestManager_LoadBrokenScript(t *testing.T) {
	dir := writeScripts(t, map[string]string{"bad.lua": `this is not lua`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	assert.Error(t, m.Load(dir, 0))
}

func TestManager_OnWarpVeto(t *testing.T) {
	dir := writeScripts(t, map[string]string{"rules.lua": `
		function on_warp(player, from, to)
			if from - to > 12 then
				return false
			end
			return true
		end
	`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 0))

	assert.True(t, m.OnWarp(0, 40, 50), "forward jump allowed")
	assert.True(t, m.OnWarp(0, 40, 30), "small glitch allowed")
	assert.False(t, m.OnWarp(0, 40, 20), "deep glitch vetoed")
}

func TestManager_MissingHookAllows(t *testing.T) {
	dir := writeScripts(t, map[string]string{"empty.lua": `local x = 1`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 0))

	m.OnLand(0, 10)
	assert.True(t, m.OnWarp(0, 10, 20))
}

func TestManager_OnLandSharesStateWithOnWarp(t *testing.T) {
	dir := writeScripts(t, map[string]string{"count.lua": `
		landings = 0
		function on_land(player, tile)
			landings = landings + 1
		end
		function on_warp(player, from, to)
			-- veto everything after the third landing
			return landings < 3
		end
	`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 0))

	for i := 0; i < 2; i++ {
		m.OnLand(0, 5+i)
	}
	assert.True(t, m.OnWarp(0, 7, 15))
	m.OnLand(0, 15)
	assert.False(t, m.OnWarp(0, 15, 25))
}

func TestManager_LexicographicLoadOrder(t *testing.T) {
	// b.lua overrides the hook a.lua defined; later files win.
	dir := writeScripts(t, map[string]string{
		"a.lua": `function on_warp(p, f, t) return false end`,
		"b.lua": `function on_warp(p, f, t) return true end`,
	})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 0))
	assert.True(t, m.OnWarp(0, 10, 20))
}

func TestManager_RuntimeErrorAllowsEvent(t *testing.T) {
	dir := writeScripts(t, map[string]string{"err.lua": `
		function on_warp(player, from, to)
			error("boom")
		end
	`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 0))
	assert.True(t, m.OnWarp(0, 10, 20), "a failing hook never vetoes")
}

func TestManager_RunawayHookIsTerminated(t *testing.T) {
	dir := writeScripts(t, map[string]string{"spin.lua": `
		function on_warp(player, from, to)
			while true do end
		end
	`})
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.Load(dir, 1000))
	assert.True(t, m.OnWarp(0, 10, 20), "instruction limit turns the spin into a logged error")
}

func TestManager_ReloadReplacesVM(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()

	dirA := writeScripts(t, map[string]string{"a.lua": `function on_warp(p, f, t) return false end`})
	require.NoError(t, m.Load(dirA, 0))
	assert.False(t, m.OnWarp(0, 10, 20))

	dirB := writeScripts(t, map[string]string{"b.lua": `function on_warp(p, f, t) return true end`})
	require.NoError(t, m.Load(dirB, 0))
	assert.True(t, m.OnWarp(0, 10, 20))
}

func TestManager_CloseThenHooksNoOp(t *testing.T) {
	dir := writeScripts(t, map[string]string{"a.lua": `function on_warp(p, f, t) return false end`})
	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.Load(dir, 0))
	m.Close()
	assert.True(t, m.OnWarp(0, 10, 20))
	m.Close() // safe to call twice
}
