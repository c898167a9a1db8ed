package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one sandboxed LState holding the loaded house-rule scripts
// and dispatches hook calls into it. It satisfies the turn controller's
// RuleHooks interface.
//
// The LState is single-threaded; the mutex serializes hook calls.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewManager creates a Manager with no scripts loaded. Hook calls on an
// empty manager are no-ops.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Load creates a sandboxed VM and executes every *.lua file in scriptDir in
// lexicographic order. A second Load replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: The VM is registered; returns an error on Lua load failure.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Info("house rules loaded",
		zap.String("dir", scriptDir),
		zap.Int("scripts", len(luaFiles)),
	)
	return nil
}

// Close tears down the VM. Safe to call on an empty manager.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
		m.state = nil
	}
}

// callHook calls the named Lua global function. Returns (LNil, false) if no
// VM or hook exists. Lua runtime errors are logged at Warn level and never
// propagated.
func (m *Manager) callHook(hook string, args ...lua.LValue) (lua.LValue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return lua.LNil, false
	}
	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, false
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, false
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return ret, true
}

// OnLand dispatches the on_land(player, tile) hook. Informational only.
func (m *Manager) OnLand(playerID, tile int) {
	m.callHook("on_land", lua.LNumber(playerID), lua.LNumber(tile))
}

// OnWarp dispatches the on_warp(player, from, to) hook. A hook returning
// false vetoes the wormhole event; any other result (including a missing
// hook or a runtime error) allows it.
//
// Postcondition: Returns false iff the hook explicitly returned false.
func (m *Manager) OnWarp(playerID, from, to int) bool {
	ret, ok := m.callHook("on_warp", lua.LNumber(playerID), lua.LNumber(from), lua.LNumber(to))
	if !ok {
		return true
	}
	return ret != lua.LFalse
}
