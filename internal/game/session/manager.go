// Package session tracks live matches so a host application can run several
// games side by side (hot-seat tables, replays, simulations).
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wormhole-warp/engine/internal/game/state"
	"github.com/wormhole-warp/engine/internal/game/turn"
)

// Match couples one game with its controller.
type Match struct {
	// ID is the stable match identifier, used as the save-game key.
	ID uuid.UUID
	// Game is the authoritative state object.
	Game *state.Game
	// Controller serializes all mutation of Game.
	Controller *turn.Controller
}

// Manager tracks all live matches. All methods are safe for concurrent use;
// each match itself remains single-writer through its controller.
type Manager struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
}

// NewManager creates an empty match Manager.
func NewManager() *Manager {
	return &Manager{matches: make(map[uuid.UUID]*Match)}
}

// Add registers a match under a fresh UUID.
//
// Precondition: g and c must be non-nil.
// Postcondition: Returns the registered Match with a unique ID.
func (m *Manager) Add(g *state.Game, c *turn.Controller) *Match {
	match := &Match{ID: uuid.New(), Game: g, Controller: c}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = match
	return match
}

// Restore registers a match under an existing ID (loaded from storage).
//
// Precondition: id must be non-nil; g and c must be non-nil.
// Postcondition: Returns an error if the ID is already registered.
func (m *Manager) Restore(id uuid.UUID, g *state.Game, c *turn.Controller) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.matches[id]; exists {
		return nil, fmt.Errorf("match %s already registered", id)
	}
	match := &Match{ID: id, Game: g, Controller: c}
	m.matches[id] = match
	return match, nil
}

// Get returns the match with the given ID.
//
// Postcondition: Returns (match, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id uuid.UUID) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[id]
	return match, ok
}

// Remove unregisters a match and tears down its controller timers.
//
// Postcondition: Returns an error if the ID is not registered.
func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("match %s not found", id)
	}
	match.Controller.Close()
	delete(m.matches, id)
	return nil
}

// IDs returns the IDs of all live matches.
func (m *Manager) IDs() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.matches))
	for id := range m.matches {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live matches.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
