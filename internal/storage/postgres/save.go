package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wormhole-warp/engine/internal/game/state"
)

// ErrSaveNotFound is returned when a save-game lookup yields no results.
var ErrSaveNotFound = errors.New("save game not found")

// SaveRepository persists one snapshot blob per match.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// Upsert writes the snapshot for matchID, replacing any previous save.
//
// Postcondition: Load(matchID) returns an equivalent snapshot, or an error
// is returned.
func (r *SaveRepository) Upsert(ctx context.Context, matchID uuid.UUID, snap state.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO save_games (match_id, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (match_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		matchID, blob,
	)
	if err != nil {
		return fmt.Errorf("upserting save game: %w", err)
	}
	return nil
}

// Load reads the snapshot for matchID.
//
// Postcondition: Returns the snapshot or ErrSaveNotFound.
func (r *SaveRepository) Load(ctx context.Context, matchID uuid.UUID) (state.Snapshot, error) {
	var blob []byte
	err := r.db.QueryRow(ctx, `
		SELECT snapshot FROM save_games WHERE match_id = $1`,
		matchID,
	).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return state.Snapshot{}, ErrSaveNotFound
		}
		return state.Snapshot{}, fmt.Errorf("querying save game: %w", err)
	}

	var snap state.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("unmarshalling snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes the save for matchID.
//
// Postcondition: Returns ErrSaveNotFound if no row was deleted.
func (r *SaveRepository) Delete(ctx context.Context, matchID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM save_games WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("deleting save game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaveNotFound
	}
	return nil
}

// SaveSummary is one row of the save listing.
type SaveSummary struct {
	MatchID   uuid.UUID
	UpdatedAt time.Time
}

// List returns all saves ordered by most recently updated.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SaveRepository) List(ctx context.Context) ([]SaveSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT match_id, updated_at FROM save_games ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing save games: %w", err)
	}
	defer rows.Close()

	out := make([]SaveSummary, 0)
	for rows.Next() {
		var s SaveSummary
		if err := rows.Scan(&s.MatchID, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
