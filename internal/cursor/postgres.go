package cursor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/partner-reports/internal/model"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	loadSQL = `SELECT state FROM progress_cursors WHERE cursor_key = $1`

	saveSQL = `
		INSERT INTO progress_cursors (cursor_key, app_id, partner_id, state, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (cursor_key) DO UPDATE
		SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`
)

// PostgresStore keeps cursors in the progress_cursors table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, appID, partnerID string) (model.CursorState, bool, error) {
	var data []byte
	err := s.db.QueryRow(ctx, loadSQL, model.CursorKey(appID, partnerID)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cursor: %w", err)
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, appID, partnerID string, state model.CursorState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, saveSQL, model.CursorKey(appID, partnerID), model.Lower(appID), partnerID, data); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
