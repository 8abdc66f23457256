package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"blogfeed/internal/domain"
)

type BuildStateStore struct {
	db *sqlx.DB
}

func NewBuildStateStore(db *sqlx.DB) *BuildStateStore {
	return &BuildStateStore{db: db}
}

// Get returns the zero state for a source that never compiled.
func (s *BuildStateStore) Get(ctx context.Context, sourceID string) (*domain.BuildState, error) {
	var state domain.BuildState
	query := `
		SELECT id, source_id, last_compiled_at, total_compiled
		FROM build_state
		WHERE source_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.BuildState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *BuildStateStore) Update(ctx context.Context, state *domain.BuildState) error {
	query := `
		INSERT INTO build_state (source_id, last_compiled_at, total_compiled)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id) DO UPDATE SET
			last_compiled_at = EXCLUDED.last_compiled_at,
			total_compiled = EXCLUDED.total_compiled`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastCompiledAt,
		state.TotalCompiled,
	)
	return err
}
