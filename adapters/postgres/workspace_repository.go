package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"

	"github.com/jmoiron/sqlx"
)

// workspaceSnapshot is the persisted part of a workspace
type workspaceSnapshot struct {
	SelectedCountry  string                 `json:"selectedCountry"`
	SelectedCategory string                 `json:"selectedCategory"`
	Forms            []scenario.ProductForm `json:"forms"`
}

type workspaceRow struct {
	ID        string    `db:"id"`
	State     []byte    `db:"state"`
	Version   int       `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

// WorkspaceRepository stores workspaces in the workspaces table as JSONB
type WorkspaceRepository struct {
	db *sqlx.DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *sqlx.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Load retrieves a workspace by id
func (r *WorkspaceRepository) Load(ctx context.Context, id core.WorkspaceID) (scenario.State, error) {
	query := `
		SELECT id, state, version, updated_at
		FROM workspaces
		WHERE id = $1`

	var row workspaceRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scenario.State{}, fmt.Errorf("%w: %s", core.ErrWorkspaceNotFound, id)
		}
		return scenario.State{}, fmt.Errorf("failed to get workspace: %w", err)
	}

	var snapshot workspaceSnapshot
	if err := json.Unmarshal(row.State, &snapshot); err != nil {
		return scenario.State{}, fmt.Errorf("failed to unmarshal workspace state: %w", err)
	}

	return scenario.State{
		SelectedCountry:  snapshot.SelectedCountry,
		SelectedCategory: snapshot.SelectedCategory,
		Forms:            snapshot.Forms,
	}, nil
}

// Save inserts or replaces a workspace, bumping its version
func (r *WorkspaceRepository) Save(ctx context.Context, id core.WorkspaceID, state scenario.State) error {
	stateJSON, err := json.Marshal(workspaceSnapshot{
		SelectedCountry:  state.SelectedCountry,
		SelectedCategory: state.SelectedCategory,
		Forms:            state.Forms,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal workspace state: %w", err)
	}

	query := `
		INSERT INTO workspaces (id, state, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			version = workspaces.version + 1,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, id.String(), stateJSON); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

// Delete removes a workspace
func (r *WorkspaceRepository) Delete(ctx context.Context, id core.WorkspaceID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id.String()); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

// List returns every stored workspace id
func (r *WorkspaceRepository) List(ctx context.Context) ([]core.WorkspaceID, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM workspaces ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	out := make([]core.WorkspaceID, len(ids))
	for i, id := range ids {
		out[i] = core.WorkspaceID(id)
	}
	return out, nil
}
