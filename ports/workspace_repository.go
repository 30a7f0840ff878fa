package ports

import (
	"context"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
)

// WorkspaceRepository persists the selection and product forms of a workspace.
// Uploaded distributions are never stored.
type WorkspaceRepository interface {
	// Load returns the saved state, or an error wrapping core.ErrWorkspaceNotFound
	Load(ctx context.Context, id core.WorkspaceID) (scenario.State, error)
	Save(ctx context.Context, id core.WorkspaceID, state scenario.State) error
	Delete(ctx context.Context, id core.WorkspaceID) error
	List(ctx context.Context) ([]core.WorkspaceID, error)
}
