// Package memory keeps workspaces in process memory. It is used when no database
// is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
)

// WorkspaceRepository is an in-memory ports.WorkspaceRepository
type WorkspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[core.WorkspaceID]scenario.State
}

// NewWorkspaceRepository creates an empty repository
func NewWorkspaceRepository() *WorkspaceRepository {
	return &WorkspaceRepository{workspaces: make(map[core.WorkspaceID]scenario.State)}
}

// Load returns a copy of the saved state
func (r *WorkspaceRepository) Load(_ context.Context, id core.WorkspaceID) (scenario.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.workspaces[id]
	if !ok {
		return scenario.State{}, fmt.Errorf("%w: %s", core.ErrWorkspaceNotFound, id)
	}
	return persistable(state), nil
}

// Save stores the selection and forms of state
func (r *WorkspaceRepository) Save(_ context.Context, id core.WorkspaceID, state scenario.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspaces[id] = persistable(state)
	return nil
}

// Delete removes a workspace; deleting an unknown workspace is not an error
func (r *WorkspaceRepository) Delete(_ context.Context, id core.WorkspaceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, id)
	return nil
}

// List returns the stored workspace ids in order
func (r *WorkspaceRepository) List(_ context.Context) ([]core.WorkspaceID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]core.WorkspaceID, 0, len(r.workspaces))
	for id := range r.workspaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// persistable drops the distributions and detaches the form slice.
func persistable(state scenario.State) scenario.State {
	return scenario.State{
		SelectedCountry:  state.SelectedCountry,
		SelectedCategory: state.SelectedCategory,
		Forms:            append([]scenario.ProductForm(nil), state.Forms...),
	}
}
