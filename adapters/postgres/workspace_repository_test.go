package postgres

import (
	"context"
	"os"
	"testing"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal/migration"
	"npdstudio/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

// openTestDB connects to TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func TestWorkspaceRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewWorkspaceRepository(db)
	ctx := context.Background()
	id := core.WorkspaceID(core.NewID())
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	form := scenario.NewForm("united-kingdom", "cheese")
	form.BaseCode = "CH1"
	require.NoError(t, repo.Save(ctx, id, scenario.State{SelectedCountry: "united-kingdom", Forms: []scenario.ProductForm{form}}))
	require.NoError(t, repo.Save(ctx, id, scenario.State{SelectedCountry: "united-kingdom", SelectedCategory: "cheese", Forms: []scenario.ProductForm{form}}))

	loaded, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cheese", loaded.SelectedCategory)
	require.Len(t, loaded.Forms, 1)
	assert.Equal(t, "CH1", loaded.Forms[0].BaseCode)

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Load(ctx, id)
	assert.True(t, core.IsNotFoundError(err))
}
