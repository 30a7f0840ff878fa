package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"npdstudio/adapters/postgres"
	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal/migration"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [workspace_export_dir]")
	}

	databaseURL := os.Args[1]

	// Connect to database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema is at version %s", runner.Version())

	if len(os.Args) < 3 {
		return
	}

	exportDir := os.Args[2]
	files, err := findWorkspaceFiles(exportDir)
	if err != nil {
		log.Fatalf("Failed to find workspace files: %v", err)
	}
	log.Printf("Found %d workspace files to import", len(files))

	repo := postgres.NewWorkspaceRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		state, err := loadWorkspaceFromFile(file)
		if err != nil {
			log.Printf("Failed to load workspace from %s: %v", file, err)
			skipped++
			continue
		}

		id := workspaceIDForFile(file)
		if err := repo.Save(ctx, id, state); err != nil {
			log.Printf("Failed to save workspace %s: %v", id, err)
			skipped++
			continue
		}

		log.Printf("Imported workspace %s (%d forms) from %s", id, len(state.Forms), filepath.Base(file))
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findWorkspaceFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// workspaceIDForFile uses the file name as workspace id. Names that are not usable ids
// get a deterministic UUID based on the path.
func workspaceIDForFile(path string) core.WorkspaceID {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if id, err := core.ParseWorkspaceID(name); err == nil && !strings.ContainsAny(name, " /") {
		return id
	}
	return core.WorkspaceID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String())
}

// loadWorkspaceFromFile reads a state exported from GET /api/workspace
func loadWorkspaceFromFile(path string) (scenario.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.State{}, err
	}

	var state scenario.State
	if err := json.Unmarshal(data, &state); err != nil {
		return scenario.State{}, err
	}
	if len(state.Forms) > scenario.MaxForms {
		return scenario.State{}, core.ErrFormLimit
	}

	return state, nil
}
