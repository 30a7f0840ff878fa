package container

import (
	"context"
	"fmt"

	"npdstudio/adapters/memory"
	"npdstudio/adapters/postgres"
	"npdstudio/app"
	"npdstudio/internal"
	"npdstudio/internal/api"
	"npdstudio/internal/config"
	"npdstudio/internal/forecast"
	"npdstudio/internal/ingestion"
	"npdstudio/ports"

	"github.com/jmoiron/sqlx"
)

// sampleSeed keeps offline forecasts stable across restarts
const sampleSeed = 2025

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	WorkspaceRepo ports.WorkspaceRepository

	// Services
	Predictor forecast.Predictor
	Parser    *ingestion.Parser
	SSEHub    *api.SSEHub
	Studio    *app.StudioService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	return c, nil
}

// InitWithDatabase stores workspaces in PostgreSQL
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.WorkspaceRepo = postgres.NewWorkspaceRepository(db)
	return c.initServices()
}

// InitInMemory keeps workspaces in process memory
func (c *Container) InitInMemory() error {
	c.WorkspaceRepo = memory.NewWorkspaceRepository()
	return c.initServices()
}

func (c *Container) initServices() error {
	predictor, err := c.newPredictor()
	if err != nil {
		return fmt.Errorf("failed to initialize prediction client: %w", err)
	}
	c.Predictor = predictor

	c.Parser = ingestion.NewParser(c.Config.Ingest.BatchSize)
	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Studio = app.NewStudioService(c.WorkspaceRepo, c.Predictor, c.Parser, c.SSEHub, c.Logger)

	c.Logger.Info("Container initialized (database: %t, sample forecasts: %t)", c.DB != nil, c.Config.Prediction.UseSample())
	return nil
}

func (c *Container) newPredictor() (forecast.Predictor, error) {
	if c.Config.Prediction.UseSample() {
		return forecast.NewSampleClient(sampleSeed), nil
	}
	return forecast.NewClient(forecast.Config{
		BaseURL: c.Config.Prediction.BaseURL,
		Timeout: c.Config.Prediction.Timeout,
		Retries: c.Config.Prediction.Retries,
	}, c.Logger.With("component", "forecast"))
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
