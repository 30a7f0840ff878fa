package config

import (
	"testing"
	"time"

	"npdstudio/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "GIN_MODE", "PREDICTION_API_URL", "PREDICTION_API_TIMEOUT", "PREDICTION_API_RETRIES", "INGEST_BATCH_SIZE", "UPLOAD_MAX_BYTES", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultPredictionURL, cfg.Prediction.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Prediction.Timeout)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Prediction.UseSample())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PREDICTION_API_URL", "sample")
	t.Setenv("PREDICTION_API_TIMEOUT", "5s")
	t.Setenv("INGEST_BATCH_SIZE", "250")
	t.Setenv("DATABASE_URL", "postgres://localhost/npd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Prediction.UseSample())
	assert.Equal(t, 5*time.Second, cfg.Prediction.Timeout)
	assert.Equal(t, 250, cfg.Ingest.BatchSize)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadRejectsInvalidBatchSize(t *testing.T) {
	t.Setenv("INGEST_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
