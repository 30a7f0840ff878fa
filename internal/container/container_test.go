package container

import (
	"context"
	"testing"
	"time"

	"npdstudio/internal/config"
	"npdstudio/internal/forecast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Prediction: config.PredictionConfig{BaseURL: url, Timeout: time.Second, Retries: 1},
		Ingest:     config.IngestConfig{BatchSize: 10, MaxUploadBytes: 1 << 20},
		LogLevel:   "ERROR",
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestInitInMemoryWithSampleForecasts(t *testing.T) {
	c, err := New(testConfig("sample"), nil)
	require.NoError(t, err)
	require.NoError(t, c.InitInMemory())
	defer c.Shutdown(context.Background())

	assert.IsType(t, &forecast.SampleClient{}, c.Predictor)
	assert.Equal(t, 10, c.Parser.BatchSize())
	assert.NotNil(t, c.Studio)
	assert.NotNil(t, c.SSEHub)
}

func TestInitInMemoryWithRemoteForecasts(t *testing.T) {
	c, err := New(testConfig("http://localhost:9"), nil)
	require.NoError(t, err)
	require.NoError(t, c.InitInMemory())
	defer c.Shutdown(context.Background())

	assert.IsType(t, &forecast.Client{}, c.Predictor)
}

func TestInitWithDatabaseRequiresConnection(t *testing.T) {
	c, err := New(testConfig("sample"), nil)
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(nil))
}
