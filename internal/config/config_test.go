package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cocl.us/new_york_dataset", cfg.Dataset.URL)
	assert.Empty(t, cfg.Dataset.FixturePath)
	assert.Equal(t, "20180605", cfg.Foursquare.Version)
	assert.Equal(t, "https://api.foursquare.com/v2", cfg.Foursquare.BaseURL)
	assert.Equal(t, 400, cfg.Foursquare.RadiusM)
	assert.Equal(t, 100, cfg.Foursquare.Limit)
	assert.InDelta(t, 5.0, cfg.Foursquare.RateRPS, 0.001)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Nominatim.BaseURL)
	assert.Equal(t, "New York", cfg.Nominatim.CenterLabel)
	assert.Equal(t, "Mediterranean Restaurant", cfg.Pipeline.TargetCategory)
	assert.Equal(t, "skip", cfg.Pipeline.SearchPolicy)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.InDelta(t, 8.5, cfg.Pipeline.MinAvgRating, 0.001)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMS)
	assert.Equal(t, "candidates.csv", cfg.Snapshot.CandidatesPath)
	assert.Equal(t, "enriched.csv", cfg.Snapshot.EnrichedPath)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
pipeline:
  target_category: Pizza Place
  search_policy: abort
  concurrency: 4
foursquare:
  radius_m: 750
store:
  driver: postgres
  database_url: postgres://localhost/venuescout
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Pizza Place", cfg.Pipeline.TargetCategory)
	assert.Equal(t, "abort", cfg.Pipeline.SearchPolicy)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 750, cfg.Foursquare.RadiusM)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/venuescout", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, 100, cfg.Foursquare.Limit)
	assert.Equal(t, "https://cocl.us/new_york_dataset", cfg.Dataset.URL)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("VENUESCOUT_FOURSQUARE_CLIENT_ID", "env-id")
	t.Setenv("VENUESCOUT_FOURSQUARE_CLIENT_SECRET", "env-secret")
	t.Setenv("VENUESCOUT_PIPELINE_TARGET_CATEGORY", "Falafel Restaurant")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Foursquare.ClientID)
	assert.Equal(t, "env-secret", cfg.Foursquare.ClientSecret)
	assert.Equal(t, "Falafel Restaurant", cfg.Pipeline.TargetCategory)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}
