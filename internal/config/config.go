// Package config loads the venuescout configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset" mapstructure:"dataset"`
	Foursquare FoursquareConfig `yaml:"foursquare" mapstructure:"foursquare"`
	Nominatim  NominatimConfig  `yaml:"nominatim" mapstructure:"nominatim"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Snapshot   SnapshotConfig   `yaml:"snapshot" mapstructure:"snapshot"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates the neighborhood dataset.
type DatasetConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
	// FixturePath, when set, replaces the HTTP dataset with a local YAML
	// fixture (offline mode).
	FixturePath string `yaml:"fixture_path" mapstructure:"fixture_path"`
}

// FoursquareConfig holds venue directory credentials and search tuning.
type FoursquareConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	Version      string  `yaml:"version" mapstructure:"version"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RadiusM      int     `yaml:"radius_m" mapstructure:"radius_m"`
	Limit        int     `yaml:"limit" mapstructure:"limit"`
	RateRPS      float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// NominatimConfig configures the map-center geocoder.
type NominatimConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// CenterLabel is the fixed label geocoded for the map center.
	CenterLabel string `yaml:"center_label" mapstructure:"center_label"`
}

// PipelineConfig configures the filter and enrichment stages.
type PipelineConfig struct {
	TargetCategory string  `yaml:"target_category" mapstructure:"target_category"`
	SearchPolicy   string  `yaml:"search_policy" mapstructure:"search_policy"`
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	MinAvgRating   float64 `yaml:"min_avg_rating" mapstructure:"min_avg_rating"`
	TopN           int     `yaml:"top_n" mapstructure:"top_n"`
}

// RetryConfig configures the per-adapter retry policy.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// SnapshotConfig names the CSV snapshot files.
type SnapshotConfig struct {
	CandidatesPath string `yaml:"candidates_path" mapstructure:"candidates_path"`
	EnrichedPath   string `yaml:"enriched_path" mapstructure:"enriched_path"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENUESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.url", "https://cocl.us/new_york_dataset")
	v.SetDefault("dataset.fixture_path", "")
	v.SetDefault("foursquare.client_id", "")
	v.SetDefault("foursquare.client_secret", "")
	v.SetDefault("foursquare.version", "20180605")
	v.SetDefault("foursquare.base_url", "https://api.foursquare.com/v2")
	v.SetDefault("foursquare.radius_m", 400)
	v.SetDefault("foursquare.limit", 100)
	v.SetDefault("foursquare.rate_rps", 5.0)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "venuescout/1.0")
	v.SetDefault("nominatim.center_label", "New York")
	v.SetDefault("pipeline.target_category", "Mediterranean Restaurant")
	v.SetDefault("pipeline.search_policy", "skip")
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.min_avg_rating", 8.5)
	v.SetDefault("pipeline.top_n", 10)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("snapshot.candidates_path", "candidates.csv")
	v.SetDefault("snapshot.enriched_path", "enriched.csv")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "venuescout.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
