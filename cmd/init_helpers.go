package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/metro-research/venuescout/internal/model"
	"github.com/metro-research/venuescout/internal/neighborhoods"
	"github.com/metro-research/venuescout/internal/pipeline"
	"github.com/metro-research/venuescout/internal/resilience"
	"github.com/metro-research/venuescout/internal/store"
	"github.com/metro-research/venuescout/pkg/foursquare"
)

func initSource() neighborhoods.Source {
	if cfg.Dataset.FixturePath != "" {
		return neighborhoods.NewFixtureSource(cfg.Dataset.FixturePath)
	}
	return neighborhoods.NewHTTPSource(cfg.Dataset.URL)
}

func initVenues() (foursquare.Client, error) {
	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		return nil, eris.New("foursquare credentials are required (VENUESCOUT_FOURSQUARE_CLIENT_ID / VENUESCOUT_FOURSQUARE_CLIENT_SECRET)")
	}
	return foursquare.NewClient(
		foursquare.Credentials{
			ClientID:     cfg.Foursquare.ClientID,
			ClientSecret: cfg.Foursquare.ClientSecret,
			Version:      cfg.Foursquare.Version,
		},
		foursquare.WithBaseURL(cfg.Foursquare.BaseURL),
		foursquare.WithRateLimit(cfg.Foursquare.RateRPS),
	), nil
}

func pipelineConfig() pipeline.Config {
	return pipeline.Config{
		TargetCategory: cfg.Pipeline.TargetCategory,
		RadiusM:        cfg.Foursquare.RadiusM,
		Limit:          cfg.Foursquare.Limit,
		SearchPolicy:   pipeline.SearchPolicy(cfg.Pipeline.SearchPolicy),
		Concurrency:    cfg.Pipeline.Concurrency,
		MinAvgRating:   cfg.Pipeline.MinAvgRating,
		TopN:           cfg.Pipeline.TopN,
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		},
	}
}

// loadRun fetches a run by ID, or the most recent one when id is empty.
func loadRun(ctx context.Context, st store.Store, id string) (*model.Run, error) {
	if id != "" {
		run, err := st.GetRun(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "get run %s", id)
		}
		return run, nil
	}
	run, err := st.LatestRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "get latest run")
	}
	return run, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "venuescout.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
