// Package store persists pipeline runs and their enriched venue tables.
package store

import (
	"context"

	"github.com/metro-research/venuescout/internal/model"
)

// Store is the persistence interface for the venue pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, report []byte) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)

	// Enriched venue rows, scoped to a run. Position preserves pipeline
	// output order.
	SaveEnriched(ctx context.Context, runID string, rows []model.EnrichedVenue) error
	ListEnriched(ctx context.Context, runID string) ([]model.EnrichedVenue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
