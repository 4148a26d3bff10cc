// Package pipeline implements the venue discovery and enrichment batch:
// neighborhoods -> venue search -> category filter/join -> detail
// enrichment -> aggregation. One pass per run, no feedback loops; each
// stage owns its output slice until it hands it to the next stage.
package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metro-research/venuescout/internal/model"
	"github.com/metro-research/venuescout/internal/neighborhoods"
	"github.com/metro-research/venuescout/internal/resilience"
	"github.com/metro-research/venuescout/pkg/foursquare"
)

// SearchPolicy decides what a failed venue-search call does to the batch.
type SearchPolicy string

const (
	// SearchPolicySkip logs the neighborhood and continues. Default.
	SearchPolicySkip SearchPolicy = "skip"
	// SearchPolicyAbort fails the whole run on the first search failure.
	SearchPolicyAbort SearchPolicy = "abort"
)

// Config holds the pipeline tunables. Radius and limit apply uniformly to
// every neighborhood; there is no per-neighborhood tuning.
type Config struct {
	TargetCategory string
	RadiusM        int
	Limit          int
	SearchPolicy   SearchPolicy
	// Concurrency bounds parallel detail lookups. <=1 means sequential.
	// Output order is preserved either way.
	Concurrency int
	Retry       resilience.RetryConfig
	// MinAvgRating is the neighborhood average-rating cutoff for the map.
	MinAvgRating float64
	// TopN is how many neighborhoods the ranking table keeps.
	TopN int
}

// Pipeline wires the location source and the venue directory together.
type Pipeline struct {
	source neighborhoods.Source
	venues foursquare.Client
	cfg    Config
}

// Result is everything one run produced.
type Result struct {
	Neighborhoods []model.Neighborhood
	Candidates    []model.Candidate
	Enriched      []model.EnrichedVenue
	Report        *Report
}

// New creates a pipeline.
func New(source neighborhoods.Source, venues foursquare.Client, cfg Config) *Pipeline {
	if cfg.SearchPolicy == "" {
		cfg.SearchPolicy = SearchPolicySkip
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Pipeline{source: source, venues: venues, cfg: cfg}
}

// Run executes the full batch and assembles the report.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	nbhds, err := p.source.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list neighborhoods")
	}
	zap.L().Info("neighborhoods loaded", zap.Int("count", len(nbhds)))

	candidates, err := p.BuildCandidates(ctx, nbhds)
	if err != nil {
		return nil, err
	}

	enriched, err := p.Enrich(ctx, candidates)
	if err != nil {
		return nil, err
	}

	return &Result{
		Neighborhoods: nbhds,
		Candidates:    candidates,
		Enriched:      enriched,
		Report:        BuildReport(nbhds, enriched, p.cfg.MinAvgRating, p.cfg.TopN),
	}, nil
}

// BuildCandidates searches every neighborhood once, in source order, and
// keeps only venues whose category exactly equals the target category.
// Within a neighborhood the adapter's response order is preserved. No
// deduplication across neighborhoods: a venue reachable from two
// overlapping search radii appears twice.
func (p *Pipeline) BuildCandidates(ctx context.Context, nbhds []model.Neighborhood) ([]model.Candidate, error) {
	var candidates []model.Candidate

	for i, n := range nbhds {
		venues, err := resilience.DoVal(ctx, p.searchRetry(), func(ctx context.Context) ([]foursquare.VenueSummary, error) {
			return p.venues.Explore(ctx, n.Latitude, n.Longitude, p.cfg.RadiusM, p.cfg.Limit)
		})
		if err != nil {
			if p.cfg.SearchPolicy == SearchPolicyAbort {
				return nil, eris.Wrapf(err, "pipeline: search %s, %s", n.Name, n.Borough)
			}
			zap.L().Warn("pipeline: venue search failed, skipping neighborhood",
				zap.String("neighborhood", n.Name),
				zap.String("borough", n.Borough),
				zap.Error(err),
			)
			continue
		}

		matched := 0
		for _, v := range venues {
			if v.Category != p.cfg.TargetCategory {
				continue
			}
			candidates = append(candidates, model.Candidate{
				Borough:      n.Borough,
				Neighborhood: n.Name,
				VenueID:      v.ID,
				Name:         v.Name,
			})
			matched++
		}

		zap.L().Info("neighborhood searched",
			zap.Int("processed", i+1),
			zap.Int("total", len(nbhds)),
			zap.String("neighborhood", n.Name),
			zap.String("borough", n.Borough),
			zap.Int("matched", matched),
		)
	}

	return candidates, nil
}

// Enrich looks up detail fields for every candidate. The output has the
// same cardinality and order as the input. A failed or empty detail
// lookup zero-fills that row (HadData=false) and never aborts the batch.
func (p *Pipeline) Enrich(ctx context.Context, candidates []model.Candidate) ([]model.EnrichedVenue, error) {
	enriched := make([]model.EnrichedVenue, len(candidates))
	total := len(candidates)
	var processed atomic.Int64

	enrichOne := func(ctx context.Context, i int) {
		c := candidates[i]
		row := model.EnrichedVenue{
			Borough:      c.Borough,
			Neighborhood: c.Neighborhood,
			VenueID:      c.VenueID,
			Name:         c.Name,
		}

		details, err := resilience.DoVal(ctx, p.detailRetry(), func(ctx context.Context) (*foursquare.VenueDetails, error) {
			return p.venues.VenueDetails(ctx, c.VenueID)
		})
		switch {
		case err != nil:
			zap.L().Warn("pipeline: detail lookup failed, zero-filling",
				zap.String("venue_id", c.VenueID),
				zap.String("name", c.Name),
				zap.Error(err),
			)
		case details == nil:
			zap.L().Warn("pipeline: no detail data, zero-filling",
				zap.String("venue_id", c.VenueID),
				zap.String("name", c.Name),
			)
		default:
			row.Likes = details.Likes
			row.Rating = details.Rating
			row.Tips = details.Tips
			row.HadData = true
		}

		enriched[i] = row
		zap.L().Info("enrichment progress",
			zap.Int64("processed", processed.Add(1)),
			zap.Int("total", total),
		)
	}

	if p.cfg.Concurrency > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Concurrency)
		for i := range candidates {
			g.Go(func() error {
				enrichOne(gCtx, i)
				return nil
			})
		}
		// Workers never return errors; Wait only observes ctx problems.
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "pipeline: enrich")
		}
	} else {
		for i := range candidates {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "pipeline: enrich cancelled")
			}
			enrichOne(ctx, i)
		}
	}

	return enriched, nil
}

// searchRetry and detailRetry apply a deterministic bounded-attempt policy
// per adapter: any failure is retried up to MaxAttempts, then handed to
// the stage's failure policy.
func (p *Pipeline) searchRetry() resilience.RetryConfig {
	cfg := p.cfg.Retry
	cfg.ShouldRetry = resilience.RetryAll
	cfg.OnRetry = resilience.RetryLogger("foursquare", "explore")
	return cfg
}

func (p *Pipeline) detailRetry() resilience.RetryConfig {
	cfg := p.cfg.Retry
	cfg.ShouldRetry = resilience.RetryAll
	cfg.OnRetry = resilience.RetryLogger("foursquare", "venue_details")
	return cfg
}
