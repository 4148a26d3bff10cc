package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metro-research/venuescout/internal/model"
	"github.com/metro-research/venuescout/internal/resilience"
	"github.com/metro-research/venuescout/pkg/foursquare"
)

func testNeighborhoods() []model.Neighborhood {
	return []model.Neighborhood{
		{Borough: "Bronx", Name: "Wakefield", Latitude: 40.894705, Longitude: -73.847201},
		{Borough: "Manhattan", Name: "Marble Hill", Latitude: 40.876551, Longitude: -73.910660},
		{Borough: "Queens", Name: "Astoria", Latitude: 40.768509, Longitude: -73.915654},
	}
}

// fastRetry keeps failure tests quick: one attempt, no backoff.
func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1}
}

func TestBuildCandidates_FiltersByExactCategory(t *testing.T) {
	t.Parallel()

	nbhds := testNeighborhoods()
	venues := newMockVenues()
	venues.exploreByCoord[coordKey(40.894705, -73.847201)] = []foursquare.VenueSummary{
		{ID: "v1", Name: "Balade", Category: "Mediterranean Restaurant"},
		{ID: "v2", Name: "Joe's Pizza", Category: "Pizza Place"},
		{ID: "v3", Name: "Mamoun's", Category: "Mediterranean Restaurant"},
	}
	venues.exploreByCoord[coordKey(40.876551, -73.910660)] = []foursquare.VenueSummary{
		// Substring match must not count.
		{ID: "v4", Name: "Nearly", Category: "Eastern Mediterranean Restaurant"},
	}
	venues.exploreByCoord[coordKey(40.768509, -73.915654)] = []foursquare.VenueSummary{
		{ID: "v5", Name: "Kyma", Category: "Mediterranean Restaurant"},
	}

	p := New(&mockSource{nbhds: nbhds}, venues, Config{
		TargetCategory: "Mediterranean Restaurant",
		Retry:          fastRetry(),
	})

	candidates, err := p.BuildCandidates(context.Background(), nbhds)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	// Source order, then response order within a neighborhood.
	assert.Equal(t, "v1", candidates[0].VenueID)
	assert.Equal(t, "v3", candidates[1].VenueID)
	assert.Equal(t, "v5", candidates[2].VenueID)
	assert.Equal(t, "Wakefield", candidates[0].Neighborhood)
	assert.Equal(t, "Bronx", candidates[0].Borough)
	assert.Equal(t, "Queens", candidates[2].Borough)
}

func TestBuildCandidates_SkipPolicy(t *testing.T) {
	t.Parallel()

	nbhds := testNeighborhoods()
	venues := newMockVenues()
	venues.exploreByCoord[coordKey(40.894705, -73.847201)] = []foursquare.VenueSummary{
		{ID: "v1", Name: "Balade", Category: "Mediterranean Restaurant"},
	}
	venues.exploreErrs[coordKey(40.876551, -73.910660)] = foursquare.ErrSearchUnavailable
	venues.exploreByCoord[coordKey(40.768509, -73.915654)] = []foursquare.VenueSummary{
		{ID: "v5", Name: "Kyma", Category: "Mediterranean Restaurant"},
	}

	p := New(&mockSource{nbhds: nbhds}, venues, Config{
		TargetCategory: "Mediterranean Restaurant",
		SearchPolicy:   SearchPolicySkip,
		Retry:          fastRetry(),
	})

	candidates, err := p.BuildCandidates(context.Background(), nbhds)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "v1", candidates[0].VenueID)
	assert.Equal(t, "v5", candidates[1].VenueID)
}

func TestBuildCandidates_AbortPolicy(t *testing.T) {
	t.Parallel()

	nbhds := testNeighborhoods()
	venues := newMockVenues()
	venues.exploreErrs[coordKey(40.894705, -73.847201)] = foursquare.ErrSearchUnavailable

	p := New(&mockSource{nbhds: nbhds}, venues, Config{
		TargetCategory: "Mediterranean Restaurant",
		SearchPolicy:   SearchPolicyAbort,
		Retry:          fastRetry(),
	})

	_, err := p.BuildCandidates(context.Background(), nbhds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, foursquare.ErrSearchUnavailable))
	assert.Contains(t, err.Error(), "Wakefield")
}

func TestBuildCandidates_RetriesSearch(t *testing.T) {
	t.Parallel()

	nbhds := testNeighborhoods()[:1]
	venues := newMockVenues()
	venues.exploreErrs[coordKey(40.894705, -73.847201)] = foursquare.ErrSearchUnavailable

	p := New(&mockSource{nbhds: nbhds}, venues, Config{
		TargetCategory: "Mediterranean Restaurant",
		Retry:          resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: 1, MaxBackoff: 1},
	})

	candidates, err := p.BuildCandidates(context.Background(), nbhds)
	require.NoError(t, err) // skip policy swallows the exhausted retry
	assert.Empty(t, candidates)
	assert.Equal(t, 3, venues.exploreCalls)
}

func TestEnrich_ZeroFillsFailures(t *testing.T) {
	t.Parallel()

	venues := newMockVenues()
	venues.detailsByID["v1"] = &foursquare.VenueDetails{ID: "v1", Name: "Balade", Likes: 124, Rating: 8.9, Tips: 47}
	venues.detailErrs["v2"] = foursquare.ErrDetailUnavailable
	// v3 absent from both maps: lookup succeeds with no data.

	candidates := []model.Candidate{
		{Borough: "Bronx", Neighborhood: "Wakefield", VenueID: "v1", Name: "Balade"},
		{Borough: "Bronx", Neighborhood: "Wakefield", VenueID: "v2", Name: "Lost"},
		{Borough: "Queens", Neighborhood: "Astoria", VenueID: "v3", Name: "Sparse"},
	}

	p := New(&mockSource{}, venues, Config{Retry: fastRetry()})
	enriched, err := p.Enrich(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	assert.True(t, enriched[0].HadData)
	assert.Equal(t, 8.9, enriched[0].Rating)
	assert.Equal(t, 124.0, enriched[0].Likes)

	for _, row := range enriched[1:] {
		assert.False(t, row.HadData)
		assert.Zero(t, row.Likes)
		assert.Zero(t, row.Rating)
		assert.Zero(t, row.Tips)
	}

	// Identity fields survive zero-fill.
	assert.Equal(t, "v2", enriched[1].VenueID)
	assert.Equal(t, "Lost", enriched[1].Name)
	assert.Equal(t, "Astoria", enriched[2].Neighborhood)
}

func TestEnrich_PreservesOrderSequential(t *testing.T) {
	t.Parallel()

	venues := newMockVenues()
	candidates := make([]model.Candidate, 20)
	for i := range candidates {
		id := string(rune('a' + i))
		candidates[i] = model.Candidate{Borough: "B", Neighborhood: "N", VenueID: id, Name: id}
		venues.detailsByID[id] = &foursquare.VenueDetails{ID: id, Name: id, Likes: float64(i), Rating: 5, Tips: 1}
	}

	p := New(&mockSource{}, venues, Config{Retry: fastRetry()})
	enriched, err := p.Enrich(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, enriched, 20)
	for i, row := range enriched {
		assert.Equal(t, candidates[i].VenueID, row.VenueID)
		assert.Equal(t, float64(i), row.Likes)
	}
}

func TestEnrich_PreservesOrderConcurrent(t *testing.T) {
	t.Parallel()

	venues := newMockVenues()
	candidates := make([]model.Candidate, 50)
	for i := range candidates {
		id := string(rune('A' + i))
		candidates[i] = model.Candidate{Borough: "B", Neighborhood: "N", VenueID: id, Name: id}
		venues.detailsByID[id] = &foursquare.VenueDetails{ID: id, Name: id, Likes: float64(i), Rating: 5, Tips: 1}
	}

	p := New(&mockSource{}, venues, Config{Concurrency: 8, Retry: fastRetry()})
	enriched, err := p.Enrich(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, enriched, 50)
	for i, row := range enriched {
		assert.Equal(t, candidates[i].VenueID, row.VenueID)
		assert.Equal(t, float64(i), row.Likes)
	}
}

func TestEnrich_RetriesDetailBeforeZeroFill(t *testing.T) {
	t.Parallel()

	venues := newMockVenues()
	venues.detailErrs["v1"] = foursquare.ErrDetailUnavailable

	p := New(&mockSource{}, venues, Config{
		Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: 1, MaxBackoff: 1},
	})
	enriched, err := p.Enrich(context.Background(), []model.Candidate{
		{Borough: "B", Neighborhood: "N", VenueID: "v1", Name: "X"},
	})
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.False(t, enriched[0].HadData)
	assert.Equal(t, 3, venues.detailCalls["v1"])
}

func TestEnrich_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&mockSource{}, newMockVenues(), Config{Retry: fastRetry()})
	_, err := p.Enrich(ctx, []model.Candidate{
		{Borough: "B", Neighborhood: "N", VenueID: "v1", Name: "X"},
	})
	require.Error(t, err)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	nbhds := testNeighborhoods()
	venues := newMockVenues()
	venues.exploreByCoord[coordKey(40.894705, -73.847201)] = []foursquare.VenueSummary{
		{ID: "v1", Name: "Balade", Category: "Mediterranean Restaurant"},
		{ID: "v2", Name: "Joe's Pizza", Category: "Pizza Place"},
	}
	venues.exploreByCoord[coordKey(40.876551, -73.910660)] = nil
	venues.exploreByCoord[coordKey(40.768509, -73.915654)] = []foursquare.VenueSummary{
		{ID: "v5", Name: "Kyma", Category: "Mediterranean Restaurant"},
	}
	venues.detailsByID["v1"] = &foursquare.VenueDetails{ID: "v1", Name: "Balade", Likes: 124, Rating: 8.9, Tips: 47}
	venues.detailErrs["v5"] = foursquare.ErrDetailUnavailable

	p := New(&mockSource{nbhds: nbhds}, venues, Config{
		TargetCategory: "Mediterranean Restaurant",
		MinAvgRating:   8.5,
		Retry:          fastRetry(),
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Candidates, 2)
	require.Len(t, result.Enriched, 2)
	assert.True(t, result.Enriched[0].HadData)
	assert.False(t, result.Enriched[1].HadData)

	r := result.Report
	require.NotNil(t, r)
	assert.Equal(t, 2, r.TotalEnriched)
	assert.Equal(t, 1, r.IncompleteRows)
	assert.Equal(t, 1, r.CountByBorough["Bronx"])
	assert.Equal(t, 1, r.CountByBorough["Queens"])

	// Wakefield's only row rated 8.9 clears the 8.5 cutoff; Astoria's
	// zero-filled row does not.
	require.Len(t, r.HighRatedNeighborhoods, 1)
	assert.Equal(t, "Wakefield", r.HighRatedNeighborhoods[0].Neighborhood)
	assert.InDelta(t, 40.894705, r.HighRatedNeighborhoods[0].Latitude, 1e-9)
}

func TestRun_SourceUnavailable(t *testing.T) {
	t.Parallel()

	srcErr := errors.New("dataset unreachable")
	p := New(&mockSource{err: srcErr}, newMockVenues(), Config{Retry: fastRetry()})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, srcErr))
}
