package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/metro-research/venuescout/internal/model"
	"github.com/metro-research/venuescout/pkg/foursquare"
)

// mockSource serves a fixed neighborhood list.
type mockSource struct {
	nbhds []model.Neighborhood
	err   error
}

func (m *mockSource) List(_ context.Context) ([]model.Neighborhood, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.nbhds, nil
}

// mockVenues serves canned explore and detail responses keyed by
// neighborhood name (via coordinate lookup) and venue ID. Safe for
// concurrent use.
type mockVenues struct {
	mu sync.Mutex

	// exploreByCoord maps "lat,lng" to a response or error.
	exploreByCoord map[string][]foursquare.VenueSummary
	exploreErrs    map[string]error
	exploreCalls   int

	// detailsByID maps venue ID to a response; detailErrs to an error.
	// IDs absent from both yield (nil, nil).
	detailsByID map[string]*foursquare.VenueDetails
	detailErrs  map[string]error
	detailCalls map[string]int
}

func newMockVenues() *mockVenues {
	return &mockVenues{
		exploreByCoord: map[string][]foursquare.VenueSummary{},
		exploreErrs:    map[string]error{},
		detailsByID:    map[string]*foursquare.VenueDetails{},
		detailErrs:     map[string]error{},
		detailCalls:    map[string]int{},
	}
}

func coordKey(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}

func (m *mockVenues) Explore(_ context.Context, lat, lng float64, _, _ int) ([]foursquare.VenueSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exploreCalls++
	key := coordKey(lat, lng)
	if err, ok := m.exploreErrs[key]; ok {
		return nil, err
	}
	return m.exploreByCoord[key], nil
}

func (m *mockVenues) VenueDetails(_ context.Context, venueID string) (*foursquare.VenueDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls[venueID]++
	if err, ok := m.detailErrs[venueID]; ok {
		return nil, err
	}
	return m.detailsByID[venueID], nil
}

var _ foursquare.Client = (*mockVenues)(nil)
