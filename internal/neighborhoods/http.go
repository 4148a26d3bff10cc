package neighborhoods

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/model"
)

// DefaultDatasetURL is the public NYC neighborhoods dataset.
const DefaultDatasetURL = "https://cocl.us/new_york_dataset"

// HTTPSource fetches the neighborhood list from a GeoJSON feature
// collection whose features carry properties.borough, properties.name and
// a point geometry in [lng, lat] order.
type HTTPSource struct {
	url  string
	http *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.http = hc
	}
}

// NewHTTPSource creates a source backed by the dataset endpoint.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url: url,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List fetches and parses the dataset in one batch. Features missing a
// borough, a name, or a point geometry are skipped; a payload with no
// usable features at all is ErrSourceUnavailable.
func (s *HTTPSource) List(ctx context.Context) ([]model.Neighborhood, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: create request: %v", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: fetch %s: %v", s.url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: unexpected status %d from %s", resp.StatusCode, s.url)
	}

	return parseFeatureCollection(body)
}

func parseFeatureCollection(body []byte) ([]model.Neighborhood, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: unmarshal feature collection: %v", err)
	}

	var skipped int
	out := make([]model.Neighborhood, 0, len(fc.Features))
	for _, f := range fc.Features {
		borough, _ := f.Properties["borough"].(string)
		name, _ := f.Properties["name"].(string)
		pt, ok := f.Geometry.(*geom.Point)
		if borough == "" || name == "" || !ok {
			skipped++
			continue
		}
		coords := pt.Coords()
		if len(coords) < 2 {
			skipped++
			continue
		}
		// Dataset order is [lng, lat].
		out = append(out, model.Neighborhood{
			Borough:   borough,
			Name:      name,
			Latitude:  coords[1],
			Longitude: coords[0],
		})
	}

	if skipped > 0 {
		zap.L().Warn("neighborhoods: skipped malformed features", zap.Int("skipped", skipped))
	}
	if len(out) == 0 {
		return nil, eris.Wrap(ErrSourceUnavailable, "neighborhoods: no usable features in payload")
	}

	return out, nil
}

var _ Source = (*HTTPSource)(nil)
