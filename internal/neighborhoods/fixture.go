package neighborhoods

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/metro-research/venuescout/internal/model"
)

// FixtureSource reads the neighborhood list from a local YAML file.
// Used for offline runs and tests, where the dataset endpoint (or the
// call budget) is out of reach.
type FixtureSource struct {
	path string
}

// NewFixtureSource creates a source backed by a YAML fixture file.
func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: path}
}

type fixtureFile struct {
	Neighborhoods []model.Neighborhood `yaml:"neighborhoods"`
}

// List loads the fixture. An unreadable or empty fixture is
// ErrSourceUnavailable, same as the HTTP source.
func (s *FixtureSource) List(_ context.Context) ([]model.Neighborhood, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: read fixture %s: %v", s.path, err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: unmarshal fixture %s: %v", s.path, err)
	}
	if len(f.Neighborhoods) == 0 {
		return nil, eris.Wrapf(ErrSourceUnavailable, "neighborhoods: fixture %s has no neighborhoods", s.path)
	}

	return f.Neighborhoods, nil
}

var _ Source = (*FixtureSource)(nil)
