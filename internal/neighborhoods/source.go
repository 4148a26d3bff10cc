// Package neighborhoods supplies the fixed list of NYC neighborhoods the
// pipeline traverses, either from the public dataset endpoint or from a
// local YAML fixture.
package neighborhoods

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/metro-research/venuescout/internal/model"
)

// ErrSourceUnavailable marks a neighborhood fetch that cannot yield a
// usable list: endpoint unreachable, or payload without the expected
// structure. Fatal to a run; no partial list is usable.
var ErrSourceUnavailable = eris.New("neighborhoods: source unavailable")

// Source supplies the neighborhood list in a single batch, in dataset order.
type Source interface {
	List(ctx context.Context) ([]model.Neighborhood, error)
}
