package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/metro-research/venuescout/internal/model"
)

// GroupKey extracts a grouping key from an enriched row.
type GroupKey func(model.EnrichedVenue) string

// ByBorough groups rows by borough.
func ByBorough(v model.EnrichedVenue) string { return v.Borough }

// ByNeighborhood groups rows by neighborhood.
func ByNeighborhood(v model.EnrichedVenue) string { return v.Neighborhood }

// KeyCount is one entry of a ranked count table.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CountBy counts rows per key.
func CountBy(rows []model.EnrichedVenue, key GroupKey) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		out[key(r)]++
	}
	return out
}

// MeanRatingBy averages Rating per key over all rows, including zero-filled
// ones. Keys whose venues had failed lookups therefore skew toward zero;
// this matches the snapshot semantics and is deliberate. Use
// MeanRatingByComplete to exclude incomplete rows.
func MeanRatingBy(rows []model.EnrichedVenue, key GroupKey) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		k := key(r)
		sums[k] += r.Rating
		counts[k]++
	}

	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// MeanRatingByComplete averages Rating per key over rows that actually had
// detail data. Keys with no complete rows are absent from the result.
func MeanRatingByComplete(rows []model.EnrichedVenue, key GroupKey) map[string]float64 {
	complete := make([]model.EnrichedVenue, 0, len(rows))
	for _, r := range rows {
		if r.HadData {
			complete = append(complete, r)
		}
	}
	return MeanRatingBy(complete, key)
}

// TopN returns the n keys with the most rows, count descending, ties
// broken by first encounter in input order.
func TopN(rows []model.EnrichedVenue, key GroupKey, n int) []KeyCount {
	counts := make(map[string]int)
	var order []string
	for _, r := range rows {
		k := key(r)
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	ranked := make([]KeyCount, 0, len(order))
	for _, k := range order {
		ranked = append(ranked, KeyCount{Key: k, Count: counts[k]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ArgMaxLikes returns the first row with the maximal Likes value, or nil
// for an empty input.
func ArgMaxLikes(rows []model.EnrichedVenue) *model.EnrichedVenue {
	return argMax(rows, func(v model.EnrichedVenue) float64 { return v.Likes })
}

// ArgMaxRating returns the first row with the maximal Rating value, or nil
// for an empty input.
func ArgMaxRating(rows []model.EnrichedVenue) *model.EnrichedVenue {
	return argMax(rows, func(v model.EnrichedVenue) float64 { return v.Rating })
}

func argMax(rows []model.EnrichedVenue, field func(model.EnrichedVenue) float64) *model.EnrichedVenue {
	var best *model.EnrichedVenue
	for i := range rows {
		// Strictly greater keeps the first-encountered row on ties.
		if best == nil || field(rows[i]) > field(*best) {
			best = &rows[i]
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// UniqueNames returns the set of venue names. Cardinality is reported as
// "unique venues": two ids sharing a name collapse to one entry.
func UniqueNames(rows []model.EnrichedVenue) map[string]struct{} {
	out := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		out[r.Name] = struct{}{}
	}
	return out
}

// Chain is a venue name appearing under more than one distinct venue id.
type Chain struct {
	Name      string `json:"name"`
	Locations int    `json:"locations"`
}

// Chains finds venue names with multiple distinct ids. Names are compared
// after diacritic folding and case folding so "Café Mogador" and "Cafe
// Mogador" group together; the reported name is the first-encountered
// original spelling.
func Chains(rows []model.EnrichedVenue) []Chain {
	type group struct {
		display string
		ids     map[string]struct{}
	}
	groups := make(map[string]*group)
	var order []string

	for _, r := range rows {
		k := foldName(r.Name)
		g, ok := groups[k]
		if !ok {
			g = &group{display: r.Name, ids: make(map[string]struct{})}
			groups[k] = g
			order = append(order, k)
		}
		g.ids[r.VenueID] = struct{}{}
	}

	var chains []Chain
	for _, k := range order {
		g := groups[k]
		if len(g.ids) > 1 {
			chains = append(chains, Chain{Name: g.display, Locations: len(g.ids)})
		}
	}
	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].Locations > chains[j].Locations
	})
	return chains
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}
