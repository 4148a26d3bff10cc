package pipeline

import (
	"sort"

	"github.com/metro-research/venuescout/internal/model"
)

// RatedNeighborhood is a neighborhood whose venues cleared the average
// rating cutoff, joined back to its dataset coordinate for the map.
type RatedNeighborhood struct {
	Borough      string  `json:"borough"`
	Neighborhood string  `json:"neighborhood"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	AvgRating    float64 `json:"avg_rating"`
}

// Report carries every aggregate table a run produces. Building it is
// pure: the same enriched rows always yield the same report.
type Report struct {
	TotalEnriched    int `json:"total_enriched"`
	UniqueVenueCount int `json:"unique_venue_count"`
	IncompleteRows   int `json:"incomplete_rows"`

	CountByBorough      map[string]int `json:"count_by_borough"`
	CountByNeighborhood map[string]int `json:"count_by_neighborhood"`
	TopNeighborhoods    []KeyCount     `json:"top_neighborhoods"`

	// MeanRatingByBorough and MeanRatingByNeighborhood include zero-filled
	// rows in the denominator; the Complete variants exclude them.
	MeanRatingByBorough              map[string]float64 `json:"mean_rating_by_borough"`
	MeanRatingByNeighborhood         map[string]float64 `json:"mean_rating_by_neighborhood"`
	MeanRatingByBoroughComplete      map[string]float64 `json:"mean_rating_by_borough_complete"`
	MeanRatingByNeighborhoodComplete map[string]float64 `json:"mean_rating_by_neighborhood_complete"`

	MostLiked *model.EnrichedVenue `json:"most_liked,omitempty"`
	BestRated *model.EnrichedVenue `json:"best_rated,omitempty"`
	Chains    []Chain              `json:"chains,omitempty"`

	HighRatedNeighborhoods []RatedNeighborhood `json:"high_rated_neighborhoods"`
}

// BuildReport computes all aggregates from one enriched table. The
// neighborhood list supplies coordinates for the high-rated join.
func BuildReport(nbhds []model.Neighborhood, enriched []model.EnrichedVenue, minAvgRating float64, topN int) *Report {
	incomplete := 0
	for _, r := range enriched {
		if !r.HadData {
			incomplete++
		}
	}

	r := &Report{
		TotalEnriched:    len(enriched),
		UniqueVenueCount: len(UniqueNames(enriched)),
		IncompleteRows:   incomplete,

		CountByBorough:      CountBy(enriched, ByBorough),
		CountByNeighborhood: CountBy(enriched, ByNeighborhood),
		TopNeighborhoods:    TopN(enriched, ByNeighborhood, topN),

		MeanRatingByBorough:              MeanRatingBy(enriched, ByBorough),
		MeanRatingByNeighborhood:         MeanRatingBy(enriched, ByNeighborhood),
		MeanRatingByBoroughComplete:      MeanRatingByComplete(enriched, ByBorough),
		MeanRatingByNeighborhoodComplete: MeanRatingByComplete(enriched, ByNeighborhood),

		MostLiked: ArgMaxLikes(enriched),
		BestRated: ArgMaxRating(enriched),
		Chains:    Chains(enriched),
	}

	r.HighRatedNeighborhoods = highRated(nbhds, r.MeanRatingByNeighborhood, minAvgRating)
	return r
}

// highRated joins neighborhood averages back to dataset coordinates,
// keeping those at or above the cutoff, sorted by average descending.
func highRated(nbhds []model.Neighborhood, avgByNeighborhood map[string]float64, cutoff float64) []RatedNeighborhood {
	coords := make(map[string]model.Neighborhood, len(nbhds))
	for _, n := range nbhds {
		// First occurrence wins; the dataset treats names as unique
		// within a borough and the join mirrors the snapshot's name join.
		if _, ok := coords[n.Name]; !ok {
			coords[n.Name] = n
		}
	}

	out := make([]RatedNeighborhood, 0)
	for name, avg := range avgByNeighborhood {
		if avg < cutoff {
			continue
		}
		n, ok := coords[name]
		if !ok {
			continue
		}
		out = append(out, RatedNeighborhood{
			Borough:      n.Borough,
			Neighborhood: name,
			Latitude:     n.Latitude,
			Longitude:    n.Longitude,
			AvgRating:    avg,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRating != out[j].AvgRating {
			return out[i].AvgRating > out[j].AvgRating
		}
		return out[i].Neighborhood < out[j].Neighborhood
	})
	return out
}
