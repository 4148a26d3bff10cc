// Package model holds the record types flowing through the venue pipeline.
package model

// Neighborhood is one named sub-area of a borough with a fixed coordinate,
// as published by the NYC neighborhoods dataset. The (Borough, Name) pair
// is unique within the dataset.
type Neighborhood struct {
	Borough   string  `json:"borough" yaml:"borough"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Candidate is one (neighborhood, matching venue) pair produced by the
// filter/join stage. The venue's category always equals the target category
// at creation time; the category itself is not carried forward.
type Candidate struct {
	Borough      string `json:"borough"`
	Neighborhood string `json:"neighborhood"`
	VenueID      string `json:"venue_id"`
	Name         string `json:"name"`
}

// EnrichedVenue extends a Candidate with detail fields from the venue
// directory. When the detail lookup fails or returns incomplete data,
// Likes, Rating and Tips are all zero and HadData is false, never a
// partial mix. Zero-filled rows are counted by the plain mean aggregates,
// which biases them downward; consumers that want unbiased means should
// filter on HadData.
type EnrichedVenue struct {
	Borough      string  `json:"borough"`
	Neighborhood string  `json:"neighborhood"`
	VenueID      string  `json:"venue_id"`
	Name         string  `json:"name"`
	Likes        float64 `json:"likes"`
	Rating       float64 `json:"rating"`
	Tips         float64 `json:"tips"`
	HadData      bool    `json:"had_data"`
}

// CandidateOf returns the candidate portion of an enriched row.
func (v EnrichedVenue) CandidateOf() Candidate {
	return Candidate{
		Borough:      v.Borough,
		Neighborhood: v.Neighborhood,
		VenueID:      v.VenueID,
		Name:         v.Name,
	}
}
