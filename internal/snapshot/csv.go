// Package snapshot persists the pipeline's intermediate tables as flat
// CSV files. The venue directory enforces a daily call quota, so the
// candidates and enriched tables are written after each stage and can
// seed later stages without repeating the calls.
package snapshot

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/metro-research/venuescout/internal/model"
)

var candidateHeader = []string{"borough", "neighborhood", "id", "name"}

var enrichedHeader = []string{"borough", "neighborhood", "id", "name", "likes", "rating", "tips", "had_data"}

// WriteCandidates writes the filtered venue table.
func WriteCandidates(path string, candidates []model.Candidate) error {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{c.Borough, c.Neighborhood, c.VenueID, c.Name})
	}
	return writeCSV(path, candidateHeader, rows)
}

// ReadCandidates loads a candidates snapshot.
func ReadCandidates(path string) ([]model.Candidate, error) {
	records, err := readCSV(path, candidateHeader)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(records))
	for _, rec := range records {
		candidates = append(candidates, model.Candidate{
			Borough:      rec[0],
			Neighborhood: rec[1],
			VenueID:      rec[2],
			Name:         rec[3],
		})
	}
	return candidates, nil
}

// WriteEnriched writes the enriched venue table.
func WriteEnriched(path string, rows []model.EnrichedVenue) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Borough,
			r.Neighborhood,
			r.VenueID,
			r.Name,
			strconv.FormatFloat(r.Likes, 'f', -1, 64),
			strconv.FormatFloat(r.Rating, 'f', -1, 64),
			strconv.FormatFloat(r.Tips, 'f', -1, 64),
			strconv.FormatBool(r.HadData),
		})
	}
	return writeCSV(path, enrichedHeader, out)
}

// ReadEnriched loads an enriched snapshot. Numeric fields are parsed and
// validated here, once, so downstream stages work with typed records.
func ReadEnriched(path string) ([]model.EnrichedVenue, error) {
	records, err := readCSV(path, enrichedHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]model.EnrichedVenue, 0, len(records))
	for i, rec := range records {
		likes, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: %s row %d: parse likes %q", path, i+1, rec[4])
		}
		rating, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: %s row %d: parse rating %q", path, i+1, rec[5])
		}
		tips, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: %s row %d: parse tips %q", path, i+1, rec[6])
		}
		hadData, err := strconv.ParseBool(rec[7])
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: %s row %d: parse had_data %q", path, i+1, rec[7])
		}

		rows = append(rows, model.EnrichedVenue{
			Borough:      rec[0],
			Neighborhood: rec[1],
			VenueID:      rec[2],
			Name:         rec[3],
			Likes:        likes,
			Rating:       rating,
			Tips:         tips,
			HadData:      hadData,
		})
	}
	return rows, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "snapshot: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "snapshot: write header to %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "snapshot: write rows to %s", path)
	}
	w.Flush()
	return eris.Wrapf(w.Error(), "snapshot: flush %s", path)
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("snapshot: %s is empty", path)
	}

	for i, h := range records[0] {
		if h != header[i] {
			return nil, eris.Errorf("snapshot: %s has unexpected header %q, want %q", path, records[0][i], header[i])
		}
	}
	return records[1:], nil
}
