package pipeline

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ExportXLSX writes the report's tables to a workbook, one sheet per
// table, so the aggregates can be consumed outside the CLI.
func ExportXLSX(r *Report, path string) error {
	file := xlsx.NewFile()

	if err := addSummarySheet(file, r); err != nil {
		return err
	}
	if err := addCountSheet(file, "Count by Borough", r.CountByBorough); err != nil {
		return err
	}
	if err := addCountSheet(file, "Count by Neighborhood", r.CountByNeighborhood); err != nil {
		return err
	}
	if err := addMeanSheet(file, "Avg Rating by Borough", r.MeanRatingByBorough); err != nil {
		return err
	}
	if err := addMeanSheet(file, "Avg Rating by Neighborhood", r.MeanRatingByNeighborhood); err != nil {
		return err
	}
	if err := addHighRatedSheet(file, r.HighRatedNeighborhoods); err != nil {
		return err
	}

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}

func addSummarySheet(file *xlsx.File, r *Report) error {
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addKV := func(k string, set func(*xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().Value = k
		set(row.AddCell())
	}

	addKV("Total venues", func(c *xlsx.Cell) { c.SetInt(r.TotalEnriched) })
	addKV("Unique venues", func(c *xlsx.Cell) { c.SetInt(r.UniqueVenueCount) })
	addKV("Incomplete rows", func(c *xlsx.Cell) { c.SetInt(r.IncompleteRows) })
	if r.MostLiked != nil {
		addKV("Most liked", func(c *xlsx.Cell) { c.Value = r.MostLiked.Name })
		addKV("Most liked count", func(c *xlsx.Cell) { c.SetFloat(r.MostLiked.Likes) })
	}
	if r.BestRated != nil {
		addKV("Best rated", func(c *xlsx.Cell) { c.Value = r.BestRated.Name })
		addKV("Best rating", func(c *xlsx.Cell) { c.SetFloat(r.BestRated.Rating) })
	}
	return nil
}

func addCountSheet(file *xlsx.File, name string, counts map[string]int) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().Value = "Key"
	header.AddCell().Value = "Count"

	for _, k := range sortedKeys(counts) {
		row := sheet.AddRow()
		row.AddCell().Value = k
		row.AddCell().SetInt(counts[k])
	}
	return nil
}

func addMeanSheet(file *xlsx.File, name string, means map[string]float64) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().Value = "Key"
	header.AddCell().Value = "Avg Rating"

	keys := make([]string, 0, len(means))
	for k := range means {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row := sheet.AddRow()
		row.AddCell().Value = k
		row.AddCell().SetFloat(means[k])
	}
	return nil
}

func addHighRatedSheet(file *xlsx.File, rated []RatedNeighborhood) error {
	sheet, err := file.AddSheet("High Rated Neighborhoods")
	if err != nil {
		return eris.Wrap(err, "export: add high rated sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Borough", "Neighborhood", "Latitude", "Longitude", "Avg Rating"} {
		header.AddCell().Value = h
	}

	for _, n := range rated {
		row := sheet.AddRow()
		row.AddCell().Value = n.Borough
		row.AddCell().Value = n.Neighborhood
		row.AddCell().SetFloat(n.Latitude)
		row.AddCell().SetFloat(n.Longitude)
		row.AddCell().SetFloat(n.AvgRating)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
