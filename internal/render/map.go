// Package render produces the marker-map HTML for high-rated
// neighborhoods. The page is self-contained apart from the Leaflet CDN
// assets, so it can be opened directly from disk.
package render

import (
	"fmt"
	"html/template"
	"os"

	"github.com/rotisserie/eris"

	"github.com/metro-research/venuescout/internal/pipeline"
)

// Marker is one circle marker with a popup label.
type Marker struct {
	Latitude  float64
	Longitude float64
	Label     string
}

// MapData is the template input.
type MapData struct {
	Title     string
	CenterLat float64
	CenterLng float64
	Zoom      int
	Markers   []Marker
}

const mapTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{range .Markers}}
L.circleMarker([{{.Latitude}}, {{.Longitude}}], {
	radius: 10,
	color: 'red',
	fillColor: 'blue',
	fillOpacity: 0.6
}).addTo(map).bindPopup({{.Label}});
{{end}}
</script>
</body>
</html>
`

// WriteMap renders the marker map for the report's high-rated
// neighborhoods. When the caller has no geocoded center, pass zero
// coordinates and the map centers on the mean of the markers instead.
func WriteMap(r *pipeline.Report, centerLat, centerLng float64, path string) error {
	markers := make([]Marker, 0, len(r.HighRatedNeighborhoods))
	for _, n := range r.HighRatedNeighborhoods {
		markers = append(markers, Marker{
			Latitude:  n.Latitude,
			Longitude: n.Longitude,
			Label:     fmt.Sprintf("%s, %s (%.2f)", n.Neighborhood, n.Borough, n.AvgRating),
		})
	}

	if centerLat == 0 && centerLng == 0 && len(markers) > 0 {
		for _, m := range markers {
			centerLat += m.Latitude
			centerLng += m.Longitude
		}
		centerLat /= float64(len(markers))
		centerLng /= float64(len(markers))
	}

	data := MapData{
		Title:     "High-rated neighborhoods",
		CenterLat: centerLat,
		CenterLng: centerLng,
		Zoom:      12,
		Markers:   markers,
	}

	tmpl, err := template.New("map").Parse(mapTemplate)
	if err != nil {
		return eris.Wrap(err, "render: parse map template")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := tmpl.Execute(f, data); err != nil {
		return eris.Wrap(err, "render: execute map template")
	}
	return nil
}
