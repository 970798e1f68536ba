// Package route loads the polyline produced by the routing collaborator.
// Route finding itself happens elsewhere; this package only reads its output.
package route

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/road-risk-sim/simulator/internal/geo"
)

// Route is an ordered, immutable sequence of points. Consecutive points
// define the segments the simulator drives along.
type Route []geo.Point

// LengthMeters sums the haversine lengths of all segments.
func (r Route) LengthMeters() float64 {
	var total float64
	for i := 1; i < len(r); i++ {
		total += geo.Haversine(r[i-1].Lat, r[i-1].Lon, r[i].Lat, r[i].Lon)
	}
	return total
}

// Load picks a loader from the file extension.
func Load(path string) (Route, error) {
	switch {
	case strings.HasSuffix(path, ".geojson") || strings.HasSuffix(path, ".json"):
		return LoadGeoJSON(path)
	case strings.HasSuffix(path, ".csv"):
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported route file format: %s", path)
	}
}

// LoadGeoJSON reads a route from a GeoJSON file containing a LineString,
// either bare or wrapped in a Feature / FeatureCollection.
func LoadGeoJSON(path string) (Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}

	var doc struct {
		Type     string `json:"type"`
		Geometry *struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Coordinates [][2]float64 `json:"coordinates"`
		Features    []struct {
			Geometry struct {
				Type        string       `json:"type"`
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse route GeoJSON: %w", err)
	}

	var coords [][2]float64
	switch {
	case doc.Type == "LineString":
		coords = doc.Coordinates
	case doc.Type == "Feature" && doc.Geometry != nil && doc.Geometry.Type == "LineString":
		coords = doc.Geometry.Coordinates
	case doc.Type == "FeatureCollection":
		for _, f := range doc.Features {
			if f.Geometry.Type == "LineString" {
				coords = f.Geometry.Coordinates
				break
			}
		}
	}
	if coords == nil {
		return nil, fmt.Errorf("no LineString geometry in %s", path)
	}

	// GeoJSON coordinates are [lng, lat]
	r := make(Route, 0, len(coords))
	for _, c := range coords {
		if !geo.IsValidCoordinate(c[1], c[0]) {
			continue
		}
		r = append(r, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return validate(r, path)
}

// LoadCSV reads a route from a CSV file with header columns lat and lon.
func LoadCSV(path string) (Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read route header: %w", err)
	}
	idx := makeIndex(header)

	var r Route
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, errLat := strconv.ParseFloat(getField(record, idx, "lat"), 64)
		lon, errLon := strconv.ParseFloat(getField(record, idx, "lon"), 64)
		if errLat != nil || errLon != nil || !geo.IsValidCoordinate(lat, lon) {
			continue
		}
		r = append(r, geo.Point{Lat: lat, Lon: lon})
	}
	return validate(r, path)
}

func validate(r Route, path string) (Route, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("route %s contains no usable points", path)
	}
	log.Printf("Route loaded: %d points, %.1f km", len(r), r.LengthMeters()/1000)
	return r, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
