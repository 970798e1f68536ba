// Package accidents loads the historical accident dataset supplied by the
// data collaborator and derives the temporal columns the risk engine filters
// on. The collection is immutable after load.
package accidents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/road-risk-sim/simulator/internal/geo"
)

// dateLayout matches the dataset's locale-specific timestamp format,
// e.g. "17.03.2021,14:35".
const dateLayout = "02.01.2006,15:04"

// ErrNoRecords means the dataset was empty, or no row survived parsing and
// year filtering. The risk engine must not be built on top of it.
var ErrNoRecords = errors.New("accidents: no usable records after filtering")

// Record is one historical accident with its derived temporal fields.
type Record struct {
	ID        int
	Time      time.Time
	Lat       float64
	Lon       float64
	Hour      int // 0-23
	DayOfYear int // 1-366
}

// Load reads the accident table from a CSV file with header fields
// {date, lon, lat}, keeps only rows with a parseable timestamp and valid
// coordinates from the analysis year, and precomputes hour-of-day and
// day-of-year for each survivor.
func Load(path string, year int) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accidents file: %w", err)
	}
	defer f.Close()

	records, dropped, err := parse(f, year)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	log.Printf("Accidents loaded: %d records for %d (%d rows dropped)", len(records), year, dropped)
	return records, nil
}

func parse(r io.Reader, year int) ([]*Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read accidents header: %w", err)
	}
	idx := makeIndex(header)
	for _, field := range []string{"date", "lon", "lat"} {
		if _, ok := idx[field]; !ok {
			return nil, 0, fmt.Errorf("accidents table is missing the %q column", field)
		}
	}

	var records []*Record
	var dropped int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		ts, errTime := time.Parse(dateLayout, getField(row, idx, "date"))
		lon, errLon := strconv.ParseFloat(getField(row, idx, "lon"), 64)
		lat, errLat := strconv.ParseFloat(getField(row, idx, "lat"), 64)
		if errTime != nil || errLon != nil || errLat != nil || !geo.IsValidCoordinate(lat, lon) {
			dropped++
			continue
		}
		if ts.Year() != year {
			dropped++
			continue
		}

		records = append(records, &Record{
			ID:        len(records),
			Time:      ts,
			Lat:       lat,
			Lon:       lon,
			Hour:      ts.Hour(),
			DayOfYear: ts.YearDay(),
		})
	}
	return records, dropped, nil
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
