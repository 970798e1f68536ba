package accidents

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `id,date,lon,lat,severity
1,"17.03.2021,14:35",20.4569,44.8178,2
2,"01.01.2021,00:05",20.4100,44.8200,1
3,"31.12.2020,23:50",20.4000,44.8100,3
4,"05.06.2021,08:15",19.8452,45.2551,1
5,not-a-date,20.40,44.82,2
6,"10.10.2021,12:00",,44.81,1
7,"11.11.2021,09:30",0,0,2
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accidents.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadFiltersAndDerives(t *testing.T) {
	recs, err := Load(writeCSV(t, sampleCSV), 2021)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// rows 3 (wrong year), 5 (bad date), 6 (missing lon), 7 (0,0) are dropped
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	first := recs[0]
	if first.Hour != 14 {
		t.Errorf("hour = %d, want 14", first.Hour)
	}
	// 17 March 2021: 31 + 28 + 17
	if first.DayOfYear != 76 {
		t.Errorf("day of year = %d, want 76", first.DayOfYear)
	}
	if first.Lat != 44.8178 || first.Lon != 20.4569 {
		t.Errorf("location = (%v, %v), want (44.8178, 20.4569)", first.Lat, first.Lon)
	}

	// midnight row keeps hour 0
	if recs[1].Hour != 0 || recs[1].DayOfYear != 1 {
		t.Errorf("new year's record: hour=%d yday=%d, want 0 and 1", recs[1].Hour, recs[1].DayOfYear)
	}

	// IDs are dense and ordered so index backends can key on them
	for i, r := range recs {
		if r.ID != i {
			t.Errorf("record %d has ID %d", i, r.ID)
		}
	}
}

func TestLoadNoSurvivorsIsError(t *testing.T) {
	// all rows are outside the analysis year
	_, err := Load(writeCSV(t, sampleCSV), 1999)
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("err = %v, want ErrNoRecords", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv"), 2021); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseMissingColumn(t *testing.T) {
	_, _, err := parse(strings.NewReader("date,lng,lat\n"), 2021)
	if err == nil || !strings.Contains(err.Error(), "lon") {
		t.Errorf("err = %v, want missing-column error for lon", err)
	}
}
