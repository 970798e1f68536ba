package triplog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/road-risk-sim/simulator/internal/risk"
	"github.com/road-risk-sim/simulator/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite", filepath.Join(t.TempDir(), "triplog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return store
}

func TestJourneyRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	journeyID, err := store.StartJourney(ctx, "belgrade-novi-sad", "rtree")
	if err != nil {
		t.Fatalf("StartJourney: %v", err)
	}
	if journeyID == "" {
		t.Fatal("journey ID must not be empty")
	}

	assessment := risk.Classify(3, 0, 1)
	ticks := []Tick{
		{
			Step: 1, At: time.Now(), Lat: 44.81, Lon: 20.45,
			Progress: sim.Progress{Segment: 0, TotalSegments: 10, OverallPercent: 1.5, SpeedKmh: 60},
		},
		{
			Step: 2, At: time.Now(), Lat: 44.82, Lon: 20.44,
			Progress:   sim.Progress{Segment: 0, TotalSegments: 10, OverallPercent: 3.0, SpeedKmh: 60},
			Assessment: &assessment,
		},
	}
	for _, tick := range ticks {
		if err := store.RecordTick(ctx, journeyID, tick); err != nil {
			t.Fatalf("RecordTick(step %d): %v", tick.Step, err)
		}
	}

	n, err := store.TickCount(ctx, journeyID)
	if err != nil {
		t.Fatalf("TickCount: %v", err)
	}
	if n != 2 {
		t.Errorf("tick count = %d, want 2", n)
	}

	if err := store.EndJourney(ctx, journeyID); err != nil {
		t.Fatalf("EndJourney: %v", err)
	}

	var endedAt *string
	err = store.conn.QueryRowContext(ctx,
		"SELECT ended_at FROM journeys WHERE journey_id = ?", journeyID).Scan(&endedAt)
	if err != nil {
		t.Fatalf("query journey: %v", err)
	}
	if endedAt == nil {
		t.Error("ended_at not set after EndJourney")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("duckdb", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	s := &Store{driver: "pgx"}
	got := s.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	s.driver = "sqlite"
	q := "SELECT * FROM t WHERE a = ?"
	if got := s.rebind(q); got != q {
		t.Errorf("sqlite rebind should be a no-op, got %q", got)
	}
}
