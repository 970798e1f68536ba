package sim

import (
	"testing"

	"github.com/road-risk-sim/simulator/internal/geo"
	"github.com/road-risk-sim/simulator/internal/route"
)

// straightRoute builds a north-bound polyline with the given per-segment
// latitude steps. 0.01 degrees of latitude is roughly 1.1 km.
func straightRoute(latSteps ...float64) route.Route {
	r := route.Route{{Lat: 44.0, Lon: 20.0}}
	lat := 44.0
	for _, step := range latSteps {
		lat += step
		r = append(r, geo.Point{Lat: lat, Lon: 20.0})
	}
	return r
}

func TestNewRejectsEmptyRoute(t *testing.T) {
	if _, err := New(nil, 60, 1, 10); err == nil {
		t.Error("expected error for empty route")
	}
}

func TestSinglePointRouteFinishedImmediately(t *testing.T) {
	r := route.Route{{Lat: 44.8, Lon: 20.4}}
	s, err := New(r, 60, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !s.Finished() {
		t.Error("single-point route must be finished immediately")
	}
	if got := s.CurrentPosition(); got != r[0] {
		t.Errorf("CurrentPosition = %+v, want %+v", got, r[0])
	}
	if got := s.Advance(); got != r[0] {
		t.Errorf("Advance on finished route = %+v, want %+v", got, r[0])
	}

	info := s.Progress()
	if info.TotalSegments != 0 || info.OverallPercent != 100 {
		t.Errorf("progress = %+v, want 0 segments at 100%%", info)
	}
}

func TestAdvanceMonotonicUntilFinished(t *testing.T) {
	// Two segments of ~1.1 km each; at 100 km/h and 1 s ticks the car
	// covers ~27.8 m per tick, so the drive takes on the order of 80 ticks.
	r := straightRoute(0.01, 0.01)
	s, err := New(r, 100, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prevSeg, prevProg := s.segment, s.progress
	var ticks int
	for !s.Finished() {
		s.Advance()
		ticks++
		if ticks > 10000 {
			t.Fatal("simulator never finished")
		}
		if s.segment < prevSeg {
			t.Fatalf("segment went backwards: %d -> %d", prevSeg, s.segment)
		}
		if s.segment == prevSeg && s.progress < prevProg {
			t.Fatalf("progress went backwards on segment %d: %f -> %f", s.segment, prevProg, s.progress)
		}
		prevSeg, prevProg = s.segment, s.progress
	}

	if ticks < 50 || ticks > 120 {
		t.Errorf("finished in %d ticks, expected on the order of 80", ticks)
	}

	// After finishing, further advances are no-ops at the terminal point.
	end := r[len(r)-1]
	for i := 0; i < 3; i++ {
		if got := s.Advance(); got != end {
			t.Fatalf("Advance after finish = %+v, want %+v", got, end)
		}
		if !s.Finished() {
			t.Fatal("Finished must stay true")
		}
	}
}

func TestZeroLengthSegmentSkipped(t *testing.T) {
	// Duplicate vertex between two real segments.
	r := route.Route{
		{Lat: 44.00, Lon: 20.0},
		{Lat: 44.01, Lon: 20.0},
		{Lat: 44.01, Lon: 20.0}, // duplicate
		{Lat: 44.02, Lon: 20.0},
	}
	s, err := New(r, 200, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Drive to the end of segment 0.
	for s.segment == 0 && !s.Finished() {
		s.Advance()
	}
	if s.segment != 1 {
		t.Fatalf("expected to be on segment 1, got %d", s.segment)
	}

	// One advance on the zero-length segment must skip it entirely,
	// consuming no distance.
	pos := s.Advance()
	if s.segment != 2 {
		t.Errorf("zero-length segment not skipped: segment = %d, want 2", s.segment)
	}
	if s.progress != 0 {
		t.Errorf("progress after skip = %f, want 0", s.progress)
	}
	if pos != r[2] {
		t.Errorf("position after skip = %+v, want segment start %+v", pos, r[2])
	}
}

func TestCurrentPositionInterpolates(t *testing.T) {
	r := straightRoute(0.01)
	s, err := New(r, 60, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.progress = 0.5

	got := s.CurrentPosition()
	if got.Lat != 44.005 || got.Lon != 20.0 {
		t.Errorf("midpoint = %+v, want (44.005, 20.0)", got)
	}
}

func TestSetSpeedFloor(t *testing.T) {
	s, err := New(straightRoute(0.01), 20, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.DecreaseSpeed()
	if s.Speed() != 10 {
		t.Errorf("speed = %v, want 10", s.Speed())
	}
	s.DecreaseSpeed()
	if s.Speed() != 10 {
		t.Errorf("speed dropped below the floor: %v", s.Speed())
	}

	s.IncreaseSpeed()
	if s.Speed() != 20 {
		t.Errorf("speed = %v, want 20", s.Speed())
	}

	// step distance tracks speed: 20 km/h over 1 s is ~5.56 m
	if s.stepMeters < 5.5 || s.stepMeters > 5.6 {
		t.Errorf("stepMeters = %v, want ~5.56", s.stepMeters)
	}
}

func TestOverallProgress(t *testing.T) {
	r := straightRoute(0.01, 0.01)
	s, err := New(r, 60, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.segment = 1
	s.progress = 0.5

	info := s.Progress()
	if info.TotalSegments != 2 {
		t.Errorf("total segments = %d, want 2", info.TotalSegments)
	}
	if info.OverallPercent != 75 {
		t.Errorf("overall percent = %v, want 75", info.OverallPercent)
	}
	if info.SegmentPercent != 50 {
		t.Errorf("segment percent = %v, want 50", info.SegmentPercent)
	}
}
