// Package sim advances a vehicle along a fixed route polyline, one tick at a
// time, producing interpolated positions for the risk engine to assess.
package sim

import (
	"fmt"

	"github.com/road-risk-sim/simulator/internal/geo"
	"github.com/road-risk-sim/simulator/internal/route"
)

// Simulator holds the cursor state for a drive along one route. The route is
// immutable once handed in; only speed may change mid-drive. Not safe for
// concurrent use; the driver owns it and ticks it from a single goroutine.
type Simulator struct {
	route        route.Route
	segment      int     // index of the segment being traversed
	progress     float64 // fraction of the current segment covered, [0,1)
	speedKmh     float64
	minSpeedKmh  float64
	intervalSecs float64
	stepMeters   float64 // distance covered per tick, derived from speed
	finished     bool
}

// Progress is a plain-data snapshot of how far along the route the vehicle is.
type Progress struct {
	Segment        int     `json:"segment"`
	TotalSegments  int     `json:"total_segments"`
	SegmentPercent float64 `json:"segment_percent"`
	OverallPercent float64 `json:"overall_percent"`
	SpeedKmh       float64 `json:"speed_kmh"`
}

// New creates a simulator at the start of the route. A single-point route has
// no segments to drive, so it starts out already finished.
func New(r route.Route, speedKmh, intervalSecs, minSpeedKmh float64) (*Simulator, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("route must contain at least one point")
	}
	if speedKmh <= 0 || intervalSecs <= 0 {
		return nil, fmt.Errorf("speed and step interval must be positive")
	}
	s := &Simulator{
		route:        r,
		speedKmh:     speedKmh,
		minSpeedKmh:  minSpeedKmh,
		intervalSecs: intervalSecs,
		finished:     len(r) == 1,
	}
	s.recomputeStep()
	return s, nil
}

func (s *Simulator) recomputeStep() {
	s.stepMeters = (s.speedKmh * 1000 / 3600) * s.intervalSecs
}

// CurrentPosition returns the interpolated position on the current segment,
// or the route's terminal point once the polyline is exhausted. The blend is
// linear in lat/lon, not geodesic; adequate for road-length segments.
func (s *Simulator) CurrentPosition() geo.Point {
	if s.finished || s.segment >= len(s.route)-1 {
		return s.route[len(s.route)-1]
	}
	return geo.Interpolate(s.route[s.segment], s.route[s.segment+1], s.progress)
}

// Advance moves the vehicle one tick's worth of distance along the route and
// returns the resulting position. Once finished it is a no-op that keeps
// returning the terminal point.
func (s *Simulator) Advance() geo.Point {
	if s.finished {
		return s.CurrentPosition()
	}
	lastSegment := len(s.route) - 2
	if s.segment > lastSegment {
		// A trailing duplicate vertex skipped us past the final segment.
		s.finished = true
		s.progress = 1
		return s.CurrentPosition()
	}

	start := s.route[s.segment]
	end := s.route[s.segment+1]
	segmentLength := geo.Haversine(start.Lat, start.Lon, end.Lat, end.Lon)

	if segmentLength == 0 {
		// Duplicate vertex: step over it without consuming any distance.
		// The tick's budget is not carried over.
		s.segment++
		s.progress = 0
		return s.CurrentPosition()
	}

	s.progress += s.stepMeters / segmentLength
	if s.progress >= 1.0 {
		if s.segment < lastSegment {
			s.progress = 0
			s.segment++
		} else {
			s.finished = true
		}
	}
	return s.CurrentPosition()
}

// Finished reports whether the vehicle has reached the end of the route.
func (s *Simulator) Finished() bool {
	return s.finished
}

// Segment returns the index of the segment currently being traversed.
func (s *Simulator) Segment() int {
	return s.segment
}

// SetSpeed changes the driving speed, clamped to the configured floor, and
// recomputes the per-tick distance.
func (s *Simulator) SetSpeed(kmh float64) {
	if kmh < s.minSpeedKmh {
		kmh = s.minSpeedKmh
	}
	s.speedKmh = kmh
	s.recomputeStep()
}

// IncreaseSpeed speeds up by 10 km/h.
func (s *Simulator) IncreaseSpeed() {
	s.SetSpeed(s.speedKmh + 10)
}

// DecreaseSpeed slows down by 10 km/h, never below the floor.
func (s *Simulator) DecreaseSpeed() {
	s.SetSpeed(s.speedKmh - 10)
}

// Speed returns the current speed in km/h.
func (s *Simulator) Speed() float64 {
	return s.speedKmh
}

// Progress returns a snapshot of the drive for reporting. A single-point
// route has zero segments and reports 100% without dividing by zero.
func (s *Simulator) Progress() Progress {
	totalSegments := len(s.route) - 1
	info := Progress{
		Segment:        s.segment,
		TotalSegments:  totalSegments,
		SegmentPercent: s.progress * 100,
		SpeedKmh:       s.speedKmh,
	}
	if totalSegments == 0 || s.finished {
		info.OverallPercent = 100
		if totalSegments == 0 {
			info.SegmentPercent = 100
		}
		return info
	}
	info.OverallPercent = (float64(s.segment) + s.progress) / float64(totalSegments) * 100
	return info
}
