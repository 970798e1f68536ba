// Package risk scores the accident history around a position against the
// current time of day and season.
package risk

import (
	"fmt"
	"time"

	"github.com/road-risk-sim/simulator/internal/accidents"
	"github.com/road-risk-sim/simulator/internal/geo"
	"github.com/road-risk-sim/simulator/internal/spatial"
)

// Level is the categorical danger classification.
type Level string

const (
	LevelSafe          Level = "Safe"
	LevelModerate      Level = "Moderately Dangerous"
	LevelDangerous     Level = "Dangerous"
	LevelVeryDangerous Level = "Very Dangerous"
)

// Default query parameters, tunable through Options.
const (
	DefaultLookAheadKm = 2.0
	DefaultHourWindow  = 1
	DefaultDayWindow   = 30
)

// Assessment is the per-query result: the three candidate counts, the
// weighted score, and its classification. Ephemeral plain data.
type Assessment struct {
	Total      int     `json:"total"`
	SameHour   int     `json:"same_hour"`
	SameSeason int     `json:"same_season"`
	Score      float64 `json:"score"`
	Level      Level   `json:"level"`
}

// Options tune the look-ahead distance and the temporal window widths.
type Options struct {
	LookAheadKm float64
	HourWindow  int // +/- hours around the current hour of day
	DayWindow   int // +/- days around the current day of year
}

// Engine combines a spatial index with the temporal filters. It is pure
// after construction: Assess has no side effects and is safe to call from
// multiple goroutines.
type Engine struct {
	index spatial.Index
	opts  Options
}

// New builds an engine over a successfully constructed index. A nil index is
// refused: load failures upstream must not produce a half-usable engine.
func New(index spatial.Index, opts Options) (*Engine, error) {
	if index == nil {
		return nil, fmt.Errorf("risk: engine requires a built spatial index")
	}
	if opts.LookAheadKm <= 0 {
		opts.LookAheadKm = DefaultLookAheadKm
	}
	if opts.HourWindow <= 0 {
		opts.HourWindow = DefaultHourWindow
	}
	if opts.DayWindow <= 0 {
		opts.DayWindow = DefaultDayWindow
	}
	return &Engine{index: index, opts: opts}, nil
}

// Assess evaluates the area around p at the given time. Candidates from the
// broad-phase index are refined with an exact window containment test before
// any counting.
func (e *Engine) Assess(p geo.Point, now time.Time) Assessment {
	window := geo.WindowAround(p, e.opts.LookAheadKm)

	var inWindow []*accidents.Record
	for _, rec := range e.index.CandidatesNear(window) {
		if window.Contains(rec.Lat, rec.Lon) {
			inWindow = append(inWindow, rec)
		}
	}
	if len(inWindow) == 0 {
		return Assessment{Level: LevelSafe}
	}

	// The temporal windows deliberately do not wrap: a query at hour 0
	// checks [-1, 1] and never matches hour 23, and a query in early
	// January never matches late December. Preserved from the reference
	// dataset analysis; known limitation.
	hourLo := now.Hour() - e.opts.HourWindow
	hourHi := now.Hour() + e.opts.HourWindow
	dayLo := now.YearDay() - e.opts.DayWindow
	dayHi := now.YearDay() + e.opts.DayWindow

	var sameHour, sameSeason int
	for _, rec := range inWindow {
		if rec.Hour >= hourLo && rec.Hour <= hourHi {
			sameHour++
		}
		if rec.DayOfYear >= dayLo && rec.DayOfYear <= dayHi {
			sameSeason++
		}
	}

	return Classify(len(inWindow), sameHour, sameSeason)
}

// Classify computes the weighted score and its danger level. Recent-history
// relevance weights: any accident counts once, same season counts half again,
// same time of day counts double.
func Classify(total, sameHour, sameSeason int) Assessment {
	score := float64(total)*1 + float64(sameSeason)*1.5 + float64(sameHour)*2

	var level Level
	switch {
	case score > 15:
		level = LevelVeryDangerous
	case score > 8:
		level = LevelDangerous
	case score > 2:
		level = LevelModerate
	default:
		level = LevelSafe
	}

	return Assessment{
		Total:      total,
		SameHour:   sameHour,
		SameSeason: sameSeason,
		Score:      score,
		Level:      level,
	}
}
