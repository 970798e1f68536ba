// Package triplog persists the simulator's own per-tick output so a drive
// can be replayed or inspected afterwards. It stores positions and risk
// assessments, never the accident dataset itself.
package triplog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/road-risk-sim/simulator/internal/risk"
	"github.com/road-risk-sim/simulator/internal/sim"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQL database holding journeys and their ticks. The default
// backend is SQLite; a Postgres DSN with driver "pgx" works against the same
// schema.
type Store struct {
	conn   *sql.DB
	driver string
}

// Tick is one row of the journey log. Assessment is nil on ticks where the
// risk engine was not consulted.
type Tick struct {
	Step       int
	At         time.Time
	Lat        float64
	Lon        float64
	Progress   sim.Progress
	Assessment *risk.Assessment
}

// Open connects to the trip log database. driver is "sqlite" or "pgx".
func Open(driver, dsn string) (*Store, error) {
	if driver != "sqlite" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported trip log driver %q (want sqlite or pgx)", driver)
	}
	if driver == "sqlite" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open trip log database: %w", err)
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection avoids lock churn.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping trip log database: %w", err)
	}

	log.Printf("Trip log connected: driver=%s", driver)
	return &Store{conn: conn, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the journey tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create trip log schema: %w", err)
		}
	}
	return nil
}

// StartJourney inserts a journey row and returns its generated ID.
func (s *Store) StartJourney(ctx context.Context, routeName, indexBackend string) (string, error) {
	journeyID := uuid.New().String()
	_, err := s.conn.ExecContext(ctx,
		s.rebind("INSERT INTO journeys (journey_id, route_name, index_backend, started_at) VALUES (?, ?, ?, ?)"),
		journeyID, routeName, indexBackend, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start journey: %w", err)
	}
	return journeyID, nil
}

// RecordTick appends one tick to the journey.
func (s *Store) RecordTick(ctx context.Context, journeyID string, t Tick) error {
	var total, sameHour, sameSeason *int
	var score *float64
	var level *string
	if t.Assessment != nil {
		total = &t.Assessment.Total
		sameHour = &t.Assessment.SameHour
		sameSeason = &t.Assessment.SameSeason
		score = &t.Assessment.Score
		lvl := string(t.Assessment.Level)
		level = &lvl
	}

	_, err := s.conn.ExecContext(ctx,
		s.rebind(`INSERT INTO journey_ticks (
			journey_id, step, recorded_at, latitude, longitude,
			segment, overall_percent, speed_kmh,
			total_count, same_hour_count, same_season_count, risk_score, risk_level
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		journeyID, t.Step, t.At.UTC().Format(time.RFC3339), t.Lat, t.Lon,
		t.Progress.Segment, t.Progress.OverallPercent, t.Progress.SpeedKmh,
		total, sameHour, sameSeason, score, level,
	)
	if err != nil {
		return fmt.Errorf("failed to record tick: %w", err)
	}
	return nil
}

// EndJourney marks the journey finished.
func (s *Store) EndJourney(ctx context.Context, journeyID string) error {
	_, err := s.conn.ExecContext(ctx,
		s.rebind("UPDATE journeys SET ended_at = ? WHERE journey_id = ?"),
		time.Now().UTC().Format(time.RFC3339), journeyID,
	)
	if err != nil {
		return fmt.Errorf("failed to end journey: %w", err)
	}
	return nil
}

// TickCount returns how many ticks a journey has recorded.
func (s *Store) TickCount(ctx context.Context, journeyID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM journey_ticks WHERE journey_id = ?"),
		journeyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ticks: %w", err)
	}
	return n, nil
}

// rebind rewrites ? placeholders to $1..$N for the Postgres driver. SQLite
// takes the query as-is.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
