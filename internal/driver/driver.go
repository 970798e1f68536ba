// Package driver runs the simulation loop: advance the vehicle, assess the
// surroundings every few ticks, and publish the result to the trip log and
// any listeners. The risk engine is constructed once and handed in; there is
// no global engine state.
package driver

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/road-risk-sim/simulator/internal/geo"
	"github.com/road-risk-sim/simulator/internal/risk"
	"github.com/road-risk-sim/simulator/internal/sim"
	"github.com/road-risk-sim/simulator/internal/triplog"
)

// Snapshot is the per-tick plain-data output for the rendering collaborator.
// Assessment is the most recent one and may lag the position by a few ticks.
type Snapshot struct {
	Step       int              `json:"step"`
	Position   geo.Point        `json:"position"`
	Progress   sim.Progress     `json:"progress"`
	Assessment *risk.Assessment `json:"assessment,omitempty"`
	Finished   bool             `json:"finished"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Broadcaster pushes snapshots to live listeners. Implemented by the
// websocket hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastSnapshot(Snapshot)
}

// Options configures the loop.
type Options struct {
	Interval    time.Duration // wall-clock pause between ticks
	AssessEvery int           // consult the risk engine every Nth tick
	RouteName   string
	Backend     string
}

// Driver owns the simulator and serializes all access to it.
type Driver struct {
	sim         *sim.Simulator
	engine      *risk.Engine
	store       *triplog.Store // nil in degraded mode
	broadcaster Broadcaster
	opts        Options
	now         func() time.Time

	mu        sync.RWMutex
	last      Snapshot
	journeyID string
	step      int
}

// New wires the loop together. store and broadcaster may be nil.
func New(s *sim.Simulator, engine *risk.Engine, store *triplog.Store, b Broadcaster, opts Options) *Driver {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.AssessEvery <= 0 {
		opts.AssessEvery = 5
	}
	d := &Driver{
		sim:         s,
		engine:      engine,
		store:       store,
		broadcaster: b,
		opts:        opts,
		now:         time.Now,
	}
	d.last = Snapshot{Position: s.CurrentPosition(), Progress: s.Progress(), Finished: s.Finished(), UpdatedAt: d.now()}
	return d
}

// Run ticks the simulation until the route is finished or the context is
// canceled. Interruption just stops scheduling further ticks; every tick is a
// self-contained snapshot, so there is nothing to roll back.
func (d *Driver) Run(ctx context.Context) error {
	if d.store != nil {
		journeyID, err := d.store.StartJourney(ctx, d.opts.RouteName, d.opts.Backend)
		if err != nil {
			return err
		}
		d.journeyID = journeyID
		defer func() {
			if err := d.store.EndJourney(context.Background(), d.journeyID); err != nil {
				log.Printf("Warning: failed to close journey: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Simulation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			snap := d.Tick(ctx)
			if snap.Finished {
				log.Println("Vehicle reached its destination")
				return nil
			}
		}
	}
}

// Tick advances the simulation by one step and returns the new snapshot.
func (d *Driver) Tick(ctx context.Context) Snapshot {
	d.mu.Lock()

	pos := d.sim.Advance()
	d.step++

	assessment := d.last.Assessment
	assessed := d.step%d.opts.AssessEvery == 0
	if assessed {
		a := d.engine.Assess(pos, d.now())
		assessment = &a
		log.Printf("Location (%.4f, %.4f) | total=%d sameHour=%d sameSeason=%d | %s",
			pos.Lat, pos.Lon, a.Total, a.SameHour, a.SameSeason, a.Level)
	}

	snap := Snapshot{
		Step:       d.step,
		Position:   pos,
		Progress:   d.sim.Progress(),
		Assessment: assessment,
		Finished:   d.sim.Finished(),
		UpdatedAt:  d.now(),
	}
	d.last = snap
	journeyID := d.journeyID
	d.mu.Unlock()

	if d.store != nil && journeyID != "" {
		tick := triplog.Tick{
			Step:     snap.Step,
			At:       snap.UpdatedAt,
			Lat:      snap.Position.Lat,
			Lon:      snap.Position.Lon,
			Progress: snap.Progress,
		}
		if assessed {
			tick.Assessment = snap.Assessment
		}
		if err := d.store.RecordTick(ctx, journeyID, tick); err != nil {
			log.Printf("Warning: trip log write failed: %v", err)
		}
	}

	if d.broadcaster != nil {
		d.broadcaster.BroadcastSnapshot(snap)
	}
	return snap
}

// Snapshot returns the latest tick output.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// SetSpeed changes the simulator speed; safe to call while the loop runs.
func (d *Driver) SetSpeed(kmh float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sim.SetSpeed(kmh)
}

// Speed returns the current simulator speed.
func (d *Driver) Speed() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sim.Speed()
}
