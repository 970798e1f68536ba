package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/road-risk-sim/simulator/internal/accidents"
	"github.com/road-risk-sim/simulator/internal/config"
	"github.com/road-risk-sim/simulator/internal/driver"
	"github.com/road-risk-sim/simulator/internal/risk"
	"github.com/road-risk-sim/simulator/internal/route"
	"github.com/road-risk-sim/simulator/internal/server"
	"github.com/road-risk-sim/simulator/internal/sim"
	"github.com/road-risk-sim/simulator/internal/spatial"
	"github.com/road-risk-sim/simulator/internal/triplog"
)

const httpShutdownTimeout = 5 * time.Second

func main() {
	log.Println("Starting road risk simulator...")

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	cfg := config.Load()
	log.Printf("Config loaded: backend=%s, speed=%.0f km/h, tick=%v", cfg.IndexBackend, cfg.SpeedKmh, cfg.StepInterval)

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Load inputs
	// ═══════════════════════════════════════════════════════
	r, err := route.Load(cfg.RouteFile)
	if err != nil {
		log.Fatalf("Failed to load route: %v", err)
	}

	records, err := accidents.Load(cfg.AccidentsFile, cfg.AnalysisYear)
	if err != nil {
		log.Fatalf("Failed to load accident dataset: %v", err)
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Build index and risk engine
	// ═══════════════════════════════════════════════════════
	index, err := spatial.New(cfg.IndexBackend, records)
	if err != nil {
		log.Fatalf("Failed to build spatial index: %v", err)
	}
	engine, err := risk.New(index, risk.Options{
		LookAheadKm: cfg.LookAheadKm,
		HourWindow:  cfg.HourWindow,
		DayWindow:   cfg.DayWindow,
	})
	if err != nil {
		log.Fatalf("Failed to build risk engine: %v", err)
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 3: Open trip log (degraded mode on failure)
	// ═══════════════════════════════════════════════════════
	var store *triplog.Store
	store, err = triplog.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Printf("Warning: trip log unavailable, continuing without it: %v", err)
		store = nil
	} else {
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Printf("Warning: trip log schema failed, continuing without it: %v", err)
			store.Close()
			store = nil
		}
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 4: Wire simulator, driver, and HTTP surface
	// ═══════════════════════════════════════════════════════
	vehicle, err := sim.New(r, cfg.SpeedKmh, cfg.StepInterval.Seconds(), cfg.MinSpeedKmh)
	if err != nil {
		log.Fatalf("Failed to create simulator: %v", err)
	}

	hub := server.NewHub()
	routeName := strings.TrimSuffix(filepath.Base(cfg.RouteFile), filepath.Ext(cfg.RouteFile))
	drv := driver.New(vehicle, engine, store, hub, driver.Options{
		Interval:    cfg.StepInterval,
		AssessEvery: cfg.AssessEveryTick,
		RouteName:   routeName,
		Backend:     cfg.IndexBackend,
	})

	srv := server.New(drv, r, hub, "sim-"+routeName)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(cfg.AllowedOrigins),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("HTTP server listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := drv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Simulation stopped: %v", err)
		}
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 5: Shutdown on signal or arrival
	// ═══════════════════════════════════════════════════════
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Println("Shutting down...")
		cancel()
		<-done
	case <-done:
		log.Println("Drive complete")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}
