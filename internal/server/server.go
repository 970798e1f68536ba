// Package server publishes the simulation's per-tick output as plain data
// over HTTP, websocket, and a GTFS-RT feed. Map rendering happens in an
// external front-end; this is only the boundary it consumes.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/road-risk-sim/simulator/internal/driver"
	"github.com/road-risk-sim/simulator/internal/route"
)

// SnapshotSource yields the latest tick output. Implemented by the driver.
type SnapshotSource interface {
	Snapshot() driver.Snapshot
	SetSpeed(kmh float64)
	Speed() float64
}

// Server holds the HTTP surface for one running simulation.
type Server struct {
	snapshots SnapshotSource
	route     route.Route
	hub       *Hub
	vehicleID string
}

// New builds the server around a snapshot source and the driven route.
func New(snapshots SnapshotSource, r route.Route, hub *Hub, vehicleID string) *Server {
	return &Server{snapshots: snapshots, route: r, hub: hub, vehicleID: vehicleID}
}

// Router assembles the chi router with CORS for the front-end origin.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/route", s.handleRoute)
	r.Post("/api/speed", s.handleSpeed)
	r.Get("/gtfsrt/vehicle-positions", s.handleVehiclePositions)
	r.Get("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"clients":   s.hub.ClientCount(),
		"timestamp": time.Now().UTC(),
	})
}

// handleStatus returns the latest snapshot: position, progress, and the most
// recent risk assessment.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshots.Snapshot())
}

// handleRoute returns the full route as a GeoJSON LineString so the
// front-end can draw it once.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	coords := make([][2]float64, len(s.route))
	for i, p := range s.route {
		coords[i] = [2]float64{p.Lon, p.Lat}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":        "LineString",
		"coordinates": coords,
	})
}

// handleSpeed changes the driving speed mid-simulation.
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SpeedKmh float64 `json:"speed_kmh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SpeedKmh <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "speed_kmh must be a positive number"})
		return
	}
	s.snapshots.SetSpeed(body.SpeedKmh)
	writeJSON(w, http.StatusOK, map[string]float64{"speed_kmh": s.snapshots.Speed()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
