package server

import (
	"log"
	"net/http"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/road-risk-sim/simulator/internal/geo"
)

// handleVehiclePositions serves the simulated vehicle as a one-entity GTFS-RT
// VehiclePositions feed, the same format live transit maps already poll.
func (s *Server) handleVehiclePositions(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Snapshot()
	ts := uint64(snap.UpdatedAt.Unix())

	position := &gtfs.Position{
		Latitude:  proto.Float32(float32(snap.Position.Lat)),
		Longitude: proto.Float32(float32(snap.Position.Lon)),
		Speed:     proto.Float32(float32(snap.Progress.SpeedKmh / 3.6)),
	}
	// Heading follows the segment being traversed; at the terminal point
	// there is no onward segment, so the field stays unset.
	if seg := snap.Progress.Segment; seg >= 0 && seg < len(s.route)-1 {
		a, b := s.route[seg], s.route[seg+1]
		position.Bearing = proto.Float32(float32(geo.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)))
	}

	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(ts),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String(s.vehicleID),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle: &gtfs.VehicleDescriptor{
						Id:    proto.String(s.vehicleID),
						Label: proto.String("simulated vehicle"),
					},
					Position:  position,
					Timestamp: proto.Uint64(ts),
				},
			},
		},
	}

	data, err := proto.Marshal(feed)
	if err != nil {
		log.Printf("gtfsrt marshal error: %v", err)
		http.Error(w, "failed to encode feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(data)
}
