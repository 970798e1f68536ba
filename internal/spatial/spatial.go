// Package spatial indexes accident records for fast look-ahead window
// queries. Both backends are broad-phase filters: they may return records
// outside the window but never miss one inside it, so callers must refine
// candidates with an exact point-in-rectangle test.
package spatial

import (
	"errors"
	"fmt"
	"log"

	"github.com/road-risk-sim/simulator/internal/accidents"
	"github.com/road-risk-sim/simulator/internal/geo"
)

// Backend names accepted by New.
const (
	BackendRTree   = "rtree"
	BackendGeohash = "geohash"
)

var (
	// ErrUnknownBackend means the configured index type is not supported.
	ErrUnknownBackend = errors.New("spatial: unknown index backend")
	// ErrEmptyDataset means there is nothing to index; the engine must not
	// be constructed on top of an empty index.
	ErrEmptyDataset = errors.New("spatial: cannot build index over empty dataset")
)

// Index answers broad-phase candidate queries for a search window.
type Index interface {
	// CandidatesNear returns every record that may fall inside the window.
	// The result is a superset of the true geometric intersection set.
	CandidatesNear(w geo.BBox) []*accidents.Record
}

// New builds the requested backend over the full record set. The backend is
// chosen once at construction; an unsupported name is a construction-time
// error, not a runtime branch.
func New(backend string, records []*accidents.Record) (Index, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	switch backend {
	case BackendRTree:
		idx := newRTreeIndex(records)
		log.Printf("Spatial index built: rtree over %d records", len(records))
		return idx, nil
	case BackendGeohash:
		idx := newGeohashIndex(records)
		log.Printf("Spatial index built: geohash (precision %d) over %d records", geohashPrecision, len(records))
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
