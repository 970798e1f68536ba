package spatial

import (
	"github.com/tidwall/rtree"

	"github.com/road-risk-sim/simulator/internal/accidents"
	"github.com/road-risk-sim/simulator/internal/geo"
)

// rtreeIndex stores each record as a degenerate point box in an R-tree and
// answers window queries with a rectangle-intersection search.
type rtreeIndex struct {
	tree rtree.RTreeG[*accidents.Record]
}

func newRTreeIndex(records []*accidents.Record) *rtreeIndex {
	idx := &rtreeIndex{}
	for _, rec := range records {
		p := [2]float64{rec.Lon, rec.Lat}
		idx.tree.Insert(p, p, rec)
	}
	return idx
}

func (idx *rtreeIndex) CandidatesNear(w geo.BBox) []*accidents.Record {
	var out []*accidents.Record
	idx.tree.Search(
		[2]float64{w.MinLon, w.MinLat},
		[2]float64{w.MaxLon, w.MaxLat},
		func(_, _ [2]float64, rec *accidents.Record) bool {
			out = append(out, rec)
			return true
		},
	)
	return out
}
