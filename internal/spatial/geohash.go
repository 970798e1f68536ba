package spatial

import (
	"sort"
	"strings"

	"github.com/mmcloughlin/geohash"

	"github.com/road-risk-sim/simulator/internal/accidents"
	"github.com/road-risk-sim/simulator/internal/geo"
)

// geohashPrecision of 7 characters gives cells of roughly 150 m per side,
// comfortably finer than the 2 km look-ahead window.
const geohashPrecision = 7

type geohashEntry struct {
	hash string
	rec  *accidents.Record
}

// geohashIndex keeps records sorted by their geohash so a covering cell code
// becomes a prefix scan over a contiguous run of entries.
type geohashIndex struct {
	entries []geohashEntry
}

func newGeohashIndex(records []*accidents.Record) *geohashIndex {
	entries := make([]geohashEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, geohashEntry{
			hash: geohash.EncodeWithPrecision(rec.Lat, rec.Lon, geohashPrecision),
			rec:  rec,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })
	return &geohashIndex{entries: entries}
}

func (idx *geohashIndex) CandidatesNear(w geo.BBox) []*accidents.Record {
	var out []*accidents.Record
	for _, cell := range coveringCells(w) {
		// All hashes with this cell as prefix form one sorted run.
		start := sort.Search(len(idx.entries), func(i int) bool {
			return idx.entries[i].hash >= cell
		})
		for i := start; i < len(idx.entries) && strings.HasPrefix(idx.entries[i].hash, cell); i++ {
			out = append(out, idx.entries[i].rec)
		}
	}
	return out
}

// coveringCells enumerates every precision-7 geohash cell that intersects the
// window. It walks the cell grid from the cell containing the window's
// south-west corner, sampling cell centers so the enumeration stays aligned
// with the grid and cannot skip a cell.
func coveringCells(w geo.BBox) []string {
	corner := geohash.BoundingBox(geohash.EncodeWithPrecision(w.MinLat, w.MinLon, geohashPrecision))
	cellH := corner.MaxLat - corner.MinLat
	cellW := corner.MaxLng - corner.MinLng

	var cells []string
	seen := make(map[string]struct{})
	for lat := corner.MinLat + cellH/2; lat < w.MaxLat+cellH; lat += cellH {
		for lon := corner.MinLng + cellW/2; lon < w.MaxLon+cellW; lon += cellW {
			cell := geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			cells = append(cells, cell)
		}
	}
	return cells
}
