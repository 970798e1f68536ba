package geo

import "math"

const earthRadiusMeters = 6371000

// latDegreeKm is the approximate length of one degree of latitude.
// Longitude degrees shrink by cos(latitude).
const latDegreeKm = 111.1

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is an axis-aligned rectangle in lat/lon space.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box. Bounds are closed,
// matching a rectangle-intersection test against a degenerate point box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// WindowAround builds the look-ahead search window: a rectangle centered on p
// whose half-extent is km kilometers, converted to degrees with the flat
// 111.1 km/degree latitude constant and a cos(lat) longitude correction.
func WindowAround(p Point, km float64) BBox {
	lonDegreeKm := latDegreeKm * math.Cos(p.Lat*math.Pi/180)
	offsetLat := km / latDegreeKm
	offsetLon := km / lonDegreeKm
	return BBox{
		MinLat: p.Lat - offsetLat,
		MinLon: p.Lon - offsetLon,
		MaxLat: p.Lat + offsetLat,
		MaxLon: p.Lon + offsetLon,
	}
}

// Haversine calculates the distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Bearing calculates the bearing from point 1 to point 2 in degrees (0-360)
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	x := math.Sin(deltaLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	bearing := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// Interpolate linearly blends latitude and longitude between two points.
// Not great-circle interpolation; fine for the short segments a road
// polyline produces.
func Interpolate(start, end Point, fraction float64) Point {
	return Point{
		Lat: start.Lat + (end.Lat-start.Lat)*fraction,
		Lon: start.Lon + (end.Lon-start.Lon)*fraction,
	}
}

// IsValidCoordinate checks that a pair is a plausible WGS84 coordinate.
// Catches (0,0) and swapped lat/lon values from malformed input rows.
func IsValidCoordinate(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
