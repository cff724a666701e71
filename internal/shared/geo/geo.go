// Package geo holds the coordinate type shared by tracking, directions and
// the route library, along with great-circle distance helpers.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	EarthRadiusM  = 6371000.0
	MetersPerMile = 1609.344
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceMeters(Point{Lat: lat1, Lng: lng1}, Point{Lat: lat2, Lng: lng2}) / 1000
}

// PathMeters sums the distance between consecutive points.
func PathMeters(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceMeters(path[i-1], path[i])
	}
	return total
}

func MetersToMiles(m float64) float64 {
	return m / MetersPerMile
}

// LineString converts a path into a GeoJSON feature. GeoJSON orders
// coordinates as [lng, lat].
func LineString(path []Point) *geojson.Feature {
	line := make(orb.LineString, 0, len(path))
	for _, p := range path {
		line = append(line, orb.Point{p.Lng, p.Lat})
	}
	return geojson.NewFeature(line)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
