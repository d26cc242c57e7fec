package geospatial

import (
	"math"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// Bounds returns the smallest region enclosing every point.
// Longitudes are compared as plain numbers, so a path crossing the
// antimeridian yields a region spanning the whole longitude range.
func Bounds(points []domain.GeoPoint) domain.BoundingRegion {
	if len(points) == 0 {
		return domain.BoundingRegion{}
	}
	b := domain.BoundingRegion{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Distance returns the great-circle distance in meters between two points.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Bearing returns the initial heading from a to b in [0, 360).
func Bearing(a, b domain.GeoPoint) float64 {
	return InitialBearing(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Destination returns the point distanceMeters from origin along bearingDeg.
func Destination(origin domain.GeoPoint, distanceMeters, bearingDeg float64) domain.GeoPoint {
	lat, lon := Offset(origin.Lat, origin.Lon, distanceMeters, bearingDeg)
	return domain.GeoPoint{Lat: lat, Lon: lon}
}
