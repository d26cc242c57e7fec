package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point is a usable coordinate.
// Longitude 180 is accepted and treated as -180.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return fmt.Errorf("%w: coordinate is NaN", ErrInvalidParameter)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range: %v", ErrInvalidParameter, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude out of range: %v", ErrInvalidParameter, p.Lon)
	}
	return nil
}

// Equal reports whether both coordinates are identical.
func (p GeoPoint) Equal(o GeoPoint) bool {
	return p.Lat == o.Lat && p.Lon == o.Lon
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", p.Lat, p.Lon)
}

// ArcPath is an ordered sequence of coordinates approximating an arc.
// The first point is the end location and the last point is the start location.
type ArcPath struct {
	Points []GeoPoint `json:"coordinates"`
}

// Len returns the number of points in the path.
func (p ArcPath) Len() int { return len(p.Points) }

// First returns the first point of the path.
func (p ArcPath) First() GeoPoint { return p.Points[0] }

// Last returns the last point of the path.
func (p ArcPath) Last() GeoPoint { return p.Points[len(p.Points)-1] }

// BoundingRegion represents a geographic bounding box.
type BoundingRegion struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the region, edges included.
func (b BoundingRegion) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Union returns the smallest region enclosing both b and o.
func (b BoundingRegion) Union(o BoundingRegion) BoundingRegion {
	return BoundingRegion{
		MinLat: math.Min(b.MinLat, o.MinLat),
		MinLon: math.Min(b.MinLon, o.MinLon),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
	}
}
