package geospatial

import "math"

// InitialBearing returns the heading in degrees, clockwise from north and in
// [0, 360), of the shortest great-circle path from the first point to the second.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := toRad(lat1)
	φ2 := toRad(lat2)
	Δλ := toRad(lon2 - lon1)

	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return Wrap360(toDeg(math.Atan2(y, x)))
}

// Offset returns the destination reached by travelling distanceMeters from the
// origin along the great circle with the given initial bearing. The returned
// longitude is in [-180, 180).
func Offset(lat, lon, distanceMeters, bearingDeg float64) (float64, float64) {
	δ := distanceMeters / EarthRadiusMeters
	θ := toRad(bearingDeg)
	φ1 := toRad(lat)
	λ1 := toRad(lon)

	sinφ2 := math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(θ)
	φ2 := math.Asin(sinφ2)
	Δλ := math.Atan2(math.Sin(θ)*math.Sin(δ)*math.Cos(φ1), math.Cos(δ)-math.Sin(φ1)*sinφ2)

	return toDeg(φ2), WrapLongitude(toDeg(λ1 + Δλ))
}

// Wrap360 maps an angle in degrees into [0, 360).
func Wrap360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// WrapLongitude maps a longitude in degrees into [-180, 180).
func WrapLongitude(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	return Wrap360(lon+180) - 180
}

// CrossTrackDistance returns the unsigned distance in meters from the point to
// the great circle through the two path points.
func CrossTrackDistance(lat, lon, lat1, lon1, lat2, lon2 float64) float64 {
	δ13 := Haversine(lat1, lon1, lat, lon) / EarthRadiusMeters
	θ13 := toRad(InitialBearing(lat1, lon1, lat, lon))
	θ12 := toRad(InitialBearing(lat1, lon1, lat2, lon2))
	return math.Abs(math.Asin(math.Sin(δ13)*math.Sin(θ13-θ12)) * EarthRadiusMeters)
}
