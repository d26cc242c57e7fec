package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/pkg/geospatial"
)

const (
	// DefaultCurvature is the central angle used when a request leaves it unset.
	DefaultCurvature = math.Pi / 2
	// DefaultResolution is the number of interpolation steps along the arc.
	DefaultResolution = 100
	// MaxResolution caps the work a single request can ask for.
	MaxResolution = 10000

	// minChordMeters is the separation below which two points are treated as one.
	minChordMeters = 1e-6
)

// BuildArc returns a circular arc from start to end sampled into
// resolution+2 points. The curvature is the central angle subtended by the
// chord, in radians; larger angles bow the arc further out.
//
// The path runs end, arc points, start. The side the arc bows toward is chosen
// from the sign of the longitude difference, which does not hold across the
// antimeridian or near the poles.
func BuildArc(start, end domain.GeoPoint, curvature float64, resolution int) (*domain.Arc, error) {
	se, err := chord(start, end, curvature, resolution)
	if err != nil {
		return nil, err
	}

	me := se / 2
	radius := me / math.Sin(curvature/2)
	mo := radius * math.Cos(curvature/2)

	heading := geospatial.Bearing(start, end)
	mid := geospatial.Destination(start, me, heading)

	direction := 1.0
	if start.Lon-end.Lon > 0 {
		direction = -1.0
	}
	center := geospatial.Destination(mid, mo, heading+90*direction)

	initialHeading := geospatial.Bearing(center, end)
	degree := curvature * 180 / math.Pi

	points := make([]domain.GeoPoint, 0, resolution+2)
	points = append(points, end)
	for i := 1; i <= resolution; i++ {
		step := float64(i) * (degree / float64(resolution))
		points = append(points, geospatial.Destination(center, radius, initialHeading-direction*step))
	}
	points = append(points, start)

	return &domain.Arc{
		Start:      start,
		End:        end,
		Path:       domain.ArcPath{Points: points},
		Bounds:     geospatial.Bounds(points),
		Center:     center,
		Radius:     radius,
		Curvature:  curvature,
		Resolution: resolution,
	}, nil
}

// ValidateArc reports whether BuildArc would accept the inputs.
func ValidateArc(start, end domain.GeoPoint, curvature float64, resolution int) error {
	_, err := chord(start, end, curvature, resolution)
	return err
}

// chord checks the inputs and returns the start to end distance in meters.
func chord(start, end domain.GeoPoint, curvature float64, resolution int) (float64, error) {
	if err := start.Validate(); err != nil {
		return 0, fmt.Errorf("start: %w", err)
	}
	if err := end.Validate(); err != nil {
		return 0, fmt.Errorf("end: %w", err)
	}
	if start.Equal(end) {
		return 0, fmt.Errorf("%w: start equals end %s", domain.ErrDegenerateInput, start)
	}
	if math.IsNaN(curvature) || curvature <= 0 || curvature >= math.Pi {
		return 0, fmt.Errorf("%w: curvature %v outside (0, π)", domain.ErrDegenerateInput, curvature)
	}
	if resolution <= 0 {
		return 0, fmt.Errorf("%w: resolution must be positive, got %d", domain.ErrInvalidParameter, resolution)
	}
	if resolution > MaxResolution {
		return 0, fmt.Errorf("%w: resolution %d exceeds %d", domain.ErrInvalidParameter, resolution, MaxResolution)
	}

	se := geospatial.Distance(start, end)
	if se < minChordMeters {
		return 0, fmt.Errorf("%w: start and end are the same location", domain.ErrDegenerateInput)
	}

	return se, nil
}
