package usecases_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/core/usecases"
	"github.com/samirrijal/curvedlines/internal/pkg/geospatial"
)

var (
	london    = domain.GeoPoint{Lat: 51.5287714, Lon: -0.2420222}
	cambridge = domain.GeoPoint{Lat: 52.1988895, Lon: 0.0848821}
)

func TestBuildArc_LondonCambridge(t *testing.T) {
	arc, err := usecases.BuildArc(london, cambridge, math.Pi/2, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arc.Path.Len() != 102 {
		t.Fatalf("expected 102 points, got %d", arc.Path.Len())
	}
	if arc.Path.First() != cambridge {
		t.Errorf("expected first point %v, got %v", cambridge, arc.Path.First())
	}
	if arc.Path.Last() != london {
		t.Errorf("expected last point %v, got %v", london, arc.Path.Last())
	}

	var maxOffset float64
	for _, p := range arc.Path.Points {
		d := geospatial.CrossTrackDistance(p.Lat, p.Lon, london.Lat, london.Lon, cambridge.Lat, cambridge.Lon)
		maxOffset = math.Max(maxOffset, d)
	}
	if maxOffset <= 0 {
		t.Fatal("expected arc to bow away from the chord")
	}
	// Sagitta of a quarter circle is R - R·cos(π/4).
	want := arc.Radius * (1 - math.Cos(math.Pi/4))
	if math.Abs(maxOffset-want) > 0.01*want {
		t.Errorf("expected sagitta ~%.0fm, got %.0fm", want, maxOffset)
	}
}

func TestBuildArc_PointCount(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100, 500} {
		arc, err := usecases.BuildArc(london, cambridge, math.Pi/3, n)
		if err != nil {
			t.Fatalf("resolution %d: unexpected error: %v", n, err)
		}
		if arc.Path.Len() != n+2 {
			t.Errorf("resolution %d: expected %d points, got %d", n, n+2, arc.Path.Len())
		}
	}
}

func TestBuildArc_PointsOnCircle(t *testing.T) {
	for _, curvature := range []float64{0.2, math.Pi / 4, math.Pi / 2, 2.5} {
		arc, err := usecases.BuildArc(london, cambridge, curvature, 50)
		if err != nil {
			t.Fatalf("curvature %f: unexpected error: %v", curvature, err)
		}
		if arc.Radius <= 0 {
			t.Fatalf("curvature %f: expected positive radius, got %f", curvature, arc.Radius)
		}
		inner := arc.Path.Points[1 : arc.Path.Len()-1]
		for i, p := range inner {
			d := geospatial.Distance(arc.Center, p)
			if math.Abs(d-arc.Radius) > 1e-6*arc.Radius {
				t.Errorf("curvature %f: point %d at %fm from center, radius %fm", curvature, i, d, arc.Radius)
			}
		}
	}
}

func TestBuildArc_RadiusGrowsAsCurvatureShrinks(t *testing.T) {
	flat, err := usecases.BuildArc(london, cambridge, 0.3, 10)
	if err != nil {
		t.Fatal(err)
	}
	bowed, err := usecases.BuildArc(london, cambridge, 2.0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if flat.Radius <= bowed.Radius {
		t.Errorf("expected smaller curvature to give a larger radius: %f <= %f", flat.Radius, bowed.Radius)
	}
}

func TestBuildArc_Symmetric(t *testing.T) {
	forward, err := usecases.BuildArc(london, cambridge, math.Pi/2, 100)
	if err != nil {
		t.Fatal(err)
	}
	backward, err := usecases.BuildArc(cambridge, london, math.Pi/2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if backward.Path.First() != london || backward.Path.Last() != cambridge {
		t.Fatalf("reversed arc endpoints wrong: %v .. %v", backward.Path.First(), backward.Path.Last())
	}

	// Both arcs must trace the same circle.
	tol := 0.005 * forward.Radius
	for i, p := range forward.Path.Points[1 : forward.Path.Len()-1] {
		d := geospatial.Distance(backward.Center, p)
		if math.Abs(d-backward.Radius) > tol {
			t.Errorf("forward point %d is %.1fm off the reversed circle", i, math.Abs(d-backward.Radius))
		}
	}
	if d := geospatial.Distance(forward.Center, backward.Center); d > tol {
		t.Errorf("centers differ by %.1fm", d)
	}
}

func TestBuildArc_Bounds(t *testing.T) {
	arc, err := usecases.BuildArc(london, cambridge, math.Pi/2, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range arc.Path.Points {
		if !arc.Bounds.Contains(p) {
			t.Errorf("point %d %v outside bounds %+v", i, p, arc.Bounds)
		}
	}
	if arc.Bounds != geospatial.Bounds(arc.Path.Points) {
		t.Errorf("bounds not minimal: %+v", arc.Bounds)
	}
}

func TestBuildArc_Idempotent(t *testing.T) {
	a, err := usecases.BuildArc(london, cambridge, math.Pi/2, 100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := usecases.BuildArc(london, cambridge, math.Pi/2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical output for identical input")
	}
}

func TestBuildArc_Errors(t *testing.T) {
	tests := []struct {
		name       string
		start, end domain.GeoPoint
		curvature  float64
		resolution int
		want       error
	}{
		{"same point", london, london, math.Pi / 2, 100, domain.ErrDegenerateInput},
		{"antimeridian alias", domain.GeoPoint{Lat: 0, Lon: 180}, domain.GeoPoint{Lat: 0, Lon: -180}, math.Pi / 2, 100, domain.ErrDegenerateInput},
		{"zero curvature", london, cambridge, 0, 100, domain.ErrDegenerateInput},
		{"negative curvature", london, cambridge, -1, 100, domain.ErrDegenerateInput},
		{"pi curvature", london, cambridge, math.Pi, 100, domain.ErrDegenerateInput},
		{"NaN curvature", london, cambridge, math.NaN(), 100, domain.ErrDegenerateInput},
		{"zero resolution", london, cambridge, math.Pi / 2, 0, domain.ErrInvalidParameter},
		{"negative resolution", london, cambridge, math.Pi / 2, -5, domain.ErrInvalidParameter},
		{"huge resolution", london, cambridge, math.Pi / 2, usecases.MaxResolution + 1, domain.ErrInvalidParameter},
		{"bad latitude", domain.GeoPoint{Lat: 91, Lon: 0}, cambridge, math.Pi / 2, 100, domain.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arc, err := usecases.BuildArc(tt.start, tt.end, tt.curvature, tt.resolution)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if arc != nil {
				t.Error("expected no partial result")
			}
		})
	}
}
