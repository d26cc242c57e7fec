package scene

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// orb points are [lon, lat].
func point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func lineString(path domain.ArcPath) orb.LineString {
	ls := make(orb.LineString, len(path.Points))
	for i, p := range path.Points {
		ls[i] = point(p)
	}
	return ls
}

func bbox(b domain.BoundingRegion) geojson.BBox {
	return geojson.NewBBox(orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	})
}

// LineFeature converts a path into a LineString feature.
func LineFeature(path domain.ArcPath, props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(lineString(path))
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func pointFeature(p domain.GeoPoint, props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(point(p))
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// ArcFeatureCollection exports a single arc with its end markers.
func ArcFeatureCollection(arc *domain.Arc) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = bbox(arc.Bounds)
	fc.Append(LineFeature(arc.Path, geojson.Properties{
		"radius":     arc.Radius,
		"curvature":  arc.Curvature,
		"resolution": arc.Resolution,
	}))
	fc.Append(pointFeature(arc.Start, geojson.Properties{"role": "start"}))
	fc.Append(pointFeature(arc.End, geojson.Properties{"role": "end"}))
	return fc
}

// FeatureCollection exports the snapshot. The bbox is the camera region when
// the camera has been framed.
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if s.Camera != nil {
		fc.BBox = bbox(s.Camera.Region)
	}
	for _, pl := range s.Polylines {
		fc.Append(LineFeature(pl.Path, geojson.Properties{
			"handle":       string(pl.Handle),
			"stroke":       pl.Style.Color.Hex(),
			"stroke-width": pl.Style.StrokeWidth,
		}))
	}
	for _, m := range s.Markers {
		fc.Append(pointFeature(m.Location, geojson.Properties{
			"marker-symbol": m.Icon,
		}))
	}
	return fc
}
