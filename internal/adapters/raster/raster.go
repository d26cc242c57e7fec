package raster

import (
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/gogpu/gg"

	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/pkg/geospatial"
	"github.com/samirrijal/curvedlines/internal/pkg/metrics"
)

// Options controls the output canvas.
type Options struct {
	Width        int
	Height       int
	Background   domain.RGBA
	MarkerColor  domain.RGBA
	MarkerRadius float64
	// PaddingPx is used when the snapshot has no camera frame.
	PaddingPx float64
}

// DefaultOptions returns a 640x480 canvas on a dark background.
func DefaultOptions() Options {
	return Options{
		Width:        640,
		Height:       480,
		Background:   domain.RGBA{R: 0x24, G: 0x2f, B: 0x3e, A: 0xff},
		MarkerColor:  domain.RGBA{R: 0xea, G: 0x43, B: 0x35, A: 0xff},
		MarkerRadius: 6,
		PaddingPx:    50,
	}
}

const maxSide = 4096

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Width > maxSide || o.Height > maxSide {
		return fmt.Errorf("%w: canvas %dx%d outside 1..%d", domain.ErrInvalidParameter, o.Width, o.Height, maxSide)
	}
	return nil
}

// Render paints the snapshot onto a new image.
func Render(snap scene.Snapshot, opts Options) (image.Image, error) {
	dc, err := paint(snap, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG paints the snapshot and writes it to w as PNG.
func EncodePNG(w io.Writer, snap scene.Snapshot, opts Options) error {
	dc, err := paint(snap, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func paint(snap scene.Snapshot, opts Options) (*gg.Context, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(toGG(opts.Background))

	region, padding, ok := viewport(snap, opts.PaddingPx)
	if !ok {
		return dc, nil
	}
	proj := newProjection(region, float64(opts.Width), float64(opts.Height), padding)

	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, pl := range snap.Polylines {
		if pl.Path.Len() < 2 {
			continue
		}
		dc.SetColor(toGG(pl.Style.Color).Color())
		dc.SetLineWidth(pl.Style.StrokeWidth)
		for i, p := range pl.Path.Points {
			x, y := proj.point(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("stroke %s: %w", pl.Handle, err)
		}
	}

	dc.SetColor(toGG(opts.MarkerColor).Color())
	for _, m := range snap.Markers {
		x, y := proj.point(m.Location)
		dc.DrawCircle(x, y, opts.MarkerRadius)
		if err := dc.Fill(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("marker: %w", err)
		}
	}
	return dc, nil
}

// viewport picks the camera frame when present, otherwise the union of all
// drawn paths and markers.
func viewport(snap scene.Snapshot, padding float64) (domain.BoundingRegion, float64, bool) {
	if snap.Camera != nil {
		return snap.Camera.Region, snap.Camera.PaddingPx, true
	}
	var (
		region domain.BoundingRegion
		found  bool
	)
	extend := func(p domain.GeoPoint) {
		b := domain.BoundingRegion{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
		if !found {
			region, found = b, true
			return
		}
		region = region.Union(b)
	}
	for _, pl := range snap.Polylines {
		for _, p := range pl.Path.Points {
			extend(p)
		}
	}
	for _, m := range snap.Markers {
		extend(m.Location)
	}
	if found && region.MinLat == region.MaxLat && region.MinLon == region.MaxLon {
		// a lone marker gets a small neighbourhood instead of an infinite zoom
		region.MinLat, region.MinLon, region.MaxLat, region.MaxLon =
			geospatial.BoundingBox(region.MinLat, region.MinLon, minViewportMeters)
	}
	return region, padding, found
}

const minViewportMeters = 1000

func toGG(c domain.RGBA) gg.RGBA {
	return gg.RGBA2(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

// projection maps Web Mercator coordinates of a region onto the canvas,
// preserving aspect ratio and centering the region.
type projection struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

const maxMercatorLat = 85.05112878

func mercator(p domain.GeoPoint) (float64, float64) {
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat))
	x := p.Lon * math.Pi / 180
	y := math.Log(math.Tan(math.Pi/4 + lat*math.Pi/360))
	return x, y
}

func newProjection(region domain.BoundingRegion, width, height, padding float64) projection {
	minX, minY := mercator(domain.GeoPoint{Lat: region.MinLat, Lon: region.MinLon})
	maxX, maxY := mercator(domain.GeoPoint{Lat: region.MaxLat, Lon: region.MaxLon})

	const eps = 1e-9
	spanX := math.Max(maxX-minX, eps)
	spanY := math.Max(maxY-minY, eps)

	availW := math.Max(width-2*padding, 1)
	availH := math.Max(height-2*padding, 1)
	scale := math.Min(availW/spanX, availH/spanY)

	return projection{
		minX:  minX,
		maxY:  maxY,
		scale: scale,
		offX:  (width - spanX*scale) / 2,
		offY:  (height - spanY*scale) / 2,
	}
}

func (p projection) point(g domain.GeoPoint) (float64, float64) {
	x, y := mercator(g)
	return p.offX + (x-p.minX)*p.scale, p.offY + (p.maxY-y)*p.scale
}
