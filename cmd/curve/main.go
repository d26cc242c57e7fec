// Command curve builds a single arc and prints it as GeoJSON, or renders it
// with its markers to a PNG file.
//
//	curve -from 51.5074,-0.1278 -to 52.2053,0.1218
//	curve -from 51.5074,-0.1278 -to 52.2053,0.1218 -png arc.png
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/samirrijal/curvedlines/internal/adapters/raster"
	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/core/usecases"
	"github.com/samirrijal/curvedlines/internal/pkg/config"
	"github.com/samirrijal/curvedlines/internal/pkg/logging"
	"github.com/samirrijal/curvedlines/internal/pkg/mapstyle"
)

func main() {
	cfg, err := config.Load("curvedlines-cli")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "curve:", err)
		os.Exit(1)
	}
}

// parsePoint reads "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("point %q: want lat,lon", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("point %q: latitude: %w", s, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("point %q: longitude: %w", s, err)
	}
	return domain.GeoPoint{Lat: la, Lon: lo}, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("curve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		from       = fs.String("from", "", "start point as lat,lon")
		to         = fs.String("to", "", "end point as lat,lon")
		curvature  = fs.Float64("curvature", cfg.Arc.Curvature, "central angle in radians, (0, pi)")
		resolution = fs.Int("resolution", cfg.Arc.Resolution, "interior sample count")
		pngPath    = fs.String("png", "", "write a PNG of the arc to this file instead of GeoJSON")
		width      = fs.Int("width", cfg.Render.Width, "PNG width in pixels")
		height     = fs.Int("height", cfg.Render.Height, "PNG height in pixels")
		stylePath  = fs.String("style", cfg.Style.Path, "map style document used for the PNG background")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" {
		return errors.New("-from and -to are required")
	}

	start, err := parsePoint(*from)
	if err != nil {
		return err
	}
	end, err := parsePoint(*to)
	if err != nil {
		return err
	}

	logger := logging.New(stderr, cfg.Log.Level, "text")

	color, err := cfg.Render.Color()
	if err != nil {
		return err
	}

	sc := scene.New()
	svc := usecases.NewCurveService(sc, nil, nil, usecases.CurveOptions{
		Curvature:       cfg.Arc.Curvature,
		Resolution:      cfg.Arc.Resolution,
		Style:           domain.CurveStyle{StrokeWidth: cfg.Render.StrokeWidth, Color: color},
		MarkerIcon:      cfg.Render.MarkerIcon,
		CameraPaddingPx: cfg.Render.CameraPadding,
	})
	req := domain.ArcRequest{Start: start, End: end}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "curvature":
			req.Curvature = curvature
		case "resolution":
			req.Resolution = resolution
		}
	})

	if *pngPath == "" {
		arc, err := svc.Arc(ctx, req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scene.ArcFeatureCollection(arc))
	}

	curve, err := svc.Draw(ctx, usecases.NewCurveSet(), req)
	if err != nil {
		return err
	}

	opts := raster.DefaultOptions()
	opts.Width = *width
	opts.Height = *height
	opts.PaddingPx = cfg.Render.CameraPadding
	opts.Background = mapstyle.LoadOrDefault(*stylePath, logger).Background()

	f, err := os.Create(*pngPath)
	if err != nil {
		return err
	}
	if err := raster.EncodePNG(f, sc.Snapshot(), opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("arc rendered",
		"file", *pngPath,
		"points", curve.Arc.Path.Len(),
		"radius_m", curve.Arc.Radius,
	)
	return nil
}
