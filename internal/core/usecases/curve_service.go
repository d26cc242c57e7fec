package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/core/ports"
	"github.com/samirrijal/curvedlines/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/curvedlines/internal/core/usecases")

// CurveOptions configures how curves are built and drawn.
type CurveOptions struct {
	Curvature       float64
	Resolution      int
	Style           domain.CurveStyle
	MarkerIcon      string
	CameraPaddingPx float64
	CacheTTLSeconds int
}

// DefaultCurveOptions mirrors the stock map look: a 4px white line, pins on
// both ends and 50px of padding around the framed curve.
func DefaultCurveOptions() CurveOptions {
	return CurveOptions{
		Curvature:       DefaultCurvature,
		Resolution:      DefaultResolution,
		Style:           domain.CurveStyle{StrokeWidth: 4, Color: domain.White},
		MarkerIcon:      "ic_pin",
		CameraPaddingPx: 50,
		CacheTTLSeconds: 3600,
	}
}

// CurveSet tracks the curves a caller has drawn so they can be cleared later.
// The zero value is ready to use.
type CurveSet struct {
	mu      sync.Mutex
	handles []domain.Handle
}

// NewCurveSet creates an empty CurveSet.
func NewCurveSet() *CurveSet {
	return &CurveSet{}
}

func (s *CurveSet) add(h domain.Handle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

func (s *CurveSet) drain() []domain.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.handles
	s.handles = nil
	return out
}

// Handles returns a copy of the tracked handles in drawing order.
func (s *CurveSet) Handles() []domain.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Handle(nil), s.handles...)
}

// Len returns the number of tracked curves.
func (s *CurveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// CurveService builds arcs and draws them through a Renderer.
type CurveService struct {
	renderer ports.Renderer
	cache    ports.CacheService
	events   ports.EventPublisher
	opts     CurveOptions
}

// NewCurveService creates a new CurveService. cache and events may be nil.
func NewCurveService(renderer ports.Renderer, cache ports.CacheService, events ports.EventPublisher, opts CurveOptions) *CurveService {
	def := DefaultCurveOptions()
	if opts.Curvature == 0 {
		opts.Curvature = def.Curvature
	}
	if opts.Resolution == 0 {
		opts.Resolution = def.Resolution
	}
	if opts.Style.StrokeWidth <= 0 {
		opts.Style.StrokeWidth = def.Style.StrokeWidth
	}
	if opts.Style.Color == (domain.RGBA{}) {
		opts.Style.Color = def.Style.Color
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = def.CacheTTLSeconds
	}
	return &CurveService{renderer: renderer, cache: cache, events: events, opts: opts}
}

// Options returns the effective options.
func (s *CurveService) Options() CurveOptions {
	return s.opts
}

// arcParams is an ArcRequest with defaults applied.
type arcParams struct {
	start, end domain.GeoPoint
	curvature  float64
	resolution int
}

func (s *CurveService) withDefaults(req domain.ArcRequest) arcParams {
	p := arcParams{
		start:      req.Start,
		end:        req.End,
		curvature:  s.opts.Curvature,
		resolution: s.opts.Resolution,
	}
	if req.Curvature != nil {
		p.curvature = *req.Curvature
	}
	if req.Resolution != nil {
		p.resolution = *req.Resolution
	}
	return p
}

// arcCacheKey uses the shortest exact representation of every float so two
// requests share an entry only when their inputs are bit for bit equal.
func arcCacheKey(p arcParams) string {
	return strings.Join([]string{
		"arcs",
		formatFloat(p.start.Lat), formatFloat(p.start.Lon),
		formatFloat(p.end.Lat), formatFloat(p.end.Lon),
		formatFloat(p.curvature),
		strconv.Itoa(p.resolution),
	}, ":")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Arc returns the arc for req, filling unset curvature and resolution from
// the service options. Inputs are validated before the cache is consulted.
func (s *CurveService) Arc(ctx context.Context, req domain.ArcRequest) (*domain.Arc, error) {
	ctx, span := tracer.Start(ctx, "CurveService.Arc")
	defer span.End()

	p := s.withDefaults(req)
	span.SetAttributes(
		attribute.Float64("arc.curvature", p.curvature),
		attribute.Int("arc.resolution", p.resolution),
	)

	if err := ValidateArc(p.start, p.end, p.curvature, p.resolution); err != nil {
		metrics.ArcBuildErrors.WithLabelValues(errorReason(err)).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cacheKey := arcCacheKey(p)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var arc domain.Arc
			if err := json.Unmarshal(data, &arc); err == nil && arc.Start == p.start && arc.End == p.end {
				metrics.CacheHits.WithLabelValues("arc").Inc()
				return &arc, nil
			}
			_ = s.cache.Delete(ctx, cacheKey)
		}
		metrics.CacheMisses.WithLabelValues("arc").Inc()
	}

	arc, err := BuildArc(p.start, p.end, p.curvature, p.resolution)
	if err != nil {
		metrics.ArcBuildErrors.WithLabelValues(errorReason(err)).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.ArcsBuilt.Inc()

	if s.cache != nil {
		if data, err := json.Marshal(arc); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return arc, nil
}

// Draw builds the arc, places markers on both ends, frames the camera on the
// arc and draws it. The new handle is appended to set.
//
// Renderer calls are not rolled back. If drawing the polyline fails, the
// markers and camera framing already applied stay on the surface, set is
// left unchanged and no event is published.
func (s *CurveService) Draw(ctx context.Context, set *CurveSet, req domain.ArcRequest) (*domain.Curve, error) {
	ctx, span := tracer.Start(ctx, "CurveService.Draw")
	defer span.End()

	if set == nil {
		return nil, errors.New("curve set is required")
	}

	arc, err := s.Arc(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.renderer.RenderMarker(ctx, arc.Start, s.opts.MarkerIcon); err != nil {
		return nil, fmt.Errorf("render start marker: %w", err)
	}
	if err := s.renderer.RenderMarker(ctx, arc.End, s.opts.MarkerIcon); err != nil {
		return nil, fmt.Errorf("render end marker: %w", err)
	}
	if err := s.renderer.FrameCamera(ctx, arc.Bounds, s.opts.CameraPaddingPx); err != nil {
		return nil, fmt.Errorf("frame camera: %w", err)
	}

	handle, err := s.renderer.RenderPolyline(ctx, arc.Path, s.opts.Style)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("render polyline: %w", err)
	}
	set.add(handle)
	metrics.CurvesActive.Inc()
	span.SetAttributes(attribute.String("curve.handle", string(handle)))

	curve := &domain.Curve{
		Handle:    handle,
		Arc:       arc,
		Style:     s.opts.Style,
		CreatedAt: time.Now(),
	}

	s.publish(ctx, &domain.CurveEvent{
		Type:    "drawn",
		Handles: []domain.Handle{handle},
		Arc:     arc,
		Time:    curve.CreatedAt,
	})

	return curve, nil
}

// Clear detaches every curve in set from the renderer and empties it.
// It returns how many curves were detached.
func (s *CurveService) Clear(ctx context.Context, set *CurveSet) (int, error) {
	ctx, span := tracer.Start(ctx, "CurveService.Clear")
	defer span.End()

	if set == nil {
		return 0, nil
	}

	handles := set.drain()
	var errs []error
	removed := 0
	for _, h := range handles {
		if err := s.renderer.RemovePolyline(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", h, err))
			continue
		}
		removed++
	}
	metrics.CurvesActive.Sub(float64(len(handles)))
	span.SetAttributes(attribute.Int("curves.cleared", removed))

	if len(handles) > 0 {
		s.publish(ctx, &domain.CurveEvent{
			Type:    "cleared",
			Handles: handles,
			Time:    time.Now(),
		})
	}

	return removed, errors.Join(errs...)
}

func (s *CurveService) publish(ctx context.Context, event *domain.CurveEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCurveEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish curve event failed", "type", event.Type, "error", err)
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrDegenerateInput):
		return "degenerate_input"
	case errors.Is(err, domain.ErrInvalidParameter):
		return "invalid_parameter"
	default:
		return "other"
	}
}
