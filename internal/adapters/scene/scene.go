package scene

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// Scene implements ports.Renderer as an in-memory map surface.
type Scene struct {
	mu        sync.Mutex
	seq       uint64
	polylines map[domain.Handle]domain.Polyline
	order     []domain.Handle
	markers   []domain.Marker
	camera    *domain.CameraFrame
}

// Snapshot is a point-in-time copy of a Scene.
type Snapshot struct {
	Polylines []domain.Polyline   `json:"polylines"`
	Markers   []domain.Marker     `json:"markers"`
	Camera    *domain.CameraFrame `json:"camera,omitempty"`
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{polylines: make(map[domain.Handle]domain.Polyline)}
}

// RenderPolyline stores a copy of path and returns its handle.
func (s *Scene) RenderPolyline(ctx context.Context, path domain.ArcPath, style domain.CurveStyle) (domain.Handle, error) {
	if path.Len() < 2 {
		return "", fmt.Errorf("%w: polyline needs at least 2 points, got %d", domain.ErrInvalidParameter, path.Len())
	}
	pts := append([]domain.GeoPoint(nil), path.Points...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	h := domain.Handle(fmt.Sprintf("poly-%d", s.seq))
	s.polylines[h] = domain.Polyline{Handle: h, Path: domain.ArcPath{Points: pts}, Style: style}
	s.order = append(s.order, h)
	return h, nil
}

// RemovePolyline detaches a polyline. Unknown handles are an error.
func (s *Scene) RemovePolyline(ctx context.Context, h domain.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polylines[h]; !ok {
		return fmt.Errorf("polyline %s not found", h)
	}
	delete(s.polylines, h)
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// RenderMarker places a marker.
func (s *Scene) RenderMarker(ctx context.Context, at domain.GeoPoint, icon string) error {
	s.mu.Lock()
	s.markers = append(s.markers, domain.Marker{Location: at, Icon: icon})
	s.mu.Unlock()
	return nil
}

// FrameCamera records the region the view should fit.
func (s *Scene) FrameCamera(ctx context.Context, region domain.BoundingRegion, paddingPx float64) error {
	if paddingPx < 0 {
		return fmt.Errorf("%w: negative camera padding %v", domain.ErrInvalidParameter, paddingPx)
	}
	s.mu.Lock()
	s.camera = &domain.CameraFrame{Region: region, PaddingPx: paddingPx}
	s.mu.Unlock()
	return nil
}

// Reset removes markers and the camera frame. Polylines are only removed
// through their handles.
func (s *Scene) Reset() {
	s.mu.Lock()
	s.markers = nil
	s.camera = nil
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the scene. Polylines are in drawing order.
func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Polylines: make([]domain.Polyline, 0, len(s.order)),
		Markers:   append([]domain.Marker(nil), s.markers...),
	}
	for _, h := range s.order {
		p := s.polylines[h]
		p.Path = domain.ArcPath{Points: append([]domain.GeoPoint(nil), p.Path.Points...)}
		snap.Polylines = append(snap.Polylines, p)
	}
	if s.camera != nil {
		c := *s.camera
		snap.Camera = &c
	}
	return snap
}
