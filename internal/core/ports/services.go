package ports

import (
	"context"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// Renderer is the map surface curves are drawn onto.
type Renderer interface {
	// RenderPolyline draws the path and returns a handle for later removal.
	RenderPolyline(ctx context.Context, path domain.ArcPath, style domain.CurveStyle) (domain.Handle, error)
	// RemovePolyline detaches a previously drawn path from the surface.
	RemovePolyline(ctx context.Context, h domain.Handle) error
	// RenderMarker places a marker.
	RenderMarker(ctx context.Context, at domain.GeoPoint, icon string) error
	// FrameCamera moves the view so the region fits with the given padding.
	FrameCamera(ctx context.Context, region domain.BoundingRegion, paddingPx float64) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCurveEvent(ctx context.Context, event *domain.CurveEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
