package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Arc is a sampled circular arc between two locations.
type Arc struct {
	Start      GeoPoint       `json:"start"`
	End        GeoPoint       `json:"end"`
	Path       ArcPath        `json:"path"`
	Bounds     BoundingRegion `json:"bounds"`
	Center     GeoPoint       `json:"center"`
	Radius     float64        `json:"radius"`    // meters
	Curvature  float64        `json:"curvature"` // radians
	Resolution int            `json:"resolution"`
}

// ArcRequest describes an arc to build. A nil curvature or resolution means
// "use the configured default"; an explicit zero is passed through and
// rejected.
type ArcRequest struct {
	Start      GeoPoint `json:"start"`
	End        GeoPoint `json:"end"`
	Curvature  *float64 `json:"curvature,omitempty"`
	Resolution *int     `json:"resolution,omitempty"`
}

// Handle identifies a polyline attached to a rendering surface.
type Handle string

// RGBA is an 8-bit per channel color.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// White is the stroke color used when none is configured.
var White = RGBA{R: 255, G: 255, B: 255, A: 255}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidParameter, s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidParameter, s)
	}
	return RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats the color as "#rrggbbaa".
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// CurveStyle controls how a polyline is stroked.
type CurveStyle struct {
	StrokeWidth float64 `json:"stroke_width"` // pixels
	Color       RGBA    `json:"color"`
}

// Curve is an arc that has been attached to a rendering surface.
type Curve struct {
	Handle    Handle     `json:"handle"`
	Arc       *Arc       `json:"arc"`
	Style     CurveStyle `json:"style"`
	CreatedAt time.Time  `json:"created_at"`
}

// Marker is a pin placed on the map.
type Marker struct {
	Location GeoPoint `json:"location"`
	Icon     string   `json:"icon"`
}

// Polyline is a path drawn on the map.
type Polyline struct {
	Handle Handle     `json:"handle"`
	Path   ArcPath    `json:"path"`
	Style  CurveStyle `json:"style"`
}

// CameraFrame is the region the view was last fitted to.
type CameraFrame struct {
	Region    BoundingRegion `json:"region"`
	PaddingPx float64        `json:"padding_px"`
}

// CurveEvent is published when curves are drawn or cleared.
type CurveEvent struct {
	Type    string    `json:"type"` // "drawn" | "cleared"
	Handles []Handle  `json:"handles"`
	Arc     *Arc      `json:"arc,omitempty"`
	Time    time.Time `json:"time"`
}
