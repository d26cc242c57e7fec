// Package mapstyle reads map style documents: a JSON array of rules, each
// selecting a feature and element type and listing stylers to apply.
package mapstyle

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// Rule is one entry of a style document.
type Rule struct {
	FeatureType string   `json:"featureType,omitempty"`
	ElementType string   `json:"elementType,omitempty"`
	Stylers     []Styler `json:"stylers"`
}

// Styler is a single styling directive. Only the fields used for rendering
// are decoded; the raw document is kept for clients.
type Styler struct {
	Color      string  `json:"color,omitempty"`
	Visibility string  `json:"visibility,omitempty"`
	Lightness  float64 `json:"lightness,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
}

// Style is a parsed style document.
type Style struct {
	Rules []Rule
	raw   []byte
}

var defaultBackground = domain.RGBA{R: 0x24, G: 0x2f, B: 0x3e, A: 0xff}

const defaultDocument = `[
  {"elementType": "geometry", "stylers": [{"color": "#242f3e"}]},
  {"elementType": "labels.text.fill", "stylers": [{"color": "#746855"}]},
  {"featureType": "water", "elementType": "geometry", "stylers": [{"color": "#17263c"}]}
]`

// Default returns the built-in dark style.
func Default() *Style {
	s, err := Parse([]byte(defaultDocument))
	if err != nil {
		panic("mapstyle: default document: " + err.Error())
	}
	return s
}

// Parse decodes a style document.
func Parse(data []byte) (*Style, error) {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse map style: %w", err)
	}
	return &Style{Rules: rules, raw: append([]byte(nil), data...)}, nil
}

// Load reads and parses the style document at path.
func Load(path string) (*Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map style: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads the style at path, falling back to Default when the
// path is empty or the document cannot be read.
func LoadOrDefault(path string, logger *slog.Logger) *Style {
	if path == "" {
		return Default()
	}
	s, err := Load(path)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("map style unavailable, using default", "path", path, "error", err)
		return Default()
	}
	return s
}

// Raw returns the document as loaded.
func (s *Style) Raw() []byte {
	return s.raw
}

// Background returns the base geometry color: the last geometry color rule
// with no feature type, or with feature type "all" or "landscape".
func (s *Style) Background() domain.RGBA {
	return s.color(defaultBackground, "", "all", "landscape")
}

func (s *Style) color(fallback domain.RGBA, features ...string) domain.RGBA {
	out := fallback
	for _, r := range s.Rules {
		if r.ElementType != "" && r.ElementType != "geometry" && r.ElementType != "geometry.fill" {
			continue
		}
		if !contains(features, r.FeatureType) {
			continue
		}
		for _, st := range r.Stylers {
			if st.Color == "" {
				continue
			}
			if c, err := domain.ParseHexColor(st.Color); err == nil {
				out = c
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
