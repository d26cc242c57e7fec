package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Arc       ArcConfig       `mapstructure:"arc"`
	Render    RenderConfig    `mapstructure:"render"`
	Style     StyleConfig     `mapstructure:"style"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NATSConfig configures the curve event bus. An empty URL disables it.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig configures the arc cache. An empty address disables it.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// ArcConfig holds the defaults applied to arc requests.
type ArcConfig struct {
	Curvature  float64 `mapstructure:"curvature"` // radians
	Resolution int     `mapstructure:"resolution"`
	CacheTTL   int     `mapstructure:"cache_ttl"` // seconds
}

// RenderConfig describes how curves look on the map.
type RenderConfig struct {
	StrokeWidth   float64 `mapstructure:"stroke_width"`
	StrokeColor   string  `mapstructure:"stroke_color"`
	CameraPadding float64 `mapstructure:"camera_padding"`
	MarkerIcon    string  `mapstructure:"marker_icon"`
	Width         int     `mapstructure:"width"`
	Height        int     `mapstructure:"height"`
}

type StyleConfig struct {
	Path string `mapstructure:"path"`
}

// Color returns the parsed stroke color.
func (r RenderConfig) Color() (domain.RGBA, error) {
	return domain.ParseHexColor(r.StrokeColor)
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("arc.curvature", math.Pi/2)
	v.SetDefault("arc.resolution", 100)
	v.SetDefault("arc.cache_ttl", 3600)
	v.SetDefault("render.stroke_width", 4.0)
	v.SetDefault("render.stroke_color", "#ffffff")
	v.SetDefault("render.camera_padding", 50.0)
	v.SetDefault("render.marker_icon", "ic_pin")
	v.SetDefault("render.width", 640)
	v.SetDefault("render.height", 480)
	v.SetDefault("style.path", "configs/mapStyle.json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CURVEDLINES_ARC_RESOLUTION → arc.resolution
	v.SetEnvPrefix("CURVEDLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Arc.Curvature <= 0 || c.Arc.Curvature >= math.Pi {
		errs = append(errs, fmt.Sprintf("arc.curvature must be in (0, π), got %v", c.Arc.Curvature))
	}
	if c.Arc.Resolution <= 0 || c.Arc.Resolution > 10000 {
		errs = append(errs, fmt.Sprintf("arc.resolution must be 1-10000, got %d", c.Arc.Resolution))
	}
	if c.Arc.CacheTTL <= 0 {
		errs = append(errs, "arc.cache_ttl must be positive")
	}
	if c.Render.StrokeWidth <= 0 {
		errs = append(errs, "render.stroke_width must be positive")
	}
	if _, err := c.Render.Color(); err != nil {
		errs = append(errs, fmt.Sprintf("render.stroke_color: %v", err))
	}
	if c.Render.CameraPadding < 0 {
		errs = append(errs, "render.camera_padding must not be negative")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, "render.width and render.height must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
