package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/curvedlines/internal/adapters/http"
	natsadapter "github.com/samirrijal/curvedlines/internal/adapters/nats"
	"github.com/samirrijal/curvedlines/internal/adapters/raster"
	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/adapters/valkey"
	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/core/ports"
	"github.com/samirrijal/curvedlines/internal/core/usecases"
	"github.com/samirrijal/curvedlines/internal/pkg/config"
	"github.com/samirrijal/curvedlines/internal/pkg/logging"
	"github.com/samirrijal/curvedlines/internal/pkg/mapstyle"
	"github.com/samirrijal/curvedlines/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("curvedlines-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Arc cache (optional)
	var cacheSvc ports.CacheService
	var cache *valkey.Cache
	if cfg.Valkey.Addr != "" {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			logger.Warn("valkey unavailable, arcs will not be cached", "error", err)
		} else {
			defer cache.Close()
			cacheSvc = cache
		}
	}

	// Curve events (optional)
	var events ports.EventPublisher
	var wsConn *nats.Conn
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("nats unavailable, curve events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub

			// Separate connection for the WebSocket relay
			wsConn, err = natsadapter.RawConn(cfg.NATS.URL)
			if err != nil {
				logger.Warn("nats ws conn unavailable", "error", err)
			} else {
				defer wsConn.Close()
			}
		}
	}

	color, err := cfg.Render.Color()
	if err != nil {
		log.Fatalf("render color: %v", err)
	}

	style := mapstyle.LoadOrDefault(cfg.Style.Path, logger)

	sc := scene.New()
	curves := usecases.NewCurveService(sc, cacheSvc, events, usecases.CurveOptions{
		Curvature:       cfg.Arc.Curvature,
		Resolution:      cfg.Arc.Resolution,
		Style:           domain.CurveStyle{StrokeWidth: cfg.Render.StrokeWidth, Color: color},
		MarkerIcon:      cfg.Render.MarkerIcon,
		CameraPaddingPx: cfg.Render.CameraPadding,
		CacheTTLSeconds: cfg.Arc.CacheTTL,
	})

	rasterOpts := raster.DefaultOptions()
	rasterOpts.Width = cfg.Render.Width
	rasterOpts.Height = cfg.Render.Height
	rasterOpts.PaddingPx = cfg.Render.CameraPadding
	rasterOpts.Background = style.Background()

	deps := &http.Dependencies{
		Curves: curves,
		Set:    usecases.NewCurveSet(),
		Scene:  sc,
		Style:  style,
		Raster: rasterOpts,
		NATS:   wsConn,
		Cache:  cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CurvedLines API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// Detach whatever is still drawn so subscribers see a final cleared event.
	if n, err := curves.Clear(shutdownCtx, deps.Set); err != nil {
		logger.Warn("clear curves on shutdown", "cleared", n, "error", err)
	}

	logger.Info("server stopped")
}
