package http

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func TestRequestIDLogMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())

	var fromCtx, fromLocals string
	var logger *slog.Logger
	app.Get("/", func(c *fiber.Ctx) error {
		fromCtx = RequestIDFromCtx(c.UserContext())
		fromLocals, _ = c.Locals("requestid").(string)
		logger = LoggerFromCtx(c.UserContext())
		return c.SendStatus(204)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if fromCtx == "" || fromCtx != fromLocals {
		t.Errorf("expected request id %q in context, got %q", fromLocals, fromCtx)
	}
	if logger == slog.Default() {
		t.Error("expected a request-scoped logger")
	}
}

func TestLoggerFromCtx_Fallback(t *testing.T) {
	if LoggerFromCtx(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
	if RequestIDFromCtx(context.Background()) != "" {
		t.Error("expected empty request id")
	}
}
