package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(Middleware())
	app.Get("/curves/:handle", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for _, h := range []string{"poly-1", "poly-2"} {
		if _, err := app.Test(httptest.NewRequest("GET", "/curves/"+h, nil), -1); err != nil {
			t.Fatal(err)
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/curves/:handle", "200"))
	if got != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %v", got)
	}
}

func TestHandler_ServesRegistry(t *testing.T) {
	ArcsBuilt.Inc()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "curvedlines_arc_built_total") {
		t.Errorf("expected arc counter in exposition, got:\n%s", body)
	}
}
