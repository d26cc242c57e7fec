package http_test

import (
	"encoding/json"
	"image/png"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	handler "github.com/samirrijal/curvedlines/internal/adapters/http"
	"github.com/samirrijal/curvedlines/internal/adapters/raster"
	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/core/domain"
	"github.com/samirrijal/curvedlines/internal/core/usecases"
	"github.com/samirrijal/curvedlines/internal/pkg/mapstyle"
)

const londonCambridge = "from_lat=51.5074&from_lon=-0.1278&to_lat=52.2053&to_lon=0.1218"

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	sc := scene.New()
	d := &handler.Dependencies{
		Curves: usecases.NewCurveService(sc, nil, nil, usecases.DefaultCurveOptions()),
		Set:    usecases.NewCurveSet(),
		Scene:  sc,
		Style:  mapstyle.Default(),
		Raster: raster.DefaultOptions(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeAPIError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

func drawCurve(t *testing.T, app *fiber.App, body string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/curves", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

const londonCambridgeBody = `{"start":{"lat":51.5074,"lon":-0.1278},"end":{"lat":52.2053,"lon":0.1218}}`

// ---- Arc handler tests ----

func TestArc_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/arc?"+londonCambridge, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var arc domain.Arc
	if err := json.NewDecoder(resp.Body).Decode(&arc); err != nil {
		t.Fatal(err)
	}
	if arc.Path.Len() != 102 {
		t.Errorf("expected 102 points, got %d", arc.Path.Len())
	}
	if arc.Path.First() != (domain.GeoPoint{Lat: 52.2053, Lon: 0.1218}) {
		t.Errorf("expected path to start at the end point, got %v", arc.Path.First())
	}
	if arc.Path.Last() != (domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}) {
		t.Errorf("expected path to finish at the start point, got %v", arc.Path.Last())
	}
	if got := resp.Header.Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("expected arc to be cacheable, got %q", got)
	}
}

func TestArc_CustomParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/arc?"+londonCambridge+"&curvature=0.5&resolution=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var arc domain.Arc
	json.NewDecoder(resp.Body).Decode(&arc)
	if arc.Path.Len() != 12 {
		t.Errorf("expected 12 points, got %d", arc.Path.Len())
	}
	if arc.Curvature != 0.5 {
		t.Errorf("expected curvature 0.5, got %v", arc.Curvature)
	}
}

func TestArc_GeoJSON(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/arc?"+londonCambridge+"&format=geojson", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "geo+json") {
		t.Errorf("expected geo+json content type, got %q", ct)
	}

	body := readBody(t, resp.Body)
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected line + 2 points, got %d features", len(fc.Features))
	}
	line, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected first feature to be the line, got %s", fc.Features[0].Geometry.GeoJSONType())
	}
	if len(line) != 102 || line[len(line)-1] != (orb.Point{-0.1278, 51.5074}) {
		t.Errorf("expected 102 [lon, lat] positions ending at the start, got %d ending %v", len(line), line[len(line)-1])
	}
	if len(fc.BBox) != 4 {
		t.Errorf("expected bbox with 4 values, got %v", fc.BBox)
	}
}

func TestArc_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing params", "from_lat=51.5"},
		{"non-numeric", "from_lat=abc&from_lon=0&to_lat=1&to_lon=1"},
		{"same point", "from_lat=51.5&from_lon=0&to_lat=51.5&to_lon=0"},
		{"latitude out of range", "from_lat=91&from_lon=0&to_lat=1&to_lon=1"},
		{"curvature too large", londonCambridge + "&curvature=3.5"},
		{"negative curvature", londonCambridge + "&curvature=-1"},
		{"negative resolution", londonCambridge + "&resolution=-5"},
		{"bad resolution", londonCambridge + "&resolution=many"},
		{"explicit zero curvature", londonCambridge + "&curvature=0"},
		{"explicit zero resolution", londonCambridge + "&resolution=0"},
		{"bad format", londonCambridge + "&format=kml"},
	}

	app := setupApp(makeDeps())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/arc?"+tt.query, nil)
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			apiErr := decodeAPIError(t, resp.Body)
			if apiErr.Code != "bad_request" {
				t.Errorf("expected code bad_request, got %q", apiErr.Code)
			}
			if apiErr.RequestID == "" {
				t.Error("expected request id in error body")
			}
		})
	}
}

func TestArc_ETag(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/arc?"+londonCambridge, nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/arc?"+londonCambridge, nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Curve handler tests ----

func TestCurves_DrawListClear(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	drawCurve(t, app, londonCambridgeBody)
	drawCurve(t, app, `{"start":{"lat":40.4168,"lon":-3.7038},"end":{"lat":43.263,"lon":-2.935},"resolution":20}`)

	if deps.Set.Len() != 2 {
		t.Fatalf("expected 2 tracked curves, got %d", deps.Set.Len())
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/curves?limit=1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %q", link)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
	var page struct {
		Data       []domain.Polyline `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 2 || len(page.Data) != 1 {
		t.Errorf("expected 1 of 2 curves, got %d of %d", len(page.Data), page.Pagination.Total)
	}
	if page.Data[0].Path.Len() != 102 {
		t.Errorf("expected first curve with 102 points, got %d", page.Data[0].Path.Len())
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/curves", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	json.NewDecoder(resp.Body).Decode(&cleared)
	if cleared.Cleared != 2 {
		t.Errorf("expected 2 cleared, got %d", cleared.Cleared)
	}
	if deps.Set.Len() != 0 {
		t.Errorf("expected empty set after clear, got %d", deps.Set.Len())
	}
	if n := len(deps.Scene.Snapshot().Polylines); n != 0 {
		t.Errorf("expected no polylines on scene, got %d", n)
	}

	// Clearing again is a no-op.
	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/curves", nil), -1)
	json.NewDecoder(resp.Body).Decode(&cleared)
	if cleared.Cleared != 0 {
		t.Errorf("expected 0 cleared on second call, got %d", cleared.Cleared)
	}
}

func TestCurves_DrawInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"start":`},
		{"same point", `{"start":{"lat":1,"lon":1},"end":{"lat":1,"lon":1}}`},
		{"longitude out of range", `{"start":{"lat":1,"lon":200},"end":{"lat":1,"lon":1}}`},
		{"curvature pi", `{"start":{"lat":1,"lon":1},"end":{"lat":2,"lon":2},"curvature":3.141592653589793}`},
		{"explicit zero curvature", `{"start":{"lat":1,"lon":1},"end":{"lat":2,"lon":2},"curvature":0}`},
		{"explicit zero resolution", `{"start":{"lat":1,"lon":1},"end":{"lat":2,"lon":2},"resolution":0}`},
	}

	deps := makeDeps()
	app := setupApp(deps)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/curves", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
	if deps.Set.Len() != 0 {
		t.Errorf("expected nothing drawn, got %d", deps.Set.Len())
	}
}

// ---- Scene handler tests ----

func TestScene_GeoJSON(t *testing.T) {
	app := setupApp(makeDeps())
	drawCurve(t, app, londonCambridgeBody)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/scene", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		t.Fatal(err)
	}
	var lines, points int
	for _, f := range fc.Features {
		switch f.Geometry.GeoJSONType() {
		case "LineString":
			lines++
			if f.Properties["stroke"] != "#ffffffff" {
				t.Errorf("expected white stroke, got %v", f.Properties["stroke"])
			}
		case "Point":
			points++
		}
	}
	if lines != 1 || points != 2 {
		t.Errorf("expected 1 line and 2 markers, got %d and %d", lines, points)
	}
	if len(fc.BBox) != 4 {
		t.Errorf("expected camera bbox, got %v", fc.BBox)
	}
}

func TestScene_Reset(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)
	drawCurve(t, app, londonCambridgeBody)

	resp, _ := app.Test(httptest.NewRequest("DELETE", "/v1/scene", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	snap := deps.Scene.Snapshot()
	if len(snap.Polylines) != 0 || len(snap.Markers) != 0 || snap.Camera != nil {
		t.Errorf("expected empty scene, got %+v", snap)
	}
	if deps.Set.Len() != 0 {
		t.Errorf("expected empty set, got %d", deps.Set.Len())
	}
}

func TestScene_PNG(t *testing.T) {
	app := setupApp(makeDeps())
	drawCurve(t, app, londonCambridgeBody)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/scene.png?width=64&height=48", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestScene_PNGBadSize(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{"width=0", "height=99999", "width=wide"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/scene.png?"+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestStyle(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/style", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := string(readBody(t, resp.Body)); got != string(deps.Style.Raw()) {
		t.Errorf("expected raw style document, got %s", got)
	}
}

func TestStyle_NotLoaded(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Style = nil }))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/style", nil), -1)
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestReady_NoBackends(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 without optional backends, got %d", resp.StatusCode)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["nats"] != "not configured" || body.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks: %v", body.Checks)
	}
}

// ---- GraphQL tests ----

func graphQL(t *testing.T, app *fiber.App, query string) map[string]interface{} {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGraphQL_Arc(t *testing.T) {
	app := setupApp(makeDeps())

	result := graphQL(t, app, `{ arc(fromLat: 51.5074, fromLon: -0.1278, toLat: 52.2053, toLon: 0.1218, resolution: 8) {
		pointCount radius start { lat lon } bounds { min_lat max_lat } path { lat }
	} }`)
	if errs, ok := result["errors"]; ok {
		t.Fatalf("unexpected errors: %v", errs)
	}

	arc := result["data"].(map[string]interface{})["arc"].(map[string]interface{})
	if arc["pointCount"].(float64) != 10 {
		t.Errorf("expected 10 points, got %v", arc["pointCount"])
	}
	if len(arc["path"].([]interface{})) != 10 {
		t.Errorf("expected 10 path entries, got %d", len(arc["path"].([]interface{})))
	}
	if arc["start"].(map[string]interface{})["lat"].(float64) != 51.5074 {
		t.Errorf("unexpected start %v", arc["start"])
	}
	if arc["radius"].(float64) <= 0 {
		t.Errorf("expected positive radius, got %v", arc["radius"])
	}
}

func TestGraphQL_ArcDegenerate(t *testing.T) {
	app := setupApp(makeDeps())

	result := graphQL(t, app, `{ arc(fromLat: 10, fromLon: 10, toLat: 10, toLon: 10) { radius } }`)
	if _, ok := result["errors"]; !ok {
		t.Error("expected errors for identical points")
	}
}

func TestGraphQL_ArcExplicitZero(t *testing.T) {
	app := setupApp(makeDeps())

	for _, arg := range []string{"resolution: 0", "curvature: 0"} {
		result := graphQL(t, app, `{ arc(fromLat: 51.5074, fromLon: -0.1278, toLat: 52.2053, toLon: 0.1218, `+arg+`) { radius } }`)
		if _, ok := result["errors"]; !ok {
			t.Errorf("%s: expected errors, got %v", arg, result["data"])
		}
	}
}

func TestGraphQL_DrawAndClear(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	result := graphQL(t, app, `mutation { drawCurve(fromLat: 51.5074, fromLon: -0.1278, toLat: 52.2053, toLon: 0.1218) { handle arc { pointCount } } }`)
	if errs, ok := result["errors"]; ok {
		t.Fatalf("unexpected errors: %v", errs)
	}
	curve := result["data"].(map[string]interface{})["drawCurve"].(map[string]interface{})
	if curve["handle"] == "" {
		t.Error("expected a handle")
	}

	result = graphQL(t, app, `{ curves }`)
	curves := result["data"].(map[string]interface{})["curves"].([]interface{})
	if len(curves) != 1 || curves[0] != curve["handle"] {
		t.Errorf("expected [%v], got %v", curve["handle"], curves)
	}

	result = graphQL(t, app, `mutation { clearCurves }`)
	if n := result["data"].(map[string]interface{})["clearCurves"].(float64); n != 1 {
		t.Errorf("expected 1 cleared, got %v", n)
	}
	if deps.Set.Len() != 0 {
		t.Errorf("expected empty set, got %d", deps.Set.Len())
	}
}

// ---- WebSocket tests ----

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}
