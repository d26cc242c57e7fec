package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/curvedlines/internal/adapters/raster"
	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/core/domain"
)

const contentTypeGeoJSON = "application/geo+json"

// queryFloat parses a float query parameter. A missing parameter yields def
// unless required is set.
func queryFloat(c *fiber.Ctx, key string, def float64, required bool) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// parseArcRequest reads from_lat, from_lon, to_lat, to_lon, curvature and resolution.
func parseArcRequest(c *fiber.Ctx) (domain.ArcRequest, error) {
	var req domain.ArcRequest
	var err error
	if req.Start.Lat, err = queryFloat(c, "from_lat", 0, true); err != nil {
		return req, err
	}
	if req.Start.Lon, err = queryFloat(c, "from_lon", 0, true); err != nil {
		return req, err
	}
	if req.End.Lat, err = queryFloat(c, "to_lat", 0, true); err != nil {
		return req, err
	}
	if req.End.Lon, err = queryFloat(c, "to_lon", 0, true); err != nil {
		return req, err
	}
	// An explicit zero is kept so the arc builder can reject it.
	if c.Query("curvature") != "" {
		v, err := queryFloat(c, "curvature", 0, true)
		if err != nil {
			return req, err
		}
		req.Curvature = &v
	}
	if c.Query("resolution") != "" {
		v, err := queryInt(c, "resolution", 0)
		if err != nil {
			return req, err
		}
		req.Resolution = &v
	}
	return req, nil
}

// ArcHandler builds an arc without drawing it.
// GET /v1/arc?from_lat=..&from_lon=..&to_lat=..&to_lon=..[&curvature=..][&resolution=..][&format=geojson]
func ArcHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseArcRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		format := c.Query("format", "json")
		if format != "json" && format != "geojson" {
			return errBadRequest(c, "format must be json or geojson")
		}

		arc, err := deps.Curves.Arc(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}

		if format == "geojson" {
			return c.JSON(scene.ArcFeatureCollection(arc), contentTypeGeoJSON)
		}
		return c.JSON(arc)
	}
}

// DrawCurveHandler builds an arc and draws it on the scene.
// POST /v1/curves {"start":{"lat":..,"lon":..},"end":{..},"curvature":..,"resolution":..}
func DrawCurveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ArcRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		curve, err := deps.Curves.Draw(c.UserContext(), deps.Set, req)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set(fiber.HeaderLocation, "/v1/curves")
		return c.Status(fiber.StatusCreated).JSON(curve)
	}
}

// ListCurvesHandler lists the polylines currently on the scene.
// GET /v1/curves?offset=0&limit=100
func ListCurvesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		all := deps.Scene.Snapshot().Polylines
		total := len(all)
		start := offset
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}

		p := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, p)
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(PaginatedResponse{
			Data:       all[start:end],
			Pagination: p,
		})
	}
}

// ClearCurvesHandler removes every curve drawn through the API.
// DELETE /v1/curves
func ClearCurvesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Curves.Clear(c.UserContext(), deps.Set)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("clear curves", "cleared", n, "error", err)
			return errInternal(c, fmt.Sprintf("cleared %d curves, some could not be removed", n))
		}
		return c.JSON(fiber.Map{"cleared": n})
	}
}

// SceneHandler exports the scene as GeoJSON.
// GET /v1/scene
func SceneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc := deps.Scene.Snapshot().FeatureCollection()
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(fc, contentTypeGeoJSON)
	}
}

// ResetSceneHandler clears every API curve and then drops markers and the
// camera frame.
// DELETE /v1/scene
func ResetSceneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Curves.Clear(c.UserContext(), deps.Set)
		deps.Scene.Reset()
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("reset scene", "cleared", n, "error", err)
			return errInternal(c, fmt.Sprintf("cleared %d curves, some could not be removed", n))
		}
		return c.JSON(fiber.Map{"cleared": n})
	}
}

// ScenePNGHandler rasterizes the scene.
// GET /v1/scene.png?width=640&height=480
func ScenePNGHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := deps.Raster
		var err error
		if opts.Width, err = queryInt(c, "width", opts.Width); err != nil {
			return errBadRequest(c, err.Error())
		}
		if opts.Height, err = queryInt(c, "height", opts.Height); err != nil {
			return errBadRequest(c, err.Error())
		}
		if deps.Style != nil {
			opts.Background = deps.Style.Background()
		}

		var buf bytes.Buffer
		if err := raster.EncodePNG(&buf, deps.Scene.Snapshot(), opts); err != nil {
			return errFromDomain(c, err)
		}

		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	}
}

// StyleHandler serves the map style document.
// GET /v1/style
func StyleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Style == nil {
			return errUnavailable(c, "map style not loaded")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(deps.Style.Raw())
	}
}
