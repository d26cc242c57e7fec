package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/curvedlines/internal/adapters/raster"
	"github.com/samirrijal/curvedlines/internal/adapters/scene"
	"github.com/samirrijal/curvedlines/internal/adapters/valkey"
	"github.com/samirrijal/curvedlines/internal/core/usecases"
	"github.com/samirrijal/curvedlines/internal/pkg/mapstyle"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Curves *usecases.CurveService
	Set    *usecases.CurveSet // curves drawn through the API
	Scene  *scene.Scene
	Style  *mapstyle.Style
	Raster raster.Options
	NATS   *nats.Conn
	Cache  *valkey.Cache
}
