package http

import (
	"github.com/nats-io/nats.go"

	"github.com/chtimi59/getmaptiles/internal/adapters/postgres"
	"github.com/chtimi59/getmaptiles/internal/adapters/valkey"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sets   *usecases.RectangleSetService
	Render *usecases.RenderService
	Tiles  *usecases.TileService
	NATS   *nats.Conn
	DB     *postgres.DB
	Cache  *valkey.Cache
}
