package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Rectangle sets
	v1.Get("/sets", timeout.NewWithContext(ListSetsHandler(deps), requestTimeout))
	v1.Post("/sets", timeout.NewWithContext(CreateSetHandler(deps), requestTimeout))
	v1.Get("/sets/:name", timeout.NewWithContext(GetSetHandler(deps), requestTimeout))
	v1.Put("/sets/:name", timeout.NewWithContext(PutSetHandler(deps), requestTimeout))
	v1.Delete("/sets/:name", timeout.NewWithContext(DeleteSetHandler(deps), requestTimeout))
	v1.Get("/sets/:name/paths", timeout.NewWithContext(SetPathsHandler(deps), requestTimeout))
	v1.Get("/sets/:name/descriptors", timeout.NewWithContext(SetDescriptorsHandler(deps), requestTimeout))
	v1.Get("/rectangles", timeout.NewWithContext(RectanglesHandler(deps), requestTimeout))

	// Map rendering
	v1.Get("/render", FormatsHandler(deps))
	v1.Get("/render/:format", timeout.NewWithContext(RenderHandler(deps), requestTimeout))
	app.Get("/map", timeout.NewWithContext(RenderHandler(deps), requestTimeout))

	// Tile pyramid
	v1.Get("/tiles/coverage", TileCoverageHandler(deps))
	v1.Get("/tiles/trace", TileTraceHandler(deps))
	v1.Get("/tiles/:name", GetTileHandler(deps))
	v1.Post("/surveys", timeout.NewWithContext(StartSurveyHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, DefaultSpecPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
