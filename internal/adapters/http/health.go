package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler is the liveness probe. It also reports the render formats and
// whether tile surveys are available.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		out := fiber.Map{
			"status": "healthy",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		}
		if deps.Render != nil {
			out["formats"] = strings.Join(deps.Render.Formats(), ",")
		}
		if deps.Tiles != nil {
			out["surveys"] = deps.Tiles.SurveysEnabled()
		}
		return c.JSON(out)
	}
}

// pingCheck turns a ping result into a readiness entry.
func pingCheck(err error) (string, bool) {
	if err != nil {
		return "error: " + err.Error(), false
	}
	return "ok", true
}

// ReadyHandler is the readiness probe. The set store must answer; NATS and the
// render cache only count when configured.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := map[string]string{
			"database": "not configured",
			"nats":     "not configured",
			"cache":    "not configured",
		}
		ready := deps.DB != nil

		if deps.DB != nil {
			var ok bool
			checks["database"], ok = pingCheck(deps.DB.Ping(ctx))
			ready = ready && ok
		}
		if deps.NATS != nil {
			checks["nats"] = "ok"
			if !deps.NATS.IsConnected() {
				checks["nats"] = "disconnected"
				ready = false
			}
		}
		if deps.Cache != nil {
			var ok bool
			checks["cache"], ok = pingCheck(deps.Cache.Ping(ctx))
			ready = ready && ok
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
