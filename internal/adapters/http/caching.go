package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/map/viewport"):
			ttl = "private, max-age=0" // Live positions, never shared-cache

		case strings.HasPrefix(path, "/v1/fees/resolve"):
			ttl = "public, max-age=300" // Billing config changes rarely

		case strings.HasPrefix(path, "/v1/geofences"):
			ttl = "public, max-age=60"

		case strings.Contains(path, "/history"):
			ttl = "public, max-age=60" // Historical positions are append-only

		case path == "/v1/fleet/status":
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=30" // Short default: fleet data moves fast
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
