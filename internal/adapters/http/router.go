package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecated endpoints kept for older dashboard builds
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/positions/latest",
			SunsetDate:  time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/map/viewport",
		},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 with a 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/vehicles", timeout.NewWithContext(ListVehiclesHandler(deps), 15*time.Second))
	v1.Post("/vehicles", timeout.NewWithContext(SaveVehicleHandler(deps), 15*time.Second))
	v1.Get("/vehicles/:id", timeout.NewWithContext(GetVehicleHandler(deps), 15*time.Second))
	v1.Delete("/vehicles/:id", timeout.NewWithContext(DeleteVehicleHandler(deps), 15*time.Second))
	v1.Get("/vehicles/:id/history", timeout.NewWithContext(VehicleHistoryHandler(deps), 15*time.Second))

	v1.Get("/map/viewport", timeout.NewWithContext(MapViewportHandler(deps), 15*time.Second))
	v1.Get("/positions/latest", timeout.NewWithContext(LatestPositionsHandler(deps), 15*time.Second))

	v1.Get("/fees/resolve", timeout.NewWithContext(ResolveFeesHandler(deps), 15*time.Second))
	v1.Post("/fees/reload", timeout.NewWithContext(ReloadFeesHandler(deps), 15*time.Second))

	v1.Get("/geofences", timeout.NewWithContext(ListGeofencesHandler(deps), 15*time.Second))
	v1.Post("/geofences", timeout.NewWithContext(SaveGeofenceHandler(deps), 15*time.Second))
	v1.Delete("/geofences/:id", timeout.NewWithContext(DeleteGeofenceHandler(deps), 15*time.Second))

	v1.Post("/import/vehicles", timeout.NewWithContext(ImportVehiclesHandler(deps), 60*time.Second))
	v1.Post("/import/users", timeout.NewWithContext(ImportUsersHandler(deps), 60*time.Second))

	v1.Get("/users", timeout.NewWithContext(ListUsersHandler(deps), 15*time.Second))
	v1.Post("/users", timeout.NewWithContext(SaveUserHandler(deps), 15*time.Second))

	v1.Get("/templates", timeout.NewWithContext(ListTemplatesHandler(deps), 15*time.Second))
	v1.Post("/templates", timeout.NewWithContext(SaveTemplateHandler(deps), 15*time.Second))

	v1.Get("/fleet/status", timeout.NewWithContext(FleetStatusHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
