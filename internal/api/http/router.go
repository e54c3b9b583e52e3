package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talkahistory/chat-archive/internal/api/http/handlers"
	"github.com/talkahistory/chat-archive/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Conversations  *handlers.ConversationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// NewApp creates the fiber application with the JSON error envelope.
func NewApp(name string, bodyLimit int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      name,
		BodyLimit:    bodyLimit,
		ErrorHandler: fallbackErrorHandler,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	authenticated := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), h}
	}
	admin := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin(), h}
	}

	// Guards are attached per route so an unsupported method on a known
	// path answers 405 before authentication runs.
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/logout", authenticated(cfg.Auth.Logout)...)
	api.Get("/auth/me", authenticated(cfg.Auth.Me)...)

	api.Get("/users", admin(cfg.Users.List)...)
	api.Get("/users/:id", admin(cfg.Users.Get)...)
	api.Post("/users", admin(cfg.Users.Create)...)
	api.Put("/users", admin(cfg.Users.Update)...)
	api.Delete("/users", admin(cfg.Users.Delete)...)

	api.Get("/conversations", authenticated(cfg.Conversations.List)...)
	api.Post("/conversations/import", authenticated(cfg.Conversations.Import)...)
	api.Get("/conversations/:id/messages", authenticated(cfg.Conversations.Messages)...)
	api.Get("/conversations/:id/media", authenticated(cfg.Conversations.Media)...)
}
