package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/http/handlers"
	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/auth"
)

// NewServer builds the console API over a container.
func NewServer(c *app.Container) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               c.Config.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(server, c.Logger, c.Metrics, c.Config.App.RequestTimeout())

	s := c.Stores
	RegisterRoutes(server, RouteConfig{
		Health:         handlers.NewHealthHandler(c.Config.App.Name, c.Config.App.Version, c.KV, c.Client, c.Metrics),
		Auth:           handlers.NewAuthHandler(s.Auth),
		Tickets:        handlers.NewTicketsHandler(s.Solicitudes, s.Detail, s.Overview, s.UI, c.Location),
		Activity:       handlers.NewActivityHandler(s.Activity, s.Detail, c.Notifications),
		Catalog:        handlers.NewCatalogHandler(s.Department),
		Dashboard:      handlers.NewDashboardHandler(s.Dashboard, c.Clock),
		Users:          handlers.NewUsersHandler(s.Users),
		UI:             handlers.NewUIHandler(s.UI),
		AuthMiddleware: auth.NewAuthMiddleware(c.Session, c.Clock),
	})
	return server
}
