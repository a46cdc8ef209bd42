package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/http/handlers"
	"github.com/spec-kit/miniticker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Activity       *handlers.ActivityHandler
	Catalog        *handlers.CatalogHandler
	Dashboard      *handlers.DashboardHandler
	Users          *handlers.UsersHandler
	UI             *handlers.UIHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset", cfg.Auth.RequestPasswordReset)

	ui := app.Group("/ui")
	ui.Get("/view-mode", cfg.UI.GetViewMode)
	ui.Put("/view-mode", cfg.UI.SetViewMode)

	requireSession := cfg.AuthMiddleware.Handle
	authGroup.Post("/logout", requireSession, cfg.Auth.Logout)
	authGroup.Get("/me", requireSession, cfg.Auth.Me)
	authGroup.Post("/setup", requireSession, cfg.Auth.CompleteSetup)
	app.Get("/notifications", requireSession, cfg.Activity.Notifications)

	tickets := app.Group("/tickets", requireSession, auth.RequireSection(auth.SectionSolicitudes))
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/counts", cfg.Tickets.Counts)
	tickets.Get("/areas", cfg.Tickets.AreaOptions)
	tickets.Get("/overview", cfg.Tickets.Overview)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/pdf", cfg.Tickets.DownloadPDF)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Patch("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	activity := app.Group("/activity", requireSession)
	activity.Get("/mine", cfg.Activity.Mine)
	activity.Get("/global", auth.RequireSection(auth.SectionActividad), cfg.Activity.Global)
	activity.Post("/:id/open", cfg.Activity.Open)

	catalog := app.Group("/catalog", requireSession, auth.RequireSection(auth.SectionDepartamentos))
	catalog.Get("/areas", cfg.Catalog.ListAreas)
	catalog.Post("/areas", cfg.Catalog.CreateArea)
	catalog.Put("/areas/:id", cfg.Catalog.UpdateArea)
	catalog.Delete("/areas/:id", cfg.Catalog.DeleteArea)
	catalog.Get("/areas/:id/tipos", cfg.Catalog.ListTypes)
	catalog.Delete("/areas/:id/responsable/:userId", cfg.Catalog.RemoveResponsible)
	catalog.Get("/managers", cfg.Catalog.Managers)
	catalog.Post("/tipos", cfg.Catalog.CreateTipo)
	catalog.Delete("/tipos/:id", cfg.Catalog.DeleteTipo)
	catalog.Patch("/tipos/:id/active", cfg.Catalog.ToggleTipo)

	dashboard := app.Group("/dashboard", requireSession, auth.RequireSection(auth.SectionDashboard))
	dashboard.Get("/", cfg.Dashboard.Get)
	dashboard.Get("/areas", cfg.Dashboard.Areas)
	dashboard.Get("/export", cfg.Dashboard.Export)

	users := app.Group("/users", requireSession, auth.RequireSection(auth.SectionUsuarios))
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Patch("/:id/active", cfg.Users.ToggleStatus)
}
