package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartsupport/helpdesk/internal/api/http/handlers"
	"github.com/smartsupport/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Users.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	authGroup.Put("/profile", cfg.AuthMiddleware.Handle, cfg.Users.UpdateProfile)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	// Stats must register before the :id wildcard.
	tickets.Get("/stats", cfg.Tickets.GetStats)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	statuses := api.Group("/statuses", cfg.AuthMiddleware.Handle)
	statuses.Get("/", cfg.Catalog.ListStatuses)
	statuses.Post("/", auth.RequireAdmin(), cfg.Catalog.CreateStatus)
	statuses.Put("/:id", auth.RequireAdmin(), cfg.Catalog.UpdateStatus)
	statuses.Delete("/:id", auth.RequireAdmin(), cfg.Catalog.DeleteStatus)

	categories := api.Group("/categories", cfg.AuthMiddleware.Handle)
	categories.Get("/", cfg.Catalog.ListCategories)
	categories.Post("/", auth.RequireAdmin(), cfg.Catalog.CreateCategory)
	categories.Put("/:id", auth.RequireAdmin(), cfg.Catalog.UpdateCategory)
	categories.Delete("/:id", auth.RequireAdmin(), cfg.Catalog.DeleteCategory)

	adminUsers := api.Group("/admin/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	adminUsers.Get("/", cfg.Users.ListUsers)
	adminUsers.Put("/:id", cfg.Users.UpdateUser)
	adminUsers.Delete("/:id", cfg.Users.DeleteUser)
}
