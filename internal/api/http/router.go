package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hostelkit/maintenance-service/internal/api/http/handlers"
	"github.com/hostelkit/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	WardenTickets  *handlers.WardenTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Routes only require authentication here;
// role authorization happens in the service layer's gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Post("/tickets", cfg.Tickets.Create)
	protected.Get("/tickets/public", cfg.Tickets.ListPublic)

	protected.Get("/tickets", cfg.WardenTickets.ListAll)
	protected.Put("/tickets/:id/classify", cfg.WardenTickets.Reclassify)
	protected.Put("/tickets/:id/assign", cfg.WardenTickets.Assign)
	protected.Put("/tickets/:id/status", cfg.WardenTickets.UpdateStatus)
	protected.Delete("/tickets/:id", cfg.WardenTickets.Delete)
	protected.Get("/technicians", cfg.WardenTickets.ListTechnicians)
}
