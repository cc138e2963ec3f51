package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	tickets := app.Group("/api/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/ingest", cfg.Tickets.Ingest)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id/approve", cfg.Tickets.ApproveTicket)
	tickets.Put("/:id/escalate", cfg.Tickets.EscalateTicket)
	tickets.Put("/:id/deescalate", cfg.Tickets.DeescalateTicket)
	tickets.Put("/:id/reject", cfg.Tickets.RejectTicket)
	tickets.Put("/:id/classification", cfg.Tickets.CorrectClassification)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)
}
