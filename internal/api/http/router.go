package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/certhub/admin-gateway/internal/api/http/handlers"
	"github.com/certhub/admin-gateway/internal/auth"
	"github.com/certhub/admin-gateway/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)

	admin := app.Group("/admin", cfg.AuthMiddleware.Authenticate, cfg.AuthMiddleware.RequireAdmin)
	admin.Post("/toggleUser", cfg.Admin.ToggleUser)
	admin.Post("/createUser", cfg.Admin.CreateUser)
	admin.Post("/createEnrollment", cfg.Admin.CreateEnrollment)
	admin.Get("/enrollments/:userId", cfg.Admin.ListEnrollments)
	admin.Put("/enrollments/:enrollmentId", cfg.Admin.UpdateEnrollment)
	admin.Delete("/enrollments/:enrollmentId", cfg.Admin.DeleteEnrollment)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/courses", cfg.Admin.ListCourses)
}
