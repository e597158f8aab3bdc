package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meryam27/skilltrack-api/internal/config"
	"github.com/meryam27/skilltrack-api/internal/handler"
	"github.com/meryam27/skilltrack-api/internal/middleware"
	"github.com/meryam27/skilltrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler            *handler.AuthHandler
	AdminStudentHandler    *handler.AdminStudentHandler
	AdminCompetenceHandler *handler.AdminCompetenceHandler
	AuditHandler           *handler.AuditHandler
	ActivityHandler        *handler.ActivityHandler
	DashboardHandler       *handler.DashboardHandler
	GoalHandler            *handler.GoalHandler
	AchievementHandler     *handler.AchievementHandler
	JWTMiddleware          fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	// Admin surface requires an authenticated admin role
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin"))
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
	}
	if deps.AdminCompetenceHandler != nil {
		deps.AdminCompetenceHandler.Register(admin.Group("/competences"))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin.Group("/audit-logs"))
	}

	// Student surface requires any authenticated user
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", jwtMiddleware))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware))
	}
	if deps.GoalHandler != nil {
		deps.GoalHandler.Register(api.Group("/goals", jwtMiddleware))
	}
	if deps.AchievementHandler != nil {
		deps.AchievementHandler.Register(api.Group("/achievements", jwtMiddleware))
	}
}
