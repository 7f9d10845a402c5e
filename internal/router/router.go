package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/pkg/storage"
	"github.com/noah-isme/classroom-api/pkg/token"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler     *handler.CourseHandler
	StudentHandler    *handler.StudentHandler
	EnrollmentHandler *handler.EnrollmentHandler
	AssignmentHandler *handler.AssignmentHandler
	JWTMiddleware     fiber.Handler
	ImportLimiter     fiber.Handler
	LoginLimiter      fiber.Handler
	HealthProbes      map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	app.Get("/metrics", observability.MetricsHandler())

	if cfg.UploadDir != "" {
		app.Static(storage.RoutePrefix, cfg.UploadDir)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses"))
	}

	if deps.StudentHandler != nil {
		selfService := []fiber.Handler{middleware.RequireRole(token.RoleStudent)}
		if deps.JWTMiddleware != nil {
			selfService = append([]fiber.Handler{deps.JWTMiddleware}, selfService...)
		}
		deps.StudentHandler.Register(api.Group("/student"), handler.StudentRoutes{
			LoginLimiter: deps.LoginLimiter,
			SelfService:  selfService,
		})
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/courseStudent"), deps.ImportLimiter)
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignment"))
	}
}
