package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	store       Pinger
}

func NewHealthHandler(serviceName string, store Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, store: store}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		slog.WarnContext(c.UserContext(), "Store ping failed", slog.String("error", err.Error()))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"service":  h.serviceName,
			"database": "unreachable",
		})
	}

	return c.JSON(fiber.Map{"status": "ok", "service": h.serviceName, "database": "ok"})
}

type Handlers struct {
	Auth   *AuthHandler
	Tasks  *TaskHandler
	Health *HealthHandler
}

// SetupRoutes mounts every endpoint behind the session middleware.
func SetupRoutes(app *fiber.App, tokens TokenValidator, h Handlers) {
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(SessionMiddleware(tokens))

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/logout", h.Auth.Logout)
	authRoutes.Get("/me", h.Auth.Me)
	authRoutes.Patch("/me", RequireSession(), h.Auth.UpdateAvatar)
	authRoutes.Post("/me/avatar/upload-url", RequireSession(), h.Auth.AvatarUploadURL)

	taskRoutes := app.Group("/tasks")
	taskRoutes.Use(RequireSession())
	taskRoutes.Get("/", h.Tasks.List)
	taskRoutes.Post("/", h.Tasks.Create)
	taskRoutes.Patch("/:id", h.Tasks.Update)
	taskRoutes.Delete("/:id", h.Tasks.Delete)
}
