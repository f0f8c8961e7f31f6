package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"task-service/internal/model"
)

const (
	SessionCookieName = "token"
	identityLocalsKey = "identity"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// TokenValidator resolves a session token to a user id.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, bool)
}

// SessionMiddleware resolves the session cookie into an identity. Missing,
// malformed and expired tokens all resolve to anonymous; the request always proceeds.
func SessionMiddleware(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := model.Anonymous

		if token := c.Cookies(SessionCookieName); token != "" {
			if userID, ok := tokens.Validate(token); ok {
				identity = model.Authenticated(userID)
			}
		}

		c.Locals(identityLocalsKey, identity)

		return c.Next()
	}
}

func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFromContext(c).IsAnonymous() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

func IdentityFromContext(c *fiber.Ctx) model.Identity {
	identity, ok := c.Locals(identityLocalsKey).(model.Identity)
	if !ok {
		return model.Anonymous
	}
	return identity
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		path := c.Route().Path
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
