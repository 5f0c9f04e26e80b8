package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medshift/marketplace/internal/domain"
	"github.com/medshift/marketplace/internal/service"
)

const contextKeyActorID = "actor_id"

// RequestLogger logs each HTTP request with structured fields.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)

			return err
		}
	}
}

// ActorAuth validates the Bearer token and injects the acting user's ID into
// echo context. Every state-changing route sits behind this middleware so
// audit entries always have a real actor.
func ActorAuth(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return domain.ErrUnauthorized
			}

			actorID, err := tokens.ValidateToken(parts[1])
			if err != nil {
				return domain.ErrUnauthorized
			}

			c.Set(contextKeyActorID, actorID)
			return next(c)
		}
	}
}

// ActorID extracts the authenticated actor's user ID from echo context.
func ActorID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(contextKeyActorID).(uuid.UUID)
	return id, ok
}
