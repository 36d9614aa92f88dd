package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/service"
)

const headerRequestID = "X-Request-ID"

// requestContext tags each request with an ID and a request-scoped logger.
// A well-formed incoming X-Request-ID is kept.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(headerRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(headerRequestID, requestID)
		c.Set("request_id", requestID)

		log := logger.L().With(zap.String("request_id", requestID))
		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))
		return next(c)
	}
}

// observe logs and counts every request once the error handler has written
// the response.
func (a *API) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		elapsed := time.Since(start)

		req := c.Request()
		status := c.Response().Status
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		a.metrics.HTTPRequest(req.Method, path, status, elapsed)

		log := logger.FromContext(req.Context())
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		if status >= http.StatusInternalServerError {
			log.Warn("http request", fields...)
		} else {
			log.Info("http request", fields...)
		}
		return nil
	}
}

func (a *API) securityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cache-Control", "no-store")
		return next(c)
	}
}

// requireAuth verifies the bearer token and threads the caller session into
// the request context. Role checks happen in the service.
func (a *API) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authorization := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		session, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		req := c.Request()
		ctx := service.WithSession(req.Context(), session)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(
			zap.String("actor", session.Username),
			zap.String("actor_role", session.Role),
		))
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}
