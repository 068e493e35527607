// Package middleware holds the echo middleware of the HTTP server.
package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/ragcontext/internal/observability"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// RequestContext attaches an observability.RequestContext to every request.
// An incoming X-Request-ID is reused; otherwise a new one is generated.
// The id is echoed in the response header.
func RequestContext(logger *slog.Logger, operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(HeaderRequestID, requestID)

			reqCtx := observability.NewRequestContextWithID(logger, requestID, operation, "")
			ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			reqCtx.Debug("request served",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64("latency_ms", reqCtx.DurationMs()))
			return err
		}
	}
}
