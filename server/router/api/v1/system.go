package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/server/service/collection"
)

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetCollection returns the collection info with sample records.
// GET /api/v1/collection
func (s *APIV1Service) GetCollection(c echo.Context) error {
	info, err := collection.Describe(c.Request().Context(), s.Inspector, collection.DefaultSamples)
	if err != nil {
		slog.Warn("failed to describe collection", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "vector store unavailable",
			"code":  string(enginerr.ErrCodeStoreUnavailable),
		})
	}
	return c.JSON(http.StatusOK, info)
}

// GetMetrics returns per-operation counters and latency percentiles.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, map[string]any{})
	}
	return c.JSON(http.StatusOK, s.Metrics.Snapshot())
}
