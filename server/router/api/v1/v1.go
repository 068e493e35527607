// Package v1 is the JSON HTTP API.
package v1

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/profile"
	ragmiddleware "github.com/hrygo/ragcontext/server/middleware"
	"github.com/hrygo/ragcontext/server/service/answer"
	"github.com/hrygo/ragcontext/server/service/collection"
)

// Answerer answers one message of a session.
type Answerer interface {
	Answer(ctx context.Context, sessionID, message string) *answer.Reply
}

type APIV1Service struct {
	Profile   *profile.Profile
	Answerer  Answerer
	Inspector collection.Inspector
	Metrics   *observability.Metrics

	// generationSemaphore bounds in-flight completions.
	generationSemaphore *semaphore.Weighted
	rateLimiter         *ragmiddleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, answerer Answerer, inspector collection.Inspector, metrics *observability.Metrics) *APIV1Service {
	maxGenerations := profile.MaxConcurrentGenerations
	if maxGenerations < 1 {
		maxGenerations = 1
	}
	return &APIV1Service{
		Profile:             profile,
		Answerer:            answerer,
		Inspector:           inspector,
		Metrics:             metrics,
		generationSemaphore: semaphore.NewWeighted(int64(maxGenerations)),
		rateLimiter:         ragmiddleware.NewRateLimiter(profile.RateLimit, profile.RateBurst),
	}
}

// Register mounts the API routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)
	e.POST("/generate", s.Generate, ragmiddleware.RateLimit(s.rateLimiter))

	api := e.Group("/api/v1", middleware.CORS())
	api.GET("/collection", s.GetCollection)
	api.GET("/metrics", s.GetMetrics)

	slog.Debug("api v1 routes registered")
}
