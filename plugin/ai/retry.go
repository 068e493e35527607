package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

// retrier executes a call with exponential backoff (delay * 2^attempt).
type retrier struct {
	maxRetries int
	delay      time.Duration
}

func newRetrier(maxRetries int, delay time.Duration) retrier {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return retrier{maxRetries: maxRetries, delay: delay}
}

// do runs fn up to maxRetries times. Permanent errors stop the loop early.
func (r retrier) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.maxRetries-1 {
			break
		}

		waitTime := r.delay << attempt
		slog.Debug("AI request failed, retrying",
			"operation", op,
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// isRetryable reports whether another attempt may succeed.
// Client errors other than 408 and 429 are permanent.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if enginerr.IsCode(err, enginerr.ErrCodeEmptyInput) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return !isPermanentStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return !isPermanentStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 &&
		code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}
