package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/internal/observability"
)

// EmptyMessageReply is returned for an empty question.
const EmptyMessageReply = "Please ask a question."

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Msg       string `json:"msg"`
	SessionID string `json:"session_id,omitempty"`
}

// GenerateResponse is the reply of POST /generate.
type GenerateResponse struct {
	Response string `json:"response"`
}

// Generate answers one chat message.
// POST /generate
func (s *APIV1Service) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
			"code":  string(enginerr.ErrCodeInvalidArgument),
		})
	}
	if strings.TrimSpace(req.Msg) == "" {
		return c.JSON(http.StatusOK, GenerateResponse{Response: EmptyMessageReply})
	}

	ctx := c.Request().Context()
	if reqCtx, ok := observability.FromContext(ctx); ok {
		reqCtx.Operation = observability.OperationAnswer
		reqCtx.SessionID = req.SessionID
	}

	if err := s.generationSemaphore.Acquire(ctx, 1); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "request cancelled while waiting for capacity",
			"code":  string(enginerr.ErrCodeTimeout),
		})
	}
	defer s.generationSemaphore.Release(1)

	reply := s.Answerer.Answer(ctx, req.SessionID, req.Msg)
	return c.JSON(http.StatusOK, GenerateResponse{Response: reply.Text})
}
