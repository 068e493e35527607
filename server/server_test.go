package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/profile"
	ragmiddleware "github.com/hrygo/ragcontext/server/middleware"
	"github.com/hrygo/ragcontext/server/service/answer"
	storetest "github.com/hrygo/ragcontext/store/test"
)

type echoAnswerer struct{}

func (echoAnswerer) Answer(_ context.Context, _, message string) *answer.Reply {
	return &answer.Reply{Text: strings.ToUpper(message)}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ts := storetest.NewTestingStore(context.Background(), t)
	p := profile.Default()
	p.Addr = "127.0.0.1"
	p.Port = 0
	return NewServer(p, echoAnswerer{}, ts, observability.NewMetrics(10))
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/generate")
	assert.NotEmpty(t, rec.Header().Get(ragmiddleware.HeaderRequestID))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"msg":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"HI"}`, rec.Body.String())
}

func TestServerStartAndShutdown(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(ctx)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", s.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
