// Package server hosts the HTTP boundary of the engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/profile"
	ragmiddleware "github.com/hrygo/ragcontext/server/middleware"
	apiv1 "github.com/hrygo/ragcontext/server/router/api/v1"
	"github.com/hrygo/ragcontext/server/router/frontend"
	"github.com/hrygo/ragcontext/server/service/collection"
)

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	listener   net.Listener
}

// NewServer wires the routes; nothing listens until Start.
func NewServer(profile *profile.Profile, answerer apiv1.Answerer, inspector collection.Inspector, metrics *observability.Metrics) *Server {
	s := &Server{Profile: profile}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(ragmiddleware.RequestContext(slog.Default(), "http"))
	s.echoServer = echoServer

	frontend.Register(echoServer)
	apiv1.NewAPIV1Service(profile, answerer, inspector, metrics).Register(echoServer)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to start server")
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("server stopped properly")
}
