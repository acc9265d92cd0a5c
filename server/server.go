// Package server wires the HTTP API, middleware and background runners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/plugin/ai/router"
	apperrors "github.com/hrygo/chronolog/server/internal/errors"
	"github.com/hrygo/chronolog/server/internal/observability"
	"github.com/hrygo/chronolog/server/middleware"
	apiv1 "github.com/hrygo/chronolog/server/router/api/v1"
	"github.com/hrygo/chronolog/server/service/timelog"
	"github.com/hrygo/chronolog/store"
)

// rateLimiterIdle is how long a client's limiter is kept without traffic.
const rateLimiterIdle = 10 * time.Minute

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer        *echo.Echo
	rateLimiter       *middleware.RateLimiter
	closeRouter       func()
	runnerCancelFuncs []context.CancelFunc
}

// NewServer builds the server. It does not start listening.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	routerService, closeRouter, err := router.NewServiceFromProfile(profile)
	if err != nil {
		return nil, err
	}
	timeLog := timelog.NewService(store, routerService, profile, observability.GlobalMetrics())
	return newServer(profile, store, timeLog, closeRouter), nil
}

func newServer(profile *profile.Profile, store *store.Store, timeLog *timelog.Service, closeRouter func()) *Server {
	s := &Server{
		Profile:     profile,
		Store:       store,
		rateLimiter: middleware.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst),
		closeRouter: closeRouter,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = httpErrorHandler
	echoServer.Use(echomiddleware.Recover())
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiGroup := echoServer.Group("/api/v1",
		middleware.Auth(profile.JWTSecret),
		middleware.RequestContext(slog.Default()),
		middleware.RateLimit(s.rateLimiter),
	)
	apiv1.NewAPIV1Service(profile, store, timeLog).Register(apiGroup)

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}

	s.startRunners(ctx)

	s.echoServer.Listener = listener
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server started", "address", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Cancel all background runners
	for _, cancelFunc := range s.runnerCancelFuncs {
		if cancelFunc != nil {
			cancelFunc()
		}
	}

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if s.closeRouter != nil {
		s.closeRouter()
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("routing metrics at shutdown", "metrics", observability.GlobalMetrics().Snapshot())
}

func (s *Server) startRunners(ctx context.Context) {
	runnerCtx, cancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, cancel)

	go func() {
		ticker := time.NewTicker(rateLimiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-runnerCtx.Done():
				return
			case <-ticker.C:
				if n := s.rateLimiter.Prune(rateLimiterIdle); n > 0 {
					slog.Debug("pruned idle rate limiters", "count", n)
				}
			}
		}
	}()
}

// httpErrorHandler renders AppErrors as {code, message} with their status.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := apiv1.ErrorResponse{Code: string(apperrors.ErrCodeInternal), Message: "internal error"}

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Code = http.StatusText(httpErr.Code)
		body.Message = fmt.Sprint(httpErr.Message)
	default:
		code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
		status = apperrors.HTTPStatus(code)
		body.Code = string(code)
		if appErr, ok := apperrors.As(err); ok {
			body.Message = appErr.Message
		}
	}

	logger := observability.LoggerFromContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}
