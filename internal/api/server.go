// Package api exposes the advisory pipeline as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/kisanmitra/advisory/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Advisory is the pipeline the handlers drive.
type Advisory interface {
	Ask(ctx context.Context, query, language string) (*service.Result, error)
	Stats(ctx context.Context) (models.Stats, error)
	RemoteEnabled() bool
}

type Options struct {
	Addr            string
	ShutdownTimeout time.Duration

	// APIKeyConfigured reports whether the credential was present at startup.
	APIKeyConfigured bool
}

type Server struct {
	engine  *gin.Engine
	advisor Advisory
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

func NewServer(advisory Advisory, opts Options, logger *zap.Logger) *Server {
	s := &Server{
		engine:  gin.New(),
		advisor: advisory,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}

	s.engine.Use(
		requestIDMiddleware(),
		accessLogMiddleware(logger),
		metricsMiddleware(),
		corsMiddleware(),
		recoveryMiddleware(logger),
	)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST("/query", s.handleQuery)
	api.GET("/stats", s.handleStats)
	api.GET("/health", s.handleHealth)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
