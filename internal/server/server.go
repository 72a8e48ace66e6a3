package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/service/files"
	"github.com/oshokin/tube-grabber/internal/service/media"
)

// Server is the local HTTP API.
type Server struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// coordinator runs inspections and downloads.
	coordinator media.Coordinator
	// opener opens downloaded files.
	opener files.Opener
	// engine routes requests.
	engine *gin.Engine
	// httpServer serves engine.
	httpServer *http.Server
}

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// NewServer creates the server and registers its routes.
func NewServer(cfg *config.Config, coordinator media.Coordinator, opener files.Opener) *Server {
	s := &Server{
		cfg:         cfg,
		coordinator: coordinator,
		opener:      opener,
		engine:      gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger())

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/inspect", s.handleInspect)
	api.POST("/download", s.handleDownload)
	api.GET("/progress", s.handleProgress)
	api.GET("/stats", s.handleStats)
	api.GET("/open_location/*path", s.handleOpenLocation)
	api.GET("/open_file/*path", s.handleOpenFile)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves requests until ctx is canceled, then shuts down gracefully.
// Running downloads are not waited for.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)

		logger.Infof(ctx, "Listening on http://%s", s.cfg.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return <-errCh
}
