// Package server exposes the render pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Service is the part of the pipeline the HTTP routes use
type Service interface {
	Render(text string, animated bool) (*pipeline.Result, error)
	RenderGame(ctx context.Context, providerID, gameID string, animated bool) (*pipeline.GameResult, error)
	Inspect(text string, animated bool) (*pipeline.Summary, error)
	InspectGame(ctx context.Context, providerID, gameID string) (*pipeline.Summary, error)
}

// StatsSource reports cache totals for /healthz
type StatsSource interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// Server is the HTTP front end
type Server struct {
	config  Config
	service Service
	stats   StatsSource
	router  *gin.Engine
	started time.Time

	immutable gin.HandlerFunc
	noStore   gin.HandlerFunc

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// Option configures a Server
type Option func(*Server)

// WithStats reports store totals on /healthz
func WithStats(stats StatsSource) Option {
	return func(s *Server) { s.stats = stats }
}

// New builds the router for svc
func New(cfg Config, svc Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("server: service is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config:   cfg,
		service:  svc,
		started:  time.Now(),
		limiters: make(map[string]*rate.Limiter),

		immutable: immutableCache(cfg.CacheMaxAge),
		noStore:   noStoreCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if s.config.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".png", ".gif"}),
		ginGzip.WithExcludedPaths([]string{"/render"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarnf("Failed to set trusted proxies: %v", err)
	}

	limit := s.rateLimitMiddleware()

	router.GET("/render/:provider/:gameid", limit, s.renderGameHandler)
	router.POST("/render", limit, s.noStore, s.renderTextHandler)
	router.GET("/inspect/:provider/:gameid", limit, s.inspectGameHandler)
	router.POST("/inspect", limit, s.noStore, s.inspectTextHandler)
	router.GET("/healthz", s.noStore, s.healthHandler)
	return router
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		util.LogInfof("Server listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	util.LogInfof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	util.LogInfof("Server shutdown complete")
	return nil
}
