// Package gin serves review extraction over HTTP with gin.
package gin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/revex"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"
)

// Server defaults.
const (
	DefaultMaxSessions     = 4
	DefaultShutdownTimeout = 30 * time.Second
	DefaultReadTimeout     = 10 * time.Second
)

// Server exposes a revex.Scraper as GET /api/reviews.
type Server struct {
	router   *gin.Engine
	server   *http.Server
	scraper  revex.Scraper
	sessions *semaphore.Weighted
	metrics  *Metrics
	logger   *slog.Logger

	maxSessions     int64
	shutdownTimeout time.Duration
	gatherer        prometheus.Gatherer
	registerer      prometheus.Registerer
}

// Option configures a Server.
type Option func(*Server)

// WithMaxSessions bounds the number of concurrent extraction sessions.
func WithMaxSessions(n int64) Option {
	return func(s *Server) {
		s.maxSessions = n
	}
}

// WithRegistry registers metrics with reg and serves them on /metrics.
// Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.gatherer = reg
		s.registerer = reg
	}
}

// WithLogger sets the logger for requests and server lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout sets how long Run waits for sessions in flight.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// NewServer creates a new Server listening on addr.
func NewServer(addr string, scraper revex.Scraper, opts ...Option) *Server {
	s := &Server{
		scraper:         scraper,
		maxSessions:     DefaultMaxSessions,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxSessions <= 0 {
		s.maxSessions = DefaultMaxSessions
	}
	if s.gatherer == nil {
		reg := prometheus.NewRegistry()
		s.gatherer, s.registerer = reg, reg
	}

	s.sessions = semaphore.NewWeighted(s.maxSessions)
	s.metrics = NewMetrics(s.registerer)

	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(LoggerMiddleware(s.logger))
	router.GET("/api/reviews", s.handleReviews)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.router = router

	s.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: DefaultReadTimeout,
	}
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.server.Addr, "max_sessions", s.maxSessions)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) handleReviews(c *gin.Context) {
	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		s.fail(c, revex.Errorf(revex.EINVALID, "Please provide a URL."))
		return
	}

	ctx := c.Request.Context()
	if err := s.sessions.Acquire(ctx, 1); err != nil {
		s.metrics.Sessions.WithLabelValues(StageQueue).Inc()
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Request cancelled while waiting for a free session.", Stage: StageQueue})
		return
	}
	defer s.sessions.Release(1)

	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	begin := time.Now()
	result, err := s.scraper.Scrape(ctx, target)
	s.metrics.SessionDuration.Observe(time.Since(begin).Seconds())
	if err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.Sessions.WithLabelValues(StageOK).Inc()
	s.metrics.ReviewsExtracted.Add(float64(result.Count))
	s.metrics.PagesVisited.Observe(float64(result.Pages))
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes the error payload for err and records it on the request.
func (s *Server) fail(c *gin.Context, err error) {
	status, resp := classify(err)
	s.metrics.Sessions.WithLabelValues(resp.Stage).Inc()
	_ = c.Error(err)
	c.JSON(status, resp)
}
