// Package server provides the HTTP API for survey insights.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/aggregates"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/decision"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/export"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/insights"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server/middleware"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server/ratelimit"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/trend"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// AggregatesStore computes the raw aggregates payload from survey rows.
type AggregatesStore interface {
	Aggregates(ctx context.Context, filter types.Filter) (types.AggregatesPayload, error)
}

// PDFRenderer turns a rendered HTML report into PDF bytes.
type PDFRenderer func(ctx context.Context, html string) ([]byte, error)

// Config holds server configuration
type Config struct {
	Port int
	// Provider supplies snapshots for every /insights route.
	Provider aggregates.SnapshotProvider
	// Store, when set, also serves GET /api/survey-aggregates/.
	Store AggregatesStore
	// Engine defaults to the built-in ruleset.
	Engine *decision.Engine
	// JWT enables bearer authentication on /insights routes.
	JWT            *config.JWTConfig
	RateLimit      *ratelimit.Config
	TrendYears     int
	YearOrder      types.YearOrder
	RequestTimeout time.Duration
	PDFTimeout     time.Duration
	// PDF defaults to headless Chrome.
	PDF    PDFRenderer
	Logger *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	provider       aggregates.SnapshotProvider
	store          AggregatesStore
	analyzer       *insights.Analyzer
	trend          *trend.Analyzer
	rateLimiter    *ratelimit.Limiter
	jwtService     *JWTService
	pdf            PDFRenderer
	logger         *zap.Logger
	trendYears     int
	yearOrder      types.YearOrder
	requestTimeout time.Duration
	now            func() time.Time
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("server requires a snapshot provider")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := cfg.Engine
	if engine == nil {
		var err error
		engine, err = decision.NewEngine(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build decision engine: %w", err)
		}
	}

	s := &Server{
		provider:       cfg.Provider,
		store:          cfg.Store,
		analyzer:       insights.NewAnalyzer(engine),
		trend:          trend.NewAnalyzer(cfg.Provider, logger),
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit),
		pdf:            cfg.PDF,
		logger:         logger,
		trendYears:     cfg.TrendYears,
		yearOrder:      cfg.YearOrder,
		requestTimeout: cfg.RequestTimeout,
		now:            time.Now,
	}
	if s.yearOrder == "" {
		s.yearOrder = types.NewestFirst
	}
	if s.pdf == nil {
		timeout := cfg.PDFTimeout
		s.pdf = func(ctx context.Context, html string) ([]byte, error) {
			return export.PDF(ctx, html, timeout)
		}
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("GET /insights", s.protect(s.handleInsights))
	mux.Handle("GET /insights/trend", s.protect(s.handleTrend))
	mux.Handle("GET /insights/export.csv", s.protect(s.handleExportCSV))
	mux.Handle("GET /insights/report", s.protect(s.handleReport))
	mux.Handle("GET /insights/report.pdf", s.protect(s.handleReportPDF))

	if s.store != nil {
		mux.HandleFunc("GET "+aggregates.AggregatesPath, s.handleAggregates)
	}

	s.handler = middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(mux))))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // PDF rendering
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// protect applies bearer authentication when JWT is configured.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	if s.jwtService == nil {
		return h
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+middleware.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Info("request", fields...)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status and writes it. Server-side failures are logged
// and their detail withheld from the client.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		message = http.StatusText(status)
	}
	s.errorResponse(w, status, message)
}

// extractClientID uses the IP from RemoteAddr. Forwarded headers are
// ignored since they are client-controlled.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Info("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
