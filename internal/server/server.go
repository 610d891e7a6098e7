// Package server exposes the sequence over HTTP as a small read-only JSON
// API with Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/logging"
	"github.com/agbru/fibiter/internal/orchestration"
)

const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	// DefaultSequenceCount is used when /sequence has no count parameter.
	DefaultSequenceCount = 10

	maxLastDigits = 1000
)

// Config holds the listener and limit settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds the generation work of a single request.
	RequestTimeout time.Duration
	Security       SecurityConfig
}

// DefaultConfig returns a Config listening on addr.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:            addr,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		RequestTimeout:  DefaultRequestTimeout,
		Security:        DefaultSecurityConfig(),
	}
}

// Server serves /sequence, /term, /health and /metrics.
type Server struct {
	factory   *fibonacci.Factory
	cfg       Config
	logger    logging.Logger
	metrics   *Metrics
	startTime time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger replaces the default stderr logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics shares a Metrics instance, typically in tests.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer returns a server that builds sources from factory.
func NewServer(factory *fibonacci.Factory, cfg Config, opts ...Option) *Server {
	s := &Server{
		factory:   factory,
		cfg:       cfg,
		startTime: time.Now(),
	}
	if s.cfg.RequestTimeout <= 0 {
		s.cfg.RequestTimeout = DefaultRequestTimeout
	}
	if s.cfg.ShutdownTimeout <= 0 {
		s.cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger(os.Stderr, "server")
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(h)))
	}
	route("/sequence", s.handleSequence)
	route("/term", s.handleTerm)
	route("/health", s.handleHealth)
	route("/metrics", s.handleMetrics)
	return mux
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.ObserveRequest(r.URL.Path, rec.status, time.Since(start))
	}
}

type termJSON struct {
	Index  uint64 `json:"index"`
	Value  string `json:"value"`
	Digits int    `json:"digits"`
}

type sequenceResponse struct {
	Numeric    string     `json:"numeric"`
	Start      uint64     `json:"start"`
	Count      uint64     `json:"count"`
	Terms      []termJSON `json:"terms"`
	DurationMs float64    `json:"duration_ms"`
}

type termResponse struct {
	N          uint64  `json:"n"`
	Value      string  `json:"value"`
	Digits     int     `json:"digits"`
	LastDigits int     `json:"last_digits,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// collectSink keeps terms for the JSON response.
type collectSink struct{ terms []termJSON }

func (c *collectSink) WriteTerm(t fibonacci.Term) error {
	v := t.Value.String()
	c.terms = append(c.terms, termJSON{Index: t.Index, Value: v, Digits: len(v)})
	return nil
}

func (c *collectSink) Flush() error { return nil }

// sequenceQuery holds the validated parameters of a /sequence request.
type sequenceQuery struct {
	count   uint64
	start   uint64
	numeric string
	policy  fibonacci.OverflowPolicy
}

// parseSequenceQuery validates q against limits. Failures are
// apperrors.ValidationError values naming the offending parameter.
func parseSequenceQuery(q url.Values, limits SecurityConfig) (sequenceQuery, error) {
	var sq sequenceQuery
	var err error

	sq.count, err = parseUint(q.Get("count"), DefaultSequenceCount)
	if err != nil || sq.count == 0 || sq.count > limits.MaxCount {
		return sq, apperrors.ValidationError{Field: "count", Message: fmt.Sprintf("count must be between 1 and %d", limits.MaxCount)}
	}
	sq.start, err = parseUint(q.Get("start"), 0)
	if err != nil || sq.start > limits.MaxNValue || sq.count-1 > limits.MaxNValue-sq.start {
		return sq, apperrors.ValidationError{Field: "start", Message: fmt.Sprintf("start+count-1 must not exceed %d", limits.MaxNValue)}
	}
	sq.numeric = q.Get("numeric")
	if sq.numeric == "" {
		sq.numeric = "uint64"
	}
	sq.policy, err = fibonacci.ParseOverflowPolicy(q.Get("overflow"))
	if err != nil {
		return sq, apperrors.ValidationError{Field: "overflow", Message: err.Error()}
	}
	if !limits.withinDigitBudget(sq.numeric, sq.start, sq.count) {
		return sq, apperrors.ValidationError{Field: "count", Message: fmt.Sprintf(
			"about %d digits requested, the limit is %d; lower count or start",
			responseDigits(sq.numeric, sq.start+sq.count-1, sq.count), limits.MaxResponseDigits)}
	}
	return sq, nil
}

func (s *Server) handleSequence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	sq, err := parseSequenceQuery(r.URL.Query(), s.cfg.Security)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	src, err := s.factory.New(sq.numeric, fibonacci.SourceOptions{Start: sq.start, Overflow: sq.policy})
	if err != nil {
		writeValidationError(w, apperrors.ValidationError{Field: "numeric", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	sink := &collectSink{terms: make([]termJSON, 0, sq.count)}
	summary, err := orchestration.Generate(ctx, src, orchestration.GenerateOptions{
		Count:    sq.count,
		Recorder: s.metrics,
	}, sink, orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		s.logger.Error("sequence failed", err, logging.String("numeric", sq.numeric), logging.Uint64("start", sq.start))
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sequenceResponse{
		Numeric:    sq.numeric,
		Start:      sq.start,
		Count:      summary.Count,
		Terms:      sink.terms,
		DurationMs: float64(summary.Duration.Microseconds()) / 1000,
	})
}

// parseTermQuery validates the n and last_digits parameters of /term.
func parseTermQuery(q url.Values, limits SecurityConfig) (n uint64, k int, err error) {
	n, err = strconv.ParseUint(q.Get("n"), 10, 64)
	if err != nil || n > limits.MaxNValue {
		return 0, 0, apperrors.ValidationError{Field: "n", Message: fmt.Sprintf("n must be between 0 and %d", limits.MaxNValue)}
	}
	if raw := q.Get("last_digits"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 1 || k > maxLastDigits {
			return 0, 0, apperrors.ValidationError{Field: "last_digits", Message: fmt.Sprintf("last_digits must be between 1 and %d", maxLastDigits)}
		}
	}
	return n, k, nil
}

func (s *Server) handleTerm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	q := r.URL.Query()
	if q.Get("n") == "" {
		writeError(w, http.StatusBadRequest, "missing_n", "parameter n is required")
		return
	}
	n, k, err := parseTermQuery(q, s.cfg.Security)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := time.Now()
	resp := termResponse{N: n, LastDigits: k}
	if k > 0 {
		v, err := fibonacci.FastDoublingMod(n, fibonacci.PowerOfTen(k))
		if err != nil {
			writeGenerationError(w, err)
			return
		}
		resp.Value = v.String()
	} else {
		fn, _ := fibonacci.FastDoubling(n)
		resp.Value = fn.String()
	}
	resp.Digits = len(resp.Value)
	resp.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	s.logger.Debug("term computed", logging.Uint64("n", n), logging.Int("digits", resp.Digits))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"uptime_s": int64(time.Since(s.startTime).Seconds()),
		"backends": s.factory.List(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Debug("metrics: method not allowed", logging.String("method", r.Method))
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func parseUint(raw string, def uint64) (uint64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// statusFor maps a generation error to an HTTP status.
func statusFor(err error) int {
	switch apperrors.ExitCodeFor(err) {
	case apperrors.ExitErrorConfig:
		return http.StatusBadRequest
	case apperrors.ExitErrorTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ExitErrorCanceled:
		return http.StatusServiceUnavailable
	}
	if apperrors.IsOverflow(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeGenerationError(w http.ResponseWriter, err error) {
	status, code := statusFor(err), "generation_failed"
	switch status {
	case http.StatusUnprocessableEntity:
		code = "overflow"
	case http.StatusGatewayTimeout:
		code = "timeout"
	}
	writeError(w, status, code, err.Error())
}

// writeValidationError answers 400 with the code invalid_<field>.
func writeValidationError(w http.ResponseWriter, err error) {
	var ve apperrors.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "invalid_"+ve.Field, ve.Message)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
