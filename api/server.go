// Package api provides the HTTP API server for headline sentiment.
//
// It exposes a health check, a per-ticker sentiment endpoint, a WebSocket
// stream of scored headlines and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/headlines/internal/analysis/sentiment"
	"github.com/seenimoa/headlines/internal/config"
	"github.com/seenimoa/headlines/internal/logger"
	"github.com/seenimoa/headlines/internal/metrics"
	"github.com/seenimoa/headlines/internal/newsfetch"
	"github.com/seenimoa/headlines/pkg/models"
	"github.com/seenimoa/headlines/pkg/utils"
)

// Version is reported by /health. Set by the CLI.
var Version = "dev"

// Fetcher is the subset of newsfetch.Orchestrator the server uses.
type Fetcher interface {
	StreamHistorical(ctx context.Context, ticker string, start, end time.Time, maxResults int, emit func(models.NewsEntry) error) (newsfetch.Result, error)
	FetchRecent(ctx context.Context, ticker, when string, maxResults int) ([]models.NewsEntry, error)
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	fetcher Fetcher
	scorer  sentiment.Scorer
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewServer creates a configured API server with all routes and middleware.
// m may be nil, in which case /metrics is not served.
func NewServer(cfg *config.Config, fetcher Fetcher, scorer sentiment.Scorer, m *metrics.Metrics, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		scorer:  scorer,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		// The stream is long-lived and must not be cut by the request timeout.
		r.Get("/stream", s.handleStream)
		r.With(middleware.Timeout(120*time.Second)).Get("/sentiment/{ticker}", s.handleSentiment)
	})

	return r
}

// requestLogger logs each request with zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ════════════════════════════════════════════════════════════════════
// Request / Response types
// ════════════════════════════════════════════════════════════════════

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SentimentResponse is the data of GET /api/v1/sentiment/{ticker}.
type SentimentResponse struct {
	Summary models.Summary       `json:"summary"`
	Entries []models.ScoredEntry `json:"entries"`
}

// SentimentRequest holds the parsed query of a sentiment request.
type SentimentRequest struct {
	Ticker string
	Period string
	Days   int
	Max    int
	Recent bool
}

// parseSentimentRequest validates the ticker, period, max and recent parameters.
func (s *Server) parseSentimentRequest(ticker string, q map[string][]string) (SentimentRequest, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	req := SentimentRequest{
		Ticker: utils.NormalizeTicker(ticker),
		Period: get("period"),
		Max:    s.cfg.Fetch.MaxResults,
	}
	if req.Ticker == "" {
		return req, errors.New("ticker is required")
	}
	if req.Period == "" {
		req.Period = s.cfg.Fetch.DefaultPeriod
	}
	days, err := utils.ParsePeriod(req.Period)
	if err != nil {
		return req, fmt.Errorf("invalid period: %w", err)
	}
	req.Days = days

	if v := get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, fmt.Errorf("invalid max %q: must be a positive integer", v)
		}
		req.Max = n
	}
	if req.Max <= 0 {
		req.Max = 100
	}
	if v := get("recent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid recent %q", v)
		}
		req.Recent = b
	}
	return req, nil
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       Version,
			"market_status": utils.MarketStatus(now),
			"time":          now.UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"provider":    s.cfg.Provider.Name,
			"scorer":      s.cfg.Sentiment.Scorer,
			"chunk_days":  s.cfg.Fetch.ChunkDays,
			"max_results": s.cfg.Fetch.MaxResults,
			"api_keys":    config.CheckAPIKeys(s.cfg),
		},
	})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSentimentRequest(chi.URLParam(r, "ticker"), r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.sentiment(r.Context(), req, nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

// sentiment fetches, scores and summarizes one request. emit, when set, receives
// each scored entry as it is accepted. Every headline is scored once.
func (s *Server) sentiment(ctx context.Context, req SentimentRequest, emit func(models.ScoredEntry) error) (SentimentResponse, error) {
	var scored []models.ScoredEntry
	if req.Recent {
		entries, err := s.fetcher.FetchRecent(ctx, req.Ticker, req.Period, req.Max)
		if err != nil {
			return SentimentResponse{}, err
		}
		scored = sentiment.ScoreEntries(s.scorer, entries)
		if emit != nil {
			for _, e := range scored {
				if err := emit(e); err != nil {
					return SentimentResponse{}, err
				}
			}
		}
	} else {
		start, end := utils.RangeForPeriod(s.now().UTC(), req.Days)
		scored = []models.ScoredEntry{}
		onEntry := func(e models.NewsEntry) error {
			se := sentiment.ScoreEntries(s.scorer, []models.NewsEntry{e})[0]
			scored = append(scored, se)
			if emit != nil {
				return emit(se)
			}
			return nil
		}
		if _, err := s.fetcher.StreamHistorical(ctx, req.Ticker, start, end, req.Max, onEntry); err != nil {
			return SentimentResponse{}, err
		}
	}

	return SentimentResponse{
		Summary: sentiment.Summarize(req.Ticker, scored),
		Entries: scored,
	}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, newsfetch.ErrInvalidRange), errors.Is(err, newsfetch.ErrInvalidMaxResults),
		errors.Is(err, utils.ErrInvalidUnit), errors.Is(err, utils.ErrInvalidNumber):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
