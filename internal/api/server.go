// Package api exposes the HTTP interface for the insight service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/config"
	"github.com/brandlens/insight-api/internal/metrics"
	"github.com/brandlens/insight-api/internal/service"
)

// Analyzers groups the per-target orchestrators the server dispatches to.
type Analyzers struct {
	Website   WebsiteAnalyzer
	Instagram InstagramAnalyzer
	YouTube   YouTubeAnalyzer
}

// WebsiteAnalyzer runs a website analysis to completion.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) service.WebsiteResult
}

// InstagramAnalyzer runs a profile analysis to completion.
type InstagramAnalyzer interface {
	Analyze(ctx context.Context, username string) service.InstagramResult
}

// YouTubeAnalyzer runs a channel analysis to completion.
type YouTubeAnalyzer interface {
	Analyze(ctx context.Context, channel string) service.YouTubeResult
}

// Server wires HTTP handlers to the analyzers.
type Server struct {
	router    chi.Router
	analyzers Analyzers
	logger    *zap.Logger
	cfg       config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(analyzers Analyzers, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		analyzers: analyzers,
		logger:    logger,
		cfg:       cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout() + 5*time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(s.apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/analyze", func(r chi.Router) {
			r.Post("/website", s.analyzeWebsite)
			r.Post("/instagram", s.analyzeInstagram)
			r.Post("/youtube", s.analyzeYouTube)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

type websiteRequest struct {
	URL string `json:"url"`
}

type instagramRequest struct {
	Username string `json:"username"`
}

type youtubeRequest struct {
	Channel string `json:"channel"`
}

func (s *Server) analyzeWebsite(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateWebsiteURL(req.URL); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, err.Error())
		return
	}
	result := s.analyzers.Website.Analyze(r.Context(), req.URL)
	writeJSON(s.logger, w, resultStatus(result.Error), result)
}

func (s *Server) analyzeInstagram(w http.ResponseWriter, r *http.Request) {
	var req instagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateUsername(req.Username); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, err.Error())
		return
	}
	result := s.analyzers.Instagram.Analyze(r.Context(), strings.TrimPrefix(req.Username, "@"))
	writeJSON(s.logger, w, resultStatus(result.Error), result)
}

func (s *Server) analyzeYouTube(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		writeError(s.logger, w, http.StatusBadRequest, "channel is required")
		return
	}
	result := s.analyzers.YouTube.Analyze(r.Context(), req.Channel)
	writeJSON(s.logger, w, resultStatus(result.Error), result)
}

// resultStatus maps an analyzer outcome to a transport status: defaulted
// sections are indistinguishable from success, but a failed acquisition is an
// explicit 422.
func resultStatus(acquisitionErr string) int {
	if acquisitionErr != "" {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func validateWebsiteURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errInvalid("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalid("url must be absolute with http or https scheme")
	}
	return nil
}

func validateUsername(username string) error {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return errInvalid("username is required")
	}
	if strings.ContainsAny(username, " /\\?#") {
		return errInvalid("username contains invalid characters")
	}
	return nil
}

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", RequestID(r.Context())),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(s.logger, w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func (s *Server) apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(s.logger, w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

// RequestID returns the request id stored by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
