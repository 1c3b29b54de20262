// Package web exposes the HTTP API: conference data and derived views,
// the refresh trigger, the vendor proxies, history, and settings.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"confdash/internal/config"
	appLog "confdash/internal/log"
	"confdash/internal/refresh"
	"confdash/internal/store"
	"confdash/internal/vendor"
)

// Recognizer is the formula-recognition boundary; satisfied by
// *vendor.OCRClient and by test fakes.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, image io.Reader) (vendor.OCRResult, error)
}

// RankLookup is the publication-ranking boundary.
type RankLookup interface {
	Lookup(ctx context.Context, name string) (vendor.RankInfo, error)
}

// Server provides the HTTP API.
type Server struct {
	cfg  *config.Config
	data *refresh.Service
	kv   *store.Store
	ocr  Recognizer
	rank RankLookup

	// now is injectable for tests.
	now func() time.Time

	router chi.Router
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, data *refresh.Service, kv *store.Store, ocr Recognizer, rank RankLookup) *Server {
	s := &Server{
		cfg:  cfg,
		data: data,
		kv:   kv,
		ocr:  ocr,
		rank: rank,
		now:  time.Now,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuthMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/calendar.ics", s.handleCalendarICS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/conferences", s.handleConferences)
		r.Get("/deadlines", s.handleDeadlines)
		r.Get("/calendar", s.handleCalendar)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/ocr", s.handleOCR)
		r.Get("/rank", s.handleRank)
		r.Get("/history/recognitions", s.handleListRecognitions)
		r.Delete("/history/recognitions", s.handleClearRecognitions)
		r.Get("/history/searches", s.handleListSearches)
		r.Delete("/history/searches", s.handleClearSearches)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects all endpoints except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="confdash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
