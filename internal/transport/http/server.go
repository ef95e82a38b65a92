package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	feedService "github.com/reshetovitsme/channel-digest/internal/modules/feed/service"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Counter reports the number of stored entries
type Counter interface {
	Len() int
}

// Schedule reports when the next daily digest is due
type Schedule interface {
	NextRunAt() time.Time
}

// Server exposes health, status and the RSS feed of analyzed posts
type Server struct {
	cfg         *config.Config
	feedService *feedService.Service
	ledger      Counter
	history     Counter
	schedule    Schedule
	webhook     http.Handler
	logger      *slog.Logger
	server      *http.Server
	mu          sync.Mutex
}

type statusResponse struct {
	Channel        string     `json:"channel"`
	LedgerSize     int        `json:"ledger_size"`
	BufferedPosts  int        `json:"buffered_posts"`
	NextReportAt   *time.Time `json:"next_report_at,omitempty"`
	RecencyWindow  string     `json:"recency_window"`
	ReportSchedule string     `json:"report_schedule"`
}

// New creates a new HTTP server
func New(cfg *config.Config, feedService *feedService.Service, ledger, history Counter, schedule Schedule) *Server {
	return &Server{
		cfg:         cfg,
		feedService: feedService,
		ledger:      ledger,
		history:     history,
		schedule:    schedule,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetWebhookHandler mounts the Telegram webhook endpoint
func (s *Server) SetWebhookHandler(handler http.Handler) {
	s.webhook = handler
}

// Handler builds the routed handler with logging and recovery middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /feed.rss", s.handleFeed)
	if s.webhook != nil {
		mux.Handle("POST /webhook", s.webhook)
	}

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Channel:        s.cfg.ChannelID,
		LedgerSize:     s.ledger.Len(),
		BufferedPosts:  s.history.Len(),
		RecencyWindow:  s.cfg.RecencyWindow.String(),
		ReportSchedule: fmt.Sprintf("%02d:%02d %s", s.cfg.ReportHour, s.cfg.ReportMinute, s.cfg.ReportTimezone),
	}
	if next := s.schedule.NextRunAt(); !next.IsZero() {
		status.NextReportAt = &next
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Error encoding status", "error", err)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	rss, err := s.feedService.GenerateFeed(baseURL).ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
