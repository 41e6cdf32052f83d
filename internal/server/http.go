package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/auth"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/config"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/driver"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/metrics"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/session"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/transcription"
)

// HTTPServer provides the HTTP API for the meeting recorder
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	sessionMgr *session.Manager
	store      *meeting.Store
	authSvc    *auth.Service
	bridge     *driver.Bridge
	transcribe *transcription.Client
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates the API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	sessionMgr *session.Manager, store *meeting.Store, authSvc *auth.Service,
	bridge *driver.Bridge, transcribe *transcription.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		sessionMgr: sessionMgr,
		store:      store,
		authSvc:    authSvc,
		bridge:     bridge,
		transcribe: transcribe,
		metrics:    m,
		startTime:  time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler exposes the configured mux, mainly for tests.
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Authentication endpoints
	mux.HandleFunc("/api/auth/register", h.withMetrics("/api/auth/register", h.handleRegister))
	mux.HandleFunc("/api/auth/login", h.withMetrics("/api/auth/login", h.handleLogin))

	// Bot control
	mux.HandleFunc("/api/bot/start", h.withMetrics("/api/bot/start", h.requireAuth(h.handleBotStart)))

	// Meeting retrieval
	mux.HandleFunc("/api/meetings", h.withMetrics("/api/meetings", h.requireAuth(h.handleMeetings)))
	mux.HandleFunc("/api/meetings/", h.withMetrics("/api/meetings/{id}", h.requireAuth(h.handleMeetingDetail)))

	// Driver capture channel. The one-time token authenticates the
	// driver; the user bearer token never reaches the driver process.
	mux.HandleFunc("/driver/ws", h.bridge.HandleWS)

	// Monitoring
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireAuth resolves the bearer token before invoking the handler.
func (h *HTTPServer) requireAuth(handler authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		handler(w, r, userID)
	}
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleRegister implements POST /api/auth/register
func (h *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

// handleLogin implements POST /api/auth/login
func (h *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

// handleBotStart implements POST /api/bot/start. The response is 202:
// the recording runs asynchronously and the resulting record shows up
// in the meetings list once the session finalizes.
func (h *HTTPServer) handleBotStart(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		MeetingURL string `json:"meetingUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, driverToken, err := h.sessionMgr.Launch(req.MeetingURL, userID)
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"sessionId":   sessionID,
		"driverToken": driverToken,
		"status":      "recording",
	})
}

// handleMeetings implements GET /api/meetings with pagination.
func (h *HTTPServer) handleMeetings(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.store.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		h.logger.Error("Failed to list meetings",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// handleMeetingDetail implements GET /api/meetings/{id}
func (h *HTTPServer) handleMeetingDetail(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/meetings/")
	if id == "" || strings.Contains(id, "/") {
		h.writeError(w, http.StatusBadRequest, "meeting id required")
		return
	}

	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "meeting not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}

	if rec.UserID != userID {
		h.writeError(w, http.StatusForbidden, "not your meeting")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uptime := time.Since(h.startTime)
	sessionStats := h.sessionMgr.GetStats()
	transcriptionStats := h.transcribe.GetStats()

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]any{
			"name":    "ai-meet-summarizer",
			"version": "1.0.0",
		},
		"components": map[string]any{
			"session_manager": map[string]any{
				"status":          "running",
				"active_sessions": sessionStats.ActiveSessions,
			},
			"transcription": map[string]any{
				"status":          "running",
				"total_requests":  transcriptionStats.TotalRequests,
				"success_rate":    transcriptionStats.SuccessRate,
				"active_requests": transcriptionStats.ActiveRequests,
			},
		},
	}

	h.writeJSON(w, http.StatusOK, health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := map[string]any{
		"timestamp":     time.Now().UTC(),
		"uptime":        time.Since(h.startTime).String(),
		"sessions":      h.sessionMgr.GetStats(),
		"transcription": h.transcribe.GetStats(),
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

func (h *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
