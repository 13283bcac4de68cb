package honeypot

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Handler wires HTTP requests to the honeypot service.
type Handler struct {
	service *Service
	store   *session.Store
	logger  *logging.Logger
}

// NewHandler creates a honeypot handler.
func NewHandler(service *Service, store *session.Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		store:   store,
		logger:  logger,
	}
}

// Webhook handles POST /webhook.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode webhook request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ProcessMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMissingSessionID) {
			http.Error(w, "sessionId is required", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to process webhook message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// sessionSummary is the list-view projection of a session.
type sessionSummary struct {
	SessionID    string `json:"session_id"`
	State        string `json:"state"`
	ScamDetected bool   `json:"scam_detected"`
	TurnCount    int    `json:"turn_count"`
	IntelCount   int    `json:"intelligence_count"`
	LastActivity string `json:"last_activity_at"`
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	snaps := h.store.List()
	summaries := make([]sessionSummary, 0, len(snaps))
	for _, snap := range snaps {
		summaries = append(summaries, sessionSummary{
			SessionID:    snap.SessionID,
			State:        string(snap.State),
			ScamDetected: snap.ScamDetected,
			TurnCount:    snap.TurnCount,
			IntelCount:   snap.IntelCount,
			LastActivity: snap.LastActivityAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(summaries),
		"sessions": summaries,
	})
}

// GetSession handles GET /sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snap, ok := h.store.Get(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

// Health handles GET / and GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": h.store.Len(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
