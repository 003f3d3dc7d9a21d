package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"attuned-server/auth"
	"attuned-server/content"
	"attuned-server/game"
	"attuned-server/gameerrors"
	"attuned-server/quota"
)

const bearerPrefix = "Bearer "

// anonymousHeader carries the anonymous session id for unauthenticated
// clients; the body field of the same name takes precedence.
const anonymousHeader = "X-Anonymous-Id"

// Handler holds dependencies for API handlers.
type Handler struct {
	Engine   *game.Engine
	Verifier *auth.Verifier
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(engine *game.Engine, verifier *auth.Verifier) *Handler {
	return &Handler{Engine: engine, Verifier: verifier}
}

// Register mounts all game routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/game/start", h.StartSession)
	mux.HandleFunc("/api/game/advance", h.AdvanceTurn)
	mux.HandleFunc("/api/game/generate", h.GenerateSession)
	mux.HandleFunc("/api/game/session", h.GetSession)
	mux.HandleFunc("/api/quota", h.QuotaStatus)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+anonymousHeader)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// identity resolves the caller: a verified bearer token wins, then the
// explicit anonymous id. bodyAnonID comes from the decoded request
// body and overrides the header.
func (h *Handler) identity(r *http.Request, bodyAnonID string) game.Identity {
	id := game.Identity{AnonymousID: bodyAnonID}
	if id.AnonymousID == "" {
		id.AnonymousID = strings.TrimSpace(r.Header.Get(anonymousHeader))
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		token := strings.TrimSpace(authHeader[len(bearerPrefix):])
		claims, err := h.Verifier.Validate(token)
		if err != nil {
			slog.Debug("token rejected", "tag", "api", "error", err)
		} else {
			id.UserID = auth.UserIDFromClaims(claims)
		}
	}
	return id
}

type startRequest struct {
	AnonymousID  string                  `json:"anonymous_session_id"`
	Participants []game.ParticipantInput `json:"participants"`
	Settings     game.RawSettings        `json:"settings"`
}

type sessionResponse struct {
	SessionID     string             `json:"session_id"`
	SelectionMode game.SelectionMode `json:"selection_mode"`
	Players       []game.Player      `json:"players"`
	Step          int                `json:"step"`
	Queue         []game.TurnEntry   `json:"queue"`
	QuotaStatus   quota.Status       `json:"quota_status"`
}

func sessionPayload(s *game.Session, status quota.Status) sessionResponse {
	return sessionResponse{
		SessionID:     s.ID,
		SelectionMode: s.Settings.SelectionMode,
		Players:       s.Players,
		Step:          s.State.Step,
		Queue:         s.State.Queue,
		QuotaStatus:   status,
	}
}

// StartSession creates a session and returns its initial queue.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	caller := h.identity(r, req.AnonymousID)
	s, status, err := h.Engine.StartSession(r.Context(), caller, req.Participants, req.Settings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(s, status))
}

// GenerateSession pre-generates a complete session plan in a single
// call instead of queueing turns one advance at a time.
func (h *Handler) GenerateSession(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	caller := h.identity(r, req.AnonymousID)
	plan, err := h.Engine.GenerateSession(r.Context(), caller, req.Participants, req.Settings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type advanceRequest struct {
	AnonymousID  string `json:"anonymous_session_id"`
	SessionID    string `json:"session_id"`
	SelectedType string `json:"selected_type"`
}

// AdvanceTurn consumes the head of the queue and returns the
// replenished one.
func (h *Handler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	caller := h.identity(r, req.AnonymousID)
	selected := content.Type(strings.ToLower(strings.TrimSpace(req.SelectedType)))
	s, status, err := h.Engine.AdvanceTurn(r.Context(), req.SessionID, caller, selected)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(s, status))
}

// GetSession returns the current state of a session for a participant.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	caller := h.identity(r, "")
	s, err := h.Engine.Session(r.Context(), sessionID, caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status, err := h.Engine.QuotaStatus(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(s, status))
}

// QuotaStatus reports the caller's quota standing.
func (h *Handler) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	caller := h.identity(r, "")
	status, err := h.Engine.QuotaStatus(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// writeError maps engine errors to HTTP statuses. Content-selection
// problems never surface here; the repair chain absorbs them.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gameerrors.ErrNoIdentity):
		http.Error(w, "identity required", http.StatusUnauthorized)
	case errors.Is(err, gameerrors.ErrNotParticipant):
		http.Error(w, "not a session participant", http.StatusForbidden)
	case errors.Is(err, gameerrors.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, gameerrors.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusBadRequest)
	case errors.Is(err, gameerrors.ErrInvalidSelection), gameerrors.IsStructural(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("request failed", "tag", "api", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "tag", "api", "error", err)
	}
}
