package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"party-trivia/internal/app"
	"party-trivia/internal/csvio"
	"party-trivia/internal/domain"
)

// APIHandler serves the REST side of sessions.
type APIHandler struct {
	service     *app.GameService
	leaderboard LeaderboardReader
}

func NewAPIHandler(service *app.GameService, leaderboard LeaderboardReader) *APIHandler {
	return &APIHandler{service: service, leaderboard: leaderboard}
}

type sessionCreated struct {
	ID    string    `json:"id"`
	State app.State `json:"state"`
}

type pinResolved struct {
	Pin       string `json:"pin"`
	SessionID string `json:"sessionId"`
}

// CreateSession handles POST /v1/sessions.
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.service.Create(r.Context())
	writeJSON(w, http.StatusCreated, sessionCreated{ID: session.ID(), State: session.Snapshot()})
}

// GetSession handles GET /v1/sessions/{id}.
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (h *APIHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.service.Get(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.service.Close(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// ExportSession handles GET /v1/sessions/{id}/export.
func (h *APIHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rounds, err := h.service.Content(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trivia-`+id+`.csv"`)
	if err := csvio.Export(w, csvio.ContentFromRounds(rounds)); err != nil {
		log.Printf("export session %s: %v", id, err)
	}
}

// Leaderboard handles GET /v1/sessions/{id}/leaderboard?limit=n.
func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	if h.leaderboard != nil {
		entries, err := h.leaderboard.Top(r.Context(), id, limit)
		if err == nil && len(entries) > 0 {
			writeJSON(w, http.StatusOK, entries)
			return
		}
		if err != nil {
			log.Printf("read mirrored leaderboard %s: %v", id, err)
		}
	}

	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entries := session.Snapshot().Leaderboard()
	if len(entries) > limit {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, entries)
}

// PlayerRank handles GET /v1/sessions/{id}/leaderboard/{playerId}.
func (h *APIHandler) PlayerRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, playerID := vars["id"], vars["playerId"]

	if h.leaderboard != nil {
		entry, err := h.leaderboard.Rank(r.Context(), id, playerID)
		if err == nil {
			writeJSON(w, http.StatusOK, entry)
			return
		}
		if !errors.Is(err, domain.ErrPlayerNotFound) {
			log.Printf("read mirrored rank %s/%s: %v", id, playerID, err)
		}
	}

	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for _, entry := range session.Snapshot().Leaderboard() {
		if entry.PlayerID == playerID {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}
	writeServiceError(w, domain.ErrPlayerNotFound)
}

// ResolvePin handles GET /v1/pins/{pin}.
func (h *APIHandler) ResolvePin(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]
	session, err := h.service.ByPin(r.Context(), pin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pinResolved{Pin: pin, SessionID: session.ID()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}
