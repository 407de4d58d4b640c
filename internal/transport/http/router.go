package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"party-trivia/internal/app"
	"party-trivia/internal/domain"
)

// LeaderboardReader serves mirrored standings (Redis ZSET) when configured.
type LeaderboardReader interface {
	Top(ctx context.Context, sessionID string, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, sessionID, playerID string) (domain.LeaderboardEntry, error)
}

// Container holds the dependencies of the router.
type Container struct {
	Service     *app.GameService
	Leaderboard LeaderboardReader // optional
}

// NewRouter wires the REST and websocket endpoints.
func NewRouter(c Container) http.Handler {
	r := mux.NewRouter()

	api := NewAPIHandler(c.Service, c.Leaderboard)
	ws := NewWSHandler(c.Service)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", api.CreateSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", api.GetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}", api.DeleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/export", api.ExportSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/leaderboard", api.Leaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/leaderboard/{playerId}", api.PlayerRank).Methods(http.MethodGet)
	v1.HandleFunc("/pins/{pin}", api.ResolvePin).Methods(http.MethodGet)
	return r
}
