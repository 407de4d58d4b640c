package app

import (
	"context"
	"log"

	"github.com/google/uuid"
	"party-trivia/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	IndexPin(pin, id string)
	// UnindexPin releases pin if it still points at id.
	UnindexPin(pin, id string)
	LookupPin(pin string) (string, bool)
	Delete(id string)
}

// ScoreSink receives leaderboards whenever scores may have changed.
type ScoreSink interface {
	Record(ctx context.Context, sessionID string, entries []domain.LeaderboardEntry) error
}

// GameService creates sessions and resolves them by id or pin.
type GameService struct {
	sessions SessionRepository
	provider QuestionProvider
	opts     SessionOptions
	scores   ScoreSink
}

func NewGameService(store SessionRepository, provider QuestionProvider, opts SessionOptions, scores ScoreSink) *GameService {
	return &GameService{sessions: store, provider: provider, opts: opts, scores: scores}
}

// Create opens a new session in the START phase.
func (g *GameService) Create(_ context.Context) *Session {
	session := NewSession(uuid.NewString(), g.provider, g.opts)
	g.sessions.Put(session)
	if g.scores != nil {
		go g.mirror(session)
	}
	return session
}

// Get returns the session with id.
func (g *GameService) Get(_ context.Context, id string) (*Session, error) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ByPin returns the session whose lobby uses pin. A session that has
// dropped the pin since (e.g. by restarting) no longer matches.
func (g *GameService) ByPin(ctx context.Context, pin string) (*Session, error) {
	id, ok := g.sessions.LookupPin(pin)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session, err := g.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Snapshot().GamePin != pin {
		g.sessions.UnindexPin(pin, id)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Confirm moves a reviewed session into its lobby and registers its pin.
// Pins held by other live lobbies are drawn again.
func (g *GameService) Confirm(ctx context.Context, id string) (State, error) {
	session, err := g.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	st := session.ConfirmContentAvoiding(func(pin string) bool {
		owner, ok := g.sessions.LookupPin(pin)
		return ok && owner != id
	})
	if st.Phase != domain.PhaseLobby || st.GamePin == "" {
		return st, domain.ErrInvalidTransition
	}
	g.sessions.IndexPin(st.GamePin, id)
	return st, nil
}

// Restart resets a session to START and releases its lobby pin.
func (g *GameService) Restart(ctx context.Context, id string) (State, error) {
	session, err := g.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	pin := session.Snapshot().GamePin
	st := session.Restart()
	if pin != "" && st.GamePin != pin {
		g.sessions.UnindexPin(pin, id)
	}
	return st, nil
}

// Content returns the round plan of a session, for export.
func (g *GameService) Content(ctx context.Context, id string) ([]domain.RoundConfig, error) {
	session, err := g.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rounds := session.Snapshot().Rounds
	if len(rounds) == 0 {
		return nil, domain.ErrInvalidTransition
	}
	return rounds, nil
}

// Close stops a session and forgets it.
func (g *GameService) Close(_ context.Context, id string) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	g.sessions.Delete(id)
}

func (g *GameService) mirror(session *Session) {
	updates, cancel := session.Subscribe()
	defer cancel()
	for st := range updates {
		switch st.Phase {
		case domain.PhaseStart, domain.PhaseRoundResult, domain.PhaseRoundEnd, domain.PhaseGameOver:
			if err := g.scores.Record(context.Background(), session.ID(), st.Leaderboard()); err != nil {
				log.Printf("record leaderboard for session %s: %v", session.ID(), err)
			}
		}
	}
}
