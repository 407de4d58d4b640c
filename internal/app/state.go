package app

import "party-trivia/internal/domain"

// State is the full session model. Values are never mutated in place by the
// reducer; every transition returns a new State.
type State struct {
	Phase             domain.Phase         `json:"phase"`
	Mode              domain.Mode          `json:"mode"`
	Players           []domain.Player      `json:"players"`
	CurrentPlayerID   string               `json:"currentPlayerId,omitempty"`
	IsHost            bool                 `json:"isHost"`
	GamePin           string               `json:"gamePin,omitempty"`
	TotalRounds       int                  `json:"totalRounds"`
	QuestionsPerRound int                  `json:"questionsPerRound"`
	Rounds            []domain.RoundConfig `json:"roundsConfig"`

	CurrentRound         int               `json:"currentRound"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	Queue                []domain.Question `json:"questionsQueue"`
	CurrentQuestion      *domain.Question  `json:"currentQuestion,omitempty"`
	SelectedCategory     string            `json:"selectedCategory,omitempty"`

	TimeLeft   int    `json:"timeLeft"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	Generation int    `json:"-"`
}

// InitialState is the START state with default configuration.
func InitialState() State {
	return State{
		Phase:             domain.PhaseStart,
		Mode:              domain.ModeStandard,
		TotalRounds:       3,
		QuestionsPerRound: 5,
		TimeLeft:          domain.TimerDuration,
	}
}

// Player returns the player with id.
func (s State) Player(id string) (domain.Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Player{}, false
}

// Self returns the viewer's own player, if the viewer is not a spectator.
func (s State) Self() (domain.Player, bool) {
	if s.CurrentPlayerID == "" {
		return domain.Player{}, false
	}
	return s.Player(s.CurrentPlayerID)
}

func (s State) botCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsBot {
			n++
		}
	}
	return n
}

// Leaderboard ranks players by score, then streak, then name.
func (s State) Leaderboard() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(s.Players))
	for _, p := range s.Players {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Streak:   p.Streak,
			IsBot:    p.IsBot,
		})
	}
	domain.RankLeaderboard(entries)
	return entries
}

// clone copies the slices a transition may write to.
func (s State) clone() State {
	s.Players = append([]domain.Player(nil), s.Players...)
	s.Rounds = append([]domain.RoundConfig(nil), s.Rounds...)
	return s
}
