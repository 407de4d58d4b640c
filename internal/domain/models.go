package domain

import "sort"

// Phase is the stage of the game lifecycle a session is in.
type Phase string

const (
	PhaseStart          Phase = "START"
	PhaseHostConfig     Phase = "HOST_CONFIG"
	PhaseReview         Phase = "REVIEW"
	PhaseJoin           Phase = "JOIN"
	PhaseLobby          Phase = "LOBBY"
	PhaseCategorySelect Phase = "CATEGORY_SELECT"
	PhasePlaying        Phase = "PLAYING"
	PhaseRoundResult    Phase = "ROUND_RESULT"
	PhaseRoundEnd       Phase = "ROUND_END"
	PhaseGameOver       Phase = "GAME_OVER"
)

// Mode is recorded on the session and reported to clients.
type Mode string

const (
	ModeStandard Mode = "STANDARD"
	ModeSurvival Mode = "SURVIVAL"
)

// QuestionType selects how a question's options are interpreted.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	TypeAnswer     QuestionType = "TYPE_ANSWER"
	Slider         QuestionType = "SLIDER"
	Puzzle         QuestionType = "PUZZLE"
)

// ParseQuestionType returns the type named by s, if any.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch t := QuestionType(s); t {
	case MultipleChoice, TrueFalse, TypeAnswer, Slider, Puzzle:
		return t, true
	}
	return "", false
}

// Avatar is the cosmetic identity of a player.
type Avatar struct {
	Emoji     string `json:"emoji"`
	Color     string `json:"color"`
	Accessory string `json:"accessory,omitempty"`
}

// Player is a participant in a session, human or bot.
type Player struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Avatar            Avatar `json:"avatar"`
	Score             int    `json:"score"`
	IsBot             bool   `json:"isBot"`
	IsHost            bool   `json:"isHost"`
	Streak            int    `json:"streak"`
	LastAnswerCorrect *bool  `json:"lastAnswerCorrect,omitempty"`
}

// Category is a static catalog entry.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Question holds one trivia item. Options are overloaded per type:
//   - MULTIPLE_CHOICE, TRUE_FALSE: the choices; CorrectIndex points at the answer.
//   - TYPE_ANSWER: every accepted answer.
//   - SLIDER: [min, max, step, correctLow, correctHigh] as decimal strings.
//   - PUZZLE: the items in their canonical order.
type Question struct {
	ID           string       `json:"id"`
	Category     string       `json:"category"`
	Text         string       `json:"text"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correctIndex"`
	Explanation  string       `json:"explanation,omitempty"`
	Type         QuestionType `json:"type"`
}

// Kind reports the question type, treating an unset type as multiple choice.
func (q Question) Kind() QuestionType {
	if q.Type == "" {
		return MultipleChoice
	}
	return q.Type
}

// RoundConfig is one category-themed block of questions.
type RoundConfig struct {
	RoundNumber int        `json:"roundNumber"`
	Category    Category   `json:"category"`
	Questions   []Question `json:"questions"`
}

// CategoryContent groups imported questions under their category.
type CategoryContent struct {
	Category  Category   `json:"category"`
	Questions []Question `json:"questions"`
}

// LeaderboardEntry is a ranked view of a player.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
	IsBot    bool   `json:"isBot"`
}

// RankLeaderboard orders entries by score, then streak, then name, and
// numbers them from 1.
func RankLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
