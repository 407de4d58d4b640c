package app

import "party-trivia/internal/domain"

// Event is an input to the reducer.
type Event interface {
	event()
}

type (
	InitHost struct{}
	InitJoin struct{}

	UpdateConfig struct {
		Rounds            int
		QuestionsPerRound int
	}

	SetMode struct {
		Mode domain.Mode
	}

	// GenerationStarted marks the session loading; the reducer bumps the
	// generation counter that the completion must echo back.
	GenerationStarted struct {
		Rounds            int
		QuestionsPerRound int
	}

	ContentGenerated struct {
		Generation int
		Rounds     []domain.RoundConfig
	}

	GenerationFailed struct {
		Generation int
		Message    string
	}

	ContentImported struct {
		Content []domain.CategoryContent
	}

	// QuestionRegenerated must echo the generation of the content it was
	// drawn for.
	QuestionRegenerated struct {
		Generation int
		CategoryID string
		Index      int
		Question   domain.Question
	}

	// ConfirmContent opens the lobby. PinTaken, when set, reports pins held
	// by other lobbies so a fresh one is drawn.
	ConfirmContent struct {
		PinTaken func(pin string) bool
	}

	Join struct {
		Name   string
		Avatar domain.Avatar
	}

	HostJoin struct {
		Name   string
		Avatar domain.Avatar
	}

	AddBot struct{}

	// BotTick is the lobby's periodic auto-join signal.
	BotTick struct{}

	StartGame struct{}

	SelectCategory struct {
		CategoryID string
	}

	SubmitAnswer struct {
		Answer domain.Answer
	}

	// Tick is one second of the countdown for the question it was started for.
	Tick struct {
		Round         int
		QuestionIndex int
	}

	NextQuestion struct{}
	NextRound    struct{}
	Restart      struct{}
)

func (InitHost) event()            {}
func (InitJoin) event()            {}
func (UpdateConfig) event()        {}
func (SetMode) event()             {}
func (GenerationStarted) event()   {}
func (ContentGenerated) event()    {}
func (GenerationFailed) event()    {}
func (ContentImported) event()     {}
func (QuestionRegenerated) event() {}
func (ConfirmContent) event()      {}
func (Join) event()                {}
func (HostJoin) event()            {}
func (AddBot) event()              {}
func (BotTick) event()             {}
func (StartGame) event()           {}
func (SelectCategory) event()      {}
func (SubmitAnswer) event()        {}
func (Tick) event()                {}
func (NextQuestion) event()        {}
func (NextRound) event()           {}
func (Restart) event()             {}
