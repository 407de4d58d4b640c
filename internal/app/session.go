package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"party-trivia/internal/domain"
)

const generationFailedMessage = "Failed to generate game content."

// SessionOptions configures a Session. Zero values fall back to defaults.
type SessionOptions struct {
	Rules        Rules
	Dice         Dice
	Ticker       Ticker
	Catalog      []domain.Category
	TickInterval time.Duration
	BotInterval  time.Duration
	Now          func() time.Time
	NewID        func(prefix string) string
}

// Session owns one game's state. Every event is applied under the session
// lock by the reducer, so transitions never interleave. Timers only feed
// events back in; the reducer discards those that no longer apply.
type Session struct {
	id        string
	createdAt time.Time
	provider  QuestionProvider
	catalog   []domain.Category
	ticker    Ticker
	tickEvery time.Duration
	botEvery  time.Duration

	mu          sync.Mutex
	reducer     *Reducer
	dice        Dice
	state       State
	closed      bool
	countdown   func()
	countdownAt Tick
	botTimer    func()
	subscribers map[chan State]struct{}
}

func NewSession(id string, provider QuestionProvider, opts SessionOptions) *Session {
	if opts.Rules.TimerDuration == 0 {
		opts.Rules = DefaultRules()
	}
	if opts.Dice == nil {
		opts.Dice = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Ticker == nil {
		opts.Ticker = RealTicker
	}
	if opts.Catalog == nil {
		opts.Catalog = domain.Categories
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.BotInterval <= 0 {
		opts.BotInterval = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuidID
	}
	if provider == nil {
		provider = WithFallback(nil)
	}

	reducer := NewReducerWithIDs(opts.Rules, opts.Dice, opts.NewID)
	return &Session{
		id:          id,
		createdAt:   opts.Now(),
		provider:    provider,
		catalog:     opts.Catalog,
		ticker:      opts.Ticker,
		tickEvery:   opts.TickInterval,
		botEvery:    opts.BotInterval,
		reducer:     reducer,
		dice:        opts.Dice,
		state:       reducer.Initial(),
		subscribers: make(map[chan State]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies ev and returns the resulting state.
func (s *Session) Dispatch(ev Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

func (s *Session) InitHost() State { return s.Dispatch(InitHost{}) }

func (s *Session) InitJoin() State { return s.Dispatch(InitJoin{}) }

func (s *Session) UpdateConfig(rounds, questionsPerRound int) State {
	return s.Dispatch(UpdateConfig{Rounds: rounds, QuestionsPerRound: questionsPerRound})
}

func (s *Session) SetMode(mode domain.Mode) State { return s.Dispatch(SetMode{Mode: mode}) }

func (s *Session) ImportContent(content []domain.CategoryContent) State {
	return s.Dispatch(ContentImported{Content: content})
}

func (s *Session) ConfirmContent() State { return s.Dispatch(ConfirmContent{}) }

// ConfirmContentAvoiding is ConfirmContent drawing around pins for which
// taken reports true. taken runs under the session lock.
func (s *Session) ConfirmContentAvoiding(taken func(pin string) bool) State {
	return s.Dispatch(ConfirmContent{PinTaken: taken})
}

func (s *Session) Join(name string, avatar domain.Avatar) State {
	return s.Dispatch(Join{Name: name, Avatar: avatar})
}

func (s *Session) HostJoinAsPlayer(name string, avatar domain.Avatar) State {
	return s.Dispatch(HostJoin{Name: name, Avatar: avatar})
}

func (s *Session) AddBot() State { return s.Dispatch(AddBot{}) }

func (s *Session) StartGame() State { return s.Dispatch(StartGame{}) }

// SelectCategory starts the current round. The round's category is fixed by
// the content plan; a different categoryID is logged and otherwise ignored.
func (s *Session) SelectCategory(categoryID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == domain.PhaseCategorySelect && categoryID != "" {
		if idx := s.state.CurrentRound - 1; idx >= 0 && idx < len(s.state.Rounds) {
			if want := s.state.Rounds[idx].Category.ID; want != categoryID {
				log.Printf("session %s: category %q selected, round %d uses %q", s.id, categoryID, s.state.CurrentRound, want)
			}
		}
	}
	return s.applyLocked(SelectCategory{CategoryID: categoryID})
}

func (s *Session) SubmitAnswer(answer domain.Answer) State {
	return s.Dispatch(SubmitAnswer{Answer: answer})
}

func (s *Session) NextQuestion() State { return s.Dispatch(NextQuestion{}) }

func (s *Session) NextRound() State { return s.Dispatch(NextRound{}) }

func (s *Session) Restart() State { return s.Dispatch(Restart{}) }

// GenerateContent builds the round plan through the question provider. The
// provider runs outside the lock; the result is only committed if no restart
// or newer request happened meanwhile. A second request while loading is
// rejected with domain.ErrGenerationInProgress.
func (s *Session) GenerateContent(ctx context.Context, rounds, questionsPerRound int) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return domain.ErrGenerationInProgress
	}
	before := s.state.Generation
	s.applyLocked(GenerationStarted{Rounds: rounds, QuestionsPerRound: questionsPerRound})
	if s.state.Generation == before {
		s.mu.Unlock()
		return nil
	}
	generation := s.state.Generation
	categories := DrawCategories(s.catalog, rounds, s.dice)
	s.mu.Unlock()

	plan, err := BuildRounds(ctx, s.provider, categories, questionsPerRound)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("session %s: generate content: %v", s.id, err)
		s.applyLocked(GenerationFailed{Generation: generation, Message: generationFailedMessage})
		return err
	}
	s.applyLocked(ContentGenerated{Generation: generation, Rounds: plan})
	return nil
}

// RegenerateQuestion replaces one question of the round using categoryID.
// It only runs while content is reviewable (REVIEW or LOBBY), and the result
// is dropped if the content was replaced meanwhile. Failures are logged and
// leave the content as it was.
func (s *Session) RegenerateQuestion(ctx context.Context, categoryID string, index int) State {
	s.mu.Lock()
	if s.state.Phase != domain.PhaseReview && s.state.Phase != domain.PhaseLobby {
		st := s.state
		s.mu.Unlock()
		return st
	}
	rounds := s.state.Rounds
	generation := s.state.Generation
	s.mu.Unlock()

	q, err := RegenerateOne(ctx, s.provider, rounds, categoryID, index)
	if err != nil {
		log.Printf("session %s: regenerate question: %v", s.id, err)
		return s.Snapshot()
	}
	return s.Dispatch(QuestionRegenerated{Generation: generation, CategoryID: categoryID, Index: index, Question: q})
}

// Subscribe returns a channel of state snapshots. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.state
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the session's timers and ends all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopCountdownLocked()
	s.stopBotsLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) applyLocked(ev Event) State {
	s.state = s.reducer.Reduce(s.state, ev)
	s.syncTimersLocked()
	s.broadcastLocked()
	return s.state
}

// syncTimersLocked keeps exactly the timers the current phase needs.
func (s *Session) syncTimersLocked() {
	st := s.state

	key := Tick{Round: st.CurrentRound, QuestionIndex: st.CurrentQuestionIndex}
	wantCountdown := !s.closed && st.Phase == domain.PhasePlaying
	if s.countdown != nil && (!wantCountdown || s.countdownAt != key) {
		s.stopCountdownLocked()
	}
	if wantCountdown && s.countdown == nil {
		s.countdownAt = key
		s.countdown = s.ticker(s.tickEvery, func() { s.Dispatch(key) })
	}

	wantBots := !s.closed && st.Phase == domain.PhaseLobby && st.IsHost && len(st.Players) < s.reducer.rules.BotTarget
	if !wantBots {
		s.stopBotsLocked()
	} else if s.botTimer == nil {
		s.botTimer = s.ticker(s.botEvery, func() { s.Dispatch(BotTick{}) })
	}
}

func (s *Session) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown()
		s.countdown = nil
	}
}

func (s *Session) stopBotsLocked() {
	if s.botTimer != nil {
		s.botTimer()
		s.botTimer = nil
	}
}

func (s *Session) broadcastLocked() {
	snapshot := s.state
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// latest snapshot wins for slow subscribers
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
