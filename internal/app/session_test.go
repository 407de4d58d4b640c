package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"party-trivia/internal/app"
	"party-trivia/internal/domain"
)

// blockingProvider holds every Generate call until release is closed.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingProvider() *blockingProvider {
	return &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
}

func (p *blockingProvider) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return staticProvider()(ctx, category, count)
}

func TestGenerateContentMovesToReview(t *testing.T) {
	session := newTestSession(staticProvider(), fixedDice{}, &manualTicker{})
	session.InitHost()
	if err := session.GenerateContent(context.Background(), 2, 3); err != nil {
		t.Fatalf("generate: %v", err)
	}
	st := session.Snapshot()
	if st.Phase != domain.PhaseReview || st.Loading {
		t.Fatalf("expected review, got %s loading=%v", st.Phase, st.Loading)
	}
	if st.TotalRounds != 2 || len(st.Rounds) != 2 || len(st.Rounds[1].Questions) != 3 {
		t.Fatalf("unexpected plan: %+v", st.Rounds)
	}
	if st.Rounds[0].Category.ID == st.Rounds[1].Category.ID {
		t.Fatalf("expected distinct categories")
	}
}

func TestGenerateContentFailureStaysInConfig(t *testing.T) {
	session := newTestSession(failingProvider(errors.New("quota")), fixedDice{}, &manualTicker{})
	session.InitHost()
	if err := session.GenerateContent(context.Background(), 2, 3); err == nil {
		t.Fatalf("expected error")
	}
	st := session.Snapshot()
	if st.Phase != domain.PhaseHostConfig || st.Loading || st.Error != "Failed to generate game content." {
		t.Fatalf("unexpected state after failure: phase=%s loading=%v error=%q", st.Phase, st.Loading, st.Error)
	}
	if len(st.Rounds) != 0 {
		t.Fatalf("partial content committed")
	}
}

func TestGenerateContentRejectsConcurrentRequest(t *testing.T) {
	provider := newBlockingProvider()
	session := newTestSession(provider, fixedDice{}, &manualTicker{})
	session.InitHost()

	done := make(chan error, 1)
	go func() { done <- session.GenerateContent(context.Background(), 1, 2) }()
	<-provider.started

	if err := session.GenerateContent(context.Background(), 1, 2); !errors.Is(err, domain.ErrGenerationInProgress) {
		t.Fatalf("expected generation in progress, got %v", err)
	}
	if st := session.UpdateConfig(4, 4); st.TotalRounds != 1 {
		t.Fatalf("config changed while loading")
	}

	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("generate: %v", err)
	}
	if st := session.Snapshot(); st.Phase != domain.PhaseReview {
		t.Fatalf("expected review, got %s", st.Phase)
	}
}

func TestRestartDuringGenerationDiscardsResult(t *testing.T) {
	provider := newBlockingProvider()
	session := newTestSession(provider, fixedDice{}, &manualTicker{})
	session.InitHost()

	done := make(chan error, 1)
	go func() { done <- session.GenerateContent(context.Background(), 1, 2) }()
	<-provider.started

	session.Restart()
	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("generate: %v", err)
	}
	st := session.Snapshot()
	if st.Phase != domain.PhaseStart || len(st.Rounds) != 0 || st.Loading {
		t.Fatalf("late content leaked into restarted session: %+v", st)
	}
}

func TestCountdownFollowsCurrentQuestion(t *testing.T) {
	session, ticker := lobbyWithHost(t, fixedDice{f: 0.9}, 1, 2)
	session.StartGame()
	if ticker.Active(tickEvery) != 0 {
		t.Fatalf("countdown should not run before a category is selected")
	}
	session.SelectCategory("")
	if ticker.Active(tickEvery) != 1 {
		t.Fatalf("expected one countdown, got %d", ticker.Active(tickEvery))
	}
	ticker.Fire(tickEvery)
	if st := session.Snapshot(); st.TimeLeft != domain.TimerDuration-1 {
		t.Fatalf("expected %d seconds left, got %d", domain.TimerDuration-1, st.TimeLeft)
	}

	first := ticker.Last(tickEvery)
	session.SubmitAnswer(domain.IndexAnswer(1))
	if ticker.Active(tickEvery) != 0 {
		t.Fatalf("countdown should stop once answered")
	}
	session.NextQuestion()
	if ticker.Active(tickEvery) != 1 {
		t.Fatalf("expected a fresh countdown for question 2")
	}

	// a tick from the first question's timer arriving late
	first.fn()
	if st := session.Snapshot(); st.TimeLeft != domain.TimerDuration || st.CurrentQuestionIndex != 1 {
		t.Fatalf("stale tick applied: timeLeft=%d index=%d", st.TimeLeft, st.CurrentQuestionIndex)
	}
}

func TestBotTimerFillsLobby(t *testing.T) {
	session, ticker := lobbyWithHost(t, fixedDice{}, 1, 1)
	if ticker.Active(botEvery) != 1 {
		t.Fatalf("expected bot timer in host lobby")
	}
	ticker.Fire(botEvery)
	ticker.Fire(botEvery)
	st := session.Snapshot()
	if len(st.Players) != domain.BotTarget {
		t.Fatalf("expected %d players, got %d", domain.BotTarget, len(st.Players))
	}
	if ticker.Active(botEvery) != 0 {
		t.Fatalf("bot timer should stop at %d players", domain.BotTarget)
	}
	if st.Players[1].Name != domain.BotNames[0] || st.Players[2].Name != domain.BotNames[1] {
		t.Fatalf("unexpected bot names: %s, %s", st.Players[1].Name, st.Players[2].Name)
	}
}

func TestBotTimerStopsWhenGameStarts(t *testing.T) {
	session, ticker := lobbyWithHost(t, fixedDice{}, 1, 1)
	timer := ticker.Last(botEvery)
	session.StartGame()
	if ticker.Active(botEvery) != 0 {
		t.Fatalf("bot timer still running after start")
	}
	timer.fn()
	if st := session.Snapshot(); len(st.Players) != 1 {
		t.Fatalf("late bot tick added a player: %d", len(st.Players))
	}
}

func TestJoinerSessionHasNoBotTimer(t *testing.T) {
	ticker := &manualTicker{}
	session := newTestSession(staticProvider(), fixedDice{}, ticker)
	session.InitJoin()
	st := session.Join("Bob", domain.Avatar{})
	if st.Phase != domain.PhaseLobby {
		t.Fatalf("expected lobby, got %s", st.Phase)
	}
	if ticker.Active(botEvery) != 0 {
		t.Fatalf("joiner should not add bots")
	}
}

func TestRegenerateQuestion(t *testing.T) {
	var mu sync.Mutex
	var fail bool
	calls := 0
	provider := app.ProviderFunc(func(ctx context.Context, category string, count int) ([]domain.Question, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("offline")
		}
		calls++
		questions, _ := staticProvider()(ctx, category, count)
		if calls > 1 {
			questions[0].ID = "replacement"
		}
		return questions, nil
	})
	session := newTestSession(provider, fixedDice{}, &manualTicker{})
	session.InitHost()
	if err := session.GenerateContent(context.Background(), 1, 3); err != nil {
		t.Fatalf("generate: %v", err)
	}
	categoryID := session.Snapshot().Rounds[0].Category.ID

	st := session.RegenerateQuestion(context.Background(), categoryID, 2)
	if got := st.Rounds[0].Questions[2].ID; got != "replacement" {
		t.Fatalf("expected replacement at index 2, got %s", got)
	}
	if got := st.Rounds[0].Questions[1].ID; got == "replacement" {
		t.Fatalf("neighbouring question replaced")
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	before := session.Snapshot().Rounds
	st = session.RegenerateQuestion(context.Background(), categoryID, 0)
	if st.Rounds[0].Questions[0].ID != before[0].Questions[0].ID {
		t.Fatalf("failed regeneration changed content")
	}
	st = session.RegenerateQuestion(context.Background(), "unknown", 0)
	if len(st.Rounds) != 1 {
		t.Fatalf("unknown category changed content")
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	session := newTestSession(staticProvider(), fixedDice{}, &manualTicker{})
	updates, cancel := session.Subscribe()
	defer cancel()

	if st := receive(t, updates); st.Phase != domain.PhaseStart {
		t.Fatalf("expected initial snapshot, got %s", st.Phase)
	}
	session.InitHost()
	if st := receive(t, updates); st.Phase != domain.PhaseHostConfig {
		t.Fatalf("expected host config, got %s", st.Phase)
	}

	session.Close()
	if _, ok := <-updates; ok {
		t.Fatalf("expected channel closed after Close")
	}
	cancel()
}

func TestCloseStopsTimers(t *testing.T) {
	session, ticker := lobbyWithHost(t, fixedDice{}, 1, 1)
	session.Close()
	if ticker.Active(botEvery) != 0 {
		t.Fatalf("timers still active after close")
	}
	updates, cancel := session.Subscribe()
	defer cancel()
	if _, ok := <-updates; ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}
}

func TestRealTickerStops(t *testing.T) {
	var mu sync.Mutex
	count := 0
	stop := app.RealTicker(time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := count
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("ticker never fired")
		case <-time.After(time.Millisecond):
		}
	}
	stop()
	stop()
}

func receive(t *testing.T, ch <-chan app.State) app.State {
	t.Helper()
	select {
	case st, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return st
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for state")
	}
	return app.State{}
}

func TestRegenerateQuestionOutsideReviewSkipsProvider(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	provider := app.ProviderFunc(func(ctx context.Context, category string, count int) ([]domain.Question, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return staticProvider()(ctx, category, count)
	})
	session := newTestSession(provider, fixedDice{}, &manualTicker{})
	session.InitHost()

	st := session.RegenerateQuestion(context.Background(), "science", 0)
	if st.Phase != domain.PhaseHostConfig {
		t.Fatalf("unexpected phase %s", st.Phase)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no provider call outside review, got %d", calls)
	}
}

func TestRegenerateQuestionDroppedAfterRestartAndReimport(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	var mu sync.Mutex
	calls := 0
	provider := app.ProviderFunc(func(ctx context.Context, category string, count int) ([]domain.Question, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		questions, _ := staticProvider()(ctx, category, count)
		if n > 1 {
			entered <- struct{}{}
			<-gate
			questions[0].ID = "late"
		}
		return questions, nil
	})
	session := newTestSession(provider, fixedDice{}, &manualTicker{})
	session.InitHost()
	if err := session.GenerateContent(context.Background(), 1, 2); err != nil {
		t.Fatalf("generate: %v", err)
	}
	round := session.Snapshot().Rounds[0]

	done := make(chan app.State, 1)
	go func() { done <- session.RegenerateQuestion(context.Background(), round.Category.ID, 0) }()
	<-entered

	session.Restart()
	session.InitHost()
	session.ImportContent([]domain.CategoryContent{{Category: round.Category, Questions: round.Questions}})
	close(gate)

	st := <-done
	if st.Phase != domain.PhaseReview {
		t.Fatalf("expected review after import, got %s", st.Phase)
	}
	if got := st.Rounds[0].Questions[0].ID; got == "late" {
		t.Fatalf("regeneration for the previous content was applied")
	}
}
