package app_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"party-trivia/internal/app"
	"party-trivia/internal/domain"
)

// fixedDice returns the same draw every time; Perm is the identity.
type fixedDice struct {
	f float64
	n int
}

func (d fixedDice) Float64() float64 { return d.f }

func (d fixedDice) Intn(n int) int {
	if d.n >= n {
		return n - 1
	}
	return d.n
}

func (d fixedDice) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sequenceDice plays back ns for Intn, one per call, repeating the last.
type sequenceDice struct {
	fixedDice
	mu sync.Mutex
	ns []int
}

func (d *sequenceDice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.ns[0]
	if len(d.ns) > 1 {
		d.ns = d.ns[1:]
	}
	return v % n
}

// manualTicker records timers so tests decide when they fire.
type manualTicker struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func (m *manualTicker) Start(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{interval: interval, fn: fn}
	m.timers = append(m.timers, t)
	return func() {
		m.mu.Lock()
		t.stopped = true
		m.mu.Unlock()
	}
}

// Fire runs every live timer with the given interval once.
func (m *manualTicker) Fire(interval time.Duration) {
	for _, t := range m.live(interval) {
		t.fn()
	}
}

func (m *manualTicker) Active(interval time.Duration) int {
	return len(m.live(interval))
}

// Last returns the most recent timer with interval, stopped or not.
func (m *manualTicker) Last(interval time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.timers) - 1; i >= 0; i-- {
		if m.timers[i].interval == interval {
			return m.timers[i]
		}
	}
	return nil
}

func (m *manualTicker) live(interval time.Duration) []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTimer
	for _, t := range m.timers {
		if t.interval == interval && !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

const (
	tickEvery = time.Second
	botEvery  = 3 * time.Second
)

// staticProvider answers every request with multiple-choice questions whose
// correct option is index 1.
func staticProvider() app.ProviderFunc {
	return func(_ context.Context, category string, count int) ([]domain.Question, error) {
		out := make([]domain.Question, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, domain.Question{
				ID:           fmt.Sprintf("%s-%d", category, i),
				Category:     category,
				Text:         "Question " + strconv.Itoa(i),
				Options:      []string{"a", "b", "c", "d"},
				CorrectIndex: 1,
				Type:         domain.MultipleChoice,
			})
		}
		return out, nil
	}
}

func sequentialIDs() func(prefix string) string {
	n := 0
	return func(prefix string) string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func newTestSession(provider app.QuestionProvider, dice app.Dice, ticker *manualTicker) *app.Session {
	return app.NewSession("s1", provider, app.SessionOptions{
		Dice:         dice,
		Ticker:       ticker.Start,
		TickInterval: tickEvery,
		BotInterval:  botEvery,
		NewID:        sequentialIDs(),
	})
}

// lobbyWithHost drives a host session to the lobby with the host playing.
func lobbyWithHost(t *testing.T, dice app.Dice, rounds, perRound int) (*app.Session, *manualTicker) {
	t.Helper()
	ticker := &manualTicker{}
	session := newTestSession(staticProvider(), dice, ticker)
	session.InitHost()
	if err := session.GenerateContent(context.Background(), rounds, perRound); err != nil {
		t.Fatalf("generate content: %v", err)
	}
	if st := session.ConfirmContent(); st.Phase != domain.PhaseLobby {
		t.Fatalf("expected lobby, got %s", st.Phase)
	}
	session.HostJoinAsPlayer("Alice", domain.Avatar{})
	return session, ticker
}

func mustPlayer(t *testing.T, st app.State, id string) domain.Player {
	t.Helper()
	p, ok := st.Player(id)
	if !ok {
		t.Fatalf("player %s missing from %+v", id, st.Players)
	}
	return p
}
