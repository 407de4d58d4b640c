package app

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"party-trivia/internal/domain"
)

// Rules are the fixed parameters of a session.
type Rules struct {
	TimerDuration int
	BotTarget     int
	BotNames      []string
	Avatars       []string
	AvatarColors  []string
}

// DefaultRules returns the catalog defaults.
func DefaultRules() Rules {
	return Rules{
		TimerDuration: domain.TimerDuration,
		BotTarget:     domain.BotTarget,
		BotNames:      domain.BotNames,
		Avatars:       domain.Avatars,
		AvatarColors:  domain.AvatarColors,
	}
}

// Reducer applies events to states. Apart from the injected dice and id
// source it has no side effects; events invalid for the current phase return
// the state unchanged.
type Reducer struct {
	rules Rules
	dice  Dice
	newID func(prefix string) string
}

func NewReducer(rules Rules, dice Dice) *Reducer {
	return &Reducer{rules: rules, dice: dice, newID: uuidID}
}

// NewReducerWithIDs uses newID instead of random uuids for player ids.
func NewReducerWithIDs(rules Rules, dice Dice, newID func(prefix string) string) *Reducer {
	return &Reducer{rules: rules, dice: dice, newID: newID}
}

func uuidID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Initial is the START state for these rules.
func (r *Reducer) Initial() State {
	s := InitialState()
	s.TimeLeft = r.rules.TimerDuration
	return s
}

// Reduce returns the state that follows s after ev.
func (r *Reducer) Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case InitHost:
		if s.Phase != domain.PhaseStart {
			return s
		}
		s.IsHost = true
		s.Phase = domain.PhaseHostConfig
		return s
	case InitJoin:
		if s.Phase != domain.PhaseStart {
			return s
		}
		s.IsHost = false
		s.Phase = domain.PhaseJoin
		return s
	case UpdateConfig:
		if s.Phase != domain.PhaseHostConfig || s.Loading || !configInRange(ev.Rounds, ev.QuestionsPerRound) {
			return s
		}
		s.TotalRounds = ev.Rounds
		s.QuestionsPerRound = ev.QuestionsPerRound
		return s
	case SetMode:
		if s.Phase != domain.PhaseHostConfig || (ev.Mode != domain.ModeStandard && ev.Mode != domain.ModeSurvival) {
			return s
		}
		s.Mode = ev.Mode
		return s
	case GenerationStarted:
		if s.Phase != domain.PhaseHostConfig || s.Loading || !configInRange(ev.Rounds, ev.QuestionsPerRound) {
			return s
		}
		s.Loading = true
		s.Error = ""
		s.TotalRounds = ev.Rounds
		s.QuestionsPerRound = ev.QuestionsPerRound
		s.Generation++
		return s
	case ContentGenerated:
		if s.Phase != domain.PhaseHostConfig || !s.Loading || ev.Generation != s.Generation {
			return s
		}
		s.Loading = false
		s.Rounds = ev.Rounds
		s.TotalRounds = len(ev.Rounds)
		s.Phase = domain.PhaseReview
		return s
	case GenerationFailed:
		if !s.Loading || ev.Generation != s.Generation {
			return s
		}
		s.Loading = false
		s.Error = ev.Message
		return s
	case ContentImported:
		return r.importContent(s, ev.Content)
	case QuestionRegenerated:
		if (s.Phase != domain.PhaseReview && s.Phase != domain.PhaseLobby) || ev.Generation != s.Generation {
			return s
		}
		rounds, err := ReplaceQuestion(s.Rounds, ev.CategoryID, ev.Index, ev.Question)
		if err != nil {
			return s
		}
		s.Rounds = rounds
		return s
	case ConfirmContent:
		if s.Phase != domain.PhaseReview {
			return s
		}
		if s.GamePin == "" {
			s.GamePin = r.drawPin(ev.PinTaken)
		}
		s.Phase = domain.PhaseLobby
		return s
	case Join:
		return r.join(s, ev)
	case HostJoin:
		return r.hostJoin(s, ev)
	case AddBot:
		return r.addBot(s)
	case BotTick:
		if !s.IsHost || len(s.Players) >= r.rules.BotTarget {
			return s
		}
		return r.addBot(s)
	case StartGame:
		if s.Phase != domain.PhaseLobby || len(s.Rounds) == 0 {
			return s
		}
		s.CurrentRound = 1
		s.CurrentQuestionIndex = 0
		s.Phase = domain.PhaseCategorySelect
		return s
	case SelectCategory:
		return r.selectCategory(s)
	case SubmitAnswer:
		return r.submit(s, ev.Answer)
	case Tick:
		if s.Phase != domain.PhasePlaying || ev.Round != s.CurrentRound || ev.QuestionIndex != s.CurrentQuestionIndex {
			return s
		}
		s.TimeLeft--
		if s.TimeLeft > 0 {
			return s
		}
		s.TimeLeft = 0
		return r.expire(s)
	case NextQuestion:
		return r.nextQuestion(s)
	case NextRound:
		return r.nextRound(s)
	case Restart:
		fresh := r.Initial()
		fresh.TotalRounds = s.TotalRounds
		fresh.QuestionsPerRound = s.QuestionsPerRound
		fresh.Mode = s.Mode
		fresh.Generation = s.Generation
		return fresh
	}
	return s
}

func configInRange(rounds, questionsPerRound int) bool {
	return rounds >= 1 && rounds <= domain.MaxRounds &&
		questionsPerRound >= 1 && questionsPerRound <= domain.MaxQuestionsPerRound
}

func (r *Reducer) pin() string {
	return strconv.Itoa(1000 + r.dice.Intn(9000))
}

// maxPinDraws bounds redraws when pins are busy; the last draw is kept.
const maxPinDraws = 16

func (r *Reducer) drawPin(taken func(pin string) bool) string {
	pin := r.pin()
	for i := 1; i < maxPinDraws && taken != nil && taken(pin); i++ {
		pin = r.pin()
	}
	return pin
}

func (r *Reducer) importContent(s State, content []domain.CategoryContent) State {
	if s.Phase != domain.PhaseHostConfig || s.Loading {
		return s
	}
	rounds := RoundsFromImport(content)
	if len(rounds) == 0 {
		return s
	}
	s.Rounds = rounds
	s.TotalRounds = len(rounds)
	s.QuestionsPerRound = len(rounds[0].Questions)
	s.Error = ""
	s.Generation++
	s.Phase = domain.PhaseReview
	return s
}

func (r *Reducer) join(s State, ev Join) State {
	name := strings.TrimSpace(ev.Name)
	if (s.Phase != domain.PhaseJoin && s.Phase != domain.PhaseLobby) || s.CurrentPlayerID != "" || name == "" {
		return s
	}
	player := domain.Player{
		ID:     r.newID("user"),
		Name:   name,
		Avatar: r.avatarOrDefault(ev.Avatar),
	}
	s = s.clone()
	s.Players = append(s.Players, player)
	s.CurrentPlayerID = player.ID
	s.Phase = domain.PhaseLobby
	return s
}

func (r *Reducer) hostJoin(s State, ev HostJoin) State {
	if s.Phase != domain.PhaseLobby || !s.IsHost || s.CurrentPlayerID != "" {
		return s
	}
	name := strings.TrimSpace(ev.Name)
	if name == "" {
		name = "Host"
	}
	player := domain.Player{
		ID:     r.newID("host"),
		Name:   name,
		Avatar: r.avatarOrDefault(ev.Avatar),
		IsHost: true,
	}
	s = s.clone()
	s.Players = append(s.Players, player)
	s.CurrentPlayerID = player.ID
	return s
}

func (r *Reducer) avatarOrDefault(a domain.Avatar) domain.Avatar {
	if a.Emoji == "" && len(r.rules.Avatars) > 0 {
		a.Emoji = r.rules.Avatars[0]
	}
	if a.Color == "" && len(r.rules.AvatarColors) > 0 {
		a.Color = r.rules.AvatarColors[0]
	}
	return a
}

func (r *Reducer) addBot(s State) State {
	if s.Phase != domain.PhaseLobby {
		return s
	}
	bots := s.botCount()
	if bots >= len(r.rules.BotNames) {
		return s
	}
	bot := domain.Player{
		ID:    r.newID("bot"),
		Name:  r.rules.BotNames[bots],
		IsBot: true,
	}
	if n := len(r.rules.Avatars); n > 0 {
		bot.Avatar.Emoji = r.rules.Avatars[r.dice.Intn(n)]
	}
	if n := len(r.rules.AvatarColors); n > 0 {
		bot.Avatar.Color = r.rules.AvatarColors[r.dice.Intn(n)]
	}
	s = s.clone()
	s.Players = append(s.Players, bot)
	return s
}

// selectCategory loads the current round's predetermined questions. The
// requested category never changes which set is loaded.
func (r *Reducer) selectCategory(s State) State {
	if s.Phase != domain.PhaseCategorySelect {
		return s
	}
	idx := s.CurrentRound - 1
	if idx < 0 || idx >= len(s.Rounds) || len(s.Rounds[idx].Questions) == 0 {
		return s
	}
	round := s.Rounds[idx]
	first := round.Questions[0]
	s.Queue = round.Questions
	s.CurrentQuestionIndex = 0
	s.CurrentQuestion = &first
	s.SelectedCategory = round.Category.ID
	s.TimeLeft = r.rules.TimerDuration
	s.Phase = domain.PhasePlaying
	return s
}

func (r *Reducer) submit(s State, answer domain.Answer) State {
	if s.Phase != domain.PhasePlaying || s.CurrentQuestion == nil {
		return s
	}
	if _, ok := s.Self(); !ok {
		return s
	}
	correct := Evaluate(*s.CurrentQuestion, answer)
	next := s.clone()
	for i, p := range next.Players {
		switch {
		case p.ID == s.CurrentPlayerID:
			next.Players[i] = award(p, correct, humanPoints(correct, s.TimeLeft))
		case p.IsBot:
			hit := rollBot(botSubmitCorrectRate, r.dice)
			next.Players[i] = award(p, hit, botPoints(hit, r.dice))
		}
	}
	next.Phase = domain.PhaseRoundResult
	return next
}

// expire resolves a question nobody local answered in time.
func (r *Reducer) expire(s State) State {
	next := s.clone()
	for i, p := range next.Players {
		switch {
		case p.IsBot:
			hit := rollBot(botTimeoutCorrectRate, r.dice)
			next.Players[i] = award(p, hit, botPoints(hit, r.dice))
		case p.ID == s.CurrentPlayerID:
			next.Players[i] = award(p, false, 0)
		}
	}
	next.Phase = domain.PhaseRoundResult
	return next
}

func (r *Reducer) nextQuestion(s State) State {
	if s.Phase != domain.PhaseRoundResult {
		return s
	}
	idx := s.CurrentQuestionIndex + 1
	if idx >= len(s.Queue) {
		s.Phase = domain.PhaseRoundEnd
		return s
	}
	q := s.Queue[idx]
	s.CurrentQuestionIndex = idx
	s.CurrentQuestion = &q
	s.TimeLeft = r.rules.TimerDuration
	s.Phase = domain.PhasePlaying
	return s
}

func (r *Reducer) nextRound(s State) State {
	if s.Phase != domain.PhaseRoundEnd {
		return s
	}
	if s.CurrentRound >= s.TotalRounds || s.CurrentRound >= len(s.Rounds) {
		s.Phase = domain.PhaseGameOver
		return s
	}
	s.CurrentRound++
	s.CurrentQuestionIndex = 0
	s.CurrentQuestion = nil
	s.Queue = nil
	s.SelectedCategory = ""
	s.Phase = domain.PhaseCategorySelect
	return s
}
