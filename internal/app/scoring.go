package app

import "party-trivia/internal/domain"

const (
	basePoints      = 100
	timeBonusFactor = 10
	botBonusRange   = 50

	botSubmitCorrectRate  = 0.6
	botTimeoutCorrectRate = 0.5
)

// Dice is the source of randomness for bots, pins and category draws.
// *math/rand.Rand satisfies it.
type Dice interface {
	Float64() float64
	Intn(n int) int
	Perm(n int) []int
}

// humanPoints scores the local player from the seconds left on the clock.
func humanPoints(correct bool, timeLeft int) int {
	if !correct {
		return 0
	}
	return basePoints + timeLeft*timeBonusFactor
}

// botPoints draws the bonus a correct bot receives.
func botPoints(correct bool, dice Dice) int {
	if !correct {
		return 0
	}
	return basePoints + dice.Intn(botBonusRange)
}

// rollBot resolves a bot's answer: correct with probability rate.
func rollBot(rate float64, dice Dice) bool {
	return dice.Float64() < rate
}

// award applies one question's result to p. Score never decreases.
func award(p domain.Player, correct bool, points int) domain.Player {
	if points > 0 {
		p.Score += points
	}
	if correct {
		p.Streak++
	} else {
		p.Streak = 0
	}
	result := correct
	p.LastAnswerCorrect = &result
	return p
}
