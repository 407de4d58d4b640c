package app

import (
	"strconv"
	"strings"

	"party-trivia/internal/domain"
)

// Evaluate reports whether answer is correct for question. It depends on
// nothing but its arguments.
func Evaluate(question domain.Question, answer domain.Answer) bool {
	switch question.Kind() {
	case domain.MultipleChoice, domain.TrueFalse:
		return answer.Kind == domain.AnswerIndex && answer.Index == question.CorrectIndex
	case domain.TypeAnswer:
		if answer.Kind != domain.AnswerText {
			return false
		}
		given := strings.ToLower(strings.TrimSpace(answer.Text))
		if given == "" {
			return false
		}
		for _, accepted := range question.Options {
			if strings.ToLower(strings.TrimSpace(accepted)) == given {
				return true
			}
		}
		return false
	case domain.Slider:
		if answer.Kind != domain.AnswerNumber {
			return false
		}
		bounds, ok := ParseSlider(question)
		if !ok {
			return false
		}
		return bounds.Low <= answer.Value && answer.Value <= bounds.High
	case domain.Puzzle:
		if answer.Kind != domain.AnswerOrder || len(answer.Order) != len(question.Options) {
			return false
		}
		for i := range question.Options {
			if answer.Order[i] != question.Options[i] {
				return false
			}
		}
		return true
	}
	return false
}

// SliderBounds is the decoded option layout of a SLIDER question.
type SliderBounds struct {
	Min, Max, Step, Low, High float64
}

// ParseSlider decodes [min, max, step, correctLow, correctHigh].
func ParseSlider(question domain.Question) (SliderBounds, bool) {
	if len(question.Options) < 5 {
		return SliderBounds{}, false
	}
	var v [5]float64
	for i := 0; i < 5; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(question.Options[i]), 64)
		if err != nil {
			return SliderBounds{}, false
		}
		v[i] = f
	}
	return SliderBounds{Min: v[0], Max: v[1], Step: v[2], Low: v[3], High: v[4]}, true
}

// CorrectAnswer builds the canonical correct submission for question.
func CorrectAnswer(question domain.Question) domain.Answer {
	switch question.Kind() {
	case domain.TypeAnswer:
		if len(question.Options) == 0 {
			return domain.TextAnswer("")
		}
		return domain.TextAnswer(question.Options[0])
	case domain.Slider:
		bounds, _ := ParseSlider(question)
		return domain.NumberAnswer(bounds.Low)
	case domain.Puzzle:
		return domain.OrderAnswer(question.Options)
	default:
		return domain.IndexAnswer(question.CorrectIndex)
	}
}
