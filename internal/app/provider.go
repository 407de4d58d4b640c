package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"party-trivia/internal/domain"
)

// QuestionProvider produces count questions about a category.
type QuestionProvider interface {
	Generate(ctx context.Context, category string, count int) ([]domain.Question, error)
}

// ProviderFunc adapts a function to QuestionProvider.
type ProviderFunc func(ctx context.Context, category string, count int) ([]domain.Question, error)

func (f ProviderFunc) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	return f(ctx, category, count)
}

// BankRepository returns stored questions for a category (cache in front of a loader).
type BankRepository interface {
	Questions(ctx context.Context, category string) ([]domain.Question, error)
}

// MockQuestions is the deterministic placeholder content used whenever real
// generation is unavailable.
func MockQuestions(category string, count int) []domain.Question {
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Question{
			ID:           fmt.Sprintf("mock-%d", i),
			Category:     category,
			Text:         fmt.Sprintf("This is a mock question #%d about %s because the API key is missing or failed.", i+1, category),
			Options:      []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex: 0,
			Explanation:  "This is a fallback explanation.",
			Type:         domain.MultipleChoice,
		})
	}
	return out
}

// Fallback wraps a provider so that it only fails on context cancellation.
// Errors and short results degrade to MockQuestions.
type Fallback struct {
	next QuestionProvider
}

func WithFallback(next QuestionProvider) *Fallback {
	return &Fallback{next: next}
}

func (f *Fallback) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, nil
	}
	if f.next == nil {
		return MockQuestions(category, count), nil
	}
	questions, err := f.next.Generate(ctx, category, count)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.Printf("question provider failed for %q: %v, using mock questions", category, err)
		return MockQuestions(category, count), nil
	}
	if len(questions) < count {
		log.Printf("question provider returned %d/%d for %q, using mock questions", len(questions), count, category)
		return MockQuestions(category, count), nil
	}
	return questions[:count], nil
}

// Chain tries providers in order and returns the first full result.
type Chain []QuestionProvider

func (c Chain) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	lastErr := fmt.Errorf("generate %q: %w", category, domain.ErrProviderShortResult)
	for _, p := range c {
		questions, err := p.Generate(ctx, category, count)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			lastErr = err
			continue
		}
		if len(questions) >= count {
			return questions[:count], nil
		}
	}
	return nil, lastErr
}

// BankProvider samples questions from stored content.
type BankProvider struct {
	bank BankRepository
	mu   sync.Mutex
	dice Dice
}

func NewBankProvider(bank BankRepository, dice Dice) *BankProvider {
	return &BankProvider{bank: bank, dice: dice}
}

func (p *BankProvider) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	stored, err := p.bank.Questions(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(stored) < count {
		return nil, fmt.Errorf("bank %q has %d questions: %w", category, len(stored), domain.ErrProviderShortResult)
	}
	p.mu.Lock()
	order := p.dice.Perm(len(stored))
	p.mu.Unlock()

	out := make([]domain.Question, 0, count)
	for _, i := range order[:count] {
		out = append(out, stored[i])
	}
	return out, nil
}
