package app

import (
	"context"
	"fmt"

	"party-trivia/internal/domain"
)

// DrawCategories picks n categories from catalog without replacement. Only
// when n exceeds the catalog size are the missing slots filled with random
// repeats.
func DrawCategories(catalog []domain.Category, n int, dice Dice) []domain.Category {
	if n <= 0 || len(catalog) == 0 {
		return nil
	}
	picked := make([]domain.Category, 0, n)
	for _, i := range dice.Perm(len(catalog)) {
		if len(picked) == n {
			break
		}
		picked = append(picked, catalog[i])
	}
	for len(picked) < n {
		picked = append(picked, catalog[dice.Intn(len(catalog))])
	}
	return picked
}

// ExtendCatalog appends a category for every bank name the catalog does not
// already hold, so imported categories become drawable.
func ExtendCatalog(catalog []domain.Category, names []string) []domain.Category {
	out := append([]domain.Category(nil), catalog...)
	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c.ID] = true
	}
	for _, name := range names {
		c := domain.CategoryForName(name)
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// BuildRounds assembles the round plan for the drawn categories: one provider
// call per round, in round order. Nothing is returned unless every round
// succeeded.
func BuildRounds(ctx context.Context, provider QuestionProvider, categories []domain.Category, perRound int) ([]domain.RoundConfig, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("build rounds: no categories")
	}
	plan := make([]domain.RoundConfig, 0, len(categories))
	for i, category := range categories {
		questions, err := provider.Generate(ctx, category.Name, perRound)
		if err != nil {
			return nil, fmt.Errorf("generate round %d (%s): %w", i+1, category.Name, err)
		}
		if len(questions) < perRound {
			return nil, fmt.Errorf("generate round %d (%s): %w", i+1, category.Name, domain.ErrProviderShortResult)
		}
		plan = append(plan, domain.RoundConfig{
			RoundNumber: i + 1,
			Category:    category,
			Questions:   questions[:perRound],
		})
	}
	return plan, nil
}

// RegenerateOne asks the provider for a single replacement question for the
// round whose category id matches.
func RegenerateOne(ctx context.Context, provider QuestionProvider, rounds []domain.RoundConfig, categoryID string, index int) (domain.Question, error) {
	round, ok := findRound(rounds, categoryID)
	if !ok {
		return domain.Question{}, fmt.Errorf("regenerate %q: %w", categoryID, domain.ErrCategoryNotFound)
	}
	if index < 0 || index >= len(round.Questions) {
		return domain.Question{}, fmt.Errorf("regenerate %q: index %d out of range", categoryID, index)
	}
	questions, err := provider.Generate(ctx, round.Category.Name, 1)
	if err != nil {
		return domain.Question{}, fmt.Errorf("regenerate %q: %w", categoryID, err)
	}
	if len(questions) == 0 {
		return domain.Question{}, fmt.Errorf("regenerate %q: %w", categoryID, domain.ErrProviderShortResult)
	}
	return questions[0], nil
}

// ReplaceQuestion returns a copy of rounds with one question swapped. The
// input slices are left untouched.
func ReplaceQuestion(rounds []domain.RoundConfig, categoryID string, index int, q domain.Question) ([]domain.RoundConfig, error) {
	for i, round := range rounds {
		if round.Category.ID != categoryID {
			continue
		}
		if index < 0 || index >= len(round.Questions) {
			return nil, fmt.Errorf("replace question: index %d out of range", index)
		}
		questions := append([]domain.Question(nil), round.Questions...)
		questions[index] = q
		out := append([]domain.RoundConfig(nil), rounds...)
		out[i].Questions = questions
		return out, nil
	}
	return nil, fmt.Errorf("replace question %q: %w", categoryID, domain.ErrCategoryNotFound)
}

// RoundsFromImport turns imported categories into rounds in import order.
// Every round is cut to the size of the smallest category so all rounds hold
// the same number of questions.
func RoundsFromImport(content []domain.CategoryContent) []domain.RoundConfig {
	perRound := 0
	for _, c := range content {
		if len(c.Questions) == 0 {
			continue
		}
		if perRound == 0 || len(c.Questions) < perRound {
			perRound = len(c.Questions)
		}
	}
	if perRound == 0 {
		return nil
	}
	rounds := make([]domain.RoundConfig, 0, len(content))
	for _, c := range content {
		if len(c.Questions) == 0 {
			continue
		}
		rounds = append(rounds, domain.RoundConfig{
			RoundNumber: len(rounds) + 1,
			Category:    c.Category,
			Questions:   append([]domain.Question(nil), c.Questions[:perRound]...),
		})
	}
	return rounds
}

func findRound(rounds []domain.RoundConfig, categoryID string) (domain.RoundConfig, bool) {
	for _, r := range rounds {
		if r.Category.ID == categoryID {
			return r, true
		}
	}
	return domain.RoundConfig{}, false
}
