package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"party-trivia/internal/domain"
)

// BankLoader fetches the stored questions of one category (e.g. from Postgres).
type BankLoader interface {
	LoadCategory(ctx context.Context, category string) ([]domain.Question, error)
}

// BankRepository caches categories with TTL to avoid repeated DB hits.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedCategory
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

// Questions returns the bank for category. Names are matched case-insensitively.
func (r *BankRepository) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	key := bankKey(category)
	if questions, ok := r.lookup(key); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if questions, ok := r.lookup(key); ok {
			return questions, nil
		}
		questions, err := r.loader.LoadCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedCategory{
			questions: questions,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *BankRepository) lookup(key string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (r *BankRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func bankKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// StaticBankLoader serves questions from a map keyed by category name (tests, demos, CSV seeds).
type StaticBankLoader struct {
	banks map[string][]domain.Question
}

func NewStaticBankLoader(banks map[string][]domain.Question) *StaticBankLoader {
	normalized := make(map[string][]domain.Question, len(banks))
	for name, questions := range banks {
		key := bankKey(name)
		normalized[key] = append(normalized[key], questions...)
	}
	return &StaticBankLoader{banks: normalized}
}

// StaticBankFromContent groups imported content by category name.
func StaticBankFromContent(content []domain.CategoryContent) *StaticBankLoader {
	banks := make(map[string][]domain.Question, len(content))
	for _, c := range content {
		banks[c.Category.Name] = append(banks[c.Category.Name], c.Questions...)
	}
	return NewStaticBankLoader(banks)
}

func (l *StaticBankLoader) LoadCategory(_ context.Context, category string) ([]domain.Question, error) {
	if questions, ok := l.banks[bankKey(category)]; ok {
		return questions, nil
	}
	return nil, domain.ErrCategoryNotFound
}
