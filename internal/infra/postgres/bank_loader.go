package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"party-trivia/internal/domain"
)

// BankLoader loads question banks (JSONB per question) from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

// LoadCategory returns every stored question of category, oldest first.
// An unknown category yields domain.ErrCategoryNotFound.
func (l *BankLoader) LoadCategory(ctx context.Context, category string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM question_bank WHERE lower(category)=lower($1) ORDER BY created_at, id`, category)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan bank row: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("load bank %q: %w", category, domain.ErrCategoryNotFound)
	}
	return questions, nil
}

// Categories lists the distinct category names that have stored questions.
func (l *BankLoader) Categories(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT DISTINCT category FROM question_bank ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
