package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"party-trivia/internal/domain"
)

type bankRow struct {
	bun.BaseModel `bun:"table:question_bank"`

	ID        string          `bun:"id,pk"`
	Category  string          `bun:"category,notnull"`
	Data      domain.Question `bun:"data,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// BankWriter stores imported content in the question bank.
type BankWriter struct {
	db *bun.DB
}

func NewBankWriter(db *bun.DB) *BankWriter {
	return &BankWriter{db: db}
}

// Save upserts every question of content. Rows are keyed by category id and
// question id, so re-importing a file replaces its questions in place.
func (w *BankWriter) Save(ctx context.Context, content []domain.CategoryContent) (int, error) {
	var rows []bankRow
	for _, c := range content {
		for _, q := range c.Questions {
			rows = append(rows, bankRow{
				ID:       c.Category.ID + "/" + q.ID,
				Category: c.Category.Name,
				Data:     q,
			})
		}
	}
	if len(rows) == 0 {
		return 0, domain.ErrImportEmpty
	}

	_, err := w.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("category = EXCLUDED.category").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("save bank: %w", err)
	}
	return len(rows), nil
}

// Delete removes all stored questions of category.
func (w *BankWriter) Delete(ctx context.Context, category string) (int64, error) {
	res, err := w.db.NewDelete().
		Model((*bankRow)(nil)).
		Where("lower(category) = ?", strings.ToLower(category)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete bank %q: %w", category, err)
	}
	return res.RowsAffected()
}
