// Package csvio reads and writes game content as CSV sheets.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"party-trivia/internal/domain"
)

var requiredColumns = []string{"category", "question", "option1", "correctanswer"}

var optionColumns = []string{"option1", "option2", "option3", "option4", "option5"}

const defaultExplanation = "No explanation provided."

// Import parses a content sheet into categories, in order of first
// appearance. Rows missing a category, question, option or answer are
// skipped with a warning; a sheet without any usable row is an error.
func Import(r io.Reader) ([]domain.CategoryContent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("import data must have a header and at least one question row: %w", domain.ErrImportEmpty)
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[normalizeHeader(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%w: %s, please check your file header", domain.ErrImportMissingColumn, col)
		}
	}

	var (
		order    []string
		byID     = make(map[string]*domain.CategoryContent)
		rowIndex int
	)
	for _, record := range records[1:] {
		row := sheetRow{cols: cols, record: record}
		q, ok := row.question(rowIndex)
		line := rowIndex + 2
		rowIndex++
		if !ok {
			log.Printf("skipping incomplete row %d", line)
			continue
		}

		category := domain.CategoryForName(q.Category)
		content, seen := byID[category.ID]
		if !seen {
			content = &domain.CategoryContent{Category: category}
			byID[category.ID] = content
			order = append(order, category.ID)
		}
		content.Questions = append(content.Questions, q)
	}

	if len(order) == 0 {
		return nil, domain.ErrImportEmpty
	}
	out := make([]domain.CategoryContent, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// ImportString is Import over an in-memory sheet.
func ImportString(data string) ([]domain.CategoryContent, error) {
	return Import(strings.NewReader(strings.TrimSpace(data)))
}

// IsValidation reports whether err came from the sheet's contents rather than I/O.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrImportMissingColumn) || errors.Is(err, domain.ErrImportEmpty)
}

type sheetRow struct {
	cols   map[string]int
	record []string
}

func (r sheetRow) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r sheetRow) has(col string) bool {
	_, ok := r.cols[col]
	return ok
}

func (r sheetRow) question(index int) (domain.Question, bool) {
	categoryName := r.get("category")
	text := r.get("question")
	answer := r.get("correctanswer")
	typeName := strings.ToUpper(r.get("type"))

	var options []string
	for _, col := range optionColumns {
		if v := r.get(col); v != "" {
			options = append(options, v)
		}
	}
	if categoryName == "" || text == "" || len(options) == 0 || answer == "" {
		return domain.Question{}, false
	}

	kind, known := domain.ParseQuestionType(typeName)
	if !known {
		kind = domain.MultipleChoice
	}
	if typeName == "" && len(options) == 2 && isTrueFalse(options) {
		kind = domain.TrueFalse
	}

	explanation := defaultExplanation
	if r.has("explanation") {
		explanation = r.get("explanation")
	}

	q := domain.Question{
		ID:          fmt.Sprintf("import-%s-%d", categoryName, index),
		Category:    categoryName,
		Text:        text,
		Options:     options,
		Explanation: explanation,
		Type:        kind,
	}
	switch kind {
	case domain.TrueFalse:
		q.Options = []string{"True", "False"}
		if strings.EqualFold(answer, "true") {
			q.CorrectIndex = 0
		} else {
			q.CorrectIndex = 1
		}
	case domain.TypeAnswer, domain.Puzzle:
	case domain.Slider:
		if len(options) > 5 {
			q.Options = options[:5]
		}
	default:
		q.CorrectIndex = -1
		for i, o := range options {
			if strings.EqualFold(o, answer) {
				q.CorrectIndex = i
				break
			}
		}
		if q.CorrectIndex == -1 {
			log.Printf("correct answer %q not found in options for row %d, defaulting to first option", answer, index+2)
			q.CorrectIndex = 0
		}
	}
	return q, true
}

func isTrueFalse(options []string) bool {
	var t, f bool
	for _, o := range options {
		switch strings.ToLower(o) {
		case "true":
			t = true
		case "false":
			f = true
		}
	}
	return t && f
}

func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, h)
}
