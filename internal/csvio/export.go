package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"party-trivia/internal/domain"
)

var exportHeader = []string{"type", "category", "question", "option1", "option2", "option3", "option4", "option5", "correctAnswer", "explanation"}

// Export writes content in the import sheet layout, one row per question.
// Rows are separated by a single newline with none after the last row.
func Export(w io.Writer, content []domain.CategoryContent) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range content {
		for _, q := range c.Questions {
			if err := cw.Write(exportRow(c.Category.Name, q)); err != nil {
				return fmt.Errorf("export %s: %w", q.ID, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, strings.TrimSuffix(buf.String(), "\n"))
	return err
}

// ExportString renders content as a CSV string.
func ExportString(content []domain.CategoryContent) (string, error) {
	var sb strings.Builder
	if err := Export(&sb, content); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ContentFromRounds groups a round plan by category. Rounds that repeat a
// category are merged into its first appearance.
func ContentFromRounds(rounds []domain.RoundConfig) []domain.CategoryContent {
	var out []domain.CategoryContent
	index := make(map[string]int)
	for _, r := range rounds {
		i, ok := index[r.Category.ID]
		if !ok {
			i = len(out)
			index[r.Category.ID] = i
			out = append(out, domain.CategoryContent{Category: r.Category})
		}
		out[i].Questions = append(out[i].Questions, r.Questions...)
	}
	return out
}

func exportRow(category string, q domain.Question) []string {
	options := make([]string, 5)
	copy(options, q.Options)

	row := []string{string(q.Kind()), category, q.Text}
	row = append(row, options...)
	return append(row, correctAnswer(q), q.Explanation)
}

func correctAnswer(q domain.Question) string {
	switch q.Kind() {
	case domain.Slider:
		if len(q.Options) < 5 {
			return ""
		}
		return q.Options[3] + "-" + q.Options[4]
	case domain.TypeAnswer:
		if len(q.Options) == 0 {
			return ""
		}
		return q.Options[0]
	case domain.Puzzle:
		return strings.Join(q.Options, "|")
	default:
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return ""
		}
		return q.Options[q.CorrectIndex]
	}
}
