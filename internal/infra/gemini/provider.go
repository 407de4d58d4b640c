package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"party-trivia/internal/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-2.5-flash"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("gemini api key not configured")

// Config holds the generateContent endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider generates trivia questions through the Gemini generateContent API.
// It never substitutes content itself; callers wrap it with app.WithFallback.
type Provider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

func (p *Provider) IsEnabled() bool {
	return p.cfg.APIKey != ""
}

func (p *Provider) endpoint() string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + "/" + p.cfg.Model + ":generateContent"
}

type generatedQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// Generate asks the model for count multiple-choice questions about category.
func (p *Provider) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	if !p.IsEnabled() {
		return nil, ErrNotConfigured
	}
	text, err := p.call(ctx, buildPrompt(category, count))
	if err != nil {
		return nil, fmt.Errorf("gemini generate %q: %w", category, err)
	}

	var raw []generatedQuestion
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("gemini generate %q: decode questions: %w", category, err)
	}

	stamp := p.now().UnixMilli()
	questions := make([]domain.Question, 0, len(raw))
	for i, q := range raw {
		questions = append(questions, toQuestion(category, fmt.Sprintf("%s-%d-%d", category, stamp, i), q))
	}
	return questions, nil
}

func toQuestion(category, id string, q generatedQuestion) domain.Question {
	out := domain.Question{
		ID:          id,
		Category:    category,
		Text:        q.Text,
		Options:     q.Options,
		Explanation: q.Explanation,
		Type:        domain.MultipleChoice,
	}
	if out.Text == "" {
		out.Text = "Unknown Question"
	}
	if len(out.Options) == 0 {
		out.Options = []string{"A", "B", "C", "D"}
	}
	if q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(out.Options) {
		out.CorrectIndex = *q.CorrectIndex
	}
	if out.Explanation == "" {
		out.Explanation = "No explanation provided."
	}
	return out
}

func buildPrompt(category string, count int) string {
	return fmt.Sprintf(`Generate %d trivia questions about "%s".
The questions should be challenging but fun.
Provide 4 options for each question.
Indicate the index (0-3) of the correct answer.
Also provide a short fun fact explanation.
Return ONLY a JSON array of objects with fields text, options, correctIndex, explanation.`, count, category)
}

func (p *Provider) call(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema":   questionSchema,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint()+"?key="+p.cfg.APIKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(payload, &geminiResp); err != nil {
		return "", err
	}
	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		if text := geminiResp.Candidates[0].Content.Parts[0].Text; strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("empty response from Gemini")
}

var questionSchema = map[string]interface{}{
	"type": "ARRAY",
	"items": map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"text":         map[string]string{"type": "STRING"},
			"options":      map[string]interface{}{"type": "ARRAY", "items": map[string]string{"type": "STRING"}},
			"correctIndex": map[string]string{"type": "INTEGER"},
			"explanation":  map[string]string{"type": "STRING"},
		},
		"required": []string{"text", "options", "correctIndex", "explanation"},
	},
}

// stripFences removes a ```json ... ``` wrapper some responses carry.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
