package domain

// AnswerKind tells which field of an Answer carries the submitted value.
type AnswerKind string

const (
	AnswerIndex  AnswerKind = "index"
	AnswerText   AnswerKind = "text"
	AnswerNumber AnswerKind = "number"
	AnswerOrder  AnswerKind = "order"
)

// Answer is a value submitted by a player for the current question.
type Answer struct {
	Kind  AnswerKind `json:"kind"`
	Index int        `json:"index,omitempty"`
	Text  string     `json:"text,omitempty"`
	Value float64    `json:"value,omitempty"`
	Order []string   `json:"order,omitempty"`
}

func IndexAnswer(i int) Answer { return Answer{Kind: AnswerIndex, Index: i} }

func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

func NumberAnswer(v float64) Answer { return Answer{Kind: AnswerNumber, Value: v} }

func OrderAnswer(items []string) Answer {
	return Answer{Kind: AnswerOrder, Order: append([]string(nil), items...)}
}
