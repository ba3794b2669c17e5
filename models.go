package quizbank

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the level a quiz is generated for
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ParseDifficulty accepts any casing of easy, medium or hard
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty: %q", s)
}

// QuestionSource records where a question came from
type QuestionSource string

const (
	SourceAI       QuestionSource = "ai"
	SourceFallback QuestionSource = "fallback"
)

// Question is a validated multiple choice question. Options always has at
// least four entries and CorrectIndex always points into Options.
type Question struct {
	ID           string         `json:"id"`
	Text         string         `json:"text"`
	Options      []string       `json:"options"`
	CorrectIndex int            `json:"correct_index"` // 0-based index
	Difficulty   Difficulty     `json:"difficulty"`
	Explanation  string         `json:"explanation"`
	Source       QuestionSource `json:"source"`
}

// CorrectAnswer returns the text of the correct option
func (q Question) CorrectAnswer() string {
	return q.Options[q.CorrectIndex]
}

// IsCorrect reports whether the selected option is the correct one
func (q Question) IsCorrect(selected int) bool {
	return selected == q.CorrectIndex
}

// Scored reports whether answers to q can be judged. Placeholder questions
// have no correct option.
func (q Question) Scored() bool {
	return q.Source != SourceFallback
}

// GenerationRequest represents a request to generate questions
type GenerationRequest struct {
	Topic        string     `json:"topic"`
	Difficulty   Difficulty `json:"difficulty"`
	DesiredCount int        `json:"desired_count"`
}

// Validate rejects requests that can never be satisfied
func (r GenerationRequest) Validate() error {
	if r.DesiredCount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, r.DesiredCount)
	}
	return nil
}

// withCount returns a copy of the request asking for n questions
func (r GenerationRequest) withCount(n int) GenerationRequest {
	r.DesiredCount = n
	return r
}

// cacheKey identifies a topic/difficulty pair in caches and stats
func (r GenerationRequest) cacheKey() string {
	return r.Topic + "_" + string(r.Difficulty)
}

// Quiz is an acquisition as stored in the database
type Quiz struct {
	ID           string     `json:"id"`
	Topic        string     `json:"topic"`
	Difficulty   Difficulty `json:"difficulty"`
	NumQuestions int        `json:"num_questions"`
	FallbackUsed bool       `json:"fallback_used"`
	Attempts     int        `json:"attempts"`
	CreatedAt    time.Time  `json:"created_at"`
}
