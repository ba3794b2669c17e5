package quizbank

import (
	"fmt"
	"time"
)

// PointsFor scores one answer. Correct answers earn 10, 20 or 30 points by
// difficulty, and half again when given in under half the time limit.
func PointsFor(difficulty Difficulty, correct bool, elapsed, limit time.Duration) int {
	if !correct {
		return 0
	}
	points := 10
	switch difficulty {
	case Medium:
		points = 20
	case Hard:
		points = 30
	}
	if limit > 0 && elapsed < limit/2 {
		points = points * 3 / 2
	}
	return points
}

// QuizResult summarises one completed quiz
type QuizResult struct {
	Topic          string        `json:"topic"`
	Difficulty     Difficulty    `json:"difficulty"`
	CorrectAnswers int           `json:"correct_answers"`
	TotalQuestions int           `json:"total_questions"`
	Score          int           `json:"score"`
	TimeTaken      time.Duration `json:"time_taken"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// Percentage returns the share of correct answers, 0 for an empty quiz
func (r QuizResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100
}

// IsPerfect reports whether every question was answered correctly
func (r QuizResult) IsPerfect() bool {
	return r.TotalQuestions > 0 && r.CorrectAnswers == r.TotalQuestions
}

func (r QuizResult) String() string {
	return fmt.Sprintf("[%s] %s difficulty: %d/%d correct (%.1f%%) - Time: %d seconds",
		r.Topic, r.Difficulty, r.CorrectAnswers, r.TotalQuestions, r.Percentage(), int(r.TimeTaken.Seconds()))
}
