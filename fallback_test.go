package quizbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackQuestions(t *testing.T) {
	tests := []struct {
		desired int
		limit   int
		want    int
	}{
		{1, DefaultFallbackLimit, 1},
		{3, DefaultFallbackLimit, 3},
		{10, DefaultFallbackLimit, 5},
		{0, DefaultFallbackLimit, 1},
		{10, 0, DefaultFallbackLimit},
		{10, 2, 2},
	}

	for _, tt := range tests {
		req := GenerationRequest{Topic: "Physics", Difficulty: Hard, DesiredCount: tt.desired}
		questions := FallbackQuestions(req, tt.limit)
		assert.Len(t, questions, tt.want, "desired %d limit %d", tt.desired, tt.limit)
	}
}

func TestFallbackQuestionsAreDeterministic(t *testing.T) {
	req := GenerationRequest{Topic: "Physics", Difficulty: Hard, DesiredCount: 2}
	first := FallbackQuestions(req, DefaultFallbackLimit)
	assert.Equal(t, first, FallbackQuestions(req, DefaultFallbackLimit))

	q := first[1]
	assert.Equal(t, "fallback-2", q.ID)
	assert.Equal(t, "Sample question 2 for Physics (Hard)", q.Text)
	assert.Equal(t, []string{"Option A", "Option B", "Option C", "Option D"}, q.Options)
	assert.Equal(t, 0, q.CorrectIndex)
	assert.Equal(t, Hard, q.Difficulty)
	assert.Equal(t, SourceFallback, q.Source)
	assert.Equal(t, FallbackExplanation, q.Explanation)
}
