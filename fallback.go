package quizbank

import "fmt"

// DefaultFallbackLimit caps the placeholder set
const DefaultFallbackLimit = 5

// FallbackExplanation marks placeholder questions for the player
const FallbackExplanation = "This is a placeholder question, not generated by AI, and no option is known to be correct. Configure an API key to get real questions."

// FallbackQuestions builds a deterministic placeholder set of up to limit
// questions. It always returns at least one question.
func FallbackQuestions(req GenerationRequest, limit int) []Question {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	n := min(max(req.DesiredCount, 1), limit)

	questions := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, Question{
			ID:           fmt.Sprintf("fallback-%d", i+1),
			Text:         fmt.Sprintf("Sample question %d for %s (%s)", i+1, req.Topic, req.Difficulty),
			Options:      []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex: 0,
			Difficulty:   req.Difficulty,
			Explanation:  FallbackExplanation,
			Source:       SourceFallback,
		})
	}
	return questions
}
