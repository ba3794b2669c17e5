package quizbank

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// MinOptions is the fewest options a question may carry
const MinOptions = 4

var (
	ErrEmptyQuestion = errors.New("question text is empty")
	ErrTooFewOptions = errors.New("too few options")
)

// AssembleQuestion maps one candidate object to a validated question. The
// difficulty comes from the request, not from the candidate. An out of range
// correctIndex is reset to 0 rather than rejected.
func AssembleQuestion(candidate string, difficulty Difficulty) (Question, error) {
	text := ExtractString(candidate, "question")
	options, correct := dropBlankOptions(
		SplitArrayElements(ExtractArraySlice(candidate, "options")),
		ExtractInt(candidate, "correctIndex"),
	)
	explanation := ExtractString(candidate, "explanation")

	if text == "" {
		return Question{}, ErrEmptyQuestion
	}
	if len(options) < MinOptions {
		return Question{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewOptions, len(options), MinOptions)
	}
	if correct < 0 || correct >= len(options) {
		VerboseLog("Invalid correctIndex %d for %d options, defaulting to 0", correct, len(options))
		correct = 0
	}

	return Question{
		ID:           uuid.NewString(),
		Text:         text,
		Options:      options,
		CorrectIndex: correct,
		Difficulty:   difficulty,
		Explanation:  explanation,
		Source:       SourceAI,
	}, nil
}

// dropBlankOptions removes empty or whitespace-only options so they cannot
// count towards MinOptions. correct is moved with its option; if it pointed
// at a blank one it becomes MissingInt.
func dropBlankOptions(options []string, correct int) ([]string, int) {
	kept := make([]string, 0, len(options))
	newCorrect := MissingInt
	for i, option := range options {
		if strings.TrimSpace(option) == "" {
			continue
		}
		if i == correct {
			newCorrect = len(kept)
		}
		kept = append(kept, option)
	}
	return kept, newCorrect
}

// AssembleQuestions assembles every candidate in order, skipping the ones
// that fail validation.
func AssembleQuestions(candidates []string, difficulty Difficulty, logger *LLMLogger) []Question {
	questions := make([]Question, 0, len(candidates))
	for i, candidate := range candidates {
		q, err := AssembleQuestion(candidate, difficulty)
		if err != nil {
			VerboseLog("Dropping candidate %d: %v", i, err)
			if logger != nil {
				logger.LogCandidateDropped(i, err.Error())
			}
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// ShuffleOptions returns a copy of q with its options permuted and
// CorrectIndex moved to wherever the correct option landed.
func ShuffleOptions(q Question, rng *rand.Rand) Question {
	order := rng.Perm(len(q.Options))
	shuffled := make([]string, len(q.Options))
	newCorrect := 0
	for to, from := range order {
		shuffled[to] = q.Options[from]
		if from == q.CorrectIndex {
			newCorrect = to
		}
	}
	q.Options = shuffled
	q.CorrectIndex = newCorrect
	return q
}
