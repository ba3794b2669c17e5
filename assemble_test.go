package quizbank

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleQuestion(t *testing.T) {
	candidate := `{"question": "Which keyword starts a goroutine?", "options": ["go", "async", "spawn", "thread"], "correctIndex": 0, "explanation": "The go statement."}`

	q, err := AssembleQuestion(candidate, Easy)
	require.NoError(t, err)
	assert.Equal(t, "Which keyword starts a goroutine?", q.Text)
	assert.Equal(t, []string{"go", "async", "spawn", "thread"}, q.Options)
	assert.Equal(t, 0, q.CorrectIndex)
	assert.Equal(t, "The go statement.", q.Explanation)
	assert.Equal(t, Easy, q.Difficulty)
	assert.Equal(t, "go", q.CorrectAnswer())
}

func TestAssembleQuestionCoercesCorrectIndex(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
	}{
		{"too large", `{"question": "Q", "options": ["a","b","c","d"], "correctIndex": 9}`},
		{"negative", `{"question": "Q", "options": ["a","b","c","d"], "correctIndex": -2}`},
		{"missing", `{"question": "Q", "options": ["a","b","c","d"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := AssembleQuestion(tt.candidate, Medium)
			require.NoError(t, err)
			assert.Equal(t, 0, q.CorrectIndex)
			assert.Len(t, q.Options, 4)
		})
	}
}

func TestAssembleQuestionRejects(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      error
	}{
		{"missing question", `{"options": ["a","b","c","d"], "correctIndex": 1}`, ErrEmptyQuestion},
		{"empty question", `{"question": "", "options": ["a","b","c","d"]}`, ErrEmptyQuestion},
		{"missing options", `{"question": "Q", "correctIndex": 1}`, ErrTooFewOptions},
		{"three options", `{"question": "Q", "options": ["a","b","c"], "correctIndex": 1}`, ErrTooFewOptions},
		{"options not an array", `{"question": "Q", "options": "a,b,c,d"}`, ErrTooFewOptions},
		{"blank options do not count", `{"question": "Q", "options": ["A", "", "  ", ""], "correctIndex": 0}`, ErrTooFewOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssembleQuestion(tt.candidate, Medium)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAssembleQuestionsDropsMalformed(t *testing.T) {
	var candidates []string
	for i := 0; i < 10; i++ {
		switch i {
		case 2:
			candidates = append(candidates, candidateJSON(t, candidateFixture{Question: "no options"}))
		case 5, 8:
			candidates = append(candidates, candidateJSON(t, candidateFixture{Question: "three options", Options: []string{"a", "b", "c"}}))
		default:
			candidates = append(candidates, validCandidate(t, i))
		}
	}

	questions := AssembleQuestions(candidates, Medium, nil)
	require.Len(t, questions, 7)

	// survivors keep their order
	assert.Equal(t, "Question 0: what does {x} print?", questions[0].Text)
	assert.Equal(t, "Question 3: what does {x} print?", questions[2].Text)
	assert.Equal(t, "Question 9: what does {x} print?", questions[6].Text)
}

func TestAssembleQuestionsLogsDrops(t *testing.T) {
	logger, err := NewLLMLogger(t.TempDir(), "drops", GenerationRequest{Topic: "Go", Difficulty: Easy, DesiredCount: 1})
	require.NoError(t, err)
	defer logger.Close()

	questions := AssembleQuestions([]string{`{"question": ""}`}, Easy, logger)
	assert.Empty(t, questions)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Candidate 0: DROPPED - question text is empty")
}

func TestAssembleQuestionSkipsBlankOptions(t *testing.T) {
	tests := []struct {
		name        string
		candidate   string
		wantCorrect int
	}{
		{"correct moves with its option", `{"question": "Q", "options": ["a", "", "b", "c", "d"], "correctIndex": 2}`, 1},
		{"correct on a blank option", `{"question": "Q", "options": ["a", "", "b", "c", "d"], "correctIndex": 1}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := AssembleQuestion(tt.candidate, Easy)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c", "d"}, q.Options)
			assert.Equal(t, tt.wantCorrect, q.CorrectIndex)
		})
	}
}

func TestShuffleOptionsTracksCorrectAnswer(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	original := Question{
		Text:         "Q",
		Options:      []string{"right", "wrong 1", "wrong 2", "wrong 3", "wrong 4"},
		CorrectIndex: 0,
	}

	moved := false
	for i := 0; i < 50; i++ {
		shuffled := ShuffleOptions(original, rng)
		assert.Equal(t, "right", shuffled.CorrectAnswer())
		assert.ElementsMatch(t, original.Options, shuffled.Options)
		if shuffled.CorrectIndex != 0 {
			moved = true
		}
	}
	assert.True(t, moved, "correct option never moved")

	// the input is left alone
	assert.Equal(t, []string{"right", "wrong 1", "wrong 2", "wrong 3", "wrong 4"}, original.Options)
	assert.Equal(t, 0, original.CorrectIndex)
}
