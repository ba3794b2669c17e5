package quizbank

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Provider:       ProviderGemini,
		UseAI:          true,
		CacheQuestions: true,
		LogDir:         t.TempDir(),
		MaxAttempts:    3,
		FallbackLimit:  DefaultFallbackLimit,
	}
}

func TestQuestionBankWithoutGenerator(t *testing.T) {
	db := openTestDB(t)
	bank := NewQuestionBank(testConfig(t), nil, db)
	assert.False(t, bank.GeneratorConfigured())

	result, err := bank.GetQuestions(context.Background(), GenerationRequest{Topic: "Biology", Difficulty: Easy, DesiredCount: 8})
	require.NoError(t, err)
	assert.NotEmpty(t, result.QuizID)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, StateExhausted, result.State)
	assert.Len(t, result.Questions, DefaultFallbackLimit)
	assert.Empty(t, result.Attempts)

	// fallback sets are stored but never cached
	assert.Zero(t, bank.cache.Size())
	quiz, err := db.GetQuiz(result.QuizID)
	require.NoError(t, err)
	assert.True(t, quiz.FallbackUsed)
}

func TestQuestionBankGeneratesCachesAndStores(t *testing.T) {
	raw := responseWith(t, 0, 3)
	gen := GeneratorFunc(func(context.Context, GenerationRequest) (string, error) { return raw, nil })
	cfg := testConfig(t)
	db := openTestDB(t)
	bank := NewQuestionBank(cfg, gen, db)
	req := GenerationRequest{Topic: "Go", Difficulty: Medium, DesiredCount: 3}

	result, err := bank.GetQuestions(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.False(t, result.FallbackUsed)

	cached, ok := bank.CachedQuestions(req)
	require.True(t, ok)
	assert.Equal(t, result.Questions, cached)
	assert.Equal(t, map[string]int{"Go_Medium": 3}, bank.Stats())

	stored, err := db.GetQuestions(result.QuizID)
	require.NoError(t, err)
	assert.Equal(t, result.Questions, stored)

	_, err = os.Stat(filepath.Join(cfg.LogDir, result.QuizID+".log"))
	assert.NoError(t, err)

	bank.ClearCache()
	_, ok = bank.CachedQuestions(req)
	assert.False(t, ok)
}

func TestQuestionBankGetQuestionsErrors(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, _ GenerationRequest) (string, error) {
		return "", ctx.Err()
	})
	bank := NewQuestionBank(testConfig(t), gen, nil)

	_, err := bank.GetQuestions(context.Background(), GenerationRequest{Topic: "Go", Difficulty: Easy})
	assert.ErrorIs(t, err, ErrInvalidCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := bank.GetQuestions(ctx, GenerationRequest{Topic: "Go", Difficulty: Easy, DesiredCount: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, result.State)
}

func TestQuestionBankPrefetch(t *testing.T) {
	raw := responseWith(t, 0, 4)
	var calls atomic.Int32
	gen := GeneratorFunc(func(context.Context, GenerationRequest) (string, error) {
		calls.Add(1)
		return raw, nil
	})
	bank := NewQuestionBank(testConfig(t), gen, nil)

	reqs := []GenerationRequest{
		{Topic: "Go", Difficulty: Easy, DesiredCount: 2},
		{Topic: "Rust", Difficulty: Hard, DesiredCount: 4},
		{Topic: "SQL", Difficulty: Medium, DesiredCount: 1},
	}
	results, err := bank.Prefetch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, result := range results {
		assert.Equal(t, reqs[i], result.Request)
		assert.Len(t, result.Questions, reqs[i].DesiredCount)
		assert.Equal(t, reqs[i].Difficulty, result.Questions[0].Difficulty)
	}
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 3, bank.cache.Size())

	_, err = bank.Prefetch(context.Background(), []GenerationRequest{{Topic: "Go", DesiredCount: 0}})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestQuestionBankTestConnection(t *testing.T) {
	raw := responseWith(t, 0, 1)
	ok := NewQuestionBank(testConfig(t), GeneratorFunc(func(context.Context, GenerationRequest) (string, error) {
		return raw, nil
	}), nil)
	assert.True(t, ok.TestConnection(context.Background()))

	var calls int
	failing := NewQuestionBank(testConfig(t), GeneratorFunc(func(context.Context, GenerationRequest) (string, error) {
		calls++
		return "", errTransport
	}), nil)
	assert.False(t, failing.TestConnection(context.Background()))
	assert.Equal(t, 1, calls)

	assert.False(t, NewQuestionBank(testConfig(t), nil, nil).TestConnection(context.Background()))
}

func TestQuestionBankDomains(t *testing.T) {
	bank := NewQuestionBank(testConfig(t), nil, nil)
	domains := bank.Domains()
	assert.Equal(t, DefaultDomains, domains)

	domains[0] = "changed"
	assert.NotEqual(t, "changed", DefaultDomains[0])
}
