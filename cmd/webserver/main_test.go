package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"quizbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatorResponse(t *testing.T) string {
	t.Helper()
	questions := []map[string]interface{}{
		{"question": "Which keyword starts a goroutine?", "options": []string{"async", "go", "spawn", "run"}, "correctIndex": 1, "explanation": "The go statement."},
		{"question": "What does len of a nil slice return?", "options": []string{"panic", "-1", "0", "nil"}, "correctIndex": 2, "explanation": "Nil slices are empty."},
	}
	payload, err := json.Marshal(questions)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{map[string]interface{}{
			"content": map[string]interface{}{"parts": []interface{}{map[string]string{"text": string(payload)}}},
		}},
	})
	require.NoError(t, err)
	return string(raw)
}

func scriptedGenerator(t *testing.T) quizbank.Generator {
	t.Helper()
	raw := generatorResponse(t)
	return quizbank.GeneratorFunc(func(context.Context, quizbank.GenerationRequest) (string, error) {
		return raw, nil
	})
}

// newTestServer serves plain HTTP. A nil gen leaves only placeholder questions.
func newTestServer(t *testing.T, gen quizbank.Generator) *httptest.Server {
	t.Helper()
	db, err := quizbank.OpenDB(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	require.NoError(t, db.CreateTables())
	t.Cleanup(func() { db.CloseDB() })

	cfg := &quizbank.Config{UseAI: gen != nil, MaxAttempts: 1, FallbackLimit: quizbank.DefaultFallbackLimit}
	server := NewServer(quizbank.NewQuestionBank(cfg, gen, db), db, []byte("0123456789abcdef0123456789abcdef"), false)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func call(t *testing.T, client *http.Client, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func TestPlayQuiz(t *testing.T) {
	ts := newTestServer(t, scriptedGenerator(t))
	client := newClient(t)

	status, created := call(t, client, http.MethodPost, ts.URL+"/quiz/new", map[string]interface{}{
		"topic": "Go", "difficulty": "easy", "num_questions": 2,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(2), created["num_questions"])
	assert.Equal(t, false, created["fallback_used"])
	quizURL := ts.URL + "/quiz/" + created["quiz_id"].(string)

	status, question := call(t, client, http.MethodGet, quizURL+"/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Which keyword starts a goroutine?", question["text"])
	assert.NotContains(t, question, "correct_index")

	status, answer := call(t, client, http.MethodPost, quizURL+"/1", map[string]int{"answer": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, answer["scored"])
	assert.Equal(t, true, answer["correct"])
	assert.Equal(t, float64(15), answer["points"])
	assert.Equal(t, "The go statement.", answer["explanation"])

	status, _ = call(t, client, http.MethodPost, quizURL+"/1", map[string]int{"answer": 1})
	assert.Equal(t, http.StatusConflict, status)

	status, answer = call(t, client, http.MethodPost, quizURL+"/2", map[string]int{"answer": 0})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, answer["correct"])
	assert.Equal(t, float64(2), answer["correct_index"])
	assert.Equal(t, true, answer["completed"])

	status, results := call(t, client, http.MethodGet, quizURL+"/results", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(50), results["percentage"])
	assert.Equal(t, false, results["perfect"])
	result := results["result"].(map[string]interface{})
	assert.Equal(t, float64(1), result["correct_answers"])
	assert.Equal(t, float64(15), result["score"])
	assert.Equal(t, float64(2), result["total_questions"])

	status, info := call(t, client, http.MethodGet, quizURL, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Go", info["topic"])

	status, stats := call(t, client, http.MethodGet, ts.URL+"/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"Go_Easy": float64(2)}, stats["stored"])
}

func TestSessionCookieWorksOverHTTP(t *testing.T) {
	ts := newTestServer(t, scriptedGenerator(t))

	data, err := json.Marshal(map[string]interface{}{"topic": "Go", "difficulty": "easy", "num_questions": 1})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/quiz/new", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionName, cookies[0].Name)
	assert.False(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestQuestionNeedsSession(t *testing.T) {
	ts := newTestServer(t, scriptedGenerator(t))
	owner := newClient(t)

	status, created := call(t, owner, http.MethodPost, ts.URL+"/quiz/new", map[string]interface{}{
		"topic": "Go", "difficulty": "medium", "num_questions": 1,
	})
	require.Equal(t, http.StatusCreated, status)
	questionURL := ts.URL + "/quiz/" + created["quiz_id"].(string) + "/1"

	status, _ = call(t, owner, http.MethodGet, questionURL, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, newClient(t), http.MethodGet, questionURL, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestPlaceholderQuestionsAreNotScored(t *testing.T) {
	ts := newTestServer(t, nil)
	client := newClient(t)

	status, created := call(t, client, http.MethodPost, ts.URL+"/quiz/new", map[string]interface{}{
		"topic": "Go", "difficulty": "hard", "num_questions": 2,
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, true, created["fallback_used"])
	quizURL := ts.URL + "/quiz/" + created["quiz_id"].(string)

	count := int(created["num_questions"].(float64))
	require.Positive(t, count)
	for i := 1; i <= count; i++ {
		questionURL := fmt.Sprintf("%s/%d", quizURL, i)
		status, _ := call(t, client, http.MethodGet, questionURL, nil)
		require.Equal(t, http.StatusOK, status)

		status, answer := call(t, client, http.MethodPost, questionURL, map[string]int{"answer": 0})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, answer["scored"])
		assert.NotContains(t, answer, "correct")
		assert.NotContains(t, answer, "correct_index")
		assert.Equal(t, float64(0), answer["points"])
		assert.Equal(t, i == count, answer["completed"])
	}

	status, results := call(t, client, http.MethodGet, quizURL+"/results", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, results["completed"])
	assert.Equal(t, false, results["perfect"])
	result := results["result"].(map[string]interface{})
	assert.Equal(t, float64(0), result["correct_answers"])
	assert.Equal(t, float64(0), result["total_questions"])
	assert.Equal(t, float64(0), result["score"])
}

func TestNewQuizValidation(t *testing.T) {
	ts := newTestServer(t, scriptedGenerator(t))
	client := newClient(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"no topic", map[string]interface{}{"difficulty": "easy", "num_questions": 2}},
		{"bad difficulty", map[string]interface{}{"topic": "Go", "difficulty": "extreme", "num_questions": 2}},
		{"zero questions", map[string]interface{}{"topic": "Go", "difficulty": "easy", "num_questions": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, client, http.MethodPost, ts.URL+"/quiz/new", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}

	status, _ := call(t, client, http.MethodGet, ts.URL+"/quiz/new", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, _ = call(t, client, http.MethodGet, ts.URL+"/quiz/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
