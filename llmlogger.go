package quizbank

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger records every generator exchange of one acquisition in its own file
type LLMLogger struct {
	file   *os.File
	path   string
	mu     sync.Mutex
	quizID string
}

// NewLLMLogger creates dir/<quizID>.log and writes the request header
func NewLLMLogger(dir, quizID string, req GenerationRequest) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", quizID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:   file,
		path:   filename,
		quizID: quizID,
	}

	logger.Logf("=== Question Acquisition Log ===\n")
	logger.Logf("Quiz ID: %s\n", quizID)
	logger.Logf("Topic: %s\n", req.Topic)
	logger.Logf("Number of Questions: %d\n", req.DesiredCount)
	logger.Logf("Difficulty: %s\n", req.Difficulty)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("================================\n\n")

	return logger, nil
}

// Path returns the log file name
func (ll *LLMLogger) Path() string {
	return ll.path
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogAttempt marks the start of a generator call
func (ll *LLMLogger) LogAttempt(attempt, requested int) {
	ll.Logf("--- Attempt %d: requesting %d questions ---\n", attempt, requested)
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogCandidateDropped logs a candidate object that failed validation
func (ll *LLMLogger) LogCandidateDropped(index int, reason string) {
	ll.Logf("Candidate %d: DROPPED - %s\n", index, reason)
}

// LogOutcome logs how the acquisition ended
func (ll *LLMLogger) LogOutcome(result *AcquisitionResult) {
	ll.Logf("Outcome: %s after %d attempts, %d questions, fallback=%v\n",
		result.State, len(result.Attempts), len(result.Questions), result.FallbackUsed)
	for _, a := range result.Attempts {
		if a.Err != "" {
			ll.Logf("  attempt %d: requested %d, got %d (%s: %s)\n", a.Number, a.Requested, a.Yield, a.Outcome, a.Err)
		} else {
			ll.Logf("  attempt %d: requested %d, got %d (%s)\n", a.Number, a.Requested, a.Yield, a.Outcome)
		}
	}
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.logf("=== Acquisition Complete ===\n")
	ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.logf("============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
