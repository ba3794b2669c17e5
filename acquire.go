package quizbank

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"
)

// ErrInvalidCount is returned for requests asking for no questions
var ErrInvalidCount = errors.New("desired question count must be positive")

// AcquisitionState tracks where an acquisition is in its retry loop
type AcquisitionState string

const (
	StateIdle       AcquisitionState = "idle"
	StateRequesting AcquisitionState = "requesting"
	StateSufficient AcquisitionState = "sufficient"
	StateShortfall  AcquisitionState = "shortfall"
	StateFailed     AcquisitionState = "failed"
	StateRetrying   AcquisitionState = "retrying"
	StateExhausted  AcquisitionState = "exhausted"
	StateDone       AcquisitionState = "done"
	StateCancelled  AcquisitionState = "cancelled"
)

// AttemptRecord describes one call to the generator
type AttemptRecord struct {
	Number    int              `json:"number"`
	Requested int              `json:"requested"`
	Yield     int              `json:"yield"`
	Outcome   AcquisitionState `json:"outcome"` // sufficient, shortfall or failed
	Err       string           `json:"error,omitempty"`
}

// AcquisitionResult is the outcome of one acquisition
type AcquisitionResult struct {
	QuizID       string            `json:"quiz_id,omitempty"`
	Request      GenerationRequest `json:"request"`
	Questions    []Question        `json:"questions"`
	FallbackUsed bool              `json:"fallback_used"`
	State        AcquisitionState  `json:"state"`
	Attempts     []AttemptRecord   `json:"attempts"`
	// Partial holds the generated questions gathered before the attempts ran
	// out. They are not part of Questions when FallbackUsed is set.
	Partial []Question `json:"partial,omitempty"`
}

// AcquireConfig is the retry policy
type AcquireConfig struct {
	MaxAttempts      int
	ShortfallBackoff time.Duration // after an attempt that yielded some questions
	FailureBackoff   time.Duration // after an attempt that yielded none
	FallbackLimit    int
	ShuffleOptions   bool
}

// DefaultAcquireConfig returns the standard policy: 3 attempts, 1s/2s waits
func DefaultAcquireConfig() AcquireConfig {
	return AcquireConfig{
		MaxAttempts:      3,
		ShortfallBackoff: time.Second,
		FailureBackoff:   2 * time.Second,
		FallbackLimit:    DefaultFallbackLimit,
	}
}

// Acquirer drives a Generator until a request is satisfied or the attempts
// run out. It is not safe for concurrent use; create one per acquisition.
type Acquirer struct {
	gen    Generator
	cfg    AcquireConfig
	logger *LLMLogger
	sleep  func(ctx context.Context, d time.Duration) error
	rng    *rand.Rand
}

// NewAcquirer creates an acquirer around gen
func NewAcquirer(gen Generator, cfg AcquireConfig) *Acquirer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Acquirer{
		gen:   gen,
		cfg:   cfg,
		sleep: sleepContext,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLogger sets the per-acquisition LLM logger
func (a *Acquirer) SetLogger(logger *LLMLogger) {
	a.logger = logger
}

// Acquire collects req.DesiredCount validated questions. Running out of
// attempts is not an error: the result then carries the fallback set and
// FallbackUsed. Errors are returned only for invalid requests and for
// cancellation, in which case the partial result is returned too.
func (a *Acquirer) Acquire(ctx context.Context, req GenerationRequest) (*AcquisitionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &AcquisitionResult{Request: req, State: StateIdle}
	accumulated := make([]Question, 0, req.DesiredCount)

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		remaining := req.DesiredCount - len(accumulated)
		record := AttemptRecord{Number: attempt, Requested: remaining}
		result.State = StateRequesting
		log.Printf("Attempt %d/%d: requesting %d questions on %q (%s)", attempt, a.cfg.MaxAttempts, remaining, req.Topic, req.Difficulty)
		if a.logger != nil {
			a.logger.LogAttempt(attempt, remaining)
		}

		questions, err := a.attempt(ctx, req.withCount(remaining))
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Attempts = append(result.Attempts, record)
			return a.cancel(result, accumulated), ctxErr
		}

		record.Yield = len(questions)
		switch {
		case err != nil && len(questions) == 0:
			record.Outcome = StateFailed
			record.Err = err.Error()
			log.Printf("Attempt %d failed: %v", attempt, err)
		case len(accumulated)+len(questions) >= req.DesiredCount:
			record.Outcome = StateSufficient
		default:
			record.Outcome = StateShortfall
		}
		result.Attempts = append(result.Attempts, record)
		result.State = record.Outcome
		accumulated = append(accumulated, questions...)

		if len(accumulated) >= req.DesiredCount {
			result.Questions = accumulated[:req.DesiredCount]
			result.State = StateDone
			log.Printf("Acquired %d questions in %d attempts", len(result.Questions), attempt)
			a.finish(result)
			return result, nil
		}

		if attempt == a.cfg.MaxAttempts {
			break
		}

		backoff := a.cfg.FailureBackoff
		if len(questions) > 0 {
			backoff = a.cfg.ShortfallBackoff
		}
		result.State = StateRetrying
		log.Printf("Have %d of %d questions, retrying in %v", len(accumulated), req.DesiredCount, backoff)
		if err := a.sleep(ctx, backoff); err != nil {
			return a.cancel(result, accumulated), err
		}
	}

	result.State = StateExhausted
	result.FallbackUsed = true
	result.Partial = accumulated
	result.Questions = FallbackQuestions(req, a.cfg.FallbackLimit)
	log.Printf("Gave up after %d attempts with %d of %d questions, using %d fallback questions",
		len(result.Attempts), len(accumulated), req.DesiredCount, len(result.Questions))
	a.finish(result)
	return result, nil
}

// attempt makes one generator call and decodes its response
func (a *Acquirer) attempt(ctx context.Context, req GenerationRequest) ([]Question, error) {
	prompt := BuildPrompt(req)
	if a.logger != nil {
		a.logger.LogLLMRequest("Generator", prompt)
	}

	raw, err := a.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if a.logger != nil {
		a.logger.LogLLMResponse("Generator", raw)
	}

	questions, err := DecodeResponse(raw, req.Difficulty, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cfg.ShuffleOptions {
		for i := range questions {
			questions[i] = ShuffleOptions(questions[i], a.rng)
		}
	}
	return questions, nil
}

func (a *Acquirer) cancel(result *AcquisitionResult, accumulated []Question) *AcquisitionResult {
	result.State = StateCancelled
	result.Partial = accumulated
	log.Printf("Acquisition cancelled with %d of %d questions", len(accumulated), result.Request.DesiredCount)
	a.finish(result)
	return result
}

func (a *Acquirer) finish(result *AcquisitionResult) {
	if a.logger != nil {
		a.logger.LogOutcome(result)
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
