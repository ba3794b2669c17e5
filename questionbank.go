package quizbank

import (
	"context"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultDomains are the topics offered when the user has no preference
var DefaultDomains = []string{
	"Java Programming", "Python Programming", "Data Structures",
	"Algorithms", "Database Systems", "Web Development",
	"Mathematics", "Physics", "Chemistry", "Biology",
	"History", "Geography", "General Knowledge", "English Literature",
	"Computer Networks", "Operating Systems", "Artificial Intelligence",
	"Machine Learning", "Cybersecurity", "Cloud Computing",
}

// QuestionBank hands out question sets, generating them when a generator is
// available and falling back to placeholders when it is not.
type QuestionBank struct {
	cfg   *Config
	gen   Generator
	db    *DB
	cache *SessionCache
}

// NewQuestionBank creates a question bank. gen and db may be nil.
func NewQuestionBank(cfg *Config, gen Generator, db *DB) *QuestionBank {
	return &QuestionBank{
		cfg:   cfg,
		gen:   gen,
		db:    db,
		cache: NewSessionCache(),
	}
}

// GeneratorConfigured reports whether questions can be generated at all
func (qb *QuestionBank) GeneratorConfigured() bool {
	return qb.gen != nil
}

// GetQuestions acquires a fresh question set for req. Only an invalid
// request or cancellation produces an error.
func (qb *QuestionBank) GetQuestions(ctx context.Context, req GenerationRequest) (*AcquisitionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	quizID := uuid.NewString()
	log.Printf("Generating %d questions for %s (%s), quiz %s", req.DesiredCount, req.Topic, req.Difficulty, quizID)

	var result *AcquisitionResult
	if qb.gen == nil {
		log.Printf("No generator configured, using fallback questions")
		result = &AcquisitionResult{
			Request:      req,
			Questions:    FallbackQuestions(req, qb.cfg.FallbackLimit),
			FallbackUsed: true,
			State:        StateExhausted,
		}
	} else {
		acquirer := NewAcquirer(qb.gen, qb.cfg.AcquireConfig())
		if qb.cfg.LogDir != "" {
			logger, err := NewLLMLogger(qb.cfg.LogDir, quizID, req)
			if err != nil {
				// Continue without logging rather than failing
				log.Printf("Failed to create logger for quiz %s: %v", quizID, err)
			} else {
				acquirer.SetLogger(logger)
				defer logger.Close()
			}
		}

		var err error
		result, err = acquirer.Acquire(ctx, req)
		if err != nil {
			return result, err
		}
	}
	result.QuizID = quizID

	if qb.cfg.CacheQuestions && !result.FallbackUsed {
		qb.cache.Put(req, result.Questions)
	}
	if qb.db != nil {
		if err := qb.db.SaveAcquisition(result); err != nil {
			log.Printf("Failed to store quiz %s: %v", quizID, err)
		}
	}
	return result, nil
}

// Prefetch acquires several requests concurrently, each with its own
// acquirer. Results are returned in request order.
func (qb *QuestionBank) Prefetch(ctx context.Context, reqs []GenerationRequest) ([]*AcquisitionResult, error) {
	results := make([]*AcquisitionResult, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := qb.GetQuestions(ctx, req)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TestConnection asks the generator for one easy question
func (qb *QuestionBank) TestConnection(ctx context.Context) bool {
	if qb.gen == nil {
		return false
	}
	req := GenerationRequest{Topic: "General Knowledge", Difficulty: Easy, DesiredCount: 1}
	acquirer := NewAcquirer(qb.gen, AcquireConfig{MaxAttempts: 1})
	result, err := acquirer.Acquire(ctx, req)
	if err != nil {
		log.Printf("Connection test failed: %v", err)
		return false
	}
	return !result.FallbackUsed
}

// CachedQuestions returns the last generated set for a topic and difficulty
func (qb *QuestionBank) CachedQuestions(req GenerationRequest) ([]Question, bool) {
	return qb.cache.Get(req)
}

// Domains lists the default quiz topics
func (qb *QuestionBank) Domains() []string {
	return append([]string(nil), DefaultDomains...)
}

// Stats counts cached questions per topic_difficulty
func (qb *QuestionBank) Stats() map[string]int {
	return qb.cache.Stats()
}

// ClearCache drops all cached question sets
func (qb *QuestionBank) ClearCache() {
	qb.cache.Clear()
	log.Printf("Session cache cleared")
}
