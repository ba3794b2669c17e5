package quizbank

import "sync"

// SessionCache keeps the latest questions per topic and difficulty for review
type SessionCache struct {
	mu      sync.RWMutex
	entries map[string][]Question
}

// NewSessionCache creates an empty cache
func NewSessionCache() *SessionCache {
	return &SessionCache{
		entries: make(map[string][]Question),
	}
}

// Put stores a copy of questions under the request's topic and difficulty
func (sc *SessionCache) Put(req GenerationRequest, questions []Question) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.entries[req.cacheKey()] = append([]Question(nil), questions...)
}

// Get returns a copy of the cached questions, if any
func (sc *SessionCache) Get(req GenerationRequest) ([]Question, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	questions, ok := sc.entries[req.cacheKey()]
	if !ok {
		return nil, false
	}
	return append([]Question(nil), questions...), true
}

// Clear empties the cache
func (sc *SessionCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.entries = make(map[string][]Question)
}

// Stats returns the number of cached questions per key
func (sc *SessionCache) Stats() map[string]int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	stats := make(map[string]int, len(sc.entries))
	for key, questions := range sc.entries {
		stats[key] = len(questions)
	}
	return stats
}

// Size returns the number of cached keys
func (sc *SessionCache) Size() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.entries)
}
