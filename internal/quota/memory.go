package quota

import (
	"context"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// MemoryStore keeps counters in process memory
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]models.QuotaCounter
}

// NewMemoryStore creates an empty in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]models.QuotaCounter)}
}

// Incr counts one request for key, restarting the window once it has elapsed
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (models.QuotaCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.ResetAt(window)) {
		c = models.QuotaCounter{Key: key, WindowStart: now}
	}
	c.Count++
	s.counters[key] = c
	return c, nil
}

// Sweep drops counters whose window has closed
func (s *MemoryStore) Sweep(window time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.counters {
		if !now.Before(c.ResetAt(window)) {
			delete(s.counters, k)
		}
	}
}
