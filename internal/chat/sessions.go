package chat

import (
	"context"
	"sync"
	"time"

	"export-assistant/internal/common/metrics"

	"github.com/google/uuid"
)

// Sessions is the in-memory registry of open conversations.
type Sessions struct {
	ttl     time.Duration
	welcome string
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions(ttl time.Duration, welcome string) *Sessions {
	return &Sessions{
		ttl:      ttl,
		welcome:  welcome,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with a random id.
func (r *Sessions) Create() *Session {
	s := newSession(uuid.NewString(), r.welcome, r.now())

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return s
}

func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the TTL and returns how many
// were removed. A session blocked in Handle is never idle.
func (r *Sessions) Evict() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.mu.TryLock() {
			stale := s.lastActive.Before(cutoff)
			s.mu.Unlock()
			if stale {
				delete(r.sessions, id)
				removed++
			}
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return removed
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Evict()
		}
	}
}
