package memory

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultSessionID is used when a request names no session.
	DefaultSessionID = "default"

	sessionIdleExpiry      = time.Hour
	sessionCleanupInterval = 10 * time.Minute
)

// Factory creates the memory of a new session.
type Factory func(sessionID string) Memory

// BufferFactory returns a Factory of in-process buffers.
func BufferFactory(capacity int) Factory {
	return func(string) Memory {
		return NewBuffer(capacity)
	}
}

// Sessions maps session ids to their memory. Sessions idle for an hour are
// dropped; the next request on that id starts with an empty memory.
type Sessions struct {
	mu      sync.Mutex
	cache   *gocache.Cache
	factory Factory
}

// NewSessions creates a session registry.
func NewSessions(factory Factory) *Sessions {
	return &Sessions{
		cache:   gocache.New(sessionIdleExpiry, sessionCleanupInterval),
		factory: factory,
	}
}

// Get returns the memory of a session, creating it on first use.
func (s *Sessions) Get(sessionID string) Memory {
	sessionID = normalizeSessionID(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(sessionID); ok {
		m := v.(Memory)
		// Refresh the idle expiry.
		s.cache.SetDefault(sessionID, m)
		return m
	}
	m := s.factory(sessionID)
	s.cache.SetDefault(sessionID, m)
	return m
}

// Forget drops a session from the registry.
func (s *Sessions) Forget(sessionID string) {
	s.cache.Delete(normalizeSessionID(sessionID))
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

func normalizeSessionID(sessionID string) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return id
	}
	return DefaultSessionID
}
