package http

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"kudalens/internal/core"
)

// sessionStore holds one parsed statement per browser session with TTL and
// size-based LRU eviction. A session's statement is replaced wholesale on a
// new upload and discarded when the TTL lapses; statements themselves are
// immutable, so reads hand out the stored pointer.
type sessionStore struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type sessionItem struct {
	id        string
	statement *core.Statement
	expiresAt time.Time
}

func newSessionStore(maxSize int, ttl time.Duration) *sessionStore {
	s := &sessionStore{
		maxSize:     maxSize,
		ttl:         ttl,
		items:       make(map[string]*list.Element),
		lru:         list.New(),
		stopCleanup: make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

// Get returns the statement for a session ID, refreshing its TTL.
func (s *sessionStore) Get(id string) (*core.Statement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[id]
	if !exists {
		return nil, false
	}

	item := elem.Value.(*sessionItem)
	if time.Now().After(item.expiresAt) {
		s.removeElement(elem)
		return nil, false
	}

	// Sliding expiry: an active session stays alive.
	item.expiresAt = time.Now().Add(s.ttl)
	s.lru.MoveToFront(elem)
	return item.statement, true
}

// Put stores a statement under the given session ID, replacing any
// previous statement for that session. An empty ID allocates a new one.
// Returns the session ID.
func (s *sessionStore) Put(id string, st *core.Statement) string {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := &sessionItem{
		id:        id,
		statement: st,
		expiresAt: time.Now().Add(s.ttl),
	}

	if elem, exists := s.items[id]; exists {
		elem.Value = item
		s.lru.MoveToFront(elem)
		return id
	}

	elem := s.lru.PushFront(item)
	s.items[id] = elem

	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return id
}

// Delete discards a session.
func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.items[id]; exists {
		s.removeElement(elem)
	}
}

func (s *sessionStore) removeElement(elem *list.Element) {
	item := elem.Value.(*sessionItem)
	delete(s.items, item.id)
	s.lru.Remove(elem)
}

// CleanExpired removes all expired sessions.
func (s *sessionStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*sessionItem).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		s.removeElement(elem)
	}
	return len(toRemove)
}

// startCleanup runs periodic cleanup to discard expired sessions
func (s *sessionStore) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

// stop gracefully shuts down the cleanup goroutine
func (s *sessionStore) stop() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}
