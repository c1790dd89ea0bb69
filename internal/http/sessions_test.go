package http

import (
	"testing"
	"time"

	"kudalens/internal/core"
)

func stmt() *core.Statement {
	return &core.Statement{}
}

func TestSessionStorePutGet(t *testing.T) {
	s := newSessionStore(10, time.Minute)
	defer s.stop()

	id := s.Put("", stmt())
	if id == "" {
		t.Fatal("expected generated session id")
	}
	if _, ok := s.Get(id); !ok {
		t.Fatal("expected session to exist")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("unexpected session")
	}
}

func TestSessionStoreReplace(t *testing.T) {
	s := newSessionStore(10, time.Minute)
	defer s.stop()

	first := stmt()
	second := stmt()
	id := s.Put("", first)
	if got := s.Put(id, second); got != id {
		t.Fatalf("replace changed id: %s != %s", got, id)
	}
	got, ok := s.Get(id)
	if !ok || got != second {
		t.Fatal("expected replaced statement")
	}
	if s.lru.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.lru.Len())
	}
}

func TestSessionStoreEviction(t *testing.T) {
	s := newSessionStore(2, time.Minute)
	defer s.stop()

	a := s.Put("", stmt())
	b := s.Put("", stmt())
	s.Get(a) // refresh: b is now least recently used
	c := s.Put("", stmt())

	if _, ok := s.Get(b); ok {
		t.Fatal("expected LRU session evicted")
	}
	for _, id := range []string{a, c} {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("session %s should survive", id)
		}
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	s := newSessionStore(10, 10*time.Millisecond)
	defer s.stop()

	id := s.Put("", stmt())
	time.Sleep(20 * time.Millisecond)

	if _, ok := s.Get(id); ok {
		t.Fatal("expected session expired")
	}
	if n := s.CleanExpired(); n != 0 {
		t.Fatalf("Get should have removed the expired entry, cleaned %d", n)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	s := newSessionStore(10, time.Minute)
	defer s.stop()

	id := s.Put("", stmt())
	s.Delete(id)
	if _, ok := s.Get(id); ok {
		t.Fatal("expected session deleted")
	}
}
