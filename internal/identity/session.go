package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the authenticated identity reported by the provider. A
// nil *Session means the caller is anonymous.
type Session struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Store is the single process-wide holder of the shared auth state: an
// explicit subscribe/current API updated only via provider change
// notifications, plus the locally generated anonymous session id used
// until an authenticated identity supersedes it.
type Store struct {
	mu          sync.RWMutex
	current     *Session
	anonymousID string
	subscribers map[int]func(*Session)
	nextSub     int
}

func NewStore() *Store {
	return &Store{
		anonymousID: uuid.NewString(),
		subscribers: map[int]func(*Session){},
	}
}

// Current returns the active session, or nil when anonymous.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AccessToken implements backend.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// AnonymousID returns the opaque local session identifier assigned to
// an unauthenticated caller.
func (s *Store) AnonymousID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anonymousID
}

// Identity returns the id bookings should be attributed to: the user
// id when authenticated, the anonymous id otherwise.
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		return s.current.UserID
	}
	return s.anonymousID
}

// RotateAnonymousID issues a fresh anonymous id. Called after every
// successful booking create: the old id is not reused indefinitely.
func (s *Store) RotateAnonymousID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anonymousID = uuid.NewString()
	return s.anonymousID
}

// Subscribe registers a callback for auth state changes and returns an
// unsubscribe func. Callbacks run synchronously on the updating
// goroutine.
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Set applies a provider state-change notification. A nil session
// means sign-out.
func (s *Store) Set(session *Session) {
	s.mu.Lock()
	s.current = session
	subs := make([]func(*Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}
