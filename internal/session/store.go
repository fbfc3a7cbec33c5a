package session

import (
	"sync"
	"time"

	"branding-bible/internal/chat"
)

// Factory builds a fresh chat controller, with its own conversation
// handle, for a new or reset session.
type Factory func() *chat.Controller

type Session struct {
	Key          string
	Controller   *chat.Controller
	LastActivity time.Time
}

type Options struct {
	Factory Factory

	// MaxIdle prunes sessions whose last activity is older than this.
	// Zero disables pruning.
	MaxIdle time.Duration
}

// Store keeps one chat session per key (a Telegram user, a web browser
// session). Each session's conversation handle is exclusively owned by its
// controller.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	maxIdle  time.Duration
}

func NewStore(opts Options) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		factory:  opts.Factory,
		maxIdle:  opts.MaxIdle,
	}
}

// Get returns the session's controller, creating the session on first use.
func (s *Store) Get(key string) *chat.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{
			Key:        key,
			Controller: s.factory(),
		}
		s.sessions[key] = sess
	}
	sess.LastActivity = time.Now()
	return sess.Controller
}

// Clear drops the session so the next Get starts a fresh conversation.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

func (s *Store) pruneLocked() {
	if s.maxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.maxIdle)
	for key, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, key)
		}
	}
}
