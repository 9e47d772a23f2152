package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"lumina/backend/internal/domain"
)

// ErrNoSession is returned by Lookup for a user whose scheduler was never
// opened or has been ended.
var ErrNoSession = fmt.Errorf("%w: scheduler not open", domain.ErrInvalidState)

// Sessions keeps one Controller per user and runs each user's actions one
// at a time.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	newSink  func(userID string) BookingSink
	cfg      Config
	log      *slog.Logger
}

type session struct {
	mu   sync.Mutex
	ctrl *Controller
}

func NewSessions(newSink func(userID string) BookingSink, cfg Config) *Sessions {
	if newSink == nil {
		panic("scheduler: sink factory required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Sessions{
		sessions: make(map[string]*session),
		newSink:  newSink,
		cfg:      cfg,
		log:      log.With(slog.String("component", "scheduler.sessions")),
	}
}

// Do runs fn against userID's controller, creating it on first use. Only
// the open action should create sessions; everything else goes through
// Lookup.
func (s *Sessions) Do(userID string, fn func(c *Controller) error) error {
	sess := s.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.ctrl)
}

// Lookup runs fn against an existing controller and returns ErrNoSession
// when userID has none.
func (s *Sessions) Lookup(userID string, fn func(c *Controller) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if s.ended(userID, sess) {
		return ErrNoSession
	}
	return fn(sess.ctrl)
}

// ended reports whether sess was dropped by End while the caller waited.
func (s *Sessions) ended(userID string, sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID] != sess
}

// End closes userID's scheduler and forgets its state.
func (s *Sessions) End(userID string) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.ctrl.Close()
	sess.mu.Unlock()
	s.log.Debug("session ended", slog.String("user_id", userID))
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) get(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	cfg := s.cfg
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	cfg.Log = cfg.Log.With(slog.String("user_id", userID))
	sess := &session{ctrl: NewController(s.newSink(userID), cfg)}
	s.sessions[userID] = sess
	return sess
}
