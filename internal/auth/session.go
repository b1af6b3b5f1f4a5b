// Package auth – session state and change notifications
//
// A Session is the server-side record of one authenticated browser: the
// principal plus a cached shadow of the profile document. The Store owns all
// sessions, expires idle ones from a janitor goroutine, and broadcasts
// session-change events to subscribers. Subscriptions return an explicit
// unsubscribe func; holders release them on teardown.
package auth

import (
	"sync"
	"time"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
)

// Principal is the authenticated identity as reported by the account layer.
// Read-only to consumers.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// EventKind classifies a session-change notification.
type EventKind string

const (
	// EventSignedIn fires after signup or login creates a session.
	EventSignedIn EventKind = "signed-in"
	// EventSignedOut fires when a session ends (logout or expiry).
	EventSignedOut EventKind = "signed-out"
	// EventRestored fires when a valid token re-materializes a session that
	// was not held in memory (process restart, cross-instance hop).
	EventRestored EventKind = "restored"
)

// Event is one session-change notification.
type Event struct {
	Kind      EventKind
	SessionID string
	Principal Principal
}

// Session pairs a principal with its cached profile shadow. The profile
// copy may be briefly stale right after a write; the authoritative document
// lives in the store. Safe for concurrent use.
type Session struct {
	ID        string
	Principal Principal
	CreatedAt time.Time

	mu       sync.RWMutex
	profile  *domain.Profile
	lastSeen time.Time
}

// Profile returns the cached profile document, or nil when none is cached.
func (s *Session) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile replaces the cached profile shadow.
func (s *Session) SetProfile(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// SetDisplayName updates the cached principal after an account rename.
func (s *Session) SetDisplayName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Principal.DisplayName = name
}

// touch refreshes the idle timer.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// Store holds all live sessions and the subscriber list. Safe for
// concurrent use; one instance per running application.
type Store struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore builds a session store whose sessions expire after ttl of
// inactivity (zero disables expiry) and starts the janitor.
func NewStore(ttl time.Duration) *Store {
	st := &Store{
		ttl:      ttl,
		sessions: map[string]*Session{},
		subs:     map[int]func(Event){},
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go st.janitor()
	}
	return st
}

// Put inserts (or replaces) a session.
func (st *Store) Put(s *Session) {
	now := time.Now()
	s.touch(now)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

// Get returns the session for id and refreshes its idle timer, or nil when
// the session is unknown or expired. A session past its idle TTL is evicted
// here immediately rather than left for the janitor sweep, so expiry is
// exact and a stale lookup never refreshes a dead timer.
func (st *Store) Get(id string) *Session {
	now := time.Now()
	st.mu.RLock()
	s := st.sessions[id]
	st.mu.RUnlock()
	if s == nil {
		return nil
	}
	if st.ttl > 0 && now.Sub(s.seen()) > st.ttl {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		st.Notify(Event{Kind: EventSignedOut, SessionID: s.ID, Principal: s.Principal})
		return nil
	}
	s.touch(now)
	return s
}

// Delete removes a session. Returns the removed session, or nil.
func (st *Store) Delete(id string) *Session {
	st.mu.Lock()
	s := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Subscribe registers fn for session-change events and returns the matching
// unsubscribe func. Events are delivered synchronously in notification
// order; fn must not block.
func (st *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	st.subMu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.subMu.Lock()
			delete(st.subs, id)
			st.subMu.Unlock()
		})
	}
}

// Notify broadcasts ev to all current subscribers.
func (st *Store) Notify(ev Event) {
	st.subMu.Lock()
	fns := make([]func(Event), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Close stops the janitor. Idempotent.
func (st *Store) Close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

// janitor periodically evicts idle sessions, emitting a signed-out event
// for each so dependents (chat registry) release their state too.
func (st *Store) janitor() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-st.stop:
			return
		case now := <-tick.C:
			var expired []*Session
			st.mu.Lock()
			for id, s := range st.sessions {
				if now.Sub(s.seen()) > st.ttl {
					delete(st.sessions, id)
					expired = append(expired, s)
				}
			}
			st.mu.Unlock()
			for _, s := range expired {
				st.Notify(Event{Kind: EventSignedOut, SessionID: s.ID, Principal: s.Principal})
			}
		}
	}
}
