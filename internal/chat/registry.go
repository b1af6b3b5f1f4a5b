// Package chat – Registry
//
// The original front end kept one process-wide assistant instance; that
// collapses every visitor into a single shared history on a server. The
// Registry instead owns one Conversation per session, created on demand and
// dropped on sign-out or expiry, so conversations never collide.
package chat

import (
	"sync"
	"time"
)

// Registry maps session IDs to their Conversation. Safe for concurrent use.
type Registry struct {
	completer Completer

	mu       sync.Mutex
	convs    map[string]*entry
	idleTTL  time.Duration
	lastGC   time.Time
	gcPeriod time.Duration
}

type entry struct {
	conv     *Conversation
	lastSeen time.Time
}

// NewRegistry builds a registry whose conversations share one completer.
// idleTTL bounds how long an untouched conversation is retained; zero
// disables expiry.
func NewRegistry(c Completer, idleTTL time.Duration) *Registry {
	return &Registry{
		completer: c,
		convs:     map[string]*entry{},
		idleTTL:   idleTTL,
		gcPeriod:  time.Minute,
	}
}

// Get returns the conversation for sessionID, creating it on first use.
func (r *Registry) Get(sessionID string) *Conversation {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gcLocked(now)

	e, ok := r.convs[sessionID]
	if !ok {
		e = &entry{conv: NewConversation(r.completer)}
		r.convs[sessionID] = e
	}
	e.lastSeen = now
	return e.conv
}

// Drop removes the conversation for sessionID, discarding its history.
// Used on sign-out; a no-op for unknown sessions.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, sessionID)
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.convs)
}

// gcLocked evicts idle conversations at most once per gcPeriod.
// Caller holds r.mu.
func (r *Registry) gcLocked(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastGC) < r.gcPeriod {
		return
	}
	r.lastGC = now
	for id, e := range r.convs {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.convs, id)
		}
	}
}
