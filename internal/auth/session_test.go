package auth

import (
	"testing"
	"time"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := NewStore(0) // no janitor in tests
	t.Cleanup(st.Close)
	return st
}

func TestStorePutGetDelete(t *testing.T) {
	st := newTestStore(t)

	sess := &Session{ID: "s1", Principal: Principal{UID: "u1", Email: "u1@example.com"}, CreatedAt: time.Now()}
	st.Put(sess)

	if got := st.Get("s1"); got != sess {
		t.Fatalf("Get = %v", got)
	}
	if got := st.Get("missing"); got != nil {
		t.Fatalf("Get(missing) = %v", got)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d", st.Len())
	}

	if removed := st.Delete("s1"); removed != sess {
		t.Fatalf("Delete = %v", removed)
	}
	if removed := st.Delete("s1"); removed != nil {
		t.Fatal("second delete returned a session")
	}
	if st.Len() != 0 {
		t.Fatalf("Len after delete = %d", st.Len())
	}
}

func TestSessionProfileCache(t *testing.T) {
	sess := &Session{ID: "s1"}
	if sess.Profile() != nil {
		t.Fatal("fresh session has a profile")
	}

	p := &domain.Profile{UID: "u1", Email: "u1@example.com"}
	sess.SetProfile(p)
	if sess.Profile() != p {
		t.Fatal("profile not cached")
	}

	sess.SetProfile(nil)
	if sess.Profile() != nil {
		t.Fatal("profile not cleared")
	}
}

func TestSubscribeNotifyUnsubscribe(t *testing.T) {
	st := newTestStore(t)

	var seen []Event
	unsub := st.Subscribe(func(ev Event) { seen = append(seen, ev) })

	ev := Event{Kind: EventSignedIn, SessionID: "s1", Principal: Principal{UID: "u1"}}
	st.Notify(ev)
	if len(seen) != 1 || seen[0] != ev {
		t.Fatalf("seen = %+v", seen)
	}

	unsub()
	unsub() // idempotent
	st.Notify(Event{Kind: EventSignedOut, SessionID: "s1"})
	if len(seen) != 1 {
		t.Fatalf("event delivered after unsubscribe: %+v", seen)
	}
}

func TestNotifyReachesAllSubscribers(t *testing.T) {
	st := newTestStore(t)

	var a, b int
	st.Subscribe(func(Event) { a++ })
	st.Subscribe(func(Event) { b++ })

	st.Notify(Event{Kind: EventRestored, SessionID: "s1"})
	if a != 1 || b != 1 {
		t.Fatalf("deliveries = (%d, %d)", a, b)
	}
}

func TestStoreGetEvictsIdleExpired(t *testing.T) {
	st := NewStore(10 * time.Millisecond)
	t.Cleanup(st.Close)

	var gone []string
	unsub := st.Subscribe(func(ev Event) {
		if ev.Kind == EventSignedOut {
			gone = append(gone, ev.SessionID)
		}
	})
	defer unsub()

	st.Put(&Session{ID: "s1", Principal: Principal{UID: "u1"}, CreatedAt: time.Now()})
	if st.Get("s1") == nil {
		t.Fatal("fresh session not resolvable")
	}

	time.Sleep(30 * time.Millisecond)

	// Past the idle TTL the lookup itself evicts; it must not hand the
	// session back or refresh its timer.
	if got := st.Get("s1"); got != nil {
		t.Fatalf("expired session still resolvable: %v", got)
	}
	if st.Len() != 0 {
		t.Fatalf("Len after expiry = %d", st.Len())
	}
	if len(gone) != 1 || gone[0] != "s1" {
		t.Fatalf("signed-out events = %v", gone)
	}
}
