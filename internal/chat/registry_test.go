package chat

import (
	"context"
	"testing"
	"time"
)

func TestRegistryIsolatesSessions(t *testing.T) {
	r := NewRegistry(&fakeCompleter{reply: "ok"}, 0)

	a := r.Get("session-a")
	b := r.Get("session-b")
	if a == b {
		t.Fatal("distinct sessions share a conversation")
	}
	if r.Get("session-a") != a {
		t.Fatal("same session got a new conversation")
	}

	if _, err := a.SendMessage(context.Background(), "only for a"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if b.Len() != 0 {
		t.Fatal("history leaked across sessions")
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
}

func TestRegistryDrop(t *testing.T) {
	r := NewRegistry(&fakeCompleter{reply: "ok"}, 0)

	a := r.Get("session-a")
	if _, err := a.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	r.Drop("session-a")
	r.Drop("session-a") // unknown id is a no-op
	if r.Len() != 0 {
		t.Fatalf("len after drop = %d", r.Len())
	}
	if fresh := r.Get("session-a"); fresh.Len() != 0 {
		t.Fatal("dropped history survived")
	}
}

func TestRegistryEvictsIdleConversations(t *testing.T) {
	r := NewRegistry(&fakeCompleter{reply: "ok"}, 10*time.Millisecond)
	r.gcPeriod = 0 // collect on every lookup

	r.Get("stale")
	time.Sleep(20 * time.Millisecond)
	r.Get("fresh")

	r.mu.Lock()
	_, staleAlive := r.convs["stale"]
	_, freshAlive := r.convs["fresh"]
	r.mu.Unlock()
	if staleAlive {
		t.Fatal("idle conversation not evicted")
	}
	if !freshAlive {
		t.Fatal("fresh conversation evicted")
	}
}
