package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteNotConfigured(t *testing.T) {
	c := NewOpenAIClient("", "", "", nil)
	if c.Configured() {
		t.Fatal("keyless client reports configured")
	}
	_, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestCompleteSendsSystemPromptAndParams(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"escrow is..."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL, "", nil)
	reply, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "what is escrow?"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "escrow is..." {
		t.Fatalf("reply = %q", reply)
	}

	if got.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", got.Model)
	}
	if got.MaxTokens != 500 || got.Temperature != 0.7 || got.PresencePenalty != 0.1 || got.FrequencyPenalty != 0.1 {
		t.Fatalf("sampling params = %+v", got)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(got.Messages))
	}
	if got.Messages[0].Role != RoleSystem || !strings.Contains(got.Messages[0].Content, "real estate education assistant") {
		t.Fatalf("first message = %+v", got.Messages[0])
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL, "", nil)
	_, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "rate limit reached") {
		t.Fatalf("err = %v, want wrapped API message", err)
	}
}

func TestCompleteRejectsEmptyChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL, "", nil)
	if _, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
