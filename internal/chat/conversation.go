// Package chat – Conversation
//
// A Conversation owns a bounded in-memory turn history and turns user
// questions into displayable assistant text. SendMessage never fails
// outward: every failure mode maps to a canned fallback string, with a
// distinct text for the missing-credential precondition.
//
// Window semantics: the user turn is appended first, then the history is
// trimmed to the most recent maxTurns entries, and only then is the remote
// call issued. Trimming after the append means the newest question is never
// evicted, even when that costs an older user/assistant pair.
package chat

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback texts returned by SendMessage instead of errors.
const (
	// FallbackNotConfigured is returned when no API credential is present.
	FallbackNotConfigured = "I'm a real estate education assistant! I can help you learn about property valuation, market analysis, real estate law, and much more. However, I need to be properly configured with an OpenAI API key to provide detailed responses."

	// FallbackUnavailable is returned on any other failure.
	FallbackUnavailable = "I apologize, but I'm experiencing technical difficulties. Please try again later or contact support if the issue persists."
)

// DefaultMaxTurns is the sliding-window size: the number of most recent
// turns retained and sent with each completion call.
const DefaultMaxTurns = 10

// Conversation is a single user's rolling exchange with the assistant.
// It is safe for concurrent use; overlapping SendMessage calls are
// serialized, so a second send waits for the first to finish.
type Conversation struct {
	mu        sync.Mutex
	completer Completer
	turns     []Turn
	maxTurns  int
}

// NewConversation builds an empty conversation backed by the given
// completer, retaining at most DefaultMaxTurns turns.
func NewConversation(c Completer) *Conversation {
	return &Conversation{completer: c, maxTurns: DefaultMaxTurns}
}

// SendMessage appends a user turn, trims the window, asks the remote model,
// and returns displayable text. On success the reply is recorded as an
// assistant turn; on any failure no assistant turn is added and a fallback
// string is returned instead. The error cause is reported through errOut so
// callers can log it; the returned text is always safe to render.
func (cv *Conversation) SendMessage(ctx context.Context, text string) (reply string, errOut error) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	cv.turns = append(cv.turns, Turn{Role: RoleUser, Content: text})
	cv.trimLocked()

	// Copy the window so the completer never sees later mutation.
	window := make([]Turn, len(cv.turns))
	copy(window, cv.turns)

	out, err := cv.completer.Complete(ctx, window)
	if err != nil {
		if err == ErrNotConfigured {
			return FallbackNotConfigured, err
		}
		return FallbackUnavailable, err
	}

	cv.turns = append(cv.turns, Turn{Role: RoleAssistant, Content: out})
	cv.trimLocked()
	return out, nil
}

// Clear discards all history unconditionally. Idempotent.
func (cv *Conversation) Clear() {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.turns = nil
}

// History returns a copy of the retained turns, oldest first.
func (cv *Conversation) History() []Turn {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make([]Turn, len(cv.turns))
	copy(out, cv.turns)
	return out
}

// Restore replaces the history with a previously saved window, applying the
// same trim rule as live appends.
func (cv *Conversation) Restore(turns []Turn) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.turns = make([]Turn, len(turns))
	copy(cv.turns, turns)
	cv.trimLocked()
}

// Len returns the number of retained turns.
func (cv *Conversation) Len() int {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return len(cv.turns)
}

// Title derives a short display title from the first user turn, or "" when
// the conversation is empty.
func (cv *Conversation) Title() string {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	for _, t := range cv.turns {
		if t.Role == RoleUser {
			return titleFromPrompt(t.Content)
		}
	}
	return ""
}

// trimLocked keeps only the last maxTurns entries. Caller holds cv.mu.
func (cv *Conversation) trimLocked() {
	if n := len(cv.turns); n > cv.maxTurns {
		cv.turns = cv.turns[n-cv.maxTurns:]
	}
}

// --- Title generation ---

const titleMaxRunes = 60

// titleWordRE extracts Unicode letters with optional trailing digits.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"how": {}, "what": {}, "do": {}, "does": {}, "can": {}, "about": {},
}

// titleFromPrompt derives a concise title-cased phrase from a prompt.
func titleFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}

	caser := cases.Title(language.English)
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	title := strings.Join(out, " ")
	if utf8.RuneCountInString(title) > titleMaxRunes {
		title = string([]rune(title)[:titleMaxRunes])
	}
	return title
}
