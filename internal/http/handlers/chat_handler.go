// Chat HTTP handlers.
//
// This file exposes REST endpoints for the learning assistant:
//   - POST   /chat/messages  (send a prompt, receive displayable text)
//   - GET    /chat/messages  (retained conversation window)
//   - DELETE /chat/messages  (clear history)
//
// The send endpoint always answers 200 with renderable text: completion
// failures surface as fixed fallback sentences, never as error envelopes,
// so a chat widget can print the response unconditionally.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Joshua-Garn/real-education-backend/internal/chat"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
)

// ChatProvider hands out the per-session conversation. Implementations own
// conversation lifecycle (creation on demand, idle eviction).
type ChatProvider interface {
	Get(sessionID string) *chat.Conversation
	Drop(sessionID string)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, chat, courses, and
// profiles. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	accounts AccountService
	chats    ChatProvider

	cookieMaxAge int
	cookieSecure bool
}

// New constructs a Handlers instance bound to the given services.
// cookieMaxAge is the session cookie lifetime in seconds; cookieSecure marks
// the cookie HTTPS-only.
func New(accounts AccountService, chats ChatProvider, cookieMaxAge int, cookieSecure bool) *Handlers {
	return &Handlers{
		accounts:     accounts,
		chats:        chats,
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
	}
}

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a chat prompt.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse carries the assistant's displayable reply.
type SendMessageResponse struct {
	Reply string `json:"reply"`
}

// ChatHistoryResponse is the retained window plus a derived display title.
type ChatHistoryResponse struct {
	Title    string      `json:"title,omitempty"`
	Messages []chat.Turn `json:"messages"`
}

//
// Handlers
//

// SendMessage forwards a prompt to the caller's conversation and returns the
// reply. The response is always 200 with text safe to render; failures are
// logged and counted but expressed as the fixed fallback sentences.
func (h *Handlers) SendMessage(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	conv := h.chats.Get(sid)
	reply, err := conv.SendMessage(c.Request.Context(), msg)
	if err != nil {
		cause := "unavailable"
		if errors.Is(err, chat.ErrNotConfigured) {
			cause = "not_configured"
		}
		middleware.CountChatFallback(cause)
		middleware.LoggerFrom(c).Warn().
			Err(err).
			Str("cause", cause).
			Msg("chat completion fell back")
	}

	ok(c, http.StatusOK, SendMessageResponse{Reply: reply})
}

// ChatHistory returns the retained conversation window, oldest first.
func (h *Handlers) ChatHistory(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	conv := h.chats.Get(sid)
	msgs := conv.History()
	if msgs == nil {
		msgs = []chat.Turn{}
	}
	ok(c, http.StatusOK, ChatHistoryResponse{Title: conv.Title(), Messages: msgs})
}

// ClearChat discards the caller's conversation history. Idempotent.
func (h *Handlers) ClearChat(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	h.chats.Get(sid).Clear()
	noContent(c)
}
