// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's session from the request and places the
// session identity into the Gin context for downstream handlers and the
// rate limiter (which keys buckets by "userID" when present).
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "re_session"

// Context keys set by ResolveSession.
const (
	ctxKeySession   = "session"
	ctxKeyUserID    = "userID"
	ctxKeySessionID = "sessionID"
)

// SessionResolver turns a bearer token into a live session identity.
//
// Implementations return ok=false when the token is missing, malformed,
// expired, or refers to a session that no longer exists.
type SessionResolver interface {
	ResolveToken(ctx context.Context, token string) (sessionID, userID string, ok bool)
}

// TokenFromRequest extracts the session token from the request, preferring
// the Authorization bearer header over the session cookie. It returns the
// empty string when neither is present.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(ck)
	}
	return ""
}

// ResolveSession returns a middleware that resolves the session token (if any)
// and stores the session and user identifiers in the Gin context. Requests
// without a valid session proceed anonymously; enforcement is left to
// RequireSession on the routes that need it.
func ResolveSession(r SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := TokenFromRequest(c); tok != "" {
			if sid, uid, ok := r.ResolveToken(c.Request.Context(), tok); ok {
				c.Set(ctxKeySessionID, sid)
				c.Set(ctxKeyUserID, uid)
			}
		}
		c.Next()
	}
}

// RequireSession aborts with 401 when ResolveSession did not establish a
// session. It must be installed after ResolveSession.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		c.Next()
	}
}

// SessionID returns the resolved session id for this request, if any.
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeySessionID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// UserID returns the resolved user id for this request, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
