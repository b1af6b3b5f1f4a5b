// Account HTTP handlers.
//
// This file exposes REST endpoints for the account lifecycle:
//   - POST /auth/signup          (create account + session)
//   - POST /auth/login           (open session)
//   - POST /auth/logout          (end session)
//   - POST /auth/reset-password  (issue reset email)
//   - GET  /auth/me              (current principal + profile)
//
// Handlers are transport-thin: they validate input, call the account layer,
// and translate results into HTTP responses. Failed form validation returns
// the full per-field error map so clients can render every message at once;
// account-layer failures carry pre-translated, user-displayable sentences.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/domain"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
	"github.com/Joshua-Garn/real-education-backend/internal/validation"
)

//
// Service contracts (context-aware)
//

// AccountService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Signup creates an account, opens a session, and returns its token.
	Signup(ctx context.Context, email, password, displayName string) (*auth.Principal, *domain.Profile, string, error)
	// Login verifies credentials and opens a session.
	Login(ctx context.Context, email, password string) (*auth.Principal, string, error)
	// Logout ends the session. Absent sessions are a no-op success.
	Logout(ctx context.Context, sessionID string) error
	// ResetPassword issues a reset token and mails it to the account owner.
	ResetPassword(ctx context.Context, email string) error
	// ConfirmPasswordReset redeems a reset token and stores a new password.
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	// UpdateDisplayName renames the account and refreshes the session cache.
	UpdateDisplayName(ctx context.Context, sessionID, name string) (*auth.Principal, *domain.Profile, error)
	// GetUserProfile loads a profile leniently: nil on any failure.
	GetUserProfile(ctx context.Context, uid string) *domain.Profile
	// UpdateCourseProgress merges one course's progress into the profile.
	UpdateCourseProgress(ctx context.Context, sessionID, courseID string, progress float64) (*domain.Profile, error)
	// CompleteCourse marks a course finished and pins its progress to 100.
	CompleteCourse(ctx context.Context, sessionID, courseID string) (*domain.Profile, error)
	// Resolve maps a session token to its live session, or nil.
	Resolve(ctx context.Context, token string) *auth.Session
}

//
// DTOs
//

// SignupRequest is the JSON payload for creating an account. Field names
// match the signup form the validators are written against.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the JSON payload for opening a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordRequest is the JSON payload for requesting a reset email.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ConfirmResetRequest is the JSON payload for redeeming a reset token.
type ConfirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the JSON payload for editing account details.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// SessionResponse is returned by signup, login, and me.
type SessionResponse struct {
	Token   string          `json:"token,omitempty"`
	User    *auth.Principal `json:"user"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

//
// Handlers
//

// Signup validates the signup form, creates the account, and opens a session.
//
// Responses:
//   - 201 with token, principal, and the freshly provisioned profile
//   - 422 with the full per-field validation error map
//   - 4xx/5xx with the translated account-layer sentence
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	form := map[string]string{
		"name":            strings.TrimSpace(req.Name),
		"email":           strings.TrimSpace(req.Email),
		"password":        req.Password,
		"confirmPassword": req.ConfirmPassword,
	}
	if res := validation.ValidateForm(form, validation.SignupRules); !res.IsValid {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, res)
		return
	}

	principal, profile, token, err := h.accounts.Signup(c.Request.Context(), form["email"], req.Password, form["name"])
	if err != nil {
		h.failAuth(c, err)
		return
	}

	h.setSessionCookie(c, token)
	ok(c, http.StatusCreated, SessionResponse{Token: token, User: principal, Profile: profile})
}

// Login validates the login form and opens a session.
//
// Responses:
//   - 200 with token, principal, and the cached profile (when loadable)
//   - 422 with the full per-field validation error map
//   - 4xx/5xx with the translated account-layer sentence
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	form := map[string]string{
		"email":    strings.TrimSpace(req.Email),
		"password": req.Password,
	}
	if res := validation.ValidateForm(form, validation.LoginRules); !res.IsValid {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, res)
		return
	}

	principal, token, err := h.accounts.Login(c.Request.Context(), form["email"], req.Password)
	if err != nil {
		h.failAuth(c, err)
		return
	}

	h.setSessionCookie(c, token)
	ok(c, http.StatusOK, SessionResponse{
		Token:   token,
		User:    principal,
		Profile: h.accounts.GetUserProfile(c.Request.Context(), principal.UID),
	})
}

// Logout ends the caller's session. Requests without a session are a no-op
// success so a stale client can always converge to signed-out.
func (h *Handlers) Logout(c *gin.Context) {
	if sid, okSid := middleware.SessionID(c); okSid {
		if err := h.accounts.Logout(c.Request.Context(), sid); err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, auth.Message(auth.CodeUnknown))
			return
		}
	}
	h.clearSessionCookie(c)
	noContent(c)
}

// ResetPassword issues a password-reset token to the given address.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.failAuth(c, err)
		return
	}
	noContent(c)
}

// ConfirmResetPassword redeems the mailed token and stores a new password.
// The token's owner is implied by the token itself, so no session is needed.
func (h *Handlers) ConfirmResetPassword(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reset token required")
		return
	}

	if err := h.accounts.ConfirmPasswordReset(c.Request.Context(), strings.TrimSpace(req.Token), req.Password); err != nil {
		h.failAuth(c, err)
		return
	}
	noContent(c)
}

// UpdateMe edits the caller's display name. Installed behind RequireSession.
//
// Responses:
//   - 200 with the refreshed principal and profile
//   - 422 with the per-field validation error map
func (h *Handlers) UpdateMe(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if msg := validation.ValidateName(name); msg != "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validation.Result{
			IsValid: false,
			Errors:  map[string]string{"name": msg},
		})
		return
	}

	principal, profile, err := h.accounts.UpdateDisplayName(c.Request.Context(), sid, name)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
			return
		}
		h.failAuth(c, err)
		return
	}
	ok(c, http.StatusOK, SessionResponse{User: principal, Profile: profile})
}

// Me returns the current principal and its cached profile. Installed behind
// RequireSession.
func (h *Handlers) Me(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	p := sess.Principal
	ok(c, http.StatusOK, SessionResponse{User: &p, Profile: sess.Profile()})
}

//
// Helpers
//

// session resolves the live session for this request via the account layer.
func (h *Handlers) session(c *gin.Context) *auth.Session {
	tok := middleware.TokenFromRequest(c)
	if tok == "" {
		return nil
	}
	return h.accounts.Resolve(c.Request.Context(), tok)
}

// failAuth writes an account-layer failure with its translated message and
// the failure code as the machine-readable code.
func (h *Handlers) failAuth(c *gin.Context, err error) {
	var ae *auth.AuthError
	if errors.As(err, &ae) {
		fail(c, statusForCode(ae.Code), string(ae.Code), ae.Error())
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, auth.Message(auth.CodeUnknown))
}

// statusForCode maps account failure codes onto HTTP statuses.
func statusForCode(code auth.Code) int {
	switch code {
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeWeakPassword, auth.CodeInvalidEmail, auth.CodeResetInvalid:
		return http.StatusBadRequest
	case auth.CodeUserNotFound:
		return http.StatusNotFound
	case auth.CodeWrongPassword, auth.CodeBadCredential:
		return http.StatusUnauthorized
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeNetworkFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, h.cookieMaxAge, "/", "", h.cookieSecure, true)
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cookieSecure, true)
}
