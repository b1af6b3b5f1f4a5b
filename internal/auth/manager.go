// Package auth – Manager
//
// The Manager owns the account lifecycle: signup, login, logout, password
// reset, progress updates, and lenient profile reads. It wraps the identity
// tables (bcrypt-verified credentials) and the profile documents, keeps a
// cached profile shadow per session, and broadcasts session changes through
// the Store's subscription interface.
//
// Failure contract: account operations fail with *AuthError carrying a
// pre-translated user-safe sentence; profile reads never fail outward;
// progress updates require an authenticated session and leave the cache
// untouched when the store write fails.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
	"github.com/Joshua-Garn/real-education-backend/internal/repo"
	"github.com/Joshua-Garn/real-education-backend/internal/validation"
)

// bcryptCost is the cost factor for password hashing.
const bcryptCost = 12

// resetTokenTTL bounds how long a password-reset token stays valid.
const resetTokenTTL = time.Hour

// Manager coordinates account operations, session state, and notifications.
// One instance per running application; safe for concurrent use.
type Manager struct {
	DB       *gorm.DB
	Sessions *Store
	Tokens   *TokenIssuer
	Mailer   Mailer

	// attempts throttles failed-login pressure per email.
	attempts *attemptLimiter
}

// NewManager wires a Manager over the given database handle, session store,
// and token issuer. A nil mailer falls back to LogMailer.
func NewManager(db *gorm.DB, sessions *Store, tokens *TokenIssuer, mailer Mailer) *Manager {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Manager{
		DB:       db,
		Sessions: sessions,
		Tokens:   tokens,
		Mailer:   mailer,
		attempts: newAttemptLimiter(rate.Every(6*time.Second), 5),
	}
}

// Signup creates an account, seeds the default profile document, opens a
// session, and returns the principal, the cached profile, and the signed
// session token. Fails with *AuthError on any rejection.
func (m *Manager) Signup(ctx context.Context, email, password, displayName string) (*Principal, *domain.Profile, string, error) {
	tr := otel.Tracer("auth/Manager")
	ctx, span := tr.Start(ctx, "Signup", trace.WithAttributes(attribute.String("auth.email_domain", emailDomain(email))))
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if validation.ValidateEmail(email) != "" {
		return nil, nil, "", newAuthError(CodeInvalidEmail, nil)
	}
	if len(password) < validation.PasswordMinLen {
		return nil, nil, "", newAuthError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, "", newAuthError(CodeUnknown, err)
	}

	user, err := repo.CreateUser(ctx, m.DB, email, string(hash), displayName)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, nil, "", newAuthError(CodeEmailInUse, err)
		}
		return nil, nil, "", newAuthError(CodeNetworkFailed, err)
	}

	profile, err := repo.CreateProfile(ctx, m.DB, user.ID, user.Email, displayName)
	if err != nil {
		return nil, nil, "", newAuthError(CodeNetworkFailed, err)
	}

	principal := Principal{UID: user.ID, Email: user.Email, DisplayName: displayName}
	token, sess, err := m.openSession(principal, profile)
	if err != nil {
		return nil, nil, "", newAuthError(CodeUnknown, err)
	}
	m.Sessions.Notify(Event{Kind: EventSignedIn, SessionID: sess.ID, Principal: principal})
	return &principal, profile, token, nil
}

// Login verifies credentials, refreshes the profile's last-login timestamp,
// opens a session, and returns the principal and session token. Fails with
// *AuthError on bad credentials, throttling, or store failure.
func (m *Manager) Login(ctx context.Context, email, password string) (*Principal, string, error) {
	tr := otel.Tracer("auth/Manager")
	ctx, span := tr.Start(ctx, "Login", trace.WithAttributes(attribute.String("auth.email_domain", emailDomain(email))))
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if !m.attempts.allow(email) {
		return nil, "", newAuthError(CodeTooManyRequests, nil)
	}

	user, err := repo.GetUserByEmail(ctx, m.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", newAuthError(CodeUserNotFound, err)
		}
		return nil, "", newAuthError(CodeNetworkFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", newAuthError(CodeWrongPassword, err)
	}
	m.attempts.reset(email)

	if err := repo.TouchLastLogin(ctx, m.DB, user.ID, time.Now()); err != nil {
		return nil, "", newAuthError(CodeNetworkFailed, err)
	}

	// Best-effort profile load for the session cache; an absent profile is
	// a valid state.
	profile := m.GetUserProfile(ctx, user.ID)

	principal := Principal{UID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
	token, sess, err := m.openSession(principal, profile)
	if err != nil {
		return nil, "", newAuthError(CodeUnknown, err)
	}
	m.Sessions.Notify(Event{Kind: EventSignedIn, SessionID: sess.ID, Principal: principal})
	return &principal, token, nil
}

// Logout ends the session and clears its cached profile. Ending an already
// absent session is a no-op success: the caller's goal state holds.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	_, span := otel.Tracer("auth/Manager").Start(ctx, "Logout")
	defer span.End()

	sess := m.Sessions.Delete(sessionID)
	if sess == nil {
		return nil
	}
	sess.SetProfile(nil)
	m.Sessions.Notify(Event{Kind: EventSignedOut, SessionID: sess.ID, Principal: sess.Principal})
	return nil
}

// ResetPassword issues a reset token for the account and hands it to the
// mailer. No local session state changes. Fails with *AuthError on invalid
// or unknown email and on store/delivery failure.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	ctx, span := otel.Tracer("auth/Manager").Start(ctx, "ResetPassword")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if validation.ValidateEmail(email) != "" {
		return newAuthError(CodeInvalidEmail, nil)
	}

	user, err := repo.GetUserByEmail(ctx, m.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newAuthError(CodeUserNotFound, err)
		}
		return newAuthError(CodeNetworkFailed, err)
	}

	rec, err := repo.CreatePasswordReset(ctx, m.DB, user.ID, resetTokenTTL)
	if err != nil {
		return newAuthError(CodeNetworkFailed, err)
	}
	if err := m.Mailer.SendPasswordReset(ctx, user.Email, rec.Token); err != nil {
		return newAuthError(CodeNetworkFailed, err)
	}
	return nil
}

// ConfirmPasswordReset redeems a mailed reset token and stores the new
// credential. The token is single-use: redemption consumes it even before
// the hash write, so a failed write requires a fresh request rather than
// leaving a live token behind. Fails with *AuthError on a weak password, an
// unknown/expired/used token, or a store failure.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	ctx, span := otel.Tracer("auth/Manager").Start(ctx, "ConfirmPasswordReset")
	defer span.End()

	if len(newPassword) < validation.PasswordMinLen {
		return newAuthError(CodeWeakPassword, nil)
	}

	rec, err := repo.ConsumePasswordReset(ctx, m.DB, token, time.Now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrResetExpired) {
			return newAuthError(CodeResetInvalid, err)
		}
		return newAuthError(CodeNetworkFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return newAuthError(CodeUnknown, err)
	}
	if err := repo.UpdatePasswordHash(ctx, m.DB, rec.UserID, string(hash)); err != nil {
		return newAuthError(CodeNetworkFailed, err)
	}

	// A forgotten password usually means piled-up failed attempts; let the
	// owner back in right away.
	if user, err := repo.GetUserByID(ctx, m.DB, rec.UserID); err == nil {
		m.attempts.reset(user.Email)
	}
	return nil
}

// UpdateDisplayName renames the account and its profile document, then
// refreshes the session's cached principal and profile. Requires an
// authenticated session (ErrNotAuthenticated otherwise). Name validation is
// the caller's concern; this operation only persists.
func (m *Manager) UpdateDisplayName(ctx context.Context, sessionID, name string) (*Principal, *domain.Profile, error) {
	ctx, span := otel.Tracer("auth/Manager").Start(ctx, "UpdateDisplayName")
	defer span.End()

	sess := m.Sessions.Get(sessionID)
	if sess == nil {
		return nil, nil, ErrNotAuthenticated
	}
	uid := sess.Principal.UID

	if err := repo.UpdateDisplayName(ctx, m.DB, uid, name); err != nil {
		return nil, nil, newAuthError(CodeNetworkFailed, err)
	}
	// The profile document mirrors the name; a missing document stays a
	// valid state, same as GetUserProfile.
	if err := repo.UpdateProfileDisplayName(ctx, m.DB, uid, name); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, nil, newAuthError(CodeNetworkFailed, err)
	}

	sess.SetDisplayName(name)
	profile := m.GetUserProfile(ctx, uid)
	sess.SetProfile(profile)

	principal := sess.Principal
	return &principal, profile, nil
}

// UpdateCourseProgress merges one courseID → progress entry into the
// profile document, store first, then the session's cache. Requires an
// authenticated session (ErrNotAuthenticated otherwise). If the store write
// fails the cache is left unmodified and ErrProgressUpdateFailed is
// returned.
func (m *Manager) UpdateCourseProgress(ctx context.Context, sessionID, courseID string, progress float64) (*domain.Profile, error) {
	ctx, span := otel.Tracer("auth/Manager").Start(ctx, "UpdateCourseProgress",
		trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	sess := m.Sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	updated, err := repo.MergeProgress(ctx, m.DB, sess.Principal.UID, courseID, progress)
	if err != nil {
		log.Warn().Err(err).Str("uid", sess.Principal.UID).Str("course_id", courseID).Msg("progress merge failed")
		return nil, ErrProgressUpdateFailed
	}

	sess.SetProfile(updated)
	return updated, nil
}

// CompleteCourse records a course as finished (progress 100 plus membership
// in the completions set), store first, then the session cache. Same
// contract as UpdateCourseProgress.
func (m *Manager) CompleteCourse(ctx context.Context, sessionID, courseID string) (*domain.Profile, error) {
	ctx, span := otel.Tracer("auth/Manager").Start(ctx, "CompleteCourse",
		trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	sess := m.Sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	updated, err := repo.MarkCourseCompleted(ctx, m.DB, sess.Principal.UID, courseID)
	if err != nil {
		log.Warn().Err(err).Str("uid", sess.Principal.UID).Str("course_id", courseID).Msg("course completion failed")
		return nil, ErrProgressUpdateFailed
	}

	sess.SetProfile(updated)
	return updated, nil
}

// GetUserProfile is a best-effort read of a profile document. It returns
// nil, never an error, when the document is missing or the read fails;
// callers treat an absent profile as a valid state. Failures are logged.
func (m *Manager) GetUserProfile(ctx context.Context, uid string) *domain.Profile {
	p, err := repo.GetProfile(ctx, m.DB, uid)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("uid", uid).Msg("profile read failed")
		}
		return nil
	}
	return p
}

// Resolve maps a presented token to its live session. A valid token whose
// session is not held in memory is restored from the store (the re-hydrated
// counterpart of a backend-pushed session-restore notification) and an
// EventRestored is broadcast. Returns nil for invalid tokens or vanished
// accounts.
func (m *Manager) Resolve(ctx context.Context, token string) *Session {
	sid, uid, err := m.Tokens.Verify(token)
	if err != nil {
		return nil
	}
	if sess := m.Sessions.Get(sid); sess != nil {
		return sess
	}

	user, err := repo.GetUserByID(ctx, m.DB, uid)
	if err != nil {
		return nil
	}
	principal := Principal{UID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
	sess := &Session{ID: sid, Principal: principal, CreatedAt: time.Now()}
	sess.SetProfile(m.GetUserProfile(ctx, uid))
	m.Sessions.Put(sess)
	m.Sessions.Notify(Event{Kind: EventRestored, SessionID: sid, Principal: principal})
	return sess
}

// Close releases the session store's janitor.
func (m *Manager) Close() { m.Sessions.Close() }

// openSession creates a session for principal, caches profile, and signs
// its token.
func (m *Manager) openSession(principal Principal, profile *domain.Profile) (string, *Session, error) {
	sess := &Session{ID: uuid.NewString(), Principal: principal, CreatedAt: time.Now()}
	sess.SetProfile(profile)
	m.Sessions.Put(sess)

	token, err := m.Tokens.Issue(sess.ID, principal.UID)
	if err != nil {
		m.Sessions.Delete(sess.ID)
		return "", nil, err
	}
	return token, sess, nil
}

// emailDomain reduces an email to its domain part for span attributes, so
// traces never carry the full address.
func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 && i+1 < len(email) {
		return email[i+1:]
	}
	return ""
}

// attemptLimiter throttles login attempts per email with token buckets.
// Process-local, like the HTTP-edge limiter; a horizontally scaled
// deployment would want a shared counter instead.
type attemptLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newAttemptLimiter(limit rate.Limit, burst int) *attemptLimiter {
	return &attemptLimiter{limit: limit, burst: burst, buckets: map[string]*rate.Limiter{}}
}

// allow reports whether another attempt for email may proceed.
func (a *attemptLimiter) allow(email string) bool {
	a.mu.Lock()
	l, ok := a.buckets[email]
	if !ok {
		l = rate.NewLimiter(a.limit, a.burst)
		a.buckets[email] = l
	}
	a.mu.Unlock()
	return l.Allow()
}

// reset clears the bucket after a successful login.
func (a *attemptLimiter) reset(email string) {
	a.mu.Lock()
	delete(a.buckets, email)
	a.mu.Unlock()
}
