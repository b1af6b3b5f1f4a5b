// Package auth – error taxonomy
//
// Account operations fail with *AuthError: a closed enumeration of backend
// error kinds paired with a fixed, user-safe sentence. Handlers surface the
// message verbatim; the code is for programmatic branching. The translation
// is total: any unlisted code maps to a generic sentence, never to an empty
// string.
package auth

import "errors"

// Code identifies one kind of account-operation failure.
type Code string

// Known failure codes. The set is closed; switch statements over Code should
// still carry a default arm because Message is the only total mapping.
const (
	CodeEmailInUse      Code = "email-already-in-use"
	CodeWeakPassword    Code = "weak-password"
	CodeInvalidEmail    Code = "invalid-email"
	CodeUserNotFound    Code = "user-not-found"
	CodeWrongPassword   Code = "wrong-password"
	CodeTooManyRequests Code = "too-many-requests"
	CodeNetworkFailed   Code = "network-request-failed"
	CodeBadCredential   Code = "invalid-credential"
	CodeResetInvalid    Code = "invalid-reset-token"
	CodeUnknown         Code = "unknown"
)

// messages is the fixed code → sentence table.
var messages = map[Code]string{
	CodeEmailInUse:      "This email is already registered. Please use a different email or try logging in.",
	CodeWeakPassword:    "Password should be at least 6 characters long.",
	CodeInvalidEmail:    "Please enter a valid email address.",
	CodeUserNotFound:    "No account found with this email. Please check your email or sign up.",
	CodeWrongPassword:   "Incorrect password. Please try again.",
	CodeTooManyRequests: "Too many failed login attempts. Please try again later.",
	CodeNetworkFailed:   "Network error. Please check your connection and try again.",
	CodeBadCredential:   "Invalid email or password. Please check your credentials.",
	CodeResetInvalid:    "This password reset link is invalid or has expired. Please request a new one.",
}

// genericMessage is the default arm of the translation table.
const genericMessage = "An unexpected error occurred. Please try again."

// Message translates a code into its user-facing sentence. Total: unknown
// codes yield the generic sentence.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return genericMessage
}

// AuthError is a translated account-operation failure. Its message is
// pre-translated user-safe text and may be displayed verbatim.
type AuthError struct {
	Code Code
	// cause is the underlying error, kept for logs only.
	cause error
}

// Error returns the user-facing sentence for the code.
func (e *AuthError) Error() string { return Message(e.Code) }

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AuthError) Unwrap() error { return e.cause }

// newAuthError wraps cause under the given code.
func newAuthError(code Code, cause error) *AuthError {
	return &AuthError{Code: code, cause: cause}
}

// ErrNotAuthenticated is the precondition failure for operations that
// require a signed-in principal. It is not an AuthError: nothing was
// attempted against the account backend.
var ErrNotAuthenticated = errors.New("user not authenticated")

// ErrProgressUpdateFailed is the generic failure for a progress write; the
// cached profile is left unmodified when it is returned.
var ErrProgressUpdateFailed = errors.New("failed to update course progress")
