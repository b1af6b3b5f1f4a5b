// Package auth – reset-email delivery seam
package auth

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers password-reset tokens to account holders. Real delivery
// is deployment-specific; the portal ships with LogMailer.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the reset token to the structured log instead of sending
// mail. Suitable for development and for deployments where an external
// relay picks resets up from the log pipeline.
type LogMailer struct{}

// SendPasswordReset logs the reset token for email. Never fails.
func (LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	log.Info().
		Str("email", email).
		Str("reset_token", token).
		Msg("password reset issued")
	return nil
}
