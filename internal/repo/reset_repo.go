// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for password-reset
// tokens.
package repo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
)

// ErrResetExpired indicates a reset token exists but is expired or already
// consumed.
var ErrResetExpired = errors.New("reset token expired")

// CreatePasswordReset issues a new single-use reset token for userID valid
// for ttl. The token is a 32-byte random hex string.
func CreatePasswordReset(ctx context.Context, db *gorm.DB, userID string, ttl time.Duration) (*domain.PasswordReset, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &domain.PasswordReset{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     hex.EncodeToString(buf),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ConsumePasswordReset marks a token consumed and returns its record.
// Returns ErrNotFound for an unknown token and ErrResetExpired for a token
// past its expiry or already used.
func ConsumePasswordReset(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.PasswordReset, error) {
	var rec domain.PasswordReset
	err := db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.Consumed || now.UTC().After(rec.ExpiresAt) {
		return nil, ErrResetExpired
	}
	res := db.WithContext(ctx).
		Model(&domain.PasswordReset{}).
		Where("id = ? AND consumed = ?", rec.ID, false).
		Update("consumed", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Raced with another consumer.
		return nil, ErrResetExpired
	}
	rec.Consumed = true
	return &rec, nil
}
