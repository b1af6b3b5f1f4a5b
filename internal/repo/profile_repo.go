// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// document.
//
// The progress and completion columns are JSON-serialized maps/sets, so
// partial updates are expressed as read-merge-write inside a transaction:
// MergeProgress and MarkCourseCompleted update one nested entry without
// touching sibling entries, which is the explicit replacement for the
// dotted-path update syntax of a hosted document store.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
)

// CreateProfile inserts the default profile document for a freshly created
// account: access granted, empty completions, empty progress, both
// timestamps set to now.
func CreateProfile(ctx context.Context, db *gorm.DB, uid, email, displayName string) (*domain.Profile, error) {
	now := time.Now().UTC()
	p := &domain.Profile{
		UID:              uid,
		Email:            email,
		DisplayName:      displayName,
		HasAccess:        true,
		CreatedAt:        now,
		LastLoginAt:      now,
		CoursesCompleted: domain.StringSet{},
		CurrentProgress:  domain.ProgressMap{},
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile fetches a profile document by owner UID. Returns ErrNotFound
// when the document does not exist.
func GetProfile(ctx context.Context, db *gorm.DB, uid string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TouchLastLogin refreshes the last-login timestamp. Returns ErrNotFound
// when no row was affected.
func TouchLastLogin(ctx context.Context, db *gorm.DB, uid string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("uid = ?", uid).
		Update("last_login_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfileDisplayName renames the profile document. Returns ErrNotFound
// when no row was affected.
func UpdateProfileDisplayName(ctx context.Context, db *gorm.DB, uid, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("uid = ?", uid).
		Update("display_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MergeProgress sets progress for one course inside the profile's progress
// map, preserving all other entries. The read and write run in a single
// transaction so concurrent merges cannot drop each other's keys.
// Returns the updated document.
func MergeProgress(ctx context.Context, db *gorm.DB, uid, courseID string, progress float64) (*domain.Profile, error) {
	var out *domain.Profile
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Profile
		if err := tx.Where("uid = ?", uid).First(&p).Error; err != nil {
			return err
		}
		if p.CurrentProgress == nil {
			p.CurrentProgress = domain.ProgressMap{}
		}
		p.CurrentProgress[courseID] = progress
		if err := tx.Model(&domain.Profile{}).
			Where("uid = ?", uid).
			Update("current_progress", p.CurrentProgress).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkCourseCompleted adds a course to the completions set (idempotent) and
// pins its progress entry at 100. Runs in a single transaction.
func MarkCourseCompleted(ctx context.Context, db *gorm.DB, uid, courseID string) (*domain.Profile, error) {
	var out *domain.Profile
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Profile
		if err := tx.Where("uid = ?", uid).First(&p).Error; err != nil {
			return err
		}
		if !p.CoursesCompleted.Contains(courseID) {
			p.CoursesCompleted = append(p.CoursesCompleted, courseID)
		}
		if p.CurrentProgress == nil {
			p.CurrentProgress = domain.ProgressMap{}
		}
		p.CurrentProgress[courseID] = 100
		if err := tx.Model(&domain.Profile{}).
			Where("uid = ?", uid).
			Updates(map[string]any{
				"courses_completed": p.CoursesCompleted,
				"current_progress":  p.CurrentProgress,
			}).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
