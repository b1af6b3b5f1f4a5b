// Package domain defines the persistence models for user accounts, profile
// documents, and password resets. These types are mapped with GORM and form
// the core data layer of the learning-portal backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is an identity record: the account against which credentials are
// verified. Application data lives in the associated Profile; this row only
// carries what the identity layer needs.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier, stored lowercase.
//   - PasswordHash: bcrypt hash of the password; never serialized.
//   - DisplayName: human-readable name shown in the portal.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type User struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Email        string         `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `json:"-"            gorm:"type:varchar(128);not null"`
	DisplayName  string         `json:"display_name" gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Profile is the per-user application document: access flag, course
// completions, and per-course progress. Its UID always equals the owning
// User's ID and never changes after creation.
//
// CoursesCompleted and CurrentProgress are stored as JSON text columns (see
// StringSet and ProgressMap) so a single nested entry can be merged without
// overwriting siblings.
type Profile struct {
	UID              string         `json:"uid"               gorm:"type:char(36);primaryKey"`
	Email            string         `json:"email"             gorm:"type:varchar(255);not null"`
	DisplayName      string         `json:"display_name"      gorm:"type:varchar(100);not null"`
	HasAccess        bool           `json:"has_access"        gorm:"not null;default:true"`
	CreatedAt        time.Time      `json:"created_at"`
	LastLoginAt      time.Time      `json:"last_login_at"`
	CoursesCompleted StringSet      `json:"courses_completed" gorm:"type:text"`
	CurrentProgress  ProgressMap    `json:"current_progress"  gorm:"type:text"`
	UpdatedAt        time.Time      `json:"-"`
	DeletedAt        gorm.DeletedAt `json:"-"                 gorm:"index"`

	// User is the owning identity. Profiles are cascade-deleted if the
	// account is removed.
	User User `json:"-" gorm:"foreignKey:UID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// PasswordReset is a single-use reset token issued by the reset-password
// flow. Rows expire rather than being deleted so an audit trail remains.
type PasswordReset struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"  gorm:"type:char(36);not null;index"`
	Token     string    `json:"-"        gorm:"type:char(64);not null;uniqueIndex:ux_resets_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PasswordReset.
func (PasswordReset) TableName() string { return "password_resets" }
