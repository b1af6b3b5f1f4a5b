package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateProfileDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "jane@example.com", "hash", "Jane")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	p, err := CreateProfile(ctx, db, u.ID, u.Email, "Jane")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if !p.HasAccess {
		t.Fatal("new profile lacks access")
	}
	if len(p.CoursesCompleted) != 0 || len(p.CurrentProgress) != 0 {
		t.Fatalf("new profile not empty: %+v", p)
	}
	if p.CreatedAt.IsZero() || p.LastLoginAt.IsZero() {
		t.Fatalf("timestamps unset: %+v", p)
	}

	// Empty collections survive a round trip through the JSON columns.
	got, err := GetProfile(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CoursesCompleted == nil || got.CurrentProgress == nil {
		t.Fatalf("collections decoded as nil: %+v", got)
	}

	if _, err := GetProfile(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing profile err = %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, db, "jane@example.com", "hash", "Jane")
	if _, err := CreateProfile(ctx, db, u.ID, u.Email, "Jane"); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	at := time.Now().Add(time.Hour)
	if err := TouchLastLogin(ctx, db, u.ID, at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ := GetProfile(ctx, db, u.ID)
	if got.LastLoginAt.Unix() != at.UTC().Unix() {
		t.Fatalf("last login = %v, want %v", got.LastLoginAt, at.UTC())
	}

	if err := TouchLastLogin(ctx, db, "missing", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing uid err = %v", err)
	}
}

func TestMergeProgressPreservesSiblings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, db, "jane@example.com", "hash", "Jane")
	if _, err := CreateProfile(ctx, db, u.ID, u.Email, "Jane"); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if _, err := MergeProgress(ctx, db, u.ID, "real-estate-law", 40); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	p, err := MergeProgress(ctx, db, u.ID, "market-analysis", 15)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if p.CurrentProgress["real-estate-law"] != 40 || p.CurrentProgress["market-analysis"] != 15 {
		t.Fatalf("merge dropped entries: %+v", p.CurrentProgress)
	}

	// Overwriting one key leaves the other untouched.
	p, err = MergeProgress(ctx, db, u.ID, "real-estate-law", 60)
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if p.CurrentProgress["real-estate-law"] != 60 || p.CurrentProgress["market-analysis"] != 15 {
		t.Fatalf("overwrite clobbered: %+v", p.CurrentProgress)
	}

	// The stored document matches what the merge returned.
	got, _ := GetProfile(ctx, db, u.ID)
	if got.CurrentProgress["real-estate-law"] != 60 || got.CurrentProgress["market-analysis"] != 15 {
		t.Fatalf("stored = %+v", got.CurrentProgress)
	}

	if _, err := MergeProgress(ctx, db, "missing", "real-estate-law", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing uid err = %v", err)
	}
}

func TestMarkCourseCompletedIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, db, "jane@example.com", "hash", "Jane")
	if _, err := CreateProfile(ctx, db, u.ID, u.Email, "Jane"); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := MergeProgress(ctx, db, u.ID, "real-estate-law", 55); err != nil {
		t.Fatalf("merge: %v", err)
	}

	p, err := MarkCourseCompleted(ctx, db, u.ID, "real-estate-law")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !p.CoursesCompleted.Contains("real-estate-law") || p.CurrentProgress["real-estate-law"] != 100 {
		t.Fatalf("completion state = %+v", p)
	}

	p, err = MarkCourseCompleted(ctx, db, u.ID, "real-estate-law")
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if len(p.CoursesCompleted) != 1 {
		t.Fatalf("set grew on repeat: %+v", p.CoursesCompleted)
	}
}

func TestUpdateProfileDisplayName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateProfile(ctx, db, "u1", "jane@example.com", "Jane"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := UpdateProfileDisplayName(ctx, db, "u1", "Jane Q. Public"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := GetProfile(ctx, db, "u1")
	if err != nil || got.DisplayName != "Jane Q. Public" {
		t.Fatalf("after update: %v %+v", err, got)
	}

	if err := UpdateProfileDisplayName(ctx, db, "missing", "X"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing profile err = %v", err)
	}
}
