// Course and profile HTTP handlers.
//
// This file exposes REST endpoints for the course dashboard:
//   - GET  /courses               (catalog, overlaid with caller's progress)
//   - GET  /profile/{uid}         (lenient profile read)
//   - PUT  /progress              (merge one course's progress)
//   - POST /courses/{id}/complete (mark a course finished)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/courses"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
)

//
// DTOs
//

// CourseListResponse is the dashboard payload: the module list with the
// caller's progress overlaid, plus aggregate stats.
type CourseListResponse struct {
	Modules []courses.Module `json:"modules"`
	Stats   courses.Stats    `json:"stats"`
}

// UpdateProgressRequest is the JSON payload for a progress merge.
type UpdateProgressRequest struct {
	CourseID string  `json:"courseId"`
	Progress float64 `json:"progress"`
}

// ProgressResponse returns the refreshed profile after a progress write.
type ProgressResponse struct {
	Profile any `json:"profile"`
}

//
// Handlers
//

// ListCourses returns the course catalog. Signed-in callers get their own
// progress and completion status overlaid; anonymous callers get the plain
// catalog with every module not started.
func (h *Handlers) ListCourses(c *gin.Context) {
	var mods []courses.Module
	if uid, okUID := middleware.UserID(c); okUID {
		mods = courses.ForProfile(h.accounts.GetUserProfile(c.Request.Context(), uid))
	} else {
		mods = courses.ForProfile(nil)
	}
	ok(c, http.StatusOK, CourseListResponse{Modules: mods, Stats: courses.Summarize(mods)})
}

// GetProfile returns the profile document for a user id. The read is
// lenient in the account layer; a missing or unreadable profile is a 404
// here rather than a 5xx.
func (h *Handlers) GetProfile(c *gin.Context) {
	uid := c.Param("id")
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id required")
		return
	}

	p := h.accounts.GetUserProfile(c.Request.Context(), uid)
	if p == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProgress merges a single course's progress into the caller's
// profile. Progress outside [0,100] is rejected before any write.
func (h *Handlers) UpdateProgress(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, known := courses.Lookup(req.CourseID); !known {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown course")
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "progress must be between 0 and 100")
		return
	}

	p, err := h.accounts.UpdateCourseProgress(c.Request.Context(), sid, req.CourseID, req.Progress)
	if err != nil {
		h.failProgress(c, err)
		return
	}
	ok(c, http.StatusOK, ProgressResponse{Profile: p})
}

// CompleteCourse marks a course finished and pins its progress to 100.
func (h *Handlers) CompleteCourse(c *gin.Context) {
	sid, okSid := middleware.SessionID(c)
	if !okSid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	courseID := c.Param("id")
	if _, known := courses.Lookup(courseID); !known {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown course")
		return
	}

	p, err := h.accounts.CompleteCourse(c.Request.Context(), sid, courseID)
	if err != nil {
		h.failProgress(c, err)
		return
	}
	ok(c, http.StatusOK, ProgressResponse{Profile: p})
}

// failProgress translates progress-write failures into envelopes.
func (h *Handlers) failProgress(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrProgressUpdateFailed):
		fail(c, http.StatusInternalServerError, ErrCodeProgressFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, auth.Message(auth.CodeUnknown))
	}
}
