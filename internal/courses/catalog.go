// Package courses holds the static course-module catalog rendered on the
// dashboard, plus helpers that overlay a user's progress onto it. The
// catalog is compiled in; it changes with releases, not at runtime.
package courses

import (
	"math"

	"github.com/Joshua-Garn/real-education-backend/internal/domain"
)

// Module status values derived from the profile's progress map.
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Module is one entry in the course catalog.
type Module struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lessons     int     `json:"lessons"`
	Duration    string  `json:"duration"`
	Difficulty  string  `json:"difficulty"`
	Progress    float64 `json:"progress"`
	Status      string  `json:"status"`
}

// Stats summarizes a user's standing across the whole catalog.
type Stats struct {
	TotalModules    int     `json:"total_modules"`
	Completed       int     `json:"completed"`
	OverallProgress float64 `json:"overall_progress"`
	Certificates    int     `json:"certificates"`
}

// catalog is the fixed module list shown on the dashboard.
var catalog = []Module{
	{
		ID:          "real-estate-law",
		Title:       "Real Estate Law & Regulations",
		Description: "Understanding legal frameworks, contracts, and compliance requirements",
		Lessons:     12,
		Duration:    "3 hours",
		Difficulty:  "Beginner",
	},
	{
		ID:          "property-valuation",
		Title:       "Property Valuation & Appraisal",
		Description: "Methods for accurate property assessment and market value determination",
		Lessons:     15,
		Duration:    "4 hours",
		Difficulty:  "Intermediate",
	},
	{
		ID:          "market-analysis",
		Title:       "Market Analysis & Research",
		Description: "Comprehensive market research techniques and trend analysis",
		Lessons:     18,
		Duration:    "5 hours",
		Difficulty:  "Intermediate",
	},
	{
		ID:          "investment-strategies",
		Title:       "Investment Strategies",
		Description: "Advanced investment approaches for residential and commercial properties",
		Lessons:     14,
		Duration:    "4 hours",
		Difficulty:  "Advanced",
	},
	{
		ID:          "property-management",
		Title:       "Property Management",
		Description: "Effective management strategies for rental and commercial properties",
		Lessons:     10,
		Duration:    "3 hours",
		Difficulty:  "Intermediate",
	},
	{
		ID:          "real-estate-finance",
		Title:       "Real Estate Finance",
		Description: "Financing options, mortgages, and financial analysis for real estate",
		Lessons:     16,
		Duration:    "4.5 hours",
		Difficulty:  "Advanced",
	},
}

// All returns the catalog with zero progress (every module not-started).
// The slice is a copy; callers may mutate it freely.
func All() []Module {
	out := make([]Module, len(catalog))
	copy(out, catalog)
	for i := range out {
		out[i].Status = StatusNotStarted
	}
	return out
}

// Lookup returns the catalog module with the given id.
func Lookup(id string) (Module, bool) {
	for _, m := range catalog {
		if m.ID == id {
			m.Status = StatusNotStarted
			return m, true
		}
	}
	return Module{}, false
}

// ForProfile overlays the profile's progress map and completions set onto
// the catalog. A nil profile yields the plain catalog (all not-started),
// which is how an absent profile document renders.
func ForProfile(p *domain.Profile) []Module {
	out := All()
	if p == nil {
		return out
	}
	for i := range out {
		if v, ok := p.CurrentProgress[out[i].ID]; ok {
			out[i].Progress = clamp(v)
		}
		switch {
		case p.CoursesCompleted.Contains(out[i].ID) || out[i].Progress >= 100:
			out[i].Progress = 100
			out[i].Status = StatusCompleted
		case out[i].Progress > 0:
			out[i].Status = StatusInProgress
		}
	}
	return out
}

// Summarize computes dashboard stats from an overlaid module list.
func Summarize(mods []Module) Stats {
	s := Stats{TotalModules: len(mods)}
	if len(mods) == 0 {
		return s
	}
	var sum float64
	for _, m := range mods {
		sum += m.Progress
		if m.Status == StatusCompleted {
			s.Completed++
		}
	}
	s.OverallProgress = math.Round(sum / float64(len(mods)))
	s.Certificates = s.Completed
	return s
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
