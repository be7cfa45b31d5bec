// Package catalog provides the planner's collaborators: course lookup and
// search, career pathways, and schedule generation.
package catalog

import (
	"context"
	"sort"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/plan"
	"github.com/hpungsan/termplan/internal/term"
)

// GenerateRequest asks a generator for future semesters.
type GenerateRequest struct {
	// StartTerm is the first term to fill, the successor of the current term
	StartTerm string `json:"start_term"`

	CareerPathID string `json:"career_path_id"`

	// PriorCourses are completed and in-progress courses; generators must not
	// schedule them again.
	PriorCourses []course.Course `json:"prior_courses"`

	// MaxFutureTerms caps the number of semesters returned
	MaxFutureTerms int `json:"max_future_terms"`
}

// TermCourses is one generated semester.
type TermCourses struct {
	Term    string          `json:"term"`
	Courses []course.Course `json:"courses"`
}

// Schedule is generator output in term order.
type Schedule []TermCourses

// Semesters converts the schedule into plan semesters with computed totals.
func (s Schedule) Semesters() []plan.Semester {
	out := make([]plan.Semester, len(s))
	for i, tc := range s {
		out[i] = plan.NewSemester(tc.Term, tc.Courses)
	}
	return out
}

// ScheduleFromMap orders a term-keyed schedule chronologically. Keys that are
// not valid terms sort after valid ones, by name.
func ScheduleFromMap(m map[string][]course.Course) Schedule {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, aok := term.Parse(names[i])
		b, bok := term.Parse(names[j])
		switch {
		case aok && bok:
			return a.Before(b)
		case aok != bok:
			return aok
		}
		return names[i] < names[j]
	})

	out := make(Schedule, len(names))
	for i, name := range names {
		out[i] = TermCourses{Term: name, Courses: m[name]}
	}
	return out
}

// Generator produces future semesters for a career path.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Schedule, error)
}

// CourseSource looks up catalog courses.
type CourseSource interface {
	Search(ctx context.Context, query string, limit int) ([]course.Course, error)

	// Lookup returns nil, nil when the course is absent.
	Lookup(ctx context.Context, id string) (*course.Course, error)
}

// PathwaySource lists career pathways.
type PathwaySource interface {
	// Pathways lists pathways, optionally filtered by major.
	Pathways(ctx context.Context, major string) ([]course.Pathway, error)

	// Pathway returns nil, nil when the pathway is absent.
	Pathway(ctx context.Context, id string) (*course.Pathway, error)
}
