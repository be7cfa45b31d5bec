package catalog

import (
	"context"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/plan"
	"github.com/hpungsan/termplan/internal/term"
)

// LocalGenerator fills future semesters from a pathway's courses in
// core, recommended, optional order. Each term is filled to TermCredits
// first; courses that fit nowhere under that target may stretch a term up
// to the hard cap. Courses that fit nowhere at all are left unscheduled.
type LocalGenerator struct {
	courses     CourseSource
	pathways    PathwaySource
	cap         int
	termCredits int
}

// NewLocalGenerator creates a generator over the given sources.
func NewLocalGenerator(courses CourseSource, pathways PathwaySource, cap, termCredits int) *LocalGenerator {
	if cap <= 0 {
		cap = plan.DefaultCreditCap
	}
	if termCredits <= 0 || termCredits > cap {
		termCredits = cap
	}
	return &LocalGenerator{courses: courses, pathways: pathways, cap: cap, termCredits: termCredits}
}

// Generate implements Generator.
func (g *LocalGenerator) Generate(ctx context.Context, req GenerateRequest) (Schedule, error) {
	start, ok := term.Parse(req.StartTerm)
	if !ok {
		return nil, errors.NewInvalidTerm(req.StartTerm)
	}
	if req.MaxFutureTerms <= 0 {
		return Schedule{}, nil
	}

	p, err := g.pathways.Pathway(ctx, req.CareerPathID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFound(req.CareerPathID)
	}

	semesters := make([]plan.Semester, req.MaxFutureTerms)
	t := start
	for i := range semesters {
		semesters[i] = plan.NewSemester(t.String(), nil)
		// Parsed terms always have a successor
		t, _ = term.Successor(t)
	}

	prior := course.NewIDSet(req.PriorCourses)
	for _, id := range p.CourseIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if prior.Has(id) {
			continue
		}
		c := g.lookup(ctx, id)

		placed, _, err := plan.PlaceEarliest(c, semesters, g.termCredits)
		if errors.Is(err, errors.ErrNoCapacity) {
			placed, _, err = plan.PlaceEarliest(c, semesters, g.cap)
		}
		if err != nil {
			continue
		}
		semesters = placed
	}

	out := make(Schedule, len(semesters))
	for i, s := range semesters {
		out[i] = TermCourses{Term: s.Name, Courses: s.Courses}
	}
	return out, nil
}

// lookup falls back to a placeholder when the catalog has no entry.
func (g *LocalGenerator) lookup(ctx context.Context, id string) course.Course {
	c, err := g.courses.Lookup(ctx, id)
	if err != nil || c == nil {
		return course.Placeholder(id)
	}
	return *c
}
