package plan

import (
	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
)

// PlaceEarliest puts c into the first future semester with room for it.
// It returns a new plan slice and the index that received the course; plans
// is never modified. A course already scheduled anywhere in plans is rejected
// as a duplicate, and a course no semester can absorb is rejected outright.
func PlaceEarliest(c course.Course, plans []Semester, cap int) ([]Semester, int, error) {
	for _, p := range plans {
		if course.Contains(p.Courses, c.ID) {
			return nil, -1, errors.NewDuplicateCourse(c.ID, p.Name)
		}
	}

	credits := c.Credits()
	for i, p := range plans {
		if p.TotalCredits+credits > cap {
			continue
		}
		out := cloneSemesters(plans)
		out[i].Courses = withCourse(out[i].Courses, c)
		out[i].recompute()
		return out, i, nil
	}
	return nil, -1, errors.NewNoCapacity(cap, credits)
}

// PlaceInTarget appends c to one explicit container. where names the
// container in rejection messages.
func PlaceInTarget(c course.Course, courses []course.Course, cap int, where string) ([]course.Course, error) {
	if course.Contains(courses, c.ID) {
		return nil, errors.NewDuplicateCourse(c.ID, where)
	}
	current := course.SumCredits(courses)
	credits := c.Credits()
	if current+credits > cap {
		return nil, errors.NewCreditCapExceeded(cap, current, credits)
	}
	return withCourse(courses, c), nil
}
