package plan

import (
	"fmt"

	"github.com/hpungsan/termplan/internal/course"
)

// mk builds a course with an integer credit value.
func mk(id string, credits int) course.Course {
	return course.Course{ID: id, Title: id, CreditHours: course.NewCredits(credits)}
}

// numbered builds n courses of the given credit value named PREFIX 100, PREFIX 101, ...
func numbered(prefix string, n, credits int) []course.Course {
	out := make([]course.Course, n)
	for i := range out {
		out[i] = mk(fmt.Sprintf("%s %d", prefix, 100+i), credits)
	}
	return out
}

// semesterWith builds a semester filled to the given total with 1-credit courses.
func semesterWith(name string, total int) Semester {
	return NewSemester(name, numbered(name, total, 1))
}
