package plan

import (
	"github.com/hpungsan/termplan/internal/course"
)

// DefaultCreditCap is the maximum credit load of a single semester.
const DefaultCreditCap = 20

// Semester is a named term container in the future plan.
// TotalCredits always equals the normalized sum of Courses.
type Semester struct {
	Name         string          `json:"name"`
	Courses      []course.Course `json:"courses"`
	TotalCredits int             `json:"total_credits"`
}

// NewSemester copies courses into a semester and derives its total.
func NewSemester(name string, courses []course.Course) Semester {
	s := Semester{Name: name, Courses: append(make([]course.Course, 0, len(courses)), courses...)}
	s.recompute()
	return s
}

func (s *Semester) recompute() {
	s.TotalCredits = course.SumCredits(s.Courses)
}

func (s Semester) clone() Semester {
	s.Courses = append([]course.Course(nil), s.Courses...)
	return s
}

func cloneSemesters(plans []Semester) []Semester {
	out := make([]Semester, len(plans))
	for i, p := range plans {
		out[i] = p.clone()
	}
	return out
}

// withCourse returns a copy of courses with c appended.
func withCourse(courses []course.Course, c course.Course) []course.Course {
	out := make([]course.Course, 0, len(courses)+1)
	out = append(out, courses...)
	return append(out, c)
}

// withoutIndex returns a copy of courses with position i removed.
func withoutIndex(courses []course.Course, i int) []course.Course {
	out := make([]course.Course, 0, len(courses)-1)
	out = append(out, courses[:i]...)
	return append(out, courses[i+1:]...)
}
