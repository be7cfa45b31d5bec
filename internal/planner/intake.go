package planner

import (
	"strings"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/term"
)

// DefaultCareerPathName labels a path whose name is unknown.
const DefaultCareerPathName = "Career Path"

// Intake is everything a student tells the planner before a plan exists.
type Intake struct {
	Major          string `json:"major,omitempty"`
	CareerPathID   string `json:"career_path_id"`
	CareerPathName string `json:"career_path_name,omitempty"`

	// StartTerm is when the program began; empty when unknown
	StartTerm   string `json:"start_term,omitempty"`
	CurrentTerm string `json:"current_term"`

	CurrentCourses []course.Course `json:"current_courses,omitempty"`

	// PreviousByTerm is the authoritative per-term record of finished work.
	PreviousByTerm map[string][]course.Course `json:"previous_by_term,omitempty"`

	// CompletedCourses is an aggregate list, distributed over finished
	// terms when PreviousByTerm is absent.
	CompletedCourses []course.Course `json:"completed_courses,omitempty"`
}

// Validate checks that the current term is present and parses. The start
// term is not checked here: an unknown or unwalkable start falls back to
// placing completed courses in the term before the current one.
func (in Intake) Validate() error {
	if strings.TrimSpace(in.CurrentTerm) == "" {
		return errors.NewInvalidRequest("current_term is required")
	}
	if _, ok := term.Parse(in.CurrentTerm); !ok {
		return errors.NewInvalidTerm(in.CurrentTerm)
	}
	return nil
}

// IntakeBuilder collects courses term by term, the way the intake wizard
// does, and keeps every course in at most one term.
type IntakeBuilder struct {
	major          string
	careerPathID   string
	careerPathName string
	start          string
	current        string
	terms          []string
	byTerm         map[string][]course.Course
}

// NewIntakeBuilder returns an empty builder.
func NewIntakeBuilder() *IntakeBuilder {
	return &IntakeBuilder{byTerm: make(map[string][]course.Course)}
}

// FromIntake seeds a builder with an existing intake, for editing.
func FromIntake(in Intake) (*IntakeBuilder, error) {
	b := NewIntakeBuilder()
	b.SetMajor(in.Major)
	b.SetCareerPath(in.CareerPathID, in.CareerPathName)
	start := in.StartTerm
	if start == "" {
		start = in.CurrentTerm
	}
	if err := b.SetTerms(start, in.CurrentTerm); err != nil {
		return nil, err
	}
	for _, name := range b.terms {
		var courses []course.Course
		if name == b.current {
			courses = in.CurrentCourses
		} else {
			courses = in.PreviousByTerm[name]
		}
		for _, c := range courses {
			if err := b.AddCourse(name, c); err != nil && !errors.Is(err, errors.ErrDuplicateCourse) {
				return nil, err
			}
		}
	}
	return b, nil
}

// SetMajor records the declared major.
func (b *IntakeBuilder) SetMajor(major string) {
	b.major = strings.TrimSpace(major)
}

// SetCareerPath records the chosen career path.
func (b *IntakeBuilder) SetCareerPath(id, name string) {
	b.careerPathID = strings.TrimSpace(id)
	b.careerPathName = strings.TrimSpace(name)
}

// SetTerms fixes the program range. Terms outside the new range are
// discarded along with their courses; terms inside keep theirs.
func (b *IntakeBuilder) SetTerms(start, current string) error {
	terms, ok := term.EnumerateInclusive(start, current)
	if !ok {
		return errors.NewInvalidRange(start, current)
	}
	next := make(map[string][]course.Course, len(terms))
	for _, name := range terms {
		next[name] = b.byTerm[name]
	}
	b.start, b.current, b.terms, b.byTerm = start, current, terms, next
	return nil
}

// Terms lists the selectable terms, oldest first, ending with the current one.
func (b *IntakeBuilder) Terms() []string {
	return append([]string(nil), b.terms...)
}

// Courses returns the courses recorded for a term.
func (b *IntakeBuilder) Courses(termName string) []course.Course {
	return append([]course.Course(nil), b.byTerm[termName]...)
}

// AddCourse records c under termName. A course already recorded in any term
// is rejected.
func (b *IntakeBuilder) AddCourse(termName string, c course.Course) error {
	if c.Key() == "" {
		return errors.NewInvalidRequest("course_id is required")
	}
	if _, ok := b.byTerm[termName]; !ok {
		return errors.NewInvalidTerm(termName)
	}
	for _, name := range b.terms {
		if course.Contains(b.byTerm[name], c.ID) {
			return errors.NewDuplicateCourse(c.ID, name)
		}
	}
	b.byTerm[termName] = append(b.byTerm[termName], c)
	return nil
}

// RemoveCourse removes a course from one term. It reports whether anything
// was removed.
func (b *IntakeBuilder) RemoveCourse(courseID, termName string) bool {
	courses := b.byTerm[termName]
	idx := course.IndexOf(courses, courseID)
	if idx < 0 {
		return false
	}
	b.byTerm[termName] = append(courses[:idx:idx], courses[idx+1:]...)
	return true
}

// Build splits the recorded courses into the current term and the
// finished-term map.
func (b *IntakeBuilder) Build() (Intake, error) {
	if b.current == "" {
		return Intake{}, errors.NewInvalidRequest("program terms are not set")
	}
	if b.careerPathID == "" {
		return Intake{}, errors.NewInvalidRequest("career path is required")
	}

	in := Intake{
		Major:          b.major,
		CareerPathID:   b.careerPathID,
		CareerPathName: b.careerPathName,
		StartTerm:      b.start,
		CurrentTerm:    b.current,
		CurrentCourses: append([]course.Course{}, b.byTerm[b.current]...),
		PreviousByTerm: make(map[string][]course.Course, len(b.terms)-1),
	}
	if in.CareerPathName == "" {
		in.CareerPathName = DefaultCareerPathName
	}
	for _, name := range b.terms {
		if name == b.current {
			continue
		}
		courses := append([]course.Course{}, b.byTerm[name]...)
		in.PreviousByTerm[name] = courses
		in.CompletedCourses = append(in.CompletedCourses, courses...)
	}
	return in, nil
}
