package course

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// UnknownLevel sorts courses without a numeric level after every leveled one.
const UnknownLevel = 999

// PlaceholderTitle is shown for recommended courses the catalog cannot describe.
const PlaceholderTitle = "Suggested Course"

var levelRegex = regexp.MustCompile(`\d{2,3}`)

// Course is a catalog entry. Courses are never mutated by the planner; only
// their membership in terms changes.
type Course struct {
	// ID is the catalog identifier, e.g. "CS 101"
	ID string `json:"course_id" yaml:"course_id"`

	// Title is the human-readable course name
	Title string `json:"title" yaml:"title"`

	// Department is the owning department code
	Department string `json:"department,omitempty" yaml:"department,omitempty"`

	// CreditHours is the raw credit value; use Credits() for arithmetic
	CreditHours Credits `json:"credit_hours" yaml:"credit_hours"`

	// AvgDifficulty is the average reported difficulty (lower is easier)
	AvgDifficulty *float64 `json:"course_avg_difficulty,omitempty" yaml:"course_avg_difficulty,omitempty"`

	// AvgGPA is the average grade outcome
	AvgGPA *float64 `json:"course_avg_gpa,omitempty" yaml:"course_avg_gpa,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Instructors is a list of names or an object keyed by name
	Instructors any `json:"instructors,omitempty" yaml:"instructors,omitempty"`

	// SemestersOffered is a list, string, or keyed object of seasons
	SemestersOffered any `json:"semesters_offered,omitempty" yaml:"semesters_offered,omitempty"`
}

// Key returns the normalized identifier used for all comparisons.
func (c Course) Key() string {
	return NormalizeID(c.ID)
}

// Credits returns the normalized credit hours.
func (c Course) Credits() int {
	return c.CreditHours.Value()
}

// NormalizeID strips all whitespace and upper-cases an identifier, so
// "cs 101" and "CS101" compare equal.
func NormalizeID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, id)
}

// Level extracts the first 2-3 digit run of an identifier ("CS 2110" → 211).
func Level(id string) int {
	match := levelRegex.FindString(id)
	if match == "" {
		return UnknownLevel
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return UnknownLevel
	}
	return n
}

// Placeholder synthesizes a course for an identifier the catalog could not
// resolve.
func Placeholder(id string) Course {
	dept := strings.SplitN(id, " ", 2)[0]
	if dept == "" {
		dept = "UNK"
	}
	return Course{
		ID:          id,
		Title:       PlaceholderTitle,
		Department:  dept,
		CreditHours: NewCredits(DefaultCredits),
	}
}

// IDSet is a set of normalized course identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from any number of course lists.
func NewIDSet(lists ...[]Course) IDSet {
	s := make(IDSet)
	for _, list := range lists {
		s.AddAll(list)
	}
	return s
}

// Add inserts a course's key.
func (s IDSet) Add(c Course) {
	s[c.Key()] = struct{}{}
}

// AddAll inserts every course's key.
func (s IDSet) AddAll(courses []Course) {
	for _, c := range courses {
		s.Add(c)
	}
}

// Has reports whether the identifier (raw or normalized) is present.
func (s IDSet) Has(id string) bool {
	_, ok := s[NormalizeID(id)]
	return ok
}

// Contains reports whether courses holds a course with the given identifier.
func Contains(courses []Course, id string) bool {
	return IndexOf(courses, id) >= 0
}

// IndexOf returns the position of the course with the given identifier, or -1.
func IndexOf(courses []Course, id string) int {
	key := NormalizeID(id)
	for i, c := range courses {
		if c.Key() == key {
			return i
		}
	}
	return -1
}

// Dedupe keeps the first occurrence of each identifier, preserving order.
func Dedupe(courses []Course) []Course {
	seen := make(IDSet, len(courses))
	out := make([]Course, 0, len(courses))
	for _, c := range courses {
		if seen.Has(c.ID) {
			continue
		}
		seen.Add(c)
		out = append(out, c)
	}
	return out
}
