package term

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRangeTerms bounds how many terms a range may emit (10 academic years of
// Spring/Fall). It also stops reversed or cyclic input from walking forever.
const MaxRangeTerms = 20

// Season is the academic period within a year.
type Season int

const (
	Spring Season = iota + 1
	Summer
	Fall
)

var seasonNames = map[Season]string{
	Spring: "Spring",
	Summer: "Summer",
	Fall:   "Fall",
}

// String returns the season name as it appears in term identifiers.
func (s Season) String() string {
	if name, ok := seasonNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Season(%d)", int(s))
}

// ParseSeason maps a season token to a Season. Tokens are case-sensitive.
func ParseSeason(token string) (Season, bool) {
	for s, name := range seasonNames {
		if name == token {
			return s, true
		}
	}
	return 0, false
}

// Term identifies a single academic period, e.g. "Fall 2024".
type Term struct {
	Season Season
	Year   int
}

// New returns the term for a season and year.
func New(season Season, year int) Term {
	return Term{Season: season, Year: year}
}

// Parse parses "Season Year". It reports false for anything else.
func Parse(s string) (Term, bool) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) != 2 {
		return Term{}, false
	}
	season, ok := ParseSeason(parts[0])
	if !ok {
		return Term{}, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return Term{}, false
	}
	return Term{Season: season, Year: year}, true
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Term {
	t, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("term: malformed term %q", s))
	}
	return t
}

// String renders the term as "Season Year".
func (t Term) String() string {
	return fmt.Sprintf("%s %d", t.Season, t.Year)
}

// Valid reports whether the season is recognized.
func (t Term) Valid() bool {
	_, ok := seasonNames[t.Season]
	return ok
}

// IsMajor reports whether t is a Spring or Fall term.
func (t Term) IsMajor() bool {
	return t.Season == Spring || t.Season == Fall
}

// Compare orders terms by year, then season (Spring < Summer < Fall).
func (t Term) Compare(other Term) int {
	switch {
	case t.Year < other.Year:
		return -1
	case t.Year > other.Year:
		return 1
	case t.Season < other.Season:
		return -1
	case t.Season > other.Season:
		return 1
	}
	return 0
}

// Before reports whether t comes strictly before other.
func (t Term) Before(other Term) bool {
	return t.Compare(other) < 0
}

// Successor returns the next major term. Summer rolls into Fall of the same
// year, so the walk never lands on a Summer term.
func Successor(t Term) (Term, bool) {
	switch t.Season {
	case Spring, Summer:
		return Term{Season: Fall, Year: t.Year}, true
	case Fall:
		return Term{Season: Spring, Year: t.Year + 1}, true
	}
	return Term{}, false
}

// Predecessor returns the previous major term. It is undefined for Summer.
func Predecessor(t Term) (Term, bool) {
	switch t.Season {
	case Spring:
		return Term{Season: Fall, Year: t.Year - 1}, true
	case Fall:
		return Term{Season: Spring, Year: t.Year}, true
	}
	return Term{}, false
}

// Range walks Successor from start until it reaches end, inclusive.
// It reports false when end is not reached within MaxRangeTerms.
func Range(start, end Term) ([]Term, bool) {
	if !start.Valid() || !end.Valid() {
		return nil, false
	}
	out := make([]Term, 0, 4)
	cur := start
	for i := 0; i < MaxRangeTerms; i++ {
		out = append(out, cur)
		if cur == end {
			return out, true
		}
		next, ok := Successor(cur)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// EnumerateInclusive is Range over term strings.
func EnumerateInclusive(start, end string) ([]string, bool) {
	s, ok := Parse(start)
	if !ok {
		return nil, false
	}
	e, ok := Parse(end)
	if !ok {
		return nil, false
	}
	terms, ok := Range(s, e)
	if !ok {
		return nil, false
	}
	return Strings(terms), true
}

// Split enumerates start..current and separates the finished terms (all but
// the last) from the current one.
func Split(start, current string) (finished []Term, cur Term, ok bool) {
	s, ok := Parse(start)
	if !ok {
		return nil, Term{}, false
	}
	c, ok := Parse(current)
	if !ok {
		return nil, Term{}, false
	}
	terms, ok := Range(s, c)
	if !ok {
		return nil, Term{}, false
	}
	return terms[:len(terms)-1], c, true
}

// Strings renders each term.
func Strings(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.String()
	}
	return out
}
