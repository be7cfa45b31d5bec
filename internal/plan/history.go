package plan

import (
	"sort"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/term"
)

// Bucket holds the courses completed in one finished term.
type Bucket struct {
	Term         string          `json:"term"`
	Courses      []course.Course `json:"courses"`
	TotalCredits int             `json:"total_credits"`
}

// History is the ordered, read-only record of finished terms. A course
// identifier appears in at most one bucket.
type History []Bucket

// HistoryInput describes what the intake knows about completed work.
type HistoryInput struct {
	// Start and Current bound the program ("Fall 2023", "Fall 2024")
	Start   string
	Current string

	// ByTerm is an authoritative per-term breakdown. When non-empty it is
	// used as-is and Completed is ignored.
	ByTerm map[string][]course.Course

	// Completed is the aggregate list to distribute when ByTerm is absent
	Completed []course.Course
}

// Distribute spreads courses over the finished terms, earliest first, filling
// each term up to cap. Once the last term is reached every remaining course
// lands there regardless of cap, so nothing is dropped. With no finished
// terms there is nowhere to put anything: the result is empty and the caller
// still owns every course. ReconstructHistory handles that case by using the
// term before the current one.
func Distribute(courses []course.Course, finished []term.Term, cap int) History {
	if len(finished) == 0 {
		return History{}
	}

	h := make(History, len(finished))
	for i, t := range finished {
		h[i] = Bucket{Term: t.String(), Courses: []course.Course{}}
	}

	last := len(finished) - 1
	cursor, running := 0, 0
	for _, c := range course.Dedupe(courses) {
		credits := c.Credits()
		for cursor <= last && running+credits > cap {
			cursor++
			running = 0
		}
		if cursor > last {
			h[last].Courses = append(h[last].Courses, c)
			continue
		}
		h[cursor].Courses = append(h[cursor].Courses, c)
		running += credits
	}

	for i := range h {
		h[i].TotalCredits = course.SumCredits(h[i].Courses)
	}
	return h
}

// ReconstructHistory builds the finished-term record for a session:
//  1. an authoritative ByTerm map is used directly (current term excluded)
//  2. otherwise Completed is distributed over the finished terms of Start..Current
//  3. if that range is unknown or has no finished terms, everything goes to the
//     term before Current, or is dropped when Current has no predecessor
func ReconstructHistory(in HistoryInput, cap int) History {
	if len(in.ByTerm) > 0 {
		return fromTermMap(in.ByTerm, in.Current)
	}

	finished, _, ok := term.Split(in.Start, in.Current)
	if ok && len(finished) > 0 {
		return Distribute(in.Completed, finished, cap)
	}
	if len(in.Completed) == 0 {
		return History{}
	}

	cur, ok := term.Parse(in.Current)
	if !ok {
		return History{}
	}
	prev, ok := term.Predecessor(cur)
	if !ok {
		return History{}
	}
	courses := course.Dedupe(in.Completed)
	return History{{Term: prev.String(), Courses: courses, TotalCredits: course.SumCredits(courses)}}
}

// fromTermMap orders an explicit breakdown by term; names that do not parse
// follow the parseable ones in lexical order.
func fromTermMap(byTerm map[string][]course.Course, current string) History {
	names := make([]string, 0, len(byTerm))
	for name := range byTerm {
		if name == current {
			continue
		}
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

	seen := make(course.IDSet)
	h := make(History, 0, len(names))
	for _, name := range names {
		kept := make([]course.Course, 0, len(byTerm[name]))
		for _, c := range byTerm[name] {
			if seen.Has(c.ID) {
				continue
			}
			seen.Add(c)
			kept = append(kept, c)
		}
		h = append(h, Bucket{Term: name, Courses: kept, TotalCredits: course.SumCredits(kept)})
	}
	return h
}

// Courses flattens the history in term order.
func (h History) Courses() []course.Course {
	var out []course.Course
	for _, b := range h {
		out = append(out, b.Courses...)
	}
	return out
}

// Credits totals every completed course.
func (h History) Credits() int {
	total := 0
	for _, b := range h {
		total += b.TotalCredits
	}
	return total
}

// Terms lists the bucket names in order.
func (h History) Terms() []string {
	out := make([]string, len(h))
	for i, b := range h {
		out[i] = b.Term
	}
	return out
}

// Lookup returns the courses recorded for a term.
func (h History) Lookup(name string) ([]course.Course, bool) {
	for _, b := range h {
		if b.Term == name {
			return b.Courses, true
		}
	}
	return nil, false
}
