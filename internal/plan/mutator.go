package plan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
)

// State is the live, user-editable part of a plan.
type State struct {
	CurrentTerm    string          `json:"current_term"`
	Current        []course.Course `json:"current_courses"`
	CurrentCredits int             `json:"current_credits"`
	Future         []Semester      `json:"future"`
	CareerPathID   string          `json:"career_path_id,omitempty"`
	CareerPathName string          `json:"career_path_name,omitempty"`

	// NeedsRegeneration is set when the career path changed and Future still
	// reflects the previous path.
	NeedsRegeneration bool `json:"needs_regeneration,omitempty"`
}

// Mutator owns a plan State and applies edits to it. Every operation
// validates before it applies, under a single lock, so a rejected edit
// leaves the state untouched.
type Mutator struct {
	mu        sync.Mutex
	cap       int
	completed course.IDSet
	state     State
}

// NewMutator creates a mutator for the current term. completed holds the
// finished-term courses; they are never editable but count as planned.
func NewMutator(cap int, currentTerm string, current, completed []course.Course) *Mutator {
	if cap <= 0 {
		cap = DefaultCreditCap
	}
	cur := course.Dedupe(current)
	return &Mutator{
		cap:       cap,
		completed: course.NewIDSet(completed),
		state: State{
			CurrentTerm:    currentTerm,
			Current:        cur,
			CurrentCredits: course.SumCredits(cur),
			Future:         []Semester{},
		},
	}
}

// Cap returns the per-semester credit cap.
func (m *Mutator) Cap() int {
	return m.cap
}

// Snapshot returns a deep copy of the state.
func (m *Mutator) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	s.Current = append([]course.Course(nil), s.Current...)
	s.Future = cloneSemesters(s.Future)
	return s
}

// SetCareerPath records the active path without requesting regeneration.
func (m *Mutator) SetCareerPath(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CareerPathID = strings.TrimSpace(id)
	m.state.CareerPathName = name
}

// LoadFuture replaces the future semesters with generator output. Credit caps
// are not re-checked, but totals are recomputed and courses already planned
// elsewhere are dropped so no course appears twice.
func (m *Mutator) LoadFuture(plans []Semester) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := course.NewIDSet(m.state.Current)
	for id := range m.completed {
		seen[id] = struct{}{}
	}

	future := make([]Semester, 0, len(plans))
	for _, p := range plans {
		kept := make([]course.Course, 0, len(p.Courses))
		for _, c := range p.Courses {
			if seen.Has(c.ID) {
				continue
			}
			seen.Add(c)
			kept = append(kept, c)
		}
		future = append(future, NewSemester(p.Name, kept))
	}
	m.state.Future = future
	m.state.NeedsRegeneration = false
}

// Planned returns every identifier in the plan, completed courses included.
func (m *Mutator) Planned() course.IDSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := course.NewIDSet(m.state.Current)
	for id := range m.completed {
		s[id] = struct{}{}
	}
	for _, p := range m.state.Future {
		s.AddAll(p.Courses)
	}
	return s
}

// Locate finds the editable container holding a course.
func (m *Mutator) Locate(courseID string) (Slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locate(courseID)
}

// Add places c into an explicit container.
func (m *Mutator) Add(c course.Course, target Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(c, target)
}

// AddEarliest places c into the earliest future semester with room.
func (m *Mutator) AddEarliest(c course.Course) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addEarliest(c)
}

// Remove deletes a course from the plan, searching future semesters first
// and then the current term. It reports whether anything was removed.
func (m *Mutator) Remove(courseID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(courseID)
}

// Move transfers a course between containers.
func (m *Mutator) Move(courseID string, from, to Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(courseID, from, to)
}

// ChangeCareerPath switches the active path. It reports whether the path
// changed, in which case the future plan must be regenerated.
func (m *Mutator) ChangeCareerPath(id, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changeCareerPath(id, name)
}

func (m *Mutator) add(c course.Course, target Slot) error {
	if err := m.checkUnplanned(c); err != nil {
		return err
	}
	if err := m.checkSlot(target); err != nil {
		return err
	}

	if target.IsCurrent() {
		updated, err := PlaceInTarget(c, m.state.Current, m.cap, "the current semester")
		if err != nil {
			return err
		}
		m.setCurrent(updated)
		return nil
	}

	sem := &m.state.Future[target.index]
	updated, err := PlaceInTarget(c, sem.Courses, m.cap, sem.Name)
	if err != nil {
		return err
	}
	sem.Courses = updated
	sem.recompute()
	return nil
}

func (m *Mutator) addEarliest(c course.Course) (Slot, error) {
	if err := m.checkUnplanned(c); err != nil {
		return Slot{}, err
	}
	updated, idx, err := PlaceEarliest(c, m.state.Future, m.cap)
	if err != nil {
		return Slot{}, err
	}
	m.state.Future = updated
	return FutureSlot(idx), nil
}

func (m *Mutator) remove(courseID string) bool {
	for i := range m.state.Future {
		sem := &m.state.Future[i]
		if idx := course.IndexOf(sem.Courses, courseID); idx >= 0 {
			sem.Courses = withoutIndex(sem.Courses, idx)
			sem.recompute()
			return true
		}
	}
	if idx := course.IndexOf(m.state.Current, courseID); idx >= 0 {
		m.setCurrent(withoutIndex(m.state.Current, idx))
		return true
	}
	return false
}

func (m *Mutator) move(courseID string, from, to Slot) error {
	if from == to {
		return errors.NewInvalidRequest("source and destination are the same semester")
	}
	if err := m.checkSlot(from); err != nil {
		return err
	}
	if err := m.checkSlot(to); err != nil {
		return err
	}

	src := m.courses(from)
	idx := course.IndexOf(src, courseID)
	if idx < 0 {
		return errors.NewNotFound(fmt.Sprintf("%s in %s", courseID, m.label(from)))
	}
	moving := src[idx]

	dst := m.courses(to)
	if course.Contains(dst, courseID) {
		return errors.NewDuplicateCourse(moving.ID, m.label(to))
	}
	// Checked against the destination's pre-move total.
	dstCredits := course.SumCredits(dst)
	if dstCredits+moving.Credits() > m.cap {
		return errors.NewCreditCapExceeded(m.cap, dstCredits, moving.Credits())
	}

	m.setCourses(from, withoutIndex(src, idx))
	m.setCourses(to, withCourse(dst, moving))
	return nil
}

func (m *Mutator) changeCareerPath(id, name string) bool {
	id = strings.TrimSpace(id)
	if id == m.state.CareerPathID {
		return false
	}
	m.state.CareerPathID = id
	m.state.CareerPathName = name
	m.state.NeedsRegeneration = true
	return true
}

// checkUnplanned rejects a course already anywhere in the plan.
func (m *Mutator) checkUnplanned(c course.Course) error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.NewInvalidRequest("course_id is required")
	}
	if m.completed.Has(c.ID) {
		return errors.NewDuplicateCourse(c.ID, "your completed courses")
	}
	if slot, ok := m.locate(c.ID); ok {
		return errors.NewDuplicateCourse(c.ID, m.label(slot))
	}
	return nil
}

func (m *Mutator) checkSlot(s Slot) error {
	if s.IsCurrent() {
		return nil
	}
	if s.index < 0 || s.index >= len(m.state.Future) {
		return errors.NewInvalidRequest(fmt.Sprintf("semester index %d out of range (have %d)", s.index, len(m.state.Future)))
	}
	return nil
}

func (m *Mutator) locate(courseID string) (Slot, bool) {
	for i, p := range m.state.Future {
		if course.Contains(p.Courses, courseID) {
			return FutureSlot(i), true
		}
	}
	if course.Contains(m.state.Current, courseID) {
		return CurrentSlot(), true
	}
	return Slot{}, false
}

func (m *Mutator) courses(s Slot) []course.Course {
	if s.IsCurrent() {
		return m.state.Current
	}
	return m.state.Future[s.index].Courses
}

func (m *Mutator) setCourses(s Slot, courses []course.Course) {
	if s.IsCurrent() {
		m.setCurrent(courses)
		return
	}
	m.state.Future[s.index].Courses = courses
	m.state.Future[s.index].recompute()
}

func (m *Mutator) setCurrent(courses []course.Course) {
	m.state.Current = courses
	m.state.CurrentCredits = course.SumCredits(courses)
}

func (m *Mutator) label(s Slot) string {
	if s.IsCurrent() {
		return "the current semester"
	}
	if name := m.state.Future[s.index].Name; name != "" {
		return name
	}
	return s.String()
}
