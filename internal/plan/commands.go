package plan

import (
	"fmt"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
)

// Command is an edit dispatched to a Mutator.
type Command interface {
	command()
}

// AddCourse adds a course to Target, or to the earliest future semester with
// room when Target is nil.
type AddCourse struct {
	Course course.Course
	Target *Slot
}

// RemoveCourse removes a course from wherever it is planned.
type RemoveCourse struct {
	CourseID string
}

// MoveCourse moves a course between two containers.
type MoveCourse struct {
	CourseID string
	From     Slot
	To       Slot
}

// ChangeCareerPath switches the active career path.
type ChangeCareerPath struct {
	PathID   string
	PathName string
}

func (AddCourse) command()        {}
func (RemoveCourse) command()     {}
func (MoveCourse) command()       {}
func (ChangeCareerPath) command() {}

// Result reports the effect of an applied command.
type Result struct {
	// Changed is false for no-ops (removing an absent course, re-selecting the
	// active career path)
	Changed bool `json:"changed"`

	// Slot is where an added or moved course now lives
	Slot *Slot `json:"slot,omitempty"`

	// Regenerate asks the caller to fetch a new future plan
	Regenerate bool `json:"regenerate,omitempty"`
}

// Apply dispatches a command under the mutator's lock.
func (m *Mutator) Apply(cmd Command) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch c := cmd.(type) {
	case AddCourse:
		if c.Target == nil {
			slot, err := m.addEarliest(c.Course)
			if err != nil {
				return Result{}, err
			}
			return Result{Changed: true, Slot: &slot}, nil
		}
		if err := m.add(c.Course, *c.Target); err != nil {
			return Result{}, err
		}
		slot := *c.Target
		return Result{Changed: true, Slot: &slot}, nil

	case RemoveCourse:
		return Result{Changed: m.remove(c.CourseID)}, nil

	case MoveCourse:
		if err := m.move(c.CourseID, c.From, c.To); err != nil {
			return Result{}, err
		}
		slot := c.To
		return Result{Changed: true, Slot: &slot}, nil

	case ChangeCareerPath:
		changed := m.changeCareerPath(c.PathID, c.PathName)
		return Result{Changed: changed, Regenerate: changed}, nil
	}
	return Result{}, errors.NewInvalidRequest(fmt.Sprintf("unknown command %T", cmd))
}
