package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/termplan/internal/errors"
)

// Slot addresses a container in the plan: the current term, or a future
// semester by position. The zero value is the current term.
type Slot struct {
	future bool
	index  int
}

// CurrentSlot addresses the in-progress term.
func CurrentSlot() Slot {
	return Slot{}
}

// FutureSlot addresses the i-th future semester.
func FutureSlot(i int) Slot {
	return Slot{future: true, index: i}
}

// ParseSlot converts a legacy integer index, where -1 means the current term.
func ParseSlot(i int) (Slot, error) {
	switch {
	case i == -1:
		return CurrentSlot(), nil
	case i >= 0:
		return FutureSlot(i), nil
	}
	return Slot{}, errors.NewInvalidRequest(fmt.Sprintf("invalid semester index %d", i))
}

// IsCurrent reports whether s is the current term.
func (s Slot) IsCurrent() bool {
	return !s.future
}

// Index returns the future semester position, or -1 for the current term.
func (s Slot) Index() int {
	if !s.future {
		return -1
	}
	return s.index
}

// String implements fmt.Stringer.
func (s Slot) String() string {
	if !s.future {
		return "current"
	}
	return fmt.Sprintf("future[%d]", s.index)
}

// MarshalJSON encodes the current term as "current" and future semesters by index.
func (s Slot) MarshalJSON() ([]byte, error) {
	if !s.future {
		return json.Marshal("current")
	}
	return json.Marshal(s.index)
}

// UnmarshalJSON accepts "current", -1, or a non-negative index. Indexes may
// also be given as strings.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var i int
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "current") {
			*s = CurrentSlot()
			return nil
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			return fmt.Errorf("invalid slot %q", name)
		}
		i = n
	} else if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("slot must be \"current\" or a semester index")
	}
	parsed, err := ParseSlot(i)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
