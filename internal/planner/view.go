package planner

import (
	"math"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/plan"
)

// TermKind says which part of the plan a TermView belongs to.
type TermKind string

const (
	KindHistory TermKind = "history"
	KindCurrent TermKind = "current"
	KindFuture  TermKind = "future"
)

// TermView is one term as presented to the student.
type TermView struct {
	Kind TermKind `json:"kind"`

	// Slot addresses editable terms; nil for finished ones
	Slot *plan.Slot `json:"slot,omitempty"`

	Term         string            `json:"term"`
	Courses      []course.Course   `json:"courses"`
	TotalCredits int               `json:"total_credits"`
	Difficulty   course.Difficulty `json:"difficulty"`

	// Collapsed is the default disclosure state: finished terms start closed
	Collapsed bool `json:"collapsed"`
}

// Notice is an error shown alongside the plan rather than instead of it.
type Notice struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// View is a read-only rendering of the whole session.
type View struct {
	SessionID      string `json:"session_id"`
	Major          string `json:"major,omitempty"`
	CareerPathID   string `json:"career_path_id,omitempty"`
	CareerPathName string `json:"career_path_name,omitempty"`
	StartTerm      string `json:"start_term,omitempty"`
	CurrentTerm    string `json:"current_term"`
	NextTerm       string `json:"next_term"`
	CreditCap      int    `json:"credit_cap"`

	History []TermView `json:"history"`
	Current TermView   `json:"current"`
	Future  []TermView `json:"future"`

	CompletedCredits     int `json:"completed_credits"`
	TotalCreditsRequired int `json:"total_credits_required"`
	ProgressPercent      int `json:"progress_percent"`

	Loading           bool    `json:"loading"`
	NeedsRegeneration bool    `json:"needs_regeneration,omitempty"`
	LastError         *Notice `json:"last_error,omitempty"`
}

// View renders the session.
func (s *Session) View() View {
	st := s.mutator.Snapshot()

	s.mu.Lock()
	loading := s.loading
	var notice *Notice
	if s.lastErr != nil {
		notice = &Notice{Code: s.lastErr.Code, Message: s.lastErr.Message}
	}
	s.mu.Unlock()

	v := View{
		SessionID:            s.id,
		Major:                s.intake.Major,
		CareerPathID:         st.CareerPathID,
		CareerPathName:       st.CareerPathName,
		StartTerm:            s.intake.StartTerm,
		CurrentTerm:          st.CurrentTerm,
		NextTerm:             s.NextTerm(),
		CreditCap:            s.mutator.Cap(),
		History:              make([]TermView, len(s.history)),
		Future:               make([]TermView, len(st.Future)),
		CompletedCredits:     s.history.Credits(),
		TotalCreditsRequired: s.cfg.TotalCreditsRequired,
		Loading:              loading,
		NeedsRegeneration:    st.NeedsRegeneration,
		LastError:            notice,
	}
	v.ProgressPercent = Progress(v.CompletedCredits, v.TotalCreditsRequired)

	for i, b := range s.history {
		v.History[i] = newTermView(KindHistory, nil, b.Term, b.Courses, b.TotalCredits)
		v.History[i].Collapsed = true
	}
	current := plan.CurrentSlot()
	v.Current = newTermView(KindCurrent, &current, st.CurrentTerm, st.Current, st.CurrentCredits)
	for i, p := range st.Future {
		slot := plan.FutureSlot(i)
		v.Future[i] = newTermView(KindFuture, &slot, p.Name, p.Courses, p.TotalCredits)
	}
	return v
}

func newTermView(kind TermKind, slot *plan.Slot, name string, courses []course.Course, total int) TermView {
	if courses == nil {
		courses = []course.Course{}
	}
	return TermView{
		Kind:         kind,
		Slot:         slot,
		Term:         name,
		Courses:      courses,
		TotalCredits: total,
		Difficulty:   course.RateDifficulty(courses),
	}
}

// Progress is completed credits as a rounded percentage of required, capped
// at 100.
func Progress(completed, required int) int {
	if required <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(required) * 100))
	return min(pct, 100)
}
