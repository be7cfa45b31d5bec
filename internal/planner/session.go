// Package planner runs one student's planning session: it reconstructs the
// finished terms, owns the editable plan, and talks to the catalog and
// schedule generator.
package planner

import (
	"context"
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/config"
	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/logger"
	"github.com/hpungsan/termplan/internal/plan"
	"github.com/hpungsan/termplan/internal/term"
)

// Deps are a session's collaborators.
type Deps struct {
	Generator catalog.Generator
	Courses   catalog.CourseSource
	Pathways  catalog.PathwaySource
	Logger    *zap.Logger
}

// Session is a single planning session. All plan edits go through its
// Mutator; generation results are applied only if no newer generation was
// started in the meantime.
type Session struct {
	id     string
	cfg    config.Config
	deps   Deps
	log    *zap.Logger
	intake Intake

	history plan.History
	mutator *plan.Mutator

	mu      sync.Mutex
	token   string
	loading bool
	lastErr *errors.PlanError
}

// New starts a session from an intake. It does not generate a plan; call
// Regenerate for that.
func New(in Intake, cfg *config.Config, deps Deps) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	conf := *cfg
	if conf.CreditCap <= 0 {
		conf.CreditCap = plan.DefaultCreditCap
	}

	history := plan.ReconstructHistory(plan.HistoryInput{
		Start:     in.StartTerm,
		Current:   in.CurrentTerm,
		ByTerm:    in.PreviousByTerm,
		Completed: in.CompletedCourses,
	}, conf.CreditCap)

	completed := history.Courses()
	done := course.NewIDSet(completed)
	current := make([]course.Course, 0, len(in.CurrentCourses))
	for _, c := range in.CurrentCourses {
		if !done.Has(c.ID) {
			current = append(current, c)
		}
	}

	s := &Session{
		id:      newID(),
		cfg:     conf,
		deps:    deps,
		intake:  in,
		history: history,
		mutator: plan.NewMutator(conf.CreditCap, in.CurrentTerm, current, completed),
	}
	s.log = logger.OrNop(deps.Logger).With(zap.String("session_id", s.id))
	if in.StartTerm != "" {
		if _, ok := term.EnumerateInclusive(in.StartTerm, in.CurrentTerm); !ok {
			s.log.Warn("start_term ignored: no term range to current term",
				zap.String("start_term", in.StartTerm),
				zap.String("current_term", in.CurrentTerm),
			)
		}
	}
	if n := len(in.CompletedCourses) - len(completed); len(in.PreviousByTerm) == 0 && n > 0 {
		s.log.Warn("completed courses left out of history", zap.Int("count", n))
	}

	name := in.CareerPathName
	if name == "" && in.CareerPathID != "" {
		name = DefaultCareerPathName
	}
	s.mutator.SetCareerPath(in.CareerPathID, name)

	s.log.Debug("session started",
		zap.String("current_term", in.CurrentTerm),
		zap.Int("finished_terms", len(history)),
		zap.Int("completed_courses", len(completed)),
	)
	return s, nil
}

// newID generates a ULID.
func newID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// History returns the finished-term record.
func (s *Session) History() plan.History {
	return s.history
}

// State returns a snapshot of the editable plan.
func (s *Session) State() plan.State {
	return s.mutator.Snapshot()
}

// Intake rebuilds an intake from the session, for returning to the wizard.
func (s *Session) Intake() Intake {
	st := s.mutator.Snapshot()
	byTerm := make(map[string][]course.Course, len(s.history))
	for _, b := range s.history {
		byTerm[b.Term] = append([]course.Course{}, b.Courses...)
	}
	return Intake{
		Major:            s.intake.Major,
		CareerPathID:     st.CareerPathID,
		CareerPathName:   st.CareerPathName,
		StartTerm:        s.intake.StartTerm,
		CurrentTerm:      st.CurrentTerm,
		CurrentCourses:   st.Current,
		PreviousByTerm:   byTerm,
		CompletedCourses: s.history.Courses(),
	}
}

// FutureTermLimit is how many future semesters fit in the planning horizon
// after the finished terms and the current one.
func (s *Session) FutureTermLimit() int {
	start := s.intake.StartTerm
	if start == "" {
		start = s.intake.CurrentTerm
	}
	finished := 0
	if terms, ok := term.EnumerateInclusive(start, s.intake.CurrentTerm); ok {
		finished = len(terms) - 1
	}
	return max(0, s.cfg.PlanningHorizon-(finished+1))
}

// NextTerm is the first term a generated plan covers.
func (s *Session) NextTerm() string {
	cur, _ := term.Parse(s.intake.CurrentTerm)
	next, _ := term.Successor(cur)
	return next.String()
}

// Regenerate asks the generator for a fresh future plan. Failures keep the
// last good plan and are recorded for the view. A result that arrives after a
// newer Regenerate started is discarded with STALE_RESPONSE.
func (s *Session) Regenerate(ctx context.Context) error {
	if s.deps.Generator == nil {
		return errors.NewUnavailable("schedule generator")
	}

	s.mu.Lock()
	token := newID()
	s.token = token
	s.loading = true
	s.mu.Unlock()

	st := s.mutator.Snapshot()
	prior := append(s.history.Courses(), st.Current...)
	req := catalog.GenerateRequest{
		StartTerm:      s.NextTerm(),
		CareerPathID:   st.CareerPathID,
		PriorCourses:   prior,
		MaxFutureTerms: s.FutureTermLimit(),
	}

	schedule, err := s.deps.Generator.Generate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		s.log.Info("discarding stale plan", zap.String("request_token", token), zap.String("career_path_id", req.CareerPathID))
		return errors.NewStaleResponse(token)
	}
	s.loading = false

	if err != nil {
		s.lastErr = s.generationError(err)
		s.log.Warn("plan generation failed",
			zap.Error(err),
			zap.String("career_path_id", req.CareerPathID),
			zap.String("start_term", req.StartTerm),
		)
		return s.lastErr
	}

	s.mutator.LoadFuture(schedule.Semesters())
	s.lastErr = nil
	s.log.Debug("plan generated", zap.Int("semesters", len(schedule)))
	return nil
}

// generationError keeps coded errors from the generator and reports
// everything else as the generator being unavailable.
func (s *Session) generationError(err error) *errors.PlanError {
	switch {
	case errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrInvalidTerm), errors.Is(err, errors.ErrInvalidRequest):
		return errors.As(err)
	}
	return errors.NewUnavailable("schedule generator")
}

// Apply runs a plan command. A career-path change triggers regeneration; a
// generation failure there does not fail the command, it shows up in View.
func (s *Session) Apply(ctx context.Context, cmd plan.Command) (plan.Result, error) {
	res, err := s.mutator.Apply(cmd)
	if err != nil {
		return res, err
	}
	if res.Regenerate {
		_ = s.Regenerate(ctx)
	}
	return res, nil
}

// AddCourse looks up a course by id and adds it to target, or to the earliest
// semester with room when target is nil.
func (s *Session) AddCourse(ctx context.Context, courseID string, target *plan.Slot) (plan.Result, error) {
	if course.NormalizeID(courseID) == "" {
		return plan.Result{}, errors.NewInvalidRequest("course_id is required")
	}
	c := s.Lookup(ctx, courseID)
	return s.Apply(ctx, plan.AddCourse{Course: c, Target: target})
}

// ChangeCareerPath switches to another pathway and regenerates the plan.
func (s *Session) ChangeCareerPath(ctx context.Context, pathID string) (plan.Result, error) {
	if pathID == "" {
		return plan.Result{}, errors.NewInvalidRequest("career_path_id is required")
	}
	name := pathID
	if s.deps.Pathways != nil {
		p, err := s.deps.Pathways.Pathway(ctx, pathID)
		switch {
		case err != nil:
			s.log.Warn("pathway lookup failed", zap.Error(err), zap.String("career_path_id", pathID))
		case p == nil:
			return plan.Result{}, errors.NewNotFound(pathID)
		default:
			name = p.Label
		}
	}
	return s.Apply(ctx, plan.ChangeCareerPath{PathID: pathID, PathName: name})
}

// Lookup returns catalog details for a course, or a placeholder when the
// catalog has none or cannot be reached.
func (s *Session) Lookup(ctx context.Context, id string) course.Course {
	if s.deps.Courses == nil {
		return course.Placeholder(id)
	}
	c, err := s.deps.Courses.Lookup(ctx, id)
	if err != nil {
		s.log.Warn("course lookup failed", zap.Error(err), zap.String("course_id", id))
		return course.Placeholder(id)
	}
	if c == nil {
		return course.Placeholder(id)
	}
	return *c
}

// Search finds catalog courses not already in the plan. Queries shorter than
// MinSearchChars return nothing without touching the catalog.
func (s *Session) Search(ctx context.Context, query string) []course.Course {
	out := []course.Course{}
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.cfg.MinSearchChars || s.deps.Courses == nil {
		return out
	}
	results, err := s.deps.Courses.Search(ctx, query, s.cfg.SearchLimit)
	if err != nil {
		s.log.Warn("course search failed", zap.Error(err), zap.String("query", query))
		return out
	}
	planned := s.mutator.Planned()
	for _, c := range results {
		if !planned.Has(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Recommend lists pathway courses not yet planned, lowest level first. When
// every candidate is already planned the unfiltered list is returned so the
// student always sees something.
func (s *Session) Recommend(ctx context.Context) []course.Course {
	out := []course.Course{}
	pathID := s.mutator.Snapshot().CareerPathID
	if pathID == "" || s.deps.Pathways == nil {
		return out
	}
	p, err := s.deps.Pathways.Pathway(ctx, pathID)
	if err != nil {
		s.log.Warn("pathway lookup failed", zap.Error(err), zap.String("career_path_id", pathID))
		return out
	}
	if p == nil {
		return out
	}

	ids := p.CourseIDs()
	if n := s.cfg.RecommendationCandidates; n > 0 && len(ids) > n {
		ids = ids[:n]
	}

	details := make([]course.Course, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			details[i] = s.Lookup(ctx, id)
		}(i, id)
	}
	wg.Wait()

	byLevel := func(list []course.Course) {
		sort.SliceStable(list, func(i, j int) bool {
			return course.Level(list[i].ID) < course.Level(list[j].ID)
		})
	}

	planned := s.mutator.Planned()
	for _, c := range details {
		if !planned.Has(c.ID) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, details...)
	}
	byLevel(out)

	if n := s.cfg.RecommendationLimit; n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
