package planner

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/plan"
)

func testCatalog() *fakeCatalog {
	cat := newFakeCatalog(
		mk("CS 201", 3),
		mk("CS 301", 3),
		mk("CS 302", 3),
		mk("CS 310", 3),
		mk("MATH 210", 4),
	)
	cat.addPathway(course.Pathway{
		ID:          "swe",
		Label:       "Software Engineering",
		Major:       "Computer Science",
		Core:        []string{"CS 301", "CS 201"},
		Recommended: []string{"MATH 210", "CS 301"},
		Optional:    []string{"CS 450"},
	})
	cat.addPathway(course.Pathway{
		ID:    "data",
		Label: "Data Engineering",
		Major: "Computer Science",
		Core:  []string{"CS 310"},
	})
	return cat
}

func newSession(t *testing.T, gen catalog.Generator, cat *fakeCatalog) *Session {
	t.Helper()
	s, err := New(testIntake(), testConfig(), Deps{Generator: gen, Courses: cat, Pathways: cat})
	require.NoError(t, err)
	return s
}

func twoTermSchedule() catalog.Schedule {
	return catalog.Schedule{
		{Term: "Spring 2025", Courses: []course.Course{mk("CS 301", 3), mk("CS 101", 3)}},
		{Term: "Fall 2025", Courses: []course.Course{mk("CS 302", 3)}},
	}
}

func TestNew(t *testing.T) {
	s := newSession(t, staticGenerator(nil), testCatalog())

	assert.Len(t, s.ID(), 26)
	assert.Equal(t, []string{"Fall 2023", "Spring 2024"}, s.History().Terms())
	assert.Equal(t, 10, s.History().Credits())

	st := s.State()
	assert.Equal(t, "Fall 2024", st.CurrentTerm)
	assert.Equal(t, []string{"CS 201"}, ids(st.Current))
	assert.Empty(t, st.Future)
	assert.Equal(t, "swe", st.CareerPathID)
	assert.Equal(t, DefaultCareerPathName, st.CareerPathName)

	assert.Equal(t, "Spring 2025", s.NextTerm())
	assert.Equal(t, 5, s.FutureTermLimit())
}

func TestNew_DropsCurrentCoursesAlreadyFinished(t *testing.T) {
	in := testIntake()
	in.CurrentCourses = append(in.CurrentCourses, mk("cs101", 3))

	s, err := New(in, nil, Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS 201"}, ids(s.State().Current))
}

func TestNew_InvalidIntake(t *testing.T) {
	in := testIntake()
	in.CurrentTerm = "Autumn 2024"
	_, err := New(in, nil, Deps{})
	assert.True(t, errors.Is(err, errors.ErrInvalidTerm))
}

func TestNew_UnwalkableTermsFallBack(t *testing.T) {
	tests := []struct {
		name        string
		start       string
		current     string
		wantTerms   []string
		wantDropped bool
	}{
		{"unknown start season", "Autumn 2023", "Fall 2024", []string{"Spring 2024"}, false},
		{"start after current", "Fall 2024", "Spring 2024", []string{"Fall 2023"}, false},
		{"summer current", "Fall 2023", "Summer 2024", []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			in := Intake{
				StartTerm:        tt.start,
				CurrentTerm:      tt.current,
				CompletedCourses: []course.Course{mk("CS 101", 3), mk("CS 102", 3)},
			}

			s, err := New(in, testConfig(), Deps{Logger: zap.New(core)})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTerms, s.History().Terms())
			assert.Equal(t, 1, logs.FilterMessage("start_term ignored: no term range to current term").Len())
			if tt.wantDropped {
				assert.Empty(t, s.History().Courses())
				assert.Equal(t, 1, logs.FilterMessage("completed courses left out of history").Len())
				return
			}
			assert.Equal(t, []string{"CS 101", "CS 102"}, ids(s.History().Courses()))
			assert.Zero(t, logs.FilterMessage("completed courses left out of history").Len())
		})
	}
}

func TestNew_NonPositiveCreditCapUsesDefault(t *testing.T) {
	cfg := testConfig()
	cfg.CreditCap = 0
	in := Intake{
		StartTerm:        "Fall 2023",
		CurrentTerm:      "Fall 2024",
		CompletedCourses: []course.Course{mk("A 101", 5), mk("A 102", 5), mk("A 103", 5), mk("A 104", 5), mk("A 105", 5)},
	}

	s, err := New(in, cfg, Deps{})
	require.NoError(t, err)

	h := s.History()
	require.Len(t, h, 2)
	assert.Len(t, h[0].Courses, 4)
	assert.Len(t, h[1].Courses, 1)
	assert.Equal(t, plan.DefaultCreditCap, s.View().CreditCap)
	assert.Equal(t, 0, cfg.CreditCap, "caller config is not modified")
}

func TestFutureTermLimit(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		current string
		horizon int
		want    int
	}{
		{"first term", "", "Fall 2024", 8, 7},
		{"start equals current", "Fall 2024", "Fall 2024", 8, 7},
		{"two finished", "Fall 2023", "Fall 2024", 8, 5},
		{"past horizon", "Fall 2019", "Fall 2024", 8, 0},
		{"custom horizon", "Spring 2024", "Fall 2024", 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.PlanningHorizon = tt.horizon
			s, err := New(Intake{StartTerm: tt.start, CurrentTerm: tt.current}, cfg, Deps{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.FutureTermLimit())
		})
	}
}

func TestRegenerate(t *testing.T) {
	gen := staticGenerator(twoTermSchedule())
	s := newSession(t, gen, testCatalog())

	require.NoError(t, s.Regenerate(context.Background()))

	reqs := gen.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Spring 2025", reqs[0].StartTerm)
	assert.Equal(t, "swe", reqs[0].CareerPathID)
	assert.Equal(t, 5, reqs[0].MaxFutureTerms)
	assert.Equal(t, []string{"CS 101", "MATH 101", "CS 102", "CS 201"}, ids(reqs[0].PriorCourses))

	st := s.State()
	require.Len(t, st.Future, 2)
	assert.Equal(t, []string{"CS 301"}, ids(st.Future[0].Courses), "finished course dropped")
	assert.Equal(t, 3, st.Future[0].TotalCredits)
	assert.False(t, s.View().Loading)
}

func TestRegenerate_FailureKeepsLastPlan(t *testing.T) {
	fail := false
	gen := &fakeGenerator{fn: func(context.Context, catalog.GenerateRequest) (catalog.Schedule, error) {
		if fail {
			return nil, stderrors.New("connection refused")
		}
		return twoTermSchedule(), nil
	}}
	s := newSession(t, gen, testCatalog())
	ctx := context.Background()

	require.NoError(t, s.Regenerate(ctx))
	before := s.State().Future

	fail = true
	err := s.Regenerate(ctx)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Equal(t, before, s.State().Future)

	v := s.View()
	require.NotNil(t, v.LastError)
	assert.Equal(t, errors.ErrUnavailable, v.LastError.Code)
	assert.False(t, v.Loading)

	fail = false
	require.NoError(t, s.Regenerate(ctx))
	assert.Nil(t, s.View().LastError, "success clears the notice")
}

func TestRegenerate_CodedErrorsPassThrough(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, catalog.GenerateRequest) (catalog.Schedule, error) {
		return nil, errors.NewNotFound("swe")
	}}
	s := newSession(t, gen, testCatalog())

	err := s.Regenerate(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegenerate_NoGenerator(t *testing.T) {
	s, err := New(testIntake(), nil, Deps{})
	require.NoError(t, err)
	assert.True(t, errors.Is(s.Regenerate(context.Background()), errors.ErrUnavailable))
}

func TestRegenerate_StaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	gen := &fakeGenerator{fn: func(context.Context, catalog.GenerateRequest) (catalog.Schedule, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return catalog.Schedule{{Term: "Spring 2025", Courses: []course.Course{mk("OLD 100", 3)}}}, nil
		}
		return catalog.Schedule{{Term: "Spring 2025", Courses: []course.Course{mk("NEW 100", 3)}}}, nil
	}}
	s := newSession(t, gen, testCatalog())
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- s.Regenerate(ctx) }()
	<-started
	assert.True(t, s.View().Loading)

	require.NoError(t, s.Regenerate(ctx))
	close(release)

	err := <-errc
	assert.True(t, errors.Is(err, errors.ErrStaleResponse))

	st := s.State()
	require.Len(t, st.Future, 1)
	assert.Equal(t, []string{"NEW 100"}, ids(st.Future[0].Courses))
	assert.False(t, s.View().Loading)
	assert.Nil(t, s.View().LastError, "stale results are not shown as failures")
}

func TestChangeCareerPath(t *testing.T) {
	gen := staticGenerator(twoTermSchedule())
	s := newSession(t, gen, testCatalog())
	ctx := context.Background()

	res, err := s.ChangeCareerPath(ctx, "data")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Regenerate)

	st := s.State()
	assert.Equal(t, "data", st.CareerPathID)
	assert.Equal(t, "Data Engineering", st.CareerPathName)
	assert.False(t, st.NeedsRegeneration)
	require.Len(t, gen.requests(), 1)
	assert.Equal(t, "data", gen.requests()[0].CareerPathID)

	res, err = s.ChangeCareerPath(ctx, "data")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, gen.requests(), 1, "re-selecting the active path does not regenerate")

	_, err = s.ChangeCareerPath(ctx, "astronaut")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, "data", s.State().CareerPathID)

	_, err = s.ChangeCareerPath(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestChangeCareerPath_RegenerationFailureStillApplies(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, catalog.GenerateRequest) (catalog.Schedule, error) {
		return nil, stderrors.New("timeout")
	}}
	s := newSession(t, gen, testCatalog())

	res, err := s.ChangeCareerPath(context.Background(), "data")
	require.NoError(t, err)
	assert.True(t, res.Changed)

	v := s.View()
	assert.Equal(t, "data", v.CareerPathID)
	assert.True(t, v.NeedsRegeneration)
	require.NotNil(t, v.LastError)
}

func TestAddCourse(t *testing.T) {
	s := newSession(t, staticGenerator(twoTermSchedule()), testCatalog())
	ctx := context.Background()
	require.NoError(t, s.Regenerate(ctx))

	res, err := s.AddCourse(ctx, "math 210", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Slot)
	assert.Equal(t, 0, res.Slot.Index())

	st := s.State()
	assert.Equal(t, []string{"CS 301", "MATH 210"}, ids(st.Future[0].Courses))
	assert.Equal(t, 7, st.Future[0].TotalCredits)

	current := plan.CurrentSlot()
	_, err = s.AddCourse(ctx, "BIO 999", &current)
	require.NoError(t, err)
	st = s.State()
	require.Len(t, st.Current, 2)
	assert.Equal(t, course.PlaceholderTitle, st.Current[1].Title, "unknown course becomes a placeholder")

	_, err = s.AddCourse(ctx, "CS 102", &current)
	assert.True(t, errors.Is(err, errors.ErrDuplicateCourse), "finished courses count as planned")

	_, err = s.AddCourse(ctx, " ", nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestApply_MoveAndRemove(t *testing.T) {
	s := newSession(t, staticGenerator(twoTermSchedule()), testCatalog())
	ctx := context.Background()
	require.NoError(t, s.Regenerate(ctx))

	_, err := s.Apply(ctx, plan.MoveCourse{CourseID: "CS 201", From: plan.CurrentSlot(), To: plan.FutureSlot(1)})
	require.NoError(t, err)

	st := s.State()
	assert.Empty(t, st.Current)
	assert.Equal(t, []string{"CS 302", "CS 201"}, ids(st.Future[1].Courses))

	res, err := s.Apply(ctx, plan.RemoveCourse{CourseID: "CS 302"})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = s.Apply(ctx, plan.RemoveCourse{CourseID: "CS 302"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestSession_IntakeRoundTrip(t *testing.T) {
	s := newSession(t, staticGenerator(nil), testCatalog())
	current := plan.CurrentSlot()
	_, err := s.AddCourse(context.Background(), "CS 310", &current)
	require.NoError(t, err)

	in := s.Intake()
	assert.Equal(t, "Fall 2023", in.StartTerm)
	assert.Equal(t, []string{"CS 201", "CS 310"}, ids(in.CurrentCourses))
	assert.Equal(t, []string{"CS 102"}, ids(in.PreviousByTerm["Spring 2024"]))

	b, err := FromIntake(in)
	require.NoError(t, err)
	rebuilt, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, ids(in.CurrentCourses), ids(rebuilt.CurrentCourses))
}

func TestSearch(t *testing.T) {
	cat := testCatalog()
	s := newSession(t, staticGenerator(nil), cat)
	ctx := context.Background()

	assert.Empty(t, s.Search(ctx, "c"))
	assert.Empty(t, s.Search(ctx, "  c  "))
	assert.Equal(t, 0, cat.searchCount(), "short queries never reach the catalog")

	got := s.Search(ctx, "cs")
	assert.Equal(t, []string{"CS 301", "CS 302", "CS 310"}, ids(got), "CS 201 is already planned")
	assert.Equal(t, 1, cat.searchCount())

	cat.err = stderrors.New("database is locked")
	assert.Empty(t, s.Search(ctx, "cs"))
}

func TestRecommend(t *testing.T) {
	s := newSession(t, staticGenerator(nil), testCatalog())

	got := s.Recommend(context.Background())
	assert.Equal(t, []string{"MATH 210", "CS 301", "CS 450"}, ids(got))
	assert.Equal(t, course.PlaceholderTitle, got[2].Title)
	assert.Equal(t, 3, got[2].Credits())
}

func TestRecommend_FallsBackWhenAllPlanned(t *testing.T) {
	cat := testCatalog()
	cat.addPathway(course.Pathway{ID: "intro", Label: "Intro", Core: []string{"CS 201"}})
	s := newSession(t, staticGenerator(nil), cat)
	_, err := s.ChangeCareerPath(context.Background(), "intro")
	require.NoError(t, err)

	assert.Equal(t, []string{"CS 201"}, ids(s.Recommend(context.Background())))
}

func TestRecommend_Limits(t *testing.T) {
	cat := testCatalog()
	all := numberedIDs("ENG", 40)
	reversed := make([]string, len(all))
	for i, id := range all {
		reversed[len(all)-1-i] = id
	}
	cat.addPathway(course.Pathway{ID: "big", Label: "Big", Optional: reversed})

	s := newSession(t, staticGenerator(nil), cat)
	_, err := s.ChangeCareerPath(context.Background(), "big")
	require.NoError(t, err)

	got := s.Recommend(context.Background())
	// Only the first 30 candidates (ENG 139 down to ENG 110) are considered
	assert.Equal(t, []string{
		"ENG 110", "ENG 111", "ENG 112", "ENG 113",
		"ENG 114", "ENG 115", "ENG 116", "ENG 117",
	}, ids(got))
}

func TestRecommend_NoPathway(t *testing.T) {
	in := testIntake()
	in.CareerPathID = "ghost"
	s, err := New(in, nil, Deps{Courses: testCatalog(), Pathways: testCatalog()})
	require.NoError(t, err)
	assert.Empty(t, s.Recommend(context.Background()))
}
