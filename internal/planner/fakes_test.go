package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/config"
	"github.com/hpungsan/termplan/internal/course"
)

func mk(id string, credits int) course.Course {
	return course.Course{ID: id, Title: id, CreditHours: course.NewCredits(credits)}
}

func ids(courses []course.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.ID
	}
	return out
}

// fakeGenerator returns whatever fn returns and records requests.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []catalog.GenerateRequest
	fn    func(ctx context.Context, req catalog.GenerateRequest) (catalog.Schedule, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, req catalog.GenerateRequest) (catalog.Schedule, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	return g.fn(ctx, req)
}

func (g *fakeGenerator) requests() []catalog.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]catalog.GenerateRequest(nil), g.calls...)
}

func staticGenerator(schedule catalog.Schedule) *fakeGenerator {
	return &fakeGenerator{fn: func(context.Context, catalog.GenerateRequest) (catalog.Schedule, error) {
		return schedule, nil
	}}
}

// fakeCatalog serves courses and pathways from memory.
type fakeCatalog struct {
	mu       sync.Mutex
	courses  map[string]course.Course
	pathways map[string]course.Pathway
	searches int
	err      error
}

func newFakeCatalog(courses ...course.Course) *fakeCatalog {
	c := &fakeCatalog{
		courses:  make(map[string]course.Course),
		pathways: make(map[string]course.Pathway),
	}
	for _, x := range courses {
		c.courses[x.Key()] = x
	}
	return c
}

func (c *fakeCatalog) addPathway(p course.Pathway) {
	c.pathways[p.ID] = p
}

func (c *fakeCatalog) Search(_ context.Context, query string, limit int) ([]course.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches++
	if c.err != nil {
		return nil, c.err
	}

	q := course.NormalizeID(query)
	var keys []string
	for k := range c.courses {
		if strings.Contains(k, q) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var out []course.Course
	for _, k := range keys {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, c.courses[k])
	}
	return out, nil
}

func (c *fakeCatalog) Lookup(_ context.Context, id string) (*course.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	x, ok := c.courses[course.NormalizeID(id)]
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (c *fakeCatalog) Pathways(_ context.Context, major string) ([]course.Pathway, error) {
	var out []course.Pathway
	for _, p := range c.pathways {
		if major == "" || strings.EqualFold(p.Major, major) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *fakeCatalog) Pathway(_ context.Context, id string) (*course.Pathway, error) {
	p, ok := c.pathways[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeCatalog) searchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searches
}

// numberedIDs returns n identifiers PREFIX 100, PREFIX 101, ...
func numberedIDs(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, 100+i)
	}
	return out
}

func testConfig() *config.Config {
	return config.DefaultConfig()
}

func testIntake() Intake {
	return Intake{
		Major:        "Computer Science",
		CareerPathID: "swe",
		StartTerm:    "Fall 2023",
		CurrentTerm:  "Fall 2024",
		CurrentCourses: []course.Course{
			mk("CS 201", 3),
		},
		PreviousByTerm: map[string][]course.Course{
			"Fall 2023":   {mk("CS 101", 3), mk("MATH 101", 4)},
			"Spring 2024": {mk("CS 102", 3)},
		},
	}
}
