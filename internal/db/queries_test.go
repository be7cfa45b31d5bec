package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 {
	return &f
}

func seedCourses(t *testing.T, db *sql.DB, courses ...course.Course) {
	t.Helper()
	for i := range courses {
		if err := UpsertCourse(context.Background(), db, &courses[i]); err != nil {
			t.Fatalf("UpsertCourse(%s) failed: %v", courses[i].ID, err)
		}
	}
}

func TestUpsertAndGetCourse(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := course.Course{
		ID:               "CS 101",
		Title:            "Intro to Programming",
		Department:       "CS",
		CreditHours:      course.NewCredits(map[string]any{"min": 3.0, "max": 4.0}),
		AvgDifficulty:    floatPtr(2.4),
		AvgGPA:           floatPtr(3.3),
		Description:      "Variables, loops, functions.",
		Instructors:      []any{"Ada Lovelace", "Grace Hopper"},
		SemestersOffered: []any{"Fall", "Spring"},
	}
	seedCourses(t, db, c)

	got, err := GetCourse(ctx, db, "cs101")
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.ID != "CS 101" {
		t.Errorf("ID = %q, want %q", got.ID, "CS 101")
	}
	if got.Title != c.Title || got.Department != "CS" || got.Description != c.Description {
		t.Errorf("text fields = %+v", got)
	}
	if got.Credits() != 3 {
		t.Errorf("Credits() = %d, want 3 (min of range)", got.Credits())
	}
	if got.AvgDifficulty == nil || *got.AvgDifficulty != 2.4 {
		t.Errorf("AvgDifficulty = %v, want 2.4", got.AvgDifficulty)
	}
	if got.AvgGPA == nil || *got.AvgGPA != 3.3 {
		t.Errorf("AvgGPA = %v, want 3.3", got.AvgGPA)
	}
	if names := course.InstructorNames(got.Instructors); names != "Ada Lovelace, Grace Hopper" {
		t.Errorf("InstructorNames = %q", names)
	}
	if offered := course.OfferedSemesters(got.SemestersOffered); offered != "Fall, Spring" {
		t.Errorf("OfferedSemesters = %q", offered)
	}
}

func TestUpsertCourse_ReplacesByNormalizedID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedCourses(t, db,
		course.Course{ID: "CS 101", Title: "Old", CreditHours: course.NewCredits(3)},
		course.Course{ID: "cs101", Title: "New", CreditHours: course.NewCredits(4)},
	)

	n, err := CountCourses(ctx, db)
	if err != nil {
		t.Fatalf("CountCourses failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountCourses = %d, want 1", n)
	}

	got, err := GetCourse(ctx, db, "CS 101")
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Title != "New" || got.Credits() != 4 {
		t.Errorf("got %q/%d, want New/4", got.Title, got.Credits())
	}
}

func TestUpsertCourse_Minimal(t *testing.T) {
	db := openTestDB(t)
	seedCourses(t, db, course.Course{ID: "ART 150"})

	got, err := GetCourse(context.Background(), db, "ART 150")
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if got.Title != "ART 150" {
		t.Errorf("Title = %q, want id fallback", got.Title)
	}
	if got.CreditHours.Raw() != nil {
		t.Errorf("CreditHours raw = %v, want nil", got.CreditHours.Raw())
	}
	if got.Credits() != course.DefaultCredits {
		t.Errorf("Credits() = %d, want %d", got.Credits(), course.DefaultCredits)
	}
	if got.AvgDifficulty != nil || got.Instructors != nil {
		t.Errorf("optional fields should be nil: %+v", got)
	}
}

func TestUpsertCourse_RequiresID(t *testing.T) {
	db := openTestDB(t)
	err := UpsertCourse(context.Background(), db, &course.Course{ID: "  ", Title: "Nothing"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := GetCourse(context.Background(), db, "NOPE 100")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetCourse should return ErrNotFound, got: %v", err)
	}
}

func TestSearchCourses(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedCourses(t, db,
		course.Course{ID: "CS 310", Title: "Databases"},
		course.Course{ID: "CS 101", Title: "Intro to Programming"},
		course.Course{ID: "MATH 210", Title: "Linear Algebra"},
		course.Course{ID: "DS 200", Title: "Data Science for CS majors"},
		course.Course{ID: "STAT 100", Title: "100% Probability"},
	)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "id prefix before title match", query: "cs", want: []string{"CS 101", "CS 310", "DS 200"}},
		{name: "whitespace-insensitive id", query: "cs3", want: []string{"CS 310"}},
		{name: "title, case-insensitive", query: "ALGEBRA", want: []string{"MATH 210"}},
		{name: "limit", query: "cs", limit: 2, want: []string{"CS 101", "CS 310"}},
		{name: "wildcards are literal", query: "%", want: []string{"STAT 100"}},
		{name: "no match", query: "zzz", want: []string{}},
		{name: "blank", query: "   ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchCourses(ctx, db, tt.query, tt.limit)
			if err != nil {
				t.Fatalf("SearchCourses failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SearchCourses(%q) = %d results, want %v", tt.query, len(got), tt.want)
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("result[%d] = %q, want %q", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestPathways(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	paths := []course.Pathway{
		{ID: "swe", Label: "Software Engineering", Major: "Computer Science", Core: []string{"CS 101", "CS 310"}, Optional: []string{"MATH 210"}},
		{ID: "ds", Label: "Data Science", Major: "computer science", Recommended: []string{"DS 200"}},
		{ID: "bio", Label: "Bioinformatics", Major: "Biology"},
	}
	for i := range paths {
		if err := UpsertPathway(ctx, db, &paths[i]); err != nil {
			t.Fatalf("UpsertPathway failed: %v", err)
		}
	}

	got, err := GetPathway(ctx, db, "swe")
	if err != nil {
		t.Fatalf("GetPathway failed: %v", err)
	}
	if got.Label != "Software Engineering" || len(got.Core) != 2 || got.Optional[0] != "MATH 210" {
		t.Errorf("GetPathway = %+v", got)
	}
	if got.Recommended != nil {
		t.Errorf("Recommended = %v, want nil", got.Recommended)
	}

	all, err := ListPathways(ctx, db, "")
	if err != nil {
		t.Fatalf("ListPathways failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "bio" || all[1].ID != "ds" || all[2].ID != "swe" {
		t.Errorf("ListPathways order = %+v", all)
	}

	cs, err := ListPathways(ctx, db, "COMPUTER SCIENCE")
	if err != nil {
		t.Fatalf("ListPathways failed: %v", err)
	}
	if len(cs) != 2 {
		t.Errorf("ListPathways(major) = %d, want 2", len(cs))
	}

	if _, err := GetPathway(ctx, db, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetPathway should return ErrNotFound, got: %v", err)
	}
	if err := UpsertPathway(ctx, db, &course.Pathway{Label: "No id"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestUpsertCourse_InTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := UpsertCourse(ctx, tx, &course.Course{ID: "CS 101"}); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := GetCourse(ctx, db, "CS 101"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("rolled back course still present: %v", err)
	}
}
