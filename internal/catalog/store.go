package catalog

import (
	"context"
	"database/sql"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/db"
	"github.com/hpungsan/termplan/internal/errors"
)

// Store serves courses and pathways from the local sqlite catalog.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized catalog database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// Search implements CourseSource.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]course.Course, error) {
	return db.SearchCourses(ctx, s.db, query, limit)
}

// Lookup implements CourseSource.
func (s *Store) Lookup(ctx context.Context, id string) (*course.Course, error) {
	c, err := db.GetCourse(ctx, s.db, id)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// Pathways implements PathwaySource.
func (s *Store) Pathways(ctx context.Context, major string) ([]course.Pathway, error) {
	return db.ListPathways(ctx, s.db, major)
}

// Pathway implements PathwaySource.
func (s *Store) Pathway(ctx context.Context, id string) (*course.Pathway, error) {
	p, err := db.GetPathway(ctx, s.db, id)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// Count returns the number of catalog courses.
func (s *Store) Count(ctx context.Context) (int, error) {
	return db.CountCourses(ctx, s.db)
}
