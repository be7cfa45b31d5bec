package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
)

// Querier is satisfied by *sql.DB and *sql.Tx, so imports can batch writes
// in one transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const courseColumns = `
	course_id, title, department, credit_hours_json,
	avg_difficulty, avg_gpa, description, instructors_json, semesters_json`

// UpsertCourse inserts a course or replaces the row with the same normalized id.
func UpsertCourse(ctx context.Context, q Querier, c *course.Course) error {
	key := c.Key()
	if key == "" {
		return errors.NewInvalidRequest("course_id is required")
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = strings.TrimSpace(c.ID)
	}

	var creditsJSON sql.NullString
	if c.CreditHours.Raw() != nil {
		data, err := json.Marshal(c.CreditHours)
		if err != nil {
			return errors.NewInternal(err)
		}
		creditsJSON = sql.NullString{String: string(data), Valid: true}
	}
	instructors, err := toNullJSON(c.Instructors)
	if err != nil {
		return errors.NewInternal(err)
	}
	semesters, err := toNullJSON(c.SemestersOffered)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO courses (
			course_key, course_id, title, department, credit_hours_json, level,
			avg_difficulty, avg_gpa, description, instructors_json, semesters_json, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_key) DO UPDATE SET
			course_id = excluded.course_id,
			title = excluded.title,
			department = excluded.department,
			credit_hours_json = excluded.credit_hours_json,
			level = excluded.level,
			avg_difficulty = excluded.avg_difficulty,
			avg_gpa = excluded.avg_gpa,
			description = excluded.description,
			instructors_json = excluded.instructors_json,
			semesters_json = excluded.semesters_json,
			updated_at = excluded.updated_at
	`

	_, err = q.ExecContext(ctx, query,
		key, strings.TrimSpace(c.ID), title, toNullString(c.Department), creditsJSON, course.Level(c.ID),
		toNullFloat(c.AvgDifficulty), toNullFloat(c.AvgGPA), toNullString(c.Description),
		instructors, semesters, time.Now().Unix(),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCourse retrieves a course by id; "cs101" and "CS 101" address the same row.
func GetCourse(ctx context.Context, q Querier, id string) (*course.Course, error) {
	query := `SELECT` + courseColumns + ` FROM courses WHERE course_key = ?`

	c, err := scanCourse(q.QueryRowContext(ctx, query, course.NormalizeID(id)))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// SearchCourses matches the query against course ids (whitespace-insensitive)
// and titles (case-insensitive). Id-prefix matches sort first, then by level.
// limit <= 0 returns every match.
func SearchCourses(ctx context.Context, q Querier, text string, limit int) ([]course.Course, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []course.Course{}, nil
	}
	if limit <= 0 {
		limit = -1
	}
	key := escapeLike(course.NormalizeID(text))

	query := `SELECT` + courseColumns + `
		FROM courses
		WHERE course_key LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\'
		ORDER BY (course_key LIKE ? ESCAPE '\') DESC, level, course_key
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, "%"+key+"%", "%"+escapeLike(text)+"%", key+"%", limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []course.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountCourses returns the number of catalog entries.
func CountCourses(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// UpsertPathway inserts or replaces a career pathway.
func UpsertPathway(ctx context.Context, q Querier, p *course.Pathway) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return errors.NewInvalidRequest("pathway id is required")
	}
	label := strings.TrimSpace(p.Label)
	if label == "" {
		label = id
	}

	core, err := toNullJSON(p.Core)
	if err != nil {
		return errors.NewInternal(err)
	}
	recommended, err := toNullJSON(p.Recommended)
	if err != nil {
		return errors.NewInternal(err)
	}
	optional, err := toNullJSON(p.Optional)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO pathways (id, label, major, description, core_json, recommended_json, optional_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			major = excluded.major,
			description = excluded.description,
			core_json = excluded.core_json,
			recommended_json = excluded.recommended_json,
			optional_json = excluded.optional_json,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		id, label, toNullString(p.Major), toNullString(p.Description),
		core, recommended, optional, time.Now().Unix(),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

const pathwayColumns = ` id, label, major, description, core_json, recommended_json, optional_json`

// GetPathway retrieves a pathway by id.
func GetPathway(ctx context.Context, q Querier, id string) (*course.Pathway, error) {
	query := `SELECT` + pathwayColumns + ` FROM pathways WHERE id = ?`

	p, err := scanPathway(q.QueryRowContext(ctx, query, strings.TrimSpace(id)))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// ListPathways returns pathways ordered by label. A non-empty major filters
// case-insensitively.
func ListPathways(ctx context.Context, q Querier, major string) ([]course.Pathway, error) {
	query := `SELECT` + pathwayColumns + ` FROM pathways`
	var args []any
	if m := strings.TrimSpace(major); m != "" {
		query += ` WHERE major = ? COLLATE NOCASE`
		args = append(args, m)
	}
	query += ` ORDER BY label, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []course.Pathway{}
	for rows.Next() {
		p, err := scanPathway(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCourse scans a single row into a Course.
func scanCourse(row scanner) (*course.Course, error) {
	var (
		c             course.Course
		department    sql.NullString
		creditsJSON   sql.NullString
		avgDifficulty sql.NullFloat64
		avgGPA        sql.NullFloat64
		description   sql.NullString
		instructors   sql.NullString
		semesters     sql.NullString
	)

	err := row.Scan(
		&c.ID, &c.Title, &department, &creditsJSON,
		&avgDifficulty, &avgGPA, &description, &instructors, &semesters,
	)
	if err != nil {
		return nil, err
	}

	c.Department = department.String
	c.Description = description.String
	c.AvgDifficulty = fromNullFloat(avgDifficulty)
	c.AvgGPA = fromNullFloat(avgGPA)

	if creditsJSON.Valid {
		if err := json.Unmarshal([]byte(creditsJSON.String), &c.CreditHours); err != nil {
			return nil, err
		}
	}
	if err := fromNullJSON(instructors, &c.Instructors); err != nil {
		return nil, err
	}
	if err := fromNullJSON(semesters, &c.SemestersOffered); err != nil {
		return nil, err
	}

	return &c, nil
}

// scanPathway scans a single row into a Pathway.
func scanPathway(row scanner) (*course.Pathway, error) {
	var (
		p           course.Pathway
		major       sql.NullString
		description sql.NullString
		core        sql.NullString
		recommended sql.NullString
		optional    sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Label, &major, &description, &core, &recommended, &optional); err != nil {
		return nil, err
	}
	p.Major = major.String
	p.Description = description.String

	for _, f := range []struct {
		col sql.NullString
		dst *[]string
	}{{core, &p.Core}, {recommended, &p.Recommended}, {optional, &p.Optional}} {
		if err := fromNullJSON(f.col, f.dst); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// toNullString stores blank strings as NULL.
func toNullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

// toNullJSON encodes v as JSON, storing nil and empty slices as NULL.
func toNullJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if s, ok := v.([]string); ok && len(s) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func fromNullJSON(ns sql.NullString, dst any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}
