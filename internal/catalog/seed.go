package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/db"
	"github.com/hpungsan/termplan/internal/errors"
)

// Seed is the YAML catalog file format.
//
//	courses:
//	  - course_id: CS 101
//	    title: Intro to Programming
//	    credit_hours: 3
//	pathways:
//	  - id: swe
//	    label: Software Engineering
//	    core: [CS 101]
type Seed struct {
	Courses  []course.Course  `yaml:"courses"`
	Pathways []course.Pathway `yaml:"pathways"`
}

// ImportOutput reports what an import wrote.
type ImportOutput struct {
	Courses  int `json:"courses"`
	Pathways int `json:"pathways"`
}

// ParseSeed decodes a YAML catalog. Unknown keys are rejected so typos in
// hand-written catalogs surface early.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid catalog yaml: %v", err))
	}
	return &seed, nil
}

// ImportYAML parses a YAML catalog and upserts every course and pathway in
// one transaction. Nothing is written if any entry is rejected.
func ImportYAML(ctx context.Context, database *sql.DB, r io.Reader) (*ImportOutput, error) {
	seed, err := ParseSeed(r)
	if err != nil {
		return nil, err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range seed.Courses {
		if err := db.UpsertCourse(ctx, tx, &seed.Courses[i]); err != nil {
			return nil, err
		}
	}
	for i := range seed.Pathways {
		if err := db.UpsertPathway(ctx, tx, &seed.Pathways[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ImportOutput{Courses: len(seed.Courses), Pathways: len(seed.Pathways)}, nil
}
