package course

import (
	"fmt"
	"sort"
	"strings"
)

// Difficulty buckets the average difficulty of a set of courses.
type Difficulty string

const (
	DifficultyUnknown Difficulty = "Unknown"
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
)

const (
	easyMaxDifficulty   = 2.5
	mediumMaxDifficulty = 3.5
)

// RateDifficulty averages the known difficulties of courses. Courses without
// a difficulty are ignored; if none have one the result is Unknown.
func RateDifficulty(courses []Course) Difficulty {
	total, count := 0.0, 0
	for _, c := range courses {
		if c.AvgDifficulty == nil {
			continue
		}
		total += *c.AvgDifficulty
		count++
	}
	if count == 0 {
		return DifficultyUnknown
	}

	avg := total / float64(count)
	switch {
	case avg <= easyMaxDifficulty:
		return DifficultyEasy
	case avg <= mediumMaxDifficulty:
		return DifficultyMedium
	}
	return DifficultyHard
}

// InstructorNames renders up to two distinct instructor names, or "Staff".
func InstructorNames(instructors any) string {
	var names []string
	switch v := instructors.(type) {
	case nil:
		return "Staff"
	case string:
		names = []string{v}
	case []string:
		names = v
	case []any:
		for _, n := range v {
			names = append(names, fmt.Sprint(n))
		}
	case map[string]any:
		names = sortedKeys(v)
	default:
		return "Staff"
	}

	seen := make(map[string]bool, len(names))
	distinct := make([]string, 0, 2)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		distinct = append(distinct, strings.Replace(n, ",", "", 1))
		if len(distinct) == 2 {
			break
		}
	}
	if len(distinct) == 0 {
		return "Staff"
	}
	return strings.Join(distinct, ", ")
}

// OfferedSemesters renders the seasons a course runs in.
func OfferedSemesters(offered any) string {
	const fallback = "Fall, Spring"

	switch v := offered.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := sortedKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprint(v[k])
		}
		if len(parts) == 0 {
			return fallback
		}
		return strings.Join(parts, ", ")
	}
	return "Unknown"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
