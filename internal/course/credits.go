package course

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultCredits is the department-standard load assumed when a course's
// credit hours are missing or unreadable.
const DefaultCredits = 3

var firstIntRegex = regexp.MustCompile(`\d+`)

// objectCreditKeys are consulted in order for keyed credit objects.
var objectCreditKeys = []string{"min", "max", "credits"}

// Credits holds a credit-hours value in whatever shape the catalog supplied:
// a number, a numeric range, free text, or an object with min/max/credits.
// The raw shape round-trips through JSON and YAML untouched.
type Credits struct {
	raw any
}

// NewCredits wraps a raw credit-hours value.
func NewCredits(raw any) Credits {
	return Credits{raw: raw}
}

// Raw returns the value as supplied.
func (c Credits) Raw() any {
	return c.raw
}

// Value returns the normalized credit hours.
func (c Credits) Value() int {
	return NormalizeCredits(c.raw)
}

// MarshalJSON implements json.Marshaler.
func (c Credits) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Credits) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.raw = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Credits) MarshalYAML() (any, error) {
	return c.raw, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Credits) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	c.raw = v
	return nil
}

// NormalizeCredits reduces any credit-hours shape to an integer. It never
// fails; unreadable input yields DefaultCredits.
//
//   - number: itself (fractions truncated)
//   - array: first element if it is a non-zero number or readable text
//   - string: first integer literal
//   - object: min, else max, else credits
func NormalizeCredits(raw any) int {
	switch v := raw.(type) {
	case nil:
		return DefaultCredits
	case Credits:
		return NormalizeCredits(v.raw)
	case *Credits:
		if v == nil {
			return DefaultCredits
		}
		return NormalizeCredits(v.raw)
	case string:
		return creditsFromText(v)
	case []any:
		if len(v) == 0 {
			return DefaultCredits
		}
		return creditsFromElement(v[0])
	case []int:
		if len(v) == 0 || v[0] == 0 {
			return DefaultCredits
		}
		return v[0]
	case []float64:
		if len(v) == 0 || v[0] == 0 {
			return DefaultCredits
		}
		return int(v[0])
	case map[string]any:
		for _, key := range objectCreditKeys {
			if n, ok := number(v[key]); ok && n != 0 {
				return n
			}
		}
		return DefaultCredits
	case map[string]int:
		for _, key := range objectCreditKeys {
			if n := v[key]; n != 0 {
				return n
			}
		}
		return DefaultCredits
	case map[string]float64:
		for _, key := range objectCreditKeys {
			if n := int(v[key]); n != 0 {
				return n
			}
		}
		return DefaultCredits
	}

	if n, ok := number(raw); ok {
		return n
	}
	return DefaultCredits
}

func creditsFromText(s string) int {
	match := firstIntRegex.FindString(s)
	if match == "" {
		return DefaultCredits
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return DefaultCredits
	}
	return n
}

func creditsFromElement(v any) int {
	if s, ok := v.(string); ok {
		return creditsFromText(s)
	}
	if n, ok := number(v); ok && n != 0 {
		return n
	}
	return DefaultCredits
}

// number converts any Go numeric (including json.Number) to an int.
func number(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return truncate(float64(n))
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return truncate(f)
		}
	}
	return 0, false
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// SumCredits totals the normalized credit hours of courses.
func SumCredits(courses []Course) int {
	total := 0
	for _, c := range courses {
		total += c.Credits()
	}
	return total
}
