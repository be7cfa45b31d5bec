package course

import "strings"

// Pathway is a career track within a major: the course ids that make it up,
// grouped by priority.
type Pathway struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Major       string   `json:"major,omitempty" yaml:"major,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Core        []string `json:"core,omitempty" yaml:"core,omitempty"`
	Recommended []string `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	Optional    []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// CourseIDs returns core, recommended, then optional ids with duplicates
// (by normalized id) removed, first occurrence winning.
func (p Pathway) CourseIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{p.Core, p.Recommended, p.Optional} {
		for _, id := range group {
			key := NormalizeID(id)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(id))
		}
	}
	return out
}
