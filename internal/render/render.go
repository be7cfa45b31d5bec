// Package render turns a planner view into Markdown or a standalone HTML page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/planner"
)

// Markdown renders v as a Markdown document: a summary, then one table per
// term. Collapsed terms are rendered as a single summary line.
func Markdown(v planner.View) string {
	var b strings.Builder

	title := "Degree Plan"
	if v.Major != "" {
		title = v.Major + " Degree Plan"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	if v.CareerPathName != "" {
		fmt.Fprintf(&b, "**Career path:** %s\n\n", escape(v.CareerPathName))
	}
	fmt.Fprintf(&b, "**Progress:** %d / %d credits (%d%%)\n\n",
		v.CompletedCredits, v.TotalCreditsRequired, v.ProgressPercent)

	if v.LastError != nil {
		fmt.Fprintf(&b, "> **Plan not updated:** %s\n\n", escape(v.LastError.Message))
	}
	if v.Loading {
		b.WriteString("> Generating a new plan...\n\n")
	} else if v.NeedsRegeneration {
		b.WriteString("> The future plan still reflects the previous career path.\n\n")
	}

	if len(v.History) > 0 {
		b.WriteString("## Completed\n\n")
		for _, t := range v.History {
			writeTerm(&b, t)
		}
	}

	b.WriteString("## Current\n\n")
	writeTerm(&b, v.Current)

	if len(v.Future) > 0 {
		b.WriteString("## Planned\n\n")
		for _, t := range v.Future {
			writeTerm(&b, t)
		}
	}
	return b.String()
}

func writeTerm(b *strings.Builder, t planner.TermView) {
	fmt.Fprintf(b, "### %s\n\n", escape(t.Term))
	fmt.Fprintf(b, "%d credits, difficulty %s\n\n", t.TotalCredits, t.Difficulty)

	if t.Collapsed {
		ids := make([]string, len(t.Courses))
		for i, c := range t.Courses {
			ids[i] = escape(c.ID)
		}
		if len(ids) > 0 {
			fmt.Fprintf(b, "%s\n\n", strings.Join(ids, ", "))
		}
		return
	}

	if len(t.Courses) == 0 {
		b.WriteString("_No courses._\n\n")
		return
	}

	b.WriteString("| Course | Title | Credits | Instructors | Offered |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, c := range t.Courses {
		fmt.Fprintf(b, "| %s | %s | %d | %s | %s |\n",
			escape(c.ID), escape(c.Title), c.Credits(),
			escape(course.InstructorNames(c.Instructors)), escape(course.OfferedSemesters(c.SemestersOffered)))
	}
	b.WriteString("\n")
}

// escape neutralizes characters that would break a table cell or start
// inline markup.
func escape(s string) string {
	r := strings.NewReplacer(
		"|", `\|`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"\n", " ",
	)
	return r.Replace(s)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
blockquote { border-left: 4px solid #c33; margin: 1rem 0; padding-left: 1rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title string
	Body  template.HTML
}

// HTML renders v as a self-contained HTML page.
func HTML(v planner.View) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(v)), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	title := "Degree Plan"
	if v.Major != "" {
		title = v.Major + " Degree Plan"
	}

	var out bytes.Buffer
	// goldmark escapes raw HTML in its input by default
	if err := page.Execute(&out, pageData{Title: title, Body: template.HTML(body.String())}); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return out.String(), nil
}
