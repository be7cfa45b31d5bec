package mcp

import "github.com/mark3labs/mcp-go/mcp"

const sessionIDDesc = "Planning session id returned by plan_start"

const slotDesc = `"current" (or -1) for the in-progress term, or a 0-based future semester index`

var courseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"course_id":    map[string]any{"type": "string"},
		"title":        map[string]any{"type": "string"},
		"credit_hours": map[string]any{"type": []string{"number", "string"}},
	},
	"required": []string{"course_id"},
}

var planStartToolDef = mcp.NewTool("plan_start",
	mcp.WithDescription("Start a planning session from intake answers. Reconstructs finished terms, then generates future semesters unless generate is false. Returns the plan view."),
	mcp.WithString("current_term", mcp.Required(), mcp.Description(`Term in progress, e.g. "Fall 2024"`)),
	mcp.WithString("start_term", mcp.Description("Term the program began; omit if unknown")),
	mcp.WithString("career_path_id", mcp.Description("Pathway id from pathway_list")),
	mcp.WithString("career_path_name", mcp.Description("Display name for the career path")),
	mcp.WithString("major", mcp.Description("Declared major")),
	mcp.WithArray("current_courses", mcp.Description("Courses being taken this term"), mcp.Items(courseSchema)),
	mcp.WithObject("previous_by_term", mcp.Description("Finished courses keyed by term name; takes precedence over completed_courses")),
	mcp.WithArray("completed_courses", mcp.Description("Finished courses without term information"), mcp.Items(courseSchema)),
	mcp.WithBoolean("generate", mcp.Description("Generate future semesters now (default true)")),
)

var planViewToolDef = mcp.NewTool("plan_view",
	mcp.WithDescription("Show a planning session: finished terms, the current term, future semesters, progress, and the last generation error if any."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("json", "markdown", "html")),
)

var planAddToolDef = mcp.NewTool("plan_add",
	mcp.WithDescription("Add a catalog course to the plan. Without a slot the course goes to the earliest future semester with room. Rejected if it is already planned or would exceed the credit cap."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("course_id", mcp.Required(), mcp.Description(`Course identifier, e.g. "CS 101"`)),
	mcp.WithString("slot", mcp.Description(slotDesc)),
)

var planRemoveToolDef = mcp.NewTool("plan_remove",
	mcp.WithDescription("Remove a course from the current term or a future semester. Removing an absent course is a no-op."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("course_id", mcp.Required(), mcp.Description("Course identifier")),
)

var planMoveToolDef = mcp.NewTool("plan_move",
	mcp.WithDescription("Move a course between the current term and future semesters. Rejected if the destination would exceed the credit cap."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("course_id", mcp.Required(), mcp.Description("Course identifier")),
	mcp.WithString("from", mcp.Required(), mcp.Description(slotDesc)),
	mcp.WithString("to", mcp.Required(), mcp.Description(slotDesc)),
)

var planCareerToolDef = mcp.NewTool("plan_career",
	mcp.WithDescription("Switch the session to another career path and regenerate future semesters."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("career_path_id", mcp.Required(), mcp.Description("Pathway id from pathway_list")),
)

var planRegenerateToolDef = mcp.NewTool("plan_regenerate",
	mcp.WithDescription("Ask the schedule generator for fresh future semesters. On failure the previous plan is kept."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
)

var planRecommendToolDef = mcp.NewTool("plan_recommend",
	mcp.WithDescription("Recommend courses from the session's career path that are not yet planned, lowest level first."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
)

var courseSearchToolDef = mcp.NewTool("course_search",
	mcp.WithDescription("Search the course catalog by identifier or title. With a session id, courses already in that plan are left out."),
	mcp.WithString("query", mcp.Required(), mcp.Description("At least two characters")),
	mcp.WithString("session_id", mcp.Description(sessionIDDesc)),
)

var courseGetToolDef = mcp.NewTool("course_get",
	mcp.WithDescription("Fetch catalog details for one course."),
	mcp.WithString("course_id", mcp.Required(), mcp.Description("Course identifier")),
)

var termRangeToolDef = mcp.NewTool("term_range",
	mcp.WithDescription("List the Spring/Fall terms from start to end inclusive."),
	mcp.WithString("start", mcp.Required(), mcp.Description(`e.g. "Fall 2023"`)),
	mcp.WithString("end", mcp.Required(), mcp.Description(`e.g. "Spring 2025"`)),
)

var pathwayListToolDef = mcp.NewTool("pathway_list",
	mcp.WithDescription("List career pathways, optionally for one major."),
	mcp.WithString("major", mcp.Description("Filter by major (case-insensitive)")),
)
