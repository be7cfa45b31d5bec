package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/termplan/internal/config"
	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/logger"
	"github.com/hpungsan/termplan/internal/plan"
	"github.com/hpungsan/termplan/internal/planner"
	"github.com/hpungsan/termplan/internal/render"
	"github.com/hpungsan/termplan/internal/term"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps     Deps
	cfg      *config.Config
	log      *zap.Logger
	sessions *sessionRegistry
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{
		deps:     deps,
		cfg:      cfg,
		log:      logger.OrNop(deps.Logger),
		sessions: newSessionRegistry(),
	}
}

// Request types for each tool

// PlanStartRequest represents the arguments for plan_start.
type PlanStartRequest struct {
	planner.Intake
	Generate *bool `json:"generate,omitempty"`
}

// SessionRequest represents tools that take only a session id.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// PlanViewRequest represents the arguments for plan_view.
type PlanViewRequest struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format,omitempty"`
}

// PlanAddRequest represents the arguments for plan_add.
type PlanAddRequest struct {
	SessionID string     `json:"session_id"`
	CourseID  string     `json:"course_id"`
	Slot      *plan.Slot `json:"slot,omitempty"`
}

// PlanRemoveRequest represents the arguments for plan_remove.
type PlanRemoveRequest struct {
	SessionID string `json:"session_id"`
	CourseID  string `json:"course_id"`
}

// PlanMoveRequest represents the arguments for plan_move.
type PlanMoveRequest struct {
	SessionID string     `json:"session_id"`
	CourseID  string     `json:"course_id"`
	From      *plan.Slot `json:"from"`
	To        *plan.Slot `json:"to"`
}

// PlanCareerRequest represents the arguments for plan_career.
type PlanCareerRequest struct {
	SessionID    string `json:"session_id"`
	CareerPathID string `json:"career_path_id"`
}

// CourseSearchRequest represents the arguments for course_search.
type CourseSearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// CourseGetRequest represents the arguments for course_get.
type CourseGetRequest struct {
	CourseID string `json:"course_id"`
}

// TermRangeRequest represents the arguments for term_range.
type TermRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PathwayListRequest represents the arguments for pathway_list.
type PathwayListRequest struct {
	Major string `json:"major,omitempty"`
}

// Response types

// EditOutput is returned by tools that change a plan.
type EditOutput struct {
	Result plan.Result  `json:"result"`
	View   planner.View `json:"view"`
}

// CoursesOutput wraps a course list.
type CoursesOutput struct {
	Courses []course.Course `json:"courses"`
	Count   int             `json:"count"`
}

// TermRangeOutput wraps an enumerated term range.
type TermRangeOutput struct {
	Terms []string `json:"terms"`
	Count int      `json:"count"`
}

// PathwaysOutput wraps a pathway list.
type PathwaysOutput struct {
	Pathways []course.Pathway `json:"pathways"`
	Count    int              `json:"count"`
}

// HandlePlanStart handles the plan_start tool call.
func (h *Handlers) HandlePlanStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanStartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	s, err := planner.New(input.Intake, h.cfg, planner.Deps{
		Generator: h.deps.Generator,
		Courses:   h.deps.Courses,
		Pathways:  h.deps.Pathways,
		Logger:    h.log,
	})
	if err != nil {
		return errorResult(err), nil
	}
	for _, id := range h.sessions.add(s) {
		h.log.Info("evicted planning session", zap.String("session_id", id))
	}

	if input.Generate == nil || *input.Generate {
		// Failures are recorded on the view
		_ = s.Regenerate(ctx)
	}
	return successResult(s.View())
}

// HandlePlanView handles the plan_view tool call.
func (h *Handlers) HandlePlanView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanViewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	v := s.View()
	switch strings.ToLower(input.Format) {
	case "", "json":
		return successResult(v)
	case "markdown":
		return mcp.NewToolResultText(render.Markdown(v)), nil
	case "html":
		out, err := render.HTML(v)
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
	return errorResult(errors.NewInvalidRequest("format must be json, markdown, or html")), nil
}

// HandlePlanAdd handles the plan_add tool call.
func (h *Handlers) HandlePlanAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.AddCourse(ctx, input.CourseID, input.Slot)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(EditOutput{Result: res, View: s.View()})
}

// HandlePlanRemove handles the plan_remove tool call.
func (h *Handlers) HandlePlanRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.CourseID == "" {
		return errorResult(errors.NewInvalidRequest("course_id is required")), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.Apply(ctx, plan.RemoveCourse{CourseID: input.CourseID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(EditOutput{Result: res, View: s.View()})
}

// HandlePlanMove handles the plan_move tool call.
func (h *Handlers) HandlePlanMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanMoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.CourseID == "" || input.From == nil || input.To == nil {
		return errorResult(errors.NewInvalidRequest("course_id, from, and to are required")), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.Apply(ctx, plan.MoveCourse{CourseID: input.CourseID, From: *input.From, To: *input.To})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(EditOutput{Result: res, View: s.View()})
}

// HandlePlanCareer handles the plan_career tool call.
func (h *Handlers) HandlePlanCareer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanCareerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.ChangeCareerPath(ctx, input.CareerPathID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(EditOutput{Result: res, View: s.View()})
}

// HandlePlanRegenerate handles the plan_regenerate tool call.
func (h *Handlers) HandlePlanRegenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	if err := s.Regenerate(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(s.View())
}

// HandlePlanRecommend handles the plan_recommend tool call.
func (h *Handlers) HandlePlanRecommend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.sessions.get(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	recs := s.Recommend(ctx)
	return successResult(CoursesOutput{Courses: recs, Count: len(recs)})
}

// HandleCourseSearch handles the course_search tool call. Without a session
// the catalog is searched directly under the same length rule. A failed
// search returns no courses rather than an error.
func (h *Handlers) HandleCourseSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CourseSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.SessionID != "" {
		s, err := h.sessions.get(input.SessionID)
		if err != nil {
			return errorResult(err), nil
		}
		found := s.Search(ctx, input.Query)
		return successResult(CoursesOutput{Courses: found, Count: len(found)})
	}

	found := []course.Course{}
	query := strings.TrimSpace(input.Query)
	if h.deps.Courses != nil && utf8.RuneCountInString(query) >= h.cfg.MinSearchChars {
		results, err := h.deps.Courses.Search(ctx, query, h.cfg.SearchLimit)
		if err != nil {
			h.log.Warn("course search failed", zap.Error(err), zap.String("query", query))
		}
		found = append(found, results...)
	}
	return successResult(CoursesOutput{Courses: found, Count: len(found)})
}

// HandleCourseGet handles the course_get tool call.
func (h *Handlers) HandleCourseGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CourseGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if course.NormalizeID(input.CourseID) == "" {
		return errorResult(errors.NewInvalidRequest("course_id is required")), nil
	}
	if h.deps.Courses == nil {
		return errorResult(errors.NewUnavailable("course catalog")), nil
	}

	c, err := h.deps.Courses.Lookup(ctx, input.CourseID)
	if err != nil {
		return errorResult(err), nil
	}
	if c == nil {
		return errorResult(errors.NewNotFound(input.CourseID)), nil
	}
	return successResult(c)
}

// HandleTermRange handles the term_range tool call.
func (h *Handlers) HandleTermRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TermRangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	terms, ok := term.EnumerateInclusive(input.Start, input.End)
	if !ok {
		return errorResult(errors.NewInvalidRange(input.Start, input.End)), nil
	}
	return successResult(TermRangeOutput{Terms: terms, Count: len(terms)})
}

// HandlePathwayList handles the pathway_list tool call.
func (h *Handlers) HandlePathwayList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathwayListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.deps.Pathways == nil {
		return errorResult(errors.NewUnavailable("pathway catalog")), nil
	}

	paths, err := h.deps.Pathways.Pathways(ctx, input.Major)
	if err != nil {
		return errorResult(err), nil
	}
	if paths == nil {
		paths = []course.Pathway{}
	}
	return successResult(PathwaysOutput{Pathways: paths, Count: len(paths)})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var pErr *errors.PlanError
	if stderrors.As(err, &pErr) {
		// Keep any wrapping context, e.g. "intake: <message>"
		message := strings.TrimSuffix(err.Error(), pErr.Error()) + pErr.Message
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": message,
			"status":  pErr.Status,
		}
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
