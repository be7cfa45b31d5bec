package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/config"
	"github.com/hpungsan/termplan/internal/logger"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"plan", "course", "term", "pathway"}

// Deps are the collaborators shared by every session the server creates.
type Deps struct {
	Courses   catalog.CourseSource
	Pathways  catalog.PathwaySource
	Generator catalog.Generator
	Logger    *zap.Logger
}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"plan_start": {
		def:     planStartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanStart },
	},
	"plan_view": {
		def:     planViewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanView },
	},
	"plan_add": {
		def:     planAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanAdd },
	},
	"plan_remove": {
		def:     planRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanRemove },
	},
	"plan_move": {
		def:     planMoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanMove },
	},
	"plan_career": {
		def:     planCareerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanCareer },
	},
	"plan_regenerate": {
		def:     planRegenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanRegenerate },
	},
	"plan_recommend": {
		def:     planRecommendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanRecommend },
	},
	"course_search": {
		def:     courseSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCourseSearch },
	},
	"course_get": {
		def:     courseGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCourseGet },
	},
	"term_range": {
		def:     termRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTermRange },
	},
	"pathway_list": {
		def:     pathwayListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePathwayList },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "plan_add" → "plan").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the planning tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(deps Deps, cfg *config.Config, version string) *server.MCPServer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := logger.OrNop(deps.Logger)

	s := server.NewMCPServer(
		"termplan",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps, cfg)

	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("ignoring unknown disabled types", zap.Strings("types", unknown))
	}
	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("ignoring unknown disabled tools", zap.Strings("tools", unknown))
	}

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	registered := 0
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
		registered++
	}
	log.Debug("mcp tools registered", zap.Int("count", registered))

	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps Deps, cfg *config.Config, version string) error {
	s := NewServer(deps, cfg, version)
	return server.ServeStdio(s)
}
