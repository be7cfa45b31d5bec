package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the directory holding config.json and the course catalog,
// both under the user's home and at a repository root.
const DirName = ".termplan"

// Config holds application configuration.
type Config struct {
	// CreditCap is the per-semester credit ceiling
	CreditCap int `json:"credit_cap"`

	// PlanningHorizon is the total number of semesters a plan spans,
	// counting finished terms and the current one.
	PlanningHorizon int `json:"planning_horizon"`

	// TotalCreditsRequired is the degree total progress is measured against
	TotalCreditsRequired int `json:"total_credits_required"`

	// RecommendationLimit caps the number of recommendations returned
	RecommendationLimit int `json:"recommendation_limit"`

	// RecommendationCandidates is how many pathway courses are looked up
	// before filtering and sorting.
	RecommendationCandidates int `json:"recommendation_candidates"`

	// SearchLimit caps course search results
	SearchLimit int `json:"search_limit"`

	// MinSearchChars is the shortest trimmed query that reaches the catalog
	MinSearchChars int `json:"min_search_chars"`

	// GeneratorTermCredits is the target load per term for the local generator.
	// It is a target, not a cap: CreditCap still bounds every semester.
	GeneratorTermCredits int `json:"generator_term_credits"`

	// GeneratorURL points at a remote schedule generator. Empty means the
	// built-in generator fills plans from the local catalog.
	GeneratorURL string `json:"generator_url,omitempty"`

	// GeneratorTimeoutSeconds bounds each remote generator call
	GeneratorTimeoutSeconds int `json:"generator_timeout_seconds"`

	// Offline forces the local generator even when GeneratorURL is set
	Offline bool `json:"offline,omitempty"`

	// LogLevel is a zap level name: debug, info, warn, error
	LogLevel string `json:"log_level"`

	// LogFormat is "json" or "console"
	LogFormat string `json:"log_format"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "plan", "course", "term", "pathway". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CreditCap:                20,
		PlanningHorizon:          8,
		TotalCreditsRequired:     120,
		RecommendationLimit:      8,
		RecommendationCandidates: 30,
		SearchLimit:              5,
		MinSearchChars:           2,
		GeneratorTermCredits:     15,
		GeneratorTimeoutSeconds:  10,
		LogLevel:                 "info",
		LogFormat:                "json",
	}
}

// GeneratorTimeout returns GeneratorTimeoutSeconds as a duration.
func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.GeneratorTimeoutSeconds) * time.Second
}

// UseRemoteGenerator reports whether plans come from GeneratorURL.
func (c *Config) UseRemoteGenerator() bool {
	return !c.Offline && strings.TrimSpace(c.GeneratorURL) != ""
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.termplan.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.termplan) and repo (.termplan) directories.
// Repo config is found by walking upward from startDir to find the nearest .termplan/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .termplan/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		CreditCap:                mergeInt(base.CreditCap, overlay.CreditCap),
		PlanningHorizon:          mergeInt(base.PlanningHorizon, overlay.PlanningHorizon),
		TotalCreditsRequired:     mergeInt(base.TotalCreditsRequired, overlay.TotalCreditsRequired),
		RecommendationLimit:      mergeInt(base.RecommendationLimit, overlay.RecommendationLimit),
		RecommendationCandidates: mergeInt(base.RecommendationCandidates, overlay.RecommendationCandidates),
		SearchLimit:              mergeInt(base.SearchLimit, overlay.SearchLimit),
		MinSearchChars:           mergeInt(base.MinSearchChars, overlay.MinSearchChars),
		GeneratorTermCredits:     mergeInt(base.GeneratorTermCredits, overlay.GeneratorTermCredits),
		GeneratorTimeoutSeconds:  mergeInt(base.GeneratorTimeoutSeconds, overlay.GeneratorTimeoutSeconds),
		DBMaxOpenConns:           mergeInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:           mergeInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),

		GeneratorURL: mergeString(base.GeneratorURL, overlay.GeneratorURL),
		LogLevel:     mergeString(base.LogLevel, overlay.LogLevel),
		LogFormat:    mergeString(base.LogFormat, overlay.LogFormat),
	}

	// Booleans: overlay wins if true, else base
	result.Offline = base.Offline || overlay.Offline

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// mergeInt returns overlay if non-zero, else base.
func mergeInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func mergeString(base, overlay string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
