package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/config"
	"github.com/hpungsan/termplan/internal/course"
	"github.com/hpungsan/termplan/internal/errors"
	"github.com/hpungsan/termplan/internal/logger"
	"github.com/hpungsan/termplan/internal/mcp"
	"github.com/hpungsan/termplan/internal/planner"
	"github.com/hpungsan/termplan/internal/render"
	"github.com/hpungsan/termplan/internal/term"
)

// maxIntakeBytes bounds intake JSON read from stdin.
const maxIntakeBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	app := &cli.App{
		Name:    "termplan",
		Usage:   "Degree planning: term ranges, course catalog, semester plans",
		Version: Version,
		Commands: []*cli.Command{
			termsCmd(),
			catalogCmd(db, cfg),
			pathwaysCmd(db),
			planCmd(db, cfg, log),
			recommendCmd(db, cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// newDeps wires the catalog store and the configured schedule generator.
func newDeps(db *sql.DB, cfg *config.Config, log *zap.Logger) mcp.Deps {
	store := catalog.NewStore(db)
	var gen catalog.Generator
	if cfg.UseRemoteGenerator() {
		gen = catalog.NewRemoteGenerator(cfg.GeneratorURL, cfg.GeneratorTimeout())
	} else {
		gen = catalog.NewLocalGenerator(store, store, cfg.CreditCap, cfg.GeneratorTermCredits)
	}
	return mcp.Deps{
		Courses:   store,
		Pathways:  store,
		Generator: gen,
		Logger:    logger.OrNop(log),
	}
}

// termsCmd creates the terms command.
func termsCmd() *cli.Command {
	return &cli.Command{
		Name:      "terms",
		Usage:     "List the Spring/Fall terms between two terms, inclusive",
		ArgsUsage: "<start> <end>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("terms requires <start> and <end>"))
			}
			start, end := c.Args().Get(0), c.Args().Get(1)
			terms, ok := term.EnumerateInclusive(start, end)
			if !ok {
				return outputError(errors.NewInvalidRange(start, end))
			}
			return outputJSON(mcp.TermRangeOutput{Terms: terms, Count: len(terms)})
		},
	}
}

// catalogCmd creates the catalog command group.
func catalogCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Manage and query the local course catalog",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import courses and pathways from a YAML seed file (or stdin)",
				ArgsUsage: "[file]",
				Action: func(c *cli.Context) error {
					var r io.Reader
					switch path := c.Args().First(); {
					case path != "" && path != "-":
						f, err := os.Open(path)
						if err != nil {
							return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot open %s: %v", path, err)))
						}
						defer f.Close()
						r = f
					case stdinHasData():
						r = os.Stdin
					default:
						return outputError(errors.NewInvalidRequest("seed file path or piped YAML is required"))
					}

					output, err := catalog.ImportYAML(c.Context, db, r)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "search",
				Usage:     "Search courses by identifier or title",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: cfg.SearchLimit, Usage: "Maximum results"},
				},
				Action: func(c *cli.Context) error {
					query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
					if query == "" {
						return outputError(errors.NewInvalidRequest("query is required"))
					}
					if c.Int("limit") <= 0 {
						return outputError(errors.NewInvalidRequest("limit must be positive"))
					}
					found, err := catalog.NewStore(db).Search(c.Context, query, c.Int("limit"))
					if err != nil {
						return outputError(err)
					}
					if found == nil {
						found = []course.Course{}
					}
					return outputJSON(mcp.CoursesOutput{Courses: found, Count: len(found)})
				},
			},
			{
				Name:      "show",
				Usage:     "Show one course",
				ArgsUsage: "<course-id>",
				Action: func(c *cli.Context) error {
					id := strings.Join(c.Args().Slice(), " ")
					if course.NormalizeID(id) == "" {
						return outputError(errors.NewInvalidRequest("course id is required"))
					}
					found, err := catalog.NewStore(db).Lookup(c.Context, id)
					if err != nil {
						return outputError(err)
					}
					if found == nil {
						return outputError(errors.NewNotFound(id))
					}
					return outputJSON(found)
				},
			},
		},
	}
}

// pathwaysCmd creates the pathways command.
func pathwaysCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "pathways",
		Usage: "List career pathways",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "major", Aliases: []string{"m"}, Usage: "Filter by major"},
		},
		Action: func(c *cli.Context) error {
			found, err := catalog.NewStore(db).Pathways(c.Context, c.String("major"))
			if err != nil {
				return outputError(err)
			}
			if found == nil {
				found = []course.Pathway{}
			}
			return outputJSON(mcp.PathwaysOutput{Pathways: found, Count: len(found)})
		},
	}
}

// planCmd creates the plan command.
func planCmd(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Build a semester plan (reads intake JSON from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|markdown|html"},
			&cli.BoolFlag{Name: "no-generate", Usage: "Only reconstruct finished terms; skip the schedule generator"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != "json" && format != "markdown" && format != "html" {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q", format)))
			}

			s, err := sessionFromStdin(db, cfg, log)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("no-generate") {
				if err := s.Regenerate(c.Context); err != nil {
					return outputError(err)
				}
			}

			view := s.View()
			switch format {
			case "markdown":
				_, err = fmt.Fprint(os.Stdout, render.Markdown(view))
				return err
			case "html":
				page, err := render.HTML(view)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				_, err = fmt.Fprint(os.Stdout, page)
				return err
			}
			return outputJSON(view)
		},
	}
}

// recommendCmd creates the recommend command.
func recommendCmd(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Recommend unplanned courses from the career path (reads intake JSON from stdin)",
		Action: func(c *cli.Context) error {
			s, err := sessionFromStdin(db, cfg, log)
			if err != nil {
				return outputError(err)
			}
			found := s.Recommend(c.Context)
			return outputJSON(mcp.CoursesOutput{Courses: found, Count: len(found)})
		},
	}
}

// sessionFromStdin reads an intake from stdin and starts a session for it.
func sessionFromStdin(db *sql.DB, cfg *config.Config, log *zap.Logger) (*planner.Session, error) {
	if !stdinHasData() {
		return nil, errors.NewInvalidRequest("intake JSON must be piped via stdin")
	}
	data, err := readStdin(maxIntakeBytes)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if data == "" {
		return nil, errors.NewInvalidRequest("intake is required")
	}

	var in planner.Intake
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid intake: %v", err))
	}

	deps := newDeps(db, cfg, log)
	return planner.New(in, cfg, planner.Deps{
		Generator: deps.Generator,
		Courses:   deps.Courses,
		Pathways:  deps.Pathways,
		Logger:    deps.Logger,
	})
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pErr *errors.PlanError
	if stderrors.As(err, &pErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
