package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clean-dependency-project/qtmeta/internal/combos"
	gh "github.com/clean-dependency-project/qtmeta/internal/github"
	"github.com/clean-dependency-project/qtmeta/internal/snapshot"
)

// newCombosCommand builds the bulk enumeration commands: generate the full
// combinations document, compare it against a checked-in copy, and publish a
// refresh as a pull request.
func newCombosCommand() *cli.Command {
	return &cli.Command{
		Name:  "combos",
		Usage: "Generate and reconcile the full combinations document",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Enumerate the whole catalog into a combinations file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: "combinations.json",
						Usage: "output file for the generated document",
					},
					&cli.StringFlag{
						Name:    "db",
						Usage:   "SQLite database recording enumeration runs",
						EnvVars: []string{"QTMETA_DB"},
					},
				},
				Action: combosGenerate,
			},
			{
				Name:  "compare",
				Usage: "Diff a fresh enumeration against a checked-in document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "against",
						Usage:    "checked-in combinations file to diff against",
						Required: true,
					},
				},
				Action: combosCompare,
			},
			{
				Name:  "publish",
				Usage: "Open a pull request refreshing the combinations file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "repo",
						Usage:    "target repository in owner/repo format",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "GitHub token with repo permissions",
						EnvVars: []string{"GITHUB_TOKEN"},
					},
					&cli.StringFlag{
						Name:  "path",
						Value: "combinations.json",
						Usage: "file path inside the repository",
					},
					&cli.StringFlag{
						Name:  "base",
						Usage: "base branch (repository default when empty)",
					},
				},
				Action: combosPublish,
			},
		},
	}
}

// generateDocument runs one full enumeration sweep with the configured
// fetcher, blacklist, and worker count.
func generateDocument(c *cli.Context, env *appEnv) (*combos.Document, time.Duration, error) {
	gen := &combos.Generator{
		Fetcher:   env.fetcher,
		Blacklist: env.blacklist(),
		Workers:   env.settings.Concurrency,
		Logger:    env.logger,
	}
	start := time.Now()
	doc, err := gen.Generate(c.Context)
	if err != nil {
		return nil, 0, err
	}
	return doc, time.Since(start), nil
}

func combosGenerate(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}

	doc, elapsed, err := generateDocument(c, env)
	if err != nil {
		return err
	}
	env.logger.Info("catalog enumeration complete",
		"qt", len(doc.Qt), "tools", len(doc.Tools), "versions", len(doc.Versions),
		"duration", elapsed)

	data, err := combos.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write combinations file: %w", err)
	}

	if dbPath := c.String("db"); dbPath != "" {
		db, err := snapshot.InitDB(snapshot.Config{DatabasePath: dbPath, LogLevel: "silent"})
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				env.logger.Error("failed to close database", "error", closeErr)
			}
		}()
		run := &snapshot.Run{
			BaseURL:   env.settings.BaseURL,
			StartedAt: time.Now().Add(-elapsed),
			Duration:  elapsed.Milliseconds(),
		}
		if err := db.RecordRun(run, doc); err != nil {
			return err
		}
		env.logger.Info("recorded enumeration run", "run_id", run.ID, "db", dbPath)
	}
	return nil
}

func combosCompare(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.String("against"))
	if err != nil {
		return fmt.Errorf("failed to read combinations file: %w", err)
	}
	expected, err := combos.UnmarshalDocument(data)
	if err != nil {
		return err
	}

	actual, _, err := generateDocument(c, env)
	if err != nil {
		return err
	}

	diffs := combos.Compare(actual, expected)
	if len(diffs) == 0 {
		fmt.Fprintln(c.App.Writer, "No drift detected.")
		return nil
	}

	title := cases.Title(language.English)
	lastSection := ""
	for _, d := range diffs {
		if d.Section != lastSection {
			fmt.Fprintf(c.App.Writer, "%s:\n", title.String(d.Section))
			lastSection = d.Section
		}
		fmt.Fprintf(c.App.Writer, "  %s\n", d)
	}
	return cli.Exit(fmt.Sprintf("%d differences found", len(diffs)), 1)
}

func combosPublish(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}

	doc, _, err := generateDocument(c, env)
	if err != nil {
		return err
	}
	data, err := combos.MarshalDocument(doc)
	if err != nil {
		return err
	}

	client, err := gh.NewClient(c.String("token"), c.String("repo"))
	if err != nil {
		return err
	}
	branch := fmt.Sprintf("combinations-refresh-%s", time.Now().UTC().Format("20060102T150405Z"))
	url, err := client.OpenUpdatePR(c.Context, gh.UpdateRequest{
		BaseBranch: c.String("base"),
		Branch:     branch,
		FilePath:   c.String("path"),
		Content:    data,
		CommitMsg:  "Refresh combinations document",
		Title:      "Refresh combinations document",
		Body: fmt.Sprintf("Automated catalog sweep: %d Qt combinations, %d tool variants, %d versions.",
			len(doc.Qt), len(doc.Tools), len(doc.Versions)),
	})
	if err != nil {
		return err
	}
	env.logger.Info("opened pull request", "url", url)
	fmt.Fprintln(c.App.Writer, url)
	return nil
}
