package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
	"github.com/clean-dependency-project/qtmeta/internal/meta"
	"github.com/clean-dependency-project/qtmeta/internal/table"
	"github.com/clean-dependency-project/qtmeta/internal/version"
)

// newListCommand builds the catalog listing command: versions, tools, and
// the per-version module/architecture/extension queries.
func newListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List versions, tools, modules, architectures, or extensions",
		ArgsUsage: "<category> <host> <target>",
		Description: "Category is qt5, qt6, or tools. Host is windows, linux, or mac.\n" +
			"Target is desktop, android, ios, or winrt depending on the host.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "extension",
				Usage: "archive extension (wasm, x86_64, x86, armv7, arm64_v8a)",
			},
			&cli.IntFlag{
				Name:  "filter-minor",
				Usage: "only list versions with this minor version",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "latest",
				Usage: "only list the single latest version",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "version output format (default, nested)",
			},
			&cli.StringFlag{
				Name:  "modules",
				Usage: "list the modules of this version ('latest' allowed)",
			},
			&cli.StringFlag{
				Name:  "arch",
				Usage: "list the architectures of this version ('latest' allowed)",
			},
			&cli.StringFlag{
				Name:  "extensions",
				Usage: "list the extensions of this version ('latest' allowed)",
			},
			&cli.StringFlag{
				Name:  "tool",
				Usage: "list the variants of this tool (tools category only)",
			},
			&cli.StringFlag{
				Name:  "long-tool",
				Usage: "render a long listing of this tool's variants",
			},
		},
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: qtmeta list <category> <host> <target>", 2)
	}
	env, err := setup(c)
	if err != nil {
		return err
	}

	id, err := archive.New(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), c.String("extension"))
	if err != nil {
		return renderError(err)
	}

	opts := meta.Options{
		LatestOnly:      c.Bool("latest"),
		ToolName:        c.String("tool"),
		ToolLongListing: c.String("long-tool"),
		ModulesVer:      c.String("modules"),
		ArchesVer:       c.String("arch"),
		ExtensionsVer:   c.String("extensions"),
		Blacklist:       env.blacklist(),
	}
	if minor := c.Int("filter-minor"); minor >= 0 {
		opts.MinorFilter = &minor
	}

	resolver := meta.NewResolver(id, env.fetcher, opts)
	env.logger.Debug("listing archive metadata", "archive", id.String())

	answer, err := resolver.List(c.Context)
	if err != nil {
		return renderError(err)
	}

	if tbl, ok := answer.(*table.Table); ok {
		tbl.Width = terminalWidth()
	}

	if answer.IsEmpty() {
		if block := meta.FormatSuggestedFollowUp(resolver.SuggestedFollowUp()); block != "" {
			fmt.Fprintln(c.App.ErrWriter, block)
		}
		return cli.Exit("", 1)
	}

	if versions, ok := answer.(version.Versions); ok {
		out, err := versions.Format(c.String("format"))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, out)
		return nil
	}
	fmt.Fprintln(c.App.Writer, answer.String())
	return nil
}

// terminalWidth reports the width the long listing should wrap to. COLUMNS
// takes precedence so scripts can pin the rendering; otherwise the terminal
// is queried. Zero means unconstrained.
func terminalWidth() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 0
}
