// Package cli provides the qtmeta command-line interface: catalog listing,
// URL rule evaluation, and bulk combination tooling.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
	"github.com/clean-dependency-project/qtmeta/internal/config"
	"github.com/clean-dependency-project/qtmeta/internal/fetch"
	"github.com/clean-dependency-project/qtmeta/internal/logger"
	"github.com/clean-dependency-project/qtmeta/internal/meta"
)

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:     "qtmeta",
		Usage:    "Query Qt archive metadata and build download URLs",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "qtmeta.yaml",
				Usage:   "path to settings file",
				EnvVars: []string{"QTMETA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "archive mirror to query (overrides settings file)",
				EnvVars: []string{"QTMETA_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"QTMETA_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			newListCommand(),
			newURLCommand(),
			newCombosCommand(),
		},
	}
}

// appEnv is the per-invocation wiring shared by command actions.
type appEnv struct {
	settings *config.Settings
	logger   *slog.Logger
	fetcher  *fetch.Fetcher
}

// setup loads settings, applies global flag overrides, and builds the logger
// and fetcher.
func setup(c *cli.Context) (*appEnv, error) {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if base := c.String("base-url"); base != "" {
		settings.BaseURL = base
	}
	if level := c.String("log-level"); level != "" {
		settings.LogLevel = level
	}

	log, err := logger.New(settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Config{
		BaseURL:     settings.BaseURL,
		FallbackURL: settings.FallbackURL,
		Timeout:     settings.GetTimeout(),
	})

	return &appEnv{settings: settings, logger: log, fetcher: fetcher}, nil
}

// blacklist builds the tool blacklist from the loaded settings.
func (e *appEnv) blacklist() meta.Blacklist {
	return meta.Blacklist{
		Prefixes: e.settings.Blacklist.Prefixes,
		Suffixes: e.settings.Blacklist.Suffixes,
	}
}

// renderError prints a selection failure the way users expect it: the
// message first, then the suggested follow-up block when there is one. The
// returned error carries the exit code without repeating the message.
func renderError(err error) error {
	var selErr *archive.SelectionError
	if meta.AsSelectionError(err, &selErr) {
		fmt.Fprintln(os.Stderr, selErr.Msg)
		if block := meta.FormatSuggestedFollowUp(selErr.SuggestedAction); block != "" {
			fmt.Fprintln(os.Stderr, block)
		}
		return cli.Exit("", 1)
	}
	return err
}
