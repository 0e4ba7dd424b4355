// Package main provides the combogen batch command: one full catalog
// enumeration written to a combinations file and recorded in the run
// database. CI invokes it on a schedule.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/qtmeta/internal/combos"
	"github.com/clean-dependency-project/qtmeta/internal/config"
	"github.com/clean-dependency-project/qtmeta/internal/fetch"
	"github.com/clean-dependency-project/qtmeta/internal/logger"
	"github.com/clean-dependency-project/qtmeta/internal/meta"
	"github.com/clean-dependency-project/qtmeta/internal/snapshot"
)

func main() {
	app := &cli.App{
		Name:  "combogen",
		Usage: "Enumerate the Qt archive catalog into a combinations file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "qtmeta.yaml",
				Usage:   "path to settings file",
				EnvVars: []string{"QTMETA_CONFIG"},
			},
			&cli.StringFlag{
				Name:     "out",
				Usage:    "output file for the generated document",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database recording enumeration runs",
				EnvVars: []string{"QTMETA_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"QTMETA_LOG_LEVEL"},
			},
		},
		Action: runCombogen,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// runCombogen executes the enumeration sweep.
func runCombogen(c *cli.Context) error {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	lg, err := logger.New(c.String("log-level"), settings.LogFormat)
	if err != nil {
		return err
	}

	fetcher := fetch.New(fetch.Config{
		BaseURL:     settings.BaseURL,
		FallbackURL: settings.FallbackURL,
		Timeout:     settings.GetTimeout(),
	})
	gen := &combos.Generator{
		Fetcher: fetcher,
		Blacklist: meta.Blacklist{
			Prefixes: settings.Blacklist.Prefixes,
			Suffixes: settings.Blacklist.Suffixes,
		},
		Workers: settings.Concurrency,
		Logger:  lg,
	}

	start := time.Now()
	doc, err := gen.Generate(c.Context)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	lg.Info("catalog enumeration complete",
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
				lg.Error("failed to close database", "error", closeErr)
			}
		}()
		run := &snapshot.Run{
			BaseURL:   settings.BaseURL,
			StartedAt: start,
			Duration:  elapsed.Milliseconds(),
		}
		if err := db.RecordRun(run, doc); err != nil {
			return err
		}
		lg.Info("recorded enumeration run", "run_id", run.ID, "db", dbPath)
	}
	return nil
}
