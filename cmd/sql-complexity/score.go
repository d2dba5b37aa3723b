package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"sql-complexity/internal/config"
	"sql-complexity/internal/extractor"
	"sql-complexity/internal/history"
	"sql-complexity/internal/logger"
	"sql-complexity/internal/model"
	"sql-complexity/internal/report"
	"sql-complexity/internal/reporter"
	"sql-complexity/internal/scanner"
	"sql-complexity/internal/scoring"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var excludes []string

var scoreCmd = &cobra.Command{
	Use:   "score [paths...]",
	Short: "Score the SQL statements found in files and directories",
	Long: `Score reads batch JSON files, .sql scripts and source files, or walks
directories for them, and scores every statement against the rules of the
declared source dialect.

Use "-" as --output to write file formats to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd.Flags())
		if err != nil {
			return err
		}
		return runScore(cmd.Context(), cfg, log, args, cmd.OutOrStdout())
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringP("dialect", "d", "", "Source dialect: ORA, MY, MDB, PG, SS, ALT, DB2 (or an alias)")
	f.StringP("rules", "r", "", "Rule catalogue YAML (default: embedded catalogue)")
	f.StringSliceP("format", "f", []string{"console"}, "Report formats: console, json, md, csv")
	f.StringP("output", "o", "sql-complexity-report", "Base name of written reports")
	f.IntP("workers", "w", 0, "Concurrent workers (default: number of CPUs)")
	f.Int("top", 20, "Number of rules listed in rule statistics")
	f.String("history", "", "SQLite database recording each run")
	f.StringSliceVarP(&excludes, "exclude", "e", []string{"vendor", "node_modules"}, "Patterns excluded when walking directories")
}

func runScore(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string, stdout io.Writer) error {
	dialect, err := cfg.ParseDialect()
	if err != nil {
		return err
	}
	rt, err := loadRules(cfg, log)
	if err != nil {
		return err
	}

	mgr := extractor.NewDefaultManager(log, dialect)
	paths, err := collectPaths(ctx, args, scanner.NewFileWalker(mgr.Extensions(), excludes))
	if err != nil {
		return err
	}
	log.Debug("collected inputs", "paths", len(paths))

	files, err := mgr.LoadAll(ctx, paths, cfg.Workers)
	if err != nil {
		return err
	}
	queries := extractor.Queries(files)
	log.Info("scoring", "files", len(files), "queries", len(queries), "dialect", dialect.DisplayName(), "workers", cfg.Workers)

	start := time.Now()
	engine := scoring.NewEngine(rt)
	results, err := engine.ScoreBatch(ctx, queries, dialect, cfg.Workers)
	if err != nil {
		return errors.Wrap(err, "scoring failed")
	}

	rep := report.Assemble(results, report.Options{
		Dialect:      dialect,
		RulesVersion: rt.Version,
		Files:        files,
		TopRules:     cfg.TopRules,
	})
	log.Debug("scored", "elapsed", time.Since(start), "degraded", rep.Summary.DegradedCount)

	for _, format := range cfg.Formats {
		if err := writeReport(rep, format, cfg.Output, stdout, log); err != nil {
			return err
		}
	}

	if cfg.History != "" {
		if err := recordRun(ctx, cfg.History, rep, log); err != nil {
			// the reports are already written
			log.Warn("failed to record run", logger.Error(err))
		}
	}
	return nil
}

// collectPaths expands directories into the files they contain that the
// walker accepts. Explicit file arguments are kept whatever their extension.
func collectPaths(ctx context.Context, args []string, walker *scanner.FileWalker) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "input path %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		found, errs := walker.Walk(ctx, arg)
		for p := range found {
			paths = append(paths, p)
		}
		if err := <-errs; err != nil {
			return nil, errors.Wrapf(err, "failed to walk %s", arg)
		}
	}
	return paths, nil
}

func writeReport(rep *model.Report, format, output string, stdout io.Writer, log *slog.Logger) error {
	if format == "console" || output == "-" {
		r, err := reporter.New(format, stdout)
		if err != nil {
			return err
		}
		return r.Report(rep)
	}

	target := output + "." + reporter.Extension(format)
	f, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", target)
	}
	defer f.Close()

	r, err := reporter.New(format, f)
	if err != nil {
		return err
	}
	if err := r.Report(rep); err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}
	log.Info("wrote report", "format", format, "file", target)
	return nil
}

func recordRun(ctx context.Context, path string, rep *model.Report, log *slog.Logger) error {
	store := history.NewStore(log)
	if err := store.Open(path); err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		return err
	}
	run, err := store.Record(ctx, rep)
	if err != nil {
		return err
	}
	log.Info("recorded run", "id", run.ID, "database", path)
	return nil
}
