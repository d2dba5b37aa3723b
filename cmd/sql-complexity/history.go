package main

import (
	"fmt"

	"sql-complexity/internal/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded scoring runs",
	Long: `History lists the runs recorded with --history, newest first. Given a
run id it shows that run's per-file summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd.Flags())
		if err != nil {
			return err
		}
		if cfg.History == "" {
			return errors.New("no history database configured (use --history or SQLCX_HISTORY)")
		}

		store := history.NewStore(log)
		if err := store.Open(cfg.History); err != nil {
			return err
		}
		defer store.Close()
		if err := store.InitSchema(); err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)

		if len(args) == 1 {
			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t.SetTitle(fmt.Sprintf("Run %s (%s, %s, rules %s)", run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Dialect, run.RulesVersion))
			t.AppendHeader(table.Row{"#", "File", "Queries", "Total raw", "Average composite"})
			for _, f := range run.Files {
				t.AppendRow(table.Row{f.Index, f.Name, f.QueryCount, score(f.TotalRawScore), score(f.AverageComposite)})
			}
			t.AppendFooter(table.Row{"", "", run.QueryCount, score(run.TotalRawScore), score(run.AverageComposite)})
			t.Render()
			return nil
		}

		runs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"ID", "Date", "Dialect", "Rules", "Files", "Queries", "Degraded", "Average composite", "Grade"})
		for _, r := range runs {
			t.AppendRow(table.Row{r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Dialect, r.RulesVersion, r.FileCount, r.QueryCount, r.DegradedCount, score(r.AverageComposite), r.OverallGrade})
		}
		t.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().String("history", "", "SQLite database of recorded runs")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs listed (0 for all)")
}

func score(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
