package main

import (
	"fmt"
	"io"
	"strconv"

	"sql-complexity/internal/model"
	"sql-complexity/internal/rules"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var validateOnly bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the effective rule set for a dialect",
	Long: `Rules lists the common rules and band groups followed by the rules of
the given dialect, in evaluation order. Without --dialect every table is
listed. With --validate the catalogue is only loaded and checked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd.Flags())
		if err != nil {
			return err
		}
		rt, err := loadRules(cfg, log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if validateOnly {
			fmt.Fprintf(out, "%s catalogue %s is valid: %d rules in %d tables\n",
				color.GreenString("✔"), rt.Version, rt.Size(), len(rt.Tables()))
			return nil
		}

		tables := rt.Tables()
		var dialect model.Dialect
		if cfg.Dialect != "" {
			if dialect, err = cfg.ParseDialect(); err != nil {
				return err
			}
			dt, err := rt.ForDialect(dialect)
			if err != nil {
				return err
			}
			tables = []*rules.Table{rt.Common, dt}
		}
		listRules(out, rt.Version, tables, dialect)
		return nil
	},
}

func init() {
	rulesCmd.Flags().StringP("dialect", "d", "", "Only list rules evaluated for this dialect")
	rulesCmd.Flags().StringP("rules", "r", "", "Rule catalogue YAML (default: embedded catalogue)")
	rulesCmd.Flags().BoolVar(&validateOnly, "validate", false, "Only validate the catalogue")
}

// listRules prints one row per rule or band. When dialect is set, common
// rules restricted to other dialects are left out.
func listRules(w io.Writer, version string, tables []*rules.Table, dialect model.Dialect) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Rule catalogue " + version)
	t.AppendHeader(table.Row{"Table", "ID", "Name", "Category", "Method", "Weight", "Scoring"})

	n := 0
	for _, tbl := range tables {
		for _, r := range tbl.Rules {
			if dialect != "" && !r.AppliesTo(dialect) {
				continue
			}
			t.AppendRow(table.Row{tbl.Name(), r.ID, r.Name, r.Category, r.Method, weight(r.Weight), r.Scoring})
			n++
		}
		for _, g := range tbl.Bands {
			for _, b := range g.Members {
				t.AppendRow(table.Row{tbl.Name(), b.ID, b.Name, g.Category, g.Method, weight(b.Weight), "band " + g.Name + " " + bandRange(b)})
				n++
			}
		}
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d rules", n)})
	t.Render()
}

func weight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func bandRange(b *rules.Band) string {
	if b.Max == nil {
		return fmt.Sprintf("%d+", b.Min)
	}
	if *b.Max == b.Min {
		return strconv.Itoa(b.Min)
	}
	return fmt.Sprintf("%d-%d", b.Min, *b.Max)
}
