package reporter

import (
	"fmt"
	"io"

	"sql-complexity/internal/model"
	"sql-complexity/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
)

type MarkdownReporter struct {
	out io.Writer
}

func NewMarkdownReporter(w io.Writer) *MarkdownReporter {
	return &MarkdownReporter{out: w}
}

func (r *MarkdownReporter) Report(rep *model.Report) error {
	s := rep.Summary
	fmt.Fprintln(r.out, "# SQL Complexity Report")
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Generated %s for dialect `%s`, rules `%s`.\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"), rep.Dialect, rep.RulesVersion)

	fmt.Fprintln(r.out, "## Summary")
	fmt.Fprintln(r.out)
	r.table(table.Row{"Metric", "Value"}, []table.Row{
		{"Files", s.FileCount},
		{"Queries", s.QueryCount},
		{"Degraded queries", s.DegradedCount},
		{"Total raw score", score(s.TotalRawScore)},
		{"Average raw score", score(s.AverageRawScore)},
		{"Average composite", score(s.AverageComposite)},
		{"Overall grade", s.OverallGrade},
	})

	fmt.Fprintln(r.out, "## Distribution")
	fmt.Fprintln(r.out)
	var dist []table.Row
	for _, g := range model.Grades {
		dist = append(dist, table.Row{g, s.Distribution[g], fmt.Sprintf("%.1f%%", percent(s.Distribution[g], s.QueryCount))})
	}
	r.table(table.Row{"Grade", "Queries", "Share"}, dist)

	if len(rep.TopRules) > 0 {
		fmt.Fprintln(r.out, "## Top Rules")
		fmt.Fprintln(r.out)
		var rows []table.Row
		for i, st := range rep.TopRules {
			rows = append(rows, table.Row{i + 1, st.RuleID, st.RuleName, st.Category, st.FireCount, st.Occurrences, score(st.TotalContribution)})
		}
		r.table(table.Row{"#", "Rule", "Name", "Category", "Fired", "Occurrences", "Contribution"}, rows)
	}

	if len(rep.Files) > 0 {
		fmt.Fprintln(r.out, "## Files")
		fmt.Fprintln(r.out)
		var rows []table.Row
		for _, f := range rep.Files {
			rows = append(rows, table.Row{f.Name, f.QueryCount, score(f.TotalRawScore), score(f.AverageRawScore), score(f.AverageComposite), f.DegradedCount})
		}
		r.table(table.Row{"File", "Queries", "Total raw", "Average raw", "Average composite", "Degraded"}, rows)

		for _, f := range rep.Files {
			fmt.Fprintf(r.out, "### %s\n\n", f.Name)
			if len(f.Queries) == 0 {
				fmt.Fprint(r.out, "No queries.\n\n")
				continue
			}
			var qrows []table.Row
			for _, res := range f.Queries {
				qrows = append(qrows, table.Row{res.Query.Name, res.StatementType, score(res.RawScore), score(res.Composite.Score), res.Composite.Grade, degradedMark(res)})
			}
			r.table(table.Row{"Query", "Type", "Raw", "Composite", "Grade", "Degraded"}, qrows)
		}
	}

	high := report.HighComplexity(rep, HighComplexityThreshold)
	if len(high) > 0 {
		fmt.Fprintf(r.out, "## High Complexity (composite >= %.0f)\n\n", HighComplexityThreshold)
		for _, res := range high {
			fmt.Fprintf(r.out, "### %s (%s, %s)\n\n", res.Query.Name, score(res.Composite.Score), res.Composite.Grade)
			if res.Query.Location.FilePath != "" {
				fmt.Fprintf(r.out, "Location: `%s`\n\n", res.Query.Location)
			}
			var rows []table.Row
			for _, t := range res.Triggers {
				if t.Contribution == 0 {
					continue
				}
				rows = append(rows, table.Row{t.RuleID, t.Category, t.Occurrences, score(t.Contribution)})
			}
			if len(rows) > 0 {
				r.table(table.Row{"Rule", "Category", "Occurrences", "Contribution"}, rows)
			}
			fmt.Fprintf(r.out, "```sql\n%s\n```\n\n", res.Query.SQL)
		}
	}
	return nil
}

func (r *MarkdownReporter) table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	fmt.Fprintln(r.out, t.RenderMarkdown())
	fmt.Fprintln(r.out)
}

func degradedMark(res model.QueryResult) string {
	if res.Features.StructuralParseFailed {
		return "yes"
	}
	return ""
}
