package reporter

import (
	"fmt"
	"io"

	"sql-complexity/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
)

// CSVReporter writes one row per query.
type CSVReporter struct {
	out io.Writer
}

func NewCSVReporter(w io.Writer) *CSVReporter {
	return &CSVReporter{out: w}
}

func (r *CSVReporter) Report(rep *model.Report) error {
	t := table.NewWriter()

	header := table.Row{"file", "query", "line", "dialect", "statement_type"}
	for _, c := range model.Categories {
		header = append(header, string(c))
	}
	header = append(header, "raw_score", "composite", "grade", "degraded", "rules_fired")
	t.AppendHeader(header)

	for _, res := range rep.Results() {
		row := table.Row{res.Query.File, res.Query.Name, res.Query.Location.Line, res.Dialect, res.StatementType}
		for _, c := range model.Categories {
			row = append(row, score(res.CategoryScore(c).Capped))
		}
		row = append(row, score(res.RawScore), score(res.Composite.Score), res.Composite.Grade, res.Features.StructuralParseFailed, len(res.Triggers))
		t.AppendRow(row)
	}

	_, err := fmt.Fprintln(r.out, t.RenderCSV())
	return err
}
