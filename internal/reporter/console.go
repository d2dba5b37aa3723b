package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"sql-complexity/internal/model"
	"sql-complexity/internal/report"

	"github.com/fatih/color"
)

const (
	barWidth        = 40
	consoleTopRules = 10
	consoleHigh     = 10
)

type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{out: w}
}

func gradeColor(g model.Grade) *color.Color {
	switch g {
	case model.GradeVeryComplex:
		return color.New(color.FgRed, color.Bold)
	case model.GradeComplex:
		return color.New(color.FgRed)
	case model.GradeModerate:
		return color.New(color.FgYellow)
	case model.GradeSimple:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}

func (r *ConsoleReporter) Report(rep *model.Report) error {
	s := rep.Summary
	if s.QueryCount == 0 {
		fmt.Fprintln(r.out, color.YellowString("No queries found."))
		return nil
	}

	bold := color.New(color.Bold)
	fmt.Fprintf(r.out, "%s dialect=%s rules=%s\n", bold.Sprint("SQL complexity"), rep.Dialect, rep.RulesVersion)
	fmt.Fprintf(r.out, "Files: %d  Queries: %d  Degraded: %d\n", s.FileCount, s.QueryCount, s.DegradedCount)
	fmt.Fprintf(r.out, "Raw score: total %s, average %s\n", score(s.TotalRawScore), score(s.AverageRawScore))
	fmt.Fprintf(r.out, "Average composite: %s (%s)\n\n", score(s.AverageComposite), gradeColor(s.OverallGrade).Sprint(s.OverallGrade))

	fmt.Fprintln(r.out, bold.Sprint("Distribution"))
	peak := 0
	for _, g := range model.Grades {
		peak = max(peak, s.Distribution[g])
	}
	for _, g := range model.Grades {
		n := s.Distribution[g]
		width := 0
		if peak > 0 {
			width = n * barWidth / peak
		}
		if n > 0 && width == 0 {
			width = 1
		}
		bar := gradeColor(g).Sprint(strings.Repeat("█", width))
		fmt.Fprintf(r.out, "  %-13s %5d %5.1f%% %s\n", g, n, percent(n, s.QueryCount), bar)
	}

	if len(rep.TopRules) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", bold.Sprint("Top rules"))
		for i, st := range rep.TopRules {
			if i == consoleTopRules {
				break
			}
			fmt.Fprintf(r.out, "  %-28s %8s  fired %d\n", st.RuleID, score(st.TotalContribution), st.FireCount)
		}
	}

	high := report.HighComplexity(rep, HighComplexityThreshold)
	if len(high) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", color.New(color.FgRed, color.Bold).Sprintf("High complexity (%d)", len(high)))
		for i, res := range high {
			if i == consoleHigh {
				fmt.Fprintf(r.out, "  ... %d more\n", len(high)-consoleHigh)
				break
			}
			fmt.Fprintf(r.out, "  %s %s %s\n", gradeColor(res.Composite.Grade).Sprint(score(res.Composite.Score)), res.Query.Name, color.CyanString(truncate(res.Query.SQL, 60)))
		}
	}
	return nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
