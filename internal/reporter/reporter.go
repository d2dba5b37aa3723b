package reporter

import (
	"fmt"
	"io"
	"strings"

	"sql-complexity/internal/model"

	"github.com/pkg/errors"
)

// Formats lists the report formats in the order they are written.
var Formats = []string{"console", "json", "md", "csv"}

// HighComplexityThreshold is the composite score from which a query is
// listed as high complexity.
const HighComplexityThreshold = 6.0

// New returns the reporter for format writing to w.
func New(format string, w io.Writer) (model.Reporter, error) {
	switch strings.ToLower(format) {
	case "console":
		return NewConsoleReporter(w), nil
	case "json":
		return NewJSONReporter(w), nil
	case "md", "markdown":
		return NewMarkdownReporter(w), nil
	case "csv":
		return NewCSVReporter(w), nil
	}
	return nil, errors.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// Extension is the file extension used when a format is written to disk.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return "md"
	case "console":
		return "txt"
	}
	return strings.ToLower(format)
}

// truncate collapses whitespace and cuts s to at most max runes.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

func score(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
