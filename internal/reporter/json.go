package reporter

import (
	"encoding/json"
	"io"

	"sql-complexity/internal/model"

	"github.com/pkg/errors"
)

// JSONReporter writes the whole report, every query result included.
type JSONReporter struct {
	out io.Writer
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{out: w}
}

func (r *JSONReporter) Report(rep *model.Report) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(rep), "failed to encode json report")
}
