package rules

import (
	"regexp"
	"sort"

	"sql-complexity/internal/model"
)

// Scoring decides how a firing rule's weight turns into a contribution.
type Scoring string

const (
	// ScoringFixed contributes the weight once when the rule fires.
	ScoringFixed Scoring = "fixed"
	// ScoringOccurrence contributes weight times the occurrence count.
	ScoringOccurrence Scoring = "occurrence"
)

// Rule is one weighted detection rule. Rules are immutable once loaded.
type Rule struct {
	ID       string
	Name     string
	Weight   float64
	Method   model.Method
	Category model.Category
	Scoring  Scoring

	// Pattern is the regular expression or keyword of a lexical rule.
	Pattern string
	// Measure names the FeatureVector reading of a structural or text-metric rule.
	Measure string
	// Min is the smallest measurement at which a measure rule fires.
	Min int
	// Raw makes a lexical rule scan the unmasked text, including literals and comments.
	Raw bool
	// Dialects restricts a common rule to a subset of dialects; empty means all.
	Dialects []model.Dialect
	Note     string

	re      *regexp.Regexp
	measure model.Measure
}

// AppliesTo reports whether the rule may be evaluated for dialect d.
func (r *Rule) AppliesTo(d model.Dialect) bool {
	if len(r.Dialects) == 0 {
		return true
	}
	for _, rd := range r.Dialects {
		if rd == d {
			return true
		}
	}
	return false
}

// Regexp returns the compiled pattern of a lexical rule.
func (r *Rule) Regexp() *regexp.Regexp { return r.re }

// Value reads the rule's measure from fv.
func (r *Rule) Value(fv *model.FeatureVector) int {
	if r.measure.Value == nil {
		return 0
	}
	return r.measure.Value(fv)
}

// Band is one bucket of a band group. Max is inclusive; nil means unbounded.
type Band struct {
	ID     string
	Name   string
	Weight float64
	Min    int
	Max    *int
}

// Contains reports whether v falls in the band.
func (b *Band) Contains(v int) bool {
	if v < b.Min {
		return false
	}
	return b.Max == nil || v <= *b.Max
}

// BandGroup partitions one measurement into mutually exclusive bands. A
// loaded group always covers every non-negative integer exactly once.
type BandGroup struct {
	Name     string
	Method   model.Method
	Category model.Category
	Pattern  string
	Measure  string
	Raw      bool
	Members  []*Band

	re      *regexp.Regexp
	measure model.Measure
}

// Regexp returns the compiled pattern of a lexical band group.
func (g *BandGroup) Regexp() *regexp.Regexp { return g.re }

// Value reads the group's measure from fv.
func (g *BandGroup) Value(fv *model.FeatureVector) int {
	if g.measure.Value == nil {
		return 0
	}
	return g.measure.Value(fv)
}

// Select returns the one band containing v.
func (g *BandGroup) Select(v int) (*Band, bool) {
	var found *Band
	for _, b := range g.Members {
		if b.Contains(v) {
			if found != nil {
				return nil, false
			}
			found = b
		}
	}
	return found, found != nil
}

// Table is one partition of the catalogue: the common table or a single
// dialect's table.
type Table struct {
	// Dialect is empty for the common table.
	Dialect model.Dialect
	Rules   []*Rule
	Bands   []*BandGroup
}

// Name is the table's name as it appears in the catalogue.
func (t *Table) Name() string {
	if t.Dialect == "" {
		return "common"
	}
	return string(t.Dialect)
}

// Size counts the rules in the table, band members included.
func (t *Table) Size() int {
	n := len(t.Rules)
	for _, g := range t.Bands {
		n += len(g.Members)
	}
	return n
}

// RuleTable is the loaded, validated catalogue. It is never mutated after
// Load returns and may be shared freely between goroutines.
type RuleTable struct {
	Version  string
	Common   *Table
	Dialects map[model.Dialect]*Table
}

// ForDialect returns the dialect-specific table of d.
func (rt *RuleTable) ForDialect(d model.Dialect) (*Table, error) {
	t, ok := rt.Dialects[d]
	if !ok {
		return nil, &model.UnknownDialectError{Dialect: string(d)}
	}
	return t, nil
}

// Size counts every rule in the catalogue.
func (rt *RuleTable) Size() int {
	n := rt.Common.Size()
	for _, t := range rt.Dialects {
		n += t.Size()
	}
	return n
}

// Tables returns the common table followed by the dialect tables in
// canonical dialect order.
func (rt *RuleTable) Tables() []*Table {
	tables := []*Table{rt.Common}
	dialects := make([]model.Dialect, 0, len(rt.Dialects))
	for d := range rt.Dialects {
		dialects = append(dialects, d)
	}
	sort.Slice(dialects, func(i, j int) bool {
		return dialectOrder(dialects[i]) < dialectOrder(dialects[j])
	})
	for _, d := range dialects {
		tables = append(tables, rt.Dialects[d])
	}
	return tables
}

func dialectOrder(d model.Dialect) int {
	for i, s := range model.SupportedDialects {
		if s == d {
			return i
		}
	}
	return len(model.SupportedDialects)
}
