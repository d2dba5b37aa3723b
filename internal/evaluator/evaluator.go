package evaluator

import (
	"sql-complexity/internal/features"
	"sql-complexity/internal/model"
	"sql-complexity/internal/rules"

	"github.com/pkg/errors"
)

// Evaluator fires the rules of one RuleTable against extracted queries. It
// holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	table  *rules.RuleTable
	rules  map[*rules.Rule]Detector
	groups map[*rules.BandGroup]Detector
}

// New prepares a detector for every rule and band group of rt.
func New(rt *rules.RuleTable) *Evaluator {
	e := &Evaluator{
		table:  rt,
		rules:  make(map[*rules.Rule]Detector),
		groups: make(map[*rules.BandGroup]Detector),
	}
	for _, t := range rt.Tables() {
		for _, r := range t.Rules {
			e.rules[r] = newDetector(r.Method, r, r.Raw)
		}
		for _, g := range t.Bands {
			e.groups[g] = newDetector(g.Method, g, g.Raw)
		}
	}
	return e
}

// Table returns the rule table the evaluator was built from.
func (e *Evaluator) Table() *rules.RuleTable { return e.table }

// Evaluate returns one TriggerRecord per firing rule, in table order: common
// rules, common band groups, then the rules and band groups of dialect d.
// Tables of other dialects are never consulted. When the structural parse
// failed, structural rules and band groups are skipped.
func (e *Evaluator) Evaluate(fv model.FeatureVector, text features.Text, d model.Dialect) ([]model.TriggerRecord, error) {
	dialectTable, err := e.table.ForDialect(d)
	if err != nil {
		return nil, err
	}

	var out []model.TriggerRecord
	for _, t := range []*rules.Table{e.table.Common, dialectTable} {
		for _, r := range t.Rules {
			if !r.AppliesTo(d) || skipped(r.Method, &fv) {
				continue
			}
			if rec, ok := e.fire(r, &fv, text); ok {
				out = append(out, rec)
			}
		}
		for _, g := range t.Bands {
			if skipped(g.Method, &fv) {
				continue
			}
			rec, err := e.band(g, &fv, text)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func skipped(m model.Method, fv *model.FeatureVector) bool {
	return m == model.MethodStructural && fv.StructuralParseFailed
}

func (e *Evaluator) fire(r *rules.Rule, fv *model.FeatureVector, text features.Text) (model.TriggerRecord, bool) {
	det := e.rules[r].Detect(fv, text)
	if det.Count < r.Min {
		return model.TriggerRecord{}, false
	}

	contribution := r.Weight
	if r.Scoring == rules.ScoringOccurrence {
		contribution = r.Weight * float64(det.Count)
	}
	return model.TriggerRecord{
		RuleID:       r.ID,
		RuleName:     r.Name,
		Category:     r.Category,
		Method:       r.Method,
		Weight:       r.Weight,
		Occurrences:  det.Count,
		Contribution: contribution,
		Matches:      det.Matches,
	}, true
}

// band measures g once and fires the single member containing the value.
// Zero-weight members fire too, so every evaluated group yields exactly one
// record.
func (e *Evaluator) band(g *rules.BandGroup, fv *model.FeatureVector, text features.Text) (model.TriggerRecord, error) {
	det := e.groups[g].Detect(fv, text)
	b, ok := g.Select(det.Count)
	if !ok {
		return model.TriggerRecord{}, errors.Errorf("band group %s has no unique band for %d", g.Name, det.Count)
	}
	return model.TriggerRecord{
		RuleID:       b.ID,
		RuleName:     b.Name,
		Category:     g.Category,
		Method:       g.Method,
		BandGroup:    g.Name,
		Weight:       b.Weight,
		Occurrences:  det.Count,
		Contribution: b.Weight,
		Matches:      det.Matches,
	}, nil
}
