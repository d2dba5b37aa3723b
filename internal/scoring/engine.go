package scoring

import (
	"context"
	"sync/atomic"

	"sql-complexity/internal/evaluator"
	"sql-complexity/internal/features"
	"sql-complexity/internal/model"
	"sql-complexity/internal/rules"
	"sql-complexity/internal/scanner"
)

// Engine scores queries against the current rule table. The table can be
// replaced with Reload while scoring is in progress; a query or batch always
// sees one table from start to finish.
type Engine struct {
	current    atomic.Pointer[evaluator.Evaluator]
	extractors map[model.Dialect]*features.Extractor
}

// NewEngine returns an engine scoring against rt.
func NewEngine(rt *rules.RuleTable) *Engine {
	e := &Engine{extractors: make(map[model.Dialect]*features.Extractor, len(model.SupportedDialects))}
	for _, d := range model.SupportedDialects {
		e.extractors[d] = features.ForDialect(d)
	}
	e.Reload(rt)
	return e
}

// Reload swaps in a new rule table. Queries already being scored finish with
// the table they started with.
func (e *Engine) Reload(rt *rules.RuleTable) {
	e.current.Store(evaluator.New(rt))
}

// Rules returns the rule table currently in use.
func (e *Engine) Rules() *rules.RuleTable {
	return e.current.Load().Table()
}

// Score scores one query declared as dialect d.
func (e *Engine) Score(ctx context.Context, q model.Query, d model.Dialect) (model.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return model.QueryResult{}, err
	}
	ex, err := e.extractor(d)
	if err != nil {
		return model.QueryResult{}, err
	}
	return score(e.current.Load(), ex, q, d)
}

// ScoreBatch scores queries on workers goroutines. Results are in input
// order regardless of completion order. On cancellation no further queries
// are dispatched and ctx.Err() is returned.
func (e *Engine) ScoreBatch(ctx context.Context, queries []model.Query, d model.Dialect, workers int) ([]model.QueryResult, error) {
	ex, err := e.extractor(d)
	if err != nil {
		return nil, err
	}
	ev := e.current.Load()
	pool := scanner.NewWorkerPool(workers, func(ctx context.Context, q model.Query) (model.QueryResult, error) {
		return score(ev, ex, q, d)
	})
	return pool.Run(ctx, queries)
}

func (e *Engine) extractor(d model.Dialect) (*features.Extractor, error) {
	ex, ok := e.extractors[d]
	if !ok {
		return nil, &model.UnknownDialectError{Dialect: string(d)}
	}
	return ex, nil
}

func score(ev *evaluator.Evaluator, ex *features.Extractor, q model.Query, d model.Dialect) (model.QueryResult, error) {
	a := ex.Analyze(q.SQL)
	triggers, err := ev.Evaluate(a.Features, a.Text, d)
	if err != nil {
		return model.QueryResult{}, err
	}
	agg := Aggregate(triggers)
	return model.QueryResult{
		Query:         q,
		Dialect:       d,
		StatementType: a.StatementType,
		Features:      a.Features,
		Triggers:      triggers,
		Categories:    agg.Categories,
		RawScore:      agg.RawScore,
		Composite:     agg.Composite,
	}, nil
}
