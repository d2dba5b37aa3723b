package scoring

import (
	"math"

	"sql-complexity/internal/model"
)

// CategoryMax is the cap applied to each category's raw sum.
var CategoryMax = map[model.Category]float64{
	model.CategoryStructural:         100,
	model.CategoryClause:             50,
	model.CategoryFunctionExpression: 80,
	model.CategoryQueryMetric:        40,
	model.CategoryDialectSpecific:    100,
}

// CategoryWeight is each category's share of the composite score. The
// shares sum to 1.
var CategoryWeight = map[model.Category]float64{
	model.CategoryStructural:         0.30,
	model.CategoryClause:             0.15,
	model.CategoryFunctionExpression: 0.20,
	model.CategoryQueryMetric:        0.10,
	model.CategoryDialectSpecific:    0.25,
}

// MaxComposite is the upper end of the composite scale.
const MaxComposite = 10.0

// gradeFloors are the inclusive lower bounds of each grade, highest first.
var gradeFloors = []struct {
	floor float64
	grade model.Grade
}{
	{8, model.GradeVeryComplex},
	{6, model.GradeComplex},
	{4, model.GradeModerate},
	{2, model.GradeSimple},
	{0, model.GradeVerySimple},
}

// Aggregation is the outcome of aggregating one query's trigger records.
type Aggregation struct {
	Categories []model.CategoryScore
	RawScore   float64
	Composite  model.CompositeScore
}

// Aggregate sums the records per category, caps each sum, and folds the
// capped values into the weighted composite score.
func Aggregate(records []model.TriggerRecord) Aggregation {
	sums := make(map[model.Category]float64, len(model.Categories))
	var raw float64
	for _, r := range records {
		sums[r.Category] += r.Contribution
		raw += r.Contribution
	}

	agg := Aggregation{
		Categories: make([]model.CategoryScore, 0, len(model.Categories)),
		RawScore:   Round(raw),
	}
	var composite float64
	for _, c := range model.Categories {
		maxScore := CategoryMax[c]
		capped := math.Min(sums[c], maxScore)
		agg.Categories = append(agg.Categories, model.CategoryScore{
			Category: c,
			Raw:      Round(sums[c]),
			Capped:   Round(capped),
			Max:      maxScore,
		})
		composite += capped / maxScore * CategoryWeight[c]
	}

	score := Round(clamp(composite*MaxComposite, 0, MaxComposite))
	agg.Composite = model.CompositeScore{Score: score, Grade: GradeOf(score)}
	return agg
}

// GradeOf maps a composite score onto its grade. Each bound belongs to the
// grade above it, so 2.0 is simple and 8.0 is very complex.
func GradeOf(score float64) model.Grade {
	for _, g := range gradeFloors {
		if score >= g.floor {
			return g.grade
		}
	}
	return model.GradeVerySimple
}

// Round rounds to two decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
