package model

import "sort"

// Measure is a named numeric reading of a FeatureVector that rules can refer to.
// Boolean features read as 0 or 1.
type Measure struct {
	Name  string
	Kind  Method // MethodStructural or MethodTextMetric
	Value func(fv *FeatureVector) int
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func structural(name string, f func(fv *FeatureVector) int) Measure {
	return Measure{Name: name, Kind: MethodStructural, Value: f}
}

func textMetric(name string, f func(fv *FeatureVector) int) Measure {
	return Measure{Name: name, Kind: MethodTextMetric, Value: f}
}

var measures = map[string]Measure{}

func init() {
	for _, m := range []Measure{
		structural("join_count", func(fv *FeatureVector) int { return fv.JoinCount }),
		structural("inner_join_count", func(fv *FeatureVector) int { return fv.Joins.Inner }),
		structural("left_join_count", func(fv *FeatureVector) int { return fv.Joins.Left }),
		structural("right_join_count", func(fv *FeatureVector) int { return fv.Joins.Right }),
		structural("full_join_count", func(fv *FeatureVector) int { return fv.Joins.Full }),
		structural("cross_join_count", func(fv *FeatureVector) int { return fv.Joins.Cross }),
		structural("natural_join_count", func(fv *FeatureVector) int { return fv.Joins.Natural }),
		structural("self_join_count", func(fv *FeatureVector) int { return fv.Joins.Self }),
		structural("self_join", func(fv *FeatureVector) int { return b2i(fv.Joins.Self > 0) }),
		structural("outer_join_count", func(fv *FeatureVector) int { return fv.Joins.Left + fv.Joins.Right + fv.Joins.Full }),

		structural("subquery_depth", func(fv *FeatureVector) int { return fv.SubqueryDepth }),
		structural("subquery_count", func(fv *FeatureVector) int { return fv.SubqueryCount }),
		structural("correlated_subquery", func(fv *FeatureVector) int { return b2i(fv.CorrelatedSubquery) }),

		structural("cte_count", func(fv *FeatureVector) int { return fv.CTECount }),
		structural("recursive_cte", func(fv *FeatureVector) int { return b2i(fv.RecursiveCTE) }),

		structural("union_count", func(fv *FeatureVector) int { return fv.UnionCount }),
		structural("union_all_count", func(fv *FeatureVector) int { return fv.UnionAllCount }),
		structural("intersect_count", func(fv *FeatureVector) int { return fv.IntersectCount }),
		structural("except_count", func(fv *FeatureVector) int { return fv.ExceptCount }),
		structural("set_operation_count", func(fv *FeatureVector) int {
			return fv.UnionCount + fv.UnionAllCount + fv.IntersectCount + fv.ExceptCount
		}),

		structural("select_column_count", func(fv *FeatureVector) int { return fv.SelectColumnCount }),
		structural("select_star", func(fv *FeatureVector) int { return b2i(fv.SelectStar) }),
		structural("distinct", func(fv *FeatureVector) int { return b2i(fv.Distinct) }),

		structural("where_predicate_count", func(fv *FeatureVector) int { return fv.WherePredicateCount }),
		structural("in_list_literal", func(fv *FeatureVector) int { return b2i(fv.InListLiteral) }),

		structural("group_by", func(fv *FeatureVector) int { return b2i(fv.HasGroupBy) }),
		structural("group_by_column_count", func(fv *FeatureVector) int { return fv.GroupByColumnCount }),
		structural("having", func(fv *FeatureVector) int { return b2i(fv.HasHaving) }),
		structural("order_by", func(fv *FeatureVector) int { return b2i(fv.HasOrderBy) }),
		structural("order_by_column_count", func(fv *FeatureVector) int { return fv.OrderByColumnCount }),

		structural("aggregate_function_count", func(fv *FeatureVector) int { return fv.AggregateFunctionCount }),
		structural("window_function_count", func(fv *FeatureVector) int { return fv.WindowFunctionCount }),
		structural("case_count", func(fv *FeatureVector) int { return fv.CaseCount }),
		structural("nested_case", func(fv *FeatureVector) int { return b2i(fv.NestedCase) }),
		structural("string_function_count", func(fv *FeatureVector) int { return fv.StringFunctionCount }),
		structural("math_function_count", func(fv *FeatureVector) int { return fv.MathFunctionCount }),
		structural("null_function_count", func(fv *FeatureVector) int { return fv.NullFunctionCount }),
		structural("cast_count", func(fv *FeatureVector) int { return fv.CastCount }),

		structural("table_count", func(fv *FeatureVector) int { return fv.TableCount }),

		textMetric("length", func(fv *FeatureVector) int { return fv.Length }),
		textMetric("line_count", func(fv *FeatureVector) int { return fv.LineCount }),
		textMetric("placeholder_count", func(fv *FeatureVector) int { return fv.PlaceholderCount }),
		textMetric("string_literal_count", func(fv *FeatureVector) int { return fv.StringLiteralCount }),
	} {
		measures[m.Name] = m
	}
}

// LookupMeasure returns the measure registered under name.
func LookupMeasure(name string) (Measure, bool) {
	m, ok := measures[name]
	return m, ok
}

// MeasureNames returns every registered measure name, sorted.
func MeasureNames() []string {
	names := make([]string, 0, len(measures))
	for name := range measures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
