package model

import "fmt"

// Location represents the physical location of a query
type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line,omitempty"`
}

func (l Location) String() string {
	if l.Line == 0 {
		return l.FilePath
	}
	return fmt.Sprintf("%s:%d", l.FilePath, l.Line)
}

// Query is one statement to be scored. It is never modified by the engine.
type Query struct {
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"` // SELECT, INSERT, ... informational only
	SQL      string   `json:"sql"`
	File     string   `json:"file"`
	Location Location `json:"location"`

	// FileIndex and Index give the stable input order of the query in a batch.
	FileIndex int `json:"file_index"`
	Index     int `json:"index"`
}

// SourceFile groups the queries extracted from one originating file
type SourceFile struct {
	Name    string  `json:"file_name"`
	Path    string  `json:"file_path"`
	Queries []Query `json:"queries"`
}

// Method is the detection method of a rule
type Method string

const (
	MethodStructural Method = "structural"
	MethodPattern    Method = "lexical-pattern"
	MethodKeyword    Method = "lexical-keyword"
	MethodTextMetric Method = "text-metric"
)

// Methods lists every detection method.
var Methods = []Method{MethodStructural, MethodPattern, MethodKeyword, MethodTextMetric}

// Valid reports whether m is a known detection method.
func (m Method) Valid() bool {
	for _, k := range Methods {
		if k == m {
			return true
		}
	}
	return false
}

// Lexical reports whether the method scans text rather than features.
func (m Method) Lexical() bool {
	return m == MethodPattern || m == MethodKeyword
}

// Category groups rule contributions for aggregation
type Category string

const (
	CategoryStructural         Category = "structural"
	CategoryClause             Category = "clause"
	CategoryFunctionExpression Category = "function_expression"
	CategoryQueryMetric        Category = "query_metric"
	CategoryDialectSpecific    Category = "dialect_specific"
)

// Categories lists every category in aggregation order.
var Categories = []Category{
	CategoryStructural,
	CategoryClause,
	CategoryFunctionExpression,
	CategoryQueryMetric,
	CategoryDialectSpecific,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// JoinBreakdown counts explicit joins per qualifier.
type JoinBreakdown struct {
	Inner   int `json:"inner"`
	Left    int `json:"left"`
	Right   int `json:"right"`
	Full    int `json:"full"`
	Cross   int `json:"cross"`
	Natural int `json:"natural"`
	Self    int `json:"self"`
}

// FeatureVector holds the structural and lexical measurements of one query.
// Structural fields are zero when StructuralParseFailed is set.
type FeatureVector struct {
	JoinCount int           `json:"join_count"`
	Joins     JoinBreakdown `json:"joins"`

	SubqueryDepth      int  `json:"subquery_depth"`
	SubqueryCount      int  `json:"subquery_count"`
	CorrelatedSubquery bool `json:"correlated_subquery"`

	CTECount     int  `json:"cte_count"`
	RecursiveCTE bool `json:"recursive_cte"`

	UnionCount     int `json:"union_count"`
	UnionAllCount  int `json:"union_all_count"`
	IntersectCount int `json:"intersect_count"`
	ExceptCount    int `json:"except_count"`

	SelectColumnCount int  `json:"select_column_count"`
	SelectStar        bool `json:"select_star"`
	Distinct          bool `json:"distinct"`

	WherePredicateCount int  `json:"where_predicate_count"`
	InListLiteral       bool `json:"in_list_literal"`

	HasGroupBy         bool `json:"has_group_by"`
	GroupByColumnCount int  `json:"group_by_column_count"`
	HasHaving          bool `json:"has_having"`
	HasOrderBy         bool `json:"has_order_by"`
	OrderByColumnCount int  `json:"order_by_column_count"`

	AggregateFunctionCount int  `json:"aggregate_function_count"`
	WindowFunctionCount    int  `json:"window_function_count"`
	CaseCount              int  `json:"case_count"`
	NestedCase             bool `json:"nested_case"`
	StringFunctionCount    int  `json:"string_function_count"`
	MathFunctionCount      int  `json:"math_function_count"`
	NullFunctionCount      int  `json:"null_function_count"`
	CastCount              int  `json:"cast_count"`

	TableCount int `json:"table_count"`

	Length             int `json:"length"`
	LineCount          int `json:"line_count"`
	PlaceholderCount   int `json:"placeholder_count"`
	StringLiteralCount int `json:"string_literal_count"`

	StructuralParseFailed bool `json:"structural_parse_failed"`
}

// TriggerRecord is one firing rule for one query
type TriggerRecord struct {
	RuleID       string   `json:"rule_id"`
	RuleName     string   `json:"rule_name"`
	Category     Category `json:"category"`
	Method       Method   `json:"method"`
	BandGroup    string   `json:"band_group,omitempty"`
	Weight       float64  `json:"weight"`
	Occurrences  int      `json:"occurrences"`
	Contribution float64  `json:"contribution"`
	Matches      []string `json:"matches,omitempty"`
}

// CategoryScore is the per-category sum of contributions and its capped value
type CategoryScore struct {
	Category Category `json:"category"`
	Raw      float64  `json:"raw"`
	Capped   float64  `json:"capped"`
	Max      float64  `json:"max"`
}

// Grade is the label of a composite score band
type Grade string

const (
	GradeVerySimple  Grade = "very simple"
	GradeSimple      Grade = "simple"
	GradeModerate    Grade = "moderate"
	GradeComplex     Grade = "complex"
	GradeVeryComplex Grade = "very complex"
)

// Grades lists every grade from lowest to highest.
var Grades = []Grade{GradeVerySimple, GradeSimple, GradeModerate, GradeComplex, GradeVeryComplex}

// CompositeScore is the normalized 0-10 value of a query
type CompositeScore struct {
	Score float64 `json:"score"`
	Grade Grade   `json:"grade"`
}

// QueryResult is the scoring outcome of one query
type QueryResult struct {
	Query         Query           `json:"query"`
	Dialect       Dialect         `json:"dialect"`
	StatementType string          `json:"statement_type"`
	Features      FeatureVector   `json:"features"`
	Triggers      []TriggerRecord `json:"triggers"`
	Categories    []CategoryScore `json:"categories"`
	RawScore      float64         `json:"raw_score"`
	Composite     CompositeScore  `json:"composite"`
}

// CategoryScore returns the score of category c, or a zero value.
func (r *QueryResult) CategoryScore(c Category) CategoryScore {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs
		}
	}
	return CategoryScore{Category: c}
}
