package model

import "time"

// GradeDistribution counts queries per grade
type GradeDistribution map[Grade]int

// FileSummary aggregates the results of one source file
type FileSummary struct {
	FileIndex        int               `json:"file_index"`
	Name             string            `json:"file_name"`
	Path             string            `json:"file_path"`
	QueryCount       int               `json:"query_count"`
	TotalRawScore    float64           `json:"total_raw_score"`
	AverageRawScore  float64           `json:"average_raw_score"`
	AverageComposite float64           `json:"average_composite"`
	Distribution     GradeDistribution `json:"distribution"`
	DegradedCount    int               `json:"degraded_count"`
	Queries          []QueryResult     `json:"queries"`
}

// RunSummary aggregates the results of a whole run
type RunSummary struct {
	FileCount        int               `json:"file_count"`
	QueryCount       int               `json:"query_count"`
	TotalRawScore    float64           `json:"total_raw_score"`
	AverageRawScore  float64           `json:"average_raw_score"`
	AverageComposite float64           `json:"average_composite"`
	OverallGrade     Grade             `json:"overall_grade"`
	Distribution     GradeDistribution `json:"distribution"`
	DegradedCount    int               `json:"degraded_count"`
}

// RuleStat is the batch-wide total of one rule
type RuleStat struct {
	RuleID            string   `json:"rule_id"`
	RuleName          string   `json:"rule_name"`
	Category          Category `json:"category"`
	FireCount         int      `json:"fire_count"`
	Occurrences       int      `json:"occurrences"`
	TotalContribution float64  `json:"total_contribution"`
}

// Report is the immutable summary handed to formatters
type Report struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Dialect      Dialect       `json:"dialect"`
	RulesVersion string        `json:"rules_version"`
	Summary      RunSummary    `json:"summary"`
	Files        []FileSummary `json:"files"`
	TopRules     []RuleStat    `json:"top_rules"`
}

// Results returns every query result in (file order, query order).
func (r *Report) Results() []QueryResult {
	var out []QueryResult
	for _, f := range r.Files {
		out = append(out, f.Queries...)
	}
	return out
}
