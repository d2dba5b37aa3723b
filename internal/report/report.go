package report

import (
	"sort"
	"time"

	"sql-complexity/internal/model"
	"sql-complexity/internal/scoring"
)

// DefaultTopRules is the number of rule statistics kept when Options.TopRules is zero.
const DefaultTopRules = 20

// Options controls report assembly.
type Options struct {
	Dialect      model.Dialect
	RulesVersion string
	// Files names the source files by FileIndex. Every file listed gets a
	// summary, even one without queries. Results whose file is missing here
	// are grouped under their Query.File.
	Files       []model.SourceFile
	TopRules    int
	GeneratedAt time.Time
}

// Assemble summarizes scored queries into a Report. It never rescores: every
// number is derived from the results as given. Results may arrive in any
// order; the report lists them by (FileIndex, Index).
func Assemble(results []model.QueryResult, opts Options) *model.Report {
	sorted := make([]model.QueryResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Query, sorted[j].Query
		if a.FileIndex != b.FileIndex {
			return a.FileIndex < b.FileIndex
		}
		return a.Index < b.Index
	})

	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	r := &model.Report{
		GeneratedAt:  generated,
		Dialect:      opts.Dialect,
		RulesVersion: opts.RulesVersion,
		Files:        summarizeFiles(sorted, opts.Files),
		TopRules:     topRules(sorted, opts.TopRules),
	}
	r.Summary = summarizeRun(r.Files)
	return r
}

// summarizeFiles returns one summary per file named in files, including files
// that yielded no queries, plus one per other FileIndex seen in results.
func summarizeFiles(results []model.QueryResult, files []model.SourceFile) []model.FileSummary {
	groups := make(map[int][]model.QueryResult, len(files))
	indices := make([]int, 0, len(files))
	for i := range files {
		groups[i] = nil
		indices = append(indices, i)
	}
	for start := 0; start < len(results); {
		idx := results[start].Query.FileIndex
		end := start
		for end < len(results) && results[end].Query.FileIndex == idx {
			end++
		}
		if _, ok := groups[idx]; !ok {
			indices = append(indices, idx)
		}
		groups[idx] = results[start:end]
		start = end
	}
	sort.Ints(indices)

	out := make([]model.FileSummary, 0, len(indices))
	for _, idx := range indices {
		out = append(out, summarizeFile(idx, groups[idx], files))
	}
	return out
}

func summarizeFile(idx int, queries []model.QueryResult, files []model.SourceFile) model.FileSummary {
	fs := model.FileSummary{
		FileIndex:    idx,
		Distribution: newDistribution(),
		Queries:      queries,
	}
	switch {
	case idx >= 0 && idx < len(files):
		fs.Name = files[idx].Name
		fs.Path = files[idx].Path
	case len(queries) > 0:
		fs.Name = queries[0].Query.File
		fs.Path = queries[0].Query.Location.FilePath
	}

	var composite float64
	for _, res := range queries {
		fs.TotalRawScore += res.RawScore
		composite += res.Composite.Score
		fs.Distribution[res.Composite.Grade]++
		if res.Features.StructuralParseFailed {
			fs.DegradedCount++
		}
	}
	fs.QueryCount = len(queries)
	fs.TotalRawScore = scoring.Round(fs.TotalRawScore)
	fs.AverageRawScore = mean(fs.TotalRawScore, fs.QueryCount)
	fs.AverageComposite = mean(composite, fs.QueryCount)
	return fs
}

func summarizeRun(files []model.FileSummary) model.RunSummary {
	s := model.RunSummary{
		FileCount:    len(files),
		Distribution: newDistribution(),
	}
	var composite float64
	for _, f := range files {
		s.QueryCount += f.QueryCount
		s.TotalRawScore += f.TotalRawScore
		s.DegradedCount += f.DegradedCount
		for g, n := range f.Distribution {
			s.Distribution[g] += n
		}
		for _, res := range f.Queries {
			composite += res.Composite.Score
		}
	}
	s.TotalRawScore = scoring.Round(s.TotalRawScore)
	s.AverageRawScore = mean(s.TotalRawScore, s.QueryCount)
	s.AverageComposite = mean(composite, s.QueryCount)
	s.OverallGrade = scoring.GradeOf(s.AverageComposite)
	return s
}

// topRules ranks rules by total contribution across the batch, ties broken
// by rule id. Rules that only ever contributed zero are left out.
func topRules(results []model.QueryResult, n int) []model.RuleStat {
	if n <= 0 {
		n = DefaultTopRules
	}

	stats := map[string]*model.RuleStat{}
	for _, res := range results {
		for _, t := range res.Triggers {
			st, ok := stats[t.RuleID]
			if !ok {
				st = &model.RuleStat{RuleID: t.RuleID, RuleName: t.RuleName, Category: t.Category}
				stats[t.RuleID] = st
			}
			st.FireCount++
			st.Occurrences += t.Occurrences
			st.TotalContribution += t.Contribution
		}
	}

	ranked := make([]model.RuleStat, 0, len(stats))
	for _, st := range stats {
		if st.TotalContribution <= 0 {
			continue
		}
		st.TotalContribution = scoring.Round(st.TotalContribution)
		ranked = append(ranked, *st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalContribution != ranked[j].TotalContribution {
			return ranked[i].TotalContribution > ranked[j].TotalContribution
		}
		return ranked[i].RuleID < ranked[j].RuleID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func newDistribution() model.GradeDistribution {
	d := make(model.GradeDistribution, len(model.Grades))
	for _, g := range model.Grades {
		d[g] = 0
	}
	return d
}

func mean(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return scoring.Round(total / float64(n))
}

// HighComplexity returns the results whose composite score is at least
// threshold, highest first.
func HighComplexity(r *model.Report, threshold float64) []model.QueryResult {
	var out []model.QueryResult
	for _, res := range r.Results() {
		if res.Composite.Score >= threshold {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Composite.Score > out[j].Composite.Score
	})
	return out
}
