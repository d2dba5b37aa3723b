package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"sql-complexity/internal/model"
	"sql-complexity/internal/report"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *model.Report {
	simple := model.QueryResult{
		Query:         model.Query{Name: "findUser", File: "UserMapper.xml", SQL: "SELECT * FROM users WHERE id = ?", Location: model.Location{FilePath: "/maps/UserMapper.xml", Line: 4}},
		Dialect:       model.DialectMySQL,
		StatementType: "SELECT",
		Triggers:      []model.TriggerRecord{{RuleID: "c_select_star", RuleName: "SELECT *", Category: model.CategoryClause, Occurrences: 1, Contribution: 5}},
		Categories:    []model.CategoryScore{{Category: model.CategoryClause, Raw: 5, Capped: 5, Max: 50}},
		RawScore:      5,
		Composite:     model.CompositeScore{Score: 0.15, Grade: model.GradeVerySimple},
	}
	heavy := model.QueryResult{
		Query:         model.Query{Name: "monthlyTotals", File: "UserMapper.xml", SQL: "SELECT ...", Index: 1},
		Dialect:       model.DialectMySQL,
		StatementType: "SELECT",
		Triggers: []model.TriggerRecord{
			{RuleID: "c_join_inner", RuleName: "Inner join", Category: model.CategoryStructural, Occurrences: 6, Contribution: 18},
			{RuleID: "c_unused", Category: model.CategoryClause},
		},
		Categories: []model.CategoryScore{{Category: model.CategoryStructural, Raw: 300, Capped: 100, Max: 100}},
		RawScore:   300,
		Composite:  model.CompositeScore{Score: 7.2, Grade: model.GradeComplex},
	}
	heavy.Features.StructuralParseFailed = true

	return report.Assemble([]model.QueryResult{heavy, simple}, report.Options{
		Dialect:      model.DialectMySQL,
		RulesVersion: "test",
		GeneratedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: "console"},
		{format: "json"},
		{format: "md"},
		{format: "Markdown"},
		{format: "csv"},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := New(tt.format, &bytes.Buffer{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "md", Extension("markdown"))
	assert.Equal(t, "json", Extension("JSON"))
	assert.Equal(t, "csv", Extension("csv"))
	assert.Equal(t, "txt", Extension("console"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "SELECT 1", 60, "SELECT 1"},
		{"whitespace collapsed", "SELECT a\n\t  FROM t", 60, "SELECT a FROM t"},
		{"ascii cut", "SELECT abcdef", 6, "SELECT..."},
		{"multibyte cut on rune boundary", "SELECT '사용자 이름' FROM t", 11, "SELECT '사용자..."},
		{"exact length", "사용자", 3, "사용자"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestConsoleReporter(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Report(sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Files: 1  Queries: 2  Degraded: 1")
	assert.Contains(t, out, "very simple")
	assert.Contains(t, out, "c_join_inner")
	assert.Contains(t, out, "High complexity (1)")
	assert.Contains(t, out, "monthlyTotals")
	assert.NotContains(t, out, "c_unused")
}

func TestConsoleReporter_Empty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Report(report.Assemble(nil, report.Options{})))
	assert.Contains(t, buf.String(), "No queries found.")
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf).Report(sampleReport()))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Summary.QueryCount)
	assert.Equal(t, "test", decoded.RulesVersion)
	require.Len(t, decoded.Files, 1)
	assert.Equal(t, "findUser", decoded.Files[0].Queries[0].Query.Name)
	assert.Equal(t, 1, decoded.Summary.Distribution[model.GradeComplex])
}

func TestMarkdownReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownReporter(&buf).Report(sampleReport()))
	out := buf.String()

	for _, want := range []string{
		"# SQL Complexity Report",
		"## Summary",
		"## Distribution",
		"## Top Rules",
		"### UserMapper.xml",
		"## High Complexity",
		"### monthlyTotals (7.20, complex)",
		"c_join_inner",
		"```sql\nSELECT ...\n```",
	} {
		assert.Contains(t, out, want)
	}
	// the simple query is below the threshold
	assert.NotContains(t, out, "### findUser")
}

func TestCSVReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVReporter(&buf).Report(sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(strings.ToLower(lines[0]), "file,query,line,dialect,statement_type,structural,"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "UserMapper.xml,findUser,4,MY,SELECT,"), lines[1])
	assert.Contains(t, lines[2], "monthlyTotals")
	assert.Contains(t, lines[2], "7.20,complex,true,2")
}
