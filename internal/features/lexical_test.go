package features

import (
	"strings"
	"testing"

	"sql-complexity/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNewText_Masking(t *testing.T) {
	tests := []struct {
		name     string
		dialect  model.Dialect
		raw      string
		absent   []string
		present  []string
		literals int
	}{
		{
			name:     "Keywords inside literals",
			raw:      "SELECT 'CONNECT BY' AS x FROM t",
			absent:   []string{"CONNECT"},
			present:  []string{"SELECT", "FROM t"},
			literals: 1,
		},
		{
			name:     "Escaped quote stays in literal",
			raw:      "SELECT 'it''s JOIN' FROM t",
			absent:   []string{"JOIN"},
			present:  []string{"FROM t"},
			literals: 1,
		},
		{
			name:     "Line comment",
			raw:      "SELECT a -- LEFT JOIN b\nFROM t",
			absent:   []string{"LEFT", "JOIN"},
			present:  []string{"FROM t"},
			literals: 0,
		},
		{
			name:     "Block comment",
			raw:      "SELECT /* NVL(a, 0) */ a FROM t",
			absent:   []string{"NVL"},
			present:  []string{" a FROM t"},
			literals: 0,
		},
		{
			name:     "Quoted identifier kept",
			raw:      `SELECT "ROWNUM" FROM t`,
			present:  []string{`"ROWNUM"`},
			literals: 0,
		},
		{
			name:     "Multibyte literal keeps offsets",
			raw:      "SELECT 'größe JOIN' FROM t WHERE a = 1",
			absent:   []string{"JOIN", "größe"},
			present:  []string{"FROM t WHERE a = 1"},
			literals: 1,
		},
		{
			name:     "Backslash escaped quote under MySQL",
			dialect:  model.DialectMySQL,
			raw:      `SELECT a FROM t WHERE n = 'it\'s' AND x IN (SELECT y FROM u) AND m = 'z'`,
			absent:   []string{"it", "z'"},
			present:  []string{"IN (SELECT y FROM u) AND m = '"},
			literals: 2,
		},
		{
			name:     "Backslash escaped backslash under MariaDB",
			dialect:  model.DialectMariaDB,
			raw:      `SELECT a FROM t WHERE p = 'C:\\' AND x IN (SELECT y FROM u)`,
			absent:   []string{"C:"},
			present:  []string{"AND x IN (SELECT y FROM u)"},
			literals: 1,
		},
		{
			name:     "Backslash is literal under standard quoting",
			dialect:  model.DialectPostgreSQL,
			raw:      `SELECT a FROM t WHERE p = 'C:\' AND x IN (SELECT y FROM u)`,
			absent:   []string{"C:"},
			present:  []string{"AND x IN (SELECT y FROM u)"},
			literals: 1,
		},
		{
			name:     "Backslash escaped quote inside quoted identifier",
			dialect:  model.DialectMySQL,
			raw:      `SELECT "a\"b" FROM t WHERE c = 'JOIN'`,
			absent:   []string{"JOIN"},
			present:  []string{`"a\"b" FROM t WHERE c = '`},
			literals: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := NewDialectText(tt.raw, tt.dialect)
			assert.Equal(t, len(tt.raw), len(text.Code))
			assert.Equal(t, strings.Index(tt.raw, "FROM"), strings.Index(text.Code, "FROM"))
			assert.Equal(t, strings.Count(tt.raw, "\n"), strings.Count(text.Code, "\n"))
			for _, s := range tt.absent {
				assert.NotContains(t, text.Code, s)
			}
			for _, s := range tt.present {
				assert.Contains(t, text.Code, s)
			}
			assert.Equal(t, tt.literals, text.StringLiterals())
			assert.Equal(t, tt.raw, text.Raw)
		})
	}
}

func TestNormalizedLength(t *testing.T) {
	assert.Equal(t, 8, normalizedLength("SELECT 1"))
	assert.Equal(t, 8, normalizedLength("  SELECT\n\t  1  "))
	assert.Equal(t, 0, normalizedLength(""))
}

func TestLexicalStatementType(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"SELECT 1", "SELECT"},
		{"  (select a from t)", "SELECT"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "SELECT"},
		{"merge into t using u on (1=1)", "MERGE"},
		{"CREATE TABLE t (a INT)", "DDL"},
		{"BEGIN NULL; END;", "OTHER"},
		{"", "OTHER"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lexicalStatementType(tt.code), tt.code)
	}
}
