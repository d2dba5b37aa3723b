package parser

import (
	"testing"

	"sql-complexity/internal/model"

	"github.com/pingcap/tidb/parser/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLParser_Parse(t *testing.T) {
	parser := NewSQLParser()

	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{
			name:    "Valid SELECT",
			sql:     "SELECT * FROM users",
			wantErr: false,
		},
		{
			name:    "Valid SELECT with placeholder",
			sql:     "SELECT * FROM users WHERE id = ?",
			wantErr: false,
		},
		{
			name:    "Valid INSERT",
			sql:     "INSERT INTO users (name) VALUES ('test')",
			wantErr: false,
		},
		{
			name:    "Invalid SQL",
			sql:     "SELECT * FROM",
			wantErr: true,
		},
		{
			name:    "Oracle hierarchical query",
			sql:     "SELECT id FROM emp START WITH mgr IS NULL CONNECT BY PRIOR id = mgr",
			wantErr: true,
		},
		{
			name:    "Empty SQL",
			sql:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := parser.Parse(tt.sql)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, stmt)
		})
	}
}

func TestForDialect_ANSIQuotes(t *testing.T) {
	sql := `SELECT "first_name" || ' ' || "last_name" FROM "people"`

	_, err := ForDialect(model.DialectPostgreSQL).Parse(sql)
	require.NoError(t, err)

	stmt, err := ForDialect(model.DialectOracle).Parse(sql)
	require.NoError(t, err)
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	require.NotNil(t, sel.From)
	assert.Equal(t, []string{"people"}, BaseTables(sel.From))
}

func TestSQLParser_ConcurrentUse(t *testing.T) {
	p := NewSQLParser()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Parse("SELECT a, b FROM t1 JOIN t2 ON t1.id = t2.id")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}

func TestStatementType(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT 1", "SELECT"},
		{"SELECT a FROM t UNION SELECT b FROM u", "SELECT"},
		{"INSERT INTO t (a) VALUES (1)", "INSERT"},
		{"REPLACE INTO t (a) VALUES (1)", "REPLACE"},
		{"UPDATE t SET a = 1", "UPDATE"},
		{"DELETE FROM t WHERE a = 1", "DELETE"},
		{"CREATE TABLE t (a INT)", "DDL"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.sql, func(t *testing.T) {
			stmt, err := p.Parse(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, StatementType(stmt))
		})
	}
}

func TestQueryBlockBindings(t *testing.T) {
	p := NewSQLParser()
	stmt, err := p.Parse("SELECT * FROM orders o JOIN customers ON o.cid = customers.id, (SELECT 1 AS x) d")
	require.NoError(t, err)

	sel := stmt.(*ast.SelectStmt)
	assert.ElementsMatch(t, []string{"o", "orders", "customers", "d"}, QueryBlockBindings(sel.From))
	assert.ElementsMatch(t, []string{"orders", "customers"}, BaseTables(sel.From))
}
