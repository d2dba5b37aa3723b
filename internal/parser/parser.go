package parser

import (
	"fmt"
	"sync"

	"sql-complexity/internal/model"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/mysql"
	_ "github.com/pingcap/tidb/parser/test_driver"
)

// SQLParser wraps the TiDB parser. A TiDB parser is not safe for concurrent
// use, so instances are pooled and handed out per call.
type SQLParser struct {
	mode mysql.SQLMode
	pool sync.Pool
}

func NewSQLParser() *SQLParser {
	return NewSQLParserWithMode(mysql.ModeNone)
}

// NewSQLParserWithMode returns a parser using the given SQL mode.
func NewSQLParserWithMode(mode mysql.SQLMode) *SQLParser {
	sp := &SQLParser{mode: mode}
	sp.pool.New = func() any {
		p := parser.New()
		p.SetSQLMode(sp.mode)
		return p
	}
	return sp
}

// ForDialect returns a parser tuned to the quoting and concatenation rules of d.
// ANSI-leaning engines treat "x" as an identifier and || as concatenation.
func ForDialect(d model.Dialect) *SQLParser {
	switch d {
	case model.DialectOracle, model.DialectPostgreSQL, model.DialectDB2, model.DialectAltibase:
		return NewSQLParserWithMode(mysql.ModeANSIQuotes | mysql.ModePipesAsConcat)
	default:
		return NewSQLParser()
	}
}

// Parse converts a SQL string into an AST
func (sp *SQLParser) Parse(sql string) (node ast.StmtNode, err error) {
	p := sp.pool.Get().(*parser.Parser)
	defer sp.pool.Put(p)

	// The grammar occasionally panics on inputs far outside MySQL syntax.
	defer func() {
		if r := recover(); r != nil {
			node, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()

	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, err
	}
	if len(stmtNodes) == 0 {
		return nil, fmt.Errorf("no valid SQL found")
	}
	// For now, we return the first statement found
	return stmtNodes[0], nil
}
