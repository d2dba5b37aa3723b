package parser

import (
	"github.com/pingcap/tidb/parser/ast"
)

// StatementType names the kind of a parsed statement, e.g. "SELECT".
func StatementType(node ast.StmtNode) string {
	switch stmt := node.(type) {
	case *ast.SelectStmt:
		return "SELECT"
	case *ast.SetOprStmt:
		return "SELECT"
	case *ast.InsertStmt:
		if stmt.IsReplace {
			return "REPLACE"
		}
		return "INSERT"
	case *ast.UpdateStmt:
		return "UPDATE"
	case *ast.DeleteStmt:
		return "DELETE"
	case *ast.CallStmt:
		return "CALL"
	case ast.DDLNode:
		return "DDL"
	}
	return "OTHER"
}

// QueryBlockBindings returns the names a query block's FROM clause binds:
// every alias, and the table name of unaliased base tables. Derived tables
// contribute only their alias.
func QueryBlockBindings(refs *ast.TableRefsClause) []string {
	var names []string
	if refs == nil {
		return names
	}
	collectBindings(refs.TableRefs, &names)
	return names
}

func collectBindings(join *ast.Join, names *[]string) {
	if join == nil {
		return
	}
	if join.Left != nil {
		bindingsOf(join.Left, names)
	}
	if join.Right != nil {
		bindingsOf(join.Right, names)
	}
}

func bindingsOf(r ast.ResultSetNode, names *[]string) {
	if ts, ok := r.(*ast.TableSource); ok {
		if ts.AsName.L != "" {
			*names = append(*names, ts.AsName.L)
		}
		if tn, ok := ts.Source.(*ast.TableName); ok {
			*names = append(*names, tn.Name.L)
		}
	} else if join, ok := r.(*ast.Join); ok {
		collectBindings(join, names)
	}
}

// BaseTables returns the base table names directly joined in a FROM clause,
// one entry per reference. Derived tables are not descended into.
func BaseTables(refs *ast.TableRefsClause) []string {
	var tables []string
	if refs == nil {
		return tables
	}
	extractTableRefs(refs.TableRefs, &tables)
	return tables
}

func extractTableRefs(join *ast.Join, tables *[]string) {
	if join == nil {
		return
	}

	if join.Left != nil {
		extractTableSource(join.Left, tables)
	}
	if join.Right != nil {
		extractTableSource(join.Right, tables)
	}
}

func extractTableSource(r ast.ResultSetNode, tables *[]string) {
	if ts, ok := r.(*ast.TableSource); ok {
		if tn, ok := ts.Source.(*ast.TableName); ok {
			*tables = append(*tables, tn.Name.L)
		}
	} else if join, ok := r.(*ast.Join); ok {
		extractTableRefs(join, tables)
	}
}
