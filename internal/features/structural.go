package features

import (
	"sql-complexity/internal/model"
	"sql-complexity/internal/parser"

	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/opcode"
)

var (
	stringFuncs = nameSet(
		"concat", "concat_ws", "substr", "substring", "substring_index", "left", "right",
		"lower", "upper", "lcase", "ucase", "initcap", "trim", "ltrim", "rtrim", "btrim",
		"replace", "translate", "instr", "locate", "position", "charindex", "patindex",
		"lpad", "rpad", "length", "char_length", "character_length", "len", "octet_length",
		"reverse", "repeat", "replicate", "space", "format", "ascii", "char", "chr", "field",
		"find_in_set", "insert", "mid", "strcmp", "soundex", "difference", "stuff",
		"regexp_replace", "regexp_substr", "regexp_instr", "regexp_like", "regexp_count",
		"split_part", "quote", "hex", "unhex", "md5", "sha1", "sha2", "to_base64", "from_base64",
	)
	mathFuncs = nameSet(
		"abs", "ceil", "ceiling", "floor", "round", "truncate", "trunc", "mod", "power", "pow",
		"sqrt", "exp", "ln", "log", "log2", "log10", "sign", "rand", "random", "greatest",
		"least", "pi", "sin", "cos", "tan", "asin", "acos", "atan", "atan2", "cot", "degrees",
		"radians", "div", "square", "bitand",
	)
	nullFuncs = nameSet(
		"ifnull", "isnull", "nullif", "coalesce", "nvl", "nvl2", "zeroifnull", "nullifzero",
		"value",
	)
	castFuncs = nameSet(
		"cast", "convert", "try_cast", "try_convert", "to_char", "to_date", "to_number",
		"to_timestamp", "to_nchar", "date_format", "str_to_date", "parse", "try_parse",
	)
	conditionalFuncs = nameSet("if", "iif", "decode", "choose")
	aggregateFuncs   = nameSet(
		"listagg", "string_agg", "array_agg", "median", "wm_concat", "xmlagg", "percentile_cont",
		"percentile_disc", "collect", "every", "bool_and", "bool_or",
	)
)

func nameSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func has(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}

// scope is the set of names one query block binds in its FROM clause.
type scope map[string]struct{}

// structuralVisitor walks a statement once and accumulates the structural
// fields of a FeatureVector.
type structuralVisitor struct {
	fv *model.FeatureVector

	scopes []scope

	// nesting is the current subquery level; opened records which nodes
	// raised it so Leave can lower it again.
	nesting int
	opened  map[ast.Node]struct{}

	cteBodies map[*ast.SubqueryExpr]struct{}
	cteNames  map[string]struct{}
	tables    map[string]struct{}

	caseDepth int

	// unconditioned counts joins with neither ON nor USING: an explicit
	// CROSS JOIN and a comma join produce the same tree.
	unconditioned int
}

func newStructuralVisitor(fv *model.FeatureVector) *structuralVisitor {
	return &structuralVisitor{
		fv:        fv,
		opened:    make(map[ast.Node]struct{}),
		cteBodies: make(map[*ast.SubqueryExpr]struct{}),
		cteNames:  make(map[string]struct{}),
		tables:    make(map[string]struct{}),
	}
}

func (v *structuralVisitor) Enter(in ast.Node) (ast.Node, bool) {
	switch n := in.(type) {
	case *ast.WithClause:
		if n.IsRecursive {
			v.fv.RecursiveCTE = true
		}
	case *ast.CommonTableExpression:
		v.fv.CTECount++
		v.cteNames[n.Name.L] = struct{}{}
		if n.Query != nil {
			v.cteBodies[n.Query] = struct{}{}
		}
	case *ast.SubqueryExpr:
		if _, ok := v.cteBodies[n]; !ok {
			v.openNesting(n)
		}
	case *ast.TableSource:
		switch n.Source.(type) {
		case *ast.SelectStmt, *ast.SetOprStmt:
			v.openNesting(n)
		}
	case *ast.SelectStmt:
		v.enterSelect(n)
	case *ast.SetOprSelectList:
		if n.AfterSetOperator != nil {
			v.countSetOperator(*n.AfterSetOperator)
		}
	case *ast.SetOprStmt:
		if n.OrderBy != nil {
			v.fv.HasOrderBy = true
			v.fv.OrderByColumnCount += len(n.OrderBy.Items)
		}
	case *ast.UpdateStmt:
		v.pushScope(n.TableRefs)
		v.countSelfJoins(n.TableRefs)
	case *ast.DeleteStmt:
		v.pushScope(n.TableRefs)
		v.countSelfJoins(n.TableRefs)
	case *ast.Join:
		v.classifyJoin(n)
	case *ast.TableName:
		if _, isCTE := v.cteNames[n.Name.L]; !isCTE {
			v.tables[n.Name.L] = struct{}{}
		}
	case *ast.ColumnNameExpr:
		v.checkCorrelation(n.Name)
	case *ast.AggregateFuncExpr:
		v.fv.AggregateFunctionCount++
	case *ast.WindowFuncExpr:
		v.fv.WindowFunctionCount++
	case *ast.CaseExpr:
		v.fv.CaseCount++
		if v.caseDepth > 0 {
			v.fv.NestedCase = true
		}
		v.caseDepth++
	case *ast.FuncCastExpr:
		v.fv.CastCount++
	case *ast.FuncCallExpr:
		v.classifyFunction(n.FnName.L)
	case *ast.PatternInExpr:
		for _, item := range n.List {
			if _, ok := item.(ast.ValueExpr); ok {
				v.fv.InListLiteral = true
				break
			}
		}
	}
	return in, false
}

func (v *structuralVisitor) Leave(in ast.Node) (ast.Node, bool) {
	if _, ok := v.opened[in]; ok {
		delete(v.opened, in)
		v.nesting--
	}
	switch in.(type) {
	case *ast.SelectStmt, *ast.UpdateStmt, *ast.DeleteStmt:
		v.popScope()
	case *ast.CaseExpr:
		v.caseDepth--
	}
	return in, true
}

func (v *structuralVisitor) openNesting(n ast.Node) {
	v.opened[n] = struct{}{}
	v.nesting++
	v.fv.SubqueryCount++
	if v.nesting > v.fv.SubqueryDepth {
		v.fv.SubqueryDepth = v.nesting
	}
}

func (v *structuralVisitor) enterSelect(n *ast.SelectStmt) {
	v.pushScope(n.From)
	v.countSelfJoins(n.From)

	if n.AfterSetOperator != nil {
		v.countSetOperator(*n.AfterSetOperator)
	}
	if n.Distinct {
		v.fv.Distinct = true
	}
	if n.GroupBy != nil {
		v.fv.HasGroupBy = true
		v.fv.GroupByColumnCount += len(n.GroupBy.Items)
	}
	if n.Having != nil {
		v.fv.HasHaving = true
	}
	if n.OrderBy != nil {
		v.fv.HasOrderBy = true
		v.fv.OrderByColumnCount += len(n.OrderBy.Items)
	}
}

func (v *structuralVisitor) pushScope(refs *ast.TableRefsClause) {
	s := make(scope)
	for _, name := range parser.QueryBlockBindings(refs) {
		s[name] = struct{}{}
	}
	v.scopes = append(v.scopes, s)
}

func (v *structuralVisitor) popScope() {
	if len(v.scopes) > 0 {
		v.scopes = v.scopes[:len(v.scopes)-1]
	}
}

// checkCorrelation flags a qualified column reference that resolves to a
// name bound by an enclosing query block rather than the current one.
// Unqualified columns cannot be resolved without a schema and are ignored.
func (v *structuralVisitor) checkCorrelation(col *ast.ColumnName) {
	if col == nil || col.Table.L == "" || len(v.scopes) < 2 {
		return
	}
	current := v.scopes[len(v.scopes)-1]
	if _, ok := current[col.Table.L]; ok {
		return
	}
	for i := len(v.scopes) - 2; i >= 0; i-- {
		if _, ok := v.scopes[i][col.Table.L]; ok {
			v.fv.CorrelatedSubquery = true
			return
		}
	}
}

func (v *structuralVisitor) countSelfJoins(refs *ast.TableRefsClause) {
	seen := make(map[string]int)
	for _, name := range parser.BaseTables(refs) {
		seen[name]++
	}
	for _, n := range seen {
		if n > 1 {
			v.fv.Joins.Self += n - 1
		}
	}
}

func (v *structuralVisitor) countSetOperator(op ast.SetOprType) {
	switch op {
	case ast.Union:
		v.fv.UnionCount++
	case ast.UnionAll:
		v.fv.UnionAllCount++
	case ast.Intersect, ast.IntersectAll:
		v.fv.IntersectCount++
	case ast.Except, ast.ExceptAll:
		v.fv.ExceptCount++
	}
}

func (v *structuralVisitor) classifyJoin(n *ast.Join) {
	if n.Right == nil {
		return
	}
	switch {
	case n.NaturalJoin:
		v.fv.Joins.Natural++
	case n.Tp == ast.LeftJoin:
		v.fv.Joins.Left++
	case n.Tp == ast.RightJoin:
		v.fv.Joins.Right++
	case n.On != nil || len(n.Using) > 0:
		v.fv.Joins.Inner++
	default:
		v.unconditioned++
	}
}

func (v *structuralVisitor) classifyFunction(name string) {
	switch {
	case has(stringFuncs, name):
		v.fv.StringFunctionCount++
	case has(mathFuncs, name):
		v.fv.MathFunctionCount++
	case has(nullFuncs, name):
		v.fv.NullFunctionCount++
	case has(castFuncs, name):
		v.fv.CastCount++
	case has(conditionalFuncs, name):
		v.fv.CaseCount++
	case has(aggregateFuncs, name):
		v.fv.AggregateFunctionCount++
	}
}

// finish reconciles the join breakdown with the keyword scan of the masked
// text and fills the derived totals.
func (v *structuralVisitor) finish(t Text) {
	j := &v.fv.Joins

	// Unconditioned joins written with the JOIN keyword are cross joins;
	// the rest are comma joins, which only count toward referenced tables.
	labelled := j.Inner + j.Left + j.Right + j.Natural
	explicit := len(joinKeyword.FindAllStringIndex(t.Code, -1)) - labelled
	j.Cross = clamp(explicit, 0, v.unconditioned)

	// FULL joins reach the parser rewritten as LEFT joins; see fullJoinInput.
	if full := len(fullJoin.FindAllStringIndex(t.Code, -1)); full > 0 {
		moved := min(full, j.Left)
		j.Left -= moved
		j.Full += moved
	}

	v.fv.JoinCount = j.Inner + j.Left + j.Right + j.Full + j.Cross + j.Natural
	v.fv.TableCount = len(v.tables)
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// countPredicates counts the leaf predicates of a boolean expression joined
// by AND, OR or XOR. Parenthesised groups are flattened; subqueries count as
// the single predicate they appear in.
func countPredicates(e ast.ExprNode) int {
	switch x := e.(type) {
	case nil:
		return 0
	case *ast.BinaryOperationExpr:
		if x.Op == opcode.LogicAnd || x.Op == opcode.LogicOr || x.Op == opcode.LogicXor {
			return countPredicates(x.L) + countPredicates(x.R)
		}
	case *ast.ParenthesesExpr:
		return countPredicates(x.Expr)
	}
	return 1
}

// applyTopLevel fills the fields that describe only the outermost query
// block: the select list and the WHERE clause.
func applyTopLevel(fv *model.FeatureVector, node ast.StmtNode) {
	switch stmt := node.(type) {
	case *ast.SelectStmt:
		applySelectList(fv, stmt)
		fv.WherePredicateCount = countPredicates(stmt.Where)
	case *ast.SetOprStmt:
		if stmt.SelectList == nil {
			return
		}
		first := true
		for _, sel := range stmt.SelectList.Selects {
			s, ok := sel.(*ast.SelectStmt)
			if !ok {
				continue
			}
			if first {
				applySelectList(fv, s)
				first = false
			}
			fv.WherePredicateCount += countPredicates(s.Where)
		}
	case *ast.UpdateStmt:
		fv.WherePredicateCount = countPredicates(stmt.Where)
	case *ast.DeleteStmt:
		fv.WherePredicateCount = countPredicates(stmt.Where)
	case *ast.InsertStmt:
		if sel, ok := stmt.Select.(*ast.SelectStmt); ok {
			applySelectList(fv, sel)
			fv.WherePredicateCount = countPredicates(sel.Where)
		}
	}
}

func applySelectList(fv *model.FeatureVector, sel *ast.SelectStmt) {
	if sel.Fields == nil {
		return
	}
	fv.SelectColumnCount = len(sel.Fields.Fields)
	for _, f := range sel.Fields.Fields {
		if f.WildCard != nil {
			fv.SelectStar = true
		}
	}
}
