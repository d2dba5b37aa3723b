package features

import (
	"strings"

	"sql-complexity/internal/model"
	"sql-complexity/internal/parser"

	"github.com/pingcap/tidb/parser/ast"
)

// Analysis is the outcome of extracting one query.
type Analysis struct {
	Features      model.FeatureVector
	StatementType string
	Text          Text
}

// Extractor turns SQL text into a FeatureVector. It is safe for concurrent use.
type Extractor struct {
	parser  *parser.SQLParser
	dialect model.Dialect
}

func NewExtractor(p *parser.SQLParser) *Extractor {
	if p == nil {
		p = parser.NewSQLParser()
	}
	return &Extractor{parser: p}
}

// ForDialect returns an Extractor using the parser and string quoting rules
// of d.
func ForDialect(d model.Dialect) *Extractor {
	return &Extractor{parser: parser.ForDialect(d), dialect: d}
}

// Extract returns the feature vector of sql. It never fails: text the
// structural parser rejects yields zero structural fields and the
// StructuralParseFailed flag, with the text metrics still filled in.
func (e *Extractor) Extract(sql string) model.FeatureVector {
	return e.Analyze(sql).Features
}

// Analyze is Extract plus the statement type and masked text, which the
// evaluator needs for lexical rules.
func (e *Extractor) Analyze(sql string) Analysis {
	text := NewDialectText(sql, e.dialect)
	if strings.TrimSpace(text.Code) == "" {
		// Blank input, or input that is nothing but comments, is a zero vector.
		return Analysis{Text: text, StatementType: "OTHER"}
	}

	var fv model.FeatureVector
	applyTextMetrics(text, &fv)

	stmt, err := e.parser.Parse(fullJoinInput(text))
	if err != nil {
		fv.StructuralParseFailed = true
		return Analysis{
			Features:      fv,
			StatementType: lexicalStatementType(text.Code),
			Text:          text,
		}
	}

	applyStructure(&fv, stmt, text)
	return Analysis{
		Features:      fv,
		StatementType: parser.StatementType(stmt),
		Text:          text,
	}
}

func applyStructure(fv *model.FeatureVector, stmt ast.StmtNode, text Text) {
	v := newStructuralVisitor(fv)
	stmt.Accept(v)
	v.finish(text)
	applyTopLevel(fv, stmt)
}

// fullJoinInput returns the raw SQL with every FULL [OUTER] JOIN spelled as
// LEFT [OUTER] JOIN, which the MySQL grammar accepts. Both keywords are four
// bytes long, so offsets into the text stay valid.
func fullJoinInput(t Text) string {
	locs := fullJoin.FindAllStringIndex(t.Code, -1)
	if len(locs) == 0 {
		return t.Raw
	}
	b := []byte(t.Raw)
	for _, loc := range locs {
		copy(b[loc[0]:], "LEFT")
	}
	return string(b)
}
