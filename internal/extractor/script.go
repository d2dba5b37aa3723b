package extractor

import (
	"fmt"
	"strings"

	"sql-complexity/internal/features"
	"sql-complexity/internal/model"
)

// ScriptExtractor splits a .sql file into statements on semicolons that are
// outside string literals and comments. Literals are read with the quoting
// rules of the script's dialect.
type ScriptExtractor struct {
	dialect model.Dialect
}

func NewScriptExtractor(d model.Dialect) *ScriptExtractor {
	return &ScriptExtractor{dialect: d}
}

func (e *ScriptExtractor) Extract(filePath string, content []byte) ([]model.SourceFile, error) {
	file := sourceFile(filePath)
	raw := string(content)
	code := features.NewDialectText(raw, e.dialect).Code

	start := 0
	emit := func(end int) {
		body := strings.TrimSpace(code[start:end])
		// a chunk holding only comments masks to blanks
		if body == "" {
			return
		}
		from := start + strings.Index(code[start:end], body)
		file.Queries = append(file.Queries, model.Query{
			Name: fmt.Sprintf("%s#%d", file.Name, len(file.Queries)+1),
			SQL:  strings.TrimSpace(raw[from:end]),
			File: file.Name,
			Location: model.Location{
				FilePath: filePath,
				Line:     strings.Count(raw[:from], "\n") + 1,
			},
		})
	}

	for i := 0; i < len(code); i++ {
		if code[i] == ';' {
			emit(i)
			start = i + 1
		}
	}
	emit(len(code))

	return []model.SourceFile{file}, nil
}
