package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"sql-complexity/internal/model"

	"github.com/pkg/errors"
)

// BatchExtractor reads the batch JSON layout produced by template
// preprocessors:
//
//	{"files": [{"file_name": "...", "file_path": "...",
//	  "queries": [{"name": "...", "type": "...", "sql": "..."}]}]}
//
// Queries with empty SQL are kept so they are still reported.
type BatchExtractor struct {
}

func NewBatchExtractor() *BatchExtractor {
	return &BatchExtractor{}
}

type batchFile struct {
	Files []batchSource `json:"files"`
}

type batchSource struct {
	Name    string       `json:"file_name"`
	Path    string       `json:"file_path"`
	Queries []batchQuery `json:"queries"`
}

type batchQuery struct {
	Name string `json:"name"`
	Type string `json:"type"`
	SQL  string `json:"sql"`
}

func (e *BatchExtractor) Extract(filePath string, content []byte) ([]model.SourceFile, error) {
	var batch batchFile
	if err := json.Unmarshal(content, &batch); err != nil {
		return nil, errors.Wrapf(err, "failed to decode batch %s", filePath)
	}

	files := make([]model.SourceFile, 0, len(batch.Files))
	for i, src := range batch.Files {
		file := model.SourceFile{Name: src.Name, Path: src.Path}
		if file.Name == "" {
			file.Name = fmt.Sprintf("%s[%d]", sourceFile(filePath).Name, i)
		}
		if file.Path == "" {
			file.Path = filePath
		}

		for j, bq := range src.Queries {
			name := bq.Name
			if name == "" {
				name = fmt.Sprintf("%s#%d", file.Name, j+1)
			}
			file.Queries = append(file.Queries, model.Query{
				Name:     name,
				Type:     strings.ToUpper(strings.TrimSpace(bq.Type)),
				SQL:      bq.SQL,
				File:     file.Name,
				Location: model.Location{FilePath: file.Path},
			})
		}
		files = append(files, file)
	}
	return files, nil
}
