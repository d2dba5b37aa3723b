package extractor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"sql-complexity/internal/model"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RegexExtractor pulls SQL string literals out of application source code
type RegexExtractor struct {
}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Patterns for different quote types
// Note: We use non-greedy *? to stop at the first closing quote
// We can't use backreferences in Go regexp (RE2)
var (
	doubleQuoteSQL = regexp.MustCompile(`"(?i)(?:SELECT|INSERT|UPDATE|DELETE|MERGE|WITH)\b.*?"`)
	singleQuoteSQL = regexp.MustCompile(`'(?i)(?:SELECT|INSERT|UPDATE|DELETE|MERGE|WITH)\b.*?'`)
	backTickSQL    = regexp.MustCompile("`(?i)(?:SELECT|INSERT|UPDATE|DELETE|MERGE|WITH)\\b.*?`")
)

type hit struct {
	start int
	sql   string
}

func (e *RegexExtractor) Extract(filePath string, content []byte) ([]model.SourceFile, error) {
	file := sourceFile(filePath)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		var hits []hit
		for _, re := range []*regexp.Regexp{doubleQuoteSQL, singleQuoteSQL, backTickSQL} {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				if loc[1]-loc[0] < 2 {
					continue
				}
				hits = append(hits, hit{start: loc[0], sql: line[loc[0]+1 : loc[1]-1]})
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

		for _, h := range hits {
			file.Queries = append(file.Queries, model.Query{
				Name: fmt.Sprintf("%s:%d", file.Name, lineNo),
				SQL:  h.sql,
				File: file.Name,
				Location: model.Location{
					FilePath: filePath,
					Line:     lineNo,
				},
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", filePath)
	}

	return []model.SourceFile{file}, nil
}

func sourceFile(path string) model.SourceFile {
	return model.SourceFile{Name: filepath.Base(path), Path: path}
}

// Manager selects the appropriate extractor based on file extension
type Manager struct {
	extractors map[string]model.Extractor
	fallback   model.Extractor
	logger     *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		extractors: make(map[string]model.Extractor),
		fallback:   NewRegexExtractor(),
		logger:     logger,
	}
}

// NewDefaultManager knows batch JSON, .sql scripts and common source languages.
// Scripts are split with the string quoting rules of d.
func NewDefaultManager(logger *slog.Logger, d model.Dialect) *Manager {
	m := NewManager(logger)
	m.Register("json", NewBatchExtractor())
	m.Register("sql", NewScriptExtractor(d))
	for _, ext := range SourceExtensions {
		m.Register(ext, NewRegexExtractor())
	}
	return m
}

// SourceExtensions are the source languages scanned for SQL string literals.
var SourceExtensions = []string{"go", "py", "java", "kt", "cs", "js", "ts", "php", "rb"}

func (m *Manager) Register(ext string, extr model.Extractor) {
	m.extractors[strings.ToLower(strings.TrimPrefix(ext, "."))] = extr
}

// Extensions lists every registered extension.
func (m *Manager) Extensions() []string {
	exts := make([]string, 0, len(m.extractors))
	for ext := range m.extractors {
		exts = append(exts, ext)
	}
	return exts
}

func (m *Manager) Extract(filePath string) ([]model.SourceFile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filePath)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	extr, ok := m.extractors[ext]
	if !ok {
		extr = m.fallback
	}
	files, err := extr.Extract(filePath, content)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("extracted queries", "file", filePath, "source_files", len(files), "queries", countQueries(files))
	return files, nil
}

// LoadAll extracts every path concurrently and numbers the result: source
// files in path order get consecutive FileIndex values, and queries their
// position within the file as Index.
func (m *Manager) LoadAll(ctx context.Context, paths []string, workers int) ([]model.SourceFile, error) {
	perPath := make([][]model.SourceFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := m.Extract(path)
			if err != nil {
				return err
			}
			perPath[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.SourceFile
	for _, files := range perPath {
		for _, f := range files {
			fi := len(out)
			for qi := range f.Queries {
				f.Queries[qi].FileIndex = fi
				f.Queries[qi].Index = qi
				if f.Queries[qi].File == "" {
					f.Queries[qi].File = f.Name
				}
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// Queries flattens files into one batch in (file, query) order.
func Queries(files []model.SourceFile) []model.Query {
	var out []model.Query
	for _, f := range files {
		out = append(out, f.Queries...)
	}
	return out
}

func countQueries(files []model.SourceFile) int {
	n := 0
	for _, f := range files {
		n += len(f.Queries)
	}
	return n
}
