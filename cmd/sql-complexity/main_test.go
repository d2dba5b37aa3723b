package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"sql-complexity/internal/config"
	"sql-complexity/internal/history"
	"sql-complexity/internal/model"
	"sql-complexity/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunScore(t *testing.T) {
	src := t.TempDir()
	writeInput(t, filepath.Join(src, "a.sql"), `SELECT * FROM users WHERE id = 1;
SELECT e.id FROM emp e START WITH e.mgr IS NULL CONNECT BY PRIOR e.id = e.mgr;`)
	writeInput(t, filepath.Join(src, "app", "repo.go"), `const q = "SELECT name FROM users u JOIN orders o ON o.uid = u.id"`)
	writeInput(t, filepath.Join(src, "README.md"), `"SELECT ignored FROM docs"`)

	db := filepath.Join(t.TempDir(), "history.db")
	cfg := &config.Config{
		Dialect:  "oracle",
		Formats:  []string{"json"},
		Output:   "-",
		Workers:  2,
		TopRules: 5,
		History:  db,
	}

	var out bytes.Buffer
	log := slog.New(slog.DiscardHandler)
	require.NoError(t, runScore(context.Background(), cfg, log, []string{src}, &out))

	var rep model.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, model.DialectOracle, rep.Dialect)
	assert.Equal(t, 2, rep.Summary.FileCount)
	assert.Equal(t, 3, rep.Summary.QueryCount)
	assert.Equal(t, 1, rep.Summary.DegradedCount)
	assert.Equal(t, "a.sql", rep.Files[0].Name)
	assert.Equal(t, "repo.go", rep.Files[1].Name)
	assert.NotEmpty(t, rep.TopRules)

	store := history.NewStore(nil)
	require.NoError(t, store.Open(db))
	defer store.Close()
	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].QueryCount)
}

func TestRunScore_WritesFiles(t *testing.T) {
	src := t.TempDir()
	writeInput(t, filepath.Join(src, "q.sql"), "SELECT 1")
	base := filepath.Join(t.TempDir(), "report")

	cfg := &config.Config{Dialect: "PG", Formats: []string{"md", "csv"}, Output: base, Workers: 1, TopRules: 20}
	require.NoError(t, runScore(context.Background(), cfg, slog.New(slog.DiscardHandler), []string{filepath.Join(src, "q.sql")}, &bytes.Buffer{}))

	assert.FileExists(t, base+".md")
	assert.FileExists(t, base+".csv")
}

func TestRunScore_NeedsDialect(t *testing.T) {
	cfg := &config.Config{Formats: []string{"console"}, Workers: 1, TopRules: 20}
	err := runScore(context.Background(), cfg, slog.New(slog.DiscardHandler), []string{"."}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect is required")
}

func TestCollectPaths(t *testing.T) {
	src := t.TempDir()
	writeInput(t, filepath.Join(src, "b.sql"), "SELECT 1")
	writeInput(t, filepath.Join(src, "a", "x.py"), "")
	writeInput(t, filepath.Join(src, ".git", "hook.sql"), "")
	writeInput(t, filepath.Join(src, "notes.txt"), "")

	walker := scanner.NewFileWalker([]string{"sql", "py"}, nil)
	paths, err := collectPaths(context.Background(), []string{src, filepath.Join(src, "notes.txt")}, walker)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(src, "a", "x.py"),
		filepath.Join(src, "b.sql"),
		filepath.Join(src, "notes.txt"),
	}, paths)

	_, err = collectPaths(context.Background(), []string{filepath.Join(src, "missing")}, walker)
	assert.Error(t, err)
}
