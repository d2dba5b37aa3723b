package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"sql-complexity/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWalker_Walk(t *testing.T) {
	rootDir := t.TempDir()

	files := []string{
		"batch.json",
		"queries.sql",
		"main.go",
		"notes.txt",
		"sub/more.SQL",
		"sub/ignore_dir/file.sql",
		"vendor/vendor.go",
		".git/config.json",
	}

	for _, f := range files {
		path := filepath.Join(rootDir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("SELECT 1"), 0o644))
	}

	tests := []struct {
		name     string
		exts     []string
		excludes []string
		want     []string
	}{
		{
			name:     "Find SQL files",
			exts:     []string{"sql"},
			excludes: []string{"vendor", "ignore_dir"},
			want:     []string{"queries.sql", "sub/more.SQL"},
		},
		{
			name:     "Find batch and source files",
			exts:     []string{".json", "go"},
			excludes: []string{"vendor"},
			want:     []string{"batch.json", "main.go"},
		},
		{
			name:     "Glob exclude",
			exts:     []string{"sql", "json"},
			excludes: []string{"*.json"},
			want:     []string{"queries.sql", "sub/ignore_dir/file.sql", "sub/more.SQL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walker := NewFileWalker(tt.exts, tt.excludes)
			paths, errs := walker.Walk(context.Background(), rootDir)

			var got []string
			for p := range paths {
				rel, err := filepath.Rel(rootDir, p)
				require.NoError(t, err)
				got = append(got, filepath.ToSlash(rel))
			}
			require.NoError(t, <-errs)

			sort.Strings(got)
			sort.Strings(tt.want)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileWalker_MissingRoot(t *testing.T) {
	walker := NewFileWalker([]string{"sql"}, nil)
	paths, errs := walker.Walk(context.Background(), filepath.Join(t.TempDir(), "nope"))
	for range paths {
	}
	assert.Error(t, <-errs)
}

func queries(n int) []model.Query {
	qs := make([]model.Query, n)
	for i := range qs {
		qs[i] = model.Query{Name: fmt.Sprintf("q%d", i), SQL: "SELECT 1", Index: i}
	}
	return qs
}

func TestWorkerPool_Start(t *testing.T) {
	proc := func(_ context.Context, q model.Query) (model.QueryResult, error) {
		return model.QueryResult{Query: q}, nil
	}

	pool := NewWorkerPool(2, proc)
	jobs := make(chan Job, 5)
	for i := 0; i < 5; i++ {
		jobs <- Job{Index: i, Query: model.Query{Name: "dummy"}}
	}
	close(jobs)

	seen := map[int]bool{}
	for res := range pool.Start(context.Background(), jobs) {
		require.NoError(t, res.Error)
		assert.Equal(t, "dummy", res.Result.Query.Name)
		seen[res.Index] = true
	}
	assert.Len(t, seen, 5)
}

func TestWorkerPool_RunKeepsInputOrder(t *testing.T) {
	// later queries finish first
	proc := func(_ context.Context, q model.Query) (model.QueryResult, error) {
		time.Sleep(time.Duration(20-q.Index) * time.Millisecond)
		return model.QueryResult{Query: q}, nil
	}

	out, err := NewWorkerPool(8, proc).Run(context.Background(), queries(20))
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, r := range out {
		assert.Equal(t, fmt.Sprintf("q%d", i), r.Query.Name)
	}
}

func TestWorkerPool_RunError(t *testing.T) {
	proc := func(_ context.Context, q model.Query) (model.QueryResult, error) {
		if q.Index == 3 {
			return model.QueryResult{}, fmt.Errorf("boom")
		}
		return model.QueryResult{Query: q}, nil
	}

	_, err := NewWorkerPool(2, proc).Run(context.Background(), queries(10))
	assert.EqualError(t, err, "boom")
}

func TestWorkerPool_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	proc := func(_ context.Context, q model.Query) (model.QueryResult, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return model.QueryResult{Query: q}, nil
	}

	out, err := NewWorkerPool(1, proc).Run(ctx, queries(100))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Less(t, int(calls.Load()), 100)
}

func TestNewWorkerPool_MinimumConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewWorkerPool(0, nil).Concurrency)
}
