package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"sql-complexity/internal/model"
)

// FileWalker is responsible for traversing directories and feeding files to a channel
type FileWalker struct {
	Extensions map[string]struct{}
	Excludes   []string
}

func NewFileWalker(exts []string, excludes []string) *FileWalker {
	e := make(map[string]struct{})
	for _, ext := range exts {
		e[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &FileWalker{
		Extensions: e,
		Excludes:   excludes,
	}
}

// Walk starts the traversal and returns a channel of file paths.
// It runs in a separate goroutine and closes the channel when done.
// WalkDir visits entries in lexical order, so the path order is stable.
func (fw *FileWalker) Walk(ctx context.Context, root string) (<-chan string, <-chan error) {
	paths := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if d.IsDir() {
				for _, exclude := range fw.Excludes {
					if strings.Contains(path, exclude) {
						return filepath.SkipDir
					}
				}
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir // hidden directories like .git
				}
				return nil
			}

			for _, exclude := range fw.Excludes {
				matched, _ := filepath.Match(exclude, d.Name())
				if matched || strings.Contains(path, exclude) {
					return nil
				}
			}

			if !fw.Accepts(path) {
				return nil
			}
			select {
			case paths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return paths, errs
}

// Accepts reports whether path has one of the walker's extensions.
func (fw *FileWalker) Accepts(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := fw.Extensions[ext]
	return ok
}

// Job is one query to score, tagged with its position in the batch.
type Job struct {
	Index int
	Query model.Query
}

// Result is the outcome of one Job.
type Result struct {
	Index  int
	Result model.QueryResult
	Error  error
}

// Processor scores a single query
type Processor func(ctx context.Context, q model.Query) (model.QueryResult, error)

// WorkerPool manages concurrent processing
type WorkerPool struct {
	Concurrency int
	Processor   Processor
}

func NewWorkerPool(concurrency int, proc Processor) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{
		Concurrency: concurrency,
		Processor:   proc,
	}
}

// Start runs the workers until jobs is closed or ctx is done. Results arrive
// in completion order; Job.Index tells the caller where each belongs.
func (wp *WorkerPool) Start(ctx context.Context, jobs <-chan Job) <-chan Result {
	results := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < wp.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res, err := wp.Processor(ctx, job.Query)
				select {
				case results <- Result{Index: job.Index, Result: res, Error: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Feed sends every query to a new job channel, stopping early when ctx is done.
func Feed(ctx context.Context, queries []model.Query) <-chan Job {
	jobs := make(chan Job)
	go func() {
		defer close(jobs)
		for i, q := range queries {
			select {
			case jobs <- Job{Index: i, Query: q}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return jobs
}

// Run scores queries on the pool and returns the results in input order.
// If ctx is cancelled, dispatching stops and Run returns ctx.Err(). The first
// processor error also stops the run.
func (wp *WorkerPool) Run(ctx context.Context, queries []model.Query) ([]model.QueryResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]model.QueryResult, len(queries))
	var firstErr error
	for res := range wp.Start(ctx, Feed(ctx, queries)) {
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
				cancel()
			}
			continue
		}
		out[res.Index] = res.Result
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
