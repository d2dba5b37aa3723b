// Package history keeps a record of scoring runs in a SQLite database so
// that complexity can be compared over time.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
	"time"

	"sql-complexity/internal/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Run is one stored scoring run.
type Run struct {
	ID               string
	CreatedAt        time.Time
	Dialect          model.Dialect
	RulesVersion     string
	FileCount        int
	QueryCount       int
	DegradedCount    int
	TotalRawScore    float64
	AverageComposite float64
	OverallGrade     model.Grade
	Files            []File
}

// File is the stored summary of one source file of a run.
type File struct {
	Index            int
	Name             string
	Path             string
	QueryCount       int
	TotalRawScore    float64
	AverageComposite float64
}

// fixed width so that timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var errNotOpened = errors.New("database not opened")

// Store persists runs in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the database at path. Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return errors.Wrap(err, "failed to open sqlite database")
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrap(err, "failed to ping sqlite database")
	}

	s.db = db
	s.path = path
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema() error {
	if s.db == nil {
		return errNotOpened
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "failed to initialize schema")
	}
	return nil
}

// Record stores the summary of rep and returns the new run.
func (s *Store) Record(ctx context.Context, rep *model.Report) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &Run{
		ID:               uuid.New().String(),
		CreatedAt:        rep.GeneratedAt.UTC(),
		Dialect:          rep.Dialect,
		RulesVersion:     rep.RulesVersion,
		FileCount:        rep.Summary.FileCount,
		QueryCount:       rep.Summary.QueryCount,
		DegradedCount:    rep.Summary.DegradedCount,
		TotalRawScore:    rep.Summary.TotalRawScore,
		AverageComposite: rep.Summary.AverageComposite,
		OverallGrade:     rep.Summary.OverallGrade,
	}
	for _, f := range rep.Files {
		run.Files = append(run.Files, File{
			Index:            f.FileIndex,
			Name:             f.Name,
			Path:             f.Path,
			QueryCount:       f.QueryCount,
			TotalRawScore:    f.TotalRawScore,
			AverageComposite: f.AverageComposite,
		})
	}

	s.logger.Debug("recording run", slog.String("id", run.ID), slog.Int("queries", run.QueryCount))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, dialect, rules_version, file_count, query_count, degraded_count, total_raw_score, average_composite, overall_grade)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(timeLayout), string(run.Dialect), run.RulesVersion,
		run.FileCount, run.QueryCount, run.DegradedCount, run.TotalRawScore, run.AverageComposite, string(run.OverallGrade),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert run")
	}

	for _, f := range run.Files {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, file_index, file_name, file_path, query_count, total_raw_score, average_composite)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, f.Index, f.Name, f.Path, f.QueryCount, f.TotalRawScore, f.AverageComposite,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to insert file %s", f.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit run")
	}
	return run, nil
}

const runColumns = `id, created_at, dialect, rules_version, file_count, query_count, degraded_count, total_raw_score, average_composite, overall_grade`

// List returns the most recent runs, newest first, without their files.
// A limit of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, errors.Wrap(rows.Err(), "failed to list runs")
}

// Get returns one run with its files.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT file_index, file_name, file_path, query_count, total_raw_score, average_composite
		 FROM run_files WHERE run_id = ? ORDER BY file_index`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run files")
	}
	defer rows.Close()

	for rows.Next() {
		var f File
		if err := rows.Scan(&f.Index, &f.Name, &f.Path, &f.QueryCount, &f.TotalRawScore, &f.AverageComposite); err != nil {
			return nil, errors.Wrap(err, "failed to scan run file")
		}
		run.Files = append(run.Files, f)
	}
	return run, errors.Wrap(rows.Err(), "failed to load run files")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run              Run
		created, dialect string
		grade            string
	)
	err := row.Scan(&run.ID, &created, &dialect, &run.RulesVersion, &run.FileCount, &run.QueryCount,
		&run.DegradedCount, &run.TotalRawScore, &run.AverageComposite, &grade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan run")
	}

	run.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s has invalid timestamp", run.ID)
	}
	run.Dialect = model.Dialect(dialect)
	run.OverallGrade = model.Grade(grade)
	return &run, nil
}
