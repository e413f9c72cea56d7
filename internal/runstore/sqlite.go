package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vk/flowgridgo/internal/executor"
)

// SQLiteStore is a Store backed by a SQLite database file. Results are
// stored as a JSON blob per run; the run id and workflow name are indexed
// columns.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and initializes
// the schema. Use ":memory:" for a volatile database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			results BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_workflow ON runs (workflow, started_at);`,
	)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, workflow, started_at, results)
		VALUES (?, ?, ?, ?)`,
		run.ID,
		run.Workflow,
		run.StartedAt.UnixNano(),
		results,
	)
	return err
}

func (s *SQLiteStore) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workflow, started_at, results FROM runs WHERE id = ?`, id)
	return scanRun(row.Scan)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, workflowName string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow, started_at, results FROM runs
		WHERE workflow = ? ORDER BY started_at DESC`, workflowName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanRun(scan func(dest ...any) error) (*Run, error) {
	var (
		run       Run
		startedAt int64
		results   []byte
	)
	if err := scan(&run.ID, &run.Workflow, &startedAt, &results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	run.StartedAt = time.Unix(0, startedAt)
	if err := json.Unmarshal(results, &run.Results); err != nil {
		return nil, fmt.Errorf("decoding results: %w", err)
	}
	if run.Results == nil {
		run.Results = []executor.Result{}
	}
	return &run, nil
}
