// Package runlog keeps an append-only ledger of pipeline runs in a local
// SQLite database under the backup root. The ledger is the quick answer to
// "when did we last promote, and what happened" without digging through
// per-run artifact directories.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded pipeline run
type Entry struct {
	RunID             string
	StartedAt         time.Time
	Preview           bool
	AllowDestructive  bool
	StatementsApplied int
	StatementsSkipped int
	FunctionsDeployed int
	FunctionsFailed   int
	Outcome           string
	BackupPath        string
}

// Log is an open run ledger
type Log struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	started_at         TEXT NOT NULL,
	preview            INTEGER NOT NULL,
	allow_destructive  INTEGER NOT NULL,
	statements_applied INTEGER NOT NULL,
	statements_skipped INTEGER NOT NULL,
	functions_deployed INTEGER NOT NULL,
	functions_failed   INTEGER NOT NULL,
	outcome            TEXT NOT NULL,
	backup_path        TEXT NOT NULL
)`

// Open opens (creating if needed) the ledger at path
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize run ledger: %w", err)
	}

	return &Log{db: db}, nil
}

// Record appends one run to the ledger
func (l *Log) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, started_at, preview, allow_destructive,
			statements_applied, statements_skipped,
			functions_deployed, functions_failed,
			outcome, backup_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.StartedAt.UTC().Format(time.RFC3339),
		boolToInt(e.Preview),
		boolToInt(e.AllowDestructive),
		e.StatementsApplied,
		e.StatementsSkipped,
		e.FunctionsDeployed,
		e.FunctionsFailed,
		e.Outcome,
		e.BackupPath,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, started_at, preview, allow_destructive,
		       statements_applied, statements_skipped,
		       functions_deployed, functions_failed,
		       outcome, backup_path
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt string
		var preview, allowDestructive int

		if err := rows.Scan(
			&e.RunID, &startedAt, &preview, &allowDestructive,
			&e.StatementsApplied, &e.StatementsSkipped,
			&e.FunctionsDeployed, &e.FunctionsFailed,
			&e.Outcome, &e.BackupPath,
		); err != nil {
			return nil, err
		}

		e.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("bad started_at in ledger: %w", err)
		}
		e.Preview = preview != 0
		e.AllowDestructive = allowDestructive != 0

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the ledger
func (l *Log) Close() error {
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
