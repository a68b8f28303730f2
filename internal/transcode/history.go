package transcode

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// History records finished jobs in a small SQLite table so past encodes stay
// inspectable across restarts. It is reporting-only: the scheduler never
// reads it on the encode path, and recording failures are logged, not fatal.
type History struct {
	db   *sql.DB
	path string
}

// OpenHistory initializes or connects to the job history database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS job_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source TEXT NOT NULL,
        output TEXT NOT NULL,
        profile TEXT NOT NULL,
        state TEXT NOT NULL,
        error TEXT,
        started_at TEXT NOT NULL,
        finished_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &History{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record appends one finished job.
func (h *History) Record(ctx context.Context, job Job) error {
	_, err := h.db.ExecContext(
		ctx,
		`INSERT INTO job_history (source, output, profile, state, error, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.Source,
		job.Output,
		job.Profile,
		string(job.State),
		nullableString(job.Err),
		job.Started.UTC().Format(time.RFC3339Nano),
		job.Finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history row: %w", err)
	}
	return nil
}

// Counts returns the number of recorded jobs per terminal state.
func (h *History) Counts(ctx context.Context) (completed, failed, killed int64, err error) {
	rows, err := h.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM job_history GROUP BY state`)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("query history counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return 0, 0, 0, fmt.Errorf("scan history count: %w", err)
		}
		switch JobState(state) {
		case JobCompleted:
			completed = count
		case JobFailed:
			failed = count
		case JobKilled:
			killed = count
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, 0, fmt.Errorf("iterate history counts: %w", err)
	}
	return completed, failed, killed, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
