package export

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteWriter keeps the latest trace per sink name in a SQLite table.
// Writing to a sink replaces its previous trace.
type SQLiteWriter struct {
	db   *sql.DB
	sink string
}

// OpenSQLite opens (or creates) the database at path with WAL mode enabled.
func OpenSQLite(ctx context.Context, path, sink string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if sink == "" {
		sink = "default"
	}
	return &SQLiteWriter{db: db, sink: sink}, nil
}

// Close closes the database connection
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS traces (
	sink TEXT PRIMARY KEY,
	run_id TEXT,
	body TEXT NOT NULL,
	line_count INTEGER NOT NULL,
	exported_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (w *SQLiteWriter) WriteTrace(ctx context.Context, t Trace) error {
	const stmt = `
INSERT INTO traces (sink, run_id, body, line_count, exported_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(sink) DO UPDATE SET
	run_id=excluded.run_id,
	body=excluded.body,
	line_count=excluded.line_count,
	exported_at=excluded.exported_at;
`
	_, err := w.db.ExecContext(ctx, stmt,
		w.sink,
		t.RunID,
		t.Body(),
		len(t.Lines),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ReadTrace returns the stored body and run ID for this sink.
func (w *SQLiteWriter) ReadTrace(ctx context.Context) (body, runID string, ok bool, err error) {
	row := w.db.QueryRowContext(ctx, `SELECT body, run_id FROM traces WHERE sink = ?`, w.sink)
	var rid sql.NullString
	if err := row.Scan(&body, &rid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return body, rid.String, true, nil
}
