package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	pipeline TEXT NOT NULL,
	tick INTEGER NOT NULL,
	time_ns INTEGER NOT NULL,
	value REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run_pipeline ON results (run_id, pipeline, tick);
`

// SQLite persists records into a results table.
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
	path   string
	closed bool
}

// OpenSQLite opens (or creates) the database at path and prepares the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite sink: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink open (%s): %w", path, err)
	}
	// one writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite sink schema (%s): %w", path, err)
	}
	insert, err := db.PrepareContext(ctx,
		`INSERT INTO results (run_id, pipeline, tick, time_ns, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite sink prepare (%s): %w", path, err)
	}
	log.Debug().Msgf("sink.OpenSQLite path=%q", path)
	return &SQLite{db: db, insert: insert, path: path}, nil
}

func (s *SQLite) Write(ctx context.Context, rec Record) error {
	if s.closed {
		return ErrClosed
	}
	_, err := s.insert.ExecContext(ctx, rec.RunID, rec.Pipeline, int64(rec.Tick), rec.Time.UnixNano(), rec.Value)
	if err != nil {
		return fmt.Errorf("sqlite sink write (%s): %w", s.path, err)
	}
	return nil
}

// Query returns stored records for a run and pipeline ordered by tick.
func (s *SQLite) Query(ctx context.Context, runID, pipeline string) ([]Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, pipeline, tick, time_ns, value FROM results WHERE run_id = ? AND pipeline = ? ORDER BY tick`,
		runID, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink query (%s): %w", s.path, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			rec    Record
			tick   int64
			timeNS int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Pipeline, &tick, &timeNS, &rec.Value); err != nil {
			return nil, fmt.Errorf("sqlite sink scan (%s): %w", s.path, err)
		}
		rec.Tick = uint64(tick)
		rec.Time = time.Unix(0, timeNS).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	stmtErr := s.insert.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite sink close (%s): %w", s.path, err)
	}
	return stmtErr
}
