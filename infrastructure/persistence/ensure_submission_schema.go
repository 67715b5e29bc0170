package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createSubmissionsTable = `CREATE TABLE IF NOT EXISTS video_submissions (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	platform TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL,
	file_key TEXT,
	file_url TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const createSubmissionsIndex = `CREATE INDEX IF NOT EXISTS idx_video_submissions_created_at ON video_submissions (created_at DESC)`

// EnsureSubmissionSchema creates the submission log and adds columns introduced
// after the first release. Safe to call at startup.
func EnsureSubmissionSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, ddl := range []string{createSubmissionsTable, createSubmissionsIndex} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure video_submissions: %w", err)
		}
	}

	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"video_submissions", "error_kind", "ALTER TABLE video_submissions ADD COLUMN error_kind TEXT"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
