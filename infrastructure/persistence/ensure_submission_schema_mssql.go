package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createSubmissionsTableMSSQL = `IF OBJECT_ID('dbo.video_submissions', 'U') IS NULL
BEGIN
	CREATE TABLE dbo.[video_submissions] (
		id NVARCHAR(64) NOT NULL PRIMARY KEY,
		url NVARCHAR(2048) NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		tags NVARCHAR(1024) NOT NULL DEFAULT '',
		state NVARCHAR(32) NOT NULL,
		file_key NVARCHAR(255) NULL,
		file_url NVARCHAR(2048) NULL,
		error_message NVARCHAR(MAX) NULL,
		created_at DATETIME2 NOT NULL,
		updated_at DATETIME2 NOT NULL
	);
	CREATE INDEX idx_video_submissions_created_at ON dbo.[video_submissions] (created_at DESC);
END`

// EnsureSubmissionSchemaMSSQL is the SQL Server variant of EnsureSubmissionSchema.
func EnsureSubmissionSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, createSubmissionsTableMSSQL); err != nil {
		return fmt.Errorf("ensure dbo.video_submissions: %w", err)
	}

	addIfMissing := func(table, column, ddl string) error {
		q := fmt.Sprintf(`IF COL_LENGTH('%s', '%s') IS NULL BEGIN %s END`, table, column, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", table, column, err)
		}
		return nil
	}
	return addIfMissing("dbo.video_submissions", "error_kind", "ALTER TABLE dbo.[video_submissions] ADD error_kind NVARCHAR(64) NULL")
}
