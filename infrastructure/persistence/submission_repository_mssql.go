package persistence

import (
	"context"
	"database/sql"
	"errors"

	"vidfeed/domain/model"
)

// SubmissionRepositoryMSSQL is the submission log for SQL Server/Azure SQL.
type SubmissionRepositoryMSSQL struct{ db *sql.DB }

func NewSubmissionRepositoryMSSQL(db *sql.DB) *SubmissionRepositoryMSSQL {
	return &SubmissionRepositoryMSSQL{db: db}
}

func (r *SubmissionRepositoryMSSQL) Create(ctx context.Context, rec *model.SubmissionRecord) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO dbo.[video_submissions] (`+submissionColumns+`)
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11)`,
		rec.ID, rec.URL, string(rec.Platform), rec.Tags, string(rec.State),
		rec.FileKey, rec.FileURL, rec.ErrorKind, rec.ErrorMessage, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *SubmissionRepositoryMSSQL) UpdateState(ctx context.Context, rec *model.SubmissionRecord) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[video_submissions]
SET state=@p1, file_key=@p2, file_url=@p3, error_kind=@p4, error_message=@p5, updated_at=@p6
WHERE id=@p7`,
		string(rec.State), rec.FileKey, rec.FileURL, rec.ErrorKind, rec.ErrorMessage, rec.UpdatedAt, rec.ID)
	return err
}

func (r *SubmissionRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM dbo.[video_submissions] WHERE id=@p1`, id)
	rec, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *SubmissionRepositoryMSSQL) ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p1) `+submissionColumns+` FROM dbo.[video_submissions] ORDER BY created_at DESC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}
