package persistence

import (
	"context"
	"database/sql"
	"errors"

	"vidfeed/domain/model"
)

const submissionColumns = `id, url, platform, tags, state, file_key, file_url, error_kind, error_message, created_at, updated_at`

// SubmissionRepository is the submission log on PostgreSQL.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository { return &SubmissionRepository{db: db} }

func (r *SubmissionRepository) Create(ctx context.Context, rec *model.SubmissionRecord) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO video_submissions (`+submissionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.URL, string(rec.Platform), rec.Tags, string(rec.State),
		rec.FileKey, rec.FileURL, rec.ErrorKind, rec.ErrorMessage, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *SubmissionRepository) UpdateState(ctx context.Context, rec *model.SubmissionRecord) error {
	_, err := r.db.ExecContext(ctx, `UPDATE video_submissions SET state=$1, file_key=$2, file_url=$3, error_kind=$4, error_message=$5, updated_at=$6 WHERE id=$7`,
		string(rec.State), rec.FileKey, rec.FileURL, rec.ErrorKind, rec.ErrorMessage, rec.UpdatedAt, rec.ID)
	return err
}

// GetByID returns nil without error when the submission is unknown.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM video_submissions WHERE id=$1`, id)
	rec, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+submissionColumns+` FROM video_submissions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*model.SubmissionRecord, error) {
	rec := &model.SubmissionRecord{}
	var platform, state string
	var fileKey, fileURL, errorKind, errorMessage sql.NullString
	if err := row.Scan(&rec.ID, &rec.URL, &platform, &rec.Tags, &state, &fileKey, &fileURL, &errorKind, &errorMessage, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Platform = model.Platform(platform)
	rec.State = model.SubmissionState(state)
	rec.FileKey = nullable(fileKey)
	rec.FileURL = nullable(fileURL)
	rec.ErrorKind = nullable(errorKind)
	rec.ErrorMessage = nullable(errorMessage)
	return rec, nil
}

func scanSubmissions(rows *sql.Rows) ([]*model.SubmissionRecord, error) {
	list := []*model.SubmissionRecord{}
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
