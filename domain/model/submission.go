package model

import "time"

// SubmissionState is a step of the submission pipeline.
type SubmissionState string

const (
	SubmissionValidating SubmissionState = "validating"
	SubmissionScraping   SubmissionState = "scraping"
	SubmissionUploading  SubmissionState = "uploading"
	SubmissionDone       SubmissionState = "done"
	SubmissionFailed     SubmissionState = "failed"
)

// Terminal reports whether no further transition can follow.
func (s SubmissionState) Terminal() bool {
	return s == SubmissionDone || s == SubmissionFailed
}

// SubmissionRecord is the latest known state of a submission.
type SubmissionRecord struct {
	ID           string          `json:"id"`
	URL          string          `json:"url"`
	Platform     Platform        `json:"platform"`
	Tags         string          `json:"tags,omitempty"`
	State        SubmissionState `json:"state"`
	FileKey      *string         `json:"file_key,omitempty"`
	FileURL      *string         `json:"file_url,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// VideoPublishedEvent is emitted once a submission reaches done.
type VideoPublishedEvent struct {
	Type         string       `json:"type"`
	SubmissionID string       `json:"submission_id"`
	OriginalURL  string       `json:"original_url"`
	Title        string       `json:"title,omitempty"`
	Author       string       `json:"author,omitempty"`
	Video        CatalogEntry `json:"video"`
}

// SubmissionStatus is the live view of a submission kept in the status cache.
type SubmissionStatus struct {
	ID        string          `json:"id"`
	State     SubmissionState `json:"state"`
	Platform  Platform        `json:"platform,omitempty"`
	FileID    string          `json:"fileId,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt int64           `json:"updatedAt"`
}
