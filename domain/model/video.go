package model

import "time"

// Platform identifies the source service a submitted link belongs to.
type Platform string

const (
	PlatformTikTok      Platform = "tiktok"
	PlatformInstagram   Platform = "instagram"
	PlatformUnsupported Platform = ""
)

// VideoMetadata is the normalized record produced by a scrape job.
// VideoURL is never empty on a successful resolution.
type VideoMetadata struct {
	VideoURL    string   `json:"videoUrl"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Duration    float64  `json:"duration"`
	Platform    Platform `json:"platform"`
	VideoBuffer []byte   `json:"-"`
}

// UploadFile is a single file handed to the storage provider.
type UploadFile struct {
	Name     string
	Type     string
	CustomID string
	Data     []byte
}

// UploadedFile is what the storage provider returns for a stored file.
type UploadedFile struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadFileResult is the per-file outcome of a batch upload.
type UploadFileResult struct {
	Data  *UploadedFile
	Error error
}

// StoredFile is a file record as listed by the storage provider.
type StoredFile struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	UploadedAt int64  `json:"uploadedAt"`
	CustomID   string `json:"customId,omitempty"`
}

// UploadResult is the reference returned by the publisher.
type UploadResult struct {
	FileID   string `json:"fileId"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// CatalogEntry is a playable video as shown in the feed. Recomputed on every listing.
type CatalogEntry struct {
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Source     string   `json:"source"`
	CreatedAt  string   `json:"createdAt"`
	UploadedAt int64    `json:"uploadedAt"`
	Tags       []string `json:"tags"`
}

// JobHandle references a scrape job submitted to the actor service.
type JobHandle struct {
	RunID     string    `json:"runId"`
	ActorID   string    `json:"actorId"`
	DatasetID string    `json:"datasetId"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}
