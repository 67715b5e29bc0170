package repository

import (
	"context"

	"vidfeed/domain/model"
)

// IFileStorage is the object storage provider holding published videos.
type IFileStorage interface {
	UploadFiles(ctx context.Context, files []model.UploadFile) ([]model.UploadFileResult, error)
	ListFiles(ctx context.Context) ([]model.StoredFile, error)
	// GetFileURLs resolves servable URLs in bulk. Keys missing from the result were not resolved.
	GetFileURLs(ctx context.Context, keys []string) (map[string]string, error)
	// PublicURL builds the templated public URL of a stored key.
	PublicURL(key string) (string, error)
}
