package storage

import (
	"context"

	"vidfeed/domain/model"
	"vidfeed/domain/repository"
)

type unavailable struct{ err error }

// Unavailable stands in for a provider that failed to initialise so requests
// report the configuration error instead of the process refusing to start.
func Unavailable(err error) repository.IFileStorage { return unavailable{err: err} }

func (u unavailable) UploadFiles(context.Context, []model.UploadFile) ([]model.UploadFileResult, error) {
	return nil, u.err
}

func (u unavailable) ListFiles(context.Context) ([]model.StoredFile, error) { return nil, u.err }

func (u unavailable) GetFileURLs(context.Context, []string) (map[string]string, error) {
	return nil, u.err
}

func (u unavailable) PublicURL(string) (string, error) { return "", u.err }
