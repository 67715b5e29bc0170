package dto

import "vidfeed/domain/model"

// SubmitRequest is the body of POST /api/submit
type SubmitRequest struct {
	URL  string `json:"url"`
	Tags string `json:"tags"`
}

// SubmitMetadata echoes what was scraped for the submitted link
type SubmitMetadata struct {
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Platform    model.Platform `json:"platform"`
	OriginalURL string         `json:"originalUrl"`
}

type SubmitData struct {
	SubmissionID string         `json:"submissionId"`
	FileID       string         `json:"fileId"`
	FileURL      string         `json:"fileUrl"`
	FileName     string         `json:"fileName"`
	FileSize     int64          `json:"fileSize"`
	Metadata     SubmitMetadata `json:"metadata"`
}

type SubmitResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    *SubmitData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CatalogErrorResponse is returned by the listing endpoint on any failure
type CatalogErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Type    string `json:"type"`
}
