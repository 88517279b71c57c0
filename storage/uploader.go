package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored match report.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader puts generated match reports into object storage. Reports are
// immutable once written, so the interface is write-and-resolve only.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}
