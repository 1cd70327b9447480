package shelftypes

import (
	"context"
	"io"
)

// StorageService stores uploaded files. It lives here so that storage and
// services do not import each other.
type StorageService interface {
	// UploadFile stores exactly fileSize bytes from reader and returns the
	// public URL of the stored copy. fileName only contributes its extension.
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	// DeleteFile removes a file previously returned by UploadFile.
	DeleteFile(ctx context.Context, path string) error
}
