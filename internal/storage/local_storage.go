package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shelf-go/internal/config"
	"shelf-go/internal/shelftypes"
)

// ErrFileSizeMismatch is returned when the reader yields a different number
// of bytes than announced.
var ErrFileSizeMismatch = errors.New("file size mismatch")

// LocalStorageService implements shelftypes.StorageService on the local disk.
type LocalStorageService struct {
	basePath string // e.g. "./uploads"
	baseURL  string // e.g. "/uploads"
}

// NewLocalStorageService creates the storage root if needed.
func NewLocalStorageService(cfg config.StorageConfig) (shelftypes.StorageService, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %q: %w", cfg.LocalPath, err)
	}
	return &LocalStorageService{
		basePath: cfg.LocalPath,
		baseURL:  cfg.BaseURL,
	}, nil
}

// UploadFile writes the content under a random name that keeps the original extension.
func (s *LocalStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*shelftypes.FileInfo, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		if extensions, _ := mime.ExtensionsByType(mimeType); len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext
	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("%w: expected %d, wrote %d", ErrFileSizeMismatch, fileSize, written)
	}

	return &shelftypes.FileInfo{
		URL:      strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName),
		Path:     dstPath,
		Size:     written,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// DeleteFile removes a stored file. Paths outside the storage root are refused.
func (s *LocalStorageService) DeleteFile(ctx context.Context, path string) error {
	root, err := filepath.Abs(s.basePath)
	if err != nil {
		return err
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if filepath.Dir(target) != root {
		return fmt.Errorf("refusing to delete %q outside storage root", path)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
