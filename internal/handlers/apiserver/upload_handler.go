package apiserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"shelf-go/internal/config"
	"shelf-go/internal/shelftypes"
)

const (
	defaultMaxMemory = 32 << 20 // multipart form parts kept in memory
)

var allowedCoverTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadHandler stores book cover images.
type UploadHandler struct {
	storageService shelftypes.StorageService
	cfg            config.StorageConfig
	logger         *zap.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(storageService shelftypes.StorageService, cfg config.StorageConfig, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		cfg:            cfg,
		logger:         logger.Named("upload_handler"),
	}
}

// UploadCover handles POST /uploads/covers with a multipart "file" field.
func (h *UploadHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	tooLarge := fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
			writeJSONError(w, tooLarge, CodePayloadTooLarge, http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "malformed multipart form", CodeInvalidArgument, http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "missing 'file' field", CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := strings.ToLower(header.Header.Get("Content-Type"))
	if !allowedCoverTypes[mimeType] {
		writeJSONError(w, fmt.Sprintf("unsupported cover type %q", mimeType), CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	if header.Size > maxUploadSize {
		writeJSONError(w, tooLarge, CodePayloadTooLarge, http.StatusRequestEntityTooLarge)
		return
	}

	fileInfo, err := h.storageService.UploadFile(r.Context(), file, header.Size, header.Filename, mimeType)
	if err != nil {
		h.logger.Error("failed to store cover", zap.String("file_name", header.Filename), zap.Error(err))
		writeJSONError(w, "failed to store file", CodeInternal, http.StatusInternalServerError)
		return
	}

	h.logger.Info("cover uploaded", zap.String("url", fileInfo.URL), zap.Int64("size", fileInfo.Size))
	writeJSONResponse(w, http.StatusCreated, fileInfo)
}
