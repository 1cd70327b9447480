package apiserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shelf-go/internal/config"
	"shelf-go/internal/handlers/apiserver"
	"shelf-go/internal/shelftypes"
	"shelf-go/internal/storage"
)

func coverRequest(t *testing.T, fileName, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/covers", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newUploadHandler(t *testing.T, maxMB int64) *apiserver.UploadHandler {
	t.Helper()
	cfg := config.StorageConfig{Type: "local", LocalPath: t.TempDir(), BaseURL: "/uploads", MaxFileSizeMB: maxMB}
	svc, err := storage.NewLocalStorageService(cfg)
	require.NoError(t, err)
	return apiserver.NewUploadHandler(svc, cfg, zap.NewNop())
}

func TestUploadCover_StoresImage(t *testing.T) {
	h := newUploadHandler(t, 1)

	rec := httptest.NewRecorder()
	h.UploadCover(rec, coverRequest(t, "dune.png", "image/png", []byte("png bytes")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info shelftypes.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Contains(t, info.URL, "/uploads/")
	assert.Equal(t, int64(len("png bytes")), info.Size)
	assert.Equal(t, "image/png", info.MimeType)
}

func TestUploadCover_Rejections(t *testing.T) {
	h := newUploadHandler(t, 1)

	rec := httptest.NewRecorder()
	h.UploadCover(rec, coverRequest(t, "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), apiserver.CodeInvalidArgument)

	rec = httptest.NewRecorder()
	h.UploadCover(rec, coverRequest(t, "big.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), apiserver.CodePayloadTooLarge)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/covers", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	h.UploadCover(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
