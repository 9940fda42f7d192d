package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/campusdesk/apiserver/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxUploadMemory = 16 << 20
	maxImageBytes   = 10 << 20
	formFieldImage  = "image"
)

// UploadHandler stores images as opaque blobs in object storage and
// hands back a URL. The item and issue managers only ever see the URL.
type UploadHandler struct {
	storage *storage.Storage
	baseURL string
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(store *storage.Storage, publicBaseURL string) *UploadHandler {
	return &UploadHandler{
		storage: store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// UploadRouter registers upload routes. Uploading requires
// authentication; fetching an image is public.
func UploadRouter(r chi.Router, store *storage.Storage, publicBaseURL string, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUploadHandler(store, publicBaseURL)

	r.With(authMiddleware).Post("/", handler.Upload)
	r.Get("/{key}", handler.Serve)
}

// UploadResponse identifies a stored image.
type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	if len(files) > 1 {
		writeError(w, http.StatusBadRequest, "only one image is allowed per upload")
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	defer file.Close()

	data, err := readFileLimited(file, maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	key := uuid.NewString() + ext
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.storage.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Key: key,
		URL: fmt.Sprintf("%s/uploads/%s", h.baseURL, key),
	})
}

func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}

	reader, err := h.storage.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	_, _ = io.Copy(w, reader)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
