package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"sensorfleet/internal/files"
	"sensorfleet/internal/logger"
)

// ArtifactStore is the object-store surface the files API needs.
type ArtifactStore interface {
	Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error)
	List(ctx context.Context, category string) ([]files.Info, error)
	Open(ctx context.Context, category, filename string) (io.ReadCloser, *files.Info, error)
	Delete(ctx context.Context, category, filename string) error
	Stats(ctx context.Context) (*files.UsageStats, error)
}

// FilesHandler serves the artifact storage API.
type FilesHandler struct {
	store ArtifactStore
}

// NewFilesHandler creates the files handler.
func NewFilesHandler(store ArtifactStore) *FilesHandler {
	return &FilesHandler{store: store}
}

// UploadLog handles POST /files/upload/log.
func (h *FilesHandler) UploadLog(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, files.CategoryLogs)
}

// UploadGraph handles POST /files/upload/graph.
func (h *FilesHandler) UploadGraph(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, files.CategoryGraphs)
}

func (h *FilesHandler) upload(w http.ResponseWriter, r *http.Request, category string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no filename")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stored, err := h.store.Upload(r.Context(), category, header.Filename, file, header.Size, contentType)
	if err != nil {
		logger.WithComponent("files").Error().Err(err).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"filename": stored,
		"path":     category + "/" + stored,
	})
}

// List handles GET /files/list?file_type=.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	infos, err := h.store.List(r.Context(), r.URL.Query().Get("file_type"))
	if err != nil {
		logger.WithComponent("files").Error().Err(err).Msg("list failed")
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": infos})
}

// Download handles GET /files/download/{file_type}/{filename}.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	category, filename, ok := splitObjectPath(r.URL.Path, "/files/download/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	h.stream(w, r, category, filename, true)
}

// ReadLog handles GET /files/log/{filename}, streaming the log as text.
func (h *FilesHandler) ReadLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/files/log/")
	if filename == "" || strings.Contains(filename, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	h.stream(w, r, files.CategoryLogs, filename, false)
}

func (h *FilesHandler) stream(w http.ResponseWriter, r *http.Request, category, filename string, attachment bool) {
	body, _, err := h.store.Open(r.Context(), category, filename)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, "invalid file type")
		case errors.Is(err, files.ErrNotFound):
			writeError(w, http.StatusNotFound, "file not found")
		default:
			logger.WithComponent("files").Error().Err(err).Msg("open failed")
			writeError(w, http.StatusInternalServerError, "failed to read file")
		}
		return
	}
	defer body.Close()

	if attachment {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	} else {
		w.Header().Set("Content-Type", "text/plain")
	}
	io.Copy(w, body)
}

// Delete handles DELETE /files/{file_type}/{filename}.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	category, filename, ok := splitObjectPath(r.URL.Path, "/files/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	err := h.store.Delete(r.Context(), category, filename)
	switch {
	case errors.Is(err, files.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "invalid file type")
	case errors.Is(err, files.ErrNotFound):
		writeError(w, http.StatusNotFound, "file not found")
	case err != nil:
		logger.WithComponent("files").Error().Err(err).Msg("delete failed")
		writeError(w, http.StatusInternalServerError, "failed to delete file")
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "file deleted",
		})
	}
}

// UsageStats handles GET /files/stats.
func (h *FilesHandler) UsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		logger.WithComponent("files").Error().Err(err).Msg("stats failed")
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// splitObjectPath extracts "<category>/<filename>" after the given prefix.
func splitObjectPath(path, prefix string) (category, filename string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", "", false
	}
	return parts[0], parts[1], true
}
