package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sensorfleet/internal/files"
)

// memArtifacts is an in-memory ArtifactStore keyed by category/filename.
type memArtifacts struct {
	objects map[string][]byte
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{objects: map[string][]byte{}}
}

func (m *memArtifacts) Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !files.ValidCategory(category) {
		return "", files.ErrInvalidCategory
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	stored := "20260301_120000_" + filename
	m.objects[category+"/"+stored] = data
	return stored, nil
}

func (m *memArtifacts) List(ctx context.Context, category string) ([]files.Info, error) {
	out := []files.Info{}
	for key, data := range m.objects {
		parts := strings.SplitN(key, "/", 2)
		if category != "" && parts[0] != category {
			continue
		}
		out = append(out, files.Info{
			Type:     strings.TrimSuffix(parts[0], "s"),
			Filename: parts[1],
			Size:     int64(len(data)),
			Modified: time.Now(),
		})
	}
	return out, nil
}

func (m *memArtifacts) Open(ctx context.Context, category, filename string) (io.ReadCloser, *files.Info, error) {
	if !files.ValidCategory(category) {
		return nil, nil, files.ErrInvalidCategory
	}
	data, ok := m.objects[category+"/"+filename]
	if !ok {
		return nil, nil, files.ErrNotFound
	}
	info := &files.Info{Filename: filename, Size: int64(len(data))}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (m *memArtifacts) Delete(ctx context.Context, category, filename string) error {
	if !files.ValidCategory(category) {
		return files.ErrInvalidCategory
	}
	key := category + "/" + filename
	if _, ok := m.objects[key]; !ok {
		return files.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memArtifacts) Stats(ctx context.Context) (*files.UsageStats, error) {
	stats := &files.UsageStats{}
	for key, data := range m.objects {
		size := int64(len(data))
		if strings.HasPrefix(key, files.CategoryLogs+"/") {
			stats.Logs.Count++
			stats.Logs.TotalSizeBytes += size
		} else {
			stats.Graphs.Count++
			stats.Graphs.TotalSizeBytes += size
		}
		stats.TotalSizeBytes += size
	}
	return stats, nil
}

func multipartUpload(t *testing.T, url, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFilesUploadLog(t *testing.T) {
	store := newMemArtifacts()
	h := NewFilesHandler(store)

	w := httptest.NewRecorder()
	h.UploadLog(w, multipartUpload(t, "/files/upload/log", "run.log", "line one\n"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["status"] != "ok" || !strings.HasSuffix(resp["filename"], "_run.log") {
		t.Errorf("unexpected response: %v", resp)
	}
	if !strings.HasPrefix(resp["path"], "logs/") {
		t.Errorf("expected path under logs/, got %s", resp["path"])
	}
}

func TestFilesUploadWithoutFile(t *testing.T) {
	h := NewFilesHandler(newMemArtifacts())

	req := httptest.NewRequest(http.MethodPost, "/files/upload/log", strings.NewReader("raw"))
	w := httptest.NewRecorder()
	h.UploadLog(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFilesDownload(t *testing.T) {
	store := newMemArtifacts()
	store.objects["graphs/20260301_120000_plot.png"] = []byte("png-bytes")
	h := NewFilesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/files/download/graphs/20260301_120000_plot.png", nil)
	w := httptest.NewRecorder()
	h.Download(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
}

func TestFilesDownloadMissing(t *testing.T) {
	h := NewFilesHandler(newMemArtifacts())

	req := httptest.NewRequest(http.MethodGet, "/files/download/logs/nope.log", nil)
	w := httptest.NewRecorder()
	h.Download(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestFilesDownloadInvalidCategory(t *testing.T) {
	h := NewFilesHandler(newMemArtifacts())

	req := httptest.NewRequest(http.MethodGet, "/files/download/secrets/x.txt", nil)
	w := httptest.NewRecorder()
	h.Download(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFilesDelete(t *testing.T) {
	store := newMemArtifacts()
	store.objects["logs/20260301_120000_old.log"] = []byte("x")
	h := NewFilesHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/files/logs/20260301_120000_old.log", nil)
	w := httptest.NewRecorder()
	h.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.objects) != 0 {
		t.Error("object not deleted")
	}
}

func TestFilesDeleteMissing(t *testing.T) {
	h := NewFilesHandler(newMemArtifacts())

	req := httptest.NewRequest(http.MethodDelete, "/files/logs/nope.log", nil)
	w := httptest.NewRecorder()
	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestFilesStats(t *testing.T) {
	store := newMemArtifacts()
	store.objects["logs/a.log"] = []byte("12345")
	store.objects["graphs/b.png"] = []byte("123")
	h := NewFilesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/files/stats", nil)
	w := httptest.NewRecorder()
	h.UsageStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp files.UsageStats
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Logs.Count != 1 || resp.Logs.TotalSizeBytes != 5 {
		t.Errorf("unexpected log stats: %+v", resp.Logs)
	}
	if resp.TotalSizeBytes != 8 {
		t.Errorf("expected total 8 bytes, got %d", resp.TotalSizeBytes)
	}
}

func TestFilesList(t *testing.T) {
	store := newMemArtifacts()
	store.objects["logs/a.log"] = []byte("x")
	store.objects["graphs/b.png"] = []byte("y")
	h := NewFilesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/files/list?file_type=logs", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Files []files.Info `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].Filename != "a.log" {
		t.Errorf("unexpected listing: %+v", resp.Files)
	}
}
