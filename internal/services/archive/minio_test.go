package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"crashalert-model-service/internal/config"
)

type fakeS3 struct {
	mu         sync.Mutex
	bucketSeen bool
	puts       map[string]string // key -> content type
	failPut    bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && r.URL.Query().Has("location"):
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
	case r.Method == http.MethodHead && !strings.Contains(path, "/"):
		f.bucketSeen = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && strings.Contains(path, "/"):
		io.Copy(io.Discard, r.Body)
		if f.failPut {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		f.puts[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestMinio(t *testing.T, fake *fakeS3) *MinioService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		MinioEndpoint:  strings.TrimPrefix(srv.URL, "http://"),
		MinioAccessKey: "access",
		MinioSecretKey: "secret",
		MinioBucket:    "accident-clips",
		MinioURLExpiry: time.Hour,
	}
	svc, err := NewMinioServiceFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewMinioServiceFromConfig: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 23, 30, 0, 0, time.UTC) }
	return svc
}

func TestMinioUpload(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	svc := newTestMinio(t, fake)

	clip := filepath.Join(t.TempDir(), "clip_abc.mp4")
	if err := os.WriteFile(clip, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Upload(context.Background(), clip)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if !fake.bucketSeen {
		t.Error("bucket existence was not checked")
	}
	ct, ok := fake.puts["accident-clips/2025-01-02/clip_abc.mp4"]
	if !ok {
		t.Fatalf("object not stored under dated key, puts = %v", fake.puts)
	}
	if ct != clipContentType {
		t.Errorf("content type = %q, want %q", ct, clipContentType)
	}
	if !strings.Contains(u, "/accident-clips/2025-01-02/clip_abc.mp4?") || !strings.Contains(u, "X-Amz-Signature=") {
		t.Errorf("url = %q, want presigned object URL", u)
	}
	if svc.Backend() != "minio" {
		t.Errorf("backend = %q", svc.Backend())
	}
}

func TestMinioUploadFailure(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}, failPut: true}
	svc := newTestMinio(t, fake)

	clip := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(clip, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Upload(context.Background(), clip)
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want *UploadError", err)
	}
	if upErr.Step != StepUpload || upErr.Backend != "minio" {
		t.Errorf("upload error = %+v", upErr)
	}
}
