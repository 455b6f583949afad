// Package archive stores extracted clips in dated collections of a remote
// object store and returns a public retrieval URL for each.
package archive

import (
	"context"
	"fmt"
	"time"

	"crashalert-model-service/internal/config"
)

// Upload steps reported by UploadError
const (
	StepFolder     = "folder"
	StepUpload     = "upload"
	StepPermission = "permission"
)

const clipContentType = "video/mp4"

// UploadError is returned for any remote store failure.
// When Step is StepPermission, the object was stored under ObjectID but
// was not confirmed public. Nothing repairs that state.
type UploadError struct {
	Backend  string
	Step     string
	Path     string
	ObjectID string
	Err      error
}

func (e *UploadError) Error() string {
	if e.ObjectID != "" {
		return fmt.Sprintf("%s %s failed for %s (object %s): %v", e.Backend, e.Step, e.Path, e.ObjectID, e.Err)
	}
	return fmt.Sprintf("%s %s failed for %s: %v", e.Backend, e.Step, e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader is implemented by every archive backend
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
	Backend() string
}

// New builds the backend selected by ARCHIVE_BACKEND
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveBackendDrive:
		return NewDriveServiceFromConfig(ctx, cfg)
	case config.ArchiveBackendMinio:
		return NewMinioServiceFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}

// folderName is the dated collection a clip uploaded at t goes to
func folderName(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
