package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"crashalert-model-service/internal/config"
)

const (
	driveBackend     = "drive"
	driveFolderMime  = "application/vnd.google-apps.folder"
	driveViewURLBase = "https://drive.google.com/file/d/"
)

// DriveService uploads clips into a YYYY-MM-DD folder under a root folder
// and shares each file with anyone holding the link.
type DriveService struct {
	srv          *drive.Service
	rootFolderID string
	now          func() time.Time

	// Lookup-or-create is not transactional; concurrent first uploads of a
	// day may each create a folder. The cache only avoids repeat lookups.
	mu        sync.Mutex
	folderDay string
	folderID  string
}

func NewDriveServiceFromConfig(ctx context.Context, cfg *config.Config) (*DriveService, error) {
	return NewDriveService(ctx, cfg.DriveRootFolderID,
		option.WithCredentialsFile(cfg.DriveCredentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
}

func NewDriveService(ctx context.Context, rootFolderID string, opts ...option.ClientOption) (*DriveService, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	log.Info().Str("root_folder_id", rootFolderID).Msg("Drive archive initialized")

	return &DriveService{
		srv:          srv,
		rootFolderID: rootFolderID,
		now:          time.Now,
	}, nil
}

func (s *DriveService) Backend() string { return driveBackend }

// Upload stores the file and returns its /view URL.
func (s *DriveService) Upload(ctx context.Context, path string) (string, error) {
	folderID, err := s.todayFolder(ctx)
	if err != nil {
		return "", &UploadError{Backend: driveBackend, Step: StepFolder, Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &UploadError{Backend: driveBackend, Step: StepUpload, Path: path, Err: err}
	}
	defer f.Close()

	meta := &drive.File{
		Name:    filepath.Base(path),
		Parents: []string{folderID},
	}
	created, err := s.srv.Files.Create(meta).
		Media(f, googleapi.ContentType(clipContentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", &UploadError{Backend: driveBackend, Step: StepUpload, Path: path, Err: err}
	}

	perm := &drive.Permission{Role: "reader", Type: "anyone"}
	if _, err := s.srv.Permissions.Create(created.Id, perm).Fields("id").Context(ctx).Do(); err != nil {
		log.Warn().
			Err(err).
			Str("file_id", created.Id).
			Msg("Clip uploaded but public access was not granted")
		return "", &UploadError{Backend: driveBackend, Step: StepPermission, Path: path, ObjectID: created.Id, Err: err}
	}

	link := driveViewURLBase + created.Id + "/view"
	log.Info().
		Str("file_id", created.Id).
		Str("folder_id", folderID).
		Str("url", link).
		Msg("Clip archived to Drive")
	return link, nil
}

func (s *DriveService) todayFolder(ctx context.Context) (string, error) {
	day := folderName(s.now())

	s.mu.Lock()
	if s.folderDay == day {
		id := s.folderID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	id, err := s.lookupOrCreateFolder(ctx, day)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.folderDay, s.folderID = day, id
	s.mu.Unlock()
	return id, nil
}

func (s *DriveService) lookupOrCreateFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false", s.rootFolderID, name, driveFolderMime)
	list, err := s.srv.Files.List().Q(q).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: driveFolderMime,
		Parents:  []string{s.rootFolderID},
	}
	created, err := s.srv.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	log.Info().Str("folder", name).Str("folder_id", created.Id).Msg("Created Drive folder")
	return created.Id, nil
}
