package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"crashalert-model-service/internal/models"
)

const videoExt = ".mp4"

// ErrSourceNotFound is returned when a video id does not resolve to a file
var ErrSourceNotFound = errors.New("video not found")

// Service lists the source videos available for scanning
type Service struct {
	dir string
}

func NewService(dir string) *Service {
	return &Service{dir: dir}
}

func (s *Service) Dir() string { return s.dir }

// List returns every .mp4 in the video directory sorted by filename
func (s *Service) List() ([]models.VideoInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read video directory: %w", err)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && strings.HasSuffix(e.Name(), videoExt)
	})
	sort.Strings(files)

	return lo.Map(files, func(name string, _ int) models.VideoInfo {
		return describe(name)
	}), nil
}

// Resolve maps a video id to its file path
func (s *Service) Resolve(videoID string) (string, error) {
	if videoID == "" || strings.ContainsAny(videoID, `/\`) || videoID == "." || videoID == ".." {
		return "", ErrSourceNotFound
	}

	path := filepath.Join(s.dir, videoID+videoExt)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrSourceNotFound
	}
	return path, nil
}

// ThumbnailPath is the API path serving a video's thumbnail
func ThumbnailPath(videoID string) string {
	return "/videos/" + videoID + "/thumbnail"
}

func describe(file string) models.VideoInfo {
	id := strings.TrimSuffix(file, videoExt)
	cameraID, location := parseFilename(id)
	return models.VideoInfo{
		ID:        id,
		File:      file,
		CameraID:  cameraID,
		Location:  location,
		Thumbnail: lo.ToPtr(ThumbnailPath(id)),
	}
}

// parseFilename reads <cameraId>_<location>_<rest>. Anything else yields nils.
func parseFilename(id string) (cameraID, location *string) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return nil, nil
	}
	return lo.ToPtr(parts[0]), lo.ToPtr(parts[1])
}
