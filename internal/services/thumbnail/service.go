package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// ErrNoFrame is returned when the video has no decodable first frame
var ErrNoFrame = errors.New("no frame available for thumbnail")

// Service renders and caches a JPEG of each video's first frame
type Service struct {
	cacheDir string
	width    int

	mu sync.Mutex
}

func NewService(cacheDir string, width int) *Service {
	return &Service{cacheDir: cacheDir, width: width}
}

// Get returns the cached thumbnail path for videoID, rendering it on first use
func (s *Service) Get(videoID, sourcePath string) (string, error) {
	out := s.cachePath(videoID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if src, err := os.Stat(sourcePath); err == nil {
		if thumb, err := os.Stat(out); err == nil && !thumb.ModTime().Before(src.ModTime()) {
			return out, nil
		}
	}

	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	data, err := s.render(sourcePath)
	if err != nil {
		return "", err
	}

	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}

	log.Debug().Str("video_id", videoID).Str("path", out).Msg("Thumbnail rendered")
	return out, nil
}

func (s *Service) cachePath(videoID string) string {
	return filepath.Join(s.cacheDir, videoID+".jpg")
}

func (s *Service) render(sourcePath string) ([]byte, error) {
	cap, err := gocv.VideoCaptureFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}
	defer cap.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := cap.Read(&frame); !ok || frame.Empty() {
		return nil, ErrNoFrame
	}

	w, h := scaledSize(frame.Cols(), frame.Rows(), s.width)
	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(frame, &small, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, small, []int{int(gocv.IMWriteJpegQuality), 85})
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// scaledSize fits width to target keeping aspect ratio. Frames already
// narrower than target are left as is.
func scaledSize(w, h, target int) (int, int) {
	if target <= 0 || w <= target || w == 0 {
		return w, h
	}
	nh := h * target / w
	if nh < 1 {
		nh = 1
	}
	return target, nh
}
