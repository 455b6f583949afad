package inference

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"crashalert-model-service/internal/models"
)

// DecodeError means the source video could not be opened or decoded
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// VideoSource decodes a video file and runs the detector on every frame.
// Frame time is frameIndex / fps.
type VideoSource struct {
	path     string
	cap      *gocv.VideoCapture
	img      gocv.Mat
	detector *Detector
	fps      float64
	index    int
}

// Open starts decoding path. The returned source must be closed.
func (s *Service) Open(path string) (*VideoSource, error) {
	if s.detector == nil {
		return nil, ErrModelNotLoaded
	}

	cap, err := gocv.OpenVideoCaptureWithAPI(path, gocv.VideoCaptureFFmpeg)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("capture did not open")}
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = s.defaultFPS
	}

	log.Debug().
		Str("path", path).
		Float64("fps", fps).
		Float64("frame_count", cap.Get(gocv.VideoCaptureFrameCount)).
		Msg("Video opened for scanning")

	return &VideoSource{
		path:     path,
		cap:      cap,
		img:      gocv.NewMat(),
		detector: s.detector,
		fps:      fps,
	}, nil
}

func (v *VideoSource) FPS() float64 { return v.fps }

func (v *VideoSource) Next(ctx context.Context) (models.DetectionFrame, error) {
	if ok := v.cap.Read(&v.img); !ok || v.img.Empty() {
		if v.index == 0 {
			return models.DetectionFrame{}, &DecodeError{Path: v.path, Err: fmt.Errorf("no decodable frames")}
		}
		return models.DetectionFrame{}, io.EOF
	}

	dets, err := v.detector.Detect(v.img)
	if err != nil {
		return models.DetectionFrame{}, fmt.Errorf("inference on frame %d: %w", v.index, err)
	}

	frame := models.DetectionFrame{
		Index:            v.index,
		TimestampSeconds: float64(v.index) / v.fps,
		Detections:       dets,
	}
	v.index++
	return frame, nil
}

func (v *VideoSource) Close() error {
	v.img.Close()
	return v.cap.Close()
}
