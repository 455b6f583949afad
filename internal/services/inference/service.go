package inference

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"crashalert-model-service/internal/config"
	"crashalert-model-service/internal/models"
)

// ErrModelNotLoaded is returned when a scan is requested but the weights failed to load
var ErrModelNotLoaded = errors.New("detection model not loaded")

// Detector runs the YOLO ONNX model on single frames. gocv.Net is not safe
// for concurrent Forward calls, so inference is serialized.
type Detector struct {
	mu        sync.Mutex
	net       gocv.Net
	inputSize int
	minScore  float32
	nmsThresh float32
}

func NewDetector(weights string, inputSize int, minScore, nmsThresh float64) (*Detector, error) {
	if _, err := os.Stat(weights); err != nil {
		return nil, fmt.Errorf("model weights: %w", err)
	}

	net := gocv.ReadNetFromONNX(weights)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read ONNX model from %s", weights)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		inputSize: inputSize,
		minScore:  float32(minScore),
		nmsThresh: float32(nmsThresh),
	}, nil
}

// Detect returns the post-NMS detections for one BGR frame
func (d *Detector) Detect(img gocv.Mat) ([]models.Detection, error) {
	if img.Empty() {
		return nil, errors.New("empty frame")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	sizes := out.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected model output shape %v", sizes)
	}
	rows, cols := sizes[1], sizes[2]

	flat := out.Reshape(1, rows)
	defer flat.Close()

	sx := float32(img.Cols()) / float32(d.inputSize)
	sy := float32(img.Rows()) / float32(d.inputSize)
	cands := decodeYOLO(rows, cols, flat.GetFloatAt, sx, sy, d.minScore)
	if len(cands) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		rects[i] = c.rect
		scores[i] = c.score
	}
	keep := gocv.NMSBoxes(rects, scores, d.minScore, d.nmsThresh)

	return toDetections(cands, keep), nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Service owns the model loaded at process start and opens frame sources on it.
type Service struct {
	detector   *Detector
	defaultFPS float64
}

// NewService loads the model. A load failure is logged and leaves the
// service running without a model; Loaded reports false and Open fails.
func NewService(cfg *config.Config) *Service {
	s := &Service{defaultFPS: cfg.DefaultFPS}

	det, err := NewDetector(cfg.ModelWeights, cfg.ModelInputSize, cfg.AccidentThreshold, cfg.NMSThreshold)
	if err != nil {
		log.Error().Err(err).Str("weights", cfg.ModelWeights).Msg("Model loading failed")
		return s
	}
	s.detector = det

	log.Info().
		Str("weights", cfg.ModelWeights).
		Int("input_size", cfg.ModelInputSize).
		Msg("Detection model loaded")
	return s
}

func (s *Service) Loaded() bool {
	return s.detector != nil
}

func (s *Service) Close() error {
	if s.detector == nil {
		return nil
	}
	return s.detector.Close()
}
