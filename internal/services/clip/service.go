package clip

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
)

// stderrTail is how much ffmpeg output an ExtractionError keeps
const stderrTail = 2048

// ExtractionError means a clip could not be produced from the source
type ExtractionError struct {
	Source string
	Output string // tail of ffmpeg output, empty when ffmpeg never ran
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("extract clip from %s: %v: %s", e.Source, e.Err, e.Output)
	}
	return fmt.Sprintf("extract clip from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Window is a clip range in source seconds
type Window struct {
	Start float64
	End   float64
}

// Duration of the window in seconds
func (w Window) Duration() float64 { return w.End - w.Start }

// NewWindow centers a window on center. The start is clamped at zero, so
// events early in the video get a shorter lead; the tail is never clamped.
func NewWindow(center, lead, tail float64) Window {
	return Window{
		Start: math.Max(0, center-lead),
		End:   center + tail,
	}
}

// Profile is the fixed re-encode configuration applied to every clip
type Profile struct {
	Width        int
	Preset       string
	CRF          int
	AudioBitrate string
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Service struct {
	ffmpegPath string
	scratchDir string
	profile    Profile
	run        commandRunner
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		ffmpegPath: cfg.FFmpegPath,
		scratchDir: cfg.ScratchDir,
		profile: Profile{
			Width:        cfg.ClipWidth,
			Preset:       cfg.ClipPreset,
			CRF:          cfg.ClipCRF,
			AudioBitrate: cfg.ClipAudioBitrate,
		},
		run: runCommand,
	}
}

// Extract writes the window around center to a new file in the scratch
// directory and returns its path. The caller owns the returned file.
func (s *Service) Extract(ctx context.Context, sourcePath string, center, lead, tail float64) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", &ExtractionError{Source: sourcePath, Err: err}
	}
	if info.IsDir() {
		return "", &ExtractionError{Source: sourcePath, Err: fmt.Errorf("source is a directory")}
	}

	if err := os.MkdirAll(s.scratchDir, 0755); err != nil {
		return "", &ExtractionError{Source: sourcePath, Err: fmt.Errorf("failed to create scratch directory: %w", err)}
	}

	window := NewWindow(center, lead, tail)
	outputPath := filepath.Join(s.scratchDir, "clip_"+uuid.NewString()+".mp4")
	args := buildFFmpegArgs(sourcePath, outputPath, window, s.profile)

	log.Debug().
		Str("source", sourcePath).
		Strs("args", args).
		Msg("Running ffmpeg clip extraction")

	started := time.Now()
	output, err := s.run(ctx, s.ffmpegPath, args...)
	if err != nil {
		os.Remove(outputPath)
		return "", &ExtractionError{Source: sourcePath, Output: lastBytes(string(output), stderrTail), Err: err}
	}

	log.Info().
		Str("source", sourcePath).
		Str("output", outputPath).
		Float64("start", window.Start).
		Float64("duration", window.Duration()).
		Dur("elapsed", time.Since(started)).
		Msg("Clip extracted")

	return outputPath, nil
}

// buildFFmpegArgs trims [start, start+duration) and re-encodes for streaming playback.
func buildFFmpegArgs(input, output string, w Window, p Profile) []string {
	return []string{
		"-i", input,
		"-ss", formatSeconds(w.Start),
		"-t", formatSeconds(w.Duration()),
		"-vf", fmt.Sprintf("scale=%d:-1", p.Width),
		"-c:v", "libx264",
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		output,
		"-y",
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func lastBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
