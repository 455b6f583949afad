package detection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/models"
)

// FrameSource yields detection frames lazily in increasing timestamp order.
// Next returns io.EOF once the source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (models.DetectionFrame, error)
}

// EventHandler receives every accepted event as soon as it is accepted.
type EventHandler func(models.AccidentEvent)

// Options controls which detections become accident events
type Options struct {
	ClassID   int
	Threshold float64
	Cooldown  float64 // seconds
}

func (o Options) validate() error {
	if o.Threshold <= 0 || o.Threshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0,1], got %v", o.Threshold)
	}
	if o.Cooldown < 0 {
		return fmt.Errorf("cooldown must be >= 0, got %v", o.Cooldown)
	}
	return nil
}

// Summary reports how much of the source a scan consumed
type Summary struct {
	Frames int
	Events int
}

// session is the per-scan cooldown state. It never outlives one Scan call.
type session struct {
	hasAccepted      bool
	lastAcceptedTime float64
}

func (s *session) inCooldown(t, cooldown float64) bool {
	return s.hasAccepted && t-s.lastAcceptedTime <= cooldown
}

func (s *session) accept(t float64) {
	s.hasAccepted = true
	s.lastAcceptedTime = t
}

// Scanner turns a frame stream into accident events. It holds no state
// between scans and is safe for concurrent use.
type Scanner struct {
	opts Options
}

func NewScanner(opts Options) (*Scanner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Scanner{opts: opts}, nil
}

// Scan consumes frames until the source is exhausted. An error from the
// source aborts the scan and is returned; events already handed to emit stand.
func (s *Scanner) Scan(ctx context.Context, frames FrameSource, emit EventHandler) (Summary, error) {
	var (
		sum  Summary
		sess session
	)

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		frame, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", sum.Frames, err)
		}
		sum.Frames++

		if sess.inCooldown(frame.TimestampSeconds, s.opts.Cooldown) {
			continue
		}

		best, ok := findPrimaryDetection(frame.Detections, s.opts.ClassID, s.opts.Threshold)
		if !ok {
			continue
		}

		sess.accept(frame.TimestampSeconds)
		sum.Events++

		event := models.AccidentEvent{
			TimeSeconds: frame.TimestampSeconds,
			Confidence:  best.Confidence,
			FrameIndex:  frame.Index,
		}
		log.Debug().
			Int("frame", frame.Index).
			Float64("time_seconds", event.TimeSeconds).
			Float64("confidence", event.Confidence).
			Msg("Accident event accepted")
		emit(event)
	}
}

// findPrimaryDetection returns the highest-confidence detection of classID at or
// above threshold. Exact ties keep the earliest detection.
func findPrimaryDetection(detections []models.Detection, classID int, threshold float64) (models.Detection, bool) {
	var (
		primary models.Detection
		found   bool
	)
	for _, det := range detections {
		if det.ClassID != classID || det.Confidence < threshold {
			continue
		}
		if !found || det.Confidence > primary.Confidence {
			primary = det
			found = true
		}
	}
	return primary, found
}
