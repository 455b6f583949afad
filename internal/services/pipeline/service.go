package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/detection"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken
	ErrQueueFull = errors.New("scan queue is full")
	// ErrStopped is returned by Submit after Shutdown has begun
	ErrStopped = errors.New("pipeline is shutting down")
)

// FrameStream is a closable DetectionFrame sequence
type FrameStream interface {
	detection.FrameSource
	Close() error
}

// OpenFunc opens a frame stream on a source video
type OpenFunc func(path string) (FrameStream, error)

// Dispatcher delivers one accepted event
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.AccidentEvent, sourcePath string, meta models.RunMetadata) models.DispatchResult
}

// Job is one requested scan
type Job struct {
	ID         string
	VideoID    string
	SourcePath string
	Meta       models.RunMetadata
}

type Options struct {
	Workers             int
	QueueSize           int
	DispatchConcurrency int

	// ReportSubject and ReportPublisher publish every ScanReport when both are set
	ReportSubject   string
	ReportPublisher models.MessagePublisher

	// OnReport is called by the reporter after logging each report
	OnReport func(models.ScanReport)
}

// Service runs scan jobs on a fixed worker pool. Each job scans sequentially
// and fans its events out to the dispatcher, bounded across all jobs.
type Service struct {
	open       OpenFunc
	scanner    *detection.Scanner
	dispatcher Dispatcher
	opts       Options
	logger     zerolog.Logger

	jobs        chan Job
	reports     chan models.ScanReport
	dispatchSem chan struct{}

	mu      sync.RWMutex
	stopped bool

	ctx          context.Context
	cancel       context.CancelFunc
	workers      sync.WaitGroup
	reporterDone chan struct{}
	startOnce    sync.Once
	started      atomic.Bool

	now func() time.Time
}

func NewService(open OpenFunc, scanner *detection.Scanner, dispatcher Dispatcher, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.DispatchConcurrency < 1 {
		opts.DispatchConcurrency = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		open:         open,
		scanner:      scanner,
		dispatcher:   dispatcher,
		opts:         opts,
		logger:       log.With().Str("service", "pipeline").Logger(),
		jobs:         make(chan Job, opts.QueueSize),
		reports:      make(chan models.ScanReport, opts.Workers),
		dispatchSem:  make(chan struct{}, opts.DispatchConcurrency),
		ctx:          ctx,
		cancel:       cancel,
		reporterDone: make(chan struct{}),
		now:          time.Now,
	}
}

// Start launches the workers and the reporter. Calling it again is a no-op.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		for i := 0; i < s.opts.Workers; i++ {
			s.workers.Add(1)
			go s.worker(i)
		}
		go s.reporter()

		s.logger.Info().
			Int("workers", s.opts.Workers).
			Int("queue_size", s.opts.QueueSize).
			Int("dispatch_concurrency", s.opts.DispatchConcurrency).
			Msg("Scan pipeline started")
	})
}

// Submit enqueues job without blocking and returns its id
func (s *Service) Submit(job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return "", ErrStopped
	}

	select {
	case s.jobs <- job:
		s.logger.Info().
			Str("job_id", job.ID).
			Str("video_id", job.VideoID).
			Str("camera_id", job.Meta.CameraID).
			Msg("Scan job queued")
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// Pending is the number of queued jobs not yet picked up by a worker
func (s *Service) Pending() int {
	return len(s.jobs)
}

// Run scans job on the calling goroutine and waits for every dispatch it starts
func (s *Service) Run(ctx context.Context, job Job) models.ScanReport {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	report := models.ScanReport{
		JobID:     job.ID,
		VideoID:   job.VideoID,
		CameraID:  job.Meta.CameraID,
		StartedAt: s.now(),
	}
	logger := s.logger.With().Str("job_id", job.ID).Str("video_id", job.VideoID).Logger()

	stream, err := s.open(job.SourcePath)
	if err != nil {
		report.Err = fmt.Errorf("open %s: %w", job.SourcePath, err)
		report.FinishedAt = s.now()
		return report
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close frame source")
		}
	}()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.DispatchResult
	)

	emit := func(event models.AccidentEvent) {
		logger.Info().
			Float64("time_seconds", event.TimeSeconds).
			Float64("confidence", event.Confidence).
			Int("frame", event.FrameIndex).
			Msg("Accident detected")

		s.dispatchSem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-s.dispatchSem
				wg.Done()
			}()
			res := s.dispatcher.Dispatch(ctx, event, job.SourcePath, job.Meta)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}

	summary, err := s.scanner.Scan(ctx, stream, emit)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Event.TimeSeconds < results[j].Event.TimeSeconds
	})

	report.Frames = summary.Frames
	report.Events = summary.Events
	report.Results = results
	report.Err = err
	report.FinishedAt = s.now()
	return report
}

func (s *Service) worker(id int) {
	defer s.workers.Done()
	for job := range s.jobs {
		s.logger.Debug().Int("worker", id).Str("job_id", job.ID).Msg("Scan job started")
		s.reports <- s.Run(s.ctx, job)
	}
}

func (s *Service) reporter() {
	defer close(s.reporterDone)
	for report := range s.reports {
		s.logReport(report)
		if s.opts.ReportPublisher != nil && s.opts.ReportSubject != "" {
			if err := s.opts.ReportPublisher.Publish(s.opts.ReportSubject, report); err != nil {
				s.logger.Warn().Err(err).Str("subject", s.opts.ReportSubject).Msg("Failed to publish scan report")
			}
		}
		if s.opts.OnReport != nil {
			s.opts.OnReport(report)
		}
	}
}

func (s *Service) logReport(r models.ScanReport) {
	ev := s.logger.Info()
	if r.Err != nil {
		ev = s.logger.Error().Err(r.Err)
	}
	ev.Str("job_id", r.JobID).
		Str("video_id", r.VideoID).
		Str("camera_id", r.CameraID).
		Int("frames", r.Frames).
		Int("events", r.Events).
		Int("delivered", r.Delivered()).
		Dur("elapsed", r.FinishedAt.Sub(r.StartedAt)).
		Msg("Scan finished")
}

// Shutdown stops intake and waits for queued and running jobs. When ctx
// expires first, running scans are cancelled and Shutdown returns ctx.Err().
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.jobs)
	s.mu.Unlock()

	if !s.started.Load() {
		if n := len(s.jobs); n > 0 {
			s.logger.Warn().Int("dropped", n).Msg("Pipeline never started, queued jobs dropped")
		}
		s.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(s.reports)
		<-s.reporterDone
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info().Msg("Scan pipeline stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
