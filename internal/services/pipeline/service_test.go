package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/detection"
)

type fakeStream struct {
	frames []models.DetectionFrame
	pos    int
	gate   chan struct{} // when set, Next blocks on it before the first frame
	closed atomic.Bool
}

func (f *fakeStream) Next(ctx context.Context) (models.DetectionFrame, error) {
	if f.gate != nil && f.pos == 0 {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return models.DetectionFrame{}, ctx.Err()
		}
	}
	if f.pos >= len(f.frames) {
		return models.DetectionFrame{}, io.EOF
	}
	fr := f.frames[f.pos]
	f.pos++
	return fr, nil
}

func (f *fakeStream) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	events   []models.AccidentEvent
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, event models.AccidentEvent, sourcePath string, meta models.RunMetadata) models.DispatchResult {
	n := d.inFlight.Add(1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(d.delay)
	d.inFlight.Add(-1)

	d.mu.Lock()
	d.events = append(d.events, event)
	d.mu.Unlock()
	return models.DispatchResult{Outcome: models.DispatchDelivered, Event: event, CameraID: meta.CameraID}
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func accidentFrames(times ...float64) []models.DetectionFrame {
	frames := make([]models.DetectionFrame, len(times))
	for i, t := range times {
		frames[i] = models.DetectionFrame{
			Index:            i,
			TimestampSeconds: t,
			Detections:       []models.Detection{{ClassID: 0, Confidence: 0.9}},
		}
	}
	return frames
}

func newScanner(t *testing.T) *detection.Scanner {
	t.Helper()
	sc, err := detection.NewScanner(detection.Options{ClassID: 0, Threshold: 0.7, Cooldown: 20})
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return sc
}

func openerFor(stream *fakeStream) OpenFunc {
	return func(string) (FrameStream, error) { return stream, nil }
}

func TestRunDispatchesEveryEvent(t *testing.T) {
	stream := &fakeStream{frames: accidentFrames(1, 5, 25, 30, 50)}
	disp := &fakeDispatcher{}
	svc := NewService(openerFor(stream), newScanner(t), disp, Options{DispatchConcurrency: 2})

	report := svc.Run(context.Background(), Job{VideoID: "v1", SourcePath: "/videos/v1.mp4", Meta: models.RunMetadata{CameraID: "cam1"}})

	if report.Err != nil {
		t.Fatalf("report.Err = %v", report.Err)
	}
	if report.Frames != 5 || report.Events != 3 {
		t.Errorf("frames/events = %d/%d, want 5/3", report.Frames, report.Events)
	}
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	want := []float64{1, 25, 50}
	for i, res := range report.Results {
		if res.Event.TimeSeconds != want[i] {
			t.Errorf("results[%d] time = %v, want %v", i, res.Event.TimeSeconds, want[i])
		}
	}
	if report.Delivered() != 3 {
		t.Errorf("delivered = %d, want 3", report.Delivered())
	}
	if report.JobID == "" || report.CameraID != "cam1" {
		t.Errorf("report identity = %q/%q", report.JobID, report.CameraID)
	}
	if !stream.closed.Load() {
		t.Error("frame stream was not closed")
	}
}

func TestRunOpenFailure(t *testing.T) {
	openErr := errors.New("no such file")
	disp := &fakeDispatcher{}
	svc := NewService(func(string) (FrameStream, error) { return nil, openErr }, newScanner(t), disp, Options{})

	report := svc.Run(context.Background(), Job{VideoID: "v1", SourcePath: "/videos/v1.mp4"})

	if !errors.Is(report.Err, openErr) {
		t.Errorf("report.Err = %v, want wrapped %v", report.Err, openErr)
	}
	if len(disp.events) != 0 {
		t.Errorf("dispatcher called %d times", len(disp.events))
	}
}

func TestRunBoundsDispatchConcurrency(t *testing.T) {
	times := make([]float64, 8)
	for i := range times {
		times[i] = float64(i) * 30
	}
	stream := &fakeStream{frames: accidentFrames(times...)}
	disp := &fakeDispatcher{delay: 20 * time.Millisecond}
	svc := NewService(openerFor(stream), newScanner(t), disp, Options{DispatchConcurrency: 2})

	report := svc.Run(context.Background(), Job{VideoID: "v1"})

	if len(report.Results) != 8 {
		t.Fatalf("got %d results, want 8", len(report.Results))
	}
	if peak := disp.peak.Load(); peak > 2 {
		t.Errorf("peak concurrent dispatches = %d, want <= 2", peak)
	}
}

func TestSubmitReportsOnCompletion(t *testing.T) {
	stream := &fakeStream{frames: accidentFrames(2)}
	pub := &recordingPublisher{}
	reports := make(chan models.ScanReport, 1)

	svc := NewService(openerFor(stream), newScanner(t), &fakeDispatcher{}, Options{
		Workers:         1,
		QueueSize:       1,
		ReportSubject:   "accidents.scan",
		ReportPublisher: pub,
		OnReport:        func(r models.ScanReport) { reports <- r },
	})
	svc.Start()

	id, err := svc.Submit(Job{VideoID: "v1", Meta: models.RunMetadata{CameraID: "cam1"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case r := <-reports:
		if r.JobID != id {
			t.Errorf("report job id = %q, want %q", r.JobID, id)
		}
		if r.Events != 1 {
			t.Errorf("events = %d, want 1", r.Events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no report received")
	}

	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.subjects) != 1 || pub.subjects[0] != "accidents.scan" {
		t.Errorf("published subjects = %v", pub.subjects)
	}
}

func TestSubmitQueueFull(t *testing.T) {
	gate := make(chan struct{})
	stream := &fakeStream{frames: accidentFrames(1), gate: gate}
	svc := NewService(openerFor(stream), newScanner(t), &fakeDispatcher{}, Options{Workers: 1, QueueSize: 1})

	// Not started: the single slot fills and the next submission is refused
	if _, err := svc.Submit(Job{VideoID: "a"}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(Job{VideoID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Submit err = %v, want ErrQueueFull", err)
	}
	if svc.Pending() != 1 {
		t.Errorf("pending = %d, want 1", svc.Pending())
	}

	close(gate)
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	svc := NewService(openerFor(&fakeStream{}), newScanner(t), &fakeDispatcher{}, Options{})
	svc.Start()
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := svc.Submit(Job{VideoID: "late"}); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after shutdown err = %v, want ErrStopped", err)
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestShutdownTimeoutCancelsRunningScan(t *testing.T) {
	gate := make(chan struct{}) // never closed
	stream := &fakeStream{frames: accidentFrames(1), gate: gate}
	reports := make(chan models.ScanReport, 1)
	svc := NewService(openerFor(stream), newScanner(t), &fakeDispatcher{}, Options{
		Workers:  1,
		OnReport: func(r models.ScanReport) { reports <- r },
	})
	svc.Start()

	if _, err := svc.Submit(Job{VideoID: "stuck"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown err = %v, want deadline exceeded", err)
	}

	select {
	case r := <-reports:
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("report.Err = %v, want context.Canceled", r.Err)
		}
	default:
		t.Fatal("cancelled scan produced no report")
	}
}
