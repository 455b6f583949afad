package clip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testService(t *testing.T, run commandRunner) *Service {
	t.Helper()
	return &Service{
		ffmpegPath: "ffmpeg",
		scratchDir: t.TempDir(),
		profile:    Profile{Width: 640, Preset: "fast", CRF: 28, AudioBitrate: "96k"},
		run:        run,
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp4")
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func assertContains(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			if args[i+1] != value {
				t.Errorf("%s = %q, want %q", flag, args[i+1], value)
			}
			return
		}
	}
	t.Errorf("flag %s not found in %v", flag, args)
}

func TestNewWindow(t *testing.T) {
	cases := []struct {
		center, lead, tail float64
		want               Window
	}{
		{10, 7, 8, Window{Start: 3, End: 18}},
		{3, 7, 8, Window{Start: 0, End: 11}},
		{7, 7, 8, Window{Start: 0, End: 15}},
		{0, 7, 8, Window{Start: 0, End: 8}},
	}
	for _, tc := range cases {
		got := NewWindow(tc.center, tc.lead, tc.tail)
		if got != tc.want {
			t.Errorf("NewWindow(%v, %v, %v) = %+v, want %+v", tc.center, tc.lead, tc.tail, got, tc.want)
		}
	}
	if d := NewWindow(10, 7, 8).Duration(); d != 15 {
		t.Errorf("Duration() = %v, want 15", d)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs("/videos/in.mp4", "/tmp/out.mp4", Window{Start: 3, End: 18}, Profile{Width: 640, Preset: "fast", CRF: 28, AudioBitrate: "96k"})

	assertContains(t, args, "-i", "/videos/in.mp4")
	assertContains(t, args, "-ss", "3")
	assertContains(t, args, "-t", "15")
	assertContains(t, args, "-vf", "scale=640:-1")
	assertContains(t, args, "-c:v", "libx264")
	assertContains(t, args, "-preset", "fast")
	assertContains(t, args, "-crf", "28")
	assertContains(t, args, "-c:a", "aac")
	assertContains(t, args, "-b:a", "96k")
	assertContains(t, args, "-movflags", "+faststart")

	if args[len(args)-1] != "-y" || args[len(args)-2] != "/tmp/out.mp4" {
		t.Errorf("output not at end of args: %v", args)
	}
}

func TestBuildFFmpegArgsFractionalTimes(t *testing.T) {
	args := buildFFmpegArgs("in", "out", NewWindow(12.25, 7, 8), Profile{Width: 320, Preset: "fast", CRF: 28, AudioBitrate: "96k"})

	assertContains(t, args, "-ss", "5.25")
	assertContains(t, args, "-t", "15")
	assertContains(t, args, "-vf", "scale=320:-1")
}

func TestExtractRunsFFmpeg(t *testing.T) {
	var gotName string
	var gotArgs []string
	svc := testService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	})
	src := writeSource(t)

	out, err := svc.Extract(context.Background(), src, 10, 7, 8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Errorf("ran %q, want ffmpeg", gotName)
	}
	if filepath.Dir(out) != svc.scratchDir {
		t.Errorf("output %q not in scratch dir %q", out, svc.scratchDir)
	}
	if !strings.HasPrefix(filepath.Base(out), "clip_") || filepath.Ext(out) != ".mp4" {
		t.Errorf("unexpected output name %q", out)
	}
	assertContains(t, gotArgs, "-ss", "3")
	assertContains(t, gotArgs, "-t", "15")
}

func TestExtractOutputNamesAreUnique(t *testing.T) {
	svc := testService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) { return nil, nil })
	src := writeSource(t)

	a, err := svc.Extract(context.Background(), src, 10, 7, 8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := svc.Extract(context.Background(), src, 10, 7, 8)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if a == b {
		t.Errorf("two extractions share output path %q", a)
	}
}

func TestExtractMissingSource(t *testing.T) {
	called := false
	svc := testService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	})

	_, err := svc.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), 10, 7, 8)

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("err = %v, want *ExtractionError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err should wrap os.ErrNotExist: %v", err)
	}
	if called {
		t.Error("ffmpeg must not run for a missing source")
	}
}

func TestExtractEncoderFailure(t *testing.T) {
	svc := testService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	})

	_, err := svc.Extract(context.Background(), writeSource(t), 10, 7, 8)

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("err = %v, want *ExtractionError", err)
	}
	if !strings.Contains(extractErr.Output, "Invalid data") {
		t.Errorf("Output = %q, want ffmpeg output", extractErr.Output)
	}

	entries, _ := os.ReadDir(svc.scratchDir)
	if len(entries) != 0 {
		t.Errorf("scratch dir should be empty after failure, has %d entries", len(entries))
	}
}

func TestLastBytes(t *testing.T) {
	if got := lastBytes("abcdef", 3); got != "def" {
		t.Errorf("lastBytes = %q, want def", got)
	}
	if got := lastBytes("ab", 3); got != "ab" {
		t.Errorf("lastBytes = %q, want ab", got)
	}
}
