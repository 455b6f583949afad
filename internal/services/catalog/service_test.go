package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func makeVideoDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := makeVideoDir(t, "video2.mp4", "not_video.txt", "video1.mp4", "image.jpg")
	if err := os.Mkdir(filepath.Join(dir, "folder.mp4"), 0755); err != nil {
		t.Fatal(err)
	}

	videos, err := NewService(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2: %+v", len(videos), videos)
	}
	if videos[0].ID != "video1" || videos[0].File != "video1.mp4" {
		t.Errorf("videos[0] = %+v", videos[0])
	}
	if videos[1].ID != "video2" {
		t.Errorf("videos[1] = %+v", videos[1])
	}
}

func TestListEmpty(t *testing.T) {
	videos, err := NewService(makeVideoDir(t, "text_file.txt")).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if videos == nil || len(videos) != 0 {
		t.Errorf("videos = %#v, want empty non-nil slice", videos)
	}
}

func TestListParsesFilenameMetadata(t *testing.T) {
	dir := makeVideoDir(t, "cam-alpha_Herzl-Jabotinsky_2024-05-01.mp4", "crossroad.mp4", "cam_only.mp4")

	videos, err := NewService(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	byID := map[string]int{}
	for i, v := range videos {
		byID[v.ID] = i
	}

	full := videos[byID["cam-alpha_Herzl-Jabotinsky_2024-05-01"]]
	if full.CameraID == nil || *full.CameraID != "cam-alpha" {
		t.Errorf("cameraId = %v, want cam-alpha", full.CameraID)
	}
	if full.Location == nil || *full.Location != "Herzl-Jabotinsky" {
		t.Errorf("location = %v, want Herzl-Jabotinsky", full.Location)
	}
	if full.Thumbnail == nil || *full.Thumbnail != "/videos/cam-alpha_Herzl-Jabotinsky_2024-05-01/thumbnail" {
		t.Errorf("thumbnail = %v", full.Thumbnail)
	}

	for _, id := range []string{"crossroad", "cam_only"} {
		v := videos[byID[id]]
		if v.CameraID != nil || v.Location != nil {
			t.Errorf("%s: expected nil metadata, got %v/%v", id, v.CameraID, v.Location)
		}
	}
}

func TestListIsIdempotent(t *testing.T) {
	svc := NewService(makeVideoDir(t, "b_x_1.mp4", "a.mp4", "c_y_2.mp4"))

	first, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("listings differ:\n%+v\n%+v", first, second)
	}
}

func TestListMissingDirectory(t *testing.T) {
	if _, err := NewService(filepath.Join(t.TempDir(), "missing")).List(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestResolve(t *testing.T) {
	dir := makeVideoDir(t, "test123.mp4")
	svc := NewService(dir)

	path, err := svc.Resolve("test123")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != filepath.Join(dir, "test123.mp4") {
		t.Errorf("path = %q", path)
	}

	for _, id := range []string{"nonexistent", "", "../test123", "..", "a/b"} {
		if _, err := svc.Resolve(id); !errors.Is(err, ErrSourceNotFound) {
			t.Errorf("Resolve(%q) err = %v, want ErrSourceNotFound", id, err)
		}
	}
}

func TestParseFilenameEmptyParts(t *testing.T) {
	if c, l := parseFilename("_loc_rest"); c != nil || l != nil {
		t.Errorf("empty camera should yield nils, got %v/%v", c, l)
	}
	if c, l := parseFilename("cam__rest"); c != nil || l != nil {
		t.Errorf("empty location should yield nils, got %v/%v", c, l)
	}
}
