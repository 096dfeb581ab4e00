package core

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/strip"
)

func init() {
	logger.Discard()
}

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg := config.Default()
	cfg.Camera.Driver = "still"
	cfg.Camera.FrontDevice = ""
	cfg.Camera.Width, cfg.Camera.Height = 160, 120
	cfg.Countdown.Step = time.Millisecond
	cfg.Session.ComposeDelay = 0
	cfg.Prefs.Path = filepath.Join(t.TempDir(), "prefs.db")

	c := NewCore(context.Background(), cfg)
	c.out = io.Discard
	date := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return date }
	return c
}

func writeStills(t *testing.T, colors ...color.RGBA) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i, c := range colors {
		img := image.NewRGBA(image.Rect(0, 0, 80, 60))
		draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		p := filepath.Join(dir, string(rune('a'+i))+".png")
		f, err := os.Create(p)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
		paths = append(paths, p)
	}
	return paths
}

var (
	red   = color.RGBA{220, 30, 30, 255}
	green = color.RGBA{30, 200, 30, 255}
	blue  = color.RGBA{30, 30, 220, 255}
)

func TestCompose(t *testing.T) {
	c := newTestCore(t)
	files := writeStills(t, red, green, blue)
	out := filepath.Join(t.TempDir(), "strip.jpg")

	st, err := c.Compose(files, out)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(st.Failed) != 0 {
		t.Errorf("failed cells: %v", st.Failed)
	}
	if st.Caption != strip.Caption(c.now()) {
		t.Errorf("caption = %q", st.Caption)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("strip not written: %v", err)
	}
}

func TestComposeBlankCell(t *testing.T) {
	c := newTestCore(t)
	files := writeStills(t, red, green, blue)
	if err := os.WriteFile(files[1], []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := c.Compose(files, "")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !reflect.DeepEqual(st.Failed, []int{1}) {
		t.Errorf("failed = %v, want [1]", st.Failed)
	}
}

func TestComposeNeedsThree(t *testing.T) {
	c := newTestCore(t)
	_, err := c.Compose(writeStills(t, red, green), "")
	if !errors.Is(err, strip.ErrNeedThreePhotos) {
		t.Errorf("err = %v", err)
	}
	if _, err := c.Compose([]string{"missing.png", "x", "y"}, ""); err == nil {
		t.Error("expected read error")
	}
}

func TestCompare(t *testing.T) {
	c := newTestCore(t)
	same, err := c.Compare(writeStills(t, red, green, blue))
	if err != nil || !same {
		t.Errorf("Compare = %t, %v", same, err)
	}
}

func TestCompareBytes(t *testing.T) {
	testCases := []struct {
		a, b []byte
		same bool
	}{
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, true},
		{[]byte{1, 2, 3}, []byte{1, 2}, false},
		{[]byte{1, 2, 3}, []byte{1, 9, 3}, false},
		{nil, nil, true},
	}
	for _, tc := range testCases {
		same, err := compareBytes(tc.a, tc.b)
		if same != tc.same || (err == nil) != tc.same {
			t.Errorf("compareBytes(%v, %v) = %t, %v", tc.a, tc.b, same, err)
		}
	}
}

func TestSnap(t *testing.T) {
	c := newTestCore(t)
	out := filepath.Join(t.TempDir(), "photo-booth.jpg")
	path, err := c.Snap(camera.FacingFront, out)
	if err != nil {
		t.Fatalf("Snap: %v", err)
	}
	if path != out {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("strip not written: %v", err)
	}
}

func TestSnapCameraDenied(t *testing.T) {
	c := newTestCore(t)
	driver := camera.NewStillDriver(camera.TestPattern(32, 24))
	driver.Fail(errors.New("permission denied"))
	c.newDriver = func(config.Camera) (camera.Driver, error) { return driver, nil }

	_, err := c.Snap(camera.FacingFront, filepath.Join(t.TempDir(), "x.jpg"))
	if !errors.Is(err, camera.ErrDeviceUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestTheme(t *testing.T) {
	c := newTestCore(t)
	got, err := c.Theme("")
	if err != nil || got != "cupcake" {
		t.Fatalf("default theme = %q, %v", got, err)
	}
	if _, err := c.Theme("retro"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Theme(""); got != "retro" {
		t.Errorf("stored theme = %q", got)
	}
	if _, err := c.Theme("neon"); err == nil {
		t.Error("expected unknown theme error")
	}
}
