package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/capture"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/countdown"
	"github.com/1F47E/go-photobooth/internal/strip"
)

// instant fires every timer right away and records the delays asked for.
type instant struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *instant) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *instant) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// never is a clock whose timers do not fire.
func never(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

// sequenceDriver hands out sources whose frames cycle through colours, one
// colour per frame grabbed.
type sequenceDriver struct {
	*camera.StillDriver
	mu     sync.Mutex
	colors []color.RGBA
	next   int
}

func newSequenceDriver(colors ...color.RGBA) *sequenceDriver {
	return &sequenceDriver{StillDriver: camera.NewStillDriver(image.NewRGBA(image.Rect(0, 0, 64, 48))), colors: colors}
}

func (d *sequenceDriver) Open(ctx context.Context, req camera.Request) (camera.Source, error) {
	src, err := d.StillDriver.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	return &sequenceSource{Source: src, d: d}, nil
}

type sequenceSource struct {
	camera.Source
	d *sequenceDriver
}

func (s *sequenceSource) Frame(ctx context.Context) (image.Image, error) {
	if _, err := s.Source.Frame(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	c := s.d.colors[s.d.next%len(s.d.colors)]
	s.d.next++
	s.d.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

var (
	red   = color.RGBA{230, 20, 20, 255}
	green = color.RGBA{20, 210, 20, 255}
	blue  = color.RGBA{20, 20, 230, 255}
)

type harness struct {
	s      *Session
	driver *sequenceDriver
	clock  *instant
	events chan Event
}

func newHarness(t *testing.T, countdownAfter func(time.Duration) <-chan time.Time) *harness {
	t.Helper()
	h := &harness{
		driver: newSequenceDriver(red, green, blue),
		clock:  &instant{},
		events: make(chan Event, 256),
	}
	if countdownAfter == nil {
		countdownAfter = h.clock.After
	}
	cfg := config.Default()
	seq := countdown.New(cfg.Countdown.Steps, cfg.Countdown.Step)
	seq.After = countdownAfter
	capturer, err := capture.New(cfg.Capture)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(
		camera.NewAdapter(h.driver, cfg.Camera),
		seq,
		capturer,
		strip.NewComposer(strip.Classic),
		Options{
			ComposeDelay: cfg.Session.ComposeDelay,
			Filter:       "gingham",
			Events:       h.events,
			After:        h.clock.After,
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	h.s = s
	t.Cleanup(s.Close)
	return h
}

func (h *harness) drain() []Event {
	var out []Event
	for {
		select {
		case e := <-h.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func waitPhase(t *testing.T, s *Session, p Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Snapshot().Phase == p {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("phase = %s, want %s", s.Snapshot().Phase, p)
}

func shootThree(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := h.s.Shoot(ctx); err != nil {
			t.Fatalf("Shoot #%d: %v", i+1, err)
		}
	}
	if _, err := h.s.WaitStrip(ctx); err != nil {
		t.Fatalf("WaitStrip: %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	if CountingDown.String() != "counting-down" || Phase(42).String() != "unknown" {
		t.Errorf("bad phase names")
	}
}

func TestFullSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := h.s.Snapshot(); got.Phase != Live || got.Status() != "Ready to click your first snap!" {
		t.Fatalf("after start: %+v", got)
	}

	if err := h.s.Shoot(ctx); err != nil {
		t.Fatalf("Shoot: %v", err)
	}
	var labels []string
	for _, e := range h.drain() {
		if e.Type == EventCountdown {
			labels = append(labels, e.Text)
		}
	}
	if want := []string{"3", "2", "1", "Smile!", ""}; !reflect.DeepEqual(labels, want) {
		t.Errorf("countdown labels = %q, want %q", labels, want)
	}
	if waits := h.clock.Waits(); len(waits) != 4 || waits[0] != time.Second {
		t.Errorf("countdown waits = %v", waits)
	}
	photos := h.s.Photos()
	if len(photos) != 1 || photos[0].CapturedAt.Before(h.s.StartedAt()) {
		t.Fatalf("photos after one shot: %d", len(photos))
	}
	if got := h.s.Snapshot().Status(); got != "2 more to go!" {
		t.Errorf("status = %q", got)
	}

	for i := 0; i < 2; i++ {
		if err := h.s.Shoot(ctx); err != nil {
			t.Fatalf("Shoot: %v", err)
		}
	}
	st, err := h.s.WaitStrip(ctx)
	if err != nil {
		t.Fatalf("WaitStrip: %v", err)
	}
	waitPhase(t, h.s, Reviewing)

	// compose delay went through the clock
	waits := h.clock.Waits()
	if waits[len(waits)-1] != config.ComposeDelay {
		t.Errorf("last wait = %v, want compose delay", waits[len(waits)-1])
	}

	// capture order is top to bottom
	checks := []func(color.RGBA) bool{
		func(c color.RGBA) bool { return c.R > 150 && c.G < 110 && c.B < 110 },
		func(c color.RGBA) bool { return c.G > 150 && c.R < 110 && c.B < 110 },
		func(c color.RGBA) bool { return c.B > 150 && c.R < 110 && c.G < 110 },
	}
	l := st.Layout
	for i, ok := range checks {
		c := st.Image.RGBAAt(l.Margin+l.PhotoWidth/2, l.CellY(i)+l.PhotoHeight/2)
		if !ok(c) {
			t.Errorf("cell %d = %v", i, c)
		}
	}

	path := filepath.Join(t.TempDir(), "photo-booth.jpg")
	if _, err := h.s.Download(path); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("strip not written: %v", err)
	}
	if h.s.Snapshot().Phase != Reviewing {
		t.Errorf("download left review")
	}
	// download stays available
	if _, err := h.s.Download(path); err != nil {
		t.Errorf("second Download: %v", err)
	}
}

func TestCaptureQuota(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if err := h.s.Shoot(ctx); !errors.Is(err, ErrCaptureRejected) {
		t.Fatalf("Shoot before start: %v", err)
	}
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	shootThree(t, h)

	for i := 0; i < 3; i++ {
		if err := h.s.Shoot(ctx); !errors.Is(err, ErrCaptureRejected) {
			t.Errorf("extra Shoot: err = %v", err)
		}
	}
	if n := len(h.s.Photos()); n != 3 {
		t.Errorf("photos = %d, want 3", n)
	}

	strips := 0
	for _, e := range h.drain() {
		if e.Type == EventStrip {
			strips++
		}
	}
	if strips != 1 {
		t.Errorf("composed %d times, want once", strips)
	}
}

func TestShootWhileCountingDown(t *testing.T) {
	h := newHarness(t, never)
	ctx := context.Background()
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- h.s.Shoot(ctx) }()
	waitPhase(t, h.s, CountingDown)

	if err := h.s.Shoot(ctx); !errors.Is(err, ErrCaptureRejected) {
		t.Errorf("second Shoot = %v, want ErrCaptureRejected", err)
	}
	if err := h.s.ToggleFacing(ctx); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("ToggleFacing mid countdown = %v", err)
	}
	if err := h.s.Reset(ctx); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Reset mid countdown = %v", err)
	}
	if got := h.s.Snapshot().Label; got != "3" {
		t.Errorf("label = %q", got)
	}

	// teardown stops the pending ticks and frees the camera
	h.s.Close()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Shoot after close = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("countdown not cancelled by Close")
	}
	if h.driver.Active() != 0 {
		t.Errorf("camera feeds still open: %d", h.driver.Active())
	}
	if len(h.s.Photos()) != 0 {
		t.Error("photo captured after close")
	}
}

func TestToggleFacing(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := h.s.ToggleFacing(ctx); err != nil {
			t.Fatalf("ToggleFacing: %v", err)
		}
		if h.driver.Active() != 1 {
			t.Fatalf("active feeds = %d", h.driver.Active())
		}
	}
	if h.driver.MaxActive() != 1 {
		t.Errorf("max simultaneous feeds = %d", h.driver.MaxActive())
	}
	want := []camera.Facing{camera.FacingFront, camera.FacingRear, camera.FacingFront, camera.FacingRear}
	if got := h.driver.Requests(); !reflect.DeepEqual(got, want) {
		t.Errorf("requests = %v", got)
	}
	if got := h.s.Snapshot(); got.Facing != camera.FacingRear || got.Phase != Live {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestResetFromReviewing(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.s.ToggleFacing(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.s.SetFilter("noir"); err != nil {
		t.Fatal(err)
	}
	shootThree(t, h)
	waitPhase(t, h.s, Reviewing)

	if err := h.s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got := h.s.Snapshot()
	if got.Phase != Live || got.Count != 0 {
		t.Errorf("after reset: %+v", got)
	}
	if got.Facing != camera.FacingRear || got.Filter != "noir" {
		t.Errorf("reset lost selections: facing %s filter %s", got.Facing, got.Filter)
	}
	if h.s.Strip() != nil {
		t.Error("strip kept after reset")
	}
	if _, err := h.s.Download(""); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Download after reset = %v", err)
	}
	if h.driver.Active() != 1 {
		t.Errorf("active feeds = %d", h.driver.Active())
	}

	// a new round composes again
	shootThree(t, h)
	waitPhase(t, h.s, Reviewing)
}

func TestStartDeviceUnavailable(t *testing.T) {
	h := newHarness(t, nil)
	denied := errors.New("NotAllowedError")
	h.driver.Fail(denied)

	err := h.s.Start(context.Background())
	if !errors.Is(err, camera.ErrDeviceUnavailable) {
		t.Fatalf("Start = %v", err)
	}
	snap := h.s.Snapshot()
	if snap.Phase != Idle || snap.Status() != camera.PromptMessage {
		t.Errorf("snapshot = %+v", snap)
	}
	prompted := false
	for _, e := range h.drain() {
		if e.Type == EventPrompt && e.Text == camera.PromptMessage {
			prompted = true
		}
	}
	if !prompted {
		t.Error("no prompt event")
	}
	if err := h.s.Shoot(context.Background()); !errors.Is(err, ErrCaptureRejected) {
		t.Errorf("Shoot without camera = %v", err)
	}

	// the user may try the other camera from the degraded state
	h.driver.Fail(nil)
	if err := h.s.ToggleFacing(context.Background()); err != nil {
		t.Fatalf("ToggleFacing from idle: %v", err)
	}
	if h.s.Snapshot().Phase != Live {
		t.Errorf("phase = %s", h.s.Snapshot().Phase)
	}
}

func TestSetFilter(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.SetFilter("polaroid"); err == nil {
		t.Error("expected unknown filter error")
	}
	if err := h.s.SetFilter("moon"); err != nil {
		t.Fatal(err)
	}
	if got := h.s.Snapshot().Filter; got != "moon" {
		t.Errorf("filter = %q", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.s.Close()
	h.s.Close()
	if h.driver.Active() != 0 {
		t.Errorf("active feeds = %d", h.driver.Active())
	}
	if err := h.s.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after close = %v", err)
	}
	if _, err := h.s.WaitStrip(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("WaitStrip after close = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	s, err := FromConfig(cfg, camera.NewStillDriver(camera.TestPattern(32, 24)), camera.FacingRear, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer s.Close()
	snap := s.Snapshot()
	if snap.Filter != config.DefaultFilter || snap.Facing != camera.FacingRear || snap.ID == "" {
		t.Errorf("snapshot = %+v", snap)
	}

	cfg.Strip.Layout = "panorama"
	if _, err := FromConfig(cfg, camera.NewStillDriver(camera.TestPattern(32, 24)), camera.FacingFront, nil); err == nil {
		t.Error("expected invalid config error")
	}
}

func TestPreview(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if _, err := h.s.Preview(ctx, 16); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Preview before start = %v", err)
	}
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	img, err := h.s.Preview(ctx, 16)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(16, 12) {
		t.Errorf("preview size = %v", got)
	}
}

func TestCloseWhileComposing(t *testing.T) {
	h := newHarness(t, nil)
	h.s.opts.After = never
	ctx := context.Background()
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := h.s.Shoot(ctx); err != nil {
			t.Fatalf("Shoot #%d: %v", i+1, err)
		}
	}
	waitPhase(t, h.s, Composing)

	h.s.Close()
	st, err := h.s.WaitStrip(ctx)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("WaitStrip after close = %v, want ErrClosed", err)
	}
	if st != nil {
		t.Error("strip returned after close")
	}
	if h.driver.Active() != 0 {
		t.Errorf("active feeds = %d", h.driver.Active())
	}
}

func TestResetCancelsWaitStrip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if err := h.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	errc := make(chan error, 1)
	go func() {
		_, err := h.s.WaitStrip(ctx)
		errc <- err
	}()
	// let the waiter pick up the current round
	time.Sleep(50 * time.Millisecond)
	if err := h.s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WaitStrip after reset = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitStrip not released by reset")
	}
}
