package tui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/filter"
	"github.com/1F47E/go-photobooth/internal/prefs"
	"github.com/1F47E/go-photobooth/internal/session"
)

func newTestBooth(t *testing.T) (*Booth, *prefs.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Countdown.Step = time.Millisecond
	cfg.Session.ComposeDelay = 0

	events := make(chan session.Event, 64)
	s, err := session.FromConfig(cfg, camera.NewStillDriver(camera.TestPattern(64, 48)), camera.FacingFront, events)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)

	store := prefs.NewMemoryStore()
	themes := prefs.NewThemeManager(store)
	if _, err := themes.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return NewBooth(context.Background(), s, themes, events, ""), store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoothShoot(t *testing.T) {
	b, _ := newTestBooth(t)
	if err := b.session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, cmd := b.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd == nil {
		t.Fatal("space returned no command")
	}
	msg, ok := cmd().(opMsg)
	if !ok || msg.err != nil {
		t.Fatalf("shoot = %+v", msg)
	}
	if n := len(b.session.Photos()); n != 1 {
		t.Errorf("photos = %d", n)
	}
	b.Update(eventMsg(session.Event{Type: session.EventCaptured, Snapshot: b.session.Snapshot()}))
	if view := b.View(); !strings.Contains(view, "2 more to go!") || !strings.Contains(view, "1/3") {
		t.Errorf("view after one shot:\n%s", view)
	}
}

func TestBoothFilterKeys(t *testing.T) {
	b, _ := newTestBooth(t)
	start := b.snap.Filter

	b.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got, want := b.session.Snapshot().Filter, filter.Next(start); got != want {
		t.Errorf("right: filter = %q, want %q", got, want)
	}
	b.Update(tea.KeyMsg{Type: tea.KeyLeft})
	b.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got, want := b.session.Snapshot().Filter, filter.Prev(start); got != want {
		t.Errorf("left: filter = %q, want %q", got, want)
	}
}

func TestBoothThemeCycle(t *testing.T) {
	b, store := newTestBooth(t)
	b.Update(runes("t"))

	if got := b.themes.Theme(); got != "synthwave" {
		t.Errorf("theme = %q, want synthwave", got)
	}
	v, ok, err := store.Get(context.Background(), prefs.ThemeKey)
	if err != nil || !ok || v != "synthwave" {
		t.Errorf("stored theme = %q, %t, %v", v, ok, err)
	}
	if !strings.Contains(b.View(), "theme synthwave") {
		t.Error("view does not show the new theme")
	}
}

func TestBoothPrompt(t *testing.T) {
	b, _ := newTestBooth(t)
	_, cmd := b.Update(eventMsg(session.Event{Type: session.EventPrompt, Text: camera.PromptMessage, Snapshot: b.session.Snapshot()}))
	if cmd == nil {
		t.Error("event handling did not resubscribe")
	}
	if !strings.Contains(b.View(), camera.PromptMessage) {
		t.Errorf("prompt missing:\n%s", b.View())
	}
}

func TestBoothOpErrors(t *testing.T) {
	b, _ := newTestBooth(t)
	b.Update(opMsg{op: "shoot", err: session.ErrCaptureRejected})
	if b.notice != "" {
		t.Errorf("rejected shot produced notice %q", b.notice)
	}
	b.Update(opMsg{op: "download", err: errors.New("disk full")})
	if !strings.Contains(b.notice, "disk full") {
		t.Errorf("notice = %q", b.notice)
	}
	b.Update(opMsg{op: "download", text: "Saved photo-booth.jpg"})
	if b.notice != "Saved photo-booth.jpg" {
		t.Errorf("notice = %q", b.notice)
	}
}

func TestBoothQuitClosesSession(t *testing.T) {
	b, _ := newTestBooth(t)
	_, cmd := b.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if err := b.session.Start(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("session still open: %v", err)
	}
	if b.View() != "" {
		t.Error("view drawn after quit")
	}
}

func TestRenderPreview(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	out := renderPreview(img)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for i, l := range lines {
		if n := strings.Count(l, "▀"); n != 4 {
			t.Errorf("line %d has %d cells", i, n)
		}
	}
}

func TestPalettes(t *testing.T) {
	for _, name := range prefs.Themes {
		if _, ok := palettes[name]; !ok {
			t.Errorf("no palette for theme %s", name)
		}
	}
	if paletteFor("solarized") != palettes[prefs.DefaultTheme] {
		t.Error("unknown theme did not fall back to default")
	}
}
