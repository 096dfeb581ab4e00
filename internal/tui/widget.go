package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/filter"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/prefs"
	"github.com/1F47E/go-photobooth/internal/session"
)

const (
	padding      = 2
	maxWidth     = 60
	previewWidth = 48
	previewEvery = 150 * time.Millisecond
	helpLine     = "space shoot • ←/→ filter • c camera • t theme • r re-shoot • d download • q quit"
)

// Booth is the interactive booth screen. Blocking session calls run as
// commands so the UI keeps drawing while a countdown is on.
type Booth struct {
	ctx     context.Context
	session *session.Session
	themes  *prefs.ThemeManager
	events  <-chan session.Event
	out     string

	snap     session.Snapshot
	styles   styles
	spinner  spinner.Model
	progress progress.Model
	preview  string
	notice   string
	quitting bool
}

func NewBooth(ctx context.Context, s *session.Session, themes *prefs.ThemeManager, events <-chan session.Event, out string) *Booth {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	p := paletteFor(themes.Theme())
	sp.Style = lipgloss.NewStyle().Foreground(p.Accent)

	if out == "" {
		out = config.PathStripOut
	}
	return &Booth{
		ctx:      ctx,
		session:  s,
		themes:   themes,
		events:   events,
		out:      out,
		snap:     s.Snapshot(),
		styles:   newStyles(p),
		spinner:  sp,
		progress: progress.New(progress.WithGradient(string(p.Primary), string(p.Secondary)), progress.WithoutPercentage()),
	}
}

func (b *Booth) Init() tea.Cmd {
	return tea.Batch(
		b.spinner.Tick,
		b.waitEvent(),
		b.run("start", func() (string, error) { return "", b.session.Start(b.ctx) }),
		previewTick(),
	)
}

func (b *Booth) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b, b.key(msg.String())

	case tea.WindowSizeMsg:
		b.progress.Width = msg.Width - padding*2 - 4
		if b.progress.Width > maxWidth {
			b.progress.Width = maxWidth
		}
		return b, nil

	case eventMsg:
		b.snap = msg.Snapshot
		switch msg.Type {
		case session.EventPrompt:
			b.notice = msg.Text
		case session.EventError:
			b.notice = fmt.Sprintf("Error: %v", msg.Err)
		case session.EventStrip:
			b.notice = "Your strip is ready! Press d to download."
			if len(msg.Snapshot.Failed) > 0 {
				b.notice = fmt.Sprintf("Strip ready, %d photo(s) could not be decoded. Press d to download.", len(msg.Snapshot.Failed))
			}
		case session.EventCaptured:
			b.notice = ""
		}
		return b, b.waitEvent()

	case opMsg:
		switch {
		case msg.err == nil && msg.text != "":
			b.notice = msg.text
		case msg.err == nil:
		case errors.Is(msg.err, session.ErrCaptureRejected), errors.Is(msg.err, context.Canceled):
			// shutter pressed while busy
		default:
			logger.Log.WithField("scope", "tui").Warnf("%s: %v", msg.op, msg.err)
			b.notice = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		}
		return b, nil

	case previewTickMsg:
		return b, b.grabPreview()

	case previewMsg:
		if msg.err == nil {
			b.preview = renderPreview(msg.img)
		} else if b.snap.Phase != session.Live && b.snap.Phase != session.CountingDown {
			b.preview = ""
		}
		return b, previewTick()

	case progress.FrameMsg:
		m, cmd := b.progress.Update(msg)
		b.progress = m.(progress.Model)
		return b, cmd

	default:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	}
}

func (b *Booth) key(k string) tea.Cmd {
	switch k {
	case "q", "ctrl+c", "esc":
		b.quitting = true
		b.session.Close()
		return tea.Quit
	case " ", "space", "enter":
		return b.run("shoot", func() (string, error) { return "", b.session.Shoot(b.ctx) })
	case "left", "h":
		b.setFilter(filter.Prev(b.snap.Filter))
	case "right", "l":
		b.setFilter(filter.Next(b.snap.Filter))
	case "c":
		return b.run("switch camera", func() (string, error) { return "", b.session.ToggleFacing(b.ctx) })
	case "t":
		name, err := b.themes.Cycle(b.ctx)
		if err != nil {
			b.notice = fmt.Sprintf("theme not saved: %v", err)
		}
		b.applyTheme(name)
	case "r":
		b.preview = ""
		return b.run("re-shoot", func() (string, error) { return "", b.session.Reset(b.ctx) })
	case "d":
		return b.run("download", func() (string, error) {
			path, err := b.session.Download(b.out)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Saved %s", path), nil
		})
	}
	return nil
}

func (b *Booth) setFilter(name string) {
	if err := b.session.SetFilter(name); err != nil {
		b.notice = err.Error()
		return
	}
	b.snap = b.session.Snapshot()
}

func (b *Booth) applyTheme(name string) {
	p := paletteFor(name)
	b.styles = newStyles(p)
	b.spinner.Style = lipgloss.NewStyle().Foreground(p.Accent)
	b.progress = progress.New(progress.WithGradient(string(p.Primary), string(p.Secondary)), progress.WithoutPercentage())
}

func (b *Booth) run(op string, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		return opMsg{op: op, text: text, err: err}
	}
}

func (b *Booth) waitEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.ctx.Done():
			return nil
		case e, ok := <-b.events:
			if !ok {
				return nil
			}
			return eventMsg(e)
		}
	}
}

func (b *Booth) grabPreview() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(b.ctx, time.Second)
		defer cancel()
		img, err := b.session.Preview(ctx, previewWidth)
		return previewMsg{img: img, err: err}
	}
}

func previewTick() tea.Cmd {
	return tea.Tick(previewEvery, func(time.Time) tea.Msg {
		return previewTickMsg{}
	})
}

func (b *Booth) View() string {
	if b.quitting {
		return ""
	}
	st := b.styles
	pad := strings.Repeat(" ", padding)
	var sb strings.Builder

	sb.WriteString("\n" + pad + st.title.Render("📸 Photobooth"))
	sb.WriteString(st.help.Render(fmt.Sprintf("  %s camera • theme %s", b.snap.Facing, b.themes.Theme())) + "\n\n")

	if b.preview != "" {
		sb.WriteString(indent(st.preview.Render(b.preview), pad) + "\n")
	}

	switch b.snap.Phase {
	case session.Acquiring:
		sb.WriteString(pad + b.spinner.View() + " Opening camera...\n")
	case session.Composing:
		sb.WriteString(pad + b.spinner.View() + " " + st.status.Render(b.snap.Status()) + "\n")
	default:
		if b.snap.Label != "" {
			sb.WriteString(pad + st.label.Render(b.snap.Label) + "\n")
		}
		sb.WriteString(pad + st.status.Render(b.snap.Status()) + "\n")
	}

	sb.WriteString("\n" + pad + st.badge.Render(fmt.Sprintf("%d/%d", b.snap.Count, b.snap.Max)) + " ")
	sb.WriteString(b.progress.ViewAs(float64(b.snap.Count)/float64(max(b.snap.Max, 1))) + "\n\n")

	sb.WriteString(pad + b.filterBar() + "\n")
	if b.notice != "" {
		sb.WriteString("\n" + pad + st.notice.Render(b.notice) + "\n")
	}
	sb.WriteString("\n" + pad + st.help.Render(helpLine) + "\n")
	return sb.String()
}

func (b *Booth) filterBar() string {
	var parts []string
	for _, f := range filter.Catalog() {
		if f.Name == b.snap.Filter {
			parts = append(parts, b.styles.active.Render(f.Label))
			continue
		}
		parts = append(parts, b.styles.filter.Render(f.Label))
	}
	return strings.Join(parts, " ")
}

func indent(s, pad string) string {
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
