package tui

import (
	"image"

	"github.com/1F47E/go-photobooth/internal/session"
)

// eventMsg carries one session event into the bubbletea loop.
type eventMsg session.Event

// opMsg reports the end of a blocking session operation run off the UI loop.
type opMsg struct {
	op   string
	text string
	err  error
}

type previewTickMsg struct{}

type previewMsg struct {
	img *image.RGBA
	err error
}
