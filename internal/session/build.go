package session

import (
	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/capture"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/countdown"
	"github.com/1F47E/go-photobooth/internal/strip"
)

// FromConfig wires a session and its collaborators from cfg.
func FromConfig(cfg config.Config, driver camera.Driver, facing camera.Facing, events chan<- Event) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	capturer, err := capture.New(cfg.Capture)
	if err != nil {
		return nil, err
	}
	layout, err := strip.LayoutByName(cfg.Strip.Layout)
	if err != nil {
		return nil, err
	}
	return New(
		camera.NewAdapter(driver, cfg.Camera),
		countdown.New(cfg.Countdown.Steps, cfg.Countdown.Step),
		capturer,
		strip.NewComposer(layout),
		Options{
			MaxPhotos:    cfg.Session.MaxPhotos,
			ComposeDelay: cfg.Session.ComposeDelay,
			Filter:       cfg.Filter.Default,
			Facing:       facing,
			Quality:      cfg.Capture.Quality,
			Events:       events,
		},
	)
}
