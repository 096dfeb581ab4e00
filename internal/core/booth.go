package core

import (
	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/prefs"
	"github.com/1F47E/go-photobooth/internal/session"
	"github.com/1F47E/go-photobooth/internal/tui"
)

// Booth runs the interactive booth until the user quits.
func (c *Core) Booth(facing camera.Facing, out string) error {
	store, err := prefs.OpenSQLite(c.cfg.Prefs.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	themes := prefs.NewThemeManager(store)
	if _, err := themes.Load(c.ctx); err != nil {
		logger.Log.WithField("scope", "core booth").Warnf("theme not loaded: %v", err)
	}

	events := make(chan session.Event, 64)
	s, err := c.newSession(facing, events)
	if err != nil {
		return err
	}
	if out == "" {
		out = c.cfg.Strip.Output
	}
	return tui.Run(c.ctx, tui.NewBooth(c.ctx, s, themes, events, out), config.PathLogFile)
}

// Theme prints the stored theme when name is empty, or stores name.
func (c *Core) Theme(name string) (string, error) {
	store, err := prefs.OpenSQLite(c.cfg.Prefs.Path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	themes := prefs.NewThemeManager(store)
	if name == "" {
		return themes.Load(c.ctx)
	}
	if err := themes.Set(c.ctx, name); err != nil {
		return "", err
	}
	return name, nil
}
