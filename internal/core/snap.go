package core

import (
	"fmt"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/progress"
	"github.com/1F47E/go-photobooth/internal/session"
)

// Snap runs a whole session without the TUI: three countdowns, three
// captures, the strip saved to out.
func (c *Core) Snap(facing camera.Facing, out string) (string, error) {
	log := logger.Log.WithField("scope", "core snap")

	events := make(chan session.Event, 32)
	s, err := c.newSession(facing, events)
	if err != nil {
		return "", err
	}
	defer s.Close()
	log = log.WithField("session", s.ID())

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case e := <-events:
				switch e.Type {
				case session.EventCountdown:
					if e.Text != "" {
						log.Info(e.Text)
					}
				case session.EventPrompt:
					log.Warn(e.Text)
				}
			}
		}
	}()

	if err := s.Start(c.ctx); err != nil {
		return "", err
	}
	for i := 0; i < config.StripPhotos; i++ {
		log.Info(s.Snapshot().Status())
		if err := s.Shoot(c.ctx); err != nil {
			return "", fmt.Errorf("photo %d: %w", i+1, err)
		}
	}

	bar := progress.Spinner(c.out, s.Snapshot().Status())
	st, err := s.WaitStrip(c.ctx)
	bar.Finish()
	if err != nil {
		return "", err
	}
	if len(st.Failed) > 0 {
		log.Warnf("cells left blank: %v", st.Failed)
	}
	if out == "" {
		out = c.cfg.Strip.Output
	}
	return s.Download(out)
}
