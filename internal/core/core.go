// Package core wires the booth pieces into the flows the commands run.
package core

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/session"
)

type Core struct {
	ctx context.Context
	cfg config.Config
	// progress output of the headless flows
	out io.Writer
	now func() time.Time
	// newDriver is camera.NewDriver unless a test swaps it
	newDriver func(config.Camera) (camera.Driver, error)
}

func NewCore(ctx context.Context, cfg config.Config) *Core {
	return &Core{
		ctx:       ctx,
		cfg:       cfg,
		out:       os.Stderr,
		now:       time.Now,
		newDriver: camera.NewDriver,
	}
}

func (c *Core) Config() config.Config {
	return c.cfg
}

// newSession builds a session on the configured camera driver.
func (c *Core) newSession(facing camera.Facing, events chan<- session.Event) (*session.Session, error) {
	driver, err := c.newDriver(c.cfg.Camera)
	if err != nil {
		return nil, err
	}
	return session.FromConfig(c.cfg, driver, facing, events)
}
