// Package camera acquires live frames from a local camera.
//
// An Adapter holds at most one open Source. Acquiring a new facing always
// releases the previous source first so two camera locks are never held.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
)

var ErrDeviceUnavailable = errors.New("camera unavailable")

// PromptMessage is shown to the user when the camera cannot be opened.
const PromptMessage = "📸 Please allow camera permission to use the PhotoBooth."

type Facing string

const (
	FacingFront Facing = "front"
	FacingRear  Facing = "rear"
)

// Constraint is the facing mode value a media request carries.
func (f Facing) Constraint() string {
	if f == FacingRear {
		return "environment"
	}
	return "user"
}

func (f Facing) Toggle() Facing {
	if f == FacingFront {
		return FacingRear
	}
	return FacingFront
}

func ParseFacing(s string) (Facing, error) {
	switch Facing(s) {
	case FacingFront, FacingRear:
		return Facing(s), nil
	}
	return "", fmt.Errorf("unknown facing %q", s)
}

// Request describes the feed to open. Audio is never requested.
type Request struct {
	Facing Facing
	Width  int
	Height int
}

// Source is a live frame source.
type Source interface {
	Frame(ctx context.Context) (image.Image, error)
	Bounds() image.Rectangle
	Close() error
}

type Driver interface {
	Open(ctx context.Context, req Request) (Source, error)
}

type Factory func(cfg config.Camera) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Factory{}
)

// Register makes a driver available by name to NewDriver.
func Register(name string, f Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = f
}

func NewDriver(cfg config.Camera) (Driver, error) {
	driversMu.RLock()
	f, ok := drivers[cfg.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown camera driver %q (have %v)", cfg.Driver, Drivers())
	}
	return f(cfg)
}

func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type Adapter struct {
	mu      sync.Mutex
	driver  Driver
	src     Source
	facing  Facing
	width   int
	height  int
	timeout time.Duration
}

func NewAdapter(driver Driver, cfg config.Camera) *Adapter {
	timeout := cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = config.CameraAcquireTimeout
	}
	return &Adapter{
		driver:  driver,
		width:   cfg.Width,
		height:  cfg.Height,
		timeout: timeout,
	}
}

// Acquire releases any held source and opens a feed for facing.
// Failures wrap ErrDeviceUnavailable and leave the adapter without a source.
func (a *Adapter) Acquire(ctx context.Context, facing Facing) (Source, error) {
	log := logger.Log.WithField("scope", "camera")
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	log.Debugf("acquiring %s camera (%s)", facing, facing.Constraint())
	src, err := a.driver.Open(ctx, Request{Facing: facing, Width: a.width, Height: a.height})
	if err != nil {
		log.Warnf("camera acquire failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	a.src = src
	a.facing = facing
	log.Debugf("camera acquired, bounds %v", src.Bounds())
	return src, nil
}

// Release stops the held source. Safe to call any number of times.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

func (a *Adapter) releaseLocked() {
	if a.src == nil {
		return
	}
	if err := a.src.Close(); err != nil {
		logger.Log.WithField("scope", "camera").Warnf("camera release: %v", err)
	}
	a.src = nil
}

// Source returns the held source, nil when none is open.
func (a *Adapter) Source() Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.src
}

func (a *Adapter) Active() bool {
	return a.Source() != nil
}

func (a *Adapter) Facing() Facing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.facing
}
