package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/1F47E/go-photobooth/internal/config"
)

func init() {
	Register("still", func(cfg config.Camera) (Driver, error) {
		if cfg.FrontDevice == "" {
			return NewStillDriver(TestPattern(cfg.Width, cfg.Height)), nil
		}
		img, err := loadImage(cfg.FrontDevice)
		if err != nil {
			return nil, err
		}
		return NewStillDriver(img), nil
	})
}

// StillDriver serves one fixed image as the live feed. It keeps count of the
// sources it hands out so callers can check that feeds are released.
type StillDriver struct {
	mu     sync.Mutex
	img    image.Image
	err    error
	opened int
	active int
	max    int
	log    []Facing
}

func NewStillDriver(img image.Image) *StillDriver {
	return &StillDriver{img: img}
}

// Fail makes every following Open return err; nil restores the driver.
func (d *StillDriver) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *StillDriver) Open(ctx context.Context, req Request) (Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	d.opened++
	d.active++
	if d.active > d.max {
		d.max = d.active
	}
	d.log = append(d.log, req.Facing)
	return &stillSource{driver: d, img: d.img}, nil
}

// Opened is the number of successful opens.
func (d *StillDriver) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Active is the number of sources not yet closed.
func (d *StillDriver) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// MaxActive is the highest number of simultaneously open sources seen.
func (d *StillDriver) MaxActive() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.max
}

// Requests lists the facings of every successful open, in order.
func (d *StillDriver) Requests() []Facing {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Facing, len(d.log))
	copy(out, d.log)
	return out
}

type stillSource struct {
	driver *StillDriver
	img    image.Image
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

func (s *stillSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("still source closed")
	}
	return s.img, ctx.Err()
}

func (s *stillSource) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *stillSource) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.driver.mu.Lock()
		s.driver.active--
		s.driver.mu.Unlock()
	})
	return nil
}

// TestPattern draws colour bars with a marker in the top left corner, which
// makes mirroring visible.
func TestPattern(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	bars := []color.RGBA{
		{255, 255, 255, 255}, {255, 255, 0, 255}, {0, 255, 255, 255}, {0, 255, 0, 255},
		{255, 0, 255, 255}, {255, 0, 0, 255}, {0, 0, 255, 255}, {0, 0, 0, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	barW := (width + len(bars) - 1) / len(bars)
	for i, c := range bars {
		r := image.Rect(i*barW, 0, (i+1)*barW, height)
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	marker := image.Rect(0, 0, width/10+1, height/10+1)
	draw.Draw(img, marker, image.NewUniform(color.RGBA{255, 128, 0, 255}), image.Point{}, draw.Src)
	return img
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open still %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode still %s: %w", path, err)
	}
	return img, nil
}
