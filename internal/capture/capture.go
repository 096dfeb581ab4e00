package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/filter"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/photo"
)

// MirrorPolicy decides which facings are flipped about the vertical axis so
// the still matches the live preview.
type MirrorPolicy string

const (
	MirrorFrontOnly MirrorPolicy = config.MirrorFrontOnly
	MirrorAlways    MirrorPolicy = config.MirrorAlways
	MirrorNever     MirrorPolicy = config.MirrorNever
)

func ParseMirror(s string) (MirrorPolicy, error) {
	switch MirrorPolicy(s) {
	case MirrorFrontOnly, MirrorAlways, MirrorNever:
		return MirrorPolicy(s), nil
	}
	return "", fmt.Errorf("unknown mirror policy %q", s)
}

func (m MirrorPolicy) Mirrors(facing camera.Facing) bool {
	switch m {
	case MirrorAlways:
		return true
	case MirrorNever:
		return false
	default:
		return facing == camera.FacingFront
	}
}

type Capturer struct {
	Quality int
	Mirror  MirrorPolicy
	Now     func() time.Time
}

func New(cfg config.Capture) (*Capturer, error) {
	m, err := ParseMirror(cfg.Mirror)
	if err != nil {
		return nil, err
	}
	return &Capturer{Quality: cfg.Quality, Mirror: m, Now: time.Now}, nil
}

// Capture grabs the current frame of src and turns it into an encoded still.
func (c *Capturer) Capture(ctx context.Context, src camera.Source, f filter.Filter, facing camera.Facing) (photo.Photo, error) {
	log := logger.Log.WithField("scope", "capture")
	frame, err := src.Frame(ctx)
	if err != nil {
		return photo.Photo{}, fmt.Errorf("grab frame: %w", err)
	}

	now := time.Now()
	mirror := c.Mirror.Mirrors(facing)
	img := Render(frame, f, mirror)
	log.Debugf("Rendered %v frame (filter %s, mirror %t). Took time: %s", img.Bounds().Size(), f.Name, mirror, time.Since(now))

	clock := c.Now
	if clock == nil {
		clock = time.Now
	}
	quality := c.Quality
	if quality <= 0 {
		quality = config.JPEGQuality
	}
	p, err := photo.Encode(img, quality, clock())
	if err != nil {
		return photo.Photo{}, err
	}
	log.Debug(p.Print())
	return p, nil
}

// Render draws frame at its native size onto a fresh raster, flipped when
// mirror is set, and applies the filter.
func Render(frame image.Image, f filter.Filter, mirror bool) *image.RGBA {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	dc := gg.NewContext(w, h)
	if mirror {
		dc.Translate(float64(w), 0)
		dc.Scale(-1, 1)
	}
	dc.DrawImage(frame, -b.Min.X, -b.Min.Y)

	img := dc.Image().(*image.RGBA)
	f.Chain().Apply(img)
	return img
}

// Preview renders frame shrunk to width pixels across, filtered and mirrored
// like a capture would be. Scaling happens first so the filter runs on the
// small raster.
func (c *Capturer) Preview(frame image.Image, f filter.Filter, facing camera.Facing, width int) *image.RGBA {
	b := frame.Bounds()
	if width <= 0 || width >= b.Dx() {
		return Render(frame, f, c.Mirror.Mirrors(facing))
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	small := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), frame, b, xdraw.Src, nil)
	return Render(small, f, c.Mirror.Mirrors(facing))
}
