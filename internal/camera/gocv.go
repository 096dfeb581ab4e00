//go:build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/1F47E/go-photobooth/internal/config"
)

func init() {
	Register("gocv", func(cfg config.Camera) (Driver, error) {
		return &GocvDriver{front: cfg.FrontDevice, rear: cfg.RearDevice}, nil
	})
}

// GocvDriver reads frames through OpenCV. Built only with -tags gocv.
type GocvDriver struct {
	front string
	rear  string
}

func (d *GocvDriver) Open(ctx context.Context, req Request) (Source, error) {
	device := d.front
	if req.Facing == FacingRear {
		device = d.rear
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if req.Width > 0 && req.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(req.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(req.Height))
	}
	src := &gocvSource{vc: vc, mat: gocv.NewMat()}
	img, err := src.Frame(ctx)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	src.bounds = img.Bounds()
	return src, nil
}

type gocvSource struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	bounds image.Rectangle
	closed bool
}

func (s *gocvSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("gocv source closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, errors.New("gocv: empty frame")
	}
	return s.mat.ToImage()
}

func (s *gocvSource) Bounds() image.Rectangle {
	return s.bounds
}

func (s *gocvSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.mat.Close()
	return s.vc.Close()
}
