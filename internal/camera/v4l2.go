//go:build linux

package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"

	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
)

func init() {
	Register("v4l2", func(cfg config.Camera) (Driver, error) {
		return &V4L2Driver{front: cfg.FrontDevice, rear: cfg.RearDevice}, nil
	})
}

// V4L2Driver streams MJPEG straight from a video4linux device.
type V4L2Driver struct {
	front string
	rear  string
}

func (d *V4L2Driver) Open(ctx context.Context, req Request) (Source, error) {
	path := d.front
	if req.Facing == FacingRear {
		path = d.rear
	}
	pix := v4l2.PixFormat{PixelFormat: v4l2.PixelFmtMJPEG, Field: v4l2.FieldNone}
	if req.Width > 0 && req.Height > 0 {
		pix.Width, pix.Height = uint32(req.Width), uint32(req.Height)
	}
	dev, err := device.Open(path, device.WithPixFormat(pix))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	if err := dev.Start(streamCtx); err != nil {
		cancel()
		_ = dev.Close()
		return nil, fmt.Errorf("start stream %s: %w", path, err)
	}

	src := &v4l2Source{
		path:   path,
		dev:    dev,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go src.pump()

	img, err := src.Frame(ctx)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	src.bounds = img.Bounds()
	return src, nil
}

// v4l2Source keeps the newest frame the stream delivered.
type v4l2Source struct {
	path   string
	dev    *device.Device
	cancel context.CancelFunc
	bounds image.Rectangle

	mu    sync.Mutex
	last  []byte
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func (s *v4l2Source) pump() {
	defer close(s.done)
	first := true
	for frame := range s.dev.GetOutput() {
		if len(frame) == 0 {
			continue
		}
		buf := make([]byte, len(frame))
		copy(buf, frame)
		s.mu.Lock()
		s.last = buf
		s.mu.Unlock()
		if first {
			close(s.ready)
			first = false
		}
	}
	logger.Log.WithField("scope", "camera").Debugf("v4l2 stream %s ended", s.path)
}

func (s *v4l2Source) Frame(ctx context.Context) (image.Image, error) {
	select {
	case <-s.done:
		return nil, errors.New("v4l2 stream closed")
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errors.New("v4l2 stream closed")
	case <-s.ready:
	}
	s.mu.Lock()
	data := s.last
	s.mu.Unlock()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode v4l2 frame: %w", err)
	}
	return img, nil
}

func (s *v4l2Source) Bounds() image.Rectangle {
	return s.bounds
}

func (s *v4l2Source) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.dev.Close()
	})
	return err
}
