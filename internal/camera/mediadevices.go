package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/prop"

	// registers the v4l2 / avfoundation camera drivers
	_ "github.com/pion/mediadevices/pkg/driver/camera"

	"github.com/1F47E/go-photobooth/internal/config"
)

func init() {
	Register("mediadevices", func(cfg config.Camera) (Driver, error) {
		return &MediaDriver{front: cfg.FrontDevice, rear: cfg.RearDevice}, nil
	})
}

var (
	frontHints = []string{"front", "user", "facetime", "integrated"}
	rearHints  = []string{"back", "rear", "environment"}
)

// MediaDriver opens cameras through pion/mediadevices. The facing is mapped
// to a device by configured id, then by label hints, then by enumeration order.
type MediaDriver struct {
	front string
	rear  string
}

func (d *MediaDriver) Open(ctx context.Context, req Request) (Source, error) {
	var videos []mediadevices.MediaDeviceInfo
	for _, dev := range mediadevices.EnumerateDevices() {
		if dev.Kind == mediadevices.VideoInput {
			videos = append(videos, dev)
		}
	}
	if len(videos) == 0 {
		return nil, errors.New("no video input devices")
	}
	dev, err := pickDevice(videos, req.Facing, d.front, d.rear)
	if err != nil {
		return nil, err
	}

	type result struct {
		stream mediadevices.MediaStream
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
			Video: func(c *mediadevices.MediaTrackConstraints) {
				c.DeviceID = prop.String(dev.DeviceID)
				if req.Width > 0 && req.Height > 0 {
					c.Width = prop.Int(req.Width)
					c.Height = prop.Int(req.Height)
				}
			},
		})
		done <- result{stream, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		// close whatever shows up late so the device is not left locked
		go func() {
			if r := <-done; r.err == nil {
				for _, t := range r.stream.GetTracks() {
					_ = t.Close()
				}
			}
		}()
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("get user media %s: %w", dev.Label, res.err)
	}

	tracks := res.stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, errors.New("no video tracks in stream")
	}
	track, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		_ = tracks[0].Close()
		return nil, fmt.Errorf("unexpected track type %T", tracks[0])
	}
	src := &mediaSource{track: track, reader: track.NewReader(false)}
	img, err := src.Frame(ctx)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	src.bounds = img.Bounds()
	return src, nil
}

func pickDevice(videos []mediadevices.MediaDeviceInfo, facing Facing, front, rear string) (mediadevices.MediaDeviceInfo, error) {
	want, hints, fallback := front, frontHints, 0
	if facing == FacingRear {
		want, hints, fallback = rear, rearHints, 1
	}
	if want != "" {
		for _, v := range videos {
			if v.DeviceID == want || strings.Contains(v.Label, want) {
				return v, nil
			}
		}
	}
	for _, v := range videos {
		label := strings.ToLower(v.Label)
		for _, h := range hints {
			if strings.Contains(label, h) {
				return v, nil
			}
		}
	}
	if fallback < len(videos) {
		return videos[fallback], nil
	}
	return mediadevices.MediaDeviceInfo{}, fmt.Errorf("no %s camera among %d devices", facing, len(videos))
}

type frameReader interface {
	Read() (image.Image, func(), error)
}

// mediaSource guards its state with mu and serialises reads with readMu, so a
// stalled camera never holds up Close.
type mediaSource struct {
	mu     sync.Mutex
	readMu sync.Mutex
	track  interface{ Close() error }
	reader frameReader
	bounds image.Rectangle
	closed bool
}

func (s *mediaSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("media source closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		s.readMu.Lock()
		defer s.readMu.Unlock()
		img, release, err := s.reader.Read()
		if err != nil {
			done <- result{err: fmt.Errorf("read frame: %w", err)}
			return
		}
		defer release()
		// the driver recycles the buffer on release
		out := image.NewRGBA(img.Bounds())
		draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
		done <- result{img: out}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.img, r.err
	}
}

func (s *mediaSource) Bounds() image.Rectangle {
	return s.bounds
}

func (s *mediaSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.track.Close()
}
