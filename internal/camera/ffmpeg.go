package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strings"

	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/logger"
)

func init() {
	Register("ffmpeg", func(cfg config.Camera) (Driver, error) {
		return &FFmpegDriver{front: cfg.FrontDevice, rear: cfg.RearDevice}, nil
	})
}

// FFmpegDriver grabs single frames from a v4l2 device by calling ffmpeg.
// Slow, but needs nothing beyond the ffmpeg binary.
type FFmpegDriver struct {
	front string
	rear  string
}

func (d *FFmpegDriver) Open(ctx context.Context, req Request) (Source, error) {
	device := d.front
	if req.Facing == FacingRear {
		device = d.rear
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := os.Stat(device); err != nil {
		return nil, fmt.Errorf("no %s camera at %s: %w", req.Facing, device, err)
	}
	src := &ffmpegSource{device: device, width: req.Width, height: req.Height}
	// probe one frame so bounds are the native resolution
	img, err := src.Frame(ctx)
	if err != nil {
		return nil, err
	}
	src.bounds = img.Bounds()
	return src, nil
}

type ffmpegSource struct {
	device string
	width  int
	height int
	bounds image.Rectangle
}

func (s *ffmpegSource) Frame(ctx context.Context) (image.Image, error) {
	cmdStr := fmt.Sprintf("ffmpeg -loglevel error -f v4l2 -video_size %dx%d -i %s -frames:v 1 -f image2pipe -vcodec mjpeg -", s.width, s.height, s.device)
	if s.width <= 0 || s.height <= 0 {
		cmdStr = fmt.Sprintf("ffmpeg -loglevel error -f v4l2 -i %s -frames:v 1 -f image2pipe -vcodec mjpeg -", s.device)
	}
	cmdList := strings.Split(cmdStr, " ")
	logger.Log.Debugf("Running ffmpeg command: %s\n", cmdStr)
	cmd := exec.CommandContext(ctx, cmdList[0], cmdList[1:]...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg grab %s: %w: %s", s.device, err, strings.TrimSpace(stderr.String()))
	}
	img, err := jpeg.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg frame: %w", err)
	}
	return img, nil
}

func (s *ffmpegSource) Bounds() image.Rectangle {
	return s.bounds
}

// Close is a no-op, the device is only held while ffmpeg runs.
func (s *ffmpegSource) Close() error {
	return nil
}
