// Package strip composes three stills into a vertical photo strip.
package strip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/fogleman/gg"

	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/job"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/photo"
	"github.com/1F47E/go-photobooth/internal/storage"
	"github.com/1F47E/go-photobooth/internal/workers"
)

var (
	ErrNeedThreePhotos = errors.New("strip needs exactly three photos")
	ErrDecodeFailure   = errors.New("still failed to decode")
)

// Strip is a finished composite.
type Strip struct {
	Image   *image.RGBA
	Layout  Layout
	Caption string
	// Failed lists the cells left blank because their still did not decode.
	Failed []int
}

type Composer struct {
	Layout Layout
	// OnSettled is called from the composing goroutine after each still has
	// been drawn or given up on.
	OnSettled func(res job.JobDecRes)
}

func NewComposer(l Layout) *Composer {
	return &Composer{Layout: l}
}

// Compose decodes the stills concurrently and draws each as its decode
// settles. Decodes finish in any order; drawing happens on the calling
// goroutine only. The caption is drawn once every still has settled, failed
// ones included.
func (c *Composer) Compose(ctx context.Context, photos []photo.Photo, date time.Time) (*Strip, error) {
	log := logger.Log.WithField("scope", "strip compose")
	if len(photos) != config.StripPhotos {
		return nil, fmt.Errorf("%w: got %d", ErrNeedThreePhotos, len(photos))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := c.Layout
	dc := gg.NewContext(l.StripWidth, l.Height())
	paintBackground(dc, l)

	total := len(photos)
	jobs := make(chan job.JobDec, total)
	res := make(chan job.JobDecRes, total)
	w := workers.NewWorker(ctx)
	n := runtime.NumCPU()
	if n > total {
		n = total
	}
	log.Debugf("Starting %d decode workers", n)
	for i := 0; i < n; i++ {
		go w.WorkerDecode(i+1, jobs, res)
	}
	for i, p := range photos {
		jobs <- job.JobDec{Photo: p, Idx: i}
	}
	close(jobs)

	strip := &Strip{Layout: l, Caption: Caption(date)}
	settled := 0
	for settled < total {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-res:
			settled++
			if r.Err != nil {
				r.Err = fmt.Errorf("%w: cell %d: %w", ErrDecodeFailure, r.Idx, r.Err)
				log.Warnf("leaving cell %d blank: %v", r.Idx, r.Err)
				strip.Failed = append(strip.Failed, r.Idx)
			} else {
				paintCell(dc, l, r.Idx, r.Image)
				log.Debugf("cell %d drawn (%d/%d)", r.Idx, settled, total)
			}
			if c.OnSettled != nil {
				c.OnSettled(r)
			}
		}
	}

	sort.Ints(strip.Failed)
	paintCaption(dc, l, strip.Caption)
	strip.Image = dc.Image().(*image.RGBA)
	return strip, nil
}

func (s *Strip) Encode(w io.Writer, quality int) error {
	if quality <= 0 {
		quality = config.JPEGQuality
	}
	if err := jpeg.Encode(w, s.Image, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode strip: %w", err)
	}
	return nil
}

func (s *Strip) Bytes(quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the strip as a jpeg file, photo-booth.jpg when path is empty.
func (s *Strip) Save(path string, quality int) error {
	if path == "" {
		path = config.PathStripOut
	}
	return storage.Save(path, func(w io.Writer) error {
		return s.Encode(w, quality)
	})
}
