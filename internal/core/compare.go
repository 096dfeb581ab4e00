package core

import (
	"fmt"
	"time"
)

// Compare composes the same files twice and checks the strips match pixel
// for pixel and byte for byte once encoded.
func (c *Core) Compare(files []string) (bool, error) {
	date := c.now()
	now := c.now
	c.now = func() time.Time { return date }
	defer func() { c.now = now }()

	first, err := c.Compose(files, "")
	if err != nil {
		return false, err
	}
	second, err := c.Compose(files, "")
	if err != nil {
		return false, err
	}

	if first.Image.Bounds() != second.Image.Bounds() {
		return false, fmt.Errorf("strip sizes differ: %v vs %v", first.Image.Bounds(), second.Image.Bounds())
	}
	if _, err := compareBytes(first.Image.Pix, second.Image.Pix); err != nil {
		return false, fmt.Errorf("pixels: %w", err)
	}
	a, err := first.Bytes(c.cfg.Capture.Quality)
	if err != nil {
		return false, err
	}
	b, err := second.Bytes(c.cfg.Capture.Quality)
	if err != nil {
		return false, err
	}
	if _, err := compareBytes(a, b); err != nil {
		return false, fmt.Errorf("jpeg: %w", err)
	}
	return true, nil
}

func compareBytes(b1, b2 []byte) (bool, error) {
	if len(b1) != len(b2) {
		return false, fmt.Errorf("not the same size, %d vs %d", len(b1), len(b2))
	}
	for i := 0; i < len(b1); i++ {
		if b1[i] != b2[i] {
			return false, fmt.Errorf("not the same at position %d", i)
		}
	}
	return true, nil
}
