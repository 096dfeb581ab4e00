package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/1F47E/go-photobooth/internal/photo"
)

// Save writes whatever write produces to path through a temp file in the same
// directory, so a failed write never leaves a half strip behind.
func Save(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".photobooth-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ReadStills loads image files as stills, stamped with their modification time.
func ReadStills(paths []string) ([]photo.Photo, error) {
	out := make([]photo.Photo, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read still: %w", err)
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat still: %w", err)
		}
		out = append(out, photo.New(data, info.ModTime()))
	}
	return out, nil
}
