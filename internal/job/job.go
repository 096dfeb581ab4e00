package job

import (
	"fmt"
	"image"

	"github.com/1F47E/go-photobooth/internal/photo"
)

// job for the decoding worker
type JobDec struct {
	Photo photo.Photo
	Idx   int
}

// res from the decoding worker
type JobDecRes struct {
	Idx   int
	Image image.Image
	Err   error
}

func (j JobDec) Print() string {
	return fmt.Sprintf("Job: Idx: %d, %s", j.Idx, j.Photo.Print())
}

func (r JobDecRes) Print() string {
	if r.Err != nil {
		return fmt.Sprintf("Res: Idx: %d, failed: %v", r.Idx, r.Err)
	}
	return fmt.Sprintf("Res: Idx: %d, decoded %v", r.Idx, r.Image.Bounds().Size())
}
