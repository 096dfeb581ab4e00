package photo

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"time"

	// stills may also come from png files on the compose command
	_ "image/png"
)

// Photo is one encoded still taken by the booth.
type Photo struct {
	Data       []byte
	CapturedAt time.Time
	checksum   uint64
}

func New(data []byte, capturedAt time.Time) Photo {
	return Photo{
		Data:       data,
		CapturedAt: capturedAt,
		checksum:   generateChecksum(data),
	}
}

// Encode jpeg-encodes img and wraps it as a Photo.
func Encode(img image.Image, quality int, capturedAt time.Time) (Photo, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Photo{}, fmt.Errorf("encode still: %w", err)
	}
	return New(buf.Bytes(), capturedAt), nil
}

// Decode rasterises the still payload.
func (p Photo) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (p Photo) Checksum() uint64 {
	return p.checksum
}

// Validate reports whether the payload still matches the checksum taken at capture.
func (p Photo) Validate() bool {
	return generateChecksum(p.Data) == p.checksum
}

func (p Photo) IsOk() bool {
	return len(p.Data) > 0 && !p.CapturedAt.IsZero()
}

func (p Photo) Print() string {
	return fmt.Sprintf("Photo: %d bytes, checksum %016x, captured %s", len(p.Data), p.checksum, p.FormatDatetime())
}

func (p Photo) FormatDatetime() string {
	return p.CapturedAt.Local().Format(time.RFC822)
}

func generateChecksum(data []byte) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write(data)
	return hasher.Sum64()
}
