package strip

import (
	"fmt"

	"github.com/1F47E/go-photobooth/internal/config"
)

// Layout fixes the strip geometry. Photos are stacked top to bottom, each in a
// PhotoWidth x PhotoHeight cell, with the caption in the footer band below the
// last cell.
type Layout struct {
	Name         string
	StripWidth   int
	PhotoWidth   int
	PhotoHeight  int
	Margin       int
	Spacing      int
	FooterHeight int
}

var (
	// Classic is the narrow 3:5 strip.
	Classic = Layout{
		Name:         config.LayoutClassic,
		StripWidth:   270,
		PhotoWidth:   230,
		PhotoHeight:  300,
		Margin:       20,
		Spacing:      20,
		FooterHeight: 30,
	}
	Large = Layout{
		Name:         config.LayoutLarge,
		StripWidth:   400,
		PhotoWidth:   360,
		PhotoHeight:  270,
		Margin:       20,
		Spacing:      20,
		FooterHeight: 40,
	}
)

func LayoutByName(name string) (Layout, error) {
	switch name {
	case Classic.Name:
		return Classic, nil
	case Large.Name:
		return Large, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q", name)
}

func (l Layout) Height() int {
	return 2*l.Margin + config.StripPhotos*l.PhotoHeight + (config.StripPhotos-1)*l.Spacing + l.FooterHeight
}

// CellY is the top of the i-th photo cell.
func (l Layout) CellY(i int) int {
	return l.Margin + i*(l.PhotoHeight+l.Spacing)
}

// CaptionY is the caption baseline.
func (l Layout) CaptionY() int {
	return l.Height() - 20
}
