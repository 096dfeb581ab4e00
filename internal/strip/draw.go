package strip

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobolditalic"
)

const (
	captionSize   = 16
	captionFormat = "January 2, 2006"

	matPad       = 5
	shadowBlur   = 6
	shadowOffset = 2
	// rgba(0,0,0,0.08)
	shadowAlpha = 20
)

var (
	bgTop       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	bgBottom    = color.RGBA{0xf8, 0xf9, 0xfa, 0xff}
	stripBorder = color.RGBA{0xe2, 0xe8, 0xf0, 0xff}
	photoBorder = color.RGBA{0xce, 0xd4, 0xda, 0xff}
	captionInk  = color.RGBA{0x49, 0x50, 0x57, 0xff}
)

var (
	captionFont *truetype.Font
	captionFace font.Face
)

func init() {
	f, err := truetype.Parse(gobolditalic.TTF)
	if err != nil {
		panic("strip: parse caption font: " + err.Error())
	}
	captionFont = f
	captionFace = truetype.NewFace(f, &truetype.Options{Size: captionSize})
}

// Caption is the footer text for date.
func Caption(date time.Time) string {
	return "📸 Photobooth • " + date.Format(captionFormat)
}

// drawable drops runes the caption font has no glyph for, the camera emoji
// included, so they don't render as boxes.
func drawable(s string) string {
	var b strings.Builder
	for _, r := range s {
		if captionFont.Index(r) != 0 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func paintBackground(dc *gg.Context, l Layout) {
	w, h := float64(l.StripWidth), float64(l.Height())
	grad := gg.NewLinearGradient(0, 0, 0, h)
	grad.AddColorStop(0, bgTop)
	grad.AddColorStop(1, bgBottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(stripBorder)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, w-2, h-2)
	dc.Stroke()
}

// paintCell draws the shadowed mat, the photo scaled into its cell and the
// photo border. Cells never overlap, so the order cells are painted in does
// not change the result.
func paintCell(dc *gg.Context, l Layout, idx int, img image.Image) {
	dst := dc.Image().(*image.RGBA)
	y := l.CellY(idx)
	mat := image.Rect(l.Margin-matPad, y-matPad, l.Margin+l.PhotoWidth+matPad, y+l.PhotoHeight+matPad)

	paintShadow(dst, mat.Add(image.Pt(shadowOffset, shadowOffset)))

	dc.SetColor(color.White)
	dc.DrawRectangle(float64(mat.Min.X), float64(mat.Min.Y), float64(mat.Dx()), float64(mat.Dy()))
	dc.Fill()

	cell := image.Rect(l.Margin, y, l.Margin+l.PhotoWidth, y+l.PhotoHeight)
	xdraw.CatmullRom.Scale(dst, cell, img, img.Bounds(), xdraw.Over, nil)

	dc.SetColor(photoBorder)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(cell.Min.X), float64(cell.Min.Y), float64(cell.Dx()), float64(cell.Dy()))
	dc.Stroke()
}

// paintShadow composites a box blurred black rectangle under r.
func paintShadow(dst *image.RGBA, r image.Rectangle) {
	area := r.Inset(-shadowBlur)
	mask := image.NewAlpha(area)
	draw.Draw(mask, r, image.Opaque, image.Point{}, draw.Src)
	// three box passes approximate a gaussian
	for i := 0; i < 3; i++ {
		boxBlur(mask, shadowBlur/2)
	}
	draw.DrawMask(dst, area, image.NewUniform(color.NRGBA{0, 0, 0, shadowAlpha}), image.Point{}, mask, area.Min, draw.Over)
}

func boxBlur(m *image.Alpha, radius int) {
	if radius <= 0 {
		return
	}
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := make([]uint8, w*h)
	at := func(x, y int) int { return int(m.Pix[y*m.Stride+x]) }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for k := x - radius; k <= x+radius; k++ {
				if k >= 0 && k < w {
					sum += at(k, y)
					n++
				}
			}
			tmp[y*w+x] = uint8(sum / n)
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for k := y - radius; k <= y+radius; k++ {
				if k >= 0 && k < h {
					sum += int(tmp[k*w+x])
					n++
				}
			}
			m.Pix[y*m.Stride+x] = uint8(sum / n)
		}
	}
}

func paintCaption(dc *gg.Context, l Layout, text string) {
	dc.SetFontFace(captionFace)
	dc.SetColor(captionInk)
	dc.DrawStringAnchored(drawable(text), float64(l.StripWidth)/2, float64(l.CaptionY()), 0.5, 0)
}
