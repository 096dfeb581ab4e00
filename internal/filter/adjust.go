package filter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var ErrBadExpression = errors.New("bad filter expression")

// op is one colour function of a chain: an affine transform on gamma encoded
// sRGB scaled to 0..1, clamped after every step.
type op struct {
	name string
	m    [3][4]float64
}

// Chain is a compiled adjustment expression. The zero value is the identity.
type Chain struct {
	ops []op
}

func (c Chain) Len() int {
	return len(c.ops)
}

// Parse compiles an expression such as "grayscale(1) contrast(1.3)".
// "" and "none" compile to the identity chain.
func Parse(expr string) (Chain, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "none" {
		return Chain{}, nil
	}

	var chain Chain
	rest := expr
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open <= 0 || closing < open {
			return Chain{}, fmt.Errorf("%w: %q", ErrBadExpression, rest)
		}
		name := strings.TrimSpace(rest[:open])
		arg := strings.TrimSpace(rest[open+1 : closing])
		o, err := compile(name, arg)
		if err != nil {
			return Chain{}, err
		}
		chain.ops = append(chain.ops, o)
		rest = strings.TrimSpace(rest[closing+1:])
	}
	return chain, nil
}

func compile(name, arg string) (op, error) {
	if name == "hue-rotate" {
		rad, err := parseAngle(arg)
		if err != nil {
			return op{}, err
		}
		return op{name: name, m: hueRotate(rad)}, nil
	}

	v, err := parseAmount(arg)
	if err != nil {
		return op{}, err
	}
	var m [3][4]float64
	switch name {
	case "brightness":
		m = scale(v, 0)
	case "contrast":
		m = scale(v, 0.5-0.5*v)
	case "saturate":
		m = saturate(v)
	case "grayscale":
		m = grayscale(clamp01(v))
	case "sepia":
		m = sepia(clamp01(v))
	case "invert":
		a := clamp01(v)
		m = scale(1-2*a, a)
	default:
		return op{}, fmt.Errorf("%w: unknown function %q", ErrBadExpression, name)
	}
	return op{name: name, m: m}, nil
}

func parseAmount(arg string) (float64, error) {
	if arg == "" {
		return 1, nil
	}
	pct := strings.HasSuffix(arg, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: amount %q", ErrBadExpression, arg)
	}
	if pct {
		v /= 100
	}
	return v, nil
}

func parseAngle(arg string) (float64, error) {
	units := []struct {
		suffix string
		toRad  float64
	}{
		{"deg", math.Pi / 180},
		{"grad", math.Pi / 200},
		{"rad", 1},
		{"turn", 2 * math.Pi},
	}
	for _, u := range units {
		if strings.HasSuffix(arg, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(arg, u.suffix), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: angle %q", ErrBadExpression, arg)
			}
			return v * u.toRad, nil
		}
	}
	if arg == "0" || arg == "" {
		return 0, nil
	}
	return 0, fmt.Errorf("%w: angle %q needs a unit", ErrBadExpression, arg)
}

func scale(k, offset float64) [3][4]float64 {
	return [3][4]float64{
		{k, 0, 0, offset},
		{0, k, 0, offset},
		{0, 0, k, offset},
	}
}

func saturate(s float64) [3][4]float64 {
	return [3][4]float64{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0},
	}
}

func grayscale(amount float64) [3][4]float64 {
	a := 1 - amount
	return [3][4]float64{
		{0.2126 + 0.7874*a, 0.7152 - 0.7152*a, 0.0722 - 0.0722*a, 0},
		{0.2126 - 0.2126*a, 0.7152 + 0.2848*a, 0.0722 - 0.0722*a, 0},
		{0.2126 - 0.2126*a, 0.7152 - 0.7152*a, 0.0722 + 0.9278*a, 0},
	}
}

func sepia(amount float64) [3][4]float64 {
	a := 1 - amount
	return [3][4]float64{
		{0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a, 0},
		{0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a, 0},
		{0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a, 0},
	}
}

func hueRotate(rad float64) [3][4]float64 {
	c, s := math.Cos(rad), math.Sin(rad)
	return [3][4]float64{
		{0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928, 0},
		{0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283, 0},
		{0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072, 0},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Color applies the chain to a single non-premultiplied colour.
func (c Chain) Color(in color.NRGBA) color.NRGBA {
	if len(c.ops) == 0 {
		return in
	}
	r, g, b := float64(in.R)/255, float64(in.G)/255, float64(in.B)/255
	r, g, b = c.apply(r, g, b)
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: in.A}
}

func (c Chain) apply(r, g, b float64) (float64, float64, float64) {
	for _, o := range c.ops {
		m := &o.m
		nr := m[0][0]*r + m[0][1]*g + m[0][2]*b + m[0][3]
		ng := m[1][0]*r + m[1][1]*g + m[1][2]*b + m[1][3]
		nb := m[2][0]*r + m[2][1]*g + m[2][2]*b + m[2][3]
		r, g, b = clamp01(nr), clamp01(ng), clamp01(nb)
	}
	return r, g, b
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// Apply adjusts img in place. img holds premultiplied colour, as produced by
// image/draw and gg.
func (c Chain) Apply(img *image.RGBA) {
	if len(c.ops) == 0 {
		return
	}
	// 8-bit inputs repeat a lot in camera frames, cache per opaque colour
	const maxCached = 1 << 16
	cache := make(map[uint32][3]uint8, 4096)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			a := row[i+3]
			if a == 0 {
				continue
			}
			if a == 255 {
				key := uint32(row[i])<<16 | uint32(row[i+1])<<8 | uint32(row[i+2])
				out, ok := cache[key]
				if !ok {
					n := c.Color(color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: 255})
					out = [3]uint8{n.R, n.G, n.B}
					if len(cache) < maxCached {
						cache[key] = out
					}
				}
				row[i], row[i+1], row[i+2] = out[0], out[1], out[2]
				continue
			}
			n := color.NRGBAModel.Convert(color.RGBA{R: row[i], G: row[i+1], B: row[i+2], A: a}).(color.NRGBA)
			p := color.RGBAModel.Convert(c.Color(n)).(color.RGBA)
			row[i], row[i+1], row[i+2] = p.R, p.G, p.B
		}
	}
}
