// Package progress draws terminal progress for the headless commands.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	bar *progressbar.ProgressBar
}

// New returns a bar counting up to max. A negative max draws a spinner.
func New(w io.Writer, max int, desc string) *Bar {
	if w == nil {
		w = os.Stderr
	}
	return &Bar{bar: create(w, max, desc)}
}

// Spinner is a bar of unknown length.
func Spinner(w io.Writer, desc string) *Bar {
	b := New(w, -1, desc)
	_ = b.bar.RenderBlank()
	return b
}

func (b *Bar) Describe(desc string) {
	b.bar.Describe(desc)
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Max(n int) {
	b.bar.ChangeMax(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

func (b *Bar) Clear() {
	_ = b.bar.Clear()
}

func create(w io.Writer, max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
