// Package histogram plots per-channel value distributions of an image.
package histogram

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/erinpentecost/restore/internal/raster"
)

// Histogram holds normalised per-channel densities over equal-width bins
// spanning [0,1]. Each channel integrates to one.
type Histogram struct {
	Bins     int
	Channels [][]float64
}

// Compute bins every channel of img.
func Compute(img *raster.Image, bins int) (*Histogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	h := &Histogram{Bins: bins, Channels: make([][]float64, len(img.Channels))}
	for c, plane := range img.Channels {
		counts := make([]float64, bins)
		for _, v := range plane {
			i := int(v * float64(bins))
			i = max(0, min(bins-1, i))
			counts[i]++
		}
		if len(plane) > 0 {
			// density: count / (n * bin width)
			scale := float64(bins) / float64(len(plane))
			for i := range counts {
				counts[i] *= scale
			}
		}
		h.Channels[c] = counts
	}
	return h, nil
}

// Peak is the largest density of any channel.
func (h *Histogram) Peak() float64 {
	var peak float64
	for _, ch := range h.Channels {
		for _, v := range ch {
			peak = max(peak, v)
		}
	}
	return peak
}

var channelColors = []color.RGBA{
	{R: 220, A: 255},
	{G: 160, A: 255},
	{B: 220, A: 255},
}

const (
	marginLeft   = 10
	marginRight  = 10
	marginTop    = 10
	marginBottom = 34
)

// Render draws each channel as a step outline in red, green and blue over a
// white background, with the x axis labelled in 8-bit levels.
func Render(h *Histogram, width, height int) (*image.RGBA, error) {
	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom
	if plotW < h.Bins || plotH < 1 {
		return nil, errors.New("histogram image too small for its bins")
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	x0, y0 := marginLeft, height-marginBottom
	peak := h.Peak()
	binX := func(i int) int { return x0 + i*plotW/h.Bins }
	barY := func(v float64) int {
		if peak == 0 {
			return y0
		}
		return y0 - int(v/peak*float64(plotH-1))
	}

	for c, ch := range h.Channels {
		col := image.NewUniform(channelColors[c%len(channelColors)])
		prevY := y0
		for i, v := range ch {
			y := barY(v)
			vline(img, binX(i), prevY, y, col)
			hline(img, binX(i), binX(i+1), y, col)
			prevY = y
		}
		vline(img, binX(h.Bins), prevY, y0, col)
	}

	axis := image.NewUniform(color.Black)
	hline(img, x0, x0+plotW, y0, axis)
	for _, tick := range []int{0, 64, 128, 192, 255} {
		x := x0 + tick*plotW/255
		vline(img, x, y0, y0+4, axis)
		label(img, x, y0+16, fmt.Sprint(tick))
	}
	label(img, x0+plotW/2, y0+30, "Value")
	return img, nil
}

// SavePNG writes img to path as a PNG.
func SavePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0666)
}

func hline(img draw.Image, xa, xb, y int, src image.Image) {
	if xa > xb {
		xa, xb = xb, xa
	}
	draw.Draw(img, image.Rect(xa, y, xb+1, y+1), src, image.Point{}, draw.Src)
}

func vline(img draw.Image, x, ya, yb int, src image.Image) {
	if ya > yb {
		ya, yb = yb, ya
	}
	draw.Draw(img, image.Rect(x, ya, x+1, yb+1), src, image.Point{}, draw.Src)
}

// label centres s horizontally on x with its baseline at y.
func label(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(s)
	d.Dot = fixed.Point26_6{X: fixed.I(x) - w/2, Y: fixed.I(y)}
	d.DrawString(s)
}
