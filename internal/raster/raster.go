// Package raster holds decoded images as normalised floating-point planes.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
)

var ErrShape = errors.New("plane size does not match image dimensions")

// Image is a multi-channel image with one row-major plane per channel.
// Samples are normalised to [0,1].
type Image struct {
	Width    int
	Height   int
	Channels [][]float64
}

// New allocates a zeroed image.
func New(width, height, channels int) *Image {
	img := &Image{
		Width:    width,
		Height:   height,
		Channels: make([][]float64, channels),
	}
	for c := range img.Channels {
		img.Channels[c] = make([]float64, width*height)
	}
	return img
}

// FromImage converts src into red, green and blue planes at 16-bit precision.
// Alpha is discarded after un-premultiplying.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy(), 3)
	r, g, bl := out.Channels[0], out.Channels[1], out.Channels[2]

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
			r[i] = float64(c.R) / math.MaxUint16
			g[i] = float64(c.G) / math.MaxUint16
			bl[i] = float64(c.B) / math.MaxUint16
			i++
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := &Image{
		Width:    m.Width,
		Height:   m.Height,
		Channels: make([][]float64, len(m.Channels)),
	}
	for c, plane := range m.Channels {
		out.Channels[c] = slices.Clone(plane)
	}
	return out
}

// Validate checks plane sizes and that every sample is finite.
func (m *Image) Validate() error {
	if len(m.Channels) == 0 {
		return errors.New("image has no channels")
	}
	for c, plane := range m.Channels {
		if len(plane) != m.Width*m.Height {
			return fmt.Errorf("channel %d has %d samples for %dx%d: %w", c, len(plane), m.Width, m.Height, ErrShape)
		}
		for i, v := range plane {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("channel %d sample %d is %v", c, i, v)
			}
		}
	}
	return nil
}

// At returns the sample of channel c at (x, y).
func (m *Image) At(c, x, y int) float64 {
	return m.Channels[c][y*m.Width+x]
}

// NRGBA denormalises to 8 bits per channel with floor(clip(v*255)).
// Images with fewer than three channels are rendered as grey.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, b := m.rgb(y*m.Width + x)
			o := out.PixOffset(x, y)
			out.Pix[o+0] = uint8(quantize(r, math.MaxUint8))
			out.Pix[o+1] = uint8(quantize(g, math.MaxUint8))
			out.Pix[o+2] = uint8(quantize(b, math.MaxUint8))
			out.Pix[o+3] = math.MaxUint8
		}
	}
	return out
}

// NRGBA64 denormalises to 16 bits per channel.
func (m *Image) NRGBA64() *image.NRGBA64 {
	out := image.NewNRGBA64(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, b := m.rgb(y*m.Width + x)
			out.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(quantize(r, math.MaxUint16)),
				G: uint16(quantize(g, math.MaxUint16)),
				B: uint16(quantize(b, math.MaxUint16)),
				A: math.MaxUint16,
			})
		}
	}
	return out
}

func (m *Image) rgb(i int) (r, g, b float64) {
	if len(m.Channels) < 3 {
		v := m.Channels[0][i]
		return v, v, v
	}
	return m.Channels[0][i], m.Channels[1][i], m.Channels[2][i]
}

// quantize absorbs the rounding left by 16-bit normalisation so that 8-bit
// input survives a round trip unchanged.
func quantize(v float64, top float64) float64 {
	return math.Floor(math.Max(0, math.Min(top, v*top+1e-9)))
}
