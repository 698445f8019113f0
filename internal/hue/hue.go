// Package hue measures colour casts, the tint faded prints pick up as one
// dye layer degrades faster than the others.
package hue

import (
	"math"

	"github.com/erinpentecost/restore/internal/raster"
)

// Of returns the hue in degrees [0, 360) and the HSL saturation of a
// normalised RGB colour. Greys have neither.
func Of(r, g, b float64) (hue, sat float64) {
	hi, lo := max(r, g, b), min(r, g, b)
	chroma := hi - lo
	if chroma == 0 {
		return 0, 0
	}
	switch hi {
	case r:
		hue = (g - b) / chroma
	case g:
		hue = 2 + (b-r)/chroma
	default:
		hue = 4 + (r-g)/chroma
	}
	hue = math.Mod(hue*60+360, 360)
	sat = chroma / (1 - math.Abs(hi+lo-1))
	return hue, sat
}

// Cast is the dominant tint of an image.
type Cast struct {
	// Hue in degrees (0–360).
	Hue float64
	// Strength is 0 for a neutral image and approaches 1 when every pixel
	// is fully saturated with the same hue.
	Strength float64
}

// Measure averages pixel hues as saturation-weighted unit vectors, which
// handles the wrap-around at 360°. Images with fewer than three channels
// have no cast.
func Measure(img *raster.Image) Cast {
	if len(img.Channels) < 3 {
		return Cast{}
	}
	r, g, b := img.Channels[0], img.Channels[1], img.Channels[2]
	n := min(len(r), len(g), len(b))
	if n == 0 {
		return Cast{}
	}

	var sumX, sumY float64
	for i := range n {
		h, s := Of(r[i], g[i], b[i])
		rad := h * math.Pi / 180
		sumX += s * math.Cos(rad)
		sumY += s * math.Sin(rad)
	}

	avgX := sumX / float64(n)
	avgY := sumY / float64(n)

	angle := math.Atan2(avgY, avgX) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return Cast{Hue: angle, Strength: math.Hypot(avgX, avgY)}
}
