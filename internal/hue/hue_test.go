package hue

import (
	"math"
	"testing"

	"github.com/erinpentecost/restore/internal/raster"
)

func TestOf(t *testing.T) {
	tests := []struct {
		r, g, b  float64
		hue, sat float64
	}{
		{1, 0, 0, 0, 1},
		{1, 0, 0.5, 330, 1},
		{0, 1, 0, 120, 1},
		{0, 0, 1, 240, 1},
		{0.75, 0.75, 0.25, 60, 0.5},
		{0.3, 0.3, 0.3, 0, 0},
	}
	for _, tt := range tests {
		h, s := Of(tt.r, tt.g, tt.b)
		if math.Abs(h-tt.hue) > 1e-9 || math.Abs(s-tt.sat) > 1e-9 {
			t.Errorf("Of(%v, %v, %v) = %f, %f; expected %f, %f", tt.r, tt.g, tt.b, h, s, tt.hue, tt.sat)
		}
	}
}

func pixels(rgb ...[3]float64) *raster.Image {
	img := raster.New(len(rgb), 1, 3)
	for i, p := range rgb {
		for c := range 3 {
			img.Channels[c][i] = p[c]
		}
	}
	return img
}

func TestMeasure(t *testing.T) {
	cast := Measure(pixels(
		[3]float64{1, 0, 0}, // 0°
		[3]float64{1, 1, 0}, // 60°
	))

	if cast.Hue < 29 || cast.Hue > 31 {
		t.Errorf("expected ~30°, got %f", cast.Hue)
	}
	if cast.Strength < 0.8 || cast.Strength > 0.9 {
		t.Errorf("expected strength ~0.87, got %f", cast.Strength)
	}
}

func TestMeasureNeutral(t *testing.T) {
	cast := Measure(pixels(
		[3]float64{0.2, 0.2, 0.2},
		[3]float64{0.9, 0.9, 0.9},
	))
	if cast.Strength != 0 {
		t.Errorf("expected no cast, got %+v", cast)
	}
	if got := Measure(raster.New(2, 2, 1)); got != (Cast{}) {
		t.Errorf("expected no cast for greyscale, got %+v", got)
	}
}
