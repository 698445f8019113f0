// Package restore reconstructs faded or mis-exposed photo scans by
// stretching the tonal range of every colour channel.
package restore

import (
	"fmt"

	"github.com/erinpentecost/restore/internal/logging"
	"github.com/erinpentecost/restore/internal/raster"
	"github.com/erinpentecost/restore/internal/tonal"
)

// Stage is one step of the restore pipeline. It modifies img in place.
type Stage interface {
	Process(img *raster.Image) error
}

// InvertStage turns a negative into a positive on every channel.
type InvertStage struct{}

func (InvertStage) Process(img *raster.Image) error {
	for _, plane := range img.Channels {
		tonal.Invert(plane)
	}
	return nil
}

// StretchStage remaps every channel with a curve built from that channel's
// own breakpoints.
type StretchStage struct {
	Anchors []Anchor
}

func (s *StretchStage) Process(img *raster.Image) error {
	curves := make([]*tonal.Curve, len(img.Channels))
	for c, plane := range img.Channels {
		curve, err := ChannelCurve(plane, s.Anchors)
		if err != nil {
			return fmt.Errorf("channel %d: %w", c, err)
		}
		logging.Logger().Debug("channel curve", "channel", c, "points", curve.Points(), "degenerate", curve.Degenerate())
		curves[c] = curve
	}
	for c, plane := range img.Channels {
		curves[c].Apply(plane)
	}
	return nil
}

// Pipeline lists the stages cfg runs, in order.
func Pipeline(cfg Config) []Stage {
	stages := []Stage{}
	if cfg.Invert() {
		stages = append(stages, InvertStage{})
	}
	return append(stages, &StretchStage{Anchors: cfg.Anchors()})
}

// Restore returns a restored copy of img. img is left untouched, and no
// image is returned when any channel fails.
func Restore(img *raster.Image, cfg Config) (*raster.Image, error) {
	if err := cfg.valid(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	out := img.Clone()
	for _, stage := range Pipeline(cfg) {
		if err := stage.Process(out); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return out, nil
}

// ChannelCurve builds the tonal curve for one channel.
func ChannelCurve(samples []float64, anchors []Anchor) (*tonal.Curve, error) {
	qs := make([]float64, len(anchors))
	for i, a := range anchors {
		qs[i] = a.Quantile
	}
	breakpoints, err := tonal.Quantiles(samples, qs...)
	if err != nil {
		return nil, fmt.Errorf("breakpoints: %w", err)
	}
	points := make([]tonal.Point, len(anchors))
	for i, a := range anchors {
		points[i] = tonal.Point{X: breakpoints[i] + a.Offset, Y: a.Target}
	}
	curve, err := tonal.NewCurve(points)
	if err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	return curve, nil
}
