package tonal

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/erinpentecost/restore/internal/logging"
)

var (
	ErrTooFewPoints = errors.New("curve needs at least two control points")
	ErrUnsorted     = errors.New("control points not ordered by input")
)

// Point is one vertex of a tonal curve: input X maps to output Y.
type Point struct {
	X, Y float64
}

type segment struct {
	x0, y0 float64
	x1     float64
	slope  float64
}

// Curve is a piecewise-linear tonal mapping. It is immutable once built and
// safe for concurrent use.
//
// Segment i covers (x[i], x[i+1]]. Inputs below the first control point or
// above the last are extrapolated along the nearest segment. Every output is
// clamped to [0,1].
//
// Control points sharing the same X form a zero-width segment. That segment
// is skipped, which leaves a step at X: an input exactly at X takes the
// value on the left. A step at the first or last control point holds the
// outer value flat instead of extrapolating, so inputs at or below a leading
// step take the first Y and inputs above a trailing step take the last Y.
// When every segment has zero width the curve is flat at the mean of the
// control point outputs.
type Curve struct {
	points   []Point
	segments []segment
	flat     float64
	// lead and trail mark steps at the first and last control point.
	lead, trail bool
}

// NewCurve builds a curve through points, which must be ordered by
// non-decreasing X.
func NewCurve(points []Point) (*Curve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%d points: %w", len(points), ErrTooFewPoints)
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return nil, fmt.Errorf("control point %d (%v,%v): %w", i, p.X, p.Y, ErrNonFinite)
		}
		if i > 0 && p.X < points[i-1].X {
			return nil, fmt.Errorf("control point %d x=%v after x=%v: %w", i, p.X, points[i-1].X, ErrUnsorted)
		}
	}

	c := &Curve{points: slices.Clone(points)}
	var sum float64
	for i, p := range points {
		sum += p.Y
		if i == 0 {
			continue
		}
		prev := points[i-1]
		dx := p.X - prev.X
		if dx == 0 {
			logging.Logger().Debug("skipping zero-width segment", "x", p.X, "y0", prev.Y, "y1", p.Y)
			continue
		}
		c.segments = append(c.segments, segment{
			x0:    prev.X,
			y0:    prev.Y,
			x1:    p.X,
			slope: (p.Y - prev.Y) / dx,
		})
	}
	c.flat = sum / float64(len(points))
	n := len(points)
	c.lead = points[1].X == points[0].X
	c.trail = points[n-1].X == points[n-2].X
	return c, nil
}

// NewLinear is the two-point curve that sends lowX to lowY and highX to
// highY, extended linearly across the whole domain.
func NewLinear(lowX, lowY, highX, highY float64) (*Curve, error) {
	return NewCurve([]Point{{X: lowX, Y: lowY}, {X: highX, Y: highY}})
}

// Identity maps every input in [0,1] to itself.
func Identity() *Curve {
	c, _ := NewLinear(0, 0, 1, 1)
	return c
}

// Points returns a copy of the control points.
func (c *Curve) Points() []Point {
	return slices.Clone(c.points)
}

// Degenerate reports whether every segment has zero width.
func (c *Curve) Degenerate() bool {
	return len(c.segments) == 0
}

// Eval maps a single sample.
func (c *Curve) Eval(v float64) float64 {
	if len(c.segments) == 0 {
		return clamp01(c.flat)
	}
	first, last := c.points[0], c.points[len(c.points)-1]
	if c.lead && v <= first.X {
		return clamp01(first.Y)
	}
	if c.trail && v > last.X {
		return clamp01(last.Y)
	}
	i := sort.Search(len(c.segments), func(i int) bool {
		return v <= c.segments[i].x1
	})
	if i == len(c.segments) {
		i--
	}
	s := c.segments[i]
	return clamp01(s.y0 + (v-s.x0)*s.slope)
}

// Apply maps samples in place.
func (c *Curve) Apply(samples []float64) {
	for i, v := range samples {
		samples[i] = c.Eval(v)
	}
}

// Map returns a mapped copy of samples.
func (c *Curve) Map(samples []float64) []float64 {
	out := slices.Clone(samples)
	c.Apply(out)
	return out
}

// Invert replaces every sample v with 1-v.
func Invert(samples []float64) {
	for i, v := range samples {
		samples[i] = 1 - v
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

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
