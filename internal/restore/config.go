package restore

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid restore configuration")

const (
	DefaultLow     = 0.10
	DefaultHigh    = 0.90
	DefaultPadLow  = 20.0
	DefaultPadHigh = 30.0
)

// Anchor ties a quantile of a channel to an output value. The control point
// it produces is (Quantile(channel, Quantile)+Offset, Target).
type Anchor struct {
	Quantile float64 `yaml:"quantile"`
	Offset   float64 `yaml:"offset"`
	Target   float64 `yaml:"target"`
}

// Config is a validated set of restore parameters. The zero value is not
// usable; build one with NewConfig, TargetConfig or PaddedConfig.
type Config struct {
	anchors []Anchor
	invert  bool
}

// NewConfig validates anchors and returns a Config using them.
//
// Anchors must have quantiles in [0,1] in strictly increasing order, targets
// in [0,1], and finite offsets that never decrease from one anchor to the
// next. Together these keep the breakpoints of any channel ordered.
func NewConfig(anchors []Anchor, invert bool) (Config, error) {
	if len(anchors) < 2 {
		return Config{}, fmt.Errorf("%w: need at least two anchors, got %d", ErrInvalidConfig, len(anchors))
	}
	for i, a := range anchors {
		if math.IsNaN(a.Quantile) || a.Quantile < 0 || a.Quantile > 1 {
			return Config{}, fmt.Errorf("%w: anchor %d quantile %v outside [0,1]", ErrInvalidConfig, i, a.Quantile)
		}
		if math.IsNaN(a.Target) || a.Target < 0 || a.Target > 1 {
			return Config{}, fmt.Errorf("%w: anchor %d target %v outside [0,1]", ErrInvalidConfig, i, a.Target)
		}
		if math.IsNaN(a.Offset) || math.IsInf(a.Offset, 0) {
			return Config{}, fmt.Errorf("%w: anchor %d offset %v", ErrInvalidConfig, i, a.Offset)
		}
		if i == 0 {
			continue
		}
		prev := anchors[i-1]
		if a.Quantile <= prev.Quantile {
			return Config{}, fmt.Errorf("%w: anchor %d quantile %v not above %v", ErrInvalidConfig, i, a.Quantile, prev.Quantile)
		}
		if a.Offset < prev.Offset {
			return Config{}, fmt.Errorf("%w: anchor %d offset %v below %v", ErrInvalidConfig, i, a.Offset, prev.Offset)
		}
	}
	return Config{anchors: slices.Clone(anchors), invert: invert}, nil
}

// TargetConfig stretches each channel so that its lowQ quantile lands on
// lowTarget and its highQ quantile on highTarget.
func TargetConfig(lowQ, highQ, lowTarget, highTarget float64, invert bool) (Config, error) {
	return NewConfig([]Anchor{
		{Quantile: lowQ, Target: lowTarget},
		{Quantile: highQ, Target: highTarget},
	}, invert)
}

// PaddedConfig stretches each channel so that padLow levels below its lowQ
// quantile become black and padHigh levels above its highQ quantile become
// white. Padding is in 8-bit levels (0-255).
func PaddedConfig(lowQ, highQ, padLow, padHigh float64, invert bool) (Config, error) {
	return NewConfig([]Anchor{
		{Quantile: lowQ, Offset: -padLow / math.MaxUint8, Target: 0},
		{Quantile: highQ, Offset: padHigh / math.MaxUint8, Target: 1},
	}, invert)
}

// DefaultConfig is PaddedConfig with the default quantiles and padding.
func DefaultConfig() Config {
	c, err := PaddedConfig(DefaultLow, DefaultHigh, DefaultPadLow, DefaultPadHigh, false)
	if err != nil {
		panic(err)
	}
	return c
}

// Anchors returns a copy of the configured anchors.
func (c Config) Anchors() []Anchor {
	return slices.Clone(c.anchors)
}

// Invert reports whether images are inverted before stretching.
func (c Config) Invert() bool {
	return c.invert
}

func (c Config) valid() error {
	if len(c.anchors) < 2 {
		return fmt.Errorf("%w: configuration was not built with NewConfig", ErrInvalidConfig)
	}
	return nil
}

// Options is the loosely specified form of a Config as read from a YAML file
// or command line. Unset fields fall back to defaults.
type Options struct {
	Low        *float64 `yaml:"low"`
	High       *float64 `yaml:"high"`
	LowTarget  *float64 `yaml:"low_target"`
	HighTarget *float64 `yaml:"high_target"`
	PadLow     *float64 `yaml:"pad_low"`
	PadHigh    *float64 `yaml:"pad_high"`
	Invert     *bool    `yaml:"invert"`
	Anchors    []Anchor `yaml:"anchors"`
}

// Merge returns o with every field set in over replacing its own. Setting
// any quantile, target or padding field in over also drops the anchors of o,
// since anchors would otherwise take precedence over it.
func (o Options) Merge(over Options) Options {
	pick := func(a, b *float64) *float64 {
		if b != nil {
			return b
		}
		return a
	}
	out := Options{
		Low:        pick(o.Low, over.Low),
		High:       pick(o.High, over.High),
		LowTarget:  pick(o.LowTarget, over.LowTarget),
		HighTarget: pick(o.HighTarget, over.HighTarget),
		PadLow:     pick(o.PadLow, over.PadLow),
		PadHigh:    pick(o.PadHigh, over.PadHigh),
		Invert:     o.Invert,
		Anchors:    o.Anchors,
	}
	if over.Invert != nil {
		out.Invert = over.Invert
	}
	if over.setsCurve() {
		out.Anchors = nil
	}
	if len(over.Anchors) > 0 {
		out.Anchors = over.Anchors
	}
	return out
}

func (o Options) setsCurve() bool {
	for _, p := range []*float64{o.Low, o.High, o.LowTarget, o.HighTarget, o.PadLow, o.PadHigh} {
		if p != nil {
			return true
		}
	}
	return false
}

// Config validates the options.
//
// Explicit anchors win. Otherwise setting either target selects
// TargetConfig, with unset targets defaulting to 0 and 1. With no targets
// the padding form is used.
func (o Options) Config() (Config, error) {
	val := func(p *float64, def float64) float64 {
		if p == nil {
			return def
		}
		return *p
	}
	invert := o.Invert != nil && *o.Invert

	if len(o.Anchors) > 0 {
		return NewConfig(o.Anchors, invert)
	}
	low, high := val(o.Low, DefaultLow), val(o.High, DefaultHigh)
	if o.LowTarget != nil || o.HighTarget != nil {
		return TargetConfig(low, high, val(o.LowTarget, 0), val(o.HighTarget, 1), invert)
	}
	padLow, padHigh := val(o.PadLow, DefaultPadLow), val(o.PadHigh, DefaultPadHigh)
	return PaddedConfig(low, high, padLow, padHigh, invert)
}

// LoadOptions reads Options from a YAML file. Unknown keys are an error.
func LoadOptions(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	var o Options
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return o, nil
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	o, err := LoadOptions(path)
	if err != nil {
		return Config{}, err
	}
	c, err := o.Config()
	if err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return c, nil
}
