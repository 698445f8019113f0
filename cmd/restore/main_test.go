package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/restore/internal/restore"
)

func parse(t *testing.T, args ...string) (*runCmd, *pflag.FlagSet) {
	t.Helper()
	c := &runCmd{}
	fl := pflag.NewFlagSet("run", pflag.ContinueOnError)
	c.RegisterFlags(fl)
	require.NoError(t, fl.Parse(args))
	return c, fl
}

func TestRunDefaults(t *testing.T) {
	c, fl := parse(t)
	opts, err := c.options(fl)
	require.NoError(t, err)
	cfg, err := opts.Config()
	require.NoError(t, err)
	require.Equal(t, restore.DefaultConfig(), cfg)
}

func TestRunTargetFlags(t *testing.T) {
	c, fl := parse(t, "--low", "0.05", "--high=0.95", "--low-target", "0.1", "--high-target", "0.9", "-i")
	opts, err := c.options(fl)
	require.NoError(t, err)
	cfg, err := opts.Config()
	require.NoError(t, err)
	require.True(t, cfg.Invert())
	require.Equal(t, []restore.Anchor{
		{Quantile: 0.05, Target: 0.1},
		{Quantile: 0.95, Target: 0.9},
	}, cfg.Anchors())
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("low: 0.2\nhigh: 0.8\ninvert: true\n"), 0666))

	c, fl := parse(t, "--config", path, "--high", "0.7")
	opts, err := c.options(fl)
	require.NoError(t, err)
	require.Equal(t, 0.2, *opts.Low)
	require.Equal(t, 0.7, *opts.High)
	require.True(t, *opts.Invert)
}

func TestRunFlagsOverrideConfigAnchors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
anchors:
  - {quantile: 0.1, target: 0}
  - {quantile: 0.5, target: 0.4}
  - {quantile: 0.9, target: 1}
`), 0666))

	c, fl := parse(t, "--config", path, "--low", "0.3")
	opts, err := c.options(fl)
	require.NoError(t, err)
	cfg, err := opts.Config()
	require.NoError(t, err)
	anchors := cfg.Anchors()
	require.Len(t, anchors, 2)
	require.Equal(t, 0.3, anchors[0].Quantile)
	require.Equal(t, restore.DefaultHigh, anchors[1].Quantile)

	c, fl = parse(t, "--config", path)
	opts, err = c.options(fl)
	require.NoError(t, err)
	cfg, err = opts.Config()
	require.NoError(t, err)
	require.Len(t, cfg.Anchors(), 3)
}

func TestRunRestoresFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.png", "two.png"} {
		img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
		for i := 0; i < len(img.Pix); i += 4 {
			v := uint8(90 + i%64)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0666))
	}
	outDir := filepath.Join(dir, "restored")

	c, fl := parse(t, "-o", outDir, "-j", "2", "--pad-low", "0")
	require.NoError(t, c.restore(t.Context(), fl, []string{filepath.Join(dir, "*.png")}))

	for _, name := range []string{"one.jpg", "two.jpg"} {
		f, err := os.Open(filepath.Join(outDir, name))
		require.NoError(t, err)
		img, format, err := image.Decode(f)
		f.Close()
		require.NoError(t, err)
		require.Equal(t, "jpeg", format)
		require.Equal(t, 16, img.Bounds().Dx())
		// darkest input is pushed to black
		require.Less(t, color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y, uint8(40))
	}
}

func TestRunSharedOutputName(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0777))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "x.png"), buf.Bytes(), 0666))
	}
	outDir := filepath.Join(dir, "restored")

	c, fl := parse(t, "-o", outDir)
	err := c.restore(t.Context(), fl, []string{filepath.Join(dir, "*", "x.png")})
	require.ErrorIs(t, err, restore.ErrOutputConflict)
	_, err = os.Stat(filepath.Join(outDir, "x.jpg"))
	require.True(t, os.IsNotExist(err))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()

	c, fl := parse(t)
	require.Error(t, c.restore(t.Context(), fl, []string{filepath.Join(dir, "*.png")}))

	c, fl = parse(t, "--low", "0.9", "--high", "0.1")
	require.ErrorIs(t, c.restore(t.Context(), fl, []string{dir}), restore.ErrInvalidConfig)

	c, fl = parse(t, "--quality", "0")
	require.Error(t, c.restore(t.Context(), fl, []string{dir}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0666))
	c, fl = parse(t)
	require.Error(t, c.restore(t.Context(), fl, []string{filepath.Join(dir, "*.png")}))
}

func TestHistPlot(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scan.png")
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0666))

	c := &histCmd{bins: 50, width: 800, height: 400}
	require.NoError(t, c.plot(in))
	_, err := os.Stat(filepath.Join(dir, "scan_hist.png"))
	require.NoError(t, err)
}
