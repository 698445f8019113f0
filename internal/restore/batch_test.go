package restore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/restore/internal/imageio"
	"github.com/erinpentecost/restore/internal/raster"
)

// synthetic builds a faded test image that differs per seed.
func synthetic(seed int) *raster.Image {
	img := raster.New(32, 32, 3)
	for c := range img.Channels {
		lo := 0.1 + 0.05*float64((seed+c)%4)
		for i := range img.Channels[c] {
			img.Channels[c][i] = lo + 0.4*math.Mod(float64(i*(seed+c+1)*31)/1024, 1)
		}
	}
	return img
}

func TestBatchIndependence(t *testing.T) {
	cfg := DefaultConfig()
	jobs := []Job{}
	images := map[string]*raster.Image{}
	for i := range 16 {
		name := fmt.Sprintf("scan%02d", i)
		jobs = append(jobs, Job{Input: name, Output: name + ".out"})
		images[name] = synthetic(i)
	}

	run := func(workers int) map[string]*raster.Image {
		var mux sync.Mutex
		out := map[string]*raster.Image{}
		b := &Batch{
			Workers: workers,
			Process: func(ctx context.Context, job Job) error {
				restored, err := Restore(images[job.Input], cfg)
				if err != nil {
					return err
				}
				mux.Lock()
				defer mux.Unlock()
				out[job.Output] = restored
				return nil
			},
		}
		require.NoError(t, Failures(b.Run(t.Context(), jobs)))
		return out
	}

	sequential := run(1)
	concurrent := run(8)
	require.Len(t, concurrent, len(jobs))
	require.Equal(t, sequential, concurrent)
}

func TestBatchFailureIsolated(t *testing.T) {
	boom := errors.New("boom")
	var done atomic.Int32
	b := &Batch{
		Workers: 3,
		Process: func(ctx context.Context, job Job) error {
			if job.Input == "bad" {
				return boom
			}
			done.Add(1)
			return nil
		},
	}
	jobs := []Job{{Input: "a"}, {Input: "bad"}, {Input: "b"}, {Input: "c"}}
	results := b.Run(t.Context(), jobs)

	require.Len(t, results, 4)
	require.Equal(t, int32(3), done.Load())
	for i, r := range results {
		require.Equal(t, jobs[i], r.Job)
	}
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, boom)
	require.ErrorIs(t, Failures(results), boom)
}

func TestBatchOutputConflicts(t *testing.T) {
	var mux sync.Mutex
	ran := []string{}
	b := &Batch{
		Workers: 2,
		Process: func(ctx context.Context, job Job) error {
			mux.Lock()
			defer mux.Unlock()
			ran = append(ran, job.Input)
			return nil
		},
	}
	jobs := []Job{
		{Input: "a/x.png", Output: "out/x.jpg"},
		{Input: "b/x.tif", Output: "out/./x.jpg"},
		{Input: "c.png", Output: "out/c.jpg"},
		{Input: "d.jpg", Output: "d.jpg"},
	}
	results := b.Run(t.Context(), jobs)

	require.Equal(t, []string{"c.png"}, ran)
	require.ErrorIs(t, results[0].Err, ErrOutputConflict)
	require.ErrorIs(t, results[1].Err, ErrOutputConflict)
	require.NoError(t, results[2].Err)
	require.ErrorIs(t, results[3].Err, ErrOutputConflict)
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	b := &Batch{Process: func(ctx context.Context, job Job) error { return nil }}
	results := b.Run(ctx, []Job{{Input: "a"}, {Input: "b"}})
	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestFileProcessor(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "faded.png")

	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			v := uint8(80 + (x+y)*2)
			src.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 200 - v/2, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0666))

	out, err := imageio.OutputPath(in, "")
	require.NoError(t, err)

	p := &FileProcessor{Config: DefaultConfig(), Quality: imageio.DefaultQuality}
	b := &Batch{Workers: 2, Process: p.Process}
	results := b.Run(t.Context(), []Job{
		{Input: in, Output: out},
		{Input: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "missing.jpg")},
	})
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)

	restored, _, err := imageio.Load(out)
	require.NoError(t, err)
	require.Equal(t, 32, restored.Width)

	// the stretch widens every channel's range
	for c := range restored.Channels {
		lo, hi := 1.0, 0.0
		for _, v := range restored.Channels[c] {
			lo, hi = min(lo, v), max(hi, v)
		}
		require.Greater(t, hi-lo, 0.6, "channel %d", c)
	}
}
