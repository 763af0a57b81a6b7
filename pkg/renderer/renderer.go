// Package renderer orchestrates frames: it finalizes the scene, runs the
// tracer and integrator, and turns the accumulated image into files.
package renderer

import (
	"image/png"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/geometry"
	"github.com/micropath/micropath/pkg/integrator"
	"github.com/micropath/micropath/pkg/log"
	"github.com/micropath/micropath/pkg/scene"
	"github.com/micropath/micropath/pkg/tracer"
)

var logger = log.New("renderer")

// Options selects the frame to render. A nil Filter means Mitchell with
// C = 0.5.
type Options struct {
	Width           int
	Height          int
	SamplesPerPixel int
	Filter          integrator.Filter
}

func DefaultOptions() Options {
	return Options{Width: 512, Height: 512, SamplesPerPixel: 16}
}

type Renderer struct {
	scene *scene.Scene
}

func New(sc *scene.Scene) *Renderer {
	return &Renderer{scene: sc}
}

// Render traces one full frame and returns the normalized image with the
// frame's work counters. Counters and the microsurface cache reset at the
// start, so stats reflect this frame alone.
func (r *Renderer) Render(opts Options) (*integrator.Image, FrameStats, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, FrameStats{}, errors.Errorf("bad frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.SamplesPerPixel <= 0 {
		return nil, FrameStats{}, errors.Errorf("bad sample count %d", opts.SamplesPerPixel)
	}

	cfg := core.GetConfig()
	core.ResetStats()
	geometry.ResetSurfaceCache(cfg.GridCacheBytes)

	if err := r.scene.Finalize(); err != nil {
		return nil, FrameStats{}, errors.Wrap(err, "finalizing scene")
	}

	logger.Noticef("rendering %dx%d at %d spp", opts.Width, opts.Height, opts.SamplesPerPixel)
	start := time.Now()

	img := integrator.NewImage(opts.Width, opts.Height)
	tr := tracer.New(r.scene)
	dl := integrator.NewDirectLighting(r.scene, tr, img, opts.SamplesPerPixel)
	if opts.Filter != nil {
		dl.SetFilter(opts.Filter)
	}
	dl.Integrate()

	stats := snapshotStats(time.Since(start))
	logger.Noticef("traced %d rays in %s", stats.RaysTraced, stats.RenderTime.Round(time.Millisecond))
	return img, stats, nil
}

// WritePNG encodes the image with gamma 2.0, the display transform the
// accumulation assumes.
func WritePNG(img *integrator.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	if err := png.Encode(f, img.ToRGBA(2.0)); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding %q", path)
	}
	return errors.Wrapf(f.Close(), "writing %q", path)
}
