// Package integrator turns traced rays into pixels: it draws image
// samples, batches camera and shadow rays through the tracer, and
// accumulates the shaded results into a filtered image.
package integrator

import (
	"golang.org/x/sync/errgroup"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/log"
	"github.com/micropath/micropath/pkg/scene"
	"github.com/micropath/micropath/pkg/tracer"
)

var logger = log.New("integrator")

const (
	// raysAtATime bounds how many samples are in flight per batch. Big
	// batches amortize the breadth-first sort; this is also the working
	// set the tracer holds buffers for.
	raysAtATime = 1 << 16

	cameraJobSize = 8192
)

// dlPath carries one sample from camera ray to pixel contribution.
type dlPath struct {
	done  bool
	inter core.Intersection
	lcol  core.Vec3
	col   core.Vec3
}

// DirectLighting estimates direct illumination only: one camera ray per
// sample, one shadow ray toward one uniformly picked finite light, no
// bounces. Misses take the scene background.
type DirectLighting struct {
	scene   *scene.Scene
	tracer  *tracer.Tracer
	img     *Image
	spp     int
	filter  Filter
	workers int
}

func NewDirectLighting(sc *scene.Scene, tr *tracer.Tracer, img *Image, spp int) *DirectLighting {
	workers := core.GetConfig().Workers
	if workers <= 0 {
		workers = 1
	}
	return &DirectLighting{
		scene:   sc,
		tracer:  tr,
		img:     img,
		spp:     spp,
		filter:  MitchellFilter{C: 0.5},
		workers: workers,
	}
}

// SetFilter swaps the reconstruction filter. Call before Integrate.
func (dl *DirectLighting) SetFilter(f Filter) {
	dl.filter = f
}

// Integrate renders the scene into the image and normalizes it.
func (dl *DirectLighting) Integrate() {
	cfg := core.GetConfig()
	sampler := NewImageSampler(dl.spp, dl.img.Width, dl.img.Height, cfg.Seed)
	lights := dl.scene.Root.LightTree()
	if lights.Count() == 0 {
		logger.Warning("scene has no finite lights; direct lighting is background only")
	}

	samps := make([]Sample, raysAtATime)
	paths := make([]dlPath, raysAtATime)
	wrays := make([]core.WorldRay, raysAtATime)
	isects := make([]core.Intersection, raysAtATime)
	shadowToPath := make([]int, raysAtATime)

	lastPerc := -1
	for {
		n := 0
		for n < raysAtATime && sampler.Next(&samps[n], 3) {
			n++
		}
		if n == 0 {
			break
		}

		dl.generateCameraRays(samps[:n], wrays[:n])
		dl.tracer.Trace(wrays[:n], isects[:n])

		for i := 0; i < n; i++ {
			paths[i] = dlPath{}
			if isects[i].Hit {
				paths[i].inter = isects[i]
			} else {
				paths[i].done = true
				paths[i].col = dl.scene.Background
			}
		}

		// One shadow ray per live path toward one picked light. The
		// uniform pick is compensated by scaling with the light count.
		sri := 0
		if lights.Count() > 0 {
			for i := 0; i < n; i++ {
				if paths[i].done {
					continue
				}
				light, _ := lights.Pick(samps[i].NS[0])
				radiance, toLight := light.Sample(paths[i].inter.P, samps[i].NS[1], samps[i].NS[2], samps[i].T)
				paths[i].lcol = radiance.Multiply(float32(lights.Count()))
				wrays[sri] = core.WorldRay{
					O:    paths[i].inter.P.Add(paths[i].inter.Offset),
					D:    toLight,
					Time: samps[i].T,
					Type: core.OcclusionRay,
				}
				shadowToPath[sri] = i
				sri++
			}
		}

		if sri > 0 {
			dl.tracer.Trace(wrays[:sri], isects[:sri])
			for k := 0; k < sri; k++ {
				path := &paths[shadowToPath[k]]
				if isects[k].Hit {
					continue // shadowed
				}
				l := wrays[k].D.Normalize()
				lambert := max(0, l.Dot(path.inter.N))
				path.col = path.lcol.MultiplyVec(path.inter.Col).Multiply(lambert)
			}
		}

		for i := 0; i < n; i++ {
			dl.splat(samps[i].X, samps[i].Y, paths[i].col)
		}

		perc := int(sampler.Percentage() * 100)
		if perc > lastPerc {
			logger.Infof("%3d%% of samples traced", perc)
			lastPerc = perc
		}
	}

	dl.img.Normalize()
}

// generateCameraRays maps unit film samples onto the image plane window
// and shoots camera rays, in parallel chunks.
func (dl *DirectLighting) generateCameraRays(samps []Sample, wrays []core.WorldRay) {
	img := dl.img
	cam := dl.scene.Camera
	dx := (img.MaxX - img.MinX) / float32(img.Width)
	dy := (img.MaxY - img.MinY) / float32(img.Height)

	g := new(errgroup.Group)
	g.SetLimit(dl.workers)
	for start := 0; start < len(samps); start += cameraJobSize {
		start := start
		end := min(start+cameraJobSize, len(samps))
		g.Go(func() error {
			for i := start; i < end; i++ {
				rx := (samps[i].X - 0.5) * (img.MaxX - img.MinX)
				ry := (0.5 - samps[i].Y) * (img.MaxY - img.MinY)
				wrays[i] = cam.GenerateRay(rx, ry, dx, dy, samps[i].T, samps[i].U, samps[i].V)
			}
			return nil
		})
	}
	g.Wait()
}

// splat spreads one sample's color over the filter window around it.
func (dl *DirectLighting) splat(sx, sy float32, col core.Vec3) {
	x := sx*float32(dl.img.Width) - 0.5
	y := sy*float32(dl.img.Height) - 0.5
	cx := floorInt(x)
	cy := floorInt(y)
	for j := -FilterRadius; j <= FilterRadius; j++ {
		for k := -FilterRadius; k <= FilterRadius; k++ {
			a := cx + j
			b := cy + k
			w := dl.filter.Eval(float32(a)-x, float32(b)-y)
			dl.img.Splat(a, b, col, w)
		}
	}
}

func floorInt(x float32) int {
	i := int(x)
	if x < 0 && float32(i) != x {
		i--
	}
	return i
}
