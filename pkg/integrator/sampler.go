package integrator

import (
	"pgregory.net/rand"

	"github.com/micropath/micropath/pkg/core"
)

// Sample is one point of the rendering integral: a film position in unit
// coordinates, a shutter time, a lens position, and extra dimensions the
// integrator spends on light sampling.
type Sample struct {
	X, Y float32
	T    float32
	U, V float32
	NS   []float32
}

// ImageSampler hands out stratified pixel samples in bucket order: all
// samples of a pixel together, pixels in scanline order inside square
// buckets, buckets in scanline order across the frame. Bucket order keeps
// consecutive rays coherent so they dice the same primitives.
type ImageSampler struct {
	spp    int
	width  int
	height int
	bucket int
	rng    *rand.Rand

	bx, by int // bucket origin in pixels
	px, py int // pixel offset inside the bucket
	s      int // samples emitted for the current pixel

	emitted int
	total   int
}

func NewImageSampler(spp, width, height int, seed uint64) *ImageSampler {
	bucket := core.GetConfig().BucketSize
	if bucket <= 0 {
		bucket = 32
	}
	return &ImageSampler{
		spp:    spp,
		width:  width,
		height: height,
		bucket: bucket,
		rng:    rand.New(seed),
		total:  spp * width * height,
	}
}

// Next fills samp with the next sample and reports whether one was left.
// ns extra dimensions are drawn into samp.NS, reusing its backing array.
func (s *ImageSampler) Next(samp *Sample, ns int) bool {
	if s.emitted >= s.total {
		return false
	}
	x := s.bx + s.px
	y := s.by + s.py
	samp.X = (float32(x) + s.rng.Float32()) / float32(s.width)
	samp.Y = (float32(y) + s.rng.Float32()) / float32(s.height)
	samp.T = s.rng.Float32()
	samp.U = s.rng.Float32()
	samp.V = s.rng.Float32()
	samp.NS = samp.NS[:0]
	for i := 0; i < ns; i++ {
		samp.NS = append(samp.NS, s.rng.Float32())
	}
	s.emitted++
	s.advance()
	return true
}

func (s *ImageSampler) advance() {
	s.s++
	if s.s < s.spp {
		return
	}
	s.s = 0
	s.px++
	if s.bx+s.px < min(s.bx+s.bucket, s.width) {
		return
	}
	s.px = 0
	s.py++
	if s.by+s.py < min(s.by+s.bucket, s.height) {
		return
	}
	s.py = 0
	s.bx += s.bucket
	if s.bx < s.width {
		return
	}
	s.bx = 0
	s.by += s.bucket
}

// Percentage reports sampling progress in [0, 1].
func (s *ImageSampler) Percentage() float32 {
	if s.total == 0 {
		return 1
	}
	return float32(s.emitted) / float32(s.total)
}
