package geometry

import (
	"math"
	"sync/atomic"

	"github.com/micropath/micropath/pkg/core"
)

// diceScale biases dicing slightly finer than the ray footprint strictly
// needs, so a cached surface stays usable for nearby rays of similar width.
const diceScale = 0.75

// Bilinear is a bilinear patch swept across the shutter interval, the
// basic diceable primitive. Control vertices wind counterclockwise:
// (u0,v0), (u1,v0), (u1,v1), (u0,v1).
type Bilinear struct {
	verts                  [][4]core.Vec3 // one quad per time sample
	uMin, uMax, vMin, vMax float32
	col                    core.Vec3
	bounds                 core.TimeBox[core.BBox]

	// diceState packs the footprint the cached grid was diced for next to
	// its cache key, so rays retire stale grids with one atomic swap.
	diceState atomic.Uint64
}

// NewBilinear builds a patch from one set of four control vertices per
// time sample.
func NewBilinear(verts ...[4]core.Vec3) *Bilinear {
	if len(verts) == 0 {
		panic("geometry: bilinear patch needs at least one time sample")
	}
	b := &Bilinear{
		verts: verts,
		uMax:  1,
		vMax:  1,
		col:   core.NewVec3(0.8, 0.8, 0.8),
	}
	b.computeBounds()
	b.diceState.Store(packDiceState(core.Inf32, 0))
	return b
}

func newSubPatch(verts [][4]core.Vec3, col core.Vec3, uMin, uMax, vMin, vMax float32) *Bilinear {
	b := &Bilinear{
		verts: verts,
		uMin:  uMin,
		uMax:  uMax,
		vMin:  vMin,
		vMax:  vMax,
		col:   col,
	}
	b.computeBounds()
	b.diceState.Store(packDiceState(core.Inf32, 0))
	return b
}

func (b *Bilinear) computeBounds() {
	pad := core.GetConfig().DisplaceDistance
	boxes := make([]core.BBox, len(b.verts))
	for i, q := range b.verts {
		boxes[i] = core.NewBBoxFromPoints(q[0], q[1], q[2], q[3]).Expand(pad)
	}
	b.bounds = core.NewTimeBox(boxes...)
}

// SetColor sets the patch's flat reflectance.
func (b *Bilinear) SetColor(col core.Vec3) {
	b.col = col
}

// Bounds returns the shutter-interval bounds, padded for displacement.
func (b *Bilinear) Bounds() core.TimeBox[core.BBox] {
	return b.bounds
}

// edgeLengths measures the patch along each parametric direction, taking
// the longer of each opposite edge pair across all time samples.
func (b *Bilinear) edgeLengths() (float32, float32) {
	var lu, lv float32
	for _, q := range b.verts {
		lu = maxf(lu, maxf(q[1].Subtract(q[0]).Length(), q[2].Subtract(q[3]).Length()))
		lv = maxf(lv, maxf(q[3].Subtract(q[0]).Length(), q[2].Subtract(q[1]).Length()))
	}
	return lu, lv
}

// rateFor doubles the tessellation rate until edges divide down to the
// target length. Rates stay powers of two so successive dice levels nest,
// which keeps re-dicing stable as footprints shrink.
func rateFor(edge, target float32) int {
	if edge <= 0 {
		return 1
	}
	rate := 1
	for edge/float32(rate) > target && rate < 1<<20 {
		rate *= 2
	}
	return rate
}

// rawRates returns the unclamped tessellation rates for a footprint.
func (b *Bilinear) rawRates(width float32) (int, int) {
	cfg := core.GetConfig()
	target := width * cfg.DiceRate
	if target < cfg.MinUpolySize {
		target = cfg.MinUpolySize
	}
	lu, lv := b.edgeLengths()
	return rateFor(lu, target), rateFor(lv, target)
}

// diceRates clamps the raw rates to the grid size limit and reports
// whether the clamp bit.
func (b *Bilinear) diceRates(width float32) (int, int, bool) {
	ru, rv := b.rawRates(width)
	limit := core.GetConfig().MaxGridSize
	clamped := false
	if ru > limit {
		ru, clamped = limit, true
	}
	if rv > limit {
		rv, clamped = limit, true
	}
	return ru, rv, clamped
}

// MicroEstimate returns the micropolygon count dicing at the footprint
// would produce, before the grid size clamp.
func (b *Bilinear) MicroEstimate(width float32) int {
	ru, rv := b.rawRates(width)
	return ru * rv
}

// MicroGenerate dices the patch so micropolygons span roughly the given
// footprint.
func (b *Bilinear) MicroGenerate(width float32) *MicroSurface {
	micro, _ := b.microGenerate(width)
	return micro
}

func (b *Bilinear) microGenerate(width float32) (*MicroSurface, bool) {
	ru, rv, clamped := b.diceRates(width)
	grid := b.dice(ru+1, rv+1)
	core.Stats.MicropolysGenerated.Add(uint64(ru * rv))
	return NewMicroSurface(grid, b.col), clamped
}

// dice evaluates the patch on a regular lattice. ru and rv are vertex
// counts, one more than the tessellation rate in each direction.
func (b *Bilinear) dice(ru, rv int) *Grid {
	grid := NewGrid(ru, rv, len(b.verts))
	grid.U1, grid.V1 = b.uMin, b.vMin
	grid.U2, grid.V2 = b.uMax, b.vMin
	grid.U3, grid.V3 = b.uMax, b.vMax
	grid.U4, grid.V4 = b.uMin, b.vMax

	for time, q := range b.verts {
		du1 := q[1].Subtract(q[0]).Multiply(1 / float32(ru-1))
		du2 := q[2].Subtract(q[3]).Multiply(1 / float32(ru-1))
		p1, p2 := q[0], q[3]
		for x := 0; x < ru; x++ {
			dv := p2.Subtract(p1).Multiply(1 / float32(rv-1))
			p3 := p1
			for y := 0; y < rv; y++ {
				grid.SetVert(x, y, time, p3)
				p3 = p3.Add(dv)
			}
			p1 = p1.Add(du1)
			p2 = p2.Add(du2)
		}
	}
	return grid
}

// Split halves the patch across its longer parametric direction.
func (b *Bilinear) Split() (Diceable, Diceable) {
	core.Stats.Splits.Add(1)

	q := b.verts[0]
	lu := q[1].Subtract(q[0]).Length() + q[2].Subtract(q[3]).Length()
	lv := q[3].Subtract(q[0]).Length() + q[2].Subtract(q[1]).Length()

	first := make([][4]core.Vec3, len(b.verts))
	second := make([][4]core.Vec3, len(b.verts))

	if lu >= lv {
		for i, q := range b.verts {
			m01 := core.LerpVec3(q[0], q[1], 0.5)
			m32 := core.LerpVec3(q[3], q[2], 0.5)
			first[i] = [4]core.Vec3{q[0], m01, m32, q[3]}
			second[i] = [4]core.Vec3{m01, q[1], q[2], m32}
		}
		uMid := (b.uMin + b.uMax) * 0.5
		return newSubPatch(first, b.col, b.uMin, uMid, b.vMin, b.vMax),
			newSubPatch(second, b.col, uMid, b.uMax, b.vMin, b.vMax)
	}

	for i, q := range b.verts {
		m03 := core.LerpVec3(q[0], q[3], 0.5)
		m12 := core.LerpVec3(q[1], q[2], 0.5)
		first[i] = [4]core.Vec3{q[0], q[1], m12, m03}
		second[i] = [4]core.Vec3{m03, m12, q[2], q[3]}
	}
	vMid := (b.vMin + b.vMax) * 0.5
	return newSubPatch(first, b.col, b.uMin, b.uMax, b.vMin, vMid),
		newSubPatch(second, b.col, b.uMin, b.uMax, vMid, b.vMax)
}

// IntersectRay dices the patch to the ray's footprint, reusing the cached
// microsurface when it is still fine enough, then defers to the grid for
// the actual hit test.
func (b *Bilinear) IntersectRay(ray *core.Ray, isect *core.Intersection) bool {
	core.Stats.PrimitiveRayTests.Add(1)

	bounds := b.bounds.At(ray.Time, core.LerpBBox)
	tNear, tFar, ok := bounds.Intersect(ray, ray.MaxT)
	if !ok {
		return false
	}
	width := ray.MinWidth(tNear, tFar)

	lastWidth, key := unpackDiceState(b.diceState.Load())

	var micro *MicroSurface
	redice := width != 0 && width < lastWidth
	if !redice {
		micro, ok = surfaceCache.Get(key)
		if !ok {
			if key != 0 {
				core.Stats.CacheMisses.Add(1)
			}
			redice = true
		}
	}
	if redice {
		var clamped bool
		micro, clamped = b.microGenerate(width * diceScale)
		if clamped {
			ray.Flags |= core.RayDeeperSplit
		}
		// Competing re-dicers each insert a grid; the last stored key
		// wins and the loser ages out of the cache.
		b.diceState.Store(packDiceState(width*diceScale, surfaceCache.Put(micro)))
	}
	return micro.IntersectRay(ray, width, isect)
}

// packDiceState stores a dice footprint beside the cache key it produced.
func packDiceState(width float32, key uint32) uint64 {
	return uint64(math.Float32bits(width))<<32 | uint64(key)
}

func unpackDiceState(state uint64) (float32, uint32) {
	return math.Float32frombits(uint32(state>>32)), uint32(state)
}
