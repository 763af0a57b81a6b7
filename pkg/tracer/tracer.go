// Package tracer drives breadth-first ray traversal. Rays are traced in
// large batches: candidate instances accumulate per ray from a resumable
// BVH walk, get sorted by instance so dicing caches stay hot, and are
// then tested in parallel. The cycle repeats until every ray has either
// found its hit or run out of candidates.
package tracer

import (
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/scene"
)

const (
	// maxPotint bounds how many candidates one ray contributes per
	// accumulate round. Small values keep rays from hoarding candidates
	// whose bounds a closer hit would have culled.
	maxPotint = 2

	rayJobSize  = 4096
	testJobSize = 10000

	// stripeCount locks serialize intersection updates per ray while
	// letting distinct rays test in parallel.
	stripeCount = 64
)

// potentialInter pairs a ray with a root instance whose bounds it
// crossed.
type potentialInter struct {
	valid    bool
	rayIndex uint32
	objectID uint32
}

// Tracer traces batches of world rays against one scene. It keeps its
// working buffers between calls; one Tracer must not be used from
// multiple goroutines at once.
type Tracer struct {
	scene   *scene.Scene
	workers int

	wrays  []core.WorldRay
	isects []core.Intersection
	rays   []core.Ray
	states []scene.TraversalState
	active []bool

	potints []potentialInter
	stripes [stripeCount]sync.Mutex
}

func New(sc *scene.Scene) *Tracer {
	workers := core.GetConfig().Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Tracer{scene: sc, workers: workers}
}

// Trace intersects every world ray against the scene and fills isects to
// match: closest hit for regular rays, any hit for occlusion rays (which
// only set the Hit flag). len(isects) must be at least len(wrays).
// Returns the number of rays traced.
func (t *Tracer) Trace(wrays []core.WorldRay, isects []core.Intersection) int {
	n := len(wrays)
	t.wrays = wrays
	t.isects = isects[:n]
	t.resize(n)

	for i := 0; i < n; i++ {
		t.isects[i] = core.NewIntersection()
		t.rays[i] = wrays[i].ToRay(core.Identity(), core.Inf32)
		t.rays[i].ID = uint32(i)
		t.states[i] = scene.TraversalState{}
		t.active[i] = t.rays[i].Flags&core.RayDone == 0
	}

	for {
		count := t.accumulate()
		if count == 0 {
			break
		}
		t.sortPotints(count)
		t.test(count)
	}

	core.Stats.RaysTraced.Add(uint64(n))
	return n
}

func (t *Tracer) resize(n int) {
	if cap(t.rays) < n {
		t.rays = make([]core.Ray, n)
		t.states = make([]scene.TraversalState, n)
		t.active = make([]bool, n)
		t.potints = make([]potentialInter, n*maxPotint)
	}
	t.rays = t.rays[:n]
	t.states = t.states[:n]
	t.active = t.active[:n]
	t.potints = t.potints[:n*maxPotint]
}

// accumulate advances every live ray's BVH walk by up to maxPotint
// candidates, then compacts the candidate table. Returns the number of
// candidates gathered; zero means all rays are finished.
func (t *Tracer) accumulate() int {
	for i := range t.potints {
		t.potints[i].valid = false
	}

	accel := t.scene.Root.Accel()
	g := new(errgroup.Group)
	g.SetLimit(t.workers)
	for start := 0; start < len(t.rays); start += rayJobSize {
		start := start
		end := min(start+rayJobSize, len(t.rays))
		g.Go(func() error {
			var ids [maxPotint]uint32
			for i := start; i < end; i++ {
				if !t.active[i] {
					continue
				}
				ray := &t.rays[i]
				isect := &t.isects[i]

				// An occluded shadow ray needs no more candidates.
				if ray.IsOcclusion() && isect.Hit {
					t.active[i] = false
					continue
				}
				if isect.T < ray.MaxT {
					ray.MaxT = isect.T
				}

				pc := accel.PotentialIntersections(ray, ids[:], &t.states[i])
				if pc == 0 {
					t.active[i] = false
					continue
				}
				base := i * maxPotint
				for j := 0; j < pc; j++ {
					t.potints[base+j] = potentialInter{
						valid:    true,
						rayIndex: uint32(i),
						objectID: ids[j],
					}
				}
			}
			return nil
		})
	}
	g.Wait()

	// Slide valid entries into a prefix.
	w := 0
	for r := range t.potints {
		if t.potints[r].valid {
			t.potints[w] = t.potints[r]
			w++
		}
	}
	return w
}

// sortPotints groups candidates by instance so consecutive tests reuse
// each primitive's freshly diced grid.
func (t *Tracer) sortPotints(count int) {
	pots := t.potints[:count]
	sort.Slice(pots, func(i, j int) bool {
		return pots[i].objectID < pots[j].objectID
	})
}

func (t *Tracer) test(count int) {
	pots := t.potints[:count]
	g := new(errgroup.Group)
	g.SetLimit(t.workers)
	for start := 0; start < len(pots); start += testJobSize {
		start := start
		end := min(start+testJobSize, len(pots))
		g.Go(func() error {
			for _, p := range pots[start:end] {
				mu := &t.stripes[p.rayIndex%stripeCount]
				mu.Lock()
				t.testOne(p)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
}

func (t *Tracer) testOne(p potentialInter) {
	wray := &t.wrays[p.rayIndex]
	isect := &t.isects[p.rayIndex]
	if wray.Type == core.OcclusionRay && isect.Hit {
		return
	}
	root := t.scene.Root
	inst := root.Instances()[p.objectID]
	rootRay := &t.rays[p.rayIndex]
	t.testInstance(root, inst, wray, isect, core.Identity(), core.Identity(), p.objectID, rootRay)
}

// testInstance lowers the world ray into the instance's space and tests
// whatever it references. down maps world space into the enclosing
// assembly's space and up maps it back; instID stays the root instance
// for the whole descent. Returns whether a closer hit was recorded.
func (t *Tracer) testInstance(a *scene.Assembly, inst scene.Instance, wray *core.WorldRay,
	isect *core.Intersection, down, up core.Matrix44, instID uint32, rootRay *core.Ray) bool {

	if xf, ok := a.InstanceTransform(inst, wray.Time); ok {
		down = xf.Inv.Mul(down)
		up = up.Mul(xf.Fwd)
	}

	if inst.Type == scene.InstanceAssembly {
		return t.testAssembly(a.SubAssembly(inst.DataIndex), wray, isect, down, up, instID, rootRay)
	}

	prim := a.Object(inst.DataIndex)
	ray := wray.ToRay(down, isect.T)
	if ray.Flags&core.RayDone != 0 {
		return false
	}

	if wray.Type == core.OcclusionRay {
		if prim.IntersectRay(&ray, nil) {
			isect.Hit = true
			return true
		}
		return false
	}

	local := core.NewIntersection()
	hit := prim.IntersectRay(&ray, &local)
	rootRay.Flags |= ray.Flags & core.RayDeeperSplit
	if !hit {
		return false
	}

	worldT := local.T / ray.TScale
	if isect.Hit && worldT >= isect.T {
		return false
	}

	*isect = local
	isect.T = worldT
	isect.P = up.MultPos(local.P)
	isect.In = wray.D.Normalize()
	isect.N = down.MultDirTranspose(local.N).Normalize()
	isect.Offset = up.MultDir(local.Offset)
	isect.OW = local.OW / ray.TScale
	isect.InstanceID = instID
	return true
}

// testAssembly walks a sub-assembly's BVH depth-first against the
// lowered ray. Sub-assembly walks are not resumable; their candidate
// counts are small enough that finishing them inline beats carrying
// per-level traversal state across rounds.
func (t *Tracer) testAssembly(sub *scene.Assembly, wray *core.WorldRay, isect *core.Intersection,
	down, up core.Matrix44, instID uint32, rootRay *core.Ray) bool {

	ray := wray.ToRay(down, isect.T)
	if ray.Flags&core.RayDone != 0 {
		return false
	}

	var state scene.TraversalState
	var ids [maxPotint]uint32
	hitAny := false
	for {
		if isect.Hit && !ray.IsOcclusion() {
			ray.MaxT = min(ray.MaxT, isect.T*ray.TScale)
		}
		pc := sub.Accel().PotentialIntersections(&ray, ids[:], &state)
		if pc == 0 {
			return hitAny
		}
		for j := 0; j < pc; j++ {
			inst := sub.Instances()[ids[j]]
			if t.testInstance(sub, inst, wray, isect, down, up, instID, rootRay) {
				hitAny = true
				if wray.Type == core.OcclusionRay {
					return true
				}
			}
		}
	}
}
