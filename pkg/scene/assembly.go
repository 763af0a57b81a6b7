package scene

import (
	"github.com/pkg/errors"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/geometry"
)

// ErrUnknownName is returned when an instance references an object or
// sub-assembly name that was never added.
var ErrUnknownName = errors.New("unknown name")

// InstanceType tells what an instance references.
type InstanceType uint8

const (
	InstanceObject InstanceType = iota
	InstanceAssembly
)

// Instance places an object or a sub-assembly into an assembly. The
// transforms, if any, map the instance's local space into the enclosing
// assembly's space; more than one transform sample gives the instance
// motion blur.
type Instance struct {
	Type       InstanceType
	DataIndex  int
	XformIndex int
	XformCount int
}

const maxSplitDepth = 8

// Assembly is a node of the scene graph: a flat pool of objects,
// sub-assemblies and lights, placed by instances. Finalize builds the
// instance BVH and the light table; after that the assembly is
// immutable and safe for concurrent traversal.
type Assembly struct {
	objects    []geometry.Primitive
	assemblies []*Assembly
	lights     []Light
	instances  []Instance
	xforms     []core.Transform

	objectNames   map[string]int
	assemblyNames map[string]int

	accel     *BVH
	lightTree *LightTree
	finalized bool
}

func NewAssembly() *Assembly {
	return &Assembly{
		objectNames:   make(map[string]int),
		assemblyNames: make(map[string]int),
	}
}

// AddObject registers a primitive under a name so instances can
// reference it. Adding alone places nothing in the scene.
func (a *Assembly) AddObject(name string, obj geometry.Primitive) {
	a.objectNames[name] = len(a.objects)
	a.objects = append(a.objects, obj)
}

// AddAssembly registers a sub-assembly under a name.
func (a *Assembly) AddAssembly(name string, sub *Assembly) {
	a.assemblyNames[name] = len(a.assemblies)
	a.assemblies = append(a.assemblies, sub)
}

// AddLight adds an emitter. Lights are not geometry and ignore instance
// transforms; they shine from where they were built.
func (a *Assembly) AddLight(l Light) {
	a.lights = append(a.lights, l)
}

// CreateObjectInstance places a named object, optionally under
// time-sampled transforms.
func (a *Assembly) CreateObjectInstance(name string, xforms []core.Transform) error {
	idx, ok := a.objectNames[name]
	if !ok {
		return errors.Wrapf(ErrUnknownName, "no object named %q", name)
	}
	a.addInstance(Instance{Type: InstanceObject, DataIndex: idx}, xforms)
	return nil
}

// CreateAssemblyInstance places a named sub-assembly, optionally under
// time-sampled transforms.
func (a *Assembly) CreateAssemblyInstance(name string, xforms []core.Transform) error {
	idx, ok := a.assemblyNames[name]
	if !ok {
		return errors.Wrapf(ErrUnknownName, "no assembly named %q", name)
	}
	a.addInstance(Instance{Type: InstanceAssembly, DataIndex: idx}, xforms)
	return nil
}

func (a *Assembly) addInstance(inst Instance, xforms []core.Transform) {
	inst.XformIndex = len(a.xforms)
	inst.XformCount = len(xforms)
	a.xforms = append(a.xforms, xforms...)
	a.instances = append(a.instances, inst)
}

// Finalize prepares the assembly for rendering: sub-assemblies finalize
// first, oversized objects are pre-split, then the instance BVH and the
// light table are built. Name maps are dropped; no instances can be
// created afterwards.
func (a *Assembly) Finalize() error {
	if a.finalized {
		return nil
	}
	for _, sub := range a.assemblies {
		if err := sub.Finalize(); err != nil {
			return err
		}
	}

	a.splitOversizedObjects()

	bounds := make([]core.TimeBox[core.BBox], len(a.instances))
	for i := range a.instances {
		bounds[i] = a.instanceBounds(a.instances[i])
	}
	a.accel = NewBVH(bounds)
	a.lightTree = newLightTree(a)

	a.objectNames = nil
	a.assemblyNames = nil
	a.finalized = true
	return nil
}

// splitOversizedObjects cuts diceable objects that could not be diced at
// full resolution without blowing past the grid budget, replacing each
// affected instance with one instance per piece. Ray-time splitting
// still happens for footprints finer than expected; this pass just keeps
// the common case inside one grid.
func (a *Assembly) splitOversizedObjects() {
	cfg := core.GetConfig()
	budget := cfg.MaxGridSize * cfg.MaxGridSize
	children := make(map[int][]int)

	n := len(a.objects)
	for i := 0; i < n; i++ {
		d, ok := a.objects[i].(geometry.Diceable)
		if !ok {
			continue
		}
		parts := splitToBudget(d, budget, maxSplitDepth)
		if len(parts) < 2 {
			continue
		}
		idxs := make([]int, len(parts))
		for j, p := range parts {
			idxs[j] = len(a.objects)
			a.objects = append(a.objects, p)
		}
		children[i] = idxs
	}
	if len(children) == 0 {
		return
	}

	out := make([]Instance, 0, len(a.instances))
	for _, inst := range a.instances {
		idxs, ok := children[inst.DataIndex]
		if inst.Type != InstanceObject || !ok {
			out = append(out, inst)
			continue
		}
		for _, ci := range idxs {
			out = append(out, Instance{
				Type:       InstanceObject,
				DataIndex:  ci,
				XformIndex: inst.XformIndex,
				XformCount: inst.XformCount,
			})
		}
	}
	a.instances = out
}

// splitToBudget bisects d until dicing it at its natural footprint fits
// within twice the grid budget. The slack absorbs the power-of-two
// rounding of dice rates, which would otherwise re-cross the budget on
// every halving of a skewed primitive.
func splitToBudget(d geometry.Diceable, budget, depth int) []geometry.Diceable {
	w := naturalWidth(d)
	if depth == 0 || w <= 0 || d.MicroEstimate(w) <= 2*budget {
		return []geometry.Diceable{d}
	}
	first, second := d.Split()
	return append(splitToBudget(first, budget, depth-1), splitToBudget(second, budget, depth-1)...)
}

// naturalWidth estimates the coarsest ray footprint that still dices d
// at full grid resolution: the median bounding extent divided by the
// grid cap, adjusted for the dice rate.
func naturalWidth(d geometry.Diceable) float32 {
	cfg := core.GetConfig()
	tb := d.Bounds()
	b := core.EmptyBBox()
	for _, s := range tb.Samples {
		b = b.Union(s)
	}
	size := b.Size()
	m := median3(size[0], size[1], size[2])
	return m / (float32(cfg.MaxGridSize) * cfg.DiceRate)
}

func median3(a, b, c float32) float32 {
	return max(min(a, b), min(max(a, b), c))
}

// instanceBounds lifts the bounds of whatever the instance references
// into this assembly's space, resampling so the result has one box per
// transform sample when the transforms are the denser sequence.
func (a *Assembly) instanceBounds(inst Instance) core.TimeBox[core.BBox] {
	var tb core.TimeBox[core.BBox]
	if inst.Type == InstanceObject {
		tb = a.objects[inst.DataIndex].Bounds()
	} else {
		tb = a.assemblies[inst.DataIndex].accel.Bounds()
	}
	if inst.XformCount == 0 {
		return core.NewTimeBox(append([]core.BBox(nil), tb.Samples...)...)
	}

	xforms := a.xforms[inst.XformIndex : inst.XformIndex+inst.XformCount]
	bcount := tb.Count()
	xcount := len(xforms)

	switch {
	case bcount == xcount:
		out := make([]core.BBox, bcount)
		for i := range out {
			out[i] = tb.Samples[i].Transformed(xforms[i].Fwd)
		}
		return core.NewTimeBox(out...)

	case bcount > xcount:
		// Denser boxes: evaluate the transform sequence at each box time.
		xtb := core.NewTimeBox(xforms...)
		out := make([]core.BBox, bcount)
		for i := range out {
			t := float32(0)
			if bcount > 1 {
				t = float32(i) / float32(bcount-1)
			}
			xf := xtb.At(t, core.LerpTransform)
			out[i] = tb.Samples[i].Transformed(xf.Fwd)
		}
		return core.NewTimeBox(out...)

	default:
		// Denser transforms: evaluate the box sequence at each transform time.
		out := make([]core.BBox, xcount)
		for i := range out {
			t := float32(0)
			if xcount > 1 {
				t = float32(i) / float32(xcount-1)
			}
			b := tb.At(t, core.LerpBBox)
			out[i] = b.Transformed(xforms[i].Fwd)
		}
		return core.NewTimeBox(out...)
	}
}

// InstanceTransform evaluates an instance's transform at the given time.
// The second return is false when the instance carries no transforms.
func (a *Assembly) InstanceTransform(inst Instance, time float32) (core.Transform, bool) {
	if inst.XformCount == 0 {
		return core.IdentityTransform(), false
	}
	xtb := core.NewTimeBox(a.xforms[inst.XformIndex : inst.XformIndex+inst.XformCount]...)
	return xtb.At(time, core.LerpTransform), true
}

// Accel returns the instance BVH. Nil before Finalize.
func (a *Assembly) Accel() *BVH {
	return a.accel
}

// Instances returns the instance table. Callers must not mutate it.
func (a *Assembly) Instances() []Instance {
	return a.instances
}

func (a *Assembly) Object(i int) geometry.Primitive {
	return a.objects[i]
}

func (a *Assembly) SubAssembly(i int) *Assembly {
	return a.assemblies[i]
}

// LightTree returns the finite-light table. Nil before Finalize.
func (a *Assembly) LightTree() *LightTree {
	return a.lightTree
}
