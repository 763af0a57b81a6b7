package scene

import (
	"sort"

	"github.com/micropath/micropath/pkg/core"
)

// Leaves hold exactly one instance, so a suspended traversal never stops
// halfway through emitting a leaf's contents.
type bvhNode struct {
	bounds core.TimeBox[core.BBox]
	parent int32
	right  int32 // second child; the first child is always self+1
	inst   int32 // instance index for leaves, -1 for inner nodes
	axis   uint8 // split axis, orders children by ray direction sign
}

// BVH spatially indexes an assembly's instances. Nodes keep bounds per
// time sample, so traversal interpolates boxes at each ray's time.
type BVH struct {
	nodes []bvhNode
}

const noNode = int32(-1)

// TraversalState is a ray's cursor into the BVH, kept by the tracer next
// to the ray it belongs to. The zero value starts a fresh walk from the
// root.
type TraversalState struct {
	Node  int32
	Depth int32
}

// Done reports whether the walk has exhausted the tree.
func (s TraversalState) Done() bool {
	return s.Node == noNode
}

type bvhItem struct {
	index  int32
	bounds core.TimeBox[core.BBox]
	box    core.BBox // union over time, for build heuristics
	center core.Vec3
}

// NewBVH builds a hierarchy over one time-sampled bound per instance.
// Bounds with differing motion sample counts are resampled to the finest
// count so node unions stay sample-aligned.
func NewBVH(bounds []core.TimeBox[core.BBox]) *BVH {
	b := &BVH{}
	if len(bounds) == 0 {
		return b
	}

	maxSamples := 1
	for _, tb := range bounds {
		if tb.Count() > maxSamples {
			maxSamples = tb.Count()
		}
	}

	items := make([]bvhItem, len(bounds))
	for i, tb := range bounds {
		tb = tb.Resampled(maxSamples, core.LerpBBox)
		union := tb.Samples[0]
		for _, s := range tb.Samples[1:] {
			union = union.Union(s)
		}
		items[i] = bvhItem{
			index:  int32(i),
			bounds: tb,
			box:    union,
			center: union.Center(),
		}
	}

	b.nodes = make([]bvhNode, 0, 2*len(items)-1)
	b.build(items, noNode)
	return b
}

// build appends the subtree for items in depth-first order and returns
// its root index.
func (b *BVH) build(items []bvhItem, parent int32) int32 {
	self := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{parent: parent, inst: -1})

	if len(items) == 1 {
		b.nodes[self].bounds = items[0].bounds
		b.nodes[self].inst = items[0].index
		return self
	}

	axis, split := sahSplit(items)
	b.nodes[self].axis = axis

	left := b.build(items[:split], self)
	right := b.build(items[split:], self)
	b.nodes[self].right = right
	b.nodes[self].bounds = unionTimeBoxes(b.nodes[left].bounds, b.nodes[right].bounds)
	return self
}

// sahSplit orders items along the widest centroid axis and picks the cut
// with the lowest surface-area cost. Degenerate spreads fall back to a
// median cut.
func sahSplit(items []bvhItem) (uint8, int) {
	cb := core.EmptyBBox()
	for _, it := range items {
		cb = cb.UnionPoint(it.center)
	}
	axis := uint8(cb.LongestAxis())

	sort.Slice(items, func(i, j int) bool {
		return items[i].center[axis] < items[j].center[axis]
	})

	n := len(items)
	if cb.Size()[axis] <= 0 {
		return axis, n / 2
	}

	rightArea := make([]float32, n)
	box := core.EmptyBBox()
	for k := n - 1; k >= 0; k-- {
		box = box.Union(items[k].box)
		rightArea[k] = box.SurfaceArea()
	}

	best, bestCost := n/2, core.Inf32
	box = core.EmptyBBox()
	for k := 1; k < n; k++ {
		box = box.Union(items[k-1].box)
		cost := float32(k)*box.SurfaceArea() + float32(n-k)*rightArea[k]
		if cost < bestCost {
			best, bestCost = k, cost
		}
	}
	return axis, best
}

func unionTimeBoxes(a, b core.TimeBox[core.BBox]) core.TimeBox[core.BBox] {
	out := make([]core.BBox, len(a.Samples))
	for i := range out {
		out[i] = a.Samples[i].Union(b.Samples[i])
	}
	return core.NewTimeBox(out...)
}

// NodeCount returns the number of nodes in the hierarchy.
func (b *BVH) NodeCount() int {
	return len(b.nodes)
}

// Bounds returns the root bounds, or an empty box for an empty tree.
func (b *BVH) Bounds() core.TimeBox[core.BBox] {
	if len(b.nodes) == 0 {
		return core.NewTimeBox(core.EmptyBBox())
	}
	return b.nodes[0].bounds
}

// PotentialIntersections resumes the ray's walk and writes up to len(out)
// candidate instance ids, returning how many it found. Descent decisions
// save on the ray's bit stack and the cursor saves in state, so the next
// call picks up exactly where this one stopped. A zero return means the
// ray has exhausted the tree.
func (b *BVH) PotentialIntersections(ray *core.Ray, out []uint32, state *TraversalState) int {
	if state.Node == noNode || len(b.nodes) == 0 || len(out) == 0 {
		state.Node = noNode
		return 0
	}

	count := 0
	node, depth := state.Node, state.Depth
	for {
		n := &b.nodes[node]
		box := n.bounds.At(ray.Time, core.LerpBBox)
		if _, _, hit := box.Intersect(ray, ray.MaxT); hit {
			if n.inst < 0 {
				// Inner node: descend near-side first and leave a
				// pending bit for the far side.
				ray.TravStack.Push(1)
				depth++
				node = b.nearChild(node, ray)
				continue
			}
			out[count] = uint32(n.inst)
			count++
		}

		next, nextDepth, ok := b.backtrack(ray, node, depth)
		if !ok {
			state.Node, state.Depth = noNode, 0
			return count
		}
		node, depth = next, nextDepth
		if count == len(out) {
			state.Node, state.Depth = node, depth
			return count
		}
	}
}

// backtrack walks up the trail until it finds a level with a pending far
// child, consumes the pending bit, and returns that child. False means
// the trail underflowed and the walk is over.
func (b *BVH) backtrack(ray *core.Ray, node, depth int32) (int32, int32, bool) {
	for depth > 0 {
		bit := ray.TravStack.Pop()
		depth--
		node = b.nodes[node].parent
		if bit == 1 {
			far := b.farChild(node, ray)
			ray.TravStack.Push(0)
			return far, depth + 1, true
		}
	}
	return 0, 0, false
}

// nearChild picks the child the ray reaches first, by its direction sign
// on the node's split axis.
func (b *BVH) nearChild(node int32, ray *core.Ray) int32 {
	n := &b.nodes[node]
	if ray.DSign[n.axis] == 0 {
		return node + 1
	}
	return n.right
}

func (b *BVH) farChild(node int32, ray *core.Ray) int32 {
	n := &b.nodes[node]
	if ray.DSign[n.axis] == 0 {
		return n.right
	}
	return node + 1
}
