// Package bvh builds a Surface Area Heuristic bounding-volume hierarchy
// over any primitive exposing Min/Max/Center, using an adaptive
// brute-force/binned split strategy and an in-place partition that
// permutes the caller's primitive slice.
package bvh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Primitive is the capability set the builder needs from a leaf. Both
// triangles (scene-space) and instances-with-world-bounds satisfy it.
type Primitive interface {
	Min() mgl32.Vec3
	Max() mgl32.Vec3
	Center() mgl32.Vec3
}

// Node is a 32-byte flat BVH node. A leaf has End > Start, covering the
// half-open primitive range [Start, End). An inner node has End == 0
// (the sentinel) with Start holding the left child's index; the right
// child is always Start+1.
type Node struct {
	Min   mgl32.Vec3
	Start uint32
	Max   mgl32.Vec3
	End   uint32
}

// IsLeaf reports whether n is a leaf node.
func (n Node) IsLeaf() bool { return n.End > 0 }

// Range returns the leaf's half-open primitive range. Only valid on leaves.
func (n Node) Range() (start, end uint32) { return n.Start, n.End }

// Count returns the number of primitives in a leaf's range.
func (n Node) Count() uint32 { return n.End - n.Start }

// Bytes encodes the node in the 32-byte wire format:
// {min[3]: f32, start: u32, max[3]: f32, end: u32}.
func (n Node) Bytes() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(n.Min.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(n.Min.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(n.Min.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], n.Start)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(n.Max.X()))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(n.Max.Y()))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(n.Max.Z()))
	binary.LittleEndian.PutUint32(buf[28:32], n.End)
	return buf
}

func newLeaf[P Primitive](primitives []P, start, end uint32) Node {
	min := primitives[start].Min()
	max := primitives[start].Max()
	for i := start + 1; i < end; i++ {
		min = componentMin(min, primitives[i].Min())
		max = componentMax(max, primitives[i].Max())
	}
	return Node{Min: min, Start: start, Max: max, End: end}
}

func (n Node) cost() float32 {
	extent := n.Max.Sub(n.Min)
	if isFiniteVec3(extent) {
		area := extent.X()*extent.Y() + extent.X()*extent.Z() + extent.Y()*extent.Z()
		return float32(n.Count()) * area
	}
	return float32(math.Inf(1))
}

func isFiniteVec3(v mgl32.Vec3) bool {
	return !math.IsInf(float64(v.X()), 0) && !math.IsInf(float64(v.Y()), 0) && !math.IsInf(float64(v.Z()), 0) &&
		!math.IsNaN(float64(v.X())) && !math.IsNaN(float64(v.Y())) && !math.IsNaN(float64(v.Z()))
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a.X(), b.X()), min32(a.Y(), b.Y()), min32(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a.X(), b.X()), max32(a.Y(), b.Y()), max32(a.Z(), b.Z())}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// bin is builder scratch representing a half-open centroid range.
type bin struct {
	min, max mgl32.Vec3
	count    uint32
}

func newBin() bin {
	inf := float32(math.Inf(1))
	return bin{
		min:   mgl32.Vec3{inf, inf, inf},
		max:   mgl32.Vec3{-inf, -inf, -inf},
		count: 0,
	}
}

func (b *bin) include(p Primitive) {
	b.min = componentMin(b.min, p.Min())
	b.max = componentMax(b.max, p.Max())
	b.count++
}

func (b *bin) includeBin(o bin) {
	b.min = componentMin(b.min, o.min)
	b.max = componentMax(b.max, o.max)
	b.count += o.count
}

func (b bin) cost() float32 {
	extent := b.max.Sub(b.min)
	if isFiniteVec3(extent) {
		area := extent.X()*extent.Y() + extent.X()*extent.Z() + extent.Y()*extent.Z()
		return float32(b.count) * area
	}
	return float32(math.Inf(1))
}

func (b bin) toNode(start uint32) Node {
	return Node{Min: b.min, Start: start, Max: b.max, End: start + b.count}
}

const (
	maxDepth = 32
	nBins    = 16
)

// Tree holds a flat, append-only BVH node array. A single Tree can hold
// several independently rooted sub-trees (a forest) when Append is
// called more than once — this is how a BLAS-per-mesh is assembled
// into one buffer.
type Tree struct {
	nodes []Node
}

// Nodes returns the tree's flat node array, in append order.
func (t *Tree) Nodes() []Node { return t.nodes }

type stackEntry struct {
	depth uint32
	index uint32
}

// Append builds a BVH over primitives[start:end], appending
// nodes to the tree and reordering that sub-slice in place so every
// leaf's range is contiguous. It returns the index of the new root.
func Append[P Primitive](t *Tree, primitives []P, start, end uint32) uint32 {
	var stack []stackEntry

	rootIndex := uint32(len(t.nodes))
	t.nodes = append(t.nodes, newLeaf(primitives, start, end))
	stack = append(stack, stackEntry{depth: 0, index: rootIndex})

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth >= maxDepth {
			continue
		}

		node := t.nodes[top.index]
		left, right, ok := splitNode(primitives, node)
		if !ok {
			continue
		}

		leftIndex := uint32(len(t.nodes))
		rightIndex := leftIndex + 1
		t.nodes[top.index].End = 0 // sentinel: inner node
		t.nodes[top.index].Start = leftIndex
		t.nodes = append(t.nodes, left, right)
		stack = append(stack, stackEntry{depth: top.depth + 1, index: leftIndex})
		stack = append(stack, stackEntry{depth: top.depth + 1, index: rightIndex})
	}

	return rootIndex
}

// Build is the single-append convenience that returns a fresh tree
// covering primitives[start:end].
func Build[P Primitive](primitives []P, start, end uint32) *Tree {
	t := &Tree{}
	Append(t, primitives, start, end)
	return t
}

type split struct {
	axis int
	mid  float32
}

func splitNode[P Primitive](primitives []P, parent Node) (left, right Node, ok bool) {
	switch count := parent.Count(); {
	case count <= 1:
		return Node{}, Node{}, false
	case count == 2:
		l := newLeaf(primitives, parent.Start, parent.Start+1)
		r := newLeaf(primitives, parent.Start+1, parent.Start+2)
		if l.cost()+r.cost() < parent.cost() {
			return l, r, true
		}
		return Node{}, Node{}, false
	case count <= 11:
		s, found := findBestSplit(primitives, parent)
		if !found {
			return Node{}, Node{}, false
		}
		return partition(primitives, parent, s)
	default:
		s, found := approximateBestSplit(primitives, parent)
		if !found {
			return Node{}, Node{}, false
		}
		return partition(primitives, parent, s)
	}
}

func axisOf(v mgl32.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}

// findBestSplit performs brute-force SAH: for each axis and each
// primitive centroid in the range, evaluate the partition cost.
func findBestSplit[P Primitive](primitives []P, parent Node) (split, bool) {
	bestCost := parent.cost()
	found := false
	var result split

	for axis := 0; axis < 3; axis++ {
		for i := parent.Start; i < parent.End; i++ {
			mid := axisOf(primitives[i].Center(), axis)
			left, right := newBin(), newBin()
			for j := parent.Start; j < parent.End; j++ {
				p := primitives[j]
				if axisOf(p.Center(), axis) < mid {
					left.include(p)
				} else {
					right.include(p)
				}
			}
			cost := left.cost() + right.cost()
			if cost < bestCost {
				bestCost = cost
				result = split{axis: axis, mid: mid}
				found = true
			}
		}
	}
	return result, found
}

// approximateBestSplit performs binned SAH with 16 bins per axis.
func approximateBestSplit[P Primitive](primitives []P, parent Node) (split, bool) {
	var bins [nBins * 3]bin
	for i := range bins {
		bins[i] = newBin()
	}

	extent := parent.Max.Sub(parent.Min)
	step := mgl32.Vec3{extent.X() / nBins, extent.Y() / nBins, extent.Z() / nBins}

	for i := parent.Start; i < parent.End; i++ {
		p := primitives[i]
		c := p.Center()
		for axis := 0; axis < 3; axis++ {
			s := axisOf(step, axis)
			var idx int
			if s > 0 {
				idx = int(math.Floor(float64((axisOf(c, axis) - axisOf(parent.Min, axis)) / s)))
			}
			if idx < 0 {
				idx = 0
			}
			if idx > nBins-1 {
				idx = nBins - 1
			}
			bins[axis*nBins+idx].include(p)
		}
	}

	bestCost := parent.cost()
	found := false
	var result split

	for axis := 0; axis < 3; axis++ {
		left := newBin()
		for i := 0; i < nBins-1; i++ {
			left.includeBin(bins[axis*nBins+i])
			right := newBin()
			for j := i + 1; j < nBins; j++ {
				right.includeBin(bins[axis*nBins+j])
			}
			cost := left.cost() + right.cost()
			if cost < bestCost {
				bestCost = cost
				mid := axisOf(parent.Min, axis) + axisOf(step, axis)*float32(i+1)
				result = split{axis: axis, mid: mid}
				found = true
			}
		}
	}
	return result, found
}

// partition sweeps the parent's range once, swapping primitives whose
// centroid is < mid into the left side, in place. Exactly-equal
// centroids go right. The split is rejected (ok=false) if either side
// ends up empty.
func partition[P Primitive](primitives []P, parent Node, s split) (left, right Node, ok bool) {
	l, r := newBin(), newBin()

	for i := parent.Start; i < parent.End; i++ {
		p := primitives[i]
		if axisOf(p.Center(), s.axis) < s.mid {
			l.include(p)
			swapIndex := parent.Start + l.count - 1
			primitives[i], primitives[swapIndex] = primitives[swapIndex], primitives[i]
		} else {
			r.include(p)
		}
	}

	if l.count == 0 || r.count == 0 {
		return Node{}, Node{}, false
	}

	leftNode := l.toNode(parent.Start)
	rightNode := r.toNode(parent.Start + leftNode.Count())
	return leftNode, rightNode, true
}
