// Package scenegpu turns a parsed scene into the flat buffers a
// two-level BVH path tracer dispatches against: a BLAS per geometry, a
// TLAS over per-instance world bounds, and the instance/vertex/index
// streams in the node-matching order the BLAS build left them in.
package scenegpu

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/bvh"
	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/sceneio"
)

// Assembled holds every byte buffer a renderer needs to upload, ready
// to hand to a GPU backend without further CPU-side transformation.
type Assembled struct {
	BLASNodes     []bvh.Node
	TLASNodes     []bvh.Node
	InstanceBytes []byte
	VertexBytes   []byte
	IndexBytes    []byte
	InstanceCount uint32
	VertexCount   uint32
	IndexCount    uint32
}

// Assemble builds the BLAS/TLAS pair and the packed wire buffers for a
// parsed scene. One BLAS is appended per primitive's own triangle
// range, so geometry instanced by several nodes shares no BLAS nodes
// today — each instance gets its own build, matching the one
// triangle-range-per-primitive shape sceneio produces.
func Assemble(scene *sceneio.Scene, log rtlog.Logger) *Assembled {
	start := time.Now()

	triangles := buildTriangleCache(scene.Vertices, scene.Indices)

	blas := &bvh.Tree{}
	bounded := make([]instanceWithBounds, 0, len(scene.Primitives))

	for _, prim := range scene.Primitives {
		triStart := prim.Geometry.IndexStart / 3
		triEnd := prim.Geometry.IndexEnd / 3

		rootIndex := bvh.Append(blas, triangles, triStart, triEnd)
		root := blas.Nodes()[rootIndex]

		inst := instance{
			worldToLocal: prim.LocalToWorld.Inv(),
			localToWorld: prim.LocalToWorld,
			color:        prim.Color,
			roughness:    prim.Roughness,
			metallic:     prim.Metallic,
			emissive:     prim.Emissive,
			node:         rootIndex,
		}
		bounded = append(bounded, approximateFromInstance(inst, root.Min, root.Max))
	}

	buildElapsed := time.Since(start)

	tlas := bvh.Build(bounded, 0, uint32(len(bounded)))

	// The BLAS build permuted `triangles` within each primitive's own
	// range; write that order back into the scene's shared index buffer
	// so leaf ranges stay triangle-contiguous on the GPU side too.
	flattenTriangleList(triangles, scene.Indices)

	instanceBytes := make([]byte, 0, len(bounded)*instanceByteSize)
	for _, b := range bounded {
		instanceBytes = append(instanceBytes, b.instance.bytes()...)
	}

	log.Tracef("assembled scene (%d primitives, %d triangles, blas build %s)",
		len(scene.Primitives), len(triangles), buildElapsed)

	return &Assembled{
		BLASNodes:     blas.Nodes(),
		TLASNodes:     tlas.Nodes(),
		InstanceBytes: instanceBytes,
		VertexBytes:   vertexBytes(scene.Vertices),
		IndexBytes:    indexBytes(scene.Indices),
		InstanceCount: uint32(len(bounded)),
		VertexCount:   uint32(len(scene.Vertices)),
		IndexCount:    uint32(len(scene.Indices)),
	}
}

func vertexBytes(vertices []sceneio.Vertex) []byte {
	const stride = 12 + 4 + 12 + 4 + 16
	buf := make([]byte, len(vertices)*stride)
	for i, v := range vertices {
		off := i * stride
		off += writeVec3(buf[off:], v.Position)
		off += writeFloat32(buf[off:], v.U)
		off += writeVec3(buf[off:], v.Normal)
		off += writeFloat32(buf[off:], v.V)
		writeVec4(buf[off:], v.Tangent)
	}
	return buf
}

func indexBytes(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func writeVec3(buf []byte, v mgl32.Vec3) int {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Z()))
	return 12
}
