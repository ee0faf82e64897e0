// Package sceneio parses glTF scenes into the flat vertex/index/primitive
// layout the path tracer's scene assembler consumes, generating tangents
// when a source file omits them.
package sceneio

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the per-vertex attribute block uploaded to the GPU vertex
// buffer, laid out to match the shader's expected struct: a vec3/f32 pair
// for position+u, another for normal+v, keeping 16-byte vector reads
// aligned, followed by the encoded tangent (xyz direction, w handedness).
type Vertex struct {
	Position mgl32.Vec3
	U        float32
	Normal   mgl32.Vec3
	V        float32
	Tangent  mgl32.Vec4
}

// Geometry is a half-open range into the scene's global index buffer,
// one per glTF mesh primitive.
type Geometry struct {
	IndexStart uint32
	IndexEnd   uint32
}

// Primitive is a single scene instance: a geometry placed in the world by
// a node transform, carrying its own material parameters. Named after the
// source format's mesh "primitive", not the BVH's triangle primitive.
type Primitive struct {
	LocalToWorld mgl32.Mat4
	Color        mgl32.Vec4
	Roughness    float32
	Metallic     float32
	Emissive     float32
	Geometry     Geometry
}

// Scene is the fully parsed, GPU-layout-ready scene graph: a flat vertex
// and index buffer shared by every geometry, and the list of instances
// that reference ranges within it.
type Scene struct {
	Vertices   []Vertex
	Indices    []uint32
	Primitives []Primitive
}
