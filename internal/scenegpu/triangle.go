package scenegpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/sceneio"
)

// triangle is a BVH leaf primitive backed by the scene's global vertex
// buffer: it carries only the three vertex indices plus cached bounds,
// leaving the heavy vertex data untouched until the BLAS permutes
// indices back into triangle order.
type triangle struct {
	i0, i1, i2    uint32
	min, max, mid mgl32.Vec3
}

func (t triangle) Min() mgl32.Vec3    { return t.min }
func (t triangle) Max() mgl32.Vec3    { return t.max }
func (t triangle) Center() mgl32.Vec3 { return t.mid }

// buildTriangleCache groups the scene's flat index buffer into
// triangles and precomputes each one's bounds and centroid once, since
// the BVH builder queries them repeatedly during splitting.
func buildTriangleCache(vertices []sceneio.Vertex, indices []uint32) []triangle {
	count := len(indices) / 3
	triangles := make([]triangle, count)

	for i := 0; i < count; i++ {
		i0, i1, i2 := indices[i*3], indices[i*3+1], indices[i*3+2]
		v0 := vertices[i0].Position
		v1 := vertices[i1].Position
		v2 := vertices[i2].Position

		triangles[i] = triangle{
			i0:  i0,
			i1:  i1,
			i2:  i2,
			min: componentMin(componentMin(v0, v1), v2),
			max: componentMax(componentMax(v0, v1), v2),
			mid: v0.Add(v1).Add(v2).Mul(1.0 / 3.0),
		}
	}
	return triangles
}

// flattenTriangleList writes the BVH-permuted triangle order back into
// the scene's index buffer, so index i*3..i*3+3 always matches BLAS
// leaf range [i,i+1).
func flattenTriangleList(triangles []triangle, indices []uint32) {
	for i, t := range triangles {
		indices[i*3+0] = t.i0
		indices[i*3+1] = t.i1
		indices[i*3+2] = t.i2
	}
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
