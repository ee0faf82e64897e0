package sceneio

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/rterr"
)

// generateNormals computes smooth per-vertex normals from triangle
// topology when a glTF primitive omits the NORMAL attribute. Each
// triangle's face normal (unnormalized, so larger triangles carry more
// weight) is accumulated onto its three vertices, then the result is
// normalized.
func generateNormals(vertices []Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position

		edge1 := p1.Sub(p0)
		edge2 := p2.Sub(p0)
		face := edge1.Cross(edge2)

		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	for i := range vertices {
		n := accum[i]
		if length := n.Len(); length > 1e-6 {
			vertices[i].Normal = n.Mul(1 / length)
		} else {
			vertices[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

// generateTangents derives per-vertex tangents from triangle UV gradients
// (the MikkTSpace contract, hand-implemented since no Go MikkTSpace
// binding exists): for every triangle, solve the 2x2 UV-to-edge system for
// a tangent and bitangent, accumulate them onto the triangle's vertices,
// then Gram-Schmidt orthonormalize each accumulated tangent against the
// vertex normal. The tangent's w stores handedness, the sign needed to
// reconstruct the bitangent as cross(normal, tangent.xyz) * w.
//
// Returns TangentGenerationFailed if no triangle contributed a tangent,
// which only happens when every UV gradient is degenerate (all texcoords
// identical).
func generateTangents(vertices []Vertex, indices []uint32) error {
	tan := make([]mgl32.Vec3, len(vertices))
	btan := make([]mgl32.Vec3, len(vertices))
	contributed := false

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		uv0 := mgl32.Vec2{vertices[i0].U, vertices[i0].V}
		uv1 := mgl32.Vec2{vertices[i1].U, vertices[i1].V}
		uv2 := mgl32.Vec2{vertices[i2].U, vertices[i2].V}

		edge1 := p1.Sub(p0)
		edge2 := p2.Sub(p0)
		duv1 := uv1.Sub(uv0)
		duv2 := uv2.Sub(uv0)

		det := duv1.X()*duv2.Y() - duv1.Y()*duv2.X()
		if det == 0 {
			continue
		}
		invDet := 1 / det

		t := edge1.Mul(duv2.Y()).Sub(edge2.Mul(duv1.Y())).Mul(invDet)
		b := edge2.Mul(duv1.X()).Sub(edge1.Mul(duv2.X())).Mul(invDet)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			btan[idx] = btan[idx].Add(b)
		}
		contributed = true
	}

	if !contributed {
		return rterr.New(rterr.TangentGenerationFailed, "no triangle produced a usable UV gradient")
	}

	for i := range vertices {
		normal := vertices[i].Normal
		t := tan[i]

		ortho := t.Sub(normal.Mul(normal.Dot(t)))
		length := ortho.Len()
		if length < 1e-6 {
			vertices[i].Tangent = mgl32.Vec4{1, 0, 0, 1}
			continue
		}
		ortho = ortho.Mul(1 / length)

		w := float32(1)
		if normal.Cross(ortho).Dot(btan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = ortho.Vec4(w)
	}
	return nil
}
