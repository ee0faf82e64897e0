package sceneio

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// planeQuad returns two triangles forming a unit quad in the XY plane
// with a well-defined UV mapping, so tangent generation has a
// non-degenerate gradient to solve.
func planeQuad() ([]Vertex, []uint32) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, U: 0, V: 0, Normal: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{1, 0, 0}, U: 1, V: 0, Normal: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{1, 1, 0}, U: 1, V: 1, Normal: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{0, 1, 0}, U: 0, V: 1, Normal: mgl32.Vec3{0, 0, 1}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

func TestGenerateTangentsProducesUnitHandedTangents(t *testing.T) {
	vertices, indices := planeQuad()

	if err := generateTangents(vertices, indices); err != nil {
		t.Fatalf("generateTangents failed: %v", err)
	}

	for i, v := range vertices {
		xyz := v.Tangent.Vec3()
		length := xyz.Len()
		if length < 0.99 || length > 1.01 {
			t.Errorf("vertex %d: tangent not unit length, got %f", i, length)
		}
		w := v.Tangent.W()
		if w != 1 && w != -1 {
			t.Errorf("vertex %d: handedness must be +-1, got %f", i, w)
		}
		if dot := v.Normal.Dot(xyz); dot < -1e-3 || dot > 1e-3 {
			t.Errorf("vertex %d: tangent not orthogonal to normal, dot=%f", i, dot)
		}
	}
}

func TestGenerateTangentsFailsOnFullyDegenerateUVs(t *testing.T) {
	vertices, indices := planeQuad()
	for i := range vertices {
		vertices[i].U = 0
		vertices[i].V = 0
	}

	if err := generateTangents(vertices, indices); err == nil {
		t.Fatal("expected an error when every triangle has a degenerate UV gradient")
	}
}

func TestGenerateNormalsProducesUnitNormalsFacingTriangle(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
	}
	indices := []uint32{0, 1, 2}

	generateNormals(vertices, indices)

	for i, v := range vertices {
		length := v.Normal.Len()
		if length < 0.99 || length > 1.01 {
			t.Errorf("vertex %d: normal not unit length, got %f", i, length)
		}
	}
	// The triangle lies in the XY plane, so the normal must point along Z.
	if z := vertices[0].Normal.Z(); z < 0.99 && z > -0.99 {
		t.Errorf("expected normal along +-Z for an XY-plane triangle, got %v", vertices[0].Normal)
	}
}
