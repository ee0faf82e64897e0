package scenegpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/sceneio"
)

// unitQuad returns two triangles forming a unit quad in the XY plane,
// used as a single geometry referenced by one or more instances.
func unitQuad() ([]sceneio.Vertex, []uint32) {
	vertices := []sceneio.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec4{1, 0, 0, 1}},
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec4{1, 0, 0, 1}},
		{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec4{1, 0, 0, 1}},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec4{1, 0, 0, 1}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

func twoInstanceScene() *sceneio.Scene {
	vertices, indices := unitQuad()
	geometry := sceneio.Geometry{IndexStart: 0, IndexEnd: uint32(len(indices))}

	return &sceneio.Scene{
		Vertices: vertices,
		Indices:  indices,
		Primitives: []sceneio.Primitive{
			{
				LocalToWorld: mgl32.Ident4(),
				Color:        mgl32.Vec4{1, 1, 1, 1},
				Roughness:    0.5,
				Metallic:     0,
				Geometry:     geometry,
			},
			{
				LocalToWorld: mgl32.Translate3D(5, 0, 0),
				Color:        mgl32.Vec4{0, 1, 0, 1},
				Roughness:    0.2,
				Metallic:     1,
				Geometry:     geometry,
			},
		},
	}
}

func TestAssembleProducesOneBLASRootPerInstance(t *testing.T) {
	scene := twoInstanceScene()
	assembled := Assemble(scene, rtlog.NewNop())

	if assembled.InstanceCount != 2 {
		t.Fatalf("expected 2 instances, got %d", assembled.InstanceCount)
	}
	if len(assembled.BLASNodes) == 0 {
		t.Fatal("expected at least one BLAS node per instance")
	}
	// A 2-triangle leaf is small enough that split_node rejects splitting
	// (count <= 1 never reached here, but a 2-leaf quad is near the
	// threshold where cost rarely favors a split), so each instance's
	// BLAS may be a single root leaf; either way two instances should
	// not collapse into fewer than two BLAS roots worth of nodes.
	if len(assembled.BLASNodes) < 2 {
		t.Fatalf("expected at least 2 BLAS nodes (one root per instance), got %d", len(assembled.BLASNodes))
	}
}

func TestAssembleTLASCoversBothInstanceBounds(t *testing.T) {
	scene := twoInstanceScene()
	assembled := Assemble(scene, rtlog.NewNop())

	if len(assembled.TLASNodes) == 0 {
		t.Fatal("expected a non-empty TLAS")
	}
	root := assembled.TLASNodes[0]
	// The second instance is translated +5 on X, so the TLAS root must
	// span at least that far to contain both instances' world bounds.
	if root.Max.X() < 5.9 {
		t.Errorf("expected TLAS root to reach the translated instance, max.X=%f", root.Max.X())
	}
	if root.Min.X() > 0.1 {
		t.Errorf("expected TLAS root to still contain the origin instance, min.X=%f", root.Min.X())
	}
}

func TestAssembleByteBufferSizesMatchCounts(t *testing.T) {
	scene := twoInstanceScene()
	assembled := Assemble(scene, rtlog.NewNop())

	if got, want := len(assembled.InstanceBytes), int(assembled.InstanceCount)*instanceByteSize; got != want {
		t.Errorf("instance bytes: got %d, want %d", got, want)
	}
	if got, want := len(assembled.VertexBytes), int(assembled.VertexCount)*48; got != want {
		t.Errorf("vertex bytes: got %d, want %d", got, want)
	}
	if got, want := len(assembled.IndexBytes), int(assembled.IndexCount)*4; got != want {
		t.Errorf("index bytes: got %d, want %d", got, want)
	}
}

func TestAssembleFlattensIndicesToBLASOrder(t *testing.T) {
	scene := twoInstanceScene()
	originalLen := len(scene.Indices)

	Assemble(scene, rtlog.NewNop())

	if len(scene.Indices) != originalLen {
		t.Fatalf("flatten must not change index count: got %d, want %d", len(scene.Indices), originalLen)
	}
	// Every index must still reference a valid vertex after permutation.
	for _, idx := range scene.Indices {
		if int(idx) >= len(scene.Vertices) {
			t.Fatalf("index %d out of range after flatten (vertex count %d)", idx, len(scene.Vertices))
		}
	}
}
