package scenegpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// instanceByteSize is the wire size of one packed instance record:
// two 4x4 matrices, a color, three scalar material factors, and the
// BLAS root node index, with no trailing padding needed since every
// field is already a multiple of 4 bytes.
const instanceByteSize = 64 + 64 + 16 + 4 + 4 + 4 + 4

// instance is one scene primitive's GPU-facing record: its placement in
// both directions (world<->local, since local space is where the BLAS
// was built), its material, and which BLAS root to trace against.
type instance struct {
	worldToLocal                  mgl32.Mat4
	localToWorld                  mgl32.Mat4
	color                         mgl32.Vec4
	roughness, metallic, emissive float32
	node                          uint32
}

func (i instance) bytes() []byte {
	buf := make([]byte, instanceByteSize)
	off := 0
	off += writeMat4(buf[off:], i.worldToLocal)
	off += writeMat4(buf[off:], i.localToWorld)
	off += writeVec4(buf[off:], i.color)
	off += writeFloat32(buf[off:], i.roughness)
	off += writeFloat32(buf[off:], i.metallic)
	off += writeFloat32(buf[off:], i.emissive)
	writeUint32(buf[off:], i.node)
	return buf
}

// instanceWithBounds pairs an instance with a conservative world-space
// AABB, the TLAS's leaf primitive. The bounds are an 8-corner transform
// of the instance's local BLAS-root AABB rather than an exact
// recomputation, matching the approximation a two-level BVH typically
// accepts in exchange for not re-walking triangle data per instance.
type instanceWithBounds struct {
	instance           instance
	worldMin, worldMax mgl32.Vec3
}

func (i instanceWithBounds) Min() mgl32.Vec3    { return i.worldMin }
func (i instanceWithBounds) Max() mgl32.Vec3    { return i.worldMax }
func (i instanceWithBounds) Center() mgl32.Vec3 { return i.worldMin.Add(i.worldMax).Mul(0.5) }

// approximateFromInstance transforms the 8 corners of a local AABB
// through the instance's local-to-world matrix and takes their bounds,
// the standard conservative approximation for a transformed box.
func approximateFromInstance(inst instance, localMin, localMax mgl32.Vec3) instanceWithBounds {
	inf := float32(math.Inf(1))
	worldMin := mgl32.Vec3{inf, inf, inf}
	worldMax := mgl32.Vec3{-inf, -inf, -inf}

	for corner := 0; corner < 8; corner++ {
		local := mgl32.Vec3{
			pick(corner&1 != 0, localMin.X(), localMax.X()),
			pick(corner&2 != 0, localMin.Y(), localMax.Y()),
			pick(corner&4 != 0, localMin.Z(), localMax.Z()),
		}
		world := inst.localToWorld.Mul4x1(local.Vec4(1)).Vec3()
		worldMin = componentMin(worldMin, world)
		worldMax = componentMax(worldMax, world)
	}

	return instanceWithBounds{instance: inst, worldMin: worldMin, worldMax: worldMax}
}

func pick(b bool, ifTrue, ifFalse float32) float32 {
	if b {
		return ifTrue
	}
	return ifFalse
}

func writeMat4(buf []byte, m mgl32.Mat4) int {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return 64
}

func writeVec4(buf []byte, v mgl32.Vec4) int {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.W()))
	return 16
}

func writeFloat32(buf []byte, f float32) int {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f))
	return 4
}

func writeUint32(buf []byte, v uint32) int {
	binary.LittleEndian.PutUint32(buf[0:4], v)
	return 4
}
