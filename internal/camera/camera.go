// Package camera implements an orbit camera: drag to orbit around a
// fixed target, scroll to zoom, WASD-style deltas to dolly in eye
// space. It tracks its own dirty flag so a caller can skip re-uploading
// the camera buffer on frames where nothing moved.
package camera

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// altitudeDelta keeps the camera from orbiting exactly onto the up
// axis, where the look-at basis degenerates.
const altitudeDelta = float32(0.01)

// Buffer is the GPU-facing uniform: the combined world-to-clip matrix
// used to project geometry, and its inverse used by the path tracer to
// reconstruct a world-space ray direction per pixel.
type Buffer struct {
	WorldToClip mgl32.Mat4
	ClipToWorld mgl32.Mat4
}

// Bytes packs Buffer in the 128-byte wire layout: two column-major 4x4
// matrices, back to back.
func (b Buffer) Bytes() []byte {
	buf := make([]byte, 128)
	writeMat4(buf[0:64], b.WorldToClip)
	writeMat4(buf[64:128], b.ClipToWorld)
	return buf
}

func writeMat4(buf []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

// Controller is an orbit camera around a fixed target, matching the
// interaction model of a turntable viewer: drag to orbit, scroll to
// zoom, and a small eye-space pan for recentering the target.
type Controller struct {
	worldPosition mgl32.Vec3
	target        mgl32.Vec3
	up            mgl32.Vec3
	minDist       float32
	fov           float32
	aspectRatio   float32
	near          float32
	dirty         bool
	data          Buffer
}

// New creates a controller looking at the origin from 5 units out
// along +X, already dirty so the first Update populates its buffer.
func New() *Controller {
	return &Controller{
		worldPosition: mgl32.Vec3{5, 0, 0},
		target:        mgl32.Vec3{0, 0, 0},
		up:            mgl32.Vec3{0, 1, 0},
		minDist:       0.1,
		fov:           math.Pi / 3,
		aspectRatio:   1,
		near:          0.1,
		dirty:         true,
	}
}

// Orbit rotates the camera around its target by delta.X (yaw, around
// up) and delta.Y (pitch, around the current right vector), clamping
// pitch so the view direction never crosses the up axis.
func (c *Controller) Orbit(delta mgl32.Vec2) {
	relative := c.worldPosition.Sub(c.target)
	direction := relative.Normalize()
	right := direction.Cross(c.up).Normalize()

	maxUp := float32(math.Acos(clamp(float64(direction.Dot(c.up)), -1, 1)))
	maxDown := -(float32(math.Pi) - maxUp)
	clampedY := clampf(delta.Y(), maxDown+altitudeDelta, maxUp-altitudeDelta)

	yaw := mgl32.QuatRotate(-delta.X(), c.up)
	pitch := mgl32.QuatRotate(clampedY, right)
	rotation := yaw.Mul(pitch)

	c.worldPosition = c.target.Add(rotation.Rotate(relative))
	c.Invalidate()
}

// Zoom moves the camera delta units along the target direction,
// clamped so it never passes through the target.
func (c *Controller) Zoom(delta float32) {
	direction := c.worldPosition.Sub(c.target)
	distance := direction.Len()
	direction = direction.Mul(1 / distance)
	distance = maxf(distance-delta, c.minDist)
	c.worldPosition = c.target.Add(direction.Mul(distance))
	c.Invalidate()
}

// MoveInEyeSpace translates both the eye and the target by delta
// multiplied by the rotation part of the current world-to-view matrix,
// panning the whole rig.
func (c *Controller) MoveInEyeSpace(delta mgl32.Vec3) {
	worldToView := c.viewMatrix()
	camDelta := worldToView.Mat3().Mul3x1(delta)
	c.worldPosition = c.worldPosition.Add(camDelta)
	c.target = c.target.Add(camDelta)
	c.Invalidate()
}

// Resize updates the aspect ratio used by the projection matrix.
func (c *Controller) Resize(aspectRatio float32) {
	c.aspectRatio = aspectRatio
	c.Invalidate()
}

// Invalidate marks the camera as needing its buffer recomputed on the
// next Update call.
func (c *Controller) Invalidate() {
	c.dirty = true
}

func (c *Controller) viewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.worldPosition, c.target, c.up)
}

// projectionMatrix builds an infinite-far right-handed perspective
// matrix: a finite far plane never gets reached by rays anyway, so
// there's no precision to buy by clipping one in.
func (c *Controller) projectionMatrix() mgl32.Mat4 {
	f := 1 / float32(math.Tan(float64(c.fov)/2))
	return mgl32.Mat4{
		f / c.aspectRatio, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * c.near, 0,
	}
}

// Update recomputes the camera buffer if anything changed since the
// last call, reporting whether a fresh upload is needed.
func (c *Controller) Update() (Buffer, bool) {
	if !c.dirty {
		return c.data, false
	}
	worldToClip := c.projectionMatrix().Mul4(c.viewMatrix())
	c.data = Buffer{
		WorldToClip: worldToClip,
		ClipToWorld: worldToClip.Inv(),
	}
	c.dirty = false
	return c.data, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
