package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewIsDirtyAndUpdateClearsIt(t *testing.T) {
	c := New()

	if _, changed := c.Update(); !changed {
		t.Fatal("expected the first Update to report a change")
	}
	if _, changed := c.Update(); changed {
		t.Fatal("expected a second Update with no interaction to report no change")
	}
}

func TestOrbitZoomResizeEachInvalidate(t *testing.T) {
	cases := []struct {
		name string
		act  func(c *Controller)
	}{
		{"orbit", func(c *Controller) { c.Orbit(mgl32.Vec2{0.1, 0.05}) }},
		{"zoom", func(c *Controller) { c.Zoom(0.5) }},
		{"resize", func(c *Controller) { c.Resize(16.0 / 9.0) }},
		{"move", func(c *Controller) { c.MoveInEyeSpace(mgl32.Vec3{0.1, 0, 0}) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			c.Update()
			tc.act(c)
			if _, changed := c.Update(); !changed {
				t.Fatalf("%s: expected Update to report a change after interaction", tc.name)
			}
		})
	}
}

func TestZoomNeverPassesThroughTarget(t *testing.T) {
	c := New()
	for i := 0; i < 100; i++ {
		c.Zoom(10)
	}
	buffer, _ := c.Update()
	// world_to_clip must remain invertible; a degenerate (zero-distance)
	// eye-to-target vector would make the view matrix singular.
	if buffer.ClipToWorld == (mgl32.Mat4{}) {
		t.Fatal("expected a non-degenerate clip_to_world after repeated zoom-in")
	}
}

func TestOrbitDoesNotCrossUpAxis(t *testing.T) {
	c := New()
	for i := 0; i < 50; i++ {
		c.Orbit(mgl32.Vec2{0, 1})
	}
	// After many large upward orbits the camera must still keep a
	// sensible, non-degenerate view direction relative to target.
	buffer, _ := c.Update()
	if buffer.WorldToClip == (mgl32.Mat4{}) {
		t.Fatal("expected a non-degenerate world_to_clip after repeated upward orbit")
	}
}

func TestBufferBytesIs128Bytes(t *testing.T) {
	c := New()
	buffer, _ := c.Update()
	if got := len(buffer.Bytes()); got != 128 {
		t.Errorf("expected 128 packed bytes, got %d", got)
	}
}
