package frame

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solstice-rt/solstice/internal/rterr"
)

// ClassifySurfaceError buckets a GetCurrentTexture failure the way a
// render loop needs to react to it: Lost means reconfigure and retry,
// OutOfMemory means stop running, anything else (Outdated, Timeout) is
// transient and resolves itself on the next frame. The Go binding
// surfaces these as a plain error rather than a typed enum, so the
// classification matches on the wgpu-native message text.
func ClassifySurfaceError(err error) *rterr.Error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lost"):
		return rterr.Wrap(rterr.SurfaceLost, "surface texture lost", err)
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "outofmemory"):
		return rterr.Wrap(rterr.SurfaceOutOfMemory, "surface out of memory", err)
	default:
		return rterr.Wrap(rterr.SurfaceTransient, "transient surface acquire failure", err)
	}
}

// Frame is the set of render-stage callbacks the loop drives each
// iteration, kept as fields rather than an interface so a caller can
// swap just the pieces a test needs.
type Frame struct {
	// SyncCamera applies queued input deltas and uploads the camera
	// buffer if dirty, returning whether accumulation should reset.
	SyncCamera func() (invalidate bool)
	// Dispatch records one pathtracer sample plus the blit/overlay
	// pass into encoder, presenting swapchainView.
	Dispatch func(encoder *wgpu.CommandEncoder, swapchainView *wgpu.TextureView)
	// Resize is called with the window's current framebuffer size
	// whenever the surface needs reconfiguring (on SurfaceLost, or
	// after an external resize request).
	Resize func(width, height int)
	// CurrentSize returns the window's current framebuffer size, used
	// to re-present the same dimensions after a Lost surface.
	CurrentSize func() (width, height int)
}

// Loop drives the metrics/sync/acquire/dispatch/present cycle once.
// It owns no window-system polling itself — the caller's event loop
// calls Tick once per iteration, after pumping platform events.
type Loop struct {
	Metrics Metrics
	Surface *wgpu.Surface
	Device  *wgpu.Device
	Queue   *wgpu.Queue

	frame Frame
}

// NewLoop binds a Loop to the device/surface pair and the frame's
// render callbacks.
func NewLoop(surface *wgpu.Surface, device *wgpu.Device, queue *wgpu.Queue, frame Frame) *Loop {
	return &Loop{Surface: surface, Device: device, Queue: queue, frame: frame}
}

// Tick runs one iteration: sync input, acquire a swapchain texture,
// dispatch + present, and classify any acquisition failure. Returns
// false only on SurfaceOutOfMemory, telling the caller to stop running.
func (l *Loop) Tick() bool {
	l.Metrics.Tick()
	l.frame.SyncCamera()

	texture, err := l.Surface.GetCurrentTexture()
	if err != nil {
		classified := ClassifySurfaceError(err)
		switch classified.Kind {
		case rterr.SurfaceLost:
			width, height := l.frame.CurrentSize()
			l.frame.Resize(width, height)
		case rterr.SurfaceOutOfMemory:
			return false
		}
		// Transient (Outdated/Timeout): do nothing, retried next Tick.
		return true
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		return true
	}
	defer view.Release()

	encoder, err := l.Device.CreateCommandEncoder(nil)
	if err != nil {
		return true
	}

	l.frame.Dispatch(encoder, view)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return true
	}
	l.Queue.Submit(cmd)
	l.Surface.Present()
	l.Device.Poll(false, nil)

	return true
}
