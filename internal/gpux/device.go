// Package gpux bootstraps the WebGPU device/surface pair every render
// stage shares, plus the small set of buffer/texture helpers other
// packages use to talk to it (grow-on-demand storage buffers,
// compute-friendly 2D textures).
package gpux

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/solstice-rt/solstice/internal/rtlog"
)

// Context bundles the wgpu objects every renderer stage needs: the
// instance/adapter/device triad, its queue, and the window surface
// along with its current configuration.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration
}

// New opens a WebGPU context bound to window's surface, requesting a
// high-performance adapter and configuring the surface for FIFO
// presentation at the window's current framebuffer size. Frame
// latency is bounded implicitly: the driver loop calls Present once
// per Submit and never queues ahead, so at most one frame is ever in
// flight regardless of swap interval.
func New(window *glfw.Window, log rtlog.Logger) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, err
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, err
	}

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	log.Infof("opened device, surface %dx%d format %v", width, height, config.Format)

	return &Context{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
		Surface:  surface,
		Config:   config,
	}, nil
}

// Resize reconfigures the surface for a new framebuffer size. A
// zero-area framebuffer (the window is minimized) is ignored, since
// wgpu rejects configuring a surface to zero size.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Config.Width = uint32(width)
	c.Config.Height = uint32(height)
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}
