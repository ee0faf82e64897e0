// Package blit draws the path tracer's accumulated image to the
// swapchain, tonemapped by a single fullscreen triangle, with the
// overlay's text geometry composited over it in the same render pass.
package blit

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solstice-rt/solstice/internal/gpux"
	"github.com/solstice-rt/solstice/internal/overlay"
	"github.com/solstice-rt/solstice/internal/shaders"
)

// Blitter owns the fullscreen pipeline, its sampler, and the bind
// group referencing the path tracer's current output texture — the
// bind group is rebuilt whenever that texture is recreated (Rebind).
type Blitter struct {
	device *wgpu.Device

	pipeline *wgpu.RenderPipeline
	sampler  *wgpu.Sampler
	group    *wgpu.BindGroup

	overlay *overlay.Renderer
}

// New creates the blit pipeline targeting surfaceFormat and a linear
// sampler for the source texture.
func New(device *wgpu.Device, surfaceFormat wgpu.TextureFormat, overlayRenderer *overlay.Renderer) (*Blitter, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen Blit",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.FullscreenWGSL},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	return &Blitter{device: device, pipeline: pipeline, sampler: sampler, overlay: overlayRenderer}, nil
}

// Rebind rebuilds the bind group against source — call this whenever
// the path tracer's output texture is recreated (on Resize).
func (b *Blitter) Rebind(source *gpux.Texture) error {
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Blit Bind Group",
		Layout: b.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: source.View},
			{Binding: 1, Sampler: b.sampler},
		},
	})
	if err != nil {
		return err
	}
	b.group = group
	return nil
}

// Render draws the blit triangle then the overlay's glyph geometry
// into swapchainView, in a single render pass.
func (b *Blitter) Render(encoder *wgpu.CommandEncoder, swapchainView *wgpu.TextureView) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       swapchainView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})

	if b.group != nil {
		pass.SetPipeline(b.pipeline)
		pass.SetBindGroup(0, b.group, nil)
		pass.Draw(3, 1, 0, 0)
	}

	b.overlay.Draw(pass)

	return pass.End()
}
