package overlay

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solstice-rt/solstice/internal/gpux"
	"github.com/solstice-rt/solstice/internal/shaders"
)

const vertexStride = 8 + 8 + 16 // Pos + UV + Color, all f32

// Renderer owns the glyph atlas texture, the alpha-blended text
// pipeline, and the per-frame vertex buffer rebuilt from whatever
// Items are queued each frame.
type Renderer struct {
	device *wgpu.Device

	atlas    *Atlas
	pipeline *wgpu.RenderPipeline
	group    *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer
	vertexCount  uint32

	Stats    Stats
	Settings Settings

	items []Item
}

// New loads fontPath's glyph atlas, uploads it, and builds the text
// pipeline targeting surfaceFormat with standard alpha blending.
func New(device *wgpu.Device, fontPath string, surfaceFormat wgpu.TextureFormat, settings Settings) (*Renderer, error) {
	atlas, err := NewAtlas(fontPath, 32)
	if err != nil {
		return nil, err
	}

	w, h := atlas.Image.Bounds().Dx(), atlas.Image.Bounds().Dy()
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteTexture(tex.AsImageCopy(), atlas.Image.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})

	atlasView, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter: wgpu.FilterModeLinear,
		MagFilter: wgpu.FilterModeLinear,
	})
	if err != nil {
		return nil, err
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Overlay Text",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.OverlayWGSL},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Overlay Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: vertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: surfaceFormat,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
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

	group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: atlasView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Renderer{
		device:   device,
		atlas:    atlas,
		pipeline: pipeline,
		group:    group,
		Settings: settings,
	}, nil
}

// Sync tessellates the stats line plus the settings panel into the
// vertex buffer for screenW x screenH, growing the buffer if needed.
func (r *Renderer) Sync(screenW, screenH int) {
	r.items = r.items[:0]
	r.items = append(r.items,
		Item{Text: r.Stats.String(), Position: [2]float32{8, 8}, Scale: 0.6, Color: [4]float32{1, 1, 1, 1}},
		Item{Text: r.Settings.String(), Position: [2]float32{8, 96}, Scale: 0.6, Color: [4]float32{0.8, 0.9, 1, 1}},
	)

	vertices := r.atlas.BuildVertices(r.items, screenW, screenH)
	r.vertexCount = uint32(len(vertices))
	if len(vertices) == 0 {
		return
	}

	data := packVertices(vertices)
	gpux.EnsureBuffer(r.device, "Overlay Vertices", &r.vertexBuffer, data, wgpu.BufferUsageVertex, 0)
}

// Draw issues the draw call for the currently synced vertices into an
// already-open render pass (the blit pass, typically).
func (r *Renderer) Draw(pass *wgpu.RenderPassEncoder) {
	if r.vertexCount == 0 || r.vertexBuffer == nil {
		return
	}
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.group, nil)
	pass.SetVertexBuffer(0, r.vertexBuffer, 0, r.vertexBuffer.GetSize())
	pass.Draw(r.vertexCount, 1, 0, 0)
}

func packVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		off := i * vertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.Pos[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Pos[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.UV[0]))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.UV[1]))
		binary.LittleEndian.PutUint32(buf[off+16:], math.Float32bits(v.Color[0]))
		binary.LittleEndian.PutUint32(buf[off+20:], math.Float32bits(v.Color[1]))
		binary.LittleEndian.PutUint32(buf[off+24:], math.Float32bits(v.Color[2]))
		binary.LittleEndian.PutUint32(buf[off+28:], math.Float32bits(v.Color[3]))
	}
	return buf
}
