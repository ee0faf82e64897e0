// Package pathtracer dispatches the progressive compute pass that
// accumulates samples into an HDR output texture: one sample per pixel
// per Dispatch call, weighted so the running average converges toward
// the true image as Sample grows.
package pathtracer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solstice-rt/solstice/internal/camera"
	"github.com/solstice-rt/solstice/internal/gpux"
	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/sampler"
	"github.com/solstice-rt/solstice/internal/scenegpu"
	"github.com/solstice-rt/solstice/internal/shaders"
)

// computeSize is the compute shader's workgroup_size(8, 8, 1); the
// output texture's dimensions are rounded down to a multiple of it so
// dispatch never reads past a misaligned edge.
const computeSize = 8

// maxSampleCount caps accumulation: once Globals.Sample reaches it,
// Dispatch becomes a no-op rather than driving the image past the
// point where further samples change it within float precision.
const maxSampleCount = 1024

// Pathtracer owns the compute pipeline, its per-frame bind group
// (output texture + camera + LDS table + globals), and the
// resolution-scaled output texture the blit stage reads from.
type Pathtracer struct {
	device *wgpu.Device

	pipeline     *wgpu.ComputePipeline
	globalLayout *wgpu.BindGroupLayout
	globalGroup  *wgpu.BindGroup

	output           *gpux.Texture
	resolutionFactor float32

	ldsBuffer  *wgpu.Buffer
	globalsBuf *wgpu.Buffer
	sequence   *sampler.Sequence
	globals    Globals
	maxSamples uint32
}

// New builds the compute pipeline and its output texture at
// resolutionFactor times the surface's dimensions, generating the
// low-discrepancy sequence up front since it depends only on the
// default bounce budget and sample cap.
func New(device *wgpu.Device, surfaceWidth, surfaceHeight uint32, scene *scenegpu.GPUScene, cam *camera.GPUCamera, log rtlog.Logger) (*Pathtracer, error) {
	globals := DefaultGlobals()
	sequence := sampler.Generate(maxSampleCount, globals.Bounces, log)

	pt := &Pathtracer{
		device:           device,
		resolutionFactor: 0.3,
		globals:          globals,
		maxSamples:       maxSampleCount,
		sequence:         sequence,
	}

	output, err := createOutputTexture(device, surfaceWidth, surfaceHeight, pt.resolutionFactor)
	if err != nil {
		return nil, err
	}
	pt.output = output

	ldsBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Pathtracer LDS",
		Size:  uint64(len(sequence.Bytes())),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(ldsBuffer, 0, sequence.Bytes())
	pt.ldsBuffer = ldsBuffer

	globalsBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Pathtracer Globals",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	pt.globalsBuf = globalsBuf

	globalLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Raytracer Output Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessReadWrite,
					Format:        wgpu.TextureFormatRGBA32Float,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 128,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: 0,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 16,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	pt.globalLayout = globalLayout

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Pathtracing Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PathtracerWGSL},
	})
	if err != nil {
		return nil, err
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{globalLayout, scene.Layout()},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Raytracer Compute",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, err
	}
	pt.pipeline = pipeline

	if err := pt.rebuildGlobalGroup(cam); err != nil {
		return nil, err
	}

	return pt, nil
}

// computeOutputDimensions scales surfaceWidth/surfaceHeight by
// resolutionFactor and rounds down to a multiple of computeSize,
// flooring at one workgroup so a tiny or zero-area surface never
// produces an empty texture. Pure so the resize no-op check below can
// be exercised without a device.
func computeOutputDimensions(surfaceWidth, surfaceHeight uint32, resolutionFactor float32) (width, height uint32) {
	width = uint32(float32(surfaceWidth)*resolutionFactor) / computeSize * computeSize
	height = uint32(float32(surfaceHeight)*resolutionFactor) / computeSize * computeSize
	if width == 0 {
		width = computeSize
	}
	if height == 0 {
		height = computeSize
	}
	return width, height
}

func createOutputTexture(device *wgpu.Device, surfaceWidth, surfaceHeight uint32, resolutionFactor float32) (*gpux.Texture, error) {
	width, height := computeOutputDimensions(surfaceWidth, surfaceHeight, resolutionFactor)
	return gpux.CreateStorageTexture(device, "Pathtracer Output", width, height, wgpu.TextureFormatRGBA32Float)
}

func (pt *Pathtracer) rebuildGlobalGroup(cam *camera.GPUCamera) error {
	group, err := pt.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Raytracer Output Bind Group",
		Layout: pt.globalLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: pt.output.View},
			{Binding: 1, Buffer: cam.Buffer(), Size: wgpu.WholeSize},
			{Binding: 2, Buffer: pt.ldsBuffer, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: pt.globalsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	pt.globalGroup = group
	return nil
}

// OutputTexture returns the accumulation target for the blit pass to
// sample from.
func (pt *Pathtracer) OutputTexture() *gpux.Texture { return pt.output }

// SampleCount reports how many samples have accumulated into the
// current image.
func (pt *Pathtracer) SampleCount() uint32 { return pt.globals.Sample }

// Invalidate resets accumulation, discarding the image built up so
// far. Any camera move, scene edit, or settings change that alters
// what a pixel should show calls this.
func (pt *Pathtracer) Invalidate() {
	pt.globals.Sample = 0
}

// Resize recreates the output texture at the new surface size and
// rebuilds the bind group referencing it, then invalidates — a resize
// always discards the accumulated image since every pixel now means
// something different. A resize whose scaled dimensions match the
// current output texture exactly is a no-op: this is what lets the
// SurfaceLost recovery path (which calls Resize at the window's
// unchanged size purely to reconfigure the surface) avoid discarding
// accumulated progress on every transient surface loss.
func (pt *Pathtracer) Resize(surfaceWidth, surfaceHeight uint32, cam *camera.GPUCamera) error {
	width, height := computeOutputDimensions(surfaceWidth, surfaceHeight, pt.resolutionFactor)
	if width == pt.output.Width && height == pt.output.Height {
		return nil
	}

	pt.output.Release()
	output, err := gpux.CreateStorageTexture(pt.device, "Pathtracer Output", width, height, wgpu.TextureFormatRGBA32Float)
	if err != nil {
		return err
	}
	pt.output = output
	if err := pt.rebuildGlobalGroup(cam); err != nil {
		return err
	}
	pt.Invalidate()
	return nil
}

// SetBounces updates the bounce budget. The sample sequence's size
// depends on bounces, so it's regenerated and the LDS buffer rewritten
// (growing it and rebinding the group if the new table is larger),
// then accumulation is invalidated since existing samples were traced
// with the old bounce count.
func (pt *Pathtracer) SetBounces(bounces uint32, cam *camera.GPUCamera, log rtlog.Logger) error {
	pt.globals.Bounces = bounces
	pt.sequence = sampler.Generate(pt.maxSamples, bounces, log)
	if gpux.EnsureBuffer(pt.device, "Pathtracer LDS", &pt.ldsBuffer, pt.sequence.Bytes(), wgpu.BufferUsageStorage, 0) {
		if err := pt.rebuildGlobalGroup(cam); err != nil {
			return err
		}
	}
	pt.Invalidate()
	return nil
}

// SetContributionClamp updates the firefly clamp. It takes effect on
// the next Dispatch and invalidates, since past samples were clamped
// (or not) under the old value.
func (pt *Pathtracer) SetContributionClamp(clamp float32) {
	pt.globals.ContributionClamp = clamp
	pt.Invalidate()
}

// SetResolutionFactor changes the output texture's scale relative to
// the surface. The caller must still call Resize at the current
// surface size to actually reallocate the texture at the new scale.
func (pt *Pathtracer) SetResolutionFactor(factor float32) {
	pt.resolutionFactor = factor
}

// SetMaxSamples raises or lowers the accumulation cap, regenerating
// the sample sequence to match. It does not invalidate: raising the
// cap resumes refinement of the existing image rather than discarding
// it, matching Settings.SetMaxSamples.
func (pt *Pathtracer) SetMaxSamples(maxSamples uint32, cam *camera.GPUCamera, log rtlog.Logger) error {
	pt.maxSamples = maxSamples
	pt.sequence = sampler.Generate(maxSamples, pt.globals.Bounces, log)
	if gpux.EnsureBuffer(pt.device, "Pathtracer LDS", &pt.ldsBuffer, pt.sequence.Bytes(), wgpu.BufferUsageStorage, 0) {
		return pt.rebuildGlobalGroup(cam)
	}
	return nil
}

// ResolutionFactor reports the output texture's current scale
// relative to the surface.
func (pt *Pathtracer) ResolutionFactor() float32 { return pt.resolutionFactor }

// stepSample advances g by one dispatch, pre-incrementing Sample and
// recomputing Weight as its inverse, and reports whether a dispatch
// should actually be recorded — false once Sample has already reached
// maxSamples, in which case g is returned unchanged.
func stepSample(g Globals, maxSamples uint32) (Globals, bool) {
	if g.Sample >= maxSamples {
		return g, false
	}
	g.Sample++
	g.Weight = 1.0 / float32(g.Sample)
	return g, true
}

// Dispatch records one compute pass sampling the scene once more, or
// does nothing if the accumulation budget is already spent.
func (pt *Pathtracer) Dispatch(encoder *wgpu.CommandEncoder, scene *scenegpu.GPUScene) {
	next, ok := stepSample(pt.globals, pt.maxSamples)
	if !ok {
		return
	}
	pt.globals = next
	pt.device.GetQueue().WriteBuffer(pt.globalsBuf, 0, pt.globals.Bytes())

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pt.pipeline)
	pass.SetBindGroup(0, pt.globalGroup, nil)
	pass.SetBindGroup(1, scene.BindGroup(), nil)

	groupsX, groupsY := gpux.DispatchSize(pt.output.Width, pt.output.Height, computeSize)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	if err := pass.End(); err != nil {
		panic(err)
	}
}
