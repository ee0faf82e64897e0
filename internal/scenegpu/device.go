package scenegpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solstice-rt/solstice/internal/bvh"
	"github.com/solstice-rt/solstice/internal/gpux"
	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/sceneio"
)

// GPUScene owns the device-side storage buffers an Assembled scene
// uploads into, plus the bind group the compute pipeline reads them
// through. Buffers grow in place via gpux.EnsureBuffer rather than
// being recreated every upload, so a scene edit that only moves an
// instance doesn't thrash allocation.
type GPUScene struct {
	device *wgpu.Device

	blasNodes *wgpu.Buffer
	tlasNodes *wgpu.Buffer
	instances *wgpu.Buffer
	vertices  *wgpu.Buffer
	indices   *wgpu.Buffer

	layout *wgpu.BindGroupLayout
	group  *wgpu.BindGroup

	instanceCount uint32
	indexCount    uint32
}

// NewGPUScene creates the bind group layout shared by every upload;
// the bind group itself is built lazily on the first Upload, once the
// buffers it references actually exist.
func NewGPUScene(device *wgpu.Device) *GPUScene {
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scene Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageEntry(0), // BLAS nodes
			storageEntry(1), // TLAS nodes
			storageEntry(2), // instances
			storageEntry(3), // vertices
			storageEntry(4), // indices
		},
	})
	if err != nil {
		panic(err)
	}
	return &GPUScene{device: device, layout: layout}
}

func storageEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer: wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeReadOnlyStorage,
			MinBindingSize:   0,
			HasDynamicOffset: false,
		},
	}
}

// Layout returns the bind group layout, needed once up front to build
// the pathtracer's pipeline layout.
func (s *GPUScene) Layout() *wgpu.BindGroupLayout { return s.layout }

// BindGroup returns the current bind group. Upload must be called at
// least once before this is valid.
func (s *GPUScene) BindGroup() *wgpu.BindGroup { return s.group }

// InstanceCount and IndexCount report the most recently uploaded
// scene's sizes, for draw/dispatch bookkeeping by callers that need
// them without holding onto the *sceneio.Scene themselves.
func (s *GPUScene) InstanceCount() uint32 { return s.instanceCount }
func (s *GPUScene) IndexCount() uint32    { return s.indexCount }

// Upload assembles scene and writes its buffers to the device,
// growing any buffer that's too small and rebuilding the bind group
// whenever a reallocation actually happened.
func (s *GPUScene) Upload(scene *sceneio.Scene, log rtlog.Logger) {
	assembled := Assemble(scene, log)

	grew := gpux.EnsureBuffer(s.device, "BLAS Nodes", &s.blasNodes, nodeBytes(assembled.BLASNodes), wgpu.BufferUsageStorage, 0)
	grew = gpux.EnsureBuffer(s.device, "TLAS Nodes", &s.tlasNodes, nodeBytes(assembled.TLASNodes), wgpu.BufferUsageStorage, 0) || grew
	grew = gpux.EnsureBuffer(s.device, "Instances", &s.instances, assembled.InstanceBytes, wgpu.BufferUsageStorage, 0) || grew
	grew = gpux.EnsureBuffer(s.device, "Vertices", &s.vertices, assembled.VertexBytes, wgpu.BufferUsageVertex|wgpu.BufferUsageStorage, 0) || grew
	grew = gpux.EnsureBuffer(s.device, "Indices", &s.indices, assembled.IndexBytes, wgpu.BufferUsageIndex|wgpu.BufferUsageStorage, 0) || grew

	s.instanceCount = assembled.InstanceCount
	s.indexCount = assembled.IndexCount

	if grew || s.group == nil {
		s.rebuildBindGroup()
	}
}

func (s *GPUScene) rebuildBindGroup() {
	group, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Scene Bind Group",
		Layout: s.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.blasNodes, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: s.tlasNodes, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: s.instances, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: s.vertices, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: s.indices, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	s.group = group
}

func nodeBytes(nodes []bvh.Node) []byte {
	buf := make([]byte, 0, len(nodes)*32)
	for _, n := range nodes {
		buf = append(buf, n.Bytes()...)
	}
	return buf
}
