package gpux

import "github.com/cogentcore/webgpu/wgpu"

// Texture pairs a wgpu texture with its default view, released together.
type Texture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

// Release frees both the view and the texture. Safe to call on nil.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

// CreateStorageTexture allocates a 2D texture usable both as a compute
// shader read-write storage target and as a sampled/blit input for a
// later pass — the path tracer's accumulation buffer, read back by
// the blit pass once dispatch finishes.
func CreateStorageTexture(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat) (*Texture, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &Texture{Texture: tex, View: view, Width: width, Height: height}, nil
}

// DispatchSize rounds (width, height) down to the nearest multiple of
// workgroupSize and converts it to a workgroup count, so a compute
// dispatch never reads past a texture edge that doesn't divide evenly.
func DispatchSize(width, height, workgroupSize uint32) (groupsX, groupsY uint32) {
	dimX := width / workgroupSize * workgroupSize
	dimY := height / workgroupSize * workgroupSize
	return dimX / workgroupSize, dimY / workgroupSize
}
