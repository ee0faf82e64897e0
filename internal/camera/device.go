package camera

import "github.com/cogentcore/webgpu/wgpu"

// GPUCamera pairs a Controller with the fixed-size uniform buffer its
// Buffer wire format uploads into. The buffer never grows — its size
// is pinned to the 128-byte Buffer layout — so unlike scene storage
// buffers it's created once in New and just rewritten on each Sync.
type GPUCamera struct {
	device     *wgpu.Device
	Controller *Controller
	buffer     *wgpu.Buffer
}

// NewGPUCamera creates the uniform buffer and uploads the controller's
// initial state.
func NewGPUCamera(device *wgpu.Device, controller *Controller) (*GPUCamera, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CameraUB",
		Size:  128,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	gc := &GPUCamera{device: device, Controller: controller, buffer: buf}
	data, _ := controller.Update()
	device.GetQueue().WriteBuffer(buf, 0, data.Bytes())
	return gc, nil
}

// Buffer returns the uniform buffer other bind groups reference. Its
// contents are only current as of the last Sync call.
func (gc *GPUCamera) Buffer() *wgpu.Buffer { return gc.buffer }

// Sync rewrites the uniform buffer if the controller is dirty,
// reporting whether it did so (the pathtracer uses this to decide
// whether to invalidate accumulation).
func (gc *GPUCamera) Sync() bool {
	data, dirty := gc.Controller.Update()
	if !dirty {
		return false
	}
	gc.device.GetQueue().WriteBuffer(gc.buffer, 0, data.Bytes())
	return true
}
