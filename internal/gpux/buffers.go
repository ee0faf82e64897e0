package gpux

import "github.com/cogentcore/webgpu/wgpu"

// SafeBufferSizeLimit guards against runaway allocation from corrupt
// scene data reaching EnsureBuffer; it's a renderer-level sanity
// ceiling, not a hardware limit.
const SafeBufferSizeLimit = 1 << 30 // 1 GiB

// EnsureBuffer grows *buf to hold data (plus headroom bytes of slack
// for future in-place growth) if its current allocation is too small,
// preserving existing content when data is nil, and writes data into
// it either way. Growth is geometric (1.5x) once a buffer already
// exists, to amortize reallocation cost across repeated small grows.
// Reports whether the buffer was (re)allocated, so callers know
// whether any bind group referencing it needs rebuilding.
func EnsureBuffer(device *wgpu.Device, name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if rem := neededSize % 4; rem != 0 {
		neededSize += 4 - rem
	}

	current := *buf
	usage |= wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

	if current != nil && current.GetSize() >= neededSize {
		if len(data) > 0 {
			device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return false
	}

	newSize := neededSize
	if current != nil {
		if grown := uint64(float64(current.GetSize()) * 1.5); grown > newSize {
			newSize = grown
		}
	}

	newBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  newSize,
		Usage: usage,
	})
	if err != nil {
		panic(err)
	}

	if current != nil && data == nil {
		encoder, err := device.CreateCommandEncoder(nil)
		if err != nil {
			panic(err)
		}
		encoder.CopyBufferToBuffer(current, 0, newBuf, 0, current.GetSize())
		cmd, err := encoder.Finish(nil)
		if err != nil {
			panic(err)
		}
		device.GetQueue().Submit(cmd)
	}

	if current != nil {
		current.Release()
	}

	*buf = newBuf
	if len(data) > 0 {
		device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return true
}
