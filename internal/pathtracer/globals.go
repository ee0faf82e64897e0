package pathtracer

import (
	"encoding/binary"
	"math"
)

// Globals is the per-dispatch uniform the compute shader reads to pick
// its sample index, accumulation weight, bounce budget, and firefly
// clamp. It mirrors the layout the shader expects byte-for-byte.
type Globals struct {
	Sample            uint32
	Weight            float32
	Bounces           uint32
	ContributionClamp float32
}

// DefaultGlobals matches the values new renders start from: eight
// bounces, and a contribution clamp of 0.01, under which the shader
// scales path throughput back whenever its largest component exceeds
// 100 (the clamp's reciprocal).
func DefaultGlobals() Globals {
	return Globals{
		Sample:            0,
		Weight:            0,
		Bounces:           8,
		ContributionClamp: 0.01,
	}
}

// Bytes packs Globals into the 16-byte little-endian layout the
// compute shader's uniform binding expects.
func (g Globals) Bytes() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.Sample)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Weight))
	binary.LittleEndian.PutUint32(buf[8:12], g.Bounces)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.ContributionClamp))
	return buf
}

// DimensionSets returns how many low-discrepancy dimension sets a full
// path of this many bounces draws from: two per bounce (one for the
// BSDF direction, one for light sampling), plus one for the lens/pixel
// jitter of the primary ray.
func (g Globals) DimensionSets() uint32 {
	const ldsPerBounce = 2
	return g.Bounces*ldsPerBounce + 1
}
