// Package sampler builds the low-discrepancy sample table the path
// tracer reads one dimension-set per bounce from. No Sobol-sequence
// module exists in the pack's ecosystem surface, so this generates an
// Owen-scrambled radical-inverse-base-2 sequence per lane instead: the
// same "deterministic, well-stratified, decorrelated across dimension
// sets" contract a baked Sobol table would provide, built from a
// nested uniform scramble (Laine-Karras hash) rather than precomputed
// direction numbers.
package sampler

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/rtlog"
)

// ldsPerBounce mirrors the renderer's dimension budget per bounce: one
// set for BSDF sampling, one for light sampling.
const ldsPerBounce = 2

const oneOver2_24 = 1.0 / 16777216.0

// Sequence is a flat [sampleIndex][dimensionSet]Vec4 table.
type Sequence struct {
	dimensionSets uint32
	values        []mgl32.Vec4
}

// Generate builds a sequence with one row per sample index up to
// maxSamples, each holding bounces*ldsPerBounce+1 decorrelated 4D
// points.
func Generate(maxSamples, bounces uint32, log rtlog.Logger) *Sequence {
	start := time.Now()
	dims := bounces*ldsPerBounce + 1
	values := make([]mgl32.Vec4, uint64(maxSamples)*uint64(dims))

	for s := uint32(0); s < maxSamples; s++ {
		for d := uint32(0); d < dims; d++ {
			values[uint64(s)*uint64(dims)+uint64(d)] = mgl32.Vec4{
				scrambledVanDerCorput(s, seedFor(d, 0)),
				scrambledVanDerCorput(s, seedFor(d, 1)),
				scrambledVanDerCorput(s, seedFor(d, 2)),
				scrambledVanDerCorput(s, seedFor(d, 3)),
			}
		}
	}

	kib := uint64(maxSamples) * uint64(dims) * 16 / 1024
	log.Infof("generated low-discrepancy sequence in %s using %d KiB", time.Since(start), kib)

	return &Sequence{dimensionSets: dims, values: values}
}

// DimensionSets returns how many dimension sets each sample index has.
func (s *Sequence) DimensionSets() uint32 { return s.dimensionSets }

// At returns the 4D point for a given sample index and dimension set.
func (s *Sequence) At(sampleIndex, dimensionSet uint32) mgl32.Vec4 {
	return s.values[uint64(sampleIndex)*uint64(s.dimensionSets)+uint64(dimensionSet)]
}

// Bytes packs the table as a flat little-endian float32 array, ready
// for a read-only storage buffer upload.
func (s *Sequence) Bytes() []byte {
	buf := make([]byte, len(s.values)*16)
	for i, v := range s.values {
		off := i * 16
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X()))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y()))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.Z()))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.W()))
	}
	return buf
}

// seedFor derives an uncorrelated scramble seed per (dimension set,
// lane) pair by hashing their packed index.
func seedFor(dimensionSet, lane uint32) uint32 {
	return hash32(dimensionSet*4 + lane + 1)
}

// scrambledVanDerCorput returns a nested-uniform-scrambled base-2
// radical inverse point in [0, 1): the bit-reversed index is the
// unscrambled van der Corput sequence, and permuting it with a
// Laine-Karras hash before normalizing applies an Owen-style scramble.
func scrambledVanDerCorput(sampleIndex, seed uint32) float32 {
	x := reverseBits32(sampleIndex)
	x = laineKarrasPermutation(x, seed)
	// Keep the top 24 bits so the float32 result can never round up to 1.
	return float32(x>>8) * oneOver2_24
}

func reverseBits32(x uint32) uint32 {
	x = (x << 16) | (x >> 16)
	x = ((x & 0x00ff00ff) << 8) | ((x & 0xff00ff00) >> 8)
	x = ((x & 0x0f0f0f0f) << 4) | ((x & 0xf0f0f0f0) >> 4)
	x = ((x & 0x33333333) << 2) | ((x & 0xcccccccc) >> 2)
	x = ((x & 0x55555555) << 1) | ((x & 0xaaaaaaaa) >> 1)
	return x
}

// laineKarrasPermutation is the hash-based nested uniform scramble
// from Burley's "Practical Hash-based Owen Scrambling".
func laineKarrasPermutation(x, seed uint32) uint32 {
	x += seed
	x ^= x * 0x6c50b47c
	x ^= x * 0xb82f1e52
	x ^= x * 0xc7afe638
	x ^= x * 0x8d22f6e6
	return x
}

// hash32 is Chris Wellons' "lowbias32" integer hash, used to derive
// per-lane scramble seeds from small integer indices.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}
