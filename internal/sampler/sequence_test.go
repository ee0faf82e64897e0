package sampler

import (
	"testing"

	"github.com/solstice-rt/solstice/internal/rtlog"
)

func TestGenerateShapeMatchesBounceBudget(t *testing.T) {
	const bounces = 4
	seq := Generate(8, bounces, rtlog.NewNop())

	if got, want := seq.DimensionSets(), uint32(bounces*ldsPerBounce+1); got != want {
		t.Fatalf("expected %d dimension sets, got %d", want, got)
	}
}

func TestGenerateValuesAreUnitRange(t *testing.T) {
	seq := Generate(64, 2, rtlog.NewNop())

	for s := uint32(0); s < 64; s++ {
		for d := uint32(0); d < seq.DimensionSets(); d++ {
			v := seq.At(s, d)
			for _, c := range []float32{v.X(), v.Y(), v.Z(), v.W()} {
				if c < 0 || c >= 1 {
					t.Fatalf("sample %d dim %d: component out of [0,1): %f", s, d, c)
				}
			}
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(32, 3, rtlog.NewNop())
	b := Generate(32, 3, rtlog.NewNop())

	for s := uint32(0); s < 32; s++ {
		for d := uint32(0); d < a.DimensionSets(); d++ {
			if a.At(s, d) != b.At(s, d) {
				t.Fatalf("sample %d dim %d: nondeterministic output", s, d)
			}
		}
	}
}

func TestGenerateDimensionSetsAreDecorrelated(t *testing.T) {
	seq := Generate(16, 2, rtlog.NewNop())

	same := 0
	total := 0
	for s := uint32(0); s < 16; s++ {
		for d := uint32(1); d < seq.DimensionSets(); d++ {
			total++
			if seq.At(s, 0) == seq.At(s, d) {
				same++
			}
		}
	}
	if same == total {
		t.Fatal("expected different dimension sets to diverge for at least some samples")
	}
}

func TestBytesLengthMatchesTable(t *testing.T) {
	seq := Generate(4, 1, rtlog.NewNop())
	want := int(4*(1*ldsPerBounce+1)) * 16
	if got := len(seq.Bytes()); got != want {
		t.Errorf("expected %d packed bytes, got %d", want, got)
	}
}
