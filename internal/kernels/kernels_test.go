package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gtensor/internal/tensor"
)

// scenario is the 2 variants × 2 samples diploid tensor
// [[[0,0],[0,1]],[[-1,0],[1,1]]].
func scenario(t *testing.T) *tensor.RawTensor {
	t.Helper()
	gt, err := tensor.FromSlice([]int8{0, 0, 0, 1, -1, 0, 1, 1}, tensor.Shape{2, 2, 2})
	require.NoError(t, err)
	return gt
}

func randomGenotypes(t *testing.T, seed int64, variants, samples, ploidy int) *tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]int8, variants*samples*ploidy)
	for i := range data {
		data[i] = int8(rng.Intn(5) - 1) // -1..3
	}
	gt, err := tensor.FromSlice(data, tensor.Shape{variants, samples, ploidy})
	require.NoError(t, err)
	return gt
}

func TestIsCalledScenario(t *testing.T) {
	out := IsCalled(scenario(t))

	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []bool{true, true, false, true}, out.AsBool())
}

func TestIsMissingScenario(t *testing.T) {
	assert.Equal(t, []bool{false, false, true, false}, IsMissing(scenario(t)).AsBool())
}

func TestIsHomHetScenario(t *testing.T) {
	gt := scenario(t)

	assert.Equal(t, []bool{true, false, false, true}, IsHom(gt).AsBool())
	assert.Equal(t, []bool{false, true, false, false}, IsHet(gt).AsBool())
}

func TestIsHetIgnoresMissingPosition(t *testing.T) {
	// Triploid calls: missing first, missing middle, all missing, one allele.
	gt, err := tensor.FromSlice([]int8{
		-1, 0, 1,
		0, -1, 1,
		-1, -1, -1,
		2, -1, 2,
	}, tensor.Shape{1, 4, 3})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, false, false}, IsHet(gt).AsBool())
	assert.Equal(t, []bool{false, false, false, false}, IsHom(gt).AsBool())
}

func TestHaploid(t *testing.T) {
	gt, err := tensor.FromSlice([]int8{0, -1, 2}, tensor.Shape{1, 3, 1})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true}, IsHom(gt).AsBool())
	assert.Equal(t, []bool{false, false, false}, IsHet(gt).AsBool())
}

func TestLocateCallScenario(t *testing.T) {
	out := LocateCall(scenario(t), []int8{0, 0})
	assert.Equal(t, []bool{true, false, false, false}, out.AsBool())
}

func TestCountAllelesScenario(t *testing.T) {
	out := CountAlleles(scenario(t), 1)

	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []int32{3, 1, 0, 2}, out.AsInt32())
}

func TestCountAllelesDropsAllelesAboveMax(t *testing.T) {
	gt, err := tensor.FromSlice([]int8{0, 2, 1, 2}, tensor.Shape{1, 2, 2})
	require.NoError(t, err)

	narrow := CountAlleles(gt, 1).AsInt32()
	wide := CountAlleles(gt, 2).AsInt32()

	assert.Equal(t, []int32{1, 1}, narrow)
	assert.Equal(t, []int32{1, 1, 2}, wide)
	// The two calls of allele 2 are the only difference.
	assert.Equal(t, int32(2), (wide[0]+wide[1]+wide[2])-(narrow[0]+narrow[1]))
}

func TestToAlleleCounts(t *testing.T) {
	out := ToAlleleCounts(scenario(t), 1)

	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []int8{2, 0, 1, 1, 1, 0, 0, 2}, out.AsInt8())
}

func TestToAlleleCountsMelt(t *testing.T) {
	out := ToAlleleCountsMelt(scenario(t), 1)

	// Rows: (v0,a0), (v0,a1), (v1,a0), (v1,a1); columns: samples.
	assert.Equal(t, tensor.Shape{4, 2}, out.Shape())
	assert.Equal(t, []int8{2, 1, 0, 1, 1, 0, 0, 2}, out.AsInt8())
}

func TestCountsMatchPerSampleSum(t *testing.T) {
	gt := randomGenotypes(t, 7, 30, 11, 2)
	ac := CountAlleles(gt, 3).AsInt32()
	per := ToAlleleCounts(gt, 3).AsInt8()

	for i := 0; i < 30; i++ {
		for a := 0; a < 4; a++ {
			var sum int32
			for j := 0; j < 11; j++ {
				sum += int32(per[(i*11+j)*4+a])
			}
			require.Equal(t, ac[i*4+a], sum, "variant %d allele %d", i, a)
		}
	}
}

func TestSumInt32(t *testing.T) {
	a, _ := tensor.FromSlice([]int32{1, 2}, tensor.Shape{1, 2})
	b, _ := tensor.FromSlice([]int32{3, 4}, tensor.Shape{1, 2})

	out := SumInt32(a, b)
	assert.Equal(t, []int32{4, 6}, out.AsInt32())
	assert.Equal(t, []int32{1, 2}, a.AsInt32(), "inputs must not be modified")
}

func TestCalledMissingComplement(t *testing.T) {
	gt := randomGenotypes(t, 1, 50, 20, 3)
	called := IsCalled(gt).AsBool()
	missing := IsMissing(gt).AsBool()

	for i := range called {
		require.NotEqual(t, called[i], missing[i], "cell %d", i)
	}
}

func TestHomHetExclusive(t *testing.T) {
	for _, ploidy := range []int{1, 2, 3, 4} {
		gt := randomGenotypes(t, int64(ploidy), 40, 15, ploidy)
		hom := IsHom(gt).AsBool()
		het := IsHet(gt).AsBool()
		missing := IsMissing(gt).AsBool()

		for i := range hom {
			require.False(t, hom[i] && het[i], "ploidy %d cell %d", ploidy, i)
			if missing[i] {
				require.False(t, hom[i], "missing cell %d must not be hom", i)
			}
			if ploidy == 1 {
				require.False(t, het[i])
			}
			if ploidy == 2 {
				// Diploid calls are either missing, hom or het.
				require.Equal(t, !missing[i], hom[i] || het[i], "cell %d", i)
			}
		}
	}
}

func TestKernelsDoNotMutateInput(t *testing.T) {
	gt := randomGenotypes(t, 3, 10, 10, 2)
	before := gt.Clone()

	IsCalled(gt)
	IsHet(gt)
	CountAlleles(gt, 3)
	ToAlleleCountsMelt(gt, 3)

	assert.True(t, gt.Equal(before))
}

func TestEmptyBlock(t *testing.T) {
	gt, err := tensor.NewRaw(tensor.Shape{0, 4, 2}, tensor.Int8)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{0, 4}, IsCalled(gt).Shape())
	assert.Equal(t, tensor.Shape{0, 3}, CountAlleles(gt, 2).Shape())
}
