package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gtensor/internal/tensor"
)

func counts(t *testing.T, rows [][]int32) *tensor.RawTensor {
	t.Helper()
	var data []int32
	for _, r := range rows {
		data = append(data, r...)
	}
	ac, err := tensor.FromSlice(data, tensor.Shape{len(rows), len(rows[0])})
	require.NoError(t, err)
	return ac
}

var countRows = [][]int32{
	{0, 0, 0}, // empty
	{4, 0, 0}, // reference only
	{0, 3, 0}, // single alternate
	{2, 1, 0}, // segregating
	{1, 0, 5}, // segregating, max allele 2
}

func TestAlleleCountsToFrequencies(t *testing.T) {
	out := AlleleCountsToFrequencies(counts(t, countRows))
	require.Equal(t, tensor.Float32, out.DType())
	freqs := out.AsFloat32()

	for i, row := range countRows {
		f := make([]float64, len(row))
		for a := range row {
			v := freqs[i*len(row)+a]
			require.False(t, math.IsNaN(float64(v)), "row %d allele %d is NaN", i, a)
			f[a] = float64(v)
		}
		if i == 0 {
			assert.Equal(t, 0.0, floats.Sum(f), "empty row must sum to exactly zero")
			continue
		}
		assert.InDelta(t, 1.0, floats.Sum(f), 1e-6, "row %d", i)
	}
	assert.InDelta(t, 2.0/3.0, freqs[3*3], 1e-6)
}

func TestAlleleCountsMaxAllele(t *testing.T) {
	out := AlleleCountsMaxAllele(counts(t, countRows))
	assert.Equal(t, []int8{-1, 0, 1, 1, 2}, out.AsInt8())
}

func TestAlleleCountsAllelism(t *testing.T) {
	out := AlleleCountsAllelism(counts(t, countRows))
	assert.Equal(t, []int32{0, 1, 1, 2, 2}, out.AsInt32())
}

func TestLocateVariantFamily(t *testing.T) {
	ac := counts(t, countRows)

	assert.Equal(t, []bool{false, true, false, false, false}, LocateNonVariant(ac).AsBool())
	assert.Equal(t, []bool{false, false, true, true, true}, LocateVariant(ac).AsBool())
	assert.Equal(t, []bool{false, false, false, true, true}, LocateSegregating(ac).AsBool())
}

func TestAlleleCountsLocateHomHet(t *testing.T) {
	ac := ToAlleleCounts(scenario(t), 1)

	// Per-sample counts reproduce the genotype predicates on called cells.
	assert.Equal(t, []bool{true, false, true, true}, AlleleCountsLocateHom(ac).AsBool())
	assert.Equal(t, []bool{false, true, false, false}, AlleleCountsLocateHet(ac).AsBool())
}

func TestAlleleCountsLocateHomHetEmptyCell(t *testing.T) {
	ac, err := tensor.FromSlice([]int8{0, 0, 0}, tensor.Shape{1, 1, 3})
	require.NoError(t, err)

	assert.Equal(t, []bool{false}, AlleleCountsLocateHom(ac).AsBool())
	assert.Equal(t, []bool{false}, AlleleCountsLocateHet(ac).AsBool())
}
