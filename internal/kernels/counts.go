package kernels

import (
	"github.com/born-ml/gtensor/internal/parallel"
	"github.com/born-ml/gtensor/internal/tensor"
)

// mapRows evaluates f for every variant row of an int32 [variant, allele]
// allele counts matrix.
func mapRows[T tensor.DType](ac *tensor.RawTensor, dtype tensor.DataType, f func(row []int32) T) *tensor.RawTensor {
	s := ac.Shape()
	variants, nAlleles := s[0], s[1]
	src := ac.AsInt32()
	out := tensor.MustRaw(tensor.Shape{variants}, dtype)
	dst := tensor.Values[T](out)

	parallel.ForRange(variants, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i*nAlleles : (i+1)*nAlleles])
		}
	}, parallel.Default())

	return out
}

// AlleleCountsToFrequencies divides each row by its sum.
// Rows summing to zero yield all-zero frequencies rather than NaN.
//
// Result: float32 [variant, allele].
func AlleleCountsToFrequencies(ac *tensor.RawTensor) *tensor.RawTensor {
	s := ac.Shape()
	variants, nAlleles := s[0], s[1]
	src := ac.AsInt32()
	out := tensor.MustRaw(s, tensor.Float32)
	dst := out.AsFloat32()

	parallel.ForRange(variants, func(start, end int) {
		for i := start; i < end; i++ {
			row := src[i*nAlleles : (i+1)*nAlleles]
			var total int64
			for _, n := range row {
				total += int64(n)
			}
			if total == 0 {
				continue
			}
			for a, n := range row {
				dst[i*nAlleles+a] = float32(float64(n) / float64(total))
			}
		}
	}, parallel.Default())

	return out
}

// AlleleCountsMaxAllele returns, per variant, the highest allele index with a
// non-zero count, or -1 when the row is empty.
//
// Result: int8 [variant].
func AlleleCountsMaxAllele(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapRows(ac, tensor.Int8, func(row []int32) int8 {
		for a := len(row) - 1; a >= 0; a-- {
			if row[a] > 0 {
				return int8(a)
			}
		}
		return -1
	})
}

// AlleleCountsAllelism returns, per variant, the number of alleles with a
// non-zero count.
//
// Result: int32 [variant].
func AlleleCountsAllelism(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapRows(ac, tensor.Int32, func(row []int32) int32 {
		return int32(allelism(row))
	})
}

func allelism(row []int32) int {
	n := 0
	for _, c := range row {
		if c > 0 {
			n++
		}
	}
	return n
}

// nonVariant reports whether the only observed allele is the reference.
func nonVariant(row []int32) bool {
	return len(row) > 0 && row[0] > 0 && allelism(row) == 1
}

// LocateNonVariant marks variants where exactly one allele is observed and it
// is the reference allele 0.
func LocateNonVariant(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapRows(ac, tensor.Bool, nonVariant)
}

// LocateVariant marks variants that have at least one observed allele and
// are not non-variant.
func LocateVariant(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapRows(ac, tensor.Bool, func(row []int32) bool {
		return !nonVariant(row) && allelism(row) > 0
	})
}

// LocateSegregating marks variants with two or more observed alleles.
func LocateSegregating(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapRows(ac, tensor.Bool, func(row []int32) bool {
		return allelism(row) >= 2
	})
}

// mapSampleCounts evaluates f over the allele vector of every cell of an
// int8 [variant, sample, allele] tensor and returns a bool [variant, sample] mask.
func mapSampleCounts(ac *tensor.RawTensor, f func(counts []int8) bool) *tensor.RawTensor {
	s := ac.Shape()
	variants, samples, nAlleles := s[0], s[1], s[2]
	src := ac.AsInt8()
	out := tensor.MustRaw(tensor.Shape{variants, samples}, tensor.Bool)
	dst := out.AsBool()

	parallel.ForCells(variants, samples, func(c int) {
		dst[c] = f(src[c*nAlleles : (c+1)*nAlleles])
	}, parallel.Default())

	return out
}

func observed(counts []int8, limit int) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
			if n >= limit {
				break
			}
		}
	}
	return n
}

// AlleleCountsLocateHom marks cells where exactly one allele has a non-zero count.
func AlleleCountsLocateHom(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapSampleCounts(ac, func(counts []int8) bool {
		return observed(counts, 2) == 1
	})
}

// AlleleCountsLocateHet marks cells where more than one allele has a non-zero count.
func AlleleCountsLocateHet(ac *tensor.RawTensor) *tensor.RawTensor {
	return mapSampleCounts(ac, func(counts []int8) bool {
		return observed(counts, 2) == 2
	})
}
