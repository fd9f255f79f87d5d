package kernels

import (
	"github.com/born-ml/gtensor/internal/parallel"
	"github.com/born-ml/gtensor/internal/tensor"
)

// CountAlleles tallies, per variant, the occurrences of each allele index in
// [0, maxAllele] across all samples and ploidy slots. Missing calls and
// alleles above maxAllele are excluded from the tally.
//
// Result: int32 [variant, maxAllele+1].
func CountAlleles(gt *tensor.RawTensor, maxAllele int) *tensor.RawTensor {
	variants, samples, ploidy, data := genotypeCells(gt)
	nAlleles := maxAllele + 1
	out := tensor.MustRaw(tensor.Shape{variants, nAlleles}, tensor.Int32)
	dst := out.AsInt32()
	perVariant := samples * ploidy

	parallel.ForRange(variants, func(start, end int) {
		for i := start; i < end; i++ {
			row := dst[i*nAlleles : (i+1)*nAlleles]
			for _, a := range data[i*perVariant : (i+1)*perVariant] {
				if a >= 0 && int(a) <= maxAllele {
					row[a]++
				}
			}
		}
	}, parallel.Default())

	return out
}

// ToAlleleCounts counts alleles per sample without aggregating over samples.
// Per-sample counts never exceed the ploidy, which the caller keeps <= 127.
//
// Result: int8 [variant, sample, maxAllele+1].
func ToAlleleCounts(gt *tensor.RawTensor, maxAllele int) *tensor.RawTensor {
	variants, samples, ploidy, data := genotypeCells(gt)
	nAlleles := maxAllele + 1
	out := tensor.MustRaw(tensor.Shape{variants, samples, nAlleles}, tensor.Int8)
	dst := out.AsInt8()

	parallel.ForRange(variants, func(start, end int) {
		for c := start * samples; c < end*samples; c++ {
			row := dst[c*nAlleles : (c+1)*nAlleles]
			for _, a := range data[c*ploidy : (c+1)*ploidy] {
				if a >= 0 && int(a) <= maxAllele {
					row[a]++
				}
			}
		}
	}, parallel.Default())

	return out
}

// ToAlleleCountsMelt folds the allele axis of the per-sample counts into the
// variant axis: out[i*(maxAllele+1)+a, j] = counts[i, j, a].
//
// Result: int8 [variant*(maxAllele+1), sample].
func ToAlleleCountsMelt(gt *tensor.RawTensor, maxAllele int) *tensor.RawTensor {
	ac := ToAlleleCounts(gt, maxAllele)
	s := ac.Shape()
	variants, samples, nAlleles := s[0], s[1], s[2]
	src := ac.AsInt8()

	out := tensor.MustRaw(tensor.Shape{variants * nAlleles, samples}, tensor.Int8)
	dst := out.AsInt8()

	parallel.ForRange(variants, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < samples; j++ {
				for a := 0; a < nAlleles; a++ {
					dst[(i*nAlleles+a)*samples+j] = src[(i*samples+j)*nAlleles+a]
				}
			}
		}
	}, parallel.Default())

	return out
}

// SumInt32 adds int32 blocks of identical shape element-wise.
// Integer addition is associative and commutative, so partial allele counts
// may be combined in any grouping and order.
func SumInt32(parts ...*tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(parts[0].Shape(), tensor.Int32)
	dst := out.AsInt32()
	for _, p := range parts {
		for i, v := range p.AsInt32() {
			dst[i] += v
		}
	}
	return out
}
