// Package kernels implements the numeric genotype kernels.
//
// Every kernel computes one operation over one in-memory block and returns a
// freshly allocated block. Kernels know nothing about chunking or dispatch:
// inputs are assumed to be validated by the calling backend (dtype and rank),
// and any block shape along the variant and sample axes is accepted.
//
// Kernels are pure and cell independent, so they split work across variants
// using the process-wide parallel configuration.
package kernels

import (
	"github.com/born-ml/gtensor/internal/parallel"
	"github.com/born-ml/gtensor/internal/tensor"
)

// genotypeCells returns the [variant, sample, ploidy] extents and data of a
// validated int8 genotype block.
func genotypeCells(gt *tensor.RawTensor) (variants, samples, ploidy int, data []int8) {
	s := gt.Shape()
	return s[0], s[1], s[2], gt.AsInt8()
}

// mapCells evaluates f for every [variant, sample] cell and stores the result
// in a new bool mask. f receives the ploidy vector of the cell.
func mapCells(gt *tensor.RawTensor, f func(call []int8) bool) *tensor.RawTensor {
	variants, samples, ploidy, data := genotypeCells(gt)
	out := tensor.MustRaw(tensor.Shape{variants, samples}, tensor.Bool)
	dst := out.AsBool()

	parallel.ForCells(variants, samples, func(c int) {
		dst[c] = f(data[c*ploidy : (c+1)*ploidy])
	}, parallel.Default())

	return out
}

// IsCalled marks cells where no ploidy value is missing.
func IsCalled(gt *tensor.RawTensor) *tensor.RawTensor {
	return mapCells(gt, func(call []int8) bool {
		for _, a := range call {
			if a < 0 {
				return false // no need to check other alleles
			}
		}
		return true
	})
}

// IsMissing marks cells where at least one ploidy value is missing.
func IsMissing(gt *tensor.RawTensor) *tensor.RawTensor {
	return mapCells(gt, func(call []int8) bool {
		for _, a := range call {
			if a < 0 {
				return true
			}
		}
		return false
	})
}

// IsHom marks called cells whose ploidy values are all equal.
// A called haploid cell is homozygous.
func IsHom(gt *tensor.RawTensor) *tensor.RawTensor {
	return mapCells(gt, func(call []int8) bool {
		first := call[0]
		if first < 0 {
			return false
		}
		for _, a := range call[1:] {
			if a != first {
				return false
			}
		}
		return true
	})
}

// IsHet marks cells holding at least two different non-missing alleles.
// Missing values are skipped, wherever they occur in the ploidy vector.
func IsHet(gt *tensor.RawTensor) *tensor.RawTensor {
	return mapCells(gt, func(call []int8) bool {
		first := int8(-1)
		for _, a := range call {
			switch {
			case a < 0:
				continue
			case first < 0:
				first = a
			case a != first:
				return true
			}
		}
		return false
	})
}

// LocateCall marks cells whose ploidy vector equals call element-wise.
// len(call) must equal the ploidy of gt.
func LocateCall(gt *tensor.RawTensor, call []int8) *tensor.RawTensor {
	return mapCells(gt, func(c []int8) bool {
		for k, a := range c {
			if a != call[k] {
				return false
			}
		}
		return true
	})
}
