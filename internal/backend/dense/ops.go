package dense

import (
	"github.com/born-ml/gtensor/internal/backend/validate"
	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/kernels"
	"github.com/born-ml/gtensor/internal/tensor"
)

func genotypeOp(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		gt, err := Genotype(op, args[0])
		if err != nil {
			return nil, err
		}
		return kernel(gt), nil
	}
}

func countsOp(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		ac, err := AlleleCounts(op, args[0])
		if err != nil {
			return nil, err
		}
		return kernel(ac), nil
	}
}

func counts3DOp(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		ac, err := AlleleCounts3D(op, args[0])
		if err != nil {
			return nil, err
		}
		return kernel(ac), nil
	}
}

var (
	isCalled  = genotypeOp(dispatch.OpIsCalled, kernels.IsCalled)
	isMissing = genotypeOp(dispatch.OpIsMissing, kernels.IsMissing)
	isHom     = genotypeOp(dispatch.OpIsHom, kernels.IsHom)
	isHet     = genotypeOp(dispatch.OpIsHet, kernels.IsHet)

	alleleCountsToFrequencies = countsOp(dispatch.OpAlleleCountsToFrequencies, kernels.AlleleCountsToFrequencies)
	alleleCountsMaxAllele     = countsOp(dispatch.OpAlleleCountsMaxAllele, kernels.AlleleCountsMaxAllele)
	alleleCountsAllelism      = countsOp(dispatch.OpAlleleCountsAllelism, kernels.AlleleCountsAllelism)
	locateVariant             = countsOp(dispatch.OpLocateVariant, kernels.LocateVariant)
	locateNonVariant          = countsOp(dispatch.OpLocateNonVariant, kernels.LocateNonVariant)
	locateSegregating         = countsOp(dispatch.OpLocateSegregating, kernels.LocateSegregating)

	alleleCountsLocateHom = counts3DOp(dispatch.OpAlleleCountsLocateHom, kernels.AlleleCountsLocateHom)
	alleleCountsLocateHet = counts3DOp(dispatch.OpAlleleCountsLocateHet, kernels.AlleleCountsLocateHet)
)

func locateCall(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpLocateCall
	gt, err := Genotype(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.CallParam(op, p.Call, gt.Shape()[2]); err != nil {
		return nil, err
	}
	return kernels.LocateCall(gt, p.Call), nil
}

func countAlleles(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpCountAlleles
	gt, err := Genotype(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.MaxAlleleParam(op, p.MaxAllele); err != nil {
		return nil, err
	}
	return kernels.CountAlleles(gt, p.MaxAllele), nil
}

func toAlleleCounts(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpToAlleleCounts
	gt, err := Genotype(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.PerSampleCounts(op, gt, p.MaxAllele); err != nil {
		return nil, err
	}
	return kernels.ToAlleleCounts(gt, p.MaxAllele), nil
}

func toAlleleCountsMelt(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpToAlleleCountsMelt
	gt, err := Genotype(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.PerSampleCounts(op, gt, p.MaxAllele); err != nil {
		return nil, err
	}
	return kernels.ToAlleleCountsMelt(gt, p.MaxAllele), nil
}

func selectSlice(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectSlice
	r, err := raw(op, args[0])
	if err != nil {
		return nil, err
	}
	axis, err := validate.Axis(op, p.Axis, len(r.Shape()))
	if err != nil {
		return nil, err
	}
	if err := validate.SliceBounds(op, p.Start, p.Stop, r.Shape()[axis]); err != nil {
		return nil, err
	}
	return kernels.Slice(r, p.Start, p.Stop, axis), nil
}

func selectIndices(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectIndices
	r, err := raw(op, args[0])
	if err != nil {
		return nil, err
	}
	idx, err := raw(op, args[1])
	if err != nil {
		return nil, err
	}
	axis, err := validate.Axis(op, p.Axis, len(r.Shape()))
	if err != nil {
		return nil, err
	}
	indices, err := validate.Indices(op, idx, r.Shape()[axis])
	if err != nil {
		return nil, err
	}
	return kernels.Take(r, indices, axis), nil
}

func selectMask(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectMask
	r, err := raw(op, args[0])
	if err != nil {
		return nil, err
	}
	m, err := raw(op, args[1])
	if err != nil {
		return nil, err
	}
	axis, err := validate.Axis(op, p.Axis, len(r.Shape()))
	if err != nil {
		return nil, err
	}
	mask, err := validate.Mask(op, m, r.Shape()[axis])
	if err != nil {
		return nil, err
	}
	return kernels.Compress(r, mask, axis), nil
}

func concatenate(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpConcatenate
	axis, err := validate.Concatenable(op, args, p.Axis)
	if err != nil {
		return nil, err
	}
	blocks := make([]*tensor.RawTensor, len(args))
	for i, a := range args {
		if blocks[i], err = raw(op, a); err != nil {
			return nil, err
		}
	}
	return kernels.Concatenate(blocks, axis), nil
}
