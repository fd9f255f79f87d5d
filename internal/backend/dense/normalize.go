package dense

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/backend/validate"
	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/tensor"
)

// raw asserts that t is a dense tensor.
func raw(op string, t tensor.Tensor) (*tensor.RawTensor, error) {
	r, ok := t.(*tensor.RawTensor)
	if !ok {
		return nil, fmt.Errorf("%s: expected a dense tensor, got %s: %w", op, t.Kind(), dispatch.ErrUnsupportedType)
	}
	return r, nil
}

func convert(op, what string, r *tensor.RawTensor, to tensor.DataType) (*tensor.RawTensor, error) {
	out, err := tensor.ConvertInteger(r, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %v: %w", op, what, err, dispatch.ErrDType)
	}
	return out, nil
}

// Genotype validates t as a genotype tensor and returns it as int8.
// Other integer dtypes are accepted when every value fits into int8.
func Genotype(op string, t tensor.Tensor) (*tensor.RawTensor, error) {
	r, err := raw(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.Genotype(op, r); err != nil {
		return nil, err
	}
	return convert(op, "genotype tensor", r, tensor.Int8)
}

// AlleleCounts validates t as a [variant, allele] count matrix and returns
// it as int32.
func AlleleCounts(op string, t tensor.Tensor) (*tensor.RawTensor, error) {
	r, err := raw(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.AlleleCounts(op, r); err != nil {
		return nil, err
	}
	return convert(op, "allele counts", r, tensor.Int32)
}

// AlleleCounts3D validates t as [variant, sample, allele] counts and returns
// them as int8.
func AlleleCounts3D(op string, t tensor.Tensor) (*tensor.RawTensor, error) {
	r, err := raw(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.AlleleCounts3D(op, r); err != nil {
		return nil, err
	}
	return convert(op, "per-sample allele counts", r, tensor.Int8)
}
