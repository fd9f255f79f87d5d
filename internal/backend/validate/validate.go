// Package validate holds the argument checks shared by the dense and chunked
// backends. Checks look only at shape, dtype and scalar parameters, so they
// run before any block is computed or any task node is created.
package validate

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/tensor"
)

// MaxAllele bounds the allele index accepted by the counting operations so
// that counts stay within int8 storage per sample.
const MaxAllele = 127

// maxPloidy bounds the ploidy of per-sample allele counts, which are int8.
const maxPloidy = 127

func rank(op, what string, s tensor.Shape, want int) error {
	if len(s) != want {
		return fmt.Errorf("%s: %s must be %dD, got shape %v: %w", op, what, want, s, dispatch.ErrShape)
	}
	return nil
}

func integer(op, what string, dt tensor.DataType) error {
	if !dt.IsInteger() {
		return fmt.Errorf("%s: %s must have an integer dtype, got %s: %w", op, what, dt, dispatch.ErrDType)
	}
	return nil
}

// Genotype checks a [variant, sample, ploidy] integer tensor with ploidy >= 1.
func Genotype(op string, t tensor.Tensor) error {
	s := t.Shape()
	if err := rank(op, "genotype tensor", s, 3); err != nil {
		return err
	}
	if s[2] < 1 {
		return fmt.Errorf("%s: genotype ploidy must be >= 1, got %d: %w", op, s[2], dispatch.ErrShape)
	}
	return integer(op, "genotype tensor", t.DType())
}

// alleleAxis bounds the allele axis so that allele indices and allelism fit
// the int8 results of the allele count operations.
func alleleAxis(op, what string, s tensor.Shape) error {
	if n := s[len(s)-1]; n > MaxAllele+1 {
		return fmt.Errorf("%s: %s have %d alleles, at most %d supported: %w", op, what, n, MaxAllele+1, dispatch.ErrShape)
	}
	return nil
}

// AlleleCounts checks a [variant, allele] integer tensor.
func AlleleCounts(op string, t tensor.Tensor) error {
	if err := rank(op, "allele counts", t.Shape(), 2); err != nil {
		return err
	}
	if err := alleleAxis(op, "allele counts", t.Shape()); err != nil {
		return err
	}
	return integer(op, "allele counts", t.DType())
}

// AlleleCounts3D checks a [variant, sample, allele] integer tensor.
func AlleleCounts3D(op string, t tensor.Tensor) error {
	if err := rank(op, "per-sample allele counts", t.Shape(), 3); err != nil {
		return err
	}
	if err := alleleAxis(op, "per-sample allele counts", t.Shape()); err != nil {
		return err
	}
	return integer(op, "per-sample allele counts", t.DType())
}

// MaxAlleleParam checks that k is a usable max_allele.
func MaxAlleleParam(op string, k int) error {
	if k < 0 || k > MaxAllele {
		return fmt.Errorf("%s: max_allele must be in [0, %d], got %d: %w", op, MaxAllele, k, dispatch.ErrInvalidArgument)
	}
	return nil
}

// PerSampleCounts checks the extra ploidy bound of to_allele_counts and its
// melted form.
func PerSampleCounts(op string, gt tensor.Tensor, k int) error {
	if err := MaxAlleleParam(op, k); err != nil {
		return err
	}
	if p := gt.Shape()[2]; p > maxPloidy {
		return fmt.Errorf("%s: ploidy %d exceeds %d: %w", op, p, maxPloidy, dispatch.ErrInvalidArgument)
	}
	return nil
}

// CallParam checks that call has one allele per ploidy slot.
func CallParam(op string, call []int8, ploidy int) error {
	if len(call) != ploidy {
		return fmt.Errorf("%s: call has %d alleles, ploidy is %d: %w", op, len(call), ploidy, dispatch.ErrInvalidArgument)
	}
	return nil
}

// Axis resolves a possibly negative axis against rank.
func Axis(op string, axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmt.Errorf("%s: axis out of range for %dD tensor: %w", op, rank, dispatch.ErrInvalidArgument)
	}
	return axis, nil
}

// SliceBounds checks 0 <= start <= stop <= dim.
func SliceBounds(op string, start, stop, dim int) error {
	if start < 0 || stop < start || stop > dim {
		return fmt.Errorf("%s: slice [%d, %d) out of range for extent %d: %w", op, start, stop, dim, dispatch.ErrInvalidArgument)
	}
	return nil
}

// IndexVector checks that t is a 1D integer tensor.
func IndexVector(op string, t tensor.Tensor) error {
	if err := rank(op, "indices", t.Shape(), 1); err != nil {
		return err
	}
	return integer(op, "indices", t.DType())
}

// Indices reads a dense index vector and checks every index against dim.
func Indices(op string, idx *tensor.RawTensor, dim int) ([]int, error) {
	if err := IndexVector(op, idx); err != nil {
		return nil, err
	}
	wide, err := tensor.ConvertInteger(idx, tensor.Int64)
	if err != nil {
		return nil, fmt.Errorf("%s: indices: %v: %w", op, err, dispatch.ErrDType)
	}
	out := make([]int, 0, idx.NumElements())
	for i, v := range wide.AsInt64() {
		if v < 0 || v >= int64(dim) {
			return nil, fmt.Errorf("%s: index %d at position %d out of range for extent %d: %w",
				op, v, i, dim, dispatch.ErrInvalidArgument)
		}
		out = append(out, int(v))
	}
	return out, nil
}

// Mask reads a dense bool mask whose length must equal dim.
func Mask(op string, m *tensor.RawTensor, dim int) ([]bool, error) {
	if err := rank(op, "mask", m.Shape(), 1); err != nil {
		return nil, err
	}
	if m.DType() != tensor.Bool {
		return nil, fmt.Errorf("%s: mask must be bool, got %s: %w", op, m.DType(), dispatch.ErrDType)
	}
	if m.NumElements() != dim {
		return nil, fmt.Errorf("%s: mask length %d does not match extent %d: %w", op, m.NumElements(), dim, dispatch.ErrShape)
	}
	return m.AsBool(), nil
}

// Concatenable checks that tensors share rank, dtype and every extent except
// axis. It returns the resolved axis.
func Concatenable(op string, ts []tensor.Tensor, axis int) (int, error) {
	if len(ts) == 0 {
		return 0, fmt.Errorf("%s: no tensors to concatenate: %w", op, dispatch.ErrInvalidArgument)
	}
	first := ts[0].Shape()
	axis, err := Axis(op, axis, len(first))
	if err != nil {
		return 0, err
	}
	for i, t := range ts[1:] {
		s := t.Shape()
		if t.DType() != ts[0].DType() {
			return 0, fmt.Errorf("%s: argument %d has dtype %s, want %s: %w", op, i+1, t.DType(), ts[0].DType(), dispatch.ErrDType)
		}
		if len(s) != len(first) {
			return 0, fmt.Errorf("%s: argument %d has rank %d, want %d: %w", op, i+1, len(s), len(first), dispatch.ErrShape)
		}
		for d := range s {
			if d != axis && s[d] != first[d] {
				return 0, fmt.Errorf("%s: argument %d has extent %d on axis %d, want %d: %w",
					op, i+1, s[d], d, first[d], dispatch.ErrShape)
			}
		}
	}
	return axis, nil
}
