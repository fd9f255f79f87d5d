package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
// Example: Shape{100, 20, 2} is 100 variants by 20 samples with diploid calls.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions >= 0).
// Zero-length axes are allowed, e.g. after selecting no variants.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Split returns the products of the dimensions before and after axis.
// Row-major data can then be addressed as [outer, s[axis], inner].
func (s Shape) Split(axis int) (outer, inner int) {
	outer, inner = 1, 1
	for i, dim := range s {
		switch {
		case i < axis:
			outer *= dim
		case i > axis:
			inner *= dim
		}
	}
	return outer, inner
}

// With returns a copy of the shape with axis set to n.
func (s Shape) With(axis, n int) Shape {
	out := s.Clone()
	out[axis] = n
	return out
}
