// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gtensor/internal/tensor"
)

// RawTensor is the dense in-memory tensor.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Zero-copy typed access via AsInt8(), AsInt32(), AsBool(), etc.
//   - Deep copies via Clone()
//
// Operations never modify a RawTensor they receive.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3, 2}, tensor.Int8)
//	data := raw.AsInt8()
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-filled dense tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a dense tensor holding a copy of data.
//
// Example:
//
//	gt, err := tensor.FromSlice([]int8{0, 1, 1, 1}, tensor.Shape{1, 2, 2})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Values returns the elements of r as []T without copying.
// It panics if T does not match the dtype of r.
func Values[T DType](r *RawTensor) []T {
	return tensor.Values[T](r)
}

// ErrLossyConversion is returned when an integer value does not fit the
// requested dtype.
var ErrLossyConversion = tensor.ErrLossyConversion

// ConvertInteger converts an integer tensor to another integer dtype,
// failing instead of truncating.
func ConvertInteger(r *RawTensor, to DataType) (*RawTensor, error) {
	return tensor.ConvertInteger(r, to)
}
