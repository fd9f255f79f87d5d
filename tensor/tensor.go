// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gtensor/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: int8, int16, int32, int64, uint8, float32, float64, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Int8    DataType = tensor.Int8
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{100, 20, 2} is 100 variants × 20 samples × diploid.
type Shape = tensor.Shape

// Kind identifies the representation of a tensor.
type Kind = tensor.Kind

// Kind constants.
const (
	KindDense        Kind = tensor.KindDense
	KindChunkedGraph Kind = tensor.KindChunkedGraph
	KindChunkedStore Kind = tensor.KindChunkedStore
)

// Tensor is implemented by every tensor kind.
type Tensor = tensor.Tensor

// Chunks describes how a tensor is partitioned into blocks: one list of
// block lengths per axis.
type Chunks = tensor.Chunks

// Regular partitions shape into blocks of the given sizes per axis.
// A size <= 0, or a missing size, keeps the axis as a single block.
func Regular(shape Shape, sizes ...int) Chunks {
	return tensor.Regular(shape, sizes...)
}

// Single keeps every axis of shape as one block.
func Single(shape Shape) Chunks {
	return tensor.Single(shape)
}
