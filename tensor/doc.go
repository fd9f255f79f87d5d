// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor types accepted by the genotype
// operations.
//
// # Overview
//
// Three kinds of tensors are supported:
//   - RawTensor: a dense in-memory tensor
//   - Array: a lazy chunked tensor described by a task graph
//   - Store: pre-partitioned in-memory blocks
//
// Every kind implements the Tensor interface, and the genotype package
// routes each operation to the backend for the kinds of its arguments.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gtensor/genotype"
//	    "github.com/born-ml/gtensor/tensor"
//	)
//
//	func main() {
//	    gt, _ := tensor.FromSlice([]int8{0, 0, 0, 1, -1, 0, 1, 1}, tensor.Shape{2, 2, 2})
//
//	    // Dense: computed immediately.
//	    ac, _ := genotype.CountAlleles(gt, 1)
//
//	    // Chunked: build a graph, then materialize it.
//	    lazy, _ := tensor.Chunk(gt, tensor.Regular(gt.Shape(), 1, 1))
//	    acLazy, _ := genotype.CountAlleles(lazy, 1)
//	    out, _ := genotype.Compute(context.Background(), acLazy)
//	}
//
// # Genotype Encoding
//
// Genotype tensors are int8 [variant, sample, ploidy]. A value >= 0 is an
// allele index and a negative value marks a missing call.
package tensor
