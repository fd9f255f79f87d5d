// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package genotype computes statistics over genotype tensors.
//
// A genotype tensor is an integer tensor of shape (variants, samples, ploidy)
// holding allele indices, with negative values marking missing calls. Every
// operation accepts dense tensors (*tensor.RawTensor) and chunked ones
// (*tensor.Array, *tensor.Store) and routes to the matching backend. Dense
// inputs are computed immediately. Chunked inputs return a lazy
// *tensor.Array that Compute materializes.
//
// Example:
//
//	gt, _ := tensor.FromSlice([]int8{0, 0, 0, 1, -1, -1}, tensor.Shape{1, 3, 2})
//	ac, err := genotype.CountAlleles(gt, 1)
//	if err != nil {
//		return err
//	}
//	dense, err := genotype.Compute(ctx, ac) // [[3 1]]
package genotype
