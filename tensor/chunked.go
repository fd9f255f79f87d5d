// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gtensor/internal/backend/chunked"
	"github.com/born-ml/gtensor/internal/serialization"
	"github.com/born-ml/gtensor/internal/tensor"
)

// Array is a lazy chunked tensor. Operations on an Array return new Arrays
// whose task graphs extend the input's; genotype.Compute materializes them.
type Array = chunked.Array

// Store holds pre-partitioned in-memory blocks.
type Store = chunked.Store

// Chunk splits a dense tensor into a lazy Array with the given geometry.
//
// Example:
//
//	lazy, err := tensor.Chunk(gt, tensor.Regular(gt.Shape(), 1000, 100))
func Chunk(r *RawTensor, chunks Chunks) (*Array, error) {
	return chunked.FromDense(r, chunks)
}

// NewStore splits a dense tensor into a Store with the given geometry.
func NewStore(r *RawTensor, chunks Chunks) (*Store, error) {
	return chunked.NewStore(r, chunks)
}

// StoreFromBlocks builds a Store from blocks in row-major grid order.
func StoreFromBlocks(blocks []*RawTensor, chunks Chunks, dtype DataType) (*Store, error) {
	return chunked.StoreFromBlocks(blocks, chunks, dtype)
}

// Split cuts a dense tensor into blocks in row-major grid order.
func Split(r *RawTensor, chunks Chunks) ([]*RawTensor, error) {
	return tensor.Split(r, chunks)
}

// SaveStore writes s to a .gts file at path.
func SaveStore(path string, s *Store, metadata map[string]string) error {
	return serialization.Save(path, s, metadata)
}

// LoadStore reads a .gts file written by SaveStore. The block checksum is
// verified before any block is returned.
func LoadStore(path string) (*Store, error) {
	return serialization.Load(path)
}
