package serialization

import (
	"fmt"
	"slices"
	"sort"

	"github.com/born-ml/gtensor/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize = 100 * 1024 * 1024 // 100MB
	MaxBlockCount = 1_000_000
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict checks geometry and block offsets (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks geometry only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateBlockOffsets checks for overlapping blocks and blocks extending
// past the data section.
func ValidateBlockOffsets(blocks []BlockMeta, dataSize int64) error {
	sorted := slices.Clone(blocks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, b := range sorted {
		if b.Offset < 0 || b.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Block:   b.Index,
				Details: fmt.Sprintf("offset=%d, size=%d", b.Offset, b.Size),
			}
		}
		if b.Offset+b.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Block:   b.Index,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", b.Offset, b.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if b.Offset+b.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Block:   b.Index,
					Block2:  next.Index,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						b.Offset, b.Offset+b.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateHeader checks that h describes a complete block grid of a known
// dtype, and at ValidationStrict that its blocks fit the data section.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	dtype, ok := stringToDtype(h.DType)
	if !ok {
		return &ValidationError{Type: "unknown_dtype", Details: fmt.Sprintf("%q", h.DType)}
	}
	chunks := tensor.Chunks(h.Chunks)
	if err := chunks.Validate(tensor.Shape(h.Shape)); err != nil {
		return &ValidationError{Type: "invalid_chunks", Details: err.Error()}
	}
	if len(h.Blocks) > MaxBlockCount || len(h.Blocks) != chunks.NumBlocks() {
		return &ValidationError{
			Type:    "block_count",
			Details: fmt.Sprintf("got %d blocks, grid has %d (max %d)", len(h.Blocks), chunks.NumBlocks(), MaxBlockCount),
		}
	}

	for flat, b := range h.Blocks {
		want := chunks.BlockIndex(flat)
		if !slices.Equal(b.Index, want) {
			return &ValidationError{
				Type:    "block_order",
				Block:   b.Index,
				Details: fmt.Sprintf("block %d should be %v", flat, want),
			}
		}
		if size := int64(chunks.BlockShape(want).NumElements() * dtype.Size()); b.Size != size {
			return &ValidationError{
				Type:    "block_size",
				Block:   b.Index,
				Details: fmt.Sprintf("size %d, geometry needs %d", b.Size, size),
			}
		}
	}

	if level == ValidationStrict {
		return ValidateBlockOffsets(h.Blocks, dataSize)
	}
	return nil
}
