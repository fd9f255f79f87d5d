package tensor

import (
	"errors"
	"fmt"
)

// ErrChunks is returned when a chunk geometry does not describe a shape.
var ErrChunks = errors.New("invalid chunk geometry")

// Chunks describes how a tensor is partitioned into blocks: one list of block
// lengths per axis. Blocks are enumerated in row-major order over the block grid.
//
// Example: Chunks{{2, 2}, {3, 1, 1}, {2}} partitions a [4, 5, 2] tensor into
// 2×3×1 blocks.
type Chunks [][]int

// Regular partitions shape into blocks of the given sizes per axis.
// A size <= 0 (or a missing size) keeps the axis as a single block.
// The last block of an axis holds the remainder.
func Regular(shape Shape, sizes ...int) Chunks {
	c := make(Chunks, len(shape))
	for axis, dim := range shape {
		size := dim
		if axis < len(sizes) && sizes[axis] > 0 && sizes[axis] < dim {
			size = sizes[axis]
		}
		c[axis] = AxisChunks(dim, size)
	}
	return c
}

// AxisChunks splits an axis of length dim into blocks of length size.
func AxisChunks(dim, size int) []int {
	if dim == 0 || size <= 0 {
		return []int{dim}
	}
	out := make([]int, 0, (dim+size-1)/size)
	for start := 0; start < dim; start += size {
		out = append(out, min(size, dim-start))
	}
	return out
}

// Single returns the geometry that keeps every axis of shape as one block.
func Single(shape Shape) Chunks {
	return Regular(shape)
}

// Validate checks that the geometry partitions shape exactly.
func (c Chunks) Validate(shape Shape) error {
	if len(c) != len(shape) {
		return fmt.Errorf("%w: %d axes of chunks for %dD shape %v", ErrChunks, len(c), len(shape), shape)
	}
	for axis, blocks := range c {
		if len(blocks) == 0 {
			return fmt.Errorf("%w: axis %d has no blocks", ErrChunks, axis)
		}
		sum := 0
		for _, n := range blocks {
			if n < 0 || (n == 0 && len(blocks) > 1) {
				return fmt.Errorf("%w: axis %d has block length %d", ErrChunks, axis, n)
			}
			sum += n
		}
		if sum != shape[axis] {
			return fmt.Errorf("%w: axis %d blocks sum to %d, extent is %d", ErrChunks, axis, sum, shape[axis])
		}
	}
	return nil
}

// Shape returns the shape described by the geometry.
func (c Chunks) Shape() Shape {
	s := make(Shape, len(c))
	for axis, blocks := range c {
		for _, n := range blocks {
			s[axis] += n
		}
	}
	return s
}

// Clone returns a deep copy of the geometry.
func (c Chunks) Clone() Chunks {
	out := make(Chunks, len(c))
	for axis, blocks := range c {
		out[axis] = append([]int(nil), blocks...)
	}
	return out
}

// Equal reports whether two geometries are identical.
func (c Chunks) Equal(other Chunks) bool {
	if len(c) != len(other) {
		return false
	}
	for axis := range c {
		if !Shape(c[axis]).Equal(other[axis]) {
			return false
		}
	}
	return true
}

// Grid returns the number of blocks along each axis.
func (c Chunks) Grid() []int {
	g := make([]int, len(c))
	for axis, blocks := range c {
		g[axis] = len(blocks)
	}
	return g
}

// NumBlocks returns the total number of blocks.
func (c Chunks) NumBlocks() int {
	return Shape(c.Grid()).NumElements()
}

// BlockIndex converts a flat row-major block number into grid coordinates.
func (c Chunks) BlockIndex(flat int) []int {
	grid := c.Grid()
	idx := make([]int, len(grid))
	for axis := len(grid) - 1; axis >= 0; axis-- {
		idx[axis] = flat % grid[axis]
		flat /= grid[axis]
	}
	return idx
}

// Flat converts grid coordinates into a flat row-major block number.
func (c Chunks) Flat(idx []int) int {
	flat := 0
	for axis, i := range idx {
		flat = flat*len(c[axis]) + i
	}
	return flat
}

// BlockShape returns the shape of the block at grid coordinates idx.
func (c Chunks) BlockShape(idx []int) Shape {
	s := make(Shape, len(c))
	for axis, i := range idx {
		s[axis] = c[axis][i]
	}
	return s
}

// BlockOffset returns the element offset of the block's first element along
// every axis.
func (c Chunks) BlockOffset(idx []int) []int {
	off := make([]int, len(c))
	for axis, i := range idx {
		for _, n := range c[axis][:i] {
			off[axis] += n
		}
	}
	return off
}

// Offsets returns the starting offset of every block along axis, followed by
// the axis extent.
func (c Chunks) Offsets(axis int) []int {
	out := make([]int, len(c[axis])+1)
	for i, n := range c[axis] {
		out[i+1] = out[i] + n
	}
	return out
}

// Split cuts a dense tensor into blocks following the geometry.
// Blocks are returned in row-major grid order.
func Split(r *RawTensor, c Chunks) ([]*RawTensor, error) {
	if err := c.Validate(r.shape); err != nil {
		return nil, err
	}
	blocks := make([]*RawTensor, c.NumBlocks())
	for flat := range blocks {
		idx := c.BlockIndex(flat)
		b := MustRaw(c.BlockShape(idx), r.dtype)
		copyBox(b.data, b.shape, make([]int, len(idx)), r.data, r.shape, c.BlockOffset(idx), b.shape, r.dtype.Size())
		blocks[flat] = b
	}
	return blocks, nil
}

// Stitch assembles blocks in row-major grid order into one dense tensor.
func Stitch(blocks []*RawTensor, c Chunks, dtype DataType) (*RawTensor, error) {
	if len(blocks) != c.NumBlocks() {
		return nil, fmt.Errorf("%w: %d blocks for a grid of %d", ErrChunks, len(blocks), c.NumBlocks())
	}
	out, err := NewRaw(c.Shape(), dtype)
	if err != nil {
		return nil, err
	}
	for flat, b := range blocks {
		idx := c.BlockIndex(flat)
		want := c.BlockShape(idx)
		if b.dtype != dtype || !b.shape.Equal(want) {
			return nil, fmt.Errorf("%w: block %v is %s%v, declared %s%v",
				ErrChunks, idx, b.dtype, []int(b.shape), dtype, []int(want))
		}
		copyBox(out.data, out.shape, c.BlockOffset(idx), b.data, b.shape, make([]int, len(idx)), want, dtype.Size())
	}
	return out, nil
}

// copyBox copies a box of elements from src to dst. Offsets are per-axis
// element offsets into each buffer; box is the extent of the copied region.
func copyBox(dst []byte, dstShape Shape, dstOff []int, src []byte, srcShape Shape, srcOff []int, box Shape, elem int) {
	if box.NumElements() == 0 {
		return
	}
	ndim := len(box)
	if ndim == 0 {
		copy(dst[:elem], src[:elem])
		return
	}
	dstStrides := dstShape.ComputeStrides()
	srcStrides := srcShape.ComputeStrides()
	run := box[ndim-1] * elem

	// Iterate over every row of the box (all axes but the last).
	rows := box[:ndim-1].NumElements()
	idx := make([]int, ndim-1)
	for r := 0; r < rows; r++ {
		d := dstOff[ndim-1]
		s := srcOff[ndim-1]
		for axis, i := range idx {
			d += (dstOff[axis] + i) * dstStrides[axis]
			s += (srcOff[axis] + i) * srcStrides[axis]
		}
		copy(dst[d*elem:d*elem+run], src[s*elem:s*elem+run])

		for axis := ndim - 2; axis >= 0; axis-- {
			idx[axis]++
			if idx[axis] < box[axis] {
				break
			}
			idx[axis] = 0
		}
	}
}
