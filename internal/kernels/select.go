package kernels

import (
	"github.com/born-ml/gtensor/internal/tensor"
)

// Selection kernels copy whole elements by dtype size, so they work for every
// dtype. Callers validate axis, bounds and co-argument shapes.

// Take gathers positions indices along axis, in the given order.
func Take(r *tensor.RawTensor, indices []int, axis int) *tensor.RawTensor {
	shape := r.Shape()
	outer, inner := shape.Split(axis)
	elem := r.DType().Size()
	rowBytes := inner * elem

	out := tensor.MustRaw(shape.With(axis, len(indices)), r.DType())
	src, dst := r.Data(), out.Data()

	for o := 0; o < outer; o++ {
		srcBase := o * shape[axis] * rowBytes
		dstBase := o * len(indices) * rowBytes
		for k, idx := range indices {
			copy(dst[dstBase+k*rowBytes:dstBase+(k+1)*rowBytes], src[srcBase+idx*rowBytes:srcBase+(idx+1)*rowBytes])
		}
	}
	return out
}

// Slice selects the half-open range [start, stop) along axis.
func Slice(r *tensor.RawTensor, start, stop, axis int) *tensor.RawTensor {
	indices := make([]int, 0, stop-start)
	for i := start; i < stop; i++ {
		indices = append(indices, i)
	}
	return Take(r, indices, axis)
}

// Compress keeps the positions along axis where mask is true.
func Compress(r *tensor.RawTensor, mask []bool, axis int) *tensor.RawTensor {
	return Take(r, MaskIndices(mask), axis)
}

// MaskIndices returns the positions of the true values of mask.
func MaskIndices(mask []bool) []int {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return indices
}

// Concatenate joins blocks along axis. All blocks share dtype and the extent
// of every other axis.
func Concatenate(blocks []*tensor.RawTensor, axis int) *tensor.RawTensor {
	first := blocks[0].Shape()
	total := 0
	for _, b := range blocks {
		total += b.Shape()[axis]
	}
	outer, inner := first.Split(axis)
	rowBytes := inner * blocks[0].DType().Size()

	out := tensor.MustRaw(first.With(axis, total), blocks[0].DType())
	dst := out.Data()

	offset := 0
	for o := 0; o < outer; o++ {
		for _, b := range blocks {
			n := b.Shape()[axis] * rowBytes
			copy(dst[offset:offset+n], b.Data()[o*n:(o+1)*n])
			offset += n
		}
	}
	return out
}
