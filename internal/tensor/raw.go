package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is the dense in-memory tensor representation.
// Data is stored contiguously in row-major order.
// Operations never modify a RawTensor they receive; results are freshly allocated.
type RawTensor struct {
	data   []byte   // Contiguous element storage
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides (row-major)
	dtype  DataType // Runtime type information
}

// Compile-time check that RawTensor is a dispatchable tensor.
var _ Tensor = (*RawTensor)(nil)

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// MustRaw is like NewRaw but panics on an invalid shape.
// Kernels use it for output shapes derived from already validated inputs.
func MustRaw(shape Shape, dtype DataType) *RawTensor {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err)
	}
	return r
}

// FromSlice creates a dense tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	copy(Values[T](raw), data)

	return raw, nil
}

// Values interprets the tensor data as []T without copying.
// Panics if T does not match the tensor's dtype.
func Values[T DType](r *RawTensor) []T {
	var dummy T
	if dt := inferDataType(dummy); dt != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
	n := r.NumElements()
	if n == 0 {
		return []T{}
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data[0])), n)
}

// Kind reports KindDense.
func (r *RawTensor) Kind() Kind {
	return KindDense
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsInt8 interprets the data as []int8.
// Panics if the tensor's dtype is not Int8.
func (r *RawTensor) AsInt8() []int8 { return Values[int8](r) }

// AsInt16 interprets the data as []int16.
// Panics if the tensor's dtype is not Int16.
func (r *RawTensor) AsInt16() []int16 { return Values[int16](r) }

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 { return Values[int32](r) }

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 { return Values[int64](r) }

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 { return Values[uint8](r) }

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 { return Values[float32](r) }

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 { return Values[float64](r) }

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool { return Values[bool](r) }

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	return &RawTensor{
		data:   append([]byte(nil), r.data...),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
}

// Reshape returns a copy of the tensor with a new shape holding the same
// number of elements.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("reshape: incompatible shapes: %v -> %v (different number of elements)", r.shape, shape)
	}
	out := r.Clone()
	out.shape = shape.Clone()
	out.stride = shape.ComputeStrides()
	return out, nil
}

// Equal reports whether two dense tensors have the same dtype, shape and bytes.
func (r *RawTensor) Equal(other *RawTensor) bool {
	if r.dtype != other.dtype || !r.shape.Equal(other.shape) {
		return false
	}
	return string(r.data) == string(other.data)
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s%v)", r.dtype, []int(r.shape))
}
