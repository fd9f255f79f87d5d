package tensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrLossyConversion is returned when an integer tensor holds a value that
// cannot be represented in the requested dtype.
var ErrLossyConversion = errors.New("lossy dtype conversion")

// ConvertInteger converts an integer tensor to another integer dtype.
// Narrowing conversions check every value against the target range and fail
// instead of truncating. Converting to the tensor's own dtype returns it as-is.
func ConvertInteger(r *RawTensor, to DataType) (*RawTensor, error) {
	if r.dtype == to {
		return r, nil
	}
	if !r.dtype.IsInteger() || !to.IsInteger() {
		return nil, fmt.Errorf("convert %s to %s: only integer dtypes are convertible", r.dtype, to)
	}

	lo, hi := integerRange(to)
	src := integerReader(r)
	out := MustRaw(r.shape, to)
	n := r.NumElements()

	if !WidensLosslessly(r.dtype, to) {
		for i := 0; i < n; i++ {
			v := src(i)
			if v < lo || v > hi {
				return nil, fmt.Errorf("convert %s to %s: value %d at flat index %d out of range [%d, %d]: %w",
					r.dtype, to, v, i, lo, hi, ErrLossyConversion)
			}
		}
	}

	switch to {
	case Int8:
		fill(out.AsInt8(), src)
	case Int16:
		fill(out.AsInt16(), src)
	case Int32:
		fill(out.AsInt32(), src)
	case Int64:
		fill(out.AsInt64(), src)
	case Uint8:
		fill(out.AsUint8(), src)
	}
	return out, nil
}

// WidensLosslessly reports whether every value of from is representable in to.
func WidensLosslessly(from, to DataType) bool {
	if !from.IsInteger() || !to.IsInteger() {
		return from == to
	}
	flo, fhi := integerRange(from)
	tlo, thi := integerRange(to)
	return flo >= tlo && fhi <= thi
}

func integerRange(dt DataType) (lo, hi int64) {
	switch dt {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Uint8:
		return 0, math.MaxUint8
	default:
		panic(fmt.Sprintf("integerRange: %s is not an integer dtype", dt))
	}
}

func integerReader(r *RawTensor) func(i int) int64 {
	switch r.dtype {
	case Int8:
		d := r.AsInt8()
		return func(i int) int64 { return int64(d[i]) }
	case Int16:
		d := r.AsInt16()
		return func(i int) int64 { return int64(d[i]) }
	case Int32:
		d := r.AsInt32()
		return func(i int) int64 { return int64(d[i]) }
	case Int64:
		d := r.AsInt64()
		return func(i int) int64 { return d[i] }
	case Uint8:
		d := r.AsUint8()
		return func(i int) int64 { return int64(d[i]) }
	default:
		panic(fmt.Sprintf("integerReader: %s is not an integer dtype", r.dtype))
	}
}

func fill[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8](dst []T, src func(i int) int64) {
	for i := range dst {
		dst[i] = T(src(i))
	}
}
