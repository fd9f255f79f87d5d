package tensor

import "fmt"

// Kind tags the storage representation of a tensor. The set is closed:
// backends are selected by Kind, never by inspecting Go types.
type Kind int

// Supported tensor kinds.
const (
	// KindDense is a fully materialized in-memory tensor (*RawTensor).
	KindDense Kind = iota
	// KindChunkedGraph is a lazy tensor described by a block task graph.
	KindChunkedGraph
	// KindChunkedStore is a tensor held as pre-partitioned in-memory blocks.
	KindChunkedStore

	numKinds
)

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := KindDense; k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindChunkedGraph:
		return "chunked-graph"
	case KindChunkedStore:
		return "chunked-store"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Tensor is implemented by every tensor-like argument accepted by the
// dispatch layer.
type Tensor interface {
	Kind() Kind
	Shape() Shape
	DType() DataType
}
