package chunked

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/graph"
	"github.com/born-ml/gtensor/internal/tensor"
)

// Array is a lazy chunked tensor: a task graph plus the keys and geometry of
// its output blocks. Operations on an Array only extend the graph; an engine
// materializes it.
type Array struct {
	coll graph.Collection
}

// Compile-time check that Array is a dispatchable tensor.
var _ tensor.Tensor = (*Array)(nil)

// NewArray wraps a collection after validating it.
func NewArray(coll graph.Collection) (*Array, error) {
	if err := coll.Validate(); err != nil {
		return nil, err
	}
	return &Array{coll: coll}, nil
}

// FromDense splits a dense tensor into leaf blocks following chunks.
func FromDense(r *tensor.RawTensor, chunks tensor.Chunks) (*Array, error) {
	blocks, err := tensor.Split(r, chunks)
	if err != nil {
		return nil, err
	}
	return fromBlocks("array", blocks, chunks, r.Shape(), r.DType()), nil
}

func fromBlocks(name string, blocks []*tensor.RawTensor, chunks tensor.Chunks, shape tensor.Shape, dtype tensor.DataType) *Array {
	token := graph.Token(name)
	nodes := make([]graph.Node, len(blocks))
	keys := make([]graph.Key, len(blocks))
	for flat, b := range blocks {
		keys[flat] = graph.BlockKey(token, chunks.BlockIndex(flat))
		nodes[flat] = graph.Leaf(keys[flat], b)
	}
	return &Array{coll: graph.Collection{
		Graph:  graph.New(nodes...),
		Keys:   keys,
		Chunks: chunks.Clone(),
		Shape:  shape.Clone(),
		DType:  dtype,
	}}
}

// Kind reports KindChunkedGraph.
func (a *Array) Kind() tensor.Kind { return tensor.KindChunkedGraph }

// Shape returns the full tensor shape.
func (a *Array) Shape() tensor.Shape { return a.coll.Shape }

// DType returns the element type of every block.
func (a *Array) DType() tensor.DataType { return a.coll.DType }

// Chunks returns the block geometry.
func (a *Array) Chunks() tensor.Chunks { return a.coll.Chunks }

// Collection returns the engine-facing description of the array.
func (a *Array) Collection() graph.Collection { return a.coll }

func (a *Array) String() string {
	return fmt.Sprintf("Array(shape=%v, dtype=%s, blocks=%v, nodes=%d)",
		a.coll.Shape, a.coll.DType, a.coll.Chunks.Grid(), a.coll.Graph.Len())
}

// Store holds pre-partitioned in-memory blocks, like a handle on a chunked
// array store. It is read by the chunked backend as a graph of leaves.
type Store struct {
	blocks []*tensor.RawTensor
	chunks tensor.Chunks
	shape  tensor.Shape
	dtype  tensor.DataType
}

// Compile-time check that Store is a dispatchable tensor.
var _ tensor.Tensor = (*Store)(nil)

// NewStore partitions a dense tensor into a store following chunks.
func NewStore(r *tensor.RawTensor, chunks tensor.Chunks) (*Store, error) {
	blocks, err := tensor.Split(r, chunks)
	if err != nil {
		return nil, err
	}
	return &Store{blocks: blocks, chunks: chunks.Clone(), shape: r.Shape().Clone(), dtype: r.DType()}, nil
}

// StoreFromBlocks builds a store from blocks in row-major grid order.
func StoreFromBlocks(blocks []*tensor.RawTensor, chunks tensor.Chunks, dtype tensor.DataType) (*Store, error) {
	shape := chunks.Shape()
	if err := chunks.Validate(shape); err != nil {
		return nil, err
	}
	if len(blocks) != chunks.NumBlocks() {
		return nil, fmt.Errorf("%w: %d blocks for a grid of %d", tensor.ErrChunks, len(blocks), chunks.NumBlocks())
	}
	for flat, b := range blocks {
		idx := chunks.BlockIndex(flat)
		if want := chunks.BlockShape(idx); b.DType() != dtype || !b.Shape().Equal(want) {
			return nil, fmt.Errorf("%w: block %v is %s%v, declared %s%v",
				tensor.ErrChunks, idx, b.DType(), []int(b.Shape()), dtype, []int(want))
		}
	}
	return &Store{blocks: append([]*tensor.RawTensor(nil), blocks...), chunks: chunks.Clone(), shape: shape, dtype: dtype}, nil
}

// Kind reports KindChunkedStore.
func (s *Store) Kind() tensor.Kind { return tensor.KindChunkedStore }

// Shape returns the full tensor shape.
func (s *Store) Shape() tensor.Shape { return s.shape }

// DType returns the element type of every block.
func (s *Store) DType() tensor.DataType { return s.dtype }

// Chunks returns the block geometry.
func (s *Store) Chunks() tensor.Chunks { return s.chunks }

// Block returns the block at grid coordinates idx.
func (s *Store) Block(idx []int) *tensor.RawTensor { return s.blocks[s.chunks.Flat(idx)] }

// asArray normalizes a chunked-backend argument. Stores become graphs of
// leaves and dense tensors become single-block arrays.
func asArray(op string, t tensor.Tensor) (*Array, error) {
	switch v := t.(type) {
	case *Array:
		return v, nil
	case *Store:
		return v.Array(), nil
	case *tensor.RawTensor:
		return fromBlocks("dense", []*tensor.RawTensor{v}, tensor.Single(v.Shape()), v.Shape(), v.DType()), nil
	default:
		return nil, fmt.Errorf("%s: cannot read %T as a chunked array: %w", op, t, dispatch.ErrUnsupportedType)
	}
}

// Array returns the store as a graph of leaves.
func (s *Store) Array() *Array {
	return fromBlocks("store", s.blocks, s.chunks, s.shape, s.dtype)
}
