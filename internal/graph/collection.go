package graph

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/tensor"
)

// Collection describes a chunked result to an engine: the graph, the key of
// every output block in row-major block order, and the declared geometry.
type Collection struct {
	Graph  Graph
	Keys   []Key
	Chunks tensor.Chunks
	Shape  tensor.Shape
	DType  tensor.DataType
}

// Validate checks that the keys cover the chunk grid and that the chunks
// partition the shape.
func (c Collection) Validate() error {
	if err := c.Chunks.Validate(c.Shape); err != nil {
		return err
	}
	if n := c.Chunks.NumBlocks(); len(c.Keys) != n {
		return fmt.Errorf("collection has %d keys for %d blocks", len(c.Keys), n)
	}
	for _, k := range c.Keys {
		if _, ok := c.Graph.Get(k); !ok {
			return fmt.Errorf("%w: output %s", ErrMissingKey, k)
		}
	}
	return nil
}

// Key returns the output key of the block at idx.
func (c Collection) Key(idx []int) Key {
	return c.Keys[c.Chunks.Flat(idx)]
}
