package chunked

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/gtensor/internal/graph"
	"github.com/born-ml/gtensor/internal/tensor"
)

// DefaultSplitEvery is the default fan-in of tree reductions.
const DefaultSplitEvery = 4

var splitEvery atomic.Int64

func init() {
	splitEvery.Store(DefaultSplitEvery)
}

// SplitEvery returns the fan-in used by tree reductions.
func SplitEvery() int { return int(splitEvery.Load()) }

// SetSplitEvery sets the fan-in of tree reductions. Values below 2 are
// raised to 2.
func SetSplitEvery(n int) {
	splitEvery.Store(int64(max(n, 2)))
}

// blockFn computes one output block from one input block.
type blockFn func(block *tensor.RawTensor) (*tensor.RawTensor, error)

// mapBlocks applies fn to every block of in. The output grid must number
// its blocks like the input grid, which holds whenever the two differ only
// by axes of a single block.
func mapBlocks(name string, in *Array, out tensor.Chunks, dtype tensor.DataType, fn blockFn) *Array {
	token := graph.Token(name)
	keys := make([]graph.Key, len(in.coll.Keys))
	nodes := make([]graph.Node, len(in.coll.Keys))
	for flat, src := range in.coll.Keys {
		keys[flat] = graph.BlockKey(token, out.BlockIndex(flat))
		nodes[flat] = graph.Task(keys[flat], func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			return fn(inputs[0])
		}, src)
	}
	return &Array{coll: graph.Collection{
		Graph:  in.coll.Graph.With(nodes...),
		Keys:   keys,
		Chunks: out,
		Shape:  out.Shape(),
		DType:  dtype,
	}}
}

// treeReduce combines keys in groups of up to fanIn until one key remains.
// It returns the root key and the reduction nodes; a single key is returned
// unchanged with no nodes.
func treeReduce(token string, keys []graph.Key, fanIn int, combine graph.Fn) (graph.Key, []graph.Node) {
	var nodes []graph.Node
	for level := 0; len(keys) > 1; level++ {
		next := make([]graph.Key, 0, (len(keys)+fanIn-1)/fanIn)
		for start := 0; start < len(keys); start += fanIn {
			group := keys[start:min(start+fanIn, len(keys))]
			if len(group) == 1 {
				next = append(next, group[0])
				continue
			}
			key := graph.Key(fmt.Sprintf("%s-reduce/%d,%d", token, level, len(next)))
			nodes = append(nodes, graph.Reduction(key, combine, group...))
			next = append(next, key)
		}
		keys = next
	}
	return keys[0], nodes
}
