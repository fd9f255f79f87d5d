// Package graph defines the task graph built by the chunked backend and
// consumed by an execution engine.
//
// A Graph is an immutable map from Key to Node. Leaves hold dense blocks;
// tasks compute a block from the blocks of their ordered input keys. Graphs
// built by separate calls never share keys because every call draws a fresh
// token, so they can be merged by plain union.
package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/gtensor/internal/tensor"
)

var (
	// ErrMissingKey is returned when a key is referenced but has no node.
	ErrMissingKey = errors.New("graph: missing key")

	// ErrCycle is returned when nodes depend on each other.
	ErrCycle = errors.New("graph: dependency cycle")
)

// Key names one node. Block keys have the form "name-token/i,j,...".
type Key string

// Token returns a unique prefix for the keys of one graph-building call.
func Token(name string) string {
	return name + "-" + uuid.NewString()
}

// BlockKey returns the key of the block at idx under token.
func BlockKey(token string, idx []int) Key {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return Key(token + "/" + strings.Join(parts, ","))
}

// Fn computes one block from the values of a task's inputs, in input order.
// It must not modify its inputs.
type Fn func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// Node is a leaf or a task.
type Node struct {
	Key    Key
	Value  *tensor.RawTensor // Leaf value, nil for tasks
	Fn     Fn
	Inputs []Key

	// Combine marks reduction nodes that merge partial results of other
	// tasks rather than mapping input blocks.
	Combine bool
}

// Leaf returns a node holding a materialized block.
func Leaf(key Key, value *tensor.RawTensor) Node {
	return Node{Key: key, Value: value}
}

// Task returns a node that applies fn to the given inputs.
func Task(key Key, fn Fn, inputs ...Key) Node {
	return Node{Key: key, Fn: fn, Inputs: inputs}
}

// Reduction returns a task node flagged as a combine step.
func Reduction(key Key, fn Fn, inputs ...Key) Node {
	n := Task(key, fn, inputs...)
	n.Combine = true
	return n
}

// IsLeaf reports whether the node holds a value.
func (n Node) IsLeaf() bool { return n.Fn == nil }

// Graph is an immutable set of nodes keyed by Key.
// The zero value is an empty graph.
type Graph struct {
	nodes map[Key]Node
}

// New builds a graph from nodes. A later node replaces an earlier one with
// the same key.
func New(nodes ...Node) Graph {
	g := Graph{nodes: make(map[Key]Node, len(nodes))}
	for _, n := range nodes {
		g.nodes[n.Key] = n
	}
	return g
}

// With returns a new graph holding g's nodes plus nodes.
func (g Graph) With(nodes ...Node) Graph {
	out := Graph{nodes: make(map[Key]Node, len(g.nodes)+len(nodes))}
	maps.Copy(out.nodes, g.nodes)
	for _, n := range nodes {
		out.nodes[n.Key] = n
	}
	return out
}

// Merge returns the union of graphs.
func Merge(graphs ...Graph) Graph {
	size := 0
	for _, g := range graphs {
		size += len(g.nodes)
	}
	out := Graph{nodes: make(map[Key]Node, size)}
	for _, g := range graphs {
		maps.Copy(out.nodes, g.nodes)
	}
	return out
}

// Len returns the number of nodes.
func (g Graph) Len() int { return len(g.nodes) }

// Get returns the node for key.
func (g Graph) Get(key Key) (Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Keys returns all keys in sorted order.
func (g Graph) Keys() []Key {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Cull returns the subgraph reachable from outputs.
func (g Graph) Cull(outputs []Key) (Graph, error) {
	out := Graph{nodes: make(map[Key]Node)}
	stack := slices.Clone(outputs)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out.nodes[k]; seen {
			continue
		}
		n, ok := g.nodes[k]
		if !ok {
			return Graph{}, fmt.Errorf("%w: %s", ErrMissingKey, k)
		}
		out.nodes[k] = n
		stack = append(stack, n.Inputs...)
	}
	return out, nil
}

// Levels orders the nodes of g by dependency depth: every node's inputs are
// in earlier levels. Keys within a level are sorted.
func (g Graph) Levels() ([][]Key, error) {
	depth := make(map[Key]int, len(g.nodes))
	const visiting = -1

	var visit func(k Key) (int, error)
	visit = func(k Key) (int, error) {
		if d, ok := depth[k]; ok {
			if d == visiting {
				return 0, fmt.Errorf("%w: through %s", ErrCycle, k)
			}
			return d, nil
		}
		n, ok := g.nodes[k]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingKey, k)
		}
		depth[k] = visiting
		d := 0
		for _, in := range n.Inputs {
			di, err := visit(in)
			if err != nil {
				return 0, err
			}
			d = max(d, di+1)
		}
		depth[k] = d
		return d, nil
	}

	var levels [][]Key
	for _, k := range g.Keys() {
		d, err := visit(k)
		if err != nil {
			return nil, err
		}
		for len(levels) <= d {
			levels = append(levels, nil)
		}
	}
	for _, k := range g.Keys() {
		levels[depth[k]] = append(levels[depth[k]], k)
	}
	return levels, nil
}
