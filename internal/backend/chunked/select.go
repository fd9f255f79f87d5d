package chunked

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/backend/validate"
	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/graph"
	"github.com/born-ml/gtensor/internal/kernels"
	"github.com/born-ml/gtensor/internal/tensor"
)

// selectBlocks builds one task per output block of sel along axis, each
// taking the local positions from a single input block.
func selectBlocks(op string, a *Array, axis int, sel selection) *Array {
	in := a.Collection()
	out := in.Chunks.Clone()
	out[axis] = sel.lengths()

	token := graph.Token(op)
	keys := make([]graph.Key, out.NumBlocks())
	nodes := make([]graph.Node, len(keys))
	for flat := range keys {
		idx := out.BlockIndex(flat)
		src := append([]int(nil), idx...)
		src[axis] = sel.source[idx[axis]]
		local := sel.local[idx[axis]]

		keys[flat] = graph.BlockKey(token, idx)
		nodes[flat] = graph.Task(keys[flat], func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			return kernels.Take(inputs[0], local, axis), nil
		}, in.Key(src))
	}

	return &Array{coll: graph.Collection{
		Graph:  in.Graph.With(nodes...),
		Keys:   keys,
		Chunks: out,
		Shape:  out.Shape(),
		DType:  in.DType,
	}}
}

func selectSlice(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectSlice
	a, err := asArray(op, args[0])
	if err != nil {
		return nil, err
	}
	axis, err := validate.Axis(op, p.Axis, len(a.Shape()))
	if err != nil {
		return nil, err
	}
	if err := validate.SliceBounds(op, p.Start, p.Stop, a.Shape()[axis]); err != nil {
		return nil, err
	}
	sel := selectPositions(a.Chunks()[axis], func(i int) bool { return i >= p.Start && i < p.Stop })
	return selectBlocks(op, a, axis, sel), nil
}

// selectMask compresses along axis with a dense mask. The output geometry
// depends on the mask values, so a chunked mask is not accepted.
func selectMask(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectMask
	a, err := asArray(op, args[0])
	if err != nil {
		return nil, err
	}
	m, ok := args[1].(*tensor.RawTensor)
	if !ok {
		return nil, fmt.Errorf("%s: mask must be dense, got %s: %w", op, args[1].Kind(), dispatch.ErrUnsupportedType)
	}
	axis, err := validate.Axis(op, p.Axis, len(a.Shape()))
	if err != nil {
		return nil, err
	}
	mask, err := validate.Mask(op, m, a.Shape()[axis])
	if err != nil {
		return nil, err
	}
	sel := selectPositions(a.Chunks()[axis], func(i int) bool { return mask[i] })
	return selectBlocks(op, a, axis, sel), nil
}

// selectIndices gathers positions along axis. The output is partitioned
// along axis like the index vector; each output block reads its index block
// and every input block along axis at the same other coordinates. Dense
// indices are bounds-checked up front, chunked ones when their block runs.
func selectIndices(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpSelectIndices
	a, err := asArray(op, args[0])
	if err != nil {
		return nil, err
	}
	axis, err := validate.Axis(op, p.Axis, len(a.Shape()))
	if err != nil {
		return nil, err
	}
	dim := a.Shape()[axis]

	if raw, ok := args[1].(*tensor.RawTensor); ok {
		if _, err := validate.Indices(op, raw, dim); err != nil {
			return nil, err
		}
	}
	idx, err := asArray(op, args[1])
	if err != nil {
		return nil, err
	}
	if err := validate.IndexVector(op, idx); err != nil {
		return nil, err
	}

	in := a.Collection()
	out := in.Chunks.Clone()
	out[axis] = clone(idx.Chunks()[0])

	token := graph.Token(op)
	along := len(in.Chunks[axis])
	keys := make([]graph.Key, out.NumBlocks())
	nodes := make([]graph.Node, len(keys))
	for flat := range keys {
		pos := out.BlockIndex(flat)
		inputs := make([]graph.Key, 0, along+1)
		inputs = append(inputs, idx.Collection().Keys[pos[axis]])
		for b := 0; b < along; b++ {
			src := append([]int(nil), pos...)
			src[axis] = b
			inputs = append(inputs, in.Key(src))
		}

		keys[flat] = graph.BlockKey(token, pos)
		nodes[flat] = graph.Task(keys[flat], func(blocks []*tensor.RawTensor) (*tensor.RawTensor, error) {
			positions, err := validate.Indices(op, blocks[0], dim)
			if err != nil {
				return nil, err
			}
			return kernels.Take(kernels.Concatenate(blocks[1:], axis), positions, axis), nil
		}, inputs...)
	}

	return &Array{coll: graph.Collection{
		Graph:  graph.Merge(in.Graph, idx.Collection().Graph).With(nodes...),
		Keys:   keys,
		Chunks: out,
		Shape:  out.Shape(),
		DType:  in.DType,
	}}, nil
}

// concatenate joins arrays along axis by appending their block lists. No
// block is recomputed: output keys are the input keys. Dense arguments are
// split to match the geometry of the first chunked argument.
func concatenate(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpConcatenate
	axis, err := validate.Concatenable(op, args, p.Axis)
	if err != nil {
		return nil, err
	}

	var ref tensor.Chunks
	for _, t := range args {
		if c, ok := chunksOf(t); ok {
			ref = c
			break
		}
	}
	if ref == nil {
		ref = tensor.Single(args[0].Shape())
	}

	arrays := make([]*Array, 0, len(args))
	for i, t := range args {
		var a *Array
		if raw, ok := t.(*tensor.RawTensor); ok {
			c := ref.Clone()
			c[axis] = []int{raw.Shape()[axis]}
			if a, err = FromDense(raw, c); err != nil {
				return nil, fmt.Errorf("%s: argument %d: %v: %w", op, i, err, dispatch.ErrChunkGeometry)
			}
		} else if a, err = asArray(op, t); err != nil {
			return nil, err
		}
		for d, blocks := range a.Chunks() {
			if d != axis && !tensor.Shape(blocks).Equal(ref[d]) {
				return nil, fmt.Errorf("%s: argument %d has blocks %v on axis %d, want %v: %w",
					op, i, blocks, d, ref[d], dispatch.ErrChunkGeometry)
			}
		}
		if a.Shape()[axis] > 0 {
			arrays = append(arrays, a)
		}
	}
	if len(arrays) == 0 {
		first, err := asArray(op, args[0])
		if err != nil {
			return nil, err
		}
		arrays = append(arrays, first)
	}

	type owner struct{ part, block int }
	var owners []owner
	out := ref.Clone()
	out[axis] = nil
	graphs := make([]graph.Graph, len(arrays))
	for part, a := range arrays {
		graphs[part] = a.Collection().Graph
		for b, n := range a.Chunks()[axis] {
			out[axis] = append(out[axis], n)
			owners = append(owners, owner{part, b})
		}
	}

	keys := make([]graph.Key, out.NumBlocks())
	for flat := range keys {
		idx := out.BlockIndex(flat)
		o := owners[idx[axis]]
		idx[axis] = o.block
		keys[flat] = arrays[o.part].Collection().Key(idx)
	}

	return &Array{coll: graph.Collection{
		Graph:  graph.Merge(graphs...),
		Keys:   keys,
		Chunks: out,
		Shape:  out.Shape(),
		DType:  args[0].DType(),
	}}, nil
}

func chunksOf(t tensor.Tensor) (tensor.Chunks, bool) {
	switch v := t.(type) {
	case *Array:
		return v.Chunks(), true
	case *Store:
		return v.Chunks(), true
	default:
		return nil, false
	}
}
