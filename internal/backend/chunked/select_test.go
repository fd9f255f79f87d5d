package chunked

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/engine"
	"github.com/born-ml/gtensor/internal/tensor"
)

func TestSelectSliceMatchesDense(t *testing.T) {
	r := newRegistry(t)
	gt := randomGenotypes(t, 10, tensor.Shape{7, 5, 2})
	arr, err := FromDense(gt, tensor.Chunks{{3, 3, 1}, {1, 3, 1}, {2}})
	require.NoError(t, err)

	for _, p := range []dispatch.Params{
		{Axis: 0, Start: 2, Stop: 5},
		{Axis: 1, Start: 0, Stop: 5},
		{Axis: 1, Start: 4, Stop: 4},
		{Axis: -2, Start: 1, Stop: 2},
	} {
		want := materialize(t, callOp(t, r, dispatch.OpSelectSlice, p, gt))
		got := callOp(t, r, dispatch.OpSelectSlice, p, arr)
		assertSameTensor(t, want, materialize(t, got), p)
	}

	sliced := callOp(t, r, dispatch.OpSelectSlice, dispatch.Params{Axis: 0, Start: 2, Stop: 5}, arr).(*Array)
	assert.Equal(t, tensor.Chunks{{1, 2}, {1, 3, 1}, {2}}, sliced.Chunks())

	empty := callOp(t, r, dispatch.OpSelectSlice, dispatch.Params{Axis: 1, Start: 4, Stop: 4}, arr).(*Array)
	assert.Equal(t, []int{0}, empty.Chunks()[1])
}

func TestSelectMaskMatchesDense(t *testing.T) {
	r := newRegistry(t)
	gt := randomGenotypes(t, 11, tensor.Shape{7, 5, 2})
	arr, err := FromDense(gt, tensor.Chunks{{3, 3, 1}, {2, 3}, {2}})
	require.NoError(t, err)

	variants, err := tensor.FromSlice([]bool{true, false, true, false, false, false, true}, tensor.Shape{7})
	require.NoError(t, err)
	want := materialize(t, callOp(t, r, dispatch.OpSelectMask, dispatch.Params{Axis: 0}, gt, variants))
	got := callOp(t, r, dispatch.OpSelectMask, dispatch.Params{Axis: 0}, arr, variants).(*Array)
	assertSameTensor(t, want, materialize(t, got))
	// The middle variant block keeps nothing and is dropped.
	assert.Equal(t, []int{2, 1}, got.Chunks()[0])

	none, err := tensor.FromSlice(make([]bool, 5), tensor.Shape{5})
	require.NoError(t, err)
	out := materialize(t, callOp(t, r, dispatch.OpSelectMask, dispatch.Params{Axis: 1}, arr, none))
	assert.Equal(t, tensor.Shape{7, 0, 2}, out.Shape())
}

func TestSelectMaskRejectsChunkedMask(t *testing.T) {
	r := newRegistry(t)
	gt := randomGenotypes(t, 12, tensor.Shape{4, 2, 2})
	arr, err := FromDense(gt, tensor.Regular(gt.Shape(), 2))
	require.NoError(t, err)
	mask, err := tensor.FromSlice([]bool{true, true, false, true}, tensor.Shape{4})
	require.NoError(t, err)
	lazyMask, err := FromDense(mask, tensor.Chunks{{2, 2}})
	require.NoError(t, err)

	_, err = r.Call(dispatch.OpSelectMask, []tensor.Tensor{arr, lazyMask}, dispatch.Params{Axis: 0})
	assert.ErrorIs(t, err, dispatch.ErrUnsupportedType)

	short, err := tensor.FromSlice([]bool{true}, tensor.Shape{1})
	require.NoError(t, err)
	_, err = r.Call(dispatch.OpSelectMask, []tensor.Tensor{arr, short}, dispatch.Params{Axis: 0})
	assert.ErrorIs(t, err, dispatch.ErrShape)
}

func TestSelectIndicesMatchesDense(t *testing.T) {
	r := newRegistry(t)
	gt := randomGenotypes(t, 13, tensor.Shape{7, 5, 2})
	arr, err := FromDense(gt, tensor.Chunks{{3, 3, 1}, {2, 3}, {2}})
	require.NoError(t, err)
	idx, err := tensor.FromSlice([]int32{6, 0, 3, 3, 1}, tensor.Shape{5})
	require.NoError(t, err)
	lazyIdx, err := NewStore(idx, tensor.Chunks{{2, 3}})
	require.NoError(t, err)

	want := materialize(t, callOp(t, r, dispatch.OpSelectIndices, dispatch.Params{Axis: 0}, gt, idx))

	got := callOp(t, r, dispatch.OpSelectIndices, dispatch.Params{Axis: 0}, arr, idx).(*Array)
	assertSameTensor(t, want, materialize(t, got), "dense indices")
	assert.Equal(t, []int{5}, got.Chunks()[0])

	got = callOp(t, r, dispatch.OpSelectIndices, dispatch.Params{Axis: 0}, arr, lazyIdx).(*Array)
	assertSameTensor(t, want, materialize(t, got), "chunked indices")
	assert.Equal(t, []int{2, 3}, got.Chunks()[0])

	// Dense data with chunked indices goes through the chunked backend.
	mixed := callOp(t, r, dispatch.OpSelectIndices, dispatch.Params{Axis: 0}, gt, lazyIdx)
	require.Equal(t, tensor.KindChunkedGraph, mixed.Kind())
	assertSameTensor(t, want, materialize(t, mixed), "dense data")
}

func TestSelectIndicesBounds(t *testing.T) {
	r := newRegistry(t)
	gt := randomGenotypes(t, 14, tensor.Shape{4, 2, 2})
	arr, err := FromDense(gt, tensor.Regular(gt.Shape(), 2))
	require.NoError(t, err)
	idx, err := tensor.FromSlice([]int64{0, 4}, tensor.Shape{2})
	require.NoError(t, err)

	// Dense indices are checked when the graph is built.
	_, err = r.Call(dispatch.OpSelectIndices, []tensor.Tensor{arr, idx}, dispatch.Params{Axis: 0})
	assert.ErrorIs(t, err, dispatch.ErrInvalidArgument)

	// Chunked indices are checked when their block runs.
	lazyIdx, err := FromDense(idx, tensor.Chunks{{1, 1}})
	require.NoError(t, err)
	out := callOp(t, r, dispatch.OpSelectIndices, dispatch.Params{Axis: 0}, arr, lazyIdx).(*Array)
	_, err = engine.NewLocal(engine.Options{}).Compute(context.Background(), out.Collection())
	assert.ErrorIs(t, err, dispatch.ErrBlockFailed)
	assert.ErrorIs(t, err, dispatch.ErrInvalidArgument)
}

func TestConcatenateMatchesDense(t *testing.T) {
	r := newRegistry(t)
	a := randomGenotypes(t, 15, tensor.Shape{4, 5, 2})
	b := randomGenotypes(t, 16, tensor.Shape{3, 5, 2})
	chunks := tensor.Chunks{{2, 2}, {2, 3}, {2}}
	lazyA, err := FromDense(a, chunks)
	require.NoError(t, err)
	storeB, err := NewStore(b, tensor.Chunks{{3}, {2, 3}, {2}})
	require.NoError(t, err)

	want := materialize(t, callOp(t, r, dispatch.OpConcatenate, dispatch.Params{Axis: 0}, a, b))

	got := callOp(t, r, dispatch.OpConcatenate, dispatch.Params{Axis: 0}, lazyA, storeB).(*Array)
	assertSameTensor(t, want, materialize(t, got), "chunked")
	assert.Equal(t, tensor.Chunks{{2, 2, 3}, {2, 3}, {2}}, got.Chunks())

	// A dense argument is split to the geometry of the chunked ones.
	mixed := callOp(t, r, dispatch.OpConcatenate, dispatch.Params{Axis: 0}, lazyA, b).(*Array)
	assertSameTensor(t, want, materialize(t, mixed), "mixed")
	assert.Equal(t, tensor.Chunks{{2, 2, 3}, {2, 3}, {2}}, mixed.Chunks())

	// Concatenated output feeds further chunked operations.
	ac := materialize(t, callOp(t, r, dispatch.OpCountAlleles, dispatch.Params{MaxAllele: 3}, got))
	wantAC := materialize(t, callOp(t, r, dispatch.OpCountAlleles, dispatch.Params{MaxAllele: 3}, want))
	assertSameTensor(t, wantAC, ac, "count after concatenate")
}

func TestConcatenateGeometryMismatch(t *testing.T) {
	r := newRegistry(t)
	a := randomGenotypes(t, 17, tensor.Shape{4, 5, 2})
	lazyA, err := FromDense(a, tensor.Chunks{{2, 2}, {2, 3}, {2}})
	require.NoError(t, err)
	lazyB, err := FromDense(a, tensor.Chunks{{4}, {5}, {2}})
	require.NoError(t, err)

	_, err = r.Call(dispatch.OpConcatenate, []tensor.Tensor{lazyA, lazyB}, dispatch.Params{Axis: 0})
	assert.ErrorIs(t, err, dispatch.ErrChunkGeometry)

	other := randomGenotypes(t, 18, tensor.Shape{4, 4, 2})
	_, err = r.Call(dispatch.OpConcatenate, []tensor.Tensor{lazyA, other}, dispatch.Params{Axis: 0})
	assert.ErrorIs(t, err, dispatch.ErrShape)
}

func TestConcatenateSkipsEmptyArguments(t *testing.T) {
	r := newRegistry(t)
	a := randomGenotypes(t, 19, tensor.Shape{4, 2, 2})
	lazyA, err := FromDense(a, tensor.Regular(a.Shape(), 2))
	require.NoError(t, err)
	empty := tensor.MustRaw(tensor.Shape{0, 2, 2}, tensor.Int8)

	got := callOp(t, r, dispatch.OpConcatenate, dispatch.Params{Axis: 0}, empty, lazyA, empty).(*Array)
	assert.Equal(t, []int{2, 2}, got.Chunks()[0])
	assertSameTensor(t, a, materialize(t, got))
}
