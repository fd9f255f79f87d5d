package chunked

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/backend/dense"
	"github.com/born-ml/gtensor/internal/backend/validate"
	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/graph"
	"github.com/born-ml/gtensor/internal/kernels"
	"github.com/born-ml/gtensor/internal/tensor"
)

// genotypeArray normalizes a genotype argument. The ploidy axis cannot be
// reduced across blocks.
func genotypeArray(op string, t tensor.Tensor) (*Array, error) {
	a, err := asArray(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.Genotype(op, a); err != nil {
		return nil, err
	}
	if err := singleBlock(op, "ploidy", a.Chunks(), 2); err != nil {
		return nil, err
	}
	return a, nil
}

// countsArray normalizes a [variant, allele] argument.
func countsArray(op string, t tensor.Tensor) (*Array, error) {
	a, err := asArray(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.AlleleCounts(op, a); err != nil {
		return nil, err
	}
	if err := singleBlock(op, "allele", a.Chunks(), 1); err != nil {
		return nil, err
	}
	return a, nil
}

// counts3DArray normalizes a [variant, sample, allele] argument.
func counts3DArray(op string, t tensor.Tensor) (*Array, error) {
	a, err := asArray(op, t)
	if err != nil {
		return nil, err
	}
	if err := validate.AlleleCounts3D(op, a); err != nil {
		return nil, err
	}
	if err := singleBlock(op, "allele", a.Chunks(), 2); err != nil {
		return nil, err
	}
	return a, nil
}

// onGenotype adapts a genotype kernel to run on one raw block.
func onGenotype(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) blockFn {
	return func(b *tensor.RawTensor) (*tensor.RawTensor, error) {
		gt, err := dense.Genotype(op, b)
		if err != nil {
			return nil, err
		}
		return kernel(gt), nil
	}
}

func onCounts(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) blockFn {
	return func(b *tensor.RawTensor) (*tensor.RawTensor, error) {
		ac, err := dense.AlleleCounts(op, b)
		if err != nil {
			return nil, err
		}
		return kernel(ac), nil
	}
}

func onCounts3D(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) blockFn {
	return func(b *tensor.RawTensor) (*tensor.RawTensor, error) {
		ac, err := dense.AlleleCounts3D(op, b)
		if err != nil {
			return nil, err
		}
		return kernel(ac), nil
	}
}

func callMaskOp(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		gt, err := genotypeArray(op, args[0])
		if err != nil {
			return nil, err
		}
		return mapBlocks(op, gt, callMaskChunks(gt.Chunks()), tensor.Bool, onGenotype(op, kernel)), nil
	}
}

func countsMapOp(op string, dtype tensor.DataType, kernel func(*tensor.RawTensor) *tensor.RawTensor,
	geometry func(tensor.Chunks) tensor.Chunks) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		ac, err := countsArray(op, args[0])
		if err != nil {
			return nil, err
		}
		return mapBlocks(op, ac, geometry(ac.Chunks()), dtype, onCounts(op, kernel)), nil
	}
}

func counts3DMapOp(op string, kernel func(*tensor.RawTensor) *tensor.RawTensor) dispatch.Impl {
	return func(args []tensor.Tensor, _ dispatch.Params) (tensor.Tensor, error) {
		ac, err := counts3DArray(op, args[0])
		if err != nil {
			return nil, err
		}
		return mapBlocks(op, ac, drop(ac.Chunks(), 2), tensor.Bool, onCounts3D(op, kernel)), nil
	}
}

func sameChunks(c tensor.Chunks) tensor.Chunks { return c.Clone() }

var (
	isCalled  = callMaskOp(dispatch.OpIsCalled, kernels.IsCalled)
	isMissing = callMaskOp(dispatch.OpIsMissing, kernels.IsMissing)
	isHom     = callMaskOp(dispatch.OpIsHom, kernels.IsHom)
	isHet     = callMaskOp(dispatch.OpIsHet, kernels.IsHet)

	alleleCountsToFrequencies = countsMapOp(dispatch.OpAlleleCountsToFrequencies, tensor.Float32,
		kernels.AlleleCountsToFrequencies, sameChunks)
	alleleCountsMaxAllele = countsMapOp(dispatch.OpAlleleCountsMaxAllele, tensor.Int8,
		kernels.AlleleCountsMaxAllele, variantChunks)
	alleleCountsAllelism = countsMapOp(dispatch.OpAlleleCountsAllelism, tensor.Int32,
		kernels.AlleleCountsAllelism, variantChunks)
	locateVariant = countsMapOp(dispatch.OpLocateVariant, tensor.Bool,
		kernels.LocateVariant, variantChunks)
	locateNonVariant = countsMapOp(dispatch.OpLocateNonVariant, tensor.Bool,
		kernels.LocateNonVariant, variantChunks)
	locateSegregating = countsMapOp(dispatch.OpLocateSegregating, tensor.Bool,
		kernels.LocateSegregating, variantChunks)

	alleleCountsLocateHom = counts3DMapOp(dispatch.OpAlleleCountsLocateHom, kernels.AlleleCountsLocateHom)
	alleleCountsLocateHet = counts3DMapOp(dispatch.OpAlleleCountsLocateHet, kernels.AlleleCountsLocateHet)
)

func locateCall(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpLocateCall
	gt, err := genotypeArray(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.CallParam(op, p.Call, gt.Shape()[2]); err != nil {
		return nil, err
	}
	call := append([]int8(nil), p.Call...)
	kernel := func(g *tensor.RawTensor) *tensor.RawTensor { return kernels.LocateCall(g, call) }
	return mapBlocks(op, gt, callMaskChunks(gt.Chunks()), tensor.Bool, onGenotype(op, kernel)), nil
}

// countAlleles counts each (variant block, sample block) into a partial
// [variant, allele] block, then sums the partials of every variant block
// with a tree reduction over sample blocks.
func countAlleles(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpCountAlleles
	gt, err := genotypeArray(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.MaxAlleleParam(op, p.MaxAllele); err != nil {
		return nil, err
	}

	maxAllele := p.MaxAllele
	count := onGenotype(op, func(g *tensor.RawTensor) *tensor.RawTensor {
		return kernels.CountAlleles(g, maxAllele)
	})
	sum := func(parts []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return kernels.SumInt32(parts...), nil
	}

	in := gt.Collection()
	grid := in.Chunks.Grid()
	token := graph.Token(op)
	fanIn := SplitEvery()

	var nodes []graph.Node
	keys := make([]graph.Key, grid[0])
	for i := 0; i < grid[0]; i++ {
		partials := make([]graph.Key, grid[1])
		for j := 0; j < grid[1]; j++ {
			partials[j] = graph.BlockKey(token+"-partial", []int{i, j})
			nodes = append(nodes, graph.Task(partials[j], func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
				return count(inputs[0])
			}, in.Key([]int{i, j, 0})))
		}
		root, reductions := treeReduce(fmt.Sprintf("%s-%d", token, i), partials, fanIn, sum)
		nodes = append(nodes, reductions...)
		keys[i] = root
	}

	chunks := countChunks(in.Chunks, maxAllele+1)
	return &Array{coll: graph.Collection{
		Graph:  in.Graph.With(nodes...),
		Keys:   keys,
		Chunks: chunks,
		Shape:  chunks.Shape(),
		DType:  tensor.Int32,
	}}, nil
}

func toAlleleCounts(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpToAlleleCounts
	gt, err := genotypeArray(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.PerSampleCounts(op, gt, p.MaxAllele); err != nil {
		return nil, err
	}
	maxAllele := p.MaxAllele
	kernel := func(g *tensor.RawTensor) *tensor.RawTensor { return kernels.ToAlleleCounts(g, maxAllele) }
	return mapBlocks(op, gt, alleleCountChunks(gt.Chunks(), maxAllele+1), tensor.Int8, onGenotype(op, kernel)), nil
}

func toAlleleCountsMelt(args []tensor.Tensor, p dispatch.Params) (tensor.Tensor, error) {
	const op = dispatch.OpToAlleleCountsMelt
	gt, err := genotypeArray(op, args[0])
	if err != nil {
		return nil, err
	}
	if err := validate.PerSampleCounts(op, gt, p.MaxAllele); err != nil {
		return nil, err
	}
	maxAllele := p.MaxAllele
	kernel := func(g *tensor.RawTensor) *tensor.RawTensor { return kernels.ToAlleleCountsMelt(g, maxAllele) }
	return mapBlocks(op, gt, meltChunks(gt.Chunks(), maxAllele+1), tensor.Int8, onGenotype(op, kernel)), nil
}
