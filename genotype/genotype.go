// Copyright 2025 The gtensor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package genotype

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/born-ml/gtensor/internal/backend/chunked"
	_ "github.com/born-ml/gtensor/internal/backend/dense" // registers the dense backend
	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/engine"
	"github.com/born-ml/gtensor/tensor"
)

// Errors returned by the operations and by Compute. Test with errors.Is.
var (
	ErrUnsupportedType    = dispatch.ErrUnsupportedType
	ErrShape              = dispatch.ErrShape
	ErrDType              = dispatch.ErrDType
	ErrInvalidArgument    = dispatch.ErrInvalidArgument
	ErrChunkGeometry      = dispatch.ErrChunkGeometry
	ErrAmbiguousSignature = dispatch.ErrAmbiguousSignature
	ErrBlockFailed        = dispatch.ErrBlockFailed
)

// EngineOptions configures the local engine used by Compute.
type EngineOptions = engine.Options

var defaultEngine atomic.Pointer[engine.Local]

func init() {
	defaultEngine.Store(engine.NewLocal(engine.DefaultOptions()))
}

// SetEngineOptions replaces the engine used by Compute.
func SetEngineOptions(opts EngineOptions) {
	defaultEngine.Store(engine.NewLocal(opts))
}

// Compute materializes t as a dense tensor. Dense tensors are returned as is;
// chunked tensors are computed block by block on the local engine.
func Compute(ctx context.Context, t tensor.Tensor) (*tensor.RawTensor, error) {
	switch v := t.(type) {
	case *tensor.RawTensor:
		return v, nil
	case *chunked.Array:
		return defaultEngine.Load().Compute(ctx, v.Collection())
	case *chunked.Store:
		return defaultEngine.Load().Compute(ctx, v.Array().Collection())
	default:
		return nil, fmt.Errorf("compute: cannot materialize %T: %w", t, ErrUnsupportedType)
	}
}

// Operations lists the registered operation names.
func Operations() []string {
	return dispatch.Default.Operations()
}

func call(op string, p dispatch.Params, args ...tensor.Tensor) (tensor.Tensor, error) {
	return dispatch.Default.Call(op, args, p)
}

// IsCalled marks cells whose alleles are all non-missing.
func IsCalled(gt tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpIsCalled, dispatch.Params{}, gt)
}

// IsMissing marks cells with at least one missing allele.
func IsMissing(gt tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpIsMissing, dispatch.Params{}, gt)
}

// IsHom marks called cells whose alleles are all equal.
func IsHom(gt tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpIsHom, dispatch.Params{}, gt)
}

// IsHet marks cells carrying at least two distinct non-missing alleles.
func IsHet(gt tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpIsHet, dispatch.Params{}, gt)
}

// LocateCall marks cells equal to call, position by position. The length of
// call must equal the ploidy.
func LocateCall(gt tensor.Tensor, call []int8) (tensor.Tensor, error) {
	return dispatch.Default.Call(dispatch.OpLocateCall, []tensor.Tensor{gt}, dispatch.Params{Call: call})
}

// CountAlleles counts alleles 0..maxAllele per variant over all samples.
// The result is a (variants, maxAllele+1) int32 tensor.
func CountAlleles(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error) {
	return call(dispatch.OpCountAlleles, dispatch.Params{MaxAllele: maxAllele}, gt)
}

// ToAlleleCounts counts alleles 0..maxAllele per cell. The result is a
// (variants, samples, maxAllele+1) int8 tensor.
func ToAlleleCounts(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error) {
	return call(dispatch.OpToAlleleCounts, dispatch.Params{MaxAllele: maxAllele}, gt)
}

// ToAlleleCountsMelt is ToAlleleCounts with the allele axis folded into the
// variant axis: a (variants*(maxAllele+1), samples) int8 tensor.
func ToAlleleCountsMelt(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error) {
	return call(dispatch.OpToAlleleCountsMelt, dispatch.Params{MaxAllele: maxAllele}, gt)
}

// AlleleCountsToFrequencies divides each count by its row total, as float32.
// Rows with no counts become zero.
func AlleleCountsToFrequencies(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpAlleleCountsToFrequencies, dispatch.Params{}, ac)
}

// AlleleCountsMaxAllele reports the highest observed allele per row, or -1.
func AlleleCountsMaxAllele(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpAlleleCountsMaxAllele, dispatch.Params{}, ac)
}

// AlleleCountsAllelism reports the number of observed alleles per row.
func AlleleCountsAllelism(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpAlleleCountsAllelism, dispatch.Params{}, ac)
}

// LocateVariant marks rows with at least one observed allele that are not
// non-variant.
func LocateVariant(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpLocateVariant, dispatch.Params{}, ac)
}

// LocateNonVariant marks rows where the reference allele is the only one
// observed.
func LocateNonVariant(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpLocateNonVariant, dispatch.Params{}, ac)
}

// LocateSegregating marks rows with more than one allele observed.
func LocateSegregating(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpLocateSegregating, dispatch.Params{}, ac)
}

// AlleleCountsLocateHom marks per-cell counts with exactly one allele
// observed.
func AlleleCountsLocateHom(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpAlleleCountsLocateHom, dispatch.Params{}, ac)
}

// AlleleCountsLocateHet marks per-cell counts with more than one allele
// observed.
func AlleleCountsLocateHet(ac tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpAlleleCountsLocateHet, dispatch.Params{}, ac)
}

// SelectSlice keeps positions [start, stop) along axis. Negative axes count
// from the end.
func SelectSlice(t tensor.Tensor, start, stop, axis int) (tensor.Tensor, error) {
	return call(dispatch.OpSelectSlice, dispatch.Params{Axis: axis, Start: start, Stop: stop}, t)
}

// SelectIndices gathers positions along axis in the order given by the
// integer vector indices. Repeats are allowed.
func SelectIndices(t, indices tensor.Tensor, axis int) (tensor.Tensor, error) {
	return call(dispatch.OpSelectIndices, dispatch.Params{Axis: axis}, t, indices)
}

// SelectMask keeps positions along axis where the dense bool vector mask is
// true.
func SelectMask(t, mask tensor.Tensor, axis int) (tensor.Tensor, error) {
	return call(dispatch.OpSelectMask, dispatch.Params{Axis: axis}, t, mask)
}

// Concatenate joins tensors along axis. All other extents and the dtype must
// agree. Any chunked argument makes the result chunked.
func Concatenate(axis int, ts ...tensor.Tensor) (tensor.Tensor, error) {
	return call(dispatch.OpConcatenate, dispatch.Params{Axis: axis}, ts...)
}
