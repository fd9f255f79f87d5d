// Package dense implements the dense backend: it validates and normalizes
// in-memory arguments and calls the numeric kernels directly.
package dense

import (
	"log/slog"

	"github.com/born-ml/gtensor/internal/dispatch"
)

// Name is the backend name recorded in registrations.
const Name = "dense"

func init() {
	if err := Install(dispatch.Default); err != nil {
		panic(err)
	}
}

// Install registers every dense implementation into r.
func Install(r *dispatch.Registry) error {
	one := dispatch.Sig(dispatch.Dense)
	regs := []dispatch.Registration{
		{Op: dispatch.OpIsCalled, Signature: one, Impl: isCalled},
		{Op: dispatch.OpIsMissing, Signature: one, Impl: isMissing},
		{Op: dispatch.OpIsHom, Signature: one, Impl: isHom},
		{Op: dispatch.OpIsHet, Signature: one, Impl: isHet},
		{Op: dispatch.OpLocateCall, Signature: one, Impl: locateCall},
		{Op: dispatch.OpCountAlleles, Signature: one, Impl: countAlleles},
		{Op: dispatch.OpToAlleleCounts, Signature: one, Impl: toAlleleCounts},
		{Op: dispatch.OpToAlleleCountsMelt, Signature: one, Impl: toAlleleCountsMelt},
		{Op: dispatch.OpAlleleCountsToFrequencies, Signature: one, Impl: alleleCountsToFrequencies},
		{Op: dispatch.OpAlleleCountsMaxAllele, Signature: one, Impl: alleleCountsMaxAllele},
		{Op: dispatch.OpAlleleCountsAllelism, Signature: one, Impl: alleleCountsAllelism},
		{Op: dispatch.OpLocateVariant, Signature: one, Impl: locateVariant},
		{Op: dispatch.OpLocateNonVariant, Signature: one, Impl: locateNonVariant},
		{Op: dispatch.OpLocateSegregating, Signature: one, Impl: locateSegregating},
		{Op: dispatch.OpAlleleCountsLocateHom, Signature: one, Impl: alleleCountsLocateHom},
		{Op: dispatch.OpAlleleCountsLocateHet, Signature: one, Impl: alleleCountsLocateHet},
		{Op: dispatch.OpSelectSlice, Signature: one, Impl: selectSlice},
		{Op: dispatch.OpSelectIndices, Signature: dispatch.Sig(dispatch.Dense, dispatch.Dense), Impl: selectIndices},
		{Op: dispatch.OpSelectMask, Signature: dispatch.Sig(dispatch.Dense, dispatch.Dense), Impl: selectMask},
		{Op: dispatch.OpConcatenate, Signature: dispatch.VariadicSig(dispatch.Dense), Impl: concatenate},
	}
	for _, reg := range regs {
		reg.Backend = Name
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	slog.Debug("installed backend", "backend", Name, "registrations", len(regs))
	return nil
}
