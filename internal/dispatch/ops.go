package dispatch

// Operation names. Backends register implementations under these names and
// the public API calls through them; nothing outside the backends calls a
// kernel directly.
const (
	OpIsCalled                  = "is_called"
	OpIsMissing                 = "is_missing"
	OpIsHom                     = "is_hom"
	OpIsHet                     = "is_het"
	OpLocateCall                = "locate_call"
	OpCountAlleles              = "count_alleles"
	OpToAlleleCounts            = "to_allele_counts"
	OpToAlleleCountsMelt        = "to_allele_counts_melt"
	OpAlleleCountsToFrequencies = "allele_counts_to_frequencies"
	OpAlleleCountsMaxAllele     = "allele_counts_max_allele"
	OpAlleleCountsAllelism      = "allele_counts_allelism"
	OpLocateVariant             = "locate_variant"
	OpLocateNonVariant          = "locate_non_variant"
	OpLocateSegregating         = "locate_segregating"
	OpAlleleCountsLocateHom     = "allele_counts_locate_hom"
	OpAlleleCountsLocateHet     = "allele_counts_locate_het"
	OpSelectSlice               = "select_slice"
	OpSelectIndices             = "select_indices"
	OpSelectMask                = "select_mask"
	OpConcatenate               = "concatenate"
)

// Params carries the scalar parameters of an operation.
// Each operation reads only the fields it documents.
type Params struct {
	MaxAllele int    // count_alleles, to_allele_counts, to_allele_counts_melt
	Call      []int8 // locate_call
	Axis      int    // select_* and concatenate
	Start     int    // select_slice
	Stop      int    // select_slice
}
