package chunked

import (
	"fmt"

	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/tensor"
)

// Output geometry of each operation, derived from input geometry alone.

// singleBlock reports ErrChunkGeometry unless axis is one block.
func singleBlock(op, what string, c tensor.Chunks, axis int) error {
	if len(c[axis]) != 1 {
		return fmt.Errorf("%s: %s axis %d must be a single block, got %d blocks %v: %w",
			op, what, axis, len(c[axis]), c[axis], dispatch.ErrChunkGeometry)
	}
	return nil
}

// callMaskChunks drops the ploidy axis.
func callMaskChunks(gt tensor.Chunks) tensor.Chunks {
	return tensor.Chunks{clone(gt[0]), clone(gt[1])}
}

// countChunks keeps the variant blocks and adds a single allele block.
func countChunks(gt tensor.Chunks, nAlleles int) tensor.Chunks {
	return tensor.Chunks{clone(gt[0]), {nAlleles}}
}

// alleleCountChunks replaces the ploidy axis by a single allele block.
func alleleCountChunks(gt tensor.Chunks, nAlleles int) tensor.Chunks {
	return tensor.Chunks{clone(gt[0]), clone(gt[1]), {nAlleles}}
}

// meltChunks scales every variant block by the number of alleles.
func meltChunks(gt tensor.Chunks, nAlleles int) tensor.Chunks {
	variants := make([]int, len(gt[0]))
	for i, n := range gt[0] {
		variants[i] = n * nAlleles
	}
	return tensor.Chunks{variants, clone(gt[1])}
}

// variantChunks keeps only the variant axis.
func variantChunks(ac tensor.Chunks) tensor.Chunks {
	return tensor.Chunks{clone(ac[0])}
}

// drop removes axis from the geometry.
func drop(c tensor.Chunks, axis int) tensor.Chunks {
	out := make(tensor.Chunks, 0, len(c)-1)
	for i, blocks := range c {
		if i != axis {
			out = append(out, clone(blocks))
		}
	}
	return out
}

func clone(blocks []int) []int {
	return append([]int(nil), blocks...)
}

// selection maps every output block along an axis to the input block it
// reads and the local positions it keeps.
type selection struct {
	source []int   // input block index along the axis
	local  [][]int // positions within that block
}

// selectPositions groups the kept global positions per input block along
// axis. Empty groups are dropped unless every group is empty, in which case a
// single empty block of the first input block remains.
func selectPositions(blocks []int, keep func(global int) bool) selection {
	var sel selection
	offset := 0
	for b, n := range blocks {
		var local []int
		for i := 0; i < n; i++ {
			if keep(offset + i) {
				local = append(local, i)
			}
		}
		if len(local) > 0 {
			sel.source = append(sel.source, b)
			sel.local = append(sel.local, local)
		}
		offset += n
	}
	if len(sel.source) == 0 {
		sel.source = []int{0}
		sel.local = [][]int{{}}
	}
	return sel
}

// lengths returns the output block lengths of the selection.
func (s selection) lengths() []int {
	out := make([]int, len(s.local))
	for i, l := range s.local {
		out[i] = len(l)
	}
	return out
}
