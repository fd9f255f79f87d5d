package serialization

import (
	"time"

	"github.com/born-ml/gtensor/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "GTST"
	FormatVersion   = 1
	HeaderAlignment = 64 // Block data starts on a 64-byte boundary
	FixedHeaderSize = 64
	ChecksumSize    = 32 // SHA-256
	ChecksumOffset  = 0x20
)

// Flags for the .gts format.
const (
	FlagHasMetadata uint32 = 1 << 0
)

// Header is the JSON header of a .gts file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	DType         string            `json:"dtype"`
	Shape         []int             `json:"shape"`
	Chunks        [][]int           `json:"chunks"`
	Blocks        []BlockMeta       `json:"blocks"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// BlockMeta locates one block in the data section.
type BlockMeta struct {
	Index  []int `json:"index"`  // Grid coordinates
	Offset int64 `json:"offset"` // Bytes from the start of the data section
	Size   int64 `json:"size"`   // Bytes
}

var dtypes = []tensor.DataType{
	tensor.Int8, tensor.Int16, tensor.Int32, tensor.Int64,
	tensor.Uint8, tensor.Float32, tensor.Float64, tensor.Bool,
}

// stringToDtype converts the header dtype name to a tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	for _, dt := range dtypes {
		if dt.String() == s {
			return dt, true
		}
	}
	return 0, false
}

// dataOffset returns where block data starts for a header of headerSize bytes.
func dataOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
