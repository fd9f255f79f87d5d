package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrClosed             = errors.New("reader is closed")
)

// ValidationError describes a header that does not describe its data.
type ValidationError struct {
	Type    string // e.g. "offset_overlap", "out_of_bounds"
	Block   []int  // Grid index of the block involved, if any
	Block2  []int  // Second block for overlap errors
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Block2 != nil:
		return fmt.Sprintf("%s: blocks %v and %v: %s", e.Type, e.Block, e.Block2, e.Details)
	case e.Block != nil:
		return fmt.Sprintf("%s: block %v: %s", e.Type, e.Block, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
}
