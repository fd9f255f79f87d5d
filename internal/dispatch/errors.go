package dispatch

import "errors"

// Error taxonomy shared by the registry, both backends and the engine.
// Callers test for these with errors.Is. Errors name the operation they come
// from; ErrBlockFailed also wraps the error of the failing block.
var (
	// ErrUnsupportedType means no registered implementation accepts the
	// argument kinds.
	ErrUnsupportedType = errors.New("unsupported argument type")

	// ErrShape means an argument has the wrong rank or mismatched extents.
	ErrShape = errors.New("invalid shape")

	// ErrDType means an argument's element type cannot be used losslessly.
	ErrDType = errors.New("invalid dtype")

	// ErrInvalidArgument means a scalar parameter is out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrChunkGeometry means a chunked argument is partitioned in a way the
	// operation cannot compute block by block. It is reported before any
	// block is scheduled.
	ErrChunkGeometry = errors.New("incompatible chunk geometry")

	// ErrAmbiguousSignature means two registered signatures match the same
	// argument kinds and neither is more specific. It is a registration-time
	// configuration error.
	ErrAmbiguousSignature = errors.New("ambiguous dispatch signature")

	// ErrBlockFailed means a block computation failed during materialization.
	ErrBlockFailed = errors.New("block execution failed")
)
