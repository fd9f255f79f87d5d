package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/gtensor/internal/backend/chunked"
	"github.com/born-ml/gtensor/internal/tensor"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Faster but trusts the data section
	ValidationLevel        ValidationLevel // Zero value is ValidationStrict
}

// Reader reads blocks from a .gts file.
type Reader struct {
	file       io.ReaderAt
	closer     io.Closer
	header     Header
	dtype      tensor.DataType
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	closed     bool
}

// Open opens the .gts file at path and validates its header.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: the path is chosen by the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	r, err := NewReader(file, info.Size(), opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads a .gts image of size bytes from src.
func NewReader(src io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	r := &Reader{file: src}
	if err := r.parseHeader(size); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !opts.SkipChecksumValidation {
		computed, err := ComputeChecksumReader(io.NewSectionReader(src, r.dataOffset, r.dataSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read block data for checksum: %w", err)
		}
		if err := ValidateChecksum(computed, r.checksum); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) parseHeader(size int64) error {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := r.file.ReadAt(fixed, 0); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	headerBytes := make([]byte, headerSize)
	if _, err := r.file.ReadAt(headerBytes, FixedHeaderSize); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(headerBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	r.dataOffset = dataOffset(int64(headerSize))
	if avail := size - r.dataOffset; dataSize > uint64(max(avail, 0)) {
		return &ValidationError{
			Type:    "truncated",
			Details: fmt.Sprintf("data section of %d bytes, file holds %d", dataSize, max(avail, 0)),
		}
	}
	r.dataSize = int64(dataSize)
	dtype, ok := stringToDtype(r.header.DType)
	if !ok {
		return &ValidationError{Type: "unknown_dtype", Details: fmt.Sprintf("%q", r.header.DType)}
	}
	r.dtype = dtype
	return nil
}

// Header returns the file header.
func (r *Reader) Header() Header { return r.header }

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string { return r.header.Metadata }

// Chunks returns the block geometry of the stored array.
func (r *Reader) Chunks() tensor.Chunks { return tensor.Chunks(r.header.Chunks) }

// ReadBlock reads the block at grid coordinates idx.
func (r *Reader) ReadBlock(idx []int) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrClosed
	}
	chunks := r.Chunks()
	if len(idx) != len(chunks) {
		return nil, fmt.Errorf("block index %v: want %d coordinates", idx, len(chunks))
	}
	for axis, i := range idx {
		if i < 0 || i >= len(chunks[axis]) {
			return nil, fmt.Errorf("block index %v out of range for grid %v", idx, chunks.Grid())
		}
	}

	flat := chunks.Flat(idx)
	if flat >= len(r.header.Blocks) {
		return nil, &ValidationError{Type: "block_count", Block: idx, Details: "block missing from header"}
	}
	meta := r.header.Blocks[flat]
	raw, err := tensor.NewRaw(chunks.BlockShape(idx), r.dtype)
	if err != nil {
		return nil, fmt.Errorf("failed to create block: %w", err)
	}
	if int64(raw.ByteSize()) != meta.Size {
		return nil, &ValidationError{Type: "block_size", Block: idx, Details: "header disagrees with geometry"}
	}
	if meta.Size == 0 {
		return raw, nil
	}
	if _, err := r.file.ReadAt(raw.Data(), r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read block %v: %w", idx, err)
	}
	return raw, nil
}

// Store reads every block into a chunked store.
func (r *Reader) Store() (*chunked.Store, error) {
	chunks := r.Chunks()
	blocks := make([]*tensor.RawTensor, chunks.NumBlocks())
	for flat := range blocks {
		b, err := r.ReadBlock(chunks.BlockIndex(flat))
		if err != nil {
			return nil, err
		}
		blocks[flat] = b
	}
	return chunked.StoreFromBlocks(blocks, chunks, r.dtype)
}

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Load reads the .gts file at path into a chunked store.
func Load(path string) (*chunked.Store, error) {
	r, err := Open(path, ReaderOptions{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Store()
}
