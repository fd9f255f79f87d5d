package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/born-ml/gtensor/internal/backend/chunked"
	"github.com/born-ml/gtensor/internal/tensor"
)

// Writer writes chunked stores in .gts format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .gts file at path.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: the path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStore writes every block of s.
func (w *Writer) WriteStore(s *chunked.Store, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return WriteTo(w.file, s, metadata)
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Save writes s to a new .gts file at path.
func Save(path string, s *chunked.Store, metadata map[string]string) (err error) {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return w.WriteStore(s, metadata)
}

// WriteTo encodes s in .gts format to out.
func WriteTo(out io.Writer, s *chunked.Store, metadata map[string]string) error {
	chunks := s.Chunks()
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		DType:         s.DType().String(),
		Shape:         []int(s.Shape()),
		Chunks:        [][]int(chunks),
		Blocks:        make([]BlockMeta, 0, chunks.NumBlocks()),
		Metadata:      metadata,
	}

	blocks := make([]*tensor.RawTensor, chunks.NumBlocks())
	parts := make([][]byte, len(blocks))
	var offset int64
	for flat := range blocks {
		idx := chunks.BlockIndex(flat)
		blocks[flat] = s.Block(idx)
		parts[flat] = blocks[flat].Data()
		size := int64(len(parts[flat]))
		header.Blocks = append(header.Blocks, BlockMeta{Index: idx, Offset: offset, Size: size})
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	flags := uint32(0)
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(offset))
	checksum := ComputeChecksum(parts...)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	bw := bufio.NewWriter(out)
	if _, err := bw.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	padding := dataOffset(int64(len(headerJSON))) - int64(FixedHeaderSize) - int64(len(headerJSON))
	if _, err := bw.Write(make([]byte, padding)); err != nil {
		return fmt.Errorf("failed to write padding: %w", err)
	}
	for flat, p := range parts {
		if _, err := bw.Write(p); err != nil {
			return fmt.Errorf("failed to write block %v: %w", header.Blocks[flat].Index, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	slog.Debug("store written", "blocks", len(parts), "bytes", offset, "dtype", header.DType)
	return nil
}
