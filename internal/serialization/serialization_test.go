package serialization

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gtensor/internal/backend/chunked"
	"github.com/born-ml/gtensor/internal/engine"
	"github.com/born-ml/gtensor/internal/tensor"
)

func testStore(t *testing.T, shape tensor.Shape, chunks tensor.Chunks) (*tensor.RawTensor, *chunked.Store) {
	t.Helper()
	data := make([]int8, shape.NumElements())
	for i := range data {
		data[i] = int8(i%4 - 1)
	}
	gt, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	s, err := chunked.NewStore(gt, chunks)
	require.NoError(t, err)
	return gt, s
}

func encode(t *testing.T, s *chunked.Store, metadata map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, s, metadata))
	return buf.Bytes()
}

func decode(image []byte, opts ReaderOptions) (*Reader, error) {
	return NewReader(bytes.NewReader(image), int64(len(image)), opts)
}

func TestRoundTrip(t *testing.T) {
	gt, s := testStore(t, tensor.Shape{5, 4, 2}, tensor.Chunks{{3, 2}, {1, 3}, {2}})
	image := encode(t, s, map[string]string{"source": "test"})

	r, err := decode(image, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.Equal(t, "int8", h.DType)
	assert.Equal(t, []int{5, 4, 2}, h.Shape)
	assert.Len(t, h.Blocks, 4)
	assert.Equal(t, "test", r.Metadata()["source"])
	assert.Equal(t, s.Chunks(), r.Chunks())

	block, err := r.ReadBlock([]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, s.Block([]int{1, 1}).AsInt8(), block.AsInt8())

	loaded, err := r.Store()
	require.NoError(t, err)
	out, err := engine.NewLocal(engine.Options{Workers: 2}).Compute(context.Background(), loaded.Array().Collection())
	require.NoError(t, err)
	assert.Equal(t, gt.AsInt8(), out.AsInt8())
}

func TestBlockDataIsAligned(t *testing.T) {
	_, s := testStore(t, tensor.Shape{3, 3, 2}, tensor.Regular(tensor.Shape{3, 3, 2}, 2, 2))
	image := encode(t, s, nil)

	headerSize := binary.LittleEndian.Uint64(image[16:24])
	offset := dataOffset(int64(headerSize))
	assert.Zero(t, offset%HeaderAlignment)
	assert.Equal(t, int64(len(image)), offset+int64(binary.LittleEndian.Uint64(image[24:32])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(image[8:12]), "no metadata flag")
}

func TestSaveAndLoad(t *testing.T) {
	gt, s := testStore(t, tensor.Shape{4, 6, 2}, tensor.Chunks{{4}, {2, 2, 2}, {2}})
	path := filepath.Join(t.TempDir(), "cohort.gts")
	require.NoError(t, Save(path, s, nil))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Chunks(), loaded.Chunks())
	assert.Equal(t, gt.DType(), loaded.DType())
	for flat := 0; flat < s.Chunks().NumBlocks(); flat++ {
		idx := s.Chunks().BlockIndex(flat)
		assert.Equal(t, s.Block(idx).AsInt8(), loaded.Block(idx).AsInt8(), "block %v", idx)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.gts"))
	assert.Error(t, err)
}

func TestEmptyAxisRoundTrip(t *testing.T) {
	_, s := testStore(t, tensor.Shape{0, 3, 2}, tensor.Chunks{{0}, {2, 1}, {2}})
	r, err := decode(encode(t, s, nil), ReaderOptions{})
	require.NoError(t, err)

	loaded, err := r.Store()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 3, 2}, loaded.Shape())
}

func TestChecksumMismatch(t *testing.T) {
	_, s := testStore(t, tensor.Shape{4, 2, 2}, tensor.Regular(tensor.Shape{4, 2, 2}, 2))
	image := encode(t, s, nil)
	image[len(image)-1] ^= 0x7f

	_, err := decode(image, ReaderOptions{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	r, err := decode(image, ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	block, err := r.ReadBlock([]int{1, 0, 0})
	require.NoError(t, err)
	assert.NotEqual(t, s.Block([]int{1, 0, 0}).AsInt8(), block.AsInt8())
}

func TestRejectsBadImages(t *testing.T) {
	_, s := testStore(t, tensor.Shape{2, 2, 2}, tensor.Single(tensor.Shape{2, 2, 2}))

	magic := encode(t, s, nil)
	copy(magic, "BORN")
	_, err := decode(magic, ReaderOptions{})
	assert.ErrorIs(t, err, ErrInvalidMagic)

	version := encode(t, s, nil)
	binary.LittleEndian.PutUint32(version[4:8], 9)
	_, err = decode(version, ReaderOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	huge := encode(t, s, nil)
	binary.LittleEndian.PutUint64(huge[16:24], MaxHeaderSize+1)
	_, err = decode(huge, ReaderOptions{})
	assert.ErrorIs(t, err, ErrHeaderTooLarge)

	full := encode(t, s, nil)
	_, err = decode(full[:len(full)-3], ReaderOptions{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "truncated", verr.Type)

	_, err = decode(full[:10], ReaderOptions{})
	assert.Error(t, err)
}

func TestReadBlockErrors(t *testing.T) {
	_, s := testStore(t, tensor.Shape{4, 2, 2}, tensor.Regular(tensor.Shape{4, 2, 2}, 2))
	r, err := decode(encode(t, s, nil), ReaderOptions{})
	require.NoError(t, err)

	_, err = r.ReadBlock([]int{2, 0, 0})
	assert.Error(t, err)
	_, err = r.ReadBlock([]int{0, 0})
	assert.Error(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err = r.ReadBlock([]int{0, 0, 0})
	assert.ErrorIs(t, err, ErrClosed)
}

func validHeader() Header {
	return Header{
		FormatVersion: FormatVersion,
		DType:         "int32",
		Shape:         []int{3, 2},
		Chunks:        [][]int{{2, 1}, {2}},
		Blocks: []BlockMeta{
			{Index: []int{0, 0}, Offset: 0, Size: 16},
			{Index: []int{1, 0}, Offset: 16, Size: 8},
		},
	}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *Header)
		want   string
	}{
		{"valid", func(*Header) {}, ""},
		{"unknown dtype", func(h *Header) { h.DType = "complex64" }, "unknown_dtype"},
		{"chunks", func(h *Header) { h.Chunks = [][]int{{3}, {1}} }, "invalid_chunks"},
		{"count", func(h *Header) { h.Blocks = h.Blocks[:1] }, "block_count"},
		{"order", func(h *Header) { h.Blocks[0].Index, h.Blocks[1].Index = h.Blocks[1].Index, h.Blocks[0].Index }, "block_order"},
		{"size", func(h *Header) { h.Blocks[1].Size = 4 }, "block_size"},
		{"overlap", func(h *Header) { h.Blocks[1].Offset = 8 }, "offset_overlap"},
		{"bounds", func(h *Header) { h.Blocks[1].Offset = 20 }, "out_of_bounds"},
		{"negative", func(h *Header) { h.Blocks[0].Offset = -1 }, "negative_offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.mutate(&h)
			err := ValidateHeader(&h, 24, ValidationStrict)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.want, verr.Type)
			assert.NoError(t, ValidateHeader(&h, 24, ValidationNone))
		})
	}
}

func TestValidationNormalSkipsOffsets(t *testing.T) {
	h := validHeader()
	h.Blocks[1].Offset = 8
	assert.NoError(t, ValidateHeader(&h, 24, ValidationNormal))
	assert.Error(t, ValidateHeader(&h, 24, ValidationStrict))
}

func TestValidationErrorMessages(t *testing.T) {
	assert.Equal(t, "offset_overlap: blocks [0 0] and [1 0]: x",
		(&ValidationError{Type: "offset_overlap", Block: []int{0, 0}, Block2: []int{1, 0}, Details: "x"}).Error())
	assert.Equal(t, "block_size: block [1]: y",
		(&ValidationError{Type: "block_size", Block: []int{1}, Details: "y"}).Error())
	assert.Equal(t, "truncated: z", (&ValidationError{Type: "truncated", Details: "z"}).Error())
}
