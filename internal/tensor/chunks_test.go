package tensor

import (
	"errors"
	"testing"
)

func TestRegular(t *testing.T) {
	c := Regular(Shape{10, 7, 2}, 4, 3)

	want := Chunks{{4, 4, 2}, {3, 3, 1}, {2}}
	if !c.Equal(want) {
		t.Errorf("Regular = %v, want %v", c, want)
	}
	if err := c.Validate(Shape{10, 7, 2}); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if c.NumBlocks() != 9 {
		t.Errorf("NumBlocks = %d, want 9", c.NumBlocks())
	}
}

func TestRegularZeroExtent(t *testing.T) {
	c := Regular(Shape{0, 3}, 2, 2)
	if !c.Equal(Chunks{{0}, {2, 1}}) {
		t.Errorf("Regular = %v", c)
	}
	if err := c.Validate(Shape{0, 3}); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestChunksValidate(t *testing.T) {
	cases := []struct {
		name  string
		c     Chunks
		shape Shape
	}{
		{"rank mismatch", Chunks{{2}}, Shape{2, 2}},
		{"sum mismatch", Chunks{{2, 2}, {2}}, Shape{5, 2}},
		{"empty axis", Chunks{{}, {2}}, Shape{0, 2}},
		{"zero block among others", Chunks{{2, 0}, {2}}, Shape{2, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate(tc.shape)
			if !errors.Is(err, ErrChunks) {
				t.Errorf("Validate = %v, want ErrChunks", err)
			}
		})
	}
}

func TestChunksIndexing(t *testing.T) {
	c := Chunks{{2, 3}, {1, 2, 2}}

	for flat := 0; flat < c.NumBlocks(); flat++ {
		if got := c.Flat(c.BlockIndex(flat)); got != flat {
			t.Errorf("Flat(BlockIndex(%d)) = %d", flat, got)
		}
	}

	idx := c.BlockIndex(4) // row 1, column 1
	if idx[0] != 1 || idx[1] != 1 {
		t.Errorf("BlockIndex(4) = %v, want [1 1]", idx)
	}
	if s := c.BlockShape(idx); !s.Equal(Shape{3, 2}) {
		t.Errorf("BlockShape = %v, want [3 2]", s)
	}
	if off := c.BlockOffset(idx); off[0] != 2 || off[1] != 1 {
		t.Errorf("BlockOffset = %v, want [2 1]", off)
	}
	if off := c.Offsets(1); !Shape(off).Equal(Shape{0, 1, 3, 5}) {
		t.Errorf("Offsets(1) = %v", off)
	}
}

func TestSplitStitchRoundTrip(t *testing.T) {
	data := make([]int8, 5*4*2)
	for i := range data {
		data[i] = int8(i%7) - 1
	}
	raw, _ := FromSlice(data, Shape{5, 4, 2})
	c := Chunks{{2, 3}, {1, 1, 2}, {2}}

	blocks, err := Split(raw, c)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(blocks) != 6 {
		t.Fatalf("got %d blocks, want 6", len(blocks))
	}
	// Block (1, 2) covers variants 2..4 and samples 2..3.
	b := blocks[c.Flat([]int{1, 2})]
	if !b.Shape().Equal(Shape{3, 2, 2}) {
		t.Fatalf("block shape = %v", b.Shape())
	}
	if got, want := b.AsInt8()[0], data[(2*4+2)*2]; got != want {
		t.Errorf("block first element = %d, want %d", got, want)
	}

	out, err := Stitch(blocks, c, Int8)
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	if !out.Equal(raw) {
		t.Error("Stitch(Split(x)) != x")
	}
}

func TestStitchRejectsWrongBlockShape(t *testing.T) {
	c := Chunks{{1, 1}}
	a, _ := FromSlice([]int32{1}, Shape{1})
	b, _ := FromSlice([]int32{2, 3}, Shape{2})

	if _, err := Stitch([]*RawTensor{a, b}, c, Int32); !errors.Is(err, ErrChunks) {
		t.Errorf("Stitch = %v, want ErrChunks", err)
	}
}
