package tensor

import (
	"errors"
	"testing"
)

func TestConvertIntegerWidening(t *testing.T) {
	raw, _ := FromSlice([]int8{-1, 0, 3}, Shape{3})

	out, err := ConvertInteger(raw, Int32)
	if err != nil {
		t.Fatalf("ConvertInteger: %v", err)
	}
	got := out.AsInt32()
	if got[0] != -1 || got[1] != 0 || got[2] != 3 {
		t.Errorf("converted = %v", got)
	}
}

func TestConvertIntegerNarrowingChecksValues(t *testing.T) {
	ok, _ := FromSlice([]int64{-1, 0, 127}, Shape{3})
	if _, err := ConvertInteger(ok, Int8); err != nil {
		t.Errorf("in-range narrowing failed: %v", err)
	}

	bad, _ := FromSlice([]int64{0, 200}, Shape{2})
	if _, err := ConvertInteger(bad, Int8); !errors.Is(err, ErrLossyConversion) {
		t.Errorf("ConvertInteger = %v, want ErrLossyConversion", err)
	}
}

func TestConvertIntegerRejectsFloat(t *testing.T) {
	raw, _ := FromSlice([]float32{1}, Shape{1})
	if _, err := ConvertInteger(raw, Int8); err == nil {
		t.Error("expected error converting float32")
	}
}

func TestConvertIntegerSameDTypeIsIdentity(t *testing.T) {
	raw, _ := FromSlice([]int8{1}, Shape{1})
	out, _ := ConvertInteger(raw, Int8)
	if out != raw {
		t.Error("converting to the same dtype should return the input")
	}
}

func TestConvertIntegerWidensFullRange(t *testing.T) {
	raw, _ := FromSlice([]int8{-128, 0, 127}, Shape{3})
	out, err := ConvertInteger(raw, Int32)
	if err != nil {
		t.Fatalf("ConvertInteger failed: %v", err)
	}
	if got := out.AsInt32(); got[0] != -128 || got[2] != 127 {
		t.Errorf("ConvertInteger = %v, want [-128 0 127]", got)
	}

	unsigned, _ := FromSlice([]uint8{255}, Shape{1})
	if _, err := ConvertInteger(unsigned, Int8); err == nil {
		t.Error("uint8 255 to int8 should fail the value check")
	}
}

func TestWidensLosslessly(t *testing.T) {
	cases := []struct {
		from, to DataType
		want     bool
	}{
		{Int8, Int32, true},
		{Uint8, Int32, true},
		{Uint8, Int8, false},
		{Int64, Int32, false},
		{Float32, Int32, false},
	}
	for _, tc := range cases {
		if got := WidensLosslessly(tc.from, tc.to); got != tc.want {
			t.Errorf("WidensLosslessly(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
