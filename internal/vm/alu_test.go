package vm

import "testing"

func TestShiftArithmeticSignExtends(t *testing.T) {
	got := ShiftRightArithmetic(Word(0x80000000), Word(4))
	want := Word(0xf8000000)

	if got != want {
		t.Errorf("ShiftRightArithmetic(0x80000000, 4) = %#x, want %#x", uint32(got), uint32(want))
	}
}

func TestShiftAmountMasksToFiveBits(t *testing.T) {
	if got := ShiftAmount(Word(0xff)); got != 0x1f {
		t.Errorf("ShiftAmount(0xff) = %d, want 31", got)
	}
}

func TestSetLessThanSigned(t *testing.T) {
	if got := SetLessThan(Word(0xffffffff), Word(1)); got != 1 {
		t.Errorf("SetLessThan(-1, 1) = %d, want 1", got)
	}

	if got := SetLessThanUnsigned(Word(0xffffffff), Word(1)); got != 0 {
		t.Errorf("SetLessThanUnsigned(0xffffffff, 1) = %d, want 0", got)
	}
}

func TestDivByZero(t *testing.T) {
	if got := Div(Word(10), Word(0)); got != Word(0xffffffff) {
		t.Errorf("Div(10, 0) = %#x, want -1", uint32(got))
	}

	if got := DivUnsigned(Word(10), Word(0)); got != Word(0xffffffff) {
		t.Errorf("DivUnsigned(10, 0) = %#x, want 0xffffffff", uint32(got))
	}
}

func TestDivOverflow(t *testing.T) {
	minInt := Word(0x80000000)

	if got := Div(minInt, Word(0xffffffff)); got != minInt {
		t.Errorf("Div(INT_MIN, -1) = %#x, want %#x", uint32(got), uint32(minInt))
	}

	if got := Rem(minInt, Word(0xffffffff)); got != 0 {
		t.Errorf("Rem(INT_MIN, -1) = %#x, want 0", uint32(got))
	}
}

func TestRemByZeroYieldsDividend(t *testing.T) {
	if got := Rem(Word(42), Word(0)); got != 42 {
		t.Errorf("Rem(42, 0) = %d, want 42", got)
	}

	if got := RemUnsigned(Word(42), Word(0)); got != 42 {
		t.Errorf("RemUnsigned(42, 0) = %d, want 42", got)
	}
}

func TestMulhSigned(t *testing.T) {
	a := Word(0xffffffff) // -1
	b := Word(0xffffffff) // -1

	if got := Mulh(a, b); got != 0 {
		t.Errorf("Mulh(-1, -1) = %#x, want 0", uint32(got))
	}
}

func TestMulhUnsignedHighBits(t *testing.T) {
	a := Word(0xffffffff)
	b := Word(2)

	got := MulhUnsigned(a, b)
	if got != 1 {
		t.Errorf("MulhUnsigned(0xffffffff, 2) = %d, want 1", got)
	}
}
