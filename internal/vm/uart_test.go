package vm

import (
	"bytes"
	"testing"
)

func TestUartWriteAtOffsetZeroEmitsAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	u := NewUart(&buf)

	u.WriteByte(0, 'A')

	if buf.String() != "A" {
		t.Errorf("output = %q, want %q", buf.String(), "A")
	}
}

func TestUartWriteAtOtherOffsetsIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	u := NewUart(&buf)

	u.WriteByte(1, 'X')
	u.WriteByte(5, 'Y')

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestUartReadLineStatusAlwaysReportsTransmitReady(t *testing.T) {
	var buf bytes.Buffer
	u := NewUart(&buf)

	if got := u.ReadByte(5); got != 0x20 {
		t.Errorf("LSR read = %#x, want 0x20 (THRE)", got)
	}
}

func TestUartReadOtherOffsetsAreZero(t *testing.T) {
	var buf bytes.Buffer
	u := NewUart(&buf)

	if got := u.ReadByte(0); got != 0 {
		t.Errorf("THR read = %#x, want 0", got)
	}

	if got := u.ReadByte(3); got != 0 {
		t.Errorf("offset 3 read = %#x, want 0", got)
	}
}
