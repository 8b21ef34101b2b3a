package vm

import "testing"

func TestGetBitsSigned(t *testing.T) {
	// a 4-bit field holding 0b1000 (8) sign extends to -8.
	got := GetBitsSigned(0b1000, 0, 4)
	if got != -8 {
		t.Errorf("GetBitsSigned(0b1000, 0, 4) = %d, want -8", got)
	}
}

func TestIImmSignExtends(t *testing.T) {
	// addi x1, x0, -1  -> imm field is all ones.
	raw := uint32(0xfff) << 20
	if got := iImm(raw); got != -1 {
		t.Errorf("iImm = %d, want -1", got)
	}
}

func TestSImmReassemblesSplitField(t *testing.T) {
	// sw x1, -4(x2): imm = -4 split across bits [11:5] and [4:0].
	imm := int32(-4)
	lo := uint32(imm) & 0x1f
	hi := (uint32(imm) >> 5) & 0x7f
	raw := hi<<25 | lo<<7

	if got := sImm(raw); got != imm {
		t.Errorf("sImm = %d, want %d", got, imm)
	}
}

func TestBImmReassemblesSplitField(t *testing.T) {
	imm := int32(-16) // within 13-bit branch range, bit0 implicitly zero

	bit12 := (uint32(imm) >> 12) & 0x1
	bit11 := (uint32(imm) >> 11) & 0x1
	bits10_5 := (uint32(imm) >> 5) & 0x3f
	bits4_1 := (uint32(imm) >> 1) & 0xf

	raw := bit12<<31 | bits10_5<<25 | bits4_1<<8 | bit11<<7

	if got := bImm(raw); got != imm {
		t.Errorf("bImm = %d, want %d", got, imm)
	}
}

func TestUImmClearsLow12Bits(t *testing.T) {
	raw := uint32(0xdeadb000)
	if got := uImm(raw); got != int32(0xdeadb000) {
		t.Errorf("uImm = %#x, want %#x", uint32(got), raw)
	}
}

func TestJImmReassemblesSplitField(t *testing.T) {
	imm := int32(1 << 15) // within 21-bit jal range

	bit20 := (uint32(imm) >> 20) & 0x1
	bits19_12 := (uint32(imm) >> 12) & 0xff
	bit11 := (uint32(imm) >> 11) & 0x1
	bits10_1 := (uint32(imm) >> 1) & 0x3ff

	raw := bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12

	if got := jImm(raw); got != imm {
		t.Errorf("jImm = %d, want %d", got, imm)
	}
}

func TestFieldExtractors(t *testing.T) {
	// addi x5, x6, 3 : opcode=0x13, rd=5, funct3=0, rs1=6, imm=3
	raw := uint32(3)<<20 | uint32(6)<<15 | uint32(0)<<12 | uint32(5)<<7 | uint32(OpImm)

	if got := opcodeOf(raw); got != OpImm {
		t.Errorf("opcodeOf = %#x, want %#x", got, OpImm)
	}

	if got := rdOf(raw); got != GPR(5) {
		t.Errorf("rdOf = %s, want x5", got)
	}

	if got := rs1Of(raw); got != GPR(6) {
		t.Errorf("rs1Of = %s, want x6", got)
	}

	if got := funct3Of(raw); got != 0 {
		t.Errorf("funct3Of = %d, want 0", got)
	}
}
