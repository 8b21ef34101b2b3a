package vm

// decode_compressed.go expands a 16-bit RVC instruction into the same
// Instruction record the 32-bit decoder produces, so nothing downstream of
// decode ever has to know compressed forms exist. Quadrant is bits [1:0];
// each quadrant dispatches on funct3 (bits [15:13]).

// creg maps a compressed 3-bit register field to x8..x15.
func creg(bits uint16) GPR { return GPR(bits + 8) }

// Decompress expands a 16-bit instruction word into a base Instruction.
// Unrecognized or reserved-with-zero-immediate encodings surface as
// illegal instruction, carrying the 16-bit word zero-extended as the raw
// payload.
func Decompress(raw16 uint16) (Instruction, error) {
	raw := uint32(raw16)
	quadrant := raw16 & 0x3
	f3 := (raw16 >> 13) & 0x7

	var (
		ins Instruction
		err error
	)

	switch quadrant {
	case 0:
		ins, err = decompressQ0(raw16, f3)
	case 1:
		ins, err = decompressQ1(raw16, f3)
	case 2:
		ins, err = decompressQ2(raw16, f3)
	default:
		return Instruction{}, IllegalInstruction(raw)
	}

	if err != nil {
		return Instruction{}, IllegalInstruction(raw)
	}

	ins.Compressed = true
	ins.Raw = raw

	return ins, nil
}

func decompressQ0(raw16 uint16, f3 uint16) (Instruction, error) {
	switch f3 {
	case 0b000: // C.ADDI4SPN
		nzuimm := ((raw16>>11)&0x3)<<4 | ((raw16>>7)&0xf)<<6 | ((raw16>>6)&0x1)<<2 | ((raw16>>5)&0x1)<<3
		if nzuimm == 0 {
			return Instruction{}, errIllegal
		}

		return Instruction{
			Kind: KindBase, Base: Addi,
			Fields: Fields{Rd: creg((raw16 >> 2) & 0x7), Rs1: 2, Imm: int32(nzuimm)},
		}, nil

	case 0b010: // C.LW
		off := ((raw16>>5)&1)<<6 | ((raw16>>10)&0x7)<<3 | ((raw16>>6)&1)<<2
		return Instruction{
			Kind: KindBase, Base: Lw,
			Fields: Fields{Rd: creg((raw16 >> 2) & 0x7), Rs1: creg((raw16 >> 7) & 0x7), Imm: int32(off)},
		}, nil

	case 0b110: // C.SW
		off := ((raw16>>5)&1)<<6 | ((raw16>>10)&0x7)<<3 | ((raw16>>6)&1)<<2
		return Instruction{
			Kind: KindBase, Base: Sw,
			Fields: Fields{Rs1: creg((raw16 >> 7) & 0x7), Rs2: creg((raw16 >> 2) & 0x7), Imm: int32(off)},
		}, nil

	default:
		return Instruction{}, errIllegal
	}
}

func decompressQ1(raw16 uint16, f3 uint16) (Instruction, error) {
	rd := GPR((raw16 >> 7) & 0x1f)

	switch f3 {
	case 0b000: // C.ADDI / C.NOP
		imm := ciImm(raw16)
		return Instruction{Kind: KindBase, Base: Addi, Fields: Fields{Rd: rd, Rs1: rd, Imm: imm}}, nil

	case 0b001: // C.JAL (RV32)
		imm := cjImm(raw16)
		return Instruction{Kind: KindBase, Base: Jal, Fields: Fields{Rd: 1, Imm: imm}}, nil

	case 0b010: // C.LI
		imm := ciImm(raw16)
		return Instruction{Kind: KindBase, Base: Addi, Fields: Fields{Rd: rd, Rs1: 0, Imm: imm}}, nil

	case 0b011:
		if rd == 2 { // C.ADDI16SP
			bit9 := uint32(raw16>>12) & 1
			bit8_7 := uint32(raw16>>3) & 0x3
			bit6 := uint32(raw16>>5) & 1
			bit5 := uint32(raw16>>2) & 1
			bit4 := uint32(raw16>>6) & 1

			v := bit9<<9 | bit8_7<<7 | bit6<<6 | bit5<<5 | bit4<<4
			nzimm := GetBitsSigned(v, 0, 10)

			if nzimm == 0 {
				return Instruction{}, errIllegal
			}

			return Instruction{Kind: KindBase, Base: Addi, Fields: Fields{Rd: 2, Rs1: 2, Imm: nzimm}}, nil
		}

		// C.LUI
		bit17 := uint32(raw16>>12) & 1
		bits16_12 := uint32(raw16>>2) & 0x1f
		raw18 := bit17<<17 | bits16_12<<12
		nzimm := int32(raw18<<14) >> 14

		if nzimm == 0 || rd == 0 {
			return Instruction{}, errIllegal
		}

		return Instruction{Kind: KindBase, Base: Lui, Fields: Fields{Rd: rd, Imm: nzimm}}, nil

	case 0b100:
		return decompressQ1Arith(raw16)

	case 0b101: // C.J
		imm := cjImm(raw16)
		return Instruction{Kind: KindBase, Base: Jal, Fields: Fields{Rd: 0, Imm: imm}}, nil

	case 0b110: // C.BEQZ
		imm := cbBranchImm(raw16)
		return Instruction{Kind: KindBase, Base: Beq, Fields: Fields{Rs1: creg((raw16 >> 7) & 0x7), Rs2: 0, Imm: imm}}, nil

	case 0b111: // C.BNEZ
		imm := cbBranchImm(raw16)
		return Instruction{Kind: KindBase, Base: Bne, Fields: Fields{Rs1: creg((raw16 >> 7) & 0x7), Rs2: 0, Imm: imm}}, nil

	default:
		return Instruction{}, errIllegal
	}
}

func decompressQ1Arith(raw16 uint16) (Instruction, error) {
	rdp := creg((raw16 >> 7) & 0x7)
	funct2 := (raw16 >> 10) & 0x3

	switch funct2 {
	case 0b00: // C.SRLI
		shamt := cShamt(raw16)
		return Instruction{Kind: KindBase, Base: Srli, Fields: Fields{Rd: rdp, Rs1: rdp, Imm: int32(shamt)}}, nil

	case 0b01: // C.SRAI
		shamt := cShamt(raw16)
		return Instruction{Kind: KindBase, Base: Srai, Fields: Fields{Rd: rdp, Rs1: rdp, Imm: int32(shamt)}}, nil

	case 0b10: // C.ANDI
		imm := ciImm(raw16)
		return Instruction{Kind: KindBase, Base: Andi, Fields: Fields{Rd: rdp, Rs1: rdp, Imm: imm}}, nil

	case 0b11:
		rs2p := creg((raw16 >> 2) & 0x7)
		funct2b := (raw16 >> 5) & 0x3

		var op Rv32iOp

		switch funct2b {
		case 0b00:
			op = Sub
		case 0b01:
			op = Xor
		case 0b10:
			op = Or
		default:
			op = And
		}

		return Instruction{Kind: KindBase, Base: op, Fields: Fields{Rd: rdp, Rs1: rdp, Rs2: rs2p}}, nil
	}

	return Instruction{}, errIllegal
}

func decompressQ2(raw16 uint16, f3 uint16) (Instruction, error) {
	rd := GPR((raw16 >> 7) & 0x1f)
	rs2 := GPR((raw16 >> 2) & 0x1f)

	switch f3 {
	case 0b000: // C.SLLI
		shamt := cShamt(raw16)
		if rd == 0 {
			return Instruction{}, errIllegal
		}

		return Instruction{Kind: KindBase, Base: Slli, Fields: Fields{Rd: rd, Rs1: rd, Imm: int32(shamt)}}, nil

	case 0b010: // C.LWSP
		if rd == 0 {
			return Instruction{}, errIllegal
		}

		bit5 := uint32(raw16>>12) & 1
		bit4_2 := uint32(raw16>>4) & 0x7
		bit7_6 := uint32(raw16>>2) & 0x3
		off := bit7_6<<6 | bit5<<5 | bit4_2<<2

		return Instruction{Kind: KindBase, Base: Lw, Fields: Fields{Rd: rd, Rs1: 2, Imm: int32(off)}}, nil

	case 0b100:
		bit12 := (raw16 >> 12) & 1

		switch {
		case bit12 == 0 && rs2 == 0: // C.JR
			if rd == 0 {
				return Instruction{}, errIllegal
			}

			return Instruction{Kind: KindBase, Base: Jalr, Fields: Fields{Rd: 0, Rs1: rd, Imm: 0}}, nil

		case bit12 == 0: // C.MV
			return Instruction{Kind: KindBase, Base: Add, Fields: Fields{Rd: rd, Rs1: 0, Rs2: rs2}}, nil

		case bit12 == 1 && rd == 0 && rs2 == 0: // C.EBREAK
			return Instruction{Kind: KindBase, Base: Ebreak}, nil

		case bit12 == 1 && rs2 == 0: // C.JALR
			return Instruction{Kind: KindBase, Base: Jalr, Fields: Fields{Rd: 1, Rs1: rd, Imm: 0}}, nil

		default: // C.ADD
			return Instruction{Kind: KindBase, Base: Add, Fields: Fields{Rd: rd, Rs1: rd, Rs2: rs2}}, nil
		}

	case 0b110: // C.SWSP
		bit5_2 := uint32(raw16>>9) & 0xf
		bit7_6 := uint32(raw16>>7) & 0x3
		off := bit7_6<<6 | bit5_2<<2

		return Instruction{Kind: KindBase, Base: Sw, Fields: Fields{Rs1: 2, Rs2: rs2, Imm: int32(off)}}, nil

	default:
		return Instruction{}, errIllegal
	}
}

// ciImm decodes the sign-extended 6-bit CI-format immediate shared by
// C.ADDI, C.LI and C.ANDI.
func ciImm(raw16 uint16) int32 {
	bit5 := uint32(raw16>>12) & 1
	bits4_0 := uint32(raw16>>2) & 0x1f
	v := bit5<<5 | bits4_0

	return GetBitsSigned(v, 0, 6)
}

// cShamt decodes the CI-format shift amount shared by C.SLLI/C.SRLI/C.SRAI.
func cShamt(raw16 uint16) uint32 {
	bit5 := uint32(raw16>>12) & 1
	bits4_0 := uint32(raw16>>2) & 0x1f

	return bit5<<5 | bits4_0
}

// cjImm decodes the sign-extended 12-bit CJ-format immediate shared by
// C.J and C.JAL.
func cjImm(raw16 uint16) int32 {
	bit11 := uint32(raw16>>12) & 1
	bit4 := uint32(raw16>>11) & 1
	bit9_8 := uint32(raw16>>9) & 0x3
	bit10 := uint32(raw16>>8) & 1
	bit6 := uint32(raw16>>7) & 1
	bit7 := uint32(raw16>>6) & 1
	bit3_1 := uint32(raw16>>3) & 0x7
	bit5 := uint32(raw16>>2) & 1

	v := bit11<<11 | bit10<<10 | bit9_8<<8 | bit7<<7 | bit6<<6 | bit5<<5 | bit4<<4 | bit3_1<<1

	return GetBitsSigned(v, 0, 12)
}

// cbBranchImm decodes the sign-extended 9-bit CB-format branch immediate
// shared by C.BEQZ and C.BNEZ.
func cbBranchImm(raw16 uint16) int32 {
	bit8 := uint32(raw16>>12) & 1
	bit4_3 := uint32(raw16>>10) & 0x3
	bit7_6 := uint32(raw16>>5) & 0x3
	bit2_1 := uint32(raw16>>3) & 0x3
	bit5 := uint32(raw16>>2) & 1

	v := bit8<<8 | bit7_6<<6 | bit5<<5 | bit4_3<<3 | bit2_1<<1

	return GetBitsSigned(v, 0, 9)
}

var errIllegal = IllegalInstruction(0)
