package vm

// decode.go turns a raw 32-bit instruction word into an Instruction record.
// Each opcode class reconstructs its own immediate using the canonical
// RISC-V I/S/B/U/J sign-extension patterns; anything unrecognized within a
// class falls through to illegal instruction, carrying the full raw word.

// Decode parses a 32-bit instruction word.
func Decode(raw uint32) (Instruction, error) {
	op := opcodeOf(raw)
	f3 := funct3Of(raw)
	f7 := funct7Of(raw)

	switch op {
	case OpImm:
		return decodeOpImm(raw, f3, f7)
	case OpLoad:
		return decodeLoad(raw, f3)
	case OpJalr:
		if f3 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return itype(raw, Jalr), nil
	case OpMiscMem:
		return decodeMiscMem(raw, f3)
	case OpOp:
		return decodeOp(raw, f3, f7)
	case OpStore:
		return decodeStore(raw, f3)
	case OpBranch:
		return decodeBranch(raw, f3)
	case OpJal:
		return jtype(raw, Jal), nil
	case OpLui:
		return utype(raw, Lui), nil
	case OpAuipc:
		return utype(raw, Auipc), nil
	case OpSystem:
		return decodeSystem(raw, f3)
	case OpAmo:
		return decodeAmo(raw, f3, f7)
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func itype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rd:  rdOf(raw),
			Rs1: rs1Of(raw),
			Imm: iImm(raw),
		},
		Raw: raw,
	}
}

func rtype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rd:  rdOf(raw),
			Rs1: rs1Of(raw),
			Rs2: rs2Of(raw),
		},
		Raw: raw,
	}
}

func mtype(raw uint32, op MOp) Instruction {
	return Instruction{
		Kind: KindM,
		M:    op,
		Fields: Fields{
			Rd:  rdOf(raw),
			Rs1: rs1Of(raw),
			Rs2: rs2Of(raw),
		},
		Raw: raw,
	}
}

func stype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rs1: rs1Of(raw),
			Rs2: rs2Of(raw),
			Imm: sImm(raw),
		},
		Raw: raw,
	}
}

func btype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rs1: rs1Of(raw),
			Rs2: rs2Of(raw),
			Imm: bImm(raw),
		},
		Raw: raw,
	}
}

func utype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rd:  rdOf(raw),
			Imm: uImm(raw),
		},
		Raw: raw,
	}
}

func jtype(raw uint32, op Rv32iOp) Instruction {
	return Instruction{
		Kind: KindBase,
		Base: op,
		Fields: Fields{
			Rd:  rdOf(raw),
			Imm: jImm(raw),
		},
		Raw: raw,
	}
}

func decodeOpImm(raw uint32, f3, f7 uint32) (Instruction, error) {
	switch f3 {
	case 0x0:
		return itype(raw, Addi), nil
	case 0x1:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return itype(raw, Slli), nil
	case 0x2:
		return itype(raw, Slti), nil
	case 0x3:
		return itype(raw, Sltiu), nil
	case 0x4:
		return itype(raw, Xori), nil
	case 0x5:
		switch f7 {
		case 0x00:
			return itype(raw, Srli), nil
		case 0x20:
			return itype(raw, Srai), nil
		default:
			return Instruction{}, IllegalInstruction(raw)
		}
	case 0x6:
		return itype(raw, Ori), nil
	case 0x7:
		return itype(raw, Andi), nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeLoad(raw uint32, f3 uint32) (Instruction, error) {
	switch f3 {
	case 0x0:
		return itype(raw, Lb), nil
	case 0x1:
		return itype(raw, Lh), nil
	case 0x2:
		return itype(raw, Lw), nil
	case 0x4:
		return itype(raw, Lbu), nil
	case 0x5:
		return itype(raw, Lhu), nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeMiscMem(raw uint32, f3 uint32) (Instruction, error) {
	switch f3 {
	case 0x0:
		return Instruction{Kind: KindBase, Base: Fence, Raw: raw}, nil
	case 0x1:
		return Instruction{Kind: KindZifencei, Zifencei: FenceI, Raw: raw}, nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeOp(raw uint32, f3, f7 uint32) (Instruction, error) {
	if f7 == 0x01 {
		switch f3 {
		case 0x0:
			return mtype(raw, Mul), nil
		case 0x1:
			return mtype(raw, Mulh), nil
		case 0x2:
			return mtype(raw, Mulhsu), nil
		case 0x3:
			return mtype(raw, Mulhu), nil
		case 0x4:
			return mtype(raw, Div), nil
		case 0x5:
			return mtype(raw, Divu), nil
		case 0x6:
			return mtype(raw, Rem), nil
		case 0x7:
			return mtype(raw, Remu), nil
		}
	}

	switch f3 {
	case 0x0:
		switch f7 {
		case 0x00:
			return rtype(raw, Add), nil
		case 0x20:
			return rtype(raw, Sub), nil
		default:
			return Instruction{}, IllegalInstruction(raw)
		}
	case 0x1:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, Sll), nil
	case 0x2:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, Slt), nil
	case 0x3:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, Sltu), nil
	case 0x4:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, Xor), nil
	case 0x5:
		switch f7 {
		case 0x00:
			return rtype(raw, Srl), nil
		case 0x20:
			return rtype(raw, Sra), nil
		default:
			return Instruction{}, IllegalInstruction(raw)
		}
	case 0x6:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, Or), nil
	case 0x7:
		if f7 != 0 {
			return Instruction{}, IllegalInstruction(raw)
		}

		return rtype(raw, And), nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeStore(raw uint32, f3 uint32) (Instruction, error) {
	switch f3 {
	case 0x0:
		return stype(raw, Sb), nil
	case 0x1:
		return stype(raw, Sh), nil
	case 0x2:
		return stype(raw, Sw), nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeBranch(raw uint32, f3 uint32) (Instruction, error) {
	switch f3 {
	case 0x0:
		return btype(raw, Beq), nil
	case 0x1:
		return btype(raw, Bne), nil
	case 0x4:
		return btype(raw, Blt), nil
	case 0x5:
		return btype(raw, Bge), nil
	case 0x6:
		return btype(raw, Bltu), nil
	case 0x7:
		return btype(raw, Bgeu), nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeSystem(raw uint32, f3 uint32) (Instruction, error) {
	if f3 == 0 {
		return decodeSystemZero(raw)
	}

	return decodeZicsr(raw, f3)
}

func decodeSystemZero(raw uint32) (Instruction, error) {
	switch raw {
	case 0x00000073:
		return Instruction{Kind: KindBase, Base: Ecall, Raw: raw}, nil
	case 0x00100073:
		return Instruction{Kind: KindBase, Base: Ebreak, Raw: raw}, nil
	case 0x30200073:
		return Instruction{Kind: KindPrivileged, Privileged: Mret, Raw: raw}, nil
	case 0x10200073:
		return Instruction{Kind: KindPrivileged, Privileged: Sret, Raw: raw}, nil
	}

	f7 := funct7Of(raw)
	rs2 := rs2Of(raw)

	switch {
	case f7 == 0b0001001:
		return Instruction{
			Kind:       KindPrivileged,
			Privileged: SfenceVMA,
			Fields:     Fields{Rs1: rs1Of(raw), Rs2: rs2},
			Raw:        raw,
		}, nil
	case f7 == 0b0001000 && rs2 == 0b00101:
		return Instruction{Kind: KindPrivileged, Privileged: Wfi, Raw: raw}, nil
	default:
		return Instruction{}, IllegalInstruction(raw)
	}
}

func decodeZicsr(raw uint32, f3 uint32) (Instruction, error) {
	var op ZicsrOp

	switch f3 {
	case 1:
		op = Csrrw
	case 2:
		op = Csrrs
	case 3:
		op = Csrrc
	case 5:
		op = Csrrwi
	case 6:
		op = Csrrsi
	case 7:
		op = Csrrci
	default:
		return Instruction{}, IllegalInstruction(raw)
	}

	fields := Fields{
		Rd:  rdOf(raw),
		Imm: int32(GetBits(raw, 20, 12)),
	}

	if op.IsImm() {
		fields.Rs1 = GPR(GetBits(raw, 15, 5)) // zimm packed where rs1 sits
	} else {
		fields.Rs1 = rs1Of(raw)
	}

	return Instruction{Kind: KindZicsr, Zicsr: op, Fields: fields, Raw: raw}, nil
}

var amoOps = map[uint32]AOp{
	0b00010: LrW,
	0b00011: ScW,
	0b00001: AmoSwapW,
	0b00000: AmoAddW,
	0b00100: AmoXorW,
	0b01100: AmoAndW,
	0b01000: AmoOrW,
	0b10000: AmoMinW,
	0b10100: AmoMaxW,
	0b11000: AmoMinuW,
	0b11100: AmoMaxuW,
}

func decodeAmo(raw uint32, f3, f7 uint32) (Instruction, error) {
	if f3 != 0x2 {
		return Instruction{}, IllegalInstruction(raw)
	}

	funct5 := f7 >> 2

	op, ok := amoOps[funct5]
	if !ok {
		return Instruction{}, IllegalInstruction(raw)
	}

	rs2 := rs2Of(raw)

	if op == LrW && rs2 != 0 {
		return Instruction{}, IllegalInstruction(raw)
	}

	return Instruction{
		Kind: KindA,
		A:    op,
		Amo: AmoFields{
			Rd:  rdOf(raw),
			Rs1: rs1Of(raw),
			Rs2: rs2,
			AQ:  GetBits(raw, 26, 1) != 0,
			RL:  GetBits(raw, 25, 1) != 0,
		},
		Raw: raw,
	}, nil
}
