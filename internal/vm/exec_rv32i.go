package vm

// exec_rv32i.go executes the base integer instruction set plus the
// FENCE/ECALL/EBREAK system instructions that do not need the CSR file.

func (cpu *CPU) execRv32i(ins Instruction) error {
	f := ins.Fields
	imm := Word(uint32(f.Imm))

	switch ins.Base {
	case Addi:
		cpu.Regs.Set(f.Rd, Add(cpu.Regs.Get(f.Rs1), imm))
	case Slli:
		cpu.Regs.Set(f.Rd, ShiftLeftLogical(cpu.Regs.Get(f.Rs1), imm))
	case Slti:
		cpu.Regs.Set(f.Rd, SetLessThan(cpu.Regs.Get(f.Rs1), imm))
	case Sltiu:
		cpu.Regs.Set(f.Rd, SetLessThanUnsigned(cpu.Regs.Get(f.Rs1), imm))
	case Xori:
		cpu.Regs.Set(f.Rd, Xor(cpu.Regs.Get(f.Rs1), imm))
	case Srli:
		cpu.Regs.Set(f.Rd, ShiftRightLogical(cpu.Regs.Get(f.Rs1), imm))
	case Srai:
		cpu.Regs.Set(f.Rd, ShiftRightArithmetic(cpu.Regs.Get(f.Rs1), imm))
	case Ori:
		cpu.Regs.Set(f.Rd, Or(cpu.Regs.Get(f.Rs1), imm))
	case Andi:
		cpu.Regs.Set(f.Rd, And(cpu.Regs.Get(f.Rs1), imm))

	case Add:
		cpu.Regs.Set(f.Rd, Add(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Sub:
		cpu.Regs.Set(f.Rd, Sub(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Sll:
		cpu.Regs.Set(f.Rd, ShiftLeftLogical(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Slt:
		cpu.Regs.Set(f.Rd, SetLessThan(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Sltu:
		cpu.Regs.Set(f.Rd, SetLessThanUnsigned(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Xor:
		cpu.Regs.Set(f.Rd, Xor(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Srl:
		cpu.Regs.Set(f.Rd, ShiftRightLogical(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Sra:
		cpu.Regs.Set(f.Rd, ShiftRightArithmetic(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case Or:
		cpu.Regs.Set(f.Rd, Or(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))
	case And:
		cpu.Regs.Set(f.Rd, And(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)))

	case Lui:
		cpu.Regs.Set(f.Rd, imm)
	case Auipc:
		cpu.Regs.Set(f.Rd, Add(cpu.PC.Get(), imm))

	case Lb:
		return cpu.execLoad(ins, 1, true)
	case Lh:
		return cpu.execLoad(ins, 2, true)
	case Lw:
		return cpu.execLoad(ins, 4, true)
	case Lbu:
		return cpu.execLoad(ins, 1, false)
	case Lhu:
		return cpu.execLoad(ins, 2, false)

	case Sb:
		return cpu.execStore(ins, 1)
	case Sh:
		return cpu.execStore(ins, 2)
	case Sw:
		return cpu.execStore(ins, 4)

	case Jal:
		link := cpu.PC.Get() + Word(ins.Size())
		cpu.Regs.Set(f.Rd, link)
		cpu.jump(cpu.PC.Get() + imm)

		return nil

	case Jalr:
		target := (cpu.Regs.Get(f.Rs1) + imm) &^ 1
		link := cpu.PC.Get() + Word(ins.Size())
		cpu.Regs.Set(f.Rd, link)
		cpu.jump(target)

		return nil

	case Beq, Bne, Blt, Bge, Bltu, Bgeu:
		predicate, _ := ins.Base.Predicate()
		if predicate(cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)) {
			cpu.jump(cpu.PC.Get() + imm)
		} else {
			cpu.advance(ins)
		}

		return nil

	case Fence:
		// no cache/ordering model to enforce; a no-op.

	case Ecall:
		return cpu.Mode.CallException()

	case Ebreak:
		return ErrBreakpoint

	default:
		return IllegalInstruction(ins.Raw)
	}

	cpu.advance(ins)

	return nil
}

func (cpu *CPU) execLoad(ins Instruction, size int, signed bool) error {
	f := ins.Fields
	addr := cpu.Regs.Get(f.Rs1) + Word(uint32(f.Imm))

	val, err := cpu.Lsu.Load(cpu.Mode, addr, size, signed)
	if err != nil {
		return err
	}

	cpu.Regs.Set(f.Rd, val)
	cpu.advance(ins)

	return nil
}

func (cpu *CPU) execStore(ins Instruction, size int) error {
	f := ins.Fields
	addr := cpu.Regs.Get(f.Rs1) + Word(uint32(f.Imm))

	if err := cpu.Lsu.Store(cpu.Mode, addr, size, cpu.Regs.Get(f.Rs2)); err != nil {
		return err
	}

	cpu.advance(ins)

	return nil
}
