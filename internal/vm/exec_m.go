package vm

// exec_m.go executes the M extension: every operation is a direct ALU
// dispatch with no memory or control-flow side effects.

func (cpu *CPU) execM(ins Instruction) error {
	f := ins.Fields
	a, b := cpu.Regs.Get(f.Rs1), cpu.Regs.Get(f.Rs2)

	var result Word

	switch ins.M {
	case Mul:
		result = Mul(a, b)
	case Mulh:
		result = Mulh(a, b)
	case Mulhsu:
		result = MulhSignedUnsigned(a, b)
	case Mulhu:
		result = MulhUnsigned(a, b)
	case Div:
		result = Div(a, b)
	case Divu:
		result = DivUnsigned(a, b)
	case Rem:
		result = Rem(a, b)
	case Remu:
		result = RemUnsigned(a, b)
	default:
		return IllegalInstruction(ins.Raw)
	}

	cpu.Regs.Set(f.Rd, result)
	cpu.advance(ins)

	return nil
}
