package vm

// exec_a.go executes the A extension: load-reserved/store-conditional and
// the atomic memory operations, all routed through the LSU so the
// misaligned-access quirk and reservation bookkeeping live in one place.

func (cpu *CPU) execA(ins Instruction) error {
	f := ins.Amo
	addr := cpu.Regs.Get(f.Rs1)

	switch ins.A {
	case LrW:
		val, err := cpu.Lsu.AtomicLoadReserve(cpu.Mode, addr)
		if err != nil {
			return err
		}

		cpu.Regs.Set(f.Rd, val)

	case ScW:
		ok, err := cpu.Lsu.AtomicStoreConditional(cpu.Mode, addr, cpu.Regs.Get(f.Rs2))
		if err != nil {
			return err
		}

		if ok {
			cpu.Regs.Set(f.Rd, 0)
		} else {
			cpu.Regs.Set(f.Rd, 1)
		}

	default:
		old, err := cpu.Lsu.AtomicOperate(cpu.Mode, addr, ins.A, cpu.Regs.Get(f.Rs2))
		if err != nil {
			return err
		}

		cpu.Regs.Set(f.Rd, old)
	}

	cpu.advance(ins)

	return nil
}
