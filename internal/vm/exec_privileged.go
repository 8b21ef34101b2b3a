package vm

// exec_privileged.go executes MRET/SRET (deferred to the CSR file's
// trap-return logic), plus the supplemented SFENCE.VMA and WFI handling
// (see SPEC_FULL.md's note on the decode table these two were added to).

func (cpu *CPU) execPrivileged(ins Instruction) error {
	switch ins.Privileged {
	case Mret:
		if cpu.Mode != Machine {
			return IllegalInstruction(ins.Raw)
		}

		mode, pc := cpu.CSR.TrapMret()
		cpu.Mode = mode
		cpu.PC.Set(pc)
		cpu.Lsu.ClearReservation()

		return nil

	case Sret:
		if cpu.Mode == User || (cpu.Mode == Supervisor && cpu.CSR.Mstatus.TSR()) {
			return IllegalInstruction(ins.Raw)
		}

		mode, pc := cpu.CSR.TrapSret()
		cpu.Mode = mode
		cpu.PC.Set(pc)
		cpu.Lsu.ClearReservation()

		return nil

	case SfenceVMA:
		if cpu.Mode == User {
			return IllegalInstruction(ins.Raw)
		}

		if cpu.Mode == Supervisor && cpu.CSR.Mstatus.TVM() {
			return IllegalInstruction(ins.Raw)
		}

		rs1Val := uint32(cpu.Regs.Get(ins.Fields.Rs1))
		rs2Val := uint32(cpu.Regs.Get(ins.Fields.Rs2)) & 0x1ff

		cpu.Mmu.Tlb.Flush(rs1Val&^0xfff, rs2Val)
		cpu.advance(ins)

		return nil

	case Wfi:
		if cpu.Mode != Machine && cpu.CSR.Mstatus.TW() {
			return IllegalInstruction(ins.Raw)
		}

		cpu.advance(ins)

		return nil

	default:
		return IllegalInstruction(ins.Raw)
	}
}
