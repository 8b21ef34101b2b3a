package vm

// exec_zicsr.go executes the Zicsr CSR-access instructions. CSRRW skips its
// read when rd is x0, since the read would otherwise perform a
// side-effecting access purely to discard the result; CSRRS/CSRRC skip
// their write when the operand is zero, since ORing or AND-NOTing with zero
// changes nothing and a skipped write avoids tripping a read-only check on
// a CSR the program never meant to modify.

func (cpu *CPU) execZicsr(ins Instruction) error {
	f := ins.Fields
	addr := CsrAddr(ins.Raw >> 20)

	var operand Word
	if ins.Zicsr.IsImm() {
		operand = Word(uint32(f.Rs1))
	} else {
		operand = cpu.Regs.Get(f.Rs1)
	}

	var old Word

	needRead := !ins.Zicsr.IsRW() || f.Rd != 0

	if needRead {
		v, err := cpu.CSR.Read(addr, cpu.Mode)
		if err != nil {
			return err
		}

		old = v
	}

	var (
		newVal    Word
		needWrite = true
	)

	switch {
	case ins.Zicsr.IsRW():
		newVal = operand
	case ins.Zicsr.IsRS():
		newVal = old | operand
		needWrite = operand != 0
	default: // RC
		newVal = old &^ operand
		needWrite = operand != 0
	}

	if needWrite {
		if err := cpu.CSR.Write(addr, newVal, cpu.Mode); err != nil {
			return err
		}
	}

	if needRead {
		cpu.Regs.Set(f.Rd, old)
	}

	cpu.advance(ins)

	return nil
}
