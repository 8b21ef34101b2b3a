package vm

// debug.go is a read-only facade over a running hart: every method here
// observes state without altering it (no translation side effects, no PMP
// enforcement, no TLB fills), so a monitor can inspect a hart mid-trap
// without perturbing it.

import "fmt"

// MachineInfo summarizes the hart's static and running configuration.
type MachineInfo struct {
	DRAMBase     uint32
	DRAMSize     uint32
	PageSizeKiB  uint32
	AllocatedKiB uint32
	TLBHits      uint64
	TLBMisses    uint64
	CurrentMode  Privilege
}

// DisasmLine is one disassembled instruction, with its address, raw
// encoding, size in bytes, text and the symbol defined at exactly that
// address, if any.
type DisasmLine struct {
	Addr   uint32
	Raw    uint32
	Size   uint32
	Text   string
	Symbol string
}

// InspectRegs returns a snapshot of the general-purpose registers.
func (cpu *CPU) InspectRegs() [NumGPR]uint32 {
	var out [NumGPR]uint32
	for i := range out {
		out[i] = uint32(cpu.Regs.Get(GPR(i)))
	}

	return out
}

// InspectPC returns the current program counter.
func (cpu *CPU) InspectPC() uint32 { return uint32(cpu.PC.Get()) }

// InspectCSRs returns every CSR in the canonical inspection set.
func (cpu *CPU) InspectCSRs() []NamedCsr { return cpu.CSR.Inspect() }

// InspectMem reads length bytes starting at addr directly out of RAM,
// bypassing translation and PMP; addresses outside RAM read as zero.
func (cpu *CPU) InspectMem(addr, length uint32) []byte {
	out := make([]byte, length)

	for i := range out {
		a := addr + uint32(i)
		if cpu.Bus.Ram.Contains(a) {
			cpu.Bus.Ram.ReadBytes(a, out[i:i+1])
		}
	}

	return out
}

// GetInfo reports the hart's static and running configuration.
func (cpu *CPU) GetInfo() MachineInfo {
	base, size := cpu.Bus.RamInfo()

	return MachineInfo{
		DRAMBase:     base,
		DRAMSize:     size,
		PageSizeKiB:  pageSize / 1024,
		AllocatedKiB: uint32(cpu.Bus.Ram.AllocatedPages()) * (pageSize / 1024),
		TLBHits:      cpu.Mmu.Tlb.Hits,
		TLBMisses:    cpu.Mmu.Tlb.Misses,
		CurrentMode:  cpu.Mode,
	}
}

// InspectIns disassembles count instructions starting at start, consulting
// symbols (if not nil) for a label at each instruction's exact address. It
// tolerates illegal encodings by emitting a placeholder line and advancing
// by the width the low two bits select (2 or 4 bytes), so one bad word
// never truncates the listing.
func (cpu *CPU) InspectIns(start uint32, count int, symbols map[uint32]string) []DisasmLine {
	out := make([]DisasmLine, 0, count)
	addr := start

	for i := 0; i < count; i++ {
		buf := cpu.InspectMem(addr, 2)
		low16 := uint16(buf[0]) | uint16(buf[1])<<8

		var (
			line DisasmLine
		)

		line.Addr = addr
		line.Symbol = nearestSymbol(symbols, addr)

		if low16&0x3 != 0x3 {
			ins, err := Decompress(low16)
			line.Size = 2
			line.Raw = uint32(low16)

			if err != nil {
				line.Text = fmt.Sprintf("<illegal: %#04x>", low16)
			} else {
				line.Text = ins.String()
			}
		} else {
			buf = cpu.InspectMem(addr, 4)
			raw := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24

			ins, err := Decode(raw)
			line.Size = 4
			line.Raw = raw

			if err != nil {
				line.Text = fmt.Sprintf("<illegal: %#08x>", raw)
			} else {
				line.Text = ins.String()
			}
		}

		out = append(out, line)
		addr += line.Size
	}

	return out
}

func nearestSymbol(symbols map[uint32]string, addr uint32) string {
	if symbols == nil {
		return ""
	}

	if name, ok := symbols[addr]; ok {
		return name
	}

	return ""
}
