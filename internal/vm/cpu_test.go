package vm

import (
	"bytes"
	"testing"
)

func newTestCPU() *CPU {
	return New(64*1024, NewUart(&bytes.Buffer{}))
}

func TestCPUResetStartsAtDramBaseInMachineMode(t *testing.T) {
	cpu := newTestCPU()

	if cpu.PC.Get() != ResetVector {
		t.Errorf("PC = %#x, want reset vector %#x", uint32(cpu.PC.Get()), uint32(ResetVector))
	}

	if cpu.Mode != Machine {
		t.Errorf("Mode = %s, want M", cpu.Mode)
	}

	if cpu.Cycles != 0 {
		t.Errorf("Cycles = %d, want 0", cpu.Cycles)
	}
}

func TestCPUStepExecutesAddiAndAdvancesPC(t *testing.T) {
	cpu := newTestCPU()

	raw := encodeI(OpImm, 0, 1, 0, 5) // addi x1, x0, 5
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{
		byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24),
	})

	if err := cpu.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if cpu.Regs.Get(1) != 5 {
		t.Errorf("x1 = %d, want 5", cpu.Regs.Get(1))
	}

	if cpu.PC.Get() != ResetVector+4 {
		t.Errorf("PC = %#x, want %#x", uint32(cpu.PC.Get()), uint32(ResetVector)+4)
	}

	if cpu.Cycles != 1 {
		t.Errorf("Cycles = %d, want 1", cpu.Cycles)
	}
}

func TestCPUStepTrapsOnIllegalInstructionAndDoesNotAdvance(t *testing.T) {
	cpu := newTestCPU()

	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{0x7f, 0, 0, 0}) // unused opcode

	if err := cpu.Step(); err != nil {
		t.Fatalf("Step returned an error directly; traps should be handled internally: %v", err)
	}

	if cpu.PC.Get() != 0 {
		t.Errorf("PC after trap = %#x, want mtvec base 0 (direct mode, default mtvec)", uint32(cpu.PC.Get()))
	}

	if cpu.CSR.Mepc != uint32(ResetVector) {
		t.Errorf("mepc = %#x, want the faulting pc %#x", cpu.CSR.Mepc, uint32(ResetVector))
	}

	if cpu.Cycles != 0 {
		t.Error("a trapped instruction should not increment the cycle counter")
	}
}

func TestCPUWritingMtvecThenIllegalInstructionTrapsToHandler(t *testing.T) {
	cpu := newTestCPU()

	handler := uint32(ResetVector) + 0x1000

	// csrrwi mtvec, handler is awkward to hand-encode with an arbitrary
	// 32-bit immediate, so the handler base is installed directly and only
	// the trapping instruction is placed in memory.
	cpu.CSR.Mtvec = handler

	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{0xff, 0xff, 0xff, 0xff})

	if err := cpu.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if cpu.PC.Get() != Word(handler) {
		t.Errorf("PC after trap = %#x, want handler base %#x", uint32(cpu.PC.Get()), handler)
	}
}

func TestCPUFetchDispatchesCompressedEncoding(t *testing.T) {
	cpu := newTestCPU()

	// C.ADDI x1, 3: quadrant 1, funct3 000, rd=1, imm split nzimm[5]=bit12,
	// nzimm[4:0]=bits 6:2.
	raw16 := uint16(0b000_0_00001_00011_01)
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{byte(raw16), byte(raw16 >> 8)})

	if err := cpu.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if cpu.PC.Get() != ResetVector+2 {
		t.Errorf("PC = %#x, want +2 for a compressed instruction", uint32(cpu.PC.Get()))
	}

	if cpu.Regs.Get(1) != 3 {
		t.Errorf("x1 = %d, want 3", cpu.Regs.Get(1))
	}
}

func TestCPUTrapClearsOutstandingReservation(t *testing.T) {
	cpu := newTestCPU()

	if _, err := cpu.Lsu.AtomicLoadReserve(Machine, Word(ResetVector)+0x100); err != nil {
		t.Fatalf("AtomicLoadReserve: %v", err)
	}

	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{0xff, 0xff, 0xff, 0xff})

	if err := cpu.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	ok, err := cpu.Lsu.AtomicStoreConditional(Machine, Word(ResetVector)+0x100, 1)
	if err != nil {
		t.Fatalf("AtomicStoreConditional: %v", err)
	}

	if ok {
		t.Error("a trap should have cleared the LR/SC reservation")
	}
}
