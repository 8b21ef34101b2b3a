package vm

import (
	"bytes"
	"strings"
	"testing"
)

func TestInspectRegsReflectsState(t *testing.T) {
	cpu := New(4096, NewUart(&bytes.Buffer{}))
	cpu.Regs.Set(5, 0x1234)

	regs := cpu.InspectRegs()
	if regs[5] != 0x1234 {
		t.Errorf("InspectRegs()[5] = %#x, want 0x1234", regs[5])
	}

	if regs[0] != 0 {
		t.Error("x0 should always inspect as zero")
	}
}

func TestInspectPCAndCSRs(t *testing.T) {
	cpu := New(4096, NewUart(&bytes.Buffer{}))

	if cpu.InspectPC() != uint32(ResetVector) {
		t.Errorf("InspectPC() = %#x, want reset vector", cpu.InspectPC())
	}

	rows := cpu.InspectCSRs()
	if len(rows) == 0 {
		t.Fatal("InspectCSRs() returned nothing")
	}
}

func TestInspectMemReadsRamAndZerosOutsideIt(t *testing.T) {
	cpu := New(4096, NewUart(&bytes.Buffer{}))
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{0xaa, 0xbb})

	got := cpu.InspectMem(uint32(ResetVector), 2)
	if got[0] != 0xaa || got[1] != 0xbb {
		t.Errorf("got %v, want [0xaa 0xbb]", got)
	}

	outside := cpu.InspectMem(0x4000_0000, 4)
	for i, b := range outside {
		if b != 0 {
			t.Errorf("byte %d outside ram = %#x, want 0", i, b)
		}
	}
}

func TestGetInfoReportsRamAndTlbCounters(t *testing.T) {
	cpu := New(8192, NewUart(&bytes.Buffer{}))
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{1})

	info := cpu.GetInfo()

	if info.DRAMBase != DramBase || info.DRAMSize != 8192 {
		t.Errorf("DRAMBase/Size = %#x/%d, want %#x/8192", info.DRAMBase, info.DRAMSize, uint32(DramBase))
	}

	if info.AllocatedKiB != 4 {
		t.Errorf("AllocatedKiB = %d, want 4 (one page touched)", info.AllocatedKiB)
	}

	if info.CurrentMode != Machine {
		t.Errorf("CurrentMode = %s, want M", info.CurrentMode)
	}
}

func TestInspectInsDisassemblesAndToleratesIllegalEncodings(t *testing.T) {
	cpu := New(4096, NewUart(&bytes.Buffer{}))

	raw := encodeI(OpImm, 0, 1, 0, 5) // addi x1, x0, 5
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{
		byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24),
		0xff, 0xff, 0xff, 0xff, // illegal 32-bit word
	})

	lines := cpu.InspectIns(uint32(ResetVector), 2, nil)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	if lines[0].Size != 4 || !strings.Contains(lines[0].Text, "addi") {
		t.Errorf("line 0 = %+v, want a 4-byte addi", lines[0])
	}

	if !strings.Contains(lines[1].Text, "illegal") {
		t.Errorf("line 1 = %+v, want an illegal placeholder", lines[1])
	}
}

func TestInspectInsAttachesNearestSymbol(t *testing.T) {
	cpu := New(4096, NewUart(&bytes.Buffer{}))

	raw := encodeI(OpImm, 0, 1, 0, 5)
	cpu.Bus.LoadBytes(uint32(ResetVector), []byte{
		byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24),
	})

	symbols := map[uint32]string{uint32(ResetVector): "_start"}

	lines := cpu.InspectIns(uint32(ResetVector), 1, symbols)
	if lines[0].Symbol != "_start" {
		t.Errorf("Symbol = %q, want _start", lines[0].Symbol)
	}
}
