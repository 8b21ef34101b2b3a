package vm

import "testing"

func TestCsrPrivilegeCheck(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	if _, err := csr.Read(CsrMstatus, User); err == nil {
		t.Error("expected illegal instruction reading mstatus from U-mode")
	}

	if _, err := csr.Read(CsrMstatus, Machine); err != nil {
		t.Errorf("Read mstatus from M-mode: %v", err)
	}
}

func TestCsrReadOnlyCheck(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	if err := csr.Write(CsrMhartid, 5, Machine); err == nil {
		t.Error("expected illegal instruction writing a read-only CSR")
	}
}

func TestSstatusViewMasksMOnlyBits(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Mstatus.SetMIE(true) // M-only bit, not visible via sstatus
	csr.Mstatus.SetSIE(true) // S-visible bit

	v, err := csr.Read(CsrSstatus, Supervisor)
	if err != nil {
		t.Fatalf("Read sstatus: %v", err)
	}

	if Mstatus(v).MIE() {
		t.Error("sstatus view leaked the M-only MIE bit")
	}

	if !Mstatus(v).SIE() {
		t.Error("sstatus view dropped the S-visible SIE bit")
	}
}

func TestTrapEntryDefaultsToMachine(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Mtvec = 0x8000_0100 // direct mode

	mode, pc := csr.TrapEntry(0x8000_0004, &Exception{Cause: CauseIllegalInstruction}, Supervisor)

	if mode != Machine {
		t.Errorf("target mode = %s, want M (no delegation configured)", mode)
	}

	if pc != 0x8000_0100 {
		t.Errorf("pc = %#x, want mtvec base", uint32(pc))
	}

	if csr.Mepc != 0x8000_0004 {
		t.Errorf("mepc = %#x, want faulting pc", csr.Mepc)
	}

	if csr.Mstatus.MPP() != Supervisor {
		t.Errorf("MPP = %s, want the pre-trap mode S", csr.Mstatus.MPP())
	}
}

func TestTrapEntryVectoredOffsetAppliesToExceptions(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Mtvec = 0x8000_0000 | 0b01 // vectored

	_, pc := csr.TrapEntry(0x8000_1000, &Exception{Cause: CauseIllegalInstruction}, Machine)

	want := Word(0x8000_0000 + 4*uint32(CauseIllegalInstruction))
	if pc != want {
		t.Errorf("pc = %#x, want %#x (vectored offset applied to an exception)", uint32(pc), uint32(want))
	}
}

func TestTrapEntryDelegatesToSupervisor(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Medeleg = 1 << uint32(CauseIllegalInstruction)
	csr.Stvec = 0x8000_2000

	mode, pc := csr.TrapEntry(0x8000_0004, &Exception{Cause: CauseIllegalInstruction}, User)

	if mode != Supervisor {
		t.Errorf("target mode = %s, want S (delegated)", mode)
	}

	if pc != 0x8000_2000 {
		t.Errorf("pc = %#x, want stvec base", uint32(pc))
	}

	if csr.Mstatus.SPP() != User {
		t.Errorf("SPP = %s, want the pre-trap mode U", csr.Mstatus.SPP())
	}
}

func TestTrapMretRestoresModeAndInterruptState(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Mstatus.SetMPP(Supervisor)
	csr.Mstatus.SetMPIE(true)
	csr.Mepc = 0x8000_0040

	mode, pc := csr.TrapMret()

	if mode != Supervisor {
		t.Errorf("mode = %s, want S", mode)
	}

	if pc != 0x8000_0040 {
		t.Errorf("pc = %#x, want mepc", uint32(pc))
	}

	if !csr.Mstatus.MIE() {
		t.Error("MIE should be restored from MPIE")
	}

	if csr.Mstatus.MPP() != User {
		t.Error("MPP should reset to U after mret")
	}
}

func TestEffectivePrivilegeMPRVRule(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	csr.Mstatus.setBit(mstatusMPRV, true)
	csr.Mstatus.SetMPP(User)

	if got := csr.EffectivePrivilege(Machine, AccessLoad); got != User {
		t.Errorf("EffectivePrivilege(load) = %s, want U under MPRV", got)
	}

	if got := csr.EffectivePrivilege(Machine, AccessFetch); got != Machine {
		t.Errorf("EffectivePrivilege(fetch) = %s, want M (MPRV does not affect fetch)", got)
	}
}

func TestMstatusWriteMasksReservedBits(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	// Bit 9 is a reserved WPRI bit (not part of mstatusMWriteMask); a write
	// setting it should leave it clear.
	if err := csr.Write(CsrMstatus, Word(1<<9), Machine); err != nil {
		t.Fatalf("Write mstatus: %v", err)
	}

	if uint32(csr.Mstatus)&(1<<9) != 0 {
		t.Error("a reserved mstatus bit should not be settable by a raw write")
	}
}

func TestMstatusWriteRecomputesSD(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	// FS = 0b11 (dirty) should force SD on, even though SD itself is not
	// in the write mask.
	if err := csr.Write(CsrMstatus, Word(0x3<<mstatusFSshift)|mstatusSD, Machine); err != nil {
		t.Fatalf("Write mstatus: %v", err)
	}

	if uint32(csr.Mstatus)&mstatusSD == 0 {
		t.Error("SD should be set once FS reports dirty")
	}

	// Clearing FS/XS should recompute SD back to clear.
	if err := csr.Write(CsrMstatus, 0, Machine); err != nil {
		t.Fatalf("Write mstatus: %v", err)
	}

	if uint32(csr.Mstatus)&mstatusSD != 0 {
		t.Error("SD should clear once neither FS nor XS reports dirty")
	}
}

func TestSstatusWriteCannotSetSDDirectly(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	if err := csr.Write(CsrSstatus, Word(mstatusSD), Supervisor); err != nil {
		t.Fatalf("Write sstatus: %v", err)
	}

	if uint32(csr.Mstatus)&mstatusSD != 0 {
		t.Error("sstatus write should not be able to set SD directly; only FS/XS dirty recomputes it")
	}
}

func TestInspectReturnsCanonicalOrder(t *testing.T) {
	var csr CsrFile
	csr.Reset()

	rows := csr.Inspect()
	if len(rows) == 0 {
		t.Fatal("Inspect returned no rows")
	}

	if rows[0].Name != "ustatus" {
		t.Errorf("first row = %s, want ustatus", rows[0].Name)
	}
}
