package vm

// csr.go implements the control and status register file: mstatus/sstatus,
// the trap CSRs for M and S mode, satp, medeleg/mideleg and the PMP
// registers. Privilege gating and trap entry/return live here because they
// are properties of the CSR bank, not of any one execution engine.

import "fmt"

// CsrAddr is a 12-bit CSR address. Bits [9:8] encode the minimum privilege
// required to access it; bits [11:10] == 0b11 mark it read-only.
type CsrAddr uint16

const (
	CsrUstatus CsrAddr = 0x000

	CsrSstatus   CsrAddr = 0x100
	CsrSie       CsrAddr = 0x104
	CsrStvec     CsrAddr = 0x105
	CsrSscratch  CsrAddr = 0x140
	CsrSepc      CsrAddr = 0x141
	CsrScause    CsrAddr = 0x142
	CsrStval     CsrAddr = 0x143
	CsrSip       CsrAddr = 0x144
	CsrSatp      CsrAddr = 0x180

	CsrMstatus   CsrAddr = 0x300
	CsrMedeleg   CsrAddr = 0x302
	CsrMideleg   CsrAddr = 0x303
	CsrMie       CsrAddr = 0x304
	CsrMtvec     CsrAddr = 0x305
	CsrMscratch  CsrAddr = 0x340
	CsrMepc      CsrAddr = 0x341
	CsrMcause    CsrAddr = 0x342
	CsrMtval     CsrAddr = 0x343
	CsrMip       CsrAddr = 0x344

	CsrPmpcfg0  CsrAddr = 0x3a0
	CsrPmpaddr0 CsrAddr = 0x3b0
	CsrPmpaddr1 CsrAddr = 0x3b1
	CsrPmpaddr2 CsrAddr = 0x3b2
	CsrPmpaddr3 CsrAddr = 0x3b3

	CsrMhartid CsrAddr = 0xf14
)

var csrNames = map[CsrAddr]string{
	CsrUstatus: "ustatus",
	CsrSstatus: "sstatus", CsrSie: "sie", CsrStvec: "stvec",
	CsrSscratch: "sscratch", CsrSepc: "sepc", CsrScause: "scause",
	CsrStval: "stval", CsrSip: "sip", CsrSatp: "satp",
	CsrMstatus: "mstatus", CsrMedeleg: "medeleg", CsrMideleg: "mideleg",
	CsrMie: "mie", CsrMtvec: "mtvec", CsrMscratch: "mscratch",
	CsrMepc: "mepc", CsrMcause: "mcause", CsrMtval: "mtval", CsrMip: "mip",
	CsrPmpcfg0: "pmpcfg0", CsrPmpaddr0: "pmpaddr0",
	CsrMhartid: "mhartid",
}

// minPrivilege returns the minimum privilege mode required to access addr.
func (addr CsrAddr) minPrivilege() Privilege {
	return Privilege((addr >> 8) & 0x3)
}

// readOnly reports whether addr names an architecturally read-only CSR.
func (addr CsrAddr) readOnly() bool {
	return (addr>>10)&0x3 == 0x3
}

// mstatus bit positions, shared by the M and S views.
const (
	mstatusSIE  = 1 << 1
	mstatusMIE  = 1 << 3
	mstatusSPIE = 1 << 5
	mstatusMPIE = 1 << 7
	mstatusSPP  = 1 << 8
	mstatusMPPshift = 11
	mstatusMPPmask  = 0x3 << mstatusMPPshift
	mstatusFSshift  = 13
	mstatusFSmask   = 0x3 << mstatusFSshift
	mstatusXSshift  = 15
	mstatusXSmask   = 0x3 << mstatusXSshift
	mstatusMPRV = 1 << 17
	mstatusSUM  = 1 << 18
	mstatusMXR  = 1 << 19
	mstatusTVM  = 1 << 20
	mstatusTW   = 1 << 21
	mstatusTSR  = 1 << 22
	mstatusSD   = 1 << 31

	// mstatusMWriteMask is the set of bits a CSR write through mstatus may
	// change; SD is excluded since it is read-only, recomputed from FS/XS
	// on every write rather than settable directly.
	mstatusMWriteMask = mstatusSIE | mstatusMIE | mstatusSPIE | mstatusMPIE |
		mstatusSPP | mstatusMPPmask | mstatusFSmask | mstatusXSmask |
		mstatusMPRV | mstatusSUM | mstatusMXR | mstatusTVM | mstatusTW | mstatusTSR

	// mstatusSWriteMask is the subset of mstatusMWriteMask a CSR write
	// through sstatus may change.
	mstatusSWriteMask = mstatusSIE | mstatusSPIE | mstatusSPP | mstatusFSmask |
		mstatusXSmask | mstatusSUM | mstatusMXR

	// sstatusMask is the set of bits visible through a sstatus read;
	// everything else reads as zero.
	sstatusMask = mstatusSWriteMask | mstatusSD
)

// Mstatus is the backing bits for mstatus/sstatus, stored once and masked
// on read/write depending on which view the caller asks for.
type Mstatus uint32

func (m Mstatus) SIE() bool  { return m&mstatusSIE != 0 }
func (m Mstatus) MIE() bool  { return m&mstatusMIE != 0 }
func (m Mstatus) SPIE() bool { return m&mstatusSPIE != 0 }
func (m Mstatus) MPIE() bool { return m&mstatusMPIE != 0 }
func (m Mstatus) SPP() Privilege {
	if m&mstatusSPP != 0 {
		return Supervisor
	}

	return User
}
func (m Mstatus) MPP() Privilege { return Privilege((uint32(m) & mstatusMPPmask) >> mstatusMPPshift) }
func (m Mstatus) MPRV() bool     { return m&mstatusMPRV != 0 }
func (m Mstatus) SUM() bool      { return m&mstatusSUM != 0 }
func (m Mstatus) MXR() bool      { return m&mstatusMXR != 0 }
func (m Mstatus) TVM() bool      { return m&mstatusTVM != 0 }
func (m Mstatus) TW() bool       { return m&mstatusTW != 0 }
func (m Mstatus) TSR() bool      { return m&mstatusTSR != 0 }

func (m *Mstatus) setBit(mask uint32, set bool) {
	if set {
		*m |= Mstatus(mask)
	} else {
		*m &^= Mstatus(mask)
	}
}

func (m *Mstatus) SetSIE(v bool)  { m.setBit(mstatusSIE, v) }
func (m *Mstatus) SetMIE(v bool)  { m.setBit(mstatusMIE, v) }
func (m *Mstatus) SetSPIE(v bool) { m.setBit(mstatusSPIE, v) }
func (m *Mstatus) SetMPIE(v bool) { m.setBit(mstatusMPIE, v) }

func (m *Mstatus) SetSPP(p Privilege) {
	if p == Supervisor {
		*m |= mstatusSPP
	} else {
		*m &^= mstatusSPP
	}
}

func (m *Mstatus) SetMPP(p Privilege) {
	*m &^= mstatusMPPmask
	*m |= Mstatus(uint32(p)<<mstatusMPPshift) & mstatusMPPmask
}

// sstatusView masks the backing bits down to what sstatus exposes.
func (m Mstatus) sstatusView() uint32 { return uint32(m) & sstatusMask }

// recomputeSD derives SD, read-only and set whenever FS or XS report a
// dirty state (11), after every write to either view.
func (m *Mstatus) recomputeSD() {
	fs := (uint32(*m) & mstatusFSmask) >> mstatusFSshift
	xs := (uint32(*m) & mstatusXSmask) >> mstatusXSshift

	m.setBit(mstatusSD, fs == 0x3 || xs == 0x3)
}

// applyMstatusWrite merges val's M-writable bits into the backing mstatus
// and recomputes SD.
func (m *Mstatus) applyMstatusWrite(val uint32) {
	*m = Mstatus((uint32(*m) &^ mstatusMWriteMask) | (val & mstatusMWriteMask))
	m.recomputeSD()
}

// applySstatusWrite merges val's sstatus-visible bits into the backing
// mstatus, leaving M-only bits untouched, and recomputes SD.
func (m *Mstatus) applySstatusWrite(val uint32) {
	*m = Mstatus((uint32(*m) &^ mstatusSWriteMask) | (val & mstatusSWriteMask))
	m.recomputeSD()
}

// CsrFile is the hart's complete CSR state.
type CsrFile struct {
	Mstatus Mstatus

	Medeleg uint32
	Mideleg uint32

	Mie uint32
	Mip uint32

	Mtvec uint32
	Stvec uint32

	Mscratch uint32
	Sscratch uint32

	Mepc uint32
	Sepc uint32

	Mcause uint32
	Scause uint32

	Mtval uint32
	Stval uint32

	Satp uint32

	Pmp [4]PmpEntry

	// Ustatus is inspectable but inert: there is no U-mode trap delegation
	// (the N extension) in this core, so it always reads zero.
	Ustatus uint32
}

// Reset restores the CSR file to its post-reset state: M-mode, traps off,
// no delegation, no translation, PMP off.
func (csr *CsrFile) Reset() {
	*csr = CsrFile{}
	csr.Mstatus.SetMPP(Machine)
}

func (csr *CsrFile) trapBase(v uint32) (base uint32, vectored bool) {
	return v &^ 0b11, v&0b11 == 0b01
}

func (csr *CsrFile) pmpaddr(n int) uint32 { return csr.Pmp[n].Addr }

func (csr *CsrFile) setPmpaddr(n int, val uint32) {
	if csr.Pmp[n].L {
		return
	}

	csr.Pmp[n].Addr = val
}

func (csr *CsrFile) pmpcfg0() uint32 {
	var cfg uint32
	for i := 0; i < 4; i++ {
		cfg |= uint32(csr.Pmp[i].toCfgByte()) << (8 * i)
	}

	return cfg
}

func (csr *CsrFile) setPmpcfg0(val uint32) {
	for i := 0; i < 4; i++ {
		if csr.Pmp[i].L {
			continue
		}

		csr.Pmp[i].fromCfgByte(uint8(val >> (8 * i)))
	}
}

// Read loads the CSR named by addr, enforcing the privilege check. mode is
// the hart's current privilege.
func (csr *CsrFile) Read(addr CsrAddr, mode Privilege) (Word, error) {
	if mode < addr.minPrivilege() {
		return 0, IllegalInstruction(uint32(addr))
	}

	switch addr {
	case CsrUstatus:
		return Word(csr.Ustatus), nil
	case CsrSstatus:
		return Word(csr.Mstatus.sstatusView()), nil
	case CsrSie:
		return Word(csr.Mie & csr.Mideleg), nil
	case CsrStvec:
		return Word(csr.Stvec), nil
	case CsrSscratch:
		return Word(csr.Sscratch), nil
	case CsrSepc:
		return Word(csr.Sepc), nil
	case CsrScause:
		return Word(csr.Scause), nil
	case CsrStval:
		return Word(csr.Stval), nil
	case CsrSip:
		return Word(csr.Mip & csr.Mideleg), nil
	case CsrSatp:
		return Word(csr.Satp), nil
	case CsrMstatus:
		return Word(csr.Mstatus), nil
	case CsrMedeleg:
		return Word(csr.Medeleg), nil
	case CsrMideleg:
		return Word(csr.Mideleg), nil
	case CsrMie:
		return Word(csr.Mie), nil
	case CsrMtvec:
		return Word(csr.Mtvec), nil
	case CsrMscratch:
		return Word(csr.Mscratch), nil
	case CsrMepc:
		return Word(csr.Mepc), nil
	case CsrMcause:
		return Word(csr.Mcause), nil
	case CsrMtval:
		return Word(csr.Mtval), nil
	case CsrMip:
		return Word(csr.Mip), nil
	case CsrPmpcfg0:
		return Word(csr.pmpcfg0()), nil
	case CsrPmpaddr0, CsrPmpaddr1, CsrPmpaddr2, CsrPmpaddr3:
		return Word(csr.pmpaddr(int(addr - CsrPmpaddr0))), nil
	case CsrMhartid:
		return 0, nil
	default:
		return 0, IllegalInstruction(uint32(addr))
	}
}

// Write stores val into the CSR named by addr, enforcing the privilege
// check and the read-only-CSR check.
func (csr *CsrFile) Write(addr CsrAddr, val Word, mode Privilege) error {
	if mode < addr.minPrivilege() || addr.readOnly() {
		return IllegalInstruction(uint32(addr))
	}

	v := uint32(val)

	switch addr {
	case CsrUstatus:
		// no U-mode trap delegation; writes are accepted and ignored.
	case CsrSstatus:
		csr.Mstatus.applySstatusWrite(v)
	case CsrSie:
		csr.Mie = (csr.Mie &^ csr.Mideleg) | (v & csr.Mideleg)
	case CsrStvec:
		csr.Stvec = v
	case CsrSscratch:
		csr.Sscratch = v
	case CsrSepc:
		csr.Sepc = v &^ 0b11
	case CsrScause:
		csr.Scause = v
	case CsrStval:
		csr.Stval = v
	case CsrSip:
		csr.Mip = (csr.Mip &^ csr.Mideleg) | (v & csr.Mideleg)
	case CsrSatp:
		csr.Satp = v
	case CsrMstatus:
		csr.Mstatus.applyMstatusWrite(v)
	case CsrMedeleg:
		csr.Medeleg = v
	case CsrMideleg:
		csr.Mideleg = v
	case CsrMie:
		csr.Mie = v
	case CsrMtvec:
		csr.Mtvec = v
	case CsrMscratch:
		csr.Mscratch = v
	case CsrMepc:
		csr.Mepc = v &^ 0b11
	case CsrMcause:
		csr.Mcause = v
	case CsrMtval:
		csr.Mtval = v
	case CsrMip:
		csr.Mip = v
	case CsrPmpcfg0:
		csr.setPmpcfg0(v)
	case CsrPmpaddr0, CsrPmpaddr1, CsrPmpaddr2, CsrPmpaddr3:
		csr.setPmpaddr(int(addr-CsrPmpaddr0), v)
	default:
		return IllegalInstruction(uint32(addr))
	}

	return nil
}

// delegated reports whether cause is delegated to S-mode from mode.
func (csr *CsrFile) delegated(cause Cause, mode Privilege) bool {
	if mode == Machine {
		return false
	}

	return csr.Medeleg&(1<<uint32(cause)) != 0
}

// TrapEntry delivers an exception, selecting the target mode by delegation
// and computing the new PC from the target's *tvec, including the
// documented quirk that the vectored offset (4*cause) is applied to
// exceptions as well as interrupts.
func (csr *CsrFile) TrapEntry(pc Word, exc *Exception, mode Privilege) (Privilege, Word) {
	target := Machine
	if csr.delegated(exc.Cause, mode) {
		target = Supervisor
	}

	var tvec uint32

	if target == Supervisor {
		csr.Sepc = uint32(pc)
		csr.Scause = uint32(exc.Cause)
		csr.Stval = exc.Tval

		csr.Mstatus.SetSPIE(csr.Mstatus.SIE())
		csr.Mstatus.SetSIE(false)
		csr.Mstatus.SetSPP(mode)

		tvec = csr.Stvec
	} else {
		csr.Mepc = uint32(pc)
		csr.Mcause = uint32(exc.Cause)
		csr.Mtval = exc.Tval

		csr.Mstatus.SetMPIE(csr.Mstatus.MIE())
		csr.Mstatus.SetMIE(false)
		csr.Mstatus.SetMPP(mode)

		tvec = csr.Mtvec
	}

	base, vectored := csr.trapBase(tvec)
	newPC := base

	if vectored {
		newPC += 4 * uint32(exc.Cause)
	}

	return target, Word(newPC)
}

// TrapMret performs MRET: restore MIE from MPIE, set MPIE, restore mode
// from MPP (resetting MPP to U per the privileged spec), resume at mepc.
func (csr *CsrFile) TrapMret() (Privilege, Word) {
	mode := csr.Mstatus.MPP()

	csr.Mstatus.SetMIE(csr.Mstatus.MPIE())
	csr.Mstatus.SetMPIE(true)
	csr.Mstatus.SetMPP(User)

	if mode != Machine {
		csr.Mstatus.setBit(mstatusMPRV, false)
	}

	return mode, Word(csr.Mepc)
}

// TrapSret performs SRET: restore SIE from SPIE, set SPIE, restore mode
// from SPP (resetting SPP to U), resume at sepc.
func (csr *CsrFile) TrapSret() (Privilege, Word) {
	mode := csr.Mstatus.SPP()

	csr.Mstatus.SetSIE(csr.Mstatus.SPIE())
	csr.Mstatus.SetSPIE(true)
	csr.Mstatus.SetSPP(User)

	if mode != Machine {
		csr.Mstatus.setBit(mstatusMPRV, false)
	}

	return mode, Word(csr.Sepc)
}

// CheckSUM reports whether S-mode access to U-accessible pages is allowed.
func (csr *CsrFile) CheckSUM() bool { return csr.Mstatus.SUM() }

// CheckMXR reports whether execute-only pages should also be readable.
func (csr *CsrFile) CheckMXR() bool { return csr.Mstatus.MXR() }

// ASID returns the address-space identifier from satp.
func (csr *CsrFile) ASID() uint32 { return (csr.Satp >> 22) & 0x1ff }

// SatpPPNIfTranslationOn returns satp's PPN and true when satp.MODE
// selects Sv32 translation, or (0, false) when translation is off.
func (csr *CsrFile) SatpPPNIfTranslationOn() (uint32, bool) {
	if csr.Satp>>31 == 0 {
		return 0, false
	}

	return csr.Satp & 0x3fffff, true
}

// EffectivePrivilege returns the privilege that memory accesses should be
// checked against: mode itself, unless MPRV is set and the access is not a
// fetch, in which case MPP is substituted (the "modify privilege" rule).
func (csr *CsrFile) EffectivePrivilege(mode Privilege, kind AccessKind) Privilege {
	if kind != AccessFetch && csr.Mstatus.MPRV() {
		return csr.Mstatus.MPP()
	}

	return mode
}

// NamedCsr is one (name, value) pair as returned by the debug facade's
// inspect_csrs operation, in the canonical order the architecture lists
// them.
type NamedCsr struct {
	Name  string
	Value uint32
}

// Inspect returns every CSR named in the canonical inspection set, in
// canonical order, for the read-only debug facade.
func (csr *CsrFile) Inspect() []NamedCsr {
	order := []CsrAddr{
		CsrUstatus, CsrSstatus, CsrSie, CsrStvec, CsrSscratch, CsrSepc,
		CsrScause, CsrStval, CsrSip, CsrSatp, CsrMstatus, CsrMedeleg,
		CsrMideleg, CsrMie, CsrMtvec, CsrMscratch, CsrMepc, CsrMcause,
		CsrMtval, CsrMip, CsrPmpcfg0, CsrPmpaddr0, CsrMhartid,
	}

	out := make([]NamedCsr, 0, len(order))

	for _, addr := range order {
		val, err := csr.Read(addr, Machine)
		if err != nil {
			val = 0
		}

		name, ok := csrNames[addr]
		if !ok {
			name = fmt.Sprintf("csr(%#x)", uint16(addr))
		}

		out = append(out, NamedCsr{Name: name, Value: uint32(val)})
	}

	return out
}
