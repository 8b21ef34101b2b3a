package vm

// mmu.go integrates the TLB and the Sv32 page-table walker behind a single
// Translate call: consult the TLB first, walk on a miss, fill the TLB with
// the result, and enforce permission/privilege/A-D rules identically on
// both paths.

// PageWalker is the subset of the system bus the MMU needs to read and
// patch page table entries. It operates on physical addresses only.
type PageWalker interface {
	ReadPhys32(addr uint32) (uint32, error)
	WritePhys32(addr uint32, val uint32) error
}

// Mmu owns the TLB, whose lookup hit/miss counters are exposed through the
// debug facade.
type Mmu struct {
	Tlb Tlb
}

// Reset empties the TLB.
func (m *Mmu) Reset() { m.Tlb.Reset() }

// Translate resolves a virtual access to a physical one. Bypasses
// translation entirely in Machine mode or when satp selects bare mode.
func (m *Mmu) Translate(csr *CsrFile, bus PageWalker, access Access[Virtual], mode Privilege) (Access[Physical], error) {
	effective := csr.EffectivePrivilege(mode, access.Kind)

	if effective == Machine {
		return access.Bypass(), nil
	}

	ppn0, on := csr.SatpPPNIfTranslationOn()
	if !on {
		return access.Bypass(), nil
	}

	vpn := uint32(access.Addr) >> 12
	asid := csr.ASID()

	if entry, ok := m.Tlb.Lookup(vpn, asid); ok {
		paddr, admiss, err := m.fromEntry(entry, access, effective, csr)
		if err == nil {
			return Access[Physical]{Addr: Word(paddr), Kind: access.Kind}, nil
		}

		if !admiss {
			return Access[Physical]{}, err
		}

		// A or D bit missing: fall through to a walk that will set it.
	}

	return m.walk(csr, bus, ppn0, access, effective)
}

// fromEntry applies permission, privilege and A/D checks to a cached TLB
// entry and, on success, computes the physical address. The second return
// value distinguishes a true permission denial (false) from an A/D-bit
// miss (true), which the caller must treat as falling through to a walk
// rather than a page fault.
func (m *Mmu) fromEntry(entry TlbEntry, access Access[Virtual], mode Privilege, csr *CsrFile) (uint32, bool, error) {
	if !m.permitted(entry.R, entry.W, entry.X, entry.U, access.Kind, mode, csr) {
		return 0, false, access.ToPageException()
	}

	needD := access.Kind == AccessStore || access.Kind == AccessAmo
	if !entry.A || (needD && !entry.D) {
		return 0, true, access.ToPageException()
	}

	offset := uint32(access.Addr) & 0xfff

	if entry.Size == Page4MiB {
		vpn0 := (uint32(access.Addr) >> 12) & 0x3ff
		return (entry.Ppn&^0x3ff)<<12 | vpn0<<12 | offset, false, nil
	}

	return entry.Ppn<<12 | offset, false, nil
}

func (m *Mmu) permitted(r, w, x, u bool, kind AccessKind, mode Privilege, csr *CsrFile) bool {
	switch kind {
	case AccessStore:
		if !w {
			return false
		}
	case AccessFetch:
		if !x {
			return false
		}
	case AccessAmo:
		if !r || !w {
			return false
		}
	default:
		if !r && !(csr.CheckMXR() && x) {
			return false
		}
	}

	if u {
		return mode == User || (mode == Supervisor && csr.CheckSUM())
	}

	return mode != User
}

// walk performs the two-level Sv32 page table walk, filling the TLB on
// success.
func (m *Mmu) walk(csr *CsrFile, bus PageWalker, rootPpn uint32, access Access[Virtual], mode Privilege) (Access[Physical], error) {
	vpn := DecodeSv32Vpn(uint32(access.Addr))

	ptAddr := rootPpn<<12 + vpn.Vpn1*4

	raw1, err := bus.ReadPhys32(ptAddr)
	if err != nil {
		return Access[Physical]{}, access.ToAccessException()
	}

	pte1 := DecodeSv32Pte(raw1)

	if !pte1.V || (pte1.W && !pte1.R) {
		return Access[Physical]{}, access.ToPageException()
	}

	var (
		leaf     Sv32Pte
		leafAddr uint32
		size     PageSize
	)

	if pte1.IsLeaf() {
		if pte1.IsMisalignedSuperpage() {
			return Access[Physical]{}, access.ToPageException()
		}

		leaf = pte1
		leafAddr = ptAddr
		size = Page4MiB
	} else {
		ptAddr2 := pte1.Ppn<<12 + vpn.Vpn0*4

		raw0, err := bus.ReadPhys32(ptAddr2)
		if err != nil {
			return Access[Physical]{}, access.ToAccessException()
		}

		pte0 := DecodeSv32Pte(raw0)

		if !pte0.V || (pte0.W && !pte0.R) || !pte0.IsLeaf() {
			return Access[Physical]{}, access.ToPageException()
		}

		leaf = pte0
		leafAddr = ptAddr2
		size = Page4KiB
	}

	if !m.permitted(leaf.R, leaf.W, leaf.X, leaf.U, access.Kind, mode, csr) {
		return Access[Physical]{}, access.ToPageException()
	}

	needD := access.Kind == AccessStore || access.Kind == AccessAmo

	if !leaf.A || (needD && !leaf.D) {
		leaf.A = true

		if needD {
			leaf.D = true
		}

		if err := bus.WritePhys32(leafAddr, leaf.Encode()); err != nil {
			return Access[Physical]{}, access.ToAccessException()
		}

		m.Tlb.UpdateAD(uint32(access.Addr)>>12, csr.ASID(), leaf.A, leaf.D)
	}

	m.Tlb.Fill(uint32(access.Addr)>>12, TlbEntry{
		Global: leaf.G,
		Asid:   csr.ASID(),
		Ppn:    leaf.Ppn,
		R:      leaf.R, W: leaf.W, X: leaf.X, U: leaf.U,
		A: leaf.A, D: leaf.D,
		Size: size,
	})

	offset := uint32(access.Addr) & 0xfff

	var paddr uint32

	if size == Page4MiB {
		paddr = (leaf.Ppn&^0x3ff)<<12 | vpn.Vpn0<<12 | offset
	} else {
		paddr = leaf.Ppn<<12 | offset
	}

	return Access[Physical]{Addr: Word(paddr), Kind: access.Kind}, nil
}
