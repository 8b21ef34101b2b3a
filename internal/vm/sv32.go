package vm

// sv32.go implements the Sv32 virtual address and page table entry layouts:
// two 10-bit VPN levels over a 12-bit page offset, and a 32-bit PTE with a
// 22-bit PPN.

// Sv32Vpn splits a virtual address into its two VPN levels and page
// offset.
type Sv32Vpn struct {
	Offset uint32
	Vpn0   uint32
	Vpn1   uint32
}

// DecodeSv32Vpn extracts the VPN fields of a virtual address.
func DecodeSv32Vpn(addr uint32) Sv32Vpn {
	return Sv32Vpn{
		Offset: addr & 0xfff,
		Vpn0:   (addr >> 12) & 0x3ff,
		Vpn1:   (addr >> 22) & 0x3ff,
	}
}

// Sv32Pte is a decoded Sv32 page table entry.
type Sv32Pte struct {
	V, R, W, X, U, G, A, D bool
	Ppn                    uint32
}

// DecodeSv32Pte unpacks a raw 32-bit PTE.
func DecodeSv32Pte(raw uint32) Sv32Pte {
	return Sv32Pte{
		V: raw&0x001 != 0,
		R: raw&0x002 != 0,
		W: raw&0x004 != 0,
		X: raw&0x008 != 0,
		U: raw&0x010 != 0,
		G: raw&0x020 != 0,
		A: raw&0x040 != 0,
		D: raw&0x080 != 0,
		Ppn: raw >> 10,
	}
}

// Encode packs the PTE back into its raw 32-bit form, used to write back A
// and D bit updates.
func (p Sv32Pte) Encode() uint32 {
	var raw uint32

	raw |= p.Ppn << 10

	for bit, set := range map[uint32]bool{
		0x001: p.V, 0x002: p.R, 0x004: p.W, 0x008: p.X,
		0x010: p.U, 0x020: p.G, 0x040: p.A, 0x080: p.D,
	} {
		if set {
			raw |= bit
		}
	}

	return raw
}

// IsLeaf reports whether the PTE terminates a walk: any of R, W, X set.
func (p Sv32Pte) IsLeaf() bool { return p.R || p.W || p.X }

// IsMisalignedSuperpage reports whether a level-1 leaf's PPN[0] is nonzero,
// which is architecturally invalid: a 4 MiB superpage's physical base must
// be 4 MiB aligned.
func (p Sv32Pte) IsMisalignedSuperpage() bool {
	return p.Ppn&0x3ff != 0
}

// Permits reports whether kind is allowed by the leaf's R/W/X bits, honoring
// MXR (execute-implies-read).
func (p Sv32Pte) Permits(kind AccessKind, mxr bool) bool {
	switch kind {
	case AccessStore:
		return p.W
	case AccessFetch:
		return p.X
	case AccessAmo:
		return p.R && p.W
	default:
		return p.R || (mxr && p.X)
	}
}
