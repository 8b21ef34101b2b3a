package vm

// pmp.go implements physical memory protection: four region entries packed
// into pmpcfg0, checked in order; the first entry whose region matches
// decides (an OFF entry never matches).

// PmpMode is the address-matching mode of a PMP entry, encoded in cfg bits
// [4:3].
type PmpMode uint8

const (
	PmpOff PmpMode = iota
	PmpTOR
	PmpNA4
	PmpNAPOT
)

// PmpEntry is one decoded pmpcfg byte paired with its pmpaddr register.
type PmpEntry struct {
	R, W, X, L bool
	A          PmpMode
	Addr       uint32 // pmpaddrN, in the architecture's 4-byte-shifted units
}

// fromCfgByte decodes a single pmpcfgN byte into the boolean/mode fields of
// the entry, leaving Addr untouched.
func (e *PmpEntry) fromCfgByte(cfg uint8) {
	e.R = cfg&0x01 != 0
	e.W = cfg&0x02 != 0
	e.X = cfg&0x04 != 0
	e.A = PmpMode((cfg >> 3) & 0x03)
	e.L = cfg&0x80 != 0
}

// toCfgByte re-encodes the entry's boolean/mode fields as a pmpcfgN byte.
func (e PmpEntry) toCfgByte() uint8 {
	var cfg uint8

	if e.R {
		cfg |= 0x01
	}

	if e.W {
		cfg |= 0x02
	}

	if e.X {
		cfg |= 0x04
	}

	cfg |= uint8(e.A&0x03) << 3

	if e.L {
		cfg |= 0x80
	}

	return cfg
}

// matches reports whether the entry's region, combined with the region of
// the PMP entry immediately before it (for TOR), covers [addr, addr+len).
func (e PmpEntry) matches(addr, length uint32, prevAddr uint32) bool {
	switch e.A {
	case PmpOff:
		return false
	case PmpTOR:
		lo := prevAddr << 2
		hi := e.Addr << 2

		return addr >= lo && addr+length <= hi && lo <= hi
	case PmpNA4:
		base := e.Addr << 2
		return addr >= base && addr+length <= base+4
	case PmpNAPOT:
		if e.Addr == 0xffff_ffff {
			return true // the all-ones encoding covers the whole 32-bit space
		}

		base, size := e.napot()
		return addr >= base && addr+length <= base+size
	default:
		return false
	}
}

// napot decodes a NAPOT-encoded pmpaddr into its naturally aligned base and
// size: the address is base>>2 | (size/8 - 1) in the low bits, i.e. the
// trailing run of set bits below the first zero encodes log2(size)-3.
func (e PmpEntry) napot() (base, size uint32) {
	addr := e.Addr

	if addr == 0xffff_ffff {
		return 0, 0 // size not representable in 32 bits; matches treats this as the whole space
	}

	trailingOnes := 0

	for addr&1 == 1 {
		trailingOnes++
		addr >>= 1
	}

	size = uint32(1) << (trailingOnes + 3)
	base = (e.Addr << 2) &^ (size - 1)

	return base, size
}

// permits reports whether kind is allowed by the entry's R/W/X bits.
func (e PmpEntry) permits(kind AccessKind) bool {
	switch kind {
	case AccessStore:
		return e.W
	case AccessFetch:
		return e.X
	case AccessAmo:
		return e.R && e.W
	default:
		return e.R
	}
}

// PmpCheck walks the four PMP entries in order and enforces the first
// matching region against mode and kind. In machine mode, PMP is bypassed
// entirely unless the matching entry is locked. With no matching entry,
// machine mode is permitted and all other modes are denied, per the
// privileged architecture's default-deny-in-S/U rule when any PMP entries
// are configured, default-permit when none are.
func (csr *CsrFile) PmpCheck(mode Privilege, addr uint32, length uint32, kind AccessKind) bool {
	anyConfigured := false

	var prevAddr uint32

	for i := range csr.Pmp {
		e := csr.Pmp[i]
		if e.A != PmpOff {
			anyConfigured = true
		}

		if e.matches(addr, length, prevAddr) {
			if mode == Machine && !e.L {
				return true
			}

			return e.permits(kind)
		}

		prevAddr = e.Addr
	}

	if !anyConfigured {
		return true
	}

	return mode == Machine
}
