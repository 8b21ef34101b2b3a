package vm

// access.go tags an address with the space it belongs to at the type level,
// so a virtual address and a physical address can never be passed to the
// wrong layer by accident. The MMU consumes Access[Virtual] and produces
// Access[Physical]; the bus only ever accepts Access[Physical].

// AccessKind is the operation an access descriptor is performing, carried
// alongside the address so the MMU and PMP can select the right permission
// bit and the right exception cause on failure.
type AccessKind uint8

const (
	AccessLoad AccessKind = iota
	AccessStore
	AccessFetch
	AccessAmo
)

func (k AccessKind) String() string {
	switch k {
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	case AccessFetch:
		return "fetch"
	case AccessAmo:
		return "amo"
	default:
		return "access"
	}
}

// accessFaultCause returns the architectural cause for an unmapped or
// permission-denied access of this kind.
func (k AccessKind) accessFaultCause() Cause {
	switch k {
	case AccessStore, AccessAmo:
		return CauseStoreOrAmoAccessFault
	case AccessFetch:
		return CauseInstructionAccessFault
	default:
		return CauseLoadAccessFault
	}
}

// pageFaultCause returns the architectural cause for a failed page-table
// walk of this kind.
func (k AccessKind) pageFaultCause() Cause {
	switch k {
	case AccessStore, AccessAmo:
		return CauseStoreOrAmoPageFault
	case AccessFetch:
		return CauseInstructionPageFault
	default:
		return CauseLoadPageFault
	}
}

// misalignedCause returns the architectural cause for a misaligned access
// of this kind. Atomic misalignment is documented in SPEC_FULL.md as always
// reporting the load variant, regardless of kind.
func (k AccessKind) misalignedCause() Cause {
	switch k {
	case AccessStore:
		return CauseStoreOrAmoAddressMisaligned
	case AccessFetch:
		return CauseInstructionAddressMisaligned
	default:
		return CauseLoadAddressMisaligned
	}
}

// Virtual and Physical are marker types distinguishing the two address
// spaces at compile time.
type (
	Virtual  struct{}
	Physical struct{}
)

// Access is an address paired with the operation being performed on it, in
// a given address space T.
type Access[T any] struct {
	Addr Word
	Kind AccessKind
}

// NewVirtual builds a virtual access descriptor.
func NewVirtual(addr Word, kind AccessKind) Access[Virtual] {
	return Access[Virtual]{Addr: addr, Kind: kind}
}

// IntoPhysical carries an access's address and kind into the physical space
// once the MMU has resolved a translation, substituting paddr for Addr.
func (a Access[Virtual]) IntoPhysical(paddr Word) Access[Physical] {
	return Access[Physical]{Addr: paddr, Kind: a.Kind}
}

// Bypass treats a virtual access as already physical, used when address
// translation is off (mode M, or satp.MODE == 0).
func (a Access[Virtual]) Bypass() Access[Physical] {
	return Access[Physical]{Addr: a.Addr, Kind: a.Kind}
}

// ToAccessException builds the access-fault exception for this access,
// tval set to the address (virtual, so a fault surfaced from a physical
// access must be rewritten with the virtual address by the caller).
func (a Access[T]) ToAccessException() *Exception {
	return &Exception{Cause: a.Kind.accessFaultCause(), Tval: uint32(a.Addr)}
}

// ToPageException builds the page-fault exception for this access.
func (a Access[T]) ToPageException() *Exception {
	return &Exception{Cause: a.Kind.pageFaultCause(), Tval: uint32(a.Addr)}
}

// ToMisalignedException builds the address-misaligned exception for this
// access.
func (a Access[T]) ToMisalignedException() *Exception {
	return &Exception{Cause: a.Kind.misalignedCause(), Tval: uint32(a.Addr)}
}
