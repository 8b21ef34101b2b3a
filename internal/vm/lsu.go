package vm

// lsu.go implements the load/store unit: virtual-to-physical translation,
// PMP enforcement, sign extension, and the load-reserved/store-conditional
// and atomic-memory-operation primitives built on top of plain loads and
// stores.

// Lsu mediates every memory access the CPU core makes once an address has
// left a register: it owns no state of its own beyond the LR/SC
// reservation, which belongs to the memory pipeline rather than to any one
// instruction.
type Lsu struct {
	Bus *SystemBus
	Mmu *Mmu
	Csr *CsrFile

	reserved      bool
	reservedAddr  uint32
}

// ClearReservation drops any outstanding LR/SC reservation. Called after
// every trap, per the documented quirk that this implementation always
// clears the reservation on a trap rather than leaving it architecturally
// unspecified.
func (lsu *Lsu) ClearReservation() {
	lsu.reserved = false
}

// preWork validates and translates a virtual access of size bytes,
// returning the physical access ready for the bus. Atomic accesses that
// straddle a 4 KiB boundary raise the misaligned exception using the load
// variant regardless of kind, the documented quirk carried from the
// original implementation.
func (lsu *Lsu) preWork(mode Privilege, va Word, size uint32, kind AccessKind) (Access[Physical], error) {
	if kind == AccessAmo && (uint32(va)&0xfff)+size > pageSize {
		return Access[Physical]{}, &Exception{Cause: CauseLoadAddressMisaligned, Tval: uint32(va)}
	}

	access := NewVirtual(va, kind)

	phys, err := lsu.Mmu.Translate(lsu.Csr, lsu.Bus, access, mode)
	if err != nil {
		return Access[Physical]{}, err
	}

	effective := lsu.Csr.EffectivePrivilege(mode, kind)

	if !lsu.Csr.PmpCheck(effective, uint32(phys.Addr), size, kind) {
		return Access[Physical]{}, access.ToAccessException()
	}

	return phys, nil
}

// rewriteVirtual replaces a bus-layer fault's physical tval with the
// original virtual address, per the load/store unit's contract.
func rewriteVirtual(err error, va Word) error {
	exc, ok := err.(*Exception)
	if !ok {
		return err
	}

	return exc.WithTval(uint32(va))
}

func sizeOf(size int) uint32 { return uint32(size) }

// Fetch reads size (2 or 4) bytes from va as an instruction fetch: same
// translation and PMP path as a load, but tagged AccessFetch so permission
// checks and fault causes use the fetch variants.
func (lsu *Lsu) Fetch(mode Privilege, va Word, size int) ([]byte, error) {
	phys, err := lsu.preWork(mode, va, sizeOf(size), AccessFetch)
	if err != nil {
		return nil, err
	}

	raw, err := lsu.Bus.ReadBytes(phys, size)
	if err != nil {
		return nil, rewriteVirtual(err, va)
	}

	return raw, nil
}

// Load reads size (1, 2 or 4) bytes from va, sign-extending the result when
// signed is true.
func (lsu *Lsu) Load(mode Privilege, va Word, size int, signed bool) (Word, error) {
	phys, err := lsu.preWork(mode, va, sizeOf(size), AccessLoad)
	if err != nil {
		return 0, err
	}

	raw, err := lsu.Bus.ReadBytes(phys, size)
	if err != nil {
		return 0, rewriteVirtual(err, va)
	}

	return extend(raw, size, signed), nil
}

// Store writes the low size bytes of val to va.
func (lsu *Lsu) Store(mode Privilege, va Word, size int, val Word) error {
	phys, err := lsu.preWork(mode, va, sizeOf(size), AccessStore)
	if err != nil {
		return err
	}

	buf := make([]byte, size)
	for i := 0; i < size; i++ {
		buf[i] = byte(val >> (8 * i))
	}

	if err := lsu.Bus.WriteBytes(phys, buf); err != nil {
		return rewriteVirtual(err, va)
	}

	if lsu.reserved && lsu.reservedAddr == uint32(phys.Addr) {
		lsu.reserved = false
	}

	return nil
}

// AtomicLoadReserve implements LR.W: a plain word load that additionally
// records a reservation on the accessed address.
func (lsu *Lsu) AtomicLoadReserve(mode Privilege, va Word) (Word, error) {
	phys, err := lsu.preWork(mode, va, 4, AccessAmo)
	if err != nil {
		return 0, err
	}

	raw, err := lsu.Bus.ReadBytes(phys, 4)
	if err != nil {
		return 0, rewriteVirtual(err, va)
	}

	lsu.reserved = true
	lsu.reservedAddr = uint32(phys.Addr)

	return extend(raw, 4, true), nil
}

// AtomicStoreConditional implements SC.W: the store is performed only if a
// reservation on the translated physical address is still outstanding.
// Returns true on success. The reservation is always consumed, whether or
// not the store happens.
func (lsu *Lsu) AtomicStoreConditional(mode Privilege, va Word, val Word) (bool, error) {
	phys, err := lsu.preWork(mode, va, 4, AccessAmo)
	if err != nil {
		lsu.reserved = false
		return false, err
	}

	ok := lsu.reserved && lsu.reservedAddr == uint32(phys.Addr)
	lsu.reserved = false

	if !ok {
		return false, nil
	}

	buf := [4]byte{byte(val), byte(val >> 8), byte(val >> 16), byte(val >> 24)}
	if err := lsu.Bus.WriteBytes(phys, buf[:]); err != nil {
		return false, rewriteVirtual(err, va)
	}

	return true, nil
}

// AtomicOperate implements the AMO read-modify-write instructions: load
// the current word, apply op against val, store the result, and return the
// value originally loaded.
func (lsu *Lsu) AtomicOperate(mode Privilege, va Word, op AOp, val Word) (Word, error) {
	phys, err := lsu.preWork(mode, va, 4, AccessAmo)
	if err != nil {
		return 0, err
	}

	raw, err := lsu.Bus.ReadBytes(phys, 4)
	if err != nil {
		return 0, rewriteVirtual(err, va)
	}

	old := extend(raw, 4, true)
	result := amoApply(op, old, val)

	buf := [4]byte{byte(result), byte(result >> 8), byte(result >> 16), byte(result >> 24)}
	if err := lsu.Bus.WriteBytes(phys, buf[:]); err != nil {
		return 0, rewriteVirtual(err, va)
	}

	return old, nil
}

func amoApply(op AOp, old, val Word) Word {
	switch op {
	case AmoSwapW:
		return val
	case AmoAddW:
		return old + val
	case AmoXorW:
		return old ^ val
	case AmoAndW:
		return old & val
	case AmoOrW:
		return old | val
	case AmoMinW:
		return Word(minS(int32(old), int32(val)))
	case AmoMaxW:
		return Word(maxS(int32(old), int32(val)))
	case AmoMinuW:
		return Word(minU(uint32(old), uint32(val)))
	case AmoMaxuW:
		return Word(maxU(uint32(old), uint32(val)))
	default:
		return old
	}
}

// extend assembles size little-endian bytes into a Word, sign-extending
// from bit (8*size - 1) when signed is true.
func extend(raw []byte, size int, signed bool) Word {
	var v uint32

	for i := 0; i < size; i++ {
		v |= uint32(raw[i]) << (8 * i)
	}

	if !signed || size == 4 {
		return Word(v)
	}

	shift := uint(32 - 8*size)

	return Word(uint32(int32(v<<shift) >> shift))
}
