package vm

// exception.go defines the architectural exception taxonomy. Causes are
// reported the way real hardware reports them: a numeric code plus, for some
// causes, a payload latched into the target mode's *tval CSR.

import "fmt"

// Cause is an architectural exception cause code, as stored in mcause/scause
// with the interrupt bit (bit 31) clear.
type Cause uint32

const (
	CauseInstructionAddressMisaligned Cause = 0
	CauseInstructionAccessFault       Cause = 1
	CauseIllegalInstruction           Cause = 2
	CauseBreakpoint                   Cause = 3
	CauseLoadAddressMisaligned        Cause = 4
	CauseLoadAccessFault              Cause = 5
	CauseStoreOrAmoAddressMisaligned  Cause = 6
	CauseStoreOrAmoAccessFault        Cause = 7
	CauseEnvCallFromUMode             Cause = 8
	CauseEnvCallFromSMode             Cause = 9
	CauseEnvCallFromMMode             Cause = 11
	CauseInstructionPageFault         Cause = 12
	CauseLoadPageFault                Cause = 13
	CauseStoreOrAmoPageFault          Cause = 15
)

var causeNames = map[Cause]string{
	CauseInstructionAddressMisaligned: "instruction address misaligned",
	CauseInstructionAccessFault:       "instruction access fault",
	CauseIllegalInstruction:           "illegal instruction",
	CauseBreakpoint:                   "breakpoint",
	CauseLoadAddressMisaligned:        "load address misaligned",
	CauseLoadAccessFault:              "load access fault",
	CauseStoreOrAmoAddressMisaligned:  "store/amo address misaligned",
	CauseStoreOrAmoAccessFault:        "store/amo access fault",
	CauseEnvCallFromUMode:             "environment call from U-mode",
	CauseEnvCallFromSMode:             "environment call from S-mode",
	CauseEnvCallFromMMode:             "environment call from M-mode",
	CauseInstructionPageFault:         "instruction page fault",
	CauseLoadPageFault:                "load page fault",
	CauseStoreOrAmoPageFault:          "store/amo page fault",
}

func (c Cause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("cause(%d)", uint32(c))
}

// IsPageFault reports whether the cause is one of the three page-fault
// causes, which the MMU and CSR trap path treat identically apart from code.
func (c Cause) IsPageFault() bool {
	switch c {
	case CauseInstructionPageFault, CauseLoadPageFault, CauseStoreOrAmoPageFault:
		return true
	default:
		return false
	}
}

// Exception is the error value threaded through decode, translate and
// execute whenever a fault must be delivered as a trap instead of completing
// an operation. It implements error and Is so callers can match a
// specific cause with errors.Is without switching on Cause by hand.
type Exception struct {
	Cause Cause

	// Tval is the value latched into mtval/stval: the faulting address for
	// misaligned, access and page faults; for illegal instruction, the
	// value its raiser passes (usually the raw instruction word, the CSR
	// address when the CSR file raises it); zero otherwise.
	Tval uint32
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s (tval=%#x)", e.Cause, e.Tval)
}

// Is matches another *Exception by Cause alone, so callers can build a
// sentinel with only a Cause set and compare via errors.Is.
func (e *Exception) Is(target error) bool {
	other, ok := target.(*Exception)
	if !ok {
		return false
	}

	return e.Cause == other.Cause
}

// WithTval returns a copy of the exception with Tval set, used by call
// sites that only know the cause up front and learn the address later (for
// example, the LSU rewriting a bus-layer fault with the virtual address).
func (e *Exception) WithTval(tval uint32) *Exception {
	return &Exception{Cause: e.Cause, Tval: tval}
}

// Sentinel exceptions for errors.Is comparisons where only the cause
// matters, mirroring the teacher's MemoryError sentinels.
var (
	ErrInstructionAddressMisaligned = &Exception{Cause: CauseInstructionAddressMisaligned}
	ErrInstructionAccessFault       = &Exception{Cause: CauseInstructionAccessFault}
	ErrIllegalInstruction           = &Exception{Cause: CauseIllegalInstruction}
	ErrBreakpoint                   = &Exception{Cause: CauseBreakpoint}
	ErrLoadAddressMisaligned        = &Exception{Cause: CauseLoadAddressMisaligned}
	ErrLoadAccessFault              = &Exception{Cause: CauseLoadAccessFault}
	ErrStoreOrAmoAddressMisaligned  = &Exception{Cause: CauseStoreOrAmoAddressMisaligned}
	ErrStoreOrAmoAccessFault        = &Exception{Cause: CauseStoreOrAmoAccessFault}
	ErrInstructionPageFault         = &Exception{Cause: CauseInstructionPageFault}
	ErrLoadPageFault                = &Exception{Cause: CauseLoadPageFault}
	ErrStoreOrAmoPageFault          = &Exception{Cause: CauseStoreOrAmoPageFault}
)

// IllegalInstruction builds the exception raised by the decoder, the
// execution engines or the CSR file when an encoding is not recognized or
// violates a privilege rule; raw becomes its tval (the instruction word
// from the decoder and engines, the CSR address from the CSR file).
func IllegalInstruction(raw uint32) *Exception {
	return &Exception{Cause: CauseIllegalInstruction, Tval: raw}
}
