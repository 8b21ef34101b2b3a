package vm

// branch.go implements the six branch predicates as pure functions so the
// execution engine reads as a table lookup rather than a chain of
// conditionals.

func BranchEqual(a, b Word) bool            { return a == b }
func BranchNotEqual(a, b Word) bool         { return a != b }
func BranchLess(a, b Word) bool             { return int32(a) < int32(b) }
func BranchGreaterEqual(a, b Word) bool     { return int32(a) >= int32(b) }
func BranchLessUnsigned(a, b Word) bool     { return uint32(a) < uint32(b) }
func BranchGreaterEqualUnsigned(a, b Word) bool { return uint32(a) >= uint32(b) }

// Predicate returns the predicate function for a branch opcode; ok is false
// for a non-branch opcode.
func (op Rv32iOp) Predicate() (func(a, b Word) bool, bool) {
	switch op {
	case Beq:
		return BranchEqual, true
	case Bne:
		return BranchNotEqual, true
	case Blt:
		return BranchLess, true
	case Bge:
		return BranchGreaterEqual, true
	case Bltu:
		return BranchLessUnsigned, true
	case Bgeu:
		return BranchGreaterEqualUnsigned, true
	default:
		return nil, false
	}
}
