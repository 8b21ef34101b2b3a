package vm

import "testing"

func TestBranchSignedVsUnsigned(t *testing.T) {
	neg := Word(0xffffffff) // -1 signed, max unsigned
	one := Word(1)

	if !BranchLess(neg, one) {
		t.Error("BranchLess(-1, 1) should be true under signed comparison")
	}

	if BranchLessUnsigned(neg, one) {
		t.Error("BranchLessUnsigned(0xffffffff, 1) should be false under unsigned comparison")
	}
}

func TestPredicateTableCoversAllBranches(t *testing.T) {
	for _, op := range []Rv32iOp{Beq, Bne, Blt, Bge, Bltu, Bgeu} {
		if _, ok := op.Predicate(); !ok {
			t.Errorf("Predicate() missing entry for %s", op)
		}
	}
}

func TestPredicateRejectsNonBranch(t *testing.T) {
	if _, ok := Add.Predicate(); ok {
		t.Error("Predicate() should not resolve for a non-branch opcode")
	}
}
