package vm

// alu.go implements the pure integer arithmetic the base ISA and the M
// extension need. Every function takes and returns Word so callers never
// juggle signedness conversions themselves; the few operations that care
// about sign take it as an explicit path, not a hidden cast.

// Add computes a + b modulo 2^32.
func Add(a, b Word) Word { return a + b }

// Sub computes a - b modulo 2^32.
func Sub(a, b Word) Word { return a - b }

// Xor, Or, And are the bitwise ALU operations.
func Xor(a, b Word) Word { return a ^ b }
func Or(a, b Word) Word  { return a | b }
func And(a, b Word) Word { return a & b }

// ShiftAmount masks a shift operand to the low 5 bits, as RV32 requires.
func ShiftAmount(b Word) uint { return uint(b & 0x1f) }

// ShiftLeftLogical shifts a left by b's low 5 bits.
func ShiftLeftLogical(a, b Word) Word { return a << ShiftAmount(b) }

// ShiftRightLogical shifts a right by b's low 5 bits, filling with zero.
func ShiftRightLogical(a, b Word) Word { return a >> ShiftAmount(b) }

// ShiftRightArithmetic shifts a right by b's low 5 bits, filling with the
// sign bit.
func ShiftRightArithmetic(a, b Word) Word {
	return Word(int32(a) >> ShiftAmount(b))
}

// SetLessThan implements SLT/SLTI: 1 if a < b as signed integers, else 0.
func SetLessThan(a, b Word) Word {
	if int32(a) < int32(b) {
		return 1
	}

	return 0
}

// SetLessThanUnsigned implements SLTU/SLTIU.
func SetLessThanUnsigned(a, b Word) Word {
	if uint32(a) < uint32(b) {
		return 1
	}

	return 0
}

// Mul computes the low 32 bits of a * b.
func Mul(a, b Word) Word { return Word(int32(a) * int32(b)) }

// Mulh computes the high 32 bits of the signed*signed 64-bit product.
func Mulh(a, b Word) Word {
	return Word((int64(int32(a)) * int64(int32(b))) >> 32)
}

// MulhUnsigned computes the high 32 bits of the unsigned*unsigned product.
func MulhUnsigned(a, b Word) Word {
	return Word((uint64(uint32(a)) * uint64(uint32(b))) >> 32)
}

// MulhSignedUnsigned computes the high 32 bits of a (signed) * b
// (unsigned).
func MulhSignedUnsigned(a, b Word) Word {
	product := int64(int32(a)) * int64(uint32(b))
	return Word(product >> 32)
}

// Div implements signed division, with the RISC-V edge cases: division by
// zero yields all-ones (-1), and INT_MIN / -1 yields INT_MIN (overflow
// wraps rather than traps).
func Div(a, b Word) Word {
	x, y := int32(a), int32(b)

	if y == 0 {
		return Word(-1)
	}

	if x == -0x80000000 && y == -1 {
		return a
	}

	return Word(x / y)
}

// DivUnsigned implements unsigned division; division by zero yields
// all-ones.
func DivUnsigned(a, b Word) Word {
	if b == 0 {
		return 0xffffffff
	}

	return a / b
}

// Rem implements signed remainder; remainder by zero yields the dividend.
func Rem(a, b Word) Word {
	x, y := int32(a), int32(b)

	if y == 0 {
		return a
	}

	if x == -0x80000000 && y == -1 {
		return 0
	}

	return Word(x % y)
}

// RemUnsigned implements unsigned remainder; remainder by zero yields the
// dividend.
func RemUnsigned(a, b Word) Word {
	if b == 0 {
		return a
	}

	return a % b
}

func minS(a, b int32) int32 {
	if a < b {
		return a
	}

	return b
}

func maxS(a, b int32) int32 {
	if a > b {
		return a
	}

	return b
}

func minU(a, b uint32) uint32 {
	if a < b {
		return a
	}

	return b
}

func maxU(a, b uint32) uint32 {
	if a > b {
		return a
	}

	return b
}
