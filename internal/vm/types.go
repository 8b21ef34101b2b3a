package vm

// types.go defines the basic data types shared by the decoder, the execution
// engines and the CPU core.

import "fmt"

// Word is the base data type on which the CPU operates: registers, memory
// cells and instructions are all 32 bits.
type Word uint32

func (w Word) String() string {
	return fmt.Sprintf("%0#10x", uint32(w))
}

// GPR names a general-purpose register, x0 through x31.
type GPR uint8

const NumGPR = 32

func (r GPR) String() string {
	return fmt.Sprintf("x%d", uint8(r))
}

// Privilege is the hart's current privilege mode.
type Privilege uint8

const (
	User       Privilege = 0
	Supervisor Privilege = 1
	Machine    Privilege = 3
)

func (p Privilege) String() string {
	switch p {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	default:
		return fmt.Sprintf("Privilege(%d)", uint8(p))
	}
}

// CallException returns the ECALL cause appropriate for the privilege.
func (p Privilege) CallException() *Exception {
	switch p {
	case User:
		return &Exception{Cause: CauseEnvCallFromUMode}
	case Supervisor:
		return &Exception{Cause: CauseEnvCallFromSMode}
	default:
		return &Exception{Cause: CauseEnvCallFromMMode}
	}
}

// InstrKind discriminates the extension an instruction record belongs to.
type InstrKind uint8

const (
	KindBase InstrKind = iota
	KindM
	KindA
	KindZicsr
	KindZifencei
	KindPrivileged
)

// Fields holds the normalized operand fields common to most instruction
// forms: the sign-extended immediate and the three register operands.
type Fields struct {
	Rd, Rs1, Rs2 GPR
	Imm          int32
}

// AmoFields extends Fields with the acquire/release bits carried by atomic
// instructions.
type AmoFields struct {
	Rd, Rs1, Rs2 GPR
	AQ, RL       bool
}

// Instruction is the decoded, tagged-union form of a 32-bit (or expanded
// 16-bit) instruction word. Exactly one of the op fields is meaningful,
// selected by Kind.
type Instruction struct {
	Kind InstrKind

	Base       Rv32iOp
	M          MOp
	A          AOp
	Zicsr      ZicsrOp
	Zifencei   ZifenceiOp
	Privileged PrivOp

	Fields Fields
	Amo    AmoFields

	// Raw is the original instruction word; execution engines report it as
	// the tval of the illegal-instruction traps they raise, while Zicsr
	// faults from the CSR file carry the CSR address instead.
	Raw uint32

	// Compressed records whether this instruction was expanded from a 16-bit
	// encoding, which affects link-address and PC-advance arithmetic.
	Compressed bool
}

// Size returns the instruction's length in bytes as fetched from the bus.
func (ins Instruction) Size() uint32 {
	if ins.Compressed {
		return 2
	}

	return 4
}

func (ins Instruction) String() string {
	switch ins.Kind {
	case KindM:
		return fmt.Sprintf("%-7s x%d, x%d, x%d", ins.M, ins.Fields.Rd, ins.Fields.Rs1, ins.Fields.Rs2)
	case KindA:
		return fmt.Sprintf("%-7s x%d, x%d, (x%d)", ins.A, ins.Amo.Rd, ins.Amo.Rs2, ins.Amo.Rs1)
	case KindZicsr:
		return fmt.Sprintf("%-7s x%d, %#x, x%d", ins.Zicsr, ins.Fields.Rd, ins.Fields.Imm&0xfff, ins.Fields.Rs1)
	case KindZifencei:
		return ins.Zifencei.String()
	case KindPrivileged:
		return ins.Privileged.String()
	default:
		return fmt.Sprintf("%-7s x%d, x%d, x%d, %d", ins.Base, ins.Fields.Rd, ins.Fields.Rs1, ins.Fields.Rs2, ins.Fields.Imm)
	}
}

// Rv32iOp enumerates the base integer instruction set plus FENCE/ECALL/EBREAK.
type Rv32iOp uint8

const (
	Addi Rv32iOp = iota
	Slli
	Slti
	Sltiu
	Xori
	Srli
	Srai
	Ori
	Andi

	Lb
	Lh
	Lw
	Lbu
	Lhu

	Jalr

	Fence

	Ecall
	Ebreak

	Add
	Sub
	Sll
	Slt
	Sltu
	Xor
	Srl
	Sra
	Or
	And

	Beq
	Bne
	Blt
	Bge
	Bltu
	Bgeu

	Sb
	Sh
	Sw

	Jal

	Lui
	Auipc
)

var rv32iNames = map[Rv32iOp]string{
	Addi: "addi", Slli: "slli", Slti: "slti", Sltiu: "sltiu",
	Xori: "xori", Srli: "srli", Srai: "srai", Ori: "ori", Andi: "andi",
	Lb: "lb", Lh: "lh", Lw: "lw", Lbu: "lbu", Lhu: "lhu",
	Jalr: "jalr", Fence: "fence", Ecall: "ecall", Ebreak: "ebreak",
	Add: "add", Sub: "sub", Sll: "sll", Slt: "slt", Sltu: "sltu",
	Xor: "xor", Srl: "srl", Sra: "sra", Or: "or", And: "and",
	Beq: "beq", Bne: "bne", Blt: "blt", Bge: "bge", Bltu: "bltu", Bgeu: "bgeu",
	Sb: "sb", Sh: "sh", Sw: "sw", Jal: "jal", Lui: "lui", Auipc: "auipc",
}

func (op Rv32iOp) String() string { return rv32iNames[op] }

// MOp enumerates the M extension: integer multiply and divide.
type MOp uint8

const (
	Mul MOp = iota
	Mulh
	Mulhsu
	Mulhu
	Div
	Divu
	Rem
	Remu
)

var mNames = [...]string{"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu"}

func (op MOp) String() string { return mNames[op] }

// AOp enumerates the A extension: load-reserved/store-conditional and AMOs.
type AOp uint8

const (
	LrW AOp = iota
	ScW
	AmoSwapW
	AmoAddW
	AmoXorW
	AmoAndW
	AmoOrW
	AmoMinW
	AmoMaxW
	AmoMinuW
	AmoMaxuW
)

var aNames = [...]string{
	"lr.w", "sc.w", "amoswap.w", "amoadd.w", "amoxor.w", "amoand.w",
	"amoor.w", "amomin.w", "amomax.w", "amominu.w", "amomaxu.w",
}

func (op AOp) String() string { return aNames[op] }

// ZicsrOp enumerates the Zicsr CSR-access instructions.
type ZicsrOp uint8

const (
	Csrrw ZicsrOp = iota
	Csrrs
	Csrrc
	Csrrwi
	Csrrsi
	Csrrci
)

var zicsrNames = [...]string{"csrrw", "csrrs", "csrrc", "csrrwi", "csrrsi", "csrrci"}

func (op ZicsrOp) String() string { return zicsrNames[op] }

func (op ZicsrOp) IsImm() bool { return op == Csrrwi || op == Csrrsi || op == Csrrci }
func (op ZicsrOp) IsRW() bool  { return op == Csrrw || op == Csrrwi }
func (op ZicsrOp) IsRS() bool  { return op == Csrrs || op == Csrrsi }

// ZifenceiOp enumerates the Zifencei extension.
type ZifenceiOp uint8

const FenceI ZifenceiOp = 0

func (op ZifenceiOp) String() string { return "fence.i" }

// PrivOp enumerates the privileged instructions.
type PrivOp uint8

const (
	Mret PrivOp = iota
	Sret
	SfenceVMA
	Wfi
)

var privNames = [...]string{"mret", "sret", "sfence.vma", "wfi"}

func (op PrivOp) String() string { return privNames[op] }
