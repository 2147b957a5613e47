package riscv

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Instr is one line of assembly.
	Instr interface {
		String() string
		instr()
	}

	ROp      string
	IOp      string
	LoadOp   string
	StoreOp  string
	BranchOp string

	// R is a register-register operation: op rd, rs1, rs2.
	R struct {
		Op  ROp
		Rd  Reg
		Rs1 Reg
		Rs2 Reg
	}

	// I is a register-immediate operation: op rd, rs1, imm.
	I struct {
		Op  IOp
		Rd  Reg
		Rs1 Reg
		Imm int32
	}

	Load struct {
		Op   LoadOp
		Rd   Reg
		Base Reg
		Off  int32
	}

	Store struct {
		Op   StoreOp
		Src  Reg
		Base Reg
		Off  int32
	}

	Branch struct {
		Op    BranchOp
		Rs1   Reg
		Rs2   Reg
		Label string
	}

	Jal struct {
		Rd    Reg
		Label string
	}

	Jalr struct {
		Rd  Reg
		Rs1 Reg
		Off int32
	}

	Lui struct {
		Rd  Reg
		Imm int32
	}

	Auipc struct {
		Rd  Reg
		Imm int32
	}

	Ecall struct{}

	Li struct {
		Rd  Reg
		Imm int32
	}

	La struct {
		Rd    Reg
		Label string
	}

	Mv struct {
		Rd Reg
		Rs Reg
	}

	Label struct {
		Name string
	}

	Comment struct {
		Text string
	}
)

const (
	ADD  ROp = "add"
	SUB  ROp = "sub"
	XOR  ROp = "xor"
	OR   ROp = "or"
	AND  ROp = "and"
	SLL  ROp = "sll"
	SRL  ROp = "srl"
	SRA  ROp = "sra"
	SLT  ROp = "slt"
	SLTU ROp = "sltu"
	MUL  ROp = "mul"
	DIV  ROp = "div"
	DIVU ROp = "divu"
	REM  ROp = "rem"
	REMU ROp = "remu"

	ADDI  IOp = "addi"
	XORI  IOp = "xori"
	ORI   IOp = "ori"
	ANDI  IOp = "andi"
	SLLI  IOp = "slli"
	SRLI  IOp = "srli"
	SRAI  IOp = "srai"
	SLTI  IOp = "slti"
	SLTIU IOp = "sltiu"

	LW  LoadOp = "lw"
	LH  LoadOp = "lh"
	LB  LoadOp = "lb"
	LHU LoadOp = "lhu"
	LBU LoadOp = "lbu"

	SW StoreOp = "sw"
	SH StoreOp = "sh"
	SB StoreOp = "sb"

	BEQ  BranchOp = "beq"
	BNE  BranchOp = "bne"
	BLT  BranchOp = "blt"
	BGE  BranchOp = "bge"
	BLTU BranchOp = "bltu"
	BGEU BranchOp = "bgeu"
)

// Immediate and offset limits of the 12-bit I and S encodings.
const (
	MinImm12 = -1 << 11
	MaxImm12 = 1<<11 - 1
)

const indent = "    "

func FitsImm12(v int32) bool { return v >= MinImm12 && v <= MaxImm12 }

func (x R) String() string {
	return string(hfmt.Appendf(nil, indent+"%s %v, %v, %v", x.Op, x.Rd, x.Rs1, x.Rs2))
}

func (x I) String() string {
	return string(hfmt.Appendf(nil, indent+"%s %v, %v, %d", x.Op, x.Rd, x.Rs1, x.Imm))
}

func (x Load) String() string {
	return string(hfmt.Appendf(nil, indent+"%s %v, %d(%v)", x.Op, x.Rd, x.Off, x.Base))
}

func (x Store) String() string {
	return string(hfmt.Appendf(nil, indent+"%s %v, %d(%v)", x.Op, x.Src, x.Off, x.Base))
}

func (x Branch) String() string {
	return string(hfmt.Appendf(nil, indent+"%s %v, %v, %s", x.Op, x.Rs1, x.Rs2, x.Label))
}

func (x Jal) String() string {
	return string(hfmt.Appendf(nil, indent+"jal %v, %s", x.Rd, x.Label))
}

func (x Jalr) String() string {
	return string(hfmt.Appendf(nil, indent+"jalr %v, %d(%v)", x.Rd, x.Off, x.Rs1))
}

func (x Lui) String() string {
	return string(hfmt.Appendf(nil, indent+"lui %v, %d", x.Rd, x.Imm))
}

func (x Auipc) String() string {
	return string(hfmt.Appendf(nil, indent+"auipc %v, %d", x.Rd, x.Imm))
}

func (Ecall) String() string { return indent + "ecall" }

func (x Li) String() string {
	return string(hfmt.Appendf(nil, indent+"li %v, %d", x.Rd, x.Imm))
}

func (x La) String() string {
	return string(hfmt.Appendf(nil, indent+"la %v, %s", x.Rd, x.Label))
}

func (x Mv) String() string {
	return string(hfmt.Appendf(nil, indent+"mv %v, %v", x.Rd, x.Rs))
}

func (x Label) String() string { return x.Name + ":" }

func (x Comment) String() string { return indent + "# " + x.Text }

func (R) instr()       {}
func (I) instr()       {}
func (Load) instr()    {}
func (Store) instr()   {}
func (Branch) instr()  {}
func (Jal) instr()     {}
func (Jalr) instr()    {}
func (Lui) instr()     {}
func (Auipc) instr()   {}
func (Ecall) instr()   {}
func (Li) instr()      {}
func (La) instr()      {}
func (Mv) instr()      {}
func (Label) instr()   {}
func (Comment) instr() {}

// Render appends code as assembly text, one instruction per line.
func Render(b []byte, code []Instr) []byte {
	for _, in := range code {
		b = append(b, in.String()...)
		b = append(b, '\n')
	}

	return b
}

// Text is a listing which logs as a list of lines.
type Text []Instr

func (t Text) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)

	for _, in := range t {
		b = e.AppendString(b, in.String())
	}

	return e.AppendBreak(b)
}

// IsCall reports whether in is a call: jal with the return address register.
func IsCall(in Instr) bool {
	j, ok := in.(Jal)

	return ok && j.Rd == RA
}
