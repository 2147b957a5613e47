package riscv

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

// Reg is an integer register numbered as in the ISA: x0 is Zero, x10 is A0.
// Values from NumRegs up are virtual registers, only valid before allocation.
type Reg int

const (
	Zero Reg = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6

	NumRegs
)

// NumArgs is the number of argument registers.
const NumArgs = 8

var regNames = [NumRegs]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Arg returns the i-th argument register.
func Arg(i int) Reg {
	if i < 0 || i >= NumArgs {
		panic(i)
	}

	return A0 + Reg(i)
}

// Virtual returns the n-th virtual register.
func Virtual(n int) Reg { return NumRegs + Reg(n) }

func (r Reg) IsVirtual() bool { return r >= NumRegs }

// IsSaved reports whether r is callee-saved.
func (r Reg) IsSaved() bool {
	return r == S0 || r == S1 || r >= S2 && r <= S11
}

func (r Reg) String() string {
	if r >= 0 && r < NumRegs {
		return regNames[r]
	}

	if r.IsVirtual() {
		return "v" + strconv.Itoa(int(r-NumRegs))
	}

	return "Reg(" + strconv.Itoa(int(r)) + ")"
}

func (r Reg) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, r.String())
}
