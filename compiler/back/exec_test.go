package back

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
)

type (
	machine struct {
		t *testing.T

		code   []riscv.Instr
		labels map[string]int

		regs [riscv.NumRegs]int32
		mem  map[int32]int32

		frames []frame
		steps  int
	}

	frame struct {
		sp    int32
		saved [riscv.NumRegs]int32
	}
)

const (
	exitPC   = -1
	poison   = 0x5a5a5a
	maxSteps = 1_000_000
)

// run executes code from main and returns a0.
// Caller-saved registers are clobbered on every call
// and callee-saved registers are checked on every return.
func run(t *testing.T, code []riscv.Instr, args ...int32) int32 {
	t.Helper()

	m := &machine{
		t:      t,
		code:   code,
		labels: map[string]int{},
		mem:    map[int32]int32{},
	}

	for i, in := range code {
		l, ok := in.(riscv.Label)
		if !ok {
			continue
		}

		require.NotContains(t, m.labels, l.Name, "duplicate label")

		m.labels[l.Name] = i
	}

	pc, ok := m.labels["main"]
	require.True(t, ok, "no main")

	m.regs[riscv.SP] = 1 << 20
	m.regs[riscv.RA] = exitPC

	for i, a := range args {
		m.regs[riscv.Arg(i)] = a
	}

	m.enter()

	for pc != exitPC {
		m.steps++
		require.Less(t, m.steps, maxSteps, "too many steps")

		pc = m.step(pc)
		m.regs[riscv.Zero] = 0
	}

	return m.regs[riscv.A0]
}

func (m *machine) get(r riscv.Reg) int32 {
	require.False(m.t, r.IsVirtual(), "virtual register %v in the listing", r)

	return m.regs[r]
}

func (m *machine) set(r riscv.Reg, v int32) {
	require.False(m.t, r.IsVirtual(), "virtual register %v in the listing", r)

	m.regs[r] = v
}

func (m *machine) label(l string) int {
	pc, ok := m.labels[l]
	require.True(m.t, ok, "undefined label %v", l)

	return pc
}

func (m *machine) addr(base riscv.Reg, off int32) int32 {
	a := m.get(base) + off
	require.Zero(m.t, a%4, "unaligned access at %d", a)

	return a
}

func (m *machine) enter() {
	f := frame{sp: m.regs[riscv.SP], saved: m.regs}
	m.frames = append(m.frames, f)

	for _, r := range []riscv.Reg{riscv.T0, riscv.T1, riscv.T2, riscv.T3, riscv.T4, riscv.T5, riscv.T6} {
		m.regs[r] = poison
	}
}

func (m *machine) leave() {
	require.NotEmpty(m.t, m.frames, "return without call")

	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]

	require.Equal(m.t, f.sp, m.regs[riscv.SP], "sp not restored")

	for r := riscv.Reg(0); r < riscv.NumRegs; r++ {
		if r.IsSaved() {
			require.Equal(m.t, f.saved[r], m.regs[r], "%v not restored", r)
		}
	}
}

func (m *machine) step(pc int) int {
	switch in := m.code[pc].(type) {
	case riscv.Label, riscv.Comment:
	case riscv.Li:
		m.set(in.Rd, in.Imm)
	case riscv.La:
		m.set(in.Rd, int32(m.label(in.Label)))
	case riscv.Mv:
		m.set(in.Rd, m.get(in.Rs))
	case riscv.R:
		m.set(in.Rd, alu(in.Op, m.get(in.Rs1), m.get(in.Rs2)))
	case riscv.I:
		a, imm := m.get(in.Rs1), in.Imm

		var v int32

		switch in.Op {
		case riscv.ADDI:
			v = a + imm
		case riscv.XORI:
			v = a ^ imm
		case riscv.ORI:
			v = a | imm
		case riscv.ANDI:
			v = a & imm
		case riscv.SLTI:
			v = b2i(a < imm)
		case riscv.SLTIU:
			v = b2i(uint32(a) < uint32(imm))
		default:
			m.t.Fatalf("unsupported op: %v", in)
		}

		m.set(in.Rd, v)
	case riscv.Load:
		require.Equal(m.t, riscv.LW, in.Op)

		m.set(in.Rd, m.mem[m.addr(in.Base, in.Off)])
	case riscv.Store:
		require.Equal(m.t, riscv.SW, in.Op)

		m.mem[m.addr(in.Base, in.Off)] = m.get(in.Src)
	case riscv.Branch:
		a, b := m.get(in.Rs1), m.get(in.Rs2)

		var jump bool

		switch in.Op {
		case riscv.BEQ:
			jump = a == b
		case riscv.BNE:
			jump = a != b
		case riscv.BLT:
			jump = a < b
		case riscv.BGE:
			jump = a >= b
		default:
			m.t.Fatalf("unsupported op: %v", in)
		}

		if jump {
			return m.label(in.Label)
		}
	case riscv.Jal:
		next := m.label(in.Label)

		if in.Rd != riscv.Zero {
			m.set(in.Rd, int32(pc+1))
		}

		if riscv.IsCall(in) {
			m.enter()
		}

		return next
	case riscv.Jalr:
		target := int(m.get(in.Rs1) + in.Off)

		if in.Rd != riscv.Zero {
			m.set(in.Rd, int32(pc+1))
		}

		if in.Rs1 == riscv.RA {
			m.leave()
		}

		return target
	default:
		m.t.Fatalf("unsupported instruction: %v", in)
	}

	return pc + 1
}

func alu(op riscv.ROp, a, b int32) int32 {
	switch op {
	case riscv.ADD:
		return a + b
	case riscv.SUB:
		return a - b
	case riscv.MUL:
		return a * b
	case riscv.DIV:
		if b == 0 {
			return -1
		}

		return a / b
	case riscv.REM:
		if b == 0 {
			return a
		}

		return a % b
	case riscv.AND:
		return a & b
	case riscv.OR:
		return a | b
	case riscv.XOR:
		return a ^ b
	case riscv.SLL:
		return a << (b & 31)
	case riscv.SRL:
		return int32(uint32(a) >> (b & 31))
	case riscv.SRA:
		return a >> (b & 31)
	case riscv.SLT:
		return b2i(a < b)
	case riscv.SLTU:
		return b2i(uint32(a) < uint32(b))
	}

	panic(op)
}

func b2i(b bool) int32 {
	if b {
		return 1
	}

	return 0
}
