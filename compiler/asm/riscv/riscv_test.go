package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegNames(t *testing.T) {
	assert.Equal(t, "zero", Zero.String())
	assert.Equal(t, "ra", RA.String())
	assert.Equal(t, "sp", SP.String())
	assert.Equal(t, "t0", T0.String())
	assert.Equal(t, "s1", S1.String())
	assert.Equal(t, "a0", A0.String())
	assert.Equal(t, "a7", A7.String())
	assert.Equal(t, "s2", S2.String())
	assert.Equal(t, "s11", S11.String())
	assert.Equal(t, "t3", T3.String())
	assert.Equal(t, "t6", T6.String())
	assert.Equal(t, Reg(32), NumRegs)
	assert.Equal(t, "v3", Virtual(3).String())

	assert.Equal(t, A3, Arg(3))
	assert.Panics(t, func() { Arg(8) })

	assert.True(t, S5.IsSaved())
	assert.False(t, T5.IsSaved())
	assert.True(t, Virtual(0).IsVirtual())
	assert.False(t, T6.IsVirtual())
}

func TestRender(t *testing.T) {
	code := []Instr{
		Label{Name: "main"},
		I{Op: ADDI, Rd: SP, Rs1: SP, Imm: -16},
		Store{Op: SW, Src: RA, Base: SP, Off: 0},
		Comment{Text: "return 42"},
		Li{Rd: T0, Imm: 42},
		R{Op: ADD, Rd: T0, Rs1: T0, Rs2: T1},
		Branch{Op: BNE, Rs1: T0, Rs2: Zero, Label: "then_1"},
		Jal{Rd: RA, Label: "function.add"},
		Load{Op: LW, Rd: RA, Base: SP, Off: 0},
		Mv{Rd: A0, Rs: T0},
		La{Rd: T1, Label: "main"},
		Lui{Rd: T2, Imm: 1},
		Auipc{Rd: T2, Imm: 0},
		Ecall{},
		Jalr{Rd: Zero, Rs1: RA, Off: 0},
	}

	exp := `main:
    addi sp, sp, -16
    sw ra, 0(sp)
    # return 42
    li t0, 42
    add t0, t0, t1
    bne t0, zero, then_1
    jal ra, function.add
    lw ra, 0(sp)
    mv a0, t0
    la t1, main
    lui t2, 1
    auipc t2, 0
    ecall
    jalr zero, 0(ra)
`

	assert.Equal(t, exp, string(Render(nil, code)))
}

func TestOperands(t *testing.T) {
	v := Virtual

	for _, tc := range []struct {
		in   Instr
		def  Reg
		uses []Reg
	}{
		{R{Op: SUB, Rd: v(0), Rs1: v(1), Rs2: v(2)}, v(0), []Reg{v(1), v(2)}},
		{I{Op: XORI, Rd: v(0), Rs1: v(1), Imm: 1}, v(0), []Reg{v(1)}},
		{Store{Op: SW, Src: v(3), Base: SP, Off: 8}, Zero, []Reg{v(3), SP}},
		{Load{Op: LW, Rd: v(3), Base: SP, Off: 8}, v(3), []Reg{SP}},
		{Branch{Op: BEQ, Rs1: v(1), Rs2: Zero}, Zero, []Reg{v(1), Zero}},
		{Mv{Rd: A0, Rs: v(4)}, A0, []Reg{v(4)}},
		{Jal{Rd: RA, Label: "f"}, RA, nil},
		{Label{Name: "x"}, Zero, nil},
	} {
		def, uses := Operands(tc.in, nil)
		assert.Equal(t, tc.def, def, "%v", tc.in)
		assert.Equal(t, tc.uses, uses, "%v", tc.in)
	}

	in := MapRegs(R{Op: ADD, Rd: v(0), Rs1: v(1), Rs2: v(1)},
		func(Reg) Reg { return T0 },
		func(Reg) Reg { return T1 },
	)
	assert.Equal(t, R{Op: ADD, Rd: T0, Rs1: T1, Rs2: T1}, in)

	assert.True(t, IsCall(Jal{Rd: RA, Label: "f"}))
	assert.False(t, IsCall(Jal{Rd: Zero, Label: "f"}))

	assert.True(t, FitsImm12(2047))
	assert.False(t, FitsImm12(2048))
	assert.True(t, FitsImm12(-2048))
}
