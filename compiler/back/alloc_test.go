package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
)

func TestAllocateSimple(t *testing.T) {
	v := riscv.Virtual

	code := []riscv.Instr{
		riscv.Li{Rd: v(0), Imm: 1},
		riscv.Li{Rd: v(1), Imm: 2},
		riscv.R{Op: riscv.ADD, Rd: v(2), Rs1: v(0), Rs2: v(1)},
		riscv.Mv{Rd: riscv.A0, Rs: v(2)},
	}

	a, err := Allocate(context.Background(), code)
	require.NoError(t, err)

	assert.Equal(t, []riscv.Instr{
		riscv.Li{Rd: riscv.T0, Imm: 1},
		riscv.Li{Rd: riscv.T1, Imm: 2},
		riscv.R{Op: riscv.ADD, Rd: riscv.T0, Rs1: riscv.T0, Rs2: riscv.T1},
		riscv.Mv{Rd: riscv.A0, Rs: riscv.T0},
	}, a.Code)

	assert.Empty(t, a.Saved)
	assert.Zero(t, a.Spills)
}

func TestAllocateCall(t *testing.T) {
	v := riscv.Virtual

	code := []riscv.Instr{
		riscv.Li{Rd: v(0), Imm: 1},
		riscv.Li{Rd: v(1), Imm: 2},
		riscv.Mv{Rd: riscv.A0, Rs: v(1)},
		riscv.Jal{Rd: riscv.RA, Label: "function.f"},
		riscv.Mv{Rd: v(2), Rs: riscv.A0},
		riscv.R{Op: riscv.ADD, Rd: v(3), Rs1: v(0), Rs2: v(2)},
		riscv.Mv{Rd: riscv.A0, Rs: v(3)},
	}

	a, err := Allocate(context.Background(), code)
	require.NoError(t, err)

	assert.Equal(t, riscv.S1, a.Assign[v(0)])
	assert.Equal(t, riscv.T0, a.Assign[v(1)])
	assert.Equal(t, riscv.T0, a.Assign[v(2)])
	assert.Equal(t, []riscv.Reg{riscv.S1}, a.Saved)
}

func TestAllocateSpills(t *testing.T) {
	const n = 20

	var code []riscv.Instr

	for i := 0; i < n; i++ {
		code = append(code, riscv.Li{Rd: riscv.Virtual(i), Imm: int32(i)})
	}

	for i := 0; i < n; i++ {
		code = append(code, riscv.Mv{Rd: riscv.A0, Rs: riscv.Virtual(i)})
	}

	a, err := Allocate(context.Background(), code, WithSpillBase(100))
	require.NoError(t, err)

	assert.Equal(t, n-len(TempRegs)-len(SavedRegs), a.Spills)
	assert.Equal(t, SavedRegs, a.Saved)

	for i := 0; i < n; i++ {
		_, spilled := a.Spill[riscv.Virtual(i)]
		_, assigned := a.Assign[riscv.Virtual(i)]

		assert.True(t, spilled != assigned, "v%d", i)
	}

	assert.Equal(t, int32(100), a.Spill[riscv.Virtual(16)])
	assert.Equal(t, int32(112), a.Spill[riscv.Virtual(19)])

	assert.Equal(t, []riscv.Instr{
		riscv.Li{Rd: riscv.T5, Imm: 19},
		riscv.Store{Op: riscv.SW, Src: riscv.T5, Base: riscv.SP, Off: 112},
	}, a.Code[19+3:19+5])

	assert.Equal(t, []riscv.Instr{
		riscv.Load{Op: riscv.LW, Rd: riscv.T5, Base: riscv.SP, Off: 112},
		riscv.Mv{Rd: riscv.A0, Rs: riscv.T5},
	}, a.Code[len(a.Code)-2:])
}

func TestAllocateSteal(t *testing.T) {
	v := riscv.Virtual

	code := []riscv.Instr{
		riscv.Li{Rd: v(0), Imm: 1},
		riscv.Li{Rd: v(1), Imm: 2},
		riscv.Mv{Rd: riscv.A0, Rs: v(1)},
		riscv.Mv{Rd: riscv.A1, Rs: v(0)},
	}

	a, err := Allocate(context.Background(), code, WithPools([]riscv.Reg{riscv.T0}, nil), WithSpillBase(16))
	require.NoError(t, err)

	assert.Equal(t, riscv.T0, a.Assign[v(1)])
	assert.Equal(t, map[riscv.Reg]int32{v(0): 16}, a.Spill)

	assert.Equal(t, []riscv.Instr{
		riscv.Li{Rd: riscv.T5, Imm: 1},
		riscv.Store{Op: riscv.SW, Src: riscv.T5, Base: riscv.SP, Off: 16},
		riscv.Li{Rd: riscv.T0, Imm: 2},
		riscv.Mv{Rd: riscv.A0, Rs: riscv.T0},
		riscv.Load{Op: riscv.LW, Rd: riscv.T5, Base: riscv.SP, Off: 16},
		riscv.Mv{Rd: riscv.A1, Rs: riscv.T5},
	}, a.Code)
}

func TestAllocateTwoSpilledUses(t *testing.T) {
	v := riscv.Virtual

	code := []riscv.Instr{
		riscv.Li{Rd: v(0), Imm: 1},
		riscv.Li{Rd: v(1), Imm: 2},
		riscv.R{Op: riscv.ADD, Rd: v(2), Rs1: v(0), Rs2: v(1)},
		riscv.R{Op: riscv.MUL, Rd: v(3), Rs1: v(2), Rs2: v(2)},
		riscv.Mv{Rd: riscv.A0, Rs: v(3)},
	}

	a, err := Allocate(context.Background(), code, WithPools(nil, nil))
	require.NoError(t, err)

	assert.Equal(t, 4, a.Spills)

	assert.Equal(t, []riscv.Instr{
		riscv.Load{Op: riscv.LW, Rd: riscv.T5, Base: riscv.SP, Off: 0},
		riscv.Load{Op: riscv.LW, Rd: riscv.T6, Base: riscv.SP, Off: 4},
		riscv.R{Op: riscv.ADD, Rd: riscv.T5, Rs1: riscv.T5, Rs2: riscv.T6},
		riscv.Store{Op: riscv.SW, Src: riscv.T5, Base: riscv.SP, Off: 8},
		riscv.Load{Op: riscv.LW, Rd: riscv.T5, Base: riscv.SP, Off: 8},
		riscv.R{Op: riscv.MUL, Rd: riscv.T5, Rs1: riscv.T5, Rs2: riscv.T5},
		riscv.Store{Op: riscv.SW, Src: riscv.T5, Base: riscv.SP, Off: 12},
	}, a.Code[4:11])
}

func TestAllocateUndefined(t *testing.T) {
	_, err := Allocate(context.Background(), []riscv.Instr{
		riscv.Mv{Rd: riscv.A0, Rs: riscv.Virtual(3)},
	})

	var e *Error
	if assert.ErrorAs(t, err, &e) {
		assert.Equal(t, Generic, e.Kind)
	}
}
