package riscv

// Operands returns the register written by in, Zero if none,
// and the registers it reads appended to uses.
func Operands(in Instr, uses []Reg) (def Reg, _ []Reg) {
	switch x := in.(type) {
	case R:
		return x.Rd, append(uses, x.Rs1, x.Rs2)
	case I:
		return x.Rd, append(uses, x.Rs1)
	case Load:
		return x.Rd, append(uses, x.Base)
	case Store:
		return Zero, append(uses, x.Src, x.Base)
	case Branch:
		return Zero, append(uses, x.Rs1, x.Rs2)
	case Jal:
		return x.Rd, uses
	case Jalr:
		return x.Rd, append(uses, x.Rs1)
	case Lui:
		return x.Rd, uses
	case Auipc:
		return x.Rd, uses
	case Li:
		return x.Rd, uses
	case La:
		return x.Rd, uses
	case Mv:
		return x.Rd, append(uses, x.Rs)
	default:
		return Zero, uses
	}
}

// MapRegs returns in with the written register replaced by def(r)
// and every read register replaced by use(r).
func MapRegs(in Instr, def, use func(Reg) Reg) Instr {
	switch x := in.(type) {
	case R:
		x.Rs1, x.Rs2 = use(x.Rs1), use(x.Rs2)
		x.Rd = def(x.Rd)
		return x
	case I:
		x.Rs1 = use(x.Rs1)
		x.Rd = def(x.Rd)
		return x
	case Load:
		x.Base = use(x.Base)
		x.Rd = def(x.Rd)
		return x
	case Store:
		x.Src, x.Base = use(x.Src), use(x.Base)
		return x
	case Branch:
		x.Rs1, x.Rs2 = use(x.Rs1), use(x.Rs2)
		return x
	case Jal:
		x.Rd = def(x.Rd)
		return x
	case Jalr:
		x.Rs1 = use(x.Rs1)
		x.Rd = def(x.Rd)
		return x
	case Lui:
		x.Rd = def(x.Rd)
		return x
	case Auipc:
		x.Rd = def(x.Rd)
		return x
	case Li:
		x.Rd = def(x.Rd)
		return x
	case La:
		x.Rd = def(x.Rd)
		return x
	case Mv:
		x.Rs = use(x.Rs)
		x.Rd = def(x.Rd)
		return x
	default:
		return in
	}
}
