package back

import (
	"context"
	"strings"

	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/format"
)

// Literal range of the 24-bit numeric types.
const (
	maxUint = 1<<24 - 1
	minInt  = -1 << 23
	maxInt  = 1<<23 - 1
)

func (g *Generator) block(ctx context.Context, b *ast.Block, top bool) (err error) {
	f := g.f

	f.depth++
	defer func() { f.depth-- }()

	if f.depth > g.maxDepth {
		return newError(Generic, b.Loc, "", "nesting deeper than %d", g.maxDepth)
	}

	for i, s := range b.Stmts {
		err = g.stmt(ctx, s, top && i == len(b.Stmts)-1)
		if err != nil {
			return err
		}
	}

	if !top {
		return nil
	}

	if n := len(b.Stmts); n == 0 {
		f.emit(riscv.Mv{Rd: riscv.A0, Rs: riscv.Zero})
	} else if _, ok := b.Stmts[n-1].(*ast.Return); !ok {
		f.emit(riscv.Mv{Rd: riscv.A0, Rs: riscv.Zero})
	}

	return nil
}

func (g *Generator) stmt(ctx context.Context, s ast.Stmt, last bool) (err error) {
	f := g.f

	if g.comments {
		f.emit(riscv.Comment{Text: describe(s)})
	}

	switch s := s.(type) {
	case *ast.Return:
		if s.Value == nil {
			f.emit(riscv.Mv{Rd: riscv.A0, Rs: riscv.Zero})
		} else {
			v, err := g.expr(ctx, s.Value)
			if err != nil {
				return err
			}

			f.emit(riscv.Mv{Rd: riscv.A0, Rs: v})
		}

		if !last {
			f.emit(riscv.Jal{Rd: riscv.Zero, Label: f.ret})
		}
	case *ast.Assign:
		return g.store(ctx, s.Target, s.Value)
	case *ast.Use:
		return g.store(ctx, s.Name, s.Value)
	case *ast.If:
		c, err := g.expr(ctx, s.Cond)
		if err != nil {
			return err
		}

		then, els, end := g.newLabel("then"), g.newLabel("else"), g.newLabel("endif")

		f.emit(
			riscv.Branch{Op: riscv.BNE, Rs1: c, Rs2: riscv.Zero, Label: then},
			riscv.Jal{Rd: riscv.Zero, Label: els},
			riscv.Label{Name: then},
		)

		err = g.block(ctx, s.Then, false)
		if err != nil {
			return err
		}

		f.emit(
			riscv.Jal{Rd: riscv.Zero, Label: end},
			riscv.Label{Name: els},
		)

		if s.Else != nil {
			err = g.block(ctx, s.Else, false)
			if err != nil {
				return err
			}
		}

		f.emit(riscv.Label{Name: end})
	case *ast.ExprStmt:
		_, err = g.expr(ctx, s.X)
		return err
	default:
		return unsupported(s.Location(), "statement "+nodeKind(s))
	}

	return nil
}

func (g *Generator) store(ctx context.Context, name string, x ast.Expr) error {
	v, err := g.expr(ctx, x)
	if err != nil {
		return err
	}

	off := g.f.slot(name)

	g.f.emit(riscv.Store{Op: riscv.SW, Src: v, Base: riscv.SP, Off: off})

	return nil
}

// expr lowers x into a fresh virtual register holding its value.
func (g *Generator) expr(ctx context.Context, x ast.Expr) (r riscv.Reg, err error) {
	f := g.f

	f.depth++
	defer func() { f.depth-- }()

	if f.depth > g.maxDepth {
		return 0, newError(Generic, x.Location(), "", "nesting deeper than %d", g.maxDepth)
	}

	switch x := x.(type) {
	case *ast.Uint:
		if x.Value > maxUint {
			return 0, newError(InvalidOperation, x.Loc, "", "literal %d out of u24 range", x.Value)
		}

		return g.li(int32(x.Value)), nil
	case *ast.Int:
		if x.Value < minInt || x.Value > maxInt {
			return 0, newError(InvalidOperation, x.Loc, "", "literal %d out of i24 range", x.Value)
		}

		return g.li(x.Value), nil
	case *ast.Bool:
		if x.Value {
			return g.li(1), nil
		}

		return g.li(0), nil
	case *ast.Eraser:
		return g.li(0), nil
	case *ast.Var:
		r = f.newReg()

		if off, ok := f.slots[x.Name]; ok {
			f.emit(riscv.Load{Op: riscv.LW, Rd: r, Base: riscv.SP, Off: off})
			return r, nil
		}

		if l, ok := g.lookupFunc(x.Name); ok {
			f.emit(riscv.La{Rd: r, Label: l})
			return r, nil
		}

		return 0, undefined(x.Loc, x.Name)
	case *ast.BinOp:
		return g.binOp(ctx, x)
	case *ast.Call:
		return g.call(ctx, x)
	case *ast.IfExpr:
		return g.ifExpr(ctx, x)
	case *ast.Match:
		return g.match(ctx, x)
	default:
		return 0, unsupported(x.Location(), nodeKind(x))
	}
}

func (g *Generator) li(v int32) riscv.Reg {
	r := g.f.newReg()

	g.f.emit(riscv.Li{Rd: r, Imm: v})

	return r
}

func (g *Generator) binOp(ctx context.Context, x *ast.BinOp) (d riscv.Reg, err error) {
	f := g.f

	if x.Op == ast.OpPow {
		return 0, unsupported(x.Loc, "operator **")
	}

	l, err := g.expr(ctx, x.Left)
	if err != nil {
		return 0, err
	}

	r, err := g.expr(ctx, x.Right)
	if err != nil {
		return 0, err
	}

	d = f.newReg()

	rr := func(op riscv.ROp, a, b riscv.Reg) {
		f.emit(riscv.R{Op: op, Rd: d, Rs1: a, Rs2: b})
	}

	switch x.Op {
	case ast.OpAdd:
		rr(riscv.ADD, l, r)
	case ast.OpSub:
		rr(riscv.SUB, l, r)
	case ast.OpMul:
		rr(riscv.MUL, l, r)
	case ast.OpDiv:
		rr(riscv.DIV, l, r)
	case ast.OpMod:
		rr(riscv.REM, l, r)
	case ast.OpAnd:
		rr(riscv.AND, l, r)
	case ast.OpOr:
		rr(riscv.OR, l, r)
	case ast.OpXor:
		rr(riscv.XOR, l, r)
	case ast.OpShl:
		rr(riscv.SLL, l, r)
	case ast.OpShr:
		rr(riscv.SRA, l, r)
	case ast.OpLt:
		rr(riscv.SLT, l, r)
	case ast.OpGt:
		rr(riscv.SLT, r, l)
	case ast.OpEq:
		t := f.newReg()

		f.emit(
			riscv.R{Op: riscv.SUB, Rd: t, Rs1: l, Rs2: r},
			riscv.I{Op: riscv.SLTIU, Rd: d, Rs1: t, Imm: 1},
		)
	case ast.OpNe:
		t := f.newReg()

		f.emit(
			riscv.R{Op: riscv.SUB, Rd: t, Rs1: l, Rs2: r},
			riscv.R{Op: riscv.SLTU, Rd: d, Rs1: riscv.Zero, Rs2: t},
		)
	case ast.OpLe, ast.OpGe:
		a, b := r, l
		if x.Op == ast.OpGe {
			a, b = l, r
		}

		t := f.newReg()

		f.emit(
			riscv.R{Op: riscv.SLT, Rd: t, Rs1: a, Rs2: b},
			riscv.I{Op: riscv.XORI, Rd: d, Rs1: t, Imm: 1},
		)
	default:
		return 0, unsupported(x.Loc, "operator "+x.Op.String())
	}

	return d, nil
}

func (g *Generator) call(ctx context.Context, x *ast.Call) (d riscv.Reg, err error) {
	f := g.f

	v, ok := x.Func.(*ast.Var)
	if !ok {
		return 0, unsupported(x.Loc, "indirect call")
	}

	if _, ok := f.slots[v.Name]; ok {
		return 0, unsupported(x.Loc, "call through variable "+v.Name)
	}

	label, ok := g.lookupFunc(v.Name)
	if !ok {
		return 0, undefined(v.Loc, v.Name)
	}

	if len(x.Named) != 0 {
		return 0, unsupported(x.Loc, "named arguments")
	}

	if len(x.Args) > riscv.NumArgs {
		return 0, newError(InvalidOperation, x.Loc, v.Name, "%d arguments, at most %d supported", len(x.Args), riscv.NumArgs)
	}

	args := make([]riscv.Reg, len(x.Args))

	for i, a := range x.Args {
		args[i], err = g.expr(ctx, a)
		if err != nil {
			return 0, err
		}
	}

	for i, a := range args {
		f.emit(riscv.Mv{Rd: riscv.Arg(i), Rs: a})
	}

	d = f.newReg()

	f.emit(
		riscv.Jal{Rd: riscv.RA, Label: label},
		riscv.Mv{Rd: d, Rs: riscv.A0},
	)

	return d, nil
}

// ifExpr writes both arms into one register.
func (g *Generator) ifExpr(ctx context.Context, x *ast.IfExpr) (d riscv.Reg, err error) {
	f := g.f

	c, err := g.expr(ctx, x.Cond)
	if err != nil {
		return 0, err
	}

	d = f.newReg()
	then, els, end := g.newLabel("then"), g.newLabel("else"), g.newLabel("endif")

	f.emit(
		riscv.Branch{Op: riscv.BNE, Rs1: c, Rs2: riscv.Zero, Label: then},
		riscv.Jal{Rd: riscv.Zero, Label: els},
		riscv.Label{Name: then},
	)

	t, err := g.expr(ctx, x.Then)
	if err != nil {
		return 0, err
	}

	f.emit(
		riscv.Mv{Rd: d, Rs: t},
		riscv.Jal{Rd: riscv.Zero, Label: end},
		riscv.Label{Name: els},
	)

	e, err := g.expr(ctx, x.Else)
	if err != nil {
		return 0, err
	}

	f.emit(
		riscv.Mv{Rd: d, Rs: e},
		riscv.Label{Name: end},
	)

	return d, nil
}

// match lowers a match over literal, variable and wildcard patterns.
// The result is 0 if no case applies.
func (g *Generator) match(ctx context.Context, x *ast.Match) (d riscv.Reg, err error) {
	f := g.f

	s, err := g.expr(ctx, x.Scrutinee)
	if err != nil {
		return 0, err
	}

	d = f.newReg()
	end := g.newLabel("match_end")

	for _, c := range x.Cases {
		next := g.newLabel("case")

		var restore func()

		switch p := c.Pattern.(type) {
		case *ast.PLit:
			k, err := g.expr(ctx, p.Value)
			if err != nil {
				return 0, err
			}

			f.emit(riscv.Branch{Op: riscv.BNE, Rs1: s, Rs2: k, Label: next})
		case *ast.PVar:
			restore = f.shadow(p.Name)
			off := f.newSlot(p.Name)

			f.emit(riscv.Store{Op: riscv.SW, Src: s, Base: riscv.SP, Off: off})
		case *ast.PWild:
		default:
			return 0, unsupported(c.Pattern.Location(), "pattern "+nodeKind(c.Pattern))
		}

		b, err := g.expr(ctx, c.Body)
		if err != nil {
			return 0, err
		}

		if restore != nil {
			restore()
		}

		f.emit(
			riscv.Mv{Rd: d, Rs: b},
			riscv.Jal{Rd: riscv.Zero, Label: end},
			riscv.Label{Name: next},
		)
	}

	f.emit(
		riscv.Li{Rd: d, Imm: 0},
		riscv.Label{Name: end},
	)

	return d, nil
}

func describe(s ast.Stmt) string {
	t := format.String(s)

	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}

	return s.Location().String() + ": " + strings.TrimSpace(t)
}

func nodeKind(x any) string {
	switch x.(type) {
	case *ast.Float:
		return "float"
	case *ast.Str:
		return "string"
	case *ast.Tuple:
		return "tuple"
	case *ast.List:
		return "list"
	case *ast.Lambda:
		return "lambda"
	case *ast.Access:
		return "field access"
	case *ast.PCons:
		return "constructor"
	case *ast.PTuple:
		return "tuple"
	default:
		return format.String(x)
	}
}
