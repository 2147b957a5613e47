package opt

import (
	"context"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// Float folds operations on float literals and applies algebraic identities
// with literal 0.0 and 1.0 operands.
//
// Comparisons fold to the u24 literals 1 and 0.
// Division and modulo by 0.0 are left for the runtime.
type Float struct{}

func NewFloat() *Float { return &Float{} }

func (*Float) Name() string { return "float-combination" }

func (fp *Float) Run(ctx context.Context, p *ast.Program) (_ Result, err error) {
	tr := tlog.SpanFromContext(ctx)

	folded := 0

	res, changed, err := rewriteProgram(p, func(x ast.Expr) (ast.Expr, bool) {
		b, ok := x.(*ast.BinOp)
		if !ok {
			return x, false
		}

		r, ok := foldFloat(b)
		if ok {
			folded++
		}

		return r, ok
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "float")
	}

	if !changed {
		return unchanged(p), nil
	}

	tr.V("float").Printw("float folded", "ops", folded)

	return Result{Program: res, Modified: true}, nil
}

func foldFloat(b *ast.BinOp) (ast.Expr, bool) {
	l, lok := b.Left.(*ast.Float)
	r, rok := b.Right.(*ast.Float)

	if lok && rok {
		return foldConst(b, l.Value, r.Value)
	}

	lit := func(v float64) ast.Expr { return &ast.Float{Loc: b.Loc, Value: v} }

	is := func(f *ast.Float, ok bool, v float64) bool { return ok && f.Value == v }

	switch b.Op {
	case ast.OpAdd:
		if is(r, rok, 0) {
			return b.Left, true
		}

		if is(l, lok, 0) {
			return b.Right, true
		}
	case ast.OpSub:
		if is(r, rok, 0) {
			return b.Left, true
		}
	case ast.OpMul:
		if is(r, rok, 1) {
			return b.Left, true
		}

		if is(l, lok, 1) {
			return b.Right, true
		}

		if is(r, rok, 0) || is(l, lok, 0) {
			return lit(0), true
		}
	case ast.OpDiv:
		if is(r, rok, 1) {
			return b.Left, true
		}
	case ast.OpPow:
		if is(r, rok, 1) {
			return b.Left, true
		}

		if is(r, rok, 0) {
			return lit(1), true
		}
	}

	return b, false
}

func foldConst(b *ast.BinOp, l, r float64) (ast.Expr, bool) {
	var v float64

	switch b.Op {
	case ast.OpAdd:
		v = l + r
	case ast.OpSub:
		v = l - r
	case ast.OpMul:
		v = l * r
	case ast.OpDiv:
		if r == 0 {
			return b, false
		}

		v = l / r
	case ast.OpMod:
		if r == 0 {
			return b, false
		}

		v = math.Mod(l, r)
	case ast.OpPow:
		v = math.Pow(l, r)
	case ast.OpEq:
		return boolLit(b, l == r), true
	case ast.OpNe:
		return boolLit(b, l != r), true
	case ast.OpLt:
		return boolLit(b, l < r), true
	case ast.OpLe:
		return boolLit(b, l <= r), true
	case ast.OpGt:
		return boolLit(b, l > r), true
	case ast.OpGe:
		return boolLit(b, l >= r), true
	default:
		return b, false
	}

	return &ast.Float{Loc: b.Loc, Value: v}, true
}

func boolLit(b *ast.BinOp, v bool) ast.Expr {
	x := &ast.Uint{Loc: b.Loc}

	if v {
		x.Value = 1
	}

	return x
}
