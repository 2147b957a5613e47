package opt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// Linearize hoists complex operands of operations and calls into
// fresh __lin_N assignments placed before the statement using them.
//
// Operands under conditional or deferred evaluation, that is if-expression arms,
// match cases and lambda bodies, are left in place.
type Linearize struct {
	n int
}

// TempPrefix names the temporaries introduced by Linearize.
const TempPrefix = "__lin_"

func NewLinearize() *Linearize { return &Linearize{} }

func (*Linearize) Name() string { return "linearization" }

func (l *Linearize) Run(ctx context.Context, p *ast.Program) (Result, error) {
	tr := tlog.SpanFromContext(ctx)

	l.skipExisting(p)

	st := l.n

	res, changed, err := ast.MapFuncs(p, func(fd *ast.FuncDef) (*ast.FuncDef, bool, error) {
		body, ch := l.block(fd.Body)
		if !ch {
			return fd, false, nil
		}

		cp := *fd
		cp.Body = body

		return &cp, true, nil
	})
	if err != nil {
		return Result{}, err
	}

	if !changed {
		return unchanged(p), nil
	}

	tr.V("linearize").Printw("linearized", "temps", l.n-st)

	return Result{Program: res, Modified: true}, nil
}

// skipExisting moves the counter past temporaries already present in p.
func (l *Linearize) skipExisting(p *ast.Program) {
	for _, f := range ast.Funcs(p) {
		visitBlock(f.Func.Body, func(s ast.Stmt) {
			a, ok := s.(*ast.Assign)
			if !ok || !strings.HasPrefix(a.Target, TempPrefix) {
				return
			}

			n, err := strconv.Atoi(a.Target[len(TempPrefix):])
			if err == nil && n > l.n {
				l.n = n
			}
		})
	}
}

func visitBlock(b *ast.Block, f func(ast.Stmt)) {
	if b == nil {
		return
	}

	for _, s := range b.Stmts {
		f(s)

		if s, ok := s.(*ast.If); ok {
			visitBlock(s.Then, f)
			visitBlock(s.Else, f)
		}
	}
}

func (l *Linearize) block(b *ast.Block) (*ast.Block, bool) {
	if b == nil {
		return nil, false
	}

	var stmts []ast.Stmt
	changed := false

	for _, s := range b.Stmts {
		var pre []ast.Stmt

		ns, ch := l.stmt(s, &pre)

		stmts = append(stmts, pre...)
		stmts = append(stmts, ns)

		changed = changed || ch
	}

	if !changed {
		return b, false
	}

	return &ast.Block{Loc: b.Loc, Stmts: stmts}, true
}

func (l *Linearize) stmt(s ast.Stmt, pre *[]ast.Stmt) (ast.Stmt, bool) {
	switch s := s.(type) {
	case *ast.Return:
		if s.Value == nil {
			return s, false
		}

		v, ch := l.expr(s.Value, pre)
		if !ch {
			return s, false
		}

		return &ast.Return{Loc: s.Loc, Value: v}, true
	case *ast.Assign:
		v, ch := l.expr(s.Value, pre)
		if !ch {
			return s, false
		}

		cp := *s
		cp.Value = v

		return &cp, true
	case *ast.Use:
		v, ch := l.expr(s.Value, pre)
		if !ch {
			return s, false
		}

		return &ast.Use{Loc: s.Loc, Name: s.Name, Value: v}, true
	case *ast.If:
		c, cch := l.expr(s.Cond, pre)
		t, tch := l.block(s.Then)
		e, ech := l.block(s.Else)

		if !cch && !tch && !ech {
			return s, false
		}

		return &ast.If{Loc: s.Loc, Cond: c, Then: t, Else: e}, true
	case *ast.ExprStmt:
		x, ch := l.expr(s.X, pre)
		if !ch {
			return s, false
		}

		return &ast.ExprStmt{Loc: s.Loc, X: x}, true
	default:
		return s, false
	}
}

// expr flattens the operands of x. x itself stays in place.
func (l *Linearize) expr(x ast.Expr, pre *[]ast.Stmt) (ast.Expr, bool) {
	switch x := x.(type) {
	case *ast.BinOp:
		left, lch := l.operand(x.Left, pre)
		right, rch := l.operand(x.Right, pre)

		if !lch && !rch {
			return x, false
		}

		return &ast.BinOp{Loc: x.Loc, Op: x.Op, Left: left, Right: right}, true
	case *ast.Call:
		fn, fch := l.operand(x.Func, pre)
		changed := fch

		args := make([]ast.Expr, len(x.Args))

		for i, a := range x.Args {
			var ch bool

			args[i], ch = l.operand(a, pre)
			changed = changed || ch
		}

		var named []*ast.NamedArg

		for _, n := range x.Named {
			v, ch := l.operand(n.Value, pre)
			if ch {
				n = &ast.NamedArg{Loc: n.Loc, Name: n.Name, Value: v}
			}

			named = append(named, n)
			changed = changed || ch
		}

		if !changed {
			return x, false
		}

		return &ast.Call{Loc: x.Loc, Func: fn, Args: args, Named: named}, true
	case *ast.Tuple:
		es, ch := l.list(x.Elems, pre)
		if !ch {
			return x, false
		}

		return &ast.Tuple{Loc: x.Loc, Elems: es}, true
	case *ast.List:
		es, ch := l.list(x.Elems, pre)
		if !ch {
			return x, false
		}

		return &ast.List{Loc: x.Loc, Elems: es}, true
	case *ast.Access:
		v, ch := l.expr(x.X, pre)
		if !ch {
			return x, false
		}

		return &ast.Access{Loc: x.Loc, X: v, Field: x.Field}, true
	case *ast.IfExpr:
		c, ch := l.expr(x.Cond, pre)
		if !ch {
			return x, false
		}

		return &ast.IfExpr{Loc: x.Loc, Cond: c, Then: x.Then, Else: x.Else}, true
	case *ast.Match:
		v, ch := l.expr(x.Scrutinee, pre)
		if !ch {
			return x, false
		}

		return &ast.Match{Loc: x.Loc, Scrutinee: v, Cases: x.Cases}, true
	default:
		return x, false
	}
}

func (l *Linearize) list(xs []ast.Expr, pre *[]ast.Stmt) ([]ast.Expr, bool) {
	res := make([]ast.Expr, len(xs))
	changed := false

	for i, x := range xs {
		var ch bool

		res[i], ch = l.expr(x, pre)
		changed = changed || ch
	}

	return res, changed
}

// operand returns a simple replacement for a complex operand
// after emitting its flattened computation into pre.
func (l *Linearize) operand(x ast.Expr, pre *[]ast.Stmt) (ast.Expr, bool) {
	if !ast.IsComplex(x) {
		return l.expr(x, pre)
	}

	x, _ = l.expr(x, pre)

	l.n++
	name := fmt.Sprintf("%s%d", TempPrefix, l.n)

	*pre = append(*pre, &ast.Assign{Loc: x.Location(), Target: name, Value: x})

	return &ast.Var{Loc: x.Location(), Name: name}, true
}
