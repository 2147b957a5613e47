package opt

import (
	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// rewriter is applied bottom-up: children are rewritten before their parent.
// It returns the replacement node and whether it replaced anything.
type rewriter func(x ast.Expr) (ast.Expr, bool)

// rewriteProgram applies f to every expression of every function.
// Nodes are copied only on the path to a change.
func rewriteProgram(p *ast.Program, f rewriter) (*ast.Program, bool, error) {
	return ast.MapFuncs(p, func(fd *ast.FuncDef) (*ast.FuncDef, bool, error) {
		body, ch := rewriteBlock(fd.Body, f)
		if !ch {
			return fd, false, nil
		}

		cp := *fd
		cp.Body = body

		return &cp, true, nil
	})
}

func rewriteBlock(b *ast.Block, f rewriter) (*ast.Block, bool) {
	if b == nil {
		return nil, false
	}

	var stmts []ast.Stmt

	for i, s := range b.Stmts {
		ns, ch := rewriteStmt(s, f)
		if !ch {
			if stmts != nil {
				stmts = append(stmts, s)
			}

			continue
		}

		if stmts == nil {
			stmts = append(make([]ast.Stmt, 0, len(b.Stmts)), b.Stmts[:i]...)
		}

		stmts = append(stmts, ns)
	}

	if stmts == nil {
		return b, false
	}

	return &ast.Block{Loc: b.Loc, Stmts: stmts}, true
}

func rewriteStmt(s ast.Stmt, f rewriter) (ast.Stmt, bool) {
	switch s := s.(type) {
	case *ast.Return:
		if s.Value == nil {
			return s, false
		}

		v, ch := rewriteExpr(s.Value, f)
		if !ch {
			return s, false
		}

		return &ast.Return{Loc: s.Loc, Value: v}, true
	case *ast.Assign:
		v, ch := rewriteExpr(s.Value, f)
		if !ch {
			return s, false
		}

		cp := *s
		cp.Value = v

		return &cp, true
	case *ast.Use:
		v, ch := rewriteExpr(s.Value, f)
		if !ch {
			return s, false
		}

		return &ast.Use{Loc: s.Loc, Name: s.Name, Value: v}, true
	case *ast.If:
		c, cch := rewriteExpr(s.Cond, f)
		t, tch := rewriteBlock(s.Then, f)
		e, ech := rewriteBlock(s.Else, f)

		if !cch && !tch && !ech {
			return s, false
		}

		return &ast.If{Loc: s.Loc, Cond: c, Then: t, Else: e}, true
	case *ast.ExprStmt:
		x, ch := rewriteExpr(s.X, f)
		if !ch {
			return s, false
		}

		return &ast.ExprStmt{Loc: s.Loc, X: x}, true
	default:
		return s, false
	}
}

func rewriteExpr(x ast.Expr, f rewriter) (ast.Expr, bool) {
	x, changed := rewriteChildren(x, f)

	r, ch := f(x)

	return r, changed || ch
}

func rewriteChildren(x ast.Expr, f rewriter) (ast.Expr, bool) {
	switch x := x.(type) {
	case *ast.Tuple:
		es, ch := rewriteList(x.Elems, f)
		if !ch {
			return x, false
		}

		return &ast.Tuple{Loc: x.Loc, Elems: es}, true
	case *ast.List:
		es, ch := rewriteList(x.Elems, f)
		if !ch {
			return x, false
		}

		return &ast.List{Loc: x.Loc, Elems: es}, true
	case *ast.BinOp:
		l, lch := rewriteExpr(x.Left, f)
		r, rch := rewriteExpr(x.Right, f)

		if !lch && !rch {
			return x, false
		}

		return &ast.BinOp{Loc: x.Loc, Op: x.Op, Left: l, Right: r}, true
	case *ast.Call:
		fn, fch := rewriteExpr(x.Func, f)
		args, ach := rewriteList(x.Args, f)
		named, nch := rewriteNamed(x.Named, f)

		if !fch && !ach && !nch {
			return x, false
		}

		return &ast.Call{Loc: x.Loc, Func: fn, Args: args, Named: named}, true
	case *ast.Lambda:
		b, ch := rewriteExpr(x.Body, f)
		if !ch {
			return x, false
		}

		return &ast.Lambda{Loc: x.Loc, Params: x.Params, Body: b}, true
	case *ast.IfExpr:
		c, cch := rewriteExpr(x.Cond, f)
		t, tch := rewriteExpr(x.Then, f)
		e, ech := rewriteExpr(x.Else, f)

		if !cch && !tch && !ech {
			return x, false
		}

		return &ast.IfExpr{Loc: x.Loc, Cond: c, Then: t, Else: e}, true
	case *ast.Match:
		s, sch := rewriteExpr(x.Scrutinee, f)

		var cases []*ast.Case

		for i, c := range x.Cases {
			b, ch := rewriteExpr(c.Body, f)
			if !ch {
				if cases != nil {
					cases = append(cases, c)
				}

				continue
			}

			if cases == nil {
				cases = append([]*ast.Case{}, x.Cases[:i]...)
			}

			cases = append(cases, &ast.Case{Loc: c.Loc, Pattern: c.Pattern, Body: b})
		}

		if !sch && cases == nil {
			return x, false
		}

		if cases == nil {
			cases = x.Cases
		}

		return &ast.Match{Loc: x.Loc, Scrutinee: s, Cases: cases}, true
	case *ast.Access:
		v, ch := rewriteExpr(x.X, f)
		if !ch {
			return x, false
		}

		return &ast.Access{Loc: x.Loc, X: v, Field: x.Field}, true
	default:
		return x, false
	}
}

func rewriteList(xs []ast.Expr, f rewriter) ([]ast.Expr, bool) {
	var res []ast.Expr

	for i, x := range xs {
		r, ch := rewriteExpr(x, f)
		if !ch {
			if res != nil {
				res = append(res, x)
			}

			continue
		}

		if res == nil {
			res = append(make([]ast.Expr, 0, len(xs)), xs[:i]...)
		}

		res = append(res, r)
	}

	if res == nil {
		return xs, false
	}

	return res, true
}

func rewriteNamed(ns []*ast.NamedArg, f rewriter) ([]*ast.NamedArg, bool) {
	var res []*ast.NamedArg

	for i, n := range ns {
		v, ch := rewriteExpr(n.Value, f)
		if !ch {
			if res != nil {
				res = append(res, n)
			}

			continue
		}

		if res == nil {
			res = append(make([]*ast.NamedArg, 0, len(ns)), ns[:i]...)
		}

		res = append(res, &ast.NamedArg{Loc: n.Loc, Name: n.Name, Value: v})
	}

	if res == nil {
		return ns, false
	}

	return res, true
}

// mentions reports whether x refers to any of the names, ignoring shadowing by nested binders.
func mentions(x ast.Expr, names map[string]struct{}) (found bool) {
	walk(x, func(x ast.Expr) bool {
		if v, ok := x.(*ast.Var); ok {
			if _, ok := names[v.Name]; ok {
				found = true
			}
		}

		return !found
	})

	return found
}

// walk visits x and its subexpressions top-down while f returns true.
func walk(x ast.Expr, f func(ast.Expr) bool) {
	if x == nil || !f(x) {
		return
	}

	switch x := x.(type) {
	case *ast.Tuple:
		for _, e := range x.Elems {
			walk(e, f)
		}
	case *ast.List:
		for _, e := range x.Elems {
			walk(e, f)
		}
	case *ast.BinOp:
		walk(x.Left, f)
		walk(x.Right, f)
	case *ast.Call:
		walk(x.Func, f)

		for _, a := range x.Args {
			walk(a, f)
		}

		for _, n := range x.Named {
			walk(n.Value, f)
		}
	case *ast.Lambda:
		walk(x.Body, f)
	case *ast.IfExpr:
		walk(x.Cond, f)
		walk(x.Then, f)
		walk(x.Else, f)
	case *ast.Match:
		walk(x.Scrutinee, f)

		for _, c := range x.Cases {
			walk(c.Body, f)
		}
	case *ast.Access:
		walk(x.X, f)
	}
}
