package opt

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// Eta replaces lambda(x, y) { f(x, y) } with f
// when f mentions none of the parameters.
type Eta struct{}

func NewEta() *Eta { return &Eta{} }

func (*Eta) Name() string { return "eta-reduction" }

func (e *Eta) Run(ctx context.Context, p *ast.Program) (_ Result, err error) {
	tr := tlog.SpanFromContext(ctx)

	n := 0

	res, changed, err := rewriteProgram(p, func(x ast.Expr) (ast.Expr, bool) {
		r, ok := etaReduce(x)
		if ok {
			n++
		}

		return r, ok
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "eta")
	}

	if !changed {
		return unchanged(p), nil
	}

	tr.V("eta").Printw("eta reduced", "lambdas", n)

	return Result{Program: res, Modified: true}, nil
}

func etaReduce(x ast.Expr) (ast.Expr, bool) {
	l, ok := x.(*ast.Lambda)
	if !ok || len(l.Params) == 0 {
		return x, false
	}

	c, ok := l.Body.(*ast.Call)
	if !ok || len(c.Named) != 0 || len(c.Args) != len(l.Params) {
		return x, false
	}

	names := make(map[string]struct{}, len(l.Params))

	for i, p := range l.Params {
		v, ok := c.Args[i].(*ast.Var)
		if !ok || v.Name != p.Name {
			return x, false
		}

		if _, dup := names[p.Name]; dup {
			return x, false
		}

		names[p.Name] = struct{}{}
	}

	if mentions(c.Func, names) {
		return x, false
	}

	return c.Func, true
}
