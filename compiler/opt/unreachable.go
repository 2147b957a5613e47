package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// Unreachable drops statements following a return in the same block,
// or following an if whose both arms return.
type Unreachable struct{}

func NewUnreachable() *Unreachable { return &Unreachable{} }

func (*Unreachable) Name() string { return "unreachable" }

func (u *Unreachable) Run(ctx context.Context, p *ast.Program) (Result, error) {
	tr := tlog.SpanFromContext(ctx)

	dropped := 0

	res, changed, err := ast.MapFuncs(p, func(fd *ast.FuncDef) (*ast.FuncDef, bool, error) {
		body, ch := trimBlock(fd.Body, &dropped)
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

	tr.V("unreachable").Printw("dropped unreachable statements", "stmts", dropped)

	return Result{Program: res, Modified: true}, nil
}

func trimBlock(b *ast.Block, dropped *int) (*ast.Block, bool) {
	if b == nil {
		return nil, false
	}

	changed := false
	stmts := make([]ast.Stmt, 0, len(b.Stmts))

	for i, s := range b.Stmts {
		if x, ok := s.(*ast.If); ok {
			t, tch := trimBlock(x.Then, dropped)
			e, ech := trimBlock(x.Else, dropped)

			if tch || ech {
				s = &ast.If{Loc: x.Loc, Cond: x.Cond, Then: t, Else: e}
				changed = true
			}
		}

		stmts = append(stmts, s)

		if terminates(s) && i+1 < len(b.Stmts) {
			*dropped += len(b.Stmts) - i - 1
			changed = true

			break
		}
	}

	if !changed {
		return b, false
	}

	return &ast.Block{Loc: b.Loc, Stmts: stmts}, true
}

func terminates(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return s.Else != nil && blockTerminates(s.Then) && blockTerminates(s.Else)
	default:
		return false
	}
}

func blockTerminates(b *ast.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}

	return terminates(b.Stmts[len(b.Stmts)-1])
}
