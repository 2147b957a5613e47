package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

func (p *Parser) parseBlock(ctx context.Context, st int) (b *ast.Block, i int, err error) {
	bst := p.skip(st)

	i, err = p.expect(st, "{")
	if err != nil {
		return nil, st, err
	}

	b = &ast.Block{}

	for {
		if j, ok := p.is(i, "}"); ok {
			i = j
			break
		}

		var s ast.Stmt

		s, i, err = p.parseStmt(ctx, i)
		if err != nil {
			return nil, st, err
		}

		b.Stmts = append(b.Stmts, s)
	}

	b.Loc = p.Loc(bst, i)

	return b, i, nil
}

func (p *Parser) parseStmt(ctx context.Context, st int) (s ast.Stmt, i int, err error) {
	sst := p.skip(st)

	if i, ok := p.keyword(st, "return"); ok {
		r := &ast.Return{}

		if j, ok := p.is(i, ";"); ok {
			r.Loc = p.Loc(sst, j)

			return r, j, nil
		}

		r.Value, i, err = p.parseExpr(ctx, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "return")
		}

		i, err = p.expect(i, ";")
		if err != nil {
			return nil, st, err
		}

		r.Loc = p.Loc(sst, i)

		return r, i, nil
	}

	if i, ok := p.keyword(st, "use"); ok {
		u := &ast.Use{}

		u.Name, i, err = p.name(i)
		if err != nil {
			return nil, st, errors.Wrap(err, "use")
		}

		i, err = p.expect(i, "=")
		if err != nil {
			return nil, st, err
		}

		u.Value, i, err = p.parseExpr(ctx, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "use %v", u.Name)
		}

		i, err = p.expect(i, ";")
		if err != nil {
			return nil, st, err
		}

		u.Loc = p.Loc(sst, i)

		return u, i, nil
	}

	if i, ok := p.keyword(st, "if"); ok {
		return p.parseIf(ctx, sst, i)
	}

	if a, i, ok, err := p.parseAssign(ctx, sst); ok || err != nil {
		return a, i, err
	}

	x, i, err := p.parseExpr(ctx, st)
	if err != nil {
		return nil, st, errors.Wrap(err, "statement")
	}

	i, err = p.expect(i, ";")
	if err != nil {
		return nil, st, err
	}

	return &ast.ExprStmt{Loc: p.Loc(sst, i), X: x}, i, nil
}

// parseAssign reads `name [: type] = expr;` reporting ok false if it is not an assignment.
func (p *Parser) parseAssign(ctx context.Context, st int) (_ ast.Stmt, i int, ok bool, err error) {
	a := &ast.Assign{}

	a.Target, i, err = p.name(st)
	if err != nil {
		return nil, st, false, nil
	}

	if j, ok := p.is(i, ":"); ok {
		a.Type, i, err = p.parseType(ctx, j)
		if err != nil {
			return nil, st, false, nil
		}
	}

	i, ok = p.is(i, "=")
	if !ok {
		return nil, st, false, nil
	}

	a.Value, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, true, errors.Wrap(err, "assign %v", a.Target)
	}

	i, err = p.expect(i, ";")
	if err != nil {
		return nil, st, true, err
	}

	a.Loc = p.Loc(st, i)

	return a, i, true, nil
}

func (p *Parser) parseIf(ctx context.Context, st, i int) (_ ast.Stmt, _ int, err error) {
	s := &ast.If{}

	s.Cond, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "if condition")
	}

	s.Then, i, err = p.parseBlock(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "if")
	}

	if j, ok := p.keyword(i, "else"); ok {
		if k, ok := p.keyword(j, "if"); ok {
			var nested ast.Stmt

			nst := p.skip(j)

			nested, i, err = p.parseIf(ctx, nst, k)
			if err != nil {
				return nil, st, err
			}

			s.Else = &ast.Block{Loc: nested.Location(), Stmts: []ast.Stmt{nested}}
		} else {
			s.Else, i, err = p.parseBlock(ctx, j)
			if err != nil {
				return nil, st, errors.Wrap(err, "else")
			}
		}
	}

	s.Loc = p.Loc(st, i)

	return s, i, nil
}
