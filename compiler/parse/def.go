package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

func (p *Parser) parseImport(ctx context.Context, st, i int) (imp *ast.Import, _ int, err error) {
	imp = &ast.Import{}

	imp.Path, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "import path")
	}

	if j, ok := p.is(i, "{"); ok {
		i = j

		for {
			var n string

			n, i, err = p.name(i)
			if err != nil {
				return nil, st, errors.Wrap(err, "import")
			}

			imp.Names = append(imp.Names, n)

			if j, ok := p.is(i, ","); ok {
				i = j
				continue
			}

			break
		}

		i, err = p.expect(i, "}")
		if err != nil {
			return nil, st, err
		}
	}

	i, _ = p.is(i, ";")

	imp.Loc = p.Loc(p.skip(st), i)

	return imp, i, nil
}

func (p *Parser) parseDef(ctx context.Context, st int, top bool) (d ast.Definition, i int, err error) {
	if i, ok := p.keyword(st, "fn"); ok {
		return p.parseFunc(ctx, st, i)
	}

	if i, ok := p.keyword(st, "type"); ok {
		return p.parseTypeDef(ctx, st, i)
	}

	if i, ok := p.keyword(st, "object"); ok {
		return p.parseObject(ctx, st, i)
	}

	if i, ok := p.keyword(st, "alias"); ok {
		return p.parseAlias(ctx, st, i)
	}

	if i, ok := p.keyword(st, "module"); ok && top {
		return p.parseModule(ctx, st, i)
	}

	return nil, st, p.unexpected(st, "definition")
}

func (p *Parser) parseFunc(ctx context.Context, st, i int) (_ ast.Definition, _ int, err error) {
	f := &ast.FuncDef{}

	f.Name, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "func name")
	}

	f.Params, i, err = p.parseParams(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "func %v", f.Name)
	}

	if j, ok := p.is(i, "->"); ok {
		f.Return, i, err = p.parseType(ctx, j)
		if err != nil {
			return nil, st, errors.Wrap(err, "func %v: return type", f.Name)
		}
	}

	f.Body, i, err = p.parseBlock(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "func %v", f.Name)
	}

	f.Loc = p.Loc(p.skip(st), i)

	return f, i, nil
}

func (p *Parser) parseParams(ctx context.Context, st int) (ps []*ast.Param, i int, err error) {
	i, err = p.expect(st, "(")
	if err != nil {
		return nil, st, err
	}

	if j, ok := p.is(i, ")"); ok {
		return nil, j, nil
	}

	for {
		pst := p.skip(i)

		par := &ast.Param{}

		par.Name, i, err = p.name(i)
		if err != nil {
			return nil, st, errors.Wrap(err, "param")
		}

		if j, ok := p.is(i, ":"); ok {
			par.Type, i, err = p.parseType(ctx, j)
			if err != nil {
				return nil, st, errors.Wrap(err, "param %v", par.Name)
			}
		}

		par.Loc = p.Loc(pst, i)
		ps = append(ps, par)

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		break
	}

	i, err = p.expect(i, ")")
	if err != nil {
		return nil, st, err
	}

	return ps, i, nil
}

func (p *Parser) parseTypeParams(ctx context.Context, st int) (ps []string, i int, err error) {
	i, ok := p.is(st, "<")
	if !ok {
		return nil, st, nil
	}

	for {
		var n string

		n, i, err = p.name(i)
		if err != nil {
			return nil, st, errors.Wrap(err, "type param")
		}

		ps = append(ps, n)

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		break
	}

	i, err = p.closeAngle(i)
	if err != nil {
		return nil, st, err
	}

	return ps, i, nil
}

func (p *Parser) parseFields(ctx context.Context, st int, end string) (fs []*ast.Field, i int, err error) {
	i = st

	for {
		if _, ok := p.is(i, end); ok {
			return fs, i, nil
		}

		if _, ok := p.keyword(i, "fn"); ok {
			return fs, i, nil
		}

		fst := p.skip(i)

		f := &ast.Field{}

		f.Name, i, err = p.name(i)
		if err != nil {
			return nil, st, errors.Wrap(err, "field")
		}

		i, err = p.expect(i, ":")
		if err != nil {
			return nil, st, err
		}

		f.Type, i, err = p.parseType(ctx, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "field %v", f.Name)
		}

		f.Loc = p.Loc(fst, i)
		fs = append(fs, f)

		j, ok := p.is(i, ",")
		if !ok {
			return fs, i, nil
		}

		i = j
	}
}

func (p *Parser) parseTypeDef(ctx context.Context, st, i int) (_ ast.Definition, _ int, err error) {
	d := &ast.TypeDef{}

	d.Name, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "type name")
	}

	d.TypeParams, i, err = p.parseTypeParams(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "type %v", d.Name)
	}

	i, err = p.expect(i, "{")
	if err != nil {
		return nil, st, err
	}

	for {
		if j, ok := p.is(i, "}"); ok {
			i = j
			break
		}

		vst := p.skip(i)

		v := &ast.Variant{}

		v.Name, i, err = p.name(i)
		if err != nil {
			return nil, st, errors.Wrap(err, "type %v: variant", d.Name)
		}

		if j, ok := p.is(i, "{"); ok {
			v.Fields, i, err = p.parseFields(ctx, j, "}")
			if err != nil {
				return nil, st, errors.Wrap(err, "variant %v", v.Name)
			}

			i, err = p.expect(i, "}")
			if err != nil {
				return nil, st, err
			}
		}

		v.Loc = p.Loc(vst, i)
		d.Variants = append(d.Variants, v)

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		i, err = p.expect(i, "}")
		if err != nil {
			return nil, st, err
		}

		break
	}

	d.Loc = p.Loc(p.skip(st), i)

	return d, i, nil
}

func (p *Parser) parseObject(ctx context.Context, st, i int) (_ ast.Definition, _ int, err error) {
	d := &ast.ObjectDef{}

	d.Name, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "object name")
	}

	d.TypeParams, i, err = p.parseTypeParams(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "object %v", d.Name)
	}

	i, err = p.expect(i, "{")
	if err != nil {
		return nil, st, err
	}

	for {
		if j, ok := p.is(i, "}"); ok {
			i = j
			break
		}

		if j, ok := p.keyword(i, "fn"); ok {
			var f ast.Definition

			f, i, err = p.parseFunc(ctx, i, j)
			if err != nil {
				return nil, st, errors.Wrap(err, "object %v", d.Name)
			}

			d.Funcs = append(d.Funcs, f.(*ast.FuncDef))

			continue
		}

		var fs []*ast.Field

		fs, i, err = p.parseFields(ctx, i, "}")
		if err != nil {
			return nil, st, errors.Wrap(err, "object %v", d.Name)
		}

		if len(fs) == 0 {
			return nil, st, p.unexpected(i, "field or fn")
		}

		d.Fields = append(d.Fields, fs...)
	}

	d.Loc = p.Loc(p.skip(st), i)

	return d, i, nil
}

func (p *Parser) parseAlias(ctx context.Context, st, i int) (_ ast.Definition, _ int, err error) {
	d := &ast.TypeAlias{}

	d.Name, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "alias name")
	}

	d.TypeParams, i, err = p.parseTypeParams(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "alias %v", d.Name)
	}

	i, err = p.expect(i, "=")
	if err != nil {
		return nil, st, err
	}

	d.Type, i, err = p.parseType(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "alias %v", d.Name)
	}

	i, _ = p.is(i, ";")

	d.Loc = p.Loc(p.skip(st), i)

	return d, i, nil
}

func (p *Parser) parseModule(ctx context.Context, st, i int) (_ ast.Definition, _ int, err error) {
	m := &ast.Module{}

	m.Name, i, err = p.name(i)
	if err != nil {
		return nil, st, errors.Wrap(err, "module name")
	}

	i, err = p.expect(i, "{")
	if err != nil {
		return nil, st, err
	}

	for {
		if j, ok := p.is(i, "}"); ok {
			i = j
			break
		}

		var d ast.Definition

		d, i, err = p.parseDef(ctx, i, false)
		if err != nil {
			return nil, st, errors.Wrap(err, "module %v", m.Name)
		}

		m.Defs = append(m.Defs, d)
	}

	m.Loc = p.Loc(p.skip(st), i)

	return m, i, nil
}

func (p *Parser) parseType(ctx context.Context, st int) (t ast.Type, i int, err error) {
	tst := p.skip(st)

	if j, ok := p.is(st, "("); ok {
		var elems []ast.Type

		i = j

		if j, ok := p.is(i, ")"); ok {
			i = j
		} else {
			for {
				var e ast.Type

				e, i, err = p.parseType(ctx, i)
				if err != nil {
					return nil, st, err
				}

				elems = append(elems, e)

				if j, ok := p.is(i, ","); ok {
					i = j
					continue
				}

				break
			}

			i, err = p.expect(i, ")")
			if err != nil {
				return nil, st, err
			}
		}

		if len(elems) == 1 {
			t = elems[0]
		} else {
			t = &ast.TTuple{Loc: p.Loc(tst, i), Elems: elems}
		}
	} else {
		n := &ast.TName{}

		n.Name, i, err = p.name(st)
		if err != nil {
			return nil, st, errors.Wrap(err, "type")
		}

		if j, ok := p.is(i, "<"); ok {
			i = j

			for {
				var e ast.Type

				e, i, err = p.parseType(ctx, i)
				if err != nil {
					return nil, st, err
				}

				n.Params = append(n.Params, e)

				if j, ok := p.is(i, ","); ok {
					i = j
					continue
				}

				break
			}

			i, err = p.closeAngle(i)
			if err != nil {
				return nil, st, err
			}
		}

		n.Loc = p.Loc(tst, i)
		t = n
	}

	if j, ok := p.is(i, "->"); ok {
		var res ast.Type

		res, i, err = p.parseType(ctx, j)
		if err != nil {
			return nil, st, errors.Wrap(err, "result type")
		}

		t = &ast.TFunc{Loc: p.Loc(tst, i), Param: t, Result: res}
	}

	return t, i, nil
}

// closeAngle consumes one '>' which may be the first half of a '>>' token.
func (p *Parser) closeAngle(st int) (int, error) {
	i := p.skip(st)

	if i < len(p.b) && p.b[i] == '>' {
		return i + 1, nil
	}

	return st, p.unexpected(st, `">"`)
}
