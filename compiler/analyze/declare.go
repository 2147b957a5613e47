package analyze

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/env"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

// declareTypes registers type names first so definitions may refer to each other in any order.
func (c *Checker) declareTypes(ctx context.Context, prefix string, defs []ast.Definition) error {
	for _, d := range defs {
		name := prefix + d.DefName()

		switch d := d.(type) {
		case *ast.TypeDef:
			err := c.declareName(name, env.TypeSym{Name: name, Params: d.TypeParams}, d.Loc)
			if err != nil {
				return err
			}
		case *ast.ObjectDef:
			err := c.declareName(name, env.TypeSym{Name: name, Params: d.TypeParams}, d.Loc)
			if err != nil {
				return err
			}
		case *ast.TypeAlias:
			err := c.declareName(name, env.TypeSym{Name: name, Params: d.TypeParams}, d.Loc)
			if err != nil {
				return err
			}
		case *ast.Module:
			members := make([]string, len(d.Defs))
			for i, m := range d.Defs {
				members[i] = name + "/" + m.DefName()
			}

			err := c.declareName(name, env.ModuleSym{Name: name, Members: members}, d.Loc)
			if err != nil {
				return err
			}

			err = c.declareTypes(ctx, name+"/", d.Defs)
			if err != nil {
				return errors.Wrap(err, "module %v", name)
			}
		}
	}

	return nil
}

func (c *Checker) declareName(name string, s env.Symbol, l ast.Location) error {
	if _, ok := c.globals.LookupLocal(name); ok {
		return tp.NewGenericError(l, "duplicate definition: %v", name)
	}

	c.globals.Insert(name, s)

	return nil
}

// declare registers constructors, aliases and object fields.
func (c *Checker) declare(ctx context.Context, prefix string, defs []ast.Definition) (err error) {
	tr := tlog.SpanFromContext(ctx)

	defer func(p string) { c.scopePrefix = p }(c.scopePrefix)
	c.scopePrefix = prefix

	for _, d := range defs {
		name := prefix + d.DefName()

		switch d := d.(type) {
		case *ast.TypeDef:
			err = c.declareTypeDef(name, d)
		case *ast.ObjectDef:
			err = c.declareObject(name, d)
		case *ast.TypeAlias:
			err = c.declareAlias(name, d)
		case *ast.Module:
			err = c.declare(ctx, name+"/", d.Defs)
		case *ast.FuncDef:
			continue
		default:
			err = tp.NewGenericError(d.Location(), "unsupported definition: %T", d)
		}

		if err != nil {
			return errors.Wrap(err, "%v", name)
		}

		tr.V("declare").Printw("declared", "name", name, "kind", tlog.FormatNext("%T"), d)
	}

	return nil
}

// declareFuncs registers preliminary function signatures once every type is known.
func (c *Checker) declareFuncs(ctx context.Context, prefix string, defs []ast.Definition) (err error) {
	defer func(p string) { c.scopePrefix = p }(c.scopePrefix)
	c.scopePrefix = prefix

	for _, d := range defs {
		name := prefix + d.DefName()

		switch d := d.(type) {
		case *ast.FuncDef:
			err = c.declareFunc(name, d)
		case *ast.ObjectDef:
			for _, f := range d.Funcs {
				err = c.declareFunc(name+"/"+f.Name, f)
				if err != nil {
					break
				}
			}
		case *ast.Module:
			err = c.declareFuncs(ctx, name+"/", d.Defs)
		}

		if err != nil {
			return errors.Wrap(err, "%v", name)
		}
	}

	return nil
}

func typeParams(ps []string) (map[string]tp.Type, []tp.Type) {
	if len(ps) == 0 {
		return nil, nil
	}

	m := make(map[string]tp.Type, len(ps))
	vs := make([]tp.Type, len(ps))

	for i, p := range ps {
		vs[i] = tp.Var(p)
		m[p] = vs[i]
	}

	return m, vs
}

func (c *Checker) declareTypeDef(name string, d *ast.TypeDef) error {
	tps, vs := typeParams(d.TypeParams)
	self := tp.Named{Name: name, Params: vs}

	ts := env.TypeSym{Name: name, Params: d.TypeParams}

	for _, v := range d.Variants {
		cname := name + "/" + v.Name

		args, fields, err := c.fields(v.Fields, tps)
		if err != nil {
			return errors.Wrap(err, "variant %v", v.Name)
		}

		ts.Variants = append(ts.Variants, cname)

		err = c.declareName(cname, env.Constructor{
			Name:   cname,
			Owner:  name,
			Params: d.TypeParams,
			Fields: fields,
			Sig:    tp.Curry(args, self),
		}, v.Loc)
		if err != nil {
			return err
		}
	}

	c.globals.Insert(name, ts)

	return nil
}

func (c *Checker) declareObject(name string, d *ast.ObjectDef) error {
	tps, vs := typeParams(d.TypeParams)
	self := tp.Named{Name: name, Params: vs}

	args, fields, err := c.fields(d.Fields, tps)
	if err != nil {
		return err
	}

	ts := env.TypeSym{
		Name:   name,
		Params: d.TypeParams,
		Cons: &env.Constructor{
			Name:   name,
			Owner:  name,
			Params: d.TypeParams,
			Fields: fields,
			Sig:    tp.Curry(args, self),
		},
	}

	for i, f := range fields {
		ts.Fields = append(ts.Fields, env.FieldSym{Name: f, Type: args[i]})
	}

	c.globals.Insert(name, ts)

	return nil
}

func (c *Checker) fields(fs []*ast.Field, tps map[string]tp.Type) (args []tp.Type, names []string, err error) {
	for _, f := range fs {
		t, err := c.resolve(f.Type, tps)
		if err != nil {
			return nil, nil, errors.Wrap(err, "field %v", f.Name)
		}

		args = append(args, t)
		names = append(names, f.Name)
	}

	return args, names, nil
}

func (c *Checker) declareAlias(name string, d *ast.TypeAlias) error {
	tps, _ := typeParams(d.TypeParams)

	t, err := c.resolve(d.Type, tps)
	if err != nil {
		return err
	}

	c.globals.Insert(name, env.TypeSym{Name: name, Params: d.TypeParams, Alias: t})

	return nil
}

func (c *Checker) declareFunc(name string, d *ast.FuncDef) (err error) {
	params := make([]tp.Type, len(d.Params))

	for i, p := range d.Params {
		params[i] = tp.Any{}

		if p.Type == nil {
			continue
		}

		params[i], err = c.resolve(p.Type, nil)
		if err != nil {
			return errors.Wrap(err, "param %v", p.Name)
		}
	}

	var ret tp.Type = tp.Any{}

	if d.Return != nil {
		ret, err = c.resolve(d.Return, nil)
		if err != nil {
			return errors.Wrap(err, "return type")
		}
	}

	return c.declareName(name, env.Function{Name: name, Type: tp.Curry(params, ret), Def: d}, d.Loc)
}

// resolve converts a written type to a semantic type.
func (c *Checker) resolve(t ast.Type, tps map[string]tp.Type) (tp.Type, error) {
	switch t := t.(type) {
	case *ast.TName:
		if v, ok := tps[t.Name]; ok && len(t.Params) == 0 {
			return v, nil
		}

		params := make([]tp.Type, len(t.Params))

		for i, p := range t.Params {
			r, err := c.resolve(p, tps)
			if err != nil {
				return nil, err
			}

			params[i] = r
		}

		return c.resolveName(t, params)
	case *ast.TFunc:
		p, err := c.resolve(t.Param, tps)
		if err != nil {
			return nil, err
		}

		r, err := c.resolve(t.Result, tps)
		if err != nil {
			return nil, err
		}

		return tp.Func{Param: p, Result: r}, nil
	case *ast.TTuple:
		es := make([]tp.Type, len(t.Elems))

		for i, e := range t.Elems {
			r, err := c.resolve(e, tps)
			if err != nil {
				return nil, err
			}

			es[i] = r
		}

		return tp.Tuple{Elems: es}, nil
	default:
		return nil, tp.NewGenericError(t.Location(), "unsupported type expression: %T", t)
	}
}

func (c *Checker) resolveName(t *ast.TName, params []tp.Type) (tp.Type, error) {
	s, ok := c.lookup(c.globals, t.Name)
	if !ok {
		return nil, tp.NewUndefinedError(tp.UndefinedType, t.Name, t.Loc)
	}

	ts, ok := s.(env.TypeSym)
	if !ok {
		return nil, tp.NewUndefinedError(tp.UndefinedType, t.Name, t.Loc)
	}

	if len(params) != len(ts.Params) {
		return nil, tp.NewGenericError(t.Loc, "type %v expects %d parameters, got %d", ts.Name, len(ts.Params), len(params))
	}

	if ts.Alias == nil {
		if len(params) == 0 {
			return tp.Named{Name: ts.Name}, nil
		}

		return tp.Named{Name: ts.Name, Params: params}, nil
	}

	if len(params) == 0 {
		return ts.Alias, nil
	}

	m := make(map[tp.Var]tp.Type, len(params))
	for i, p := range ts.Params {
		m[tp.Var(p)] = params[i]
	}

	return tp.Replace(ts.Alias, m), nil
}

// lookup tries the name as written and then relative to the current module.
func (c *Checker) lookup(scope *env.Env, name string) (env.Symbol, bool) {
	if s, ok := scope.Lookup(name); ok {
		return s, true
	}

	if c.scopePrefix != "" {
		return scope.Lookup(c.scopePrefix + name)
	}

	return nil, false
}
