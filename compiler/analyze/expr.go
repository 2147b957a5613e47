package analyze

import (
	"context"
	"strconv"
	"strings"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/env"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

// Check infers x and unifies it with the expected type.
func (c *Checker) Check(ctx context.Context, scope *env.Env, x ast.Expr, exp tp.Type) error {
	if l, ok := x.(*ast.Lambda); ok {
		if f, ok := c.u.Apply(exp).(tp.Func); ok {
			t, err := c.inferLambda(ctx, scope, l, f)
			if err != nil {
				return err
			}

			c.types[x] = t

			return c.unifyAt(exp, t, x.Location())
		}
	}

	t, err := c.Infer(ctx, scope, x)
	if err != nil {
		return err
	}

	return c.unifyAt(exp, t, x.Location())
}

// Infer returns the type of x and records it for TypeOf.
func (c *Checker) Infer(ctx context.Context, scope *env.Env, x ast.Expr) (t tp.Type, err error) {
	t, err = c.infer(ctx, scope, x)
	if err != nil {
		return nil, err
	}

	c.types[x] = t

	return t, nil
}

func (c *Checker) infer(ctx context.Context, scope *env.Env, x ast.Expr) (tp.Type, error) {
	switch x := x.(type) {
	case *ast.Uint:
		return tp.U24, nil
	case *ast.Int:
		return tp.I24, nil
	case *ast.Float:
		return tp.F24, nil
	case *ast.Str:
		return tp.Str, nil
	case *ast.Bool:
		return tp.Bool, nil
	case *ast.Eraser:
		return c.u.Fresh(), nil
	case *ast.Var:
		return c.inferVar(scope, x)
	case *ast.Tuple:
		es := make([]tp.Type, len(x.Elems))

		for i, e := range x.Elems {
			t, err := c.Infer(ctx, scope, e)
			if err != nil {
				return nil, err
			}

			es[i] = t
		}

		return tp.Tuple{Elems: es}, nil
	case *ast.List:
		if len(x.Elems) == 0 {
			return listOf(c.u.Fresh()), nil
		}

		first, err := c.Infer(ctx, scope, x.Elems[0])
		if err != nil {
			return nil, err
		}

		for _, e := range x.Elems[1:] {
			err = c.Check(ctx, scope, e, first)
			if err != nil {
				return nil, err
			}
		}

		return listOf(first), nil
	case *ast.BinOp:
		return c.inferBinOp(ctx, scope, x)
	case *ast.Call:
		return c.inferCall(ctx, scope, x)
	case *ast.Lambda:
		return c.inferLambda(ctx, scope, x, tp.Func{})
	case *ast.IfExpr:
		err := c.checkCond(ctx, scope, x.Cond)
		if err != nil {
			return nil, err
		}

		then, err := c.Infer(ctx, scope, x.Then)
		if err != nil {
			return nil, err
		}

		err = c.Check(ctx, scope, x.Else, then)
		if err != nil {
			return nil, err
		}

		return then, nil
	case *ast.Match:
		return c.inferMatch(ctx, scope, x)
	case *ast.Access:
		return c.inferAccess(ctx, scope, x)
	default:
		return nil, tp.NewGenericError(x.Location(), "unsupported expression: %T", x)
	}
}

func listOf(t tp.Type) tp.Type {
	return tp.Named{Name: "List", Params: []tp.Type{t}}
}

func (c *Checker) inferVar(scope *env.Env, x *ast.Var) (tp.Type, error) {
	s, ok := c.lookup(scope, x.Name)
	if !ok {
		kind := tp.UndefinedVariable

		if p := strings.LastIndexByte(x.Name, '/'); p > 0 {
			if ts, ok := c.lookup(scope, x.Name[:p]); ok {
				if _, ok := ts.(env.TypeSym); ok {
					kind = tp.UndefinedConstructor
				}
			}
		}

		return nil, tp.NewUndefinedError(kind, x.Name, x.Loc)
	}

	switch s := s.(type) {
	case env.Variable:
		return s.Type, nil
	case env.Function:
		return s.Type, nil
	case env.Constructor:
		return s.Instantiate(c.u.Fresh), nil
	case env.TypeSym:
		if s.Cons != nil {
			return s.Cons.Instantiate(c.u.Fresh), nil
		}
	}

	return nil, tp.NewGenericError(x.Loc, "%v is not a value", x.Name)
}

func (c *Checker) inferBinOp(ctx context.Context, scope *env.Env, x *ast.BinOp) (tp.Type, error) {
	l, err := c.Infer(ctx, scope, x.Left)
	if err != nil {
		return nil, err
	}

	r, err := c.Infer(ctx, scope, x.Right)
	if err != nil {
		return nil, err
	}

	incompatible := func() error {
		return tp.NewOperationError(x.Op.String(), c.u.Apply(l), c.u.Apply(r), x.Loc)
	}

	// operand type after both sides were unified
	operand := func() tp.Type {
		t := c.u.Apply(l)
		if _, ok := t.(tp.Any); ok {
			t = c.u.Apply(r)
		}

		return t
	}

	switch x.Op.Class() {
	case ast.Arithmetic:
		if c.u.Unify(l, r) != nil {
			return nil, incompatible()
		}

		t := operand()

		if _, ok := t.(tp.Var); !ok && !tp.Numeric(t) {
			return nil, incompatible()
		}

		return t, nil
	case ast.Comparison:
		if c.u.Unify(l, r) != nil {
			return nil, incompatible()
		}

		return tp.U24, nil
	case ast.Bitwise:
		if c.u.Unify(l, r) != nil {
			return nil, incompatible()
		}

		t := operand()

		if _, ok := t.(tp.Var); !ok && !tp.Integral(t) {
			return nil, incompatible()
		}

		return t, nil
	case ast.Shift:
		for _, t := range []tp.Type{c.u.Apply(l), c.u.Apply(r)} {
			if _, ok := t.(tp.Var); !ok && !tp.Integral(t) {
				return nil, incompatible()
			}
		}

		return l, nil
	case ast.Power:
		if c.u.Unify(tp.F24, l) != nil || c.u.Unify(tp.F24, r) != nil {
			return nil, incompatible()
		}

		return tp.F24, nil
	}

	return nil, tp.NewGenericError(x.Loc, "unsupported operator: %v", x.Op)
}

func (c *Checker) inferCall(ctx context.Context, scope *env.Env, x *ast.Call) (tp.Type, error) {
	ft, err := c.Infer(ctx, scope, x.Func)
	if err != nil {
		return nil, err
	}

	args, err := c.callArgs(scope, x)
	if err != nil {
		return nil, err
	}

	for _, a := range args {
		switch f := c.u.Apply(ft).(type) {
		case tp.Func:
			err = c.Check(ctx, scope, a, f.Param)
			if err != nil {
				return nil, err
			}

			ft = f.Result
		case tp.Any:
			_, err = c.Infer(ctx, scope, a)
			if err != nil {
				return nil, err
			}
		case tp.Var:
			at, err := c.Infer(ctx, scope, a)
			if err != nil {
				return nil, err
			}

			res := c.u.Fresh()

			err = c.unifyAt(f, tp.Func{Param: at, Result: res}, x.Loc)
			if err != nil {
				return nil, err
			}

			ft = res
		default:
			return nil, tp.NewGenericError(x.Loc, "cannot call non-function of type %v", f)
		}
	}

	return ft, nil
}

// callArgs puts named arguments into constructor field order.
func (c *Checker) callArgs(scope *env.Env, x *ast.Call) ([]ast.Expr, error) {
	if len(x.Named) == 0 {
		return x.Args, nil
	}

	var fields []string

	if v, ok := x.Func.(*ast.Var); ok {
		s, _ := c.lookup(scope, v.Name)

		switch s := s.(type) {
		case env.Constructor:
			fields = s.Fields
		case env.TypeSym:
			if s.Cons != nil {
				fields = s.Cons.Fields
			}
		}
	}

	if fields == nil {
		return nil, tp.NewGenericError(x.Loc, "named arguments are only allowed for constructors")
	}

	if len(x.Args)+len(x.Named) != len(fields) {
		return nil, tp.NewGenericError(x.Loc, "constructor expects %d fields, got %d", len(fields), len(x.Args)+len(x.Named))
	}

	args := make([]ast.Expr, len(fields))
	copy(args, x.Args)

next:
	for _, n := range x.Named {
		for i, f := range fields {
			if f != n.Name {
				continue
			}

			if args[i] != nil {
				return nil, tp.NewGenericError(n.Loc, "field %v is set twice", n.Name)
			}

			args[i] = n.Value

			continue next
		}

		return nil, tp.NewGenericError(n.Loc, "unknown field: %v", n.Name)
	}

	return args, nil
}

// inferLambda types a lambda, taking unannotated parameter types from exp when it is known.
func (c *Checker) inferLambda(ctx context.Context, scope *env.Env, x *ast.Lambda, exp tp.Func) (tp.Type, error) {
	inner := scope.Push()

	params := make([]tp.Type, len(x.Params))

	var hint tp.Type = exp
	if exp.Param == nil {
		hint = nil
	}

	for i, p := range x.Params {
		switch {
		case p.Type != nil:
			t, err := c.resolve(p.Type, nil)
			if err != nil {
				return nil, err
			}

			params[i] = t
		case hint != nil:
			f, ok := c.u.Apply(hint).(tp.Func)
			if ok {
				params[i] = f.Param
				hint = f.Result

				break
			}

			hint = nil

			fallthrough
		default:
			params[i] = c.u.Fresh()
		}

		inner.Insert(p.Name, env.Variable{Name: p.Name, Type: params[i]})
	}

	body, err := c.Infer(ctx, inner, x.Body)
	if err != nil {
		return nil, err
	}

	return tp.Curry(params, body), nil
}

func (c *Checker) inferMatch(ctx context.Context, scope *env.Env, x *ast.Match) (tp.Type, error) {
	st, err := c.Infer(ctx, scope, x.Scrutinee)
	if err != nil {
		return nil, err
	}

	if len(x.Cases) == 0 {
		return nil, tp.NewGenericError(x.Loc, "match without cases")
	}

	var res tp.Type

	for _, cs := range x.Cases {
		inner := scope.Push()

		err = c.bindPattern(ctx, inner, cs.Pattern, st)
		if err != nil {
			return nil, err
		}

		if res == nil {
			res, err = c.Infer(ctx, inner, cs.Body)
		} else {
			err = c.Check(ctx, inner, cs.Body, res)
		}
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (c *Checker) bindPattern(ctx context.Context, scope *env.Env, p ast.Pattern, t tp.Type) error {
	switch p := p.(type) {
	case *ast.PWild:
		return nil
	case *ast.PVar:
		scope.Insert(p.Name, env.Variable{Name: p.Name, Type: t})

		return nil
	case *ast.PLit:
		lt, err := c.Infer(ctx, scope, p.Value)
		if err != nil {
			return err
		}

		return c.unifyAt(t, lt, p.Loc)
	case *ast.PCons:
		s, ok := c.lookup(scope, p.Name)

		var cons env.Constructor

		switch s := s.(type) {
		case env.Constructor:
			cons = s
		case env.TypeSym:
			if s.Cons == nil {
				ok = false
				break
			}

			cons = *s.Cons
		default:
			ok = false
		}

		if !ok {
			return tp.NewUndefinedError(tp.UndefinedConstructor, p.Name, p.Loc)
		}

		params, res := tp.Uncurry(cons.Instantiate(c.u.Fresh))

		if len(params) != len(p.Args) {
			return tp.NewGenericError(p.Loc, "constructor %v expects %d fields, got %d", p.Name, len(params), len(p.Args))
		}

		err := c.unifyAt(t, res, p.Loc)
		if err != nil {
			return err
		}

		for i, a := range p.Args {
			err = c.bindPattern(ctx, scope, a, c.u.Apply(params[i]))
			if err != nil {
				return err
			}
		}

		return nil
	case *ast.PTuple:
		es := make([]tp.Type, len(p.Elems))
		for i := range es {
			es[i] = c.u.Fresh()
		}

		err := c.unifyAt(t, tp.Tuple{Elems: es}, p.Loc)
		if err != nil {
			return err
		}

		for i, e := range p.Elems {
			err = c.bindPattern(ctx, scope, e, c.u.Apply(es[i]))
			if err != nil {
				return err
			}
		}

		return nil
	default:
		return tp.NewGenericError(p.Location(), "unsupported pattern: %T", p)
	}
}

func (c *Checker) inferAccess(ctx context.Context, scope *env.Env, x *ast.Access) (tp.Type, error) {
	xt, err := c.Infer(ctx, scope, x.X)
	if err != nil {
		return nil, err
	}

	switch t := c.u.Apply(xt).(type) {
	case tp.Any:
		return tp.Any{}, nil
	case tp.Tuple:
		i, err := strconv.Atoi(x.Field)
		if err != nil || i < 0 || i >= len(t.Elems) {
			return nil, tp.NewGenericError(x.Loc, "tuple %v has no field %v", t, x.Field)
		}

		return t.Elems[i], nil
	case tp.Named:
		s, ok := c.globals.Lookup(t.Name)
		ts, _ := s.(env.TypeSym)

		if !ok || ts.Cons == nil || len(ts.Params) != len(t.Params) {
			break
		}

		for _, f := range ts.Fields {
			if f.Name != x.Field {
				continue
			}

			m := make(map[tp.Var]tp.Type, len(ts.Params))
			for i, p := range ts.Params {
				m[tp.Var(p)] = t.Params[i]
			}

			return tp.Replace(f.Type, m), nil
		}

		return nil, tp.NewGenericError(x.Loc, "%v has no field %v", t.Name, x.Field)
	}

	return nil, tp.NewGenericError(x.Loc, "cannot access field %v of %v", x.Field, c.u.Apply(xt))
}
