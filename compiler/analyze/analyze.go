package analyze

import (
	"context"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/env"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

type (
	// Checker infers and checks one program.
	// It owns its counters and environment so checkers can run concurrently.
	Checker struct {
		u *tp.Unifier

		globals *env.Env

		types map[ast.Expr]tp.Type
		funcs map[string]tp.Type

		prefix string
		limit  int
		seed   map[string]env.Symbol

		// module prefix of the function being checked
		scopePrefix string
	}

	Option func(c *Checker)

	funcState struct {
		name     string
		ret      tp.Type
		returned bool
	}
)

func WithPrefix(p string) Option {
	return func(c *Checker) { c.prefix = p }
}

func WithStepLimit(n int) Option {
	return func(c *Checker) { c.limit = n }
}

// WithSymbols seeds bindings resolved from imported files.
func WithSymbols(m map[string]env.Symbol) Option {
	return func(c *Checker) { c.seed = m }
}

func New(opts ...Option) *Checker {
	c := &Checker{
		prefix: "t",
		limit:  tp.DefaultStepLimit,
	}

	for _, o := range opts {
		o(c)
	}

	c.reset()

	return c
}

func (c *Checker) reset() {
	c.u = tp.NewUnifier(c.prefix, c.limit)
	c.globals = env.New()
	c.globals.Seed(c.seed)
	c.types = map[ast.Expr]tp.Type{}
	c.funcs = map[string]tp.Type{}
}

func CheckProgram(ctx context.Context, p *ast.Program, opts ...Option) error {
	return New(opts...).CheckProgram(ctx, p)
}

// CheckProgram returns nil if every definition is consistently typed
// or the first TypeError found.
func (c *Checker) CheckProgram(ctx context.Context, p *ast.Program) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "check: program", "defs", len(p.Defs))
	defer tr.Finish("err", &err)

	c.reset()

	err = c.declareTypes(ctx, "", p.Defs)
	if err != nil {
		return errors.Wrap(err, "declare types")
	}

	err = c.declare(ctx, "", p.Defs)
	if err != nil {
		return errors.Wrap(err, "declare")
	}

	err = c.declareFuncs(ctx, "", p.Defs)
	if err != nil {
		return errors.Wrap(err, "declare")
	}

	for _, f := range ast.Funcs(p) {
		err = c.checkFunc(ctx, f.Name, f.Func)
		if err != nil {
			return errors.Wrap(err, "func %v", f.Name)
		}
	}

	if tr.If("dump_types") {
		for _, f := range ast.Funcs(p) {
			tr.Printw("func type", "name", f.Name, "type", c.funcs[f.Name])
		}
	}

	return nil
}

// Env returns the global environment after checking.
func (c *Checker) Env() *env.Env { return c.globals }

// FuncType returns the final curried type of a checked function.
func (c *Checker) FuncType(name string) (tp.Type, bool) {
	t, ok := c.funcs[name]
	return t, ok
}

// TypeOf returns the variable-free type recorded for an inferred expression.
func (c *Checker) TypeOf(x ast.Expr) (tp.Type, bool) {
	t, ok := c.types[x]
	if !ok {
		return nil, false
	}

	return c.zonk(t), true
}

// zonk applies the substitution and defaults what is left to Any.
func (c *Checker) zonk(t tp.Type) tp.Type {
	t = c.u.Apply(t)

	vs := tp.FreeVars(t)
	if len(vs) == 0 {
		return t
	}

	m := make(map[tp.Var]tp.Type, len(vs))
	for _, v := range vs {
		m[v] = tp.Any{}
	}

	return tp.Replace(t, m)
}

func (c *Checker) checkFunc(ctx context.Context, name string, fd *ast.FuncDef) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "check: func", "name", name)
	defer tr.Finish("err", &err)

	c.scopePrefix = ""
	if p := strings.LastIndexByte(name, '/'); p >= 0 {
		c.scopePrefix = name[:p+1]
	}

	scope := c.globals.Push()

	params := make([]tp.Type, len(fd.Params))

	for i, p := range fd.Params {
		params[i] = tp.Any{}

		if p.Type != nil {
			params[i], err = c.resolve(p.Type, nil)
			if err != nil {
				return errors.Wrap(err, "param %v", p.Name)
			}
		}

		scope.Insert(p.Name, env.Variable{Name: p.Name, Type: params[i]})
	}

	fs := &funcState{name: name}

	if fd.Return != nil {
		fs.ret, err = c.resolve(fd.Return, nil)
		if err != nil {
			return errors.Wrap(err, "return type")
		}
	} else {
		fs.ret = c.u.Fresh()
	}

	err = c.checkBlock(ctx, fs, scope, fd.Body)
	if err != nil {
		return err
	}

	if !fs.returned {
		err = c.unifyAt(fs.ret, tp.None{}, fd.Loc)
		if err != nil {
			return err
		}
	}

	ft := c.zonk(tp.Curry(params, fs.ret))

	c.funcs[name] = ft
	c.globals.Insert(name, env.Function{Name: name, Type: ft, Def: fd})

	tr.V("func_type").Printw("function type", "name", name, "type", ft)

	return nil
}

func (c *Checker) checkBlock(ctx context.Context, fs *funcState, scope *env.Env, b *ast.Block) (err error) {
	if b == nil {
		return nil
	}

	for _, s := range b.Stmts {
		err = c.checkStmt(ctx, fs, scope, s)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Checker) checkStmt(ctx context.Context, fs *funcState, scope *env.Env, s ast.Stmt) (err error) {
	switch s := s.(type) {
	case *ast.Return:
		fs.returned = true

		if s.Value == nil {
			return c.unifyAt(fs.ret, tp.None{}, s.Loc)
		}

		return c.Check(ctx, scope, s.Value, fs.ret)
	case *ast.Assign:
		var t tp.Type

		if s.Type != nil {
			t, err = c.resolve(s.Type, nil)
			if err != nil {
				return err
			}

			err = c.Check(ctx, scope, s.Value, t)
		} else {
			t, err = c.Infer(ctx, scope, s.Value)
		}
		if err != nil {
			return err
		}

		return c.bindLocal(scope, s.Target, t, s.Loc)
	case *ast.Use:
		t, err := c.Infer(ctx, scope, s.Value)
		if err != nil {
			return err
		}

		scope.Insert(s.Name, env.Variable{Name: s.Name, Type: t})

		return nil
	case *ast.If:
		err = c.checkCond(ctx, scope, s.Cond)
		if err != nil {
			return err
		}

		err = c.checkBlock(ctx, fs, scope.Push(), s.Then)
		if err != nil {
			return err
		}

		return c.checkBlock(ctx, fs, scope.Push(), s.Else)
	case *ast.ExprStmt:
		_, err = c.Infer(ctx, scope, s.X)
		return err
	default:
		return tp.NewGenericError(s.Location(), "unsupported statement: %T", s)
	}
}

// bindLocal unifies with an existing local of the function or declares a new one.
func (c *Checker) bindLocal(scope *env.Env, name string, t tp.Type, l ast.Location) error {
	for f := scope; f != nil && f != c.globals; f = f.Parent() {
		s, ok := f.LookupLocal(name)
		if !ok {
			continue
		}

		if v, ok := s.(env.Variable); ok {
			return c.unifyAt(v.Type, t, l)
		}

		break
	}

	scope.Insert(name, env.Variable{Name: name, Type: t})

	return nil
}

func (c *Checker) checkCond(ctx context.Context, scope *env.Env, x ast.Expr) error {
	t, err := c.Infer(ctx, scope, x)
	if err != nil {
		return err
	}

	switch t := c.u.Apply(t).(type) {
	case tp.Any:
		return nil
	case tp.Word:
		if t == tp.U24 {
			return nil
		}
	case tp.Named:
		if tp.Equal(t, tp.Bool) {
			return nil
		}
	case tp.Var:
		return c.unifyAt(tp.U24, t, x.Location())
	}

	return tp.NewMismatchError(tp.U24, c.u.Apply(t)).At(x.Location())
}

func (c *Checker) unifyAt(exp, found tp.Type, l ast.Location) error {
	err := c.u.Unify(exp, found)
	if err == nil {
		return nil
	}

	if te, ok := err.(*tp.TypeError); ok {
		return te.At(l)
	}

	return err
}
