package env

import (
	"sort"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

type (
	// Env is a frame of a layered symbol table.
	// Child frames see parent symbols and shadow them without copying.
	Env struct {
		parent *Env
		syms   map[string]Symbol
	}

	Symbol interface {
		symbol()
	}

	Variable struct {
		Name string
		Type tp.Type
	}

	Function struct {
		Name string
		Type tp.Type

		Def *ast.FuncDef
	}

	TypeSym struct {
		Name   string
		Params []string

		Variants []string
		Fields   []FieldSym

		// Alias is the target of a type alias, nil otherwise.
		Alias tp.Type

		// Cons builds an object from its fields, nil for other types.
		Cons *Constructor
	}

	FieldSym struct {
		Name string
		Type tp.Type
	}

	// Constructor is a curried constructor signature generic over Params.
	Constructor struct {
		Name   string
		Owner  string
		Params []string
		Fields []string
		Sig    tp.Type
	}

	ModuleSym struct {
		Name    string
		Members []string
	}
)

func (Variable) symbol()    {}
func (Function) symbol()    {}
func (TypeSym) symbol()     {}
func (Constructor) symbol() {}
func (ModuleSym) symbol()   {}

// New returns a root frame with builtin types and constructors registered.
func New() *Env {
	e := Empty()

	registerBuiltins(e)

	return e
}

func Empty() *Env {
	return &Env{syms: map[string]Symbol{}}
}

// Push returns a child frame.
func (e *Env) Push() *Env {
	return &Env{parent: e, syms: map[string]Symbol{}}
}

func (e *Env) Parent() *Env { return e.parent }

// Insert binds name in this frame. The last write wins.
func (e *Env) Insert(name string, s Symbol) {
	e.syms[name] = s
}

func (e *Env) Lookup(name string) (Symbol, bool) {
	for f := e; f != nil; f = f.parent {
		if s, ok := f.syms[name]; ok {
			return s, true
		}
	}

	return nil, false
}

// LookupLocal looks in this frame only.
func (e *Env) LookupLocal(name string) (Symbol, bool) {
	s, ok := e.syms[name]
	return s, ok
}

// Seed inserts pre-resolved bindings, in name order.
func (e *Env) Seed(m map[string]Symbol) {
	for _, k := range sortedKeys(m) {
		e.Insert(k, m[k])
	}
}

// Names lists every visible name, sorted.
func (e *Env) Names() []string {
	seen := map[string]Symbol{}

	for f := e; f != nil; f = f.parent {
		for k, s := range f.syms {
			if _, ok := seen[k]; !ok {
				seen[k] = s
			}
		}
	}

	return sortedKeys(seen)
}

func sortedKeys(m map[string]Symbol) []string {
	ks := make([]string, 0, len(m))

	for k := range m {
		ks = append(ks, k)
	}

	sort.Strings(ks)

	return ks
}

// Instantiate returns the constructor signature with fresh variables for its parameters.
func (c Constructor) Instantiate(fresh func() tp.Var) tp.Type {
	if len(c.Params) == 0 {
		return c.Sig
	}

	m := make(map[tp.Var]tp.Type, len(c.Params))

	for _, p := range c.Params {
		m[tp.Var(p)] = fresh()
	}

	return tp.Replace(c.Sig, m)
}

// Result returns the constructed type with fresh variables.
func (c Constructor) Result(fresh func() tp.Var) tp.Type {
	_, res := tp.Uncurry(c.Instantiate(fresh))

	return res
}
