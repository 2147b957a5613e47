package tp

import (
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Type is a semantic type.
	Type interface {
		String() string
		typ()
	}

	Named struct {
		Name   string
		Params []Type
	}

	Func struct {
		Param  Type
		Result Type
	}

	Tuple struct {
		Elems []Type
	}

	// Word is a 24-bit machine word.
	Word int

	Any struct{}

	None struct{}

	// Var is a type variable.
	// Names starting with RigidPrefix are never bound by the unifier.
	Var string
)

const (
	U24 Word = iota
	I24
	F24
)

const RigidPrefix = "'"

var (
	Bool = Named{Name: "Bool"}
	Str  = Named{Name: "String"}
)

func (Named) typ() {}
func (Func) typ()  {}
func (Tuple) typ() {}
func (Word) typ()  {}
func (Any) typ()   {}
func (None) typ()  {}
func (Var) typ()   {}

func (w Word) String() string {
	switch w {
	case U24:
		return "u24"
	case I24:
		return "i24"
	case F24:
		return "f24"
	default:
		return "word?"
	}
}

func (w Word) Integral() bool { return w == U24 || w == I24 }

func (x Named) String() string {
	if len(x.Params) == 0 {
		return x.Name
	}

	var b strings.Builder

	b.WriteString(x.Name)
	b.WriteByte('<')

	for i, p := range x.Params {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(p.String())
	}

	b.WriteByte('>')

	return b.String()
}

func (x Func) String() string {
	p := x.Param.String()

	if _, ok := x.Param.(Func); ok {
		p = "(" + p + ")"
	}

	return p + " -> " + x.Result.String()
}

func (x Tuple) String() string {
	var b strings.Builder

	b.WriteByte('(')

	for i, e := range x.Elems {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(e.String())
	}

	b.WriteByte(')')

	return b.String()
}

func (Any) String() string  { return "Any" }
func (None) String() string { return "None" }
func (v Var) String() string { return string(v) }

func (v Var) Rigid() bool { return strings.HasPrefix(string(v), RigidPrefix) }

func (x Named) TlogAppend(b []byte) []byte { return appendType(b, x) }
func (x Func) TlogAppend(b []byte) []byte  { return appendType(b, x) }
func (x Tuple) TlogAppend(b []byte) []byte { return appendType(b, x) }

func appendType(b []byte, t Type) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, t.String())
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Named:
		b, ok := b.(Named)
		if !ok || a.Name != b.Name || len(a.Params) != len(b.Params) {
			return false
		}

		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}

		return true
	case Func:
		b, ok := b.(Func)

		return ok && Equal(a.Param, b.Param) && Equal(a.Result, b.Result)
	case Tuple:
		b, ok := b.(Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}

		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}

		return true
	case Word:
		b, ok := b.(Word)
		return ok && a == b
	case Any:
		_, ok := b.(Any)
		return ok
	case None:
		_, ok := b.(None)
		return ok
	case Var:
		b, ok := b.(Var)
		return ok && a == b
	default:
		return false
	}
}

// FreeVars returns type variables of t in order of first occurrence.
func FreeVars(t Type) []Var {
	return appendFree(nil, t)
}

func appendFree(vs []Var, t Type) []Var {
	switch t := t.(type) {
	case Var:
		for _, v := range vs {
			if v == t {
				return vs
			}
		}

		return append(vs, t)
	case Named:
		for _, p := range t.Params {
			vs = appendFree(vs, p)
		}
	case Func:
		vs = appendFree(vs, t.Param)
		vs = appendFree(vs, t.Result)
	case Tuple:
		for _, e := range t.Elems {
			vs = appendFree(vs, e)
		}
	}

	return vs
}

func Closed(t Type) bool { return len(FreeVars(t)) == 0 }

// Occurs reports whether v appears anywhere inside t.
func Occurs(v Var, t Type) bool {
	switch t := t.(type) {
	case Var:
		return t == v
	case Named:
		for _, p := range t.Params {
			if Occurs(v, p) {
				return true
			}
		}
	case Func:
		return Occurs(v, t.Param) || Occurs(v, t.Result)
	case Tuple:
		for _, e := range t.Elems {
			if Occurs(v, e) {
				return true
			}
		}
	}

	return false
}

// Curry builds p0 -> p1 -> ... -> res.
func Curry(params []Type, res Type) Type {
	for i := len(params) - 1; i >= 0; i-- {
		res = Func{Param: params[i], Result: res}
	}

	return res
}

// Uncurry splits a function type into its parameter chain and final result.
func Uncurry(t Type) (params []Type, res Type) {
	for {
		f, ok := t.(Func)
		if !ok {
			return params, t
		}

		params = append(params, f.Param)
		t = f.Result
	}
}

// Numeric reports whether t is a machine word or Any.
func Numeric(t Type) bool {
	switch t.(type) {
	case Word, Any:
		return true
	}

	return false
}

// Integral reports whether t is u24, i24 or Any.
func Integral(t Type) bool {
	switch t := t.(type) {
	case Word:
		return t.Integral()
	case Any:
		return true
	}

	return false
}

// Replace substitutes type parameters by name, used to instantiate schemes.
func Replace(t Type, m map[Var]Type) Type {
	switch t := t.(type) {
	case Var:
		if r, ok := m[t]; ok {
			return r
		}

		return t
	case Named:
		if len(t.Params) == 0 {
			return t
		}

		ps := make([]Type, len(t.Params))
		for i, p := range t.Params {
			ps[i] = Replace(p, m)
		}

		return Named{Name: t.Name, Params: ps}
	case Func:
		return Func{Param: Replace(t.Param, m), Result: Replace(t.Result, m)}
	case Tuple:
		es := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			es[i] = Replace(e, m)
		}

		return Tuple{Elems: es}
	default:
		return t
	}
}
