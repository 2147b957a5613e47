package tp

import (
	"sort"
	"strconv"

	"tlog.app/go/tlog/tlwire"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

type (
	// Subst maps type variables to types.
	// Maps built by Unifier are acyclic, which makes Apply idempotent.
	Subst map[Var]Type

	// Unifier is a substitution together with a fresh variable counter.
	// There is no union-find, so Apply walks variable chains every time.
	Unifier struct {
		Subst Subst

		Prefix string
		Limit  int

		n     int
		steps int
	}
)

const DefaultStepLimit = 100000

func NewUnifier(prefix string, limit int) *Unifier {
	if prefix == "" {
		prefix = "t"
	}

	return &Unifier{
		Subst:  Subst{},
		Prefix: prefix,
		Limit:  limit,
	}
}

// Fresh returns a new variable named prefix_n.
func (u *Unifier) Fresh() Var {
	u.n++

	return Var(u.Prefix + "_" + strconv.Itoa(u.n))
}

func (u *Unifier) Apply(t Type) Type { return u.Subst.Apply(t) }

// Unify makes a and b equal extending the substitution or returns a TypeError.
func (u *Unifier) Unify(a, b Type) error {
	if err := u.unify(a, b); err != nil {
		return err
	}

	return nil
}

func (u *Unifier) unify(a, b Type) *TypeError {
	u.steps++

	if u.Limit > 0 && u.steps > u.Limit {
		return NewGenericError(ast.Location{}, "unification step limit exceeded (%d)", u.Limit)
	}

	a = u.Subst.Apply(a)
	b = u.Subst.Apply(b)

	if av, ok := a.(Var); ok && !av.Rigid() {
		return u.bind(av, b)
	}

	if bv, ok := b.(Var); ok && !bv.Rigid() {
		return u.bind(bv, a)
	}

	_, aany := a.(Any)
	_, bany := b.(Any)

	if aany || bany {
		return nil
	}

	switch x := a.(type) {
	case Named:
		y, ok := b.(Named)
		if !ok || x.Name != y.Name || len(x.Params) != len(y.Params) {
			break
		}

		for i := range x.Params {
			if err := u.unify(x.Params[i], y.Params[i]); err != nil {
				return err
			}
		}

		return nil
	case Func:
		y, ok := b.(Func)
		if !ok {
			break
		}

		if err := u.unify(x.Param, y.Param); err != nil {
			return err
		}

		return u.unify(x.Result, y.Result)
	case Tuple:
		y, ok := b.(Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			break
		}

		for i := range x.Elems {
			if err := u.unify(x.Elems[i], y.Elems[i]); err != nil {
				return err
			}
		}

		return nil
	}

	if Equal(a, b) {
		return nil
	}

	return NewMismatchError(u.Subst.Apply(a), u.Subst.Apply(b))
}

func (u *Unifier) bind(v Var, t Type) *TypeError {
	if tv, ok := t.(Var); ok && tv == v {
		return nil
	}

	if Occurs(v, t) {
		return NewMismatchError(v, t)
	}

	u.Subst[v] = t

	return nil
}

// Apply rewrites t through the substitution until no bound variable is left.
func (s Subst) Apply(t Type) Type {
	return s.apply(t, 0)
}

func (s Subst) apply(t Type, depth int) Type {
	switch t := t.(type) {
	case Var:
		r, ok := s[t]
		if !ok || depth > len(s) {
			return t
		}

		return s.apply(r, depth+1)
	case Named:
		if len(t.Params) == 0 {
			return t
		}

		ps := make([]Type, len(t.Params))
		for i, p := range t.Params {
			ps[i] = s.apply(p, depth)
		}

		return Named{Name: t.Name, Params: ps}
	case Func:
		return Func{Param: s.apply(t.Param, depth), Result: s.apply(t.Result, depth)}
	case Tuple:
		es := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			es[i] = s.apply(e, depth)
		}

		return Tuple{Elems: es}
	default:
		return t
	}
}

func (s Subst) keys() []Var {
	ks := make([]Var, 0, len(s))

	for k := range s {
		ks = append(ks, k)
	}

	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })

	return ks
}

func (s Subst) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, len(s))

	for _, k := range s.keys() {
		b = e.AppendString(b, string(k))
		b = e.AppendString(b, s[k].String())
	}

	return b
}
