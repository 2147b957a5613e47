package ast

type (
	Expr interface {
		Node
		expr()
	}

	Var struct {
		Loc  Location
		Name string
	}

	// Uint is a u24 literal.
	Uint struct {
		Loc   Location
		Value uint32
	}

	// Int is an i24 literal.
	Int struct {
		Loc   Location
		Value int32
	}

	// Float is an f24 literal.
	Float struct {
		Loc   Location
		Value float64
	}

	Str struct {
		Loc   Location
		Value string
	}

	Bool struct {
		Loc   Location
		Value bool
	}

	Eraser struct {
		Loc Location
	}

	Tuple struct {
		Loc   Location
		Elems []Expr
	}

	List struct {
		Loc   Location
		Elems []Expr
	}

	BinOp struct {
		Loc   Location
		Op    Op
		Left  Expr
		Right Expr
	}

	Call struct {
		Loc   Location
		Func  Expr
		Args  []Expr
		Named []*NamedArg
	}

	NamedArg struct {
		Loc   Location
		Name  string
		Value Expr
	}

	Lambda struct {
		Loc    Location
		Params []*Param
		Body   Expr
	}

	IfExpr struct {
		Loc  Location
		Cond Expr
		Then Expr
		Else Expr
	}

	Match struct {
		Loc       Location
		Scrutinee Expr
		Cases     []*Case
	}

	Case struct {
		Loc     Location
		Pattern Pattern
		Body    Expr
	}

	Access struct {
		Loc   Location
		X     Expr
		Field string
	}
)

func (x *Var) Location() Location    { return x.Loc }
func (x *Uint) Location() Location   { return x.Loc }
func (x *Int) Location() Location    { return x.Loc }
func (x *Float) Location() Location  { return x.Loc }
func (x *Str) Location() Location    { return x.Loc }
func (x *Bool) Location() Location   { return x.Loc }
func (x *Eraser) Location() Location { return x.Loc }
func (x *Tuple) Location() Location  { return x.Loc }
func (x *List) Location() Location   { return x.Loc }
func (x *BinOp) Location() Location  { return x.Loc }
func (x *Call) Location() Location   { return x.Loc }
func (x *Lambda) Location() Location { return x.Loc }
func (x *IfExpr) Location() Location { return x.Loc }
func (x *Match) Location() Location  { return x.Loc }
func (x *Access) Location() Location { return x.Loc }

func (*Var) expr()    {}
func (*Uint) expr()   {}
func (*Int) expr()    {}
func (*Float) expr()  {}
func (*Str) expr()    {}
func (*Bool) expr()   {}
func (*Eraser) expr() {}
func (*Tuple) expr()  {}
func (*List) expr()   {}
func (*BinOp) expr()  {}
func (*Call) expr()   {}
func (*Lambda) expr() {}
func (*IfExpr) expr() {}
func (*Match) expr()  {}
func (*Access) expr() {}

// IsComplex reports whether x needs its own temporary to be used as an operand.
// Binary operations and calls are complex. Variables, literals and erasers are not.
func IsComplex(x Expr) bool {
	switch x.(type) {
	case *BinOp, *Call:
		return true
	default:
		return false
	}
}

// IsLiteral reports whether x is a constant leaf.
func IsLiteral(x Expr) bool {
	switch x.(type) {
	case *Uint, *Int, *Float, *Str, *Bool, *Eraser:
		return true
	default:
		return false
	}
}
