package ast

type (
	Stmt interface {
		Node
		stmt()
	}

	Return struct {
		Loc   Location
		Value Expr
	}

	Assign struct {
		Loc    Location
		Target string
		Type   Type // optional annotation
		Value  Expr
	}

	Use struct {
		Loc   Location
		Name  string
		Value Expr
	}

	If struct {
		Loc  Location
		Cond Expr
		Then *Block
		Else *Block // nil if absent
	}

	ExprStmt struct {
		Loc Location
		X   Expr
	}
)

func (x *Return) Location() Location   { return x.Loc }
func (x *Assign) Location() Location   { return x.Loc }
func (x *Use) Location() Location      { return x.Loc }
func (x *If) Location() Location       { return x.Loc }
func (x *ExprStmt) Location() Location { return x.Loc }

func (*Return) stmt()   {}
func (*Assign) stmt()   {}
func (*Use) stmt()      {}
func (*If) stmt()       {}
func (*ExprStmt) stmt() {}

type (
	Pattern interface {
		Node
		pattern()
	}

	PVar struct {
		Loc  Location
		Name string
	}

	PWild struct {
		Loc Location
	}

	// PLit matches a literal: *Uint, *Int, *Float, *Str or *Bool.
	PLit struct {
		Loc   Location
		Value Expr
	}

	PCons struct {
		Loc  Location
		Name string
		Args []Pattern
	}

	PTuple struct {
		Loc   Location
		Elems []Pattern
	}
)

func (x *PVar) Location() Location   { return x.Loc }
func (x *PWild) Location() Location  { return x.Loc }
func (x *PLit) Location() Location   { return x.Loc }
func (x *PCons) Location() Location  { return x.Loc }
func (x *PTuple) Location() Location { return x.Loc }

func (*PVar) pattern()   {}
func (*PWild) pattern()  {}
func (*PLit) pattern()   {}
func (*PCons) pattern()  {}
func (*PTuple) pattern() {}

type (
	// Type is a type as written in the source.
	Type interface {
		Node
		typ()
	}

	TName struct {
		Loc    Location
		Name   string
		Params []Type
	}

	TFunc struct {
		Loc    Location
		Param  Type
		Result Type
	}

	TTuple struct {
		Loc   Location
		Elems []Type
	}
)

func (x *TName) Location() Location  { return x.Loc }
func (x *TFunc) Location() Location  { return x.Loc }
func (x *TTuple) Location() Location { return x.Loc }

func (*TName) typ()  {}
func (*TFunc) typ()  {}
func (*TTuple) typ() {}
