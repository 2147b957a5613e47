package ast

import "fmt"

type (
	Node interface {
		Location() Location
	}

	// Location is used for diagnostics only.
	Location struct {
		Line   int
		Column int
		Pos    int
		End    int
	}

	Program struct {
		Imports []*Import
		Defs    []Definition
	}

	Import struct {
		Loc   Location
		Path  string
		Names []string
	}

	Definition interface {
		Node
		DefName() string
		def()
	}

	FuncDef struct {
		Loc     Location
		Name    string
		Params  []*Param
		Return  Type // nil if not annotated
		Body    *Block
		Checked bool
	}

	TypeDef struct {
		Loc        Location
		Name       string
		TypeParams []string
		Variants   []*Variant
	}

	Variant struct {
		Loc    Location
		Name   string
		Fields []*Field
	}

	ObjectDef struct {
		Loc        Location
		Name       string
		TypeParams []string
		Fields     []*Field
		Funcs      []*FuncDef
	}

	TypeAlias struct {
		Loc        Location
		Name       string
		TypeParams []string
		Type       Type
	}

	Module struct {
		Loc  Location
		Name string
		Defs []Definition
	}

	Param struct {
		Loc  Location
		Name string
		Type Type // nil if not annotated
	}

	Field struct {
		Loc  Location
		Name string
		Type Type
	}

	Block struct {
		Loc   Location
		Stmts []Stmt
	}
)

func (x *FuncDef) Location() Location   { return x.Loc }
func (x *TypeDef) Location() Location   { return x.Loc }
func (x *ObjectDef) Location() Location { return x.Loc }
func (x *TypeAlias) Location() Location { return x.Loc }
func (x *Module) Location() Location    { return x.Loc }
func (x *Param) Location() Location     { return x.Loc }
func (x *Block) Location() Location     { return x.Loc }

func (x *FuncDef) DefName() string   { return x.Name }
func (x *TypeDef) DefName() string   { return x.Name }
func (x *ObjectDef) DefName() string { return x.Name }
func (x *TypeAlias) DefName() string { return x.Name }
func (x *Module) DefName() string    { return x.Name }

func (*FuncDef) def()   {}
func (*TypeDef) def()   {}
func (*ObjectDef) def() {}
func (*TypeAlias) def() {}
func (*Module) def()    {}

func (l Location) String() string {
	if l.Line == 0 {
		return fmt.Sprintf("pos %d", l.Pos)
	}

	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
