package tp

import (
	"fmt"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

type (
	ErrorKind int

	// TypeError is the only error kind the checker returns.
	TypeError struct {
		Kind ErrorKind

		Name string
		Op   string

		Expected Type
		Found    Type

		Msg string
		Loc ast.Location
	}
)

const (
	UndefinedVariable ErrorKind = iota
	UndefinedType
	UndefinedConstructor
	TypeMismatch
	IncompatibleOperation
	Generic
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "undefined variable"
	case UndefinedType:
		return "undefined type"
	case UndefinedConstructor:
		return "undefined constructor"
	case TypeMismatch:
		return "type mismatch"
	case IncompatibleOperation:
		return "incompatible operation"
	case Generic:
		return "type error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func NewUndefinedError(kind ErrorKind, name string, l ast.Location) *TypeError {
	return &TypeError{Kind: kind, Name: name, Loc: l}
}

func NewMismatchError(exp, found Type) *TypeError {
	return &TypeError{Kind: TypeMismatch, Expected: exp, Found: found}
}

// NewOperationError reports op applied to operands outside its class.
func NewOperationError(op string, l, r Type, loc ast.Location) *TypeError {
	return &TypeError{Kind: IncompatibleOperation, Op: op, Expected: l, Found: r, Loc: loc}
}

func NewGenericError(loc ast.Location, f string, args ...any) *TypeError {
	return &TypeError{Kind: Generic, Msg: fmt.Sprintf(f, args...), Loc: loc}
}

// At sets the location unless one is already known.
func (e *TypeError) At(l ast.Location) *TypeError {
	if e.Loc == (ast.Location{}) {
		e.Loc = l
	}

	return e
}

func (e *TypeError) Error() string {
	var s string

	switch e.Kind {
	case UndefinedVariable, UndefinedType, UndefinedConstructor:
		s = fmt.Sprintf("%v: %s", e.Kind, e.Name)
	case TypeMismatch:
		s = fmt.Sprintf("type mismatch: expected %v, found %v", e.Expected, e.Found)
	case IncompatibleOperation:
		s = fmt.Sprintf("incompatible operation: %v %s %v", e.Expected, e.Op, e.Found)
	default:
		s = e.Msg
	}

	if e.Loc == (ast.Location{}) {
		return s
	}

	return e.Loc.String() + ": " + s
}
