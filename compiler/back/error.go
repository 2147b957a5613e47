package back

import (
	"fmt"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

type (
	ErrorKind int

	Error struct {
		Kind ErrorKind
		Name string
		Msg  string
		Loc  ast.Location
	}
)

const (
	UndefinedVariable ErrorKind = iota
	UnsupportedFeature
	InvalidOperation
	Generic
)

var kindNames = []string{
	UndefinedVariable:  "undefined variable",
	UnsupportedFeature: "unsupported feature",
	InvalidOperation:   "invalid operation",
	Generic:            "codegen error",
}

func newError(kind ErrorKind, l ast.Location, name string, f string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Name: name,
		Msg:  fmt.Sprintf(f, args...),
		Loc:  l,
	}
}

func undefined(l ast.Location, name string) *Error {
	return &Error{Kind: UndefinedVariable, Name: name, Loc: l}
}

func unsupported(l ast.Location, what string) *Error {
	return &Error{Kind: UnsupportedFeature, Msg: what, Loc: l}
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (e *Error) Error() string {
	var b []byte

	if e.Loc != (ast.Location{}) {
		b = fmt.Appendf(b, "%v: ", e.Loc)
	}

	b = append(b, e.Kind.String()...)

	switch {
	case e.Name != "" && e.Msg != "":
		b = fmt.Appendf(b, ": %s: %s", e.Name, e.Msg)
	case e.Name != "":
		b = fmt.Appendf(b, ": %s", e.Name)
	case e.Msg != "":
		b = fmt.Appendf(b, ": %s", e.Msg)
	}

	return string(b)
}
