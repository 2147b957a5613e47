package ast

import "fmt"

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
)

type OpClass int

const (
	Arithmetic OpClass = iota
	Comparison
	Bitwise
	Shift
	Power
)

var opNames = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpPow: "**",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&",
	OpOr:  "|",
	OpXor: "^",
	OpShl: "<<",
	OpShr: ">>",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}

	return fmt.Sprintf("Op(%d)", int(op))
}

func (op Op) Class() OpClass {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return Arithmetic
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return Comparison
	case OpAnd, OpOr, OpXor:
		return Bitwise
	case OpShl, OpShr:
		return Shift
	default:
		return Power
	}
}

// ParseOp returns the operator spelled s.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return Op(op), true
		}
	}

	return 0, false
}
