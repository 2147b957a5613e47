package format

import (
	"context"
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// Format appends the source form of x to b.
// x is a *ast.Program, a definition, a *ast.Block, a statement, an expression or a type.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

// String is Format for diagnostics. It never fails, unsupported nodes are printed by type.
func String(x any) string {
	b, err := Format(context.Background(), nil, x)
	if err != nil {
		return string(hfmt.Appendf(nil, "<%T>", x))
	}

	return string(b)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatProgram(ctx, b, x, d)
	case ast.Definition:
		return formatDef(ctx, b, x, d)
	case *ast.Block:
		return formatBlock(ctx, b, x, d)
	case ast.Stmt:
		return formatStmt(ctx, b, x, d)
	case ast.Expr:
		return formatExpr(ctx, b, x, d)
	case ast.Type:
		return formatType(b, x)
	case ast.Pattern:
		return formatPattern(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ast.Program, d int) (_ []byte, err error) {
	for _, imp := range x.Imports {
		b = app(b, d, "import %s", imp.Path)

		if len(imp.Names) != 0 {
			b = app(b, 0, " { %s }", strings.Join(imp.Names, ", "))
		}

		b = append(b, ";\n"...)
	}

	for i, def := range x.Defs {
		if i != 0 || len(x.Imports) != 0 {
			b = append(b, '\n')
		}

		b, err = formatDef(ctx, b, def, d)
		if err != nil {
			return nil, errors.Wrap(err, "def %v", def.DefName())
		}
	}

	return b, nil
}

func formatDef(ctx context.Context, b []byte, x ast.Definition, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.FuncDef:
		return formatFunc(ctx, b, x, d)
	case *ast.TypeDef:
		b = app(b, d, "type %s", x.Name)
		b = typeParams(b, x.TypeParams)
		b = append(b, " {\n"...)

		for _, v := range x.Variants {
			b = app(b, d+1, "%s", v.Name)

			if len(v.Fields) != 0 {
				b = append(b, " { "...)

				b, err = formatFields(b, v.Fields)
				if err != nil {
					return nil, errors.Wrap(err, "variant %v", v.Name)
				}

				b = append(b, " }"...)
			}

			b = append(b, ",\n"...)
		}

		b = app(b, d, "}\n")
	case *ast.ObjectDef:
		b = app(b, d, "object %s", x.Name)
		b = typeParams(b, x.TypeParams)
		b = append(b, " {\n"...)

		for _, f := range x.Fields {
			b = app(b, d+1, "%s: ", f.Name)

			b, err = formatType(b, f.Type)
			if err != nil {
				return nil, errors.Wrap(err, "field %v", f.Name)
			}

			b = append(b, ",\n"...)
		}

		for _, f := range x.Funcs {
			b, err = formatFunc(ctx, b, f, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "method %v", f.Name)
			}
		}

		b = app(b, d, "}\n")
	case *ast.TypeAlias:
		b = app(b, d, "alias %s", x.Name)
		b = typeParams(b, x.TypeParams)
		b = append(b, " = "...)

		b, err = formatType(b, x.Type)
		if err != nil {
			return nil, err
		}

		b = append(b, ";\n"...)
	case *ast.Module:
		b = app(b, d, "module %s {\n", x.Name)

		for i, def := range x.Defs {
			if i != 0 {
				b = append(b, '\n')
			}

			b, err = formatDef(ctx, b, def, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "def %v", def.DefName())
			}
		}

		b = app(b, d, "}\n")
	default:
		return nil, errors.New("unsupported definition: %T", x)
	}

	return b, nil
}

func typeParams(b []byte, ps []string) []byte {
	if len(ps) == 0 {
		return b
	}

	return hfmt.Appendf(b, "<%s>", strings.Join(ps, ", "))
}

func formatFields(b []byte, fs []*ast.Field) (_ []byte, err error) {
	for i, f := range fs {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%s: ", f.Name)

		b, err = formatType(b, f.Type)
		if err != nil {
			return nil, errors.Wrap(err, "field %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, x *ast.FuncDef, d int) (_ []byte, err error) {
	b = app(b, d, "fn %v(", x.Name)

	b, err = formatParams(b, x.Params)
	if err != nil {
		return nil, err
	}

	b = append(b, ")"...)

	if x.Return != nil {
		b = append(b, " -> "...)

		b, err = formatType(b, x.Return)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}
	}

	b = app(b, 0, " {\n")

	b, err = formatBlock(ctx, b, x.Body, d+1)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatParams(b []byte, ps []*ast.Param) (_ []byte, err error) {
	for i, p := range ps {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = append(b, p.Name...)

		if p.Type == nil {
			continue
		}

		b = append(b, ": "...)

		b, err = formatType(b, p.Type)
		if err != nil {
			return nil, errors.Wrap(err, "param %v", p.Name)
		}
	}

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, x *ast.Block, d int) (_ []byte, err error) {
	if x == nil {
		return b, nil
	}

	for _, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, s ast.Stmt, d int) (_ []byte, err error) {
	switch s := s.(type) {
	case *ast.Return:
		if s.Value == nil {
			return app(b, d, "return;\n"), nil
		}

		b = app(b, d, "return ")

		b, err = formatExpr(ctx, b, s.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}

		b = append(b, ";\n"...)
	case *ast.Assign:
		b = app(b, d, "%s", s.Target)

		if s.Type != nil {
			b = append(b, ": "...)

			b, err = formatType(b, s.Type)
			if err != nil {
				return nil, errors.Wrap(err, "type")
			}
		}

		b = append(b, " = "...)

		b, err = formatExpr(ctx, b, s.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "rhs")
		}

		b = append(b, ";\n"...)
	case *ast.Use:
		b = app(b, d, "use %s = ", s.Name)

		b, err = formatExpr(ctx, b, s.Value, d)
		if err != nil {
			return nil, errors.Wrap(err, "use")
		}

		b = append(b, ";\n"...)
	case *ast.If:
		b = app(b, d, "if ")

		b, err = formatExpr(ctx, b, s.Cond, d)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		b = append(b, " {\n"...)

		b, err = formatBlock(ctx, b, s.Then, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "then block")
		}

		if s.Else != nil {
			b = app(b, d, "} else {\n")

			b, err = formatBlock(ctx, b, s.Else, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "else block")
			}
		}

		b = app(b, d, "}\n")
	case *ast.ExprStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.X, d)
		if err != nil {
			return nil, errors.Wrap(err, "expr")
		}

		b = append(b, ";\n"...)
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Var:
		b = append(b, x.Name...)
	case *ast.Uint:
		b = strconv.AppendUint(b, uint64(x.Value), 10)
	case *ast.Int:
		if x.Value >= 0 {
			b = append(b, '+')
		}

		b = strconv.AppendInt(b, int64(x.Value), 10)
	case *ast.Float:
		b = appendFloat(b, x.Value)
	case *ast.Str:
		b = strconv.AppendQuote(b, x.Value)
	case *ast.Bool:
		b = strconv.AppendBool(b, x.Value)
	case *ast.Eraser:
		b = append(b, '*')
	case *ast.Tuple:
		b = append(b, '(')

		b, err = formatList(ctx, b, x.Elems, d)
		if err != nil {
			return nil, err
		}

		if len(x.Elems) == 1 {
			b = append(b, ',')
		}

		b = append(b, ')')
	case *ast.List:
		b = append(b, '[')

		b, err = formatList(ctx, b, x.Elems, d)
		if err != nil {
			return nil, err
		}

		b = append(b, ']')
	case *ast.BinOp:
		b, err = formatOperand(ctx, b, x.Left, d)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = app(b, 0, " %v ", x.Op)

		b, err = formatOperand(ctx, b, x.Right, d)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	case *ast.Call:
		b, err = formatOperand(ctx, b, x.Func, d)
		if err != nil {
			return nil, errors.Wrap(err, "callee")
		}

		b = append(b, '(')

		b, err = formatList(ctx, b, x.Args, d)
		if err != nil {
			return nil, err
		}

		for i, n := range x.Named {
			if i != 0 || len(x.Args) != 0 {
				b = append(b, ", "...)
			}

			b = app(b, 0, "%s: ", n.Name)

			b, err = formatExpr(ctx, b, n.Value, d)
			if err != nil {
				return nil, errors.Wrap(err, "arg %v", n.Name)
			}
		}

		b = append(b, ')')
	case *ast.Lambda:
		b = append(b, "lambda("...)

		b, err = formatParams(b, x.Params)
		if err != nil {
			return nil, err
		}

		b = append(b, ") { "...)

		b, err = formatExpr(ctx, b, x.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "lambda")
		}

		b = append(b, " }"...)
	case *ast.IfExpr:
		b = append(b, "if "...)

		b, err = formatExpr(ctx, b, x.Cond, d)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		b = append(b, " { "...)

		b, err = formatExpr(ctx, b, x.Then, d)
		if err != nil {
			return nil, errors.Wrap(err, "then")
		}

		b = append(b, " } else "...)

		if _, ok := x.Else.(*ast.IfExpr); ok {
			return formatExpr(ctx, b, x.Else, d)
		}

		b = append(b, "{ "...)

		b, err = formatExpr(ctx, b, x.Else, d)
		if err != nil {
			return nil, errors.Wrap(err, "else")
		}

		b = append(b, " }"...)
	case *ast.Match:
		b = append(b, "match "...)

		b, err = formatExpr(ctx, b, x.Scrutinee, d)
		if err != nil {
			return nil, errors.Wrap(err, "scrutinee")
		}

		b = append(b, " { "...)

		for i, c := range x.Cases {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatPattern(ctx, b, c.Pattern)
			if err != nil {
				return nil, errors.Wrap(err, "case %d", i)
			}

			b = append(b, " => "...)

			b, err = formatExpr(ctx, b, c.Body, d)
			if err != nil {
				return nil, errors.Wrap(err, "case %d", i)
			}
		}

		b = append(b, " }"...)
	case *ast.Access:
		b, err = formatOperand(ctx, b, x.X, d)
		if err != nil {
			return nil, err
		}

		b = app(b, 0, ".%s", x.Field)
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

// formatOperand parenthesizes nested operations so the output parses back the same.
func formatOperand(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	switch x.(type) {
	case *ast.BinOp, *ast.IfExpr, *ast.Match:
	default:
		return formatExpr(ctx, b, x, d)
	}

	b = append(b, '(')

	b, err = formatExpr(ctx, b, x, d)
	if err != nil {
		return nil, err
	}

	return append(b, ')'), nil
}

func formatList(ctx context.Context, b []byte, xs []ast.Expr, d int) (_ []byte, err error) {
	for i, x := range xs {
		if i != 0 {
			b = append(b, ", "...)
		}

		b, err = formatExpr(ctx, b, x, d)
		if err != nil {
			return nil, errors.Wrap(err, "elem %d", i)
		}
	}

	return b, nil
}

func appendFloat(b []byte, v float64) []byte {
	st := len(b)

	b = strconv.AppendFloat(b, v, 'f', -1, 64)

	for _, c := range b[st:] {
		if c == '.' {
			return b
		}
	}

	return append(b, ".0"...)
}

func formatPattern(ctx context.Context, b []byte, p ast.Pattern) (_ []byte, err error) {
	switch p := p.(type) {
	case *ast.PVar:
		b = append(b, p.Name...)
	case *ast.PWild:
		b = append(b, '_')
	case *ast.PLit:
		return formatExpr(ctx, b, p.Value, 0)
	case *ast.PCons:
		b = append(b, p.Name...)

		if len(p.Args) == 0 {
			return b, nil
		}

		b = append(b, '(')

		for i, a := range p.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatPattern(ctx, b, a)
			if err != nil {
				return nil, err
			}
		}

		b = append(b, ')')
	case *ast.PTuple:
		b = append(b, '(')

		for i, e := range p.Elems {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatPattern(ctx, b, e)
			if err != nil {
				return nil, err
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported pattern: %T", p)
	}

	return b, nil
}

func formatType(b []byte, t ast.Type) (_ []byte, err error) {
	switch t := t.(type) {
	case *ast.TName:
		b = append(b, t.Name...)

		if len(t.Params) == 0 {
			return b, nil
		}

		b = append(b, '<')

		for i, p := range t.Params {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatType(b, p)
			if err != nil {
				return nil, err
			}
		}

		b = append(b, '>')
	case *ast.TFunc:
		_, paren := t.Param.(*ast.TFunc)

		if paren {
			b = append(b, '(')
		}

		b, err = formatType(b, t.Param)
		if err != nil {
			return nil, err
		}

		if paren {
			b = append(b, ')')
		}

		b = append(b, " -> "...)

		b, err = formatType(b, t.Result)
		if err != nil {
			return nil, err
		}
	case *ast.TTuple:
		b = append(b, '(')

		for i, e := range t.Elems {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatType(b, e)
			if err != nil {
				return nil, err
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported type: %T", t)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
