package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

// binary operator levels from the loosest binding to the tightest.
var levels = [][]ast.Op{
	{ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe},
	{ast.OpOr},
	{ast.OpXor},
	{ast.OpAnd},
	{ast.OpShl, ast.OpShr},
	{ast.OpAdd, ast.OpSub},
	{ast.OpMul, ast.OpDiv, ast.OpMod},
}

func (p *Parser) parseExpr(ctx context.Context, st int) (ast.Expr, int, error) {
	return p.parseBinary(ctx, st, 0)
}

func (p *Parser) parseBinary(ctx context.Context, st int, level int) (x ast.Expr, i int, err error) {
	if level == len(levels) {
		return p.parsePower(ctx, st)
	}

	xst := p.skip(st)

	x, i, err = p.parseBinary(ctx, st, level+1)
	if err != nil {
		return nil, st, err
	}

	for {
		tok, j := p.punct(i)

		op, ok := ast.ParseOp(tok)
		if !ok || !hasOp(levels[level], op) {
			return x, i, nil
		}

		var r ast.Expr

		r, i, err = p.parseBinary(ctx, j, level+1)
		if err != nil {
			return nil, st, errors.Wrap(err, "operand of %v", op)
		}

		x = &ast.BinOp{Loc: p.Loc(xst, i), Op: op, Left: x, Right: r}
	}
}

func hasOp(ops []ast.Op, op ast.Op) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}

	return false
}

// parsePower parses right associative **.
func (p *Parser) parsePower(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	xst := p.skip(st)

	x, i, err = p.parsePostfix(ctx, st)
	if err != nil {
		return nil, st, err
	}

	j, ok := p.is(i, "**")
	if !ok {
		return x, i, nil
	}

	r, i, err := p.parsePower(ctx, j)
	if err != nil {
		return nil, st, errors.Wrap(err, "operand of **")
	}

	return &ast.BinOp{Loc: p.Loc(xst, i), Op: ast.OpPow, Left: x, Right: r}, i, nil
}

func (p *Parser) parsePostfix(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	xst := p.skip(st)

	x, i, err = p.parsePrimary(ctx, st)
	if err != nil {
		return nil, st, err
	}

	for {
		if j, ok := p.is(i, "("); ok {
			c := &ast.Call{Func: x}

			c.Args, c.Named, i, err = p.parseArgs(ctx, j)
			if err != nil {
				return nil, st, err
			}

			c.Loc = p.Loc(xst, i)
			x = c

			continue
		}

		if j, ok := p.is(i, "."); ok {
			j = p.skip(j)

			f, k, ok := p.ident(j)
			if !ok {
				k = j
				for k < len(p.b) && isDigit(p.b[k]) {
					k++
				}

				if k == j {
					return nil, st, p.unexpected(j, "field")
				}

				f = string(p.b[j:k])
			}

			i = k
			x = &ast.Access{Loc: p.Loc(xst, i), X: x, Field: f}

			continue
		}

		return x, i, nil
	}
}

func (p *Parser) parseArgs(ctx context.Context, st int) (args []ast.Expr, named []*ast.NamedArg, i int, err error) {
	i = st

	if j, ok := p.is(i, ")"); ok {
		return nil, nil, j, nil
	}

	for {
		var n *ast.NamedArg

		n, i, err = p.parseNamedArg(ctx, i)
		if err != nil {
			return nil, nil, st, err
		}

		switch {
		case n != nil:
			named = append(named, n)
		case len(named) != 0:
			return nil, nil, st, p.unexpected(i, "named argument")
		default:
			var a ast.Expr

			a, i, err = p.parseExpr(ctx, i)
			if err != nil {
				return nil, nil, st, errors.Wrap(err, "argument")
			}

			args = append(args, a)
		}

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		break
	}

	i, err = p.expect(i, ")")
	if err != nil {
		return nil, nil, st, err
	}

	return args, named, i, nil
}

// parseNamedArg reads `name: expr`, returning nil if the argument is positional.
func (p *Parser) parseNamedArg(ctx context.Context, st int) (_ *ast.NamedArg, i int, err error) {
	nst := p.skip(st)

	n, j, ok := p.ident(nst)
	if !ok || keywords[n] {
		return nil, st, nil
	}

	j, ok = p.is(j, ":")
	if !ok {
		return nil, st, nil
	}

	v, i, err := p.parseExpr(ctx, j)
	if err != nil {
		return nil, st, errors.Wrap(err, "argument %v", n)
	}

	return &ast.NamedArg{Loc: p.Loc(nst, i), Name: n, Value: v}, i, nil
}

func (p *Parser) parsePrimary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	i = p.skip(st)
	xst := i

	if i == len(p.b) {
		return nil, st, p.unexpected(i, "expression")
	}

	c := p.b[i]

	switch {
	case isDigit(c):
		return p.parseNumber(xst, i, false)
	case (c == '-' || c == '+') && i+1 < len(p.b) && isDigit(p.b[i+1]):
		return p.parseNumber(xst, i+1, true)
	case c == '"':
		return p.parseString(xst)
	}

	if j, ok := p.keyword(i, "true"); ok {
		return &ast.Bool{Loc: p.Loc(xst, j), Value: true}, j, nil
	}

	if j, ok := p.keyword(i, "false"); ok {
		return &ast.Bool{Loc: p.Loc(xst, j), Value: false}, j, nil
	}

	if j, ok := p.keyword(i, "lambda"); ok {
		return p.parseLambda(ctx, xst, j)
	}

	if j, ok := p.keyword(i, "if"); ok {
		return p.parseIfExpr(ctx, xst, j)
	}

	if j, ok := p.keyword(i, "match"); ok {
		return p.parseMatch(ctx, xst, j)
	}

	if n, j, ok := p.ident(i); ok {
		if keywords[n] {
			return nil, st, p.unexpected(i, "expression")
		}

		return &ast.Var{Loc: p.Loc(xst, j), Name: n}, j, nil
	}

	tok, j := p.punct(i)

	switch tok {
	case "*":
		return &ast.Eraser{Loc: p.Loc(xst, j)}, j, nil
	case "(":
		var elems []ast.Expr

		elems, i, err = p.parseList(ctx, j, ")")
		if err != nil {
			return nil, st, err
		}

		if len(elems) == 1 && !p.trailingComma(i) {
			return elems[0], i, nil
		}

		return &ast.Tuple{Loc: p.Loc(xst, i), Elems: elems}, i, nil
	case "[":
		var elems []ast.Expr

		elems, i, err = p.parseList(ctx, j, "]")
		if err != nil {
			return nil, st, err
		}

		return &ast.List{Loc: p.Loc(xst, i), Elems: elems}, i, nil
	}

	return nil, st, p.unexpected(i, "expression")
}

// trailingComma reports whether the list closed at end had a comma before the closing bracket.
func (p *Parser) trailingComma(end int) bool {
	i := end - 2

	for i >= 0 && SpaceAll.Skip(p.b, i) != i {
		i--
	}

	return i >= 0 && p.b[i] == ','
}

func (p *Parser) parseList(ctx context.Context, st int, end string) (elems []ast.Expr, i int, err error) {
	i = st

	for {
		if j, ok := p.is(i, end); ok {
			return elems, j, nil
		}

		var e ast.Expr

		e, i, err = p.parseExpr(ctx, i)
		if err != nil {
			return nil, st, err
		}

		elems = append(elems, e)

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		i, err = p.expect(i, end)
		if err != nil {
			return nil, st, err
		}

		return elems, i, nil
	}
}

func (p *Parser) parseNumber(xst, st int, signed bool) (ast.Expr, int, error) {
	i := st
	base := 10

	if bytesHasPrefix(p.b[i:], "0x") {
		base = 16
		i += 2
		st = i

		for i < len(p.b) && (isDigit(p.b[i]) || p.b[i] >= 'a' && p.b[i] <= 'f' || p.b[i] >= 'A' && p.b[i] <= 'F') {
			i++
		}
	} else {
		for i < len(p.b) && isDigit(p.b[i]) {
			i++
		}
	}

	float := false

	if base == 10 && i+1 < len(p.b) && p.b[i] == '.' && isDigit(p.b[i+1]) {
		float = true
		i++

		for i < len(p.b) && isDigit(p.b[i]) {
			i++
		}
	}

	neg := signed && p.b[xst] == '-'
	digits := string(p.b[st:i])
	loc := p.Loc(xst, i)

	switch {
	case float:
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return nil, xst, errors.Wrap(err, "%v: float", loc)
		}

		if neg {
			v = -v
		}

		return &ast.Float{Loc: loc, Value: v}, i, nil
	case signed:
		v, err := strconv.ParseInt(digits, base, 32)
		if neg {
			v = -v
		}

		if err != nil || v < -(1<<23) || v >= 1<<23 {
			return nil, xst, errors.New("%v: i24 literal out of range: %s", loc, p.b[xst:i])
		}

		return &ast.Int{Loc: loc, Value: int32(v)}, i, nil
	default:
		v, err := strconv.ParseUint(digits, base, 32)
		if err != nil || v >= 1<<24 {
			return nil, xst, errors.New("%v: u24 literal out of range: %s", loc, p.b[xst:i])
		}

		return &ast.Uint{Loc: loc, Value: uint32(v)}, i, nil
	}
}

func bytesHasPrefix(b []byte, s string) bool {
	return len(b) >= len(s) && string(b[:len(s)]) == s
}

func (p *Parser) parseString(st int) (ast.Expr, int, error) {
	i := st + 1

	for i < len(p.b) && p.b[i] != '"' {
		if p.b[i] == '\\' {
			i++
		}

		i++
	}

	if i >= len(p.b) {
		return nil, st, p.unexpected(i, "closing quote")
	}

	i++

	s, err := strconv.Unquote(string(p.b[st:i]))
	if err != nil {
		return nil, st, errors.Wrap(err, "%v: string", p.Loc(st, i))
	}

	return &ast.Str{Loc: p.Loc(st, i), Value: s}, i, nil
}

func (p *Parser) parseLambda(ctx context.Context, st, i int) (_ ast.Expr, _ int, err error) {
	l := &ast.Lambda{}

	l.Params, i, err = p.parseParams(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "lambda")
	}

	i, err = p.expect(i, "{")
	if err != nil {
		return nil, st, err
	}

	l.Body, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "lambda body")
	}

	i, err = p.expect(i, "}")
	if err != nil {
		return nil, st, err
	}

	l.Loc = p.Loc(st, i)

	return l, i, nil
}

func (p *Parser) parseBraced(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	i, err = p.expect(st, "{")
	if err != nil {
		return nil, st, err
	}

	x, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, err
	}

	i, err = p.expect(i, "}")
	if err != nil {
		return nil, st, err
	}

	return x, i, nil
}

func (p *Parser) parseIfExpr(ctx context.Context, st, i int) (_ ast.Expr, _ int, err error) {
	x := &ast.IfExpr{}

	x.Cond, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "if condition")
	}

	x.Then, i, err = p.parseBraced(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "then")
	}

	j, ok := p.keyword(i, "else")
	if !ok {
		return nil, st, p.unexpected(i, "else")
	}

	if k, ok := p.keyword(j, "if"); ok {
		x.Else, i, err = p.parseIfExpr(ctx, p.skip(j), k)
	} else {
		x.Else, i, err = p.parseBraced(ctx, j)
	}
	if err != nil {
		return nil, st, errors.Wrap(err, "else")
	}

	x.Loc = p.Loc(st, i)

	return x, i, nil
}

func (p *Parser) parseMatch(ctx context.Context, st, i int) (_ ast.Expr, _ int, err error) {
	m := &ast.Match{}

	m.Scrutinee, i, err = p.parseExpr(ctx, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "match")
	}

	i, err = p.expect(i, "{")
	if err != nil {
		return nil, st, err
	}

	for {
		if j, ok := p.is(i, "}"); ok {
			i = j
			break
		}

		cst := p.skip(i)

		cs := &ast.Case{}

		cs.Pattern, i, err = p.parsePattern(ctx, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "case")
		}

		i, err = p.expect(i, "=>")
		if err != nil {
			return nil, st, err
		}

		cs.Body, i, err = p.parseExpr(ctx, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "case body")
		}

		cs.Loc = p.Loc(cst, i)
		m.Cases = append(m.Cases, cs)

		if j, ok := p.is(i, ","); ok {
			i = j
			continue
		}

		i, err = p.expect(i, "}")
		if err != nil {
			return nil, st, err
		}

		break
	}

	m.Loc = p.Loc(st, i)

	return m, i, nil
}

func (p *Parser) parsePattern(ctx context.Context, st int) (_ ast.Pattern, i int, err error) {
	i = p.skip(st)
	pst := i

	if n, j, ok := p.ident(i); ok && !keywords[n] {
		if n == "_" {
			return &ast.PWild{Loc: p.Loc(pst, j)}, j, nil
		}

		if k, ok := p.is(j, "("); ok {
			c := &ast.PCons{Name: n}

			i = k

			for {
				if k, ok := p.is(i, ")"); ok {
					i = k
					break
				}

				var a ast.Pattern

				a, i, err = p.parsePattern(ctx, i)
				if err != nil {
					return nil, st, err
				}

				c.Args = append(c.Args, a)

				if k, ok := p.is(i, ","); ok {
					i = k
					continue
				}

				i, err = p.expect(i, ")")
				if err != nil {
					return nil, st, err
				}

				break
			}

			c.Loc = p.Loc(pst, i)

			return c, i, nil
		}

		if isUpper(n[0]) {
			return &ast.PCons{Loc: p.Loc(pst, j), Name: n}, j, nil
		}

		return &ast.PVar{Loc: p.Loc(pst, j), Name: n}, j, nil
	}

	if j, ok := p.is(i, "("); ok {
		t := &ast.PTuple{}

		i = j

		for {
			if k, ok := p.is(i, ")"); ok {
				i = k
				break
			}

			var e ast.Pattern

			e, i, err = p.parsePattern(ctx, i)
			if err != nil {
				return nil, st, err
			}

			t.Elems = append(t.Elems, e)

			if k, ok := p.is(i, ","); ok {
				i = k
				continue
			}

			i, err = p.expect(i, ")")
			if err != nil {
				return nil, st, err
			}

			break
		}

		t.Loc = p.Loc(pst, i)

		return t, i, nil
	}

	x, i, err := p.parsePrimary(ctx, st)
	if err != nil {
		return nil, st, errors.Wrap(err, "pattern")
	}

	if !ast.IsLiteral(x) {
		return nil, st, p.unexpected(st, "pattern")
	}

	return &ast.PLit{Loc: x.Location(), Value: x}, i, nil
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
