package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/format"
	"github.com/developerfred/Bend-PVM-sub000/compiler/parse"
)

func parseProg(t *testing.T, text string) *ast.Program {
	t.Helper()

	p, err := parse.Parse(context.Background(), "test.bend", []byte(text))
	require.NoError(t, err)

	return p
}

func run(t *testing.T, pass Pass, p *ast.Program) Result {
	t.Helper()

	res, err := pass.Run(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, res.Program)

	if !res.Modified {
		assert.Same(t, p, res.Program, "unchanged program must be returned as is")
	}

	return res
}

func src(t *testing.T, p *ast.Program) string {
	t.Helper()

	b, err := format.Format(context.Background(), nil, p)
	require.NoError(t, err)

	return string(b)
}

// retExpr runs the pass over `return expr;` and formats the resulting returned value.
func retExpr(t *testing.T, pass Pass, expr string) (string, bool) {
	t.Helper()

	p := parseProg(t, "fn f(x: f24, y: f24) { return "+expr+"; }")
	res := run(t, pass, p)

	stmts := res.Program.Defs[0].(*ast.FuncDef).Body.Stmts
	require.Len(t, stmts, 1)

	return format.String(stmts[0].(*ast.Return).Value), res.Modified
}

func TestEta(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
	}{
		{"lambda(x) { f(x) }", "f"},
		{"lambda(x, y) { f(x, y) }", "f"},
		{"lambda(x, y) { f(y, x) }", ""},
		{"lambda(x) { f(x, x) }", ""},
		{"lambda(x) { f(x, 1) }", ""},
		{"lambda(x) { x(x) }", ""},
		{"lambda(x) { g(x)(x) }", ""},
		{"lambda(x) { f(v: x) }", ""},
		{"lambda() { f() }", ""},
		{"lambda(a) { lambda(x) { f(x) }(a) }", "f"},
		{"g(lambda(x) { math/sqrt(x) })", "g(math/sqrt)"},
	} {
		exp := tc.out
		if exp == "" {
			exp = tc.in
		}

		got, modified := retExpr(t, NewEta(), tc.in)
		assert.Equal(t, exp, got, "in %v", tc.in)
		assert.Equal(t, tc.out != "", modified, "in %v", tc.in)
	}
}

func TestFloat(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
	}{
		{"2.0 + 3.0", "5.0"},
		{"2.0 - 3.5", "-1.5"},
		{"2.0 * 3.0", "6.0"},
		{"3.0 / 2.0", "1.5"},
		{"7.0 % 2.0", "1.0"},
		{"2.0 ** 3.0", "8.0"},
		{"(2.0 + 3.0) * 1.0", "5.0"},
		{"1.0 < 2.0", "1"},
		{"2.0 == 3.0", "0"},
		{"2.0 != 3.0", "1"},
		{"2.0 >= 3.0", "0"},
		{"x + 0.0", "x"},
		{"0.0 + x", "x"},
		{"x - 0.0", "x"},
		{"x * 1.0", "x"},
		{"1.0 * x", "x"},
		{"y * 0.0", "0.0"},
		{"0.0 * y", "0.0"},
		{"x / 1.0", "x"},
		{"x ** 1.0", "x"},
		{"x ** 0.0", "1.0"},
		{"f(x * 1.0, 1.0 + 1.0)", "f(x, 2.0)"},
		{"x / 0.0", ""},
		{"x % 0.0", ""},
		{"2.0 / 0.0", ""},
		{"0.0 - x", ""},
		{"x + y", ""},
		{"1 + 0", ""},
	} {
		exp := tc.out
		if exp == "" {
			exp = tc.in
		}

		got, modified := retExpr(t, NewFloat(), tc.in)
		assert.Equal(t, exp, got, "in %v", tc.in)
		assert.Equal(t, tc.out != "", modified, "in %v", tc.in)
	}
}

func TestFloatIdempotent(t *testing.T) {
	p := parseProg(t, `fn f(x: f24) -> f24 { y = (x * 1.0 + 0.0) * (2.0 ** 2.0); return y / 0.0; }`)

	res := run(t, NewFloat(), p)
	require.True(t, res.Modified)

	res2 := run(t, NewFloat(), res.Program)
	assert.False(t, res2.Modified)
	assert.Equal(t, "fn f(x: f24) -> f24 {\n\ty = x * 4.0;\n\treturn y / 0.0;\n}\n", src(t, res2.Program))
}

func TestLinearize(t *testing.T) {
	p := parseProg(t, `fn main() { return f(g(1), h(2)); }`)

	l := NewLinearize()

	res := run(t, l, p)
	require.True(t, res.Modified)
	assert.Equal(t, `fn main() {
	__lin_1 = g(1);
	__lin_2 = h(2);
	return f(__lin_1, __lin_2);
}
`, src(t, res.Program))

	res2 := run(t, l, res.Program)
	assert.False(t, res2.Modified)

	res3 := run(t, NewLinearize(), res.Program)
	assert.False(t, res3.Modified)
}

func TestLinearizeShapes(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
	}{
		{"return f(g(h(1)));", "__lin_1 = h(1);\n__lin_2 = g(__lin_1);\nreturn f(__lin_2);\n"},
		{"return a + b * c;", "__lin_1 = b * c;\nreturn a + __lin_1;\n"},
		{"return (a + b) * (c - d);", "__lin_1 = a + b;\n__lin_2 = c - d;\nreturn __lin_1 * __lin_2;\n"},
		{"x = f(1)(2);", "__lin_1 = f(1);\nx = __lin_1(2);\n"},
		{"return Pair(a: f(1), b: 2);", "__lin_1 = f(1);\nreturn Pair(a: __lin_1, b: 2);\n"},
		{"return (f(g(1)), 2);", "__lin_1 = g(1);\nreturn (f(__lin_1), 2);\n"},
		{"return f(1) + 2;", "__lin_1 = f(1);\nreturn __lin_1 + 2;\n"},
		{"return f(a, 1);", ""},
		{"return a + b;", ""},
		{"return if f(g(1)) { h(k(2)) } else { 0 };", "__lin_1 = g(1);\nreturn if f(__lin_1) { h(k(2)) } else { 0 };\n"},
		{"return match f(g(1)) { 0 => h(k(2)), n => n };", "__lin_1 = g(1);\nreturn match f(__lin_1) { 0 => h(k(2)), n => n };\n"},
		{"return lambda(x) { f(g(x)) };", ""},
		{"if f(g(1)) { return h(k(2)); }", "__lin_1 = g(1);\nif f(__lin_1) {\n\t__lin_2 = k(2);\n\treturn h(__lin_2);\n}\n"},
	} {
		exp := tc.out
		if exp == "" {
			exp = tc.in + "\n"
		}

		p := parseProg(t, "fn f() {\n"+tc.in+"\n}")
		res := run(t, NewLinearize(), p)

		b, err := format.Format(context.Background(), nil, res.Program.Defs[0].(*ast.FuncDef).Body)
		require.NoError(t, err)

		assert.Equal(t, exp, string(b), "in %v", tc.in)
		assert.Equal(t, tc.out != "", res.Modified, "in %v", tc.in)
	}
}

func TestLinearizeCounter(t *testing.T) {
	p := parseProg(t, `
fn a() { return f(g(1)); }
fn b() { __lin_7 = g(1); return f(h(2) + 1); }
`)

	res := run(t, NewLinearize(), p)

	assert.Equal(t, `fn a() {
	__lin_8 = g(1);
	return f(__lin_8);
}

fn b() {
	__lin_7 = g(1);
	__lin_9 = h(2);
	__lin_10 = __lin_9 + 1;
	return f(__lin_10);
}
`, src(t, res.Program))
}

func TestUnreachable(t *testing.T) {
	p := parseProg(t, `
fn f(x: u24) -> u24 {
	if x {
		return 1;
		y = 2;
	} else {
		return 2;
	}
	return 3;
}

fn g() -> u24 { return 1; }
`)

	res := run(t, NewUnreachable(), p)
	require.True(t, res.Modified)

	assert.Equal(t, `fn f(x: u24) -> u24 {
	if x {
		return 1;
	} else {
		return 2;
	}
}

fn g() -> u24 {
	return 1;
}
`, src(t, res.Program))

	assert.Same(t, p.Defs[1], res.Program.Defs[1])

	res = run(t, NewUnreachable(), res.Program)
	assert.False(t, res.Modified)

	res = run(t, NewUnreachable(), parseProg(t, `fn f(x: u24) { if x { return 1; } return 2; }`))
	assert.False(t, res.Modified)
}

const addMain = `
fn add(a: u24, b: u24) -> u24 { return a + b; }
fn main() -> u24 { return add(1, 2); }
`

func TestManagerAddMain(t *testing.T) {
	for _, lv := range []Level{None, Standard, Aggressive} {
		p := parseProg(t, addMain)

		res, err := Optimize(context.Background(), p, lv)
		require.NoError(t, err)
		assert.Same(t, p, res, "level %v", lv)
	}
}

func TestManagerFixpoint(t *testing.T) {
	p := parseProg(t, `
fn main(x: f24) -> f24 {
	k = lambda(v) { sqrt(v) };
	return k(x * (1.0 + 0.0)) + g(2.0 * 3.0);
	return 0.0;
}
`)
	before := src(t, p)

	res, err := New(Aggressive).Optimize(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, before, src(t, p), "input mutated")

	assert.Equal(t, `fn main(x: f24) -> f24 {
	k = sqrt;
	__lin_1 = k(x);
	__lin_2 = g(6.0);
	return __lin_1 + __lin_2;
}
`, src(t, res))

	again, err := New(Aggressive).Optimize(context.Background(), res)
	require.NoError(t, err)
	assert.Same(t, res, again)
}

type countPass struct {
	runs int
	err  error
}

func (p *countPass) Name() string { return "count" }

func (p *countPass) Run(ctx context.Context, prog *ast.Program) (Result, error) {
	p.runs++

	if p.err != nil {
		return Result{}, p.err
	}

	return Result{Program: prog, Modified: true}, nil
}

func TestManagerIterationLimit(t *testing.T) {
	c := &countPass{}

	m := New(Standard, WithPasses(c), WithMaxIterations(3))
	assert.Equal(t, []string{"count"}, m.Passes())

	_, err := m.Optimize(context.Background(), parseProg(t, addMain))
	require.NoError(t, err)
	assert.Equal(t, 3, c.runs)
}

func TestManagerError(t *testing.T) {
	c := &countPass{err: &Error{Pass: "count", Msg: "broken"}}

	_, err := New(None, WithPasses(c)).Optimize(context.Background(), parseProg(t, addMain))

	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "broken", oe.Msg)
	assert.Equal(t, 1, c.runs)
}

func TestLevels(t *testing.T) {
	assert.Empty(t, New(None).Passes())
	assert.Equal(t, []string{"eta-reduction", "float-combination", "linearization"}, New(Standard).Passes())
	assert.Equal(t, []string{"eta-reduction", "float-combination", "unreachable", "linearization"}, New(Aggressive).Passes())

	for _, tc := range []struct {
		s  string
		lv Level
	}{
		{"none", None},
		{"Standard", Standard},
		{"aggressive", Aggressive},
		{"1", Standard},
	} {
		lv, err := ParseLevel(tc.s)
		assert.NoError(t, err)
		assert.Equal(t, tc.lv, lv)
	}

	_, err := ParseLevel("O3")
	assert.Error(t, err)

	assert.Equal(t, "standard", Standard.String())
}
