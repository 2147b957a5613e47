package analyze

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/env"
	"github.com/developerfred/Bend-PVM-sub000/compiler/parse"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

const addMain = `
fn add(a: u24, b: u24) -> u24 { return a + b; }
fn main() -> u24 { return add(1, 2); }
`

func parseProg(t *testing.T, text string) *ast.Program {
	t.Helper()

	p, err := parse.Parse(context.Background(), "test.bend", []byte(text))
	require.NoError(t, err)

	return p
}

func check(t *testing.T, text string, opts ...Option) (*Checker, error) {
	t.Helper()

	c := New(opts...)

	return c, c.CheckProgram(context.Background(), parseProg(t, text))
}

func checkErr(t *testing.T, text string, kind tp.ErrorKind) *tp.TypeError {
	t.Helper()

	_, err := check(t, text)

	var te *tp.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, kind, te.Kind, "error: %v", err)

	return te
}

func TestAddMain(t *testing.T) {
	c, err := check(t, addMain)
	require.NoError(t, err)

	ft, ok := c.FuncType("add")
	require.True(t, ok)
	assert.Equal(t, "u24 -> u24 -> u24", ft.String())

	ft, ok = c.FuncType("main")
	require.True(t, ok)
	assert.Equal(t, tp.U24, ft)
}

func TestTypeOf(t *testing.T) {
	p := parseProg(t, addMain)

	c := New()
	require.NoError(t, c.CheckProgram(context.Background(), p))

	ret := p.Defs[0].(*ast.FuncDef).Body.Stmts[0].(*ast.Return)

	typ, ok := c.TypeOf(ret.Value)
	require.True(t, ok)
	assert.Equal(t, tp.U24, typ)

	typ, ok = c.TypeOf(ret.Value.(*ast.BinOp).Left)
	require.True(t, ok)
	assert.Equal(t, tp.U24, typ)
}

func TestUndefinedVariable(t *testing.T) {
	te := checkErr(t, `fn main() -> u24 { return x; }`, tp.UndefinedVariable)
	assert.Equal(t, "x", te.Name)
	assert.Equal(t, 1, te.Loc.Line)
	assert.Equal(t, 27, te.Loc.Column)
}

func TestUndefinedType(t *testing.T) {
	te := checkErr(t, `fn f(x: Foo) -> u24 { return 1; }`, tp.UndefinedType)
	assert.Equal(t, "Foo", te.Name)
}

func TestUndefinedConstructor(t *testing.T) {
	te := checkErr(t, `fn f() -> u24 { x = Option/Maybe(1); return 1; }`, tp.UndefinedConstructor)
	assert.Equal(t, "Option/Maybe", te.Name)

	checkErr(t, `fn f(l: List<u24>) -> u24 { return match l { List/Snoc(a, b) => 1, _ => 0 }; }`, tp.UndefinedConstructor)
}

func TestReturnMismatch(t *testing.T) {
	te := checkErr(t, `fn main() -> u24 { return 1.5; }`, tp.TypeMismatch)
	assert.Equal(t, tp.U24, te.Expected)
	assert.Equal(t, tp.F24, te.Found)

	checkErr(t, `fn main() -> u24 { x = 1; }`, tp.TypeMismatch)
	checkErr(t, `fn main() -> u24 { return add(1, 2); } fn add(a: u24, b: u24) -> f24 { return 1.0; }`, tp.TypeMismatch)
}

func TestOperators(t *testing.T) {
	for _, tc := range []struct {
		expr string
		typ  string
	}{
		{"1 + 2", "u24"},
		{"+1 * -2", "i24"},
		{"1.5 / 2.0", "f24"},
		{"1.5 ** 2.0", "f24"},
		{"1 < 2", "u24"},
		{"1.0 == 2.0", "u24"},
		{"6 & 3 | 1 ^ 2", "u24"},
		{"1 << 3", "u24"},
		{"-1 >> 2", "i24"},
		{"(1, 2.0)", "(u24, f24)"},
		{"[1, 2, 3]", "List<u24>"},
		{"List/Cons(1, List/Nil)", "List<u24>"},
		{"Result/Ok(1)", "Result<u24, Any>"},
		{"Tree/Node(Tree/Leaf(1.0), Tree/Leaf(2.0))", "Tree<f24>"},
		{"if 1 < 2 { 1 } else { 2 }", "u24"},
		{`"str"`, "String"},
		{"lambda(x) { x + 1 }", "u24 -> u24"},
		{"lambda(x) { x }(3)", "u24"},
	} {
		c, err := check(t, `fn f() { return `+tc.expr+`; }`)
		if !assert.NoError(t, err, "expr %v", tc.expr) {
			continue
		}

		ft, ok := c.FuncType("f")
		require.True(t, ok)
		assert.Equal(t, tc.typ, ft.String(), "expr %v", tc.expr)
	}
}

func TestIncompatibleOperation(t *testing.T) {
	for _, expr := range []string{
		"1 + 2.0",
		"1.0 & 2.0",
		"1.0 << 2",
		"1 ** 2",
		`"a" + "b"`,
		"(1, 2) - (1, 2)",
		"1 == 1.0",
	} {
		_, err := check(t, `fn f() { return `+expr+`; }`)

		var te *tp.TypeError
		if assert.ErrorAs(t, err, &te, "expr %v", expr) {
			assert.Equal(t, tp.IncompatibleOperation, te.Kind, "expr %v: %v", expr, err)
		}
	}
}

func TestListElements(t *testing.T) {
	te := checkErr(t, `fn f() { return [1, 2.0]; }`, tp.TypeMismatch)
	assert.Equal(t, tp.U24, te.Expected)
	assert.Equal(t, tp.F24, te.Found)
}

func TestIfBranches(t *testing.T) {
	checkErr(t, `fn f() { return if 1 { 1 } else { 2.0 }; }`, tp.TypeMismatch)
	checkErr(t, `fn f() { return if 1.0 { 1 } else { 2 }; }`, tp.TypeMismatch)

	_, err := check(t, `fn f(b: Bool) -> u24 { if b { return 1; } else { return 2; } }`)
	assert.NoError(t, err)
}

func TestIfArmScope(t *testing.T) {
	te := checkErr(t, `fn main() -> u24 { if 0 { y = 1; } return y; }`, tp.UndefinedVariable)
	assert.Equal(t, "y", te.Name)

	checkErr(t, `fn main() -> u24 { if 1 { return 1; } else { use z = 2; } return z; }`, tp.UndefinedVariable)

	_, err := check(t, `fn main() -> u24 { x = 1; if x { x = 2; } else { x = 3; } return x; }`)
	assert.NoError(t, err)

	checkErr(t, `fn main() -> u24 { x = 1; if x { x = 2.0; } return x; }`, tp.TypeMismatch)
}

func TestMatch(t *testing.T) {
	_, err := check(t, `
fn len(l: List<u24>) -> u24 {
	return match l {
		List/Cons(h, t) => 1 + len(t),
		List/Nil => 0,
	};
}

fn first(p: (u24, f24)) -> f24 {
	return match p { (a, b) => b };
}

fn lit(x: u24) -> u24 {
	return match x { 0 => 10, n => n };
}
`)
	assert.NoError(t, err)

	checkErr(t, `fn f(l: List<u24>) -> u24 { return match l { List/Cons(h, t) => h, List/Nil => 1.0 }; }`, tp.TypeMismatch)
	checkErr(t, `fn f(l: List<u24>) -> u24 { return match l { Option/Some(x) => x }; }`, tp.TypeMismatch)
}

func TestUserTypes(t *testing.T) {
	c, err := check(t, `
type Shape {
	Circle { r: f24 },
	Rect { w: f24, h: f24 },
}

object Pair<T> { a: T, b: u24 }

alias Num = f24;

fn area(s: Shape) -> Num {
	return match s {
		Shape/Circle(r) => 3.0 * r * r,
		Shape/Rect(w, h) => w * h,
	};
}

fn rect() -> Shape { return Shape/Rect(h: 2.0, w: 3.0); }

fn pick(p: Pair<f24>) -> f24 { return p.a; }

fn mk() -> Pair<f24> { return Pair(b: 1, a: 2.0); }
`)
	require.NoError(t, err)

	ft, _ := c.FuncType("area")
	assert.Equal(t, "Shape -> f24", ft.String())

	ft, _ = c.FuncType("pick")
	assert.Equal(t, "Pair<f24> -> f24", ft.String())

	_, err = check(t, `type T { A { x: u24 } } fn f() -> T { return T/A(y: 1); }`)
	assert.Error(t, err)
}

func TestForwardAndModules(t *testing.T) {
	c, err := check(t, `
fn main() -> u24 { return helper(1) + math/double(2); }

fn helper(x: u24) -> u24 { return x; }

module math {
	fn double(x: u24) -> u24 { return twice(x); }
	fn twice(x: u24) -> u24 { return x + x; }
}
`)
	require.NoError(t, err)

	ft, ok := c.FuncType("math/twice")
	require.True(t, ok)
	assert.Equal(t, "u24 -> u24", ft.String())
}

func TestDuplicate(t *testing.T) {
	checkErr(t, `fn f() { return 1; } fn f() { return 2; }`, tp.Generic)
}

func TestSeededSymbols(t *testing.T) {
	text := `fn main() -> u24 { return lib/inc(1); }`

	_, err := check(t, text)
	require.Error(t, err)

	_, err = check(t, text, WithSymbols(map[string]env.Symbol{
		"lib/inc": env.Function{Name: "lib/inc", Type: tp.Func{Param: tp.U24, Result: tp.U24}},
	}))
	assert.NoError(t, err)
}

func TestStepLimit(t *testing.T) {
	_, err := check(t, addMain, WithStepLimit(2))

	var te *tp.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tp.Generic, te.Kind)
}

func TestFreshPrefix(t *testing.T) {
	c, err := check(t, `fn id(x) { return x; }`, WithPrefix("v"))
	require.NoError(t, err)

	ft, _ := c.FuncType("id")
	assert.Equal(t, "Any -> Any", ft.String())
	assert.Equal(t, tp.Var("v_2"), c.u.Fresh())
}

func TestConcurrentCheckers(t *testing.T) {
	p := parseProg(t, addMain)

	var wg sync.WaitGroup

	errs := make([]error, 8)

	for i := range errs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			errs[i] = CheckProgram(context.Background(), p)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
