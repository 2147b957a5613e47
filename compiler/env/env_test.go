package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

func TestBuiltins(t *testing.T) {
	e := New()

	for _, n := range []string{"u24", "i24", "f24", "String", "Bool", "List", "Option", "Result", "Tree"} {
		_, ok := e.Lookup(n)
		assert.True(t, ok, "type %v", n)
	}

	s, ok := e.Lookup("List/Cons")
	require.True(t, ok)

	c, ok := s.(Constructor)
	require.True(t, ok)

	assert.Equal(t, "T -> List<T> -> List<T>", c.Sig.String())
	assert.Equal(t, []string{"head", "tail"}, c.Fields)

	s, _ = e.Lookup("Result/Err")
	assert.Equal(t, "E -> Result<T, E>", s.(Constructor).Sig.String())

	s, _ = e.Lookup("Tree/Node")
	assert.Equal(t, "Tree<T> -> Tree<T> -> Tree<T>", s.(Constructor).Sig.String())

	s, _ = e.Lookup("Option/None")
	assert.Equal(t, "Option<T>", s.(Constructor).Sig.String())

	s, _ = e.Lookup("List")
	assert.Equal(t, []string{"List/Cons", "List/Nil"}, s.(TypeSym).Variants)
}

func TestInstantiate(t *testing.T) {
	e := New()
	u := tp.NewUnifier("t", 0)

	s, _ := e.Lookup("List/Cons")
	c := s.(Constructor)

	a := c.Instantiate(u.Fresh)
	b := c.Instantiate(u.Fresh)

	assert.Equal(t, "t_1 -> List<t_1> -> List<t_1>", a.String())
	assert.Equal(t, "t_2 -> List<t_2> -> List<t_2>", b.String())

	assert.Equal(t, "List<t_3>", c.Result(u.Fresh).String())
}

func TestLayers(t *testing.T) {
	root := New()
	root.Insert("x", Variable{Name: "x", Type: tp.U24})

	child := root.Push()
	child.Insert("x", Variable{Name: "x", Type: tp.F24})
	child.Insert("y", Variable{Name: "y", Type: tp.I24})

	s, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, tp.F24, s.(Variable).Type)

	s, ok = root.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, tp.U24, s.(Variable).Type)

	_, ok = root.Lookup("y")
	assert.False(t, ok)

	_, ok = child.LookupLocal("List")
	assert.False(t, ok)

	child.Insert("y", Variable{Name: "y", Type: tp.U24})
	s, _ = child.Lookup("y")
	assert.Equal(t, tp.U24, s.(Variable).Type, "last write wins")

	assert.Same(t, root, child.Parent())
}

func TestSeed(t *testing.T) {
	e := Empty()

	e.Seed(map[string]Symbol{
		"lib/inc": Function{Name: "lib/inc", Type: tp.Func{Param: tp.U24, Result: tp.U24}},
		"lib/one": Variable{Name: "lib/one", Type: tp.U24},
	})

	assert.Equal(t, []string{"lib/inc", "lib/one"}, e.Names())

	s, ok := e.Lookup("lib/inc")
	require.True(t, ok)
	assert.IsType(t, Function{}, s)
}
