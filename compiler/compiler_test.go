package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/back"
	"github.com/developerfred/Bend-PVM-sub000/compiler/config"
	"github.com/developerfred/Bend-PVM-sub000/compiler/format"
	"github.com/developerfred/Bend-PVM-sub000/compiler/parse"
	"github.com/developerfred/Bend-PVM-sub000/compiler/tp"
)

const addMain = `fn add(a: u24, b: u24) -> u24 {
	return a + b;
}

fn main() -> u24 {
	return add(1, 2);
}
`

func TestAddMain(t *testing.T) {
	ctx := context.Background()

	out, err := Compile(ctx, "add.bend", []byte(addMain), nil)
	require.NoError(t, err)

	assert.Equal(t, addMain, format.String(out.Program), "optimizer changed the program")

	asm := string(out.Asm)

	assert.Contains(t, asm, "function.add:\n")
	assert.Contains(t, asm, "main:\n")
	assert.Contains(t, asm, "    add t0, t0, t1\n")
	assert.Contains(t, asm, "    jal ra, function.add\n")
	assert.Contains(t, asm, "    mv t0, a0\n    mv a0, t0\n")
	assert.Len(t, out.Code, 27)
}

func TestCompileFile(t *testing.T) {
	ctx := context.Background()

	name := filepath.Join(t.TempDir(), "add.bend")

	err := os.WriteFile(name, []byte(addMain), 0o600)
	require.NoError(t, err)

	out, err := CompileFile(ctx, name, nil, Check)
	require.NoError(t, err)
	assert.Nil(t, out.Code)

	out, err = CompileFile(ctx, name, nil, Assemble)
	require.NoError(t, err)
	assert.Len(t, out.Code, 27)

	_, err = CompileFile(ctx, filepath.Join(t.TempDir(), "missing.bend"), nil, Check)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStages(t *testing.T) {
	ctx := context.Background()

	src := []byte(`fn main() -> f24 {
	return 2.0 * 3.0;
}
`)

	cfg := config.Default()

	out, err := CompileStage(ctx, "f.bend", src, cfg, Check)
	require.NoError(t, err)
	assert.Nil(t, out.Code)
	assert.Equal(t, string(src), format.String(out.Program))

	out, err = CompileStage(ctx, "f.bend", src, cfg, Optimize)
	require.NoError(t, err)
	assert.Nil(t, out.Code)
	assert.Equal(t, "fn main() -> f24 {\n\treturn 6.0;\n}\n", format.String(out.Program))

	cfg.Optimize.Level = "none"

	out, err = CompileStage(ctx, "f.bend", src, cfg, Optimize)
	require.NoError(t, err)
	assert.Equal(t, string(src), format.String(out.Program))
}

func TestChecked(t *testing.T) {
	ctx := context.Background()

	prog, err := parse.Parse(ctx, "add.bend", []byte(addMain))
	require.NoError(t, err)

	out, err := BuildStage(ctx, prog, nil, Check)
	require.NoError(t, err)

	fs := ast.Funcs(out.Program)
	require.Len(t, fs, 2)

	for _, f := range fs {
		assert.True(t, f.Func.Checked, "%v", f.Name)
	}

	for _, f := range ast.Funcs(prog) {
		assert.False(t, f.Func.Checked, "input modified: %v", f.Name)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "bad.bend", []byte(`fn main() -> u24 { return 1.5; }`), nil)

	var te *tp.TypeError
	if assert.ErrorAs(t, err, &te) {
		assert.Equal(t, tp.TypeMismatch, te.Kind)
	}

	_, err = Compile(ctx, "bad.bend", []byte(`fn main() -> f24 { return 1.5; }`), nil)

	var be *back.Error
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, back.UnsupportedFeature, be.Kind)
	}

	_, err = Compile(ctx, "bad.bend", []byte(`fn main( { }`), nil)

	var ue parse.UnexpectedError
	assert.ErrorAs(t, err, &ue)

	cfg := config.Default()
	cfg.Optimize.Level = "fast"

	_, err = Compile(ctx, "add.bend", []byte(addMain), cfg)
	assert.Error(t, err)
}

func TestConcurrent(t *testing.T) {
	ctx := context.Background()

	src := []byte(`
fn fib(n: u24) -> u24 {
	if n < 2 {
		return n;
	}
	return fib(n - 1) + fib(n - 2);
}

fn pick(c: u24) -> u24 {
	return if c > 5 { c * 2 } else { match c { 0 => 1, _ => c + 100 } };
}

fn main() -> u24 {
	return fib(10) + pick(7);
}
`)

	ref, err := Compile(ctx, "ref.bend", src, nil)
	require.NoError(t, err)

	const n = 16

	res := make([][]byte, n)

	var g errgroup.Group
	g.SetLimit(4)

	for i := 0; i < n; i++ {
		i := i

		g.Go(func() error {
			out, err := Compile(ctx, "copy.bend", src, nil)
			if err != nil {
				return err
			}

			res[i] = out.Asm

			return nil
		})
	}

	require.NoError(t, g.Wait())

	for i := range res {
		assert.Equal(t, string(ref.Asm), string(res[i]), "run %d", i)
	}
}
