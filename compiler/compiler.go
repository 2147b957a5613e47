package compiler

import (
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/analyze"
	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/back"
	"github.com/developerfred/Bend-PVM-sub000/compiler/config"
	"github.com/developerfred/Bend-PVM-sub000/compiler/opt"
	"github.com/developerfred/Bend-PVM-sub000/compiler/parse"
)

type (
	// Stage is the last pipeline stage to run.
	Stage int

	Output struct {
		// Program is checked and, from Optimize on, optimized.
		Program *ast.Program

		Code []riscv.Instr
		Asm  []byte
	}
)

const (
	Check Stage = iota
	Optimize
	Assemble
)

// CompileFile reads the named file and runs the pipeline up to the stage.
func CompileFile(ctx context.Context, name string, cfg *config.Config, upto Stage) (_ *Output, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile: file", "name", name, "stage", upto)
	defer tr.Finish("err", &err)

	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return CompileStage(ctx, name, text, cfg, upto)
}

// Compile runs the whole pipeline on the source text.
func Compile(ctx context.Context, name string, text []byte, cfg *config.Config) (*Output, error) {
	return CompileStage(ctx, name, text, cfg, Assemble)
}

func CompileStage(ctx context.Context, name string, text []byte, cfg *config.Config, upto Stage) (_ *Output, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	prog, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return BuildStage(ctx, prog, cfg, upto)
}

// Build checks, optimizes and generates code for an already parsed program.
func Build(ctx context.Context, prog *ast.Program, cfg *config.Config) (*Output, error) {
	return BuildStage(ctx, prog, cfg, Assemble)
}

func BuildStage(ctx context.Context, prog *ast.Program, cfg *config.Config, upto Stage) (out *Output, err error) {
	if cfg == nil {
		cfg = config.Default()
	}

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	err = analyze.CheckProgram(ctx, prog,
		analyze.WithPrefix(cfg.Check.FreshPrefix),
		analyze.WithStepLimit(cfg.Check.UnifyStepLimit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "check")
	}

	out = &Output{Program: markChecked(prog)}

	if upto < Optimize {
		return out, nil
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	m := opt.New(level, opt.WithMaxIterations(cfg.Optimize.MaxIterations))

	out.Program, err = m.Optimize(ctx, out.Program)
	if err != nil {
		return nil, errors.Wrap(err, "optimize")
	}

	if upto < Assemble {
		return out, nil
	}

	g := back.New(
		back.WithMaxDepth(cfg.Codegen.MaxDepth),
		back.WithComments(cfg.Codegen.Comments),
	)

	out.Code, err = g.Generate(ctx, out.Program)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	out.Asm = riscv.Render(nil, out.Code)

	return out, nil
}

func markChecked(p *ast.Program) *ast.Program {
	res, _, _ := ast.MapFuncs(p, func(fd *ast.FuncDef) (*ast.FuncDef, bool, error) {
		if fd.Checked {
			return fd, false, nil
		}

		cp := *fd
		cp.Checked = true

		return &cp, true, nil
	})

	return res
}

func (s Stage) String() string {
	switch s {
	case Check:
		return "check"
	case Optimize:
		return "optimize"
	case Assemble:
		return "assemble"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}
