package back

import (
	"context"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

type (
	// Generator lowers checked programs to RISC-V assembly.
	// It is not safe for concurrent use.
	Generator struct {
		maxDepth int
		comments bool

		funcs  map[string]string // qualified name -> label
		labels map[string]loc.PC // label -> where it was made
		nlabel int

		f *funcState
	}

	Option func(g *Generator)

	funcState struct {
		name  string
		scope string
		label string
		ret   string

		code  []riscv.Instr
		nregs int

		slots  map[string]int32
		nslots int

		depth int
	}
)

const DefaultMaxDepth = 512

// Frame layout: return address at 0, then 4-byte variable slots,
// then spill slots, then saved registers.
const (
	slotBase   = 8
	slotSize   = 4
	frameAlign = 16
)

func WithMaxDepth(n int) Option {
	return func(g *Generator) {
		g.maxDepth = n
	}
}

// WithComments annotates the listing with the source of each statement.
func WithComments(on bool) Option {
	return func(g *Generator) {
		g.comments = on
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		maxDepth: DefaultMaxDepth,
	}

	for _, o := range opts {
		o(g)
	}

	return g
}

// Generate lowers p with default options.
func Generate(ctx context.Context, p *ast.Program) ([]riscv.Instr, error) {
	return New().Generate(ctx, p)
}

// FuncLabel is the assembly label of the function with the qualified name.
func FuncLabel(name string) string {
	if name == "main" {
		return "main"
	}

	return "function." + strings.ReplaceAll(name, "/", "_")
}

func (g *Generator) Generate(ctx context.Context, p *ast.Program) (code []riscv.Instr, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: generate")
	defer tr.Finish("err", &err)

	g.funcs = map[string]string{}
	g.labels = map[string]loc.PC{}
	g.nlabel = 0

	funcs := ast.Funcs(p)

	for _, f := range funcs {
		l := FuncLabel(f.Name)

		if _, ok := g.labels[l]; ok {
			return nil, newError(Generic, f.Func.Loc, f.Name, "duplicate label %v", l)
		}

		g.funcs[f.Name] = l
		g.labels[l] = loc.Caller(0)
	}

	for _, f := range funcs {
		code, err = g.genFunc(ctx, code, f.Name, f.Func)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	if tr.If("dump_labels") {
		for l, pc := range g.labels {
			tr.Printw("label", "name", l, "made_at", pc)
		}
	}

	if tr.If("dump_code") {
		tr.Printw("code", "asm", riscv.Text(code))
	}

	return code, nil
}

func (g *Generator) genFunc(ctx context.Context, code []riscv.Instr, name string, fd *ast.FuncDef) (_ []riscv.Instr, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: func", "name", name)
	defer tr.Finish("err", &err)

	if len(fd.Params) > riscv.NumArgs {
		return nil, newError(InvalidOperation, fd.Loc, name, "%d parameters, at most %d supported", len(fd.Params), riscv.NumArgs)
	}

	f := &funcState{
		name:  name,
		label: g.funcs[name],
		slots: map[string]int32{},
	}

	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		f.scope = name[:i+1]
	}

	g.f = f
	defer func() { g.f = nil }()

	f.ret = g.newLabel("ret")

	for i, p := range fd.Params {
		off := f.newSlot(p.Name)

		f.emit(riscv.Store{Op: riscv.SW, Src: riscv.Arg(i), Base: riscv.SP, Off: off})
	}

	err = g.block(ctx, fd.Body, true)
	if err != nil {
		return nil, err
	}

	spillBase := int32(slotBase + slotSize*f.nslots)

	a, err := Allocate(ctx, f.code, WithSpillBase(spillBase))
	if err != nil {
		return nil, err
	}

	savedBase := spillBase + slotSize*int32(a.Spills)
	frame := savedBase + slotSize*int32(len(a.Saved))
	frame = (frame + frameAlign - 1) &^ (frameAlign - 1)

	if !riscv.FitsImm12(frame) {
		return nil, newError(InvalidOperation, fd.Loc, name, "stack frame of %d bytes is too large", frame)
	}

	tr.V("frame").Printw("frame", "size", frame, "slots", f.nslots, "spills", a.Spills, "saved", a.Saved)

	code = append(code,
		riscv.Label{Name: f.label},
		riscv.I{Op: riscv.ADDI, Rd: riscv.SP, Rs1: riscv.SP, Imm: -frame},
		riscv.Store{Op: riscv.SW, Src: riscv.RA, Base: riscv.SP, Off: 0},
	)

	for i, r := range a.Saved {
		code = append(code, riscv.Store{Op: riscv.SW, Src: r, Base: riscv.SP, Off: savedBase + slotSize*int32(i)})
	}

	code = append(code, a.Code...)
	code = append(code, riscv.Label{Name: f.ret})

	for i, r := range a.Saved {
		code = append(code, riscv.Load{Op: riscv.LW, Rd: r, Base: riscv.SP, Off: savedBase + slotSize*int32(i)})
	}

	code = append(code,
		riscv.Load{Op: riscv.LW, Rd: riscv.RA, Base: riscv.SP, Off: 0},
		riscv.I{Op: riscv.ADDI, Rd: riscv.SP, Rs1: riscv.SP, Imm: frame},
		riscv.Jalr{Rd: riscv.Zero, Rs1: riscv.RA, Off: 0},
	)

	return code, nil
}

// newLabel makes a function-local label unique within the program.
func (g *Generator) newLabel(kind string) string {
	g.nlabel++

	l := kind + "_" + strconv.Itoa(g.nlabel)

	g.labels[l] = loc.Caller(1)

	return l
}

// lookupFunc resolves a callee by its qualified name
// or relative to the module of the current function.
func (g *Generator) lookupFunc(name string) (string, bool) {
	if l, ok := g.funcs[name]; ok {
		return l, true
	}

	if g.f != nil && g.f.scope != "" {
		l, ok := g.funcs[g.f.scope+name]
		return l, ok
	}

	return "", false
}

func (f *funcState) emit(in ...riscv.Instr) {
	f.code = append(f.code, in...)
}

func (f *funcState) newReg() riscv.Reg {
	r := riscv.Virtual(f.nregs)
	f.nregs++

	return r
}

func (f *funcState) newSlot(name string) int32 {
	off := int32(slotBase + slotSize*f.nslots)
	f.nslots++

	f.slots[name] = off

	return off
}

func (f *funcState) slot(name string) int32 {
	if off, ok := f.slots[name]; ok {
		return off
	}

	return f.newSlot(name)
}

// shadow returns a func putting back the current binding of name.
func (f *funcState) shadow(name string) func() {
	off, ok := f.slots[name]

	return func() {
		if ok {
			f.slots[name] = off
		} else {
			delete(f.slots, name)
		}
	}
}
