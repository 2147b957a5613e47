package opt

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/format"
)

type (
	// Pass is one program rewrite.
	// Run never mutates its input. Unchanged programs are returned as is with Modified false.
	Pass interface {
		Name() string
		Run(ctx context.Context, p *ast.Program) (Result, error)
	}

	Result struct {
		Program  *ast.Program
		Modified bool
	}

	Level int

	// Manager runs passes in registration order until nothing changes.
	Manager struct {
		level   Level
		maxIter int

		passes []registered
	}

	Option func(m *Manager)

	registered struct {
		Pass

		pc loc.PC
	}

	Error struct {
		Pass string
		Msg  string
	}
)

const (
	None Level = iota
	Standard
	Aggressive
)

const DefaultMaxIterations = 10

var levelNames = []string{"none", "standard", "aggressive"}

func WithMaxIterations(n int) Option {
	return func(m *Manager) { m.maxIter = n }
}

// WithPasses replaces the level default pass list.
func WithPasses(ps ...Pass) Option {
	return func(m *Manager) {
		m.passes = m.passes[:0]

		for _, p := range ps {
			m.passes = append(m.passes, registered{Pass: p, pc: loc.Caller(2)})
		}
	}
}

func New(level Level, opts ...Option) *Manager {
	m := &Manager{
		level:   level,
		maxIter: DefaultMaxIterations,
	}

	if level >= Standard {
		m.Register(NewEta())
		m.Register(NewFloat())
	}

	if level >= Aggressive {
		m.Register(NewUnreachable())
	}

	if level >= Standard {
		m.Register(NewLinearize())
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// Register appends a pass. The call site is kept for debug dumps.
func (m *Manager) Register(p Pass) {
	m.passes = append(m.passes, registered{Pass: p, pc: loc.Caller(1)})
}

func (m *Manager) Passes() []string {
	r := make([]string, len(m.passes))

	for i, p := range m.passes {
		r[i] = p.Name()
	}

	return r
}

func Optimize(ctx context.Context, p *ast.Program, level Level) (*ast.Program, error) {
	return New(level).Optimize(ctx, p)
}

// Optimize sweeps all the passes over p until a sweep changes nothing
// or the iteration limit is reached.
func (m *Manager) Optimize(ctx context.Context, p *ast.Program) (_ *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "opt: optimize", "level", m.level, "passes", len(m.passes))
	defer tr.Finish("err", &err)

	if len(m.passes) == 0 {
		return p, nil
	}

	for iter := 0; iter < m.maxIter; iter++ {
		modified := false

		for _, r := range m.passes {
			res, err := r.Run(ctx, p)
			if err != nil {
				return nil, errors.Wrap(err, "pass %v", r.Name())
			}

			if res.Program == nil {
				return nil, &Error{Pass: r.Name(), Msg: "nil program"}
			}

			if tr.If("opt_pass") {
				tr.Printw("pass done", "iter", iter, "pass", r.Name(), "modified", res.Modified, "registered_at", r.pc)
			}

			if res.Modified && tr.If("dump_pass") {
				b, _ := format.Format(ctx, nil, res.Program)
				tr.Printw("pass result", "pass", r.Name(), "program", b)
			}

			p = res.Program
			modified = modified || res.Modified
		}

		if !modified {
			tr.V("opt").Printw("fixpoint", "iters", iter+1)

			return p, nil
		}
	}

	tr.V("opt").Printw("iteration limit reached", "iters", m.maxIter)

	return p, nil
}

func ParseLevel(s string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return Level(i), nil
		}
	}

	switch s {
	case "0", "1", "2":
		return Level(s[0] - '0'), nil
	}

	return None, errors.New("unknown optimization level: %q", s)
}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}

	return fmt.Sprintf("Level(%d)", int(l))
}

func (e *Error) Error() string {
	return fmt.Sprintf("pass %v: %v", e.Pass, e.Msg)
}

func unchanged(p *ast.Program) Result {
	return Result{Program: p}
}
