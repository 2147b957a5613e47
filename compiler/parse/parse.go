package parse

import (
	"context"
	"fmt"
	"os"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
)

type (
	// Parser reads one source text into an ast.Program.
	Parser struct {
		file string
		b    []byte

		lines []int // line start offsets
	}

	UnexpectedError struct {
		Loc   ast.Location
		Want  string
		Found string
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, data)
}

func Parse(ctx context.Context, name string, text []byte) (*ast.Program, error) {
	return New(name, text).Parse(ctx)
}

func New(name string, text []byte) *Parser {
	p := &Parser{
		file:  name,
		b:     text,
		lines: []int{0},
	}

	for i, c := range text {
		if c == '\n' {
			p.lines = append(p.lines, i+1)
		}
	}

	return p
}

func (p *Parser) Parse(ctx context.Context) (prog *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse: file", "name", p.file, "size", len(p.b))
	defer tr.Finish("err", &err)

	prog = &ast.Program{}

	i := 0

	for {
		i = p.skip(i)
		if i == len(p.b) {
			break
		}

		if j, ok := p.keyword(i, "import"); ok {
			var imp *ast.Import

			imp, i, err = p.parseImport(ctx, i, j)
			if err != nil {
				return nil, err
			}

			prog.Imports = append(prog.Imports, imp)

			continue
		}

		var d ast.Definition

		d, i, err = p.parseDef(ctx, i, true)
		if err != nil {
			return nil, err
		}

		prog.Defs = append(prog.Defs, d)
	}

	tr.V("ast").Printw("parsed", "imports", len(prog.Imports), "defs", len(prog.Defs))

	return prog, nil
}

// Loc converts a byte span to a Location.
func (p *Parser) Loc(pos, end int) ast.Location {
	line := sort.Search(len(p.lines), func(j int) bool { return p.lines[j] > pos })

	return ast.Location{
		Line:   line,
		Column: pos - p.lines[line-1] + 1,
		Pos:    pos,
		End:    end,
	}
}

func (p *Parser) unexpected(i int, want string) error {
	i = p.skip(i)

	found := "EOF"

	if i < len(p.b) {
		end := i + 1

		if _, j, ok := p.ident(i); ok {
			end = j
		}

		found = string(p.b[i:end])
	}

	return UnexpectedError{
		Loc:   p.Loc(i, i),
		Want:  want,
		Found: found,
	}
}

func (e UnexpectedError) Error() string {
	return fmt.Sprintf("%v: %s expected, found %q", e.Loc, e.Want, e.Found)
}
