package ast

type NamedFunc struct {
	Name string
	Func *FuncDef
}

// Funcs lists every function of the program in definition order.
// Module members and object methods get qualified names: Module/name, Object/name.
func Funcs(p *Program) (fs []NamedFunc) {
	return appendFuncs(fs, "", p.Defs)
}

func appendFuncs(fs []NamedFunc, prefix string, defs []Definition) []NamedFunc {
	for _, d := range defs {
		switch d := d.(type) {
		case *FuncDef:
			fs = append(fs, NamedFunc{Name: prefix + d.Name, Func: d})
		case *ObjectDef:
			for _, f := range d.Funcs {
				fs = append(fs, NamedFunc{Name: prefix + d.Name + "/" + f.Name, Func: f})
			}
		case *Module:
			fs = appendFuncs(fs, prefix+d.Name+"/", d.Defs)
		}
	}

	return fs
}

// MapFuncs rebuilds the program replacing every function body with the result of f.
// Definitions f leaves untouched are shared with the input.
func MapFuncs(p *Program, f func(fd *FuncDef) (*FuncDef, bool, error)) (_ *Program, changed bool, err error) {
	defs, changed, err := mapDefs(p.Defs, f)
	if err != nil {
		return p, false, err
	}

	if !changed {
		return p, false, nil
	}

	return &Program{Imports: p.Imports, Defs: defs}, true, nil
}

func mapDefs(defs []Definition, f func(fd *FuncDef) (*FuncDef, bool, error)) (res []Definition, changed bool, err error) {
	res = make([]Definition, len(defs))

	for i, d := range defs {
		res[i] = d

		switch d := d.(type) {
		case *FuncDef:
			nf, ch, err := f(d)
			if err != nil {
				return nil, false, err
			}

			if ch {
				res[i] = nf
				changed = true
			}
		case *ObjectDef:
			var funcs []*FuncDef
			objChanged := false

			for _, fd := range d.Funcs {
				nf, ch, err := f(fd)
				if err != nil {
					return nil, false, err
				}

				if ch {
					fd = nf
					objChanged = true
				}

				funcs = append(funcs, fd)
			}

			if objChanged {
				cp := *d
				cp.Funcs = funcs
				res[i] = &cp
				changed = true
			}
		case *Module:
			sub, ch, err := mapDefs(d.Defs, f)
			if err != nil {
				return nil, false, err
			}

			if ch {
				cp := *d
				cp.Defs = sub
				res[i] = &cp
				changed = true
			}
		}
	}

	return res, changed, nil
}
