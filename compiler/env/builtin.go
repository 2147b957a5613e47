package env

import "github.com/developerfred/Bend-PVM-sub000/compiler/tp"

type builtinCons struct {
	name   string
	fields []string
	args   func(self tp.Type, vs []tp.Type) []tp.Type
}

func registerBuiltins(e *Env) {
	for _, w := range []tp.Word{tp.U24, tp.I24, tp.F24} {
		e.Insert(w.String(), TypeSym{Name: w.String(), Alias: w})
	}

	e.Insert("String", TypeSym{Name: "String"})
	e.Insert("Bool", TypeSym{Name: "Bool"})
	e.Insert("Any", TypeSym{Name: "Any", Alias: tp.Any{}})
	e.Insert("None", TypeSym{Name: "None", Alias: tp.None{}})

	e.Insert("true", Variable{Name: "true", Type: tp.Bool})
	e.Insert("false", Variable{Name: "false", Type: tp.Bool})

	generic(e, "List", []string{"T"},
		builtinCons{name: "Cons", fields: []string{"head", "tail"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{vs[0], self} }},
		builtinCons{name: "Nil"},
	)

	generic(e, "Option", []string{"T"},
		builtinCons{name: "Some", fields: []string{"value"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{vs[0]} }},
		builtinCons{name: "None"},
	)

	generic(e, "Result", []string{"T", "E"},
		builtinCons{name: "Ok", fields: []string{"value"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{vs[0]} }},
		builtinCons{name: "Err", fields: []string{"error"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{vs[1]} }},
	)

	generic(e, "Tree", []string{"T"},
		builtinCons{name: "Node", fields: []string{"left", "right"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{self, self} }},
		builtinCons{name: "Leaf", fields: []string{"value"}, args: func(self tp.Type, vs []tp.Type) []tp.Type { return []tp.Type{vs[0]} }},
	)
}

func generic(e *Env, name string, params []string, cons ...builtinCons) {
	vs := make([]tp.Type, len(params))
	for i, p := range params {
		vs[i] = tp.Var(p)
	}

	self := tp.Named{Name: name, Params: vs}

	ts := TypeSym{Name: name, Params: params}

	for _, c := range cons {
		full := name + "/" + c.name

		var args []tp.Type
		if c.args != nil {
			args = c.args(self, vs)
		}

		e.Insert(full, Constructor{
			Name:   full,
			Owner:  name,
			Params: params,
			Fields: c.fields,
			Sig:    tp.Curry(args, self),
		})

		ts.Variants = append(ts.Variants, full)
	}

	e.Insert(name, ts)
}
