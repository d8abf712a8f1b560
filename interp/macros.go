package interp

import (
	"fmt"

	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/tree"
)

// MacroRegistry collects the macros defined by an spx module. It is created
// by builtin Macros() and bound to the name `macros`:
//
//    macros = Macros()
//
//    @macros.expr
//    def trace(tree, exact_src) { … }
//
type MacroRegistry struct {
	module  string
	in      *Interpreter
	builder *macro.Builder
}

func builtinMacros(c *Caller, _ []interface{}) (interface{}, error) {
	name := "__main__"
	if v, ok := c.In.scopeOf(c).Globals().Local("__name__"); ok {
		name = str(v)
	}
	return &MacroRegistry{module: name, in: c.In, builder: macro.NewBuilder(name)}, nil
}

// Build creates the macro module from the macros registered so far.
func (r *MacroRegistry) Build() *macro.Module {
	return r.builder.Build()
}

func (r *MacroRegistry) attr(name string) (interface{}, bool) {
	switch name {
	case "expr":
		return r.decorator(macro.ExprShape), true
	case "block":
		return r.decorator(macro.BlockShape), true
	case "decorator":
		return r.decorator(macro.DecoratorShape), true
	case "expose_unhygienic":
		return fixed("expose_unhygienic", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			name, err := definedName(args[0])
			if err != nil {
				return nil, err
			}
			r.builder.Expose(name)
			return args[0], nil
		}), true
	}
	return nil, false
}

// decorator creates the decorator registering a handler for a shape. The
// parameters of the handler tell which parts of the invocation it wants.
func (r *MacroRegistry) decorator(shape macro.Shape) *Builtin {
	return fixed(shape.String(), 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
		fn := args[0]
		name, err := definedName(fn)
		if err != nil {
			return nil, err
		}
		var params macro.Params
		wantTree := true // builtins receive the payload only
		if f, ok := fn.(*Function); ok {
			if params, err = macro.ParamsByName(f.Params...); err != nil {
				return nil, fmt.Errorf("%s macro %s: %w", shape, name, err)
			}
			wantTree = false
			for _, p := range f.Params {
				wantTree = wantTree || p == "tree"
			}
		}
		r.builder.Add(shape, name, r.handler(fn, shape, params, wantTree), params)
		tracer().Debugf("%s: registered %s macro %s", r.module, shape, name)
		return fn, nil
	})
}

func definedName(v interface{}) (string, error) {
	switch x := v.(type) {
	case *Function:
		return x.Name, nil
	case *Builtin:
		return x.Name, nil
	case *Class:
		return x.Name, nil
	}
	return "", fmt.Errorf("cannot register %s as a macro", typeName(v))
}

// handler adapts an spx function to a macro handler. The parts of the
// invocation are passed as keyword arguments.
func (r *MacroRegistry) handler(fn interface{}, shape macro.Shape, params macro.Params, wantTree bool) macro.Handler {
	return func(call *macro.Call) (interface{}, error) {
		kw := make(map[string]interface{})
		if wantTree {
			kw["tree"] = fromTree(call.Tree)
		}
		if params&macro.WantArgs != 0 {
			kw["args"] = fromTree(call.Args)
		}
		if params&macro.WantTarget != 0 {
			kw["target"] = fromTree(call.Target)
		}
		if params&macro.WantModules != 0 {
			names := make([]interface{}, len(call.Modules))
			for i, m := range call.Modules {
				names[i] = m.Name()
			}
			kw["modules"] = NewList(names...)
		}
		if params&macro.WantGenSym != 0 {
			kw["gen_sym"] = fixed("gen_sym", 0, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				base := "sym"
				if len(args) == 1 {
					var err error
					if base, err = strArg("gen_sym", args[0]); err != nil {
						return nil, err
					}
				}
				return call.GenSym(base), nil
			})
		}
		if params&macro.WantAlias != 0 {
			kw["hygienic_alias"] = fixed("hygienic_alias", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				name, err := strArg("hygienic_alias", args[1])
				if err != nil {
					return nil, err
				}
				return call.Alias(args[0], name), nil
			})
		}
		if params&macro.WantExactSource != 0 {
			kw["exact_src"] = fixed("exact_src", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				t, err := toTree(args[0])
				if err != nil {
					return nil, err
				}
				return call.ExactSource(t)
			})
		}
		if params&macro.WantExpand != 0 {
			kw["expand_macros"] = fixed("expand_macros", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				t, err := toTree(args[0])
				if err != nil {
					return nil, err
				}
				x, err := call.Expand(t)
				if err != nil {
					return nil, err
				}
				return fromTree(x), nil
			})
		}
		if params&macro.WantSite != 0 {
			kw["site"] = fromTree(call.Site)
		}
		v, err := r.in.call(nil, nil, fn, nil, kw)
		if err != nil {
			return nil, err
		}
		out, err := toTree(v)
		if err != nil {
			return nil, fmt.Errorf("%s macro %s: %w", shape, call.Name, err)
		}
		return out, nil
	}
}

// toTree converts a runtime value to a handler result: a node, a node list
// or nil.
func toTree(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *tree.Node:
		return x, nil
	case *List:
		return nodes(x.elts)
	case Tuple:
		return nodes(x)
	}
	return nil, fmt.Errorf("expected a tree or a list of trees, got %s", typeName(v))
}
