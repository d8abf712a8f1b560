package interp

import (
	"fmt"

	"github.com/npillmayer/splice/hygiene"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/quote"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

// astModule creates the namespace of reconstruction builtins, which
// generator code refers to as `ast`. It holds a constructor for every node
// kind, taking fields as positional or keyword arguments.
func astModule() *Module {
	sc := runtime.NewScope(quote.Namespace, nil)
	for _, k := range tree.Kinds() {
		if k == tree.Captured {
			continue
		}
		kind := k
		sc.Set(kind.String(), &Builtin{Name: kind.String(), Fn: func(_ *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
			return quote.Construct(kind, args, kw)
		}})
	}
	sc.Set(quote.ReprBuiltin, fixed(quote.ReprBuiltin, 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
		return quote.Lift(args[0])
	}))
	sc.Set(quote.SpliceBuiltin, &Builtin{Name: quote.SpliceBuiltin, Fn: func(_ *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
		stmts := false
		for k, v := range kw {
			if k != "stmts" {
				return nil, fmt.Errorf("%s() got an unexpected keyword argument '%s'", quote.SpliceBuiltin, k)
			}
			stmts = truthy(v)
		}
		l, err := quote.SpliceList(stmts, args...)
		if err != nil {
			return nil, err
		}
		return fromTree(l), nil
	}})
	sc.Set(hygiene.CapturedBuiltin, fixed(hygiene.CapturedBuiltin, 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
		name, err := strArg(hygiene.CapturedBuiltin, args[1])
		if err != nil {
			return nil, err
		}
		return tree.NewCaptured(args[0], name), nil
	}))
	sc.Set("dump", fixed("dump", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
		n, ok := args[0].(*tree.Node)
		if !ok {
			return nil, fmt.Errorf("dump() expects a tree, not %s", typeName(args[0]))
		}
		return tree.Indented(n), nil
	}))
	sc.Set("unparse", fixed("unparse", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
		return unparse(args[0])
	}))
	sc.Set("parse", fixed("parse", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
		src, err := strArg("parse", args[0])
		if err != nil {
			return nil, err
		}
		return syntax.ParseExpr(src)
	}))
	return &Module{Name: quote.Namespace, Scope: sc}
}

// nativeModule creates a module implemented in Go, exporting the
// reconstruction namespace and stubs for the escapes and macros of m. The
// stubs fail when called outside of a macro invocation.
func nativeModule(m *macro.Module, stubs ...string) *Module {
	mod := &Module{Name: m.Name(), Scope: runtime.NewScope(m.Name(), nil), Macros: m}
	mod.Scope.Set(quote.Namespace, astModule())
	names := append(append([]string{}, stubs...), m.Names()...)
	for _, name := range names {
		mod.Scope.Set(name, &Stub{Name: name})
	}
	return mod
}

func quoteModule() *Module {
	return nativeModule(quote.Macros(), quote.Escapes...)
}

func hquoteModule() *Module {
	return nativeModule(hygiene.Macros(), append(quote.Escapes, hygiene.UnhygienicEscape)...)
}
