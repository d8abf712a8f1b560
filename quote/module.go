package quote

import (
	"fmt"

	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/tree"
)

// ModuleName is the name of the macro module providing quotes.
const ModuleName = "splice.quote"

// Macros creates the macro module for quotes: expression macro `q` and block
// macro `q`. Importing it injects the namespace of reconstruction builtins.
func Macros() *macro.Module {
	b := macro.NewBuilder(ModuleName)
	b.Add(macro.ExprShape, "q", ExprQuote(nil), 0)
	b.Add(macro.BlockShape, "q", BlockQuote(nil), macro.WantTarget)
	b.Expose(Namespace)
	return b.Build()
}

// Transform is a step applied to a quoted fragment after escapes have been
// resolved and before generator code is created.
type Transform func(fragment interface{}) (interface{}, error)

// ExprQuote creates a handler for expression quotes, applying an optional
// transform to the unquoted fragment.
func ExprQuote(transform Transform) macro.Handler {
	return func(call *macro.Call) (interface{}, error) {
		u, err := Unquote(call.Tree)
		if err != nil {
			return nil, err
		}
		if transform != nil {
			if u, err = transform(u); err != nil {
				return nil, err
			}
		}
		g, err := Generate(u)
		if err != nil {
			return nil, err
		}
		tracer().Debugf("quote %s", g)
		return g, nil
	}
}

// BlockQuote creates a handler for block quotes `with q as target { … }`,
// applying an optional transform to the unquoted fragment.
func BlockQuote(transform Transform) macro.Handler {
	expr := ExprQuote(transform)
	return func(call *macro.Call) (interface{}, error) {
		if call.Target == nil {
			return nil, fmt.Errorf("block quote needs a target: `with %s as name`", call.Name)
		}
		g, err := expr(call)
		if err != nil {
			return nil, err
		}
		target := call.Target.WithCtx(tree.Store)
		return tree.NewAssign([]*tree.Node{target}, g.(*tree.Node)), nil
	}
}
