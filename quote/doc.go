/*
Package quote implements quasi-quotes for macro authors.

A quote turns a literal syntax fragment into generator code: an expression
which, when evaluated at macro expansion time, reconstructs the fragment as a
tree value. Within a quote, escapes splice in computed parts:

    u[expr]             value of expr, lifted to a tree
    name[expr]          a Name node for the identifier expr evaluates to
    ast_literal[expr]   a tree computed by expr
    ast_list[expr]      a list of trees, spliced into the enclosing list

Generator code refers to the reconstruction builtins through the namespace
`ast`, e.g. `ast.BinOp(left=ast.Num(n=1), op="+", right=ast.repr(a + b))`.
Macro modules which import `q` from module splice.quote get `ast` injected
into their namespace.

Quotes are available as an expression macro `q[…]` and as a block macro

    with q as body {
        …
    }

which binds the list of quoted statements to `body`.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package quote

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.quote'.
func tracer() tracing.Trace {
	return tracing.Select("splice.quote")
}
