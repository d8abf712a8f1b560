/*
Package interp implements an evaluator for spx trees.

The evaluator serves three purposes: it runs macro modules written in spx,
it runs the generator code produced by quotes, and it runs expanded
programs. Macro modules create a registry with the builtin Macros() and
register handlers with decorators:

    from splice.quote import macros, q, ast_literal
    macros = Macros()

    @macros.expr
    def double(tree) {
        return q[ast_literal[tree] + ast_literal[tree]]
    }

Handlers declare the parts of the macro invocation they are interested in
by parameter name: tree, args, target, modules, gen_sym, hygienic_alias,
exact_src, expand_macros and site.

Interpreter.Import is the import hook: a module's source is parsed, its
macro invocations are expanded, macro modules it imports from are imported
(and thereby executed) first, the hygienic bindings produced by the
expansion are installed into the module's namespace, and finally the
expanded module is executed.

Values

spx values are represented by Go values: int64, float64, string, bool and
nil for None; *List, Tuple, *Dict and *Set for containers; *Function,
*Builtin, *Class, *Object and *Module. Syntax trees are *tree.Node values.
Their fields are accessible as attributes; list fields yield lists of trees.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package interp

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.interp'.
func tracer() tracing.Trace {
	return tracing.Select("splice.interp")
}
