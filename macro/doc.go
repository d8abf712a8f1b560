/*
Package macro holds macro definitions and detects macro invocation sites.

Macros are grouped into modules. A macro module is built once, with a
Builder, and is immutable afterwards. It may therefore be shared between
concurrent expansions. Every macro has one of three shapes:

■ Expression macros are invoked by subscripting the macro's name, as in
`name[expr]` or `name(args)[expr]`.

■ Block macros guard a with-statement, as in `with name { … }` or
`with name(args) as target { … }`.

■ Decorator macros decorate a function or class definition, as in
`@name` or `@name(args)`.

Source files activate macros with import statements of the form

    from mymodule import macros, name1, name2 as alias

A Table records these bindings, and Table.Detect recognizes invocation sites
within a tree.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package macro

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.macro'.
func tracer() tracing.Trace {
	return tracing.Select("splice.macro")
}
