/*
Package hygiene keeps names introduced by macros apart from the names of the
code a macro is used in.

Hygienic quotes `hq[…]` work like the quotes of package quote, but every free
identifier within the quoted fragment refers to the binding visible where the
quote is written, i.e. in the macro module, not where the macro is expanded.
To achieve this, the renamer replaces free names with generator code
creating Captured nodes, carrying the value of the name when the macro runs.
During expansion, a Registrar replaces every Captured node by a reference to
a fresh symbol and records the binding of symbol to value. The bindings are
installed in the namespace of the expanded module before it is executed.

Names wrapped into `unhygienic[…]` are exempt from renaming. They resolve
at the expansion site, which lets macros bind names in the caller's scope on
purpose.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package hygiene

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.hygiene'.
func tracer() tracing.Trace {
	return tracing.Select("splice.hygiene")
}
