/*
Package expand implements the macro expansion driver.

An Expander walks a tree outside-in. At every node it asks the macro table
whether the node is an invocation site. If it is, the macro's handler is
called with the site's payload, and the handler's output is run through a
chain of filters:

■ captured values are registered and replaced by generated symbols

■ missing source positions are filled in from the invocation site

■ missing context tags are filled in, assignment and deletion targets are
forced to their correct context

The filtered output replaces the site and is then scanned for macros again.
Nodes already expanded are never visited a second time, so expansion
terminates as long as no handler keeps producing invocations of itself.

Module expands a whole source module: it detects macro import declarations
of the form

    from mymacros import macros, trace, log

resolves the macro modules, rewrites the import declarations and expands
the module body. The result carries the hygienic bindings which have to be
installed into the module's namespace before the expanded tree is run.

Configuration

If the global configuration flag "dump-macro-expansions" is set, every
substitution is traced.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package expand

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.expand'.
func tracer() tracing.Trace {
	return tracing.Select("splice.expand")
}
