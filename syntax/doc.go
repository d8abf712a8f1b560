/*
Package syntax implements parsing and rendering of spx, the host language of
splice.

Spx is a small language shaped like Python, with brace-delimited blocks:

    from mymacros import macros, trace
    @memo
    def f(a, b) { return a + b }
    with trace as body {
        x = f(1, 2)
    }
    y = trace[x * 2]

Statements are separated by newlines or semicolons. Newlines are
insignificant inside parentheses, brackets and dict or set displays. Comments
start with '#' and extend to the end of the line.

The scanner is built on lexmachine, the parser is a hand-written recursive
descent parser producing trees of package tree. Render is the inverse of Parse:
for every tree t returned by Parse, Parse(Render(t)) is structurally equal to
t (positions aside).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package syntax

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.syntax'.
func tracer() tracing.Trace {
	return tracing.Select("splice.syntax")
}
