/*
Package tree implements the tree model of splice: a homogenous abstract syntax
tree for the spx host language.

Every node carries a discriminating kind out of a closed set of variants. The
structure of a variant is not expressed by a dedicated Go type, but by a
declarative field descriptor: an ordered list of named fields, each holding
either a single node, a list of nodes or a scalar (string, number, bool or
nil). This makes generic tree walking possible without reflection, and it is
what the quote compiler uses to reconstruct trees as constructor calls.

Two kinds are not part of the host grammar:

■ Literal marks a subtree which is already final and has to be passed through
verbatim by quoting and hygiene.

■ Captured pairs a runtime value with a display name. It is used for values
which cannot be reconstructed from syntax.

Nodes are treated as values: operations which change a node return a shallow
copy and leave the original untouched.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.tree'.
func tracer() tracing.Trace {
	return tracing.Select("splice.tree")
}
