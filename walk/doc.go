/*
Package walk implements a generic walker for splice trees.

A walker is created from a visit function, which is called for every node of
a tree in pre-order, i.e. before the node's children are visited. Clients use
the Control handed to the visit function to steer the walk:

■ Replace or ReplaceList substitute the current node. Descent continues into
the children of the replacement. A list replacement is spliced into the
enclosing list, which is how a single node may turn into zero, one or many
siblings.

■ SetCtx and SetFieldCtx override the context value threaded down to the
children of the current node (all of them, or the ones of a named field).
Overrides never affect siblings.

■ Collect appends values to an aggregate, which is returned in pre-order,
left to right.

■ Stop prunes the walk below the current node (or its replacement).

Walkers are free of reflection: descent is driven by the field descriptors of
package tree. Trees are never changed in place; a node is copied whenever one
of its children has been replaced, untouched subtrees are shared.

Errors returned by a visit function terminate the walk and are passed on to the
caller as they are.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package walk

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.walk'.
func tracer() tracing.Trace {
	return tracing.Select("splice.walk")
}
