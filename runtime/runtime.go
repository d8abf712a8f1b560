/*
Package runtime implements the runtime environment of the spx evaluator,
consisting of scopes, symbol tables and a stack of call frames.

For a thorough discussion of an interpreter's runtime environment, refer to
"Language Implementation Patterns" by Terence Parr.

Symbol Tables and Scopes

Scopes hold symbol tables, which map names to tags. A tag carries the value
bound to a name. Scopes link to a parent scope; name resolution searches a
scope and then its ancestors. Module namespaces, function activations and
class bodies are scopes, the builtins form the outermost scope.

Call Frames

A call stack records every active function or macro invocation together with
the source position of its call site. It is used to produce tracebacks for
errors, which macro expansion errors carry along.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package runtime

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("splice.runtime")
}

// MaxDepth is the default limit for the depth of the call stack.
const MaxDepth = 900

// Runtime is a type implementing a runtime environment for an interpreter.
type Runtime struct {
	Builtins  *Scope     // outermost scope, shared by all modules
	CallStack *CallStack // stack of active calls
	UData     interface{} // extension point
}

// NewRuntimeEnvironment constructs a new runtime environment, with an empty
// builtins scope and an empty call stack.
func NewRuntimeEnvironment() *Runtime {
	rt := &Runtime{}
	rt.Builtins = NewScope("builtins", nil)
	rt.CallStack = NewCallStack(MaxDepth)
	return rt
}

// NewModuleScope creates the global scope of a module. Its parent is the
// builtins scope.
func (rt *Runtime) NewModuleScope(name string) *Scope {
	return NewScope(name, rt.Builtins)
}
