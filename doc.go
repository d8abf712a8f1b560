/*
Package splice is a source-to-source macro expansion engine.

Splice parses a program into a homogenous abstract syntax tree, finds macro
invocation sites in it, calls user supplied transformation functions on the
matched subtrees, splices the results back and renders the tree to source
again. Macro authors write replacement code as quasi-quoted syntax instead of
constructing tree nodes by hand, and a hygiene layer keeps identifiers
introduced by macros from capturing (or being captured by) identifiers at the
call site.

Package structure is as follows:

■ tree: Package tree implements the tree model, together with the opaque
"literal" and "captured value" marker nodes.

■ walk: Package walk implements a generic tree walker with context threading,
node replacement, collection of values and pruning.

■ macro: Package macro implements macro registries and the detection of macro
invocation sites.

■ expand: Package expand drives expansion to a fixed point and post-processes
every macro result.

■ quote and hygiene: Packages for quasi-quotation and hygienic quotation.

■ syntax and interp: The spx host language, i.e. parser, renderer and an
evaluator. These are the collaborators the engine is tested against.

The base package contains data types which are used throughout all the other
packages: source positions, tokens and the error taxonomy.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package splice
