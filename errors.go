package splice

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"strings"
)

// Errors of the expansion engine. All of them propagate to the top-level
// call of an expansion; there is no local recovery and no partial output.

// MacroResolutionError is reported when a macro name is used but has not been
// imported properly, or when an imported macro has no handler for the
// syntactic shape it is used in.
type MacroResolutionError struct {
	Name   string // macro name as used at the invocation site
	Shape  string // "expr", "block" or "decorator"
	Pos    Pos
	Reason string
}

func (e *MacroResolutionError) Error() string {
	return fmt.Sprintf("%s: cannot resolve %s macro '%s': %s", e.Pos, e.Shape, e.Name, e.Reason)
}

// MacroExpansionError wraps an error raised by a macro handler. Traceback
// holds the handler's call trace, if the handler is able to provide one.
type MacroExpansionError struct {
	Name      string // macro name
	Module    string // defining module of the macro
	Pos       Pos    // position of the invocation site
	Traceback string
	Err       error
}

func (e *MacroExpansionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: expansion of macro '%s' (module %s) failed: %v", e.Pos, e.Name, e.Module, e.Err)
	if e.Traceback != "" {
		b.WriteString("\nCaused by macro expansion error:\n")
		b.WriteString(e.Traceback)
	}
	return b.String()
}

func (e *MacroExpansionError) Unwrap() error {
	return e.Err
}

// QuoteReconstructionError is reported when the quote compiler meets a node
// or a value it has no reconstruction rule for.
type QuoteReconstructionError struct {
	Kind   string // offending node kind or Go type
	Reason string
}

func (e *QuoteReconstructionError) Error() string {
	return fmt.Sprintf("cannot reconstruct %s in quote: %s", e.Kind, e.Reason)
}

// PostProcessingError is reported when a tree returned from a macro has a
// shape the context fixer or the position filler cannot repair.
type PostProcessingError struct {
	Kind   string
	Pos    Pos
	Reason string
}

func (e *PostProcessingError) Error() string {
	return fmt.Sprintf("%s: invalid macro output at %s node: %s", e.Pos, e.Kind, e.Reason)
}

// ErrNoExactSource is returned if the original source text of a subtree
// cannot be determined.
var ErrNoExactSource = errors.New("unable to determine exact source of tree")
