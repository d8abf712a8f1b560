package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/tree"
)

// Error is an error raised while running an spx program. It carries the
// traceback of the calls active when it was raised.
type Error struct {
	Msg   string
	Pos   splice.Pos
	Value interface{} // the raised exception object, if any
	Err   error       // the underlying Go error, if any
	trace string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Traceback returns the call trace of the error.
func (e *Error) Traceback() string {
	var b strings.Builder
	b.WriteString(e.trace)
	fmt.Fprintf(&b, "  at %s: %s\n", e.Pos, e.Msg)
	return b.String()
}

// raise creates an error located at node n, with a traceback of the current
// call stack.
func (in *Interpreter) raise(n *tree.Node, format string, args ...interface{}) *Error {
	return in.newError(n, fmt.Sprintf(format, args...), nil, nil)
}

func (in *Interpreter) newError(n *tree.Node, msg string, value interface{}, cause error) *Error {
	var pos splice.Pos
	if n != nil {
		pos = n.Pos
	}
	return &Error{
		Msg:   msg,
		Pos:   pos,
		Value: value,
		Err:   cause,
		trace: runtime.Traceback(in.rt.CallStack.Frames()),
	}
}

// wrap converts an error returned by a builtin into an *Error located at n.
// Errors which already are spx errors, or which report expansion failures,
// are returned unchanged.
func (in *Interpreter) wrap(n *tree.Node, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var mee *splice.MacroExpansionError
	var mre *splice.MacroResolutionError
	var ppe *splice.PostProcessingError
	if errors.As(err, &mee) || errors.As(err, &mre) || errors.As(err, &ppe) {
		return err
	}
	return in.newError(n, err.Error(), nil, err)
}
