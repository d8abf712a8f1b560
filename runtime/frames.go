package runtime

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/splice"
)

// This module implements a stack of call frames.
// Call frames are used by the evaluator to keep track of active function
// and macro invocations, for tracebacks and for limiting recursion.

// Frame is a call frame, representing the activation of a function.
type Frame struct {
	Name  string     // name of the called function or macro
	Pos   splice.Pos // position of the call site
	Scope *Scope     // local scope of the activation
}

func (f *Frame) String() string {
	return fmt.Sprintf("<frame %s @%s>", f.Name, f.Pos)
}

// ---------------------------------------------------------------------------

// CallStack is a stack of call frames. The zero value is not usable, create
// call stacks with NewCallStack.
type CallStack struct {
	frames   *arraystack.Stack
	maxDepth int
}

// NewCallStack creates an empty call stack. Pushing more than maxDepth frames
// fails.
func NewCallStack(maxDepth int) *CallStack {
	return &CallStack{frames: arraystack.New(), maxDepth: maxDepth}
}

// RecursionError is returned if the call stack overflows.
type RecursionError struct {
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("maximum recursion depth exceeded (%d)", e.Depth)
}

// Push pushes a new call frame as TOS.
func (cs *CallStack) Push(name string, pos splice.Pos, scope *Scope) (*Frame, error) {
	if cs.maxDepth > 0 && cs.frames.Size() >= cs.maxDepth {
		return nil, &RecursionError{Depth: cs.maxDepth}
	}
	f := &Frame{Name: name, Pos: pos, Scope: scope}
	cs.frames.Push(f)
	tracer().P("frame", name).Debugf("pushing new call frame")
	return f, nil
}

// Pop pops the top-most call frame. Returns the popped frame.
func (cs *CallStack) Pop() *Frame {
	f, ok := cs.frames.Pop()
	if !ok {
		panic("attempt to pop frame from empty call stack")
	}
	tracer().Debugf("popping call frame [%s]", f.(*Frame).Name)
	return f.(*Frame)
}

// Current gets the current call frame (TOS), or nil if the stack is empty.
func (cs *CallStack) Current() *Frame {
	if f, ok := cs.frames.Peek(); ok {
		return f.(*Frame)
	}
	return nil
}

// Depth returns the number of active frames.
func (cs *CallStack) Depth() int {
	return cs.frames.Size()
}

// Frames returns the active frames, outermost first.
func (cs *CallStack) Frames() []*Frame {
	values := cs.frames.Values() // top first
	frames := make([]*Frame, len(values))
	for i, v := range values {
		frames[len(values)-1-i] = v.(*Frame)
	}
	return frames
}

// Traceback formats a list of frames, outermost call first.
func Traceback(frames []*Frame) string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, f := range frames {
		fmt.Fprintf(&b, "  at %s, in %s\n", f.Pos, f.Name)
	}
	return b.String()
}
