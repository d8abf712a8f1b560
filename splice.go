package splice

import "fmt"

// --- Source positions ------------------------------------------------------

// Pos is a (line, column) position in a source text. Lines and columns start
// at 1. A line of 0 means the position is unknown, which is the case for
// nodes created by macros.
type Pos struct {
	Line int
	Col  int
}

// NoPos is the unknown position.
var NoPos = Pos{}

// IsKnown returns true if a position carries line information.
func (p Pos) IsKnown() bool {
	return p.Line > 0
}

// Less compares two positions, ordering by line first and column second.
func (p Pos) Less(q Pos) bool {
	if p.Line == q.Line {
		return p.Col < q.Col
	}
	return p.Line < q.Line
}

func (p Pos) String() string {
	if !p.IsKnown() {
		return "?:?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. Token categories are defined by
// the scanner in package syntax.
type TokType int

// Tokens represent input tokens. They are produced by a scanner and reflect
// terminals of the host language.
//
// An example would be a token for a floating point number:
//
//    TokType = Num         // identifier for this kind of tokens
//    Lexeme  = "3.1416"    // lexeme how it appeared in the input stream
//    Value   = 3.1416      // is a float64 value
//    Span    = 67…73       // occured from position 67 in the input stream
//    Pos     = 3:12        // line and column of the first character
//
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
	Pos() Pos
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a run of input bytes. A span denotes a
// start offset and the offset just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
