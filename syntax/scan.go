package syntax

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/splice"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Token categories of spx. Keywords and operators are distinguished by their
// lexemes.
const (
	EOF splice.TokType = iota
	Newline
	Ident
	Int
	Float
	String
	Keyword
	Operator
)

var tokTypeNames = []string{"EOF", "NEWLINE", "IDENT", "INT", "FLOAT", "STRING", "KEYWORD", "OP"}

// TokTypeString returns a readable name for a token category.
func TokTypeString(t splice.TokType) string {
	if int(t) < len(tokTypeNames) {
		return tokTypeNames[t]
	}
	return fmt.Sprintf("<toktype %d>", t)
}

// Operators and punctuation. Longest match wins, thus '==' is preferred over '='.
var operators = []string{
	"+", "-", "*", "/", "%", "=", "<", ">", "==", "!=", "<=", ">=",
	"+=", "-=", "*=", "/=", "%=",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "@",
}

var keywords = map[string]bool{
	"from": true, "import": true, "as": true, "def": true, "class": true,
	"return": true, "if": true, "elif": true, "else": true, "while": true,
	"for": true, "in": true, "with": true, "del": true, "pass": true,
	"raise": true, "lambda": true, "and": true, "or": true, "not": true,
	"is": true, "True": true, "False": true, "None": true,
}

// IsKeyword returns true if s is a reserved word of spx.
func IsKeyword(s string) bool {
	return keywords[s]
}

// Token is the token type produced by the spx scanner.
type Token struct {
	typ    splice.TokType
	lexeme string
	value  interface{}
	span   splice.Span
	pos    splice.Pos
}

var _ splice.Token = Token{}

func (t Token) TokType() splice.TokType { return t.typ }
func (t Token) Lexeme() string          { return t.lexeme }
func (t Token) Value() interface{}      { return t.value }
func (t Token) Span() splice.Span       { return t.span }
func (t Token) Pos() splice.Pos         { return t.pos }

func (t Token) String() string {
	if t.typ == Newline {
		return fmt.Sprintf("%s@%s", TokTypeString(t.typ), t.pos)
	}
	return fmt.Sprintf("%s'%s'@%s", TokTypeString(t.typ), t.lexeme, t.pos)
}

// is checks a keyword or operator token for its lexeme.
func (t Token) is(lexeme string) bool {
	return (t.typ == Keyword || t.typ == Operator) && t.lexeme == lexeme
}

// --- Lexer -----------------------------------------------------------------

var lexer *lexmachine.Lexer
var lexerErr error
var initOnce sync.Once // monitors one-time initialization of the lexer

// Lexer returns the lexmachine lexer for spx. The DFA is compiled once.
func Lexer() (*lexmachine.Lexer, error) {
	initOnce.Do(func() {
		lx := lexmachine.NewLexer()
		lx.Add([]byte(`\#[^\n]*`), skip) // comments
		lx.Add([]byte(`( |\t|\r)+`), skip)
		lx.Add([]byte(`\\\r?\n`), skip) // line continuation
		lx.Add([]byte(`\n`), makeToken(Newline))
		lx.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), identOrKeyword)
		lx.Add([]byte(`[0-9]+`), makeToken(Int))
		lx.Add([]byte(`[0-9]+\.[0-9]*([eE][\+\-]?[0-9]+)?`), makeToken(Float))
		lx.Add([]byte(`\.[0-9]+([eE][\+\-]?[0-9]+)?`), makeToken(Float))
		lx.Add([]byte(`[0-9]+[eE][\+\-]?[0-9]+`), makeToken(Float))
		lx.Add([]byte(`"([^"\\\n]|\\.)*"`), makeToken(String))
		lx.Add([]byte(`'([^'\\\n]|\\.)*'`), makeToken(String))
		for _, op := range operators {
			r := "\\" + strings.Join(strings.Split(op, ""), "\\")
			lx.Add([]byte(r), makeToken(Operator))
		}
		if err := lx.Compile(); err != nil {
			tracer().Errorf("error compiling DFA: %v", err)
			lexerErr = err
			return
		}
		lexer = lx
	})
	return lexer, lexerErr
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(typ splice.TokType) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(int(typ), string(m.Bytes), m), nil
	}
}

func identOrKeyword(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	if keywords[string(m.Bytes)] {
		return s.Token(int(Keyword), string(m.Bytes), m), nil
	}
	return s.Token(int(Ident), string(m.Bytes), m), nil
}

// --- Scanning --------------------------------------------------------------

// SyntaxError is returned for malformed input.
type SyntaxError struct {
	Pos splice.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}

// lineIndex maps byte offsets to line/column positions.
type lineIndex []int // offsets of line starts

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (idx lineIndex) pos(offset int) splice.Pos {
	line := sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) // first line starting after offset
	return splice.Pos{Line: line, Col: offset - idx[line-1] + 1}
}

// Tokenize splits an spx source text into tokens. The token list is
// terminated by an EOF token.
func Tokenize(src string) ([]Token, error) {
	lx, err := Lexer()
	if err != nil {
		return nil, err
	}
	idx := newLineIndex(src)
	scan, err := lx.Scanner([]byte(src))
	if err != nil {
		return nil, err
	}
	var toks []Token
	for tok, err, eof := scan.Next(); !eof; tok, err, eof = scan.Next() {
		if err != nil {
			var ui *machines.UnconsumedInput
			if errors.As(err, &ui) {
				return nil, &SyntaxError{Pos: idx.pos(ui.FailTC), Msg: "unexpected character"}
			}
			return nil, err
		}
		lt := tok.(*lexmachine.Token)
		t := Token{
			typ:    splice.TokType(lt.Type),
			lexeme: string(lt.Lexeme),
			span:   splice.Span{uint64(lt.TC), uint64(lt.TC + len(lt.Lexeme))},
			pos:    idx.pos(lt.TC),
		}
		if t.value, err = tokenValue(t); err != nil {
			return nil, &SyntaxError{Pos: t.pos, Msg: err.Error()}
		}
		toks = append(toks, t)
	}
	end := len(src)
	toks = append(toks, Token{typ: EOF, span: splice.Span{uint64(end), uint64(end)}, pos: idx.pos(end)})
	return toks, nil
}

func tokenValue(t Token) (interface{}, error) {
	switch t.typ {
	case Int:
		i, err := strconv.ParseInt(t.lexeme, 10, 64)
		if err != nil { // too large for int64
			return parseFloat(t.lexeme)
		}
		return i, nil
	case Float:
		return parseFloat(t.lexeme)
	case String:
		return unquote(t.lexeme)
	}
	return nil, nil
}

// parseFloat accepts overflowing literals, which evaluate to ±Inf.
func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return f, nil
}

// unquote interprets a string literal. Single-quoted strings use the same
// escapes as double-quoted ones.
func unquote(lit string) (string, error) {
	if lit[0] == '"' {
		return strconv.Unquote(lit)
	}
	var b strings.Builder
	b.WriteByte('"')
	body := lit[1 : len(lit)-1]
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return strconv.Unquote(b.String())
}

// Quote renders a string as a literal. It is the inverse of the scanner's
// interpretation of string literals.
func Quote(s string) string {
	return strconv.Quote(s)
}
