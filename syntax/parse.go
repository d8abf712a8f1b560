package syntax

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strconv"

	"github.com/npillmayer/splice/tree"
)

// Parse parses an spx source text into a Module tree.
func Parse(src string) (*tree.Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	pos := p.peek().pos
	body, err := p.parseStmts(false)
	if err != nil {
		return nil, err
	}
	return tree.NewModule(body).Located(pos), nil
}

// ParseStmts parses a sequence of statements.
func ParseStmts(src string) ([]*tree.Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseStmts(false)
}

// ParseExpr parses a single expression (or an unparenthesized tuple).
func ParseExpr(src string) (*tree.Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	x, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if t := p.peek(); t.typ != EOF {
		return nil, p.errorf(t, "unexpected %s after expression", t)
	}
	return x, nil
}

type parser struct {
	toks []Token
	at   int
	nest int // nesting depth of brackets; newlines are skipped if > 0
}

func newParser(src string) (*parser, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) peek() Token {
	if p.nest > 0 {
		for p.toks[p.at].typ == Newline {
			p.at++
		}
	}
	return p.toks[p.at]
}

func (p *parser) next() Token {
	t := p.peek()
	if t.typ != EOF {
		p.at++
	}
	return t
}

// peekPastNewlines looks at the next token which is not a newline, without
// consuming anything.
func (p *parser) peekPastNewlines() Token {
	i := p.at
	for p.toks[i].typ == Newline {
		i++
	}
	return p.toks[i]
}

func (p *parser) skipNewlines() {
	for p.toks[p.at].typ == Newline {
		p.at++
	}
}

func (p *parser) errorf(t Token, format string, args ...interface{}) error {
	err := &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
	tracer().Debugf(err.Error())
	return err
}

func (p *parser) accept(lexeme string) bool {
	if p.peek().is(lexeme) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(lexeme string) (Token, error) {
	t := p.next()
	if !t.is(lexeme) {
		return t, p.errorf(t, "expected '%s', found %s", lexeme, t)
	}
	return t, nil
}

func (p *parser) expectIdent() (Token, error) {
	t := p.next()
	if t.typ != Ident {
		return t, p.errorf(t, "expected identifier, found %s", t)
	}
	return t, nil
}

// --- Statements ------------------------------------------------------------

// parseStmts parses statements up to EOF or, if inBlock is set, up to a
// closing brace (which is not consumed).
func (p *parser) parseStmts(inBlock bool) ([]*tree.Node, error) {
	stmts := []*tree.Node{}
	for {
		t := p.peek()
		switch {
		case t.typ == Newline || t.is(";"):
			p.next()
			continue
		case t.typ == EOF:
			if inBlock {
				return nil, p.errorf(t, "unexpected end of input, missing '}'")
			}
			return stmts, nil
		case inBlock && t.is("}"):
			return stmts, nil
		}
		s, compound, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if compound {
			continue
		}
		t = p.peek()
		if !(t.typ == Newline || t.is(";") || t.typ == EOF || (inBlock && t.is("}"))) {
			return nil, p.errorf(t, "expected end of statement, found %s", t)
		}
	}
}

func (p *parser) parseBlock() ([]*tree.Node, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	body, err := p.parseStmts(true)
	if err != nil {
		return nil, err
	}
	_, err = p.expect("}")
	return body, err
}

// parseStmt parses a single statement. It reports whether the statement is
// a compound statement (ending with a block).
func (p *parser) parseStmt() (*tree.Node, bool, error) {
	t := p.peek()
	var s *tree.Node
	var err error
	if t.typ == Keyword {
		switch t.lexeme {
		case "def", "class":
			s, err = p.parseDecorated(nil)
			return s, true, err
		case "if":
			s, err = p.parseIf()
			return s, true, err
		case "while":
			s, err = p.parseWhile()
			return s, true, err
		case "for":
			s, err = p.parseFor()
			return s, true, err
		case "with":
			s, err = p.parseWith()
			return s, true, err
		case "return":
			s, err = p.parseReturn()
		case "pass":
			p.next()
			s = tree.NewPass()
		case "raise":
			s, err = p.parseRaise()
		case "del":
			s, err = p.parseDel()
		case "import":
			s, err = p.parseImport()
		case "from":
			s, err = p.parseImportFrom()
		default:
			s, err = p.parseExprStmt()
		}
	} else if t.is("@") {
		s, err = p.parseDecorators()
		return s, true, err
	} else {
		s, err = p.parseExprStmt()
	}
	if err != nil {
		return nil, false, err
	}
	return s.Located(t.pos), false, nil
}

func (p *parser) parseDecorators() (*tree.Node, error) {
	var decorators []*tree.Node
	for p.accept("@") {
		d, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
		p.skipNewlines()
	}
	t := p.peek()
	if !t.is("def") && !t.is("class") {
		return nil, p.errorf(t, "decorators must be followed by def or class")
	}
	return p.parseDecorated(decorators)
}

func (p *parser) parseDecorated(decorators []*tree.Node) (*tree.Node, error) {
	t := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if t.is("def") {
		if _, err = p.expect("("); err != nil {
			return nil, err
		}
		p.nest++
		args, err := p.parseParams(")")
		p.nest--
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return tree.NewFunctionDef(name.lexeme, args, body, decorators).Located(t.pos), nil
	}
	var bases []*tree.Node
	if p.accept("(") {
		p.nest++
		bases, err = p.parseArgList(")")
		p.nest--
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(")"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tree.NewClassDef(name.lexeme, bases, body, decorators).Located(t.pos), nil
}

// parseParams parses a list of parameter names, up to a closing token.
func (p *parser) parseParams(closing string) ([]*tree.Node, error) {
	args := []*tree.Node{}
	for !p.peek().is(closing) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		args = append(args, tree.NewArg(name.lexeme).Located(name.pos))
		if !p.accept(",") {
			break
		}
	}
	return args, nil
}

// parseArgList parses a comma separated list of expressions up to a closing token.
func (p *parser) parseArgList(closing string) ([]*tree.Node, error) {
	l := []*tree.Node{}
	for !p.peek().is(closing) {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l = append(l, x)
		if !p.accept(",") {
			break
		}
	}
	return l, nil
}

func (p *parser) parseIf() (*tree.Node, error) {
	t := p.next() // 'if' or 'elif'
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	orelse := []*tree.Node{}
	switch la := p.peekPastNewlines(); {
	case la.is("elif"):
		p.skipNewlines()
		elif, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		orelse = []*tree.Node{elif}
	case la.is("else"):
		p.skipNewlines()
		p.next()
		if orelse, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return tree.NewIf(test, body, orelse).Located(t.pos), nil
}

func (p *parser) parseWhile() (*tree.Node, error) {
	t := p.next()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tree.NewWhile(test, body).Located(t.pos), nil
}

func (p *parser) parseFor() (*tree.Node, error) {
	t := p.next()
	target, err := p.parseTargets()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tree.NewFor(withCtx(target, tree.Store), iter, body).Located(t.pos), nil
}

// parseTargets parses a comma separated list of postfix expressions, as used
// for loop variables. A single target is returned as is.
func (p *parser) parseTargets() (*tree.Node, error) {
	pos := p.peek().pos
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.peek().is(",") {
		return first, nil
	}
	elts := []*tree.Node{first}
	for p.accept(",") {
		if p.peek().is("in") {
			break
		}
		x, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		elts = append(elts, x)
	}
	return tree.NewTuple(elts, tree.Load).Located(pos), nil
}

func (p *parser) parseWith() (*tree.Node, error) {
	t := p.next()
	items := []*tree.Node{}
	for {
		pos := p.peek().pos
		ctx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var vars *tree.Node
		if p.accept("as") {
			if vars, err = p.parsePostfix(); err != nil {
				return nil, err
			}
			vars = withCtx(vars, tree.Store)
		}
		items = append(items, tree.NewWithItem(ctx, vars).Located(pos))
		if !p.accept(",") {
			break
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tree.NewWith(items, body).Located(t.pos), nil
}

func (p *parser) atStmtEnd() bool {
	t := p.peek()
	return t.typ == Newline || t.typ == EOF || t.is(";") || t.is("}")
}

func (p *parser) parseReturn() (*tree.Node, error) {
	p.next()
	if p.atStmtEnd() {
		return tree.NewReturn(nil), nil
	}
	x, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return tree.NewReturn(x), nil
}

func (p *parser) parseRaise() (*tree.Node, error) {
	p.next()
	if p.atStmtEnd() {
		return tree.NewRaise(nil), nil
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return tree.NewRaise(x), nil
}

func (p *parser) parseDel() (*tree.Node, error) {
	p.next()
	targets := []*tree.Node{}
	for {
		x, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		targets = append(targets, withCtx(x, tree.Del))
		if !p.accept(",") {
			break
		}
	}
	return tree.NewDelete(targets), nil
}

func (p *parser) parseDotted() (string, error) {
	name, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	s := name.lexeme
	for p.accept(".") {
		part, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		s += "." + part.lexeme
	}
	return s, nil
}

func (p *parser) parseImport() (*tree.Node, error) {
	p.next()
	names := []*tree.Node{}
	for {
		pos := p.peek().pos
		name, err := p.parseDotted()
		if err != nil {
			return nil, err
		}
		asname := ""
		if p.accept("as") {
			t, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			asname = t.lexeme
		}
		names = append(names, tree.NewAlias(name, asname).Located(pos))
		if !p.accept(",") {
			break
		}
	}
	return tree.NewImport(names), nil
}

func (p *parser) parseImportFrom() (*tree.Node, error) {
	p.next()
	module, err := p.parseDotted()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect("import"); err != nil {
		return nil, err
	}
	paren := p.accept("(")
	if paren {
		p.nest++
	}
	names := []*tree.Node{}
	for {
		t, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		asname := ""
		if p.accept("as") {
			a, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			asname = a.lexeme
		}
		names = append(names, tree.NewAlias(t.lexeme, asname).Located(t.pos))
		if !p.accept(",") || (paren && p.peek().is(")")) {
			break
		}
	}
	if paren {
		p.nest--
		if _, err = p.expect(")"); err != nil {
			return nil, err
		}
	}
	return tree.NewImportFrom(module, names), nil
}

var augOps = map[string]string{"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%"}

func (p *parser) parseExprStmt() (*tree.Node, error) {
	x, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if op, ok := augOps[t.lexeme]; ok && t.typ == Operator {
		p.next()
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return tree.NewAugAssign(withCtx(x, tree.Store), op, v), nil
	}
	if !t.is("=") {
		return tree.NewExprStmt(x), nil
	}
	targets := []*tree.Node{x}
	for p.accept("=") {
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		targets = append(targets, v)
	}
	value := targets[len(targets)-1]
	targets = targets[:len(targets)-1]
	for i, target := range targets {
		targets[i] = withCtx(target, tree.Store)
	}
	return tree.NewAssign(targets, value), nil
}

// withCtx sets the context of an assignment or deletion target. Tuples and
// lists propagate the context to their elements.
func withCtx(n *tree.Node, ctx tree.Ctx) *tree.Node {
	switch n.Kind {
	case tree.Name, tree.Attribute, tree.Subscript:
		return n.WithCtx(ctx)
	case tree.Tuple, tree.List:
		elts := n.Children("elts")
		l := make([]*tree.Node, len(elts))
		for i, e := range elts {
			l[i] = withCtx(e, ctx)
		}
		return n.With("elts", l).WithCtx(ctx)
	}
	return n
}

// --- Expressions -----------------------------------------------------------

// parseExprList parses an expression, or a tuple if there are commas.
func (p *parser) parseExprList() (*tree.Node, error) {
	pos := p.peek().pos
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.peek().is(",") {
		return first, nil
	}
	elts := []*tree.Node{first}
	for p.accept(",") {
		if p.atExprListEnd() {
			break
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, x)
	}
	return tree.NewTuple(elts, tree.Load).Located(pos), nil
}

func (p *parser) atExprListEnd() bool {
	t := p.peek()
	return p.atStmtEnd() || t.is(")") || t.is("]") || t.is("=") || t.is("{")
}

func (p *parser) parseExpr() (*tree.Node, error) {
	if t := p.peek(); t.is("lambda") {
		p.next()
		args, err := p.parseParams(":")
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(":"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return tree.NewLambda(args, body).Located(t.pos), nil
	}
	return p.parseOr()
}

func (p *parser) parseOr() (*tree.Node, error) {
	return p.parseBinary(p.parseAnd, "or")
}

func (p *parser) parseAnd() (*tree.Node, error) {
	return p.parseBinary(p.parseNot, "and")
}

func (p *parser) parseNot() (*tree.Node, error) {
	if t := p.peek(); t.is("not") {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return tree.NewUnaryOp("not", x).Located(t.pos), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*tree.Node, error) {
	x, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		op := ""
		switch {
		case t.typ == Operator && (t.lexeme == "<" || t.lexeme == ">" || t.lexeme == "<=" ||
			t.lexeme == ">=" || t.lexeme == "==" || t.lexeme == "!="):
			op = t.lexeme
			p.next()
		case t.is("in"):
			op = "in"
			p.next()
		case t.is("is"):
			p.next()
			op = "is"
			if p.accept("not") {
				op = "is not"
			}
		case t.is("not"):
			p.next()
			if _, err = p.expect("in"); err != nil {
				return nil, err
			}
			op = "not in"
		default:
			return x, nil
		}
		y, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		x = tree.NewBinOp(x, op, y).Located(x.Pos)
	}
}

func (p *parser) parseArith() (*tree.Node, error) {
	return p.parseBinary(p.parseTerm, "+", "-")
}

func (p *parser) parseTerm() (*tree.Node, error) {
	return p.parseBinary(p.parseUnary, "*", "/", "%")
}

// parseBinary parses left-associative binary operations.
func (p *parser) parseBinary(operand func() (*tree.Node, error), ops ...string) (*tree.Node, error) {
	x, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		matched := false
		for _, op := range ops {
			if t.is(op) {
				matched = true
				break
			}
		}
		if !matched {
			return x, nil
		}
		p.next()
		y, err := operand()
		if err != nil {
			return nil, err
		}
		x = tree.NewBinOp(x, t.lexeme, y).Located(x.Pos)
	}
}

func (p *parser) parseUnary() (*tree.Node, error) {
	t := p.peek()
	if !t.is("-") && !t.is("+") {
		return p.parsePostfix()
	}
	p.next()
	if num := p.peek(); t.lexeme == "-" && (num.typ == Int || num.typ == Float) {
		// negative number literal
		p.next()
		x, err := p.postfix(negate(num))
		if err != nil {
			return nil, err
		}
		return x, nil
	}
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return tree.NewUnaryOp(t.lexeme, x).Located(t.pos), nil
}

func negate(t Token) *tree.Node {
	switch v := t.value.(type) {
	case int64:
		return tree.NewInt(-v).Located(t.pos)
	case float64:
		if t.typ == Int { // -9223372036854775808 still fits into int64
			if i, err := strconv.ParseInt("-"+t.lexeme, 10, 64); err == nil {
				return tree.NewInt(i).Located(t.pos)
			}
		}
		return tree.NewFloat(-v).Located(t.pos)
	}
	panic(fmt.Sprintf("syntax: number token without numeric value: %v", t))
}

func (p *parser) parsePostfix() (*tree.Node, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.postfix(x)
}

// postfix parses calls, subscripts and attribute references following x.
func (p *parser) postfix(x *tree.Node) (*tree.Node, error) {
	for {
		t := p.peek()
		switch {
		case t.is("("):
			p.next()
			p.nest++
			args, keywords, err := p.parseCallArgs()
			p.nest--
			if err != nil {
				return nil, err
			}
			if _, err = p.expect(")"); err != nil {
				return nil, err
			}
			x = tree.NewCall(x, args, keywords).Located(x.Pos)
		case t.is("["):
			p.next()
			p.nest++
			index, err := p.parseExprList()
			p.nest--
			if err != nil {
				return nil, err
			}
			if _, err = p.expect("]"); err != nil {
				return nil, err
			}
			x = tree.NewSubscript(x, index, tree.Load).Located(x.Pos)
		case t.is("."):
			p.next()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			x = tree.NewAttribute(x, name.lexeme, tree.Load).Located(x.Pos)
		default:
			return x, nil
		}
	}
}

func (p *parser) parseCallArgs() ([]*tree.Node, []*tree.Node, error) {
	args, keywords := []*tree.Node{}, []*tree.Node{}
	for !p.peek().is(")") {
		t := p.peek()
		if t.typ == Ident && p.toks[p.at+1].is("=") {
			p.next()
			p.next()
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			keywords = append(keywords, tree.NewKeyword(t.lexeme, v).Located(t.pos))
		} else {
			if len(keywords) > 0 {
				return nil, nil, p.errorf(t, "positional argument follows keyword argument")
			}
			x, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, x)
		}
		if !p.accept(",") {
			break
		}
	}
	return args, keywords, nil
}

func (p *parser) parseAtom() (*tree.Node, error) {
	t := p.next()
	switch t.typ {
	case Ident:
		return tree.NewName(t.lexeme, tree.Load).Located(t.pos), nil
	case Int, Float:
		return tree.NewNum(t.value).Located(t.pos), nil
	case String:
		return tree.NewStr(t.value.(string)).Located(t.pos), nil
	case Keyword:
		switch t.lexeme {
		case "True":
			return tree.NewConst(true).Located(t.pos), nil
		case "False":
			return tree.NewConst(false).Located(t.pos), nil
		case "None":
			return tree.NewConst(nil).Located(t.pos), nil
		}
	case Operator:
		switch t.lexeme {
		case "(":
			return p.parseParenthesized(t)
		case "[":
			p.nest++
			elts, err := p.parseArgList("]")
			p.nest--
			if err != nil {
				return nil, err
			}
			if _, err = p.expect("]"); err != nil {
				return nil, err
			}
			return tree.NewList(elts, tree.Load).Located(t.pos), nil
		case "{":
			return p.parseDisplay(t)
		}
	}
	return nil, p.errorf(t, "unexpected %s", t)
}

func (p *parser) parseParenthesized(open Token) (*tree.Node, error) {
	p.nest++
	defer func() { p.nest-- }()
	if p.accept(")") {
		return tree.NewTuple(nil, tree.Load).Located(open.pos), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.accept(")") {
		return first, nil
	}
	if _, err = p.expect(","); err != nil {
		return nil, err
	}
	elts := []*tree.Node{first}
	rest, err := p.parseArgList(")")
	if err != nil {
		return nil, err
	}
	elts = append(elts, rest...)
	if _, err = p.expect(")"); err != nil {
		return nil, err
	}
	return tree.NewTuple(elts, tree.Load).Located(open.pos), nil
}

// parseDisplay parses a dict or set display.
func (p *parser) parseDisplay(open Token) (*tree.Node, error) {
	p.nest++
	defer func() { p.nest-- }()
	if p.accept("}") {
		return tree.NewDict(nil, nil).Located(open.pos), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.accept(":") { // set
		elts := []*tree.Node{first}
		if p.accept(",") {
			rest, err := p.parseArgList("}")
			if err != nil {
				return nil, err
			}
			elts = append(elts, rest...)
		}
		if _, err = p.expect("}"); err != nil {
			return nil, err
		}
		return tree.NewSet(elts).Located(open.pos), nil
	}
	keys, values := []*tree.Node{first}, []*tree.Node{}
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.accept(",") || p.peek().is("}") {
			break
		}
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		if _, err = p.expect(":"); err != nil {
			return nil, err
		}
	}
	if _, err = p.expect("}"); err != nil {
		return nil, err
	}
	return tree.NewDict(keys, values).Located(open.pos), nil
}
