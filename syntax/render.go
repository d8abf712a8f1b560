package syntax

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/splice/tree"
)

// Operator precedences, loosest binding first.
const (
	precLambda = iota + 1
	precOr
	precAnd
	precNot
	precCompare
	precArith
	precTerm
	precUnary
	precPostfix
	precAtom
)

var binaryPrec = map[string]int{
	"or": precOr, "and": precAnd,
	"<": precCompare, ">": precCompare, "<=": precCompare, ">=": precCompare,
	"==": precCompare, "!=": precCompare, "in": precCompare, "not in": precCompare,
	"is": precCompare, "is not": precCompare,
	"+": precArith, "-": precArith,
	"*": precTerm, "/": precTerm, "%": precTerm,
}

// InfSentinel is the literal rendered for positive infinity. It overflows to
// +Inf when parsed.
const InfSentinel = "1e999"

// Render renders a tree (a module, a statement or an expression) as spx
// source text.
func Render(n *tree.Node) (string, error) {
	r := &renderer{}
	if n == nil {
		return "", nil
	}
	switch n.Kind.Class() {
	case tree.Stmt:
		r.stmt(n, 0)
	case tree.Expr, tree.Marker:
		r.expr(n, 0)
	default:
		if n.Is(tree.Module) {
			r.stmts(n.Children("body"), 0)
		} else {
			r.aux(n)
		}
	}
	if r.err != nil {
		return "", r.err
	}
	return r.String(), nil
}

// RenderStmts renders a list of statements.
func RenderStmts(l []*tree.Node) (string, error) {
	r := &renderer{}
	r.stmts(l, 0)
	if r.err != nil {
		return "", r.err
	}
	return r.String(), nil
}

// MustRender renders a tree and returns an error marker text instead of an
// error. It is intended for diagnostics.
func MustRender(n *tree.Node) string {
	s, err := Render(n)
	if err != nil {
		return fmt.Sprintf("<unrenderable: %v>", err)
	}
	return s
}

type renderer struct {
	strings.Builder
	err error
}

func (r *renderer) fail(n *tree.Node, reason string) {
	if r.err == nil {
		r.err = fmt.Errorf("cannot render %s: %s", n.Kind, reason)
	}
}

func (r *renderer) indent(depth int) {
	for i := 0; i < depth; i++ {
		r.WriteString("    ")
	}
}

func (r *renderer) stmts(l []*tree.Node, depth int) {
	for _, s := range l {
		r.stmt(s, depth)
	}
}

func (r *renderer) block(body []*tree.Node, depth int) {
	r.WriteString(" {\n")
	r.stmts(body, depth+1)
	r.indent(depth)
	r.WriteString("}")
}

func (r *renderer) stmt(n *tree.Node, depth int) {
	r.indent(depth)
	switch n.Kind {
	case tree.ExprStmt:
		r.exprList(n.Child("value"))
	case tree.Assign:
		for _, t := range n.Children("targets") {
			r.exprList(t)
			r.WriteString(" = ")
		}
		r.exprList(n.Child("value"))
	case tree.AugAssign:
		r.exprList(n.Child("target"))
		r.WriteString(" " + n.Text("op") + "= ")
		r.exprList(n.Child("value"))
	case tree.Delete:
		r.WriteString("del ")
		r.commaList(n.Children("targets"))
	case tree.FunctionDef, tree.ClassDef:
		r.decorated(n, depth)
	case tree.Return:
		r.WriteString("return")
		if v := n.Child("value"); v != nil {
			r.WriteString(" ")
			r.exprList(v)
		}
	case tree.If:
		r.ifStmt(n, depth)
	case tree.While:
		r.WriteString("while ")
		r.expr(n.Child("test"), 0)
		r.block(n.Children("body"), depth)
	case tree.For:
		r.WriteString("for ")
		r.exprList(n.Child("target"))
		r.WriteString(" in ")
		r.exprList(n.Child("iter"))
		r.block(n.Children("body"), depth)
	case tree.With:
		r.WriteString("with ")
		for i, item := range n.Children("items") {
			if i > 0 {
				r.WriteString(", ")
			}
			r.aux(item)
		}
		r.block(n.Children("body"), depth)
	case tree.Import:
		r.WriteString("import ")
		r.aliases(n.Children("names"))
	case tree.ImportFrom:
		r.WriteString("from " + n.Text("module") + " import ")
		r.aliases(n.Children("names"))
	case tree.Pass:
		r.WriteString("pass")
	case tree.Raise:
		r.WriteString("raise")
		if x := n.Child("exc"); x != nil {
			r.WriteString(" ")
			r.expr(x, 0)
		}
	default:
		r.fail(n, "not a statement")
	}
	r.WriteString("\n")
}

func (r *renderer) decorated(n *tree.Node, depth int) {
	for i, d := range n.Children("decorators") {
		if i > 0 {
			r.indent(depth)
		}
		r.WriteString("@")
		r.expr(d, 0)
		r.WriteString("\n")
	}
	if len(n.Children("decorators")) > 0 {
		r.indent(depth)
	}
	if n.Is(tree.FunctionDef) {
		r.WriteString("def " + n.Text("name") + "(")
		r.commaList(n.Children("args"))
		r.WriteString(")")
	} else {
		r.WriteString("class " + n.Text("name"))
		if bases := n.Children("bases"); len(bases) > 0 {
			r.WriteString("(")
			r.commaList(bases)
			r.WriteString(")")
		}
	}
	r.block(n.Children("body"), depth)
}

func (r *renderer) ifStmt(n *tree.Node, depth int) {
	r.WriteString("if ")
	for {
		r.expr(n.Child("test"), 0)
		r.block(n.Children("body"), depth)
		orelse := n.Children("orelse")
		if len(orelse) == 0 {
			return
		}
		if len(orelse) == 1 && orelse[0].Is(tree.If) {
			r.WriteString(" elif ")
			n = orelse[0]
			continue
		}
		r.WriteString(" else")
		r.block(orelse, depth)
		return
	}
}

func (r *renderer) aliases(names []*tree.Node) {
	for i, a := range names {
		if i > 0 {
			r.WriteString(", ")
		}
		r.aux(a)
	}
}

// aux renders helper nodes: with-items, aliases, keywords and args.
func (r *renderer) aux(n *tree.Node) {
	switch n.Kind {
	case tree.WithItem:
		r.expr(n.Child("context"), 0)
		if v := n.Child("vars"); v != nil {
			r.WriteString(" as ")
			r.expr(v, precPostfix)
		}
	case tree.Alias:
		r.WriteString(n.Text("name"))
		if as := n.Text("asname"); as != "" {
			r.WriteString(" as " + as)
		}
	case tree.Keyword:
		r.WriteString(n.Text("arg") + "=")
		r.expr(n.Child("value"), 0)
	case tree.Arg:
		r.WriteString(n.Text("name"))
	case tree.Module:
		r.stmts(n.Children("body"), 0)
	default:
		r.fail(n, "unexpected node")
	}
}

func (r *renderer) commaList(l []*tree.Node) {
	for i, x := range l {
		if i > 0 {
			r.WriteString(", ")
		}
		if x.Kind.Class() == tree.Aux {
			r.aux(x)
		} else {
			r.expr(x, 0)
		}
	}
}

// exprList renders an expression in a position where an unparenthesized
// tuple would be allowed. Tuples are parenthesized anyway.
func (r *renderer) exprList(n *tree.Node) {
	r.expr(n, 0)
}

func (r *renderer) expr(n *tree.Node, minPrec int) {
	if n == nil {
		r.WriteString("None")
		return
	}
	prec := precedence(n)
	if prec < minPrec {
		r.WriteString("(")
		defer r.WriteString(")")
	}
	switch n.Kind {
	case tree.Name:
		r.WriteString(n.Text("id"))
	case tree.Num:
		r.WriteString(FormatNumber(n.Get("n")))
	case tree.Str:
		r.WriteString(Quote(n.Text("s")))
	case tree.Const:
		r.WriteString(formatConst(n.Get("value")))
	case tree.BinOp:
		op := n.Text("op")
		r.expr(n.Child("left"), prec)
		r.WriteString(" " + op + " ")
		r.expr(n.Child("right"), prec+1)
	case tree.UnaryOp:
		op := n.Text("op")
		operand := n.Child("operand")
		if op == "not" {
			r.WriteString("not ")
			r.expr(operand, precNot)
		} else if operand.Is(tree.Num) {
			r.WriteString(op + "(")
			r.expr(operand, 0)
			r.WriteString(")")
		} else {
			r.WriteString(op)
			r.expr(operand, precUnary)
		}
	case tree.Call:
		r.expr(n.Child("func"), precPostfix)
		r.WriteString("(")
		r.commaList(n.Children("args"))
		if kw := n.Children("keywords"); len(kw) > 0 {
			if len(n.Children("args")) > 0 {
				r.WriteString(", ")
			}
			r.commaList(kw)
		}
		r.WriteString(")")
	case tree.Attribute:
		v := n.Child("value")
		if v.Is(tree.Num) {
			r.WriteString("(")
			r.expr(v, 0)
			r.WriteString(")")
		} else {
			r.expr(v, precPostfix)
		}
		r.WriteString("." + n.Text("attr"))
	case tree.Subscript:
		r.expr(n.Child("value"), precPostfix)
		r.WriteString("[")
		r.expr(n.Child("index"), 0)
		r.WriteString("]")
	case tree.List:
		r.WriteString("[")
		r.commaList(n.Children("elts"))
		r.WriteString("]")
	case tree.Tuple:
		elts := n.Children("elts")
		r.WriteString("(")
		r.commaList(elts)
		if len(elts) == 1 {
			r.WriteString(",")
		}
		r.WriteString(")")
	case tree.Set:
		if len(n.Children("elts")) == 0 {
			r.fail(n, "empty sets have no literal")
			return
		}
		r.WriteString("{")
		r.commaList(n.Children("elts"))
		r.WriteString("}")
	case tree.Dict:
		keys, values := n.Children("keys"), n.Children("values")
		if len(keys) != len(values) {
			r.fail(n, "number of keys and values differ")
			return
		}
		r.WriteString("{")
		for i := range keys {
			if i > 0 {
				r.WriteString(", ")
			}
			r.expr(keys[i], 0)
			r.WriteString(": ")
			r.expr(values[i], 0)
		}
		r.WriteString("}")
	case tree.Lambda:
		r.WriteString("lambda")
		if args := n.Children("args"); len(args) > 0 {
			r.WriteString(" ")
			r.commaList(args)
		}
		r.WriteString(": ")
		r.expr(n.Child("body"), precLambda)
	case tree.Literal, tree.Captured:
		r.fail(n, "marker nodes have no source form")
	default:
		r.fail(n, "not an expression")
	}
}

func precedence(n *tree.Node) int {
	switch n.Kind {
	case tree.Lambda:
		return precLambda
	case tree.BinOp:
		if p, ok := binaryPrec[n.Text("op")]; ok {
			return p
		}
		return precArith
	case tree.UnaryOp:
		if n.Text("op") == "not" {
			return precNot
		}
		return precUnary
	case tree.Call, tree.Attribute, tree.Subscript:
		return precPostfix
	}
	return precAtom
}

// FormatNumber renders an int64 or float64 as spx literal. Negative numbers
// are parenthesized, infinity is rendered as an overflowing literal.
func FormatNumber(v interface{}) string {
	var s string
	switch x := v.(type) {
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		switch {
		case math.IsInf(x, 1):
			return InfSentinel
		case math.IsInf(x, -1):
			return "(-" + InfSentinel + ")"
		case math.IsNaN(x):
			return "(" + InfSentinel + " - " + InfSentinel + ")"
		}
		s = strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
	default:
		return fmt.Sprintf("%v", v)
	}
	if strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

func formatConst(v interface{}) string {
	switch v {
	case true:
		return "True"
	case false:
		return "False"
	}
	return "None"
}
