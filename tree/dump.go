package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns a one-line diagnostic representation of a tree, e.g.
//
//     BinOp(left=Num(n=1), op='+', right=Name(id='x', ctx=load))
//
// Fields which are nil or empty lists are omitted.
func Format(n *Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

// FormatList is Format for node lists.
func FormatList(l []*Node) string {
	var b strings.Builder
	formatList(&b, l)
	return b.String()
}

func format(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("None")
		return
	}
	b.WriteString(n.Kind.String())
	b.WriteByte('(')
	sep := ""
	for i, f := range n.Kind.Fields() {
		v := n.fields[i]
		if isEmpty(v) {
			continue
		}
		b.WriteString(sep)
		b.WriteString(f.Name)
		b.WriteByte('=')
		formatValue(b, v)
		sep = ", "
	}
	if n.Kind.HasCtx() && n.Ctx != NoCtx {
		b.WriteString(sep)
		b.WriteString("ctx=")
		b.WriteString(n.Ctx.String())
	}
	if n.Kind == Captured {
		fmt.Fprintf(b, ", value=<%T>", n.Value)
	}
	b.WriteByte(')')
}

func formatList(b *strings.Builder, l []*Node) {
	b.WriteByte('[')
	for i, c := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, c)
	}
	b.WriteByte(']')
}

func formatValue(b *strings.Builder, v interface{}) {
	switch x := v.(type) {
	case *Node:
		format(b, x)
	case []*Node:
		formatList(b, x)
	case string:
		b.WriteString(strconv.Quote(x))
	default:
		fmt.Fprintf(b, "%v", x)
	}
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Node:
		return x == nil
	case []*Node:
		return len(x) == 0
	}
	return false
}

// Indented returns a multi-line representation of a tree, one node per
// line, children indented below their parent.
func Indented(n *Node) string {
	var b strings.Builder
	indented(&b, "", n, 0)
	return b.String()
}

func indented(b *strings.Builder, label string, n *Node, depth int) {
	pad := strings.Repeat("  ", depth)
	b.WriteString(pad)
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	if n == nil {
		b.WriteString("None\n")
		return
	}
	b.WriteString(Headline(n))
	b.WriteByte('\n')
	for i, f := range n.Kind.Fields() {
		switch v := n.fields[i].(type) {
		case *Node:
			if v != nil {
				indented(b, f.Name, v, depth+1)
			}
		case []*Node:
			if len(v) > 0 {
				b.WriteString(pad + "  " + f.Name + ":\n")
				for _, c := range v {
					indented(b, "", c, depth+2)
				}
			}
		}
	}
}

// Headline formats a node without its child nodes, showing only scalar
// fields. It is used for tree displays.
func Headline(n *Node) string {
	if n == nil {
		return "None"
	}
	var b strings.Builder
	b.WriteString(n.Kind.String())
	var attrs []string
	for i, f := range n.Kind.Fields() {
		if f.Shape != Scalar || n.fields[i] == nil {
			continue
		}
		var vb strings.Builder
		formatValue(&vb, n.fields[i])
		attrs = append(attrs, f.Name+"="+vb.String())
	}
	if n.Kind.HasCtx() && n.Ctx != NoCtx {
		attrs = append(attrs, "ctx="+n.Ctx.String())
	}
	if n.Pos.IsKnown() {
		attrs = append(attrs, "@"+n.Pos.String())
	}
	if len(attrs) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(attrs, " "))
	}
	return b.String()
}

// Dump traces a tree at debug level.
func Dump(n *Node) {
	tracer().Debugf("\n%s", Indented(n))
}
