package quote

import (
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// Names of the escapes recognized within quotes.
const (
	ValueEscape   = "u"
	NameEscape    = "name"
	TreeEscape    = "ast_literal"
	ListEscape    = "ast_list"
	escapePayload = "index"
)

// Escapes lists the names of all escapes.
var Escapes = []string{ValueEscape, NameEscape, TreeEscape, ListEscape}

// escape checks if n is of the form `esc[payload]` for one of the escapes.
func escape(n *tree.Node) (string, *tree.Node, bool) {
	if !n.Is(tree.Subscript) {
		return "", nil, false
	}
	f := n.Child("value")
	if !f.Is(tree.Name) {
		return "", nil, false
	}
	switch id := f.Text("id"); id {
	case ValueEscape, NameEscape, TreeEscape, ListEscape:
		return id, n.Child(escapePayload), true
	}
	return "", nil, false
}

// listEscape checks if an element of a node list splices a list, either as
// `ast_list[x]`, or as a statement `ast_list[x]` or `ast_literal[x]`.
func listEscape(n *tree.Node) (*tree.Node, bool) {
	if n.Is(tree.ExprStmt) {
		if esc, payload, ok := escape(n.Child("value")); ok && (esc == ListEscape || esc == TreeEscape) {
			return payload, true
		}
		return nil, false
	}
	if esc, payload, ok := escape(n); ok && esc == ListEscape {
		return payload, true
	}
	return nil, false
}

var unquoter = walk.New[struct{}, struct{}](func(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, struct{}]) error {
	if n.Is(tree.Literal) {
		ctl.Stop()
		return nil
	}
	if esc, payload, ok := escape(n); ok {
		ctl.Replace(tree.NewLiteral(escapeCode(esc, payload), false).Located(n.Pos))
		ctl.Stop()
		return nil
	}
	// list splices are found by looking at the lists of the parent node
	result := n
	for i, f := range n.Kind.Fields() {
		if f.Shape != tree.Many {
			continue
		}
		l := n.At(i).([]*tree.Node)
		var changed []*tree.Node
		for j, e := range l {
			if payload, ok := listEscape(e); ok {
				if changed == nil {
					changed = append([]*tree.Node{}, l...)
				}
				changed[j] = tree.NewLiteral(payload, true).Located(e.Pos)
			}
		}
		if changed != nil {
			result = result.WithAt(i, changed)
		}
	}
	if result != n {
		ctl.Replace(result)
	}
	return nil
})

// escapeCode creates the generator code for an escape.
func escapeCode(esc string, payload *tree.Node) *tree.Node {
	switch esc {
	case ValueEscape:
		return tree.NewCall(Builtin(ReprBuiltin), []*tree.Node{payload}, nil)
	case NameEscape:
		return tree.NewCall(Builtin(tree.Name.String()), nil,
			[]*tree.Node{tree.NewKeyword("id", payload)})
	case ListEscape:
		return tree.NewCall(Builtin(tree.List.String()), nil,
			[]*tree.Node{tree.NewKeyword("elts", payload)})
	}
	return payload // ast_literal
}

// Unquote replaces the escapes within a quoted fragment by literal markers
// holding the generator code for them. The argument is a node or a node list.
func Unquote(fragment interface{}) (interface{}, error) {
	switch x := fragment.(type) {
	case *tree.Node:
		return unquoter.Recurse(x, struct{}{})
	case []*tree.Node:
		// wrap the list to find list splices at top level
		m, err := unquoter.Recurse(tree.NewModule(x), struct{}{})
		if err != nil {
			return nil, err
		}
		return m.Children("body"), nil
	}
	return fragment, nil
}

// Compile turns a quoted fragment into generator code: escapes are resolved,
// then the fragment is serialized by Generator. For a node list the generator
// code creates a list of statements.
func Compile(fragment interface{}) (*tree.Node, error) {
	u, err := Unquote(fragment)
	if err != nil {
		return nil, err
	}
	return Generate(u)
}

// Generate creates generator code for a node or a list of statements.
func Generate(fragment interface{}) (*tree.Node, error) {
	switch x := fragment.(type) {
	case *tree.Node:
		return Generator(x)
	case []*tree.Node:
		return GeneratorList(x, true)
	}
	return tree.NewConst(nil), nil
}
