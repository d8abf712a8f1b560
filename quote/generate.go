package quote

import (
	"fmt"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/tree"
)

// Namespace is the name generator code uses to refer to the reconstruction
// builtins.
const Namespace = "ast"

// Names of reconstruction builtins, besides the kind constructors.
const (
	ReprBuiltin   = "repr"        // lifts a value, see Lift
	SpliceBuiltin = "splice_list" // concatenates node lists, see SpliceList
)

// Builtin creates a reference to a reconstruction builtin.
func Builtin(name string) *tree.Node {
	return tree.NewAttribute(tree.Ident(Namespace), name, tree.Load)
}

// Generator creates generator code for a tree: an expression which
// reconstructs the tree when evaluated. Literal markers are emitted verbatim.
func Generator(n *tree.Node) (*tree.Node, error) {
	if n == nil {
		return tree.NewConst(nil), nil
	}
	switch n.Kind {
	case tree.Literal:
		if IsSplice(n) {
			return nil, &splice.QuoteReconstructionError{
				Kind:   "ast_list",
				Reason: "list splice outside of a list",
			}
		}
		body, ok := n.Get("body").(*tree.Node)
		if !ok {
			return nil, &splice.QuoteReconstructionError{Kind: n.Kind.String(), Reason: "literal body must be an expression"}
		}
		return body, nil
	case tree.Captured:
		return nil, &splice.QuoteReconstructionError{
			Kind:   n.Kind.String(),
			Reason: fmt.Sprintf("value of %s has no syntactic representation", n.Text("name")),
		}
	}
	if !n.Kind.Valid() {
		return nil, &splice.QuoteReconstructionError{Kind: n.Kind.String(), Reason: "unknown node kind"}
	}
	var keywords []*tree.Node
	stmts := isStmtContainer(n.Kind)
	for i, f := range n.Kind.Fields() {
		var g *tree.Node
		var err error
		switch v := n.At(i).(type) {
		case nil:
			continue
		case *tree.Node:
			g, err = Generator(v)
		case []*tree.Node:
			if len(v) == 0 {
				continue
			}
			g, err = generateList(v, stmts && (f.Name == "body" || f.Name == "orelse"))
		default:
			g, err = scalar(n, f.Name, v)
		}
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, tree.NewKeyword(f.Name, g))
	}
	if n.Ctx != tree.NoCtx {
		keywords = append(keywords, tree.NewKeyword("ctx", tree.NewStr(n.Ctx.String())))
	}
	return tree.NewCall(Builtin(n.Kind.String()), nil, keywords), nil
}

// GeneratorList creates generator code for a list of trees. If stmts is set,
// bare expressions spliced into the list are wrapped as statements.
func GeneratorList(l []*tree.Node, stmts bool) (*tree.Node, error) {
	return generateList(l, stmts)
}

func isStmtContainer(k tree.Kind) bool {
	return k == tree.Module || k.Class() == tree.Stmt
}

// generateList emits a list display, or a call to splice_list if the list
// contains splicing literals.
func generateList(l []*tree.Node, stmts bool) (*tree.Node, error) {
	var segments []*tree.Node
	var run []*tree.Node
	spliced := false
	for _, e := range l {
		if IsSplice(e) {
			spliced = true
			if run != nil {
				segments = append(segments, tree.NewList(run, tree.Load))
				run = nil
			}
			body, _ := e.Get("body").(*tree.Node)
			if body == nil {
				return nil, &splice.QuoteReconstructionError{Kind: "ast_list", Reason: "missing splice expression"}
			}
			segments = append(segments, body)
			continue
		}
		g, err := Generator(e)
		if err != nil {
			return nil, err
		}
		run = append(run, g)
	}
	if !spliced {
		return tree.NewList(run, tree.Load), nil
	}
	if run != nil {
		segments = append(segments, tree.NewList(run, tree.Load))
	}
	var keywords []*tree.Node
	if stmts {
		keywords = []*tree.Node{tree.NewKeyword("stmts", tree.NewConst(true))}
	}
	return tree.NewCall(Builtin(SpliceBuiltin), segments, keywords), nil
}

func scalar(n *tree.Node, field string, v interface{}) (*tree.Node, error) {
	switch x := v.(type) {
	case string:
		return tree.NewStr(x), nil
	case int64:
		return tree.NewInt(x), nil
	case float64:
		return tree.NewFloat(x), nil
	case bool:
		return tree.NewConst(x), nil
	}
	return nil, &splice.QuoteReconstructionError{
		Kind:   n.Kind.String(),
		Reason: fmt.Sprintf("field %s holds value of type %T", field, v),
	}
}

// IsSplice is true for literals which are spliced into an enclosing list.
func IsSplice(n *tree.Node) bool {
	return tree.IsSpliceLiteral(n)
}
