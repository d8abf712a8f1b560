package quote

import (
	"fmt"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/tree"
)

// Sequence is implemented by list-like values of an evaluator.
type Sequence interface {
	Elements() []interface{}
}

// Construct creates a node of kind k. Positional arguments fill the fields in
// order, keyword arguments by name. The keyword "ctx" sets the context tag by
// name ("load", "store", …).
//
// Construct implements the kind constructors called by generator code.
func Construct(k tree.Kind, args []interface{}, kw map[string]interface{}) (*tree.Node, error) {
	if !k.Valid() || k == tree.Captured {
		return nil, constructError(k, "cannot construct nodes of this kind")
	}
	fields := k.Fields()
	if len(args) > len(fields) {
		return nil, constructError(k, fmt.Sprintf("too many arguments: %d", len(args)))
	}
	values := make([]interface{}, len(fields))
	set := make([]bool, len(fields))
	for i, a := range args {
		values[i], set[i] = a, true
	}
	ctx := tree.NoCtx
	for name, v := range kw {
		if name == "ctx" {
			c, err := contextTag(k, v)
			if err != nil {
				return nil, err
			}
			ctx = c
			continue
		}
		i := k.FieldIndex(name)
		if i < 0 {
			return nil, constructError(k, fmt.Sprintf("no field '%s'", name))
		}
		if set[i] {
			return nil, constructError(k, fmt.Sprintf("field '%s' given twice", name))
		}
		values[i], set[i] = v, true
	}
	for i, f := range fields {
		v, err := fieldValue(k, f, values[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	n := tree.New(k, values...)
	n.Ctx = ctx
	return n, nil
}

func constructError(k tree.Kind, reason string) error {
	return &splice.QuoteReconstructionError{Kind: k.String(), Reason: reason}
}

func contextTag(k tree.Kind, v interface{}) (tree.Ctx, error) {
	if v == nil {
		return tree.NoCtx, nil
	}
	s, ok := v.(string)
	if !ok {
		return tree.NoCtx, constructError(k, fmt.Sprintf("context must be a string, is %T", v))
	}
	c, ok := tree.CtxByName(s)
	if !ok {
		return tree.NoCtx, constructError(k, fmt.Sprintf("unknown context '%s'", s))
	}
	return c, nil
}

// fieldValue checks a field value against the shape of the field.
func fieldValue(k tree.Kind, f tree.Field, v interface{}) (interface{}, error) {
	switch f.Shape {
	case tree.One:
		if v == nil {
			return nil, nil
		}
		if n, ok := v.(*tree.Node); ok {
			return n, nil
		}
	case tree.Many:
		if v == nil {
			return []*tree.Node{}, nil
		}
		if l, err := nodeList(v, false); err == nil {
			return l, nil
		}
	case tree.Either:
		if n, ok := v.(*tree.Node); ok {
			return n, nil
		}
		if l, err := nodeList(v, false); err == nil {
			return l, nil
		}
	case tree.Scalar:
		switch x := v.(type) {
		case nil, string, int64, float64, bool:
			return x, nil
		case int:
			return int64(x), nil
		}
	}
	return nil, constructError(k, fmt.Sprintf("invalid value for field '%s': %T", f.Name, v))
}

// nodeList converts a list value to a node list. If stmts is set, expression
// nodes are wrapped as statements.
func nodeList(v interface{}, stmts bool) ([]*tree.Node, error) {
	var elems []interface{}
	switch x := v.(type) {
	case []*tree.Node:
		if !stmts {
			return x, nil
		}
		for _, n := range x {
			elems = append(elems, n)
		}
	case []interface{}:
		elems = x
	case Sequence:
		elems = x.Elements()
	default:
		return nil, fmt.Errorf("not a list of nodes: %T", v)
	}
	l := make([]*tree.Node, 0, len(elems))
	for _, e := range elems {
		n, ok := e.(*tree.Node)
		if !ok || n == nil {
			return nil, fmt.Errorf("list element is not a node: %T", e)
		}
		l = append(l, asStmt(n, stmts))
	}
	return l, nil
}

func asStmt(n *tree.Node, stmts bool) *tree.Node {
	if stmts && n.Kind.Class() == tree.Expr {
		return tree.NewExprStmt(n).Located(n.Pos)
	}
	return n
}

// SpliceList concatenates segments into one node list. A segment is either a
// single node or a list of nodes. If stmts is set, expressions are wrapped
// as statements.
func SpliceList(stmts bool, segments ...interface{}) ([]*tree.Node, error) {
	l := []*tree.Node{}
	for _, seg := range segments {
		if n, ok := seg.(*tree.Node); ok {
			if n == nil {
				continue
			}
			l = append(l, asStmt(n, stmts))
			continue
		}
		part, err := nodeList(seg, stmts)
		if err != nil {
			return nil, &splice.QuoteReconstructionError{Kind: "ast_list", Reason: err.Error()}
		}
		l = append(l, part...)
	}
	return l, nil
}
