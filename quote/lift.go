package quote

import (
	"fmt"
	"math"

	"github.com/npillmayer/splice/tree"
)

// Lifter is implemented by container values of an evaluator. LiftTree creates
// a tree which evaluates to the value, using lift for the elements.
type Lifter interface {
	LiftTree(lift func(interface{}) (*tree.Node, error)) (*tree.Node, error)
}

// Lift converts a value to a tree which, when evaluated, yields a value equal
// to v. Trees lift to their generator code. Values without a syntactic
// representation are wrapped into a Captured node.
func Lift(v interface{}) (*tree.Node, error) {
	switch x := v.(type) {
	case nil:
		return tree.NewConst(nil), nil
	case bool:
		return tree.NewConst(x), nil
	case int:
		return tree.NewInt(int64(x)), nil
	case int64:
		return tree.NewInt(x), nil
	case float64:
		if math.IsNaN(x) {
			break
		}
		return tree.NewFloat(x), nil
	case string:
		return tree.NewStr(x), nil
	case *tree.Node:
		if x == nil {
			return tree.NewConst(nil), nil
		}
		return Generator(x)
	case []*tree.Node:
		elts := make([]*tree.Node, len(x))
		for i, n := range x {
			g, err := Generator(n)
			if err != nil {
				return nil, err
			}
			elts[i] = g
		}
		return tree.NewList(elts, tree.Load), nil
	case []interface{}:
		elts := make([]*tree.Node, len(x))
		for i, e := range x {
			l, err := Lift(e)
			if err != nil {
				return nil, err
			}
			elts[i] = l
		}
		return tree.NewList(elts, tree.Load), nil
	case Lifter:
		return x.LiftTree(Lift)
	}
	tracer().Debugf("capturing value of type %T", v)
	return tree.NewCaptured(v, capturedName(v)), nil
}

func capturedName(v interface{}) string {
	if s, ok := v.(fmt.Stringer); ok {
		if name := identifier(s.String()); name != "" {
			return name
		}
	}
	return "captured"
}

// identifier returns s if it is a valid identifier, "" otherwise.
func identifier(s string) string {
	if s == "" {
		return ""
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	return s
}
