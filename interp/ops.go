package interp

import (
	"errors"
	"math"
	"strings"

	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/tree"
)

// --- Operators -------------------------------------------------------------

func (in *Interpreter) binop(n *tree.Node, op string, l, r interface{}) (interface{}, error) {
	switch op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "is":
		return identical(l, r), nil
	case "is not":
		return !identical(l, r), nil
	case "in", "not in":
		found, err := in.contains(n, r, l)
		if err != nil {
			return nil, err
		}
		return found == (op == "in"), nil
	case "<", "<=", ">", ">=":
		c, ok := compare(l, r)
		if !ok {
			break
		}
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		}
		return c >= 0, nil
	}
	if x, ok := l.(int64); ok {
		if y, ok := r.(int64); ok {
			return in.intop(n, op, x, y)
		}
	}
	if x, ok := number(l); ok {
		if y, ok := number(r); ok {
			return in.floatop(n, op, x, y)
		}
	}
	switch op {
	case "+":
		switch x := l.(type) {
		case string:
			if y, ok := r.(string); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := r.(*List); ok {
				return NewList(concat(x.elts, y.elts)...), nil
			}
		case Tuple:
			if y, ok := r.(Tuple); ok {
				return Tuple(concat(x, y)), nil
			}
		}
	case "*":
		if k, ok := r.(int64); ok {
			v, err := repeat(l, k)
			return v, in.wrap(n, err)
		}
		if k, ok := l.(int64); ok {
			v, err := repeat(r, k)
			return v, in.wrap(n, err)
		}
	}
	return nil, in.raise(n, "unsupported operand types for %s: '%s' and '%s'", op, typeName(l), typeName(r))
}

func (in *Interpreter) intop(n *tree.Node, op string, x, y int64) (interface{}, error) {
	switch op {
	case "+":
		if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
			return nil, in.overflow(n, op)
		}
		return x + y, nil
	case "-":
		if (y < 0 && x > math.MaxInt64+y) || (y > 0 && x < math.MinInt64+y) {
			return nil, in.overflow(n, op)
		}
		return x - y, nil
	case "*":
		if x == 0 || y == 0 {
			return int64(0), nil
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, in.overflow(n, op)
		}
		return p, nil
	case "/":
		if y == 0 {
			return nil, in.raise(n, "division by zero")
		}
		return float64(x) / float64(y), nil
	case "%":
		if y == 0 {
			return nil, in.raise(n, "integer modulo by zero")
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m, nil
	}
	return nil, in.raise(n, "unsupported operand types for %s: 'int' and 'int'", op)
}

// Integers are 64 bit wide, results out of range are errors.
func (in *Interpreter) overflow(n *tree.Node, op string) *Error {
	return in.raise(n, "OverflowError: integer result of %s out of range", op)
}

func (in *Interpreter) floatop(n *tree.Node, op string, x, y float64) (interface{}, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, in.raise(n, "float division by zero")
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return nil, in.raise(n, "float modulo")
		}
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m, nil
	}
	return nil, in.raise(n, "unsupported operand types for %s: 'float' and 'float'", op)
}

func (in *Interpreter) unop(n *tree.Node, op string, v interface{}) (interface{}, error) {
	switch op {
	case "not":
		return !truthy(v), nil
	case "-":
		switch x := v.(type) {
		case int64:
			if x == math.MinInt64 {
				return nil, in.overflow(n, op)
			}
			return -x, nil
		case float64:
			return -x, nil
		}
	case "+":
		switch v.(type) {
		case int64, float64:
			return v, nil
		}
	}
	return nil, in.raise(n, "bad operand type for unary %s: '%s'", op, typeName(v))
}

func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func concat(a, b []interface{}) []interface{} {
	c := make([]interface{}, 0, len(a)+len(b))
	return append(append(c, a...), b...)
}

// MaxRepeat limits the length of strings and sequences created by repetition.
const MaxRepeat = 1 << 26

func repeat(v interface{}, k int64) (interface{}, error) {
	if k < 0 {
		k = 0
	}
	var size int
	switch x := v.(type) {
	case string:
		size = len(x)
	case *List:
		size = len(x.elts)
	case Tuple:
		size = len(x)
	}
	if size > 0 && k > MaxRepeat/int64(size) {
		return nil, errTooLarge
	}
	switch x := v.(type) {
	case string:
		return strings.Repeat(x, int(k)), nil
	case *List:
		elts := make([]interface{}, 0, int64(len(x.elts))*k)
		for i := int64(0); i < k; i++ {
			elts = append(elts, x.elts...)
		}
		return NewList(elts...), nil
	case Tuple:
		elts := make(Tuple, 0, int64(len(x))*k)
		for i := int64(0); i < k; i++ {
			elts = append(elts, x...)
		}
		return elts, nil
	}
	return nil, errUnsupported("*", v)
}

var errTooLarge = errors.New("MemoryError: repeated sequence too large")

type opError struct {
	op string
	v  interface{}
}

func (e opError) Error() string {
	return "unsupported operand type for " + e.op + ": '" + typeName(e.v) + "'"
}

func errUnsupported(op string, v interface{}) error {
	return opError{op: op, v: v}
}

// equal implements ==.
func equal(a, b interface{}) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case *List:
		y, ok := b.(*List)
		return ok && equalSeq(x.elts, y.elts)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalSeq(x, y)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			w, found := y.Get(k)
			if !found || !equal(v, w) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.s.Size() != y.s.Size() {
			return false
		}
		for _, e := range x.Elements() {
			if !y.Contains(e) {
				return false
			}
		}
		return true
	case *tree.Node:
		y, ok := b.(*tree.Node)
		return ok && tree.Equal(x, y)
	}
	return identical(a, b)
}

func equalSeq(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// identical implements `is`.
func identical(a, b interface{}) bool {
	return tree.SameValue(a, b)
}

// compare orders numbers and strings.
func compare(a, b interface{}) (int, bool) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	}
	return 0, false
}

func (in *Interpreter) contains(n *tree.Node, container, v interface{}) (bool, error) {
	switch x := container.(type) {
	case string:
		s, ok := v.(string)
		if !ok {
			return false, in.raise(n, "'in <string>' requires string as left operand, not %s", typeName(v))
		}
		return strings.Contains(x, s), nil
	case *Dict:
		_, found := x.Get(v)
		return found, nil
	case *Set:
		return x.Contains(v), nil
	}
	elems, err := in.elements(n, container)
	if err != nil {
		return false, err
	}
	for _, e := range elems {
		if equal(e, v) {
			return true, nil
		}
	}
	return false, nil
}

// --- Sequences -------------------------------------------------------------

// elements returns the elements of an iterable value.
func (in *Interpreter) elements(n *tree.Node, v interface{}) ([]interface{}, error) {
	switch x := v.(type) {
	case *List:
		return append([]interface{}{}, x.elts...), nil
	case Tuple:
		return x, nil
	case string:
		elems := make([]interface{}, 0, len(x))
		for _, r := range x {
			elems = append(elems, string(r))
		}
		return elems, nil
	case *Dict:
		return x.Keys(), nil
	case *Set:
		return x.Elements(), nil
	case *Stub:
		return nil, in.wrap(n, x.fail())
	}
	return nil, in.raise(n, "'%s' object is not iterable", typeName(v))
}

// position converts an index value to a position within a sequence of
// length l. Negative indices count from the end.
func (in *Interpreter) position(n *tree.Node, key interface{}, l int) (int, error) {
	i, ok := key.(int64)
	if !ok {
		return 0, in.raise(n, "indices must be integers, not %s", typeName(key))
	}
	if i < 0 {
		i += int64(l)
	}
	if i < 0 || i >= int64(l) {
		return 0, in.raise(n, "index out of range")
	}
	return int(i), nil
}

func (in *Interpreter) index(n *tree.Node, obj, key interface{}) (interface{}, error) {
	switch x := obj.(type) {
	case *List:
		i, err := in.position(n, key, len(x.elts))
		if err != nil {
			return nil, err
		}
		return x.elts[i], nil
	case Tuple:
		i, err := in.position(n, key, len(x))
		if err != nil {
			return nil, err
		}
		return x[i], nil
	case string:
		r := []rune(x)
		i, err := in.position(n, key, len(r))
		if err != nil {
			return nil, err
		}
		return string(r[i]), nil
	case *Dict:
		v, ok := x.Get(key)
		if !ok {
			return nil, in.raise(n, "key error: %s", repr(key))
		}
		return v, nil
	}
	return nil, in.raise(n, "'%s' object is not subscriptable", typeName(obj))
}

// --- Attributes ------------------------------------------------------------

func (in *Interpreter) getattr(n *tree.Node, obj interface{}, name string) (interface{}, error) {
	switch x := obj.(type) {
	case *Object:
		if tag := x.Attrs.ResolveTag(name); tag != nil {
			return tag.Value, nil
		}
		if v, ok := x.Class.lookup(name); ok {
			switch v.(type) {
			case *Function, *Builtin:
				return &BoundMethod{Self: x, Fn: v}, nil
			}
			return v, nil
		}
	case *Class:
		if v, ok := x.lookup(name); ok {
			return v, nil
		}
	case *Module:
		if v, ok := x.Scope.Local(name); ok {
			return v, nil
		}
		return nil, in.raise(n, "module %s has no attribute '%s'", x.Name, name)
	case *tree.Node:
		if v, ok := nodeAttr(x, name); ok {
			return v, nil
		}
	case *MacroRegistry:
		if v, ok := x.attr(name); ok {
			return v, nil
		}
	case *Stub:
		return nil, in.wrap(n, x.fail())
	}
	switch obj.(type) {
	case *List, *Dict, *Set, string:
		if m, ok := methods[typeName(obj)][name]; ok {
			return &BoundMethod{Self: obj, Fn: m}, nil
		}
	}
	return nil, in.raise(n, "'%s' object has no attribute '%s'", typeName(obj), name)
}

func (in *Interpreter) setattr(n *tree.Node, obj interface{}, name string, v interface{}) error {
	switch x := obj.(type) {
	case *Object:
		tag, _ := x.Attrs.ResolveOrDefineTag(name)
		tag.Value = v
		return nil
	case *Class:
		x.Attrs.Set(name, v)
		return nil
	case *Module:
		x.Scope.Set(name, v)
		return nil
	case *tree.Node:
		return in.raise(n, "trees are immutable, use %s.replace(%s=…)", typeName(obj), name)
	}
	return in.raise(n, "cannot set attribute '%s' of %s", name, typeName(obj))
}

// nodeAttr gives access to the fields of a tree. Node lists are converted
// to lists, missing nodes to None.
func nodeAttr(n *tree.Node, name string) (interface{}, bool) {
	switch name {
	case "kind":
		return n.Kind.String(), true
	case "ctx":
		if n.Ctx == tree.NoCtx {
			return nil, true
		}
		return n.Ctx.String(), true
	case "line":
		return int64(n.Pos.Line), true
	case "col":
		return int64(n.Pos.Col), true
	case "replace":
		return &BoundMethod{Self: n, Fn: replaceBuiltin}, true
	}
	if n.Kind.FieldIndex(name) < 0 {
		return nil, false
	}
	return fromTree(n.Get(name)), true
}

// fromTree converts a field value of a node to a runtime value.
func fromTree(v interface{}) interface{} {
	switch x := v.(type) {
	case *tree.Node:
		if x == nil {
			return nil
		}
		return x
	case []*tree.Node:
		elts := make([]interface{}, len(x))
		for i, n := range x {
			elts[i] = n
		}
		return NewList(elts...)
	}
	return v
}

// scopeOf returns the scope of a caller, or the builtins scope.
func (in *Interpreter) scopeOf(c *Caller) *runtime.Scope {
	if c != nil && c.Scope != nil {
		return c.Scope
	}
	return in.rt.Builtins
}
