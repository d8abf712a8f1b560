package interp

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

// --- Exceptions ------------------------------------------------------------

func newClass(name string, bases ...*Class) *Class {
	return &Class{Name: name, Bases: bases, Attrs: runtime.NewScope(classScopePrefix+name, nil)}
}

var exceptionClass = newClass("Exception")

var exceptionClasses = []*Class{
	exceptionClass,
	newClass("ValueError", exceptionClass),
	newClass("TypeError", exceptionClass),
	newClass("NameError", exceptionClass),
	newClass("KeyError", exceptionClass),
	newClass("SyntaxError", exceptionClass),
	newClass("OverflowError", exceptionClass),
	newClass("MemoryError", exceptionClass),
}

// --- Argument checking -----------------------------------------------------

func arity(name string, args []interface{}, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case min == max:
			return fmt.Errorf("%s() takes %d argument(s), %d given", name, min, len(args))
		case max < 0:
			return fmt.Errorf("%s() takes at least %d argument(s), %d given", name, min, len(args))
		}
		return fmt.Errorf("%s() takes %d to %d arguments, %d given", name, min, max, len(args))
	}
	return nil
}

func noKeywords(name string, kw map[string]interface{}) error {
	for k := range kw {
		return fmt.Errorf("%s() got an unexpected keyword argument '%s'", name, k)
	}
	return nil
}

func strArg(name string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s() expects a string, not %s", name, typeName(v))
	}
	return s, nil
}

func intArg(name string, v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%s() expects an integer, not %s", name, typeName(v))
}

// fixed creates a builtin with a fixed range of positional arguments and no
// keywords.
func fixed(name string, min, max int, fn func(c *Caller, args []interface{}) (interface{}, error)) *Builtin {
	return &Builtin{Name: name, Fn: func(c *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
		if err := noKeywords(name, kw); err != nil {
			return nil, err
		}
		if err := arity(name, args, min, max); err != nil {
			return nil, err
		}
		return fn(c, args)
	}}
}

// --- Builtins --------------------------------------------------------------

func builtins() map[string]*Builtin {
	bs := []*Builtin{
		{Name: "print", Fn: builtinPrint},
		fixed("len", 1, 1, builtinLen),
		fixed("str", 0, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			if len(args) == 0 {
				return "", nil
			}
			return str(args[0]), nil
		}),
		fixed("repr", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			return repr(args[0]), nil
		}),
		fixed("type", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			return typeName(args[0]), nil
		}),
		fixed("range", 1, 3, builtinRange),
		fixed("list", 0, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			if len(args) == 0 {
				return NewList(), nil
			}
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			return NewList(append([]interface{}{}, elems...)...), nil
		}),
		fixed("tuple", 0, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			if len(args) == 0 {
				return Tuple{}, nil
			}
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			return Tuple(append([]interface{}{}, elems...)), nil
		}),
		fixed("set", 0, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			s := NewSet()
			if len(args) == 0 {
				return s, nil
			}
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			for _, e := range elems {
				if err = s.Add(e); err != nil {
					return nil, err
				}
			}
			return s, nil
		}),
		{Name: "dict", Fn: builtinDict},
		fixed("int", 1, 1, builtinInt),
		fixed("float", 1, 1, builtinFloat),
		fixed("bool", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			return truthy(args[0]), nil
		}),
		fixed("abs", 1, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			switch x := args[0].(type) {
			case int64:
				if x < 0 {
					return -x, nil
				}
				return x, nil
			case float64:
				return math.Abs(x), nil
			}
			return nil, fmt.Errorf("bad operand type for abs(): '%s'", typeName(args[0]))
		}),
		fixed("min", 1, -1, func(c *Caller, args []interface{}) (interface{}, error) {
			return extremum(c, "min", args, -1)
		}),
		fixed("max", 1, -1, func(c *Caller, args []interface{}) (interface{}, error) {
			return extremum(c, "max", args, 1)
		}),
		fixed("sum", 1, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			var total interface{} = int64(0)
			for _, e := range elems {
				if total, err = c.In.binop(c.Node, "+", total, e); err != nil {
					return nil, err
				}
			}
			return total, nil
		}),
		fixed("sorted", 1, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			sorted := append([]interface{}{}, elems...)
			var cmpErr error
			sort.SliceStable(sorted, func(i, j int) bool {
				d, ok := compare(sorted[i], sorted[j])
				if !ok && cmpErr == nil {
					cmpErr = fmt.Errorf("cannot order %s and %s", typeName(sorted[i]), typeName(sorted[j]))
				}
				return d < 0
			})
			if cmpErr != nil {
				return nil, cmpErr
			}
			return NewList(sorted...), nil
		}),
		fixed("enumerate", 1, 1, func(c *Caller, args []interface{}) (interface{}, error) {
			elems, err := c.In.elements(c.Node, args[0])
			if err != nil {
				return nil, err
			}
			pairs := make([]interface{}, len(elems))
			for i, e := range elems {
				pairs[i] = Tuple{int64(i), e}
			}
			return NewList(pairs...), nil
		}),
		fixed("zip", 0, -1, func(c *Caller, args []interface{}) (interface{}, error) {
			var seqs [][]interface{}
			for _, a := range args {
				elems, err := c.In.elements(c.Node, a)
				if err != nil {
					return nil, err
				}
				seqs = append(seqs, elems)
			}
			var tuples []interface{}
			for i := 0; len(seqs) > 0; i++ {
				t := make(Tuple, len(seqs))
				for j, s := range seqs {
					if i >= len(s) {
						return NewList(tuples...), nil
					}
					t[j] = s[i]
				}
				tuples = append(tuples, t)
			}
			return NewList(tuples...), nil
		}),
		fixed("isinstance", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
			cls, ok := args[1].(*Class)
			if !ok {
				return nil, fmt.Errorf("isinstance() arg 2 must be a class")
			}
			obj, ok := args[0].(*Object)
			return ok && obj.Class.isSubclass(cls), nil
		}),
		fixed("getattr", 2, 3, func(c *Caller, args []interface{}) (interface{}, error) {
			name, err := strArg("getattr", args[1])
			if err != nil {
				return nil, err
			}
			v, err := c.In.getattr(c.Node, args[0], name)
			if err != nil && len(args) == 3 {
				return args[2], nil
			}
			return v, err
		}),
		fixed("hasattr", 2, 2, func(c *Caller, args []interface{}) (interface{}, error) {
			name, err := strArg("hasattr", args[1])
			if err != nil {
				return nil, err
			}
			_, err = c.In.getattr(c.Node, args[0], name)
			return err == nil, nil
		}),
		fixed("eval", 1, 1, builtinEval),
		fixed("exec", 1, 1, builtinExec),
		fixed("unparse", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			return unparse(args[0])
		}),
		fixed("parse", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			src, err := strArg("parse", args[0])
			if err != nil {
				return nil, err
			}
			return syntax.ParseExpr(src)
		}),
		fixed("parse_stmts", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
			src, err := strArg("parse_stmts", args[0])
			if err != nil {
				return nil, err
			}
			stmts, err := syntax.ParseStmts(src)
			if err != nil {
				return nil, err
			}
			return fromTree(stmts), nil
		}),
		fixed("Macros", 0, 0, builtinMacros),
	}
	m := make(map[string]*Builtin, len(bs))
	for _, b := range bs {
		m[b.Name] = b
	}
	return m
}

func builtinPrint(c *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	sep, end := " ", "\n"
	for k, v := range kw {
		s, ok := v.(string)
		if !ok && v != nil {
			return nil, fmt.Errorf("print() %s must be a string, not %s", k, typeName(v))
		}
		switch k {
		case "sep":
			if v != nil {
				sep = s
			}
		case "end":
			if v != nil {
				end = s
			}
		default:
			return nil, fmt.Errorf("print() got an unexpected keyword argument '%s'", k)
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = str(a)
	}
	_, err := fmt.Fprint(c.In.out, strings.Join(parts, sep)+end)
	return nil, err
}

func builtinLen(c *Caller, args []interface{}) (interface{}, error) {
	switch x := args[0].(type) {
	case string:
		return int64(len([]rune(x))), nil
	case *Dict:
		return int64(x.Len()), nil
	case *tree.Node:
		return nil, fmt.Errorf("object of type 'tree' has no len()")
	}
	elems, err := c.In.elements(c.Node, args[0])
	if err != nil {
		return nil, err
	}
	return int64(len(elems)), nil
}

func builtinRange(_ *Caller, args []interface{}) (interface{}, error) {
	bounds := make([]int64, len(args))
	for i, a := range args {
		b, err := intArg("range", a)
		if err != nil {
			return nil, err
		}
		bounds[i] = b
	}
	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("range() arg 3 must not be zero")
	}
	var elts []interface{}
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		elts = append(elts, i)
	}
	return NewList(elts...), nil
}

func builtinDict(c *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	if err := arity("dict", args, 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		elems, err := c.In.elements(c.Node, args[0])
		if err != nil {
			return nil, err
		}
		if src, ok := args[0].(*Dict); ok {
			for _, k := range elems {
				v, _ := src.Get(k)
				d.Put(k, v)
			}
		} else {
			for _, e := range elems {
				pair, err := c.In.elements(c.Node, e)
				if err != nil || len(pair) != 2 {
					return nil, fmt.Errorf("dict() needs a sequence of pairs")
				}
				if err = d.Put(pair[0], pair[1]); err != nil {
					return nil, err
				}
			}
		}
	}
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Put(k, kw[k])
	}
	return d, nil
}

func builtinInt(_ *Caller, args []interface{}) (interface{}, error) {
	switch x := args[0].(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		return intArg("int", x)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %s", syntax.Quote(x))
		}
		return i, nil
	}
	return nil, fmt.Errorf("int() argument must be a string or a number, not %s", typeName(args[0]))
}

func builtinFloat(_ *Caller, args []interface{}) (interface{}, error) {
	if f, ok := number(args[0]); ok {
		return f, nil
	}
	if s, ok := args[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: %s", syntax.Quote(s))
		}
		return f, nil
	}
	return nil, fmt.Errorf("float() argument must be a string or a number, not %s", typeName(args[0]))
}

func extremum(c *Caller, name string, args []interface{}, sign int) (interface{}, error) {
	elems := args
	if len(args) == 1 {
		var err error
		if elems, err = c.In.elements(c.Node, args[0]); err != nil {
			return nil, err
		}
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%s() arg is an empty sequence", name)
	}
	best := elems[0]
	for _, e := range elems[1:] {
		d, ok := compare(e, best)
		if !ok {
			return nil, fmt.Errorf("cannot order %s and %s", typeName(e), typeName(best))
		}
		if d*sign > 0 {
			best = e
		}
	}
	return best, nil
}

// builtinEval evaluates an expression, given as a tree or as source text,
// in the scope of the caller.
func builtinEval(c *Caller, args []interface{}) (interface{}, error) {
	x, ok := args[0].(*tree.Node)
	if !ok {
		src, err := strArg("eval", args[0])
		if err != nil {
			return nil, err
		}
		if x, err = syntax.ParseExpr(src); err != nil {
			return nil, err
		}
	}
	if x.Kind.Class() != tree.Expr {
		return nil, fmt.Errorf("eval() needs an expression, not %s", x.Kind)
	}
	return c.In.eval(x, c.In.scopeOf(c))
}

// builtinExec executes statements, given as trees or as source text, in the
// scope of the caller.
func builtinExec(c *Caller, args []interface{}) (interface{}, error) {
	var stmts []*tree.Node
	switch x := args[0].(type) {
	case *tree.Node:
		if x.Is(tree.Module) {
			stmts = x.Children("body")
		} else {
			stmts = []*tree.Node{x}
		}
	case string:
		var err error
		if stmts, err = syntax.ParseStmts(x); err != nil {
			return nil, err
		}
	default:
		elems, err := c.In.elements(c.Node, x)
		if err != nil {
			return nil, err
		}
		if stmts, err = nodes(elems); err != nil {
			return nil, err
		}
	}
	for i, s := range stmts {
		if s.Kind.Class() == tree.Expr {
			stmts[i] = tree.NewExprStmt(s).Located(s.Pos)
		}
	}
	r, err := c.In.execBody(stmts, c.In.scopeOf(c))
	if err != nil {
		return nil, err
	}
	if r != nil {
		return nil, fmt.Errorf("'return' outside of function")
	}
	return nil, nil
}

// unparse renders a tree or a list of statements as source text.
func unparse(v interface{}) (interface{}, error) {
	if n, ok := v.(*tree.Node); ok {
		return syntax.Render(n)
	}
	seq, ok := v.(interface{ Elements() []interface{} })
	if !ok {
		return nil, fmt.Errorf("unparse() expects a tree, not %s", typeName(v))
	}
	l, err := nodes(seq.Elements())
	if err != nil {
		return nil, err
	}
	return syntax.RenderStmts(l)
}

// nodes converts a sequence of values to a node list.
func nodes(elems []interface{}) ([]*tree.Node, error) {
	l := make([]*tree.Node, len(elems))
	for i, e := range elems {
		n, ok := e.(*tree.Node)
		if !ok || n == nil {
			return nil, fmt.Errorf("expected a tree, got %s", typeName(e))
		}
		l[i] = n
	}
	return l, nil
}

// --- Methods ---------------------------------------------------------------

// methods of builtin types, by type name. The receiver is the first
// argument.
var methods map[string]map[string]*Builtin

func init() {
	methods = map[string]map[string]*Builtin{
		"list": {
			"append": fixed("append", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				l := args[0].(*List)
				l.elts = append(l.elts, args[1])
				return nil, nil
			}),
			"extend": fixed("extend", 2, 2, func(c *Caller, args []interface{}) (interface{}, error) {
				l := args[0].(*List)
				elems, err := c.In.elements(c.Node, args[1])
				if err != nil {
					return nil, err
				}
				l.elts = append(l.elts, elems...)
				return nil, nil
			}),
			"pop": fixed("pop", 1, 2, func(c *Caller, args []interface{}) (interface{}, error) {
				l := args[0].(*List)
				var key interface{} = int64(-1)
				if len(args) == 2 {
					key = args[1]
				}
				i, err := c.In.position(c.Node, key, len(l.elts))
				if err != nil {
					return nil, err
				}
				v := l.elts[i]
				l.elts = append(l.elts[:i], l.elts[i+1:]...)
				return v, nil
			}),
			"insert": fixed("insert", 3, 3, func(_ *Caller, args []interface{}) (interface{}, error) {
				l := args[0].(*List)
				i, err := intArg("insert", args[1])
				if err != nil {
					return nil, err
				}
				if i < 0 {
					i += int64(len(l.elts))
				}
				i = int64(math.Max(0, math.Min(float64(i), float64(len(l.elts)))))
				l.elts = append(l.elts[:i], append([]interface{}{args[2]}, l.elts[i:]...)...)
				return nil, nil
			}),
		},
		"dict": {
			"keys": fixed("keys", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				return NewList(args[0].(*Dict).Keys()...), nil
			}),
			"values": fixed("values", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				return NewList(args[0].(*Dict).m.Values()...), nil
			}),
			"items": fixed("items", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				d := args[0].(*Dict)
				var items []interface{}
				for _, k := range d.Keys() {
					v, _ := d.Get(k)
					items = append(items, Tuple{k, v})
				}
				return NewList(items...), nil
			}),
			"get": fixed("get", 2, 3, func(_ *Caller, args []interface{}) (interface{}, error) {
				if v, ok := args[0].(*Dict).Get(args[1]); ok {
					return v, nil
				}
				if len(args) == 3 {
					return args[2], nil
				}
				return nil, nil
			}),
		},
		"set": {
			"add": fixed("add", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				return nil, args[0].(*Set).Add(args[1])
			}),
		},
		"str": {
			"join": fixed("join", 2, 2, func(c *Caller, args []interface{}) (interface{}, error) {
				elems, err := c.In.elements(c.Node, args[1])
				if err != nil {
					return nil, err
				}
				parts := make([]string, len(elems))
				for i, e := range elems {
					if parts[i], err = strArg("join", e); err != nil {
						return nil, err
					}
				}
				return strings.Join(parts, args[0].(string)), nil
			}),
			"upper": fixed("upper", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				return strings.ToUpper(args[0].(string)), nil
			}),
			"lower": fixed("lower", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				return strings.ToLower(args[0].(string)), nil
			}),
			"strip": fixed("strip", 1, 1, func(_ *Caller, args []interface{}) (interface{}, error) {
				return strings.TrimSpace(args[0].(string)), nil
			}),
			"startswith": fixed("startswith", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				prefix, err := strArg("startswith", args[1])
				return strings.HasPrefix(args[0].(string), prefix), err
			}),
			"endswith": fixed("endswith", 2, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				suffix, err := strArg("endswith", args[1])
				return strings.HasSuffix(args[0].(string), suffix), err
			}),
			"replace": fixed("replace", 3, 3, func(_ *Caller, args []interface{}) (interface{}, error) {
				old, err := strArg("replace", args[1])
				if err != nil {
					return nil, err
				}
				repl, err := strArg("replace", args[2])
				if err != nil {
					return nil, err
				}
				return strings.ReplaceAll(args[0].(string), old, repl), nil
			}),
			"split": fixed("split", 1, 2, func(_ *Caller, args []interface{}) (interface{}, error) {
				var parts []string
				if len(args) == 1 {
					parts = strings.Fields(args[0].(string))
				} else {
					sep, err := strArg("split", args[1])
					if err != nil {
						return nil, err
					}
					parts = strings.Split(args[0].(string), sep)
				}
				elts := make([]interface{}, len(parts))
				for i, p := range parts {
					elts[i] = p
				}
				return NewList(elts...), nil
			}),
		},
	}
}

// replaceBuiltin implements `node.replace(field=value, …)`, which creates a
// copy of a tree with some fields replaced.
var replaceBuiltin = &Builtin{Name: "replace", Fn: func(_ *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("replace() takes keyword arguments only")
	}
	n := args[0].(*tree.Node)
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := toField(n.Kind, k, kw[k])
		if err != nil {
			return nil, err
		}
		if k == "ctx" {
			c, ok := tree.CtxByName(str(v))
			if v == nil {
				c, ok = tree.NoCtx, true
			}
			if !ok {
				return nil, fmt.Errorf("unknown context %s", repr(v))
			}
			n = n.WithCtx(c)
			continue
		}
		n = n.With(k, v)
	}
	return n, nil
}}

// toField converts a runtime value to the value of a field of a node of
// kind k.
func toField(k tree.Kind, name string, v interface{}) (interface{}, error) {
	if name == "ctx" {
		return v, nil
	}
	i := k.FieldIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%s has no field '%s'", k, name)
	}
	f := k.Fields()[i]
	switch x := v.(type) {
	case *List:
		if f.Shape == tree.Many || f.Shape == tree.Either {
			return nodes(x.elts)
		}
	case Tuple:
		if f.Shape == tree.Many || f.Shape == tree.Either {
			return nodes(x)
		}
	case *tree.Node:
		if f.Shape == tree.One || f.Shape == tree.Either {
			return x, nil
		}
	case nil:
		if f.Shape == tree.One || f.Shape == tree.Scalar {
			return nil, nil
		}
		if f.Shape == tree.Many {
			return []*tree.Node{}, nil
		}
	case string, int64, float64, bool:
		if f.Shape == tree.Scalar {
			return x, nil
		}
	}
	return nil, fmt.Errorf("invalid value for field '%s' of %s: %s", name, k, typeName(v))
}
