package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

// --- Containers ------------------------------------------------------------

// List is a mutable sequence.
type List struct {
	elts []interface{}
}

// NewList creates a list value.
func NewList(elts ...interface{}) *List {
	return &List{elts: elts}
}

// Elements returns the elements of a list.
func (l *List) Elements() []interface{} {
	return l.elts
}

// LiftTree creates a list display evaluating to l.
func (l *List) LiftTree(lift func(interface{}) (*tree.Node, error)) (*tree.Node, error) {
	elts, err := liftAll(l.elts, lift)
	if err != nil {
		return nil, err
	}
	return tree.NewList(elts, tree.Load), nil
}

// Tuple is an immutable sequence.
type Tuple []interface{}

// Elements returns the elements of a tuple.
func (t Tuple) Elements() []interface{} {
	return t
}

// LiftTree creates a tuple display evaluating to t.
func (t Tuple) LiftTree(lift func(interface{}) (*tree.Node, error)) (*tree.Node, error) {
	elts, err := liftAll(t, lift)
	if err != nil {
		return nil, err
	}
	return tree.NewTuple(elts, tree.Load), nil
}

// Dict is a mapping which remembers insertion order. Keys must be scalars.
type Dict struct {
	m *linkedhashmap.Map
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{m: linkedhashmap.New()}
}

// Put stores a value for a key.
func (d *Dict) Put(k, v interface{}) error {
	if !hashable(k) {
		return fmt.Errorf("unhashable type: '%s'", typeName(k))
	}
	d.m.Put(k, v)
	return nil
}

// Get looks up the value for a key.
func (d *Dict) Get(k interface{}) (interface{}, bool) {
	if !hashable(k) {
		return nil, false
	}
	return d.m.Get(k)
}

// Keys returns the keys of a dict in insertion order.
func (d *Dict) Keys() []interface{} {
	return d.m.Keys()
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return d.m.Size()
}

// LiftTree creates a dict display evaluating to d.
func (d *Dict) LiftTree(lift func(interface{}) (*tree.Node, error)) (*tree.Node, error) {
	keys, err := liftAll(d.m.Keys(), lift)
	if err != nil {
		return nil, err
	}
	values, err := liftAll(d.m.Values(), lift)
	if err != nil {
		return nil, err
	}
	return tree.NewDict(keys, values), nil
}

// Set is a set of scalars which remembers insertion order.
type Set struct {
	s *linkedhashset.Set
}

// NewSet creates a set value.
func NewSet() *Set {
	return &Set{s: linkedhashset.New()}
}

// Add inserts an element.
func (s *Set) Add(v interface{}) error {
	if !hashable(v) {
		return fmt.Errorf("unhashable type: '%s'", typeName(v))
	}
	s.s.Add(v)
	return nil
}

// Contains checks for an element.
func (s *Set) Contains(v interface{}) bool {
	return hashable(v) && s.s.Contains(v)
}

// Elements returns the elements of a set in insertion order.
func (s *Set) Elements() []interface{} {
	return s.s.Values()
}

// LiftTree creates a set display evaluating to s.
func (s *Set) LiftTree(lift func(interface{}) (*tree.Node, error)) (*tree.Node, error) {
	if s.s.Size() == 0 { // there is no literal for the empty set
		return tree.NewCall(tree.Ident("set"), nil, nil), nil
	}
	elts, err := liftAll(s.s.Values(), lift)
	if err != nil {
		return nil, err
	}
	return tree.NewSet(elts), nil
}

func liftAll(values []interface{}, lift func(interface{}) (*tree.Node, error)) ([]*tree.Node, error) {
	l := make([]*tree.Node, len(values))
	for i, v := range values {
		n, err := lift(v)
		if err != nil {
			return nil, err
		}
		l[i] = n
	}
	return l, nil
}

func hashable(v interface{}) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	}
	return false
}

// --- Callables and objects -------------------------------------------------

// Function is a function or lambda defined in spx.
type Function struct {
	Name    string
	Params  []string
	Body    []*tree.Node // statements of a def
	Expr    *tree.Node   // body of a lambda
	Closure *runtime.Scope
}

func (f *Function) String() string {
	return f.Name
}

// Builtin is a function implemented in Go. Builtins receive the scope of
// their caller.
type Builtin struct {
	Name string
	Fn   func(c *Caller, args []interface{}, kw map[string]interface{}) (interface{}, error)
}

func (b *Builtin) String() string {
	return b.Name
}

// Caller describes the call site of a builtin.
type Caller struct {
	In    *Interpreter
	Scope *runtime.Scope
	Node  *tree.Node
}

// BoundMethod is a function bound to an object.
type BoundMethod struct {
	Self interface{}
	Fn   interface{} // *Function or *Builtin
}

// Class is a class defined in spx or a builtin exception class.
type Class struct {
	Name  string
	Bases []*Class
	Attrs *runtime.Scope
}

func (c *Class) String() string {
	return c.Name
}

// lookup searches the class and its bases for an attribute.
func (c *Class) lookup(name string) (interface{}, bool) {
	if v, ok := c.Attrs.Local(name); ok {
		return v, true
	}
	for _, b := range c.Bases {
		if v, ok := b.lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// isSubclass checks if c is other or derives from it.
func (c *Class) isSubclass(other *Class) bool {
	if c == other {
		return true
	}
	for _, b := range c.Bases {
		if b.isSubclass(other) {
			return true
		}
	}
	return false
}

// Object is an instance of a class.
type Object struct {
	Class *Class
	Attrs *runtime.SymbolTable
}

// Module is a module namespace. Modules which define macros carry their
// macro module.
type Module struct {
	Name   string
	Scope  *runtime.Scope
	Macros *macro.Module // set after the module has run
}

func (m *Module) String() string {
	return m.Name
}

// Stub is the runtime value of names which are only meaningful within
// macro invocations, such as the escapes of quotes.
type Stub struct {
	Name string
}

func (s *Stub) String() string {
	return s.Name
}

func (s *Stub) fail() error {
	return fmt.Errorf("Stub `%s` illegally invoked at runtime; is it used properly within a macro?", s.Name)
}

// --- Conversions -----------------------------------------------------------

// typeName returns the spx name of the type of a value.
func typeName(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *List:
		return "list"
	case Tuple:
		return "tuple"
	case *Dict:
		return "dict"
	case *Set:
		return "set"
	case *Function, *Builtin, *BoundMethod:
		return "function"
	case *Class:
		return "type"
	case *Object:
		return x.Class.Name
	case *Module:
		return "module"
	case *tree.Node:
		return "tree"
	case *Stub:
		return "stub"
	case *MacroRegistry:
		return "macros"
	}
	return fmt.Sprintf("%T", v)
}

// truthy implements the truth value of a value.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.elts) > 0
	case Tuple:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	case *Set:
		return x.s.Size() > 0
	}
	return true
}

// str converts a value to its display string.
func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

// repr converts a value to its representation string.
func repr(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		switch {
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		case x < 0:
			return "-" + syntax.FormatNumber(-x)
		}
		return syntax.FormatNumber(x)
	case string:
		return syntax.Quote(x)
	case *List:
		return "[" + joinRepr(x.elts) + "]"
	case Tuple:
		if len(x) == 1 {
			return "(" + repr(x[0]) + ",)"
		}
		return "(" + joinRepr(x) + ")"
	case *Dict:
		parts := make([]string, 0, x.Len())
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			parts = append(parts, repr(k)+": "+repr(v))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Set:
		if x.s.Size() == 0 {
			return "set()"
		}
		return "{" + joinRepr(x.Elements()) + "}"
	case *Function:
		return fmt.Sprintf("<function %s>", x.Name)
	case *Builtin:
		return fmt.Sprintf("<builtin %s>", x.Name)
	case *BoundMethod:
		return fmt.Sprintf("<bound method %s of %s>", x.Fn, repr(x.Self))
	case *Class:
		return fmt.Sprintf("<class %s>", x.Name)
	case *Object:
		if s, ok := x.Attrs.Table["args"]; ok && x.Class.isSubclass(exceptionClass) {
			if args, ok := s.Value.(Tuple); ok && len(args) == 1 {
				return fmt.Sprintf("%s(%s)", x.Class.Name, repr(args[0]))
			}
		}
		return fmt.Sprintf("<%s object>", x.Class.Name)
	case *Module:
		return fmt.Sprintf("<module %s>", x.Name)
	case *tree.Node:
		return fmt.Sprintf("<tree %s>", tree.Format(x))
	case *Stub:
		return fmt.Sprintf("<stub %s>", x.Name)
	case *MacroRegistry:
		return fmt.Sprintf("<macros of %s>", x.module)
	}
	return fmt.Sprintf("%v", v)
}

func joinRepr(l []interface{}) string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = repr(e)
	}
	return strings.Join(parts, ", ")
}

// sortedNames returns the names bound in a scope, sorted.
func sortedNames(sc *runtime.Scope) []string {
	var names []string
	sc.Tags().Each(func(name string, _ *runtime.Tag) {
		names = append(names, name)
	})
	return names
}
