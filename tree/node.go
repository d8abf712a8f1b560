package tree

import (
	"fmt"

	"github.com/npillmayer/splice"
)

// Node is a node of a homogenous syntax tree. The fields of a node are
// described by its kind, see Kind.Fields(). Field values are
//
//     *Node        for fields of shape One (nil if absent)
//     []*Node      for fields of shape Many
//     string, int64, float64, bool or nil  for scalars
//
// Nodes should be treated as immutable once they are part of a tree. Use
// With(…) and friends to derive modified copies.
type Node struct {
	Kind   Kind
	Pos    splice.Pos
	Ctx    Ctx
	Value  interface{} // runtime value of a Captured node
	fields []interface{}
}

// New creates a node of kind k with positional field values. Missing trailing
// fields are set to nil. Go ints are normalized to int64 and float32 to float64.
func New(k Kind, values ...interface{}) *Node {
	if !k.Valid() {
		panic(fmt.Sprintf("tree: cannot create node of invalid kind %d", k))
	}
	desc := k.Fields()
	if len(values) > len(desc) {
		panic(fmt.Sprintf("tree: too many fields for %s: %d", k, len(values)))
	}
	n := &Node{Kind: k, fields: make([]interface{}, len(desc))}
	for i := range desc {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		n.fields[i] = normalizeField(desc[i].Shape, v)
	}
	return n
}

// normalizeField makes absent values uniform: a missing node is nil, a
// missing node list is an empty list.
func normalizeField(shape Shape, v interface{}) interface{} {
	switch shape {
	case One:
		if c, ok := v.(*Node); ok && c == nil {
			return nil
		}
	case Many:
		if v == nil {
			return []*Node{}
		}
		if l, ok := v.([]*Node); ok && l == nil {
			return []*Node{}
		}
	}
	return normalize(v)
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// NumFields returns the number of fields of n.
func (n *Node) NumFields() int {
	return len(n.fields)
}

// At returns the value of the i-th field.
func (n *Node) At(i int) interface{} {
	return n.fields[i]
}

// Get returns the value of a named field, or nil if n has no such field.
func (n *Node) Get(name string) interface{} {
	if n == nil {
		return nil
	}
	if i := n.Kind.FieldIndex(name); i >= 0 {
		return n.fields[i]
	}
	return nil
}

// Child returns the node stored in a field of shape One.
func (n *Node) Child(name string) *Node {
	c, _ := n.Get(name).(*Node)
	return c
}

// Children returns the node list stored in a field of shape Many.
func (n *Node) Children(name string) []*Node {
	l, _ := n.Get(name).([]*Node)
	return l
}

// Text returns a string scalar field, or "" if it is not set.
func (n *Node) Text(name string) string {
	s, _ := n.Get(name).(string)
	return s
}

// Is checks if n is of one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// IsName checks if n is a Name node with identifier id.
func (n *Node) IsName(id string) bool {
	return n.Is(Name) && n.Text("id") == id
}

// Copy returns a shallow copy of n. Field values are shared.
func (n *Node) Copy() *Node {
	c := *n
	c.fields = make([]interface{}, len(n.fields))
	copy(c.fields, n.fields)
	return &c
}

// WithAt returns a copy of n with the i-th field replaced.
func (n *Node) WithAt(i int, v interface{}) *Node {
	c := n.Copy()
	c.fields[i] = normalizeField(n.Kind.Fields()[i].Shape, v)
	return c
}

// With returns a copy of n with a named field replaced. It panics if n does
// not have a field of this name.
func (n *Node) With(name string, v interface{}) *Node {
	i := n.Kind.FieldIndex(name)
	if i < 0 {
		panic(fmt.Sprintf("tree: %s has no field '%s'", n.Kind, name))
	}
	return n.WithAt(i, v)
}

// WithCtx returns a copy of n with context tag c.
func (n *Node) WithCtx(c Ctx) *Node {
	m := n.Copy()
	m.Ctx = c
	return m
}

// WithPos returns a copy of n with source position p.
func (n *Node) WithPos(p splice.Pos) *Node {
	m := n.Copy()
	m.Pos = p
	return m
}

// Located sets the position of a freshly created node and returns it. It is
// meant for builders and must not be used on nodes already shared in a tree.
func (n *Node) Located(p splice.Pos) *Node {
	n.Pos = p
	return n
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return Format(n)
}

// --- Constructors ----------------------------------------------------------

// Ident creates a Name node in load context.
func Ident(id string) *Node {
	return NewName(id, Load)
}

func NewModule(body []*Node) *Node { return New(Module, body) }
func NewExprStmt(v *Node) *Node    { return New(ExprStmt, v) }
func NewAssign(targets []*Node, v *Node) *Node {
	return New(Assign, targets, v)
}
func NewAugAssign(target *Node, op string, v *Node) *Node {
	return New(AugAssign, target, op, v)
}
func NewDelete(targets []*Node) *Node { return New(Delete, targets) }
func NewFunctionDef(name string, args, body, decorators []*Node) *Node {
	return New(FunctionDef, name, args, body, decorators)
}
func NewClassDef(name string, bases, body, decorators []*Node) *Node {
	return New(ClassDef, name, bases, body, decorators)
}
func NewReturn(v *Node) *Node { return New(Return, v) }
func NewIf(test *Node, body, orelse []*Node) *Node {
	return New(If, test, body, orelse)
}
func NewWhile(test *Node, body []*Node) *Node { return New(While, test, body) }
func NewFor(target, iter *Node, body []*Node) *Node {
	return New(For, target, iter, body)
}
func NewWith(items, body []*Node) *Node      { return New(With, items, body) }
func NewWithItem(context, vars *Node) *Node  { return New(WithItem, context, vars) }
func NewImport(names []*Node) *Node          { return New(Import, names) }
func NewImportFrom(module string, names []*Node) *Node {
	return New(ImportFrom, module, names)
}

// NewAlias creates an import alias. asname may be empty.
func NewAlias(name, asname string) *Node {
	if asname == "" {
		return New(Alias, name, nil)
	}
	return New(Alias, name, asname)
}
func NewPass() *Node           { return New(Pass) }
func NewRaise(exc *Node) *Node { return New(Raise, exc) }

// NewName creates an identifier reference.
func NewName(id string, ctx Ctx) *Node {
	n := New(Name, id)
	n.Ctx = ctx
	return n
}

// NewNum creates a number literal from an int64 or float64 value.
func NewNum(v interface{}) *Node {
	switch normalize(v).(type) {
	case int64, float64:
	default:
		panic(fmt.Sprintf("tree: not a number: %v (%T)", v, v))
	}
	return New(Num, v)
}
func NewInt(i int64) *Node     { return New(Num, i) }
func NewFloat(f float64) *Node { return New(Num, f) }
func NewStr(s string) *Node    { return New(Str, s) }

// NewConst creates one of the constants True, False (v is a bool) or None (v is nil).
func NewConst(v interface{}) *Node { return New(Const, v) }
func NewBinOp(left *Node, op string, right *Node) *Node {
	return New(BinOp, left, op, right)
}
func NewUnaryOp(op string, operand *Node) *Node { return New(UnaryOp, op, operand) }
func NewCall(f *Node, args, keywords []*Node) *Node {
	return New(Call, f, args, keywords)
}
func NewKeyword(arg string, v *Node) *Node { return New(Keyword, arg, v) }
func NewAttribute(v *Node, attr string, ctx Ctx) *Node {
	n := New(Attribute, v, attr)
	n.Ctx = ctx
	return n
}
func NewSubscript(v, index *Node, ctx Ctx) *Node {
	n := New(Subscript, v, index)
	n.Ctx = ctx
	return n
}
func NewList(elts []*Node, ctx Ctx) *Node {
	n := New(List, elts)
	n.Ctx = ctx
	return n
}
func NewTuple(elts []*Node, ctx Ctx) *Node {
	n := New(Tuple, elts)
	n.Ctx = ctx
	return n
}
func NewSet(elts []*Node) *Node               { return New(Set, elts) }
func NewDict(keys, values []*Node) *Node      { return New(Dict, keys, values) }
func NewLambda(args []*Node, body *Node) *Node { return New(Lambda, args, body) }
func NewArg(name string) *Node                { return New(Arg, name) }

// NewLiteral wraps a node or a node list as an already final subtree. If
// splice is set, a list body is spliced into an enclosing list.
func NewLiteral(body interface{}, splice bool) *Node {
	switch body.(type) {
	case *Node, []*Node:
	default:
		panic(fmt.Sprintf("tree: literal body must be a node or a node list, is %T", body))
	}
	return New(Literal, body, splice)
}

// NewCaptured wraps a runtime value, together with a name for diagnostics.
func NewCaptured(value interface{}, name string) *Node {
	n := New(Captured, name)
	n.Value = value
	return n
}

// IsSpliceLiteral is true for literal markers which splice into lists.
func IsSpliceLiteral(n *Node) bool {
	if !n.Is(Literal) {
		return false
	}
	b, _ := n.Get("splice").(bool)
	return b
}
