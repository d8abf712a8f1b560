package tree

import (
	"fmt"
	"reflect"

	"github.com/cnf/structhash"
)

// Equal compares two trees structurally. Positions are ignored, context tags
// are not. Captured nodes are equal if they carry the same name and the same
// value, see SameValue.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Ctx != b.Ctx || len(a.fields) != len(b.fields) {
		return false
	}
	if a.Kind == Captured && !SameValue(a.Value, b.Value) {
		return false
	}
	for i := range a.fields {
		if !equalValues(a.fields[i], b.fields[i]) {
			return false
		}
	}
	return true
}

// EqualLists compares two node lists element-wise with Equal.
func EqualLists(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalValues(x, y interface{}) bool {
	switch v := x.(type) {
	case *Node:
		w, ok := y.(*Node)
		return ok && Equal(v, w)
	case []*Node:
		w, ok := y.([]*Node)
		return ok && EqualLists(v, w)
	}
	switch y.(type) {
	case *Node, []*Node:
		return false
	}
	return x == y
}

// SameValue checks if two runtime values are identical. Functions are
// identical if they share the same code pointer; values of non-comparable
// types are never identical.
func SameValue(x, y interface{}) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	tx, ty := reflect.TypeOf(x), reflect.TypeOf(y)
	if tx != ty {
		return false
	}
	if tx.Kind() == reflect.Func {
		return reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	}
	if !tx.Comparable() {
		return false
	}
	return x == y
}

// --- Fingerprints ----------------------------------------------------------

// hnode is a hashable mirror of a node. structhash only looks at exported
// fields, so the node's private field vector is copied here.
type hnode struct {
	Kind   string
	Ctx    string
	Fields []hfield
}

type hfield struct {
	Name   string
	List   bool
	Scalar string
	Nodes  []hnode
}

func mirror(n *Node) hnode {
	h := hnode{Kind: n.Kind.String(), Ctx: n.Ctx.String()}
	h.Fields = make([]hfield, len(n.fields))
	for i, f := range n.Kind.Fields() {
		hf := hfield{Name: f.Name}
		switch v := n.fields[i].(type) {
		case *Node:
			if v != nil {
				hf.Nodes = []hnode{mirror(v)}
			}
		case []*Node:
			hf.List = true
			hf.Nodes = make([]hnode, len(v))
			for j, c := range v {
				hf.Nodes[j] = mirror(c)
			}
		default:
			hf.Scalar = fmt.Sprintf("%T:%v", v, v)
		}
		h.Fields[i] = hf
	}
	return h
}

// Fingerprint computes a structural hash of a tree. Trees which are Equal
// have the same fingerprint (values of captured nodes are not hashed).
func Fingerprint(n *Node) (string, error) {
	if n == nil {
		return "", nil
	}
	return structhash.Hash(mirror(n), 1)
}

// ListFingerprint computes a structural hash of a list of trees.
func ListFingerprint(l []*Node) (string, error) {
	h := make([]hnode, len(l))
	for i, n := range l {
		h[i] = mirror(n)
	}
	return structhash.Hash(struct{ Nodes []hnode }{h}, 1)
}
