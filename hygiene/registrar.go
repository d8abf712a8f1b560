package hygiene

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// Binding binds a generated symbol to a value captured by a macro.
type Binding struct {
	Name  string
	Value interface{}
}

func (b Binding) String() string {
	return fmt.Sprintf("%s=<%T>", b.Name, b.Value)
}

// Bindings collects the bindings of a file, in order of registration.
type Bindings struct {
	list *arraylist.List
}

// NewBindings creates an empty collection of bindings.
func NewBindings() *Bindings {
	return &Bindings{list: arraylist.New()}
}

// Add appends a binding.
func (bs *Bindings) Add(name string, value interface{}) {
	bs.list.Add(Binding{Name: name, Value: value})
}

// Len returns the number of bindings.
func (bs *Bindings) Len() int {
	return bs.list.Size()
}

// Slice returns the bindings in order of registration.
func (bs *Bindings) Slice() []Binding {
	l := make([]Binding, 0, bs.list.Size())
	bs.list.Each(func(_ int, v interface{}) {
		l = append(l, v.(Binding))
	})
	return l
}

// --- Registrar -------------------------------------------------------------

type capture struct {
	value interface{}
	key   string
}

// Registrar replaces captured values by references to generated symbols.
// Every macro invocation uses a registrar of its own: within an invocation,
// the same name captured with the same value maps to the same symbol. Symbols
// are drawn from a file-wide symbol generator, so registrars of different
// invocations never hand out the same symbol.
type Registrar struct {
	gensym   *GenSym
	bindings *Bindings
	table    map[string][]capture
}

// NewRegistrar creates a registrar for one macro invocation.
func NewRegistrar(gensym *GenSym, bindings *Bindings) *Registrar {
	return &Registrar{
		gensym:   gensym,
		bindings: bindings,
		table:    make(map[string][]capture),
	}
}

// Alias returns a reference to a symbol bound to value. name is used to
// derive the symbol.
func (r *Registrar) Alias(value interface{}, name string) *tree.Node {
	for _, c := range r.table[name] {
		if tree.SameValue(c.value, value) {
			return tree.Ident(c.key)
		}
	}
	key := r.gensym.Next(name)
	r.table[name] = append(r.table[name], capture{value: value, key: key})
	r.bindings.Add(key, value)
	tracer().Debugf("captured %s as %s", name, key)
	return tree.Ident(key)
}

// Register replaces every Captured node within a macro's output by a
// reference to a symbol. Literal markers are unwrapped. The argument may be
// a node or a node list.
func (r *Registrar) Register(output interface{}) (interface{}, error) {
	switch x := output.(type) {
	case *tree.Node:
		if x == nil {
			return x, nil
		}
		l, err := r.walker().RecurseList([]*tree.Node{x}, struct{}{})
		if err != nil {
			return nil, err
		}
		if len(l) == 1 {
			return l[0], nil
		}
		return l, nil
	case []*tree.Node:
		return r.walker().RecurseList(x, struct{}{})
	}
	return output, nil
}

func (r *Registrar) walker() *walk.Walker[struct{}, struct{}] {
	return walk.New[struct{}, struct{}](func(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, struct{}]) error {
		switch n.Kind {
		case tree.Captured:
			ctl.Replace(r.Alias(n.Value, n.Text("name")).WithPos(n.Pos))
			ctl.Stop()
		case tree.Literal:
			body, err := r.Register(n.Get("body"))
			if err != nil {
				return err
			}
			switch b := body.(type) {
			case *tree.Node:
				ctl.Replace(b)
			case []*tree.Node:
				ctl.ReplaceList(b)
			}
			ctl.Stop()
		}
		return nil
	})
}
