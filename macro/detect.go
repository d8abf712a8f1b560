package macro

import (
	"fmt"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/tree"
)

type binding struct {
	module *Module
	name   string // name of the macro within module
}

// Table binds the names imported by a source file to macros of the active
// modules.
type Table struct {
	modules  []*Module
	bindings map[string]binding
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{bindings: make(map[string]binding)}
}

// Activate adds a module to the list of active modules. Activating a module
// twice has no effect.
func (t *Table) Activate(m *Module) {
	for _, a := range t.modules {
		if a == m {
			return
		}
	}
	t.modules = append(t.modules, m)
}

// Bind binds an imported name, possibly aliased, to a macro of module m.
// If name is not a macro of m, nothing is bound and false is returned. A name
// bound before is shadowed by a later binding.
func (t *Table) Bind(m *Module, name, as string) bool {
	if !m.Has(name) {
		return false
	}
	t.Activate(m)
	if as == "" {
		as = name
	}
	if old, ok := t.bindings[as]; ok {
		tracer().Debugf("macro '%s' of module %s shadows import from %s", as, m.Name(), old.module.Name())
	}
	t.bindings[as] = binding{module: m, name: name}
	return true
}

// Modules returns the active modules, in import order.
func (t *Table) Modules() []*Module {
	return t.modules
}

// IsEmpty is true if no macro name is bound.
func (t *Table) IsEmpty() bool {
	return len(t.bindings) == 0
}

// Site is a macro invocation site found by Detect.
type Site struct {
	Shape   Shape
	Name    string      // name as used at the site
	Macro   *Macro      // macro to invoke
	Node    *tree.Node  // the site
	Payload interface{} // *tree.Node or []*tree.Node
	Args    []*tree.Node
	Target  *tree.Node
}

func (s *Site) String() string {
	return fmt.Sprintf("<site %s @%s>", s.Macro, s.Node.Pos)
}

// Detect checks if n is a macro invocation site. It returns nil if n is not a
// site. Uses of macro names which are not imported properly result in a
// MacroResolutionError.
//
// Multi-item with-statements are not recognized; use SplitWith first.
func (t *Table) Detect(n *tree.Node) (*Site, error) {
	if n == nil || len(t.modules) == 0 {
		return nil, nil
	}
	switch n.Kind {
	case tree.Subscript:
		return t.detectExpr(n)
	case tree.With:
		return t.detectBlock(n)
	case tree.FunctionDef, tree.ClassDef:
		return t.detectDecorator(n)
	}
	return nil, nil
}

func (t *Table) detectExpr(n *tree.Node) (*Site, error) {
	name, args, ok := macroRef(n.Child("value"))
	if !ok {
		return nil, nil
	}
	mac, err := t.resolve(ExprShape, name, n.Pos)
	if mac == nil || err != nil {
		return nil, err
	}
	return &Site{
		Shape:   ExprShape,
		Name:    name,
		Macro:   mac,
		Node:    n,
		Payload: n.Child("index"),
		Args:    args,
	}, nil
}

func (t *Table) detectBlock(n *tree.Node) (*Site, error) {
	items := n.Children("items")
	if len(items) != 1 {
		return nil, nil
	}
	name, args, ok := macroRef(items[0].Child("context"))
	if !ok {
		return nil, nil
	}
	mac, err := t.resolve(BlockShape, name, n.Pos)
	if mac == nil || err != nil {
		return nil, err
	}
	return &Site{
		Shape:   BlockShape,
		Name:    name,
		Macro:   mac,
		Node:    n,
		Payload: n.Children("body"),
		Args:    args,
		Target:  items[0].Child("vars"),
	}, nil
}

// detectDecorator finds the first macro decorator of a definition. The
// payload is the definition without this decorator.
func (t *Table) detectDecorator(n *tree.Node) (*Site, error) {
	decorators := n.Children("decorators")
	for i, d := range decorators {
		name, args, ok := macroRef(d)
		if !ok {
			continue
		}
		mac, err := t.resolve(DecoratorShape, name, d.Pos)
		if err != nil {
			return nil, err
		}
		if mac == nil {
			continue
		}
		rest := make([]*tree.Node, 0, len(decorators)-1)
		rest = append(rest, decorators[:i]...)
		rest = append(rest, decorators[i+1:]...)
		return &Site{
			Shape:   DecoratorShape,
			Name:    name,
			Macro:   mac,
			Node:    n,
			Payload: n.With("decorators", rest),
			Args:    args,
		}, nil
	}
	return nil, nil
}

// macroRef checks for `name` or `name(args)`, the latter possibly chained as
// in `name(a)(b)`.
func macroRef(n *tree.Node) (string, []*tree.Node, bool) {
	var args []*tree.Node
	for n.Is(tree.Call) {
		outer := args
		args = append([]*tree.Node{}, n.Children("args")...)
		args = append(args, outer...)
		n = n.Child("func")
	}
	if !n.Is(tree.Name) {
		return "", nil, false
	}
	return n.Text("id"), args, true
}

// resolve finds the macro bound to name for a shape. It returns nil for names
// which are not macros at all.
func (t *Table) resolve(shape Shape, name string, pos splice.Pos) (*Macro, error) {
	b, ok := t.bindings[name]
	if !ok {
		for _, m := range t.modules {
			if m.Has(name) {
				return nil, &splice.MacroResolutionError{
					Name:   name,
					Shape:  shape.String(),
					Pos:    pos,
					Reason: fmt.Sprintf("not imported; use `from %s import macros, %s`", m.Name(), name),
				}
			}
		}
		return nil, nil
	}
	mac := b.module.Lookup(shape, b.name)
	if mac == nil {
		return nil, &splice.MacroResolutionError{
			Name:   name,
			Shape:  shape.String(),
			Pos:    pos,
			Reason: fmt.Sprintf("module %s has no %s macro '%s'", b.module.Name(), shape, b.name),
		}
	}
	return mac, nil
}

// SplitWith rewrites a with-statement with more than one item into nested
// with-statements, if any of the items refers to a macro. Otherwise n is
// returned unchanged.
func (t *Table) SplitWith(n *tree.Node) *tree.Node {
	if !n.Is(tree.With) {
		return n
	}
	items := n.Children("items")
	if len(items) < 2 {
		return n
	}
	anyMacro := false
	for _, item := range items {
		if name, _, ok := macroRef(item.Child("context")); ok {
			if _, bound := t.bindings[name]; bound {
				anyMacro = true
			}
		}
	}
	if !anyMacro {
		return n
	}
	body := n.Children("body")
	for i := len(items) - 1; i > 0; i-- {
		body = []*tree.Node{tree.NewWith(items[i:i+1], body).Located(items[i].Pos)}
	}
	return n.With("items", items[:1]).With("body", body)
}
