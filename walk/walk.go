package walk

import (
	"fmt"

	"github.com/npillmayer/splice/tree"
)

// Visit is the type of visit functions. C is the type of context values
// threaded down the tree, V the type of collected values.
type Visit[C, V any] func(n *tree.Node, ctx C, ctl *Control[C, V]) error

// Control is handed to a visit function for every node. Its methods record the
// visitor's decisions for this node; they are evaluated after the visit
// function has returned.
type Control[C, V any] struct {
	run      *run[V]
	ctx      C
	fieldCtx map[string]C
	replaced bool
	repl     interface{} // *tree.Node or []*tree.Node
	stop     bool
}

// Replace substitutes the current node by n. If the current node is element
// of a list, a nil node removes it from the list.
func (ctl *Control[C, V]) Replace(n *tree.Node) {
	ctl.replaced = true
	ctl.repl = n
}

// ReplaceList substitutes the current node by a list of nodes. Within lists,
// the nodes are spliced into the enclosing list. In a single-node position a
// list of length 1 is unwrapped, other lengths are an error.
func (ctl *Control[C, V]) ReplaceList(l []*tree.Node) {
	ctl.replaced = true
	ctl.repl = l
}

// SetCtx sets the context value for all the children of the current node.
func (ctl *Control[C, V]) SetCtx(c C) {
	ctl.ctx = c
}

// SetFieldCtx sets the context value for the children stored in a named field
// of the current node. It takes precedence over SetCtx.
func (ctl *Control[C, V]) SetFieldCtx(field string, c C) {
	if ctl.fieldCtx == nil {
		ctl.fieldCtx = make(map[string]C)
	}
	ctl.fieldCtx[field] = c
}

// Ctx returns the context value which will be passed on to children.
func (ctl *Control[C, V]) Ctx() C {
	return ctl.ctx
}

// Collect appends values to the aggregate of the walk.
func (ctl *Control[C, V]) Collect(v ...V) {
	ctl.run.collected = append(ctl.run.collected, v...)
}

// Stop prevents the walker from descending into the children of the current
// node or its replacement.
func (ctl *Control[C, V]) Stop() {
	ctl.stop = true
}

// --- Walker ----------------------------------------------------------------

// Walker is a re-usable tree walker. It holds no state between walks and may
// be used concurrently.
type Walker[C, V any] struct {
	visit Visit[C, V]
}

// New creates a walker for a visit function.
func New[C, V any](visit Visit[C, V]) *Walker[C, V] {
	return &Walker[C, V]{visit: visit}
}

type run[V any] struct {
	collected []V
}

// RecurseCollect walks a tree, starting with context ctx. It returns the
// (possibly replaced) tree together with the values collected.
func (w *Walker[C, V]) RecurseCollect(n *tree.Node, ctx C) (*tree.Node, []V, error) {
	r := &run[V]{}
	result, err := w.node(r, n, ctx)
	if err != nil {
		return nil, nil, err
	}
	root, err := single(result, "<root>")
	if err != nil {
		return nil, nil, err
	}
	return root, r.collected, nil
}

// Recurse walks a tree and returns the resulting tree only.
func (w *Walker[C, V]) Recurse(n *tree.Node, ctx C) (*tree.Node, error) {
	root, _, err := w.RecurseCollect(n, ctx)
	return root, err
}

// Collect walks a tree and returns the collected values only.
func (w *Walker[C, V]) Collect(n *tree.Node, ctx C) ([]V, error) {
	_, c, err := w.RecurseCollect(n, ctx)
	return c, err
}

// RecurseCollectList walks a list of trees. Replacements of the list elements
// are spliced into the result list.
func (w *Walker[C, V]) RecurseCollectList(l []*tree.Node, ctx C) ([]*tree.Node, []V, error) {
	r := &run[V]{}
	result, _, err := w.list(r, l, ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, r.collected, nil
}

// RecurseList walks a list of trees and returns the resulting list.
func (w *Walker[C, V]) RecurseList(l []*tree.Node, ctx C) ([]*tree.Node, error) {
	result, _, err := w.RecurseCollectList(l, ctx)
	return result, err
}

// node visits a single node. The result is either a *tree.Node or a
// []*tree.Node, the latter if the visitor asked for a list replacement.
func (w *Walker[C, V]) node(r *run[V], n *tree.Node, ctx C) (interface{}, error) {
	if n == nil {
		return n, nil
	}
	ctl := &Control[C, V]{run: r, ctx: ctx}
	if err := w.visit(n, ctx, ctl); err != nil {
		return nil, err
	}
	if !ctl.replaced {
		if ctl.stop {
			return n, nil
		}
		return w.children(r, n, ctl)
	}
	switch repl := ctl.repl.(type) {
	case *tree.Node:
		if repl == nil || ctl.stop {
			return repl, nil
		}
		return w.children(r, repl, ctl)
	case []*tree.Node:
		if ctl.stop {
			return repl, nil
		}
		l := make([]*tree.Node, len(repl))
		for i, e := range repl {
			c, err := w.children(r, e, ctl)
			if err != nil {
				return nil, err
			}
			l[i] = c
		}
		return l, nil
	}
	panic(fmt.Sprintf("walk: unexpected replacement of type %T", ctl.repl))
}

// children walks the fields of n and returns n, or a copy of n if any child
// changed.
func (w *Walker[C, V]) children(r *run[V], n *tree.Node, ctl *Control[C, V]) (*tree.Node, error) {
	if n == nil {
		return nil, nil
	}
	result := n
	for i, f := range n.Kind.Fields() {
		ctx := ctl.ctx
		if c, ok := ctl.fieldCtx[f.Name]; ok {
			ctx = c
		}
		var changed interface{}
		switch v := n.At(i).(type) {
		case *tree.Node:
			if v == nil {
				continue
			}
			c, err := w.node(r, v, ctx)
			if err != nil {
				return nil, err
			}
			if f.Shape == tree.Either {
				if l, ok := c.([]*tree.Node); ok {
					changed = l
					break
				}
			}
			c, err = single(c, f.Name)
			if err != nil {
				return nil, err
			}
			if c.(*tree.Node) != v {
				changed = c
			}
		case []*tree.Node:
			l, ch, err := w.list(r, v, ctx)
			if err != nil {
				return nil, err
			}
			if ch {
				changed = l
			}
		default:
			continue // scalars pass through
		}
		if changed != nil {
			result = result.WithAt(i, changed)
		}
	}
	return result, nil
}

// list walks the elements of a node list. It reports whether the list
// changed.
func (w *Walker[C, V]) list(r *run[V], l []*tree.Node, ctx C) ([]*tree.Node, bool, error) {
	var out []*tree.Node // allocated on first change
	changed := false
	for i, e := range l {
		c, err := w.node(r, e, ctx)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			if m, ok := c.(*tree.Node); ok && m == e && m != nil {
				continue
			}
			changed = true
			out = make([]*tree.Node, i, len(l)+4)
			copy(out, l[:i])
		}
		switch x := c.(type) {
		case *tree.Node:
			if x != nil {
				out = append(out, x)
			}
		case []*tree.Node:
			out = append(out, x...)
		}
	}
	if !changed {
		return l, false, nil
	}
	if out == nil {
		out = []*tree.Node{}
	}
	return out, true, nil
}

func single(c interface{}, field string) (*tree.Node, error) {
	switch x := c.(type) {
	case *tree.Node:
		return x, nil
	case []*tree.Node:
		if len(x) == 1 {
			return x[0], nil
		}
		tracer().Errorf("cannot replace single node in field '%s' by %d nodes", field, len(x))
		return nil, fmt.Errorf("walk: cannot replace node in field '%s' by a list of %d nodes", field, len(x))
	}
	return nil, fmt.Errorf("walk: unexpected walk result of type %T", c)
}
