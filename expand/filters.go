package expand

import (
	"fmt"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// A filter post-processes the output of a macro handler. Output is either a
// single node or a node list.
type filter func(output interface{}, site *tree.Node) (interface{}, error)

// apply runs a walker over a node or a node list.
func apply[C, V any](w *walk.Walker[C, V], output interface{}, ctx C) (interface{}, error) {
	switch x := output.(type) {
	case *tree.Node:
		return w.Recurse(x, ctx)
	case []*tree.Node:
		return w.RecurseList(x, ctx)
	}
	return output, nil
}

// --- Positions -------------------------------------------------------------

// fillPositions assigns a position to every node lacking one. A node without
// a position inherits the position of its parent. Down a list of siblings
// positions never decrease: an element without a position, or with a position
// before the one of its predecessor, gets the position of its predecessor.
// The elements of the output list itself start at the invocation site.
func fillPositions(output interface{}, site *tree.Node) (interface{}, error) {
	switch x := output.(type) {
	case *tree.Node:
		if x == nil {
			return x, nil
		}
		return positionFiller.Recurse(x, site.Pos)
	case []*tree.Node:
		l := monotone(x, site.Pos)
		return positionFiller.RecurseList(l, site.Pos)
	}
	return output, nil
}

var positionFiller = walk.New[splice.Pos, struct{}](func(n *tree.Node, pos splice.Pos, ctl *walk.Control[splice.Pos, struct{}]) error {
	m := n
	if !m.Pos.IsKnown() {
		m = m.WithPos(pos)
	}
	for i, f := range m.Kind.Fields() {
		if f.Shape != tree.Many {
			continue
		}
		l := m.At(i).([]*tree.Node)
		if ml := monotone(l, m.Pos); !sameList(l, ml) {
			m = m.WithAt(i, ml)
		}
	}
	if m != n {
		ctl.Replace(m)
	}
	ctl.SetCtx(m.Pos)
	return nil
})

// monotone returns l with element positions made non-decreasing, starting at
// pos. l is copied on the first change.
func monotone(l []*tree.Node, pos splice.Pos) []*tree.Node {
	out := l
	for i, e := range l {
		if e == nil {
			continue
		}
		if e.Pos.IsKnown() && !e.Pos.Less(pos) {
			pos = e.Pos
			continue
		}
		if &out[0] == &l[0] {
			out = append([]*tree.Node{}, l...)
		}
		out[i] = e.WithPos(pos)
	}
	return out
}

func sameList(a, b []*tree.Node) bool {
	return len(a) == 0 || &a[0] == &b[0]
}

// --- Context tags ----------------------------------------------------------

// ctxReq is the context tag requested for a node by its parent. Forced
// requests override a tag supplied by the handler, other requests only fill
// in missing tags.
type ctxReq struct {
	ctx    tree.Ctx
	forced bool
}

var loadReq = ctxReq{ctx: tree.Load}

// fixContexts fills in missing context tags. Names default to load context;
// assignment, for-loop and with targets are forced to store context, deletion
// targets to del context.
func fixContexts(output interface{}, _ *tree.Node) (interface{}, error) {
	return apply(ctxFixer, output, loadReq)
}

var ctxFixer = walk.New[ctxReq, struct{}](func(n *tree.Node, req ctxReq, ctl *walk.Control[ctxReq, struct{}]) error {
	if n.Kind.HasCtx() {
		if req.forced && req.ctx != tree.Load && !isAssignable(n) {
			return &splice.PostProcessingError{
				Kind:   n.Kind.String(),
				Pos:    n.Pos,
				Reason: fmt.Sprintf("cannot be used in %s context", req.ctx),
			}
		}
		if n.Ctx == tree.NoCtx || (req.forced && n.Ctx != req.ctx) {
			ctl.Replace(n.WithCtx(req.ctx))
		}
	} else if req.forced && req.ctx != tree.Load && n.Kind.Class() == tree.Expr {
		return &splice.PostProcessingError{
			Kind:   n.Kind.String(),
			Pos:    n.Pos,
			Reason: fmt.Sprintf("cannot be used in %s context", req.ctx),
		}
	}
	ctl.SetCtx(loadReq)
	switch n.Kind {
	case tree.Assign, tree.Delete:
		c := tree.Store
		if n.Is(tree.Delete) {
			c = tree.Del
		}
		ctl.SetFieldCtx("targets", ctxReq{ctx: c, forced: true})
	case tree.AugAssign, tree.For:
		ctl.SetFieldCtx("target", ctxReq{ctx: tree.Store, forced: true})
	case tree.WithItem:
		ctl.SetFieldCtx("vars", ctxReq{ctx: tree.Store, forced: true})
	case tree.Tuple, tree.List:
		ctl.SetCtx(req) // elements share the context of the sequence
	case tree.Attribute, tree.Subscript:
		ctl.SetCtx(ctxReq{ctx: tree.Load, forced: req.forced})
	}
	return nil
})

func isAssignable(n *tree.Node) bool {
	return n.Is(tree.Name, tree.Attribute, tree.Subscript, tree.Tuple, tree.List)
}
