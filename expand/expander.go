package expand

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/hygiene"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// Expander expands the macro invocations within trees of one source file.
type Expander struct {
	table  *macro.Table
	ctx    *Context
	walker *walk.Walker[struct{}, struct{}]
	count  int // number of substitutions
}

// NewExpander creates an expander for the macros bound in table.
func NewExpander(table *macro.Table, ctx *Context) *Expander {
	e := &Expander{table: table, ctx: ctx}
	e.walker = walk.New[struct{}, struct{}](e.visit)
	return e
}

// Expand expands all macro invocations within a tree, outside-in. The
// output of a macro is expanded again, until no invocations are left.
func (e *Expander) Expand(n *tree.Node) (*tree.Node, error) {
	if e.table.IsEmpty() {
		return n, nil
	}
	return e.walker.Recurse(n, struct{}{})
}

// ExpandList expands all macro invocations within a list of statements.
func (e *Expander) ExpandList(l []*tree.Node) ([]*tree.Node, error) {
	if e.table.IsEmpty() {
		return l, nil
	}
	return e.walker.RecurseList(l, struct{}{})
}

// Substitutions returns the number of macro invocations replaced so far.
func (e *Expander) Substitutions() int {
	return e.count
}

// expandAny expands a node or a node list. It is handed to handlers as their
// recursive expansion callback.
func (e *Expander) expandAny(t interface{}) (interface{}, error) {
	switch x := t.(type) {
	case *tree.Node:
		return e.Expand(x)
	case []*tree.Node:
		return e.ExpandList(x)
	}
	return nil, fmt.Errorf("cannot expand value of type %T", t)
}

func (e *Expander) visit(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, struct{}]) error {
	if n.Is(tree.With) {
		if split := e.table.SplitWith(n); split != n {
			n = split
			ctl.Replace(n)
		}
	}
	site, err := e.table.Detect(n)
	if err != nil || site == nil {
		return err
	}
	output, err := e.invoke(site)
	if err != nil {
		return err
	}
	if output, err = e.expandAny(output); err != nil {
		return err
	}
	switch x := output.(type) {
	case *tree.Node:
		ctl.Replace(x)
	case []*tree.Node:
		ctl.ReplaceList(x)
	}
	ctl.Stop() // the output has been expanded already
	return nil
}

// invoke calls the handler of a macro and post-processes its output. For
// expression sites the result is a single node, otherwise it is a list of
// statements.
func (e *Expander) invoke(site *macro.Site) (interface{}, error) {
	tracer().Debugf("invoking %s", site)
	registrar := hygiene.NewRegistrar(e.ctx.GenSym(), e.ctx.bindings)
	call := &macro.Call{
		Name:        site.Name,
		Macro:       site.Macro,
		Tree:        site.Payload,
		Site:        site.Node,
		Args:        site.Args,
		Target:      site.Target,
		Modules:     e.table.Modules(),
		GenSym:      e.ctx.GenSym().Next,
		Alias:       registrar.Alias,
		ExactSource: e.ctx.ExactSource,
		Expand:      e.expandAny,
	}
	output, err := callHandler(site.Macro.Handler, call.Restrict(site.Macro.Params))
	if err != nil {
		return nil, &splice.MacroExpansionError{
			Name:      site.Name,
			Module:    site.Macro.Module,
			Pos:       site.Node.Pos,
			Traceback: traceback(err),
			Err:       err,
		}
	}
	if output, err = registrar.Register(output); err != nil {
		return nil, err
	}
	if output, err = shape(site, output); err != nil {
		return nil, err
	}
	for _, f := range []filter{fillPositions, fixContexts} {
		if output, err = f(output, site.Node); err != nil {
			return nil, err
		}
	}
	e.count++
	if gconf.GetBool("dump-macro-expansions") {
		tracer().Infof("%s: macro %s expanded to\n%s", site.Node.Pos, site.Name, display(output))
	}
	return output, nil
}

// callHandler calls a handler, turning a panic into an error.
func callHandler(h macro.Handler, call *macro.Call) (output interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("macro handler panicked: %v", r)
		}
	}()
	return h(call)
}

// traceback extracts the call trace of a failing handler, if the handler's
// error carries one.
func traceback(err error) string {
	var tb interface{ Traceback() string }
	if errors.As(err, &tb) {
		return tb.Traceback()
	}
	return ""
}

// shape checks that a handler's output fits the invocation site. An
// expression site needs a single expression. Block and decorator sites take
// a list of statements; expressions are wrapped into expression statements
// and a nil output removes the site.
func shape(site *macro.Site, output interface{}) (interface{}, error) {
	var l []*tree.Node
	switch x := output.(type) {
	case nil:
	case *tree.Node:
		if x != nil {
			l = []*tree.Node{x}
		}
	case []*tree.Node:
		l = x
	default:
		return nil, invalid(site, fmt.Sprintf("macro returned a value of type %T", output))
	}
	if site.Shape == macro.ExprShape {
		if len(l) != 1 {
			return nil, invalid(site, fmt.Sprintf("expression macro returned %d nodes", len(l)))
		}
		if l[0].Kind.Class() != tree.Expr {
			return nil, invalid(site, fmt.Sprintf("expression macro returned a %s node", l[0].Kind))
		}
		return l[0], nil
	}
	stmts := make([]*tree.Node, 0, len(l))
	for _, n := range l {
		if n == nil {
			continue
		}
		switch n.Kind.Class() {
		case tree.Expr:
			n = tree.NewExprStmt(n).Located(n.Pos)
		case tree.Stmt:
		default:
			return nil, invalid(site, fmt.Sprintf("%s macro returned a %s node", site.Shape, n.Kind))
		}
		stmts = append(stmts, n)
	}
	return stmts, nil
}

func invalid(site *macro.Site, reason string) error {
	return &splice.PostProcessingError{
		Kind:   site.Node.Kind.String(),
		Pos:    site.Node.Pos,
		Reason: reason,
	}
}

func display(output interface{}) string {
	switch x := output.(type) {
	case *tree.Node:
		if s, err := syntax.Render(x); err == nil {
			return s
		}
		return tree.Indented(x)
	case []*tree.Node:
		if s, err := syntax.RenderStmts(x); err == nil {
			return s
		}
		return tree.FormatList(x)
	}
	return fmt.Sprintf("%v", output)
}
