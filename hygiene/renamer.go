package hygiene

import (
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/npillmayer/splice/quote"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// UnhygienicEscape is the name of the escape exempting a name from renaming.
const UnhygienicEscape = "unhygienic"

// CapturedBuiltin is the reconstruction builtin creating Captured nodes.
const CapturedBuiltin = "Captured"

// scope is the set of names bound within a quoted fragment, at some point of
// the fragment. Scopes are never modified once they have been handed to the
// walker.
type scope struct {
	names *hashset.Set
}

func newScope(outer *scope, names ...string) *scope {
	s := &scope{names: hashset.New()}
	if outer != nil {
		s.names.Add(outer.names.Values()...)
	}
	for _, n := range names {
		s.names.Add(n)
	}
	return s
}

func (s *scope) binds(name string) bool {
	return s.names.Contains(name)
}

// Rename makes a quoted fragment hygienic. Every name read within the
// fragment, which is not bound within the fragment itself, is replaced by
// generator code capturing the value of the name:
//
//    x   →   ast.Captured(x, "x")
//
// The result is wrapped into a literal marker, which quote.Generator emits
// verbatim. `unhygienic[x]` is replaced by x, which is not renamed.
// Literal markers, i.e. spliced parts of the quote, are left alone.
func Rename(fragment interface{}) (interface{}, error) {
	switch x := fragment.(type) {
	case *tree.Node:
		return renamer.Recurse(x, newScope(nil, assignments([]*tree.Node{x})...))
	case []*tree.Node:
		return renamer.RecurseList(x, newScope(nil, assignments(x)...))
	}
	return fragment, nil
}

var renamer = walk.New[*scope, struct{}](func(n *tree.Node, sc *scope, ctl *walk.Control[*scope, struct{}]) error {
	switch n.Kind {
	case tree.Literal:
		ctl.Stop()
	case tree.Subscript:
		if n.Child("value").IsName(UnhygienicEscape) {
			inner := n.Child("index")
			if inner.Kind.HasCtx() {
				inner = inner.WithCtx(tree.NoCtx)
			}
			ctl.Replace(inner)
			ctl.Stop()
		}
	case tree.Name:
		if (n.Ctx == tree.Load || n.Ctx == tree.NoCtx) && !sc.binds(n.Text("id")) {
			ctl.Replace(capturedRef(n))
			ctl.Stop()
		}
	case tree.FunctionDef:
		body := n.Children("body")
		inner := append([]string{n.Text("name")}, argNames(n.Children("args"))...)
		inner = append(inner, assignments(body)...)
		ctl.SetFieldCtx("body", newScope(sc, inner...))
	case tree.Lambda:
		ctl.SetFieldCtx("body", newScope(sc, argNames(n.Children("args"))...))
	case tree.ClassDef:
		ctl.SetFieldCtx("body", newScope(sc, assignments(n.Children("body"))...))
	case tree.For:
		ctl.SetFieldCtx("body", newScope(sc, targetNames(n.Child("target"))...))
	}
	return nil
})

// capturedRef creates generator code `ast.Captured(id, "id")`, wrapped into
// a literal marker.
func capturedRef(n *tree.Node) *tree.Node {
	id := n.Text("id")
	code := tree.NewCall(quote.Builtin(CapturedBuiltin),
		[]*tree.Node{tree.Ident(id), tree.NewStr(id)}, nil)
	return tree.NewLiteral(code, false).Located(n.Pos)
}

func argNames(args []*tree.Node) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Text("name")
	}
	return names
}

// targetNames finds the names bound by an assignment target. Attributes and
// subscripts do not bind names.
func targetNames(target *tree.Node) []string {
	switch target.Kind {
	case tree.Name:
		return []string{target.Text("id")}
	case tree.Tuple, tree.List:
		var names []string
		for _, e := range target.Children("elts") {
			names = append(names, targetNames(e)...)
		}
		return names
	}
	return nil
}

// assignments finds the names bound by a list of statements, without looking
// into nested function and class definitions.
func assignments(stmts []*tree.Node) []string {
	var names []string
	for _, s := range stmts {
		switch s.Kind {
		case tree.Assign:
			for _, t := range s.Children("targets") {
				names = append(names, targetNames(t)...)
			}
		case tree.AugAssign:
			names = append(names, targetNames(s.Child("target"))...)
		case tree.For:
			names = append(names, targetNames(s.Child("target"))...)
			names = append(names, assignments(s.Children("body"))...)
		case tree.FunctionDef, tree.ClassDef:
			names = append(names, s.Text("name"))
		case tree.With:
			for _, item := range s.Children("items") {
				if v := item.Child("vars"); v != nil {
					names = append(names, targetNames(v)...)
				}
			}
			names = append(names, assignments(s.Children("body"))...)
		case tree.If:
			names = append(names, assignments(s.Children("body"))...)
			names = append(names, assignments(s.Children("orelse"))...)
		case tree.While:
			names = append(names, assignments(s.Children("body"))...)
		case tree.Import, tree.ImportFrom:
			for _, a := range s.Children("names") {
				if as := a.Text("asname"); as != "" {
					names = append(names, as)
				} else {
					names = append(names, a.Text("name"))
				}
			}
		}
	}
	return names
}
