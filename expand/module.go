package expand

import (
	"fmt"

	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/hygiene"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/tree"
)

// MacrosName is the marker name of macro import declarations.
const MacrosName = "macros"

// Resolver finds the macro module exported by a source module.
type Resolver interface {
	Resolve(module string) (*macro.Module, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(module string) (*macro.Module, error)

// Resolve calls f(module).
func (f ResolverFunc) Resolve(module string) (*macro.Module, error) {
	return f(module)
}

// Import is a macro import declaration of a module.
type Import struct {
	Module string            // name of the imported module
	Macros map[string]string // local name → macro name
	Pos    splice.Pos
}

// Result is the outcome of the expansion of a module.
type Result struct {
	Tree     *tree.Node        // the expanded module
	Bindings []hygiene.Binding // hygienic captures to install in the module namespace
	Imports  []Import          // macro imports of the module
	Count    int               // number of macro substitutions
}

// IsMacroImport checks for a declaration of the form
//
//     from M import macros, a, b as c
//
func IsMacroImport(n *tree.Node) bool {
	if !n.Is(tree.ImportFrom) {
		return false
	}
	names := n.Children("names")
	return len(names) > 0 && names[0].Text("name") == MacrosName && names[0].Text("asname") == ""
}

// HasMacroImports checks if a module contains macro import declarations at
// top level. Modules without them are not expanded at all.
func HasMacroImports(m *tree.Node) bool {
	if !m.Is(tree.Module) {
		return false
	}
	for _, stmt := range m.Children("body") {
		if IsMacroImport(stmt) {
			return true
		}
	}
	return false
}

// Module expands a parsed module. src is the module's source text, which
// macros may access through exact-source lookups. Macro modules named in
// import declarations are looked up with r.
//
// Macro import declarations are rewritten: macro names are removed, the
// names a macro module exposes unhygienically are added.
func Module(m *tree.Node, src string, r Resolver) (*Result, error) {
	return ModuleInScope(m, src, r, nil)
}

// ModuleInScope is like Module, for code running within a namespace which
// already binds some names. Generated symbols will not clash with bound, nor
// with the names exposed by imported macro modules.
func ModuleInScope(m *tree.Node, src string, r Resolver, bound []string) (*Result, error) {
	if !HasMacroImports(m) {
		return &Result{Tree: m}, nil
	}
	table := macro.NewTable()
	var imports []Import
	var exposed []string
	body := append([]*tree.Node{}, m.Children("body")...)
	for i, stmt := range body {
		if !IsMacroImport(stmt) {
			continue
		}
		name := stmt.Text("module")
		mod, err := r.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot import macros from %s: %w", stmt.Pos, name, err)
		}
		exposed = append(exposed, mod.Exposed()...)
		imp, rewritten := bindImport(table, mod, stmt)
		imports = append(imports, imp)
		body[i] = rewritten
		tracer().Debugf("macro import of %s: %v", name, imp.Macros)
	}
	ctx := NewContext(m, src)
	ctx.GenSym().Reserve(bound...)
	ctx.GenSym().Reserve(exposed...)
	e := NewExpander(table, ctx)
	expanded, err := e.Expand(m.With("body", body))
	if err != nil {
		return nil, err
	}
	tracer().Infof("expanded %d macro invocation(s), %d hygienic binding(s)", e.Substitutions(), len(ctx.Bindings()))
	return &Result{
		Tree:     expanded,
		Bindings: ctx.Bindings(),
		Imports:  imports,
		Count:    e.Substitutions(),
	}, nil
}

// bindImport binds the macros named in a macro import declaration and
// returns the declaration with the macro names replaced by the exposed names
// of the module.
func bindImport(table *macro.Table, mod *macro.Module, stmt *tree.Node) (Import, *tree.Node) {
	imp := Import{Module: stmt.Text("module"), Macros: make(map[string]string), Pos: stmt.Pos}
	table.Activate(mod)
	var kept []*tree.Node
	have := make(map[string]bool)
	for _, alias := range stmt.Children("names")[1:] {
		name, as := alias.Text("name"), alias.Text("asname")
		if table.Bind(mod, name, as) {
			if as == "" {
				as = name
			}
			imp.Macros[as] = name
			continue
		}
		kept = append(kept, alias)
		have[name] = true
	}
	for _, x := range mod.Exposed() {
		if !have[x] {
			kept = append(kept, tree.NewAlias(x, "").Located(stmt.Pos))
		}
	}
	if len(kept) == 0 {
		return imp, tree.NewPass().Located(stmt.Pos)
	}
	return imp, stmt.With("names", kept)
}
