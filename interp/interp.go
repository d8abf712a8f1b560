package interp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/splice/expand"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/runtime"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

// Loader finds the source text of a module.
type Loader interface {
	Load(module string) (string, error)
}

// DirLoader loads modules from a directory tree. Module a.b is read from
// file a/b.spx.
type DirLoader struct {
	Path string
}

// SourceExt is the file extension of spx modules.
const SourceExt = ".spx"

// Load reads the source of a module.
func (l DirLoader) Load(module string) (string, error) {
	path := filepath.Join(l.Path, filepath.FromSlash(strings.ReplaceAll(module, ".", "/"))+SourceExt)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no module named '%s'", module)
		}
		return "", err
	}
	return string(src), nil
}

// MapLoader serves module sources from memory.
type MapLoader map[string]string

// Load looks up the source of a module.
func (l MapLoader) Load(module string) (string, error) {
	src, ok := l[module]
	if !ok {
		return "", fmt.Errorf("no module named '%s'", module)
	}
	return src, nil
}

// --- Interpreter -----------------------------------------------------------

// Interpreter runs spx modules. Modules are imported at most once; macro
// modules are imported on demand while expanding modules which use them.
type Interpreter struct {
	rt      *runtime.Runtime
	loader  Loader
	modules map[string]*Module
	loading map[string]bool
	out     io.Writer
}

// Option configures an interpreter.
type Option func(*Interpreter)

// WithOutput directs the output of print to w.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// New creates an interpreter. loader may be nil, in which case only the
// native modules are importable.
func New(loader Loader, opts ...Option) *Interpreter {
	in := &Interpreter{
		rt:      runtime.NewRuntimeEnvironment(),
		loader:  loader,
		modules: make(map[string]*Module),
		loading: make(map[string]bool),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(in)
	}
	in.rt.UData = in
	for name, b := range builtins() {
		in.rt.Builtins.Set(name, b)
	}
	for _, cls := range exceptionClasses {
		in.rt.Builtins.Set(cls.Name, cls)
	}
	in.register(quoteModule())
	in.register(hquoteModule())
	return in
}

func (in *Interpreter) register(m *Module) {
	in.modules[m.Name] = m
}

// RegisterMacros makes a macro module implemented in Go importable. values
// are installed into the module's namespace, to be used by importers, for
// example as names exposed by the macro module.
func (in *Interpreter) RegisterMacros(m *macro.Module, values map[string]interface{}) *Module {
	mod := &Module{Name: m.Name(), Scope: in.rt.NewModuleScope(m.Name()), Macros: m}
	for name, v := range values {
		mod.Scope.Set(name, v)
	}
	in.register(mod)
	return mod
}

// Import returns the module with a given name, loading and running it if it
// has not been imported before.
func (in *Interpreter) Import(name string) (*Module, error) {
	if m, ok := in.modules[name]; ok {
		return m, nil
	}
	if in.loading[name] {
		return nil, fmt.Errorf("circular import of module %s", name)
	}
	if in.loader == nil {
		return nil, fmt.Errorf("no module named '%s'", name)
	}
	src, err := in.loader.Load(name)
	if err != nil {
		return nil, err
	}
	in.loading[name] = true
	defer delete(in.loading, name)
	tracer().Infof("importing module %s", name)
	return in.Run(name, src)
}

// Run expands and executes the source of a module. If the module defines a
// macro registry named `macros`, its macros are available to importers
// afterwards.
func (in *Interpreter) Run(name, src string) (*Module, error) {
	res, err := in.Expand(name, src)
	if err != nil {
		return nil, err
	}
	m := &Module{Name: name, Scope: in.rt.NewModuleScope(name)}
	m.Scope.Set("__name__", name)
	for _, b := range res.Bindings {
		m.Scope.Set(b.Name, b.Value)
	}
	if err = in.execModule(res.Tree, m.Scope); err != nil {
		return nil, err
	}
	if v, ok := m.Scope.Local(expand.MacrosName); ok {
		if reg, ok := v.(*MacroRegistry); ok {
			m.Macros = reg.Build()
			tracer().Debugf("module %s defines macros %v", name, m.Macros.Names())
		}
	}
	in.register(m)
	return m, nil
}

func (in *Interpreter) execModule(m *tree.Node, sc *runtime.Scope) error {
	r, err := in.execBody(m.Children("body"), sc)
	if err != nil {
		return err
	}
	if r != nil {
		return in.raise(m, "'return' outside of function")
	}
	return nil
}

// Expand parses the source of a module and expands the macros it uses.
func (in *Interpreter) Expand(name, src string) (*expand.Result, error) {
	m, err := syntax.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return expand.ModuleInScope(m, src, expand.ResolverFunc(in.resolve), in.reserved())
}

// reserved returns the names generated symbols must avoid in every module:
// the names of builtins.
func (in *Interpreter) reserved() []string {
	return sortedNames(in.rt.Builtins)
}

// resolve imports a module for its macros.
func (in *Interpreter) resolve(module string) (*macro.Module, error) {
	m, err := in.Import(module)
	if err != nil {
		return nil, err
	}
	if m.Macros == nil {
		return nil, fmt.Errorf("module %s does not define macros", module)
	}
	return m.Macros, nil
}

// --- Sessions --------------------------------------------------------------

// Session evaluates a sequence of inputs within one namespace, as a REPL
// does. Macro imports stay in effect for subsequent inputs.
type Session struct {
	in      *Interpreter
	module  *Module
	imports []string // source of macro import declarations
}

// NewSession creates a session with a fresh namespace called name.
func (in *Interpreter) NewSession(name string) *Session {
	m := &Module{Name: name, Scope: in.rt.NewModuleScope(name)}
	m.Scope.Set("__name__", name)
	return &Session{in: in, module: m}
}

// Module returns the namespace of a session.
func (s *Session) Module() *Module {
	return s.module
}

// Expand expands an input within the session, without executing it. Macro
// imports of earlier inputs are in effect.
func (s *Session) Expand(src string) (*expand.Result, error) {
	res, _, err := s.expand(src)
	return res, err
}

func (s *Session) expand(src string) (*expand.Result, []*tree.Node, error) {
	stmts, err := syntax.ParseStmts(src)
	if err != nil {
		return nil, nil, err
	}
	prelude := ""
	if len(s.imports) > 0 {
		prelude = strings.Join(s.imports, "\n") + "\n"
	}
	full := prelude + src
	m, err := syntax.Parse(full)
	if err != nil {
		return nil, nil, err
	}
	res, err := expand.ModuleInScope(m, full, expand.ResolverFunc(s.in.resolve),
		append(s.in.reserved(), sortedNames(s.module.Scope)...))
	return res, stmts, err
}

// Eval expands and executes an input. If the input ends with an expression
// statement, its value is returned.
func (s *Session) Eval(src string) (interface{}, error) {
	res, stmts, err := s.expand(src)
	if err != nil {
		return nil, err
	}
	for _, b := range res.Bindings {
		s.module.Scope.Set(b.Name, b.Value)
	}
	for _, stmt := range stmts {
		if expand.IsMacroImport(stmt) {
			text, err := syntax.Render(stmt)
			if err != nil {
				return nil, err
			}
			s.imports = append(s.imports, strings.TrimSpace(text))
		}
	}
	body := res.Tree.Children("body")
	var last *tree.Node
	if len(stmts) > 0 && stmts[len(stmts)-1].Is(tree.ExprStmt) && len(body) > 0 {
		if x := body[len(body)-1]; x.Is(tree.ExprStmt) {
			last, body = x, body[:len(body)-1]
		}
	}
	if r, err := s.in.execBody(body, s.module.Scope); err != nil {
		return nil, err
	} else if r != nil {
		return nil, s.in.raise(res.Tree, "'return' outside of function")
	}
	if last == nil {
		return nil, nil
	}
	return s.in.eval(last.Child("value"), s.module.Scope)
}

// Show converts a value to its representation, as a REPL displays it.
func Show(v interface{}) string {
	return repr(v)
}
