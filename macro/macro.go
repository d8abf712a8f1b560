package macro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/splice/tree"
)

// Shape is the syntactic shape of a macro invocation.
type Shape int8

// Macro shapes, in order of detection priority.
const (
	ExprShape Shape = iota
	BlockShape
	DecoratorShape
)

var shapeNames = [...]string{"expr", "block", "decorator"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "?"
	}
	return shapeNames[s]
}

// --- Handler parameters ----------------------------------------------------

// Params are flags telling which parts of the standard argument bundle a
// handler wants to receive. The payload tree is always handed over.
type Params uint16

const (
	WantArgs        Params = 1 << iota // argument expressions of `name(args)`
	WantTarget                         // target of `with name as target`
	WantModules                        // active macro modules
	WantGenSym                         // symbol generator
	WantAlias                          // hygienic alias allocator
	WantExactSource                    // exact source text accessor
	WantExpand                         // recursive expansion
	WantSite                           // the invocation site itself

	AllParams Params = 1<<iota - 1
)

// paramNames maps the names macro authors use for parameters to flags.
var paramNames = map[string]Params{
	"tree":           0,
	"args":           WantArgs,
	"target":         WantTarget,
	"modules":        WantModules,
	"gen_sym":        WantGenSym,
	"hygienic_alias": WantAlias,
	"exact_src":      WantExactSource,
	"expand_macros":  WantExpand,
	"site":           WantSite,
}

// ParamsByName converts a list of parameter names to flags. Unknown names are
// an error.
func ParamsByName(names ...string) (Params, error) {
	var p Params
	for _, name := range names {
		flag, ok := paramNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown macro parameter '%s'", name)
		}
		p |= flag
	}
	return p, nil
}

// Names returns the names of the parameters set in p, in a fixed order.
func (p Params) Names() []string {
	var names []string
	for name, flag := range paramNames {
		if flag != 0 && p&flag != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// --- Calls -----------------------------------------------------------------

// Call is the standard argument bundle handed to a macro handler. Fields a
// handler did not ask for are left empty.
type Call struct {
	Name   string      // name of the macro as used at the site
	Macro  *Macro      // the macro invoked
	Tree   interface{} // payload: *tree.Node, or []*tree.Node for block macros
	Site   *tree.Node  // node of the invocation site
	Args   []*tree.Node
	Target *tree.Node
	// active macro modules of the file, in import order
	Modules []*Module
	// GenSym returns a fresh identifier, not used anywhere in the file
	GenSym func(base string) string
	// Alias binds a value to a hygienic name and returns a reference to it
	Alias func(value interface{}, name string) *tree.Node
	// ExactSource returns the original source text of a subtree
	ExactSource func(t interface{}) (string, error)
	// Expand expands the macros within a subtree
	Expand func(t interface{}) (interface{}, error)
}

// Restrict clears the fields of a call which are not requested by params.
func (c *Call) Restrict(params Params) *Call {
	r := *c
	if params&WantArgs == 0 {
		r.Args = nil
	}
	if params&WantTarget == 0 {
		r.Target = nil
	}
	if params&WantModules == 0 {
		r.Modules = nil
	}
	if params&WantGenSym == 0 {
		r.GenSym = nil
	}
	if params&WantAlias == 0 {
		r.Alias = nil
	}
	if params&WantExactSource == 0 {
		r.ExactSource = nil
	}
	if params&WantExpand == 0 {
		r.Expand = nil
	}
	if params&WantSite == 0 {
		r.Site = nil
	}
	return &r
}

// Node returns the payload of an expression or decorator macro.
func (c *Call) Node() *tree.Node {
	n, _ := c.Tree.(*tree.Node)
	return n
}

// Body returns the payload of a block macro.
func (c *Call) Body() []*tree.Node {
	l, _ := c.Tree.([]*tree.Node)
	return l
}

// Handler is the type of macro implementations. A handler returns a
// *tree.Node, a []*tree.Node or nil, the latter removing a statement site.
type Handler func(*Call) (interface{}, error)

// Macro is a named handler for one shape.
type Macro struct {
	Name    string
	Shape   Shape
	Module  string // name of the defining module
	Params  Params
	Handler Handler
}

func (m *Macro) String() string {
	return fmt.Sprintf("<%s macro %s.%s>", m.Shape, m.Module, m.Name)
}

// --- Modules ---------------------------------------------------------------

// Module is an immutable collection of macros, created by a Builder.
type Module struct {
	name     string
	registry [3]map[string]*Macro
	exposed  []string
}

// Name returns the name of the macro module.
func (m *Module) Name() string {
	return m.name
}

func (m *Module) String() string {
	return fmt.Sprintf("<macro module %s>", m.name)
}

// Lookup finds a macro of a given shape. It returns nil if there is none.
func (m *Module) Lookup(shape Shape, name string) *Macro {
	return m.registry[shape][name]
}

// Has is true if name is registered as a macro of any shape.
func (m *Module) Has(name string) bool {
	for _, r := range m.registry {
		if _, ok := r[name]; ok {
			return true
		}
	}
	return false
}

// Names returns the sorted names of all the macros of a module.
func (m *Module) Names() []string {
	set := make(map[string]struct{})
	for _, r := range m.registry {
		for name := range r {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exposed returns the names the module injects unhygienically into files
// importing its macros.
func (m *Module) Exposed() []string {
	return m.exposed
}

// Describe lists the macros of a module, one per line.
func (m *Module) Describe() string {
	var b strings.Builder
	for _, name := range m.Names() {
		for _, r := range m.registry {
			if mac, ok := r[name]; ok {
				fmt.Fprintf(&b, "%-10s %s(%s)\n", mac.Shape, name, strings.Join(append([]string{"tree"}, mac.Params.Names()...), ", "))
			}
		}
	}
	for _, name := range m.exposed {
		fmt.Fprintf(&b, "%-10s %s\n", "exposed", name)
	}
	return b.String()
}

// Builder collects macro definitions for a module.
//
//    b := macro.NewBuilder("mymacros")
//    b.Add(macro.ExprShape, "trace", traceHandler, macro.WantArgs)
//    module := b.Build()
//
type Builder struct {
	name     string
	registry [3]map[string]*Macro
	exposed  []string
}

// NewBuilder creates a builder for a macro module.
func NewBuilder(name string) *Builder {
	b := &Builder{name: name}
	for i := range b.registry {
		b.registry[i] = make(map[string]*Macro)
	}
	return b
}

// Add registers a handler. Registering a name twice for the same shape
// replaces the first definition.
func (b *Builder) Add(shape Shape, name string, h Handler, params Params) *Builder {
	if h == nil {
		panic(fmt.Sprintf("macro: nil handler for %s macro %s", shape, name))
	}
	mac := &Macro{Name: name, Shape: shape, Module: b.name, Params: params, Handler: h}
	if _, ok := b.registry[shape][name]; ok {
		tracer().Infof("redefining %s", mac)
	}
	b.registry[shape][name] = mac
	return b
}

// Expose adds a name to the list of names injected into importing files.
func (b *Builder) Expose(names ...string) *Builder {
	for _, name := range names {
		found := false
		for _, e := range b.exposed {
			found = found || e == name
		}
		if !found {
			b.exposed = append(b.exposed, name)
		}
	}
	return b
}

// Build creates an immutable macro module from the definitions collected so
// far. The builder may be used further without affecting the module.
func (b *Builder) Build() *Module {
	m := &Module{name: b.name}
	for i, r := range b.registry {
		m.registry[i] = make(map[string]*Macro, len(r))
		for name, mac := range r {
			m.registry[i][name] = mac
		}
	}
	m.exposed = append([]string(nil), b.exposed...)
	return m
}
