package expand

import (
	"github.com/npillmayer/splice/hygiene"
	"github.com/npillmayer/splice/tree"
)

// Context is the state of the expansion of one source file. It is shared by
// all macro invocations within the file.
type Context struct {
	src      string
	root     *tree.Node
	gensym   *hygiene.GenSym
	bindings *hygiene.Bindings
	index    *sourceIndex // created on first use
}

// NewContext creates an expansion context for a parsed source file. src is
// the source text root has been parsed from; it may be empty, in which case
// exact source lookups fail.
func NewContext(root *tree.Node, src string) *Context {
	return &Context{
		src:      src,
		root:     root,
		gensym:   hygiene.NewGenSym(root),
		bindings: hygiene.NewBindings(),
	}
}

// GenSym returns the file-wide symbol generator.
func (c *Context) GenSym() *hygiene.GenSym {
	return c.gensym
}

// Bindings returns the hygienic captures registered so far, in order of
// registration.
func (c *Context) Bindings() []hygiene.Binding {
	return c.bindings.Slice()
}

// ExactSource returns the original source text of a subtree of the file.
func (c *Context) ExactSource(t interface{}) (string, error) {
	if c.index == nil {
		c.index = newSourceIndex(c.src, c.root)
	}
	return c.index.exact(t)
}
