package hygiene

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
	"github.com/npillmayer/splice/walk"
)

// GenSym generates identifiers which do not clash with any name found in a
// set of trees. A GenSym is not safe for concurrent use.
type GenSym struct {
	used *treeset.Set
}

// NewGenSym creates a symbol generator avoiding all names used in the given
// trees.
func NewGenSym(trees ...*tree.Node) *GenSym {
	g := &GenSym{used: treeset.NewWithStringComparator()}
	for _, t := range trees {
		names, _ := nameFinder.Collect(t, struct{}{})
		for _, name := range names {
			g.used.Add(name)
		}
	}
	return g
}

var nameFinder = walk.New[struct{}, string](func(n *tree.Node, _ struct{}, ctl *walk.Control[struct{}, string]) error {
	switch n.Kind {
	case tree.Name:
		ctl.Collect(n.Text("id"))
	case tree.FunctionDef, tree.ClassDef:
		ctl.Collect(n.Text("name"))
	case tree.Arg:
		ctl.Collect(n.Text("name"))
	case tree.Alias:
		if as := n.Text("asname"); as != "" {
			ctl.Collect(as)
		} else {
			ctl.Collect(strings.Split(n.Text("name"), ".")[0])
		}
	}
	return nil
})

// Reserve marks names as used.
func (g *GenSym) Reserve(names ...string) {
	for _, name := range names {
		g.used.Add(name)
	}
}

// IsUsed checks if a name has been found or generated before.
func (g *GenSym) IsUsed(name string) bool {
	return g.used.Contains(name)
}

// Next returns a fresh identifier derived from base: base itself if it is
// still unused, else base followed by the first free number.
func (g *GenSym) Next(base string) string {
	base = sanitize(base)
	name := base
	for i := 1; g.used.Contains(name) || syntax.IsKeyword(name); i++ {
		name = base + strconv.Itoa(i)
	}
	g.used.Add(name)
	tracer().Debugf("gensym %s", name)
	return name
}

// sanitize turns an arbitrary string into an identifier.
func sanitize(base string) string {
	var b strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "sym"
	}
	return b.String()
}
