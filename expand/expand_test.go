package expand

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
	"golang.org/x/tools/txtar"
)

// testMacros is the macro module "testmacros" used by the golden tests.
func testMacros() *macro.Module {
	b := macro.NewBuilder("testmacros")
	b.Add(macro.ExprShape, "double", func(c *macro.Call) (interface{}, error) {
		return tree.NewBinOp(c.Node(), "+", c.Node()), nil
	}, 0)
	b.Add(macro.ExprShape, "again", func(c *macro.Call) (interface{}, error) {
		return tree.NewSubscript(tree.Ident("double"), c.Node(), tree.NoCtx), nil
	}, 0)
	b.Add(macro.BlockShape, "twice", func(c *macro.Call) (interface{}, error) {
		return append(append([]*tree.Node{}, c.Body()...), c.Body()...), nil
	}, 0)
	b.Add(macro.BlockShape, "drop", func(c *macro.Call) (interface{}, error) {
		return nil, nil
	}, 0)
	b.Add(macro.DecoratorShape, "noop", func(c *macro.Call) (interface{}, error) {
		return c.Node(), nil
	}, 0)
	b.Add(macro.ExprShape, "trace", func(c *macro.Call) (interface{}, error) {
		src, err := c.ExactSource(c.Node())
		if err != nil {
			return nil, err
		}
		return tree.NewCall(tree.Ident("log"), []*tree.Node{tree.NewStr(src), c.Node()}, nil), nil
	}, macro.WantExactSource)
	b.Add(macro.ExprShape, "show", func(c *macro.Call) (interface{}, error) {
		x, err := c.Expand(c.Node())
		if err != nil {
			return nil, err
		}
		s, err := syntax.Render(x.(*tree.Node))
		if err != nil {
			return nil, err
		}
		return tree.NewStr(s), nil
	}, macro.WantExpand)
	b.Add(macro.BlockShape, "init", func(c *macro.Call) (interface{}, error) {
		init := tree.NewAssign([]*tree.Node{tree.NewName(c.Target.Text("id"), tree.NoCtx)}, tree.NewInt(0))
		return append([]*tree.Node{init}, c.Body()...), nil
	}, macro.WantTarget)
	b.Add(macro.ExprShape, "count_args", func(c *macro.Call) (interface{}, error) {
		return tree.NewInt(int64(len(c.Args))), nil
	}, macro.WantArgs)
	b.Add(macro.ExprShape, "answer", func(c *macro.Call) (interface{}, error) {
		return c.Alias(int64(42), "answer"), nil
	}, macro.WantAlias)
	b.Add(macro.ExprShape, "fresh", func(c *macro.Call) (interface{}, error) {
		return tree.NewName(c.GenSym("tmp"), tree.NoCtx), nil
	}, macro.WantGenSym)
	b.Add(macro.ExprShape, "fail", func(c *macro.Call) (interface{}, error) {
		return nil, errors.New("boom")
	}, 0)
	b.Add(macro.ExprShape, "explode", func(c *macro.Call) (interface{}, error) {
		panic("kaboom")
	}, 0)
	b.Add(macro.ExprShape, "stmt", func(c *macro.Call) (interface{}, error) {
		return tree.NewPass(), nil
	}, 0)
	b.Add(macro.BlockShape, "badassign", func(c *macro.Call) (interface{}, error) {
		return tree.NewAssign([]*tree.Node{tree.NewInt(1)}, tree.NewInt(2)), nil
	}, 0)
	b.Expose("log")
	return b.Build()
}

var testResolver = ResolverFunc(func(name string) (*macro.Module, error) {
	if name == "testmacros" {
		return testMacros(), nil
	}
	return nil, fmt.Errorf("no macro module %s", name)
})

func TestGolden(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden files found")
	}
	for _, file := range files {
		file := file
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			runGolden(t, file)
		})
	}
}

func runGolden(t *testing.T, file string) {
	ar, err := txtar.ParseFile(file)
	if err != nil {
		t.Fatal(err)
	}
	sections := make(map[string]string)
	for _, f := range ar.Files {
		sections[f.Name] = string(f.Data)
	}
	src := sections["input.spx"]
	m, err := syntax.Parse(src)
	if err != nil {
		t.Fatalf("cannot parse input: %v", err)
	}
	result, err := Module(m, src, testResolver)
	if expected, ok := sections["error"]; ok {
		checkError(t, err, expected)
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	expected, err := syntax.Parse(sections["output.spx"])
	if err != nil {
		t.Fatalf("cannot parse expected output: %v", err)
	}
	if !tree.Equal(result.Tree, expected) {
		t.Errorf("unexpected expansion result:\n%s\nexpected:\n%s",
			syntax.MustRender(result.Tree), syntax.MustRender(expected))
	}
}

// checkError compares an error against the error section of a golden file:
// the first line names the error type, the rest is a part of the message.
func checkError(t *testing.T, err error, expected string) {
	if err == nil {
		t.Fatalf("expected expansion to fail")
	}
	t.Logf("error: %v", err)
	lines := strings.SplitN(strings.TrimSpace(expected), "\n", 2)
	var ok bool
	switch lines[0] {
	case "MacroResolutionError":
		var e *splice.MacroResolutionError
		ok = errors.As(err, &e)
	case "MacroExpansionError":
		var e *splice.MacroExpansionError
		ok = errors.As(err, &e)
	case "PostProcessingError":
		var e *splice.PostProcessingError
		ok = errors.As(err, &e)
	default:
		t.Fatalf("unknown error type %s in golden file", lines[0])
	}
	if !ok {
		t.Errorf("expected error of type %s, have %T", lines[0], err)
	}
	if len(lines) > 1 && !strings.Contains(err.Error(), strings.TrimSpace(lines[1])) {
		t.Errorf("expected error message to contain %q", strings.TrimSpace(lines[1]))
	}
}

func TestHasMacroImports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	cases := []struct {
		src string
		has bool
	}{
		{"from m import macros, a", true},
		{"x = 1\nfrom m import macros", true},
		{"from m import a, macros", false},
		{"from m import macros as ms, a", false},
		{"import macros", false},
		{"if x { from m import macros, a }", false},
		{"s = 'from m import macros, a'", false},
	}
	for _, c := range cases {
		m, err := syntax.Parse(c.src)
		if err != nil {
			t.Fatal(err)
		}
		if HasMacroImports(m) != c.has {
			t.Errorf("expected HasMacroImports(%q) to be %v", c.src, c.has)
		}
	}
}

func TestUnknownModule(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	m, err := syntax.Parse("from nowhere import macros, x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Module(m, "", testResolver); err == nil {
		t.Fatal("expected import of unknown macro module to fail")
	}
	t.Logf("error: %v", err)
}

func TestHygienicBindings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	src := "from testmacros import macros, answer, fresh\nanswer1 = 1\nx = answer[0] + answer[0]\ny = fresh[0]\nz = fresh[0]"
	m, err := syntax.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Module(m, src, testResolver)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Bindings) != 2 {
		t.Fatalf("expected one binding per invocation, have %v", result.Bindings)
	}
	for i, name := range []string{"answer2", "answer3"} {
		if b := result.Bindings[i]; b.Name != name || b.Value != int64(42) {
			t.Errorf("expected binding %s=42, have %s", name, b)
		}
	}
	body := result.Tree.Children("body")
	x := body[2].Child("value")
	if x.Child("left").Text("id") != "answer2" || x.Child("right").Text("id") != "answer3" {
		t.Errorf("unexpected hygienic references: %s", syntax.MustRender(body[2]))
	}
	y, z := body[3].Child("value"), body[4].Child("value")
	if y.Text("id") != "tmp" || z.Text("id") != "tmp1" || y.Ctx != tree.Load {
		t.Errorf("expected fresh names tmp and tmp1 in load context, have %s and %s", y, z)
	}
	if result.Count != 4 {
		t.Errorf("expected 4 substitutions, have %d", result.Count)
	}
	if len(result.Imports) != 1 || result.Imports[0].Macros["fresh"] != "fresh" {
		t.Errorf("unexpected imports %v", result.Imports)
	}
}

func TestFilledPositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	src := "from testmacros import macros, init\n\nwith init as c {\n    c += 1\n}"
	m, err := syntax.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Module(m, src, testResolver)
	if err != nil {
		t.Fatal(err)
	}
	body := result.Tree.Children("body")
	if len(body) != 3 {
		t.Fatalf("expected 3 statements, have %d", len(body))
	}
	var last splice.Pos
	for _, stmt := range body {
		if !stmt.Pos.IsKnown() || stmt.Pos.Less(last) {
			t.Errorf("expected non-decreasing positions, have %s after %s", stmt.Pos, last)
		}
		last = stmt.Pos
	}
	init := body[1]
	if init.Pos.Line != 3 || init.Children("targets")[0].Pos.Line != 3 {
		t.Errorf("expected generated assignment to be located at the with-statement, is %s", init.Pos)
	}
	if body[2].Pos.Line != 4 {
		t.Errorf("expected user statement to keep its position, is %s", body[2].Pos)
	}
}

func TestMonotonePositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	at := func(line int) splice.Pos { return splice.Pos{Line: line, Col: 1} }
	l := []*tree.Node{
		tree.NewPass().Located(at(5)),
		tree.NewPass(),
		tree.NewPass().Located(at(2)),
		tree.NewPass().Located(at(7)),
	}
	out, err := fillPositions(l, tree.NewPass().Located(at(3)))
	if err != nil {
		t.Fatal(err)
	}
	expected := []int{5, 5, 5, 7}
	for i, n := range out.([]*tree.Node) {
		if n.Pos.Line != expected[i] {
			t.Errorf("expected statement #%d at line %d, is %s", i, expected[i], n.Pos)
		}
	}
	if l[1].Pos.IsKnown() {
		t.Errorf("input nodes must not be modified")
	}
}

func TestContextFixer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	a := tree.NewName("a", tree.NoCtx)
	b := tree.NewName("b", tree.Load) // wrong context supplied by a handler
	target := tree.NewTuple([]*tree.Node{a, tree.NewAttribute(tree.NewName("o", tree.NoCtx), "x", tree.NoCtx)}, tree.NoCtx)
	stmts := []*tree.Node{
		tree.NewAssign([]*tree.Node{target}, tree.NewName("v", tree.NoCtx)),
		tree.NewDelete([]*tree.Node{b}),
	}
	out, err := fixContexts(stmts, nil)
	if err != nil {
		t.Fatal(err)
	}
	l := out.([]*tree.Node)
	tgt := l[0].Children("targets")[0]
	if tgt.Ctx != tree.Store || tgt.Children("elts")[0].Ctx != tree.Store {
		t.Errorf("expected tuple target in store context: %s", tgt)
	}
	attr := tgt.Children("elts")[1]
	if attr.Ctx != tree.Store || attr.Child("value").Ctx != tree.Load {
		t.Errorf("expected attribute target in store context, its value in load context")
	}
	if l[0].Child("value").Ctx != tree.Load {
		t.Errorf("expected assigned value in load context")
	}
	if l[1].Children("targets")[0].Ctx != tree.Del {
		t.Errorf("expected deletion target to be forced to del context")
	}
	if a.Ctx != tree.NoCtx || b.Ctx != tree.Load {
		t.Errorf("input nodes must not be modified")
	}
	//
	bad := tree.NewAugAssign(tree.NewCall(tree.Ident("f"), nil, nil), "+", tree.NewInt(1))
	_, err = fixContexts(bad, nil)
	var ppe *splice.PostProcessingError
	if !errors.As(err, &ppe) {
		t.Errorf("expected post-processing error for call as assignment target, have %v", err)
	}
}

func TestExactSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.expand")
	defer teardown()
	//
	src := "x = (1 +\n  2) * y\nif x {\n    a = [1, 2]\n    b = 3   # comment\n}\nz = 'q'\n"
	m, err := syntax.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(m, src)
	body := m.Children("body")
	product := body[0].Child("value")
	s, err := ctx.ExactSource(product)
	if err != nil || s != "(1 +\n  2) * y" {
		t.Errorf("unexpected exact source for product: %q, %v", s, err)
	}
	s, err = ctx.ExactSource(product.Child("left"))
	if err != nil || s != "1 +\n  2" {
		t.Errorf("unexpected exact source for sum: %q, %v", s, err)
	}
	s, err = ctx.ExactSource(body[1].Children("body"))
	if err != nil || s != "a = [1, 2]\nb = 3" {
		t.Errorf("unexpected exact source for block: %q, %v", s, err)
	}
	s, err = ctx.ExactSource(body[2].Child("value"))
	if err != nil || s != "'q'" {
		t.Errorf("unexpected exact source for string: %q, %v", s, err)
	}
	if _, err = ctx.ExactSource(tree.NewInt(1)); !errors.Is(err, splice.ErrNoExactSource) {
		t.Errorf("expected generated nodes to have no exact source, have %v", err)
	}
}
