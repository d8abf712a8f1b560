package quote

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/syntax"
	"github.com/npillmayer/splice/tree"
)

func render(t *testing.T, n *tree.Node) string {
	s, err := syntax.Render(n)
	if err != nil {
		t.Fatalf("cannot render %s: %v", n, err)
	}
	return s
}

func TestGenerator(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	x, err := syntax.ParseExpr("1 + x")
	if err != nil {
		t.Fatal(err)
	}
	g, err := Generator(x)
	if err != nil {
		t.Fatal(err)
	}
	expected := `ast.BinOp(left=ast.Num(n=1), op="+", right=ast.Name(id="x", ctx="load"))`
	if s := render(t, g); s != expected {
		t.Errorf("expected generator\n%s\nhave\n%s", expected, s)
	}
}

func TestGeneratorEdgeCases(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	cases := []struct {
		n        *tree.Node
		expected string
	}{
		{tree.NewInt(-5), `ast.Num(n=(-5))`},
		{tree.NewFloat(math.Inf(1)), `ast.Num(n=1e999)`},
		{tree.NewFloat(math.Inf(-1)), `ast.Num(n=(-1e999))`},
		{tree.NewStr("a \"b\"\n"), `ast.Str(s="a \"b\"\n")`},
		{tree.NewConst(nil), `ast.Const()`},
		{tree.NewTuple(nil, tree.Load), `ast.Tuple(ctx="load")`},
	}
	for _, c := range cases {
		g, err := Generator(c.n)
		if err != nil {
			t.Fatal(err)
		}
		s := render(t, g)
		if s != c.expected {
			t.Errorf("expected %s, have %s", c.expected, s)
		}
		// the generator code must survive a trip through the renderer
		reparsed, err := syntax.ParseExpr(s)
		if err != nil {
			t.Fatal(err)
		}
		if !tree.Equal(reparsed, g) {
			t.Errorf("generator code %s does not round-trip", s)
		}
	}
}

func TestUnquoteEscapes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	x, err := syntax.ParseExpr("f(u[a + b], name[n], ast_literal[t], ast_list[xs])")
	if err != nil {
		t.Fatal(err)
	}
	g, err := Compile(x)
	if err != nil {
		t.Fatal(err)
	}
	expected := `ast.Call(func=ast.Name(id="f", ctx="load"), args=ast.splice_list(` +
		`[ast.repr(a + b), ast.Name(id=n), t], xs))`
	if s := render(t, g); s != expected {
		t.Errorf("expected generator\n%s\nhave\n%s", expected, s)
	}
	x, _ = syntax.ParseExpr("ast_list[xs]")
	g, err = Compile(x)
	if err != nil {
		t.Fatal(err)
	}
	if s := render(t, g); s != `ast.List(elts=xs)` {
		t.Errorf("expected list splice in single position to create a List node, have %s", s)
	}
}

func TestStatementSplice(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	stmts, err := syntax.ParseStmts("x = 1\nast_literal[body]\nreturn x")
	if err != nil {
		t.Fatal(err)
	}
	g, err := Compile(stmts)
	if err != nil {
		t.Fatal(err)
	}
	expected := `ast.splice_list([ast.Assign(targets=[ast.Name(id="x", ctx="store")], value=ast.Num(n=1))], ` +
		`body, [ast.Return(value=ast.Name(id="x", ctx="load"))], stmts=True)`
	if s := render(t, g); s != expected {
		t.Errorf("expected generator\n%s\nhave\n%s", expected, s)
	}
}

func TestLift(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	cases := []struct {
		v        interface{}
		expected string
	}{
		{int64(-3), "(-3)"},
		{2.5, "2.5"},
		{"s", `"s"`},
		{nil, "None"},
		{true, "True"},
		{[]interface{}{int64(1), "a", []interface{}{}}, `[1, "a", []]`},
		{tree.Ident("x"), `ast.Name(id="x", ctx="load")`},
	}
	for _, c := range cases {
		l, err := Lift(c.v)
		if err != nil {
			t.Fatal(err)
		}
		if s := render(t, l); s != c.expected {
			t.Errorf("expected %v to lift to %s, have %s", c.v, c.expected, s)
		}
	}
	type opaque struct{ x int }
	l, err := Lift(&opaque{1})
	if err != nil {
		t.Fatal(err)
	}
	if !l.Is(tree.Captured) {
		t.Errorf("expected opaque value to be captured, have %s", l)
	}
}

func TestConstruct(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.quote")
	defer teardown()
	//
	n, err := Construct(tree.BinOp, []interface{}{tree.NewInt(1)}, map[string]interface{}{
		"op":    "+",
		"right": tree.NewInt(2),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(n, tree.NewBinOp(tree.NewInt(1), "+", tree.NewInt(2))) {
		t.Errorf("unexpected node %s", n)
	}
	n, err = Construct(tree.Name, nil, map[string]interface{}{"id": "x", "ctx": "store"})
	if err != nil || n.Ctx != tree.Store {
		t.Errorf("expected name in store context, have %v, %v", n, err)
	}
	var qerr *splice.QuoteReconstructionError
	if _, err = Construct(tree.BinOp, nil, map[string]interface{}{"left": "no node"}); !errors.As(err, &qerr) {
		t.Errorf("expected reconstruction error for invalid field value, have %v", err)
	}
	if _, err = Construct(tree.Pass, nil, map[string]interface{}{"x": nil}); !errors.As(err, &qerr) {
		t.Errorf("expected reconstruction error for unknown field, have %v", err)
	}
	if _, err = Generator(tree.NewCaptured(1, "one")); !errors.As(err, &qerr) {
		t.Errorf("expected reconstruction error for captured value, have %v", err)
	}
}

func TestSpliceList(t *testing.T) {
	l, err := SpliceList(true, []*tree.Node{tree.NewPass()}, tree.Ident("x"),
		[]interface{}{tree.NewPass(), tree.NewInt(1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(l) != 4 || !l[1].Is(tree.ExprStmt) || !l[3].Is(tree.ExprStmt) {
		t.Errorf("unexpected splice result %s", tree.FormatList(l))
	}
	if _, err = SpliceList(false, []interface{}{1}); err == nil {
		t.Errorf("expected error for list of non-nodes")
	}
}
